// AngelaMos | 2026
// scheduler.go

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/carterperez-dev/finddetectives/internal/metrics"
)

const defaultRunTimeout = 2 * time.Minute

// Job is a named unit of background work triggered by a six field cron spec
// (seconds first).
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		timeout: defaultRunTimeout,
	}
}

func (s *Scheduler) Add(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %s: missing run func", job.Name)
	}

	if _, err := s.cron.AddFunc(job.Spec, func() { s.run(job) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", job.Name, err)
	}

	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("job panicked", "job", job.Name, "panic", p)
		}
	}()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed",
			"job", job.Name,
			"error", err,
			"duration", time.Since(start),
		)
		return
	}

	s.logger.Debug("job finished", "job", job.Name, "duration", time.Since(start))
}

type TokenPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

func TokenCleanup(spec string, purger TokenPurger, logger *slog.Logger) Job {
	return Job{
		Name: "refresh_token_cleanup",
		Spec: spec,
		Run: func(ctx context.Context) error {
			n, err := purger.DeleteExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged expired refresh tokens", "count", n)
			}
			return nil
		},
	}
}

// PendingCounter returns the number of items waiting for admin review.
type PendingCounter func(ctx context.Context) (int, error)

// PendingGauges refreshes the pending review gauge for every workflow in
// counters. A failing counter does not stop the others.
func PendingGauges(
	spec string,
	m *metrics.Metrics,
	counters map[string]PendingCounter,
) Job {
	return Job{
		Name: "pending_review_gauges",
		Spec: spec,
		Run: func(ctx context.Context) error {
			var firstErr error
			for workflow, count := range counters {
				n, err := count(ctx)
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("count pending %s: %w", workflow, err)
					}
					continue
				}
				m.SetPending(workflow, n)
			}
			return firstErr
		},
	}
}
