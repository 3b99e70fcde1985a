// AngelaMos | 2026
// events.go

// Package events publishes workflow outcomes for downstream consumers such as
// the notification mailer.
package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	ApplicationSubmitted = "application.submitted"
	ApplicationApproved  = "application.approved"
	ApplicationRejected  = "application.rejected"
	ClaimSubmitted       = "claim.submitted"
	ClaimApproved        = "claim.approved"
	ClaimRejected        = "claim.rejected"
)

type Event struct {
	ID        string
	Type      string
	ActorID   string
	SubjectID string
	Timestamp time.Time
	Payload   any
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the structured log. It is used when no
// broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "event published",
		"event_type", event.Type,
		"subject_id", event.SubjectID,
		"actor_id", event.ActorID,
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// PublishAfterCommit sends event and logs instead of failing when the
// broker is unavailable. The state change it describes is already durable.
func PublishAfterCommit(
	ctx context.Context,
	pub Publisher,
	logger *slog.Logger,
	event Event,
) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "publish event failed",
			"event_type", event.Type,
			"subject_id", event.SubjectID,
			"error", err,
		)
	}
}
