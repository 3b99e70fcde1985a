// AngelaMos | 2026
// saga.go

// Package saga runs multi-step writes that cannot share a database
// transaction. Each completed step pushes an undo action; on failure the
// actions run in reverse order.
package saga

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrCompensationFailed = errors.New("compensation failed")

type UndoFunc func(ctx context.Context) error

type step struct {
	name string
	undo UndoFunc
}

// StepError is one failed undo action.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("undo %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// CompensationError reports every undo action that failed. It matches
// ErrCompensationFailed with errors.Is.
type CompensationError struct {
	Saga   string
	Cause  error
	Failed []*StepError
}

func (e *CompensationError) Error() string {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f)
	}
	return fmt.Sprintf(
		"%s: %v after %v: %v",
		e.Saga, ErrCompensationFailed, e.Cause, errors.Join(errs...),
	)
}

func (e *CompensationError) Is(target error) bool {
	return target == ErrCompensationFailed
}

func (e *CompensationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed)+1)
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	for _, f := range e.Failed {
		errs = append(errs, f)
	}
	return errs
}

// Saga is not safe for concurrent use. One instance belongs to one request.
type Saga struct {
	name  string
	steps []step
}

func New(name string) *Saga {
	return &Saga{name: name}
}

func (s *Saga) Name() string {
	return s.name
}

// Len returns the number of recorded undo actions.
func (s *Saga) Len() int {
	return len(s.steps)
}

// Record pushes the undo action for a step that has just succeeded.
func (s *Saga) Record(ctx context.Context, name string, undo UndoFunc) {
	s.steps = append(s.steps, step{name: name, undo: undo})

	trace.SpanFromContext(ctx).AddEvent("saga.step", trace.WithAttributes(
		attribute.String("saga", s.name),
		attribute.String("step", name),
	))
}

// Compensate runs every recorded undo in reverse order, even when earlier
// ones fail. Undo actions run on a context that ignores cancellation of ctx
// so a dropped client cannot interrupt the rollback.
//
// It returns cause unchanged when all undo actions succeed and a
// *CompensationError otherwise. The stack is empty afterwards.
func (s *Saga) Compensate(ctx context.Context, cause error) error {
	undoCtx := context.WithoutCancel(ctx)
	span := trace.SpanFromContext(ctx)

	var failed []*StepError
	for i := len(s.steps) - 1; i >= 0; i-- {
		st := s.steps[i]
		if err := st.undo(undoCtx); err != nil {
			failed = append(failed, &StepError{Step: st.name, Err: err})
			span.AddEvent("saga.undo_failed", trace.WithAttributes(
				attribute.String("saga", s.name),
				attribute.String("step", st.name),
			))
			continue
		}
		span.AddEvent("saga.undo", trace.WithAttributes(
			attribute.String("saga", s.name),
			attribute.String("step", st.name),
		))
	}
	s.steps = nil

	if len(failed) == 0 {
		return cause
	}

	return &CompensationError{Saga: s.name, Cause: cause, Failed: failed}
}

// Complete discards the undo stack once every step has succeeded.
func (s *Saga) Complete() {
	s.steps = nil
}
