// AngelaMos | 2026
// lifecycle.go

// Package lifecycle holds the review state machine shared by detective
// applications and profile claims.
package lifecycle

import (
	"fmt"
	"net/http"

	"github.com/carterperez-dev/finddetectives/internal/core"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

var ErrInvalidTransition = core.NewAppError(
	core.ErrConflict,
	"invalid status transition",
	http.StatusConflict,
	"INVALID_TRANSITION",
)

var transitions = map[Status][]Status{
	StatusPending:     {StatusUnderReview, StatusApproved, StatusRejected},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    nil,
	StatusRejected:    nil,
}

// Reviewable lists the states an item may leave. Conditional updates use it
// in their WHERE clause.
var Reviewable = []Status{StatusPending, StatusUnderReview}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns ErrInvalidTransition when the
// move is not in the table.
func Transition(from, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("unknown status %q: %w", to, core.ErrInvalidInput)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}
	return nil
}

// ReviewableStrings returns Reviewable as plain strings for query builders.
func ReviewableStrings() []string {
	out := make([]string, len(Reviewable))
	for i, s := range Reviewable {
		out[i] = string(s)
	}
	return out
}
