// Package domain holds the doormat cycle state machine and its time-derived
// read model. Nothing here touches storage or the clock; callers pass now.
package domain

import (
	"fmt"

	"predpraznik_backend/platform/apperr"
)

// Status is the stored lifecycle state of a cycle.
type Status string

const (
	StatusClean         Status = "clean"
	StatusOnTest        Status = "on_test"
	StatusDirty         Status = "dirty"
	StatusWaitingDriver Status = "waiting_driver"
	StatusCompleted     Status = "completed"
)

// AllStatuses in lifecycle order.
var AllStatuses = []Status{StatusClean, StatusOnTest, StatusDirty, StatusWaitingDriver, StatusCompleted}

// transitions lists every allowed status change. Completion is only ever
// performed by the pickup batcher. Extension keeps on_test and is not a
// status change.
var transitions = map[Status][]Status{
	StatusClean:         {StatusOnTest},
	StatusOnTest:        {StatusDirty, StatusWaitingDriver},
	StatusDirty:         {StatusWaitingDriver, StatusCompleted},
	StatusWaitingDriver: {StatusCompleted},
	StatusCompleted:     {},
}

// ParseStatus validates a wire status.
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if _, ok := transitions[s]; !ok {
		return "", apperr.Validation("unknown cycle status " + value)
	}
	return s, nil
}

// IsOpen reports whether the cycle still holds its code.
func (s Status) IsOpen() bool {
	return s != StatusCompleted
}

// PickupCandidate reports whether the cycle may be put on a pickup batch.
func (s Status) PickupCandidate() bool {
	return s == StatusDirty || s == StatusWaitingDriver
}

// CanTransition reports whether from -> to is in the table.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a Conflict error for a disallowed change.
func ValidateTransition(from, to Status) error {
	if CanTransition(from, to) {
		return nil
	}
	return apperr.Conflict(fmt.Sprintf("cannot move cycle from %s to %s", from, to)).
		WithDetails(map[string]string{"from": string(from), "to": string(to)})
}

// AllowedTransitions returns the statuses reachable from s in one step.
func AllowedTransitions(s Status) []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}
