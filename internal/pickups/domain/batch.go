// Package domain holds the driver pickup batch rules.
package domain

import (
	"fmt"

	"predpraznik_backend/platform/apperr"

	"github.com/google/uuid"
)

// Status of a pickup batch.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus validates a wire status.
func ParseStatus(value string) (Status, error) {
	switch s := Status(value); s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return s, nil
	}
	return "", apperr.Validation("unknown pickup status " + value)
}

// Candidate is a cycle proposed for a batch.
type Candidate struct {
	CycleID       uuid.UUID
	SalespersonID uuid.UUID
	Status        string
	OpenPickupID  *uuid.UUID
}

// ValidateSelection checks a batch selection: no duplicates, every id
// known, every cycle dirty or waiting for the driver and on no other open
// batch. found is keyed by cycle id.
func ValidateSelection(ids []uuid.UUID, found map[uuid.UUID]Candidate) error {
	if len(ids) == 0 {
		return apperr.Validation("a pickup needs at least one cycle")
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	var missing, wrongStatus, busy []string
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return apperr.Validation(fmt.Sprintf("cycle %s selected twice", id))
		}
		seen[id] = struct{}{}

		c, ok := found[id]
		switch {
		case !ok:
			missing = append(missing, id.String())
		case c.Status != "dirty" && c.Status != "waiting_driver":
			wrongStatus = append(wrongStatus, id.String())
		case c.OpenPickupID != nil:
			busy = append(busy, id.String())
		}
	}

	if len(missing) > 0 {
		return apperr.NotFound("some cycles do not exist").WithDetails(map[string][]string{"missing": missing})
	}
	if len(wrongStatus) > 0 {
		return apperr.Conflict("only dirty or waiting_driver cycles can be picked up").
			WithDetails(map[string][]string{"cycles": wrongStatus})
	}
	if len(busy) > 0 {
		return apperr.Conflict("some cycles are already on an open pickup").
			WithDetails(map[string][]string{"cycles": busy})
	}
	return nil
}

// ValidateStart allows pending -> in_progress only.
func ValidateStart(s Status) error {
	if s != StatusPending {
		return apperr.Conflict(fmt.Sprintf("cannot start a %s pickup", s))
	}
	return nil
}

// ValidateToggle allows item changes until the batch is completed.
func ValidateToggle(s Status) error {
	if s == StatusCompleted {
		return apperr.Conflict("completed pickups cannot be changed")
	}
	return nil
}

// ValidateComplete allows in_progress -> completed. With requireAll, every
// item must have been marked picked up first.
func ValidateComplete(s Status, unmarked int, requireAll bool) error {
	if s != StatusInProgress {
		return apperr.Conflict(fmt.Sprintf("cannot complete a %s pickup", s))
	}
	if requireAll && unmarked > 0 {
		return apperr.Conflict("some items are not picked up yet").
			WithDetails(map[string]int{"unmarked": unmarked})
	}
	return nil
}

// ValidateDelete refuses completed batches.
func ValidateDelete(s Status) error {
	if s == StatusCompleted {
		return apperr.Conflict("completed pickups cannot be deleted")
	}
	return nil
}
