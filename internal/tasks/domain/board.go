// Package domain holds the kanban ordering rules of a salesperson's board.
// Positions inside one column are always 0..n-1.
package domain

import (
	"fmt"

	"predpraznik_backend/platform/apperr"

	"github.com/google/uuid"
)

// Status is a board column.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusNeedsHelp  Status = "needs_help"
)

// Columns in display order.
var Columns = []Status{StatusTodo, StatusInProgress, StatusNeedsHelp, StatusDone}

// ParseStatus validates a wire column name.
func ParseStatus(value string) (Status, error) {
	for _, s := range Columns {
		if string(s) == value {
			return s, nil
		}
	}
	return "", apperr.Validation("unknown task status " + value)
}

// ValidateReorder requires ordered to be a permutation of column.
func ValidateReorder(ordered, column []uuid.UUID) error {
	if len(ordered) != len(column) {
		return apperr.Conflict(fmt.Sprintf("column has %d tasks, got %d", len(column), len(ordered))).
			WithDetails(map[string]int{"expected": len(column), "got": len(ordered)})
	}
	current := make(map[uuid.UUID]struct{}, len(column))
	for _, id := range column {
		current[id] = struct{}{}
	}
	seen := make(map[uuid.UUID]struct{}, len(ordered))
	for _, id := range ordered {
		if _, dup := seen[id]; dup {
			return apperr.Validation(fmt.Sprintf("task %s listed twice", id))
		}
		seen[id] = struct{}{}
		if _, ok := current[id]; !ok {
			return apperr.Conflict(fmt.Sprintf("task %s is not in this column", id))
		}
	}
	return nil
}

// Remove returns column without id.
func Remove(column []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(column))
	for _, v := range column {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// InsertAt places id at position, clamped to the column bounds.
func InsertAt(column []uuid.UUID, id uuid.UUID, position int) []uuid.UUID {
	if position < 0 {
		position = 0
	}
	if position > len(column) {
		position = len(column)
	}
	out := make([]uuid.UUID, 0, len(column)+1)
	out = append(out, column[:position]...)
	out = append(out, id)
	return append(out, column[position:]...)
}
