// Package repository persists the activity log.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one activity_log row.
type Entry struct {
	ID         uuid.UUID
	ActorID    *uuid.UUID
	ActorName  *string
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Metadata   json.RawMessage
	CreatedAt  time.Time
}

// InsertParams describes a new entry.
type InsertParams struct {
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Metadata   json.RawMessage
	CreatedAt  time.Time
}

// FeedParams filters the feed. Nil fields do not filter.
type FeedParams struct {
	ActorID    *uuid.UUID
	EntityType *string
	EntityID   *uuid.UUID
	Since      *time.Time
	Limit      int
	Offset     int
}

// ActionCount is the number of entries per actor and action.
type ActionCount struct {
	ActorID   uuid.UUID
	ActorName string
	Action    string
	Count     int
}

// Repository is the activity log store.
type Repository interface {
	Insert(ctx context.Context, params InsertParams) error
	Feed(ctx context.Context, params FeedParams) ([]Entry, int, error)
	Summary(ctx context.Context, actorID *uuid.UUID, from, to time.Time) ([]ActionCount, error)
}
