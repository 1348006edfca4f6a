package repository

import (
	"context"
	"time"

	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
)

// Reminder is a scheduled follow-up of one user, optionally about a company.
type Reminder struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CompanyID   *uuid.UUID
	CompanyName *string
	ReminderAt  time.Time
	Note        string
	Type        string
	IsCompleted bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams contains parameters for creating a reminder.
type CreateParams struct {
	UserID     uuid.UUID
	CompanyID  *uuid.UUID
	ReminderAt time.Time
	Note       string
	Type       string
}

// ReminderReader provides read operations for reminders.
type ReminderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Reminder, error)
	// Due returns open reminders of userID with reminder_at <= now.
	Due(ctx context.Context, userID uuid.UUID, now time.Time) ([]Reminder, error)
	// Upcoming returns open reminders of userID in (from, to].
	Upcoming(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Reminder, error)
}

// ReminderWriter provides write operations for reminders.
type ReminderWriter interface {
	CreateInTx(ctx context.Context, q db.Querier, params CreateParams) (Reminder, error)
	CompleteInTx(ctx context.Context, q db.Querier, id uuid.UUID, at time.Time) (Reminder, error)
	Reschedule(ctx context.Context, id uuid.UUID, at time.Time) (Reminder, error)
	WithTx(ctx context.Context, fn func(q db.Querier) error) error
}

// Repository combines all reminder repository operations.
type Repository interface {
	ReminderReader
	ReminderWriter
}
