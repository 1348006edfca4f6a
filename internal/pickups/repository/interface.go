package repository

import (
	"context"
	"time"

	"predpraznik_backend/internal/pickups/domain"

	"github.com/google/uuid"
)

// Pickup is a driver pickup batch with item counters.
type Pickup struct {
	ID             uuid.UUID
	Status         string
	ScheduledDate  time.Time
	AssignedDriver *string
	Notes          string
	CreatedBy      uuid.UUID
	StartedAt      *time.Time
	CompletedAt    *time.Time
	ItemCount      int
	PickedUpCount  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Item is one cycle on a batch, joined with what the driver needs to see.
type Item struct {
	ID            uuid.UUID
	PickupID      uuid.UUID
	CycleID       uuid.UUID
	Code          string
	CycleStatus   string
	SalespersonID uuid.UUID
	CompanyName   *string
	Address       *string
	City          *string
	Latitude      *float64
	Longitude     *float64
	PickedUp      bool
	PickedUpAt    *time.Time
}

// CompletedCycle is a cycle closed by batch completion.
type CompletedCycle struct {
	ID            uuid.UUID
	SalespersonID uuid.UUID
	CompanyID     *uuid.UUID
	From          string
}

// CreateParams creates a batch with one item per cycle.
type CreateParams struct {
	ScheduledDate  time.Time
	AssignedDriver *string
	Notes          string
	CreatedBy      uuid.UUID
	CycleIDs       []uuid.UUID
}

// ListParams filters batches. SalespersonID keeps batches carrying at least
// one of that salesperson's cycles.
type ListParams struct {
	Status        *string
	SalespersonID *uuid.UUID
	Limit         int
	Offset        int
}

// PickupReader provides read operations for pickups.
type PickupReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Pickup, error)
	List(ctx context.Context, params ListParams) ([]Pickup, int, error)
	Items(ctx context.Context, pickupID uuid.UUID) ([]Item, error)
	Candidates(ctx context.Context, cycleIDs []uuid.UUID) (map[uuid.UUID]domain.Candidate, error)
}

// PickupWriter provides write operations for pickups.
type PickupWriter interface {
	Create(ctx context.Context, params CreateParams) (Pickup, error)
	Start(ctx context.Context, id uuid.UUID) (Pickup, error)
	ToggleItem(ctx context.Context, pickupID, itemID uuid.UUID) (Item, error)
	// Complete closes the batch and every referenced cycle that is still
	// dirty or waiting for the driver, in one transaction.
	Complete(ctx context.Context, id uuid.UUID, requireAll bool) ([]CompletedCycle, error)
	AssignDriver(ctx context.Context, id uuid.UUID, driver *string, scheduledDate *time.Time) (Pickup, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository combines all pickup repository operations.
type Repository interface {
	PickupReader
	PickupWriter
}
