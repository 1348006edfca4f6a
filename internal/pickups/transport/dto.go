package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreatePickupRequest batches dirty and waiting cycles for a driver.
type CreatePickupRequest struct {
	CycleIDs       []uuid.UUID `json:"cycleIds" validate:"required,min=1,max=200"`
	ScheduledDate  string      `json:"scheduledDate" validate:"required,datetime=2006-01-02"`
	AssignedDriver *string     `json:"assignedDriver,omitempty" validate:"omitempty,max=100"`
	Notes          string      `json:"notes" validate:"max=2000"`
}

// AssignDriverRequest sets the driver and optionally reschedules.
type AssignDriverRequest struct {
	AssignedDriver *string `json:"assignedDriver" validate:"omitempty,max=100"`
	ScheduledDate  *string `json:"scheduledDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ListPickupsRequest are the query filters for GET /pickups.
type ListPickupsRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

// ItemResponse is one cycle on a batch.
type ItemResponse struct {
	ID            uuid.UUID  `json:"id"`
	CycleID       uuid.UUID  `json:"cycleId"`
	Code          string     `json:"code"`
	CycleStatus   string     `json:"cycleStatus"`
	SalespersonID uuid.UUID  `json:"salespersonId"`
	CompanyName   *string    `json:"companyName,omitempty"`
	Address       *string    `json:"address,omitempty"`
	City          *string    `json:"city,omitempty"`
	Latitude      *float64   `json:"latitude,omitempty"`
	Longitude     *float64   `json:"longitude,omitempty"`
	PickedUp      bool       `json:"pickedUp"`
	PickedUpAt    *time.Time `json:"pickedUpAt,omitempty"`
}

// PickupResponse is a batch, with items on single reads.
type PickupResponse struct {
	ID             uuid.UUID      `json:"id"`
	Status         string         `json:"status"`
	ScheduledDate  string         `json:"scheduledDate"`
	AssignedDriver *string        `json:"assignedDriver,omitempty"`
	Notes          string         `json:"notes"`
	CreatedBy      uuid.UUID      `json:"createdBy"`
	StartedAt      *time.Time     `json:"startedAt,omitempty"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
	ItemCount      int            `json:"itemCount"`
	PickedUpCount  int            `json:"pickedUpCount"`
	Items          []ItemResponse `json:"items,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// PickupListResponse wraps a page of batches.
type PickupListResponse struct {
	Items    []PickupResponse `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// CompleteResponse reports which cycles were closed.
type CompleteResponse struct {
	PickupID        uuid.UUID   `json:"pickupId"`
	CompletedCycles []uuid.UUID `json:"completedCycles"`
}
