package repository

import (
	"context"
	"encoding/json"
	"time"

	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
)

// Cycle is one rental iteration of a physical mat, joined with the labels
// the API shows next to it.
type Cycle struct {
	ID                uuid.UUID
	QRCodeID          uuid.UUID
	Code              string
	SalespersonID     uuid.UUID
	SalespersonName   *string
	MatTypeID         uuid.UUID
	MatTypeCode       string
	Status            string
	CompanyID         *uuid.UUID
	CompanyName       *string
	ContactID         *uuid.UUID
	TestStartDate     *time.Time
	TestEndDate       *time.Time
	ContractSigned    bool
	ContractFrequency *string
	ContractSignedAt  *time.Time
	Latitude          *float64
	Longitude         *float64
	Notes             string
	ExtendedCount     int
	CompletedAt       *time.Time
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MatType is a doormat size.
type MatType struct {
	ID       uuid.UUID
	Code     string
	Name     string
	WidthCm  int
	HeightCm int
}

// CodeRef is the part of a QR code activation needs.
type CodeRef struct {
	ID      uuid.UUID
	Code    string
	OwnerID *uuid.UUID
}

// HistoryEntry is one activity log row about a cycle.
type HistoryEntry struct {
	ID        uuid.UUID
	ActorID   *uuid.UUID
	ActorName *string
	Action    string
	Metadata  json.RawMessage
	CreatedAt time.Time
}

// CreateParams activates a free code.
type CreateParams struct {
	QRCodeID      uuid.UUID
	SalespersonID uuid.UUID
	MatTypeID     uuid.UUID
}

// PlaceParams moves a clean cycle on test.
type PlaceParams struct {
	ID        uuid.UUID
	Version   int
	CompanyID uuid.UUID
	ContactID *uuid.UUID
	Latitude  *float64
	Longitude *float64
	StartedAt time.Time
}

// ListParams filters cycles. ExpiringBefore keeps on_test cycles whose trial
// end falls before the given instant, using TrialDays and ExtensionDays.
type ListParams struct {
	Status         *string
	SalespersonID  *uuid.UUID
	CompanyID      *uuid.UUID
	Code           *string
	OpenOnly       bool
	ExpiringBefore *time.Time
	TrialDays      int
	ExtensionDays  int
	Limit          int
	Offset         int
}

// CycleReader provides read operations for cycles.
type CycleReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Cycle, error)
	List(ctx context.Context, params ListParams) ([]Cycle, int, error)
	History(ctx context.Context, cycleID uuid.UUID) ([]HistoryEntry, error)
	LookupCode(ctx context.Context, code string) (CodeRef, error)
	ListMatTypes(ctx context.Context) ([]MatType, error)
	MatTypeExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CycleWriter provides write operations for cycles. Every update is a
// compare-and-swap on version and returns Conflict when the row moved on.
type CycleWriter interface {
	Create(ctx context.Context, params CreateParams) (Cycle, error)
	PlaceOnTestInTx(ctx context.Context, q db.Querier, params PlaceParams) (Cycle, error)
	SetStatus(ctx context.Context, id uuid.UUID, version int, from, to string) (Cycle, error)
	SignContractInTx(ctx context.Context, q db.Querier, id uuid.UUID, version int, frequency string, at time.Time) (Cycle, error)
	Extend(ctx context.Context, id uuid.UUID, version int) (Cycle, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, version int, notes string) (Cycle, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, version int, lat, lng *float64) (Cycle, error)
	WithTx(ctx context.Context, fn func(q db.Querier) error) error
}

// Repository combines all cycle repository operations.
type Repository interface {
	CycleReader
	CycleWriter
}
