package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QRCode is a code row joined with its current non-completed cycle, if any.
type QRCode struct {
	ID              uuid.UUID
	Code            string
	Prefix          string
	OwnerID         *uuid.UUID
	OwnerName       *string
	OpenCycleID     *uuid.UUID
	OpenCycleStatus *string
	CreatedAt       time.Time
}

// ListParams filters the code list. Status is applied in SQL against the
// derived open-cycle state.
type ListParams struct {
	OwnerID *uuid.UUID
	Prefix  string
	Status  string
	Search  string
	Limit   int
	Offset  int
}

// CodeReader provides read operations for codes.
type CodeReader interface {
	GetByCode(ctx context.Context, code string) (QRCode, error)
	List(ctx context.Context, params ListParams) ([]QRCode, int, error)
	ExistingForPrefix(ctx context.Context, prefix string) (map[string]struct{}, error)
}

// CodeWriter provides write operations for codes.
type CodeWriter interface {
	InsertBatch(ctx context.Context, prefix string, codes []string, ownerID *uuid.UUID) ([]QRCode, error)
	SetOwner(ctx context.Context, code string, ownerID *uuid.UUID) (QRCode, error)
	Delete(ctx context.Context, code string) error
}

// Repository combines all code repository operations.
type Repository interface {
	CodeReader
	CodeWriter
}
