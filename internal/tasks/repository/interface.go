package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task is one card on a salesperson's board.
type Task struct {
	ID            uuid.UUID
	SalespersonID uuid.UUID
	Title         string
	Description   string
	Status        string
	Position      int
	CompanyID     *uuid.UUID
	CompanyName   *string
	DueDate       *time.Time
	ArchivedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateParams appends a task to the end of its column.
type CreateParams struct {
	SalespersonID uuid.UUID
	Title         string
	Description   string
	Status        string
	CompanyID     *uuid.UUID
	DueDate       *time.Time
}

// UpdateParams edits task content. Nil fields are kept; ClearDueDate and
// ClearCompany reset the optional references.
type UpdateParams struct {
	ID           uuid.UUID
	Title        *string
	Description  *string
	CompanyID    *uuid.UUID
	ClearCompany bool
	DueDate      *time.Time
	ClearDueDate bool
}

// ColumnOrder is the complete new order of one column.
type ColumnOrder struct {
	Status string
	IDs    []uuid.UUID
}

// TaskReader provides read operations for tasks.
type TaskReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Task, error)
	// Board returns the non-archived tasks of a salesperson by column and position.
	Board(ctx context.Context, salespersonID uuid.UUID) ([]Task, error)
	// Column returns the non-archived task ids of one column in position order.
	Column(ctx context.Context, salespersonID uuid.UUID, status string) ([]uuid.UUID, error)
}

// TaskWriter provides write operations for tasks.
type TaskWriter interface {
	Create(ctx context.Context, params CreateParams) (Task, error)
	Update(ctx context.Context, params UpdateParams) (Task, error)
	// ApplyOrder rewrites status and position of every listed task in one
	// transaction, keeping positions unique per column throughout.
	ApplyOrder(ctx context.Context, salespersonID uuid.UUID, columns []ColumnOrder) error
	Archive(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository combines all task repository operations.
type Repository interface {
	TaskReader
	TaskWriter
}
