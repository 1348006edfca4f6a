package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateTaskRequest appends a card to a column. Admin may create on another
// salesperson's board.
type CreateTaskRequest struct {
	Title         string     `json:"title" validate:"required,min=1,max=200"`
	Description   string     `json:"description" validate:"max=4000"`
	Status        string     `json:"status" validate:"omitempty,oneof=todo in_progress done needs_help"`
	CompanyID     *uuid.UUID `json:"companyId,omitempty"`
	DueDate       *string    `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SalespersonID *uuid.UUID `json:"salespersonId,omitempty"`
}

// UpdateTaskRequest edits card content. Empty dueDate or a nil companyId
// with clearCompany remove the reference.
type UpdateTaskRequest struct {
	Title        *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=4000"`
	CompanyID    *uuid.UUID `json:"companyId,omitempty"`
	ClearCompany bool       `json:"clearCompany"`
	DueDate      *string    `json:"dueDate,omitempty" validate:"omitempty,max=10"`
}

// MoveTaskRequest moves a card to a column and position.
type MoveTaskRequest struct {
	Status   string `json:"status" validate:"required,oneof=todo in_progress done needs_help"`
	Position int    `json:"position" validate:"min=0"`
}

// ReorderRequest is the complete new order of one column.
type ReorderRequest struct {
	Status  string      `json:"status" validate:"required,oneof=todo in_progress done needs_help"`
	TaskIDs []uuid.UUID `json:"taskIds" validate:"max=500"`
}

// BoardRequest are the query filters for GET /tasks/board.
type BoardRequest struct {
	SalespersonID string `form:"salespersonId" validate:"omitempty,uuid"`
}

// TaskResponse is one card.
type TaskResponse struct {
	ID            uuid.UUID  `json:"id"`
	SalespersonID uuid.UUID  `json:"salespersonId"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	Position      int        `json:"position"`
	CompanyID     *uuid.UUID `json:"companyId,omitempty"`
	CompanyName   *string    `json:"companyName,omitempty"`
	DueDate       *string    `json:"dueDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ColumnResponse is one board column.
type ColumnResponse struct {
	Status string         `json:"status"`
	Tasks  []TaskResponse `json:"tasks"`
}

// BoardResponse is every column of one board in display order.
type BoardResponse struct {
	SalespersonID uuid.UUID        `json:"salespersonId"`
	Columns       []ColumnResponse `json:"columns"`
}
