package transport

import (
	"time"

	"github.com/google/uuid"
)

// GenerateBatchRequest asks for count new codes under prefix.
type GenerateBatchRequest struct {
	Prefix  string     `json:"prefix" validate:"required,max=10"`
	Count   int        `json:"count" validate:"required,min=1,max=500"`
	OwnerID *uuid.UUID `json:"ownerId,omitempty"`
}

// AssignOwnerRequest sets or clears (null) the owning salesperson.
type AssignOwnerRequest struct {
	OwnerID *uuid.UUID `json:"ownerId"`
}

// ListCodesRequest are the query filters for GET /codes.
type ListCodesRequest struct {
	OwnerID  string `form:"ownerId" validate:"omitempty,uuid"`
	Prefix   string `form:"prefix" validate:"omitempty,max=10"`
	Status   string `form:"status" validate:"omitempty,oneof=available pending active"`
	Search   string `form:"search" validate:"omitempty,max=20"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=500"`
}

// CodeResponse is a code with its derived status.
type CodeResponse struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Prefix      string     `json:"prefix"`
	Status      string     `json:"status"`
	OwnerID     *uuid.UUID `json:"ownerId,omitempty"`
	OwnerName   *string    `json:"ownerName,omitempty"`
	OpenCycleID *uuid.UUID `json:"openCycleId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CodeListResponse wraps a page of codes.
type CodeListResponse struct {
	Items    []CodeResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// GenerateBatchResponse lists the codes created by one batch.
type GenerateBatchResponse struct {
	Prefix string         `json:"prefix"`
	Codes  []CodeResponse `json:"codes"`
}
