package transport

import (
	"encoding/json"
	"time"

	"predpraznik_backend/internal/cycles/domain"

	"github.com/google/uuid"
)

// ActivateRequest binds a free code to a new clean cycle.
type ActivateRequest struct {
	Code      string    `json:"code" validate:"required,max=20"`
	MatTypeID uuid.UUID `json:"matTypeId" validate:"required"`
}

// VersionRequest carries the version the client last saw.
type VersionRequest struct {
	Version int `json:"version" validate:"required,min=1"`
}

// NewCompanyRequest creates a company during placement.
type NewCompanyRequest struct {
	Name       string  `json:"name" validate:"required,min=1,max=200"`
	TaxNumber  *string `json:"taxNumber,omitempty" validate:"omitempty,min=4,max=20"`
	Street     *string `json:"street,omitempty" validate:"omitempty,max=200"`
	PostalCode *string `json:"postalCode,omitempty" validate:"omitempty,max=20"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
}

// NewContactRequest creates the contact person during placement.
type NewContactRequest struct {
	FirstName string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string  `json:"lastName" validate:"max=100"`
	Role      *string `json:"role,omitempty" validate:"omitempty,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,phone"`
}

// Location is a best-effort device position.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
}

// PlaceOnTestRequest puts a clean mat at a customer. Exactly one of
// CompanyID and NewCompany is required.
type PlaceOnTestRequest struct {
	Version    int                `json:"version" validate:"required,min=1"`
	CompanyID  *uuid.UUID         `json:"companyId,omitempty" validate:"required_without=NewCompany,excluded_with=NewCompany"`
	NewCompany *NewCompanyRequest `json:"newCompany,omitempty" validate:"required_without=CompanyID"`
	Contact    *NewContactRequest `json:"contact,omitempty"`
	Location   *Location          `json:"location,omitempty"`
}

// SignContractRequest records a signed contract.
type SignContractRequest struct {
	Version   int    `json:"version" validate:"required,min=1"`
	Frequency string `json:"frequency" validate:"required,oneof=1_week 2_weeks 3_weeks 4_weeks"`
}

// UpdateNotesRequest replaces cycle notes.
type UpdateNotesRequest struct {
	Version int    `json:"version" validate:"required,min=1"`
	Notes   string `json:"notes" validate:"max=4000"`
}

// UpdateLocationRequest replaces or clears (null) the location.
type UpdateLocationRequest struct {
	Version  int       `json:"version" validate:"required,min=1"`
	Location *Location `json:"location"`
}

// ListCyclesRequest are the query filters for GET /cycles.
type ListCyclesRequest struct {
	Status        string `form:"status" validate:"omitempty,oneof=clean on_test dirty waiting_driver completed"`
	SalespersonID string `form:"salespersonId" validate:"omitempty,uuid"`
	CompanyID     string `form:"companyId" validate:"omitempty,uuid"`
	Code          string `form:"code" validate:"omitempty,max=20"`
	Open          bool   `form:"open"`
	Expiring      bool   `form:"expiring"`
	Page          int    `form:"page" validate:"omitempty,min=1"`
	PageSize      int    `form:"pageSize" validate:"omitempty,min=1,max=500"`
}

// CycleResponse is a cycle with its derived expiry view.
type CycleResponse struct {
	ID                 uuid.UUID      `json:"id"`
	Code               string         `json:"code"`
	SalespersonID      uuid.UUID      `json:"salespersonId"`
	SalespersonName    *string        `json:"salespersonName,omitempty"`
	MatTypeID          uuid.UUID      `json:"matTypeId"`
	MatTypeCode        string         `json:"matTypeCode"`
	Status             string         `json:"status"`
	CompanyID          *uuid.UUID     `json:"companyId,omitempty"`
	CompanyName        *string        `json:"companyName,omitempty"`
	ContactID          *uuid.UUID     `json:"contactId,omitempty"`
	TestStartDate      *time.Time     `json:"testStartDate,omitempty"`
	TestEndDate        *time.Time     `json:"testEndDate,omitempty"`
	ContractSigned     bool           `json:"contractSigned"`
	ContractFrequency  *string        `json:"contractFrequency,omitempty"`
	ContractSignedAt   *time.Time     `json:"contractSignedAt,omitempty"`
	Location           *Location      `json:"location,omitempty"`
	Notes              string         `json:"notes"`
	ExtendedCount      int            `json:"extendedCount"`
	CompletedAt        *time.Time     `json:"completedAt,omitempty"`
	Version            int            `json:"version"`
	Expiry             *domain.Expiry `json:"expiry,omitempty"`
	AllowedTransitions []string       `json:"allowedTransitions"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// CycleListResponse wraps a page of cycles.
type CycleListResponse struct {
	Items    []CycleResponse `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// HistoryEntryResponse is one activity row of a cycle.
type HistoryEntryResponse struct {
	ID        uuid.UUID       `json:"id"`
	ActorID   *uuid.UUID      `json:"actorId,omitempty"`
	ActorName *string         `json:"actorName,omitempty"`
	Action    string          `json:"action"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// MatTypeResponse is a doormat size.
type MatTypeResponse struct {
	ID       uuid.UUID `json:"id"`
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	WidthCm  int       `json:"widthCm"`
	HeightCm int       `json:"heightCm"`
}
