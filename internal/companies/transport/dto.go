package transport

import (
	"time"

	"github.com/google/uuid"
)

// Address is a delivery or billing address.
type Address struct {
	Street     *string `json:"street,omitempty" validate:"omitempty,max=200"`
	PostalCode *string `json:"postalCode,omitempty" validate:"omitempty,max=20"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
}

// CreateCompanyRequest contains data for creating a company.
type CreateCompanyRequest struct {
	Name            string     `json:"name" validate:"required,min=1,max=200"`
	DisplayName     *string    `json:"displayName,omitempty" validate:"omitempty,max=200"`
	TaxNumber       *string    `json:"taxNumber,omitempty" validate:"omitempty,min=4,max=20"`
	Delivery        *Address   `json:"delivery,omitempty"`
	Billing         *Address   `json:"billing,omitempty"`
	ParentCompanyID *uuid.UUID `json:"parentCompanyId,omitempty"`
	Notes           string     `json:"notes" validate:"max=4000"`
}

// UpdateCompanyRequest contains data for updating a company.
type UpdateCompanyRequest struct {
	Name            *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	DisplayName     *string    `json:"displayName,omitempty" validate:"omitempty,max=200"`
	TaxNumber       *string    `json:"taxNumber,omitempty" validate:"omitempty,min=4,max=20"`
	Delivery        *Address   `json:"delivery,omitempty"`
	Billing         *Address   `json:"billing,omitempty"`
	ParentCompanyID *uuid.UUID `json:"parentCompanyId,omitempty"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

// UpdatePipelineRequest moves a company along the funnel.
type UpdatePipelineRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted on_test offer_sent contract_sent contract_signed lost"`
}

// ContactRequest creates or replaces a contact.
type ContactRequest struct {
	FirstName string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string  `json:"lastName" validate:"max=100"`
	Role      *string `json:"role,omitempty" validate:"omitempty,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,phone"`
	IsPrimary bool    `json:"isPrimary"`
}

// ListCompaniesRequest are the query filters for GET /companies.
type ListCompaniesRequest struct {
	Search         string `form:"search" validate:"omitempty,max=100"`
	PipelineStatus string `form:"pipelineStatus" validate:"omitempty,oneof=new contacted on_test offer_sent contract_sent contract_signed lost"`
	Mine           bool   `form:"mine"`
	Page           int    `form:"page" validate:"omitempty,min=1"`
	PageSize       int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

// ContactResponse represents a contact in API responses.
type ContactResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      *string   `json:"role,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	IsPrimary bool      `json:"isPrimary"`
}

// CompanyResponse represents a company in API responses.
type CompanyResponse struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	DisplayName      *string           `json:"displayName,omitempty"`
	TaxNumber        *string           `json:"taxNumber,omitempty"`
	Delivery         Address           `json:"delivery"`
	Billing          Address           `json:"billing"`
	PipelineStatus   string            `json:"pipelineStatus"`
	ContractSentAt   *time.Time        `json:"contractSentAt,omitempty"`
	ContractCalledAt *time.Time        `json:"contractCalledAt,omitempty"`
	ParentCompanyID  *uuid.UUID        `json:"parentCompanyId,omitempty"`
	OwnerID          *uuid.UUID        `json:"ownerId,omitempty"`
	Notes            string            `json:"notes"`
	Contacts         []ContactResponse `json:"contacts,omitempty"`
	Children         []CompanyResponse `json:"children,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// CompanyListResponse wraps a page of companies.
type CompanyListResponse struct {
	Items    []CompanyResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}
