package repository

import (
	"context"
	"time"

	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
)

// Company is a customer account.
type Company struct {
	ID                 uuid.UUID
	Name               string
	DisplayName        *string
	TaxNumber          *string
	DeliveryAddress    *string
	DeliveryPostalCode *string
	DeliveryCity       *string
	BillingAddress     *string
	BillingPostalCode  *string
	BillingCity        *string
	PipelineStatus     string
	ContractSentAt     *time.Time
	ContractCalledAt   *time.Time
	ParentCompanyID    *uuid.UUID
	OwnerID            *uuid.UUID
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Contact is a person at a company.
type Contact struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	FirstName string
	LastName  string
	Role      *string
	Email     *string
	Phone     *string
	IsPrimary bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateParams contains parameters for creating a company.
type CreateParams struct {
	Name               string
	DisplayName        *string
	TaxNumber          *string
	DeliveryAddress    *string
	DeliveryPostalCode *string
	DeliveryCity       *string
	BillingAddress     *string
	BillingPostalCode  *string
	BillingCity        *string
	ParentCompanyID    *uuid.UUID
	OwnerID            *uuid.UUID
	Notes              string
}

// UpdateParams contains parameters for updating a company. Nil fields are kept.
type UpdateParams struct {
	ID                 uuid.UUID
	Name               *string
	DisplayName        *string
	TaxNumber          *string
	DeliveryAddress    *string
	DeliveryPostalCode *string
	DeliveryCity       *string
	BillingAddress     *string
	BillingPostalCode  *string
	BillingCity        *string
	ParentCompanyID    *uuid.UUID
	Notes              *string
}

// ContactParams creates or replaces a contact.
type ContactParams struct {
	CompanyID uuid.UUID
	FirstName string
	LastName  string
	Role      *string
	Email     *string
	Phone     *string
	IsPrimary bool
}

// ListParams filters the company list.
type ListParams struct {
	Search         string
	PipelineStatus string
	OwnerID        *uuid.UUID
	Limit          int
	Offset         int
}

// CompanyReader provides read operations for companies.
type CompanyReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Company, error)
	List(ctx context.Context, params ListParams) ([]Company, int, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]Company, error)
	TaxNumberTaken(ctx context.Context, taxNumber string, excludeID *uuid.UUID) (bool, error)
	ListContacts(ctx context.Context, companyID uuid.UUID) ([]Contact, error)
	PendingContracts(ctx context.Context, ownerID *uuid.UUID, sentBefore time.Time) ([]Company, error)
}

// CompanyWriter provides write operations for companies.
type CompanyWriter interface {
	Create(ctx context.Context, params CreateParams) (Company, error)
	CreateInTx(ctx context.Context, q db.Querier, params CreateParams) (Company, error)
	Update(ctx context.Context, params UpdateParams) (Company, error)
	SetPipelineStatus(ctx context.Context, id uuid.UUID, status string) (Company, error)
	SetPipelineStatusInTx(ctx context.Context, q db.Querier, id uuid.UUID, status string) (Company, error)
	AdvancePipelineInTx(ctx context.Context, q db.Querier, id uuid.UUID, from []string, status string) (bool, error)
	ExistsInTx(ctx context.Context, q db.Querier, id uuid.UUID) (bool, error)
	StampContractCalledInTx(ctx context.Context, q db.Querier, id uuid.UUID, at time.Time) (Company, error)

	AddContact(ctx context.Context, params ContactParams) (Contact, error)
	CreateContactInTx(ctx context.Context, q db.Querier, params ContactParams) (Contact, error)
	UpdateContact(ctx context.Context, id uuid.UUID, params ContactParams) (Contact, error)
	DeleteContact(ctx context.Context, companyID, contactID uuid.UUID) error
}

// Repository combines all company repository operations.
type Repository interface {
	CompanyReader
	CompanyWriter
}
