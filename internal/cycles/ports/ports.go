// Package ports defines what the cycles module needs from other modules.
// Implementations live in internal/adapters.
package ports

import (
	"context"

	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
)

// NewCompany is a company created on the spot while placing a mat on test.
type NewCompany struct {
	Name       string
	TaxNumber  *string
	Street     *string
	PostalCode *string
	City       *string
}

// NewContact is the person the mat was handed to.
type NewContact struct {
	FirstName string
	LastName  string
	Role      *string
	Email     *string
	Phone     *string
}

// CompanyPlacement is used by cycle placement and contract signing. Every
// method runs on the caller's transaction so a failed company write aborts
// the cycle transition.
type CompanyPlacement interface {
	CompanyExists(ctx context.Context, q db.Querier, companyID uuid.UUID) (bool, error)
	CreateCompany(ctx context.Context, q db.Querier, ownerID uuid.UUID, company NewCompany) (uuid.UUID, error)
	CreateContact(ctx context.Context, q db.Querier, companyID uuid.UUID, contact NewContact) (uuid.UUID, error)
	// MarkOnTest advances early funnel stages to on_test and leaves later ones alone.
	MarkOnTest(ctx context.Context, q db.Querier, companyID uuid.UUID) error
	MarkContractSigned(ctx context.Context, q db.Querier, companyID uuid.UUID) error
}
