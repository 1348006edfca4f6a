package adapters

import (
	"context"

	"predpraznik_backend/internal/companies/domain"
	"predpraznik_backend/internal/companies/repository"
	"predpraznik_backend/internal/companies/service"
	"predpraznik_backend/internal/companies/transport"
	"predpraznik_backend/internal/cycles/ports"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/db"
	"predpraznik_backend/platform/sanitize"

	"github.com/google/uuid"
)

// CompanyPlacementAdapter lets the cycles module create and advance companies
// inside its own transactions.
type CompanyPlacementAdapter struct {
	repo repository.Repository
}

// NewCompanyPlacementAdapter wraps the companies repository.
func NewCompanyPlacementAdapter(repo repository.Repository) *CompanyPlacementAdapter {
	return &CompanyPlacementAdapter{repo: repo}
}

func (a *CompanyPlacementAdapter) CompanyExists(ctx context.Context, q db.Querier, companyID uuid.UUID) (bool, error) {
	return a.repo.ExistsInTx(ctx, q, companyID)
}

func (a *CompanyPlacementAdapter) CreateCompany(ctx context.Context, q db.Querier, ownerID uuid.UUID, company ports.NewCompany) (uuid.UUID, error) {
	name := sanitize.Name(company.Name)
	if name == "" {
		return uuid.Nil, apperr.Validation("company name is required")
	}
	taxNumber := service.NormalizeTaxNumber(company.TaxNumber)
	if taxNumber != nil {
		taken, err := a.repo.TaxNumberTaken(ctx, *taxNumber, nil)
		if err != nil {
			return uuid.Nil, err
		}
		if taken {
			return uuid.Nil, apperr.Conflict("a company with this tax number already exists")
		}
	}

	owner := ownerID
	created, err := a.repo.CreateInTx(ctx, q, repository.CreateParams{
		Name:               name,
		TaxNumber:          taxNumber,
		DeliveryAddress:    company.Street,
		DeliveryPostalCode: company.PostalCode,
		DeliveryCity:       company.City,
		OwnerID:            &owner,
	})
	if err != nil {
		if db.IsUniqueViolation(err, repository.TaxNumberConstraint) {
			return uuid.Nil, apperr.Conflict("a company with this tax number already exists")
		}
		return uuid.Nil, err
	}
	return created.ID, nil
}

func (a *CompanyPlacementAdapter) CreateContact(ctx context.Context, q db.Querier, companyID uuid.UUID, contact ports.NewContact) (uuid.UUID, error) {
	params, err := service.ContactParamsFrom(companyID, transport.ContactRequest{
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		Role:      contact.Role,
		Email:     contact.Email,
		Phone:     contact.Phone,
		IsPrimary: true,
	})
	if err != nil {
		return uuid.Nil, err
	}
	created, err := a.repo.CreateContactInTx(ctx, q, params)
	if err != nil {
		return uuid.Nil, err
	}
	return created.ID, nil
}

func (a *CompanyPlacementAdapter) MarkOnTest(ctx context.Context, q db.Querier, companyID uuid.UUID) error {
	from := make([]string, 0, len(domain.EarlyStages))
	for _, s := range domain.EarlyStages {
		from = append(from, string(s))
	}
	_, err := a.repo.AdvancePipelineInTx(ctx, q, companyID, from, string(domain.PipelineOnTest))
	return err
}

func (a *CompanyPlacementAdapter) MarkContractSigned(ctx context.Context, q db.Querier, companyID uuid.UUID) error {
	_, err := a.repo.SetPipelineStatusInTx(ctx, q, companyID, string(domain.PipelineContractSigned))
	return err
}

var _ ports.CompanyPlacement = (*CompanyPlacementAdapter)(nil)
