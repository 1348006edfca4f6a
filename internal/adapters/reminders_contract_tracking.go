package adapters

import (
	"context"
	"time"

	"predpraznik_backend/internal/companies/domain"
	"predpraznik_backend/internal/companies/repository"
	"predpraznik_backend/internal/reminders/ports"
	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
)

// ContractTrackingAdapter exposes the contract follow-up columns of
// companies to the reminders module.
type ContractTrackingAdapter struct {
	repo repository.Repository
}

// NewContractTrackingAdapter wraps the companies repository.
func NewContractTrackingAdapter(repo repository.Repository) *ContractTrackingAdapter {
	return &ContractTrackingAdapter{repo: repo}
}

func (a *ContractTrackingAdapter) PendingContracts(ctx context.Context, ownerID *uuid.UUID, sentBefore time.Time) ([]ports.ContractCompany, error) {
	companies, err := a.repo.PendingContracts(ctx, ownerID, sentBefore)
	if err != nil {
		return nil, err
	}
	out := make([]ports.ContractCompany, 0, len(companies))
	for _, c := range companies {
		out = append(out, toContractCompany(c))
	}
	return out, nil
}

func (a *ContractTrackingAdapter) GetCompany(ctx context.Context, companyID uuid.UUID) (ports.ContractCompany, error) {
	c, err := a.repo.GetByID(ctx, companyID)
	if err != nil {
		return ports.ContractCompany{}, err
	}
	return toContractCompany(c), nil
}

func (a *ContractTrackingAdapter) StampContractCalled(ctx context.Context, q db.Querier, companyID uuid.UUID, at time.Time) error {
	_, err := a.repo.StampContractCalledInTx(ctx, q, companyID, at)
	return err
}

// MarkContractReceived moves the company to contract_signed, which also
// clears contract_called_at.
func (a *ContractTrackingAdapter) MarkContractReceived(ctx context.Context, q db.Querier, companyID uuid.UUID) error {
	_, err := a.repo.SetPipelineStatusInTx(ctx, q, companyID, string(domain.PipelineContractSigned))
	return err
}

func toContractCompany(c repository.Company) ports.ContractCompany {
	name := c.Name
	if c.DisplayName != nil && *c.DisplayName != "" {
		name = *c.DisplayName
	}
	return ports.ContractCompany{
		ID:               c.ID,
		Name:             name,
		OwnerID:          c.OwnerID,
		PipelineStatus:   c.PipelineStatus,
		ContractSentAt:   c.ContractSentAt,
		ContractCalledAt: c.ContractCalledAt,
	}
}

var _ ports.ContractTracking = (*ContractTrackingAdapter)(nil)
