// Package ports defines what the reminders module needs from companies.
package ports

import (
	"context"
	"time"

	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
)

// ContractCompany is the part of a company the contract follow-up needs.
type ContractCompany struct {
	ID               uuid.UUID
	Name             string
	OwnerID          *uuid.UUID
	PipelineStatus   string
	ContractSentAt   *time.Time
	ContractCalledAt *time.Time
}

// ContractTracking reads and updates the contract follow-up state of
// companies. Writes take a Querier so they join the caller's transaction.
type ContractTracking interface {
	PendingContracts(ctx context.Context, ownerID *uuid.UUID, sentBefore time.Time) ([]ContractCompany, error)
	GetCompany(ctx context.Context, companyID uuid.UUID) (ContractCompany, error)
	StampContractCalled(ctx context.Context, q db.Querier, companyID uuid.UUID, at time.Time) error
	MarkContractReceived(ctx context.Context, q db.Querier, companyID uuid.UUID) error
}
