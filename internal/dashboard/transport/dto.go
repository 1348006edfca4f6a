package transport

import (
	"predpraznik_backend/internal/dashboard/domain"

	"github.com/google/uuid"
)

// FilterRequest narrows a dashboard read to one salesperson.
type FilterRequest struct {
	SalespersonID string `form:"salespersonId" validate:"omitempty,uuid"`
}

// Salesperson returns the parsed filter, nil when absent.
func (r FilterRequest) Salesperson() *uuid.UUID {
	id, err := uuid.Parse(r.SalespersonID)
	if err != nil {
		return nil
	}
	return &id
}

// TrendRequest selects the trend window.
type TrendRequest struct {
	FilterRequest
	Months int `form:"months" validate:"omitempty,min=1,max=36"`
}

// KPIResponse is the headline numbers block.
type KPIResponse struct {
	ActiveTests      int `json:"activeTests"`
	DirtyMats        int `json:"dirtyMats"`
	WaitingDriver    int `json:"waitingDriver"`
	CompletedCycles  int `json:"completedCycles"`
	OpenPickups      int `json:"openPickups"`
	CyclesCreated    int `json:"cyclesCreated"`
	ContractsSigned  int `json:"contractsSigned"`
	ConversionRate   int `json:"conversionRate"`
	ConversionWindow int `json:"conversionWindowDays"`
}

// TrendResponse is the monthly chart.
type TrendResponse struct {
	Points []domain.TrendPoint `json:"points"`
}

// DistributionResponse is the cycle status pie.
type DistributionResponse struct {
	Statuses []domain.StatusCount `json:"statuses"`
	Total    int                  `json:"total"`
}
