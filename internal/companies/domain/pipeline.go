// Package domain holds the CRM sales funnel stages of a company.
package domain

import "predpraznik_backend/platform/apperr"

// PipelineStatus is the sales funnel stage, independent of any cycle status.
type PipelineStatus string

const (
	PipelineNew            PipelineStatus = "new"
	PipelineContacted      PipelineStatus = "contacted"
	PipelineOnTest         PipelineStatus = "on_test"
	PipelineOfferSent      PipelineStatus = "offer_sent"
	PipelineContractSent   PipelineStatus = "contract_sent"
	PipelineContractSigned PipelineStatus = "contract_signed"
	PipelineLost           PipelineStatus = "lost"
)

// AllPipelineStatuses in funnel order.
var AllPipelineStatuses = []PipelineStatus{
	PipelineNew, PipelineContacted, PipelineOnTest, PipelineOfferSent,
	PipelineContractSent, PipelineContractSigned, PipelineLost,
}

// ParsePipelineStatus validates a wire value.
func ParsePipelineStatus(value string) (PipelineStatus, error) {
	for _, s := range AllPipelineStatuses {
		if string(s) == value {
			return s, nil
		}
	}
	return "", apperr.Validation("unknown pipeline status " + value)
}

// EarlyStages are the stages a test placement may advance to on_test.
var EarlyStages = []PipelineStatus{PipelineNew, PipelineContacted}
