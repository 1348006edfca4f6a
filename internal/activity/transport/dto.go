package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FeedRequest filters the activity feed.
type FeedRequest struct {
	SalespersonID string `form:"salespersonId" validate:"omitempty,uuid"`
	EntityType    string `form:"entityType" validate:"omitempty,oneof=cycle pickup company code_batch"`
	EntityID      string `form:"entityId" validate:"omitempty,uuid"`
	Since         string `form:"since" validate:"omitempty,datetime=2006-01-02"`
	Page          int    `form:"page" validate:"omitempty,min=1"`
	PageSize      int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

// SummaryRequest bounds the summary window, both dates inclusive.
type SummaryRequest struct {
	SalespersonID string `form:"salespersonId" validate:"omitempty,uuid"`
	From          string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To            string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// EntryResponse is one feed row.
type EntryResponse struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    *uuid.UUID      `json:"actorId,omitempty"`
	ActorName  *string         `json:"actorName,omitempty"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   uuid.UUID       `json:"entityId"`
	Metadata   json.RawMessage `json:"metadata"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// FeedResponse is a page of the feed.
type FeedResponse struct {
	Items    []EntryResponse `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// SalespersonSummary is the per action breakdown for one person.
type SalespersonSummary struct {
	SalespersonID   uuid.UUID      `json:"salespersonId"`
	SalespersonName string         `json:"salespersonName"`
	Actions         map[string]int `json:"actions"`
	Total           int            `json:"total"`
}

// SummaryResponse covers the requested window.
type SummaryResponse struct {
	From         string               `json:"from"`
	To           string               `json:"to"`
	Salespersons []SalespersonSummary `json:"salespersons"`
}
