// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"predpraznik_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Code Registry Events
// =============================================================================

// CodesGenerated is published after a code batch has been persisted.
type CodesGenerated struct {
	BaseEvent
	ActorID uuid.UUID  `json:"actorId"`
	Prefix  string     `json:"prefix"`
	Count   int        `json:"count"`
	OwnerID *uuid.UUID `json:"ownerId,omitempty"`
}

func (e CodesGenerated) EventName() string { return "codes.generated" }

// =============================================================================
// Cycle Events
// =============================================================================

// CycleStatusChanged is published for every committed status transition,
// including completion through a pickup batch.
type CycleStatusChanged struct {
	BaseEvent
	ActorID       uuid.UUID  `json:"actorId"`
	CycleID       uuid.UUID  `json:"cycleId"`
	SalespersonID uuid.UUID  `json:"salespersonId"`
	CompanyID     *uuid.UUID `json:"companyId,omitempty"`
	From          string     `json:"from"`
	To            string     `json:"to"`
}

func (e CycleStatusChanged) EventName() string { return "cycles.status_changed" }

// CycleExtended is published when a trial is extended.
type CycleExtended struct {
	BaseEvent
	ActorID       uuid.UUID `json:"actorId"`
	CycleID       uuid.UUID `json:"cycleId"`
	ExtendedCount int       `json:"extendedCount"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

func (e CycleExtended) EventName() string { return "cycles.extended" }

// ContractSigned is published when a cycle on test gets a signed contract.
type ContractSigned struct {
	BaseEvent
	ActorID   uuid.UUID  `json:"actorId"`
	CycleID   uuid.UUID  `json:"cycleId"`
	CompanyID *uuid.UUID `json:"companyId,omitempty"`
	Frequency string     `json:"frequency"`
}

func (e ContractSigned) EventName() string { return "cycles.contract_signed" }

// =============================================================================
// Pickup Events
// =============================================================================

// PickupCompleted is published once a batch and its cycles are completed.
type PickupCompleted struct {
	BaseEvent
	ActorID  uuid.UUID   `json:"actorId"`
	PickupID uuid.UUID   `json:"pickupId"`
	CycleIDs []uuid.UUID `json:"cycleIds"`
}

func (e PickupCompleted) EventName() string { return "pickups.completed" }

// =============================================================================
// Company & Followup Events
// =============================================================================

// CompanyCreated is published for companies created manually or on placement.
type CompanyCreated struct {
	BaseEvent
	ActorID   uuid.UUID `json:"actorId"`
	CompanyID uuid.UUID `json:"companyId"`
	Name      string    `json:"name"`
}

func (e CompanyCreated) EventName() string { return "companies.created" }

// ContractCalled is published after the contract follow-up call was logged.
type ContractCalled struct {
	BaseEvent
	ActorID    uuid.UUID `json:"actorId"`
	CompanyID  uuid.UUID `json:"companyId"`
	ReminderID uuid.UUID `json:"reminderId"`
}

func (e ContractCalled) EventName() string { return "reminders.contract_called" }

// ContractReceived is published when the signed contract came back.
type ContractReceived struct {
	BaseEvent
	ActorID   uuid.UUID `json:"actorId"`
	CompanyID uuid.UUID `json:"companyId"`
}

func (e ContractReceived) EventName() string { return "reminders.contract_received" }
