package service

import (
	"encoding/json"

	"predpraznik_backend/internal/activity/repository"
	"predpraznik_backend/internal/events"

	"github.com/google/uuid"
)

const (
	entityCycle     = "cycle"
	entityPickup    = "pickup"
	entityCompany   = "company"
	entityCodeBatch = "code_batch"
)

// entryFor maps a domain event to its log row. ok is false for events the
// log does not record.
func entryFor(event events.Event) (params repository.InsertParams, ok bool, err error) {
	var (
		actor    uuid.UUID
		action   string
		entity   string
		entityID uuid.UUID
		meta     any
	)
	switch e := event.(type) {
	case events.CodesGenerated:
		actor, action, entity, entityID = e.ActorID, "codes_generated", entityCodeBatch, uuid.New()
		meta = map[string]any{"prefix": e.Prefix, "count": e.Count, "ownerId": e.OwnerID}
	case events.CycleStatusChanged:
		actor, action, entity, entityID = e.ActorID, "status_changed", entityCycle, e.CycleID
		meta = map[string]any{"from": e.From, "to": e.To, "companyId": e.CompanyID}
	case events.CycleExtended:
		actor, action, entity, entityID = e.ActorID, "extended", entityCycle, e.CycleID
		meta = map[string]any{"extendedCount": e.ExtendedCount, "expiresAt": e.ExpiresAt}
	case events.ContractSigned:
		actor, action, entity, entityID = e.ActorID, "contract_signed", entityCycle, e.CycleID
		meta = map[string]any{"frequency": e.Frequency, "companyId": e.CompanyID}
	case events.PickupCompleted:
		actor, action, entity, entityID = e.ActorID, "pickup_completed", entityPickup, e.PickupID
		meta = map[string]any{"cycleIds": e.CycleIDs, "count": len(e.CycleIDs)}
	case events.CompanyCreated:
		actor, action, entity, entityID = e.ActorID, "company_created", entityCompany, e.CompanyID
		meta = map[string]any{"name": e.Name}
	case events.ContractCalled:
		actor, action, entity, entityID = e.ActorID, "contract_called", entityCompany, e.CompanyID
		meta = map[string]any{"reminderId": e.ReminderID}
	case events.ContractReceived:
		actor, action, entity, entityID = e.ActorID, "contract_received", entityCompany, e.CompanyID
		meta = map[string]any{}
	default:
		return repository.InsertParams{}, false, nil
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		return repository.InsertParams{}, false, err
	}
	var actorID *uuid.UUID
	if actor != uuid.Nil {
		actorID = &actor
	}
	return repository.InsertParams{
		ActorID:    actorID,
		Action:     action,
		EntityType: entity,
		EntityID:   entityID,
		Metadata:   raw,
		CreatedAt:  event.OccurredAt(),
	}, true, nil
}

// subscribedEvents lists every event the recorder persists.
var subscribedEvents = []events.Event{
	events.CodesGenerated{},
	events.CycleStatusChanged{},
	events.CycleExtended{},
	events.ContractSigned{},
	events.PickupCompleted{},
	events.CompanyCreated{},
	events.ContractCalled{},
	events.ContractReceived{},
}

// EventNames returns the names the recorder subscribes to.
func EventNames() []string {
	names := make([]string, 0, len(subscribedEvents))
	for _, e := range subscribedEvents {
		names = append(names, e.EventName())
	}
	return names
}
