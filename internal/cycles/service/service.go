package service

import (
	"context"
	"strings"
	"time"

	"predpraznik_backend/internal/access"
	codedomain "predpraznik_backend/internal/codes/domain"
	"predpraznik_backend/internal/cycles/domain"
	"predpraznik_backend/internal/cycles/ports"
	"predpraznik_backend/internal/cycles/repository"
	"predpraznik_backend/internal/cycles/transport"
	"predpraznik_backend/internal/events"
	"predpraznik_backend/internal/policy"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/db"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 100

	staleVersionMessage = "cycle was changed by someone else, reload and retry"
)

// Service runs the cycle state machine.
type Service struct {
	repo      repository.Repository
	companies ports.CompanyPlacement
	bus       events.Bus
	policy    policy.Policy
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new cycles service.
func New(repo repository.Repository, companies ports.CompanyPlacement, bus events.Bus, p policy.Policy, log *logger.Logger) *Service {
	return &Service{repo: repo, companies: companies, bus: bus, policy: p, log: log, now: time.Now}
}

// WithClock replaces the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Activate binds a free code to a new clean cycle owned by the code owner.
func (s *Service) Activate(ctx context.Context, actor access.Actor, req transport.ActivateRequest) (transport.CycleResponse, error) {
	code, err := codedomain.NormalizeCode(req.Code)
	if err != nil {
		return transport.CycleResponse{}, err
	}
	ref, err := s.repo.LookupCode(ctx, code)
	if err != nil {
		return transport.CycleResponse{}, err
	}
	if ref.OwnerID == nil {
		return transport.CycleResponse{}, apperr.Conflict("code has no owner, assign it to a salesperson first")
	}
	if err := access.CanOperateCycle(actor, *ref.OwnerID); err != nil {
		return transport.CycleResponse{}, err
	}
	exists, err := s.repo.MatTypeExists(ctx, req.MatTypeID)
	if err != nil {
		return transport.CycleResponse{}, err
	}
	if !exists {
		return transport.CycleResponse{}, apperr.Validation("unknown mat type")
	}

	cycle, err := s.repo.Create(ctx, repository.CreateParams{
		QRCodeID:      ref.ID,
		SalespersonID: *ref.OwnerID,
		MatTypeID:     req.MatTypeID,
	})
	if err != nil {
		return transport.CycleResponse{}, err
	}

	s.log.Info("cycle activated", "cycleId", cycle.ID, "code", code)
	s.publishStatus(ctx, actor, cycle, "")
	return s.toResponse(cycle), nil
}

// PlaceOnTest moves a clean cycle to a customer. Company and contact are
// created on the same transaction as the cycle update.
func (s *Service) PlaceOnTest(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.PlaceOnTestRequest) (transport.CycleResponse, error) {
	current, err := s.load(ctx, actor, id, req.Version)
	if err != nil {
		return transport.CycleResponse{}, err
	}
	from := domain.Status(current.Status)
	if err := domain.ValidateTransition(from, domain.StatusOnTest); err != nil {
		return transport.CycleResponse{}, err
	}
	if (req.CompanyID == nil) == (req.NewCompany == nil) {
		return transport.CycleResponse{}, apperr.Validation("provide either an existing company or a new company")
	}

	var (
		updated        repository.Cycle
		createdCompany *ports.NewCompany
		companyID      uuid.UUID
	)
	err = s.repo.WithTx(ctx, func(q db.Querier) error {
		if req.CompanyID != nil {
			exists, err := s.companies.CompanyExists(ctx, q, *req.CompanyID)
			if err != nil {
				return err
			}
			if !exists {
				return apperr.NotFound("company not found")
			}
			companyID = *req.CompanyID
		} else {
			nc := ports.NewCompany{
				Name:       req.NewCompany.Name,
				TaxNumber:  req.NewCompany.TaxNumber,
				Street:     req.NewCompany.Street,
				PostalCode: req.NewCompany.PostalCode,
				City:       req.NewCompany.City,
			}
			created, err := s.companies.CreateCompany(ctx, q, current.SalespersonID, nc)
			if err != nil {
				return err
			}
			companyID, createdCompany = created, &nc
		}

		var contactID *uuid.UUID
		if req.Contact != nil {
			created, err := s.companies.CreateContact(ctx, q, companyID, ports.NewContact{
				FirstName: req.Contact.FirstName,
				LastName:  req.Contact.LastName,
				Role:      req.Contact.Role,
				Email:     req.Contact.Email,
				Phone:     req.Contact.Phone,
			})
			if err != nil {
				return err
			}
			contactID = &created
		}

		if err := s.companies.MarkOnTest(ctx, q, companyID); err != nil {
			return err
		}

		params := repository.PlaceParams{
			ID:        id,
			Version:   req.Version,
			CompanyID: companyID,
			ContactID: contactID,
			StartedAt: s.now().UTC(),
		}
		if req.Location != nil {
			lat, lng := req.Location.Latitude, req.Location.Longitude
			params.Latitude, params.Longitude = &lat, &lng
		}
		var err error
		updated, err = s.repo.PlaceOnTestInTx(ctx, q, params)
		return err
	})
	if err != nil {
		return transport.CycleResponse{}, err
	}

	if createdCompany != nil {
		s.bus.Publish(ctx, events.CompanyCreated{
			BaseEvent: events.NewBaseEvent(),
			ActorID:   actor.UserID,
			CompanyID: companyID,
			Name:      sanitize.Name(createdCompany.Name),
		})
	}
	s.log.Transition("cycle", id.String(), string(from), string(domain.StatusOnTest))
	s.publishStatus(ctx, actor, updated, from)
	return s.toResponse(updated), nil
}

// MarkDirty records that the mat on test got soiled.
func (s *Service) MarkDirty(ctx context.Context, actor access.Actor, id uuid.UUID, version int) (transport.CycleResponse, error) {
	return s.transition(ctx, actor, id, version, domain.StatusDirty)
}

// RequestPickup asks for a driver to collect the mat.
func (s *Service) RequestPickup(ctx context.Context, actor access.Actor, id uuid.UUID, version int) (transport.CycleResponse, error) {
	return s.transition(ctx, actor, id, version, domain.StatusWaitingDriver)
}

func (s *Service) transition(ctx context.Context, actor access.Actor, id uuid.UUID, version int, to domain.Status) (transport.CycleResponse, error) {
	current, err := s.load(ctx, actor, id, version)
	if err != nil {
		return transport.CycleResponse{}, err
	}
	from := domain.Status(current.Status)
	if err := domain.ValidateTransition(from, to); err != nil {
		return transport.CycleResponse{}, err
	}

	updated, err := s.repo.SetStatus(ctx, id, version, string(from), string(to))
	if err != nil {
		return transport.CycleResponse{}, err
	}

	s.log.Transition("cycle", id.String(), string(from), string(to))
	s.publishStatus(ctx, actor, updated, from)
	return s.toResponse(updated), nil
}

// SignContract marks a cycle on test as contract-signed and advances the
// company to contract_signed. The status stays on_test.
func (s *Service) SignContract(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.SignContractRequest) (transport.CycleResponse, error) {
	frequency, err := domain.ParseFrequency(req.Frequency)
	if err != nil {
		return transport.CycleResponse{}, err
	}
	current, err := s.load(ctx, actor, id, req.Version)
	if err != nil {
		return transport.CycleResponse{}, err
	}
	if err := domain.ValidateSignContract(domain.Status(current.Status), current.ContractSigned); err != nil {
		return transport.CycleResponse{}, err
	}

	var updated repository.Cycle
	err = s.repo.WithTx(ctx, func(q db.Querier) error {
		var err error
		updated, err = s.repo.SignContractInTx(ctx, q, id, req.Version, string(frequency), s.now().UTC())
		if err != nil {
			return err
		}
		if updated.CompanyID == nil {
			return nil
		}
		return s.companies.MarkContractSigned(ctx, q, *updated.CompanyID)
	})
	if err != nil {
		return transport.CycleResponse{}, err
	}

	s.log.Info("contract signed", "cycleId", id, "frequency", frequency)
	s.bus.Publish(ctx, events.ContractSigned{
		BaseEvent: events.NewBaseEvent(),
		ActorID:   actor.UserID,
		CycleID:   id,
		CompanyID: updated.CompanyID,
		Frequency: string(frequency),
	})
	return s.toResponse(updated), nil
}

// Extend pushes the trial end by one extension period.
func (s *Service) Extend(ctx context.Context, actor access.Actor, id uuid.UUID, version int) (transport.CycleResponse, error) {
	current, err := s.load(ctx, actor, id, version)
	if err != nil {
		return transport.CycleResponse{}, err
	}
	if err := domain.ValidateExtension(domain.Status(current.Status), current.ExtendedCount, s.policy); err != nil {
		return transport.CycleResponse{}, err
	}

	updated, err := s.repo.Extend(ctx, id, version)
	if err != nil {
		return transport.CycleResponse{}, err
	}

	resp := s.toResponse(updated)
	event := events.CycleExtended{
		BaseEvent:     events.NewBaseEvent(),
		ActorID:       actor.UserID,
		CycleID:       id,
		ExtendedCount: updated.ExtendedCount,
	}
	if resp.Expiry != nil {
		event.ExpiresAt = resp.Expiry.ExpiresAt
	}
	s.bus.Publish(ctx, event)
	return resp, nil
}

// UpdateNotes replaces the notes without touching status.
func (s *Service) UpdateNotes(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.UpdateNotesRequest) (transport.CycleResponse, error) {
	if _, err := s.load(ctx, actor, id, req.Version); err != nil {
		return transport.CycleResponse{}, err
	}
	updated, err := s.repo.UpdateNotes(ctx, id, req.Version, sanitize.Text(req.Notes))
	if err != nil {
		return transport.CycleResponse{}, err
	}
	return s.toResponse(updated), nil
}

// UpdateLocation replaces or clears the coordinates.
func (s *Service) UpdateLocation(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.UpdateLocationRequest) (transport.CycleResponse, error) {
	if _, err := s.load(ctx, actor, id, req.Version); err != nil {
		return transport.CycleResponse{}, err
	}
	var lat, lng *float64
	if req.Location != nil {
		la, lo := req.Location.Latitude, req.Location.Longitude
		lat, lng = &la, &lo
	}
	updated, err := s.repo.UpdateLocation(ctx, id, req.Version, lat, lng)
	if err != nil {
		return transport.CycleResponse{}, err
	}
	return s.toResponse(updated), nil
}

// Get returns one cycle.
func (s *Service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.CycleResponse, error) {
	cycle, err := s.load(ctx, actor, id, 0)
	if err != nil {
		return transport.CycleResponse{}, err
	}
	return s.toResponse(cycle), nil
}

// List filters cycles. Salespeople only ever see their own.
func (s *Service) List(ctx context.Context, actor access.Actor, req transport.ListCyclesRequest) (transport.CycleListResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	params := repository.ListParams{
		OpenOnly: req.Open,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	if req.Status != "" {
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			return transport.CycleListResponse{}, err
		}
		v := string(status)
		params.Status = &v
	}
	var requested *uuid.UUID
	if req.SalespersonID != "" {
		id, err := uuid.Parse(req.SalespersonID)
		if err != nil {
			return transport.CycleListResponse{}, apperr.Validation("invalid salesperson id")
		}
		requested = &id
	}
	params.SalespersonID = access.ScopeSalesperson(actor, requested)
	if req.CompanyID != "" {
		id, err := uuid.Parse(req.CompanyID)
		if err != nil {
			return transport.CycleListResponse{}, apperr.Validation("invalid company id")
		}
		params.CompanyID = &id
	}
	if code := strings.ToUpper(strings.TrimSpace(req.Code)); code != "" {
		params.Code = &code
	}
	if req.Expiring {
		before := s.now().Add(s.policy.ExpiringWindow)
		params.ExpiringBefore = &before
		params.TrialDays = s.policy.TrialDays
		params.ExtensionDays = s.policy.ExtensionDays
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.CycleListResponse{}, err
	}
	out := make([]transport.CycleResponse, 0, len(items))
	for _, c := range items {
		out = append(out, s.toResponse(c))
	}
	return transport.CycleListResponse{Items: out, Total: total, Page: page, PageSize: pageSize}, nil
}

// History returns the activity log of one cycle.
func (s *Service) History(ctx context.Context, actor access.Actor, id uuid.UUID) ([]transport.HistoryEntryResponse, error) {
	if _, err := s.load(ctx, actor, id, 0); err != nil {
		return nil, err
	}
	entries, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]transport.HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, transport.HistoryEntryResponse{
			ID:        e.ID,
			ActorID:   e.ActorID,
			ActorName: e.ActorName,
			Action:    e.Action,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}

// MatTypes lists the available mat sizes.
func (s *Service) MatTypes(ctx context.Context) ([]transport.MatTypeResponse, error) {
	types, err := s.repo.ListMatTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.MatTypeResponse, 0, len(types))
	for _, m := range types {
		out = append(out, transport.MatTypeResponse{ID: m.ID, Code: m.Code, Name: m.Name, WidthCm: m.WidthCm, HeightCm: m.HeightCm})
	}
	return out, nil
}

// load fetches a cycle, checks ownership and, when version is non-zero,
// rejects a stale client copy early. The repository CAS still guards races.
func (s *Service) load(ctx context.Context, actor access.Actor, id uuid.UUID, version int) (repository.Cycle, error) {
	cycle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Cycle{}, err
	}
	if err := access.CanOperateCycle(actor, cycle.SalespersonID); err != nil {
		return repository.Cycle{}, err
	}
	if version != 0 && version != cycle.Version {
		return repository.Cycle{}, apperr.Conflict(staleVersionMessage).
			WithDetails(map[string]int{"expectedVersion": cycle.Version, "gotVersion": version})
	}
	return cycle, nil
}

func (s *Service) publishStatus(ctx context.Context, actor access.Actor, c repository.Cycle, from domain.Status) {
	s.bus.Publish(ctx, events.CycleStatusChanged{
		BaseEvent:     events.NewBaseEvent(),
		ActorID:       actor.UserID,
		CycleID:       c.ID,
		SalespersonID: c.SalespersonID,
		CompanyID:     c.CompanyID,
		From:          string(from),
		To:            c.Status,
	})
}

func (s *Service) toResponse(c repository.Cycle) transport.CycleResponse {
	status := domain.Status(c.Status)
	allowed := make([]string, 0)
	for _, next := range domain.AllowedTransitions(status) {
		// completion is reserved to pickup batches
		if next == domain.StatusCompleted {
			continue
		}
		allowed = append(allowed, string(next))
	}

	resp := transport.CycleResponse{
		ID:                 c.ID,
		Code:               c.Code,
		SalespersonID:      c.SalespersonID,
		SalespersonName:    c.SalespersonName,
		MatTypeID:          c.MatTypeID,
		MatTypeCode:        c.MatTypeCode,
		Status:             c.Status,
		CompanyID:          c.CompanyID,
		CompanyName:        c.CompanyName,
		ContactID:          c.ContactID,
		TestStartDate:      c.TestStartDate,
		TestEndDate:        c.TestEndDate,
		ContractSigned:     c.ContractSigned,
		ContractFrequency:  c.ContractFrequency,
		ContractSignedAt:   c.ContractSignedAt,
		Notes:              c.Notes,
		ExtendedCount:      c.ExtendedCount,
		CompletedAt:        c.CompletedAt,
		Version:            c.Version,
		Expiry:             domain.ComputeExpiry(status, c.TestStartDate, c.ExtendedCount, s.now(), s.policy),
		AllowedTransitions: allowed,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
	if c.Latitude != nil && c.Longitude != nil {
		resp.Location = &transport.Location{Latitude: *c.Latitude, Longitude: *c.Longitude}
	}
	return resp
}
