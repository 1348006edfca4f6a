package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/events"
	"predpraznik_backend/internal/pickups/domain"
	"predpraznik_backend/internal/pickups/repository"
	"predpraznik_backend/internal/pickups/transport"
	"predpraznik_backend/internal/policy"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/sanitize"

	"github.com/google/uuid"
)

const defaultPageSize = 50

// Service batches cycles for driver collection.
type Service struct {
	repo   repository.Repository
	bus    events.Bus
	policy policy.Policy
	log    *logger.Logger
}

// New creates a new pickups service.
func New(repo repository.Repository, bus events.Bus, p policy.Policy, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, policy: p, log: log}
}

// CreateBatch creates a pending batch. Every cycle is re-validated here
// whatever the selection UI already checked.
func (s *Service) CreateBatch(ctx context.Context, actor access.Actor, req transport.CreatePickupRequest) (transport.PickupResponse, error) {
	scheduled, err := time.Parse(time.DateOnly, req.ScheduledDate)
	if err != nil {
		return transport.PickupResponse{}, apperr.Validation("scheduledDate must be YYYY-MM-DD")
	}

	candidates, err := s.repo.Candidates(ctx, req.CycleIDs)
	if err != nil {
		return transport.PickupResponse{}, err
	}
	if err := domain.ValidateSelection(req.CycleIDs, candidates); err != nil {
		return transport.PickupResponse{}, err
	}
	for _, id := range req.CycleIDs {
		if err := access.CanOperateCycle(actor, candidates[id].SalespersonID); err != nil {
			return transport.PickupResponse{}, err
		}
	}

	pickup, err := s.repo.Create(ctx, repository.CreateParams{
		ScheduledDate:  scheduled,
		AssignedDriver: trimPtr(req.AssignedDriver),
		Notes:          sanitize.Text(req.Notes),
		CreatedBy:      actor.UserID,
		CycleIDs:       req.CycleIDs,
	})
	if err != nil {
		return transport.PickupResponse{}, err
	}

	s.log.Info("pickup created", "pickupId", pickup.ID, "items", len(req.CycleIDs))
	return toResponse(pickup, nil), nil
}

// StartBatch moves a pending batch in progress.
func (s *Service) StartBatch(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.PickupResponse, error) {
	if err := access.CanManagePickups(actor); err != nil {
		return transport.PickupResponse{}, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.PickupResponse{}, err
	}
	if err := domain.ValidateStart(domain.Status(current.Status)); err != nil {
		return transport.PickupResponse{}, err
	}

	pickup, err := s.repo.Start(ctx, id)
	if err != nil {
		return transport.PickupResponse{}, err
	}
	s.log.Transition("pickup", id.String(), current.Status, pickup.Status)
	return toResponse(pickup, nil), nil
}

// ToggleItem flips picked-up on one item until the batch is completed.
func (s *Service) ToggleItem(ctx context.Context, actor access.Actor, pickupID, itemID uuid.UUID) (transport.ItemResponse, error) {
	if err := access.CanManagePickups(actor); err != nil {
		return transport.ItemResponse{}, err
	}
	current, err := s.repo.GetByID(ctx, pickupID)
	if err != nil {
		return transport.ItemResponse{}, err
	}
	if err := domain.ValidateToggle(domain.Status(current.Status)); err != nil {
		return transport.ItemResponse{}, err
	}

	item, err := s.repo.ToggleItem(ctx, pickupID, itemID)
	if err != nil {
		return transport.ItemResponse{}, err
	}
	return toItemResponse(item), nil
}

// CompleteBatch closes the batch. Every referenced cycle still dirty or
// waiting for the driver becomes completed and its code is free again.
func (s *Service) CompleteBatch(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.CompleteResponse, error) {
	if err := access.CanManagePickups(actor); err != nil {
		return transport.CompleteResponse{}, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CompleteResponse{}, err
	}
	unmarked := current.ItemCount - current.PickedUpCount
	if err := domain.ValidateComplete(domain.Status(current.Status), unmarked, s.policy.PickupRequiresAllItems); err != nil {
		return transport.CompleteResponse{}, err
	}

	completed, err := s.repo.Complete(ctx, id, s.policy.PickupRequiresAllItems)
	if err != nil {
		return transport.CompleteResponse{}, err
	}

	ids := make([]uuid.UUID, 0, len(completed))
	for _, c := range completed {
		ids = append(ids, c.ID)
		s.bus.Publish(ctx, events.CycleStatusChanged{
			BaseEvent:     events.NewBaseEvent(),
			ActorID:       actor.UserID,
			CycleID:       c.ID,
			SalespersonID: c.SalespersonID,
			CompanyID:     c.CompanyID,
			From:          c.From,
			To:            "completed",
		})
	}
	s.bus.Publish(ctx, events.PickupCompleted{
		BaseEvent: events.NewBaseEvent(),
		ActorID:   actor.UserID,
		PickupID:  id,
		CycleIDs:  ids,
	})

	s.log.Info("pickup completed", "pickupId", id, "cycles", len(ids), "unmarked", unmarked)
	return transport.CompleteResponse{PickupID: id, CompletedCycles: ids}, nil
}

// DeleteBatch removes a batch that is not completed; cycles keep their status.
func (s *Service) DeleteBatch(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if err := access.CanManagePickups(actor); err != nil {
		return err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := domain.ValidateDelete(domain.Status(current.Status)); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("pickup deleted", "pickupId", id)
	return nil
}

// AssignDriver sets the driver and optionally reschedules.
func (s *Service) AssignDriver(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.AssignDriverRequest) (transport.PickupResponse, error) {
	if err := access.CanManagePickups(actor); err != nil {
		return transport.PickupResponse{}, err
	}
	var scheduled *time.Time
	if req.ScheduledDate != nil {
		d, err := time.Parse(time.DateOnly, *req.ScheduledDate)
		if err != nil {
			return transport.PickupResponse{}, apperr.Validation("scheduledDate must be YYYY-MM-DD")
		}
		scheduled = &d
	}
	pickup, err := s.repo.AssignDriver(ctx, id, trimPtr(req.AssignedDriver), scheduled)
	if err != nil {
		return transport.PickupResponse{}, err
	}
	return toResponse(pickup, nil), nil
}

// List returns batches. Salespeople only see batches holding their cycles.
func (s *Service) List(ctx context.Context, actor access.Actor, req transport.ListPickupsRequest) (transport.PickupListResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	params := repository.ListParams{
		SalespersonID: access.ScopeSalesperson(actor, nil),
		Limit:         pageSize,
		Offset:        (page - 1) * pageSize,
	}
	if req.Status != "" {
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			return transport.PickupListResponse{}, err
		}
		v := string(status)
		params.Status = &v
	}

	pickups, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.PickupListResponse{}, err
	}
	out := make([]transport.PickupResponse, 0, len(pickups))
	for _, p := range pickups {
		out = append(out, toResponse(p, nil))
	}
	return transport.PickupListResponse{Items: out, Total: total, Page: page, PageSize: pageSize}, nil
}

// Get returns a batch with its items. A salesperson sees only their own
// items, and a batch without any of them is reported as not found.
func (s *Service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.PickupResponse, error) {
	pickup, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.PickupResponse{}, err
	}
	items, err := s.repo.Items(ctx, id)
	if err != nil {
		return transport.PickupResponse{}, err
	}
	if !access.SeesAllSalespeople(actor) {
		items = slices.DeleteFunc(items, func(i repository.Item) bool { return i.SalespersonID != actor.UserID })
		if len(items) == 0 {
			return transport.PickupResponse{}, apperr.NotFound("pickup not found")
		}
	}
	return toResponse(pickup, items), nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func toResponse(p repository.Pickup, items []repository.Item) transport.PickupResponse {
	resp := transport.PickupResponse{
		ID:             p.ID,
		Status:         p.Status,
		ScheduledDate:  p.ScheduledDate.Format(time.DateOnly),
		AssignedDriver: p.AssignedDriver,
		Notes:          p.Notes,
		CreatedBy:      p.CreatedBy,
		StartedAt:      p.StartedAt,
		CompletedAt:    p.CompletedAt,
		ItemCount:      p.ItemCount,
		PickedUpCount:  p.PickedUpCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	for _, i := range items {
		resp.Items = append(resp.Items, toItemResponse(i))
	}
	return resp
}

func toItemResponse(i repository.Item) transport.ItemResponse {
	return transport.ItemResponse{
		ID:            i.ID,
		CycleID:       i.CycleID,
		Code:          i.Code,
		CycleStatus:   i.CycleStatus,
		SalespersonID: i.SalespersonID,
		CompanyName:   i.CompanyName,
		Address:       i.Address,
		City:          i.City,
		Latitude:      i.Latitude,
		Longitude:     i.Longitude,
		PickedUp:      i.PickedUp,
		PickedUpAt:    i.PickedUpAt,
	}
}
