package service

import (
	"context"
	"time"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/events"
	"predpraznik_backend/internal/policy"
	"predpraznik_backend/internal/reminders/domain"
	"predpraznik_backend/internal/reminders/ports"
	"predpraznik_backend/internal/reminders/repository"
	"predpraznik_backend/internal/reminders/transport"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/db"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/sanitize"

	"github.com/google/uuid"
)

const defaultUpcomingDays = 7

// Service derives due reminders and contract follow-ups at query time.
type Service struct {
	repo      repository.Repository
	contracts ports.ContractTracking
	bus       events.Bus
	policy    policy.Policy
	loc       *time.Location
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new reminders service. loc is the timezone "tomorrow at
// 09:00" is computed in.
func New(repo repository.Repository, contracts ports.ContractTracking, bus events.Bus, p policy.Policy, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, contracts: contracts, bus: bus, policy: p, loc: loc, log: log, now: time.Now}
}

// WithClock replaces the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// DueReminders returns the actor's open reminders whose time has come.
func (s *Service) DueReminders(ctx context.Context, actor access.Actor) ([]transport.ReminderResponse, error) {
	now := s.now()
	reminders, err := s.repo.Due(ctx, actor.UserID, now)
	if err != nil {
		return nil, err
	}
	return s.toResponses(reminders, now), nil
}

// ListUpcoming returns open reminders due within the next days.
func (s *Service) ListUpcoming(ctx context.Context, actor access.Actor, days int) ([]transport.ReminderResponse, error) {
	if days < 1 {
		days = defaultUpcomingDays
	}
	now := s.now()
	reminders, err := s.repo.Upcoming(ctx, actor.UserID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	return s.toResponses(reminders, now), nil
}

// ContractPendingFollowups lists companies whose contract went out at
// least thresholdDays ago and is still unsigned. Zero uses the policy value.
func (s *Service) ContractPendingFollowups(ctx context.Context, actor access.Actor, thresholdDays int) ([]transport.FollowupResponse, error) {
	if thresholdDays <= 0 {
		thresholdDays = s.policy.ContractFollowupDays
	}
	now := s.now()
	companies, err := s.contracts.PendingContracts(ctx, access.ScopeSalesperson(actor, nil), domain.FollowupCutoff(now, thresholdDays))
	if err != nil {
		return nil, err
	}

	out := make([]transport.FollowupResponse, 0, len(companies))
	for _, c := range companies {
		if c.ContractSentAt == nil {
			continue
		}
		out = append(out, transport.FollowupResponse{
			CompanyID:        c.ID,
			CompanyName:      c.Name,
			OwnerID:          c.OwnerID,
			ContractSentAt:   *c.ContractSentAt,
			ContractCalledAt: c.ContractCalledAt,
			DaysWaiting:      int(now.Sub(*c.ContractSentAt).Hours() / 24),
		})
	}
	return out, nil
}

// Create schedules a reminder for the actor.
func (s *Service) Create(ctx context.Context, actor access.Actor, req transport.CreateReminderRequest) (transport.ReminderResponse, error) {
	typ, err := domain.ParseType(req.Type)
	if err != nil {
		return transport.ReminderResponse{}, err
	}
	if req.CompanyID != nil {
		company, err := s.contracts.GetCompany(ctx, *req.CompanyID)
		if err != nil {
			return transport.ReminderResponse{}, err
		}
		if err := access.CanEditCompany(actor, company.OwnerID); err != nil {
			return transport.ReminderResponse{}, err
		}
	}

	var created repository.Reminder
	err = s.repo.WithTx(ctx, func(q db.Querier) error {
		var err error
		created, err = s.repo.CreateInTx(ctx, q, repository.CreateParams{
			UserID:     actor.UserID,
			CompanyID:  req.CompanyID,
			ReminderAt: req.ReminderAt,
			Note:       sanitize.Text(req.Note),
			Type:       string(typ),
		})
		return err
	})
	if err != nil {
		return transport.ReminderResponse{}, err
	}
	return s.toResponse(created, s.now()), nil
}

// Complete closes a reminder.
func (s *Service) Complete(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.ReminderResponse, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return transport.ReminderResponse{}, err
	}
	now := s.now()
	var done repository.Reminder
	err := s.repo.WithTx(ctx, func(q db.Querier) error {
		var err error
		done, err = s.repo.CompleteInTx(ctx, q, id, now)
		return err
	})
	if err != nil {
		return transport.ReminderResponse{}, err
	}
	return s.toResponse(done, now), nil
}

// Postpone moves a reminder to any future time.
func (s *Service) Postpone(ctx context.Context, actor access.Actor, id uuid.UUID, at time.Time) (transport.ReminderResponse, error) {
	current, err := s.load(ctx, actor, id)
	if err != nil {
		return transport.ReminderResponse{}, err
	}
	now := s.now()
	if err := domain.ValidatePostpone(current.IsCompleted, at, now); err != nil {
		return transport.ReminderResponse{}, err
	}
	updated, err := s.repo.Reschedule(ctx, id, at)
	if err != nil {
		return transport.ReminderResponse{}, err
	}
	return s.toResponse(updated, now), nil
}

// PostponeFollowup moves a reminder to tomorrow at the follow-up hour.
func (s *Service) PostponeFollowup(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.ReminderResponse, error) {
	return s.Postpone(ctx, actor, id, domain.NextFollowup(s.now(), s.loc, s.policy.FollowupHour))
}

// MarkContractCalled stamps contract_called_at and schedules exactly one
// follow-up reminder for tomorrow. Both writes share one transaction, so a
// failed reminder insert leaves the company untouched.
func (s *Service) MarkContractCalled(ctx context.Context, actor access.Actor, companyID uuid.UUID) (transport.ReminderResponse, error) {
	company, err := s.contracts.GetCompany(ctx, companyID)
	if err != nil {
		return transport.ReminderResponse{}, err
	}
	if err := access.CanEditCompany(actor, company.OwnerID); err != nil {
		return transport.ReminderResponse{}, err
	}
	if err := domain.ValidateContractCall(company.PipelineStatus); err != nil {
		return transport.ReminderResponse{}, err
	}

	now := s.now()
	var reminder repository.Reminder
	err = s.repo.WithTx(ctx, func(q db.Querier) error {
		if err := s.contracts.StampContractCalled(ctx, q, companyID, now.UTC()); err != nil {
			return err
		}
		var err error
		reminder, err = s.repo.CreateInTx(ctx, q, repository.CreateParams{
			UserID:     actor.UserID,
			CompanyID:  &companyID,
			ReminderAt: domain.NextFollowup(now, s.loc, s.policy.FollowupHour),
			Note:       domain.FollowupNote,
			Type:       string(domain.TypeContractFollowup),
		})
		if err != nil {
			return followupInsertError(err)
		}
		return nil
	})
	if err != nil {
		return transport.ReminderResponse{}, err
	}

	s.log.Info("contract call recorded", "companyId", companyID, "reminderId", reminder.ID)
	s.bus.Publish(ctx, events.ContractCalled{
		BaseEvent:  events.NewBaseEvent(),
		ActorID:    actor.UserID,
		CompanyID:  companyID,
		ReminderID: reminder.ID,
	})
	return s.toResponse(reminder, now), nil
}

// MarkContractReceived moves the company to contract_signed, clears the
// call stamp and optionally completes the reminder that prompted it.
func (s *Service) MarkContractReceived(ctx context.Context, actor access.Actor, companyID uuid.UUID, reminderID *uuid.UUID) error {
	company, err := s.contracts.GetCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if err := access.CanEditCompany(actor, company.OwnerID); err != nil {
		return err
	}
	if err := domain.ValidateContractReceived(company.PipelineStatus); err != nil {
		return err
	}
	if reminderID != nil {
		if _, err := s.load(ctx, actor, *reminderID); err != nil {
			return err
		}
	}

	now := s.now()
	err = s.repo.WithTx(ctx, func(q db.Querier) error {
		if err := s.contracts.MarkContractReceived(ctx, q, companyID); err != nil {
			return err
		}
		if reminderID == nil {
			return nil
		}
		_, err := s.repo.CompleteInTx(ctx, q, *reminderID, now)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Transition("company", companyID.String(), company.PipelineStatus, "contract_signed")
	s.bus.Publish(ctx, events.ContractReceived{
		BaseEvent: events.NewBaseEvent(),
		ActorID:   actor.UserID,
		CompanyID: companyID,
	})
	return nil
}

func (s *Service) load(ctx context.Context, actor access.Actor, id uuid.UUID) (repository.Reminder, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Reminder{}, err
	}
	if err := access.CanManageReminder(actor, r.UserID); err != nil {
		return repository.Reminder{}, err
	}
	return r, nil
}

func (s *Service) toResponses(reminders []repository.Reminder, now time.Time) []transport.ReminderResponse {
	out := make([]transport.ReminderResponse, 0, len(reminders))
	for _, r := range reminders {
		out = append(out, s.toResponse(r, now))
	}
	return out
}

func (s *Service) toResponse(r repository.Reminder, now time.Time) transport.ReminderResponse {
	return transport.ReminderResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		CompanyID:   r.CompanyID,
		CompanyName: r.CompanyName,
		ReminderAt:  r.ReminderAt.In(s.loc),
		Note:        r.Note,
		Type:        r.Type,
		IsCompleted: r.IsCompleted,
		CompletedAt: r.CompletedAt,
		IsDue:       domain.IsDue(r.ReminderAt, r.IsCompleted, now),
		CreatedAt:   r.CreatedAt,
	}
}

// followupInsertError reports a failed follow-up insert. Untyped failures
// become Transient; typed ones keep their kind so permission and input
// errors stay non-retryable.
func followupInsertError(err error) error {
	kind := apperr.GetKind(err)
	if kind == apperr.KindUnknown {
		kind = apperr.KindTransient
	}
	return apperr.Wrap(kind, "follow-up reminder could not be created, the call was not recorded", err).
		WithOp("reminders.MarkContractCalled")
}
