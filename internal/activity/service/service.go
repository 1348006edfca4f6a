package service

import (
	"context"
	"sort"
	"time"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/activity/repository"
	"predpraznik_backend/internal/activity/transport"
	"predpraznik_backend/internal/events"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize    = 50
	defaultSummaryDays = 30
	dateLayout         = time.DateOnly
)

// Service records domain events and serves the activity feed.
type Service struct {
	repo repository.Repository
	loc  *time.Location
	log  *logger.Logger
	now  func() time.Time
}

// New creates a new activity service.
func New(repo repository.Repository, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, log: log, now: time.Now}
}

// WithClock replaces the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Handle persists the event as an activity entry. A failed write is logged
// and swallowed so it never reaches the operation that published the event.
func (s *Service) Handle(ctx context.Context, event events.Event) error {
	params, ok, err := entryFor(event)
	if !ok && err == nil {
		return nil
	}
	if err == nil {
		if params.CreatedAt.IsZero() {
			params.CreatedAt = s.now()
		}
		err = s.repo.Insert(ctx, params)
	}
	if err != nil {
		s.log.WithContext(ctx).Error("activity entry not recorded", "event", event.EventName(), "error", err)
	}
	return nil
}

// Feed returns a page of recent activity. Salespeople only see their own.
func (s *Service) Feed(ctx context.Context, actor access.Actor, req transport.FeedRequest) (transport.FeedResponse, error) {
	params := repository.FeedParams{
		ActorID:  access.ScopeSalesperson(actor, parseID(req.SalespersonID)),
		EntityID: parseID(req.EntityID),
	}
	if req.EntityType != "" {
		params.EntityType = &req.EntityType
	}
	if req.Since != "" {
		since, err := time.ParseInLocation(dateLayout, req.Since, s.loc)
		if err != nil {
			return transport.FeedResponse{}, apperr.Validation("invalid since date")
		}
		params.Since = &since
	}
	page, size := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	params.Limit, params.Offset = size, (page-1)*size

	entries, total, err := s.repo.Feed(ctx, params)
	if err != nil {
		return transport.FeedResponse{}, err
	}
	items := make([]transport.EntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, transport.EntryResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			ActorName:  e.ActorName,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Metadata:   e.Metadata,
			CreatedAt:  e.CreatedAt,
		})
	}
	return transport.FeedResponse{Items: items, Total: total, Page: page, PageSize: size}, nil
}

// Summary counts actions per salesperson between two local dates, inclusive.
// Without dates it covers the last 30 days.
func (s *Service) Summary(ctx context.Context, actor access.Actor, req transport.SummaryRequest) (transport.SummaryResponse, error) {
	today := s.now().In(s.loc)
	to := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.loc)
	from := to.AddDate(0, 0, -(defaultSummaryDays - 1))
	var err error
	if req.From != "" {
		if from, err = time.ParseInLocation(dateLayout, req.From, s.loc); err != nil {
			return transport.SummaryResponse{}, apperr.Validation("invalid from date")
		}
	}
	if req.To != "" {
		if to, err = time.ParseInLocation(dateLayout, req.To, s.loc); err != nil {
			return transport.SummaryResponse{}, apperr.Validation("invalid to date")
		}
	}
	if to.Before(from) {
		return transport.SummaryResponse{}, apperr.Validation("from must not be after to")
	}

	counts, err := s.repo.Summary(ctx, access.ScopeSalesperson(actor, parseID(req.SalespersonID)), from, to.AddDate(0, 0, 1))
	if err != nil {
		return transport.SummaryResponse{}, err
	}

	byActor := map[uuid.UUID]*transport.SalespersonSummary{}
	for _, c := range counts {
		sum, ok := byActor[c.ActorID]
		if !ok {
			sum = &transport.SalespersonSummary{SalespersonID: c.ActorID, SalespersonName: c.ActorName, Actions: map[string]int{}}
			byActor[c.ActorID] = sum
		}
		sum.Actions[c.Action] += c.Count
		sum.Total += c.Count
	}
	out := make([]transport.SalespersonSummary, 0, len(byActor))
	for _, sum := range byActor {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].SalespersonName < out[j].SalespersonName
	})
	return transport.SummaryResponse{From: from.Format(dateLayout), To: to.Format(dateLayout), Salespersons: out}, nil
}

func parseID(value string) *uuid.UUID {
	id, err := uuid.Parse(value)
	if err != nil {
		return nil
	}
	return &id
}
