package service

import (
	"context"
	"time"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/dashboard/domain"
	"predpraznik_backend/internal/dashboard/repository"
	"predpraznik_backend/internal/dashboard/transport"
	"predpraznik_backend/internal/policy"
	"predpraznik_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// Service builds dashboard views. Salespeople always see only their own data.
type Service struct {
	repo   repository.Repository
	policy policy.Policy
	loc    *time.Location
	log    *logger.Logger
	now    func() time.Time
}

// New creates a new dashboard service.
func New(repo repository.Repository, p policy.Policy, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, policy: p, loc: loc, log: log, now: time.Now}
}

// WithClock replaces the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Actions returns the urgent and today lists.
func (s *Service) Actions(ctx context.Context, actor access.Actor, req transport.FilterRequest) (domain.Actions, error) {
	snap, err := s.repo.Snapshot(ctx, access.ScopeSalesperson(actor, req.Salesperson()))
	if err != nil {
		return domain.Actions{}, err
	}
	return domain.BuildActionItems(snap, s.policy, s.now()), nil
}

// KPIs fans the independent counts out concurrently.
func (s *Service) KPIs(ctx context.Context, actor access.Actor, req transport.FilterRequest) (transport.KPIResponse, error) {
	scope := access.ScopeSalesperson(actor, req.Salesperson())
	since := s.now().AddDate(0, 0, -s.policy.ConversionWindowDays)

	var (
		statuses []domain.StatusCount
		window   repository.WindowCounts
		pickups  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		statuses, err = s.repo.StatusCounts(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		window, err = s.repo.WindowCounts(gctx, scope, since)
		return err
	})
	g.Go(func() error {
		var err error
		pickups, err = s.repo.OpenPickups(gctx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.WithContext(ctx).DatabaseError("dashboard kpis", err)
		return transport.KPIResponse{}, err
	}

	byStatus := map[string]int{}
	for _, sc := range statuses {
		byStatus[sc.Status] = sc.Count
	}
	return transport.KPIResponse{
		ActiveTests:      byStatus["on_test"],
		DirtyMats:        byStatus["dirty"],
		WaitingDriver:    byStatus["waiting_driver"],
		CompletedCycles:  byStatus["completed"],
		OpenPickups:      pickups,
		CyclesCreated:    window.Created,
		ContractsSigned:  window.Signed,
		ConversionRate:   domain.ConversionRate(window.Signed, window.Created),
		ConversionWindow: s.policy.ConversionWindowDays,
	}, nil
}

// Trends returns the monthly chart ending with the current month.
func (s *Service) Trends(ctx context.Context, actor access.Actor, req transport.TrendRequest) (transport.TrendResponse, error) {
	months := req.Months
	if months == 0 {
		months = s.policy.TrendMonths
	}
	now := s.now().In(s.loc)
	rows, err := s.repo.MonthlyCounts(ctx, access.ScopeSalesperson(actor, req.Salesperson()), domain.TrendStart(now, months), s.loc.String())
	if err != nil {
		return transport.TrendResponse{}, err
	}
	return transport.TrendResponse{Points: domain.FillMonthlyTrend(rows, now, months)}, nil
}

// StatusDistribution returns every cycle status with its count.
func (s *Service) StatusDistribution(ctx context.Context, actor access.Actor, req transport.FilterRequest) (transport.DistributionResponse, error) {
	rows, err := s.repo.StatusCounts(ctx, access.ScopeSalesperson(actor, req.Salesperson()))
	if err != nil {
		return transport.DistributionResponse{}, err
	}
	statuses := domain.StatusDistribution(rows)
	total := 0
	for _, sc := range statuses {
		total += sc.Count
	}
	return transport.DistributionResponse{Statuses: statuses, Total: total}, nil
}
