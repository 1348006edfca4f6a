package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/dashboard/domain"
	"predpraznik_backend/internal/dashboard/repository"
	"predpraznik_backend/internal/dashboard/transport"
	"predpraznik_backend/internal/policy"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu        sync.Mutex
	scopes    []*uuid.UUID
	snapshot  domain.Snapshot
	statuses  []domain.StatusCount
	window    repository.WindowCounts
	pickups   int
	months    []domain.MonthCount
	monthFrom time.Time
	pickupErr error
}

var _ repository.Repository = (*fakeRepo)(nil)

func (f *fakeRepo) record(scope *uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopes = append(f.scopes, scope)
}

func (f *fakeRepo) Snapshot(_ context.Context, sp *uuid.UUID) (domain.Snapshot, error) {
	f.record(sp)
	return f.snapshot, nil
}

func (f *fakeRepo) MonthlyCounts(_ context.Context, sp *uuid.UUID, from time.Time, _ string) ([]domain.MonthCount, error) {
	f.record(sp)
	f.monthFrom = from
	return f.months, nil
}

func (f *fakeRepo) StatusCounts(_ context.Context, sp *uuid.UUID) ([]domain.StatusCount, error) {
	f.record(sp)
	return f.statuses, nil
}

func (f *fakeRepo) WindowCounts(_ context.Context, sp *uuid.UUID, _ time.Time) (repository.WindowCounts, error) {
	f.record(sp)
	return f.window, nil
}

func (f *fakeRepo) OpenPickups(_ context.Context, sp *uuid.UUID) (int, error) {
	f.record(sp)
	return f.pickups, f.pickupErr
}

var fixedNow = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func newService(repo *fakeRepo) *Service {
	return New(repo, policy.Defaults(), time.UTC, logger.Nop()).WithClock(func() time.Time { return fixedNow })
}

func TestKPIsWithEmptyWindow(t *testing.T) {
	repo := &fakeRepo{
		statuses: []domain.StatusCount{{Status: "on_test", Count: 3}, {Status: "dirty", Count: 2}},
		pickups:  1,
	}

	got, err := newService(repo).KPIs(context.Background(), access.Actor{Role: access.RoleAdmin}, transport.FilterRequest{})

	require.NoError(t, err)
	assert.Equal(t, 3, got.ActiveTests)
	assert.Equal(t, 2, got.DirtyMats)
	assert.Equal(t, 1, got.OpenPickups)
	assert.Equal(t, 0, got.ConversionRate)
	assert.Equal(t, 90, got.ConversionWindow)
}

func TestKPIsConversionRate(t *testing.T) {
	repo := &fakeRepo{window: repository.WindowCounts{Created: 8, Signed: 3}}

	got, err := newService(repo).KPIs(context.Background(), access.Actor{Role: access.RoleInventory}, transport.FilterRequest{})

	require.NoError(t, err)
	assert.Equal(t, 38, got.ConversionRate)
}

func TestKPIsPropagatesFailure(t *testing.T) {
	repo := &fakeRepo{pickupErr: apperr.Transient("database unavailable")}

	_, err := newService(repo).KPIs(context.Background(), access.Actor{Role: access.RoleAdmin}, transport.FilterRequest{})

	assert.True(t, apperr.Is(err, apperr.KindTransient))
}

func TestSalespersonIsPinnedToSelf(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	repo := &fakeRepo{}
	svc := newService(repo)
	actor := access.Actor{UserID: me, Role: access.RoleSalesperson}

	_, err := svc.Actions(context.Background(), actor, transport.FilterRequest{SalespersonID: other.String()})
	require.NoError(t, err)
	_, err = svc.KPIs(context.Background(), actor, transport.FilterRequest{SalespersonID: other.String()})
	require.NoError(t, err)

	require.Len(t, repo.scopes, 4)
	for _, scope := range repo.scopes {
		require.NotNil(t, scope)
		assert.Equal(t, me, *scope)
	}
}

func TestTrendsDefaultWindow(t *testing.T) {
	repo := &fakeRepo{months: []domain.MonthCount{{Month: "2025-02", ContractsSigned: 2}}}

	got, err := newService(repo).Trends(context.Background(), access.Actor{Role: access.RoleAdmin}, transport.TrendRequest{})

	require.NoError(t, err)
	require.Len(t, got.Points, 12)
	assert.Equal(t, "2024-04", got.Points[0].Month)
	assert.Equal(t, 2, got.Points[10].ContractsSigned)
	assert.True(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).Equal(repo.monthFrom))
}

func TestStatusDistributionTotals(t *testing.T) {
	repo := &fakeRepo{statuses: []domain.StatusCount{{Status: "completed", Count: 7}, {Status: "clean", Count: 2}}}

	got, err := newService(repo).StatusDistribution(context.Background(), access.Actor{Role: access.RoleAdmin}, transport.FilterRequest{})

	require.NoError(t, err)
	assert.Len(t, got.Statuses, 5)
	assert.Equal(t, 9, got.Total)
}
