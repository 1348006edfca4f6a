package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/policy"
	"predpraznik_backend/internal/reminders/domain"
	"predpraznik_backend/internal/reminders/ports"
	"predpraznik_backend/internal/reminders/repository"
	"predpraznik_backend/internal/reminders/transport"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/db"
	"predpraznik_backend/platform/events/eventstest"
	"predpraznik_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo stages writes made inside WithTx and only applies them when fn
// succeeds, like a rolled back transaction would.
type fakeRepo struct {
	reminders map[uuid.UUID]repository.Reminder
	staged    map[uuid.UUID]repository.Reminder
	insertErr error
	onCommit  func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reminders: map[uuid.UUID]repository.Reminder{}}
}

func (f *fakeRepo) add(userID uuid.UUID, at time.Time, completed bool) uuid.UUID {
	id := uuid.New()
	f.reminders[id] = repository.Reminder{ID: id, UserID: userID, ReminderAt: at, IsCompleted: completed, Type: "general"}
	return id
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Reminder, error) {
	r, ok := f.reminders[id]
	if !ok {
		return repository.Reminder{}, apperr.NotFound("reminder not found")
	}
	return r, nil
}

func (f *fakeRepo) Due(_ context.Context, userID uuid.UUID, now time.Time) ([]repository.Reminder, error) {
	var out []repository.Reminder
	for _, r := range f.reminders {
		if r.UserID == userID && domain.IsDue(r.ReminderAt, r.IsCompleted, now) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderAt.Before(out[j].ReminderAt) })
	return out, nil
}

func (f *fakeRepo) Upcoming(_ context.Context, userID uuid.UUID, from, to time.Time) ([]repository.Reminder, error) {
	var out []repository.Reminder
	for _, r := range f.reminders {
		if r.UserID == userID && !r.IsCompleted && r.ReminderAt.After(from) && !r.ReminderAt.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateInTx(_ context.Context, _ db.Querier, p repository.CreateParams) (repository.Reminder, error) {
	if f.insertErr != nil {
		return repository.Reminder{}, f.insertErr
	}
	r := repository.Reminder{ID: uuid.New(), UserID: p.UserID, CompanyID: p.CompanyID, ReminderAt: p.ReminderAt, Note: p.Note, Type: p.Type}
	f.staged[r.ID] = r
	return r, nil
}

func (f *fakeRepo) CompleteInTx(_ context.Context, _ db.Querier, id uuid.UUID, at time.Time) (repository.Reminder, error) {
	r, ok := f.reminders[id]
	if !ok || r.IsCompleted {
		return repository.Reminder{}, apperr.NotFound("open reminder not found")
	}
	r.IsCompleted, r.CompletedAt = true, &at
	f.staged[id] = r
	return r, nil
}

func (f *fakeRepo) Reschedule(_ context.Context, id uuid.UUID, at time.Time) (repository.Reminder, error) {
	r := f.reminders[id]
	r.ReminderAt = at
	f.reminders[id] = r
	return r, nil
}

func (f *fakeRepo) WithTx(_ context.Context, fn func(q db.Querier) error) error {
	f.staged = map[uuid.UUID]repository.Reminder{}
	if err := fn(nil); err != nil {
		return err
	}
	for id, r := range f.staged {
		f.reminders[id] = r
	}
	if f.onCommit != nil {
		f.onCommit()
	}
	return nil
}

var _ repository.Repository = (*fakeRepo)(nil)

// fakeContracts stages company writes until the reminders transaction
// commits, so a failed insert leaves companies untouched.
type fakeContracts struct {
	companies map[uuid.UUID]ports.ContractCompany
	staged    map[uuid.UUID]ports.ContractCompany
}

func (f *fakeContracts) PendingContracts(_ context.Context, ownerID *uuid.UUID, sentBefore time.Time) ([]ports.ContractCompany, error) {
	var out []ports.ContractCompany
	for _, c := range f.companies {
		if c.PipelineStatus == "contract_sent" && c.ContractSentAt != nil && !c.ContractSentAt.After(sentBefore) &&
			(ownerID == nil || (c.OwnerID != nil && *c.OwnerID == *ownerID)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContracts) GetCompany(_ context.Context, id uuid.UUID) (ports.ContractCompany, error) {
	c, ok := f.companies[id]
	if !ok {
		return ports.ContractCompany{}, apperr.NotFound("company not found")
	}
	return c, nil
}

func (f *fakeContracts) StampContractCalled(_ context.Context, _ db.Querier, id uuid.UUID, at time.Time) error {
	c := f.companies[id]
	c.ContractCalledAt = &at
	f.staged[id] = c
	return nil
}

func (f *fakeContracts) MarkContractReceived(_ context.Context, _ db.Querier, id uuid.UUID) error {
	c := f.companies[id]
	c.PipelineStatus, c.ContractCalledAt = "contract_signed", nil
	f.staged[id] = c
	return nil
}

func (f *fakeContracts) commit() {
	for id, c := range f.staged {
		f.companies[id] = c
	}
	f.staged = map[uuid.UUID]ports.ContractCompany{}
}

var _ ports.ContractTracking = (*fakeContracts)(nil)

var (
	// Monday 10 March 2025, 15:00 in Ljubljana.
	fixedNow = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	seller   = access.Actor{UserID: uuid.New(), Role: access.RoleSalesperson}
)

type fixture struct {
	repo      *fakeRepo
	contracts *fakeContracts
	rec       *eventstest.Recorder
	svc       *Service
	loc       *time.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Ljubljana")
	require.NoError(t, err)
	repo := newFakeRepo()
	contracts := &fakeContracts{companies: map[uuid.UUID]ports.ContractCompany{}, staged: map[uuid.UUID]ports.ContractCompany{}}
	repo.onCommit = contracts.commit
	rec := &eventstest.Recorder{}
	svc := New(repo, contracts, rec, policy.Defaults(), loc, logger.Nop()).WithClock(func() time.Time { return fixedNow })
	return &fixture{repo: repo, contracts: contracts, rec: rec, svc: svc, loc: loc}
}

func (fx *fixture) addCompany(status string, sentDaysAgo int) uuid.UUID {
	id := uuid.New()
	sent := fixedNow.AddDate(0, 0, -sentDaysAgo)
	fx.contracts.companies[id] = ports.ContractCompany{ID: id, Name: "Acme d.o.o.", OwnerID: &seller.UserID, PipelineStatus: status, ContractSentAt: &sent}
	return id
}

func TestDueRemindersReturnsOnlyOpenPastReminders(t *testing.T) {
	fx := newFixture(t)
	due := fx.repo.add(seller.UserID, fixedNow.Add(-time.Hour), false)
	fx.repo.add(seller.UserID, fixedNow.Add(time.Hour), false)
	fx.repo.add(seller.UserID, fixedNow.Add(-time.Hour), true)
	fx.repo.add(uuid.New(), fixedNow.Add(-time.Hour), false)

	got, err := fx.svc.DueReminders(context.Background(), seller)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due, got[0].ID)
	assert.True(t, got[0].IsDue)
}

func TestListUpcomingExcludesDue(t *testing.T) {
	fx := newFixture(t)
	fx.repo.add(seller.UserID, fixedNow.Add(-time.Hour), false)
	soon := fx.repo.add(seller.UserID, fixedNow.Add(48*time.Hour), false)
	fx.repo.add(seller.UserID, fixedNow.AddDate(0, 0, 30), false)

	got, err := fx.svc.ListUpcoming(context.Background(), seller, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, soon, got[0].ID)
	assert.False(t, got[0].IsDue)
}

func TestContractPendingFollowupsUsesThreshold(t *testing.T) {
	fx := newFixture(t)
	overdue := fx.addCompany("contract_sent", 3)
	fx.addCompany("contract_sent", 2)
	fx.addCompany("contract_signed", 10)

	got, err := fx.svc.ContractPendingFollowups(context.Background(), seller, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, overdue, got[0].CompanyID)
	assert.Equal(t, 3, got[0].DaysWaiting)

	got, err = fx.svc.ContractPendingFollowups(context.Background(), seller, 1)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMarkContractCalledSchedulesTomorrowMorning(t *testing.T) {
	fx := newFixture(t)
	company := fx.addCompany("contract_sent", 4)

	resp, err := fx.svc.MarkContractCalled(context.Background(), seller, company)
	require.NoError(t, err)

	assert.True(t, time.Date(2025, 3, 11, 9, 0, 0, 0, fx.loc).Equal(resp.ReminderAt), "got %s", resp.ReminderAt)
	assert.Equal(t, string(domain.TypeContractFollowup), resp.Type)
	assert.Equal(t, domain.FollowupNote, resp.Note)
	require.NotNil(t, fx.contracts.companies[company].ContractCalledAt)
	assert.Len(t, fx.repo.reminders, 1, "exactly one follow-up reminder")
	assert.Equal(t, []string{"reminders.contract_called"}, fx.rec.Names())
}

func TestMarkContractCalledFailedInsertIsReported(t *testing.T) {
	fx := newFixture(t)
	company := fx.addCompany("contract_sent", 4)
	fx.repo.insertErr = errors.New("connection reset")

	_, err := fx.svc.MarkContractCalled(context.Background(), seller, company)
	require.Error(t, err)
	assert.True(t, apperr.IsRecoverable(err))
	assert.Contains(t, err.Error(), "call was not recorded")
	assert.Empty(t, fx.repo.reminders)
	assert.Nil(t, fx.contracts.companies[company].ContractCalledAt)
	assert.Empty(t, fx.rec.Names())
}

func TestMarkContractCalledKeepsInsertErrorKind(t *testing.T) {
	cases := []struct {
		err         error
		kind        apperr.Kind
		recoverable bool
	}{
		{apperr.Forbidden("permission denied for table reminders"), apperr.KindForbidden, false},
		{apperr.Unauthorized("role expired"), apperr.KindUnauthorized, false},
		{apperr.Validation("referenced company missing"), apperr.KindValidation, true},
		{apperr.Transient("serialization failure"), apperr.KindTransient, true},
	}
	for _, tc := range cases {
		fx := newFixture(t)
		company := fx.addCompany("contract_sent", 4)
		fx.repo.insertErr = tc.err

		_, err := fx.svc.MarkContractCalled(context.Background(), seller, company)
		require.Error(t, err)
		assert.Equal(t, tc.kind, apperr.GetKind(err), "%v", tc.err)
		assert.Equal(t, tc.recoverable, apperr.IsRecoverable(err), "%v", tc.err)
		assert.Nil(t, fx.contracts.companies[company].ContractCalledAt)
	}
}

func TestMarkContractCalledRequiresSentContract(t *testing.T) {
	fx := newFixture(t)
	company := fx.addCompany("on_test", 0)

	_, err := fx.svc.MarkContractCalled(context.Background(), seller, company)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	other := access.Actor{UserID: uuid.New(), Role: access.RoleSalesperson}
	_, err = fx.svc.MarkContractCalled(context.Background(), other, fx.addCompany("contract_sent", 4))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestMarkContractReceivedCompletesReminder(t *testing.T) {
	fx := newFixture(t)
	company := fx.addCompany("contract_sent", 4)
	reminder := fx.repo.add(seller.UserID, fixedNow.Add(-time.Hour), false)

	require.NoError(t, fx.svc.MarkContractReceived(context.Background(), seller, company, &reminder))

	assert.Equal(t, "contract_signed", fx.contracts.companies[company].PipelineStatus)
	assert.Nil(t, fx.contracts.companies[company].ContractCalledAt)
	assert.True(t, fx.repo.reminders[reminder].IsCompleted)

	err := fx.svc.MarkContractReceived(context.Background(), seller, company, nil)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "already signed")
}

func TestPostpone(t *testing.T) {
	fx := newFixture(t)
	id := fx.repo.add(seller.UserID, fixedNow.Add(-time.Hour), false)

	_, err := fx.svc.Postpone(context.Background(), seller, id, fixedNow.Add(-time.Minute))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	resp, err := fx.svc.PostponeFollowup(context.Background(), seller, id)
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 3, 11, 9, 0, 0, 0, fx.loc).Equal(resp.ReminderAt))

	other := access.Actor{UserID: uuid.New(), Role: access.RoleSalesperson}
	_, err = fx.svc.Postpone(context.Background(), other, id, fixedNow.Add(time.Hour))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = fx.svc.Complete(context.Background(), seller, id)
	require.NoError(t, err)
	_, err = fx.svc.Postpone(context.Background(), seller, id, fixedNow.Add(time.Hour))
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestCreateValidatesCompany(t *testing.T) {
	fx := newFixture(t)
	missing := uuid.New()

	_, err := fx.svc.Create(context.Background(), seller, transport.CreateReminderRequest{
		ReminderAt: fixedNow.Add(time.Hour), CompanyID: &missing,
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	resp, err := fx.svc.Create(context.Background(), seller, transport.CreateReminderRequest{
		ReminderAt: fixedNow.Add(time.Hour), Note: "<i>call</i> back", Type: "call",
	})
	require.NoError(t, err)
	assert.Equal(t, "call back", resp.Note)
	assert.Equal(t, "call", resp.Type)
}

func TestCreateRejectsForeignCompany(t *testing.T) {
	fx := newFixture(t)
	company := fx.addCompany("contract_sent", 1)
	other := access.Actor{UserID: uuid.New(), Role: access.RoleSalesperson}

	_, err := fx.svc.Create(context.Background(), other, transport.CreateReminderRequest{
		ReminderAt: fixedNow.Add(time.Hour), CompanyID: &company,
	})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Empty(t, fx.repo.reminders)

	resp, err := fx.svc.Create(context.Background(), seller, transport.CreateReminderRequest{
		ReminderAt: fixedNow.Add(time.Hour), CompanyID: &company,
	})
	require.NoError(t, err)
	assert.Equal(t, &company, resp.CompanyID)
}
