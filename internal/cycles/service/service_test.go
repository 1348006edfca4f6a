package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/cycles/domain"
	"predpraznik_backend/internal/cycles/ports"
	"predpraznik_backend/internal/cycles/repository"
	"predpraznik_backend/internal/cycles/transport"
	"predpraznik_backend/internal/policy"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/db"
	"predpraznik_backend/platform/events/eventstest"
	"predpraznik_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu       sync.Mutex
	cycles   map[uuid.UUID]repository.Cycle
	codes    map[string]repository.CodeRef
	matTypes map[uuid.UUID]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		cycles:   map[uuid.UUID]repository.Cycle{},
		codes:    map[string]repository.CodeRef{},
		matTypes: map[uuid.UUID]string{},
	}
}

func (f *fakeRepo) addCode(code string, owner *uuid.UUID) {
	f.codes[code] = repository.CodeRef{ID: uuid.New(), Code: code, OwnerID: owner}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Cycle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cycles[id]
	if !ok {
		return repository.Cycle{}, apperr.NotFound("cycle not found")
	}
	return c, nil
}

func (f *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.Cycle, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Cycle
	for _, c := range f.cycles {
		if params.SalespersonID != nil && c.SalespersonID != *params.SalespersonID {
			continue
		}
		if params.Status != nil && c.Status != *params.Status {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (f *fakeRepo) History(context.Context, uuid.UUID) ([]repository.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeRepo) LookupCode(_ context.Context, code string) (repository.CodeRef, error) {
	ref, ok := f.codes[code]
	if !ok {
		return repository.CodeRef{}, apperr.NotFound("code not found")
	}
	return ref, nil
}

func (f *fakeRepo) ListMatTypes(context.Context) ([]repository.MatType, error) {
	var out []repository.MatType
	for id, code := range f.matTypes {
		out = append(out, repository.MatType{ID: id, Code: code})
	}
	return out, nil
}

func (f *fakeRepo) MatTypeExists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.matTypes[id]
	return ok, nil
}

// Create enforces one open cycle per code like the partial unique index.
func (f *fakeRepo) Create(_ context.Context, p repository.CreateParams) (repository.Cycle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cycles {
		if c.QRCodeID == p.QRCodeID && c.Status != string(domain.StatusCompleted) {
			return repository.Cycle{}, apperr.Conflict("code already has an open cycle")
		}
	}
	var code string
	for _, ref := range f.codes {
		if ref.ID == p.QRCodeID {
			code = ref.Code
		}
	}
	c := repository.Cycle{
		ID: uuid.New(), QRCodeID: p.QRCodeID, Code: code, SalespersonID: p.SalespersonID,
		MatTypeID: p.MatTypeID, MatTypeCode: f.matTypes[p.MatTypeID], Status: string(domain.StatusClean),
		Version: 1, CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	f.cycles[c.ID] = c
	return c, nil
}

// cas applies mutate when the stored version and optional status match.
func (f *fakeRepo) cas(id uuid.UUID, version int, status string, mutate func(*repository.Cycle)) (repository.Cycle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cycles[id]
	if !ok || c.Version != version || (status != "" && c.Status != status) {
		return repository.Cycle{}, apperr.Conflict("stale")
	}
	mutate(&c)
	c.Version++
	f.cycles[id] = c
	return c, nil
}

func (f *fakeRepo) PlaceOnTestInTx(_ context.Context, _ db.Querier, p repository.PlaceParams) (repository.Cycle, error) {
	return f.cas(p.ID, p.Version, string(domain.StatusClean), func(c *repository.Cycle) {
		company := p.CompanyID
		started := p.StartedAt
		c.Status = string(domain.StatusOnTest)
		c.CompanyID, c.ContactID = &company, p.ContactID
		c.Latitude, c.Longitude = p.Latitude, p.Longitude
		c.TestStartDate = &started
	})
}

func (f *fakeRepo) SetStatus(_ context.Context, id uuid.UUID, version int, from, to string) (repository.Cycle, error) {
	return f.cas(id, version, from, func(c *repository.Cycle) { c.Status = to })
}

func (f *fakeRepo) SignContractInTx(_ context.Context, _ db.Querier, id uuid.UUID, version int, frequency string, at time.Time) (repository.Cycle, error) {
	return f.cas(id, version, string(domain.StatusOnTest), func(c *repository.Cycle) {
		c.ContractSigned = true
		c.ContractFrequency = &frequency
		c.ContractSignedAt = &at
	})
}

func (f *fakeRepo) Extend(_ context.Context, id uuid.UUID, version int) (repository.Cycle, error) {
	return f.cas(id, version, string(domain.StatusOnTest), func(c *repository.Cycle) { c.ExtendedCount++ })
}

func (f *fakeRepo) UpdateNotes(_ context.Context, id uuid.UUID, version int, notes string) (repository.Cycle, error) {
	return f.cas(id, version, "", func(c *repository.Cycle) { c.Notes = notes })
}

func (f *fakeRepo) UpdateLocation(_ context.Context, id uuid.UUID, version int, lat, lng *float64) (repository.Cycle, error) {
	return f.cas(id, version, "", func(c *repository.Cycle) { c.Latitude, c.Longitude = lat, lng })
}

func (f *fakeRepo) WithTx(_ context.Context, fn func(q db.Querier) error) error {
	return fn(nil)
}

var _ repository.Repository = (*fakeRepo)(nil)

type fakeCompanies struct {
	mu         sync.Mutex
	pipeline   map[uuid.UUID]string
	contacts   int
	contactErr error
}

func newFakeCompanies() *fakeCompanies {
	return &fakeCompanies{pipeline: map[uuid.UUID]string{}}
}

func (f *fakeCompanies) CompanyExists(_ context.Context, _ db.Querier, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.pipeline[id]
	return ok, nil
}

func (f *fakeCompanies) CreateCompany(_ context.Context, _ db.Querier, _ uuid.UUID, c ports.NewCompany) (uuid.UUID, error) {
	if c.Name == "" {
		return uuid.Nil, apperr.Validation("company name is required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.pipeline[id] = "new"
	return id, nil
}

func (f *fakeCompanies) CreateContact(context.Context, db.Querier, uuid.UUID, ports.NewContact) (uuid.UUID, error) {
	if f.contactErr != nil {
		return uuid.Nil, f.contactErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts++
	return uuid.New(), nil
}

func (f *fakeCompanies) MarkOnTest(_ context.Context, _ db.Querier, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s := f.pipeline[id]; s == "new" || s == "contacted" {
		f.pipeline[id] = "on_test"
	}
	return nil
}

func (f *fakeCompanies) MarkContractSigned(_ context.Context, _ db.Querier, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pipeline[id] = "contract_signed"
	return nil
}

type fixture struct {
	repo      *fakeRepo
	companies *fakeCompanies
	rec       *eventstest.Recorder
	svc       *Service
	owner     access.Actor
	matType   uuid.UUID
}

func newFixture(p policy.Policy) *fixture {
	repo := newFakeRepo()
	companies := newFakeCompanies()
	rec := &eventstest.Recorder{}
	owner := access.Actor{UserID: uuid.New(), Role: access.RoleSalesperson, CodePrefix: "GEO"}
	matType := uuid.New()
	repo.matTypes[matType] = "MBW1"
	repo.addCode("GEO-4K7M", &owner.UserID)

	svc := New(repo, companies, rec, p, logger.Nop()).WithClock(func() time.Time { return fixedNow })
	return &fixture{repo: repo, companies: companies, rec: rec, svc: svc, owner: owner, matType: matType}
}

func (fx *fixture) activate(t *testing.T) transport.CycleResponse {
	t.Helper()
	resp, err := fx.svc.Activate(context.Background(), fx.owner, transport.ActivateRequest{Code: "geo-4k7m", MatTypeID: fx.matType})
	require.NoError(t, err)
	return resp
}

func (fx *fixture) place(t *testing.T, cycle transport.CycleResponse) transport.CycleResponse {
	t.Helper()
	resp, err := fx.svc.PlaceOnTest(context.Background(), fx.owner, cycle.ID, transport.PlaceOnTestRequest{
		Version:    cycle.Version,
		NewCompany: &transport.NewCompanyRequest{Name: "Acme d.o.o."},
	})
	require.NoError(t, err)
	return resp
}

func TestActivateCreatesCleanCycle(t *testing.T) {
	fx := newFixture(policy.Defaults())
	resp := fx.activate(t)

	assert.Equal(t, "clean", resp.Status)
	assert.Equal(t, "GEO-4K7M", resp.Code)
	assert.Equal(t, 1, resp.Version)
	assert.Equal(t, []string{"on_test"}, resp.AllowedTransitions)
	assert.Nil(t, resp.Expiry)
	assert.Equal(t, []string{"cycles.status_changed"}, fx.rec.Names())
}

func TestActivateGuards(t *testing.T) {
	fx := newFixture(policy.Defaults())
	ctx := context.Background()

	fx.repo.addCode("GEO-2222", nil)
	_, err := fx.svc.Activate(ctx, fx.owner, transport.ActivateRequest{Code: "GEO-2222", MatTypeID: fx.matType})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "unowned code: %v", err)

	stranger := access.Actor{UserID: uuid.New(), Role: access.RoleSalesperson}
	_, err = fx.svc.Activate(ctx, stranger, transport.ActivateRequest{Code: "GEO-4K7M", MatTypeID: fx.matType})
	assert.True(t, apperr.Is(err, apperr.KindForbidden), "foreign code: %v", err)

	_, err = fx.svc.Activate(ctx, fx.owner, transport.ActivateRequest{Code: "GEO-4K7M", MatTypeID: uuid.New()})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "unknown mat type: %v", err)

	_, err = fx.svc.Activate(ctx, fx.owner, transport.ActivateRequest{Code: "GEO-0000", MatTypeID: fx.matType})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "bad format: %v", err)
}

func TestConcurrentActivationExactlyOneSucceeds(t *testing.T) {
	fx := newFixture(policy.Defaults())
	const callers = 16

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.Activate(context.Background(), fx.owner, transport.ActivateRequest{Code: "GEO-4K7M", MatTypeID: fx.matType})
			switch {
			case err == nil:
				successes.Add(1)
			case apperr.Is(err, apperr.KindConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(callers-1), conflicts.Load())
	assert.Len(t, fx.repo.cycles, 1)
}

func TestConcurrentPlacementExactlyOneSucceeds(t *testing.T) {
	fx := newFixture(policy.Defaults())
	cycle := fx.activate(t)
	const callers = 8

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.PlaceOnTest(context.Background(), fx.owner, cycle.ID, transport.PlaceOnTestRequest{
				Version:    cycle.Version,
				NewCompany: &transport.NewCompanyRequest{Name: "Race d.o.o."},
			})
			if err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	stored, err := fx.repo.GetByID(context.Background(), cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, "on_test", stored.Status)
	assert.Equal(t, 2, stored.Version)
}

func TestPlaceOnTestWithNewCompany(t *testing.T) {
	fx := newFixture(policy.Defaults())
	cycle := fx.activate(t)

	lat, lng := 46.0569, 14.5058
	resp, err := fx.svc.PlaceOnTest(context.Background(), fx.owner, cycle.ID, transport.PlaceOnTestRequest{
		Version:    cycle.Version,
		NewCompany: &transport.NewCompanyRequest{Name: "Acme d.o.o."},
		Contact:    &transport.NewContactRequest{FirstName: "Ana"},
		Location:   &transport.Location{Latitude: lat, Longitude: lng},
	})
	require.NoError(t, err)

	assert.Equal(t, "on_test", resp.Status)
	require.NotNil(t, resp.TestStartDate)
	assert.True(t, resp.TestStartDate.Equal(fixedNow))
	require.NotNil(t, resp.CompanyID)
	assert.Equal(t, "on_test", fx.companies.pipeline[*resp.CompanyID])
	assert.Equal(t, 1, fx.companies.contacts)
	require.NotNil(t, resp.Location)
	assert.Equal(t, lat, resp.Location.Latitude)

	require.NotNil(t, resp.Expiry)
	assert.False(t, resp.Expiry.IsExpiring)
	assert.True(t, resp.Expiry.ExpiresAt.Equal(fixedNow.Add(7*24*time.Hour)))
	assert.ElementsMatch(t, []string{"dirty", "waiting_driver"}, resp.AllowedTransitions)

	assert.Equal(t, []string{"cycles.status_changed", "companies.created", "cycles.status_changed"}, fx.rec.Names())
}

func TestPlaceOnTestAbortsWhenContactFails(t *testing.T) {
	fx := newFixture(policy.Defaults())
	cycle := fx.activate(t)
	fx.companies.contactErr = apperr.Validation("invalid phone number")

	_, err := fx.svc.PlaceOnTest(context.Background(), fx.owner, cycle.ID, transport.PlaceOnTestRequest{
		Version:    cycle.Version,
		NewCompany: &transport.NewCompanyRequest{Name: "Acme d.o.o."},
		Contact:    &transport.NewContactRequest{FirstName: "Ana"},
	})
	require.Error(t, err)

	stored, err := fx.repo.GetByID(context.Background(), cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, "clean", stored.Status)
	assert.Nil(t, stored.TestStartDate)
}

func TestPlaceOnTestRequiresExactlyOneCompanySource(t *testing.T) {
	fx := newFixture(policy.Defaults())
	cycle := fx.activate(t)

	_, err := fx.svc.PlaceOnTest(context.Background(), fx.owner, cycle.ID, transport.PlaceOnTestRequest{Version: cycle.Version})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	missing := uuid.New()
	_, err = fx.svc.PlaceOnTest(context.Background(), fx.owner, cycle.ID, transport.PlaceOnTestRequest{Version: cycle.Version, CompanyID: &missing})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestStaleVersionIsRejected(t *testing.T) {
	fx := newFixture(policy.Defaults())
	cycle := fx.place(t, fx.activate(t))

	_, err := fx.svc.MarkDirty(context.Background(), fx.owner, cycle.ID, cycle.Version-1)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.True(t, apperr.IsRecoverable(err))
}

func TestTransitionTableIsEnforced(t *testing.T) {
	fx := newFixture(policy.Defaults())
	ctx := context.Background()
	cycle := fx.activate(t)

	_, err := fx.svc.MarkDirty(ctx, fx.owner, cycle.ID, cycle.Version)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "clean -> dirty must be rejected")

	cycle = fx.place(t, cycle)
	dirty, err := fx.svc.MarkDirty(ctx, fx.owner, cycle.ID, cycle.Version)
	require.NoError(t, err)
	assert.Equal(t, "dirty", dirty.Status)
	assert.Nil(t, dirty.Expiry)

	waiting, err := fx.svc.RequestPickup(ctx, fx.owner, cycle.ID, dirty.Version)
	require.NoError(t, err)
	assert.Equal(t, "waiting_driver", waiting.Status)
	assert.Empty(t, waiting.AllowedTransitions)

	_, err = fx.svc.MarkDirty(ctx, fx.owner, cycle.ID, waiting.Version)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "waiting_driver -> dirty must be rejected")
}

func TestOtherSalespersonCannotTouchCycle(t *testing.T) {
	fx := newFixture(policy.Defaults())
	cycle := fx.place(t, fx.activate(t))
	stranger := access.Actor{UserID: uuid.New(), Role: access.RoleSalesperson}

	_, err := fx.svc.MarkDirty(context.Background(), stranger, cycle.ID, cycle.Version)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	inventory := access.Actor{UserID: uuid.New(), Role: access.RoleInventory}
	_, err = fx.svc.MarkDirty(context.Background(), inventory, cycle.ID, cycle.Version)
	assert.NoError(t, err)
}

func TestSignContractKeepsStatus(t *testing.T) {
	fx := newFixture(policy.Defaults())
	ctx := context.Background()
	cycle := fx.place(t, fx.activate(t))

	_, err := fx.svc.SignContract(ctx, fx.owner, cycle.ID, transport.SignContractRequest{Version: cycle.Version, Frequency: "5_weeks"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	signed, err := fx.svc.SignContract(ctx, fx.owner, cycle.ID, transport.SignContractRequest{Version: cycle.Version, Frequency: "2_weeks"})
	require.NoError(t, err)
	assert.Equal(t, "on_test", signed.Status)
	assert.True(t, signed.ContractSigned)
	require.NotNil(t, signed.ContractFrequency)
	assert.Equal(t, "2_weeks", *signed.ContractFrequency)
	assert.Equal(t, "contract_signed", fx.companies.pipeline[*signed.CompanyID])
	assert.Contains(t, fx.rec.Names(), "cycles.contract_signed")

	_, err = fx.svc.SignContract(ctx, fx.owner, cycle.ID, transport.SignContractRequest{Version: signed.Version, Frequency: "2_weeks"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestExtendPushesExpiry(t *testing.T) {
	p := policy.Defaults()
	p.MaxExtensions = 1
	fx := newFixture(p)
	ctx := context.Background()
	cycle := fx.place(t, fx.activate(t))

	extended, err := fx.svc.Extend(ctx, fx.owner, cycle.ID, cycle.Version)
	require.NoError(t, err)
	assert.Equal(t, 1, extended.ExtendedCount)
	assert.Equal(t, "on_test", extended.Status)
	require.NotNil(t, extended.Expiry)
	assert.True(t, extended.Expiry.ExpiresAt.Equal(fixedNow.Add(14*24*time.Hour)))

	_, err = fx.svc.Extend(ctx, fx.owner, cycle.ID, extended.Version)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "cap reached")
}

func TestUpdateNotesSanitizes(t *testing.T) {
	fx := newFixture(policy.Defaults())
	cycle := fx.activate(t)

	resp, err := fx.svc.UpdateNotes(context.Background(), fx.owner, cycle.ID, transport.UpdateNotesRequest{
		Version: cycle.Version,
		Notes:   "<script>x</script>entrance left",
	})
	require.NoError(t, err)
	assert.Equal(t, "xentrance left", resp.Notes)
	assert.Equal(t, "clean", resp.Status)
}

func TestListPinsSalespersonToSelf(t *testing.T) {
	fx := newFixture(policy.Defaults())
	fx.activate(t)
	other := uuid.New()

	resp, err := fx.svc.List(context.Background(), fx.owner, transport.ListCyclesRequest{SalespersonID: other.String()})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	_, err = fx.svc.List(context.Background(), fx.owner, transport.ListCyclesRequest{SalespersonID: "nope"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestGetUnknownCycle(t *testing.T) {
	fx := newFixture(policy.Defaults())
	_, err := fx.svc.Get(context.Background(), fx.owner, uuid.New())
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
}
