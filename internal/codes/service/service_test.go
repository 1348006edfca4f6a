package service

import (
	"bytes"
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/codes/repository"
	"predpraznik_backend/internal/codes/transport"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/events/eventstest"
	"predpraznik_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	codes     map[string]repository.QRCode
	insertErr error
	listed    repository.ListParams
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{codes: map[string]repository.QRCode{}}
}

func (f *fakeRepo) GetByCode(_ context.Context, code string) (repository.QRCode, error) {
	q, ok := f.codes[code]
	if !ok {
		return repository.QRCode{}, apperr.NotFound("code not found")
	}
	return q, nil
}

func (f *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.QRCode, int, error) {
	f.listed = params
	out := make([]repository.QRCode, 0)
	for _, q := range f.codes {
		if params.OwnerID != nil && (q.OwnerID == nil || *q.OwnerID != *params.OwnerID) {
			continue
		}
		out = append(out, q)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ExistingForPrefix(_ context.Context, prefix string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for code := range f.codes {
		if strings.HasPrefix(code, prefix+"-") {
			out[code] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertBatch(_ context.Context, prefix string, codes []string, ownerID *uuid.UUID) ([]repository.QRCode, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	out := make([]repository.QRCode, 0, len(codes))
	for _, code := range codes {
		q := repository.QRCode{ID: uuid.New(), Code: code, Prefix: prefix, OwnerID: ownerID}
		f.codes[code] = q
		out = append(out, q)
	}
	return out, nil
}

func (f *fakeRepo) SetOwner(_ context.Context, code string, ownerID *uuid.UUID) (repository.QRCode, error) {
	q, ok := f.codes[code]
	if !ok {
		return repository.QRCode{}, apperr.NotFound("code not found")
	}
	q.OwnerID = ownerID
	f.codes[code] = q
	return q, nil
}

func (f *fakeRepo) Delete(_ context.Context, code string) error {
	if _, ok := f.codes[code]; !ok {
		return apperr.NotFound("code not found")
	}
	delete(f.codes, code)
	return nil
}

func newService(repo *fakeRepo) (*Service, *eventstest.Recorder) {
	bus := &eventstest.Recorder{}
	return New(repo, bus, logger.Nop()).WithSource(rand.New(rand.NewPCG(3, 4))), bus
}

func TestGenerateBatchSalespersonOwnsOwnPrefix(t *testing.T) {
	repo := newFakeRepo()
	svc, bus := newService(repo)
	sales := access.Actor{UserID: uuid.New(), Role: access.RoleSalesperson, CodePrefix: "GEO"}

	other := uuid.New()
	resp, err := svc.GenerateBatch(context.Background(), sales, transport.GenerateBatchRequest{Prefix: "geo", Count: 10, OwnerID: &other})
	require.NoError(t, err)
	require.Len(t, resp.Codes, 10)
	assert.Equal(t, "GEO", resp.Prefix)
	for _, c := range resp.Codes {
		require.NotNil(t, c.OwnerID)
		assert.Equal(t, sales.UserID, *c.OwnerID, "salesperson cannot hand codes to someone else")
		assert.Equal(t, "available", c.Status)
	}
	assert.Equal(t, []string{"codes.generated"}, bus.Names())
}

func TestGenerateBatchSkipsExistingCodes(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newService(repo)
	admin := access.Actor{UserID: uuid.New(), Role: access.RoleAdmin}

	first, err := svc.GenerateBatch(context.Background(), admin, transport.GenerateBatchRequest{Prefix: "ABC", Count: 200})
	require.NoError(t, err)
	second, err := svc.GenerateBatch(context.Background(), admin, transport.GenerateBatchRequest{Prefix: "ABC", Count: 200})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, c := range append(first.Codes, second.Codes...) {
		require.False(t, seen[c.Code], "duplicate %s", c.Code)
		seen[c.Code] = true
	}
	assert.Len(t, repo.codes, 400)
}

func TestGenerateBatchForeignPrefixForbidden(t *testing.T) {
	svc, bus := newService(newFakeRepo())
	sales := access.Actor{UserID: uuid.New(), Role: access.RoleSalesperson, CodePrefix: "GEO"}

	_, err := svc.GenerateBatch(context.Background(), sales, transport.GenerateBatchRequest{Prefix: "XYZ", Count: 1})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Empty(t, bus.Names())
}

func TestGenerateBatchConcurrentInsertIsConflict(t *testing.T) {
	repo := newFakeRepo()
	repo.insertErr = &pgconn.PgError{Code: "23505", ConstraintName: repository.UniqueCodeConstraint}
	svc, _ := newService(repo)

	_, err := svc.GenerateBatch(context.Background(), access.Actor{Role: access.RoleInventory}, transport.GenerateBatchRequest{Prefix: "GEO", Count: 5})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.True(t, apperr.IsRecoverable(err))
}

func TestListScopesSalesperson(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newService(repo)
	me := uuid.New()
	other := uuid.New()

	_, err := svc.List(context.Background(), access.Actor{UserID: me, Role: access.RoleSalesperson}, transport.ListCodesRequest{OwnerID: other.String()})
	require.NoError(t, err)
	require.NotNil(t, repo.listed.OwnerID)
	assert.Equal(t, me, *repo.listed.OwnerID)
	assert.Equal(t, defaultPageSize, repo.listed.Limit)
}

func TestAssignOwnerRefusedWithOpenCycle(t *testing.T) {
	repo := newFakeRepo()
	cycleID := uuid.New()
	status := "on_test"
	repo.codes["GEO-4K7M"] = repository.QRCode{Code: "GEO-4K7M", OpenCycleID: &cycleID, OpenCycleStatus: &status}
	repo.codes["GEO-2345"] = repository.QRCode{Code: "GEO-2345"}
	svc, _ := newService(repo)
	inventory := access.Actor{UserID: uuid.New(), Role: access.RoleInventory}
	owner := uuid.New()

	_, err := svc.AssignOwner(context.Background(), inventory, "GEO-4K7M", &owner)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	resp, err := svc.AssignOwner(context.Background(), inventory, "geo-2345", &owner)
	require.NoError(t, err)
	assert.Equal(t, owner, *resp.OwnerID)
}

func TestLookupDerivesStatusAndChecksOwnership(t *testing.T) {
	repo := newFakeRepo()
	owner := uuid.New()
	status := "clean"
	repo.codes["GEO-4K7M"] = repository.QRCode{Code: "GEO-4K7M", OwnerID: &owner, OpenCycleStatus: &status}
	svc, _ := newService(repo)

	resp, err := svc.Lookup(context.Background(), access.Actor{UserID: owner, Role: access.RoleSalesperson}, "GEO-4K7M")
	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)

	_, err = svc.Lookup(context.Background(), access.Actor{UserID: uuid.New(), Role: access.RoleSalesperson}, "GEO-4K7M")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestDeleteRequiresAdmin(t *testing.T) {
	repo := newFakeRepo()
	repo.codes["GEO-4K7M"] = repository.QRCode{Code: "GEO-4K7M"}
	svc, _ := newService(repo)

	err := svc.Delete(context.Background(), access.Actor{Role: access.RoleInventory}, "GEO-4K7M")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	require.NoError(t, svc.Delete(context.Background(), access.Actor{Role: access.RoleAdmin}, "GEO-4K7M"))
	assert.Empty(t, repo.codes)
}

func TestRenderQRProducesPNG(t *testing.T) {
	svc, _ := newService(newFakeRepo())
	png, err := svc.RenderQR("GEO-4K7M")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = svc.RenderQR("not a code")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
