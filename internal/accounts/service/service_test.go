package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/accounts/client"
	"predpraznik_backend/internal/accounts/repository"
	"predpraznik_backend/internal/accounts/transport"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "service-role-token"

type fakeProfiles struct {
	profiles map[uuid.UUID]repository.Profile
	prefixes map[string]bool
	emails   map[string]bool
}

var _ repository.Repository = (*fakeProfiles)(nil)

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		profiles: map[uuid.UUID]repository.Profile{},
		prefixes: map[string]bool{"GEO": true},
		emails:   map[string]bool{"ana@example.si": true},
	}
}

func (f *fakeProfiles) List(context.Context) ([]repository.Profile, error) {
	out := make([]repository.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id uuid.UUID) (repository.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return repository.Profile{}, apperr.NotFound("user not found")
	}
	return p, nil
}

func (f *fakeProfiles) PrefixTaken(_ context.Context, prefix string) (bool, error) {
	return f.prefixes[prefix], nil
}

func (f *fakeProfiles) EmailTaken(_ context.Context, email string) (bool, error) {
	return f.emails[email], nil
}

type upstream struct {
	hits   atomic.Int32
	status int
	body   string
	last   map[string]string
	path   string
	auth   string
}

func (u *upstream) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.path = r.URL.Path
		u.auth = r.Header.Get("Authorization")
		u.last = map[string]string{}
		_ = json.NewDecoder(r.Body).Decode(&u.last)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(u.status)
		_, _ = w.Write([]byte(u.body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var admin = access.Actor{UserID: uuid.New(), Role: access.RoleAdmin}

func newService(t *testing.T, repo repository.Repository, up *upstream) *Service {
	srv := up.start(t)
	return New(repo, client.New(srv.URL+"/", adminToken, logger.Nop()), logger.Nop())
}

func TestCreateSalesperson(t *testing.T) {
	newID := uuid.NewString()
	up := &upstream{status: http.StatusOK, body: `{"success":true,"userId":"` + newID + `"}`}
	svc := newService(t, newFakeProfiles(), up)

	got, err := svc.CreateUser(context.Background(), admin, transport.CreateUserRequest{
		Email: " Bor@Example.si ", FullName: "Bor Novak", Role: "salesperson", CodePrefix: "bor",
	})

	require.NoError(t, err)
	assert.Equal(t, newID, got.UserID)
	assert.Len(t, got.Password, passwordLength)
	assert.Equal(t, "/create-user", up.path)
	assert.Equal(t, "Bearer "+adminToken, up.auth)
	assert.Equal(t, map[string]string{
		"email":      "bor@example.si",
		"password":   got.Password,
		"role":       "salesperson",
		"codePrefix": "BOR",
		"fullName":   "Bor Novak",
	}, up.last)
}

func TestCreateUserChecksBeforeCallingUpstream(t *testing.T) {
	up := &upstream{status: http.StatusOK, body: `{"success":true,"userId":"x"}`}
	svc := newService(t, newFakeProfiles(), up)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, admin, transport.CreateUserRequest{Email: "new@example.si", FullName: "Nova", Role: "salesperson", CodePrefix: "geo"})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "prefix taken")

	_, err = svc.CreateUser(ctx, admin, transport.CreateUserRequest{Email: "new@example.si", FullName: "Nova", Role: "salesperson"})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "prefix required")

	_, err = svc.CreateUser(ctx, admin, transport.CreateUserRequest{Email: "ANA@example.si", FullName: "Ana", Role: "inventory"})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "email taken")

	_, err = svc.CreateUser(ctx, access.Actor{Role: access.RoleInventory}, transport.CreateUserRequest{Email: "x@example.si", FullName: "X", Role: "admin"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	assert.Zero(t, up.hits.Load())
}

func TestUpstreamAuthFailureIsNotRetried(t *testing.T) {
	up := &upstream{status: http.StatusUnauthorized, body: `{"success":false,"error":"invalid token"}`}
	svc := newService(t, newFakeProfiles(), up)

	_, err := svc.CreateUser(context.Background(), admin, transport.CreateUserRequest{Email: "x@example.si", FullName: "Xa", Role: "inventory"})

	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.False(t, apperr.IsRecoverable(err))
	assert.Equal(t, int32(1), up.hits.Load())
}

func TestUpstreamServerErrorIsRetriedThenTransient(t *testing.T) {
	up := &upstream{status: http.StatusBadGateway, body: `{}`}
	svc := newService(t, newFakeProfiles(), up)

	_, err := svc.CreateUser(context.Background(), admin, transport.CreateUserRequest{Email: "x@example.si", FullName: "Xa", Role: "inventory"})

	assert.True(t, apperr.Is(err, apperr.KindTransient))
	assert.True(t, apperr.IsRecoverable(err))
	assert.Equal(t, int32(4), up.hits.Load())
}

func TestUpstreamRejectionCarriesMessage(t *testing.T) {
	up := &upstream{status: http.StatusConflict, body: `{"success":false,"error":"User already registered"}`}
	svc := newService(t, newFakeProfiles(), up)

	_, err := svc.CreateUser(context.Background(), admin, transport.CreateUserRequest{Email: "x@example.si", FullName: "Xa", Role: "inventory"})

	require.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Contains(t, err.Error(), "User already registered")

	up.status, up.body = http.StatusOK, `{"success":false,"error":"weak password"}`
	_, err = svc.CreateUser(context.Background(), admin, transport.CreateUserRequest{Email: "y@example.si", FullName: "Ya", Role: "inventory"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestResetPasswordAndDelete(t *testing.T) {
	repo := newFakeProfiles()
	user := repository.Profile{ID: uuid.New(), Email: "ana@example.si", Role: "salesperson"}
	repo.profiles[user.ID] = user
	up := &upstream{status: http.StatusOK, body: `{"success":true}`}
	svc := newService(t, repo, up)
	ctx := context.Background()

	creds, err := svc.ResetPassword(ctx, admin, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "/reset-password", up.path)
	assert.Equal(t, user.ID.String(), up.last["userId"])
	assert.Equal(t, creds.Password, up.last["password"])
	assert.Equal(t, "ana@example.si", creds.Email)

	require.NoError(t, svc.DeleteUser(ctx, admin, user.ID))
	assert.Equal(t, "/delete-user", up.path)

	err = svc.DeleteUser(ctx, admin, admin.UserID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	err = svc.DeleteUser(ctx, admin, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestWritesNeedConfiguredAdminFunctions(t *testing.T) {
	svc := New(newFakeProfiles(), nil, logger.Nop())

	_, err := svc.ResetPassword(context.Background(), admin, uuid.New())

	assert.True(t, apperr.Is(err, apperr.KindInternal))
}
