package httpkit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"predpraznik_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testJWTConfig struct{ secret string }

func (c testJWTConfig) GetJWTAccessSecret() string { return c.secret }

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newAuthEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(AuthRequired(testJWTConfig{secret: testSecret}))
	engine.GET("/me", func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		OK(c, gin.H{"id": id.UserID().String(), "role": id.Role(), "prefix": id.CodePrefix()})
	})
	return engine
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"sub":         userID.String(),
		"role":        "salesperson",
		"code_prefix": "geo",
		"exp":         time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAuthEngine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["id"] != userID.String() || body["role"] != "salesperson" || body["prefix"] != "GEO" {
		t.Fatalf("unexpected identity %v", body)
	}
}

func TestAuthRequiredRejects(t *testing.T) {
	expired := signToken(t, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "admin",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	noRole := signToken(t, jwt.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noExp := signToken(t, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "admin",
	})

	cases := map[string]string{
		"missing":  "",
		"garbage":  "Bearer not-a-token",
		"expired":  "Bearer " + expired,
		"no role":  "Bearer " + noRole,
		"no exp":   "Bearer " + noExp,
		"wrong sc": "Basic abc",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		newAuthEngine().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}

func TestHandleErrorRendersKindAndRecoverable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err         error
		status      int
		kind        string
		recoverable bool
	}{
		{apperr.NotFound("cycle not found"), http.StatusNotFound, "not_found", true},
		{fmt.Errorf("wrapped: %w", apperr.Forbidden("nope")), http.StatusForbidden, "forbidden", false},
		{apperr.Transient("db down"), http.StatusServiceUnavailable, "transient", true},
		{apperr.Shortfall("short").WithDetails(map[string]int{"requested": 5, "generated": 3}), http.StatusConflict, "shortfall", true},
		{fmt.Errorf("raw failure"), http.StatusInternalServerError, "internal", false},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		if !HandleError(c, tc.err) {
			t.Fatalf("expected %v to be handled", tc.err)
		}
		if rec.Code != tc.status {
			t.Errorf("%v: expected status %d, got %d", tc.err, tc.status, rec.Code)
		}
		var body ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Kind != tc.kind || body.Recoverable != tc.recoverable {
			t.Errorf("%v: got kind=%s recoverable=%v", tc.err, body.Kind, body.Recoverable)
		}
	}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	if HandleError(c, nil) {
		t.Fatal("nil error must not be handled")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Fatalf("expected generated uuid, got %q", rec.Header().Get(RequestIDHeader))
	}
}
