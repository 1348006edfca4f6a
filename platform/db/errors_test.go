package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"predpraznik_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"no rows", pgx.ErrNoRows, apperr.KindNotFound},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "qr_codes_code_key"}, apperr.KindConflict},
		{"fk", &pgconn.PgError{Code: "23503"}, apperr.KindValidation},
		{"privilege", &pgconn.PgError{Code: "42501"}, apperr.KindForbidden},
		{"auth", &pgconn.PgError{Code: "28P01"}, apperr.KindForbidden},
		{"serialization", &pgconn.PgError{Code: "40001"}, apperr.KindTransient},
		{"deadline", context.DeadlineExceeded, apperr.KindTransient},
		{"other", errors.New("boom"), apperr.KindInternal},
	}

	for _, tc := range tests {
		got := apperr.GetKind(MapError(tc.err, "op"))
		if got != tc.want {
			t.Errorf("%s: got kind %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestMapErrorKeepsTypedErrors(t *testing.T) {
	original := apperr.Conflict("stale version")
	if got := MapError(original, "op"); got != error(original) {
		t.Fatalf("expected typed error to pass through, got %v", got)
	}
	if MapError(nil, "op") != nil {
		t.Fatal("nil must stay nil")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "cycles_one_open_per_code"})
	if !IsUniqueViolation(err, "cycles_one_open_per_code") {
		t.Fatal("expected named constraint match")
	}
	if !IsUniqueViolation(err, "") {
		t.Fatal("expected wildcard match")
	}
	if IsUniqueViolation(err, "other") {
		t.Fatal("unexpected match on different constraint")
	}
}

func TestRetryOnlyRetriesTransient(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), func(context.Context) error {
		calls++
		return apperr.Forbidden("denied")
	})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("permission errors must not be retried, got %d calls", calls)
	}

	calls = 0
	value, err := RetryValue(context.Background(), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, apperr.Transient("flaky")
		}
		return 42, nil
	})
	if err != nil || value != 42 {
		t.Fatalf("expected 42 after retries, got %d, %v", value, err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}
