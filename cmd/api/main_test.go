package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"predpraznik_backend/platform/logger"
)

func TestWithRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), logger.Nop(), "connect", 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	cause := errors.New("connection refused")
	err := withRetry(context.Background(), logger.Nop(), "connect", 3, time.Millisecond, func() error {
		calls++
		return cause
	})
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if !errors.Is(err, cause) || !strings.HasPrefix(err.Error(), "connect: ") {
		t.Fatalf("expected wrapped cause, got %v", err)
	}

	if err := withRetry(context.Background(), logger.Nop(), "connect", 0, time.Millisecond, func() error { return nil }); err == nil {
		t.Fatal("zero attempts must be rejected")
	}
}
