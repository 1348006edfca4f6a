// Package repository reads the aggregates the dashboard is built from.
package repository

import (
	"context"
	"time"

	"predpraznik_backend/internal/dashboard/domain"

	"github.com/google/uuid"
)

// WindowCounts are the conversion inputs over a trailing window.
type WindowCounts struct {
	Created int
	Signed  int
}

// Repository is read-only. A nil salesperson means everyone.
type Repository interface {
	Snapshot(ctx context.Context, salespersonID *uuid.UUID) (domain.Snapshot, error)
	MonthlyCounts(ctx context.Context, salespersonID *uuid.UUID, from time.Time, timezone string) ([]domain.MonthCount, error)
	StatusCounts(ctx context.Context, salespersonID *uuid.UUID) ([]domain.StatusCount, error)
	WindowCounts(ctx context.Context, salespersonID *uuid.UUID, since time.Time) (WindowCounts, error)
	OpenPickups(ctx context.Context, salespersonID *uuid.UUID) (int, error)
}
