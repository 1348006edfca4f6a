package repository

import (
	"context"
	"time"

	"predpraznik_backend/internal/dashboard/domain"
	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const onTestQuery = `
	SELECT c.id, c.salesperson_id, COALESCE(p.full_name, ''), c.test_start_date
	FROM cycles c
	LEFT JOIN profiles p ON p.id = c.salesperson_id
	WHERE c.status = 'on_test' AND c.test_start_date IS NOT NULL
	AND ($1::uuid IS NULL OR c.salesperson_id = $1)`

const openPickupsQuery = `
	SELECT d.id, d.status, d.scheduled_date, COUNT(i.id)::int, d.created_at
	FROM driver_pickups d
	LEFT JOIN pickup_items i ON i.pickup_id = d.id
	WHERE d.status <> 'completed'
	AND ($1::uuid IS NULL OR EXISTS (
		SELECT 1 FROM pickup_items pi JOIN cycles c ON c.id = pi.cycle_id
		WHERE pi.pickup_id = d.id AND c.salesperson_id = $1))
	GROUP BY d.id`

const backlogQuery = `
	SELECT c.salesperson_id, COALESCE(p.full_name, ''),
		COUNT(*) FILTER (WHERE c.status = 'dirty')::int,
		COUNT(*) FILTER (WHERE c.status = 'waiting_driver')::int
	FROM cycles c
	LEFT JOIN profiles p ON p.id = c.salesperson_id
	WHERE c.status IN ('dirty', 'waiting_driver')
	AND ($1::uuid IS NULL OR c.salesperson_id = $1)
	GROUP BY c.salesperson_id, p.full_name`

// monthlyCountsQuery buckets three independent timestamps by local month.
const monthlyCountsQuery = `
	SELECT m, SUM(started)::int, SUM(signed)::int, SUM(completed)::int FROM (
		SELECT to_char(test_start_date AT TIME ZONE $3, 'YYYY-MM') AS m, 1 AS started, 0 AS signed, 0 AS completed
		FROM cycles WHERE test_start_date >= $1 AND ($2::uuid IS NULL OR salesperson_id = $2)
		UNION ALL
		SELECT to_char(contract_signed_at AT TIME ZONE $3, 'YYYY-MM'), 0, 1, 0
		FROM cycles WHERE contract_signed_at >= $1 AND ($2::uuid IS NULL OR salesperson_id = $2)
		UNION ALL
		SELECT to_char(completed_at AT TIME ZONE $3, 'YYYY-MM'), 0, 0, 1
		FROM cycles WHERE completed_at >= $1 AND ($2::uuid IS NULL OR salesperson_id = $2)
	) t
	GROUP BY m`

const statusCountsQuery = `
	SELECT status, COUNT(*)::int FROM cycles
	WHERE ($1::uuid IS NULL OR salesperson_id = $1)
	GROUP BY status`

const windowCountsQuery = `
	SELECT
		COUNT(*) FILTER (WHERE created_at >= $2)::int,
		COUNT(*) FILTER (WHERE contract_signed AND contract_signed_at >= $2)::int
	FROM cycles
	WHERE ($1::uuid IS NULL OR salesperson_id = $1)`

const openPickupCountQuery = `
	SELECT COUNT(*)::int FROM driver_pickups d
	WHERE d.status <> 'completed'
	AND ($1::uuid IS NULL OR EXISTS (
		SELECT 1 FROM pickup_items pi JOIN cycles c ON c.id = pi.cycle_id
		WHERE pi.pickup_id = d.id AND c.salesperson_id = $1))`

// Repo implements Repository on Postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new dashboard repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func (r *Repo) Snapshot(ctx context.Context, salespersonID *uuid.UUID) (domain.Snapshot, error) {
	onTest, err := collect(ctx, r.pool, "on test snapshot", onTestQuery, func(row pgx.CollectableRow) (domain.TestPlacement, error) {
		var t domain.TestPlacement
		err := row.Scan(&t.CycleID, &t.SalespersonID, &t.SalespersonName, &t.TestStartDate)
		return t, err
	}, salespersonID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	pickups, err := collect(ctx, r.pool, "pickup snapshot", openPickupsQuery, func(row pgx.CollectableRow) (domain.PickupState, error) {
		var p domain.PickupState
		err := row.Scan(&p.ID, &p.Status, &p.ScheduledDate, &p.ItemCount, &p.CreatedAt)
		return p, err
	}, salespersonID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	backlogs, err := collect(ctx, r.pool, "backlog snapshot", backlogQuery, func(row pgx.CollectableRow) (domain.Backlog, error) {
		var b domain.Backlog
		err := row.Scan(&b.SalespersonID, &b.SalespersonName, &b.Dirty, &b.WaitingDriver)
		return b, err
	}, salespersonID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.Snapshot{OnTest: onTest, Pickups: pickups, Backlogs: backlogs}, nil
}

func (r *Repo) MonthlyCounts(ctx context.Context, salespersonID *uuid.UUID, from time.Time, timezone string) ([]domain.MonthCount, error) {
	return collect(ctx, r.pool, "monthly counts", monthlyCountsQuery, func(row pgx.CollectableRow) (domain.MonthCount, error) {
		var m domain.MonthCount
		err := row.Scan(&m.Month, &m.TestsStarted, &m.ContractsSigned, &m.CyclesCompleted)
		return m, err
	}, from, salespersonID, timezone)
}

func (r *Repo) StatusCounts(ctx context.Context, salespersonID *uuid.UUID) ([]domain.StatusCount, error) {
	return collect(ctx, r.pool, "status counts", statusCountsQuery, func(row pgx.CollectableRow) (domain.StatusCount, error) {
		var s domain.StatusCount
		err := row.Scan(&s.Status, &s.Count)
		return s, err
	}, salespersonID)
}

func (r *Repo) WindowCounts(ctx context.Context, salespersonID *uuid.UUID, since time.Time) (WindowCounts, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (WindowCounts, error) {
		var w WindowCounts
		err := r.pool.QueryRow(ctx, windowCountsQuery, salespersonID, since).Scan(&w.Created, &w.Signed)
		return w, db.MapError(err, "window counts")
	})
}

func (r *Repo) OpenPickups(ctx context.Context, salespersonID *uuid.UUID) (int, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (int, error) {
		var n int
		err := r.pool.QueryRow(ctx, openPickupCountQuery, salespersonID).Scan(&n)
		return n, db.MapError(err, "open pickups")
	})
}

func collect[T any](ctx context.Context, pool *pgxpool.Pool, op, query string, scan pgx.RowToFunc[T], args ...any) ([]T, error) {
	return db.RetryValue(ctx, func(ctx context.Context) ([]T, error) {
		rows, err := pool.Query(ctx, query, args...)
		if err != nil {
			return nil, db.MapError(err, op)
		}
		out, err := pgx.CollectRows(rows, scan)
		if err != nil {
			return nil, db.MapError(err, op)
		}
		return out, nil
	})
}
