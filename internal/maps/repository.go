package maps

import (
	"context"

	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cyclePointsQuery = `
	SELECT c.id, q.code, c.status, c.salesperson_id, p.full_name, co.name, c.test_start_date, c.latitude, c.longitude
	FROM cycles c
	JOIN qr_codes q ON q.id = c.qr_code_id
	LEFT JOIN profiles p ON p.id = c.salesperson_id
	LEFT JOIN companies co ON co.id = c.company_id
	WHERE c.latitude IS NOT NULL AND c.longitude IS NOT NULL
	AND c.status IN ('on_test', 'dirty', 'waiting_driver')
	AND ($1::uuid IS NULL OR c.salesperson_id = $1)
	AND ($2::text IS NULL OR c.status = $2)
	ORDER BY c.test_start_date NULLS LAST, c.id`

// PointReader lists located cycles.
type PointReader interface {
	CyclePoints(ctx context.Context, salespersonID *uuid.UUID, status *string) ([]CyclePoint, error)
}

// Repository reads map points from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a map point reader.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ PointReader = (*Repository)(nil)

// CyclePoints returns open cycles placed at a known location.
func (r *Repository) CyclePoints(ctx context.Context, salespersonID *uuid.UUID, status *string) ([]CyclePoint, error) {
	return db.RetryValue(ctx, func(ctx context.Context) ([]CyclePoint, error) {
		rows, err := r.pool.Query(ctx, cyclePointsQuery, salespersonID, status)
		if err != nil {
			return nil, db.MapError(err, "map points")
		}
		out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (CyclePoint, error) {
			var p CyclePoint
			err := row.Scan(&p.CycleID, &p.Code, &p.Status, &p.SalespersonID, &p.SalespersonName,
				&p.CompanyName, &p.TestStartDate, &p.Lat, &p.Lng)
			return p, err
		})
		return out, db.MapError(err, "map points")
	})
}
