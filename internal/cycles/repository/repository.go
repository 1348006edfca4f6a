package repository

import (
	"context"
	"time"

	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	cycleNotFoundMessage = "cycle not found"
	staleVersionMessage  = "cycle was changed by someone else, reload and retry"

	// OneOpenPerCodeConstraint guards "at most one non-completed cycle per code".
	OneOpenPerCodeConstraint = "cycles_one_open_per_code"
)

const cycleColumns = `
	c.id, c.qr_code_id, q.code, c.salesperson_id, p.full_name, c.mat_type_id, m.code, c.status,
	c.company_id, co.name, c.contact_id, c.test_start_date, c.test_end_date, c.contract_signed,
	c.contract_frequency, c.contract_signed_at, c.latitude, c.longitude, c.notes, c.extended_count,
	c.completed_at, c.version, c.created_at, c.updated_at`

const cycleJoins = `
	JOIN qr_codes q ON q.id = c.qr_code_id
	JOIN mat_types m ON m.id = c.mat_type_id
	LEFT JOIN profiles p ON p.id = c.salesperson_id
	LEFT JOIN companies co ON co.id = c.company_id`

// withUpdated wraps a data-modifying statement that RETURNs the cycle row so
// the caller gets the same joined shape as a read.
func withUpdated(modify string) string {
	return `WITH c AS (` + modify + ` RETURNING *) SELECT ` + cycleColumns + ` FROM c` + cycleJoins
}

const listCyclesWhere = `
	WHERE ($1::text IS NULL OR c.status = $1)
	AND ($2::uuid IS NULL OR c.salesperson_id = $2)
	AND ($3::uuid IS NULL OR c.company_id = $3)
	AND ($4::text IS NULL OR q.code ILIKE $4)
	AND (NOT $5::boolean OR c.status <> 'completed')
	AND ($6::timestamptz IS NULL OR (c.status = 'on_test'
		AND c.test_start_date + make_interval(days => $7::int + $8::int * c.extended_count) < $6))`

var (
	insertCycleQuery = withUpdated(`
		INSERT INTO cycles (qr_code_id, salesperson_id, mat_type_id, status)
		VALUES ($1, $2, $3, 'clean')`)

	placeOnTestQuery = withUpdated(`
		UPDATE cycles SET
			status = 'on_test', company_id = $3, contact_id = $4,
			latitude = $5, longitude = $6, test_start_date = $7,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND status = 'clean'`)

	setStatusQuery = withUpdated(`
		UPDATE cycles SET status = $4, version = version + 1, updated_at = now(),
			test_end_date = CASE WHEN status = 'on_test' THEN now() ELSE test_end_date END
		WHERE id = $1 AND version = $2 AND status = $3`)

	signContractQuery = withUpdated(`
		UPDATE cycles SET contract_signed = true, contract_frequency = $3, contract_signed_at = $4,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND status = 'on_test' AND NOT contract_signed`)

	extendQuery = withUpdated(`
		UPDATE cycles SET extended_count = extended_count + 1, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND status = 'on_test'`)

	updateNotesQuery = withUpdated(`
		UPDATE cycles SET notes = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2`)

	updateLocationQuery = withUpdated(`
		UPDATE cycles SET latitude = $3, longitude = $4, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2`)
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new cycles repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanCycle(row pgx.Row) (Cycle, error) {
	var c Cycle
	err := row.Scan(
		&c.ID, &c.QRCodeID, &c.Code, &c.SalespersonID, &c.SalespersonName, &c.MatTypeID, &c.MatTypeCode, &c.Status,
		&c.CompanyID, &c.CompanyName, &c.ContactID, &c.TestStartDate, &c.TestEndDate, &c.ContractSigned,
		&c.ContractFrequency, &c.ContractSignedAt, &c.Latitude, &c.Longitude, &c.Notes, &c.ExtendedCount,
		&c.CompletedAt, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// casResult turns "no row matched" on a versioned update into a Conflict.
func casResult(c Cycle, err error, op string) (Cycle, error) {
	if err == nil {
		return c, nil
	}
	if db.IsNoRows(err) {
		return Cycle{}, apperr.Conflict(staleVersionMessage).WithOp(op)
	}
	return Cycle{}, db.MapError(err, op)
}

// WithTx runs fn in one transaction.
func (r *Repo) WithTx(ctx context.Context, fn func(q db.Querier) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error { return fn(tx) })
}

// GetByID loads one cycle.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Cycle, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (Cycle, error) {
		c, err := scanCycle(r.pool.QueryRow(ctx, `SELECT `+cycleColumns+` FROM cycles c`+cycleJoins+` WHERE c.id = $1`, id))
		if err != nil {
			if db.IsNoRows(err) {
				return Cycle{}, apperr.NotFound(cycleNotFoundMessage)
			}
			return Cycle{}, db.MapError(err, "get cycle")
		}
		return c, nil
	})
}

// List returns a page of cycles and the total matching count.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Cycle, int, error) {
	var code *string
	if params.Code != nil {
		pattern := "%" + *params.Code + "%"
		code = &pattern
	}
	args := []any{
		params.Status, params.SalespersonID, params.CompanyID, code, params.OpenOnly,
		params.ExpiringBefore, params.TrialDays, params.ExtensionDays,
	}

	var total int
	err := db.Retry(ctx, func(ctx context.Context) error {
		return db.MapError(r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cycles c`+cycleJoins+listCyclesWhere, args...).Scan(&total), "count cycles")
	})
	if err != nil {
		return nil, 0, err
	}

	items, err := db.RetryValue(ctx, func(ctx context.Context) ([]Cycle, error) {
		rows, err := r.pool.Query(ctx, `SELECT `+cycleColumns+` FROM cycles c`+cycleJoins+listCyclesWhere+`
			ORDER BY c.updated_at DESC LIMIT $9 OFFSET $10`, append(args, params.Limit, params.Offset)...)
		if err != nil {
			return nil, db.MapError(err, "list cycles")
		}
		defer rows.Close()

		out := make([]Cycle, 0)
		for rows.Next() {
			c, err := scanCycle(rows)
			if err != nil {
				return nil, db.MapError(err, "scan cycle")
			}
			out = append(out, c)
		}
		return out, db.MapError(rows.Err(), "list cycles")
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// History returns the activity log for a cycle, oldest first.
func (r *Repo) History(ctx context.Context, cycleID uuid.UUID) ([]HistoryEntry, error) {
	return db.RetryValue(ctx, func(ctx context.Context) ([]HistoryEntry, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT a.id, a.actor_id, p.full_name, a.action, a.metadata, a.created_at
			FROM activity_log a
			LEFT JOIN profiles p ON p.id = a.actor_id
			WHERE a.entity_type = 'cycle' AND a.entity_id = $1
			ORDER BY a.created_at ASC`, cycleID)
		if err != nil {
			return nil, db.MapError(err, "cycle history")
		}
		defer rows.Close()

		out := make([]HistoryEntry, 0)
		for rows.Next() {
			var h HistoryEntry
			if err := rows.Scan(&h.ID, &h.ActorID, &h.ActorName, &h.Action, &h.Metadata, &h.CreatedAt); err != nil {
				return nil, db.MapError(err, "scan history")
			}
			out = append(out, h)
		}
		return out, db.MapError(rows.Err(), "cycle history")
	})
}

// LookupCode resolves a scanned code.
func (r *Repo) LookupCode(ctx context.Context, code string) (CodeRef, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (CodeRef, error) {
		var ref CodeRef
		err := r.pool.QueryRow(ctx, `SELECT id, code, owner_id FROM qr_codes WHERE code = $1`, code).
			Scan(&ref.ID, &ref.Code, &ref.OwnerID)
		if err != nil {
			if db.IsNoRows(err) {
				return CodeRef{}, apperr.NotFound("code not found")
			}
			return CodeRef{}, db.MapError(err, "lookup code")
		}
		return ref, nil
	})
}

// ListMatTypes returns every mat size.
func (r *Repo) ListMatTypes(ctx context.Context) ([]MatType, error) {
	return db.RetryValue(ctx, func(ctx context.Context) ([]MatType, error) {
		rows, err := r.pool.Query(ctx, `SELECT id, code, name, width_cm, height_cm FROM mat_types ORDER BY code`)
		if err != nil {
			return nil, db.MapError(err, "list mat types")
		}
		defer rows.Close()

		out := make([]MatType, 0)
		for rows.Next() {
			var m MatType
			if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.WidthCm, &m.HeightCm); err != nil {
				return nil, db.MapError(err, "scan mat type")
			}
			out = append(out, m)
		}
		return out, db.MapError(rows.Err(), "list mat types")
	})
}

// MatTypeExists checks a mat type id.
func (r *Repo) MatTypeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (bool, error) {
		var exists bool
		err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM mat_types WHERE id = $1)`, id).Scan(&exists)
		return exists, db.MapError(err, "mat type exists")
	})
}

// Create inserts a clean cycle. The partial unique index rejects a second
// open cycle on the same code.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Cycle, error) {
	c, err := scanCycle(r.pool.QueryRow(ctx, insertCycleQuery, params.QRCodeID, params.SalespersonID, params.MatTypeID))
	if err != nil {
		if db.IsUniqueViolation(err, OneOpenPerCodeConstraint) {
			return Cycle{}, apperr.Conflict("code already has an open cycle")
		}
		return Cycle{}, db.MapError(err, "create cycle")
	}
	return c, nil
}

// PlaceOnTestInTx moves a clean cycle on test.
func (r *Repo) PlaceOnTestInTx(ctx context.Context, q db.Querier, p PlaceParams) (Cycle, error) {
	c, err := scanCycle(q.QueryRow(ctx, placeOnTestQuery, p.ID, p.Version, p.CompanyID, p.ContactID, p.Latitude, p.Longitude, p.StartedAt))
	return casResult(c, err, "place on test")
}

// SetStatus performs a plain status transition.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, version int, from, to string) (Cycle, error) {
	c, err := scanCycle(r.pool.QueryRow(ctx, setStatusQuery, id, version, from, to))
	return casResult(c, err, "set cycle status")
}

// SignContractInTx records a signed contract without changing status.
func (r *Repo) SignContractInTx(ctx context.Context, q db.Querier, id uuid.UUID, version int, frequency string, at time.Time) (Cycle, error) {
	c, err := scanCycle(q.QueryRow(ctx, signContractQuery, id, version, frequency, at))
	return casResult(c, err, "sign contract")
}

// Extend grants one more trial extension.
func (r *Repo) Extend(ctx context.Context, id uuid.UUID, version int) (Cycle, error) {
	c, err := scanCycle(r.pool.QueryRow(ctx, extendQuery, id, version))
	return casResult(c, err, "extend cycle")
}

// UpdateNotes replaces the free-text notes.
func (r *Repo) UpdateNotes(ctx context.Context, id uuid.UUID, version int, notes string) (Cycle, error) {
	c, err := scanCycle(r.pool.QueryRow(ctx, updateNotesQuery, id, version, notes))
	return casResult(c, err, "update cycle notes")
}

// UpdateLocation replaces the coordinates. Nil clears them.
func (r *Repo) UpdateLocation(ctx context.Context, id uuid.UUID, version int, lat, lng *float64) (Cycle, error) {
	c, err := scanCycle(r.pool.QueryRow(ctx, updateLocationQuery, id, version, lat, lng))
	return casResult(c, err, "update cycle location")
}
