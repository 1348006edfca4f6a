package repository

import (
	"context"
	"fmt"

	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	codeNotFoundMessage = "code not found"

	// UniqueCodeConstraint is the name postgres gives qr_codes.code UNIQUE.
	UniqueCodeConstraint = "qr_codes_code_key"
)

const selectCodes = `
	SELECT q.id, q.code, q.prefix, q.owner_id, p.full_name, c.id, c.status, q.created_at
	FROM qr_codes q
	LEFT JOIN profiles p ON p.id = q.owner_id
	LEFT JOIN cycles c ON c.qr_code_id = q.id AND c.status <> 'completed'`

// statusPredicate mirrors domain.DeriveStatus in SQL.
const statusPredicate = `
	AND ($4::text IS NULL
		OR ($4 = 'available' AND c.id IS NULL)
		OR ($4 = 'pending' AND c.status = 'clean')
		OR ($4 = 'active' AND c.status IN ('on_test', 'dirty', 'waiting_driver')))`

const listCodesQuery = selectCodes + `
	WHERE ($1::uuid IS NULL OR q.owner_id = $1)
	AND ($2::text IS NULL OR q.prefix = $2)
	AND ($3::text IS NULL OR q.code ILIKE $3)` + statusPredicate + `
	ORDER BY q.code ASC
	LIMIT $5 OFFSET $6`

const countCodesQuery = `
	SELECT COUNT(*)
	FROM qr_codes q
	LEFT JOIN cycles c ON c.qr_code_id = q.id AND c.status <> 'completed'
	WHERE ($1::uuid IS NULL OR q.owner_id = $1)
	AND ($2::text IS NULL OR q.prefix = $2)
	AND ($3::text IS NULL OR q.code ILIKE $3)` + statusPredicate

const insertBatchQuery = `
	INSERT INTO qr_codes (code, prefix, owner_id)
	SELECT unnest($1::text[]), $2, $3
	RETURNING id, code, prefix, owner_id, created_at`

// deleteCodeQuery only removes codes that never carried a cycle.
const deleteCodeQuery = `
	DELETE FROM qr_codes q
	WHERE q.code = $1
	AND NOT EXISTS (SELECT 1 FROM cycles c WHERE c.qr_code_id = q.id)`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new codes repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanCode(row pgx.Row) (QRCode, error) {
	var q QRCode
	err := row.Scan(&q.ID, &q.Code, &q.Prefix, &q.OwnerID, &q.OwnerName, &q.OpenCycleID, &q.OpenCycleStatus, &q.CreatedAt)
	return q, err
}

// GetByCode loads one code with its open cycle.
func (r *Repo) GetByCode(ctx context.Context, code string) (QRCode, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (QRCode, error) {
		q, err := scanCode(r.pool.QueryRow(ctx, selectCodes+` WHERE q.code = $1`, code))
		if err != nil {
			if db.IsNoRows(err) {
				return QRCode{}, apperr.NotFound(codeNotFoundMessage)
			}
			return QRCode{}, db.MapError(err, "get code")
		}
		return q, nil
	})
}

// List returns a page of codes and the total count.
func (r *Repo) List(ctx context.Context, params ListParams) ([]QRCode, int, error) {
	var prefix, search, status interface{}
	if params.Prefix != "" {
		prefix = params.Prefix
	}
	if params.Search != "" {
		search = "%" + params.Search + "%"
	}
	if params.Status != "" {
		status = params.Status
	}

	var total int
	err := db.Retry(ctx, func(ctx context.Context) error {
		err := r.pool.QueryRow(ctx, countCodesQuery, params.OwnerID, prefix, search, status).Scan(&total)
		return db.MapError(err, "count codes")
	})
	if err != nil {
		return nil, 0, err
	}

	items, err := db.RetryValue(ctx, func(ctx context.Context) ([]QRCode, error) {
		rows, err := r.pool.Query(ctx, listCodesQuery, params.OwnerID, prefix, search, status, params.Limit, params.Offset)
		if err != nil {
			return nil, db.MapError(err, "list codes")
		}
		defer rows.Close()

		out := make([]QRCode, 0)
		for rows.Next() {
			q, err := scanCode(rows)
			if err != nil {
				return nil, db.MapError(err, "scan code")
			}
			out = append(out, q)
		}
		return out, db.MapError(rows.Err(), "iterate codes")
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ExistingForPrefix returns every code already issued under prefix.
func (r *Repo) ExistingForPrefix(ctx context.Context, prefix string) (map[string]struct{}, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (map[string]struct{}, error) {
		rows, err := r.pool.Query(ctx, `SELECT code FROM qr_codes WHERE prefix = $1`, prefix)
		if err != nil {
			return nil, db.MapError(err, "load existing codes")
		}
		defer rows.Close()

		existing := make(map[string]struct{})
		for rows.Next() {
			var code string
			if err := rows.Scan(&code); err != nil {
				return nil, db.MapError(err, "scan existing code")
			}
			existing[code] = struct{}{}
		}
		return existing, db.MapError(rows.Err(), "iterate existing codes")
	})
}

// InsertBatch inserts all codes in one statement; a concurrent batch that took
// one of them fails the whole insert with a unique violation.
func (r *Repo) InsertBatch(ctx context.Context, prefix string, codes []string, ownerID *uuid.UUID) ([]QRCode, error) {
	rows, err := r.pool.Query(ctx, insertBatchQuery, codes, prefix, ownerID)
	if err != nil {
		return nil, db.MapError(err, "insert codes")
	}
	defer rows.Close()

	out := make([]QRCode, 0, len(codes))
	for rows.Next() {
		var q QRCode
		if err := rows.Scan(&q.ID, &q.Code, &q.Prefix, &q.OwnerID, &q.CreatedAt); err != nil {
			return nil, db.MapError(err, "scan inserted code")
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "insert codes")
	}
	return out, nil
}

// SetOwner assigns or clears the owning salesperson.
func (r *Repo) SetOwner(ctx context.Context, code string, ownerID *uuid.UUID) (QRCode, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE qr_codes SET owner_id = $2, updated_at = now() WHERE code = $1`, code, ownerID)
	if err != nil {
		return QRCode{}, db.MapError(err, "set code owner")
	}
	if tag.RowsAffected() == 0 {
		return QRCode{}, apperr.NotFound(codeNotFoundMessage)
	}
	return r.GetByCode(ctx, code)
}

// Delete removes a code without cycle history.
func (r *Repo) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, deleteCodeQuery, code)
	if err != nil {
		return db.MapError(err, "delete code")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var hasCycles bool
	err = r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM cycles c JOIN qr_codes q ON q.id = c.qr_code_id WHERE q.code = $1)`, code).Scan(&hasCycles)
	if err != nil {
		return db.MapError(err, "check code cycles")
	}
	if hasCycles {
		return apperr.Conflict(fmt.Sprintf("code %s has cycle history and cannot be deleted", code))
	}
	return apperr.NotFound(codeNotFoundMessage)
}
