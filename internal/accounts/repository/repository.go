package repository

import (
	"context"

	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, email, full_name, role, code_prefix, is_active, created_at`

// Repo implements Repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new profiles repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.CodePrefix, &p.IsActive, &p.CreatedAt)
	return p, err
}

func (r *Repo) List(ctx context.Context) ([]Profile, error) {
	return db.RetryValue(ctx, func(ctx context.Context) ([]Profile, error) {
		rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY role, full_name, email`)
		if err != nil {
			return nil, db.MapError(err, "list profiles")
		}
		out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Profile, error) {
			return scanProfile(row)
		})
		return out, db.MapError(err, "list profiles")
	})
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (Profile, error) {
		p, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
		if err != nil {
			if db.IsNoRows(err) {
				return Profile{}, apperr.NotFound("user not found")
			}
			return Profile{}, db.MapError(err, "get profile")
		}
		return p, nil
	})
}

func (r *Repo) PrefixTaken(ctx context.Context, prefix string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE code_prefix = $1)`, prefix, "check prefix")
}

func (r *Repo) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE lower(email) = lower($1))`, email, "check email")
}

func (r *Repo) exists(ctx context.Context, query, arg, op string) (bool, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (bool, error) {
		var ok bool
		err := r.pool.QueryRow(ctx, query, arg).Scan(&ok)
		return ok, db.MapError(err, op)
	})
}
