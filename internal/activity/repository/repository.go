package repository

import (
	"context"
	"time"

	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertEntryQuery = `
	INSERT INTO activity_log (actor_id, action, entity_type, entity_id, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

const feedWhere = `
	WHERE ($1::uuid IS NULL OR a.actor_id = $1)
	AND ($2::text IS NULL OR a.entity_type = $2)
	AND ($3::uuid IS NULL OR a.entity_id = $3)
	AND ($4::timestamptz IS NULL OR a.created_at >= $4)`

const feedQuery = `
	SELECT a.id, a.actor_id, p.full_name, a.action, a.entity_type, a.entity_id, a.metadata, a.created_at
	FROM activity_log a
	LEFT JOIN profiles p ON p.id = a.actor_id` + feedWhere + `
	ORDER BY a.created_at DESC
	LIMIT $5 OFFSET $6`

const summaryQuery = `
	SELECT a.actor_id, COALESCE(p.full_name, ''), a.action, COUNT(*)::int
	FROM activity_log a
	LEFT JOIN profiles p ON p.id = a.actor_id
	WHERE a.actor_id IS NOT NULL
	AND ($1::uuid IS NULL OR a.actor_id = $1)
	AND a.created_at >= $2 AND a.created_at < $3
	GROUP BY a.actor_id, p.full_name, a.action
	ORDER BY p.full_name, a.action`

// Repo implements Repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new activity repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Insert appends one entry. Writes are not retried; the caller only logs.
func (r *Repo) Insert(ctx context.Context, p InsertParams) error {
	metadata := p.Metadata
	if len(metadata) == 0 {
		metadata = []byte(`{}`)
	}
	_, err := r.pool.Exec(ctx, insertEntryQuery, p.ActorID, p.Action, p.EntityType, p.EntityID, metadata, p.CreatedAt)
	return db.MapError(err, "insert activity")
}

// Feed returns a page of entries, newest first, and the total count.
func (r *Repo) Feed(ctx context.Context, p FeedParams) ([]Entry, int, error) {
	args := []any{p.ActorID, p.EntityType, p.EntityID, p.Since}

	var total int
	err := db.Retry(ctx, func(ctx context.Context) error {
		return db.MapError(r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_log a`+feedWhere, args...).Scan(&total), "count activity")
	})
	if err != nil {
		return nil, 0, err
	}

	items, err := db.RetryValue(ctx, func(ctx context.Context) ([]Entry, error) {
		rows, err := r.pool.Query(ctx, feedQuery, append(args, p.Limit, p.Offset)...)
		if err != nil {
			return nil, db.MapError(err, "activity feed")
		}
		out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
			var e Entry
			err := row.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.Action, &e.EntityType, &e.EntityID, &e.Metadata, &e.CreatedAt)
			return e, err
		})
		return out, db.MapError(err, "activity feed")
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Summary counts entries per actor and action in [from, to).
func (r *Repo) Summary(ctx context.Context, actorID *uuid.UUID, from, to time.Time) ([]ActionCount, error) {
	return db.RetryValue(ctx, func(ctx context.Context) ([]ActionCount, error) {
		rows, err := r.pool.Query(ctx, summaryQuery, actorID, from, to)
		if err != nil {
			return nil, db.MapError(err, "activity summary")
		}
		out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ActionCount, error) {
			var c ActionCount
			err := row.Scan(&c.ActorID, &c.ActorName, &c.Action, &c.Count)
			return c, err
		})
		return out, db.MapError(err, "activity summary")
	})
}
