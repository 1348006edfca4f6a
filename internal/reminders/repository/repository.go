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

const reminderNotFoundMessage = "reminder not found"

const reminderColumns = `
	r.id, r.user_id, r.company_id, co.name, r.reminder_at, r.note, r.reminder_type,
	r.is_completed, r.completed_at, r.created_at, r.updated_at`

// withCompany wraps a modifying statement so the returned row carries the
// company name like every read does.
func withCompany(modify string) string {
	return `WITH r AS (` + modify + ` RETURNING *)
	SELECT ` + reminderColumns + ` FROM r LEFT JOIN companies co ON co.id = r.company_id`
}

var (
	insertReminderQuery = withCompany(`
		INSERT INTO reminders (user_id, company_id, reminder_at, note, reminder_type)
		VALUES ($1, $2, $3, $4, $5)`)

	completeReminderQuery = withCompany(`
		UPDATE reminders SET is_completed = TRUE, completed_at = $2, updated_at = now()
		WHERE id = $1 AND is_completed = FALSE`)

	rescheduleReminderQuery = withCompany(`
		UPDATE reminders SET reminder_at = $2, updated_at = now()
		WHERE id = $1 AND is_completed = FALSE`)
)

const (
	dueRemindersQuery = `
		SELECT ` + reminderColumns + `
		FROM reminders r LEFT JOIN companies co ON co.id = r.company_id
		WHERE r.user_id = $1 AND r.is_completed = FALSE AND r.reminder_at <= $2
		ORDER BY r.reminder_at ASC`

	upcomingRemindersQuery = `
		SELECT ` + reminderColumns + `
		FROM reminders r LEFT JOIN companies co ON co.id = r.company_id
		WHERE r.user_id = $1 AND r.is_completed = FALSE AND r.reminder_at > $2 AND r.reminder_at <= $3
		ORDER BY r.reminder_at ASC`
)

// Repo implements Repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new reminders repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func scanReminder(row pgx.Row) (Reminder, error) {
	var r Reminder
	err := row.Scan(
		&r.ID, &r.UserID, &r.CompanyID, &r.CompanyName, &r.ReminderAt, &r.Note, &r.Type,
		&r.IsCompleted, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// WithTx runs fn on one transaction.
func (r *Repo) WithTx(ctx context.Context, fn func(q db.Querier) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error { return fn(tx) })
}

// GetByID loads one reminder.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Reminder, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (Reminder, error) {
		rem, err := scanReminder(r.pool.QueryRow(ctx,
			`SELECT `+reminderColumns+` FROM reminders r LEFT JOIN companies co ON co.id = r.company_id WHERE r.id = $1`, id))
		if err != nil {
			if db.IsNoRows(err) {
				return Reminder{}, apperr.NotFound(reminderNotFoundMessage)
			}
			return Reminder{}, db.MapError(err, "get reminder")
		}
		return rem, nil
	})
}

// Due returns open reminders that reached their time.
func (r *Repo) Due(ctx context.Context, userID uuid.UUID, now time.Time) ([]Reminder, error) {
	return r.query(ctx, "due reminders", dueRemindersQuery, userID, now)
}

// Upcoming returns open reminders in the window after from.
func (r *Repo) Upcoming(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Reminder, error) {
	return r.query(ctx, "upcoming reminders", upcomingRemindersQuery, userID, from, to)
}

func (r *Repo) query(ctx context.Context, op, query string, args ...any) ([]Reminder, error) {
	return db.RetryValue(ctx, func(ctx context.Context) ([]Reminder, error) {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, db.MapError(err, op)
		}
		defer rows.Close()

		out := make([]Reminder, 0)
		for rows.Next() {
			rem, err := scanReminder(rows)
			if err != nil {
				return nil, db.MapError(err, op)
			}
			out = append(out, rem)
		}
		return out, db.MapError(rows.Err(), op)
	})
}

// CreateInTx inserts a reminder on the caller's transaction.
func (r *Repo) CreateInTx(ctx context.Context, q db.Querier, p CreateParams) (Reminder, error) {
	rem, err := scanReminder(q.QueryRow(ctx, insertReminderQuery, p.UserID, p.CompanyID, p.ReminderAt, p.Note, p.Type))
	if err != nil {
		return Reminder{}, db.MapError(err, "create reminder")
	}
	return rem, nil
}

// CompleteInTx closes an open reminder. A reminder that is missing or
// already completed is NotFound.
func (r *Repo) CompleteInTx(ctx context.Context, q db.Querier, id uuid.UUID, at time.Time) (Reminder, error) {
	rem, err := scanReminder(q.QueryRow(ctx, completeReminderQuery, id, at))
	if err != nil {
		if db.IsNoRows(err) {
			return Reminder{}, apperr.NotFound("open reminder not found")
		}
		return Reminder{}, db.MapError(err, "complete reminder")
	}
	return rem, nil
}

// Reschedule moves an open reminder to at.
func (r *Repo) Reschedule(ctx context.Context, id uuid.UUID, at time.Time) (Reminder, error) {
	rem, err := scanReminder(r.pool.QueryRow(ctx, rescheduleReminderQuery, id, at))
	if err != nil {
		if db.IsNoRows(err) {
			return Reminder{}, apperr.NotFound("open reminder not found")
		}
		return Reminder{}, db.MapError(err, "reschedule reminder")
	}
	return rem, nil
}

var _ Repository = (*Repo)(nil)
