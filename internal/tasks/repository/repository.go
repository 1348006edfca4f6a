package repository

import (
	"context"

	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	taskNotFoundMessage = "task not found"

	// PositionConstraint keeps positions unique per salesperson and column.
	PositionConstraint = "tasks_position_unique"
)

const taskColumns = `
	t.id, t.salesperson_id, t.title, t.description, t.status, t.position, t.company_id, co.name,
	t.due_date, t.archived_at, t.created_at, t.updated_at`

func withCompany(modify string) string {
	return `WITH t AS (` + modify + ` RETURNING *)
	SELECT ` + taskColumns + ` FROM t LEFT JOIN companies co ON co.id = t.company_id`
}

var (
	// insertTaskQuery appends at max(position)+1 of the target column.
	insertTaskQuery = withCompany(`
		INSERT INTO tasks (salesperson_id, title, description, status, position, company_id, due_date)
		SELECT $1, $2, $3, $4, COALESCE(MAX(position) + 1, 0), $5, $6
		FROM tasks WHERE salesperson_id = $1 AND status = $4 AND archived_at IS NULL`)

	updateTaskQuery = withCompany(`
		UPDATE tasks SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			company_id = CASE WHEN $4 THEN NULL ELSE COALESCE($5, company_id) END,
			due_date = CASE WHEN $6 THEN NULL ELSE COALESCE($7, due_date) END,
			updated_at = now()
		WHERE id = $1 AND archived_at IS NULL`)
)

const (
	boardQuery = `
		SELECT ` + taskColumns + `
		FROM tasks t LEFT JOIN companies co ON co.id = t.company_id
		WHERE t.salesperson_id = $1 AND t.archived_at IS NULL
		ORDER BY t.status, t.position`

	columnQuery = `
		SELECT id FROM tasks
		WHERE salesperson_id = $1 AND status = $2 AND archived_at IS NULL
		ORDER BY position`

	// parkPositionsQuery moves the touched rows to negative positions so the
	// second step never collides with the unique index mid-update.
	parkPositionsQuery = `
		UPDATE tasks SET position = -position - 1
		WHERE salesperson_id = $1 AND id = ANY($2::uuid[]) AND archived_at IS NULL`

	applyColumnQuery = `
		UPDATE tasks t SET status = $2, position = v.ord - 1, updated_at = now()
		FROM unnest($3::uuid[]) WITH ORDINALITY AS v(id, ord)
		WHERE t.id = v.id AND t.salesperson_id = $1 AND t.archived_at IS NULL`
)

// Repo implements Repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new tasks repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.SalespersonID, &t.Title, &t.Description, &t.Status, &t.Position, &t.CompanyID, &t.CompanyName,
		&t.DueDate, &t.ArchivedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func notFoundOr(err error, op string) error {
	if db.IsNoRows(err) {
		return apperr.NotFound(taskNotFoundMessage)
	}
	return db.MapError(err, op)
}

// GetByID loads one task, archived or not.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Task, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (Task, error) {
		t, err := scanTask(r.pool.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks t LEFT JOIN companies co ON co.id = t.company_id WHERE t.id = $1`, id))
		if err != nil {
			return Task{}, notFoundOr(err, "get task")
		}
		return t, nil
	})
}

// Board returns a salesperson's open tasks.
func (r *Repo) Board(ctx context.Context, salespersonID uuid.UUID) ([]Task, error) {
	return db.RetryValue(ctx, func(ctx context.Context) ([]Task, error) {
		rows, err := r.pool.Query(ctx, boardQuery, salespersonID)
		if err != nil {
			return nil, db.MapError(err, "board")
		}
		defer rows.Close()

		out := make([]Task, 0)
		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return nil, db.MapError(err, "scan task")
			}
			out = append(out, t)
		}
		return out, db.MapError(rows.Err(), "board")
	})
}

// Column returns the ids of one column in order.
func (r *Repo) Column(ctx context.Context, salespersonID uuid.UUID, status string) ([]uuid.UUID, error) {
	return db.RetryValue(ctx, func(ctx context.Context) ([]uuid.UUID, error) {
		rows, err := r.pool.Query(ctx, columnQuery, salespersonID, status)
		if err != nil {
			return nil, db.MapError(err, "column")
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		return ids, db.MapError(err, "column")
	})
}

// Create appends a task. Two concurrent appends to the same column race on
// the position index; the loser gets Conflict.
func (r *Repo) Create(ctx context.Context, p CreateParams) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, insertTaskQuery,
		p.SalespersonID, p.Title, p.Description, p.Status, p.CompanyID, p.DueDate))
	if err != nil {
		if db.IsUniqueViolation(err, PositionConstraint) {
			return Task{}, apperr.Conflict("the column changed while adding the task, retry")
		}
		return Task{}, db.MapError(err, "create task")
	}
	return t, nil
}

// Update edits title, description, company and due date.
func (r *Repo) Update(ctx context.Context, p UpdateParams) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, updateTaskQuery,
		p.ID, p.Title, p.Description, p.ClearCompany, p.CompanyID, p.ClearDueDate, p.DueDate))
	if err != nil {
		return Task{}, notFoundOr(err, "update task")
	}
	return t, nil
}

// ApplyOrder parks every touched row at a negative position, then writes
// the final status and 0..n-1 positions column by column.
func (r *Repo) ApplyOrder(ctx context.Context, salespersonID uuid.UUID, columns []ColumnOrder) error {
	var all []uuid.UUID
	for _, c := range columns {
		all = append(all, c.IDs...)
	}
	if len(all) == 0 {
		return nil
	}

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, parkPositionsQuery, salespersonID, all)
		if err != nil {
			return db.MapError(err, "park task positions")
		}
		if tag.RowsAffected() != int64(len(all)) {
			return apperr.Conflict("some tasks were archived or deleted meanwhile, reload the board")
		}
		for _, c := range columns {
			if len(c.IDs) == 0 {
				continue
			}
			if _, err := tx.Exec(ctx, applyColumnQuery, salespersonID, c.Status, c.IDs); err != nil {
				if db.IsUniqueViolation(err, PositionConstraint) {
					return apperr.Conflict("the board changed meanwhile, reload and retry")
				}
				return db.MapError(err, "apply task order")
			}
		}
		return nil
	})
}

// Archive soft-deletes a task; it leaves the board but keeps its history.
func (r *Repo) Archive(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET archived_at = now(), updated_at = now() WHERE id = $1 AND archived_at IS NULL`, id)
	if err != nil {
		return db.MapError(err, "archive task")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(taskNotFoundMessage)
	}
	return nil
}

// Delete removes a task for good.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "delete task")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(taskNotFoundMessage)
	}
	return nil
}

var _ Repository = (*Repo)(nil)
