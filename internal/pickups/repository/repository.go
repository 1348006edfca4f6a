package repository

import (
	"context"
	"time"

	"predpraznik_backend/internal/pickups/domain"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pickupNotFoundMessage = "pickup not found"

const pickupColumns = `
	p.id, p.status, p.scheduled_date, p.assigned_driver, p.notes, p.created_by, p.started_at, p.completed_at,
	(SELECT COUNT(*) FROM pickup_items i WHERE i.pickup_id = p.id),
	(SELECT COUNT(*) FROM pickup_items i WHERE i.pickup_id = p.id AND i.picked_up),
	p.created_at, p.updated_at`

const itemColumns = `
	i.id, i.pickup_id, i.cycle_id, q.code, c.status, c.salesperson_id, co.name,
	co.delivery_address, co.delivery_city, c.latitude, c.longitude, i.picked_up, i.picked_up_at`

const itemJoins = `
	JOIN cycles c ON c.id = i.cycle_id
	JOIN qr_codes q ON q.id = c.qr_code_id
	LEFT JOIN companies co ON co.id = c.company_id`

const pickupFilter = `
	WHERE ($1::text IS NULL OR p.status = $1)
	AND ($2::uuid IS NULL OR EXISTS (
		SELECT 1 FROM pickup_items pi JOIN cycles c ON c.id = pi.cycle_id
		WHERE pi.pickup_id = p.id AND c.salesperson_id = $2))`

const countPickupsQuery = `SELECT COUNT(*) FROM driver_pickups p` + pickupFilter

const listPickupsQuery = `SELECT ` + pickupColumns + ` FROM driver_pickups p` + pickupFilter + `
	ORDER BY p.scheduled_date ASC, p.created_at ASC
	LIMIT $3 OFFSET $4`

// candidatesQuery reports status and open-batch membership per cycle.
const candidatesQuery = `
	SELECT c.id, c.salesperson_id, c.status,
		(SELECT i.pickup_id FROM pickup_items i JOIN driver_pickups p ON p.id = i.pickup_id
		 WHERE i.cycle_id = c.id AND p.status <> 'completed' LIMIT 1)
	FROM cycles c
	WHERE c.id = ANY($1::uuid[])`

const toggleItemQuery = `
	WITH i AS (
		UPDATE pickup_items SET
			picked_up = NOT picked_up,
			picked_up_at = CASE WHEN picked_up THEN NULL ELSE now() END
		WHERE id = $2 AND pickup_id = $1
		AND EXISTS (SELECT 1 FROM driver_pickups p WHERE p.id = $1 AND p.status <> 'completed')
		RETURNING *)
	SELECT ` + itemColumns + ` FROM i` + itemJoins

const closePickupQuery = `
	UPDATE driver_pickups p SET status = 'completed', completed_at = now(), updated_at = now()
	WHERE p.id = $1 AND p.status = 'in_progress'
	AND (NOT $2::boolean OR NOT EXISTS (
		SELECT 1 FROM pickup_items i WHERE i.pickup_id = p.id AND NOT i.picked_up))`

// completeCyclesQuery reads the pre-update status through the self join.
const completeCyclesQuery = `
	UPDATE cycles c SET status = 'completed', completed_at = now(),
		test_end_date = COALESCE(c.test_end_date, now()),
		version = c.version + 1, updated_at = now()
	FROM cycles old
	WHERE old.id = c.id
	AND c.id IN (SELECT cycle_id FROM pickup_items WHERE pickup_id = $1)
	AND c.status IN ('dirty', 'waiting_driver')
	RETURNING c.id, c.salesperson_id, c.company_id, old.status`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new pickups repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanPickup(row pgx.Row) (Pickup, error) {
	var p Pickup
	err := row.Scan(&p.ID, &p.Status, &p.ScheduledDate, &p.AssignedDriver, &p.Notes, &p.CreatedBy,
		&p.StartedAt, &p.CompletedAt, &p.ItemCount, &p.PickedUpCount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanItem(row pgx.Row) (Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.PickupID, &i.CycleID, &i.Code, &i.CycleStatus, &i.SalespersonID, &i.CompanyName,
		&i.Address, &i.City, &i.Latitude, &i.Longitude, &i.PickedUp, &i.PickedUpAt)
	return i, err
}

func getPickup(ctx context.Context, q db.Querier, id uuid.UUID) (Pickup, error) {
	p, err := scanPickup(q.QueryRow(ctx, `SELECT `+pickupColumns+` FROM driver_pickups p WHERE p.id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return Pickup{}, apperr.NotFound(pickupNotFoundMessage)
		}
		return Pickup{}, db.MapError(err, "get pickup")
	}
	return p, nil
}

// GetByID loads one batch with counters.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Pickup, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (Pickup, error) {
		return getPickup(ctx, r.pool, id)
	})
}

// List returns batches, soonest first.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Pickup, int, error) {
	var total int
	err := db.Retry(ctx, func(ctx context.Context) error {
		return db.MapError(r.pool.QueryRow(ctx, countPickupsQuery, params.Status, params.SalespersonID).Scan(&total), "count pickups")
	})
	if err != nil {
		return nil, 0, err
	}

	items, err := db.RetryValue(ctx, func(ctx context.Context) ([]Pickup, error) {
		rows, err := r.pool.Query(ctx, listPickupsQuery, params.Status, params.SalespersonID, params.Limit, params.Offset)
		if err != nil {
			return nil, db.MapError(err, "list pickups")
		}
		defer rows.Close()

		out := make([]Pickup, 0)
		for rows.Next() {
			p, err := scanPickup(rows)
			if err != nil {
				return nil, db.MapError(err, "scan pickup")
			}
			out = append(out, p)
		}
		return out, db.MapError(rows.Err(), "list pickups")
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Items returns the batch items ordered by code.
func (r *Repo) Items(ctx context.Context, pickupID uuid.UUID) ([]Item, error) {
	return db.RetryValue(ctx, func(ctx context.Context) ([]Item, error) {
		rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM pickup_items i`+itemJoins+`
			WHERE i.pickup_id = $1 ORDER BY q.code`, pickupID)
		if err != nil {
			return nil, db.MapError(err, "list pickup items")
		}
		defer rows.Close()

		out := make([]Item, 0)
		for rows.Next() {
			i, err := scanItem(rows)
			if err != nil {
				return nil, db.MapError(err, "scan pickup item")
			}
			out = append(out, i)
		}
		return out, db.MapError(rows.Err(), "list pickup items")
	})
}

// Candidates loads the cycles proposed for a new batch.
func (r *Repo) Candidates(ctx context.Context, cycleIDs []uuid.UUID) (map[uuid.UUID]domain.Candidate, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (map[uuid.UUID]domain.Candidate, error) {
		rows, err := r.pool.Query(ctx, candidatesQuery, cycleIDs)
		if err != nil {
			return nil, db.MapError(err, "pickup candidates")
		}
		defer rows.Close()

		out := make(map[uuid.UUID]domain.Candidate, len(cycleIDs))
		for rows.Next() {
			var c domain.Candidate
			if err := rows.Scan(&c.CycleID, &c.SalespersonID, &c.Status, &c.OpenPickupID); err != nil {
				return nil, db.MapError(err, "scan candidate")
			}
			out[c.CycleID] = c
		}
		return out, db.MapError(rows.Err(), "pickup candidates")
	})
}

// Create inserts the batch and its items in one transaction.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Pickup, error) {
	var created Pickup
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO driver_pickups (scheduled_date, assigned_driver, notes, created_by)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			params.ScheduledDate, params.AssignedDriver, params.Notes, params.CreatedBy).Scan(&id)
		if err != nil {
			return db.MapError(err, "create pickup")
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO pickup_items (pickup_id, cycle_id)
			SELECT $1, unnest($2::uuid[])`, id, params.CycleIDs); err != nil {
			return db.MapError(err, "create pickup items")
		}
		created, err = getPickup(ctx, tx, id)
		return err
	})
	return created, err
}

// Start moves a pending batch in progress.
func (r *Repo) Start(ctx context.Context, id uuid.UUID) (Pickup, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE driver_pickups SET status = 'in_progress', started_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return Pickup{}, db.MapError(err, "start pickup")
	}
	if tag.RowsAffected() == 0 {
		return Pickup{}, apperr.Conflict("pickup is no longer pending")
	}
	return getPickup(ctx, r.pool, id)
}

// ToggleItem flips the picked-up flag of one item.
func (r *Repo) ToggleItem(ctx context.Context, pickupID, itemID uuid.UUID) (Item, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, toggleItemQuery, pickupID, itemID))
	if err != nil {
		if db.IsNoRows(err) {
			return Item{}, apperr.NotFound("pickup item not found or pickup already completed")
		}
		return Item{}, db.MapError(err, "toggle pickup item")
	}
	return item, nil
}

// Complete closes the batch and cascades to its cycles.
func (r *Repo) Complete(ctx context.Context, id uuid.UUID, requireAll bool) ([]CompletedCycle, error) {
	var completed []CompletedCycle
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, closePickupQuery, id, requireAll)
		if err != nil {
			return db.MapError(err, "complete pickup")
		}
		if tag.RowsAffected() == 0 {
			return apperr.Conflict("pickup is not in progress or has unmarked items")
		}

		rows, err := tx.Query(ctx, completeCyclesQuery, id)
		if err != nil {
			return db.MapError(err, "complete pickup cycles")
		}
		defer rows.Close()
		for rows.Next() {
			var c CompletedCycle
			if err := rows.Scan(&c.ID, &c.SalespersonID, &c.CompanyID, &c.From); err != nil {
				return db.MapError(err, "scan completed cycle")
			}
			completed = append(completed, c)
		}
		return db.MapError(rows.Err(), "complete pickup cycles")
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// AssignDriver sets the driver and optionally reschedules.
func (r *Repo) AssignDriver(ctx context.Context, id uuid.UUID, driver *string, scheduledDate *time.Time) (Pickup, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE driver_pickups SET assigned_driver = $2,
			scheduled_date = COALESCE($3, scheduled_date), updated_at = now()
		WHERE id = $1 AND status <> 'completed'`, id, driver, scheduledDate)
	if err != nil {
		return Pickup{}, db.MapError(err, "assign driver")
	}
	if tag.RowsAffected() == 0 {
		return Pickup{}, apperr.Conflict("completed pickups cannot be changed")
	}
	return getPickup(ctx, r.pool, id)
}

// Delete removes a batch that is not completed. Cycles are untouched.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM driver_pickups WHERE id = $1 AND status <> 'completed'`, id)
	if err != nil {
		return db.MapError(err, "delete pickup")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("completed pickups cannot be deleted")
	}
	return nil
}
