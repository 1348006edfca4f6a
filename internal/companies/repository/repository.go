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
	companyNotFoundMessage = "company not found"
	contactNotFoundMessage = "contact not found"

	// TaxNumberConstraint is the partial unique index on companies.tax_number.
	TaxNumberConstraint = "companies_tax_number_unique"
)

const companyColumns = `
	id, name, display_name, tax_number, delivery_address, delivery_postal_code, delivery_city,
	billing_address, billing_postal_code, billing_city, pipeline_status, contract_sent_at,
	contract_called_at, parent_company_id, owner_id, notes, created_at, updated_at`

const contactColumns = `id, company_id, first_name, last_name, role, email, phone, is_primary, created_at, updated_at`

const listCompaniesWhere = `
	WHERE ($1::text IS NULL OR name ILIKE $1 OR display_name ILIKE $1 OR tax_number ILIKE $1)
	AND ($2::text IS NULL OR pipeline_status = $2)
	AND ($3::uuid IS NULL OR owner_id = $3)`

// setPipelineQuery stamps contract_sent_at when entering contract_sent and
// clears contract_called_at when the contract is signed.
const setPipelineQuery = `
	UPDATE companies SET
		pipeline_status = $2,
		contract_sent_at = CASE WHEN $2 = 'contract_sent' AND pipeline_status <> 'contract_sent' THEN now() ELSE contract_sent_at END,
		contract_called_at = CASE WHEN $2 = 'contract_signed' THEN NULL ELSE contract_called_at END,
		updated_at = now()
	WHERE id = $1
	RETURNING ` + companyColumns

const stampContractCalledQuery = `
	UPDATE companies SET contract_called_at = $2, updated_at = now()
	WHERE id = $1
	RETURNING ` + companyColumns

const pendingContractsQuery = `
	SELECT ` + companyColumns + `
	FROM companies
	WHERE pipeline_status = 'contract_sent'
	  AND contract_sent_at <= $1
	  AND ($2::uuid IS NULL OR owner_id = $2)
	ORDER BY contract_sent_at ASC`

const advancePipelineQuery = `
	UPDATE companies SET pipeline_status = $3, updated_at = now()
	WHERE id = $1 AND pipeline_status = ANY($2::text[])`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new companies repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(
		&c.ID, &c.Name, &c.DisplayName, &c.TaxNumber, &c.DeliveryAddress, &c.DeliveryPostalCode, &c.DeliveryCity,
		&c.BillingAddress, &c.BillingPostalCode, &c.BillingCity, &c.PipelineStatus, &c.ContractSentAt,
		&c.ContractCalledAt, &c.ParentCompanyID, &c.OwnerID, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.CompanyID, &c.FirstName, &c.LastName, &c.Role, &c.Email, &c.Phone, &c.IsPrimary, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func notFoundOr(err error, message, op string) error {
	if db.IsNoRows(err) {
		return apperr.NotFound(message)
	}
	return db.MapError(err, op)
}

// GetByID retrieves a company by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Company, error) {
	return db.RetryValue(ctx, func(ctx context.Context) (Company, error) {
		c, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
		if err != nil {
			return Company{}, notFoundOr(err, companyNotFoundMessage, "get company")
		}
		return c, nil
	})
}

// List returns a page of companies ordered by name.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Company, int, error) {
	var search, status interface{}
	if params.Search != "" {
		search = "%" + params.Search + "%"
	}
	if params.PipelineStatus != "" {
		status = params.PipelineStatus
	}

	var total int
	err := db.Retry(ctx, func(ctx context.Context) error {
		return db.MapError(r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`+listCompaniesWhere, search, status, params.OwnerID).Scan(&total), "count companies")
	})
	if err != nil {
		return nil, 0, err
	}

	items, err := r.queryCompanies(ctx, `SELECT `+companyColumns+` FROM companies`+listCompaniesWhere+`
		ORDER BY name ASC LIMIT $4 OFFSET $5`, search, status, params.OwnerID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListChildren returns the sites registered under a parent company.
func (r *Repo) ListChildren(ctx context.Context, parentID uuid.UUID) ([]Company, error) {
	return r.queryCompanies(ctx, `SELECT `+companyColumns+` FROM companies WHERE parent_company_id = $1 ORDER BY name`, parentID)
}

func (r *Repo) queryCompanies(ctx context.Context, query string, args ...any) ([]Company, error) {
	return db.RetryValue(ctx, func(ctx context.Context) ([]Company, error) {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, db.MapError(err, "list companies")
		}
		defer rows.Close()

		out := make([]Company, 0)
		for rows.Next() {
			c, err := scanCompany(rows)
			if err != nil {
				return nil, db.MapError(err, "scan company")
			}
			out = append(out, c)
		}
		return out, db.MapError(rows.Err(), "iterate companies")
	})
}

// TaxNumberTaken checks uniqueness ahead of insert so the caller gets a
// readable error; the partial unique index remains the real guarantee.
func (r *Repo) TaxNumberTaken(ctx context.Context, taxNumber string, excludeID *uuid.UUID) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM companies WHERE tax_number = $1 AND ($2::uuid IS NULL OR id <> $2))`,
		taxNumber, excludeID).Scan(&taken)
	return taken, db.MapError(err, "check tax number")
}

// Create inserts a company.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Company, error) {
	return r.CreateInTx(ctx, r.pool, params)
}

// CreateInTx inserts a company using q, which may be a transaction.
func (r *Repo) CreateInTx(ctx context.Context, q db.Querier, params CreateParams) (Company, error) {
	c, err := scanCompany(q.QueryRow(ctx, `
		INSERT INTO companies (name, display_name, tax_number, delivery_address, delivery_postal_code, delivery_city,
			billing_address, billing_postal_code, billing_city, parent_company_id, owner_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+companyColumns,
		params.Name, params.DisplayName, params.TaxNumber, params.DeliveryAddress, params.DeliveryPostalCode, params.DeliveryCity,
		params.BillingAddress, params.BillingPostalCode, params.BillingCity, params.ParentCompanyID, params.OwnerID, params.Notes,
	))
	if err != nil {
		return Company{}, db.MapError(err, "create company")
	}
	return c, nil
}

// Update applies the non-nil fields.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `
		UPDATE companies SET
			name = COALESCE($2, name),
			display_name = COALESCE($3, display_name),
			tax_number = COALESCE($4, tax_number),
			delivery_address = COALESCE($5, delivery_address),
			delivery_postal_code = COALESCE($6, delivery_postal_code),
			delivery_city = COALESCE($7, delivery_city),
			billing_address = COALESCE($8, billing_address),
			billing_postal_code = COALESCE($9, billing_postal_code),
			billing_city = COALESCE($10, billing_city),
			parent_company_id = COALESCE($11, parent_company_id),
			notes = COALESCE($12, notes),
			updated_at = now()
		WHERE id = $1
		RETURNING `+companyColumns,
		params.ID, params.Name, params.DisplayName, params.TaxNumber, params.DeliveryAddress, params.DeliveryPostalCode,
		params.DeliveryCity, params.BillingAddress, params.BillingPostalCode, params.BillingCity, params.ParentCompanyID, params.Notes,
	))
	if err != nil {
		return Company{}, notFoundOr(err, companyNotFoundMessage, "update company")
	}
	return c, nil
}

// SetPipelineStatus moves the company along the funnel.
func (r *Repo) SetPipelineStatus(ctx context.Context, id uuid.UUID, status string) (Company, error) {
	return r.SetPipelineStatusInTx(ctx, r.pool, id, status)
}

// SetPipelineStatusInTx is SetPipelineStatus on a caller-owned transaction.
func (r *Repo) SetPipelineStatusInTx(ctx context.Context, q db.Querier, id uuid.UUID, status string) (Company, error) {
	c, err := scanCompany(q.QueryRow(ctx, setPipelineQuery, id, status))
	if err != nil {
		return Company{}, notFoundOr(err, companyNotFoundMessage, "set pipeline status")
	}
	return c, nil
}

// AdvancePipelineInTx moves the company to status only while it is still in
// one of the from stages. It reports whether a row changed.
func (r *Repo) AdvancePipelineInTx(ctx context.Context, q db.Querier, id uuid.UUID, from []string, status string) (bool, error) {
	tag, err := q.Exec(ctx, advancePipelineQuery, id, from, status)
	if err != nil {
		return false, db.MapError(err, "advance pipeline")
	}
	return tag.RowsAffected() > 0, nil
}

// StampContractCalledInTx records when the customer was called about a
// contract that is still out.
func (r *Repo) StampContractCalledInTx(ctx context.Context, q db.Querier, id uuid.UUID, at time.Time) (Company, error) {
	c, err := scanCompany(q.QueryRow(ctx, stampContractCalledQuery, id, at))
	if err != nil {
		return Company{}, notFoundOr(err, companyNotFoundMessage, "stamp contract called")
	}
	return c, nil
}

// PendingContracts lists companies whose contract was sent before sentBefore
// and has not come back signed.
func (r *Repo) PendingContracts(ctx context.Context, ownerID *uuid.UUID, sentBefore time.Time) ([]Company, error) {
	return r.queryCompanies(ctx, pendingContractsQuery, sentBefore, ownerID)
}

// ExistsInTx checks a company id inside a transaction.
func (r *Repo) ExistsInTx(ctx context.Context, q db.Querier, id uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, db.MapError(err, "company exists")
	}
	return exists, nil
}

// ListContacts returns contacts, primary first.
func (r *Repo) ListContacts(ctx context.Context, companyID uuid.UUID) ([]Contact, error) {
	return db.RetryValue(ctx, func(ctx context.Context) ([]Contact, error) {
		rows, err := r.pool.Query(ctx, `SELECT `+contactColumns+` FROM contacts WHERE company_id = $1
			ORDER BY is_primary DESC, last_name, first_name`, companyID)
		if err != nil {
			return nil, db.MapError(err, "list contacts")
		}
		defer rows.Close()

		out := make([]Contact, 0)
		for rows.Next() {
			c, err := scanContact(rows)
			if err != nil {
				return nil, db.MapError(err, "scan contact")
			}
			out = append(out, c)
		}
		return out, db.MapError(rows.Err(), "iterate contacts")
	})
}

// AddContact inserts a contact, demoting the previous primary when needed.
func (r *Repo) AddContact(ctx context.Context, params ContactParams) (Contact, error) {
	var out Contact
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := r.CreateContactInTx(ctx, tx, params)
		out = c
		return err
	})
	return out, err
}

// CreateContactInTx inserts a contact using q, which may be a transaction.
func (r *Repo) CreateContactInTx(ctx context.Context, q db.Querier, params ContactParams) (Contact, error) {
	if params.IsPrimary {
		if _, err := q.Exec(ctx, `UPDATE contacts SET is_primary = false WHERE company_id = $1 AND is_primary`, params.CompanyID); err != nil {
			return Contact{}, db.MapError(err, "demote primary contact")
		}
	}
	c, err := scanContact(q.QueryRow(ctx, `
		INSERT INTO contacts (company_id, first_name, last_name, role, email, phone, is_primary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+contactColumns,
		params.CompanyID, params.FirstName, params.LastName, params.Role, params.Email, params.Phone, params.IsPrimary,
	))
	if err != nil {
		return Contact{}, db.MapError(err, "create contact")
	}
	return c, nil
}

// UpdateContact replaces a contact's fields.
func (r *Repo) UpdateContact(ctx context.Context, id uuid.UUID, params ContactParams) (Contact, error) {
	var out Contact
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if params.IsPrimary {
			if _, err := tx.Exec(ctx, `UPDATE contacts SET is_primary = false WHERE company_id = $1 AND id <> $2`, params.CompanyID, id); err != nil {
				return db.MapError(err, "demote primary contact")
			}
		}
		c, err := scanContact(tx.QueryRow(ctx, `
			UPDATE contacts SET first_name = $3, last_name = $4, role = $5, email = $6, phone = $7, is_primary = $8, updated_at = now()
			WHERE id = $1 AND company_id = $2
			RETURNING `+contactColumns,
			id, params.CompanyID, params.FirstName, params.LastName, params.Role, params.Email, params.Phone, params.IsPrimary,
		))
		if err != nil {
			return notFoundOr(err, contactNotFoundMessage, "update contact")
		}
		out = c
		return nil
	})
	return out, err
}

// DeleteContact removes a contact of the given company.
func (r *Repo) DeleteContact(ctx context.Context, companyID, contactID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1 AND company_id = $2`, contactID, companyID)
	if err != nil {
		return db.MapError(err, "delete contact")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMessage)
	}
	return nil
}
