package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by PostgresRepository.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the contacts table.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool (or a mock).
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("leads: pgx querier required")
	}
	return &PostgresRepository{db: db}
}

const leadColumns = `id, created_at, contact_type, first_name, last_name, COALESCE(company_name, ''),
		email, phone_number, city, zip_code, az_county, comments,
		estimated_budget_id, project_timeline_id`

// Create inserts a new row and returns it as stored.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	query := `
		INSERT INTO contacts (
			contact_type, first_name, last_name, company_name, email, phone_number,
			city, zip_code, az_county, comments, estimated_budget_id, project_timeline_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + leadColumns

	row := r.db.QueryRow(ctx, query,
		req.ContactType,
		req.FirstName,
		req.LastName,
		req.CompanyName,
		req.Email,
		req.PhoneNumber,
		req.City,
		req.ZipCode,
		req.AZCounty,
		req.Comments,
		req.EstimatedBudgetID,
		req.ProjectTimelineID,
	)
	lead, err := scanLead(row)
	if err != nil {
		return nil, classifyInsertError(err)
	}
	return lead, nil
}

// GetByID retrieves a lead by ID
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM contacts WHERE id = $1`
	lead, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("%w: get lead %d: %w", ErrStorage, id, err)
	}
	return lead, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	var company string
	if err := row.Scan(
		&lead.ID,
		&lead.CreatedAt,
		&lead.ContactType,
		&lead.FirstName,
		&lead.LastName,
		&company,
		&lead.Email,
		&lead.PhoneNumber,
		&lead.City,
		&lead.ZipCode,
		&lead.AZCounty,
		&lead.Comments,
		&lead.EstimatedBudgetID,
		&lead.ProjectTimelineID,
	); err != nil {
		return nil, err
	}
	if company != "" {
		lead.CompanyName = &company
	}
	return &lead, nil
}

// classifyInsertError keeps integrity violations (SQLSTATE class 23)
// distinguishable from connectivity failures.
func classifyInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return &StorageConstraintError{Code: pgErr.Code, Constraint: pgErr.ConstraintName, Err: err}
	}
	return fmt.Errorf("%w: insert lead: %w", ErrStorage, err)
}
