package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CompanyRepository manages tenant records and their onboarding snapshots.
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	List(ctx context.Context, statuses []domain.CompanyStatus, limit, offset int) ([]domain.Company, error)
	UpdateStatus(ctx context.Context, id string, status domain.CompanyStatus) error
	CreateOnboardingDetails(ctx context.Context, details *domain.CompanyOnboardingDetails) error
	GetOnboardingDetails(ctx context.Context, companyID string) (*domain.CompanyOnboardingDetails, error)
}

type companyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository instantiates repository.
func NewCompanyRepository(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepository{pool: pool}
}

func (r *companyRepository) Create(ctx context.Context, company *domain.Company) error {
	const query = `
        INSERT INTO companies (name, status)
        VALUES ($1,$2)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, company.Name, company.Status).
		Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	const query = `
        SELECT id, name, status, created_at, updated_at
        FROM companies WHERE id=$1`
	var company domain.Company
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&company.ID,
		&company.Name,
		&company.Status,
		&company.CreatedAt,
		&company.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) List(ctx context.Context, statuses []domain.CompanyStatus, limit, offset int) ([]domain.Company, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
        SELECT id, name, status, created_at, updated_at
        FROM companies
        WHERE ($1::text[] IS NULL OR status = ANY($1))
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	var statusArg any
	if len(statuses) > 0 {
		vals := make([]string, len(statuses))
		for i, s := range statuses {
			vals[i] = string(s)
		}
		statusArg = vals
	}
	rows, err := r.pool.Query(ctx, query, statusArg, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Company
	for rows.Next() {
		var company domain.Company
		if err := rows.Scan(
			&company.ID,
			&company.Name,
			&company.Status,
			&company.CreatedAt,
			&company.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, company)
	}
	return result, rows.Err()
}

func (r *companyRepository) UpdateStatus(ctx context.Context, id string, status domain.CompanyStatus) error {
	const query = `UPDATE companies SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *companyRepository) CreateOnboardingDetails(ctx context.Context, details *domain.CompanyOnboardingDetails) error {
	const query = `
        INSERT INTO company_onboarding_details (company_id, submitter_email, message, reviewed_by, reviewed_at, review_note)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		details.CompanyID,
		details.SubmitterEmail,
		details.Message,
		details.ReviewedBy,
		details.ReviewedAt,
		details.ReviewNote,
	).Scan(&details.ID)
}

func (r *companyRepository) GetOnboardingDetails(ctx context.Context, companyID string) (*domain.CompanyOnboardingDetails, error) {
	const query = `
        SELECT id, company_id, submitter_email, message, reviewed_by, reviewed_at, review_note
        FROM company_onboarding_details WHERE company_id=$1`
	var details domain.CompanyOnboardingDetails
	if err := r.pool.QueryRow(ctx, query, companyID).Scan(
		&details.ID,
		&details.CompanyID,
		&details.SubmitterEmail,
		&details.Message,
		&details.ReviewedBy,
		&details.ReviewedAt,
		&details.ReviewNote,
	); err != nil {
		return nil, err
	}
	return &details, nil
}
