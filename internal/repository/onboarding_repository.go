package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// OnboardingRequestRepository manages company onboarding applications.
type OnboardingRequestRepository interface {
	Create(ctx context.Context, req *domain.OnboardingRequest) error
	GetByID(ctx context.Context, id string) (*domain.OnboardingRequest, error)
	HasPendingByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, statuses []domain.OnboardingStatus, limit, offset int) ([]domain.OnboardingRequest, error)
	MarkReviewed(ctx context.Context, req *domain.OnboardingRequest) error
}

type onboardingRequestRepository struct {
	pool *pgxpool.Pool
}

// NewOnboardingRequestRepository instantiates repository.
func NewOnboardingRequestRepository(pool *pgxpool.Pool) OnboardingRequestRepository {
	return &onboardingRequestRepository{pool: pool}
}

const onboardingColumns = `id, company_name, admin_email, message, status, reviewed_by, reviewed_at, rejection_reason, company_id, created_at`

func (r *onboardingRequestRepository) Create(ctx context.Context, req *domain.OnboardingRequest) error {
	const query = `
        INSERT INTO onboarding_requests (company_name, admin_email, message, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		req.CompanyName,
		req.AdminEmail,
		req.Message,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt)
}

func (r *onboardingRequestRepository) GetByID(ctx context.Context, id string) (*domain.OnboardingRequest, error) {
	query := `SELECT ` + onboardingColumns + ` FROM onboarding_requests WHERE id=$1`
	return scanOnboardingRequest(r.pool.QueryRow(ctx, query, id))
}

func (r *onboardingRequestRepository) HasPendingByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM onboarding_requests WHERE admin_email=$1 AND status='PENDING')`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *onboardingRequestRepository) List(ctx context.Context, statuses []domain.OnboardingStatus, limit, offset int) ([]domain.OnboardingRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + onboardingColumns + `
        FROM onboarding_requests
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

	var result []domain.OnboardingRequest
	for rows.Next() {
		req, err := scanOnboardingRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func (r *onboardingRequestRepository) MarkReviewed(ctx context.Context, req *domain.OnboardingRequest) error {
	// The status guard makes review single-shot even under concurrent
	// reviewers.
	const query = `
        UPDATE onboarding_requests
        SET status=$1, reviewed_by=$2, reviewed_at=$3, rejection_reason=$4, company_id=$5
        WHERE id=$6 AND status='PENDING'`
	reviewedAt := req.ReviewedAt
	if reviewedAt == nil {
		now := time.Now()
		reviewedAt = &now
	}
	cmd, err := r.pool.Exec(ctx, query,
		req.Status,
		req.ReviewedBy,
		reviewedAt,
		req.RejectionReason,
		req.CompanyID,
		req.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanOnboardingRequest(row pgx.Row) (*domain.OnboardingRequest, error) {
	var req domain.OnboardingRequest
	if err := row.Scan(
		&req.ID,
		&req.CompanyName,
		&req.AdminEmail,
		&req.Message,
		&req.Status,
		&req.ReviewedBy,
		&req.ReviewedAt,
		&req.RejectionReason,
		&req.CompanyID,
		&req.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
