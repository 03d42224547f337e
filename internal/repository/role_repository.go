package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RoleAssignmentRepository manages role grants. Revocation is soft: the row
// is kept with is_active=false and revoked_at set. Because (user_id,
// role_code, company_id) is unique, re-granting a revoked role goes through
// Reactivate rather than a second insert.
type RoleAssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.RoleAssignment) error
	Reactivate(ctx context.Context, id string, assignedBy *string) (*domain.RoleAssignment, error)
	GetByID(ctx context.Context, id string) (*domain.RoleAssignment, error)
	Find(ctx context.Context, userID string, code domain.RoleCode, companyID *string) (*domain.RoleAssignment, error)
	ListActiveByUser(ctx context.Context, userID string) ([]domain.RoleAssignment, error)
	ListByCompany(ctx context.Context, companyID string) ([]domain.RoleAssignment, error)
	Revoke(ctx context.Context, id string, revokedAt time.Time, reason *string) error
}

type roleAssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewRoleAssignmentRepository instantiates repository.
func NewRoleAssignmentRepository(pool *pgxpool.Pool) RoleAssignmentRepository {
	return &roleAssignmentRepository{pool: pool}
}

const roleColumns = `id, user_id, role_code, company_id, is_active, assigned_at, assigned_by, revoked_at, revocation_reason`

func (r *roleAssignmentRepository) Create(ctx context.Context, assignment *domain.RoleAssignment) error {
	const query = `
        INSERT INTO role_assignments (user_id, role_code, company_id, is_active, assigned_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, assigned_at`
	return r.pool.QueryRow(ctx, query,
		assignment.UserID,
		assignment.RoleCode,
		assignment.CompanyID,
		assignment.IsActive,
		assignment.AssignedBy,
	).Scan(&assignment.ID, &assignment.AssignedAt)
}

func (r *roleAssignmentRepository) Reactivate(ctx context.Context, id string, assignedBy *string) (*domain.RoleAssignment, error) {
	query := `
        UPDATE role_assignments
        SET is_active=TRUE, revoked_at=NULL, revocation_reason=NULL,
            assigned_at=NOW(), assigned_by=$1
        WHERE id=$2 AND NOT is_active
        RETURNING ` + roleColumns
	row := r.pool.QueryRow(ctx, query, assignedBy, id)
	return scanRoleAssignment(row)
}

func (r *roleAssignmentRepository) GetByID(ctx context.Context, id string) (*domain.RoleAssignment, error) {
	query := `SELECT ` + roleColumns + ` FROM role_assignments WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanRoleAssignment(row)
}

func (r *roleAssignmentRepository) Find(ctx context.Context, userID string, code domain.RoleCode, companyID *string) (*domain.RoleAssignment, error) {
	query := `SELECT ` + roleColumns + `
        FROM role_assignments
        WHERE user_id=$1 AND role_code=$2 AND company_id IS NOT DISTINCT FROM $3`
	row := r.pool.QueryRow(ctx, query, userID, code, companyID)
	return scanRoleAssignment(row)
}

func (r *roleAssignmentRepository) ListActiveByUser(ctx context.Context, userID string) ([]domain.RoleAssignment, error) {
	query := `SELECT ` + roleColumns + `
        FROM role_assignments
        WHERE user_id=$1 AND is_active AND revoked_at IS NULL
        ORDER BY assigned_at ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoleAssignments(rows)
}

func (r *roleAssignmentRepository) ListByCompany(ctx context.Context, companyID string) ([]domain.RoleAssignment, error) {
	query := `SELECT ` + roleColumns + `
        FROM role_assignments
        WHERE company_id=$1
        ORDER BY assigned_at ASC`
	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoleAssignments(rows)
}

func (r *roleAssignmentRepository) Revoke(ctx context.Context, id string, revokedAt time.Time, reason *string) error {
	const query = `
        UPDATE role_assignments
        SET is_active=FALSE, revoked_at=$1, revocation_reason=$2
        WHERE id=$3 AND is_active`
	cmd, err := r.pool.Exec(ctx, query, revokedAt, reason, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanRoleAssignment(row pgx.Row) (*domain.RoleAssignment, error) {
	var assignment domain.RoleAssignment
	if err := row.Scan(
		&assignment.ID,
		&assignment.UserID,
		&assignment.RoleCode,
		&assignment.CompanyID,
		&assignment.IsActive,
		&assignment.AssignedAt,
		&assignment.AssignedBy,
		&assignment.RevokedAt,
		&assignment.RevocationReason,
	); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func scanRoleAssignments(rows pgx.Rows) ([]domain.RoleAssignment, error) {
	var result []domain.RoleAssignment
	for rows.Next() {
		assignment, err := scanRoleAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *assignment)
	}
	return result, rows.Err()
}
