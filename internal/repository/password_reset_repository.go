package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// PasswordResetRepository manages single-use reset tokens.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *domain.PasswordReset) error
	Get(ctx context.Context, token string) (*domain.PasswordReset, error)
	MarkUsed(ctx context.Context, token string, usedAt time.Time) error
}

type passwordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository instantiates repository.
func NewPasswordResetRepository(pool *pgxpool.Pool) PasswordResetRepository {
	return &passwordResetRepository{pool: pool}
}

func (r *passwordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	const query = `
        INSERT INTO password_resets (token, user_id, expires_at)
        VALUES ($1,$2,$3)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query, reset.Token, reset.UserID, reset.ExpiresAt).
		Scan(&reset.CreatedAt)
}

func (r *passwordResetRepository) Get(ctx context.Context, token string) (*domain.PasswordReset, error) {
	const query = `
        SELECT token, user_id, expires_at, used_at, created_at
        FROM password_resets WHERE token=$1`
	var reset domain.PasswordReset
	if err := r.pool.QueryRow(ctx, query, token).Scan(
		&reset.Token,
		&reset.UserID,
		&reset.ExpiresAt,
		&reset.UsedAt,
		&reset.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, token string, usedAt time.Time) error {
	const query = `UPDATE password_resets SET used_at=$1 WHERE token=$2 AND used_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, usedAt, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
