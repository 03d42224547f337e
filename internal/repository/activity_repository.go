package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ActivityFilter narrows user activity listings.
type ActivityFilter struct {
	Action     *string
	EntityType *string
	Limit      int
	Offset     int
}

// ActivityLogRepository is the durable side of the audit pipeline.
type ActivityLogRepository interface {
	Insert(ctx context.Context, entry *domain.ActivityLogEntry) error
	InsertBatch(ctx context.Context, entries []domain.ActivityLogEntry) error
	ListByUser(ctx context.Context, userID string, filter ActivityFilter) ([]domain.ActivityLogEntry, error)
	ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]domain.ActivityLogEntry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type activityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository instantiates repository.
func NewActivityLogRepository(pool *pgxpool.Pool) ActivityLogRepository {
	return &activityLogRepository{pool: pool}
}

const activityColumns = `id, user_id, action, entity_type, entity_id, old_values, new_values, metadata, ip_address, user_agent, created_at`

const activityInsert = `
        INSERT INTO activity_logs (user_id, action, entity_type, entity_id, old_values, new_values, metadata, ip_address, user_agent, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

func (r *activityLogRepository) Insert(ctx context.Context, entry *domain.ActivityLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.pool.Exec(ctx, activityInsert,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.OldValues,
		entry.NewValues,
		entry.Metadata,
		entry.IPAddress,
		entry.UserAgent,
		createdAt,
	)
	return err
}

func (r *activityLogRepository) InsertBatch(ctx context.Context, entries []domain.ActivityLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, entry := range entries {
		createdAt := entry.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		batch.Queue(activityInsert,
			entry.UserID,
			entry.Action,
			entry.EntityType,
			entry.EntityID,
			entry.OldValues,
			entry.NewValues,
			entry.Metadata,
			entry.IPAddress,
			entry.UserAgent,
			createdAt,
		)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func (r *activityLogRepository) ListByUser(ctx context.Context, userID string, filter ActivityFilter) ([]domain.ActivityLogEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + activityColumns + `
        FROM activity_logs
        WHERE user_id=$1
          AND ($2::text IS NULL OR action=$2)
          AND ($3::text IS NULL OR entity_type=$3)
        ORDER BY created_at DESC LIMIT $4 OFFSET $5`
	rows, err := r.pool.Query(ctx, query, userID, filter.Action, filter.EntityType, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivityEntries(rows)
}

func (r *activityLogRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]domain.ActivityLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + activityColumns + `
        FROM activity_logs
        WHERE entity_type=$1 AND entity_id=$2
        ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, entityType, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivityEntries(rows)
}

func (r *activityLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM activity_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanActivityEntries(rows pgx.Rows) ([]domain.ActivityLogEntry, error) {
	var result []domain.ActivityLogEntry
	for rows.Next() {
		var entry domain.ActivityLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.OldValues,
			&entry.NewValues,
			&entry.Metadata,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
