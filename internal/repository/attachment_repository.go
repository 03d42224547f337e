package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AttachmentRepository manages response attachment metadata. Rows cascade
// away with their parent response.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.ResponseAttachment) error
	ListByResponse(ctx context.Context, responseID string) ([]domain.ResponseAttachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository builds repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.ResponseAttachment) error {
	const query = `
        INSERT INTO response_attachments (response_id, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		attachment.ResponseID,
		attachment.StorageKey,
		attachment.FileName,
		attachment.MimeType,
		attachment.SizeBytes,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) ListByResponse(ctx context.Context, responseID string) ([]domain.ResponseAttachment, error) {
	const query = `
        SELECT id, response_id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM response_attachments WHERE response_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, responseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ResponseAttachment
	for rows.Next() {
		var attachment domain.ResponseAttachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.ResponseID,
			&attachment.StorageKey,
			&attachment.FileName,
			&attachment.MimeType,
			&attachment.SizeBytes,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
