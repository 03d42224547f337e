package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// RequestMeta carries transport-level context for an audit entry. Handlers
// fill it; services pass it through untouched.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Recorder is the best-effort write-behind activity log. Record never
// returns an error: entries are staged in the fast buffer and flushed in
// batches to durable storage, falling back to a direct synchronous insert
// when the buffer is unreachable. Entries are never silently dropped.
type Recorder struct {
	buffer    Buffer
	store     repository.ActivityLogRepository
	logger    *zap.Logger
	threshold int64
}

// NewRecorder constructs the recorder. threshold is the buffer length that
// triggers an inline flush.
func NewRecorder(buffer Buffer, store repository.ActivityLogRepository, logger *zap.Logger, threshold int) *Recorder {
	if threshold <= 0 {
		threshold = 50
	}
	return &Recorder{
		buffer:    buffer,
		store:     store,
		logger:    logger,
		threshold: int64(threshold),
	}
}

// Record stages one entry. The age-based flush is owned by the scheduler;
// this path only flushes when the size threshold is crossed.
func (r *Recorder) Record(ctx context.Context, entry domain.ActivityLogEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		r.logger.Error("activity entry not serializable", zap.String("action", entry.Action), zap.Error(err))
		return
	}

	length, err := r.buffer.Append(ctx, payload)
	if err != nil {
		r.logger.Warn("activity buffer unavailable, writing direct", zap.Error(err))
		if err := r.store.Insert(ctx, &entry); err != nil {
			r.logger.Error("activity direct write failed", zap.String("action", entry.Action), zap.Error(err))
		}
		return
	}

	if length >= r.threshold {
		r.Flush(ctx)
	}
}

// Flush drains the buffer into durable storage. Idempotent and safe to call
// on a timer; failures are logged, never propagated.
func (r *Recorder) Flush(ctx context.Context) {
	for {
		payloads, err := r.buffer.Drain(ctx, r.threshold)
		if err != nil {
			r.logger.Warn("activity buffer drain failed", zap.Error(err))
			return
		}
		if len(payloads) == 0 {
			return
		}

		entries := make([]domain.ActivityLogEntry, 0, len(payloads))
		for _, payload := range payloads {
			var entry domain.ActivityLogEntry
			if err := json.Unmarshal(payload, &entry); err != nil {
				r.logger.Error("discarding malformed activity payload", zap.Error(err))
				continue
			}
			entries = append(entries, entry)
		}

		if err := r.store.InsertBatch(ctx, entries); err != nil {
			// The popped batch would be lost on bail-out; fall back to
			// row-at-a-time writes.
			r.logger.Warn("activity batch insert failed, retrying individually", zap.Error(err))
			for i := range entries {
				if err := r.store.Insert(ctx, &entries[i]); err != nil {
					r.logger.Error("activity entry lost", zap.String("action", entries[i].Action), zap.Error(err))
				}
			}
		}

		if int64(len(payloads)) < r.threshold {
			return
		}
	}
}

// GetUserActivity pages through a user's trail, optionally filtered.
func (r *Recorder) GetUserActivity(ctx context.Context, userID string, action, entityType *string, page, pageSize int) ([]domain.ActivityLogEntry, error) {
	limit, offset := pageBounds(page, pageSize)
	return r.store.ListByUser(ctx, userID, repository.ActivityFilter{
		Action:     action,
		EntityType: entityType,
		Limit:      limit,
		Offset:     offset,
	})
}

// GetEntityActivity pages through an entity's trail.
func (r *Recorder) GetEntityActivity(ctx context.Context, entityType, entityID string, page, pageSize int) ([]domain.ActivityLogEntry, error) {
	limit, offset := pageBounds(page, pageSize)
	return r.store.ListByEntity(ctx, entityType, entityID, limit, offset)
}

// CleanOldRecords purges entries older than the retention window and
// returns the number deleted.
func (r *Recorder) CleanOldRecords(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = 90
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	count, err := r.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	r.logger.Info("activity retention purge", zap.Int64("deleted", count), zap.Int("days", days))
	return count, nil
}

func pageBounds(page, pageSize int) (limit, offset int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
