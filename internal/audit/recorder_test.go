package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// memBuffer is an in-process stand-in for the redis list.
type memBuffer struct {
	mu       sync.Mutex
	payloads [][]byte
	failing  bool
}

func (b *memBuffer) Append(_ context.Context, payload []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return 0, errors.New("buffer down")
	}
	b.payloads = append(b.payloads, payload)
	return int64(len(b.payloads)), nil
}

func (b *memBuffer) Drain(_ context.Context, max int64) ([][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return nil, errors.New("buffer down")
	}
	n := int64(len(b.payloads))
	if n > max {
		n = max
	}
	drained := b.payloads[:n]
	b.payloads = b.payloads[n:]
	return drained, nil
}

func (b *memBuffer) Len(_ context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return 0, errors.New("buffer down")
	}
	return int64(len(b.payloads)), nil
}

type memStore struct {
	mu          sync.Mutex
	entries     []domain.ActivityLogEntry
	failBatch   bool
	failInserts int
}

func (s *memStore) Insert(_ context.Context, entry *domain.ActivityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInserts > 0 {
		s.failInserts--
		return errors.New("insert failed")
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memStore) InsertBatch(_ context.Context, entries []domain.ActivityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failBatch {
		return errors.New("batch failed")
	}
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *memStore) ListByUser(_ context.Context, userID string, filter repository.ActivityFilter) ([]domain.ActivityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.ActivityLogEntry
	for _, entry := range s.entries {
		if entry.UserID == nil || *entry.UserID != userID {
			continue
		}
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

func (s *memStore) ListByEntity(_ context.Context, entityType, entityID string, _, _ int) ([]domain.ActivityLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.ActivityLogEntry
	for _, entry := range s.entries {
		if entry.EntityType != nil && *entry.EntityType == entityType &&
			entry.EntityID != nil && *entry.EntityID == entityID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (s *memStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []domain.ActivityLogEntry
	var deleted int64
	for _, entry := range s.entries {
		if entry.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	s.entries = kept
	return deleted, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func entry(action string) domain.ActivityLogEntry {
	userID := "usr-1"
	entityType := "ticket"
	entityID := "tkt-1"
	return domain.ActivityLogEntry{
		UserID:     &userID,
		Action:     action,
		EntityType: &entityType,
		EntityID:   &entityID,
		NewValues:  map[string]any{"status": "OPEN"},
	}
}

func TestRecorderBuffersUntilThreshold(t *testing.T) {
	ctx := context.Background()
	buffer := &memBuffer{}
	store := &memStore{}
	recorder := NewRecorder(buffer, store, zap.NewNop(), 5)

	for i := 0; i < 4; i++ {
		recorder.Record(ctx, entry("ticket.created"))
	}
	assert.Equal(t, 0, store.count())

	length, err := buffer.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), length)

	// Fifth entry crosses the threshold and triggers an inline flush.
	recorder.Record(ctx, entry("ticket.created"))
	assert.Equal(t, 5, store.count())

	length, err = buffer.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestRecorderFlushRoundTrip(t *testing.T) {
	ctx := context.Background()
	buffer := &memBuffer{}
	store := &memStore{}
	recorder := NewRecorder(buffer, store, zap.NewNop(), 50)

	recorder.Record(ctx, entry("ticket.created"))
	recorder.Record(ctx, entry("ticket.resolved"))
	recorder.Flush(ctx)

	require.Equal(t, 2, store.count())
	got := store.entries[0]
	require.NotNil(t, got.UserID)
	assert.Equal(t, "usr-1", *got.UserID)
	assert.Equal(t, "ticket.created", got.Action)
	assert.Equal(t, "OPEN", got.NewValues["status"])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRecorderFallsBackToDirectWrite(t *testing.T) {
	ctx := context.Background()
	buffer := &memBuffer{failing: true}
	store := &memStore{}
	recorder := NewRecorder(buffer, store, zap.NewNop(), 50)

	recorder.Record(ctx, entry("ticket.created"))

	// The entry lands durably even though the buffer is down.
	assert.Equal(t, 1, store.count())
}

func TestRecorderRetriesBatchFailureRowByRow(t *testing.T) {
	ctx := context.Background()
	buffer := &memBuffer{}
	store := &memStore{failBatch: true}
	recorder := NewRecorder(buffer, store, zap.NewNop(), 50)

	recorder.Record(ctx, entry("a"))
	recorder.Record(ctx, entry("b"))
	recorder.Record(ctx, entry("c"))
	recorder.Flush(ctx)

	assert.Equal(t, 3, store.count())
}

func TestGetUserActivityFilters(t *testing.T) {
	ctx := context.Background()
	buffer := &memBuffer{}
	store := &memStore{}
	recorder := NewRecorder(buffer, store, zap.NewNop(), 50)

	recorder.Record(ctx, entry("ticket.created"))
	recorder.Record(ctx, entry("ticket.resolved"))
	recorder.Flush(ctx)

	action := "ticket.resolved"
	entries, err := recorder.GetUserActivity(ctx, "usr-1", &action, nil, 1, 20)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ticket.resolved", entries[0].Action)

	entries, err = recorder.GetEntityActivity(ctx, "ticket", "tkt-1", 1, 20)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCleanOldRecords(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	recorder := NewRecorder(&memBuffer{}, store, zap.NewNop(), 50)

	old := entry("ticket.created")
	old.CreatedAt = time.Now().AddDate(0, 0, -120)
	fresh := entry("ticket.created")
	fresh.CreatedAt = time.Now()
	require.NoError(t, store.Insert(ctx, &old))
	require.NoError(t, store.Insert(ctx, &fresh))

	deleted, err := recorder.CleanOldRecords(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, 1, store.count())
}
