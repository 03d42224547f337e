package audit

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Buffer is the fast, volatile staging area for activity entries. Failure of
// any operation is an expected condition the recorder falls back from, never
// a reason to fail a business operation.
type Buffer interface {
	Append(ctx context.Context, payload []byte) (length int64, err error)
	// Drain pops up to max entries from the head of the buffer. Entries that
	// were popped are gone even if the caller subsequently fails; callers own
	// redelivery.
	Drain(ctx context.Context, max int64) ([][]byte, error)
	Len(ctx context.Context) (int64, error)
}

type redisBuffer struct {
	client *redis.Client
	key    string
}

// NewRedisBuffer backs the buffer with a Redis list.
func NewRedisBuffer(client *redis.Client, key string) Buffer {
	return &redisBuffer{client: client, key: key}
}

func (b *redisBuffer) Append(ctx context.Context, payload []byte) (int64, error) {
	return b.client.RPush(ctx, b.key, payload).Result()
}

func (b *redisBuffer) Drain(ctx context.Context, max int64) ([][]byte, error) {
	values, err := b.client.LPopCount(ctx, b.key, int(max)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	payloads := make([][]byte, 0, len(values))
	for _, v := range values {
		payloads = append(payloads, []byte(v))
	}
	return payloads, nil
}

func (b *redisBuffer) Len(ctx context.Context) (int64, error) {
	return b.client.LLen(ctx, b.key).Result()
}
