package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisRecorder keeps the most recent entries, newest first, in one Redis
// list so history survives between runs without a database.
type RedisRecorder struct {
	client   redis.Cmdable
	key      string
	capacity int
}

var _ Recorder = (*RedisRecorder)(nil)

// NewRedisRecorder returns a recorder that retains at most capacity entries
// under key.
//
// Precondition: client must be non-nil; key must be non-empty; capacity > 0.
func NewRedisRecorder(client redis.Cmdable, key string, capacity int) *RedisRecorder {
	if capacity < 1 {
		capacity = 1
	}
	return &RedisRecorder{client: client, key: key, capacity: capacity}
}

// Record pushes e and trims the list to capacity in one transaction.
func (r *RedisRecorder) Record(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding history entry: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, r.key, data)
		pipe.LTrim(ctx, r.key, 0, int64(r.capacity-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for account, newest first. An empty
// account matches every entry.
func (r *RedisRecorder) Recent(ctx context.Context, account string, limit int) ([]Entry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	raw, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	out := make([]Entry, 0, min(limit, len(raw)))
	for _, item := range raw {
		if len(out) == limit {
			break
		}
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decoding history entry: %w", err)
		}
		if account == "" || strings.EqualFold(e.Account, account) {
			out = append(out, e)
		}
	}
	return out, nil
}
