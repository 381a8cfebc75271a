package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const memoKeyPrefix = "workflow:run:"

type redisMemoStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMemoStore keeps step results in one Redis hash per run, expiring ttl after the last write.
func NewRedisMemoStore(client *redis.Client, ttl time.Duration) MemoStore {
	return &redisMemoStore{client: client, ttl: ttl}
}

func (s *redisMemoStore) Load(ctx context.Context, runID, step string) ([]byte, bool, error) {
	value, err := s.client.HGet(ctx, memoKey(runID), step).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load step %s: %w", step, err)
	}
	return value, true, nil
}

func (s *redisMemoStore) Save(ctx context.Context, runID, step string, value []byte) error {
	key := memoKey(runID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, step, value)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save step %s: %w", step, err)
	}
	return nil
}

func memoKey(runID string) string {
	return memoKeyPrefix + runID + ":steps"
}
