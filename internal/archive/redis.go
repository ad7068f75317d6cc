package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ttlGame        = 30 * 24 * time.Hour
	recentIndexCap = 200
)

// RedisStore keeps finished games as JSON blobs with a bounded recency list.
type RedisStore struct{ rdb *redis.Client }

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) keyGame(id string) string { return "lab:game:" + strings.TrimSpace(id) }
func (s *RedisStore) keyRecent() string        { return "lab:games:recent" }

func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil || strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("record with ID required")
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.keyGame(rec.ID), raw, ttlGame).Err(); err != nil {
		return err
	}
	if err := s.rdb.LPush(ctx, s.keyRecent(), rec.ID).Err(); err != nil {
		return err
	}
	// keep the index bounded; stragglers past cap just fall off
	if err := s.rdb.LTrim(ctx, s.keyRecent(), 0, recentIndexCap-1).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, s.keyRecent(), ttlGame).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, s.keyGame(id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 10
	}
	ids, err := s.rdb.LRange(ctx, s.keyRecent(), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err != nil {
			// expired blob still indexed; skip it
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
