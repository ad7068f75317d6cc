package archive

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })

	opts, err := redis.ParseURL(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	return NewRedisStore(redis.NewClient(opts))
}

func sampleRecord(id string) *Record {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	return &Record{
		ID:        id,
		SessionID: id,
		White:     "human",
		Black:     "engine",
		Result:    "black",
		Method:    "checkmate",
		MovesUCI:  []string{"f2f3", "e7e5", "g2g4", "d8h4"},
		MovesSAN:  []string{"f3", "e5", "g4", "Qh4#"},
		PGN:       "1. f3 e5 2. g4 Qh4# 0-1",
		StartedAt: now.Add(-5 * time.Minute),
		EndedAt:   now,
	}
}

func TestRedisSaveAndGet(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, sampleRecord("g1")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "g1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Result != "black" || got.Method != "checkmate" || len(got.MovesSAN) != 4 {
		t.Fatalf("round trip lost data: %+v", got)
	}
}

func TestRedisGetMissing(t *testing.T) {
	s := newTestRedisStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisRecentNewestFirst(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	for _, id := range []string{"g1", "g2", "g3"} {
		if err := s.Save(ctx, sampleRecord(id)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "g3" || recent[1].ID != "g2" {
		t.Fatalf("unexpected order: %+v", recent)
	}
}

func TestRedisSaveRequiresID(t *testing.T) {
	s := newTestRedisStore(t)
	if err := s.Save(context.Background(), &Record{}); err == nil {
		t.Fatalf("expected error for empty ID")
	}
}
