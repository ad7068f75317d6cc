package archive

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is the fallback archive when neither Redis nor Postgres is
// configured. Games survive only for the process lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Record
	ordered []string // newest first
	cap     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]*Record),
		cap:  recentIndexCap,
	}
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	if rec == nil || strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("record with ID required")
	}
	cp := *rec

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[cp.ID]; !exists {
		s.ordered = append([]string{cp.ID}, s.ordered...)
	}
	s.byID[cp.ID] = &cp

	if len(s.ordered) > s.cap {
		for _, id := range s.ordered[s.cap:] {
			delete(s.byID, id)
		}
		s.ordered = s.ordered[:s.cap]
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Record, 0, limit)
	for _, id := range s.ordered {
		if len(out) >= limit {
			break
		}
		if rec, ok := s.byID[id]; ok {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
