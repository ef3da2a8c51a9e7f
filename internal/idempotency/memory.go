package idempotency

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a single-process Store used when no REDIS_URL is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time

	lastSweep time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Begin(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := scopedKey(key)
	now := s.now()
	s.sweep(now)
	if e, ok := s.entries[k]; ok && now.Before(e.expiresAt) {
		if e.value == pendingMarker {
			return "", false, ErrInProgress
		}
		return e.value, false, nil
	}

	s.entries[k] = entry{value: pendingMarker, expiresAt: now.Add(s.ttl)}
	return "", true, nil
}

func (s *MemoryStore) Complete(_ context.Context, key, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[scopedKey(key)] = entry{value: orderID, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Abort(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, scopedKey(key))
	return nil
}

// sweep drops expired entries, at most once per minute.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < time.Minute {
		return
	}
	s.lastSweep = now
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
