// Package dedup suppresses repeat observations of the same asset within a
// configurable TTL window. Feeds routinely announce a mint more than once
// (multiple log lines, reconnect replays, two feeds seeing the same pool),
// and each asset should only enter the pipeline once per window.
package dedup

import (
	"context"
	"sync"
	"time"
)

// MarkerStore remembers recently seen asset ids for a bounded time.
type MarkerStore interface {
	// Mark records id as seen for the given TTL. Re-marking an id refreshes
	// its expiry.
	Mark(ctx context.Context, id string, ttl time.Duration) error

	// SeenRecently reports whether id was marked within its TTL.
	SeenRecently(ctx context.Context, id string) (bool, error)
}

// MemoryStore is an in-process MarkerStore. Entries expire via timers, so
// the map never grows past the set of ids seen within one TTL window.
type MemoryStore struct {
	mu     sync.Mutex
	seen   map[string]*time.Timer
	closed bool
}

// NewMemoryStore creates an empty in-memory marker store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seen: make(map[string]*time.Timer),
	}
}

// Compile-time interface check.
var _ MarkerStore = (*MemoryStore)(nil)

// Mark records id as seen for ttl. The expiry timer is unconditional: the
// marker lapses after ttl whether or not the id was looked up in between.
func (s *MemoryStore) Mark(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	if timer, ok := s.seen[id]; ok {
		timer.Stop()
	}
	s.seen[id] = time.AfterFunc(ttl, func() {
		s.expire(id)
	})
	return nil
}

// SeenRecently reports whether id has an unexpired marker.
func (s *MemoryStore) SeenRecently(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[id]
	return ok, nil
}

// Close stops all pending expiry timers.
func (s *MemoryStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, timer := range s.seen {
		timer.Stop()
		delete(s.seen, id)
	}
}

func (s *MemoryStore) expire(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, id)
}
