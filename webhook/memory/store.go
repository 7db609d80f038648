package memory

import (
	"context"
	"sync"
	"time"

	"github.com/marcelsud/zipwhip-bridge/webhook"
)

/* In-memory implementation of webhook.Store
 * The single shared instance is owned by main; every in-flight request
 * borrows a handle. Access follows a single-writer-or-many-readers
 * discipline via sync.RWMutex and every critical section is all-or-nothing
 */

// DefaultTTL bounds how long a recorded fingerprint+id pair is retained.
const DefaultTTL = 24 * time.Hour

type Store struct {
	mu        sync.RWMutex
	ttl       time.Duration
	seen      map[string]time.Time
	lastPrune time.Time
}

// NewStore creates an in-memory dedupe store. The zero ttl falls back to
// DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:       ttl,
		seen:      make(map[string]time.Time),
		lastPrune: time.Now(),
	}
}

// MarkIfNew records the key and reports whether it was previously unseen.
// The check and the record happen under a single exclusive lock so two
// concurrent deliveries of the same pair cannot both observe "new".
func (s *Store) MarkIfNew(ctx context.Context, key string) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if recorded, ok := s.seen[key]; ok && now.Sub(recorded) < s.ttl {
		return false, nil
	}

	// Expiry is checked per key above, so a full sweep is only needed
	// often enough to bound the map; once per TTL window keeps writes
	// from serializing on a map-wide walk
	if now.Sub(s.lastPrune) >= s.ttl {
		s.prune(now)
		s.lastPrune = now
	}

	s.seen[key] = now
	return true, nil
}

// Forget releases a recorded key.
func (s *Store) Forget(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.seen, key)
	return nil
}

// Stats returns the current store contents.
func (s *Store) Stats(ctx context.Context) (webhook.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return webhook.Stats{
		TrackedKeys: int64(len(s.seen)),
		TTL:         s.ttl,
	}, nil
}

// Close is a no-op; the store holds no external resources.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

// prune drops every expired entry. Caller must hold the write lock.
func (s *Store) prune(now time.Time) {
	for key, recorded := range s.seen {
		if now.Sub(recorded) >= s.ttl {
			delete(s.seen, key)
		}
	}
}
