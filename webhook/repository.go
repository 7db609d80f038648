package webhook

import (
	"context"
	"time"
)

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// Stats describes the current contents of a dedupe store.
type Stats struct {
	// TrackedKeys is the number of fingerprint+id pairs currently recorded
	TrackedKeys int64

	// TTL is the retention window applied to recorded pairs
	TTL time.Duration
}

// Store records which fingerprint+id pairs have been processed.
//
// Implementations must make MarkIfNew atomic: two concurrent calls with the
// same key must never both observe "new". The check and the record happen in
// a single exclusive critical section.
type Store interface {
	/* Context is always the first parameter in functions that do I/O
	 * This allows for cancellation, timeouts, and shared values
	 */

	/* MarkIfNew records the key and reports whether it was previously unseen
	 * A reservation is taken even while the dispatch is still in flight, so
	 * a concurrent redelivery short-circuits as a duplicate
	 */
	MarkIfNew(ctx context.Context, key string) (bool, error)

	/* Forget releases a recorded key after a failed dispatch
	 * A later provider redelivery of the same pair is then processed again
	 */
	Forget(ctx context.Context, key string) error

	// Stats returns the current store contents for metrics collection
	Stats(ctx context.Context) (Stats, error)

	Close(ctx context.Context) error
}
