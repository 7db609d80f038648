package metrics

import (
	"context"
	"time"
)

// Snapshot represents the current state of the bridge pipeline.
type Snapshot struct {
	// Received is the total number of webhook deliveries accepted for processing
	Received int64 `json:"received"`

	// Dispatched is the total number of successful downstream dispatches
	Dispatched int64 `json:"dispatched"`

	// Duplicates is the total number of deliveries short-circuited by the dedupe store
	Duplicates int64 `json:"duplicates"`

	// Failures is the total number of deliveries whose dispatch ultimately failed
	Failures int64 `json:"failures"`

	// InFlight is the number of deliveries currently being processed
	InFlight int64 `json:"in_flight"`

	// TrackedKeys is the number of fingerprint+id pairs in the dedupe store
	TrackedKeys int64 `json:"tracked_keys"`

	// Timestamp when the snapshot was collected
	Timestamp time.Time `json:"timestamp"`
}

// Collector defines the interface for collecting metrics from the bridge.
type Collector interface {
	// Collect gathers the current pipeline snapshot
	Collect(ctx context.Context) (Snapshot, error)
}
