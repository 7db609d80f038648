package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/zipwhip-bridge/webhook"
)

// counterSource exposes the pipeline totals kept by the webhook service.
type counterSource interface {
	Counters() webhook.Counters
}

/* PipelineCollector implements Collector over the webhook service's
 * in-process counters and the dedupe store's contents
 */
type PipelineCollector struct {
	service counterSource
	store   webhook.Store
}

// NewPipelineCollector creates a collector backed by the running pipeline
func NewPipelineCollector(service counterSource, store webhook.Store) *PipelineCollector {
	return &PipelineCollector{
		service: service,
		store:   store,
	}
}

// Collect gathers the current pipeline snapshot
func (c *PipelineCollector) Collect(ctx context.Context) (Snapshot, error) {
	counters := c.service.Counters()

	stats, err := c.store.Stats(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("collecting store stats: %w", err)
	}

	return Snapshot{
		Received:    counters.Received,
		Dispatched:  counters.Dispatched,
		Duplicates:  counters.Duplicates,
		Failures:    counters.Failures,
		InFlight:    counters.InFlight,
		TrackedKeys: stats.TrackedKeys,
		Timestamp:   time.Now().UTC(),
	}, nil
}
