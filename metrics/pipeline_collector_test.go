package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/zipwhip-bridge/metrics"
	"github.com/marcelsud/zipwhip-bridge/webhook"
	"github.com/marcelsud/zipwhip-bridge/webhook/memory"
	"github.com/marcelsud/zipwhip-bridge/webhook/mocks"
)

// staticCounters satisfies the collector's counter source
type staticCounters struct {
	counters webhook.Counters
}

func (s staticCounters) Counters() webhook.Counters {
	return s.counters
}

func TestCollect(t *testing.T) {
	ctx := context.Background()

	t.Run("success - merges counters and store stats", func(t *testing.T) {
		store := memory.NewStore(time.Hour)
		for _, key := range []string{"fp-1:1", "fp-2:2"} {
			_, err := store.MarkIfNew(ctx, key)
			require.NoError(t, err)
		}

		source := staticCounters{counters: webhook.Counters{
			Received:   10,
			Dispatched: 7,
			Duplicates: 2,
			Failures:   1,
			InFlight:   3,
		}}

		collector := metrics.NewPipelineCollector(source, store)
		snapshot, err := collector.Collect(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(10), snapshot.Received)
		assert.Equal(t, int64(7), snapshot.Dispatched)
		assert.Equal(t, int64(2), snapshot.Duplicates)
		assert.Equal(t, int64(1), snapshot.Failures)
		assert.Equal(t, int64(3), snapshot.InFlight)
		assert.Equal(t, int64(2), snapshot.TrackedKeys)
		assert.False(t, snapshot.Timestamp.IsZero())
	})

	t.Run("error - store failure surfaces", func(t *testing.T) {
		store := mocks.NewStore(t)
		store.On("Stats", ctx).Return(webhook.Stats{}, assert.AnError)

		collector := metrics.NewPipelineCollector(staticCounters{}, store)
		_, err := collector.Collect(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "collecting store stats")
	})
}
