package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerMetrics_Creation(t *testing.T) {
	t.Run("successfully create broker metrics", func(t *testing.T) {
		metrics, err := NewBrokerMetrics()
		require.NoError(t, err)
		assert.NotNil(t, metrics)
		assert.NotNil(t, metrics.requestsSubmittedCounter)
		assert.NotNil(t, metrics.requestsCompletedCounter)
		assert.NotNil(t, metrics.requestsFailedCounter)
		assert.NotNil(t, metrics.requestDurationHistogram)
		assert.NotNil(t, metrics.requestsPendingGauge)
	})
}

func TestBrokerMetrics_Lifecycle(t *testing.T) {
	metrics, err := NewBrokerMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("record completed request", func(t *testing.T) {
		assert.NotPanics(t, func() {
			metrics.RecordSubmitted(ctx, "run_code")
			metrics.RecordCompleted(ctx, "run_code", 250*time.Millisecond)
		})
	})

	t.Run("record failed requests with various error types", func(t *testing.T) {
		for _, errorType := range []string{"timeout", "remote", "unavailable", "canceled"} {
			assert.NotPanics(t, func() {
				metrics.RecordSubmitted(ctx, "sync:batch")
				metrics.RecordFailed(ctx, "sync:batch", errorType, time.Second)
			})
		}
	})

	t.Run("nil collector is a no-op", func(t *testing.T) {
		var nilMetrics *BrokerMetrics
		assert.NotPanics(t, func() {
			nilMetrics.RecordSubmitted(ctx, "run_code")
			nilMetrics.RecordCompleted(ctx, "run_code", time.Second)
			nilMetrics.RecordFailed(ctx, "run_code", "timeout", time.Second)
		})
	})
}

func TestSyncMetrics_Creation(t *testing.T) {
	metrics, err := NewSyncMetrics()
	require.NoError(t, err)
	assert.NotNil(t, metrics.chunksReceivedCounter)
	assert.NotNil(t, metrics.chunksRejectedCounter)
	assert.NotNil(t, metrics.sessionsCounter)
	assert.NotNil(t, metrics.syncRunsCounter)
	assert.NotNil(t, metrics.syncOperationsCounter)
	assert.NotNil(t, metrics.syncDurationHistogram)
}

func TestSyncMetrics_Record(t *testing.T) {
	metrics, err := NewSyncMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		metrics.RecordSession(ctx, "started")
		metrics.RecordChunk(ctx, 4096)
		metrics.RecordChunkRejected(ctx, "duplicate")
		metrics.RecordSession(ctx, "finalized")
		metrics.RecordSyncRun(ctx, "applied", 3, 1, 2*time.Second)
		metrics.RecordSyncRun(ctx, "noop", 0, 0, 10*time.Millisecond)
	})

	var nilMetrics *SyncMetrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordChunk(ctx, 1)
		nilMetrics.RecordSyncRun(ctx, "skipped", 0, 0, time.Second)
	})
}
