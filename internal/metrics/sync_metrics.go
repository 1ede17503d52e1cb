package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetrics provides metrics collection for extraction sessions and sync runs
type SyncMetrics struct {
	chunksReceivedCounter metric.Int64Counter
	chunksRejectedCounter metric.Int64Counter
	sessionsCounter       metric.Int64Counter
	syncRunsCounter       metric.Int64Counter
	syncOperationsCounter metric.Int64Counter
	syncDurationHistogram metric.Float64Histogram
}

// NewSyncMetrics creates a new sync metrics collector
func NewSyncMetrics() (*SyncMetrics, error) {
	chunksReceivedCounter, err := meter.Int64Counter(
		"rbxsync.extract.chunks.received",
		metric.WithDescription("Total number of extraction chunks accepted"),
		metric.WithUnit("{chunk}"),
	)
	if err != nil {
		return nil, err
	}

	chunksRejectedCounter, err := meter.Int64Counter(
		"rbxsync.extract.chunks.rejected",
		metric.WithDescription("Total number of extraction chunks rejected"),
		metric.WithUnit("{chunk}"),
	)
	if err != nil {
		return nil, err
	}

	sessionsCounter, err := meter.Int64Counter(
		"rbxsync.extract.sessions",
		metric.WithDescription("Extraction session transitions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	syncRunsCounter, err := meter.Int64Counter(
		"rbxsync.sync.runs",
		metric.WithDescription("Total number of sync runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	syncOperationsCounter, err := meter.Int64Counter(
		"rbxsync.sync.operations",
		metric.WithDescription("Total number of sync operations sent to the plugin"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	syncDurationHistogram, err := meter.Float64Histogram(
		"rbxsync.sync.duration",
		metric.WithDescription("Duration of sync runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		chunksReceivedCounter: chunksReceivedCounter,
		chunksRejectedCounter: chunksRejectedCounter,
		sessionsCounter:       sessionsCounter,
		syncRunsCounter:       syncRunsCounter,
		syncOperationsCounter: syncOperationsCounter,
		syncDurationHistogram: syncDurationHistogram,
	}, nil
}

// RecordChunk records an accepted chunk
func (sm *SyncMetrics) RecordChunk(ctx context.Context, bytes int) {
	if sm == nil {
		return
	}
	sm.chunksReceivedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Int("chunk.bytes", bytes),
		),
	)
}

// RecordChunkRejected records a rejected chunk with the reason
func (sm *SyncMetrics) RecordChunkRejected(ctx context.Context, reason string) {
	if sm == nil {
		return
	}
	sm.chunksRejectedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("reason", reason),
		),
	)
}

// RecordSession records an extraction session entering state
func (sm *SyncMetrics) RecordSession(ctx context.Context, state string) {
	if sm == nil {
		return
	}
	sm.sessionsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("state", state),
		),
	)
}

// RecordSyncRun records a finished sync run
func (sm *SyncMetrics) RecordSyncRun(ctx context.Context, outcome string, upserts, deletes int, duration time.Duration) {
	if sm == nil {
		return
	}
	sm.syncRunsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("outcome", outcome),
		),
	)
	sm.syncOperationsCounter.Add(ctx, int64(upserts),
		metric.WithAttributes(
			attribute.String("operation", "upsert"),
		),
	)
	sm.syncOperationsCounter.Add(ctx, int64(deletes),
		metric.WithAttributes(
			attribute.String("operation", "delete"),
		),
	)
	sm.syncDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("outcome", outcome),
		),
	)
}
