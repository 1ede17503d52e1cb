package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("rbxsync")

// BrokerMetrics provides metrics collection for plugin requests
type BrokerMetrics struct {
	requestsSubmittedCounter metric.Int64Counter
	requestsCompletedCounter metric.Int64Counter
	requestsFailedCounter    metric.Int64Counter
	requestDurationHistogram metric.Float64Histogram
	requestsPendingGauge     metric.Int64UpDownCounter
}

// NewBrokerMetrics creates a new broker metrics collector
func NewBrokerMetrics() (*BrokerMetrics, error) {
	requestsSubmittedCounter, err := meter.Int64Counter(
		"rbxsync.broker.requests.submitted",
		metric.WithDescription("Total number of requests queued for the plugin"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestsCompletedCounter, err := meter.Int64Counter(
		"rbxsync.broker.requests.completed",
		metric.WithDescription("Total number of requests the plugin answered successfully"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestsFailedCounter, err := meter.Int64Counter(
		"rbxsync.broker.requests.failed",
		metric.WithDescription("Total number of requests that failed or timed out"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestDurationHistogram, err := meter.Float64Histogram(
		"rbxsync.broker.request.duration",
		metric.WithDescription("Round-trip time of plugin requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestsPendingGauge, err := meter.Int64UpDownCounter(
		"rbxsync.broker.requests.pending",
		metric.WithDescription("Number of requests waiting for a plugin response"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &BrokerMetrics{
		requestsSubmittedCounter: requestsSubmittedCounter,
		requestsCompletedCounter: requestsCompletedCounter,
		requestsFailedCounter:    requestsFailedCounter,
		requestDurationHistogram: requestDurationHistogram,
		requestsPendingGauge:     requestsPendingGauge,
	}, nil
}

// RecordSubmitted records a request entering the queue. A nil collector is a no-op.
func (bm *BrokerMetrics) RecordSubmitted(ctx context.Context, command string) {
	if bm == nil {
		return
	}
	bm.requestsSubmittedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("command", command),
		),
	)
	bm.requestsPendingGauge.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("command", command),
		),
	)
}

// RecordCompleted records a successful response
func (bm *BrokerMetrics) RecordCompleted(ctx context.Context, command string, duration time.Duration) {
	if bm == nil {
		return
	}
	bm.requestsCompletedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("status", "completed"),
		),
	)
	bm.requestDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("status", "completed"),
		),
	)
	bm.requestsPendingGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("command", command),
		),
	)
}

// RecordFailed records a request that failed, timed out or was abandoned
func (bm *BrokerMetrics) RecordFailed(ctx context.Context, command, errorType string, duration time.Duration) {
	if bm == nil {
		return
	}
	bm.requestsFailedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("status", "failed"),
			attribute.String("error.type", errorType),
		),
	)
	bm.requestDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("status", "failed"),
		),
	)
	bm.requestsPendingGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("command", command),
		),
	)
}
