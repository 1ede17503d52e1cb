package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbxsync/rbxsync-server/internal/metrics"
	"github.com/rbxsync/rbxsync-server/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Broker turns the plugin's poll/respond transport into request/response
// calls. Requests wait in a FIFO queue until the plugin polls for them;
// responses are matched back to their caller by request id.
//
// The mutex guards the queue and the pending map and is never held while
// waiting. Pollers sleep on wake, which is closed and replaced every time
// the queue grows, so every poller wakes and at most one dequeues each
// request.
type Broker struct {
	mu       sync.Mutex
	queue    []models.PluginRequest
	pending  map[uuid.UUID]chan models.PluginResponse
	wake     chan struct{}
	closed   bool
	lastPoll time.Time

	tracer  trace.Tracer
	metrics *metrics.BrokerMetrics
}

// New creates a broker. m may be nil.
func New(m *metrics.BrokerMetrics) *Broker {
	return &Broker{
		pending: make(map[uuid.UUID]chan models.PluginResponse),
		wake:    make(chan struct{}),
		tracer:  otel.Tracer("broker"),
		metrics: m,
	}
}

// Submit queues payload for the plugin and waits for its response, the
// timeout, or ctx. A timeout <= 0 waits on ctx alone.
//
// On timeout the callback is deregistered and ErrTimeout returned; a late
// response for that id is discarded by Deliver. The request itself stays
// queued if no poller has taken it yet. A response with success=false is
// returned as *models.RemoteError.
func (b *Broker) Submit(ctx context.Context, payload models.Payload, timeout time.Duration) (json.RawMessage, error) {
	ctx, span := b.tracer.Start(ctx, "broker.submit")
	defer span.End()

	req, err := models.NewPluginRequest(uuid.New(), payload)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	command := string(req.Command)
	span.SetAttributes(
		attribute.String("request.id", req.ID.String()),
		attribute.String("command", command),
	)

	ch := make(chan models.PluginResponse, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, models.ErrBrokerUnavailable
	}
	b.pending[req.ID] = ch
	b.enqueueLocked(req)
	b.mu.Unlock()

	b.metrics.RecordSubmitted(ctx, command)
	start := time.Now()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			b.metrics.RecordFailed(ctx, command, "unavailable", time.Since(start))
			return nil, models.ErrBrokerUnavailable
		}
		if !resp.Success {
			msg := "plugin reported failure"
			if resp.Error != nil && *resp.Error != "" {
				msg = *resp.Error
			}
			remoteErr := &models.RemoteError{Message: msg}
			span.RecordError(remoteErr)
			b.metrics.RecordFailed(ctx, command, "remote", time.Since(start))
			return nil, remoteErr
		}
		b.metrics.RecordCompleted(ctx, command, time.Since(start))
		return resp.Data, nil

	case <-expired:
		b.forget(req.ID)
		b.metrics.RecordFailed(ctx, command, "timeout", time.Since(start))
		log.Printf(`{"level":"warn","message":"plugin request timed out","request_id":"%s","command":"%s","timeout":"%s"}`, req.ID, command, timeout)
		err := fmt.Errorf("%s after %s: %w", command, timeout, models.ErrTimeout)
		span.RecordError(err)
		return nil, err

	case <-ctx.Done():
		b.forget(req.ID)
		b.metrics.RecordFailed(ctx, command, "canceled", time.Since(start))
		return nil, ctx.Err()
	}
}

// Send queues a request without waiting for a response. Extraction uses it:
// the plugin answers with chunks instead of a response.
func (b *Broker) Send(req models.PluginRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return models.ErrBrokerUnavailable
	}
	b.enqueueLocked(req)
	return nil
}

// Poll waits up to wait for a queued request. It returns false when the
// deadline passes, ctx ends or the broker closes with nothing queued.
func (b *Broker) Poll(ctx context.Context, wait time.Duration) (*models.PluginRequest, bool) {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	for {
		b.mu.Lock()
		b.lastPoll = time.Now()
		if len(b.queue) > 0 {
			req := b.queue[0]
			b.queue[0] = models.PluginRequest{}
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return &req, true
		}
		if b.closed {
			b.mu.Unlock()
			return nil, false
		}
		wake := b.wake
		b.mu.Unlock()

		select {
		case <-wake:
		case <-deadline.C:
			return nil, false
		case <-ctx.Done():
			return nil, false
		}
	}
}

// Deliver hands a plugin response to the caller waiting on its id. It
// returns false when nobody is waiting, for example because the caller
// already timed out.
func (b *Broker) Deliver(resp models.PluginResponse) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.pending[resp.ID]
	if !ok {
		return false
	}
	delete(b.pending, resp.ID)
	// ch is buffered and used once, so this never blocks.
	ch <- resp
	return true
}

// Close fails every waiting Submit with ErrBrokerUnavailable and rejects
// new ones. Blocked pollers return immediately.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.pending {
		close(ch)
		delete(b.pending, id)
	}
	b.queue = nil
	close(b.wake)
}

// QueueLen returns the number of requests waiting for a poller.
func (b *Broker) QueueLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Pending returns the number of callers waiting for a response.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// LastPoll returns when the plugin last polled, or the zero time.
func (b *Broker) LastPoll() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastPoll
}

// Connected reports whether the plugin polled within window.
func (b *Broker) Connected(window time.Duration) bool {
	last := b.LastPoll()
	return !last.IsZero() && time.Since(last) <= window
}

func (b *Broker) enqueueLocked(req models.PluginRequest) {
	b.queue = append(b.queue, req)
	close(b.wake)
	b.wake = make(chan struct{})
}

func (b *Broker) forget(id uuid.UUID) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

