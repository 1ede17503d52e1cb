package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rbxsync/rbxsync-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

type submitResult struct {
	data json.RawMessage
	err  error
}

func submitAsync(b *Broker, payload models.Payload, timeout time.Duration) <-chan submitResult {
	out := make(chan submitResult, 1)
	go func() {
		data, err := b.Submit(context.Background(), payload, timeout)
		out <- submitResult{data: data, err: err}
	}()
	return out
}

func mustPoll(t *testing.T, b *Broker) *models.PluginRequest {
	t.Helper()
	req, ok := b.Poll(context.Background(), 2*time.Second)
	require.True(t, ok, "expected a queued request")
	return req
}

func TestBroker_CorrelatesOutOfOrderResponses(t *testing.T) {
	b := New(nil)

	first := submitAsync(b, models.RunCodePayload{Code: "return 1"}, 5*time.Second)
	reqA := mustPoll(t, b)
	second := submitAsync(b, models.RunCodePayload{Code: "return 2"}, 5*time.Second)
	reqB := mustPoll(t, b)

	assert.NotEqual(t, reqA.ID, reqB.ID)
	assert.JSONEq(t, `{"code":"return 1"}`, string(reqA.Payload))
	assert.JSONEq(t, `{"code":"return 2"}`, string(reqB.Payload))

	// Answer the second request first.
	require.True(t, b.Deliver(models.PluginResponse{ID: reqB.ID, Success: true, Data: json.RawMessage(`"two"`)}))
	require.True(t, b.Deliver(models.PluginResponse{ID: reqA.ID, Success: true, Data: json.RawMessage(`"one"`)}))

	resA := <-first
	resB := <-second
	require.NoError(t, resA.err)
	require.NoError(t, resB.err)
	assert.Equal(t, `"one"`, string(resA.data))
	assert.Equal(t, `"two"`, string(resB.data))
	assert.Equal(t, 0, b.Pending())
}

func TestBroker_TimeoutThenLateDeliver(t *testing.T) {
	b := New(nil)

	_, err := b.Submit(context.Background(), models.SyncDiffPayload{}, 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrTimeout))
	assert.Equal(t, 0, b.Pending(), "the callback must be deregistered")

	// The request is still queued for a poller that shows up late.
	req := mustPoll(t, b)
	assert.False(t, b.Deliver(models.PluginResponse{ID: req.ID, Success: true}), "late response must be discarded")

	// The broker keeps working for the next caller.
	next := submitAsync(b, models.SyncDiffPayload{}, 2*time.Second)
	req2 := mustPoll(t, b)
	assert.NotEqual(t, req.ID, req2.ID)
	require.True(t, b.Deliver(models.PluginResponse{ID: req2.ID, Success: true, Data: json.RawMessage(`{"paths":[]}`)}))
	res := <-next
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"paths":[]}`, string(res.data))
}

func TestBroker_RemoteError(t *testing.T) {
	b := New(nil)

	result := submitAsync(b, models.InsertModelPayload{AssetID: 1}, 2*time.Second)
	req := mustPoll(t, b)
	b.Deliver(models.PluginResponse{ID: req.ID, Success: false, Error: strPtr("Asset is not trusted")})

	res := <-result
	var remote *models.RemoteError
	require.True(t, errors.As(res.err, &remote))
	assert.Equal(t, "Asset is not trusted", res.err.Error())
}

func TestBroker_UnknownResponseIsDiscarded(t *testing.T) {
	b := New(nil)
	assert.False(t, b.Deliver(models.PluginResponse{ID: uuid.New(), Success: true}))
	assert.Equal(t, 0, b.QueueLen())
}

func TestBroker_PollDeadlineWithEmptyQueue(t *testing.T) {
	b := New(nil)

	start := time.Now()
	req, ok := b.Poll(context.Background(), 50*time.Millisecond)
	assert.False(t, ok)
	assert.Nil(t, req)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.False(t, b.LastPoll().IsZero())
	assert.True(t, b.Connected(time.Minute))
}

func TestBroker_PollRespectsContext(t *testing.T) {
	b := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, ok := b.Poll(ctx, 5*time.Second)
	assert.False(t, ok)
}

func TestBroker_ManyPollersSingleDequeue(t *testing.T) {
	b := New(nil)

	var got atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := b.Poll(context.Background(), 300*time.Millisecond); ok {
				got.Add(1)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	req, err := models.NewPluginRequest(uuid.New(), models.RunCodePayload{Code: "x"})
	require.NoError(t, err)
	require.NoError(t, b.Send(req))

	wg.Wait()
	assert.Equal(t, int32(1), got.Load())
	assert.Equal(t, 0, b.QueueLen())
}

func TestBroker_FIFO(t *testing.T) {
	b := New(nil)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		req, err := models.NewPluginRequest(uuid.New(), models.RunCodePayload{Code: "x"})
		require.NoError(t, err)
		require.NoError(t, b.Send(req))
		ids = append(ids, req.ID)
	}

	for _, id := range ids {
		assert.Equal(t, id, mustPoll(t, b).ID)
	}
}

func TestBroker_SubmitCanceled(t *testing.T) {
	b := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Submit(ctx, models.RunCodePayload{Code: "x"}, time.Second)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, b.Pending())
}

func TestBroker_Close(t *testing.T) {
	b := New(nil)

	result := submitAsync(b, models.RunCodePayload{Code: "x"}, 5*time.Second)
	require.Eventually(t, func() bool { return b.Pending() == 1 }, time.Second, 5*time.Millisecond)

	b.Close()

	res := <-result
	assert.True(t, errors.Is(res.err, models.ErrBrokerUnavailable))

	_, err := b.Submit(context.Background(), models.RunCodePayload{Code: "y"}, time.Second)
	assert.True(t, errors.Is(err, models.ErrBrokerUnavailable))

	_, ok := b.Poll(context.Background(), time.Second)
	assert.False(t, ok)

	assert.NotPanics(t, b.Close)
}
