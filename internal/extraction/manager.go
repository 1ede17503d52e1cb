// Package extraction tracks the single chunked extraction the plugin streams
// to the server, and turns the collected chunks into a project tree.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbxsync/rbxsync-server/internal/events"
	"github.com/rbxsync/rbxsync-server/internal/metrics"
	"github.com/rbxsync/rbxsync-server/internal/models"
	"github.com/rbxsync/rbxsync-server/internal/rbxtypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// State is the lifecycle state of an extraction session.
type State string

const (
	StateIdle      State = "idle"
	StateStarted   State = "started"
	StateReceiving State = "receiving"
	StateComplete  State = "complete"
	StateFinalized State = "finalized"
)

var (
	ErrSessionActive     = errors.New("an extraction is already in progress")
	ErrNoActiveSession   = errors.New("no active extraction session")
	ErrChunkOutOfRange   = errors.New("chunk index out of range")
	ErrTotalMismatch     = errors.New("total chunk count changed")
	ErrDuplicateChunk    = errors.New("chunk already received with different data")
	ErrIncomplete        = errors.New("extraction is not complete")
	ErrFinalizeRunning   = errors.New("extraction is already being finalized")
	ErrInvalidTransition = errors.New("invalid state transition")
)

// validTransitions lists the states each state may move to. Every state may
// return to idle through Reset.
var validTransitions = map[State][]State{
	StateIdle:      {StateStarted},
	StateStarted:   {StateReceiving, StateIdle},
	StateReceiving: {StateComplete, StateIdle},
	StateComplete:  {StateFinalized, StateStarted, StateIdle},
	StateFinalized: {StateStarted, StateIdle},
}

func validateTransition(from, to State) error {
	for _, s := range validTransitions[from] {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Sender queues a command for the plugin without waiting for an answer.
// *broker.Broker implements it.
type Sender interface {
	Send(req models.PluginRequest) error
}

// Writer lays out an instance tree under a project directory.
// *project.Writer implements it.
type Writer interface {
	Write(projectDir string, roots []rbxtypes.Instance) (int, error)
}

// FinalizeHook runs after a project tree has been written.
type FinalizeHook func(ctx context.Context, projectDir string) error

// Status is a snapshot of the active session.
type Status struct {
	SessionID      uuid.UUID
	State          State
	ChunksReceived int
	TotalChunks    *int
	Complete       bool
	StartedAt      time.Time
}

// Result describes a finalized extraction.
type Result struct {
	FilesWritten int
	Instances    int
	Warnings     []string
}

type session struct {
	id        uuid.UUID
	state     State
	total     int // 0 until the first chunk arrives
	chunks    map[int]json.RawMessage
	startedAt time.Time
}

func (s *session) complete() bool {
	return s.total > 0 && len(s.chunks) == s.total
}

func (s *session) active() bool {
	return s.state == StateStarted || s.state == StateReceiving
}

func (s *session) transition(to State) error {
	if err := validateTransition(s.state, to); err != nil {
		return err
	}
	s.state = to
	return nil
}

// Manager owns the extraction session. At most one session exists at a
// time; a session that reached complete or finalized is replaced by the
// next Start.
type Manager struct {
	mu         sync.Mutex
	current    *session
	finalizing bool

	sender  Sender
	writer  Writer
	onFinal FinalizeHook
	tracer  trace.Tracer
	metrics *metrics.SyncMetrics
	events  events.Publisher
}

// NewManager creates an extraction manager.
func NewManager(sender Sender, writer Writer) *Manager {
	return &Manager{
		sender: sender,
		writer: writer,
		tracer: otel.Tracer("extraction"),
		events: events.Discard,
	}
}

// SetMetrics attaches a metrics collector.
func (m *Manager) SetMetrics(sm *metrics.SyncMetrics) {
	m.metrics = sm
}

// SetPublisher attaches an event publisher.
func (m *Manager) SetPublisher(p events.Publisher) {
	m.events = p
}

// OnFinalized registers a hook that runs after Finalize writes the tree.
// Its error is reported as a warning.
func (m *Manager) OnFinalized(hook FinalizeHook) {
	m.onFinal = hook
}

// Start opens a new session and sends extract:start to the plugin with the
// session id as request id.
func (m *Manager) Start(ctx context.Context, payload models.ExtractStartPayload) (uuid.UUID, error) {
	ctx, span := m.tracer.Start(ctx, "extraction.start")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.active() {
		return uuid.Nil, ErrSessionActive
	}
	if m.finalizing {
		return uuid.Nil, ErrFinalizeRunning
	}

	next := &session{
		id:        uuid.New(),
		state:     StateIdle,
		chunks:    make(map[int]json.RawMessage),
		startedAt: time.Now(),
	}
	if err := next.transition(StateStarted); err != nil {
		return uuid.Nil, err
	}

	req, err := models.NewPluginRequest(next.id, payload)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, err
	}
	if err := m.sender.Send(req); err != nil {
		span.RecordError(err)
		return uuid.Nil, fmt.Errorf("failed to queue extraction: %w", err)
	}

	m.current = next
	span.SetAttributes(attribute.String("session.id", next.id.String()))
	m.metrics.RecordSession(ctx, string(StateStarted))
	m.events.Publish(models.NewEvent(models.EventTypeExtractStarted, map[string]interface{}{
		"sessionId": next.id.String(),
		"services":  payload.Services,
	}))
	log.Printf(`{"level":"info","message":"extraction started","session_id":"%s"}`, next.id)
	return next.id, nil
}

// ReceiveChunk stores one chunk. It returns the number of distinct chunks
// received and the announced total. A chunk that repeats an earlier one
// byte-for-byte (ignoring whitespace) is accepted again without effect.
func (m *Manager) ReceiveChunk(ctx context.Context, id uuid.UUID, index, total int, data json.RawMessage) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.current
	if s == nil || !(s.active() || s.state == StateComplete) {
		m.metrics.RecordChunkRejected(ctx, "no_session")
		return 0, 0, ErrNoActiveSession
	}
	if id != s.id {
		m.metrics.RecordChunkRejected(ctx, "invalid_session")
		return 0, 0, models.ErrInvalidSession
	}
	if total <= 0 || index < 0 || index >= total {
		m.metrics.RecordChunkRejected(ctx, "out_of_range")
		return 0, 0, fmt.Errorf("%w: index %d of %d", ErrChunkOutOfRange, index, total)
	}
	if s.total != 0 && s.total != total {
		m.metrics.RecordChunkRejected(ctx, "total_mismatch")
		return 0, 0, fmt.Errorf("%w: was %d, now %d", ErrTotalMismatch, s.total, total)
	}

	if prev, ok := s.chunks[index]; ok {
		if sameJSON(prev, data) {
			return len(s.chunks), s.total, nil
		}
		m.metrics.RecordChunkRejected(ctx, "duplicate")
		return 0, 0, fmt.Errorf("%w: index %d", ErrDuplicateChunk, index)
	}

	if s.state == StateStarted {
		if err := s.transition(StateReceiving); err != nil {
			return 0, 0, err
		}
	}
	s.total = total
	s.chunks[index] = append(json.RawMessage(nil), data...)
	m.metrics.RecordChunk(ctx, len(data))

	received := len(s.chunks)
	m.events.Publish(models.NewEvent(models.EventTypeExtractChunk, map[string]interface{}{
		"sessionId": s.id.String(),
		"received":  received,
		"total":     total,
	}))

	if s.complete() {
		if err := s.transition(StateComplete); err != nil {
			return 0, 0, err
		}
		m.metrics.RecordSession(ctx, string(StateComplete))
		m.events.Publish(models.NewEvent(models.EventTypeExtractComplete, map[string]interface{}{
			"sessionId": s.id.String(),
			"chunks":    total,
		}))
		log.Printf(`{"level":"info","message":"extraction complete","session_id":"%s","chunks":%d}`, s.id, total)
	}
	return received, total, nil
}

func sameJSON(a, b []byte) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

// Status reports the active session. It returns false when none was
// started since the last reset or finalize.
func (m *Manager) Status() (Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.current
	if s == nil {
		return Status{}, false
	}
	st := Status{
		SessionID:      s.id,
		State:          s.state,
		ChunksReceived: len(s.chunks),
		Complete:       s.state == StateComplete || s.state == StateFinalized,
		StartedAt:      s.startedAt,
	}
	if s.total > 0 {
		total := s.total
		st.TotalChunks = &total
	}
	return st, true
}

// Finalize merges the chunks of a complete session in index order, writes
// the instance tree under projectDir and runs the finalize hook. Values
// that cannot be decoded are dropped and reported as warnings.
func (m *Manager) Finalize(ctx context.Context, id uuid.UUID, projectDir string) (*Result, error) {
	ctx, span := m.tracer.Start(ctx, "extraction.finalize")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", id.String()),
		attribute.String("project_dir", projectDir),
	)

	chunks, err := m.beginFinalize(id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer func() {
		m.mu.Lock()
		m.finalizing = false
		m.mu.Unlock()
	}()

	var roots []rbxtypes.Instance
	var warnings []string
	for i, chunk := range chunks {
		instances, warns, err := rbxtypes.DecodeInstances(chunk)
		if err != nil {
			err = fmt.Errorf("failed to decode chunk %d: %w", i, err)
			span.RecordError(err)
			return nil, err
		}
		for _, w := range warns {
			warnings = append(warnings, w.Error())
		}
		roots = append(roots, instances...)
	}

	files, err := m.writer.Write(projectDir, roots)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to write project: %w", err)
	}

	if m.onFinal != nil {
		if err := m.onFinal(ctx, projectDir); err != nil {
			log.Printf(`{"level":"warn","message":"finalize hook failed","project_dir":"%s","error":"%v"}`, projectDir, err)
			warnings = append(warnings, err.Error())
		}
	}

	instances := 0
	for i := range roots {
		instances += roots[i].Count()
	}

	// A finalized session is no longer active; the next Start begins fresh.
	m.mu.Lock()
	if m.current != nil && m.current.id == id {
		if err := m.current.transition(StateFinalized); err == nil {
			m.current = nil
		}
	}
	m.mu.Unlock()

	span.SetAttributes(
		attribute.Int("files_written", files),
		attribute.Int("instances", instances),
	)
	m.metrics.RecordSession(ctx, string(StateFinalized))
	m.events.Publish(models.NewEvent(models.EventTypeExtractFinalized, map[string]interface{}{
		"sessionId":    id.String(),
		"projectDir":   projectDir,
		"filesWritten": files,
		"instances":    instances,
	}))
	log.Printf(`{"level":"info","message":"extraction finalized","session_id":"%s","files_written":%d,"instances":%d,"warnings":%d}`,
		id, files, instances, len(warnings))

	return &Result{FilesWritten: files, Instances: instances, Warnings: warnings}, nil
}

// beginFinalize checks the session and returns its chunks in index order.
func (m *Manager) beginFinalize(id uuid.UUID) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.current
	if s == nil || s.state == StateFinalized {
		return nil, ErrNoActiveSession
	}
	if id != s.id {
		return nil, models.ErrInvalidSession
	}
	if s.state != StateComplete {
		return nil, fmt.Errorf("%w: %d of %d chunks", ErrIncomplete, len(s.chunks), s.total)
	}
	if m.finalizing {
		return nil, ErrFinalizeRunning
	}
	m.finalizing = true

	indices := make([]int, 0, len(s.chunks))
	for i := range s.chunks {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	chunks := make([]json.RawMessage, 0, len(indices))
	for _, i := range indices {
		chunks = append(chunks, s.chunks[i])
	}
	return chunks, nil
}

// Reset abandons the current session and returns its id, or uuid.Nil when
// there was none. Chunks that arrive for it afterwards are rejected.
func (m *Manager) Reset(ctx context.Context) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finalizing {
		return uuid.Nil, ErrFinalizeRunning
	}
	s := m.current
	if s == nil {
		return uuid.Nil, nil
	}
	if err := s.transition(StateIdle); err != nil {
		return uuid.Nil, err
	}
	m.current = nil
	m.metrics.RecordSession(ctx, "reset")
	m.events.Publish(models.NewEvent(models.EventTypeExtractReset, map[string]interface{}{
		"sessionId": s.id.String(),
	}))
	log.Printf(`{"level":"info","message":"extraction reset","session_id":"%s"}`, s.id)
	return s.id, nil
}
