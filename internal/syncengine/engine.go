// Package syncengine pushes local file changes to the host. Each run diffs
// the project tree against the watermark, sends one ordered batch of
// upserts and deletes, and advances the watermark only for what the host
// applied.
package syncengine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rbxsync/rbxsync-server/internal/events"
	"github.com/rbxsync/rbxsync-server/internal/metrics"
	"github.com/rbxsync/rbxsync-server/internal/models"
	"github.com/rbxsync/rbxsync-server/internal/project"
	"github.com/rbxsync/rbxsync-server/internal/watermark"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Submitter sends a command to the plugin and waits for the result.
// *broker.Broker implements it.
type Submitter interface {
	Submit(ctx context.Context, payload models.Payload, timeout time.Duration) (json.RawMessage, error)
}

// Options controls one sync run.
type Options struct {
	ProjectDir string
	// Delete also removes host instances that have no files on disk.
	Delete bool
}

// Engine runs incremental syncs.
type Engine struct {
	broker  Submitter
	store   watermark.Store
	timeout time.Duration
	tracer  trace.Tracer
	metrics *metrics.SyncMetrics
	events  events.Publisher
	now     func() time.Time
}

// New creates an engine. timeout bounds each plugin call.
func New(broker Submitter, store watermark.Store, timeout time.Duration) *Engine {
	return &Engine{
		broker:  broker,
		store:   store,
		timeout: timeout,
		tracer:  otel.Tracer("syncengine"),
		events:  events.Discard,
		now:     time.Now,
	}
}

// SetMetrics attaches a metrics collector.
func (e *Engine) SetMetrics(m *metrics.SyncMetrics) {
	e.metrics = m
}

// SetPublisher attaches an event publisher.
func (e *Engine) SetPublisher(p events.Publisher) {
	e.events = p
}

// plan is the outcome of diffing the tree against the watermark.
type plan struct {
	project  string
	entries  []project.Entry
	records  map[string]watermark.Record
	upserts  []project.Entry
	invalid  []models.OperationError
	fullSync bool
}

func (e *Engine) plan(ctx context.Context, projectDir string) (*plan, error) {
	entries, err := project.Scan(projectDir)
	if err != nil {
		return nil, err
	}

	key := watermark.ProjectKey(projectDir)
	records, err := e.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load watermark: %w", err)
	}

	p := &plan{
		project:  key,
		entries:  entries,
		records:  records,
		fullSync: len(records) == 0,
	}
	for _, entry := range entries {
		if entry.Err != nil {
			p.invalid = append(p.invalid, models.OperationError{Path: entry.Path, Error: entry.Err.Error()})
			continue
		}
		if rec, ok := records[entry.Key]; ok && rec.Hash == entry.Hash && rec.Path == entry.Path {
			continue
		}
		p.upserts = append(p.upserts, entry)
	}
	sort.SliceStable(p.upserts, func(i, j int) bool { return p.upserts[i].Path < p.upserts[j].Path })
	return p, nil
}

// Run performs one sync. A host refusal is reported through
// SyncResult.Skipped with a nil error. When some operations fail the
// result is returned together with a *models.PartialBatchError.
func (e *Engine) Run(ctx context.Context, opts Options) (*models.SyncResult, error) {
	ctx, span := e.tracer.Start(ctx, "syncengine.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("project_dir", opts.ProjectDir),
		attribute.Bool("delete", opts.Delete),
	)
	start := e.now()

	p, err := e.plan(ctx, opts.ProjectDir)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	result := &models.SyncResult{
		FullSync:      p.fullSync,
		FilesChecked:  len(p.entries),
		FilesModified: len(p.upserts),
		Errors:        p.invalid,
	}

	ops := make([]models.SyncOperation, 0, len(p.upserts))
	for i := range p.upserts {
		entry := &p.upserts[i]
		meta := entry.Meta
		op := models.SyncOperation{
			Type:     models.OperationUpsert,
			Path:     entry.Path,
			Instance: &meta,
			Source:   entry.Source,
		}
		if meta.ReferenceID != uuid.Nil {
			ref := meta.ReferenceID
			op.ReferenceID = &ref
		}
		ops = append(ops, op)
	}

	if opts.Delete {
		orphans, err := e.orphans(ctx, opts.ProjectDir, p.entries)
		if err != nil {
			span.RecordError(err)
			e.publishFailure(opts.ProjectDir, err)
			return nil, err
		}
		for _, path := range orphans {
			ops = append(ops, models.SyncOperation{Type: models.OperationDelete, Path: path})
		}
		result.Deletes = len(orphans)
	}
	result.Upserts = len(p.upserts)

	if len(ops) == 0 {
		result.Success = len(result.Errors) == 0
		if _, err := e.store.Prune(ctx, p.project, liveKeys(p.entries)); err != nil {
			log.Printf(`{"level":"warn","message":"failed to prune watermark","error":"%v"}`, err)
		}
		e.metrics.RecordSyncRun(ctx, "noop", 0, 0, e.now().Sub(start))
		return result, nil
	}

	data, err := e.broker.Submit(ctx, models.SyncBatchPayload{Operations: ops, ProjectDir: opts.ProjectDir}, e.timeout)
	if err != nil {
		span.RecordError(err)
		e.metrics.RecordSyncRun(ctx, "error", result.Upserts, result.Deletes, e.now().Sub(start))
		e.publishFailure(opts.ProjectDir, err)
		return nil, fmt.Errorf("sync batch failed: %w", err)
	}

	var batch models.SyncBatchResult
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("failed to decode sync batch result: %w", err)
		}
	}

	if batch.Reason != "" {
		result.Skipped = true
		result.Reason = batch.Reason
		e.metrics.RecordSyncRun(ctx, "skipped", 0, 0, e.now().Sub(start))
		e.events.Publish(models.NewEvent(models.EventTypeSyncSkipped, map[string]interface{}{
			"projectDir": opts.ProjectDir,
			"reason":     batch.Reason,
		}))
		log.Printf(`{"level":"info","message":"sync skipped by plugin","reason":"%s"}`, batch.Reason)
		return result, nil
	}

	result.Applied = batch.Applied
	result.Errors = append(result.Errors, batch.Errors...)

	failedPaths := make(map[string]bool, len(batch.Errors))
	failedRefs := make(map[uuid.UUID]bool, len(batch.Errors))
	for _, f := range batch.Errors {
		if f.ReferenceID != nil {
			failedRefs[*f.ReferenceID] = true
		} else {
			failedPaths[f.Path] = true
		}
	}

	syncedAt := e.now()
	advance := make([]watermark.Record, 0, len(p.upserts))
	for _, entry := range p.upserts {
		if failedPaths[entry.Path] || failedRefs[entry.Meta.ReferenceID] {
			continue
		}
		advance = append(advance, watermark.Record{
			Key:      entry.Key,
			Path:     entry.Path,
			Hash:     entry.Hash,
			ModTime:  entry.ModTime,
			Size:     entry.Size,
			SyncedAt: syncedAt,
		})
	}
	if err := e.store.Advance(ctx, p.project, advance); err != nil {
		return nil, fmt.Errorf("failed to advance watermark: %w", err)
	}
	if _, err := e.store.Prune(ctx, p.project, liveKeys(p.entries)); err != nil {
		log.Printf(`{"level":"warn","message":"failed to prune watermark","error":"%v"}`, err)
	}

	span.SetAttributes(
		attribute.Int("upserts", result.Upserts),
		attribute.Int("deletes", result.Deletes),
		attribute.Int("applied", result.Applied),
	)

	outcome := "applied"
	if len(batch.Errors) > 0 {
		outcome = "partial"
	}
	e.metrics.RecordSyncRun(ctx, outcome, result.Upserts, result.Deletes, e.now().Sub(start))
	e.events.Publish(models.NewEvent(models.EventTypeSyncCompleted, map[string]interface{}{
		"projectDir": opts.ProjectDir,
		"applied":    result.Applied,
		"upserts":    result.Upserts,
		"deletes":    result.Deletes,
		"errors":     len(result.Errors),
	}))

	if len(batch.Errors) > 0 {
		return result, &models.PartialBatchError{Failed: batch.Errors}
	}
	result.Success = len(result.Errors) == 0
	return result, nil
}

// orphans asks the host for its instance paths and returns those with no
// files on disk. A path whose ancestor is also an orphan is dropped, since
// deleting the ancestor removes it.
func (e *Engine) orphans(ctx context.Context, projectDir string, entries []project.Entry) ([]string, error) {
	data, err := e.broker.Submit(ctx, models.SyncDiffPayload{ProjectDir: projectDir}, e.timeout)
	if err != nil {
		return nil, fmt.Errorf("sync diff failed: %w", err)
	}
	var diff models.SyncDiffResult
	if err := json.Unmarshal(data, &diff); err != nil {
		return nil, fmt.Errorf("failed to decode sync diff result: %w", err)
	}

	onDisk := make(map[string]bool, len(entries))
	for _, entry := range entries {
		onDisk[entry.Path] = true
	}

	var orphans []string
	for _, path := range diff.Paths {
		if !onDisk[path] {
			orphans = append(orphans, path)
		}
	}
	return collapse(orphans), nil
}

// collapse sorts paths and removes every path that has an ancestor in the
// set. Sorting places an ancestor before its descendants.
func collapse(paths []string) []string {
	sort.Strings(paths)
	out := paths[:0]
	for _, p := range paths {
		if len(out) > 0 {
			last := out[len(out)-1]
			if p == last || project.IsAncestor(last, p) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// Baseline records every instance currently on disk as synced. It runs
// after a full extraction, when disk and host are known to agree.
func (e *Engine) Baseline(ctx context.Context, projectDir string) error {
	ctx, span := e.tracer.Start(ctx, "syncengine.baseline")
	defer span.End()

	entries, err := project.Scan(projectDir)
	if err != nil {
		span.RecordError(err)
		return err
	}

	key := watermark.ProjectKey(projectDir)
	syncedAt := e.now()
	records := make([]watermark.Record, 0, len(entries))
	for _, entry := range entries {
		if entry.Err != nil {
			continue
		}
		records = append(records, watermark.Record{
			Key:      entry.Key,
			Path:     entry.Path,
			Hash:     entry.Hash,
			ModTime:  entry.ModTime,
			Size:     entry.Size,
			SyncedAt: syncedAt,
		})
	}
	if err := e.store.Advance(ctx, key, records); err != nil {
		return fmt.Errorf("failed to record baseline: %w", err)
	}
	if _, err := e.store.Prune(ctx, key, liveKeys(entries)); err != nil {
		return fmt.Errorf("failed to prune watermark: %w", err)
	}
	return nil
}

func (e *Engine) publishFailure(projectDir string, err error) {
	e.events.Publish(models.NewEvent(models.EventTypeSyncFailed, map[string]interface{}{
		"projectDir": projectDir,
		"error":      err.Error(),
	}))
}

func liveKeys(entries []project.Entry) []string {
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		keys = append(keys, entry.Key)
	}
	return keys
}
