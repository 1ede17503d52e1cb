package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/rbxsync/rbxsync-server/internal/models"
	"github.com/rbxsync/rbxsync-server/internal/syncengine"
	"github.com/rbxsync/rbxsync-server/internal/watermark"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrCodeRequired is returned by RunCode for blank code.
var ErrCodeRequired = errors.New("code is required")

// Syncer runs incremental syncs. *syncengine.Engine implements it.
type Syncer interface {
	Run(ctx context.Context, opts syncengine.Options) (*models.SyncResult, error)
	Baseline(ctx context.Context, projectDir string) error
}

// Service runs plugin commands on behalf of the control surface and
// serializes syncs per project.
type Service struct {
	broker  syncengine.Submitter
	engine  Syncer
	timeout time.Duration
	tracer  trace.Tracer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a service. timeout bounds run_code and insert_model.
func NewService(broker syncengine.Submitter, engine Syncer, timeout time.Duration) *Service {
	return &Service{
		broker:  broker,
		engine:  engine,
		timeout: timeout,
		tracer:  otel.Tracer("orchestration"),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *Service) projectLock(projectDir string) *sync.Mutex {
	key := watermark.ProjectKey(projectDir)
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Sync runs one sync of req.ProjectDir. Concurrent syncs of the same
// project run one after another.
func (s *Service) Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.sync")
	defer span.End()
	span.SetAttributes(attribute.String("project_dir", req.ProjectDir))

	l := s.projectLock(req.ProjectDir)
	l.Lock()
	defer l.Unlock()

	result, err := s.engine.Run(ctx, syncengine.Options{ProjectDir: req.ProjectDir, Delete: req.Delete})
	if err != nil {
		var partial *models.PartialBatchError
		if !errors.As(err, &partial) {
			span.RecordError(err)
			log.Printf(`{"level":"error","message":"sync failed","project_dir":"%s","error":"%v"}`, req.ProjectDir, err)
		}
		return result, err
	}
	return result, nil
}

// Baseline marks the whole project as synced. It shares the project lock
// with Sync and is used as the extraction finalize hook.
func (s *Service) Baseline(ctx context.Context, projectDir string) error {
	l := s.projectLock(projectDir)
	l.Lock()
	defer l.Unlock()
	return s.engine.Baseline(ctx, projectDir)
}

// RunCode executes Luau in the host and returns its captured output.
func (s *Service) RunCode(ctx context.Context, code string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.run_code")
	defer span.End()

	if strings.TrimSpace(code) == "" {
		return "", ErrCodeRequired
	}

	data, err := s.broker.Submit(ctx, models.RunCodePayload{Code: code}, s.timeout)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	var result models.RunCodeResult
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &result); err != nil {
			return "", fmt.Errorf("failed to decode run_code result: %w", err)
		}
	}
	return result.Output, nil
}

// InsertModel inserts a marketplace asset under parent, Workspace when
// parent is empty.
func (s *Service) InsertModel(ctx context.Context, req models.InsertModelRequest) (*models.InsertModelResult, error) {
	ctx, span := s.tracer.Start(ctx, "orchestration.insert_model")
	defer span.End()
	span.SetAttributes(attribute.Int64("asset_id", int64(req.AssetID)))

	data, err := s.broker.Submit(ctx, models.InsertModelPayload{AssetID: req.AssetID, Parent: req.Parent}, s.timeout)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var result models.InsertModelResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode insert_model result: %w", err)
	}
	return &result, nil
}
