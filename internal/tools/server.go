// Package tools exposes the rbxsync server to agents as MCP tools. Every
// tool forwards to a running `rbxsync serve` over HTTP and answers with
// plain text.
package tools

import (
	"context"
	"time"

	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rbxsync/rbxsync-server/internal/harness"
	"github.com/rbxsync/rbxsync-server/internal/models"
	"github.com/rbxsync/rbxsync-server/internal/vcs"
)

const instructions = "RbxSync MCP Server - Extract and sync Roblox games with git integration. " +
	"Requires 'rbxsync serve' running and the RbxSync Studio plugin installed."

// Backend is the rbxsync server API. *orchestration.Client implements it.
type Backend interface {
	StartExtraction(ctx context.Context, req models.ExtractStartRequest) (*models.ExtractStartResponse, error)
	ExtractionStatus(ctx context.Context) (*models.ExtractStatusResponse, bool, error)
	FinalizeExtraction(ctx context.Context, sessionID uuid.UUID, projectDir string) (*models.ExtractFinalizeResponse, error)
	ResetExtraction(ctx context.Context) (*models.ExtractResetResponse, error)
	Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error)
	RunCode(ctx context.Context, code string) (*models.RunCodeResponse, error)
	InsertModel(ctx context.Context, req models.InsertModelRequest) (*models.InsertModelResult, error)
	GitStatus(ctx context.Context, projectDir string) (*vcs.Status, error)
	GitCommit(ctx context.Context, req vcs.CommitRequest) (*vcs.CommitResult, error)
	HarnessInit(ctx context.Context, req harness.InitRequest) (*harness.InitResult, error)
	HarnessSessionStart(ctx context.Context, req harness.SessionStartRequest) (*harness.SessionStartResult, error)
	HarnessSessionEnd(ctx context.Context, req harness.SessionEndRequest) (*harness.SessionEndResult, error)
	HarnessFeatureUpdate(ctx context.Context, req harness.FeatureUpdate) (*harness.FeatureResult, error)
	HarnessStatus(ctx context.Context, projectDir string) (*harness.Status, error)
}

// Options tunes how extract_game waits for the plugin.
type Options struct {
	PollInterval   time.Duration
	ExtractTimeout time.Duration
}

type Server struct {
	backend Backend
	opts    Options
	mcp     *sdk.Server
}

func NewServer(backend Backend, version string, opts Options) *Server {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = 10 * time.Minute
	}
	s := &Server{
		backend: backend,
		opts:    opts,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "rbxsync",
			Version: version,
		}, &sdk.ServerOptions{Instructions: instructions}),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
