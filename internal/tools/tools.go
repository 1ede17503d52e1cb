package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rbxsync/rbxsync-server/internal/harness"
	"github.com/rbxsync/rbxsync-server/internal/models"
	"github.com/rbxsync/rbxsync-server/internal/vcs"
)

const notConnected = "Error: Not connected to RbxSync server. Make sure 'rbxsync serve' is running and Studio plugin is active."

type ExtractGameInput struct {
	ProjectDir     string   `json:"projectDir" jsonschema:"directory to write the extracted game to"`
	Services       []string `json:"services,omitempty" jsonschema:"services to extract; all when empty"`
	IncludeTerrain *bool    `json:"includeTerrain,omitempty" jsonschema:"include terrain data (default true)"`
	IncludeAssets  *bool    `json:"includeAssets,omitempty" jsonschema:"include asset references (default true)"`
}

type SyncInput struct {
	ProjectDir string `json:"projectDir" jsonschema:"project directory to sync from"`
	Delete     bool   `json:"delete,omitempty" jsonschema:"also delete instances in Studio that have no files"`
}

type RunCodeInput struct {
	Code string `json:"code" jsonschema:"Luau code to run in Studio"`
}

type InsertModelInput struct {
	AssetID uint64 `json:"assetId" jsonschema:"marketplace asset id"`
	Parent  string `json:"parent,omitempty" jsonschema:"parent path, Workspace when empty"`
}

type GitStatusInput struct {
	ProjectDir string `json:"projectDir" jsonschema:"project directory"`
}

type GitCommitInput struct {
	ProjectDir string   `json:"projectDir" jsonschema:"project directory"`
	Message    string   `json:"message" jsonschema:"commit message"`
	Files      []string `json:"files,omitempty" jsonschema:"files to stage; all changes when empty"`
}

type HarnessInitInput struct {
	ProjectDir  string `json:"projectDir" jsonschema:"project directory"`
	GameName    string `json:"gameName" jsonschema:"name of the game"`
	Description string `json:"description,omitempty" jsonschema:"short game description"`
	Genre       string `json:"genre,omitempty" jsonschema:"game genre"`
	Template    string `json:"template,omitempty" jsonschema:"feature template: tycoon, obby, simulator, rpg or horror"`
}

type HarnessSessionStartInput struct {
	ProjectDir   string `json:"projectDir" jsonschema:"project directory"`
	InitialGoals string `json:"initialGoals,omitempty" jsonschema:"goals for this session"`
}

type HarnessSessionEndInput struct {
	ProjectDir   string   `json:"projectDir" jsonschema:"project directory"`
	SessionID    string   `json:"sessionId" jsonschema:"session to end"`
	Summary      string   `json:"summary,omitempty" jsonschema:"what was accomplished"`
	HandoffNotes []string `json:"handoffNotes,omitempty" jsonschema:"notes for the next session"`
}

type HarnessFeatureUpdateInput struct {
	ProjectDir         string   `json:"projectDir" jsonschema:"project directory"`
	FeatureID          string   `json:"featureId,omitempty" jsonschema:"feature to update; creates a feature when empty"`
	Name               string   `json:"name,omitempty" jsonschema:"feature name, required for new features"`
	Description        string   `json:"description,omitempty" jsonschema:"feature description"`
	Status             string   `json:"status,omitempty" jsonschema:"planned, in_progress, completed, blocked or cancelled"`
	Priority           string   `json:"priority,omitempty" jsonschema:"low, medium, high or critical"`
	Tags               []string `json:"tags,omitempty" jsonschema:"tags"`
	AcceptanceCriteria []string `json:"acceptanceCriteria,omitempty" jsonschema:"acceptance criteria"`
	AffectedFiles      []string `json:"affectedFiles,omitempty" jsonschema:"files touched by the feature"`
	AddNote            string   `json:"addNote,omitempty" jsonschema:"note to append"`
	SessionID          string   `json:"sessionId,omitempty" jsonschema:"session the work happened in"`
}

type HarnessStatusInput struct {
	ProjectDir string `json:"projectDir" jsonschema:"project directory"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "extract_game",
		Description: "Extract the open Studio game into project files",
	}, s.handleExtractGame)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "sync_to_studio",
		Description: "Push changed project files to Studio",
	}, s.handleSync)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "run_code",
		Description: "Run Luau code in Studio and return its output",
	}, s.handleRunCode)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "insert_model",
		Description: "Insert a marketplace model into the game",
	}, s.handleInsertModel)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "git_status",
		Description: "Show the git status of the project",
	}, s.handleGitStatus)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "git_commit",
		Description: "Commit project changes",
	}, s.handleGitCommit)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "harness_init",
		Description: "Initialize the development harness for a game",
	}, s.handleHarnessInit)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "harness_session_start",
		Description: "Start a development session",
	}, s.handleHarnessSessionStart)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "harness_session_end",
		Description: "End a development session with a summary",
	}, s.handleHarnessSessionEnd)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "harness_feature_update",
		Description: "Create or update a tracked feature",
	}, s.handleHarnessFeatureUpdate)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "harness_status",
		Description: "Show game info, features and recent sessions",
	}, s.handleHarnessStatus)
}

func text(msg string) *sdk.CallToolResult {
	return &sdk.CallToolResult{Content: []sdk.Content{&sdk.TextContent{Text: msg}}}
}

func failure(msg string) *sdk.CallToolResult {
	res := text(msg)
	res.IsError = true
	return res
}

// errorText renders err for the agent. An unreachable server gets a hint
// on how to start it.
func errorText(err error) *sdk.CallToolResult {
	if errors.Is(err, models.ErrBrokerUnavailable) {
		return failure(notConnected)
	}
	return failure("Error: " + err.Error())
}

func (s *Server) handleExtractGame(ctx context.Context, req *sdk.CallToolRequest, input ExtractGameInput) (*sdk.CallToolResult, any, error) {
	if input.ProjectDir == "" {
		return nil, nil, fmt.Errorf("projectDir is required")
	}

	started, err := s.backend.StartExtraction(ctx, models.ExtractStartRequest{
		Services:       input.Services,
		IncludeTerrain: input.IncludeTerrain,
		IncludeAssets:  input.IncludeAssets,
	})
	if err != nil {
		return errorText(err), nil, nil
	}

	if err := s.waitForExtraction(ctx); err != nil {
		if _, resetErr := s.backend.ResetExtraction(context.WithoutCancel(ctx)); resetErr != nil {
			err = fmt.Errorf("%w (reset failed: %v)", err, resetErr)
		}
		return errorText(err), nil, nil
	}

	res, err := s.backend.FinalizeExtraction(ctx, started.SessionID, input.ProjectDir)
	if err != nil {
		return errorText(err), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Successfully extracted game to %s. %d files written.", input.ProjectDir, res.FilesWritten)
	if len(res.Warnings) > 0 {
		fmt.Fprintf(&b, "\n\nWarnings (%d):", len(res.Warnings))
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "\n  - %s", w)
		}
	}
	return text(b.String()), nil, nil
}

// waitForExtraction polls the session until every chunk has arrived.
func (s *Server) waitForExtraction(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ExtractTimeout)
	defer cancel()

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		st, ok, err := s.backend.ExtractionStatus(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("extraction session was reset")
		}
		if st.Complete {
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				total := "?"
				if st.TotalChunks != nil {
					total = fmt.Sprint(*st.TotalChunks)
				}
				return fmt.Errorf("extraction timed out after %s with %d of %s chunks received", s.opts.ExtractTimeout, st.ChunksReceived, total)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Server) handleSync(ctx context.Context, req *sdk.CallToolRequest, input SyncInput) (*sdk.CallToolResult, any, error) {
	if input.ProjectDir == "" {
		return nil, nil, fmt.Errorf("projectDir is required")
	}

	res, err := s.backend.Sync(ctx, models.SyncRequest{ProjectDir: input.ProjectDir, Delete: input.Delete})
	if err != nil {
		return errorText(err), nil, nil
	}
	return syncText(res, input.Delete), nil, nil
}

func syncText(res *models.SyncResult, deleted bool) *sdk.CallToolResult {
	if res.Skipped {
		return failure(fmt.Sprintf("Sync skipped: %s. Enable 'Files → Studio' in the RbxSync plugin or wait for extraction to complete.", res.Reason))
	}
	if len(res.Errors) > 0 {
		parts := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			parts = append(parts, fmt.Sprintf("%s: %s", e.Path, e.Error))
		}
		return failure(fmt.Sprintf("Sync completed with errors: %s (%d of %d operations applied)",
			strings.Join(parts, "; "), res.Applied, res.Upserts+res.Deletes))
	}
	if res.Upserts == 0 && res.Deletes == 0 {
		return text("No changes to sync.")
	}

	mode := "incremental"
	if res.FullSync {
		mode = "full"
	}
	if deleted && res.Deletes > 0 {
		return text(fmt.Sprintf("Successfully synced %d instances (%s sync, checked %d files) and deleted %d orphans.",
			res.Upserts, mode, res.FilesChecked, res.Deletes))
	}
	return text(fmt.Sprintf("Successfully synced %d instances to Studio (%s sync, %d of %d files modified).",
		res.Upserts, mode, res.FilesModified, res.FilesChecked))
}

func (s *Server) handleRunCode(ctx context.Context, req *sdk.CallToolRequest, input RunCodeInput) (*sdk.CallToolResult, any, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, nil, fmt.Errorf("code is required")
	}

	res, err := s.backend.RunCode(ctx, input.Code)
	if err != nil {
		return errorText(err), nil, nil
	}
	if res.Output == "" {
		return text("Code executed successfully (no output)."), nil, nil
	}
	return text(res.Output), nil, nil
}

func (s *Server) handleInsertModel(ctx context.Context, req *sdk.CallToolRequest, input InsertModelInput) (*sdk.CallToolResult, any, error) {
	if input.AssetID == 0 {
		return nil, nil, fmt.Errorf("assetId is required")
	}

	res, err := s.backend.InsertModel(ctx, models.InsertModelRequest{AssetID: input.AssetID, Parent: input.Parent})
	if err != nil {
		if errors.Is(err, models.ErrBrokerUnavailable) {
			return failure(notConnected), nil, nil
		}
		return failure(fmt.Sprintf("Failed to insert model: %s", err)), nil, nil
	}
	return text(fmt.Sprintf("Successfully inserted model:\n  Name: %s\n  Path: %s\n  ClassName: %s",
		res.InsertedName, res.InsertedPath, res.ClassName)), nil, nil
}

func (s *Server) handleGitStatus(ctx context.Context, req *sdk.CallToolRequest, input GitStatusInput) (*sdk.CallToolResult, any, error) {
	if input.ProjectDir == "" {
		return nil, nil, fmt.Errorf("projectDir is required")
	}

	st, err := s.backend.GitStatus(ctx, input.ProjectDir)
	if err != nil {
		return errorText(err), nil, nil
	}
	return text(gitStatusText(st)), nil, nil
}

func gitStatusText(st *vcs.Status) string {
	if !st.IsRepo {
		return "Not a git repository."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Branch: %s", st.Branch)
	section := func(title, marker string, files []string) {
		if len(files) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n\n%s (%d):", title, len(files))
		for _, f := range files {
			fmt.Fprintf(&b, "\n  %s %s", marker, f)
		}
	}
	section("Staged", "+", st.Staged)
	section("Modified", "~", st.Modified)
	section("Untracked", "?", st.Untracked)
	if len(st.Staged)+len(st.Modified)+len(st.Untracked) == 0 {
		b.WriteString("\n\nWorking tree clean.")
	}
	return b.String()
}

func (s *Server) handleGitCommit(ctx context.Context, req *sdk.CallToolRequest, input GitCommitInput) (*sdk.CallToolResult, any, error) {
	if input.ProjectDir == "" || input.Message == "" {
		return nil, nil, fmt.Errorf("projectDir and message are required")
	}

	res, err := s.backend.GitCommit(ctx, vcs.CommitRequest{ProjectDir: input.ProjectDir, Message: input.Message, Files: input.Files})
	if err != nil {
		return errorText(err), nil, nil
	}
	if !res.Success {
		return failure(fmt.Sprintf("Commit failed: %s", res.Error)), nil, nil
	}
	return text(fmt.Sprintf("Committed: %s", res.Hash)), nil, nil
}

func (s *Server) handleHarnessInit(ctx context.Context, req *sdk.CallToolRequest, input HarnessInitInput) (*sdk.CallToolResult, any, error) {
	res, err := s.backend.HarnessInit(ctx, harness.InitRequest{
		ProjectDir:  input.ProjectDir,
		GameName:    input.GameName,
		Description: input.Description,
		Genre:       input.Genre,
		Template:    input.Template,
	})
	if err != nil {
		if errors.Is(err, models.ErrBrokerUnavailable) {
			return failure(notConnected), nil, nil
		}
		return failure(fmt.Sprintf("Failed to initialize harness: %s", err)), nil, nil
	}

	msg := fmt.Sprintf("Harness initialized at %s. Game ID: %s", res.HarnessDir, res.GameID)
	if res.TemplateApplied != "" {
		msg += fmt.Sprintf("\nTemplate '%s' applied with %d features.", res.TemplateApplied, res.FeaturesAdded)
	}
	return text(msg), nil, nil
}

func (s *Server) handleHarnessSessionStart(ctx context.Context, req *sdk.CallToolRequest, input HarnessSessionStartInput) (*sdk.CallToolResult, any, error) {
	res, err := s.backend.HarnessSessionStart(ctx, harness.SessionStartRequest{ProjectDir: input.ProjectDir, InitialGoals: input.InitialGoals})
	if err != nil {
		if errors.Is(err, models.ErrBrokerUnavailable) {
			return failure(notConnected), nil, nil
		}
		return failure(fmt.Sprintf("Failed to start session: %s", err)), nil, nil
	}
	return text(fmt.Sprintf("Session started. ID: %s\nPath: %s", res.SessionID, res.SessionPath)), nil, nil
}

func (s *Server) handleHarnessSessionEnd(ctx context.Context, req *sdk.CallToolRequest, input HarnessSessionEndInput) (*sdk.CallToolResult, any, error) {
	_, err := s.backend.HarnessSessionEnd(ctx, harness.SessionEndRequest{
		ProjectDir:   input.ProjectDir,
		SessionID:    input.SessionID,
		Summary:      input.Summary,
		HandoffNotes: input.HandoffNotes,
	})
	if err != nil {
		if errors.Is(err, models.ErrBrokerUnavailable) {
			return failure(notConnected), nil, nil
		}
		return failure(fmt.Sprintf("Failed to end session: %s", err)), nil, nil
	}
	return text("Session ended successfully."), nil, nil
}

func (s *Server) handleHarnessFeatureUpdate(ctx context.Context, req *sdk.CallToolRequest, input HarnessFeatureUpdateInput) (*sdk.CallToolResult, any, error) {
	res, err := s.backend.HarnessFeatureUpdate(ctx, harness.FeatureUpdate{
		ProjectDir:         input.ProjectDir,
		FeatureID:          input.FeatureID,
		Name:               input.Name,
		Description:        input.Description,
		Status:             input.Status,
		Priority:           input.Priority,
		Tags:               input.Tags,
		AcceptanceCriteria: input.AcceptanceCriteria,
		AffectedFiles:      input.AffectedFiles,
		AddNote:            input.AddNote,
		SessionID:          input.SessionID,
	})
	if err != nil {
		if errors.Is(err, models.ErrBrokerUnavailable) {
			return failure(notConnected), nil, nil
		}
		return failure(fmt.Sprintf("Failed to update feature: %s", err)), nil, nil
	}
	return text(fmt.Sprintf("Feature %s: %s", res.Message, res.FeatureID)), nil, nil
}

func (s *Server) handleHarnessStatus(ctx context.Context, req *sdk.CallToolRequest, input HarnessStatusInput) (*sdk.CallToolResult, any, error) {
	st, err := s.backend.HarnessStatus(ctx, input.ProjectDir)
	if err != nil {
		return errorText(err), nil, nil
	}
	return text(harnessStatusText(st)), nil, nil
}

func harnessStatusText(st *harness.Status) string {
	if !st.Initialized {
		return "Harness not initialized. Use harness_init to set up the project."
	}

	var b strings.Builder
	b.WriteString("=== Harness Status ===\n")
	if st.Game != nil {
		fmt.Fprintf(&b, "\nGame: %s", st.Game.Name)
		if st.Game.Description != "" {
			fmt.Fprintf(&b, "\nDescription: %s", st.Game.Description)
		}
		b.WriteString("\n")
	}

	sum := st.FeatureSummary
	fmt.Fprintf(&b, "\nFeatures: %d total (%d planned, %d in progress, %d completed, %d blocked)",
		sum.Total, sum.Planned, sum.InProgress, sum.Completed, sum.Blocked)

	if len(st.Features) > 0 {
		b.WriteString("\n\nFeature List:")
		for _, f := range st.Features {
			fmt.Fprintf(&b, "\n  - [%s] %s (%s)", f.ID, f.Name, f.Status)
		}
	}

	if len(st.RecentSessions) > 0 {
		b.WriteString("\n\nRecent Sessions:")
		for _, sess := range st.RecentSessions {
			state := "active"
			if sess.EndedAt != nil {
				state = "ended"
			}
			fmt.Fprintf(&b, "\n  - %s (%s, %d features)", sess.ID, state, sess.FeaturesCount)
			if sess.Summary != "" {
				fmt.Fprintf(&b, "\n    Summary: %s", sess.Summary)
			}
		}
	}
	return b.String()
}
