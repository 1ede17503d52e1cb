package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rbxsync/rbxsync-server/internal/auth"
	"github.com/rbxsync/rbxsync-server/internal/broker"
	"github.com/rbxsync/rbxsync-server/internal/events"
	"github.com/rbxsync/rbxsync-server/internal/extraction"
	"github.com/rbxsync/rbxsync-server/internal/gateway"
	"github.com/rbxsync/rbxsync-server/internal/harness"
	"github.com/rbxsync/rbxsync-server/internal/models"
	"github.com/rbxsync/rbxsync-server/internal/orchestration"
	"github.com/rbxsync/rbxsync-server/internal/project"
	"github.com/rbxsync/rbxsync-server/internal/rbxtypes"
	"github.com/rbxsync/rbxsync-server/internal/syncengine"
	"github.com/rbxsync/rbxsync-server/internal/tools"
	"github.com/rbxsync/rbxsync-server/internal/vcs"
	"github.com/rbxsync/rbxsync-server/internal/watermark/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlugin plays the Studio side of the protocol against a live server.
type fakePlugin struct {
	baseURL string
	tree    []rbxtypes.Instance

	mu        sync.Mutex
	batches   []models.SyncBatchPayload
	hostPaths []string
}

func (p *fakePlugin) run(t *testing.T, ctx context.Context) {
	for ctx.Err() == nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/request", nil)
		if err != nil {
			return
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			continue
		}
		if resp.StatusCode == http.StatusNoContent {
			resp.Body.Close()
			continue
		}
		var cmd models.PluginRequest
		err = json.NewDecoder(resp.Body).Decode(&cmd)
		resp.Body.Close()
		if err != nil {
			t.Errorf("decoding command: %v", err)
			return
		}
		p.handle(t, cmd)
	}
}

func (p *fakePlugin) handle(t *testing.T, cmd models.PluginRequest) {
	switch cmd.Command {
	case models.CommandExtractStart:
		for i := range p.tree {
			data, err := json.Marshal([]rbxtypes.Instance{p.tree[i]})
			if err != nil {
				t.Errorf("encoding chunk: %v", err)
				return
			}
			p.post(t, "/extract/chunk", models.ExtractChunkRequest{
				SessionID:   cmd.ID,
				ChunkIndex:  i,
				TotalChunks: len(p.tree),
				Data:        data,
			})
		}

	case models.CommandSyncBatch:
		var batch models.SyncBatchPayload
		if err := json.Unmarshal(cmd.Payload, &batch); err != nil {
			t.Errorf("decoding batch: %v", err)
			return
		}
		p.mu.Lock()
		p.batches = append(p.batches, batch)
		p.mu.Unlock()
		p.respond(t, cmd.ID, models.SyncBatchResult{Applied: len(batch.Operations)})

	case models.CommandSyncDiff:
		p.mu.Lock()
		paths := append([]string(nil), p.hostPaths...)
		p.mu.Unlock()
		p.respond(t, cmd.ID, models.SyncDiffResult{Paths: paths})

	case models.CommandRunCode:
		var payload models.RunCodePayload
		if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
			t.Errorf("decoding run_code: %v", err)
			return
		}
		p.respond(t, cmd.ID, models.RunCodeResult{Output: "ran: " + payload.Code})

	default:
		t.Errorf("unexpected command %s", cmd.Command)
	}
}

func (p *fakePlugin) respond(t *testing.T, id uuid.UUID, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		t.Errorf("encoding response: %v", err)
		return
	}
	p.post(t, "/response", models.PluginResponse{ID: id, Success: true, Data: raw})
}

func (p *fakePlugin) post(t *testing.T, path string, body interface{}) {
	buf, err := json.Marshal(body)
	if err != nil {
		t.Errorf("encoding %s: %v", path, err)
		return
	}
	resp, err := http.Post(p.baseURL+path, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Errorf("posting %s: %v", path, err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("posting %s: status %d", path, resp.StatusCode)
	}
}

func (p *fakePlugin) lastBatch() models.SyncBatchPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.batches) == 0 {
		return models.SyncBatchPayload{}
	}
	return p.batches[len(p.batches)-1]
}

func gameTree() []rbxtypes.Instance {
	sss := rbxtypes.NewInstance("ServerScriptService", "ServerScriptService")
	main := rbxtypes.NewInstance("Script", "Main")
	main.SetProperty("Source", rbxtypes.ProtectedString("print('hello')"))
	sss.AddChild(*main)

	ws := rbxtypes.NewInstance("Workspace", "Workspace")
	part := rbxtypes.NewInstance("Part", "Baseplate")
	part.SetProperty("Anchored", rbxtypes.Bool(true))
	ws.AddChild(*part)

	return []rbxtypes.Instance{*sss, *ws}
}

func TestEndToEnd_ToolsAgainstLiveServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := broker.New(nil)
	defer b.Close()
	hub := events.NewHub()
	defer hub.Close()

	store := sqlite.New("")
	defer store.Close(context.Background())

	engine := syncengine.New(b, store, 2*time.Second)
	engine.SetPublisher(hub)
	svc := orchestration.NewService(b, engine, 2*time.Second)
	em := extraction.NewManager(b, project.NewWriter())
	em.SetPublisher(hub)
	em.OnFinalized(svc.Baseline)

	jwtManager, err := auth.NewJWTManager("integration-secret")
	require.NoError(t, err)

	h := gateway.NewHandler(b, em, svc, vcs.New(), harness.New(), gateway.Config{Version: "test", PollTimeout: 50 * time.Millisecond})
	router := gin.New()
	gateway.RegisterRoutes(router, h, gateway.NewEventStream(hub), jwtManager)
	ts := httptest.NewServer(router)
	defer ts.Close()

	plugin := &fakePlugin{baseURL: ts.URL, tree: gameTree()}
	pluginDone := make(chan struct{})
	go func() {
		defer close(pluginDone)
		plugin.run(t, ctx)
	}()
	defer func() {
		cancel()
		<-pluginDone
	}()

	token, err := jwtManager.GenerateToken(ctx, "mcp", []string{auth.ScopeAdmin}, time.Hour)
	require.NoError(t, err)
	client := orchestration.NewClient(ts.URL, token)
	server := tools.NewServer(client, "test", tools.Options{PollInterval: 10 * time.Millisecond, ExtractTimeout: 5 * time.Second})

	serverTransport, clientTransport := sdk.NewInMemoryTransports()
	go server.Run(ctx, serverTransport)
	session, err := sdk.NewClient(&sdk.Implementation{Name: "e2e", Version: "test"}, nil).Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	call := func(t *testing.T, name string, args map[string]any) (string, bool) {
		t.Helper()
		res, err := session.CallTool(ctx, &sdk.CallToolParams{Name: name, Arguments: args})
		require.NoError(t, err)
		require.Len(t, res.Content, 1)
		text, ok := res.Content[0].(*sdk.TextContent)
		require.True(t, ok)
		return text.Text, res.IsError
	}

	dir := t.TempDir()
	scriptFile := filepath.Join(dir, project.SourceDir, "ServerScriptService", "Main", "init.server.luau")

	t.Run("extract_game", func(t *testing.T) {
		text, isErr := call(t, "extract_game", map[string]any{"projectDir": dir})
		require.False(t, isErr, text)
		assert.Equal(t, "Successfully extracted game to "+dir+". 5 files written.", text)

		src, err := os.ReadFile(scriptFile)
		require.NoError(t, err)
		assert.Equal(t, "print('hello')", string(src))
	})

	t.Run("sync_after_extract_is_a_noop", func(t *testing.T) {
		text, isErr := call(t, "sync_to_studio", map[string]any{"projectDir": dir})
		require.False(t, isErr, text)
		assert.Equal(t, "No changes to sync.", text)
	})

	t.Run("edited_script_is_pushed", func(t *testing.T) {
		require.NoError(t, os.WriteFile(scriptFile, []byte("print('changed')"), 0o644))

		text, isErr := call(t, "sync_to_studio", map[string]any{"projectDir": dir})
		require.False(t, isErr, text)
		assert.Equal(t, "Successfully synced 1 instances to Studio (incremental sync, 1 of 4 files modified).", text)

		batch := plugin.lastBatch()
		require.Len(t, batch.Operations, 1)
		op := batch.Operations[0]
		assert.Equal(t, models.OperationUpsert, op.Type)
		assert.Equal(t, "ServerScriptService/Main", op.Path)
		require.NotNil(t, op.Source)
		assert.Equal(t, "print('changed')", *op.Source)

		text, _ = call(t, "sync_to_studio", map[string]any{"projectDir": dir})
		assert.Equal(t, "No changes to sync.", text)
	})

	t.Run("orphans_are_deleted", func(t *testing.T) {
		plugin.mu.Lock()
		plugin.hostPaths = []string{
			"ServerScriptService", "ServerScriptService/Main",
			"Workspace", "Workspace/Baseplate",
			"Workspace/Old", "Workspace/Old/Child",
		}
		plugin.mu.Unlock()

		text, isErr := call(t, "sync_to_studio", map[string]any{"projectDir": dir, "delete": true})
		require.False(t, isErr, text)
		assert.Equal(t, "Successfully synced 0 instances (incremental sync, checked 4 files) and deleted 1 orphans.", text)

		batch := plugin.lastBatch()
		require.Len(t, batch.Operations, 1)
		assert.Equal(t, models.OperationDelete, batch.Operations[0].Type)
		assert.Equal(t, "Workspace/Old", batch.Operations[0].Path)
	})

	t.Run("run_code", func(t *testing.T) {
		text, isErr := call(t, "run_code", map[string]any{"code": "print(1)"})
		require.False(t, isErr, text)
		assert.Equal(t, "ran: print(1)", text)
	})

	t.Run("control_routes_require_token", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/sync", "application/json", bytes.NewReader([]byte(`{"projectDir":"`+dir+`"}`)))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
