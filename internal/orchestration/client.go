package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rbxsync/rbxsync-server/internal/harness"
	"github.com/rbxsync/rbxsync-server/internal/models"
	"github.com/rbxsync/rbxsync-server/internal/vcs"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultServerURL is where `rbxsync serve` listens by default.
const DefaultServerURL = "http://127.0.0.1:44755"

// Client talks to a running rbxsync server over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a client for baseURL. A non-empty token is sent as a
// bearer token on every call.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}

	settings := gobreaker.Settings{
		Name:        "rbxsync-server",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// Only transport failures count against the breaker; an error
		// response means the server is up.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, models.ErrBrokerUnavailable)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf(`{"level":"warn","message":"circuit breaker state changed","name":"%s","from":"%s","to":"%s"}`, name, from, to)
		},
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		tracer:  otel.Tracer("rbxsync-client"),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends in as JSON (nil for no body) and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "rbxsync_client."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.doInternal(ctx, method, path, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%v: %w", err, models.ErrBrokerUnavailable)
	}
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (c *Client) doInternal(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	// Inject trace context
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to make request: %v: %w", err, models.ErrBrokerUnavailable)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, bodyBytes)
	}

	if out == nil || len(bodyBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns an error body back into a Go error. Most routes answer
// with models.ErrorResponse; the harness routes answer {success, message}.
func decodeError(status int, body []byte) error {
	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errResp.Err()
	}

	var harnessResp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &harnessResp); err == nil && harnessResp.Message != "" {
		return errors.New(harnessResp.Message)
	}

	return fmt.Errorf("rbxsync server returned status %d: %s", status, strings.TrimSpace(string(body)))
}

// Health reports server status and whether the plugin is polling.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var resp models.HealthResponse
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) StartExtraction(ctx context.Context, req models.ExtractStartRequest) (*models.ExtractStartResponse, error) {
	var resp models.ExtractStartResponse
	if err := c.do(ctx, "extract_start", http.MethodPost, "/extract/start", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExtractionStatus returns the active session, or ok=false when there is
// none.
func (c *Client) ExtractionStatus(ctx context.Context) (*models.ExtractStatusResponse, bool, error) {
	var resp models.ExtractStatusResponse
	if err := c.do(ctx, "extract_status", http.MethodGet, "/extract/status", nil, &resp); err != nil {
		return nil, false, err
	}
	if resp.Status == models.ExtractStatusNoSession {
		return nil, false, nil
	}
	return &resp, true, nil
}

func (c *Client) FinalizeExtraction(ctx context.Context, sessionID uuid.UUID, projectDir string) (*models.ExtractFinalizeResponse, error) {
	req := models.ExtractFinalizeRequest{SessionID: sessionID, ProjectDir: projectDir}
	var resp models.ExtractFinalizeResponse
	if err := c.do(ctx, "extract_finalize", http.MethodPost, "/extract/finalize", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ResetExtraction(ctx context.Context) (*models.ExtractResetResponse, error) {
	var resp models.ExtractResetResponse
	if err := c.do(ctx, "extract_reset", http.MethodPost, "/extract/reset", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sync runs an incremental sync. A partially applied batch comes back as a
// result with Success=false and per-path Errors, not as an error.
func (c *Client) Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error) {
	var resp models.SyncResult
	if err := c.do(ctx, "sync", http.MethodPost, "/sync", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RunCode(ctx context.Context, code string) (*models.RunCodeResponse, error) {
	var resp models.RunCodeResponse
	if err := c.do(ctx, "run_code", http.MethodPost, "/run", models.RunCodeRequest{Code: code}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) InsertModel(ctx context.Context, req models.InsertModelRequest) (*models.InsertModelResult, error) {
	var resp models.InsertModelResult
	if err := c.do(ctx, "insert_model", http.MethodPost, "/insert", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GitStatus(ctx context.Context, projectDir string) (*vcs.Status, error) {
	var resp vcs.Status
	if err := c.do(ctx, "git_status", http.MethodPost, "/git/status", vcs.StatusRequest{ProjectDir: projectDir}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GitCommit(ctx context.Context, req vcs.CommitRequest) (*vcs.CommitResult, error) {
	var resp vcs.CommitResult
	if err := c.do(ctx, "git_commit", http.MethodPost, "/git/commit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) HarnessInit(ctx context.Context, req harness.InitRequest) (*harness.InitResult, error) {
	var resp harness.InitResult
	if err := c.do(ctx, "harness_init", http.MethodPost, "/harness/init", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) HarnessSessionStart(ctx context.Context, req harness.SessionStartRequest) (*harness.SessionStartResult, error) {
	var resp harness.SessionStartResult
	if err := c.do(ctx, "harness_session_start", http.MethodPost, "/harness/session/start", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) HarnessSessionEnd(ctx context.Context, req harness.SessionEndRequest) (*harness.SessionEndResult, error) {
	var resp harness.SessionEndResult
	if err := c.do(ctx, "harness_session_end", http.MethodPost, "/harness/session/end", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) HarnessFeatureUpdate(ctx context.Context, req harness.FeatureUpdate) (*harness.FeatureResult, error) {
	var resp harness.FeatureResult
	if err := c.do(ctx, "harness_feature_update", http.MethodPost, "/harness/feature/update", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) HarnessStatus(ctx context.Context, projectDir string) (*harness.Status, error) {
	var resp harness.Status
	if err := c.do(ctx, "harness_status", http.MethodPost, "/harness/status", harness.StatusRequest{ProjectDir: projectDir}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
