package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rbxsync/rbxsync-server/internal/harness"
	"github.com/rbxsync/rbxsync-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client := NewClient("", "")

	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.tracer)
	assert.NotNil(t, client.breaker)
	assert.Equal(t, DefaultServerURL, client.BaseURL())

	assert.Equal(t, "http://localhost:1234", NewClient("http://localhost:1234/", "").BaseURL())
}

func TestClient_Sync(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse func(w http.ResponseWriter, r *http.Request)
		expectedError  error
		errorContains  string
		expectedResult *models.SyncResult
	}{
		{
			name: "successful_sync",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "POST", r.Method)
				assert.Equal(t, "/sync", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

				var req models.SyncRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "/tmp/game", req.ProjectDir)
				assert.True(t, req.Delete)

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(models.SyncResult{Success: true, Upserts: 2, Applied: 2, FilesChecked: 5})
			},
			expectedResult: &models.SyncResult{Success: true, Upserts: 2, Applied: 2, FilesChecked: 5},
		},
		{
			name: "plugin_timeout",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusGatewayTimeout)
				json.NewEncoder(w).Encode(models.ErrorResponse{Error: "sync:batch after 30s: request timed out", Code: models.ErrCodeTimeout})
			},
			expectedError: models.ErrTimeout,
		},
		{
			name: "plugin_error",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Parent not found", Code: models.ErrCodeRemoteError})
			},
			errorContains: "Parent not found",
		},
		{
			name: "plain_text_error",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Internal server error"))
			},
			errorContains: "rbxsync server returned status 500",
		},
		{
			name: "invalid_json_response",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("invalid json"))
			},
			errorContains: "failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResponse))
			defer server.Close()

			client := NewClient(server.URL, "test-token")
			result, err := client.Sync(context.Background(), models.SyncRequest{ProjectDir: "/tmp/game", Delete: true})

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.errorContains != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expectedResult, result)
			}
		})
	}
}

func TestClient_RemoteErrorIsTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "attempt to index nil", Code: models.ErrCodeRemoteError})
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").RunCode(context.Background(), "error()")

	var remote *models.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "attempt to index nil", remote.Message)
}

func TestClient_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, "").Health(context.Background())
	assert.ErrorIs(t, err, models.ErrBrokerUnavailable)
}

func TestClient_BreakerOpensOnTransportFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, "")
	for i := 0; i < 6; i++ {
		_, err := client.Health(context.Background())
		require.ErrorIs(t, err, models.ErrBrokerUnavailable)
	}

	_, err := client.Health(context.Background())
	assert.ErrorIs(t, err, models.ErrBrokerUnavailable)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}

func TestClient_ErrorResponsesDoNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Invalid session ID", Code: models.ErrCodeInvalidSession})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	for i := 0; i < 10; i++ {
		_, err := client.FinalizeExtraction(context.Background(), uuid.New(), "/tmp/game")
		require.ErrorIs(t, err, models.ErrInvalidSession)
	}
}

func TestClient_ExtractionStatus(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectActive bool
	}{
		{
			name:         "no_active_session",
			body:         `{"sessionId":null,"status":"no_active_session"}`,
			expectActive: false,
		},
		{
			name:         "receiving",
			body:         `{"sessionId":"8a1d4f5e-2b3c-4d5e-8f90-1a2b3c4d5e6f","state":"receiving","chunksReceived":2,"totalChunks":3,"complete":false}`,
			expectActive: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "GET", r.Method)
				assert.Equal(t, "/extract/status", r.URL.Path)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			status, active, err := NewClient(server.URL, "").ExtractionStatus(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expectActive, active)
			if tt.expectActive {
				assert.Equal(t, 2, status.ChunksReceived)
				require.NotNil(t, status.TotalChunks)
				assert.Equal(t, 3, *status.TotalChunks)
			}
		})
	}
}

func TestClient_HarnessErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/harness/session/start", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Harness not initialized"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "").HarnessSessionStart(context.Background(), harness.SessionStartRequest{ProjectDir: "/tmp/game"})
	require.Error(t, err)
	assert.Equal(t, "Harness not initialized", err.Error())
}

func TestClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL, "").Health(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
