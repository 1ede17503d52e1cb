package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPluginRequest(t *testing.T) {
	id := uuid.New()
	req, err := NewPluginRequest(id, InsertModelPayload{AssetID: 123, Parent: "Workspace"})
	require.NoError(t, err)

	assert.Equal(t, id, req.ID)
	assert.Equal(t, CommandInsertModel, req.Command)
	assert.JSONEq(t, `{"assetId":123,"parent":"Workspace"}`, string(req.Payload))

	encoded, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+id.String()+`","command":"insert_model","payload":{"assetId":123,"parent":"Workspace"}}`, string(encoded))
}

func TestNewPluginRequest_KeepsMarkupCharacters(t *testing.T) {
	req, err := NewPluginRequest(uuid.New(), RunCodePayload{Code: `print("<b>" .. x & y)`})
	require.NoError(t, err)
	assert.Equal(t, `{"code":"print(\"<b>\" .. x & y)"}`, string(req.Payload))
}

func TestExtractStartRequest_Defaults(t *testing.T) {
	off := false

	tests := []struct {
		name     string
		request  ExtractStartRequest
		expected ExtractStartPayload
	}{
		{
			name:     "empty_request_includes_everything",
			request:  ExtractStartRequest{},
			expected: ExtractStartPayload{Services: []string{}, IncludeTerrain: true, IncludeAssets: true},
		},
		{
			name:     "explicit_false_is_kept",
			request:  ExtractStartRequest{Services: []string{"Workspace"}, IncludeTerrain: &off},
			expected: ExtractStartPayload{Services: []string{"Workspace"}, IncludeTerrain: false, IncludeAssets: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.request.Payload())
		})
	}
}

func TestRunCodeResult_AcceptsBothShapes(t *testing.T) {
	var r RunCodeResult
	require.NoError(t, json.Unmarshal([]byte(`"hello"`), &r))
	assert.Equal(t, "hello", r.Output)

	require.NoError(t, json.Unmarshal([]byte(`{"output":"world"}`), &r))
	assert.Equal(t, "world", r.Output)

	assert.Error(t, json.Unmarshal([]byte(`42`), &r))
}

func TestErrorResponse_Err(t *testing.T) {
	tests := []struct {
		name  string
		resp  ErrorResponse
		check func(t *testing.T, err error)
	}{
		{
			name: "timeout",
			resp: ErrorResponse{Error: "run_code timed out", Code: ErrCodeTimeout},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrTimeout))
			},
		},
		{
			name: "broker_unavailable",
			resp: ErrorResponse{Error: "shutting down", Code: ErrCodeBrokerUnavailable},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrBrokerUnavailable))
			},
		},
		{
			name: "invalid_session",
			resp: ErrorResponse{Error: "Invalid session ID", Code: ErrCodeInvalidSession},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrInvalidSession))
			},
		},
		{
			name: "remote_error_is_verbatim",
			resp: ErrorResponse{Error: "Workspace.Foo is not a valid member", Code: ErrCodeRemoteError},
			check: func(t *testing.T, err error) {
				var re *RemoteError
				require.True(t, errors.As(err, &re))
				assert.Equal(t, "Workspace.Foo is not a valid member", err.Error())
			},
		},
		{
			name: "other_code",
			resp: ErrorResponse{Error: "bad", Code: ErrCodeInvalidRequest},
			check: func(t *testing.T, err error) {
				assert.Equal(t, "bad (INVALID_REQUEST)", err.Error())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.resp.Err())
		})
	}
}

func TestPartialBatchError_Message(t *testing.T) {
	err := &PartialBatchError{Failed: []OperationError{
		{Path: "Workspace/A", Error: "locked"},
		{Path: "Workspace/B", Error: "unknown class"},
	}}
	assert.Equal(t, "2 operations failed: Workspace/A: locked; Workspace/B: unknown class", err.Error())
}
