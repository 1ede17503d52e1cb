package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rbxsync/rbxsync-server/internal/rbxtypes"
)

// Command names a plugin command.
type Command string

const (
	CommandExtractStart Command = "extract:start"
	CommandSyncBatch    Command = "sync:batch"
	CommandSyncDiff     Command = "sync:diff"
	CommandRunCode      Command = "run_code"
	CommandInsertModel  Command = "insert_model"
)

// Payload is the body of a plugin command. Each command has exactly one
// payload type.
type Payload interface {
	Command() Command
}

// PluginRequest is what the plugin receives from GET /request.
type PluginRequest struct {
	ID      uuid.UUID       `json:"id"`
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload"`
}

// NewPluginRequest encodes p into a request with the given id.
func NewPluginRequest(id uuid.UUID, p Payload) (PluginRequest, error) {
	raw, err := rbxtypes.Marshal(p)
	if err != nil {
		return PluginRequest{}, fmt.Errorf("failed to encode %s payload: %w", p.Command(), err)
	}
	return PluginRequest{ID: id, Command: p.Command(), Payload: raw}, nil
}

// PluginResponse is what the plugin posts to POST /response.
type PluginResponse struct {
	ID      uuid.UUID       `json:"id"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error,omitempty"`
}

// ExtractStartPayload asks the plugin to begin streaming the game tree.
type ExtractStartPayload struct {
	Services       []string `json:"services"`
	IncludeTerrain bool     `json:"includeTerrain"`
	IncludeAssets  bool     `json:"includeAssets"`
}

func (ExtractStartPayload) Command() Command { return CommandExtractStart }

// OperationType is the kind of a sync operation.
type OperationType string

const (
	OperationUpsert OperationType = "upsert"
	OperationDelete OperationType = "delete"
)

// SyncOperation creates or updates the instance at Path, or deletes it.
// Siblings may share a name and therefore a Path; ReferenceID tells them
// apart on upserts.
type SyncOperation struct {
	Type        OperationType          `json:"type"`
	Path        string                 `json:"path"`
	ReferenceID *uuid.UUID             `json:"referenceId,omitempty"`
	Instance    *rbxtypes.InstanceMeta `json:"instance,omitempty"`
	Source      *string                `json:"source,omitempty"`
}

// SyncBatchPayload carries one ordered batch of operations.
type SyncBatchPayload struct {
	Operations []SyncOperation `json:"operations"`
	ProjectDir string          `json:"projectDir,omitempty"`
}

func (SyncBatchPayload) Command() Command { return CommandSyncBatch }

// SyncDiffPayload asks the plugin for the paths of every syncable instance.
type SyncDiffPayload struct {
	ProjectDir string `json:"projectDir,omitempty"`
}

func (SyncDiffPayload) Command() Command { return CommandSyncDiff }

// RunCodePayload runs Luau in the host.
type RunCodePayload struct {
	Code string `json:"code"`
}

func (RunCodePayload) Command() Command { return CommandRunCode }

// InsertModelPayload inserts a marketplace asset.
type InsertModelPayload struct {
	AssetID uint64 `json:"assetId"`
	Parent  string `json:"parent,omitempty"`
}

func (InsertModelPayload) Command() Command { return CommandInsertModel }

// OperationError is one failed operation of a batch. Without a
// ReferenceID it covers every operation on Path.
type OperationError struct {
	Path        string     `json:"path"`
	ReferenceID *uuid.UUID `json:"referenceId,omitempty"`
	Error       string     `json:"error"`
}

// SyncBatchResult is the plugin's answer to sync:batch. A non-empty Reason
// means the plugin refused the whole batch without applying anything.
type SyncBatchResult struct {
	Applied int              `json:"applied"`
	Errors  []OperationError `json:"errors,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}

// SyncDiffResult lists every instance path the plugin considers syncable.
type SyncDiffResult struct {
	Paths []string `json:"paths"`
}

// RunCodeResult is the captured output of run_code.
type RunCodeResult struct {
	Output string `json:"output"`
}

// UnmarshalJSON accepts either {"output": "..."} or a bare string.
func (r *RunCodeResult) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		r.Output = s
		return nil
	}
	type plain RunCodeResult
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = RunCodeResult(p)
	return nil
}

// InsertModelResult describes the inserted model.
type InsertModelResult struct {
	InsertedName string `json:"insertedName"`
	InsertedPath string `json:"insertedPath"`
	ClassName    string `json:"className"`
}
