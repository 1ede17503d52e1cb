package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ExtractStartRequest starts a full extraction. Terrain and assets are
// included unless explicitly disabled.
type ExtractStartRequest struct {
	Services       []string `json:"services,omitempty"`
	IncludeTerrain *bool    `json:"includeTerrain,omitempty"`
	IncludeAssets  *bool    `json:"includeAssets,omitempty"`
}

// Payload converts the request into the plugin command, applying defaults.
func (r ExtractStartRequest) Payload() ExtractStartPayload {
	p := ExtractStartPayload{
		Services:       r.Services,
		IncludeTerrain: true,
		IncludeAssets:  true,
	}
	if p.Services == nil {
		p.Services = []string{}
	}
	if r.IncludeTerrain != nil {
		p.IncludeTerrain = *r.IncludeTerrain
	}
	if r.IncludeAssets != nil {
		p.IncludeAssets = *r.IncludeAssets
	}
	return p
}

type ExtractStartResponse struct {
	SessionID uuid.UUID `json:"sessionId"`
	Status    string    `json:"status"`
}

// ExtractChunkRequest is one chunk of an extraction, posted by the plugin.
type ExtractChunkRequest struct {
	SessionID   uuid.UUID       `json:"sessionId"`
	ChunkIndex  int             `json:"chunkIndex"`
	TotalChunks int             `json:"totalChunks"`
	Data        json.RawMessage `json:"data"`
}

type ExtractChunkResponse struct {
	Received int `json:"received"`
	Total    int `json:"total"`
}

// ExtractStatusResponse describes the active session. With no session the
// server answers {"sessionId": null, "status": "no_active_session"}.
type ExtractStatusResponse struct {
	SessionID      uuid.UUID `json:"sessionId"`
	State          string    `json:"state,omitempty"`
	ChunksReceived int       `json:"chunksReceived"`
	TotalChunks    *int      `json:"totalChunks"`
	Complete       bool      `json:"complete"`
	Status         string    `json:"status,omitempty"`
}

// ExtractStatusNoSession is the status value when nothing is running.
const ExtractStatusNoSession = "no_active_session"

type ExtractFinalizeRequest struct {
	SessionID  uuid.UUID `json:"sessionId"`
	ProjectDir string    `json:"projectDir" binding:"required"`
}

type ExtractFinalizeResponse struct {
	Success      bool     `json:"success"`
	FilesWritten int      `json:"filesWritten"`
	Instances    int      `json:"instances"`
	Warnings     []string `json:"warnings,omitempty"`
}

type ExtractResetResponse struct {
	Success   bool      `json:"success"`
	SessionID uuid.UUID `json:"sessionId"`
}

type SyncRequest struct {
	ProjectDir string `json:"projectDir" binding:"required"`
	Delete     bool   `json:"delete"`
}

// SyncResult summarizes one incremental sync run.
type SyncResult struct {
	Success       bool             `json:"success"`
	FullSync      bool             `json:"fullSync"`
	FilesChecked  int              `json:"filesChecked"`
	FilesModified int              `json:"filesModified"`
	Upserts       int              `json:"upserts"`
	Deletes       int              `json:"deletes"`
	Applied       int              `json:"applied"`
	Skipped       bool             `json:"skipped"`
	Reason        string           `json:"reason,omitempty"`
	Errors        []OperationError `json:"errors,omitempty"`
}

type RunCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

type RunCodeResponse struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
}

type InsertModelRequest struct {
	AssetID uint64 `json:"assetId" binding:"required"`
	Parent  string `json:"parent,omitempty"`
}

type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	PluginConnected bool   `json:"pluginConnected"`
	QueueDepth      int    `json:"queueDepth"`
	PendingRequests int    `json:"pendingRequests"`
}
