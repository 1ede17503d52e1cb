package models

import (
	"time"
)

// Event is a progress notification streamed to /events subscribers.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType string, data map[string]interface{}) Event {
	return Event{Type: eventType, Timestamp: time.Now().UTC(), Data: data}
}

// Event types
const (
	EventTypeExtractStarted   = "extract.started"
	EventTypeExtractChunk     = "extract.chunk"
	EventTypeExtractComplete  = "extract.complete"
	EventTypeExtractFinalized = "extract.finalized"
	EventTypeExtractReset     = "extract.reset"
	EventTypeSyncCompleted    = "sync.completed"
	EventTypeSyncSkipped      = "sync.skipped"
	EventTypeSyncFailed       = "sync.failed"
)
