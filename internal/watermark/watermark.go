// Package watermark records what has already been pushed to the host, so a
// sync only sends instances whose files changed since then.
//
// Stores assume a single controller process per project. Two servers
// syncing the same project concurrently can advance each other's records.
package watermark

import (
	"context"
	"path/filepath"
	"time"
)

// Record is the last synced state of one on-disk instance.
type Record struct {
	// Key is the instance directory relative to the project root.
	Key string
	// Path is the instance path on the host.
	Path     string
	Hash     string
	ModTime  time.Time
	Size     int64
	SyncedAt time.Time
}

// Store persists records per project.
type Store interface {
	// Load returns every record of project keyed by Record.Key. An empty
	// map means the project was never synced.
	Load(ctx context.Context, project string) (map[string]Record, error)
	// Advance inserts or replaces records.
	Advance(ctx context.Context, project string, records []Record) error
	// Prune deletes every record whose key is not in live and returns how
	// many were removed.
	Prune(ctx context.Context, project string, live []string) (int64, error)
	Close(ctx context.Context) error
}

// ProjectKey normalizes a project directory into the key stores use.
func ProjectKey(projectDir string) string {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return filepath.Clean(projectDir)
	}
	return abs
}
