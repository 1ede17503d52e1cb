// Package sqlite stores watermarks in SQLite. With an empty DSN every
// project gets its own database at <project>/.rbxsync/sync.db; otherwise a
// single database holds every project.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/rbxsync/rbxsync-server/internal/watermark"
)

var _ watermark.Store = (*Store)(nil)

// FileName is the per-project database file, relative to the project root.
var FileName = filepath.Join(".rbxsync", "sync.db")

const schema = `
CREATE TABLE IF NOT EXISTS watermarks (
    project   TEXT NOT NULL,
    entry_key TEXT NOT NULL,
    path      TEXT NOT NULL,
    hash      TEXT NOT NULL,
    mod_time  INTEGER NOT NULL,
    size      INTEGER NOT NULL,
    synced_at INTEGER NOT NULL,
    PRIMARY KEY (project, entry_key)
);
`

type Store struct {
	mu     sync.Mutex
	shared string
	dbs    map[string]*sql.DB
}

// New creates a store. dsn may be empty, a file path, or "sqlite://<path>".
func New(dsn string) *Store {
	return &Store{
		shared: parseDSN(dsn),
		dbs:    make(map[string]*sql.DB),
	}
}

func parseDSN(dsn string) string {
	if strings.HasPrefix(dsn, "sqlite://") {
		return strings.TrimPrefix(dsn, "sqlite://")
	}
	return dsn
}

func (s *Store) Load(ctx context.Context, project string) (map[string]watermark.Record, error) {
	db, err := s.db(ctx, project)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT entry_key, path, hash, mod_time, size, synced_at FROM watermarks WHERE project = ?`, project)
	if err != nil {
		return nil, fmt.Errorf("querying watermarks: %w", err)
	}
	defer rows.Close()

	records := make(map[string]watermark.Record)
	for rows.Next() {
		var r watermark.Record
		var modTime, syncedAt int64
		if err := rows.Scan(&r.Key, &r.Path, &r.Hash, &modTime, &r.Size, &syncedAt); err != nil {
			return nil, fmt.Errorf("scanning watermark: %w", err)
		}
		r.ModTime = time.Unix(0, modTime)
		r.SyncedAt = time.Unix(0, syncedAt)
		records[r.Key] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading watermarks: %w", err)
	}
	return records, nil
}

func (s *Store) Advance(ctx context.Context, project string, records []watermark.Record) error {
	if len(records) == 0 {
		return nil
	}
	db, err := s.db(ctx, project)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO watermarks (project, entry_key, path, hash, mod_time, size, synced_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (project, entry_key) DO UPDATE SET
    path = excluded.path,
    hash = excluded.hash,
    mod_time = excluded.mod_time,
    size = excluded.size,
    synced_at = excluded.synced_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, project, r.Key, r.Path, r.Hash,
			r.ModTime.UnixNano(), r.Size, r.SyncedAt.UnixNano()); err != nil {
			return fmt.Errorf("upserting watermark %s: %w", r.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing watermarks: %w", err)
	}
	return nil
}

func (s *Store) Prune(ctx context.Context, project string, live []string) (int64, error) {
	db, err := s.db(ctx, project)
	if err != nil {
		return 0, err
	}

	keep := make(map[string]struct{}, len(live))
	for _, k := range live {
		keep[k] = struct{}{}
	}

	rows, err := db.QueryContext(ctx, `SELECT entry_key FROM watermarks WHERE project = ?`, project)
	if err != nil {
		return 0, fmt.Errorf("querying watermark keys: %w", err)
	}
	var stale []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning watermark key: %w", err)
		}
		if _, ok := keep[key]; !ok {
			stale = append(stale, key)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("reading watermark keys: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var count int64
	for _, key := range stale {
		res, err := tx.ExecContext(ctx, `DELETE FROM watermarks WHERE project = ? AND entry_key = ?`, project, key)
		if err != nil {
			return 0, fmt.Errorf("removing stale watermark %s: %w", key, err)
		}
		n, _ := res.RowsAffected()
		count += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing prune: %w", err)
	}
	return count, nil
}

func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for key, db := range s.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(s.dbs, key)
	}
	return errors.Join(errs...)
}

// db returns the handle for project, opening it on first use.
func (s *Store) db(ctx context.Context, project string) (*sql.DB, error) {
	path := s.shared
	if path == "" {
		path = filepath.Join(project, FileName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.dbs[path]; ok {
		return db, nil
	}

	// The handle outlives the request that opens it.
	octx := context.WithoutCancel(ctx)
	db, err := open(octx, path)
	if err != nil && corrupt(err) {
		// Recreate a damaged database; the next sync is then a full one.
		log.Printf(`{"level":"warn","message":"watermark database corrupt, recreating","path":"%s","error":"%v"}`, path, err)
		for _, suffix := range []string{"", "-wal", "-shm"} {
			os.Remove(path + suffix)
		}
		db, err = open(octx, path)
	}
	if err != nil {
		return nil, err
	}
	s.dbs[path] = db
	return db, nil
}

func corrupt(err error) bool {
	return errors.Is(err, sqlite3.CORRUPT) || errors.Is(err, sqlite3.NOTADB)
}

func open(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps the pragmas below in effect for every query.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM watermarks`).Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("checking watermarks table: %w", err)
	}
	return db, nil
}
