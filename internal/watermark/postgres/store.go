// Package postgres stores watermarks in a shared PostgreSQL database, for
// teams that want sync state to follow a project between machines.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rbxsync/rbxsync-server/internal/watermark"
)

var _ watermark.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn and makes sure the watermark table exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS rbxsync_watermarks (
    project   TEXT NOT NULL,
    entry_key TEXT NOT NULL,
    path      TEXT NOT NULL,
    hash      TEXT NOT NULL,
    mod_time  TIMESTAMPTZ NOT NULL,
    size      BIGINT NOT NULL,
    synced_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (project, entry_key)
);
`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating watermark schema: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, project string) (map[string]watermark.Record, error) {
	rows, err := s.pool.Query(ctx, `
SELECT entry_key, path, hash, mod_time, size, synced_at
FROM rbxsync_watermarks
WHERE project = $1
`, project)
	if err != nil {
		return nil, fmt.Errorf("querying watermarks: %w", err)
	}
	defer rows.Close()

	records := make(map[string]watermark.Record)
	for rows.Next() {
		var r watermark.Record
		if err := rows.Scan(&r.Key, &r.Path, &r.Hash, &r.ModTime, &r.Size, &r.SyncedAt); err != nil {
			return nil, fmt.Errorf("scanning watermark: %w", err)
		}
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

	query := `
INSERT INTO rbxsync_watermarks (project, entry_key, path, hash, mod_time, size, synced_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (project, entry_key) DO UPDATE SET
    path = EXCLUDED.path,
    hash = EXCLUDED.hash,
    mod_time = EXCLUDED.mod_time,
    size = EXCLUDED.size,
    synced_at = EXCLUDED.synced_at
`
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query, project, r.Key, r.Path, r.Hash, r.ModTime, r.Size, r.SyncedAt)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting watermarks: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing watermarks: %w", err)
	}
	return nil
}

func (s *Store) Prune(ctx context.Context, project string, live []string) (int64, error) {
	if live == nil {
		live = []string{}
	}
	tag, err := s.pool.Exec(ctx, `
DELETE FROM rbxsync_watermarks
WHERE project = $1
  AND NOT (entry_key = ANY($2))
`, project, live)
	if err != nil {
		return 0, fmt.Errorf("removing stale watermarks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}
