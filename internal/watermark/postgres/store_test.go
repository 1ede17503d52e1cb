package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rbxsync/rbxsync-server/internal/watermark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("RBXSYNC_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("RBXSYNC_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	s, err := New(ctx, dsn)
	require.NoError(t, err)
	defer s.Close(ctx)

	project := "/test/" + uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, s.Advance(ctx, project, []watermark.Record{
		{Key: "src/A", Path: "Workspace/A", Hash: "1", ModTime: now, Size: 1, SyncedAt: now},
		{Key: "src/B", Path: "Workspace/B", Hash: "2", ModTime: now, Size: 2, SyncedAt: now},
	}))

	records, err := s.Load(ctx, project)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Workspace/A", records["src/A"].Path)
	assert.True(t, records["src/B"].ModTime.Equal(now))

	removed, err := s.Prune(ctx, project, []string{"src/B"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = s.Prune(ctx, project, nil)
	require.NoError(t, err)
	records, err = s.Load(ctx, project)
	require.NoError(t, err)
	assert.Empty(t, records)
}
