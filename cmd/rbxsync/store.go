package main

import (
	"context"
	"strings"

	"github.com/rbxsync/rbxsync-server/internal/watermark"
	"github.com/rbxsync/rbxsync-server/internal/watermark/postgres"
	"github.com/rbxsync/rbxsync-server/internal/watermark/sqlite"
)

func openStore(ctx context.Context, dsn string) (watermark.Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.New(ctx, dsn)
	}
	return sqlite.New(dsn), nil
}
