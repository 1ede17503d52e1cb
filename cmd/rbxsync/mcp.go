package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rbxsync/rbxsync-server/internal/auth"
	"github.com/rbxsync/rbxsync-server/internal/orchestration"
	"github.com/rbxsync/rbxsync-server/internal/tools"
	"github.com/spf13/cobra"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP tool server over stdio",
		Long:  "Start the MCP tool server over stdio. Tools forward to a running 'rbxsync serve'.",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
	addClientFlags(cmd)
	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	closeLog := setupLogging(os.Stderr, cfg.LogFile)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Trace {
		shutdownTracer, err := initTracer(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			shutdownTracer(sctx)
		}()
	}

	token, err := clientToken(ctx, cfg.Secret)
	if err != nil {
		return err
	}
	client := orchestration.NewClient(cfg.URL(), token)

	hctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if health, err := client.Health(hctx); err != nil {
		log.Printf(`{"level":"warn","message":"rbxsync server not reachable yet","url":"%s","error":"%v"}`, client.BaseURL(), err)
	} else {
		log.Printf(`{"level":"info","message":"connected to rbxsync server","url":"%s","version":"%s","plugin_connected":%t}`,
			client.BaseURL(), health.Version, health.PluginConnected)
	}
	cancel()

	server := tools.NewServer(client, version, tools.Options{ExtractTimeout: cfg.ExtractTimeout})
	return server.Run(ctx, &sdk.StdioTransport{})
}

// clientToken mints an in-memory admin token when the server requires auth.
func clientToken(ctx context.Context, secret string) (string, error) {
	if secret == "" {
		return "", nil
	}
	jm, err := auth.NewJWTManager(secret)
	if err != nil {
		return "", fmt.Errorf("failed to initialize JWT manager: %w", err)
	}
	token, err := jm.GenerateToken(ctx, "mcp", []string{auth.ScopeAdmin}, 0)
	if err != nil {
		return "", fmt.Errorf("failed to mint client token: %w", err)
	}
	return token, nil
}
