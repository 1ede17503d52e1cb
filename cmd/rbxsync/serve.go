package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rbxsync/rbxsync-server/internal/auth"
	"github.com/rbxsync/rbxsync-server/internal/broker"
	"github.com/rbxsync/rbxsync-server/internal/events"
	"github.com/rbxsync/rbxsync-server/internal/extraction"
	"github.com/rbxsync/rbxsync-server/internal/gateway"
	"github.com/rbxsync/rbxsync-server/internal/harness"
	"github.com/rbxsync/rbxsync-server/internal/metrics"
	"github.com/rbxsync/rbxsync-server/internal/orchestration"
	"github.com/rbxsync/rbxsync-server/internal/project"
	"github.com/rbxsync/rbxsync-server/internal/syncengine"
	"github.com/rbxsync/rbxsync-server/internal/vcs"
	"github.com/rbxsync/rbxsync-server/internal/watch"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/rbxsync/rbxsync-server/docs" // swagger docs
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the server the Studio plugin connects to",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addServerFlags(cmd)
	cmd.Flags().String("watch", "", "sync this project directory to Studio whenever its files change")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog := setupLogging(os.Stderr, cfg.LogFile)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Trace {
		shutdownTracer, err := initTracer(os.Stdout)
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			shutdownTracer(sctx)
		}()
	}

	brokerMetrics, err := metrics.NewBrokerMetrics()
	if err != nil {
		return fmt.Errorf("failed to create broker metrics: %w", err)
	}
	syncMetrics, err := metrics.NewSyncMetrics()
	if err != nil {
		return fmt.Errorf("failed to create sync metrics: %w", err)
	}

	store, err := openStore(ctx, cfg.WatermarkDSN)
	if err != nil {
		return fmt.Errorf("failed to open watermark store: %w", err)
	}
	defer store.Close(context.Background())

	hub := events.NewHub()
	b := broker.New(brokerMetrics)

	engine := syncengine.New(b, store, cfg.RequestTimeout)
	engine.SetMetrics(syncMetrics)
	engine.SetPublisher(hub)

	service := orchestration.NewService(b, engine, cfg.RequestTimeout)

	extractor := extraction.NewManager(b, project.NewWriter())
	extractor.SetMetrics(syncMetrics)
	extractor.SetPublisher(hub)
	extractor.OnFinalized(service.Baseline)

	var jwtManager *auth.JWTManager
	if cfg.Secret != "" {
		jwtManager, err = auth.NewJWTManager(cfg.Secret)
		if err != nil {
			return fmt.Errorf("failed to initialize JWT manager: %w", err)
		}
	} else {
		log.Printf(`{"level":"warn","message":"no secret configured, control routes are unauthenticated"}`)
	}

	handler := gateway.NewHandler(b, extractor, service, vcs.New(), harness.New(), gateway.Config{
		Version:     version,
		PollTimeout: cfg.PollTimeout,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(structuredLoggingMiddleware())

	// Swagger documentation (public)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	gateway.RegisterRoutes(router, handler, gateway.NewEventStream(hub), jwtManager)

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// A sync waits on up to two plugin round trips.
		WriteTimeout: cfg.PollTimeout + 2*cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var watcher *watch.Watcher
	if dir, _ := cmd.Flags().GetString("watch"); dir != "" {
		watcher, err = watch.New(dir, service, watch.DefaultDebounce)
		if err != nil {
			return err
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf(`{"level":"info","message":"rbxsync server listening","addr":"%s","version":"%s"}`, cfg.Addr(), version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if watcher != nil {
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Printf(`{"level":"error","message":"watcher stopped","error":"%v"}`, err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Printf(`{"level":"info","message":"shutting down server"}`)
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	// Release parked polls and event streams before draining the listener.
	b.Close()
	hub.Close()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Printf(`{"level":"info","message":"server exited"}`)
	return nil
}
