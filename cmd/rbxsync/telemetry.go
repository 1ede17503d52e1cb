package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rbxsync/rbxsync-server/internal/auth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

// initTracer initializes OpenTelemetry tracing. The returned func flushes
// and stops the exporter.
func initTracer(w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// setupLogging sends the standard logger to console and, when logFile is
// set, to a rotating file as well.
func setupLogging(console io.Writer, logFile string) func() {
	log.SetFlags(0)
	if logFile == "" {
		log.SetOutput(console)
		return func() {}
	}

	rotating := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(console, rotating))
	return func() {
		rotating.Close()
	}
}

// structuredLoggingMiddleware provides structured JSON logging for all requests
func structuredLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// The plugin polls continuously; only failed polls are worth a line.
		if c.Request.URL.Path == "/request" && c.Writer.Status() < http.StatusBadRequest {
			return
		}

		// Calculate latency
		latency := time.Since(start)

		// Build log entry
		logEntry := map[string]interface{}{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}

		// Add token subject if authenticated
		if v, ok := c.Get(auth.ClaimsKey); ok {
			if claims, ok := v.(*auth.Claims); ok {
				logEntry["subject"] = claims.Subject
			}
		}

		// Add error if present
		if len(c.Errors) > 0 {
			logEntry["errors"] = c.Errors.String()
		}

		// Output as JSON
		logJSON, _ := json.Marshal(logEntry)
		log.Println(string(logJSON))
	}
}
