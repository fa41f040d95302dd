// Package main is the entry point for the blog API server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
//  1. Read configuration (environment variables, see internal/config)
//  2. Create process-wide dependencies (logger, tracer)
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/blog-backend/internal/config"
	"github.com/sakif/blog-backend/internal/server"
	"github.com/sakif/blog-backend/internal/telemetry"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// JWT_SECRET is required. Generate one with:
	//   JWT_SECRET=$(openssl rand -hex 32)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// LOG_FORMAT=json for log shippers, text for terminals.
	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	// === 3. TRACING (optional) ===
	// Spans go to stderr so they do not interleave with request logs.
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer(context.Background(), cfg.ServiceName, os.Stderr)
		if err != nil {
			logger.Error("failed to initialise tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Error("flushing traces", slog.String("error", err.Error()))
			}
		}()
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
