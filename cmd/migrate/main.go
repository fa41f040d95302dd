// Command migrate applies, rolls back or lists the schema migrations of the
// configured store without starting the API server.
//
// Usage:
//
//	go run ./cmd/migrate -command up
//	go run ./cmd/migrate -command down -target 1
//	go run ./cmd/migrate -command status
//
// The store is chosen the same way the server chooses it: DATABASE_URL with a
// postgres:// scheme selects PostgreSQL, otherwise DB_PATH names a SQLite file.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/blog-backend/internal/config"
	"github.com/sakif/blog-backend/internal/repository/migrate"
	"github.com/sakif/blog-backend/internal/repository/postgres"
	"github.com/sakif/blog-backend/internal/repository/sqlite"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down command (optional)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, runner, err := openRunner(ctx, cfg, log)
	if err != nil {
		log.Error("failed to configure migration runner", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	switch *command {
	case "up":
		if err := runner.Up(ctx); err != nil {
			log.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	case "status":
		statuses, err := runner.Status(ctx)
		if err != nil {
			log.Error("failed to fetch migration status", "error", err)
			os.Exit(1)
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Printf("%5d  %-8s %s\n", s.Version, state, s.Path)
		}
	case "down":
		if err := runner.Down(ctx, *target); err != nil {
			log.Error("failed to roll back migrations", "error", err)
			os.Exit(1)
		}
	default:
		log.Error("unsupported command", "command", *command)
		os.Exit(1)
	}

	log.Info("migration command completed", "command", *command)
}

func openRunner(ctx context.Context, cfg config.Database, log *slog.Logger) (*sql.DB, *migrate.Runner, error) {
	if cfg.UsesPostgres() {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		runner, err := postgres.NewMigrator(db, log)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, runner, nil
	}

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	runner, err := sqlite.NewMigrator(db, log)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, runner, nil
}
