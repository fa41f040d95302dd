// Package migrate applies the embedded schema migrations of a store using goose.
//
// Each store package owns its SQL files (sqlite/migrations, postgres/migrations);
// this package only drives them. The same Runner backs automatic migration on
// server startup and the cmd/migrate tool.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// Runner applies migrations from one embedded filesystem to one database.
type Runner struct {
	provider *goose.Provider
	log      *slog.Logger
}

// New returns a Runner for the given dialect. migrations must hold the .sql
// files at its root.
func New(db *sql.DB, dialect goose.Dialect, migrations fs.FS, log *slog.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("migrate: nil database")
	}
	if log == nil {
		log = slog.Default()
	}

	provider, err := goose.NewProvider(dialect, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("migrate: creating goose provider: %w", err)
	}

	return &Runner{provider: provider, log: log}, nil
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) error {
	results, err := r.provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: applying migrations: %w", err)
	}
	for _, res := range results {
		r.log.Debug("migration applied",
			slog.Int64("version", res.Source.Version),
			slog.String("path", res.Source.Path),
			slog.Duration("duration", res.Duration),
		)
	}
	return nil
}

// Down rolls back the most recent migration, or every migration above
// targetVersion when targetVersion > 0.
func (r *Runner) Down(ctx context.Context, targetVersion int64) error {
	if targetVersion > 0 {
		if _, err := r.provider.DownTo(ctx, targetVersion); err != nil {
			return fmt.Errorf("migrate: rolling back to version %d: %w", targetVersion, err)
		}
		r.log.Info("rolled back migrations", slog.Int64("target", targetVersion))
		return nil
	}

	res, err := r.provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate: rolling back latest migration: %w", err)
	}
	r.log.Info("rolled back migration", slog.Int64("version", res.Source.Version))
	return nil
}

// Status is one line of migration state.
type Status struct {
	Version int64
	Path    string
	Applied bool
}

// Status reports every known migration and whether it has been applied.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: reading status: %w", err)
	}

	out := make([]Status, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Status{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
