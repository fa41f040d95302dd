// Package postgres implements the repository interfaces on PostgreSQL using pgx.
//
// Queries go through a pgxpool.Pool. Migrations need a database/sql handle for
// goose, so Open registers the pgx stdlib driver and returns one.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/sakif/blog-backend/internal/repository"
	"github.com/sakif/blog-backend/internal/repository/migrate"
	"github.com/sakif/blog-backend/internal/repository/postgres/migrations"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

var _ repository.Store = (*Store)(nil)

// Store implements UserRepository and PostRepository on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New applies pending migrations to the database at dsn and returns a Store
// backed by a fresh connection pool.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if err := migrateUp(ctx, dsn, logger); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Open returns a database/sql handle for dsn through the pgx stdlib driver.
// cmd/migrate uses it directly.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening sql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: pinging sql connection: %w", err)
	}
	return db, nil
}

// NewMigrator returns a migration runner over the embedded PostgreSQL schema.
func NewMigrator(db *sql.DB, logger *slog.Logger) (*migrate.Runner, error) {
	return migrate.New(db, goose.DialectPostgres, migrations.FS, logger)
}

func migrateUp(ctx context.Context, dsn string, logger *slog.Logger) error {
	db, err := Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	runner, err := NewMigrator(db, logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := runner.Up(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Close releases the pool. It never fails.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// timestamp returns the current time truncated to TIMESTAMPTZ precision.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
