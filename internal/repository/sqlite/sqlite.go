// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// modernc.org/sqlite is a pure Go port of SQLite, so the binary needs no C toolchain.
// Tables are created by the goose migrations embedded in the migrations subpackage.
//
// Timestamps are stored as INTEGER Unix milliseconds and tags as a JSON array in
// a TEXT column. Both round-trip without depending on column type affinity.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/sakif/blog-backend/internal/repository"
	"github.com/sakif/blog-backend/internal/repository/migrate"
	"github.com/sakif/blog-backend/internal/repository/sqlite/migrations"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
// A single *DB implements both UserRepository and PostRepository.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath, applies pending migrations and returns a
// ready store.
//
// dbPath examples:
//   - "data/blog.db" → file-based database (persistent)
//   - ":memory:"     → in-memory database, lost on close
func New(ctx context.Context, dbPath string, logger *slog.Logger) (*DB, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}

	runner, err := NewMigrator(conn, logger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	if err := runner.Up(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Open opens and configures a connection pool without running migrations.
// cmd/migrate uses it directly.
//
// The pool is limited to one connection. SQLite serialises writers anyway, and
// with ":memory:" every extra connection would see a different empty database.
func Open(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	return conn, nil
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// timestamp returns the current time at the precision the store keeps, so values
// handed back on insert equal what a later read returns.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint
// failure. Falls back to the message text when the driver error is wrapped in
// something errors.As cannot see through.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// NewMigrator returns a migration runner over the embedded SQLite schema.
func NewMigrator(conn *sql.DB, logger *slog.Logger) (*migrate.Runner, error) {
	return migrate.New(conn, goose.DialectSQLite3, migrations.FS, logger)
}
