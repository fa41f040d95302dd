package migrate

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

var testMigrations = fstest.MapFS{
	"00001_a.sql": {Data: []byte("-- +goose Up\nCREATE TABLE a (id INTEGER);\n-- +goose Down\nDROP TABLE a;\n")},
	"00002_b.sql": {Data: []byte("-- +goose Up\nCREATE TABLE b (id INTEGER);\n-- +goose Down\nDROP TABLE b;\n")},
	"00003_c.sql": {Data: []byte("-- +goose Up\nCREATE TABLE c (id INTEGER);\n-- +goose Down\nDROP TABLE c;\n")},
}

func newTestRunner(t *testing.T) (*Runner, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	r, err := New(db, goose.DialectSQLite3, testMigrations, logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r, db
}

func appliedCount(t *testing.T, r *Runner) int {
	t.Helper()
	statuses, err := r.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	n := 0
	for _, s := range statuses {
		if s.Applied {
			n++
		}
	}
	return n
}

func TestNew_NilDB(t *testing.T) {
	if _, err := New(nil, goose.DialectSQLite3, testMigrations, nil); err == nil {
		t.Error("New(nil) error = nil, want error")
	}
}

func TestRunner_UpDownStatus(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	if got := appliedCount(t, r); got != 0 {
		t.Fatalf("applied before Up = %d, want 0", got)
	}

	if err := r.Up(ctx); err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if got := appliedCount(t, r); got != 3 {
		t.Fatalf("applied after Up = %d, want 3", got)
	}

	// Up again is a no-op.
	if err := r.Up(ctx); err != nil {
		t.Fatalf("second Up() error = %v", err)
	}

	if err := r.Down(ctx, 0); err != nil {
		t.Fatalf("Down(0) error = %v", err)
	}
	if got := appliedCount(t, r); got != 2 {
		t.Errorf("applied after Down(0) = %d, want 2", got)
	}

	if err := r.Down(ctx, 1); err != nil {
		t.Fatalf("Down(1) error = %v", err)
	}
	if got := appliedCount(t, r); got != 1 {
		t.Errorf("applied after Down(1) = %d, want 1", got)
	}
}

func TestRunner_StatusListsEveryVersion(t *testing.T) {
	r, _ := newTestRunner(t)

	statuses, err := r.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("Status() returned %d entries, want 3", len(statuses))
	}
	for i, s := range statuses {
		if s.Version != int64(i+1) {
			t.Errorf("statuses[%d].Version = %d, want %d", i, s.Version, i+1)
		}
	}
}
