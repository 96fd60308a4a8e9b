package migration

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := DefaultSQLiteConfig(filepath.Join(t.TempDir(), "migrate.db"))
	cfg.JournalMode = "MEMORY"
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_Run(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"m/001_venues.sql":   {Data: []byte("CREATE TABLE venues (id TEXT PRIMARY KEY);")},
		"m/002_bookings.sql": {Data: []byte("CREATE TABLE bookings (id TEXT PRIMARY KEY);\nCREATE INDEX idx_b ON bookings(id);")},
	}
	manager := NewManager(fsys, "m", NewExecutor(db), quietLogger())

	if err := manager.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := manager.Run(ctx); err != nil {
		t.Fatalf("second Run should be a no-op, got %v", err)
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.CurrentVersion != 2 || len(status.Pending) != 0 || len(status.Applied) != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}

	if _, err := db.ExecContext(ctx, "INSERT INTO bookings (id) VALUES ('b1')"); err != nil {
		t.Fatalf("bookings table missing: %v", err)
	}
}

func TestManager_RunRollsBackFailedMigration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	fsys := fstest.MapFS{
		"m/001_ok.sql":     {Data: []byte("CREATE TABLE ok (id TEXT);")},
		"m/002_broken.sql": {Data: []byte("CREATE TABLE half (id TEXT);\nINSERT INTO missing_table VALUES (1);")},
	}
	manager := NewManager(fsys, "m", NewExecutor(db), quietLogger())

	err := manager.Run(ctx)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}
	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) || dbErr.Version != 2 {
		t.Fatalf("expected DatabaseError for version 2, got %v", err)
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.CurrentVersion != 1 || len(status.Pending) != 1 {
		t.Fatalf("unexpected status after failure: %+v", status)
	}

	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='half'").Scan(&name)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected partial migration to be rolled back, got %v (%q)", err, name)
	}
}

func TestManager_DetectsEditedMigration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTestDB(t)
	original := fstest.MapFS{"m/001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT);")}}
	if err := NewManager(original, "m", NewExecutor(db), quietLogger()).Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	edited := fstest.MapFS{"m/001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT, extra TEXT);")}}
	_, err := NewManager(edited, "m", NewExecutor(db), quietLogger()).Status(ctx)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestSQLiteConfig_Validate(t *testing.T) {
	t.Parallel()

	cases := map[string]SQLiteConfig{
		"empty dsn":      {},
		"journal mode":   {DSN: "x.db", JournalMode: "FAST"},
		"synchronous":    {DSN: "x.db", Synchronous: "SOMETIMES"},
		"negative conns": {DSN: "x.db", MaxOpenConns: -1},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := DefaultSQLiteConfig("x.db").Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestConnectionStringCarriesPragmas(t *testing.T) {
	dsn := DefaultSQLiteConfig("data/app.db").connectionString()
	for _, want := range []string{"file:data/app.db?", "foreign_keys%281%29", "journal_mode%28WAL%29", "busy_timeout%285000%29", "_txlock=immediate"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("connection string %q missing %q", dsn, want)
		}
	}
}
