package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/venue-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness is a migrated SQLite database in a temporary directory.
type SQLiteHarness struct {
	Storage *sqlite.Storage
	Path    string

	tb testing.TB
}

// NewSQLiteHarness opens and migrates a fresh database. It is closed
// automatically when the test ends.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "venue-scheduler.db")
	storage, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := storage.Migrate(context.Background(), logger); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	return &SQLiteHarness{Storage: storage, Path: path, tb: tb}
}

// SeedVenues inserts the venues or fails the test.
func (h *SQLiteHarness) SeedVenues(venues ...VenueFixture) {
	h.tb.Helper()
	for _, v := range venues {
		if err := h.Storage.Venues.CreateVenue(context.Background(), v.Row()); err != nil {
			h.tb.Fatalf("failed to seed venue %s: %v", v.ID, err)
		}
	}
}

// SeedBookings inserts the bookings or fails the test.
func (h *SQLiteHarness) SeedBookings(bookings ...BookingFixture) {
	h.tb.Helper()
	for _, b := range bookings {
		if err := h.Storage.Bookings.CreateBooking(context.Background(), b.Row()); err != nil {
			h.tb.Fatalf("failed to seed booking %s: %v", b.ID, err)
		}
	}
}

// SeedUsers inserts the accounts or fails the test.
func (h *SQLiteHarness) SeedUsers(users ...UserFixture) {
	h.tb.Helper()
	for _, u := range users {
		if err := h.Storage.Users.CreateUser(context.Background(), u.Row()); err != nil {
			h.tb.Fatalf("failed to seed user %s: %v", u.Username, err)
		}
	}
}
