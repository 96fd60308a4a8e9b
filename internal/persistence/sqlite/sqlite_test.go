package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/venue-scheduler/internal/persistence"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dir := t.TempDir()
	dsn := filepath.Join(dir, "scheduler.db")
	storage, err := Open(dsn)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}

	t.Cleanup(func() {
		_ = storage.Close()
	})

	if err := storage.Migrate(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return storage
}

func seedVenue(t *testing.T, storage *Storage, id, name string) persistence.Venue {
	t.Helper()
	now := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	venue := persistence.Venue{
		ID:            id,
		Name:          name,
		OwnerUsername: "manager",
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := storage.Venues.CreateVenue(context.Background(), venue); err != nil {
		t.Fatalf("CreateVenue(%s) failed: %v", id, err)
	}
	return venue
}

func newBooking(id, venueID string, day, week int, slot, status string) persistence.Booking {
	now := time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC)
	return persistence.Booking{
		ID:            id,
		DJName:        "DJ " + id,
		DJUsername:    "dj-" + id,
		StreamingLink: "https://stream.example.com/" + id,
		VenueID:       venueID,
		VenueName:     "Main Room",
		DayOfWeek:     day,
		WeekNumber:    week,
		TimeSlot:      slot,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	now := time.Now().UTC().Truncate(time.Second)
	user := persistence.User{
		Username:     "nova",
		FullName:     "Nova",
		Role:         "DJ",
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := storage.Users.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	fetched, err := storage.Users.GetUser(ctx, "NOVA")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if fetched.FullName != "Nova" || !fetched.IsActive || !fetched.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user retrieved: %#v", fetched)
	}
	if fetched.PermissionsJSON != nil {
		t.Fatalf("expected absent permissions, got %q", fetched.PermissionsJSON)
	}

	user.FullName = "Nova Updated"
	user.IsActive = false
	user.PermissionsJSON = []byte(`{"booking":{"view":true}}`)
	user.UpdatedAt = now.Add(time.Minute)
	if err := storage.Users.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	fetched, err = storage.Users.GetUser(ctx, user.Username)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if fetched.FullName != "Nova Updated" || fetched.IsActive || string(fetched.PermissionsJSON) != `{"booking":{"view":true}}` {
		t.Fatalf("unexpected user after update: %#v", fetched)
	}

	if err := storage.Users.CreateUser(ctx, user); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	user.Role = "Wizard"
	user.Username = "merlin"
	if err := storage.Users.CreateUser(ctx, user); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for unknown role, got %v", err)
	}

	users, err := storage.Users.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}

	if _, err := storage.Users.GetUser(ctx, "ghost"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := storage.Users.UpdateUser(ctx, persistence.User{Username: "ghost", Role: "DJ"}); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestVenueRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	venue := seedVenue(t, storage, "v-main", "Main Room")
	seedVenue(t, storage, "v-side", "Side Room")

	dup := venue
	dup.ID = "v-dup"
	dup.Name = "main room"
	if err := storage.Venues.CreateVenue(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for case-insensitive name, got %v", err)
	}

	if err := storage.Bookings.CreateBooking(ctx, newBooking("b1", "v-main", 5, 2, "20:00", "Confirmed")); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	venue.Name = "Grand Hall"
	venue.IsActive = false
	venue.UpdatedAt = venue.UpdatedAt.Add(time.Hour)
	if err := storage.Venues.UpdateVenue(ctx, venue); err != nil {
		t.Fatalf("UpdateVenue failed: %v", err)
	}

	fetched, err := storage.Venues.GetVenue(ctx, "v-main")
	if err != nil {
		t.Fatalf("GetVenue failed: %v", err)
	}
	if fetched.Name != "Grand Hall" || fetched.IsActive {
		t.Fatalf("unexpected venue after update: %#v", fetched)
	}

	booking, err := storage.Bookings.GetBooking(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if booking.VenueName != "Grand Hall" {
		t.Fatalf("expected rename to propagate to bookings, got %q", booking.VenueName)
	}

	venues, err := storage.Venues.ListVenues(ctx)
	if err != nil {
		t.Fatalf("ListVenues failed: %v", err)
	}
	if len(venues) != 2 || venues[0].Name != "Grand Hall" || venues[1].Name != "Side Room" {
		t.Fatalf("unexpected venue listing: %#v", venues)
	}

	if err := storage.Venues.DeleteVenue(ctx, "v-main"); err != nil {
		t.Fatalf("DeleteVenue failed: %v", err)
	}
	if _, err := storage.Bookings.GetBooking(ctx, "b1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected bookings to cascade, got %v", err)
	}
	if err := storage.Venues.DeleteVenue(ctx, "v-main"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	venue.ID = "ghost"
	venue.Name = "Ghost"
	if err := storage.Venues.UpdateVenue(ctx, venue); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestBookingRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	seedVenue(t, storage, "v-main", "Main Room")
	seedVenue(t, storage, "v-side", "Side Room")

	fixtures := []persistence.Booking{
		newBooking("b1", "v-main", 5, 2, "20:00", "Confirmed"),
		newBooking("b2", "v-main", 1, -1, "18:00", "Pending"),
		newBooking("b3", "v-main", 5, 2, "20:00", "Cancelled"),
		newBooking("b4", "v-side", 5, 2, "20:00", "Pending"),
	}
	for _, b := range fixtures {
		if err := storage.Bookings.CreateBooking(ctx, b); err != nil {
			t.Fatalf("CreateBooking(%s) failed: %v", b.ID, err)
		}
	}

	t.Run("filters", func(t *testing.T) {
		all, err := storage.Bookings.ListBookings(ctx, persistence.BookingFilter{})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(all) != 4 {
			t.Fatalf("expected 4 bookings, got %d", len(all))
		}
		if all[0].ID != "b2" {
			t.Fatalf("expected Monday booking first, got %s", all[0].ID)
		}

		active, err := storage.Bookings.ListBookings(ctx, persistence.BookingFilter{VenueID: "v-main", ActiveOnly: true})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(active) != 2 {
			t.Fatalf("expected 2 active bookings at v-main, got %d", len(active))
		}

		mine, err := storage.Bookings.ListBookings(ctx, persistence.BookingFilter{DJUsername: "DJ-B4"})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(mine) != 1 || mine[0].ID != "b4" {
			t.Fatalf("unexpected DJ listing: %#v", mine)
		}
	})

	t.Run("every week round trips", func(t *testing.T) {
		got, err := storage.Bookings.GetBooking(ctx, "b2")
		if err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
		if got.WeekNumber != -1 || got.TimeSlot != "18:00" || got.DayOfWeek != 1 {
			t.Fatalf("unexpected booking: %#v", got)
		}
	})

	t.Run("active slot is unique", func(t *testing.T) {
		err := storage.Bookings.CreateBooking(ctx, newBooking("b5", "v-main", 5, 2, "20:00", "Pending"))
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("unknown venue", func(t *testing.T) {
		err := storage.Bookings.CreateBooking(ctx, newBooking("b6", "v-none", 2, 1, "10:00", "Pending"))
		if !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("update and delete", func(t *testing.T) {
		b := fixtures[0]
		b.Status = "Cancelled"
		b.UpdatedAt = b.UpdatedAt.Add(time.Hour)
		if err := storage.Bookings.UpdateBooking(ctx, b); err != nil {
			t.Fatalf("UpdateBooking failed: %v", err)
		}
		got, err := storage.Bookings.GetBooking(ctx, b.ID)
		if err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
		if got.Status != "Cancelled" || !got.CreatedAt.Equal(b.CreatedAt) {
			t.Fatalf("unexpected booking after update: %#v", got)
		}

		if err := storage.Bookings.DeleteBooking(ctx, b.ID); err != nil {
			t.Fatalf("DeleteBooking failed: %v", err)
		}
		if err := storage.Bookings.DeleteBooking(ctx, b.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
