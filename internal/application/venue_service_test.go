package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/permission"
)

type recordingInvalidator struct {
	venueIDs []string
}

func (r *recordingInvalidator) InvalidateFeeds(venueIDs ...string) {
	r.venueIDs = append(r.venueIDs, venueIDs...)
}

func newVenueFixture(t *testing.T) (*VenueService, *memoryStore, *recordingInvalidator) {
	t.Helper()
	store := newMemoryStore()
	feeds := &recordingInvalidator{}
	svc := NewVenueServiceWithLogger(store, store, NewVenueLocks(), feeds, sequentialIDs("v"), fixedClock, quietLogger())
	return svc, store, feeds
}

func TestVenueService_RegisterVenue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := principalFor(permission.RoleManager)

	t.Run("registers an active venue owned by the actor", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newVenueFixture(t)

		venue, err := svc.RegisterVenue(ctx, RegisterVenueParams{Principal: manager, Input: VenueInput{Name: "  Main Room ", Description: "Upstairs"}})
		if err != nil {
			t.Fatalf("RegisterVenue returned error: %v", err)
		}
		if venue.ID != "v-01" || venue.Name != "Main Room" || !venue.IsActive || venue.OwnerUsername != manager.Username {
			t.Fatalf("unexpected venue: %#v", venue)
		}
		if !venue.CreatedAt.Equal(testNow) {
			t.Fatalf("expected CreatedAt %v, got %v", testNow, venue.CreatedAt)
		}
	})

	t.Run("requires venue.register", func(t *testing.T) {
		t.Parallel()
		svc, store, _ := newVenueFixture(t)

		_, err := svc.RegisterVenue(ctx, RegisterVenueParams{Principal: principalFor(permission.RoleDJ), Input: VenueInput{Name: "Main Room"}})
		if !errors.Is(err, booking.ErrPermissionDenied) {
			t.Fatalf("expected permission denied, got %v", err)
		}
		if store.writeCount() != 0 {
			t.Fatalf("expected no writes")
		}
	})

	t.Run("validates name", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newVenueFixture(t)

		_, err := svc.RegisterVenue(ctx, RegisterVenueParams{Principal: manager, Input: VenueInput{Name: "   "}})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["name"] == "" {
			t.Fatalf("expected name validation error, got %v", err)
		}
	})

	t.Run("duplicate names map to ErrAlreadyExists", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newVenueFixture(t)

		if _, err := svc.RegisterVenue(ctx, RegisterVenueParams{Principal: manager, Input: VenueInput{Name: "Main Room"}}); err != nil {
			t.Fatalf("RegisterVenue returned error: %v", err)
		}
		_, err := svc.RegisterVenue(ctx, RegisterVenueParams{Principal: manager, Input: VenueInput{Name: "MAIN ROOM"}})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestVenueService_UpdateAndStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store, feeds := newVenueFixture(t)
	manager := principalFor(permission.RoleManager)

	store.addVenue("v-main", "Main Room", true)
	store.bookings["b1"] = booking.Booking{ID: "b1", VenueID: "v-main", VenueName: "Main Room", Status: booking.StatusConfirmed}

	renamed, err := svc.UpdateVenue(ctx, UpdateVenueParams{Principal: manager, VenueID: "v-main", Input: VenueInput{Name: "Grand Hall"}})
	if err != nil {
		t.Fatalf("UpdateVenue returned error: %v", err)
	}
	if renamed.Name != "Grand Hall" || renamed.OwnerUsername != "manager" {
		t.Fatalf("unexpected venue after update: %#v", renamed)
	}
	if b, _ := store.GetBooking(ctx, "b1"); b.VenueName != "Grand Hall" {
		t.Fatalf("expected rename to reach bookings, got %q", b.VenueName)
	}

	closed, err := svc.SetVenueStatus(ctx, SetVenueStatusParams{Principal: manager, VenueID: "v-main", Active: false})
	if err != nil {
		t.Fatalf("SetVenueStatus returned error: %v", err)
	}
	if closed.IsActive {
		t.Fatalf("expected venue to be inactive")
	}
	if b, _ := store.GetBooking(ctx, "b1"); b.Status != booking.StatusConfirmed {
		t.Fatalf("expected existing bookings to be untouched, got %s", b.Status)
	}
	if len(feeds.venueIDs) != 2 {
		t.Fatalf("expected two feed invalidations, got %v", feeds.venueIDs)
	}

	dj := principalFor(permission.RoleDJ)
	if _, err := svc.SetVenueStatus(ctx, SetVenueStatusParams{Principal: dj, VenueID: "v-main", Active: true}); !errors.Is(err, booking.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if _, err := svc.UpdateVenue(ctx, UpdateVenueParams{Principal: manager, VenueID: "ghost", Input: VenueInput{Name: "Ghost"}}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVenueService_DeleteVenue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store, _ := newVenueFixture(t)
	manager := principalFor(permission.RoleManager)

	store.addVenue("v-main", "Main Room", true)
	store.bookings["b1"] = booking.Booking{ID: "b1", VenueID: "v-main", Status: booking.StatusPending}
	store.bookings["b2"] = booking.Booking{ID: "b2", VenueID: "v-main", Status: booking.StatusCancelled}

	err := svc.DeleteVenue(ctx, manager, "v-main")
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["venue"] == "" {
		t.Fatalf("expected active bookings to block deletion, got %v", err)
	}

	store.bookings["b1"] = booking.Booking{ID: "b1", VenueID: "v-main", Status: booking.StatusCancelled}
	if err := svc.DeleteVenue(ctx, manager, "v-main"); err != nil {
		t.Fatalf("DeleteVenue returned error: %v", err)
	}
	if _, err := store.GetVenue(ctx, "v-main"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected venue to be gone, got %v", err)
	}

	venues, err := svc.ListVenues(ctx, principalFor(permission.RoleOther))
	if err != nil || len(venues) != 0 {
		t.Fatalf("expected empty catalog, got %v (%v)", venues, err)
	}
	if err := svc.DeleteVenue(ctx, principalFor(permission.RoleDJ), "v-main"); !errors.Is(err, booking.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}
