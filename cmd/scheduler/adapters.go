package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/venue-scheduler/internal/application"
	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/permission"
	"github.com/example/venue-scheduler/internal/persistence"
	"github.com/example/venue-scheduler/internal/recurrence"
)

type bookingStore struct {
	repo persistence.BookingRepository
	now  func() time.Time
}

func newBookingStore(repo persistence.BookingRepository, now func() time.Time) *bookingStore {
	return &bookingStore{repo: repo, now: now}
}

func (s *bookingStore) CreateBooking(ctx context.Context, b booking.Booking) error {
	return s.repo.CreateBooking(ctx, toPersistenceBooking(b, b.CreatedAt))
}

func (s *bookingStore) UpdateBooking(ctx context.Context, b booking.Booking) error {
	return s.repo.UpdateBooking(ctx, toPersistenceBooking(b, s.now()))
}

func (s *bookingStore) GetBooking(ctx context.Context, id string) (booking.Booking, error) {
	model, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return booking.Booking{}, err
	}
	return toDomainBooking(model)
}

func (s *bookingStore) ListBookings(ctx context.Context, filter application.BookingFilter) ([]booking.Booking, error) {
	models, err := s.repo.ListBookings(ctx, persistence.BookingFilter{
		VenueID:    filter.VenueID,
		DJUsername: filter.DJUsername,
		ActiveOnly: filter.ActiveOnly,
	})
	if err != nil {
		return nil, err
	}
	out := make([]booking.Booking, 0, len(models))
	for _, model := range models {
		b, err := toDomainBooking(model)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *bookingStore) DeleteBooking(ctx context.Context, id string) error {
	return s.repo.DeleteBooking(ctx, id)
}

type venueStore struct {
	repo persistence.VenueRepository
	now  func() time.Time
}

func newVenueStore(repo persistence.VenueRepository, now func() time.Time) *venueStore {
	return &venueStore{repo: repo, now: now}
}

func (s *venueStore) CreateVenue(ctx context.Context, v booking.Venue) error {
	return s.repo.CreateVenue(ctx, toPersistenceVenue(v, v.CreatedAt))
}

func (s *venueStore) UpdateVenue(ctx context.Context, v booking.Venue) error {
	return s.repo.UpdateVenue(ctx, toPersistenceVenue(v, s.now()))
}

func (s *venueStore) GetVenue(ctx context.Context, id string) (booking.Venue, error) {
	model, err := s.repo.GetVenue(ctx, id)
	if err != nil {
		return booking.Venue{}, err
	}
	return toDomainVenue(model), nil
}

func (s *venueStore) ListVenues(ctx context.Context) ([]booking.Venue, error) {
	models, err := s.repo.ListVenues(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]booking.Venue, 0, len(models))
	for _, model := range models {
		out = append(out, toDomainVenue(model))
	}
	return out, nil
}

func (s *venueStore) DeleteVenue(ctx context.Context, id string) error {
	return s.repo.DeleteVenue(ctx, id)
}

// userStore serves both the user service and the auth service's credential lookups.
type userStore struct {
	repo persistence.UserRepository
}

func newUserStore(repo persistence.UserRepository) *userStore {
	return &userStore{repo: repo}
}

func (s *userStore) CreateUser(ctx context.Context, creds application.UserCredentials) error {
	model, err := toPersistenceUser(creds)
	if err != nil {
		return err
	}
	return s.repo.CreateUser(ctx, model)
}

func (s *userStore) UpdateUser(ctx context.Context, creds application.UserCredentials) error {
	model, err := toPersistenceUser(creds)
	if err != nil {
		return err
	}
	return s.repo.UpdateUser(ctx, model)
}

func (s *userStore) GetUser(ctx context.Context, username string) (application.UserCredentials, error) {
	model, err := s.repo.GetUser(ctx, username)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return toApplicationCredentials(model)
}

func (s *userStore) ListUsers(ctx context.Context) ([]application.UserCredentials, error) {
	models, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.UserCredentials, 0, len(models))
	for _, model := range models {
		creds, err := toApplicationCredentials(model)
		if err != nil {
			return nil, err
		}
		out = append(out, creds)
	}
	return out, nil
}

func toDomainBooking(model persistence.Booking) (booking.Booking, error) {
	slot, err := recurrence.ParseSlot(model.TimeSlot)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("booking %s: %w", model.ID, err)
	}
	status, err := booking.ParseStatus(model.Status)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("booking %s: %w", model.ID, err)
	}
	rule := recurrence.Rule{Weekday: time.Weekday(model.DayOfWeek), Week: recurrence.Week(model.WeekNumber)}
	if err := rule.Validate(); err != nil {
		return booking.Booking{}, fmt.Errorf("booking %s: %w", model.ID, err)
	}
	return booking.Booking{
		ID:            model.ID,
		DJName:        model.DJName,
		DJUsername:    model.DJUsername,
		StreamingLink: model.StreamingLink,
		VenueName:     model.VenueName,
		VenueID:       model.VenueID,
		Rule:          rule,
		Slot:          slot,
		Status:        status,
		CreatedAt:     model.CreatedAt,
	}, nil
}

func toPersistenceBooking(b booking.Booking, updatedAt time.Time) persistence.Booking {
	return persistence.Booking{
		ID:            b.ID,
		DJName:        b.DJName,
		DJUsername:    b.DJUsername,
		StreamingLink: b.StreamingLink,
		VenueID:       b.VenueID,
		VenueName:     b.VenueName,
		DayOfWeek:     int(b.Rule.Weekday),
		WeekNumber:    int(b.Rule.Week),
		TimeSlot:      b.Slot.String(),
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     updatedAt,
	}
}

func toDomainVenue(model persistence.Venue) booking.Venue {
	return booking.Venue{
		ID:            model.ID,
		Name:          model.Name,
		Description:   model.Description,
		OwnerUsername: model.OwnerUsername,
		IsActive:      model.IsActive,
		CreatedAt:     model.CreatedAt,
	}
}

func toPersistenceVenue(v booking.Venue, updatedAt time.Time) persistence.Venue {
	return persistence.Venue{
		ID:            v.ID,
		Name:          v.Name,
		Description:   v.Description,
		OwnerUsername: v.OwnerUsername,
		IsActive:      v.IsActive,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     updatedAt,
	}
}

func toApplicationCredentials(model persistence.User) (application.UserCredentials, error) {
	role, err := permission.ParseRole(model.Role)
	if err != nil {
		return application.UserCredentials{}, fmt.Errorf("user %s: %w", model.Username, err)
	}
	var perms *permission.Set
	if model.PermissionsJSON != nil {
		perms = &permission.Set{}
		if err := json.Unmarshal(model.PermissionsJSON, perms); err != nil {
			return application.UserCredentials{}, fmt.Errorf("user %s: decode permissions: %w", model.Username, err)
		}
	}
	return application.UserCredentials{
		User: application.User{
			Username:    model.Username,
			FullName:    model.FullName,
			Role:        role,
			Permissions: perms,
			IsActive:    model.IsActive,
			CreatedAt:   model.CreatedAt,
			UpdatedAt:   model.UpdatedAt,
		},
		PasswordHash: model.PasswordHash,
	}, nil
}

func toPersistenceUser(creds application.UserCredentials) (persistence.User, error) {
	model := persistence.User{
		Username:     creds.User.Username,
		FullName:     creds.User.FullName,
		Role:         string(creds.User.Role),
		PasswordHash: creds.PasswordHash,
		IsActive:     creds.User.IsActive,
		CreatedAt:    creds.User.CreatedAt,
		UpdatedAt:    creds.User.UpdatedAt,
	}
	if creds.User.Permissions != nil {
		raw, err := json.Marshal(creds.User.Permissions)
		if err != nil {
			return persistence.User{}, fmt.Errorf("user %s: encode permissions: %w", creds.User.Username, err)
		}
		model.PermissionsJSON = raw
	}
	return model, nil
}
