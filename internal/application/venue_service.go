package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/permission"
)

const (
	maxVenueNameLength        = 100
	maxVenueDescriptionLength = 500
)

// VenueRepository captures the persistence interactions needed by the venue service.
type VenueRepository interface {
	CreateVenue(ctx context.Context, venue booking.Venue) error
	UpdateVenue(ctx context.Context, venue booking.Venue) error
	GetVenue(ctx context.Context, id string) (booking.Venue, error)
	ListVenues(ctx context.Context) ([]booking.Venue, error)
	DeleteVenue(ctx context.Context, id string) error
}

// BookingLister exposes the booking queries the venue service needs.
type BookingLister interface {
	ListBookings(ctx context.Context, filter BookingFilter) ([]booking.Booking, error)
}

// FeedInvalidator drops cached calendar feeds.
type FeedInvalidator interface {
	InvalidateFeeds(venueIDs ...string)
}

// VenueService manages the venue catalog.
type VenueService struct {
	venues      VenueRepository
	bookings    BookingLister
	locks       *VenueLocks
	feeds       FeedInvalidator
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewVenueService wires dependencies for venue operations. locks must be the
// table shared with the BookingService.
func NewVenueService(venues VenueRepository, bookings BookingLister, locks *VenueLocks, feeds FeedInvalidator, idGenerator func() string, now func() time.Time) *VenueService {
	return NewVenueServiceWithLogger(venues, bookings, locks, feeds, idGenerator, now, nil)
}

// NewVenueServiceWithLogger wires dependencies for venue operations with a specified logger.
func NewVenueServiceWithLogger(venues VenueRepository, bookings BookingLister, locks *VenueLocks, feeds FeedInvalidator, idGenerator func() string, now func() time.Time, logger *slog.Logger) *VenueService {
	if locks == nil {
		locks = NewVenueLocks()
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &VenueService{
		venues:      venues,
		bookings:    bookings,
		locks:       locks,
		feeds:       feeds,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *VenueService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "VenueService", operation, attrs...)
}

func (s *VenueService) ready() error {
	if s == nil {
		return fmt.Errorf("VenueService is nil")
	}
	if s.venues == nil {
		return fmt.Errorf("venue repository not configured")
	}
	return nil
}

// RegisterVenue adds a venue to the catalog. New venues accept bookings.
func (s *VenueService) RegisterVenue(ctx context.Context, params RegisterVenueParams) (venue booking.Venue, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "RegisterVenue", "actor", actorName(params.Principal))
	defer func() {
		logOutcome(ctx, logger, err, "venue registered", "venue_id", venue.ID, "venue_name", venue.Name)
	}()

	if err = authorize(params.Principal, permission.VenueRegister); err != nil {
		return
	}

	input := normalizeVenueInput(params.Input)
	if input.OwnerUsername == "" {
		input.OwnerUsername = params.Principal.Username
	}
	if vErr := validateVenueInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	venue = booking.Venue{
		ID:            s.idGenerator(),
		Name:          input.Name,
		Description:   input.Description,
		OwnerUsername: input.OwnerUsername,
		IsActive:      true,
		CreatedAt:     s.now(),
	}
	if err = s.venues.CreateVenue(ctx, venue); err != nil {
		err = mapRepoError(err)
		venue = booking.Venue{}
	}
	return
}

// UpdateVenue changes a venue's name, description or owner. A rename is
// copied onto every booking at the venue.
func (s *VenueService) UpdateVenue(ctx context.Context, params UpdateVenueParams) (venue booking.Venue, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateVenue", "actor", actorName(params.Principal), "venue_id", params.VenueID)
	defer func() {
		logOutcome(ctx, logger, err, "venue updated", "venue_name", venue.Name)
	}()

	if err = authorize(params.Principal, permission.VenueEdit); err != nil {
		return
	}

	unlock := s.locks.Lock(params.VenueID)
	defer unlock()

	var existing booking.Venue
	if existing, err = s.getVenue(ctx, params.VenueID); err != nil {
		return
	}

	input := normalizeVenueInput(params.Input)
	if input.OwnerUsername == "" {
		input.OwnerUsername = existing.OwnerUsername
	}
	if vErr := validateVenueInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	venue = existing
	venue.Name = input.Name
	venue.Description = input.Description
	venue.OwnerUsername = input.OwnerUsername
	if err = s.save(ctx, venue); err != nil {
		venue = booking.Venue{}
	}
	return
}

// SetVenueStatus opens or closes a venue for new bookings. Existing bookings
// are left untouched.
func (s *VenueService) SetVenueStatus(ctx context.Context, params SetVenueStatusParams) (venue booking.Venue, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "SetVenueStatus",
		"actor", actorName(params.Principal),
		"venue_id", params.VenueID,
		"active", params.Active,
	)
	defer func() {
		logOutcome(ctx, logger, err, "venue status changed")
	}()

	if err = authorize(params.Principal, permission.VenueToggleStatus); err != nil {
		return
	}

	unlock := s.locks.Lock(params.VenueID)
	defer unlock()

	if venue, err = s.getVenue(ctx, params.VenueID); err != nil {
		return
	}
	if venue.IsActive == params.Active {
		return
	}
	venue.IsActive = params.Active
	if err = s.save(ctx, venue); err != nil {
		venue = booking.Venue{}
	}
	return
}

// DeleteVenue removes a venue that holds no Pending or Confirmed bookings.
// Its cancelled bookings go with it.
func (s *VenueService) DeleteVenue(ctx context.Context, principal *permission.User, venueID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DeleteVenue", "actor", actorName(principal), "venue_id", venueID)
	defer func() {
		logOutcome(ctx, logger, err, "venue deleted")
	}()

	if err = authorize(principal, permission.VenueDelete); err != nil {
		return
	}

	unlock := s.locks.Lock(venueID)
	defer unlock()

	if _, err = s.getVenue(ctx, venueID); err != nil {
		return
	}
	if s.bookings != nil {
		var active []booking.Booking
		active, err = s.bookings.ListBookings(ctx, BookingFilter{VenueID: venueID, ActiveOnly: true})
		if err != nil {
			err = mapRepoError(err)
			return
		}
		if len(active) > 0 {
			err = newValidationError("venue", fmt.Sprintf("venue still has %d active booking(s)", len(active)))
			return
		}
	}

	if err = s.venues.DeleteVenue(ctx, venueID); err != nil {
		err = mapRepoError(err)
		return
	}
	s.invalidate(venueID)
	return
}

// ListVenues returns the catalog ordered by name.
func (s *VenueService) ListVenues(ctx context.Context, principal *permission.User) ([]booking.Venue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(principal, permission.VenueView); err != nil {
		return nil, err
	}
	venues, err := s.venues.ListVenues(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return venues, nil
}

// GetVenue returns one venue.
func (s *VenueService) GetVenue(ctx context.Context, principal *permission.User, venueID string) (booking.Venue, error) {
	if err := s.ready(); err != nil {
		return booking.Venue{}, err
	}
	if err := authorize(principal, permission.VenueView); err != nil {
		return booking.Venue{}, err
	}
	return s.getVenue(ctx, venueID)
}

func (s *VenueService) save(ctx context.Context, venue booking.Venue) error {
	if err := s.venues.UpdateVenue(ctx, venue); err != nil {
		return mapRepoError(err)
	}
	s.invalidate(venue.ID)
	return nil
}

func (s *VenueService) getVenue(ctx context.Context, id string) (booking.Venue, error) {
	venue, err := s.venues.GetVenue(ctx, id)
	if err != nil {
		return booking.Venue{}, mapRepoError(err)
	}
	return venue, nil
}

func (s *VenueService) invalidate(venueID string) {
	if s.feeds != nil {
		s.feeds.InvalidateFeeds(venueID)
	}
}

func normalizeVenueInput(input VenueInput) VenueInput {
	return VenueInput{
		Name:          strings.TrimSpace(input.Name),
		Description:   strings.TrimSpace(input.Description),
		OwnerUsername: strings.TrimSpace(input.OwnerUsername),
	}
}

func validateVenueInput(input VenueInput) *ValidationError {
	vErr := &ValidationError{}

	switch {
	case input.Name == "":
		vErr.Add("name", "name is required")
	case utf8.RuneCountInString(input.Name) > maxVenueNameLength:
		vErr.Add("name", fmt.Sprintf("name must be at most %d characters", maxVenueNameLength))
	}

	if utf8.RuneCountInString(input.Description) > maxVenueDescriptionLength {
		vErr.Add("description", fmt.Sprintf("description must be at most %d characters", maxVenueDescriptionLength))
	}

	if input.OwnerUsername == "" {
		vErr.Add("owner_username", "owner is required")
	}

	return vErr
}
