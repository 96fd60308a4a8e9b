package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/calendar"
	"github.com/example/venue-scheduler/internal/permission"
	"github.com/example/venue-scheduler/internal/recurrence"
)

// BookingRepository captures the persistence interactions needed by the booking service.
type BookingRepository interface {
	CreateBooking(ctx context.Context, b booking.Booking) error
	UpdateBooking(ctx context.Context, b booking.Booking) error
	GetBooking(ctx context.Context, id string) (booking.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]booking.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// VenueCatalog exposes venue lookups.
type VenueCatalog interface {
	GetVenue(ctx context.Context, id string) (booking.Venue, error)
	ListVenues(ctx context.Context) ([]booking.Venue, error)
}

// FeedEncoder renders a venue's bookings as a calendar document.
type FeedEncoder interface {
	Render(venue booking.Venue, bookings []booking.Booking, stamp time.Time) ([]byte, error)
}

// BookingService runs the booking lifecycle against the repositories. Every
// mutation holds the affected venues' locks while it reads the current
// bookings, applies the lifecycle rules and writes the result, so two
// requests can never both claim the same slot.
type BookingService struct {
	bookings BookingRepository
	venues   VenueCatalog
	locks    *VenueLocks
	manager  *booking.Manager
	encoder  FeedEncoder
	feeds    *feedCache
	now      func() time.Time
	logger   *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(bookings BookingRepository, venues VenueCatalog, locks *VenueLocks, encoder FeedEncoder, feedTTL time.Duration, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, venues, locks, encoder, feedTTL, idGenerator, now, nil)
}

// NewBookingServiceWithLogger wires dependencies for booking operations with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, venues VenueCatalog, locks *VenueLocks, encoder FeedEncoder, feedTTL time.Duration, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if locks == nil {
		locks = NewVenueLocks()
	}
	if encoder == nil {
		encoder = calendar.NewEncoder(time.Local, 0)
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings: bookings,
		venues:   venues,
		locks:    locks,
		manager:  booking.NewManager(idGenerator, now),
		encoder:  encoder,
		feeds:    newFeedCache(feedTTL, 0),
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

func (s *BookingService) ready() error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil || s.venues == nil {
		return fmt.Errorf("booking repositories not configured")
	}
	return nil
}

// CreateBooking validates the request and persists a new Pending booking.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (created booking.Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"actor", actorName(params.Principal),
		"venue_name", params.Input.VenueName,
	)
	defer func() {
		logOutcome(ctx, logger, err, "booking created", "booking_id", created.ID, "venue_id", created.VenueID)
	}()

	if err = authorize(params.Principal, permission.BookingCreate); err != nil {
		return
	}

	var catalog booking.Catalog
	if catalog, err = s.catalog(ctx); err != nil {
		return
	}
	venue, _ := catalog.ByName(params.Input.VenueName)

	unlock := s.locks.Lock(venue.ID)
	defer unlock()

	var existing []booking.Booking
	if catalog, existing, err = s.snapshot(ctx, venue.ID); err != nil {
		return
	}

	if created, err = s.manager.Create(params.Principal, params.Input, catalog, existing); err != nil {
		return
	}
	if err = s.bookings.CreateBooking(ctx, created); err != nil {
		err = mapRepoError(err)
		return
	}
	s.feeds.Invalidate(created.VenueID)
	return
}

// EditBooking replaces the caller-editable fields of a booking. The booking
// keeps its ID, DJ username, status and creation time.
func (s *BookingService) EditBooking(ctx context.Context, params EditBookingParams) (updated booking.Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "EditBooking",
		"actor", actorName(params.Principal),
		"booking_id", params.BookingID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "booking edited", "venue_id", updated.VenueID)
	}()

	if err = authorize(params.Principal, permission.BookingEdit); err != nil {
		return
	}

	var original booking.Booking
	if original, err = s.getBooking(ctx, params.BookingID); err != nil {
		return
	}
	var catalog booking.Catalog
	if catalog, err = s.catalog(ctx); err != nil {
		return
	}
	target, _ := catalog.ByName(params.Input.VenueName)

	unlock := s.locks.Lock(original.VenueID, target.ID)
	defer unlock()

	if original, err = s.getBooking(ctx, params.BookingID); err != nil {
		return
	}
	var existing []booking.Booking
	if catalog, existing, err = s.snapshot(ctx, target.ID); err != nil {
		return
	}

	if updated, err = s.manager.Edit(params.Principal, original, params.Input, catalog, existing); err != nil {
		return
	}
	if err = s.bookings.UpdateBooking(ctx, updated); err != nil {
		err = mapRepoError(err)
		return
	}
	s.feeds.Invalidate(original.VenueID, updated.VenueID)
	return
}

// ConfirmBooking moves a Pending booking to Confirmed.
func (s *BookingService) ConfirmBooking(ctx context.Context, params BookingActionParams) (booking.Booking, error) {
	if err := s.ready(); err != nil {
		return booking.Booking{}, err
	}
	return s.transition(ctx, "ConfirmBooking", "booking confirmed", permission.BookingEdit, params, s.manager.Confirm)
}

// CancelBooking marks a booking Cancelled, releasing its slot while keeping the record.
func (s *BookingService) CancelBooking(ctx context.Context, params BookingActionParams) (booking.Booking, error) {
	if err := s.ready(); err != nil {
		return booking.Booking{}, err
	}
	return s.transition(ctx, "CancelBooking", "booking cancelled", permission.BookingDelete, params, s.manager.Cancel)
}

func (s *BookingService) transition(
	ctx context.Context,
	operation, success string,
	capability permission.Capability,
	params BookingActionParams,
	apply func(*permission.User, booking.Booking) (booking.Booking, error),
) (result booking.Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, operation,
		"actor", actorName(params.Principal),
		"booking_id", params.BookingID,
	)
	defer func() {
		logOutcome(ctx, logger, err, success, "status", result.Status)
	}()

	if err = authorize(params.Principal, capability); err != nil {
		return
	}

	var current booking.Booking
	if current, err = s.getBooking(ctx, params.BookingID); err != nil {
		return
	}

	unlock := s.locks.Lock(current.VenueID)
	defer unlock()

	if current, err = s.getBooking(ctx, params.BookingID); err != nil {
		return
	}
	if result, err = apply(params.Principal, current); err != nil {
		return
	}
	if err = s.bookings.UpdateBooking(ctx, result); err != nil {
		err = mapRepoError(err)
		return
	}
	s.feeds.Invalidate(result.VenueID)
	return
}

// DeleteBooking removes a booking record outright.
func (s *BookingService) DeleteBooking(ctx context.Context, params BookingActionParams) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "DeleteBooking",
		"actor", actorName(params.Principal),
		"booking_id", params.BookingID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "booking deleted")
	}()

	if err = authorize(params.Principal, permission.BookingDelete); err != nil {
		return
	}

	var current booking.Booking
	if current, err = s.getBooking(ctx, params.BookingID); err != nil {
		return
	}

	unlock := s.locks.Lock(current.VenueID)
	defer unlock()

	if err = s.manager.Delete(params.Principal, current); err != nil {
		return
	}
	if err = s.bookings.DeleteBooking(ctx, current.ID); err != nil {
		err = mapRepoError(err)
		return
	}
	s.feeds.Invalidate(current.VenueID)
	return
}

// ListBookings returns bookings matching the filters, each with the next
// date it takes place on or after the reference day.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) ([]ScheduledBooking, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(params.Principal, permission.BookingView); err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListBookings(ctx, BookingFilter{
		VenueID:    params.VenueID,
		DJUsername: params.DJUsername,
		ActiveOnly: params.ActiveOnly,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	reference := params.Reference
	if reference.IsZero() {
		reference = s.now()
	}

	out := make([]ScheduledBooking, 0, len(bookings))
	for _, b := range bookings {
		item := ScheduledBooking{Booking: b}
		if b.Active() {
			next, err := recurrence.NextOccurrence(b.Rule, reference)
			if err != nil {
				return nil, fmt.Errorf("booking %s: %w", b.ID, err)
			}
			item.NextOccurrence = b.Slot.On(next)
		}
		out = append(out, item)
	}
	return out, nil
}

// GetBooking returns a single booking.
func (s *BookingService) GetBooking(ctx context.Context, params BookingActionParams) (booking.Booking, error) {
	if err := s.ready(); err != nil {
		return booking.Booking{}, err
	}
	if err := authorize(params.Principal, permission.BookingView); err != nil {
		return booking.Booking{}, err
	}
	return s.getBooking(ctx, params.BookingID)
}

// VenueFeed returns the venue's calendar feed, rendering it when the cached
// copy is missing or stale.
func (s *BookingService) VenueFeed(ctx context.Context, principal *permission.User, venueID string) ([]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(principal, permission.BookingView); err != nil {
		return nil, err
	}
	venue, err := s.venues.GetVenue(ctx, venueID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return s.renderFeed(ctx, venue)
}

// RenderFeeds renders the feed of every venue. It is used by background
// publishing and performs no permission checks.
func (s *BookingService) RenderFeeds(ctx context.Context) ([]calendar.Feed, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	venues, err := s.venues.ListVenues(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	feeds := make([]calendar.Feed, 0, len(venues))
	for _, venue := range venues {
		body, err := s.renderFeed(ctx, venue)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, calendar.Feed{VenueID: venue.ID, VenueName: venue.Name, Body: body})
	}
	return feeds, nil
}

// InvalidateFeeds drops cached feeds for the given venues.
func (s *BookingService) InvalidateFeeds(venueIDs ...string) {
	if s == nil {
		return
	}
	s.feeds.Invalidate(venueIDs...)
}

func (s *BookingService) renderFeed(ctx context.Context, venue booking.Venue) ([]byte, error) {
	if body, ok := s.feeds.Get(venue.ID); ok {
		return body, nil
	}
	generation := s.feeds.Generation(venue.ID)
	venue, err := s.venues.GetVenue(ctx, venue.ID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	bookings, err := s.bookings.ListBookings(ctx, BookingFilter{VenueID: venue.ID, ActiveOnly: true})
	if err != nil {
		return nil, mapRepoError(err)
	}
	body, err := s.encoder.Render(venue, bookings, s.now())
	if err != nil {
		return nil, err
	}
	s.feeds.StoreIfCurrent(venue.ID, generation, body)
	return body, nil
}

func (s *BookingService) getBooking(ctx context.Context, id string) (booking.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return booking.Booking{}, mapRepoError(err)
	}
	return b, nil
}

func (s *BookingService) catalog(ctx context.Context) (booking.Catalog, error) {
	venues, err := s.venues.ListVenues(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return booking.Catalog(venues), nil
}

// snapshot reads the venue catalog and the active bookings of venueID. It is
// called with the venue's lock held.
func (s *BookingService) snapshot(ctx context.Context, venueID string) (booking.Catalog, []booking.Booking, error) {
	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	if venueID == "" {
		return catalog, nil, nil
	}
	existing, err := s.bookings.ListBookings(ctx, BookingFilter{VenueID: venueID, ActiveOnly: true})
	if err != nil {
		return nil, nil, mapRepoError(err)
	}
	return catalog, existing, nil
}

func authorize(user *permission.User, c permission.Capability) error {
	if !permission.Authorize(user, c) {
		return &booking.PermissionDeniedError{Capability: c}
	}
	return nil
}

func actorName(user *permission.User) string {
	if user == nil {
		return ""
	}
	return user.Username
}
