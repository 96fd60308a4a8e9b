package booking

import (
	"net/url"
	"strings"
	"time"

	"github.com/example/venue-scheduler/internal/permission"
	"github.com/example/venue-scheduler/internal/recurrence"
	"github.com/example/venue-scheduler/internal/scheduler"
)

// Manager applies the booking lifecycle rules. It never reads or writes
// storage; callers pass in the venue catalog and the active bookings they
// consider current and persist whatever the manager returns.
type Manager struct {
	idGenerator func() string
	now         func() time.Time
}

// NewManager wires the identifier source and clock used when creating bookings.
func NewManager(idGenerator func() string, now func() time.Time) *Manager {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{idGenerator: idGenerator, now: now}
}

// Create validates fields and returns a new Pending booking ready to persist.
// Checks run in order: booking.create permission, field validation, venue
// availability, slot conflicts against existing.
func (m *Manager) Create(user *permission.User, fields Fields, catalog Catalog, existing []Booking) (Booking, error) {
	if err := ensureAllowed(user, permission.BookingCreate); err != nil {
		return Booking{}, err
	}

	candidate, vErr := buildCandidate(fields, catalog)
	if vErr.HasErrors() {
		return Booking{}, vErr
	}
	venue, _ := catalog.ByName(candidate.VenueName)
	if !venue.IsActive {
		return Booking{}, NewValidationError("venue_name", "venue is not accepting bookings")
	}

	candidate.ID = m.idGenerator()
	candidate.DJUsername = strings.TrimSpace(fields.DJUsername)
	if candidate.DJUsername == "" {
		candidate.DJUsername = user.Username
	}
	candidate.Status = StatusPending
	candidate.CreatedAt = m.now()

	if err := checkConflict(candidate, existing, ""); err != nil {
		return Booking{}, err
	}
	return candidate, nil
}

// Edit replaces every caller-editable field of original. The returned booking
// keeps original's ID, DJUsername, Status and CreatedAt.
func (m *Manager) Edit(user *permission.User, original Booking, fields Fields, catalog Catalog, existing []Booking) (Booking, error) {
	if err := ensureAllowed(user, permission.BookingEdit); err != nil {
		return Booking{}, err
	}
	if !original.Active() {
		return Booking{}, NewValidationError("status", "cancelled bookings cannot be edited")
	}

	candidate, vErr := buildCandidate(fields, catalog)
	if vErr.HasErrors() {
		return Booking{}, vErr
	}
	venue, _ := catalog.ByName(candidate.VenueName)
	if !venue.IsActive {
		return Booking{}, NewValidationError("venue_name", "venue is not accepting bookings")
	}

	candidate.ID = original.ID
	candidate.DJUsername = original.DJUsername
	candidate.Status = original.Status
	candidate.CreatedAt = original.CreatedAt

	if err := checkConflict(candidate, existing, original.ID); err != nil {
		return Booking{}, err
	}
	return candidate, nil
}

// Confirm moves a Pending booking to Confirmed. Confirming an already
// confirmed booking is a no-op.
func (m *Manager) Confirm(user *permission.User, b Booking) (Booking, error) {
	if err := ensureAllowed(user, permission.BookingEdit); err != nil {
		return Booking{}, err
	}
	if !b.Active() {
		return Booking{}, NewValidationError("status", "cancelled bookings cannot be confirmed")
	}
	b.Status = StatusConfirmed
	return b, nil
}

// Cancel retires the booking while keeping its record.
func (m *Manager) Cancel(user *permission.User, b Booking) (Booking, error) {
	if err := ensureAllowed(user, permission.BookingDelete); err != nil {
		return Booking{}, err
	}
	if !b.Active() {
		return Booking{}, NewValidationError("status", "booking is already cancelled")
	}
	b.Status = StatusCancelled
	return b, nil
}

// Delete decides whether the booking may be removed outright. A nil error
// means the caller should delete the record.
func (m *Manager) Delete(user *permission.User, b Booking) error {
	return ensureAllowed(user, permission.BookingDelete)
}

func checkConflict(candidate Booking, existing []Booking, excludeID string) error {
	entries := make([]scheduler.Entry, 0, len(existing))
	byID := make(map[string]Booking, len(existing))
	for _, b := range existing {
		entries = append(entries, b.Entry())
		byID[b.ID] = b
	}
	hit, found := scheduler.FindConflict(candidate.Entry(), entries, excludeID)
	if !found {
		return nil
	}
	return &ConflictError{ConflictingBookingID: hit.ID, Conflicting: byID[hit.ID]}
}

// buildCandidate validates fields and resolves the venue. The returned
// booking only carries caller-editable fields.
func buildCandidate(fields Fields, catalog Catalog) (Booking, *ValidationError) {
	vErr := &ValidationError{}
	b := Booking{
		DJName:        strings.TrimSpace(fields.DJName),
		StreamingLink: strings.TrimSpace(fields.StreamingLink),
		VenueName:     strings.TrimSpace(fields.VenueName),
	}

	if b.DJName == "" {
		vErr.Add("dj_name", "DJ name is required")
	}

	switch {
	case b.StreamingLink == "":
		vErr.Add("streaming_link", "streaming link is required")
	case !isAbsoluteURI(b.StreamingLink):
		vErr.Add("streaming_link", "streaming link must be an absolute URI")
	}

	if b.VenueName == "" {
		vErr.Add("venue_name", "venue is required")
	} else if venue, ok := catalog.ByName(b.VenueName); !ok {
		vErr.Add("venue_name", "venue does not exist")
	} else {
		b.VenueName = venue.Name
		b.VenueID = venue.ID
	}

	if strings.TrimSpace(fields.Day) == "" {
		vErr.Add("day", "day is required")
	} else if day, err := recurrence.ParseWeekday(fields.Day); err != nil {
		vErr.Add("day", "day must be a weekday name")
	} else {
		b.Rule.Weekday = day
	}

	if strings.TrimSpace(fields.Week) == "" {
		vErr.Add("week", "week is required")
	} else if week, err := recurrence.ParseWeek(fields.Week); err != nil {
		vErr.Add("week", "week must be 1-4 or every")
	} else {
		b.Rule.Week = week
	}

	switch {
	case fields.Hour == nil:
		vErr.Add("hour", "hour is required")
	case *fields.Hour < 0 || *fields.Hour > 23:
		vErr.Add("hour", "hour must be between 0 and 23")
	default:
		b.Slot.Hour = *fields.Hour
	}

	switch {
	case fields.Minute == nil:
		vErr.Add("minute", "minute is required")
	case *fields.Minute < 0 || *fields.Minute > 59:
		vErr.Add("minute", "minute must be between 0 and 59")
	default:
		b.Slot.Minute = *fields.Minute
	}

	return b, vErr
}

// isAbsoluteURI accepts any scheme with a host, e.g. https, rtmp or rtsp.
func isAbsoluteURI(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}
