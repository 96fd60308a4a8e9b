// Package booking models venue bookings and the pure lifecycle rules that
// govern creating, editing and retiring them.
package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/venue-scheduler/internal/recurrence"
	"github.com/example/venue-scheduler/internal/scheduler"
)

// Status is a booking's lifecycle state.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
)

// Active reports whether bookings in this state occupy their slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// ParseStatus matches a status name case-insensitively.
func ParseStatus(value string) (Status, error) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCancelled} {
		if strings.EqualFold(string(s), strings.TrimSpace(value)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("booking: unknown status %q", value)
}

// Venue is a bookable location.
type Venue struct {
	ID            string
	Name          string
	Description   string
	OwnerUsername string
	IsActive      bool
	CreatedAt     time.Time
}

// Catalog is the set of known venues consulted when resolving a booking's
// venue by name.
type Catalog []Venue

// ByName finds a venue by case-insensitive name.
func (c Catalog) ByName(name string) (Venue, bool) {
	trimmed := strings.TrimSpace(name)
	for _, v := range c {
		if strings.EqualFold(v.Name, trimmed) {
			return v, true
		}
	}
	return Venue{}, false
}

// Booking assigns a DJ to a recurring slot at a venue.
type Booking struct {
	ID            string
	DJName        string
	DJUsername    string
	StreamingLink string
	VenueName     string
	VenueID       string
	Rule          recurrence.Rule
	Slot          recurrence.Slot
	Status        Status
	CreatedAt     time.Time
}

// Active reports whether the booking occupies its slot.
func (b Booking) Active() bool {
	return b.Status.Active()
}

// Entry projects the booking for conflict detection.
func (b Booking) Entry() scheduler.Entry {
	return scheduler.Entry{
		ID:      b.ID,
		VenueID: b.VenueID,
		Rule:    b.Rule,
		Slot:    b.Slot,
		Active:  b.Active(),
	}
}

// Fields are the caller-supplied values of a booking. Day and Week use the
// textual forms accepted by recurrence.ParseWeekday and recurrence.ParseWeek.
type Fields struct {
	DJName        string
	DJUsername    string
	StreamingLink string
	VenueName     string
	Day           string
	Week          string
	Hour          *int
	Minute        *int
}
