// Package testfixtures builds deterministic venues, bookings and accounts for
// tests across the service, transport and storage layers.
package testfixtures

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/permission"
	"github.com/example/venue-scheduler/internal/persistence"
	"github.com/example/venue-scheduler/internal/recurrence"
)

var (
	venueCounter   uint64
	bookingCounter uint64
	userCounter    uint64
)

// referenceTime is a Monday, so week-of-month arithmetic starts on a clean boundary.
var referenceTime = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Venue fixtures -----------------------------

type VenueFixture struct {
	ID            string
	Name          string
	Description   string
	OwnerUsername string
	IsActive      bool
	CreatedAt     time.Time
}

type VenueOption func(*VenueFixture)

// NewVenueFixture returns an active venue with a unique ID and name.
func NewVenueFixture(opts ...VenueOption) VenueFixture {
	idx := atomic.AddUint64(&venueCounter, 1)
	fixture := VenueFixture{
		ID:            fmt.Sprintf("venue-%03d", idx),
		Name:          fmt.Sprintf("Room %03d", idx),
		OwnerUsername: "manager",
		IsActive:      true,
		CreatedAt:     referenceTime.Add(-time.Duration(idx) * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithVenueID(id string) VenueOption {
	return func(f *VenueFixture) { f.ID = id }
}

func WithVenueName(name string) VenueOption {
	return func(f *VenueFixture) { f.Name = name }
}

func WithVenueInactive() VenueOption {
	return func(f *VenueFixture) { f.IsActive = false }
}

func (f VenueFixture) Domain() booking.Venue {
	return booking.Venue{
		ID:            f.ID,
		Name:          f.Name,
		Description:   f.Description,
		OwnerUsername: f.OwnerUsername,
		IsActive:      f.IsActive,
		CreatedAt:     f.CreatedAt,
	}
}

func (f VenueFixture) Row() persistence.Venue {
	return persistence.Venue{
		ID:            f.ID,
		Name:          f.Name,
		Description:   f.Description,
		OwnerUsername: f.OwnerUsername,
		IsActive:      f.IsActive,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.CreatedAt,
	}
}

// ---------------------------- Booking fixtures ----------------------------

type BookingFixture struct {
	ID            string
	DJName        string
	DJUsername    string
	StreamingLink string
	VenueID       string
	VenueName     string
	Rule          recurrence.Rule
	Slot          recurrence.Slot
	Status        booking.Status
	CreatedAt     time.Time
}

type BookingOption func(*BookingFixture)

// NewBookingFixture returns a pending Friday 20:00 every-week booking at venue.
func NewBookingFixture(venue VenueFixture, opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	fixture := BookingFixture{
		ID:            fmt.Sprintf("booking-%03d", idx),
		DJName:        fmt.Sprintf("DJ %03d", idx),
		DJUsername:    fmt.Sprintf("dj%03d", idx),
		StreamingLink: fmt.Sprintf("https://stream.example.com/dj%03d", idx),
		VenueID:       venue.ID,
		VenueName:     venue.Name,
		Rule:          recurrence.Rule{Weekday: time.Friday, Week: recurrence.EveryWeek},
		Slot:          recurrence.Slot{Hour: 20},
		Status:        booking.StatusPending,
		CreatedAt:     referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) { f.ID = id }
}

func WithRule(day time.Weekday, week recurrence.Week) BookingOption {
	return func(f *BookingFixture) { f.Rule = recurrence.Rule{Weekday: day, Week: week} }
}

func WithSlot(hour, minute int) BookingOption {
	return func(f *BookingFixture) { f.Slot = recurrence.Slot{Hour: hour, Minute: minute} }
}

func WithStatus(status booking.Status) BookingOption {
	return func(f *BookingFixture) { f.Status = status }
}

func WithDJ(username string) BookingOption {
	return func(f *BookingFixture) { f.DJUsername = username }
}

func (f BookingFixture) Domain() booking.Booking {
	return booking.Booking{
		ID:            f.ID,
		DJName:        f.DJName,
		DJUsername:    f.DJUsername,
		StreamingLink: f.StreamingLink,
		VenueName:     f.VenueName,
		VenueID:       f.VenueID,
		Rule:          f.Rule,
		Slot:          f.Slot,
		Status:        f.Status,
		CreatedAt:     f.CreatedAt,
	}
}

func (f BookingFixture) Row() persistence.Booking {
	return persistence.Booking{
		ID:            f.ID,
		DJName:        f.DJName,
		DJUsername:    f.DJUsername,
		StreamingLink: f.StreamingLink,
		VenueID:       f.VenueID,
		VenueName:     f.VenueName,
		DayOfWeek:     int(f.Rule.Weekday),
		WeekNumber:    int(f.Rule.Week),
		TimeSlot:      f.Slot.String(),
		Status:        string(f.Status),
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.CreatedAt,
	}
}

// Fields returns the caller-editable values in request form.
func (f BookingFixture) Fields() booking.Fields {
	hour, minute := f.Slot.Hour, f.Slot.Minute
	return booking.Fields{
		DJName:        f.DJName,
		DJUsername:    f.DJUsername,
		StreamingLink: f.StreamingLink,
		VenueName:     f.VenueName,
		Day:           f.Rule.Weekday.String(),
		Week:          f.Rule.Week.String(),
		Hour:          &hour,
		Minute:        &minute,
	}
}

// ------------------------------ User fixtures ------------------------------

type UserFixture struct {
	Username     string
	FullName     string
	Role         permission.Role
	Permissions  *permission.Set
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

type UserOption func(*UserFixture)

// NewUserFixture returns an active account holding the role's default permissions.
func NewUserFixture(role permission.Role, opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	perms := permission.Defaults(role)
	fixture := UserFixture{
		Username:     fmt.Sprintf("user%03d", idx),
		FullName:     fmt.Sprintf("User %03d", idx),
		Role:         role,
		Permissions:  &perms,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		IsActive:     true,
		CreatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithUsername(username string) UserOption {
	return func(f *UserFixture) { f.Username = username }
}

func WithPasswordHash(hash string) UserOption {
	return func(f *UserFixture) { f.PasswordHash = hash }
}

// WithPermissions replaces the role defaults. A nil set models an account
// without a permission record.
func WithPermissions(set *permission.Set) UserOption {
	return func(f *UserFixture) { f.Permissions = set }
}

func WithInactive() UserOption {
	return func(f *UserFixture) { f.IsActive = false }
}

// Principal returns the account as seen by authorization checks.
func (f UserFixture) Principal() *permission.User {
	var perms *permission.Set
	if f.Permissions != nil {
		copied := *f.Permissions
		perms = &copied
	}
	return &permission.User{
		Username:    f.Username,
		FullName:    f.FullName,
		Role:        f.Role,
		Permissions: perms,
		IsActive:    f.IsActive,
	}
}

func (f UserFixture) Row() persistence.User {
	row := persistence.User{
		Username:     f.Username,
		FullName:     f.FullName,
		Role:         string(f.Role),
		PasswordHash: f.PasswordHash,
		IsActive:     f.IsActive,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.CreatedAt,
	}
	if f.Permissions != nil {
		// permission.Set is plain booleans, so encoding cannot fail.
		row.PermissionsJSON, _ = json.Marshal(f.Permissions)
	}
	return row
}
