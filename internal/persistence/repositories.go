package persistence

import "context"

// UserRepository stores accounts keyed by username.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// VenueRepository stores venues. UpdateVenue keeps the denormalized venue
// name on bookings in step with the venue row.
type VenueRepository interface {
	CreateVenue(ctx context.Context, venue Venue) error
	UpdateVenue(ctx context.Context, venue Venue) error
	GetVenue(ctx context.Context, id string) (Venue, error)
	ListVenues(ctx context.Context) ([]Venue, error)
	DeleteVenue(ctx context.Context, id string) error
}

// BookingFilter narrows booking queries. Zero values match everything.
type BookingFilter struct {
	VenueID    string
	DJUsername string
	ActiveOnly bool
}

// BookingRepository stores bookings.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}
