package application

import (
	"time"

	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/permission"
)

// User is an account as seen by the services.
type User struct {
	Username string
	FullName string
	Role     permission.Role
	// Permissions is nil when the account has no explicit permission record.
	Permissions *permission.Set
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Principal projects the account for authorization checks.
func (u User) Principal() *permission.User {
	var perms *permission.Set
	if u.Permissions != nil {
		copied := *u.Permissions
		perms = &copied
	}
	return &permission.User{
		Username:    u.Username,
		FullName:    u.FullName,
		Role:        u.Role,
		Permissions: perms,
		IsActive:    u.IsActive,
	}
}

// UserCredentials pairs an account with its stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// BookingFilter narrows booking queries issued to the repository.
type BookingFilter struct {
	VenueID    string
	DJUsername string
	ActiveOnly bool
}

// ScheduledBooking is a booking together with the next date it takes place.
// NextOccurrence is zero for cancelled bookings.
type ScheduledBooking struct {
	Booking        booking.Booking
	NextOccurrence time.Time
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal *permission.User
	Input     booking.Fields
}

// EditBookingParams wraps the data required to edit an existing booking.
type EditBookingParams struct {
	Principal *permission.User
	BookingID string
	Input     booking.Fields
}

// BookingActionParams identifies the booking a confirm, cancel or delete applies to.
type BookingActionParams struct {
	Principal *permission.User
	BookingID string
}

// ListBookingsParams wraps the filters for a booking listing. A zero
// Reference means now.
type ListBookingsParams struct {
	Principal  *permission.User
	VenueID    string
	DJUsername string
	ActiveOnly bool
	Reference  time.Time
}

// VenueInput captures caller provided venue fields.
type VenueInput struct {
	Name        string
	Description string
	// OwnerUsername defaults to the acting user.
	OwnerUsername string
}

// RegisterVenueParams wraps the data required to register a venue.
type RegisterVenueParams struct {
	Principal *permission.User
	Input     VenueInput
}

// UpdateVenueParams wraps the data required to update a venue.
type UpdateVenueParams struct {
	Principal *permission.User
	VenueID   string
	Input     VenueInput
}

// SetVenueStatusParams toggles whether a venue accepts new bookings.
type SetVenueStatusParams struct {
	Principal *permission.User
	VenueID   string
	Active    bool
}

// UserInput captures caller provided account fields.
type UserInput struct {
	Username string
	FullName string
	Role     string
	Password string
	// Permissions overrides the role defaults when set.
	Permissions *permission.Set
}

// ProvisionUserParams wraps the data required to create an account.
type ProvisionUserParams struct {
	Principal *permission.User
	Input     UserInput
}

// UpdateUserParams wraps the mutable account attributes. Nil fields are left unchanged.
type UpdateUserParams struct {
	Principal *permission.User
	Username  string
	FullName  *string
	Role      *string
	IsActive  *bool
	Password  *string
}

// ReplacePermissionsParams swaps an account's permission record wholesale.
type ReplacePermissionsParams struct {
	Principal   *permission.User
	Username    string
	Permissions permission.Set
}

// AuthenticateParams wraps login credentials.
type AuthenticateParams struct {
	Username string
	Password string
}

// AuthenticateResult is the outcome of a successful login.
type AuthenticateResult struct {
	User      User
	Token     string
	ExpiresAt time.Time
}
