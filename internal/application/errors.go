package application

import (
	"errors"
	"fmt"

	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/persistence"
)

var (
	// ErrUnauthorized is returned when a request carries no valid identity.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when a username and password do not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when an inactive account tries to act.
	ErrAccountDisabled = errors.New("application: account disabled")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError = booking.ValidationError

func newValidationError(field, message string) *ValidationError {
	return booking.NewValidationError(field, message)
}

// mapRepoError translates persistence sentinels into application sentinels.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	default:
		return err
	}
}
