package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/venue-scheduler/internal/permission"
)

var (
	// ErrPermissionDenied matches any *PermissionDeniedError.
	ErrPermissionDenied = errors.New("booking: permission denied")
	// ErrConflict matches any *ConflictError.
	ErrConflict = errors.New("booking: conflicting booking")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Add records a field level validation error. The first message for a field wins.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// Merge copies entries from another validation error into the receiver.
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msg := range other.FieldErrors {
		v.Add(field, msg)
	}
}

// NewValidationError builds a ValidationError holding a single field issue.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// PermissionDeniedError reports the capability the acting user was missing.
type PermissionDeniedError struct {
	Capability permission.Capability
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s required", e.Capability)
}

func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// ConflictError reports the active booking that already holds the slot.
type ConflictError struct {
	ConflictingBookingID string
	Conflicting          Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot already booked by %s", e.ConflictingBookingID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func ensureAllowed(user *permission.User, c permission.Capability) error {
	if !permission.Authorize(user, c) {
		return &PermissionDeniedError{Capability: c}
	}
	return nil
}
