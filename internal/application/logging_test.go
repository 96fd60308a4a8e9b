package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/logging"
	"github.com/example/venue-scheduler/internal/permission"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var base, scoped bytes.Buffer
	ctx := logging.ContextWithLogger(context.Background(), slog.New(slog.NewTextHandler(&scoped, nil)))

	serviceLogger(ctx, slog.New(slog.NewTextHandler(&base, nil)), "BookingService", "CreateBooking", "venue_id", "v1").Info("hello")

	if base.Len() != 0 {
		t.Fatalf("expected base logger to stay silent, got %q", base.String())
	}
	for _, want := range []string{"service=BookingService", "operation=CreateBooking", "venue_id=v1"} {
		if !strings.Contains(scoped.String(), want) {
			t.Fatalf("expected %q in %q", want, scoped.String())
		}
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"":                    nil,
		"permission_denied":   &booking.PermissionDeniedError{Capability: permission.BookingCreate},
		"conflict":            fmt.Errorf("wrapped: %w", &booking.ConflictError{ConflictingBookingID: "b1"}),
		"unauthorized":        ErrUnauthorized,
		"not_found":           mapRepoError(ErrNotFound),
		"already_exists":      mapRepoError(ErrAlreadyExists),
		"invalid_credentials": ErrInvalidCredentials,
		"account_disabled":    ErrAccountDisabled,
		"validation":          newValidationError("day", "required"),
		"unexpected":          errors.New("boom"),
	}
	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
}
