package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/venue-scheduler/internal/application"
	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/permission"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (booking.Booking, error)
	EditBooking(ctx context.Context, params application.EditBookingParams) (booking.Booking, error)
	ConfirmBooking(ctx context.Context, params application.BookingActionParams) (booking.Booking, error)
	CancelBooking(ctx context.Context, params application.BookingActionParams) (booking.Booking, error)
	DeleteBooking(ctx context.Context, params application.BookingActionParams) error
	GetBooking(ctx context.Context, params application.BookingActionParams) (booking.Booking, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.ScheduledBooking, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "venue_name", req.VenueName)

	created, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     req.toFields(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "booking creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", created.ID).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(created, time.Time{})})
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := idVar(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "booking_id", bookingID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode booking update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "booking_id", bookingID)

	updated, err := h.service.EditBooking(r.Context(), application.EditBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Input:     req.toFields(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "booking edit failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking edited")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(updated, time.Time{})})
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Confirm", func(ctx context.Context, params application.BookingActionParams) (booking.Booking, error) {
		return h.service.ConfirmBooking(ctx, params)
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Cancel", func(ctx context.Context, params application.BookingActionParams) (booking.Booking, error) {
		return h.service.CancelBooking(ctx, params)
	})
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, operation string, apply func(context.Context, application.BookingActionParams) (booking.Booking, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := idVar(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "booking_id", bookingID)

	updated, err := apply(r.Context(), application.BookingActionParams{Principal: principal, BookingID: bookingID})
	if err != nil {
		logger.WarnContext(r.Context(), "booking transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", updated.Status).InfoContext(r.Context(), "booking transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(updated, time.Time{})})
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := idVar(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "booking_id", bookingID)
	if err := h.service.DeleteBooking(r.Context(), application.BookingActionParams{Principal: principal, BookingID: bookingID}); err != nil {
		logger.WarnContext(r.Context(), "booking delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID, ok := idVar(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	found, err := h.service.GetBooking(r.Context(), application.BookingActionParams{Principal: principal, BookingID: bookingID})
	if err != nil {
		h.log(r.Context(), "Get", "booking_id", bookingID).WarnContext(r.Context(), "booking lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(found, time.Time{})})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params, err := buildListParams(r.URL.Query(), principal)
	if err != nil {
		h.log(r.Context(), "List", "error_kind", "bad_request").WarnContext(r.Context(), "invalid list query", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}
	logger := h.log(r.Context(), "List", "venue_id", params.VenueID, "dj_username", params.DJUsername)

	scheduled, err := h.service.ListBookings(r.Context(), params)
	if err != nil {
		logger.WarnContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]bookingDTO, 0, len(scheduled))
	for _, item := range scheduled {
		out = append(out, toBookingDTO(item.Booking, item.NextOccurrence))
	}
	logger.With("result_count", len(out)).DebugContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: out})
}

// buildListParams reads venue_id, dj_username, active and reference. The
// reference date is interpreted in local time.
func buildListParams(values url.Values, principal *permission.User) (application.ListBookingsParams, error) {
	params := application.ListBookingsParams{
		Principal:  principal,
		VenueID:    strings.TrimSpace(values.Get("venue_id")),
		DJUsername: strings.TrimSpace(values.Get("dj_username")),
	}
	if raw := strings.TrimSpace(values.Get("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return application.ListBookingsParams{}, err
		}
		params.ActiveOnly = active
	}
	if raw := strings.TrimSpace(values.Get("reference")); raw != "" {
		ref, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
		if err != nil {
			return application.ListBookingsParams{}, err
		}
		params.Reference = ref
	}
	return params, nil
}

type bookingRequest struct {
	DJName        string `json:"dj_name"`
	DJUsername    string `json:"dj_username"`
	StreamingLink string `json:"streaming_link"`
	VenueName     string `json:"venue_name"`
	Day           string `json:"day"`
	Week          string `json:"week"`
	Hour          *int   `json:"hour"`
	Minute        *int   `json:"minute"`
}

func (r bookingRequest) toFields() booking.Fields {
	return booking.Fields{
		DJName:        r.DJName,
		DJUsername:    r.DJUsername,
		StreamingLink: r.StreamingLink,
		VenueName:     r.VenueName,
		Day:           r.Day,
		Week:          r.Week,
		Hour:          r.Hour,
		Minute:        r.Minute,
	}
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingDTO struct {
	ID             string `json:"id"`
	DJName         string `json:"dj_name"`
	DJUsername     string `json:"dj_username"`
	StreamingLink  string `json:"streaming_link"`
	VenueName      string `json:"venue_name"`
	VenueID        string `json:"venue_id"`
	Day            string `json:"day"`
	Week           string `json:"week"`
	TimeSlot       string `json:"time_slot"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	NextOccurrence string `json:"next_occurrence,omitempty"`
}

// toBookingDTO renders next as local wall-clock time without an offset.
func toBookingDTO(b booking.Booking, next time.Time) bookingDTO {
	dto := bookingDTO{
		ID:            b.ID,
		DJName:        b.DJName,
		DJUsername:    b.DJUsername,
		StreamingLink: b.StreamingLink,
		VenueName:     b.VenueName,
		VenueID:       b.VenueID,
		Day:           b.Rule.Weekday.String(),
		Week:          b.Rule.Week.String(),
		TimeSlot:      b.Slot.String(),
		Status:        string(b.Status),
		CreatedAt:     formatTimestamp(b.CreatedAt),
	}
	if !next.IsZero() {
		dto.NextOccurrence = next.Format("2006-01-02T15:04")
	}
	return dto
}
