package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/example/venue-scheduler/internal/application"
	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/permission"
)

type venueService interface {
	RegisterVenue(ctx context.Context, params application.RegisterVenueParams) (booking.Venue, error)
	UpdateVenue(ctx context.Context, params application.UpdateVenueParams) (booking.Venue, error)
	SetVenueStatus(ctx context.Context, params application.SetVenueStatusParams) (booking.Venue, error)
	DeleteVenue(ctx context.Context, principal *permission.User, venueID string) error
	ListVenues(ctx context.Context, principal *permission.User) ([]booking.Venue, error)
	GetVenue(ctx context.Context, principal *permission.User, venueID string) (booking.Venue, error)
}

type feedService interface {
	VenueFeed(ctx context.Context, principal *permission.User, venueID string) ([]byte, error)
}

type VenueHandler struct {
	service   venueService
	feeds     feedService
	responder responder
	logger    *slog.Logger
}

func NewVenueHandler(service venueService, feeds feedService, logger *slog.Logger) *VenueHandler {
	base := defaultLogger(logger)
	return &VenueHandler{service: service, feeds: feeds, responder: newResponder(base), logger: base}
}

func (h *VenueHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "VenueHandler", operation, attrs...)
}

func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req venueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode venue request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	venue, err := h.service.RegisterVenue(r.Context(), application.RegisterVenueParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "venue registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("venue_id", venue.ID).InfoContext(r.Context(), "venue registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, venueResponse{Venue: toVenueDTO(venue)})
}

func (h *VenueHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	venueID, ok := idVar(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req venueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "venue_id", venueID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode venue update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "venue_id", venueID)

	venue, err := h.service.UpdateVenue(r.Context(), application.UpdateVenueParams{
		Principal: principal,
		VenueID:   venueID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "venue update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "venue updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, venueResponse{Venue: toVenueDTO(venue)})
}

func (h *VenueHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	venueID, ok := idVar(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req venueStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		h.log(r.Context(), "SetStatus", "venue_id", venueID, "error_kind", "bad_request").WarnContext(r.Context(), "invalid venue status request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetStatus", "venue_id", venueID, "active", *req.Active)

	venue, err := h.service.SetVenueStatus(r.Context(), application.SetVenueStatusParams{
		Principal: principal,
		VenueID:   venueID,
		Active:    *req.Active,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "venue status change failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "venue status changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, venueResponse{Venue: toVenueDTO(venue)})
}

func (h *VenueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	venueID, ok := idVar(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "venue_id", venueID)
	if err := h.service.DeleteVenue(r.Context(), principal, venueID); err != nil {
		logger.WarnContext(r.Context(), "venue delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "venue deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *VenueHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	venueID, ok := idVar(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	venue, err := h.service.GetVenue(r.Context(), principal, venueID)
	if err != nil {
		h.log(r.Context(), "Get", "venue_id", venueID).WarnContext(r.Context(), "venue lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, venueResponse{Venue: toVenueDTO(venue)})
}

func (h *VenueHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List")

	venues, err := h.service.ListVenues(r.Context(), principal)
	if err != nil {
		logger.WarnContext(r.Context(), "venue list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(venues)).DebugContext(r.Context(), "venues listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listVenuesResponse{Venues: toVenueDTOs(venues)})
}

// Calendar serves the venue's bookings as text/calendar.
func (h *VenueHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.feeds == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	venueID, ok := idVar(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	body, err := h.feeds.VenueFeed(r.Context(), principal, venueID)
	if err != nil {
		h.log(r.Context(), "Calendar", "venue_id", venueID).WarnContext(r.Context(), "feed rendering failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+venueID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.log(r.Context(), "Calendar", "venue_id", venueID).ErrorContext(r.Context(), "failed to write feed", "error", err)
	}
}

func idVar(r *http.Request) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	return id, id != ""
}

type venueRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	OwnerUsername string `json:"owner_username"`
}

func (r venueRequest) toInput() application.VenueInput {
	return application.VenueInput{
		Name:          strings.TrimSpace(r.Name),
		Description:   strings.TrimSpace(r.Description),
		OwnerUsername: strings.TrimSpace(r.OwnerUsername),
	}
}

type venueStatusRequest struct {
	Active *bool `json:"active"`
}

type venueResponse struct {
	Venue venueDTO `json:"venue"`
}

type listVenuesResponse struct {
	Venues []venueDTO `json:"venues"`
}

type venueDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	OwnerUsername string `json:"owner_username"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at,omitempty"`
}

func toVenueDTO(venue booking.Venue) venueDTO {
	return venueDTO{
		ID:            venue.ID,
		Name:          venue.Name,
		Description:   venue.Description,
		OwnerUsername: venue.OwnerUsername,
		IsActive:      venue.IsActive,
		CreatedAt:     formatTimestamp(venue.CreatedAt),
	}
}

func toVenueDTOs(venues []booking.Venue) []venueDTO {
	out := make([]venueDTO, 0, len(venues))
	for _, venue := range venues {
		out = append(out, toVenueDTO(venue))
	}
	return out
}
