package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Venues   *VenueHandler
	Bookings *BookingHandler
	Health   HealthChecker
	// Authenticate guards every route except /sessions and /healthz.
	Authenticate func(http.Handler) http.Handler
	Middleware   []func(http.Handler) http.Handler
	Logger       *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	for _, m := range cfg.Middleware {
		if m != nil {
			r.Use(m)
		}
	}

	responder := newResponder(cfg.Logger)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health.Ping(req.Context()); err != nil {
				responder.loggerFor(req.Context()).ErrorContext(req.Context(), "health check failed", "error", err)
				responder.writeJSON(req.Context(), w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		responder.writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if cfg.Auth != nil {
		r.HandleFunc("/sessions", cfg.Auth.CreateSession).Methods(http.MethodPost)
	}

	protected := r.PathPrefix("").Subrouter()
	if cfg.Authenticate != nil {
		protected.Use(cfg.Authenticate)
	}

	if cfg.Venues != nil {
		protected.HandleFunc("/venues", cfg.Venues.List).Methods(http.MethodGet)
		protected.HandleFunc("/venues", cfg.Venues.Create).Methods(http.MethodPost)
		protected.HandleFunc("/venues/{id}", cfg.Venues.Get).Methods(http.MethodGet)
		protected.HandleFunc("/venues/{id}", cfg.Venues.Update).Methods(http.MethodPut)
		protected.HandleFunc("/venues/{id}", cfg.Venues.Delete).Methods(http.MethodDelete)
		protected.HandleFunc("/venues/{id}/status", cfg.Venues.SetStatus).Methods(http.MethodPut)
		protected.HandleFunc("/venues/{id}/calendar.ics", cfg.Venues.Calendar).Methods(http.MethodGet)
	}

	if cfg.Bookings != nil {
		protected.HandleFunc("/bookings", cfg.Bookings.List).Methods(http.MethodGet)
		protected.HandleFunc("/bookings", cfg.Bookings.Create).Methods(http.MethodPost)
		protected.HandleFunc("/bookings/{id}", cfg.Bookings.Get).Methods(http.MethodGet)
		protected.HandleFunc("/bookings/{id}", cfg.Bookings.Update).Methods(http.MethodPut)
		protected.HandleFunc("/bookings/{id}", cfg.Bookings.Delete).Methods(http.MethodDelete)
		protected.HandleFunc("/bookings/{id}/confirm", cfg.Bookings.Confirm).Methods(http.MethodPost)
		protected.HandleFunc("/bookings/{id}/cancel", cfg.Bookings.Cancel).Methods(http.MethodPost)
	}

	if cfg.Users != nil {
		protected.HandleFunc("/users", cfg.Users.List).Methods(http.MethodGet)
		protected.HandleFunc("/users", cfg.Users.Create).Methods(http.MethodPost)
		protected.HandleFunc("/users/{username}", cfg.Users.Get).Methods(http.MethodGet)
		protected.HandleFunc("/users/{username}", cfg.Users.Update).Methods(http.MethodPut)
		protected.HandleFunc("/users/{username}/permissions", cfg.Users.ReplacePermissions).Methods(http.MethodPut)
	}

	return r
}
