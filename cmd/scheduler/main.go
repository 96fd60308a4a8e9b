package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/venue-scheduler/internal/application"
	"github.com/example/venue-scheduler/internal/auth"
	"github.com/example/venue-scheduler/internal/calendar"
	"github.com/example/venue-scheduler/internal/config"
	httptransport "github.com/example/venue-scheduler/internal/http"
	"github.com/example/venue-scheduler/internal/jobs"
	"github.com/example/venue-scheduler/internal/logging"
	"github.com/example/venue-scheduler/internal/persistence/sqlite"
)

func main() {
	bootstrapAdmin := flag.String("bootstrap-admin", "", "create a SysAdmin account with this username when it does not exist")
	bootstrapPassword := flag.String("bootstrap-password", "", "password for -bootstrap-admin")
	flag.Parse()

	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = logging.New(os.Stdout, logging.ParseLevel(cfg.LogLevel))

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx, logger); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	wired, err := newApp(cfg, storage, time.Now, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	if *bootstrapAdmin != "" {
		created, err := wired.users.Bootstrap(ctx, *bootstrapAdmin, *bootstrapPassword)
		if err != nil {
			logger.Error("failed to bootstrap administrator", "username", *bootstrapAdmin, "error", err)
			os.Exit(1)
		}
		logger.Info("bootstrap administrator checked", "username", *bootstrapAdmin, "created", created)
	}

	if cfg.CalendarDir != "" {
		scheduler, err := newFeedScheduler(cfg, wired.bookings, logger)
		if err != nil {
			logger.Error("failed to configure calendar publishing", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := scheduler.Run(ctx); err != nil {
				logger.Error("calendar publishing stopped", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           wired.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("venue scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// app holds the wired services and the HTTP handler serving them.
type app struct {
	handler  http.Handler
	users    *application.UserService
	bookings *application.BookingService
}

func newApp(cfg config.Config, storage *sqlite.Storage, now func() time.Time, logger *slog.Logger) (*app, error) {
	if storage == nil {
		return nil, errors.New("storage is required")
	}
	if now == nil {
		now = time.Now
	}

	tokens, err := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("configure tokens: %w", err)
	}

	bookingRepo := newBookingStore(storage.Bookings, now)
	venueRepo := newVenueStore(storage.Venues, now)
	userRepo := newUserStore(storage.Users)
	locks := application.NewVenueLocks()
	encoder := calendar.NewEncoder(time.Local, calendar.DefaultEventDuration)

	bookingService := application.NewBookingServiceWithLogger(bookingRepo, venueRepo, locks, encoder, cfg.FeedCacheTTL, uuid.NewString, now, logger)
	venueService := application.NewVenueServiceWithLogger(venueRepo, bookingRepo, locks, bookingService, uuid.NewString, now, logger)
	userService := application.NewUserServiceWithLogger(userRepo, application.HashPassword, now, logger)
	authService := application.NewAuthServiceWithLogger(userRepo, tokens, application.VerifyPassword, now, logger)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Users:        httptransport.NewUserHandler(userService, logger),
		Venues:       httptransport.NewVenueHandler(venueService, bookingService, logger),
		Bookings:     httptransport.NewBookingHandler(bookingService, logger),
		Health:       storage,
		Authenticate: httptransport.RequireToken(authService, logger),
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
		Logger:       logger,
	})

	return &app{handler: handler, users: userService, bookings: bookingService}, nil
}

func newFeedScheduler(cfg config.Config, feeds jobs.FeedSource, logger *slog.Logger) (*jobs.Scheduler, error) {
	publisher, err := jobs.NewPublisher(feeds, cfg.CalendarDir, logger)
	if err != nil {
		return nil, err
	}
	return jobs.NewScheduler(cfg.CalendarCron, publisher, logger)
}
