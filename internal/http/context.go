package http

import (
	"context"
	"log/slog"

	"github.com/example/venue-scheduler/internal/logging"
	"github.com/example/venue-scheduler/internal/permission"
)

type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal *permission.User) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (*permission.User, bool) {
	principal, ok := ctx.Value(principalContextKey).(*permission.User)
	return principal, ok && principal != nil
}

// ContextWithLogger attaches the request logger so services log with the same attributes.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request logger, or nil outside a request.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
