package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/venue-scheduler/internal/permission"
)

// CredentialStore exposes user credential lookup operations required by the auth service.
type CredentialStore interface {
	GetUser(ctx context.Context, username string) (UserCredentials, error)
}

// TokenIssuer signs and verifies bearer tokens carrying a username.
type TokenIssuer interface {
	Issue(username string, issuedAt time.Time) (token string, expiresAt time.Time, err error)
	Verify(token string, now time.Time) (username string, err error)
}

// AuthService coordinates login and bearer token validation.
type AuthService struct {
	credentials    CredentialStore
	tokens         TokenIssuer
	verifyPassword PasswordVerifier
	now            func() time.Time
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, tokens TokenIssuer, verify PasswordVerifier, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(credentials, tokens, verify, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, tokens TokenIssuer, verify PasswordVerifier, now func() time.Time, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		credentials:    credentials,
		tokens:         tokens,
		verifyPassword: verify,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil {
		return fmt.Errorf("credential store not configured")
	}
	if s.tokens == nil {
		return fmt.Errorf("token issuer not configured")
	}
	return nil
}

// Authenticate validates credentials and issues a bearer token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	username := strings.TrimSpace(params.Username)
	logger := s.loggerWith(ctx, "Authenticate", "username", username)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("expires_at", result.ExpiresAt).InfoContext(ctx, "authentication succeeded")
	}()

	if username == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetUser(ctx, username)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(creds.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}
	if !creds.User.IsActive {
		err = ErrAccountDisabled
		return
	}

	var (
		token     string
		expiresAt time.Time
	)
	if token, expiresAt, err = s.tokens.Issue(creds.User.Username, s.now()); err != nil {
		err = fmt.Errorf("issue token: %w", err)
		return
	}

	result = AuthenticateResult{User: creds.User, Token: token, ExpiresAt: expiresAt}
	return
}

// ValidateToken verifies a bearer token and loads the account it names. The
// account is read fresh so permission and activity changes apply at once.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (principal *permission.User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateToken", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "token validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("principal", principal.Username).DebugContext(ctx, "token validated")
	}()

	if trimmed == "" {
		err = ErrUnauthorized
		return
	}

	var username string
	if username, err = s.tokens.Verify(trimmed, s.now()); err != nil {
		err = fmt.Errorf("%w: %v", ErrUnauthorized, err)
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetUser(ctx, username)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}
	if !creds.User.IsActive {
		err = ErrAccountDisabled
		return
	}

	principal = creds.User.Principal()
	return
}
