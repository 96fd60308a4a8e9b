package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/venue-scheduler/internal/permission"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user UserCredentials) error
	UpdateUser(ctx context.Context, user UserCredentials) error
	GetUser(ctx context.Context, username string) (UserCredentials, error)
	ListUsers(ctx context.Context) ([]UserCredentials, error)
}

// UserService orchestrates validation, authorization, and persistence for accounts.
type UserService struct {
	users        UserRepository
	hashPassword PasswordHasher
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hash PasswordHasher, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hash, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, hash PasswordHasher, now func() time.Time, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = HashPassword
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hashPassword: hash, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

func (s *UserService) ready() error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	return nil
}

// ProvisionUser creates an account. Unless the input carries explicit
// permissions, the account starts with its role's defaults.
func (s *UserService) ProvisionUser(ctx context.Context, params ProvisionUserParams) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ProvisionUser",
		"actor", actorName(params.Principal),
		"username", params.Input.Username,
	)
	defer func() {
		logOutcome(ctx, logger, err, "user provisioned", "role", user.Role)
	}()

	if err = authorize(params.Principal, permission.AdminManageUsers); err != nil {
		return
	}

	input := params.Input
	input.Username = strings.TrimSpace(input.Username)
	input.FullName = strings.TrimSpace(input.FullName)

	vErr := &ValidationError{}
	validateUsername(input.Username, vErr)
	validateFullName(input.FullName, vErr)
	validatePassword(input.Password, vErr)
	role, roleErr := permission.ParseRole(input.Role)
	if roleErr != nil {
		vErr.Add("role", "role must be one of SysAdmin, Manager, DJ, Other")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	perms := permission.Defaults(role)
	if input.Permissions != nil {
		perms = *input.Permissions
	}

	var hash string
	if hash, err = s.hashPassword(input.Password); err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	now := s.now()
	user = User{
		Username:    input.Username,
		FullName:    input.FullName,
		Role:        role,
		Permissions: &perms,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.users.CreateUser(ctx, UserCredentials{User: user, PasswordHash: hash}); err != nil {
		err = mapRepoError(err)
		user = User{}
	}
	return
}

// UpdateUser changes the name, role, activity flag or password of an account.
// Changing the role leaves the permission record alone.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser",
		"actor", actorName(params.Principal),
		"username", params.Username,
	)
	defer func() {
		logOutcome(ctx, logger, err, "user updated")
	}()

	if err = authorize(params.Principal, permission.AdminManageUsers); err != nil {
		return
	}

	var creds UserCredentials
	if creds, err = s.getCredentials(ctx, params.Username); err != nil {
		return
	}

	vErr := &ValidationError{}
	if params.FullName != nil {
		name := strings.TrimSpace(*params.FullName)
		validateFullName(name, vErr)
		creds.User.FullName = name
	}
	if params.Role != nil {
		role, roleErr := permission.ParseRole(*params.Role)
		if roleErr != nil {
			vErr.Add("role", "role must be one of SysAdmin, Manager, DJ, Other")
		}
		creds.User.Role = role
	}
	if params.IsActive != nil {
		if !*params.IsActive && strings.EqualFold(creds.User.Username, params.Principal.Username) {
			vErr.Add("is_active", "you cannot deactivate your own account")
		}
		creds.User.IsActive = *params.IsActive
	}
	if params.Password != nil {
		validatePassword(*params.Password, vErr)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if params.Password != nil {
		if creds.PasswordHash, err = s.hashPassword(*params.Password); err != nil {
			err = fmt.Errorf("hash password: %w", err)
			return
		}
	}

	creds.User.UpdatedAt = s.now()
	if err = s.users.UpdateUser(ctx, creds); err != nil {
		err = mapRepoError(err)
		return
	}
	user = creds.User
	return
}

// ReplacePermissions swaps the account's permission record for set. An
// administrator cannot remove their own user-management capability.
func (s *UserService) ReplacePermissions(ctx context.Context, params ReplacePermissionsParams) (user User, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ReplacePermissions",
		"actor", actorName(params.Principal),
		"username", params.Username,
	)
	defer func() {
		logOutcome(ctx, logger, err, "permissions replaced", "granted", len(params.Permissions.Granted()))
	}()

	if err = authorize(params.Principal, permission.AdminManageUsers); err != nil {
		return
	}

	var creds UserCredentials
	if creds, err = s.getCredentials(ctx, params.Username); err != nil {
		return
	}
	if strings.EqualFold(creds.User.Username, params.Principal.Username) && !params.Permissions.Allows(permission.AdminManageUsers) {
		err = newValidationError("permissions", "you cannot revoke your own user management permission")
		return
	}

	perms := params.Permissions
	creds.User.Permissions = &perms
	creds.User.UpdatedAt = s.now()
	if err = s.users.UpdateUser(ctx, creds); err != nil {
		err = mapRepoError(err)
		return
	}
	user = creds.User
	return
}

// GetUser returns one account. Users may always read their own account.
func (s *UserService) GetUser(ctx context.Context, principal *permission.User, username string) (User, error) {
	if err := s.ready(); err != nil {
		return User{}, err
	}
	self := principal != nil && strings.EqualFold(principal.Username, strings.TrimSpace(username))
	if !self {
		if err := authorize(principal, permission.AdminManageUsers); err != nil {
			return User{}, err
		}
	}
	creds, err := s.getCredentials(ctx, username)
	if err != nil {
		return User{}, err
	}
	return creds.User, nil
}

// ListUsers returns every account ordered by username.
func (s *UserService) ListUsers(ctx context.Context, principal *permission.User) ([]User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(principal, permission.AdminManageUsers); err != nil {
		return nil, err
	}

	records, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	out := make([]User, 0, len(records))
	for _, r := range records {
		out = append(out, r.User)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username)
	})
	return out, nil
}

// Bootstrap creates a SysAdmin account when none with that username exists.
// It runs outside any request and performs no permission checks.
func (s *UserService) Bootstrap(ctx context.Context, username, password string) (created bool, err error) {
	if err = s.ready(); err != nil {
		return false, err
	}

	username = strings.TrimSpace(username)
	vErr := &ValidationError{}
	validateUsername(username, vErr)
	validatePassword(password, vErr)
	if vErr.HasErrors() {
		return false, vErr
	}

	if _, err = s.users.GetUser(ctx, username); err == nil {
		return false, nil
	} else if err = mapRepoError(err); !errors.Is(err, ErrNotFound) {
		return false, err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	perms := permission.Defaults(permission.RoleSysAdmin)
	now := s.now()
	user := User{
		Username:    username,
		FullName:    username,
		Role:        permission.RoleSysAdmin,
		Permissions: &perms,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.users.CreateUser(ctx, UserCredentials{User: user, PasswordHash: hash}); err != nil {
		return false, mapRepoError(err)
	}
	s.loggerWith(ctx, "Bootstrap", "username", username).InfoContext(ctx, "bootstrap administrator created")
	return true, nil
}

func (s *UserService) getCredentials(ctx context.Context, username string) (UserCredentials, error) {
	creds, err := s.users.GetUser(ctx, strings.TrimSpace(username))
	if err != nil {
		return UserCredentials{}, mapRepoError(err)
	}
	return creds, nil
}

func validateUsername(username string, vErr *ValidationError) {
	switch {
	case username == "":
		vErr.Add("username", "username is required")
	case !usernamePattern.MatchString(username):
		vErr.Add("username", "username must be 3-32 letters, digits, '.', '_' or '-'")
	}
}

func validateFullName(name string, vErr *ValidationError) {
	switch {
	case name == "":
		vErr.Add("full_name", "full name is required")
	case utf8.RuneCountInString(name) > 100:
		vErr.Add("full_name", "full name must be at most 100 characters")
	}
}

func validatePassword(password string, vErr *ValidationError) {
	if utf8.RuneCountInString(password) < minPasswordLength {
		vErr.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
}
