package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/venue-scheduler/internal/persistence"
)

// UserRepository implements persistence.UserRepository.
type UserRepository struct {
	db *sql.DB
}

const userColumns = `username, full_name, role, permissions, password_hash, is_active, created_at, updated_at`

// CreateUser inserts a new account.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if strings.TrimSpace(user.Username) == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.FullName,
		user.Role,
		nullableJSON(user.PermissionsJSON),
		user.PasswordHash,
		user.IsActive,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapError(err)
}

// UpdateUser overwrites every mutable column of an account.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET full_name = ?, role = ?, permissions = ?, password_hash = ?, is_active = ?, updated_at = ?
		WHERE username = ?`,
		user.FullName,
		user.Role,
		nullableJSON(user.PermissionsJSON),
		user.PasswordHash,
		user.IsActive,
		formatTime(user.UpdatedAt),
		user.Username,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(result)
}

// GetUser looks up an account by case-insensitive username.
func (r *UserRepository) GetUser(ctx context.Context, username string) (persistence.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// ListUsers returns every account ordered by username.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user        persistence.User
		permissions sql.NullString
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(&user.Username, &user.FullName, &user.Role, &permissions, &user.PasswordHash, &user.IsActive, &createdAt, &updatedAt); err != nil {
		return persistence.User{}, err
	}
	if permissions.Valid {
		user.PermissionsJSON = []byte(permissions.String)
	}

	var err error
	if user.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func nullableJSON(raw []byte) any {
	if raw == nil {
		return nil
	}
	return string(raw)
}
