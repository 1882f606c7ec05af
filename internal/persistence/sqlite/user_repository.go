package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/group-scheduler/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateUser stores a new account. Emails are stored lowercased so lookups
// stay case-insensitive.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || strings.TrimSpace(user.Email) == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO users (id, email, display_name, password_hash, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		user.ID,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.DisplayName,
		user.PasswordHash,
		boolToInt(user.IsAdmin),
		user.CreatedAt.UTC().Format(time.RFC3339),
		user.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, email, display_name, password_hash, is_admin, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	return r.scanUser(r.helper.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a user by email address, case-insensitively.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, email, display_name, password_hash, is_admin, created_at, updated_at
		FROM users
		WHERE email = ?
	`

	return r.scanUser(r.helper.QueryRow(ctx, query, normalized))
}

// DeleteUser removes a user by ID.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (persistence.User, error) {
	var user persistence.User
	var isAdmin int
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&isAdmin,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, r.mapper.MapError(err)
	}

	user.IsAdmin = isAdmin != 0

	if user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return user, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
