package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/group-scheduler/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite.
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSession stores a new session token for a user.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.UserID == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	session.Token = strings.TrimSpace(session.Token)
	if session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO sessions (id, user_id, token, fingerprint, expires_at, revoked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var revokedAt sql.NullString
	if session.RevokedAt != nil {
		revokedAt.String = session.RevokedAt.UTC().Format(time.RFC3339)
		revokedAt.Valid = true
	}

	_, err := r.helper.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.Fingerprint,
		session.ExpiresAt.UTC().Format(time.RFC3339),
		revokedAt,
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	return session, nil
}

// GetSession retrieves a session by its token value.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	normalized := strings.TrimSpace(token)
	if normalized == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, user_id, token, fingerprint, expires_at, revoked_at, created_at, updated_at
		FROM sessions
		WHERE token = ?
	`

	return r.scanSession(r.helper.QueryRow(ctx, query, normalized))
}

// RevokeSession marks a session as revoked based on its token value.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	normalized := strings.TrimSpace(token)
	if normalized == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	revokedAtUTC := revokedAt.UTC()

	query := `
		UPDATE sessions
		SET revoked_at = ?, updated_at = ?
		WHERE token = ?
	`

	result, err := r.helper.Exec(ctx, query,
		revokedAtUTC.Format(time.RFC3339),
		revokedAtUTC.Format(time.RFC3339),
		normalized,
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}

	return r.GetSession(ctx, normalized)
}

// DeleteExpiredSessions removes sessions that expired on or before the
// provided timestamp.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	query := `
		DELETE FROM sessions
		WHERE expires_at <= ? AND expires_at != '0001-01-01T00:00:00Z'
	`

	if _, err := r.helper.Exec(ctx, query, reference.UTC().Format(time.RFC3339)); err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

func (r *SessionRepository) scanSession(row *sql.Row) (persistence.Session, error) {
	var session persistence.Session
	var expiresAtStr, createdAtStr, updatedAtStr string
	var revokedAt sql.NullString

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.Fingerprint,
		&expiresAtStr,
		&revokedAt,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, r.mapper.MapError(err)
	}

	if revokedAt.Valid {
		parsed, err := time.Parse(time.RFC3339, revokedAt.String)
		if err != nil {
			return persistence.Session{}, fmt.Errorf("failed to parse revoked_at: %w", err)
		}
		session.RevokedAt = &parsed
	}

	if session.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return session, nil
}
