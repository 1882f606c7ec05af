package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/group-scheduler/internal/persistence"
)

func testSession(userID, token string, expiresAt time.Time) persistence.Session {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return persistence.Session{
		ID:        "session-" + token,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	pool := newTestPool(t)
	user := createTestUser(t, pool, "alice")
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	expiresAt := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	session := testSession(user.ID, "token-1", expiresAt)

	if _, err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	retrieved, err := repo.GetSession(ctx, "token-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved.UserID != user.ID {
		t.Errorf("expected user %q, got %q", user.ID, retrieved.UserID)
	}
	if !retrieved.ExpiresAt.Equal(expiresAt) {
		t.Errorf("expected expires_at %v, got %v", expiresAt, retrieved.ExpiresAt)
	}
	if retrieved.RevokedAt != nil {
		t.Errorf("expected no revocation, got %v", retrieved.RevokedAt)
	}
}

func TestSessionRepository_CreateSession_DuplicateToken(t *testing.T) {
	pool := newTestPool(t)
	user := createTestUser(t, pool, "alice")
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	expiresAt := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	if _, err := repo.CreateSession(ctx, testSession(user.ID, "token-1", expiresAt)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	duplicate := testSession(user.ID, "token-1", expiresAt)
	duplicate.ID = "session-other"

	_, err := repo.CreateSession(ctx, duplicate)
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestSessionRepository_RevokeSession(t *testing.T) {
	pool := newTestPool(t)
	user := createTestUser(t, pool, "alice")
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	expiresAt := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	if _, err := repo.CreateSession(ctx, testSession(user.ID, "token-1", expiresAt)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	revokedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	revoked, err := repo.RevokeSession(ctx, "token-1", revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
		t.Errorf("expected revoked_at %v, got %v", revokedAt, revoked.RevokedAt)
	}

	if _, err := repo.RevokeSession(ctx, "missing", revokedAt); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown token, got %v", err)
	}
}

func TestSessionRepository_DeleteExpiredSessions(t *testing.T) {
	pool := newTestPool(t)
	user := createTestUser(t, pool, "alice")
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	cutoff := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	if _, err := repo.CreateSession(ctx, testSession(user.ID, "expired", cutoff.Add(-time.Hour))); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := repo.CreateSession(ctx, testSession(user.ID, "active", cutoff.Add(time.Hour))); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := repo.DeleteExpiredSessions(ctx, cutoff); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	if _, err := repo.GetSession(ctx, "expired"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected expired session removed, got %v", err)
	}
	if _, err := repo.GetSession(ctx, "active"); err != nil {
		t.Fatalf("expected active session kept, got %v", err)
	}
}
