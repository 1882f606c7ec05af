package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/group-scheduler/internal/persistence"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "scheduler_test.db")
	pool, err := NewConnectionPool(DefaultConfig(dsn))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := Migrate(context.Background(), pool); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return pool
}

func createTestUser(t *testing.T, pool *ConnectionPool, id string) persistence.User {
	t.Helper()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	user := persistence.User{
		ID:           id,
		Email:        id + "@example.com",
		DisplayName:  id,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := NewUserRepository(pool).CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %s: %v", id, err)
	}

	return user
}

func TestMigrate_Idempotent(t *testing.T) {
	pool := newTestPool(t)

	// A second run must be a no-op.
	if err := Migrate(context.Background(), pool); err != nil {
		t.Fatalf("repeated migration failed: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed after migration: %v", err)
	}
}
