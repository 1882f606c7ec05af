package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/group-scheduler/internal/persistence"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	pool := newTestPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	user := persistence.User{
		ID:           "user-1",
		Email:        "Alice@Example.com",
		DisplayName:  "Alice",
		PasswordHash: "hash",
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	retrieved, err := repo.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if retrieved.Email != "alice@example.com" {
		t.Errorf("expected stored email lowercased, got %q", retrieved.Email)
	}
	if !retrieved.IsAdmin {
		t.Error("expected admin flag to round-trip")
	}
	if !retrieved.CreatedAt.Equal(now) {
		t.Errorf("expected created_at %v, got %v", now, retrieved.CreatedAt)
	}
}

func TestUserRepository_GetUserByEmail_CaseInsensitive(t *testing.T) {
	pool := newTestPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	createTestUser(t, pool, "alice")

	retrieved, err := repo.GetUserByEmail(ctx, "ALICE@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if retrieved.ID != "alice" {
		t.Errorf("expected user alice, got %q", retrieved.ID)
	}
}

func TestUserRepository_CreateUser_DuplicateEmail(t *testing.T) {
	pool := newTestPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	createTestUser(t, pool, "alice")

	duplicate := persistence.User{
		ID:           "user-2",
		Email:        "alice@example.com",
		DisplayName:  "Other Alice",
		PasswordHash: "hash",
	}

	err := repo.CreateUser(ctx, duplicate)
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepository_DeleteUser(t *testing.T) {
	pool := newTestPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	createTestUser(t, pool, "alice")

	if err := repo.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	if _, err := repo.GetUser(ctx, "alice"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := repo.DeleteUser(ctx, "alice"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
