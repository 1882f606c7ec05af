package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/group-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool      *sqlite.ConnectionPool
	Users     *sqlite.UserRepository
	Sessions  *sqlite.SessionRepository
	Schedules *sqlite.ScheduleRepository
	Bindings  *sqlite.BindingRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "scheduler.db")

	pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:      pool,
		Users:     sqlite.NewUserRepository(pool),
		Sessions:  sqlite.NewSessionRepository(pool),
		Schedules: sqlite.NewScheduleRepository(pool),
		Bindings:  sqlite.NewBindingRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
