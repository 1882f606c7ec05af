package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/group-scheduler/internal/persistence"
	_ "modernc.org/sqlite"
)

// Config holds SQLite-specific database configuration.
type Config struct {
	// DSN is the database file path or connection string.
	DSN string

	// BusyTimeout sets how long to wait for database locks.
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, ...).
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF).
	Synchronous string

	// EnableForeignKeys enables foreign key constraint checking.
	EnableForeignKeys bool

	// MaxOpenConns sets the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns sets the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime sets the maximum lifetime of connections.
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a configuration suitable for a single-node service.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:               dsn,
		BusyTimeout:       5 * time.Second,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
		EnableForeignKeys: true,
		MaxOpenConns:      1,
		MaxIdleConns:      1,
	}
}

// ConnectionPool manages SQLite database connections with transaction support.
type ConnectionPool struct {
	db     *sql.DB
	config Config
}

// NewConnectionPool opens a configured SQLite database connection.
func NewConnectionPool(config Config) (*ConnectionPool, error) {
	if strings.TrimSpace(config.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN is required")
	}

	if err := ensureDatabaseDir(config.DSN); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := applyPragmas(db, config); err != nil {
		db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &ConnectionPool{db: db, config: config}, nil
}

func ensureDatabaseDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") {
		return nil
	}

	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func applyPragmas(db *sql.DB, config Config) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", config.BusyTimeout.Milliseconds()),
	}
	if config.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA journal_mode = %s", config.JournalMode))
	}
	if config.Synchronous != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA synchronous = %s", config.Synchronous))
	}
	if config.EnableForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}

// DB returns the underlying database connection.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc represents a function that executes within a transaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes a function within a database transaction. The
// transaction is rolled back when the function returns an error and
// committed otherwise.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// QueryHelper provides helper methods for common query patterns.
type QueryHelper struct {
	pool *ConnectionPool
}

// NewQueryHelper creates a new query helper.
func NewQueryHelper(pool *ConnectionPool) *QueryHelper {
	return &QueryHelper{pool: pool}
}

// QueryRow executes a query that returns a single row.
func (qh *QueryHelper) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return qh.pool.db.QueryRowContext(ctx, query, args...)
}

// Query executes a query that returns multiple rows.
func (qh *QueryHelper) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return qh.pool.db.QueryContext(ctx, query, args...)
}

// Exec executes a query that doesn't return rows.
func (qh *QueryHelper) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return qh.pool.db.ExecContext(ctx, query, args...)
}

// QueryRowTx executes a query that returns a single row within a transaction.
func (qh *QueryHelper) QueryRowTx(tx *sql.Tx, query string, args ...any) *sql.Row {
	return tx.QueryRow(query, args...)
}

// QueryTx executes a query that returns multiple rows within a transaction.
func (qh *QueryHelper) QueryTx(tx *sql.Tx, query string, args ...any) (*sql.Rows, error) {
	return tx.Query(query, args...)
}

// ExecTx executes a query that doesn't return rows within a transaction.
func (qh *QueryHelper) ExecTx(tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	return tx.Exec(query, args...)
}

// ErrorMapper maps SQLite errors to persistence layer errors.
type ErrorMapper struct{}

// NewErrorMapper creates a new error mapper.
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError maps SQLite-specific errors to persistence layer errors.
func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}

	if err == sql.ErrNoRows {
		return persistence.ErrNotFound
	}

	errStr := err.Error()

	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return persistence.ErrDuplicate
	}
	if strings.Contains(errStr, "FOREIGN KEY constraint failed") || strings.Contains(errStr, "foreign key constraint") {
		return persistence.ErrForeignKeyViolation
	}
	if strings.Contains(errStr, "CHECK constraint failed") {
		return persistence.ErrConstraintViolation
	}

	return err
}
