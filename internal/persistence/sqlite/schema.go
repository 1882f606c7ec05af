package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersion is the PRAGMA user_version the schema statements below
// produce. Bump it together with a new migration step.
const schemaVersion = 1

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		display_name  TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin      INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token       TEXT NOT NULL UNIQUE,
		fingerprint TEXT NOT NULL DEFAULT '',
		expires_at  TEXT NOT NULL,
		revoked_at  TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL REFERENCES users(id),
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(owner_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id          TEXT PRIMARY KEY,
		schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		color       TEXT NOT NULL,
		position    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS date_selections (
		schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
		date        TEXT NOT NULL,
		position    INTEGER NOT NULL,
		PRIMARY KEY (schedule_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS date_selection_members (
		schedule_id    TEXT NOT NULL,
		date           TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		position       INTEGER NOT NULL,
		PRIMARY KEY (schedule_id, date, participant_id),
		FOREIGN KEY (schedule_id, date) REFERENCES date_selections(schedule_id, date) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS time_options (
		id          TEXT PRIMARY KEY,
		schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
		time_label  TEXT NOT NULL,
		position    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS time_option_votes (
		option_id      TEXT NOT NULL REFERENCES time_options(id) ON DELETE CASCADE,
		participant_id TEXT NOT NULL,
		position       INTEGER NOT NULL,
		PRIMARY KEY (option_id, participant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS participant_bindings (
		user_id        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		binding_key    TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		PRIMARY KEY (user_id, binding_key)
	)`,
}

// Migrate brings the database schema up to the current version. It is safe
// to call on every startup.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	var version int
	if err := pool.DB().QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version >= schemaVersion {
		return nil
	}

	return pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply schema statement: %w", err)
			}
		}
		// PRAGMA does not accept bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
		return nil
	})
}
