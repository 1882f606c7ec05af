package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/group-scheduler/internal/persistence"
)

// BindingRepository implements persistence.BindingRepository using SQLite.
type BindingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBindingRepository creates a new SQLite binding repository.
func NewBindingRepository(pool *ConnectionPool) *BindingRepository {
	return &BindingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// GetBinding returns the participant ID bound to the key for a user.
func (r *BindingRepository) GetBinding(ctx context.Context, userID, key string) (string, error) {
	if userID == "" || key == "" {
		return "", persistence.ErrNotFound
	}

	query := `
		SELECT participant_id
		FROM participant_bindings
		WHERE user_id = ? AND binding_key = ?
	`

	var participantID string
	err := r.helper.QueryRow(ctx, query, userID, key).Scan(&participantID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", persistence.ErrNotFound
		}
		return "", r.mapper.MapError(err)
	}

	return participantID, nil
}

// PutBinding stores or replaces the binding for a user and key.
func (r *BindingRepository) PutBinding(ctx context.Context, userID, key, participantID string) error {
	if userID == "" || key == "" || participantID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO participant_bindings (user_id, binding_key, participant_id)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, binding_key) DO UPDATE SET participant_id = excluded.participant_id
	`

	if _, err := r.helper.Exec(ctx, query, userID, key, participantID); err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// DeleteBinding removes the binding for a user and key. Missing bindings are
// not an error.
func (r *BindingRepository) DeleteBinding(ctx context.Context, userID, key string) error {
	query := `
		DELETE FROM participant_bindings
		WHERE user_id = ? AND binding_key = ?
	`

	if _, err := r.helper.Exec(ctx, query, userID, key); err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}
