package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/group-scheduler/internal/persistence"
)

// ScheduleRepository implements persistence.ScheduleRepository using SQLite.
type ScheduleRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewScheduleRepository creates a new SQLite schedule repository.
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return &ScheduleRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSchedule inserts a new schedule aggregate into the database.
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	if schedule.ID == "" || schedule.OwnerID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO schedules (id, owner_id, name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`

		_, err := r.helper.ExecTx(tx, query,
			schedule.ID,
			schedule.OwnerID,
			schedule.Name,
			schedule.CreatedAt.UTC().Format(time.RFC3339),
			schedule.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		return r.insertChildren(tx, schedule)
	})
}

// GetSchedule retrieves a schedule aggregate by ID.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (persistence.Schedule, error) {
	if id == "" {
		return persistence.Schedule{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, owner_id, name, created_at, updated_at
		FROM schedules
		WHERE id = ?
	`

	var schedule persistence.Schedule
	var createdAtStr, updatedAtStr string

	err := r.helper.QueryRow(ctx, query, id).Scan(
		&schedule.ID,
		&schedule.OwnerID,
		&schedule.Name,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Schedule{}, persistence.ErrNotFound
		}
		return persistence.Schedule{}, r.mapper.MapError(err)
	}

	if schedule.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Schedule{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if schedule.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Schedule{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	if err := r.loadChildren(ctx, &schedule); err != nil {
		return persistence.Schedule{}, err
	}

	return schedule, nil
}

// SaveSchedule replaces the stored aggregate wholesale. All previously
// persisted child rows are deleted and the passed collections inserted in a
// single transaction. Concurrent saves race and the last one to commit wins.
func (r *ScheduleRepository) SaveSchedule(ctx context.Context, schedule persistence.Schedule) error {
	if schedule.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE schedules
			SET name = ?, updated_at = ?
			WHERE id = ?
		`

		result, err := r.helper.ExecTx(tx, query,
			schedule.Name,
			schedule.UpdatedAt.UTC().Format(time.RFC3339),
			schedule.ID,
		)
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

		if err := r.deleteChildren(tx, schedule.ID); err != nil {
			return err
		}

		return r.insertChildren(tx, schedule)
	})
}

// ListSchedules lists schedules matching the filter, ordered by creation time.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, filter persistence.ScheduleFilter) ([]persistence.Schedule, error) {
	query := `
		SELECT id, owner_id, name, created_at, updated_at
		FROM schedules
	`
	var args []any

	if filter.OwnerID != "" {
		query += " WHERE owner_id = ?"
		args = append(args, filter.OwnerID)
	}

	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var schedules []persistence.Schedule

	for rows.Next() {
		var schedule persistence.Schedule
		var createdAtStr, updatedAtStr string

		if err := rows.Scan(&schedule.ID, &schedule.OwnerID, &schedule.Name, &createdAtStr, &updatedAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}

		if schedule.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if schedule.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}

		schedules = append(schedules, schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range schedules {
		if err := r.loadChildren(ctx, &schedules[i]); err != nil {
			return nil, err
		}
	}

	return schedules, nil
}

// DeleteSchedule removes a schedule and all its child rows.
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := r.deleteChildren(tx, id); err != nil {
			return err
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM schedules WHERE id = ?", id)
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
	})
}

func (r *ScheduleRepository) deleteChildren(tx *sql.Tx, scheduleID string) error {
	statements := []string{
		"DELETE FROM time_option_votes WHERE option_id IN (SELECT id FROM time_options WHERE schedule_id = ?)",
		"DELETE FROM time_options WHERE schedule_id = ?",
		"DELETE FROM date_selection_members WHERE schedule_id = ?",
		"DELETE FROM date_selections WHERE schedule_id = ?",
		"DELETE FROM participants WHERE schedule_id = ?",
	}

	for _, stmt := range statements {
		if _, err := r.helper.ExecTx(tx, stmt, scheduleID); err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

func (r *ScheduleRepository) insertChildren(tx *sql.Tx, schedule persistence.Schedule) error {
	for i, participant := range schedule.Participants {
		_, err := r.helper.ExecTx(tx,
			"INSERT INTO participants (id, schedule_id, name, color, position) VALUES (?, ?, ?, ?, ?)",
			participant.ID, schedule.ID, participant.Name, participant.Color, i)
		if err != nil {
			return r.mapper.MapError(err)
		}
	}

	for i, selection := range schedule.DateSelections {
		_, err := r.helper.ExecTx(tx,
			"INSERT INTO date_selections (schedule_id, date, position) VALUES (?, ?, ?)",
			schedule.ID, selection.Date, i)
		if err != nil {
			return r.mapper.MapError(err)
		}

		for j, participantID := range selection.ParticipantIDs {
			_, err := r.helper.ExecTx(tx,
				"INSERT INTO date_selection_members (schedule_id, date, participant_id, position) VALUES (?, ?, ?, ?)",
				schedule.ID, selection.Date, participantID, j)
			if err != nil {
				return r.mapper.MapError(err)
			}
		}
	}

	for i, option := range schedule.TimeOptions {
		_, err := r.helper.ExecTx(tx,
			"INSERT INTO time_options (id, schedule_id, time_label, position) VALUES (?, ?, ?, ?)",
			option.ID, schedule.ID, option.Time, i)
		if err != nil {
			return r.mapper.MapError(err)
		}

		for j, participantID := range option.Votes {
			_, err := r.helper.ExecTx(tx,
				"INSERT INTO time_option_votes (option_id, participant_id, position) VALUES (?, ?, ?)",
				option.ID, participantID, j)
			if err != nil {
				return r.mapper.MapError(err)
			}
		}
	}

	return nil
}

func (r *ScheduleRepository) loadChildren(ctx context.Context, schedule *persistence.Schedule) error {
	participants, err := r.loadParticipants(ctx, schedule.ID)
	if err != nil {
		return err
	}
	schedule.Participants = participants

	selections, err := r.loadDateSelections(ctx, schedule.ID)
	if err != nil {
		return err
	}
	schedule.DateSelections = selections

	options, err := r.loadTimeOptions(ctx, schedule.ID)
	if err != nil {
		return err
	}
	schedule.TimeOptions = options

	return nil
}

func (r *ScheduleRepository) loadParticipants(ctx context.Context, scheduleID string) ([]persistence.Participant, error) {
	query := `
		SELECT id, name, color
		FROM participants
		WHERE schedule_id = ?
		ORDER BY position ASC
	`

	rows, err := r.helper.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var participants []persistence.Participant

	for rows.Next() {
		participant := persistence.Participant{ScheduleID: scheduleID}
		if err := rows.Scan(&participant.ID, &participant.Name, &participant.Color); err != nil {
			return nil, r.mapper.MapError(err)
		}
		participants = append(participants, participant)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return participants, nil
}

func (r *ScheduleRepository) loadDateSelections(ctx context.Context, scheduleID string) ([]persistence.DateSelection, error) {
	query := `
		SELECT date
		FROM date_selections
		WHERE schedule_id = ?
		ORDER BY position ASC
	`

	rows, err := r.helper.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var selections []persistence.DateSelection

	for rows.Next() {
		selection := persistence.DateSelection{ScheduleID: scheduleID}
		if err := rows.Scan(&selection.Date); err != nil {
			return nil, r.mapper.MapError(err)
		}
		selections = append(selections, selection)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range selections {
		members, err := r.loadSelectionMembers(ctx, scheduleID, selections[i].Date)
		if err != nil {
			return nil, err
		}
		selections[i].ParticipantIDs = members
	}

	return selections, nil
}

func (r *ScheduleRepository) loadSelectionMembers(ctx context.Context, scheduleID, date string) ([]string, error) {
	query := `
		SELECT participant_id
		FROM date_selection_members
		WHERE schedule_id = ? AND date = ?
		ORDER BY position ASC
	`

	rows, err := r.helper.Query(ctx, query, scheduleID, date)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var members []string

	for rows.Next() {
		var participantID string
		if err := rows.Scan(&participantID); err != nil {
			return nil, r.mapper.MapError(err)
		}
		members = append(members, participantID)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return members, nil
}

func (r *ScheduleRepository) loadTimeOptions(ctx context.Context, scheduleID string) ([]persistence.TimeOption, error) {
	query := `
		SELECT id, time_label
		FROM time_options
		WHERE schedule_id = ?
		ORDER BY position ASC
	`

	rows, err := r.helper.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var options []persistence.TimeOption

	for rows.Next() {
		option := persistence.TimeOption{ScheduleID: scheduleID}
		if err := rows.Scan(&option.ID, &option.Time); err != nil {
			return nil, r.mapper.MapError(err)
		}
		options = append(options, option)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range options {
		votes, err := r.loadOptionVotes(ctx, options[i].ID)
		if err != nil {
			return nil, err
		}
		options[i].Votes = votes
	}

	return options, nil
}

func (r *ScheduleRepository) loadOptionVotes(ctx context.Context, optionID string) ([]string, error) {
	query := `
		SELECT participant_id
		FROM time_option_votes
		WHERE option_id = ?
		ORDER BY position ASC
	`

	rows, err := r.helper.Query(ctx, query, optionID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var votes []string

	for rows.Next() {
		var participantID string
		if err := rows.Scan(&participantID); err != nil {
			return nil, r.mapper.MapError(err)
		}
		votes = append(votes, participantID)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return votes, nil
}
