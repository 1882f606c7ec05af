package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/group-scheduler/internal/ledger"
	"github.com/example/group-scheduler/internal/persistence"
)

// ScheduleStore captures the persistence interactions needed by the schedule
// service. SaveSchedule replaces the stored aggregate wholesale; callers pass
// the complete schedule, never a delta.
type ScheduleStore interface {
	CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	SaveSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	ListSchedules(ctx context.Context, filter ScheduleStoreFilter) ([]Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// ScheduleStoreFilter narrows queries issued to the schedule store.
type ScheduleStoreFilter struct {
	OwnerID string
}

// ScheduleService orchestrates validation, the ledger reconciliation rules,
// and full-aggregate persistence for schedule operations.
type ScheduleService struct {
	schedules   ScheduleStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(schedules ScheduleStore, idGenerator func() string, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(schedules, idGenerator, now, nil)
}

// NewScheduleServiceWithLogger constructs a ScheduleService with a specified logger.
func NewScheduleServiceWithLogger(schedules ScheduleStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{
		schedules:   schedules,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

// CreateSchedule allocates an empty schedule owned by the authenticated
// principal. The (name, owner) pair is unique; duplicates are rejected with
// ErrAlreadyExists.
func (s *ScheduleService) CreateSchedule(ctx context.Context, params CreateScheduleParams) (Schedule, error) {
	if s == nil {
		return Schedule{}, fmt.Errorf("ScheduleService is nil")
	}
	if params.Principal.UserID == "" {
		return Schedule{}, ErrUnauthorized
	}

	name := strings.TrimSpace(params.Name)
	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	} else if len([]rune(name)) > 100 {
		vErr.add("name", "name must be 100 characters or fewer")
	}
	if vErr.HasErrors() {
		return Schedule{}, vErr
	}

	createdAt := s.now()
	schedule := Schedule{
		ID:             s.idGenerator(),
		Name:           name,
		OwnerID:        params.Principal.UserID,
		Participants:   []Participant{},
		DateSelections: []DateSelection{},
		TimeOptions:    []TimeOption{},
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	if s.schedules == nil {
		return schedule, nil
	}

	persisted, err := s.schedules.CreateSchedule(ctx, schedule)
	if err != nil {
		return Schedule{}, mapStoreError("CreateSchedule", err)
	}

	s.loggerWith(ctx, "CreateSchedule", "schedule_id", persisted.ID).InfoContext(ctx, "schedule created")
	return persisted, nil
}

// GetSchedule loads the aggregate with all three child collections. Any
// authenticated holder of the identifier may read it.
func (s *ScheduleService) GetSchedule(ctx context.Context, scheduleID string) (Schedule, error) {
	if s == nil {
		return Schedule{}, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return Schedule{}, fmt.Errorf("schedule store not configured")
	}

	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return Schedule{}, mapStoreError("GetSchedule", err)
	}
	return schedule, nil
}

// ListSchedules enumerates the principal's own schedules; administrators see
// every schedule.
func (s *ScheduleService) ListSchedules(ctx context.Context, principal Principal) ([]Schedule, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return nil, fmt.Errorf("schedule store not configured")
	}

	filter := ScheduleStoreFilter{OwnerID: principal.UserID}
	if principal.IsAdmin {
		filter.OwnerID = ""
	}

	schedules, err := s.schedules.ListSchedules(ctx, filter)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, mapStoreError("ListSchedules", err)
	}
	return schedules, nil
}

// DeleteSchedule removes the aggregate and all child collections. Only the
// owner or an administrator may delete.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, principal Principal, scheduleID string) error {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return fmt.Errorf("schedule store not configured")
	}

	existing, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return mapStoreError("DeleteSchedule", err)
	}

	if existing.OwnerID != principal.UserID && !principal.IsAdmin {
		return ErrUnauthorized
	}

	if err := s.schedules.DeleteSchedule(ctx, scheduleID); err != nil {
		return mapStoreError("DeleteSchedule", err)
	}

	s.loggerWith(ctx, "DeleteSchedule", "schedule_id", scheduleID).InfoContext(ctx, "schedule deleted")
	return nil
}

// ToggleDate flips the availability mark of the resolved participant on a
// calendar date and persists the full aggregate. A caller without a resolved
// participant identity is not permitted; nothing is mutated or persisted.
func (s *ScheduleService) ToggleDate(ctx context.Context, params ToggleDateParams) (Schedule, error) {
	if s == nil {
		return Schedule{}, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return Schedule{}, fmt.Errorf("schedule store not configured")
	}

	vErr := &ValidationError{}
	if _, err := time.Parse("2006-01-02", params.Date); err != nil {
		vErr.add("date", "date must use YYYY-MM-DD form")
	}
	if vErr.HasErrors() {
		return Schedule{}, vErr
	}

	schedule, err := s.schedules.GetSchedule(ctx, params.ScheduleID)
	if err != nil {
		return Schedule{}, mapStoreError("ToggleDate", err)
	}

	if !hasParticipant(schedule.Participants, params.ParticipantID) {
		return Schedule{}, ErrUnauthorized
	}

	updated := ledger.ToggleDate(toLedgerSelections(schedule.DateSelections), params.Date, params.ParticipantID)
	schedule.DateSelections = fromLedgerSelections(updated)
	schedule.UpdatedAt = s.now()

	persisted, err := s.schedules.SaveSchedule(ctx, schedule)
	if err != nil {
		return Schedule{}, mapStoreError("ToggleDate", err)
	}

	s.loggerWith(ctx, "ToggleDate",
		"schedule_id", schedule.ID,
		"date", params.Date,
		"participant_id", params.ParticipantID,
	).InfoContext(ctx, "availability toggled")
	return persisted, nil
}

// AddTimeOption appends a standing time-slot proposal with an empty vote set
// and persists the full aggregate.
func (s *ScheduleService) AddTimeOption(ctx context.Context, params AddTimeOptionParams) (Schedule, error) {
	if s == nil {
		return Schedule{}, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return Schedule{}, fmt.Errorf("schedule store not configured")
	}

	label := strings.TrimSpace(params.Time)
	vErr := &ValidationError{}
	if label == "" {
		vErr.add("time", "time is required")
	} else if len([]rune(label)) > 50 {
		vErr.add("time", "time must be 50 characters or fewer")
	}
	if vErr.HasErrors() {
		return Schedule{}, vErr
	}

	schedule, err := s.schedules.GetSchedule(ctx, params.ScheduleID)
	if err != nil {
		return Schedule{}, mapStoreError("AddTimeOption", err)
	}

	updated := ledger.AddOption(toLedgerOptions(schedule.TimeOptions), s.idGenerator(), label)
	schedule.TimeOptions = fromLedgerOptions(updated)
	schedule.UpdatedAt = s.now()

	persisted, err := s.schedules.SaveSchedule(ctx, schedule)
	if err != nil {
		return Schedule{}, mapStoreError("AddTimeOption", err)
	}

	s.loggerWith(ctx, "AddTimeOption", "schedule_id", schedule.ID).InfoContext(ctx, "time option added")
	return persisted, nil
}

// ToggleVote flips the resolved participant's vote on a time option and
// persists the full aggregate. An unresolved participant identity makes the
// call a silent no-op; an unknown option is reported as ErrNotFound.
func (s *ScheduleService) ToggleVote(ctx context.Context, params ToggleVoteParams) (Schedule, error) {
	if s == nil {
		return Schedule{}, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return Schedule{}, fmt.Errorf("schedule store not configured")
	}

	schedule, err := s.schedules.GetSchedule(ctx, params.ScheduleID)
	if err != nil {
		return Schedule{}, mapStoreError("ToggleVote", err)
	}

	if !hasParticipant(schedule.Participants, params.ParticipantID) {
		return schedule, nil
	}

	updated, found := ledger.ToggleVote(toLedgerOptions(schedule.TimeOptions), params.OptionID, params.ParticipantID)
	if !found {
		return Schedule{}, ErrNotFound
	}
	schedule.TimeOptions = fromLedgerOptions(updated)
	schedule.UpdatedAt = s.now()

	persisted, err := s.schedules.SaveSchedule(ctx, schedule)
	if err != nil {
		return Schedule{}, mapStoreError("ToggleVote", err)
	}

	s.loggerWith(ctx, "ToggleVote",
		"schedule_id", schedule.ID,
		"option_id", params.OptionID,
		"participant_id", params.ParticipantID,
	).InfoContext(ctx, "vote toggled")
	return persisted, nil
}

// DeleteTimeOption withdraws a proposal unconditionally. Deleting an option
// that no longer exists is a no-op, not an error.
func (s *ScheduleService) DeleteTimeOption(ctx context.Context, params DeleteTimeOptionParams) (Schedule, error) {
	if s == nil {
		return Schedule{}, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return Schedule{}, fmt.Errorf("schedule store not configured")
	}

	schedule, err := s.schedules.GetSchedule(ctx, params.ScheduleID)
	if err != nil {
		return Schedule{}, mapStoreError("DeleteTimeOption", err)
	}

	updated, removed := ledger.RemoveOption(toLedgerOptions(schedule.TimeOptions), params.OptionID)
	if !removed {
		return schedule, nil
	}
	schedule.TimeOptions = fromLedgerOptions(updated)
	schedule.UpdatedAt = s.now()

	persisted, err := s.schedules.SaveSchedule(ctx, schedule)
	if err != nil {
		return Schedule{}, mapStoreError("DeleteTimeOption", err)
	}

	s.loggerWith(ctx, "DeleteTimeOption",
		"schedule_id", schedule.ID,
		"option_id", params.OptionID,
	).InfoContext(ctx, "time option deleted")
	return persisted, nil
}

func hasParticipant(participants []Participant, id string) bool {
	if id == "" {
		return false
	}
	for _, participant := range participants {
		if participant.ID == id {
			return true
		}
	}
	return false
}

func toLedgerSelections(selections []DateSelection) []ledger.DateSelection {
	out := make([]ledger.DateSelection, 0, len(selections))
	for _, selection := range selections {
		out = append(out, ledger.DateSelection{
			Date:           selection.Date,
			ParticipantIDs: append([]string(nil), selection.ParticipantIDs...),
		})
	}
	return out
}

func fromLedgerSelections(selections []ledger.DateSelection) []DateSelection {
	out := make([]DateSelection, 0, len(selections))
	for _, selection := range selections {
		out = append(out, DateSelection{
			Date:           selection.Date,
			ParticipantIDs: append([]string(nil), selection.ParticipantIDs...),
		})
	}
	return out
}

func toLedgerOptions(options []TimeOption) []ledger.TimeOption {
	out := make([]ledger.TimeOption, 0, len(options))
	for _, option := range options {
		out = append(out, ledger.TimeOption{
			ID:    option.ID,
			Time:  option.Time,
			Votes: append([]string(nil), option.Votes...),
		})
	}
	return out
}

func fromLedgerOptions(options []ledger.TimeOption) []TimeOption {
	out := make([]TimeOption, 0, len(options))
	for _, option := range options {
		out = append(out, TimeOption{
			ID:    option.ID,
			Time:  option.Time,
			Votes: append([]string(nil), option.Votes...),
		})
	}
	return out
}

func mapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, ErrAlreadyExists) || errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) || errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("schedule", "related records are missing or inconsistent")
		return vErr
	}
	return &PersistenceError{Op: op, Err: err}
}
