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

// BindingStore persists the (schedule, user) to participant association that
// lets a returning visitor be re-recognized without re-joining. It is not
// part of the schedule aggregate.
type BindingStore interface {
	GetBinding(ctx context.Context, userID, scheduleID string) (string, error)
	PutBinding(ctx context.Context, userID, scheduleID, participantID string) error
	DeleteBinding(ctx context.Context, userID, scheduleID string) error
}

// BindingKey returns the storage key for a schedule's participant binding.
func BindingKey(scheduleID string) string {
	return "participant-" + scheduleID
}

// IdentityService resolves the acting participant for a schedule and runs
// the join flow for first-time visitors.
type IdentityService struct {
	schedules   ScheduleStore
	bindings    BindingStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewIdentityService wires dependencies for participant identity resolution.
func NewIdentityService(schedules ScheduleStore, bindings BindingStore, idGenerator func() string, now func() time.Time) *IdentityService {
	return NewIdentityServiceWithLogger(schedules, bindings, idGenerator, now, nil)
}

// NewIdentityServiceWithLogger constructs an IdentityService with a specified logger.
func NewIdentityServiceWithLogger(schedules ScheduleStore, bindings BindingStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *IdentityService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &IdentityService{
		schedules:   schedules,
		bindings:    bindings,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *IdentityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "IdentityService", operation, attrs...)
}

// Resolve determines who is acting on a schedule for the given principal.
// A stored binding pointing at a participant that no longer exists (for
// example after a schedule reset) is treated as absent and the join flow
// re-triggers. Resolution is read-only.
func (s *IdentityService) Resolve(ctx context.Context, principal Principal, scheduleID string) (Resolution, error) {
	if s == nil {
		return Resolution{}, fmt.Errorf("IdentityService is nil")
	}
	if s.schedules == nil || s.bindings == nil {
		return Resolution{}, fmt.Errorf("identity stores not configured")
	}

	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return Resolution{}, mapStoreError("Resolve", err)
	}

	bound, err := s.bindings.GetBinding(ctx, principal.UserID, scheduleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return Resolution{NeedsJoin: true}, nil
		}
		return Resolution{}, &PersistenceError{Op: "Resolve", Err: err}
	}

	if !hasParticipant(schedule.Participants, bound) {
		return Resolution{NeedsJoin: true}, nil
	}

	return Resolution{ParticipantID: bound}, nil
}

// Join completes the join flow: it creates a participant with the next
// palette color, appends it to the schedule, persists the full aggregate,
// and records the binding for the principal.
func (s *IdentityService) Join(ctx context.Context, params JoinScheduleParams) (Schedule, Participant, error) {
	if s == nil {
		return Schedule{}, Participant{}, fmt.Errorf("IdentityService is nil")
	}
	if s.schedules == nil || s.bindings == nil {
		return Schedule{}, Participant{}, fmt.Errorf("identity stores not configured")
	}

	name := strings.TrimSpace(params.Name)
	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	} else if len([]rune(name)) > 50 {
		vErr.add("name", "name must be 50 characters or fewer")
	}
	if vErr.HasErrors() {
		return Schedule{}, Participant{}, vErr
	}

	schedule, err := s.schedules.GetSchedule(ctx, params.ScheduleID)
	if err != nil {
		return Schedule{}, Participant{}, mapStoreError("Join", err)
	}

	participant := Participant{
		ID:    s.idGenerator(),
		Name:  name,
		Color: ledger.ColorAt(len(schedule.Participants)),
	}
	schedule.Participants = append(schedule.Participants, participant)
	schedule.UpdatedAt = s.now()

	persisted, err := s.schedules.SaveSchedule(ctx, schedule)
	if err != nil {
		return Schedule{}, Participant{}, mapStoreError("Join", err)
	}

	if err := s.bindings.PutBinding(ctx, params.Principal.UserID, params.ScheduleID, participant.ID); err != nil {
		return Schedule{}, Participant{}, &PersistenceError{Op: "Join", Err: err}
	}

	s.loggerWith(ctx, "Join",
		"schedule_id", persisted.ID,
		"participant_id", participant.ID,
	).InfoContext(ctx, "participant joined")
	return persisted, participant, nil
}
