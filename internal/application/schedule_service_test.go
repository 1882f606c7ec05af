package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/group-scheduler/internal/persistence"
)

type scheduleStoreStub struct {
	schedule  Schedule
	created   Schedule
	saved     []Schedule
	list      []Schedule
	err       error
	saveErr   error
	deleteErr error
	deleted   []string
}

func (s *scheduleStoreStub) CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error) {
	if s.err != nil {
		return Schedule{}, s.err
	}
	s.created = schedule
	return schedule, nil
}

func (s *scheduleStoreStub) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	if s.err != nil {
		return Schedule{}, s.err
	}
	if s.schedule.ID == "" || s.schedule.ID != id {
		return Schedule{}, ErrNotFound
	}
	return s.schedule, nil
}

func (s *scheduleStoreStub) SaveSchedule(ctx context.Context, schedule Schedule) (Schedule, error) {
	if s.saveErr != nil {
		return Schedule{}, s.saveErr
	}
	s.saved = append(s.saved, schedule)
	s.schedule = schedule
	return schedule, nil
}

func (s *scheduleStoreStub) ListSchedules(ctx context.Context, filter ScheduleStoreFilter) ([]Schedule, error) {
	if s.err != nil {
		return nil, s.err
	}
	if filter.OwnerID == "" {
		return s.list, nil
	}
	out := make([]Schedule, 0, len(s.list))
	for _, schedule := range s.list {
		if schedule.OwnerID == filter.OwnerID {
			out = append(out, schedule)
		}
	}
	return out, nil
}

func (s *scheduleStoreStub) DeleteSchedule(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func fixedTime(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
}

func teamSync(participants ...Participant) Schedule {
	return Schedule{
		ID:             "sched-1",
		Name:           "Team Sync",
		OwnerID:        "owner-1",
		Participants:   participants,
		DateSelections: []DateSelection{},
		TimeOptions:    []TimeOption{},
	}
}

func TestScheduleService_CreateSchedule_ValidatesName(t *testing.T) {
	t.Parallel()

	svc := NewScheduleService(&scheduleStoreStub{}, func() string { return "sched-1" }, func() time.Time { return fixedTime(t) })

	_, err := svc.CreateSchedule(context.Background(), CreateScheduleParams{
		Principal: Principal{UserID: "owner-1"},
		Name:      "   ",
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["name"]; !ok {
		t.Fatalf("expected name validation error, got %v", vErr.FieldErrors)
	}
}

func TestScheduleService_CreateSchedule_StartsEmpty(t *testing.T) {
	t.Parallel()

	repo := &scheduleStoreStub{}
	svc := NewScheduleService(repo, func() string { return "sched-1" }, func() time.Time { return fixedTime(t) })

	schedule, err := svc.CreateSchedule(context.Background(), CreateScheduleParams{
		Principal: Principal{UserID: "owner-1"},
		Name:      "  Team Sync  ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if schedule.Name != "Team Sync" {
		t.Fatalf("expected trimmed name, got %q", schedule.Name)
	}
	if schedule.OwnerID != "owner-1" {
		t.Fatalf("unexpected owner %q", schedule.OwnerID)
	}
	if len(schedule.Participants) != 0 || len(schedule.DateSelections) != 0 || len(schedule.TimeOptions) != 0 {
		t.Fatalf("expected empty collections, got %#v", schedule)
	}
	if !schedule.CreatedAt.Equal(fixedTime(t)) {
		t.Fatalf("unexpected created_at %v", schedule.CreatedAt)
	}
}

func TestScheduleService_CreateSchedule_MapsDuplicateToAlreadyExists(t *testing.T) {
	t.Parallel()

	repo := &scheduleStoreStub{err: persistence.ErrDuplicate}
	svc := NewScheduleService(repo, func() string { return "sched-1" }, func() time.Time { return fixedTime(t) })

	_, err := svc.CreateSchedule(context.Background(), CreateScheduleParams{
		Principal: Principal{UserID: "owner-1"},
		Name:      "Team Sync",
	})

	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestScheduleService_CreateSchedule_RequiresPrincipal(t *testing.T) {
	t.Parallel()

	svc := NewScheduleService(&scheduleStoreStub{}, nil, nil)

	_, err := svc.CreateSchedule(context.Background(), CreateScheduleParams{Name: "Team Sync"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestScheduleService_ToggleDate_Scenario(t *testing.T) {
	t.Parallel()

	alice := Participant{ID: "alice", Name: "Alice", Color: "hsl(14 100% 57%)"}
	bob := Participant{ID: "bob", Name: "Bob", Color: "hsl(142 71% 45%)"}
	repo := &scheduleStoreStub{schedule: teamSync(alice, bob)}
	svc := NewScheduleService(repo, func() string { return "id" }, func() time.Time { return fixedTime(t) })
	ctx := context.Background()

	schedule, err := svc.ToggleDate(ctx, ToggleDateParams{ScheduleID: "sched-1", Date: "2025-03-10", ParticipantID: "alice"})
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if len(schedule.DateSelections) != 1 {
		t.Fatalf("expected one selection, got %#v", schedule.DateSelections)
	}
	if got := schedule.DateSelections[0]; got.Date != "2025-03-10" || len(got.ParticipantIDs) != 1 || got.ParticipantIDs[0] != "alice" {
		t.Fatalf("unexpected selection %#v", got)
	}

	schedule, err = svc.ToggleDate(ctx, ToggleDateParams{ScheduleID: "sched-1", Date: "2025-03-10", ParticipantID: "bob"})
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if ids := schedule.DateSelections[0].ParticipantIDs; len(ids) != 2 || ids[0] != "alice" || ids[1] != "bob" {
		t.Fatalf("unexpected participants %v", ids)
	}

	schedule, err = svc.ToggleDate(ctx, ToggleDateParams{ScheduleID: "sched-1", Date: "2025-03-10", ParticipantID: "alice"})
	if err != nil {
		t.Fatalf("third toggle failed: %v", err)
	}
	if ids := schedule.DateSelections[0].ParticipantIDs; len(ids) != 1 || ids[0] != "bob" {
		t.Fatalf("unexpected participants %v", ids)
	}

	schedule, err = svc.ToggleDate(ctx, ToggleDateParams{ScheduleID: "sched-1", Date: "2025-03-10", ParticipantID: "bob"})
	if err != nil {
		t.Fatalf("fourth toggle failed: %v", err)
	}
	if len(schedule.DateSelections) != 0 {
		t.Fatalf("expected selection pruned, got %#v", schedule.DateSelections)
	}

	if len(repo.saved) != 4 {
		t.Fatalf("expected one full-aggregate save per toggle, got %d", len(repo.saved))
	}
}

func TestScheduleService_ToggleDate_RejectsUnresolvedParticipant(t *testing.T) {
	t.Parallel()

	repo := &scheduleStoreStub{schedule: teamSync(Participant{ID: "alice"})}
	svc := NewScheduleService(repo, nil, nil)

	cases := []struct {
		name          string
		participantID string
	}{
		{name: "empty participant", participantID: ""},
		{name: "unknown participant", participantID: "stranger"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.ToggleDate(context.Background(), ToggleDateParams{
				ScheduleID:    "sched-1",
				Date:          "2025-03-10",
				ParticipantID: tc.participantID,
			})
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
			if len(repo.saved) != 0 {
				t.Fatalf("no persistence call expected, got %d saves", len(repo.saved))
			}
		})
	}
}

func TestScheduleService_ToggleDate_ValidatesDateFormat(t *testing.T) {
	t.Parallel()

	repo := &scheduleStoreStub{schedule: teamSync(Participant{ID: "alice"})}
	svc := NewScheduleService(repo, nil, nil)

	_, err := svc.ToggleDate(context.Background(), ToggleDateParams{
		ScheduleID:    "sched-1",
		Date:          "10/03/2025",
		ParticipantID: "alice",
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestScheduleService_ToggleDate_WrapsSaveFailure(t *testing.T) {
	t.Parallel()

	repo := &scheduleStoreStub{
		schedule: teamSync(Participant{ID: "alice"}),
		saveErr:  errors.New("backend unavailable"),
	}
	svc := NewScheduleService(repo, nil, nil)

	_, err := svc.ToggleDate(context.Background(), ToggleDateParams{
		ScheduleID:    "sched-1",
		Date:          "2025-03-10",
		ParticipantID: "alice",
	})

	var pErr *PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestScheduleService_TimeOptionScenario(t *testing.T) {
	t.Parallel()

	alice := Participant{ID: "alice", Name: "Alice"}
	repo := &scheduleStoreStub{schedule: teamSync(alice)}
	ids := []string{"opt-1"}
	svc := NewScheduleService(repo, func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}, func() time.Time { return fixedTime(t) })
	ctx := context.Background()

	schedule, err := svc.AddTimeOption(ctx, AddTimeOptionParams{ScheduleID: "sched-1", Time: " 18:00~19:00 "})
	if err != nil {
		t.Fatalf("add option failed: %v", err)
	}
	if len(schedule.TimeOptions) != 1 {
		t.Fatalf("expected one option, got %#v", schedule.TimeOptions)
	}
	option := schedule.TimeOptions[0]
	if option.Time != "18:00~19:00" {
		t.Fatalf("expected trimmed label, got %q", option.Time)
	}
	if len(option.Votes) != 0 {
		t.Fatalf("expected empty votes, got %v", option.Votes)
	}

	schedule, err = svc.ToggleVote(ctx, ToggleVoteParams{ScheduleID: "sched-1", OptionID: option.ID, ParticipantID: "alice"})
	if err != nil {
		t.Fatalf("toggle vote failed: %v", err)
	}
	if votes := schedule.TimeOptions[0].Votes; len(votes) != 1 || votes[0] != "alice" {
		t.Fatalf("unexpected votes %v", votes)
	}

	schedule, err = svc.DeleteTimeOption(ctx, DeleteTimeOptionParams{ScheduleID: "sched-1", OptionID: option.ID})
	if err != nil {
		t.Fatalf("delete option failed: %v", err)
	}
	if len(schedule.TimeOptions) != 0 {
		t.Fatalf("expected option removed, got %#v", schedule.TimeOptions)
	}

	saves := len(repo.saved)
	schedule, err = svc.DeleteTimeOption(ctx, DeleteTimeOptionParams{ScheduleID: "sched-1", OptionID: option.ID})
	if err != nil {
		t.Fatalf("repeated delete must not error: %v", err)
	}
	if len(schedule.TimeOptions) != 0 {
		t.Fatalf("unexpected options %#v", schedule.TimeOptions)
	}
	if len(repo.saved) != saves {
		t.Fatal("repeated delete must not persist")
	}
}

func TestScheduleService_AddTimeOption_ValidatesLabel(t *testing.T) {
	t.Parallel()

	repo := &scheduleStoreStub{schedule: teamSync()}
	svc := NewScheduleService(repo, nil, nil)

	cases := []struct {
		name  string
		label string
	}{
		{name: "empty label", label: "   "},
		{name: "oversized label", label: strings.Repeat("x", 51)},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.AddTimeOption(context.Background(), AddTimeOptionParams{ScheduleID: "sched-1", Time: tc.label})

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(repo.saved) != 0 {
				t.Fatal("validation must run before any persistence call")
			}
		})
	}
}

func TestScheduleService_ToggleVote_SilentNoOpForUnresolvedParticipant(t *testing.T) {
	t.Parallel()

	repo := &scheduleStoreStub{schedule: Schedule{
		ID:          "sched-1",
		Name:        "Team Sync",
		OwnerID:     "owner-1",
		TimeOptions: []TimeOption{{ID: "opt-1", Time: "18:00~19:00", Votes: []string{}}},
	}}
	svc := NewScheduleService(repo, nil, nil)

	schedule, err := svc.ToggleVote(context.Background(), ToggleVoteParams{
		ScheduleID:    "sched-1",
		OptionID:      "opt-1",
		ParticipantID: "stranger",
	})
	if err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if len(schedule.TimeOptions[0].Votes) != 0 {
		t.Fatalf("votes must be unchanged, got %v", schedule.TimeOptions[0].Votes)
	}
	if len(repo.saved) != 0 {
		t.Fatal("no persistence call expected for a no-op")
	}
}

func TestScheduleService_ToggleVote_UnknownOption(t *testing.T) {
	t.Parallel()

	repo := &scheduleStoreStub{schedule: teamSync(Participant{ID: "alice"})}
	svc := NewScheduleService(repo, nil, nil)

	_, err := svc.ToggleVote(context.Background(), ToggleVoteParams{
		ScheduleID:    "sched-1",
		OptionID:      "missing",
		ParticipantID: "alice",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleService_DeleteSchedule_Authorization(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		principal Principal
		wantErr   error
	}{
		{name: "owner may delete", principal: Principal{UserID: "owner-1"}},
		{name: "admin may delete", principal: Principal{UserID: "someone-else", IsAdmin: true}},
		{name: "stranger may not delete", principal: Principal{UserID: "someone-else"}, wantErr: ErrUnauthorized},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &scheduleStoreStub{schedule: teamSync()}
			svc := NewScheduleService(repo, nil, nil)

			err := svc.DeleteSchedule(context.Background(), tc.principal, "sched-1")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				if len(repo.deleted) != 0 {
					t.Fatal("unauthorized delete must not reach the store")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(repo.deleted) != 1 || repo.deleted[0] != "sched-1" {
				t.Fatalf("unexpected deletions %v", repo.deleted)
			}
		})
	}
}

func TestScheduleService_ListSchedules_ScopesByOwner(t *testing.T) {
	t.Parallel()

	repo := &scheduleStoreStub{list: []Schedule{
		{ID: "a", OwnerID: "owner-1"},
		{ID: "b", OwnerID: "owner-2"},
	}}
	svc := NewScheduleService(repo, nil, nil)
	ctx := context.Background()

	own, err := svc.ListSchedules(ctx, Principal{UserID: "owner-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(own) != 1 || own[0].ID != "a" {
		t.Fatalf("expected only owner-1 schedules, got %#v", own)
	}

	all, err := svc.ListSchedules(ctx, Principal{UserID: "owner-1", IsAdmin: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected all schedules for admin, got %#v", all)
	}
}
