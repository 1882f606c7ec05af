// Package memory provides a map-backed implementation of the persistence
// repositories. It is used by tests and local development where a SQLite
// file would be overkill.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/group-scheduler/internal/persistence"
)

// Storage implements every persistence repository over in-process maps.
type Storage struct {
	mu        sync.RWMutex
	users     map[string]persistence.User
	sessions  map[string]persistence.Session
	schedules map[string]persistence.Schedule
	bindings  map[string]string
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage {
	return &Storage{
		users:     make(map[string]persistence.User),
		sessions:  make(map[string]persistence.Session),
		schedules: make(map[string]persistence.Schedule),
		bindings:  make(map[string]string),
	}
}

// --- ScheduleRepository implementation ---

// CreateSchedule stores a new schedule aggregate.
func (s *Storage) CreateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[schedule.ID]; ok {
		return persistence.ErrDuplicate
	}

	for _, existing := range s.schedules {
		if existing.OwnerID == schedule.OwnerID && existing.Name == schedule.Name {
			return persistence.ErrDuplicate
		}
	}

	s.schedules[schedule.ID] = cloneSchedule(schedule)
	return nil
}

// GetSchedule retrieves a schedule aggregate by ID.
func (s *Storage) GetSchedule(ctx context.Context, id string) (persistence.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule, ok := s.schedules[id]
	if !ok {
		return persistence.Schedule{}, persistence.ErrNotFound
	}

	return cloneSchedule(schedule), nil
}

// SaveSchedule replaces the stored aggregate wholesale. The previous child
// collections are discarded; the last save wins.
func (s *Storage) SaveSchedule(ctx context.Context, schedule persistence.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.schedules[schedule.ID]
	if !ok {
		return persistence.ErrNotFound
	}

	schedule.OwnerID = existing.OwnerID
	schedule.CreatedAt = existing.CreatedAt
	s.schedules[schedule.ID] = cloneSchedule(schedule)
	return nil
}

// ListSchedules returns schedules matching the filter ordered by creation time.
func (s *Storage) ListSchedules(ctx context.Context, filter persistence.ScheduleFilter) ([]persistence.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules := make([]persistence.Schedule, 0)
	for _, schedule := range s.schedules {
		if filter.OwnerID != "" && schedule.OwnerID != filter.OwnerID {
			continue
		}
		schedules = append(schedules, cloneSchedule(schedule))
	}

	sort.Slice(schedules, func(i, j int) bool {
		if schedules[i].CreatedAt.Equal(schedules[j].CreatedAt) {
			return schedules[i].ID < schedules[j].ID
		}
		return schedules[i].CreatedAt.Before(schedules[j].CreatedAt)
	})

	return schedules, nil
}

// DeleteSchedule removes a schedule and any bindings pointing at it.
func (s *Storage) DeleteSchedule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[id]; !ok {
		return persistence.ErrNotFound
	}

	delete(s.schedules, id)
	return nil
}

// --- UserRepository implementation ---

// CreateUser stores a new account.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return persistence.ErrDuplicate
	}

	lower := strings.ToLower(user.Email)
	for _, existing := range s.users {
		if strings.ToLower(existing.Email) == lower {
			return persistence.ErrDuplicate
		}
	}

	user.Email = lower
	s.users[user.ID] = user
	return nil
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email address, case-insensitively.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(email)
	for _, user := range s.users {
		if strings.ToLower(user.Email) == lower {
			return user, nil
		}
	}

	return persistence.User{}, persistence.ErrNotFound
}

// DeleteUser removes a user and their sessions and bindings.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}

	delete(s.users, id)

	for token, session := range s.sessions {
		if session.UserID == id {
			delete(s.sessions, token)
		}
	}
	for key := range s.bindings {
		if strings.HasPrefix(key, id+"\x00") {
			delete(s.bindings, key)
		}
	}

	return nil
}

// --- SessionRepository implementation ---

// CreateSession stores a new session keyed by token.
func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.Token]; ok {
		return persistence.Session{}, persistence.ErrDuplicate
	}

	s.sessions[session.Token] = cloneSession(session)
	return cloneSession(session), nil
}

// GetSession retrieves a session by token.
func (s *Storage) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}

	return cloneSession(session), nil
}

// RevokeSession marks the session for the token as revoked.
func (s *Storage) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}

	revoked := revokedAt.UTC()
	session.RevokedAt = &revoked
	session.UpdatedAt = revoked
	s.sessions[token] = session
	return cloneSession(session), nil
}

// DeleteExpiredSessions removes sessions expired at or before the reference.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}

	return nil
}

// --- BindingRepository implementation ---

func bindingMapKey(userID, key string) string {
	return userID + "\x00" + key
}

// GetBinding returns the participant bound to a key for a user.
func (s *Storage) GetBinding(ctx context.Context, userID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	participantID, ok := s.bindings[bindingMapKey(userID, key)]
	if !ok {
		return "", persistence.ErrNotFound
	}

	return participantID, nil
}

// PutBinding stores or replaces a binding.
func (s *Storage) PutBinding(ctx context.Context, userID, key, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bindings[bindingMapKey(userID, key)] = participantID
	return nil
}

// DeleteBinding removes a binding. Missing bindings are not an error.
func (s *Storage) DeleteBinding(ctx context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.bindings, bindingMapKey(userID, key))
	return nil
}

// --- Helpers ---

func cloneSchedule(schedule persistence.Schedule) persistence.Schedule {
	clone := schedule

	clone.Participants = make([]persistence.Participant, len(schedule.Participants))
	copy(clone.Participants, schedule.Participants)

	clone.DateSelections = make([]persistence.DateSelection, len(schedule.DateSelections))
	for i, selection := range schedule.DateSelections {
		members := make([]string, len(selection.ParticipantIDs))
		copy(members, selection.ParticipantIDs)
		selection.ParticipantIDs = members
		clone.DateSelections[i] = selection
	}

	clone.TimeOptions = make([]persistence.TimeOption, len(schedule.TimeOptions))
	for i, option := range schedule.TimeOptions {
		votes := make([]string, len(option.Votes))
		copy(votes, option.Votes)
		option.Votes = votes
		clone.TimeOptions[i] = option
	}

	return clone
}

func cloneSession(session persistence.Session) persistence.Session {
	clone := session
	if session.RevokedAt != nil {
		revoked := *session.RevokedAt
		clone.RevokedAt = &revoked
	}
	return clone
}
