package persistence

import (
	"context"
	"time"
)

// ScheduleFilter narrows schedule queries.
type ScheduleFilter struct {
	// OwnerID restricts results to schedules created by the given user.
	// Empty means no owner restriction.
	OwnerID string
}

// ScheduleRepository stores schedule aggregates together with their
// participant, date-selection, and time-option child collections.
//
// SaveSchedule fully replaces the persisted representation: all previously
// stored child rows for the schedule are deleted and the current in-memory
// collections inserted. Callers pass the complete aggregate, never a delta.
// Concurrent saves race; the last delete-then-insert to complete wins.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	SaveSchedule(ctx context.Context, schedule Schedule) error
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// UserRepository exposes CRUD operations for identity accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// BindingRepository stores the session-local association between a schedule
// and the participant identity acting for a user. The binding is not part of
// the schedule aggregate; it only lets a returning user be re-recognized.
// Keys follow the client-local storage convention participant-<scheduleID>
// and are scoped per user so one user's binding never shadows another's.
type BindingRepository interface {
	GetBinding(ctx context.Context, userID, key string) (string, error)
	PutBinding(ctx context.Context, userID, key, participantID string) error
	DeleteBinding(ctx context.Context, userID, key string) error
}
