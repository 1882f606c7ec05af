package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Participant is one availability-marking identity within a schedule. The
// color is a palette token assigned deterministically at join time.
type Participant struct {
	ID    string
	Name  string
	Color string
}

// DateSelection is the set of participants who marked a calendar date as
// available. Date uses ISO form (YYYY-MM-DD).
type DateSelection struct {
	Date           string
	ParticipantIDs []string
}

// TimeOption is a proposed time slot participants vote on. A vote is a pure
// boolean membership; there is no weighting or ranking.
type TimeOption struct {
	ID    string
	Time  string
	Votes []string
}

// Schedule is the aggregate root coordinating one group's
// availability-finding session.
type Schedule struct {
	ID             string
	Name           string
	OwnerID        string
	Participants   []Participant
	DateSelections []DateSelection
	TimeOptions    []TimeOption
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateScheduleParams wraps the data required to create a schedule.
type CreateScheduleParams struct {
	Principal Principal
	Name      string
}

// JoinScheduleParams wraps the data required to join a schedule as a new
// participant.
type JoinScheduleParams struct {
	Principal  Principal
	ScheduleID string
	Name       string
}

// Resolution is the outcome of resolving the acting participant for a
// schedule. When NeedsJoin is set, no valid binding exists and the caller
// must surface the name-entry join step.
type Resolution struct {
	ParticipantID string
	NeedsJoin     bool
}

// ToggleDateParams wraps the data required to flip an availability mark.
type ToggleDateParams struct {
	ScheduleID    string
	Date          string
	ParticipantID string
}

// AddTimeOptionParams wraps the data required to propose a time slot.
type AddTimeOptionParams struct {
	ScheduleID string
	Time       string
}

// ToggleVoteParams wraps the data required to flip a vote on a time option.
type ToggleVoteParams struct {
	ScheduleID    string
	OptionID      string
	ParticipantID string
}

// DeleteTimeOptionParams wraps the data required to withdraw a time option.
type DeleteTimeOptionParams struct {
	ScheduleID string
	OptionID   string
}

// User represents an identity account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// SignUpParams captures the data required to register a new account.
type SignUpParams struct {
	Email       string
	DisplayName string
	Password    string
	Fingerprint string
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
