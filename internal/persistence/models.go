package persistence

import "time"

// User represents an account in the identity store.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Participant represents one availability-marking identity within a schedule.
// Color is a palette token assigned at join time and never reassigned.
type Participant struct {
	ID         string
	ScheduleID string
	Name       string
	Color      string
}

// DateSelection records the participants who marked a calendar date as
// available. Date is stored in ISO form (YYYY-MM-DD). ParticipantIDs keeps
// insertion order. A selection with no participants is never persisted.
type DateSelection struct {
	ScheduleID     string
	Date           string
	ParticipantIDs []string
}

// TimeOption represents a proposed time slot and its vote set. Votes keeps
// insertion order and contains no duplicates.
type TimeOption struct {
	ID         string
	ScheduleID string
	Time       string
	Votes      []string
}

// Schedule is the aggregate root stored in persistence, including all three
// child collections. Save replaces the stored representation wholesale.
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

// Session represents an authentication session persisted for a user.
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
