package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/group-scheduler/internal/application"
	"github.com/example/group-scheduler/internal/ledger"
	"github.com/example/group-scheduler/internal/persistence"
)

var (
	userCounter     uint64
	scheduleCounter uint64
	sessionCounter  uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		IsAdmin:      false,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserAdmin sets the admin flag on the generated fixture.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = isAdmin
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		IsAdmin:     f.IsAdmin,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.IsAdmin}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		IsAdmin:      f.IsAdmin,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// --------------------------- Schedule fixtures ---------------------------

// ScheduleFixture represents a deterministic schedule aggregate including its
// participants, date selections and time options.
type ScheduleFixture struct {
	ID             string
	Name           string
	OwnerID        string
	Participants   []application.Participant
	DateSelections []application.DateSelection
	TimeOptions    []application.TimeOption
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ScheduleOption configures the generated schedule fixture.
type ScheduleOption func(*ScheduleFixture)

// NewScheduleFixture returns a deterministic schedule fixture with optional
// overrides. The default aggregate carries no participants.
func NewScheduleFixture(opts ...ScheduleOption) ScheduleFixture {
	idx := atomic.AddUint64(&scheduleCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := ScheduleFixture{
		ID:        fmt.Sprintf("schedule-%03d", idx),
		Name:      fmt.Sprintf("Schedule %03d", idx),
		OwnerID:   fmt.Sprintf("owner-%03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithScheduleID overrides the generated schedule ID.
func WithScheduleID(id string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.ID = id
	}
}

// WithScheduleName overrides the generated schedule name.
func WithScheduleName(name string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Name = name
	}
}

// WithScheduleOwner overrides the owner of the generated schedule.
func WithScheduleOwner(ownerID string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.OwnerID = ownerID
	}
}

// WithParticipantNames appends one participant per supplied name, assigning
// palette colors in join order.
func WithParticipantNames(names ...string) ScheduleOption {
	return func(f *ScheduleFixture) {
		for _, name := range names {
			f.Participants = append(f.Participants, application.Participant{
				ID:    fmt.Sprintf("%s-participant-%d", f.ID, len(f.Participants)+1),
				Name:  name,
				Color: ledger.ColorAt(len(f.Participants)),
			})
		}
	}
}

// WithDateSelection appends an availability mark for the given date carrying
// the listed participant IDs.
func WithDateSelection(date string, participantIDs ...string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.DateSelections = append(f.DateSelections, application.DateSelection{
			Date:           date,
			ParticipantIDs: participantIDs,
		})
	}
}

// WithTimeOption appends a proposed time slot carrying the listed votes.
func WithTimeOption(id, slot string, votes ...string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.TimeOptions = append(f.TimeOptions, application.TimeOption{
			ID:    id,
			Time:  slot,
			Votes: votes,
		})
	}
}

// WithScheduleTimestamps sets both created and updated timestamps.
func WithScheduleTimestamps(created, updated time.Time) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Schedule value.
func (f ScheduleFixture) Application() application.Schedule {
	return application.Schedule{
		ID:             f.ID,
		Name:           f.Name,
		OwnerID:        f.OwnerID,
		Participants:   f.Participants,
		DateSelections: f.DateSelections,
		TimeOptions:    f.TimeOptions,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Schedule value with the
// schedule ID stamped onto every child record.
func (f ScheduleFixture) Persistence() persistence.Schedule {
	schedule := persistence.Schedule{
		ID:        f.ID,
		Name:      f.Name,
		OwnerID:   f.OwnerID,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	for _, participant := range f.Participants {
		schedule.Participants = append(schedule.Participants, persistence.Participant{
			ID:         participant.ID,
			ScheduleID: f.ID,
			Name:       participant.Name,
			Color:      participant.Color,
		})
	}
	for _, selection := range f.DateSelections {
		schedule.DateSelections = append(schedule.DateSelections, persistence.DateSelection{
			ScheduleID:     f.ID,
			Date:           selection.Date,
			ParticipantIDs: append([]string(nil), selection.ParticipantIDs...),
		})
	}
	for _, option := range f.TimeOptions {
		schedule.TimeOptions = append(schedule.TimeOptions, persistence.TimeOption{
			ID:         option.ID,
			ScheduleID: f.ID,
			Time:       option.Time,
			Votes:      append([]string(nil), option.Votes...),
		})
	}
	return schedule
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic authentication session.
type SessionFixture struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional
// overrides. Sessions expire 24 hours after their creation instant.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Second)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUser overrides the user the session belongs to.
func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiry overrides the expiry instant.
func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = expiresAt
	}
}

// WithSessionRevoked marks the session revoked at the given instant.
func WithSessionRevoked(revokedAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &revokedAt
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   f.RevokedAt,
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   f.RevokedAt,
	}
}
