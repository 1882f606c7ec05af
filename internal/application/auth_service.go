package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
)

// CredentialStore exposes the account operations required by the auth service.
type CredentialStore interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// SessionStore captures the persistence interactions for issued sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// AuthService implements the identity collaborator: sign-up, sign-in,
// sign-out, and resolution of the current principal from a session token.
type AuthService struct {
	credentials    CredentialStore
	sessions       SessionStore
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, sessions SessionStore, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, sessions, idGenerator, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, sessions SessionStore, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		credentials:    credentials,
		sessions:       sessions,
		hashPassword:   func(password string) (string, error) { return CreatePasswordHash(password, DefaultArgon2idParams) },
		verifyPassword: VerifyPassword,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// SignUp registers a new account and signs it in, issuing a session token.
func (s *AuthService) SignUp(ctx context.Context, params SignUpParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	displayName := strings.TrimSpace(params.DisplayName)

	logger := s.loggerWith(ctx, "SignUp", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "sign-up failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "account registered")
	}()

	vErr := &ValidationError{}
	if email == "" {
		vErr.add("email", "email is required")
	} else if len(email) > 255 {
		vErr.add("email", "email must be 255 characters or fewer")
	} else if _, parseErr := mail.ParseAddress(email); parseErr != nil {
		vErr.add("email", "email is invalid")
	}
	if len(params.Password) < 6 {
		vErr.add("password", "password must be at least 6 characters")
	} else if len(params.Password) > 50 {
		vErr.add("password", "password must be 50 characters or fewer")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if displayName == "" {
		displayName = email
	}

	var hash string
	hash, err = s.hashPassword(params.Password)
	if err != nil {
		return
	}

	createdAt := s.now()
	user := User{
		ID:          s.idGenerator(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	var persisted User
	persisted, err = s.credentials.CreateUser(ctx, user, hash)
	if err != nil {
		err = mapStoreError("SignUp", err)
		return
	}

	session, sessionErr := s.issueSession(ctx, persisted.ID)
	if sessionErr != nil {
		err = sessionErr
		return
	}

	result = AuthenticateResult{User: persisted, Session: session}
	return
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	password := params.Password

	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetUserCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		return
	}

	if err = s.verifyPassword(creds.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	var session Session
	session, err = s.issueSession(ctx, creds.User.ID)
	if err != nil {
		return
	}

	result = AuthenticateResult{User: creds.User, Session: session}
	return
}

// RevokeSession invalidates an existing session token (sign-out).
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session store not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "RevokeSession", "token_provided", trimmed != "")

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.ErrorContext(ctx, "failed to revoke session", "error", ErrInvalidCredentials, "error_kind", ErrorKind(ErrInvalidCredentials))
			return ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession verifies the token against an active session and returns
// its principal (the "current user" of the identity collaborator).
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session store not configured")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("principal_id", principal.UserID).InfoContext(ctx, "session validated")
	}()

	if trimmed == "" {
		err = ErrInvalidCredentials
		return
	}

	var session Session
	session, err = s.sessions.GetSession(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}

	var user User
	user, err = s.credentials.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	principal = Principal{UserID: user.ID, IsAdmin: user.IsAdmin}
	return
}

func (s *AuthService) issueSession(ctx context.Context, userID string) (Session, error) {
	now := s.now()
	id := s.idGenerator()
	token := s.tokenGenerator()
	if token == "" {
		token = id
	}

	session := Session{
		ID:        id,
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	if s.sessions == nil {
		return session, nil
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return Session{}, err
	}

	persisted, err := s.sessions.CreateSession(ctx, session)
	if err != nil {
		return Session{}, err
	}
	return persisted, nil
}
