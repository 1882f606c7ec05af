package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type credentialStoreStub struct {
	users     map[string]User
	hashes    map[string]string
	createErr error
}

func newCredentialStoreStub() *credentialStoreStub {
	return &credentialStoreStub{
		users:  make(map[string]User),
		hashes: make(map[string]string),
	}
}

func (c *credentialStoreStub) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if c.createErr != nil {
		return User{}, c.createErr
	}
	for _, existing := range c.users {
		if existing.Email == user.Email {
			return User{}, ErrAlreadyExists
		}
	}
	c.users[user.ID] = user
	c.hashes[user.ID] = passwordHash
	return user, nil
}

func (c *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	for id, user := range c.users {
		if user.Email == email {
			return UserCredentials{User: user, PasswordHash: c.hashes[id]}, nil
		}
	}
	return UserCredentials{}, ErrNotFound
}

func (c *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := c.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

type sessionStoreStub struct {
	sessions map[string]Session
}

func newSessionStoreStub() *sessionStoreStub {
	return &sessionStoreStub{sessions: make(map[string]Session)}
}

func (s *sessionStoreStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionStoreStub) GetSession(ctx context.Context, token string) (Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (s *sessionStoreStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *sessionStoreStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	for token, session := range s.sessions {
		if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func newTestAuthService(t *testing.T, creds *credentialStoreStub, sessions *sessionStoreStub) *AuthService {
	t.Helper()
	counter := 0
	idGen := func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}
	svc := NewAuthService(creds, sessions, idGen, func() string {
		counter++
		return fmt.Sprintf("token-%d", counter)
	}, func() time.Time { return fixedTime(t) }, time.Hour)
	// Hashing is swapped for a cheap reversible scheme so tests stay fast.
	svc.hashPassword = func(password string) (string, error) { return "hash:" + password, nil }
	svc.verifyPassword = func(hash, password string) error {
		if hash == "hash:"+password {
			return nil
		}
		return ErrInvalidCredentials
	}
	return svc
}

func TestAuthService_SignUp_ValidatesInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{name: "missing email", email: "", password: "secret1", field: "email"},
		{name: "invalid email", email: "not-an-address", password: "secret1", field: "email"},
		{name: "short password", email: "alice@example.com", password: "abc", field: "password"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestAuthService(t, newCredentialStoreStub(), newSessionStoreStub())

			_, err := svc.SignUp(context.Background(), SignUpParams{Email: tc.email, Password: tc.password})

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected %s error, got %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestAuthService_SignUp_IssuesSession(t *testing.T) {
	t.Parallel()

	creds := newCredentialStoreStub()
	sessions := newSessionStoreStub()
	svc := newTestAuthService(t, creds, sessions)

	result, err := svc.SignUp(context.Background(), SignUpParams{
		Email:    "Alice@Example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	if result.User.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", result.User.Email)
	}
	if result.Session.Token == "" {
		t.Fatal("expected a session token")
	}
	if _, ok := sessions.sessions[result.Session.Token]; !ok {
		t.Fatal("session was not persisted")
	}
}

func TestAuthService_SignUp_DuplicateEmail(t *testing.T) {
	t.Parallel()

	creds := newCredentialStoreStub()
	svc := newTestAuthService(t, creds, newSessionStoreStub())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpParams{Email: "alice@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("first sign-up failed: %v", err)
	}

	_, err := svc.SignUp(ctx, SignUpParams{Email: "alice@example.com", Password: "secret2"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	creds := newCredentialStoreStub()
	sessions := newSessionStoreStub()
	svc := newTestAuthService(t, creds, sessions)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpParams{Email: "alice@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		result, err := svc.Authenticate(ctx, AuthenticateParams{Email: "alice@example.com", Password: "secret1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.User.Email != "alice@example.com" {
			t.Fatalf("unexpected user %#v", result.User)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, AuthenticateParams{Email: "alice@example.com", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, AuthenticateParams{Email: "nobody@example.com", Password: "secret1"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	creds := newCredentialStoreStub()
	sessions := newSessionStoreStub()
	svc := newTestAuthService(t, creds, sessions)
	ctx := context.Background()

	result, err := svc.SignUp(ctx, SignUpParams{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	token := result.Session.Token

	principal, err := svc.ValidateSession(ctx, token)
	if err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if principal.UserID != result.User.ID {
		t.Fatalf("unexpected principal %#v", principal)
	}

	if err := svc.RevokeSession(ctx, token); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	if _, err := svc.ValidateSession(ctx, token); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

func TestAuthService_ValidateSession_Expired(t *testing.T) {
	t.Parallel()

	creds := newCredentialStoreStub()
	sessions := newSessionStoreStub()
	svc := newTestAuthService(t, creds, sessions)
	ctx := context.Background()

	result, err := svc.SignUp(ctx, SignUpParams{Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}

	svc.now = func() time.Time { return fixedTime(t).Add(2 * time.Hour) }

	if _, err := svc.ValidateSession(ctx, result.Session.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestVerifyPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("secret1", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("hashing failed: %v", err)
	}

	if err := VerifyPassword(hash, "secret1"); err != nil {
		t.Fatalf("expected hash to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "other"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := VerifyPassword("not-a-hash", "secret1"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
	}
}
