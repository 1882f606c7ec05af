package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/group-scheduler/internal/application"
	"github.com/example/group-scheduler/internal/config"
	httptransport "github.com/example/group-scheduler/internal/http"
	"github.com/example/group-scheduler/internal/logging"
	"github.com/example/group-scheduler/internal/persistence"
	"github.com/example/group-scheduler/internal/persistence/sqlite"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(cfg.SQLiteDSN))
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	scheduleStore := newScheduleStoreAdapter(sqlite.NewScheduleRepository(pool))
	bindingStore := newBindingStoreAdapter(sqlite.NewBindingRepository(pool))
	credentialStore := newCredentialStoreAdapter(sqlite.NewUserRepository(pool))
	sessionStore := newSessionStoreAdapter(sqlite.NewSessionRepository(pool))

	scheduleService := application.NewScheduleServiceWithLogger(scheduleStore, idGenerator, now, logger)
	identityService := application.NewIdentityServiceWithLogger(scheduleStore, bindingStore, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(credentialStore, sessionStore, idGenerator, tokenGenerator, now, cfg.SessionTTL, logger)

	if err := ensureAdminAccount(ctx, cfg, credentialStore, idGenerator, now, logger); err != nil {
		logger.Error("failed to bootstrap administrator account", "error", err)
		os.Exit(1)
	}

	authHandler := httptransport.NewAuthHandler(authService, logger)
	scheduleHandler := httptransport.NewScheduleHandler(scheduleService, identityService, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      authHandler,
		Schedules: scheduleHandler,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireSession(authService, logger, "/signup", "/login"),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// ensureAdminAccount creates the configured administrator account when it
// does not exist yet. An existing account is left untouched.
func ensureAdminAccount(ctx context.Context, cfg config.Config, credentials application.CredentialStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) error {
	if cfg.AdminEmail == "" {
		return nil
	}

	if _, err := credentials.GetUserCredentialsByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, application.ErrNotFound) {
		return err
	}

	hash, err := application.CreatePasswordHash(cfg.AdminPassword, application.DefaultArgon2idParams)
	if err != nil {
		return err
	}

	createdAt := now()
	admin := application.User{
		ID:          idGenerator(),
		Email:       cfg.AdminEmail,
		DisplayName: cfg.AdminEmail,
		IsAdmin:     true,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	created, err := credentials.CreateUser(ctx, admin, hash)
	if err != nil {
		return err
	}

	logger.Info("administrator account created", "user_id", created.ID)
	return nil
}

// mapPersistenceError translates storage sentinels into their application
// counterparts so the services can branch on a single error vocabulary.
func mapPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return application.ErrAlreadyExists
	default:
		return err
	}
}

type scheduleStoreAdapter struct {
	repo persistence.ScheduleRepository
}

func newScheduleStoreAdapter(repo persistence.ScheduleRepository) *scheduleStoreAdapter {
	return &scheduleStoreAdapter{repo: repo}
}

func (a *scheduleStoreAdapter) CreateSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	if err := a.repo.CreateSchedule(ctx, toPersistenceSchedule(schedule)); err != nil {
		return application.Schedule{}, mapPersistenceError(err)
	}
	stored, err := a.repo.GetSchedule(ctx, schedule.ID)
	if err != nil {
		return application.Schedule{}, mapPersistenceError(err)
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleStoreAdapter) GetSchedule(ctx context.Context, id string) (application.Schedule, error) {
	stored, err := a.repo.GetSchedule(ctx, id)
	if err != nil {
		return application.Schedule{}, mapPersistenceError(err)
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleStoreAdapter) SaveSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	if err := a.repo.SaveSchedule(ctx, toPersistenceSchedule(schedule)); err != nil {
		return application.Schedule{}, mapPersistenceError(err)
	}
	stored, err := a.repo.GetSchedule(ctx, schedule.ID)
	if err != nil {
		return application.Schedule{}, mapPersistenceError(err)
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleStoreAdapter) ListSchedules(ctx context.Context, filter application.ScheduleStoreFilter) ([]application.Schedule, error) {
	models, err := a.repo.ListSchedules(ctx, persistence.ScheduleFilter{OwnerID: filter.OwnerID})
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	schedules := make([]application.Schedule, 0, len(models))
	for _, model := range models {
		schedules = append(schedules, toApplicationSchedule(model))
	}
	return schedules, nil
}

func (a *scheduleStoreAdapter) DeleteSchedule(ctx context.Context, id string) error {
	return mapPersistenceError(a.repo.DeleteSchedule(ctx, id))
}

type bindingStoreAdapter struct {
	repo persistence.BindingRepository
}

func newBindingStoreAdapter(repo persistence.BindingRepository) *bindingStoreAdapter {
	return &bindingStoreAdapter{repo: repo}
}

func (a *bindingStoreAdapter) GetBinding(ctx context.Context, userID, scheduleID string) (string, error) {
	participantID, err := a.repo.GetBinding(ctx, userID, application.BindingKey(scheduleID))
	if err != nil {
		return "", mapPersistenceError(err)
	}
	return participantID, nil
}

func (a *bindingStoreAdapter) PutBinding(ctx context.Context, userID, scheduleID, participantID string) error {
	return mapPersistenceError(a.repo.PutBinding(ctx, userID, application.BindingKey(scheduleID), participantID))
}

func (a *bindingStoreAdapter) DeleteBinding(ctx context.Context, userID, scheduleID string) error {
	return mapPersistenceError(a.repo.DeleteBinding(ctx, userID, application.BindingKey(scheduleID)))
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, mapPersistenceError(err)
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapPersistenceError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, mapPersistenceError(err)
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapPersistenceError(err)
	}
	return toApplicationUser(stored), nil
}

type sessionStoreAdapter struct {
	repo persistence.SessionRepository
}

func newSessionStoreAdapter(repo persistence.SessionRepository) *sessionStoreAdapter {
	return &sessionStoreAdapter{repo: repo}
}

func (a *sessionStoreAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapPersistenceError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, mapPersistenceError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, mapPersistenceError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionStoreAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapPersistenceError(a.repo.DeleteExpiredSessions(ctx, reference))
}

func toApplicationSchedule(model persistence.Schedule) application.Schedule {
	schedule := application.Schedule{
		ID:        model.ID,
		Name:      model.Name,
		OwnerID:   model.OwnerID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	for _, participant := range model.Participants {
		schedule.Participants = append(schedule.Participants, application.Participant{
			ID:    participant.ID,
			Name:  participant.Name,
			Color: participant.Color,
		})
	}
	for _, selection := range model.DateSelections {
		schedule.DateSelections = append(schedule.DateSelections, application.DateSelection{
			Date:           selection.Date,
			ParticipantIDs: append([]string(nil), selection.ParticipantIDs...),
		})
	}
	for _, option := range model.TimeOptions {
		schedule.TimeOptions = append(schedule.TimeOptions, application.TimeOption{
			ID:    option.ID,
			Time:  option.Time,
			Votes: append([]string(nil), option.Votes...),
		})
	}
	return schedule
}

func toPersistenceSchedule(schedule application.Schedule) persistence.Schedule {
	model := persistence.Schedule{
		ID:        schedule.ID,
		Name:      schedule.Name,
		OwnerID:   schedule.OwnerID,
		CreatedAt: schedule.CreatedAt,
		UpdatedAt: schedule.UpdatedAt,
	}
	for _, participant := range schedule.Participants {
		model.Participants = append(model.Participants, persistence.Participant{
			ID:         participant.ID,
			ScheduleID: schedule.ID,
			Name:       participant.Name,
			Color:      participant.Color,
		})
	}
	for _, selection := range schedule.DateSelections {
		model.DateSelections = append(model.DateSelections, persistence.DateSelection{
			ScheduleID:     schedule.ID,
			Date:           selection.Date,
			ParticipantIDs: append([]string(nil), selection.ParticipantIDs...),
		})
	}
	for _, option := range schedule.TimeOptions {
		model.TimeOptions = append(model.TimeOptions, persistence.TimeOption{
			ID:         option.ID,
			ScheduleID: schedule.ID,
			Time:       option.Time,
			Votes:      append([]string(nil), option.Votes...),
		})
	}
	return model
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		IsAdmin:     model.IsAdmin,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: passwordHash,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:          model.ID,
		UserID:      model.UserID,
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
