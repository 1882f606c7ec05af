package http

import (
	"context"
	"log/slog"

	"github.com/example/group-scheduler/internal/application"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	scheduleIDContextKey contextKey = "schedule_id"
	optionIDContextKey   contextKey = "option_id"
	loggerContextKey     contextKey = "logger"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithScheduleID injects the schedule identifier resolved from the request path.
func ContextWithScheduleID(ctx context.Context, scheduleID string) context.Context {
	return context.WithValue(ctx, scheduleIDContextKey, scheduleID)
}

// ScheduleIDFromContext extracts a schedule identifier previously associated with the context.
func ScheduleIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(scheduleIDContextKey).(string)
	return id, ok
}

// ContextWithOptionID injects the time option identifier resolved from the request path.
func ContextWithOptionID(ctx context.Context, optionID string) context.Context {
	return context.WithValue(ctx, optionIDContextKey, optionID)
}

// OptionIDFromContext extracts a time option identifier previously associated with the context.
func OptionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(optionIDContextKey).(string)
	return id, ok
}

// ContextWithLogger returns a derived context carrying a request-scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// LoggerFromContext returns the request-scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger, _ := ctx.Value(loggerContextKey).(*slog.Logger)
	return logger
}
