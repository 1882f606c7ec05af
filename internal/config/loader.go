package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the group
// scheduling service.
type Config struct {
	HTTPPort   int
	SQLiteDSN  string
	SessionTTL time.Duration
	LogLevel   slog.Level

	// AdminEmail and AdminPassword, when both set, bootstrap an
	// administrator account at startup.
	AdminEmail    string
	AdminPassword string
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// provided values and reporting localized error messages for bad entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:scheduler.db",
		SessionTTL: 24 * time.Hour,
		LogLevel:   slog.LevelInfo,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SCHEDULER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SCHEDULER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SCHEDULER_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SCHEDULER_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if levelValue := strings.TrimSpace(os.Getenv("SCHEDULER_LOG_LEVEL")); levelValue != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "SCHEDULER_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	cfg.AdminEmail = strings.TrimSpace(os.Getenv("SCHEDULER_ADMIN_EMAIL"))
	cfg.AdminPassword = os.Getenv("SCHEDULER_ADMIN_PASSWORD")

	// Bootstrapping an administrator needs both halves of the credential.
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		missing = append(missing, "SCHEDULER_ADMIN_PASSWORD")
	}
	if cfg.AdminPassword != "" && cfg.AdminEmail == "" {
		missing = append(missing, "SCHEDULER_ADMIN_EMAIL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
