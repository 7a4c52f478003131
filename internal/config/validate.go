package config

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Validate checks everything the serve command needs.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if cfg.Server.MetricsPort < 0 || cfg.Server.MetricsPort > 65535 {
		errs = append(errs, "server.metricsPort must be between 0 and 65535")
	}
	if cfg.Server.MetricsPort != 0 && cfg.Server.MetricsPort == cfg.Server.Port {
		errs = append(errs, "server.metricsPort must differ from server.port")
	}

	if key, err := hex.DecodeString(cfg.Discord.PublicKey); err != nil || len(key) != 32 {
		errs = append(errs, "discord.publicKey must be a 64-character hex Ed25519 public key")
	}
	if cfg.Discord.BotToken == "" || isUnexpanded(cfg.Discord.BotToken) {
		errs = append(errs, "discord.botToken is required")
	}
	if cfg.Discord.RequestTimeout <= 0 {
		errs = append(errs, "discord.requestTimeout must be positive")
	}
	if cfg.Discord.MaxConcurrentPosts < 0 {
		errs = append(errs, "discord.maxConcurrentPosts must not be negative")
	}

	switch cfg.Relay.Mode {
	case ModeSubscriptions:
	case ModeStatic:
		if len(cfg.Relay.Channels) == 0 {
			errs = append(errs, "relay.channels must list at least one channel when mode is static")
		}
	default:
		errs = append(errs, fmt.Sprintf("relay.mode must be subscriptions or static (got %q)", cfg.Relay.Mode))
	}

	if cfg.Authorization.Enforce && cfg.Authorization.AuthorizedUserID == "" {
		errs = append(errs, "authorization.authorizedUserId is required when enforce is true")
	}

	validDrivers := map[string]bool{DriverSQLite: true, DriverPostgres: true, DriverMemory: true}
	if !validDrivers[cfg.Database.Driver] {
		errs = append(errs, fmt.Sprintf("database.driver must be sqlite, postgres or memory (got %q)", cfg.Database.Driver))
	}
	if cfg.Database.Driver == DriverSQLite && cfg.Database.SQLite.Path == "" {
		errs = append(errs, "database.sqlite.path is required when driver is sqlite")
	}
	if cfg.Database.Driver == DriverPostgres && !cfg.Database.Postgres.HasURL() {
		if cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Database == "" {
			errs = append(errs, "database.postgres.url or host and database are required when driver is postgres")
		}
	}

	if cfg.Reporting.Slack.Enabled {
		if cfg.Reporting.Slack.BotToken == "" {
			errs = append(errs, "reporting.slack.botToken is required when slack reporting is enabled")
		}
		if cfg.Reporting.Slack.Channel == "" {
			errs = append(errs, "reporting.slack.channel is required when slack reporting is enabled")
		}
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("logging.format must be json or text (got %q)", cfg.Logging.Format))
	}

	return joinErrors(errs)
}

// ValidateRegistration checks what the register command needs.
func ValidateRegistration(cfg *Config) error {
	var errs []string
	if cfg.Discord.BotToken == "" || isUnexpanded(cfg.Discord.BotToken) {
		errs = append(errs, "discord.botToken is required")
	}
	if cfg.Discord.ApplicationID == "" || isUnexpanded(cfg.Discord.ApplicationID) {
		errs = append(errs, "discord.applicationId is required")
	}
	return joinErrors(errs)
}

// HasURL reports whether URL is set to something other than an unset ${VAR}.
func (p PostgresConfig) HasURL() bool {
	return p.URL != "" && !isUnexpanded(p.URL)
}

// isUnexpanded reports a ${VAR} reference whose variable was not set.
func isUnexpanded(s string) bool {
	return strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}")
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
