package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Relay modes.
const (
	// ModeSubscriptions posts to the channels each user registered.
	ModeSubscriptions = "subscriptions"
	// ModeStatic posts every message to relay.channels.
	ModeStatic = "static"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Discord       DiscordConfig       `yaml:"discord"`
	Relay         RelayConfig         `yaml:"relay"`
	Authorization AuthorizationConfig `yaml:"authorization"`
	Database      DatabaseConfig      `yaml:"database"`
	Reporting     ReportingConfig     `yaml:"reporting"`
	Logging       LoggingConfig       `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MetricsPort     int           `yaml:"metricsPort"`
}

type DiscordConfig struct {
	// PublicKey is the application's hex-encoded Ed25519 verification key.
	PublicKey     string `yaml:"publicKey"`
	BotToken      string `yaml:"botToken"`
	ApplicationID string `yaml:"applicationId"`
	// GuildID scopes command registration to one guild when set.
	GuildID            string        `yaml:"guildId"`
	RequestTimeout     time.Duration `yaml:"requestTimeout"`
	MaxConcurrentPosts int           `yaml:"maxConcurrentPosts"`
}

type RelayConfig struct {
	Mode     string   `yaml:"mode"`
	Channels []string `yaml:"channels"`
}

type AuthorizationConfig struct {
	Enforce          bool     `yaml:"enforce"`
	AuthorizedUserID string   `yaml:"authorizedUserId"`
	Commands         []string `yaml:"commands"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path              string `yaml:"path"`
	MaxOpenConns      int    `yaml:"maxOpenConns"`
	PragmaJournalMode string `yaml:"pragmaJournalMode"`
	PragmaBusyTimeout int    `yaml:"pragmaBusyTimeout"`
}

type PostgresConfig struct {
	// URL takes precedence over the individual fields when set.
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslMode"`
	MaxConns        int32         `yaml:"maxConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

type ReportingConfig struct {
	Slack SlackReportingConfig `yaml:"slack"`
}

type SlackReportingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"botToken"`
	Channel  string `yaml:"channel"`
	APIURL   string `yaml:"apiURL"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Parse reads a YAML config file over the defaults without validating it.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Load reads a YAML config file and validates it for serving.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MetricsPort:     9090,
		},
		Discord: DiscordConfig{
			RequestTimeout: 10 * time.Second,
		},
		Relay: RelayConfig{
			Mode: ModeSubscriptions,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			SQLite: SQLiteConfig{
				Path:              "/data/timesrelay.db",
				MaxOpenConns:      1,
				PragmaJournalMode: "wal",
				PragmaBusyTimeout: 5000,
			},
			Postgres: PostgresConfig{
				Port:     5432,
				SSLMode:  "disable",
				MaxConns: 10,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// expandEnvVars replaces ${VAR} patterns with environment variable values.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "${" + key + "}"
	})
}
