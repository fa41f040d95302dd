// Package config loads runtime settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// MinSecretLength is the shortest JWT_SECRET accepted.
const MinSecretLength = 16

// Config holds everything the server needs at startup.
type Config struct {
	Port           int           `env:"PORT"            envDefault:"8080"`
	DBPath         string        `env:"DB_PATH"         envDefault:"data/blog.db"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	JWTSecret      string        `env:"JWT_SECRET,required"`
	TokenTTL       time.Duration `env:"TOKEN_TTL"       envDefault:"1h"`
	BcryptCost     int           `env:"BCRYPT_COST"     envDefault:"12"`
	LogLevel       string        `env:"LOG_LEVEL"       envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT"      envDefault:"text"`
	TracingEnabled bool          `env:"TRACING_ENABLED" envDefault:"false"`
	ServiceName    string        `env:"SERVICE_NAME"    envDefault:"blog-backend"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	if len(c.JWTSecret) < MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinSecretLength)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT %q must be text or json", c.LogFormat)
	}
	return nil
}

// UsesPostgres reports whether DatabaseURL selects the PostgreSQL store.
func (c Config) UsesPostgres() bool {
	return Database{DBPath: c.DBPath, DatabaseURL: c.DatabaseURL}.UsesPostgres()
}

// Database is the subset of settings cmd/migrate needs. It does not require
// JWT_SECRET.
type Database struct {
	DBPath      string `env:"DB_PATH"      envDefault:"data/blog.db"`
	DatabaseURL string `env:"DATABASE_URL"`
}

// LoadDatabase parses only the store selection from the environment.
func LoadDatabase() (Database, error) {
	var db Database
	if err := env.Parse(&db); err != nil {
		return Database{}, fmt.Errorf("parse env: %w", err)
	}
	return db, nil
}

// UsesPostgres reports whether DatabaseURL selects the PostgreSQL store.
func (d Database) UsesPostgres() bool {
	return strings.HasPrefix(d.DatabaseURL, "postgres://") ||
		strings.HasPrefix(d.DatabaseURL, "postgresql://")
}

// NewLogger builds the process logger described by cfg, writing to w.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
