// Package config provides centralized configuration for the bbmemo CLI.
// It loads configuration from environment variables, validates required
// fields, and provides sensible defaults.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tonyski/bbmemo/internal/keys"
)

const (
	defaultDatabaseFile = "bbmemo.db"
	defaultRetention    = 30 * 24 * time.Hour
)

// Config holds all application configuration.
type Config struct {
	// Database and encryption
	DatabasePath string // Path to the SQLite database file
	DatabaseKey  string // Optional SQLCipher key, 64 hex characters (32 bytes)
	Passphrase   string // Optional passphrase; a key is derived when no raw key is set

	// Recycle bin
	RecycleBinRetention time.Duration // How long soft-deleted notes are kept

	// Logging
	LogLevel string // debug, info, warn, error
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Load builds configuration from environment variables. Non-empty values
// passed by the caller (typically from CLI flags) take precedence.
func Load(databasePath, logLevel string) (*Config, error) {
	cfg := &Config{}

	cfg.DatabasePath = getEnvOrDefault("BBMEMO_DB_PATH", defaultDatabasePath())
	if databasePath != "" {
		cfg.DatabasePath = databasePath
	}
	cfg.DatabaseKey = strings.TrimSpace(os.Getenv("BBMEMO_DB_KEY"))
	cfg.Passphrase = os.Getenv("BBMEMO_PASSPHRASE")
	cfg.RecycleBinRetention = parseDurationOrDefault("BBMEMO_RECYCLE_RETENTION", defaultRetention)
	cfg.LogLevel = getEnvOrDefault("BBMEMO_LOG_LEVEL", "info")
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.DatabasePath == "" {
		errs = append(errs, "database path is required (set BBMEMO_DB_PATH or --db)")
	}

	if c.DatabaseKey != "" {
		if len(c.DatabaseKey) != 64 {
			errs = append(errs, "BBMEMO_DB_KEY must be 64 hex characters (generate with: openssl rand -hex 32)")
		} else if _, err := hex.DecodeString(c.DatabaseKey); err != nil {
			errs = append(errs, "BBMEMO_DB_KEY must be valid hex")
		}
	}

	if c.RecycleBinRetention <= 0 {
		errs = append(errs, "BBMEMO_RECYCLE_RETENTION must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "log level must be one of: debug, info, warn, error")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// KeyBytes returns the SQLCipher key: the raw hex key when one is set, a
// key derived from the passphrase otherwise, nil when encryption is off.
// A raw key takes precedence over a passphrase.
func (c *Config) KeyBytes() []byte {
	if c.DatabaseKey != "" {
		key, err := hex.DecodeString(c.DatabaseKey)
		if err != nil {
			return nil
		}
		return key
	}
	if c.Passphrase != "" {
		return keys.FromPassphrase(c.Passphrase)
	}
	return nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDatabaseFile
	}
	return filepath.Join(home, ".bbmemo", defaultDatabaseFile)
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
