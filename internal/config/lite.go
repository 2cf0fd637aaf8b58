// Package config provides configuration management for the triage servers.
// This file contains the lightweight configuration for the standalone MCP binary.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/onco-triage-server/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external databases and uses sensible defaults.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for the feedback database and exports

	// Intake policy
	RequirePatientID bool
	RequireDate      bool

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".onco-triage")

	return &LiteConfig{
		DataDir:   dataDir,
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv(EnvPrefix + "_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv(EnvPrefix + "_REQUIRE_PATIENT_ID"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RequirePatientID = b
		}
	}
	if v := os.Getenv(EnvPrefix + "_REQUIRE_DATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RequireDate = b
		}
	}

	// Logging
	if v := os.Getenv(EnvPrefix + "_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvPrefix + "_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// FeedbackDBPath returns the path to the feedback SQLite database.
func (c *LiteConfig) FeedbackDBPath() string {
	return filepath.Join(c.DataDir, "feedback.db")
}

// ExportDir returns the directory for exported reports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}

// Logging returns the logger settings. Output is always stderr because stdout
// carries the MCP stream.
func (c *LiteConfig) Logging() domain.LoggingConfig {
	return domain.LoggingConfig{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: "stderr",
	}
}

// Triage returns the intake policy.
func (c *LiteConfig) Triage() domain.TriageConfig {
	return domain.TriageConfig{
		RequirePatientID: c.RequirePatientID,
		RequireDate:      c.RequireDate,
	}
}
