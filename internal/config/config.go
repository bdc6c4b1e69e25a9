// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Data sources
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL of the grade book
	Snapshot    string `json:"snapshot,omitempty"`     // Path to a JSON snapshot of report contexts

	// Templates
	TemplatesDir string `json:"templates_dir,omitempty"` // Directory holding the .docx templates
	Catalog      string `json:"catalog,omitempty"`       // Catalog file overriding the built-in one

	// Output
	OutputDir     string `json:"output_dir,omitempty"`     // Where generated files are written
	AlwaysArchive bool   `json:"always_archive,omitempty"` // Zip even a single generated report

	// Behavior
	Concurrency int    `json:"concurrency,omitempty" validate:"gte=0,lte=256"`                       // Parallel students in a batch (0 = CPU count)
	LogLevel    string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"` // slog level
	LogFormat   string `json:"log_format,omitempty" validate:"omitempty,oneof=text json"`            // slog handler
	Verbose     bool   `json:"verbose,omitempty"`                                                    // Print detailed resolution output
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// Validate mutually exclusive fields
	if c.DatabaseURL != "" && c.Snapshot != "" {
		return fmt.Errorf("config error: 'database_url' and 'snapshot' are mutually exclusive")
	}

	// Validate paths exist (if specified)
	if c.TemplatesDir != "" {
		info, err := os.Stat(c.TemplatesDir)
		if os.IsNotExist(err) {
			return fmt.Errorf("config error: templates directory not found: %s", c.TemplatesDir)
		}
		if err == nil && !info.IsDir() {
			return fmt.Errorf("config error: templates_dir is not a directory: %s", c.TemplatesDir)
		}
	}

	if c.Catalog != "" {
		if _, err := os.Stat(c.Catalog); os.IsNotExist(err) {
			return fmt.Errorf("config error: catalog file not found: %s", c.Catalog)
		}
	}

	if c.Snapshot != "" {
		if _, err := os.Stat(c.Snapshot); os.IsNotExist(err) {
			return fmt.Errorf("config error: snapshot file not found: %s", c.Snapshot)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file and environment values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" && result.Snapshot == "" {
		result.DatabaseURL = defaults.DatabaseURL
		result.Snapshot = defaults.Snapshot
	}
	if result.TemplatesDir == "" {
		result.TemplatesDir = defaults.TemplatesDir
	}
	if result.Catalog == "" {
		result.Catalog = defaults.Catalog
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}

	// Int fields: use default if zero
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
