package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables read by FromEnv.
const (
	EnvDatabaseURL  = "DATABASE_URL"
	EnvTemplatesDir = "BOLETIM_TEMPLATES_DIR"
	EnvCatalog      = "BOLETIM_CATALOG"
	EnvLogLevel     = "BOLETIM_LOG_LEVEL"
	EnvLogFormat    = "BOLETIM_LOG_FORMAT"
	EnvConcurrency  = "BOLETIM_CONCURRENCY"
)

// Defaults used when neither flags, config file nor environment set a value.
const (
	DefaultTemplatesDir = "templates"
	DefaultOutputDir    = "."
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
)

// FromEnv builds a Config from environment variables (after .env loading).
// Unset variables leave their field empty.
func FromEnv() (Config, error) {
	cfg := Config{
		DatabaseURL:  os.Getenv(EnvDatabaseURL),
		TemplatesDir: os.Getenv(EnvTemplatesDir),
		Catalog:      os.Getenv(EnvCatalog),
		LogLevel:     os.Getenv(EnvLogLevel),
		LogFormat:    os.Getenv(EnvLogFormat),
	}

	if s := os.Getenv(EnvConcurrency); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %v", EnvConcurrency, err)
		}
		if n < 0 {
			return Config{}, fmt.Errorf("%s must be non-negative, got: %d", EnvConcurrency, n)
		}
		cfg.Concurrency = n
	}

	return cfg, nil
}

// Defaults returns the built-in defaults.
func Defaults() Config {
	return Config{
		TemplatesDir: DefaultTemplatesDir,
		OutputDir:    DefaultOutputDir,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
	}
}
