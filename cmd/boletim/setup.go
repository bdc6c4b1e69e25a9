package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/boletim/internal/config"
	"github.com/jonathan/boletim/internal/observability"
	"github.com/jonathan/boletim/internal/report"
	"github.com/jonathan/boletim/internal/store"
	"github.com/jonathan/boletim/internal/templates"
)

// loadConfig resolves the effective configuration. Precedence, highest first:
// flags, config file, environment, built-in defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if rootConfigPath != "" {
		loaded, err := config.LoadConfig(rootConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("db-url") {
		cfg.DatabaseURL = rootDatabaseURL
		cfg.Snapshot = ""
	}
	if flags.Changed("snapshot") {
		cfg.Snapshot = rootSnapshot
		if !flags.Changed("db-url") {
			cfg.DatabaseURL = ""
		}
	}
	if flags.Changed("templates") {
		cfg.TemplatesDir = rootTemplatesDir
	}
	if flags.Changed("catalog") {
		cfg.Catalog = rootCatalog
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = rootLogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = rootLogFormat
	}
	if flags.Changed("verbose") {
		cfg.Verbose = rootVerbose
	}

	env, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	cfg = cfg.MergeWithDefaults(env)
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level := cfg.LogLevel
	if cfg.Verbose && level == config.DefaultLogLevel {
		level = "info"
	}
	logger, err := observability.NewLogger(level, cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

func loadCatalog(cfg config.Config) (*templates.Catalog, error) {
	if cfg.Catalog != "" {
		return templates.LoadCatalog(cfg.Catalog)
	}
	return templates.DefaultCatalog()
}

func newGenerator(cfg config.Config, logger *slog.Logger) (*report.Generator, error) {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	registry, err := templates.NewDirRegistry(catalog, cfg.TemplatesDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create template registry: %w", err)
	}
	return report.NewGenerator(registry, logger), nil
}

// openSource connects to the grade book, or loads a snapshot when one is configured.
func openSource(ctx context.Context, cfg config.Config) (store.Source, error) {
	switch {
	case cfg.Snapshot != "":
		snap, err := store.LoadSnapshot(cfg.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
		return snap, nil
	case cfg.DatabaseURL != "":
		db, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("DATABASE_URL environment variable, --db-url or --snapshot is required")
	}
}

func writeOutput(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
