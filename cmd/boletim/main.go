// Package main provides the boletim CLI, which generates student report cards
// from .docx templates.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "boletim",
	Short: "Student report card generator",
	Long: `boletim fills per-class-type .docx report card templates with a student's
competency grades, computes derived grades and packages batches into zip archives.

Configuration can be loaded from a JSON file using --config. Environment variables
(DATABASE_URL, BOLETIM_*) and command-line flags override config file values.`,
	SilenceUsage: true,
}

var (
	rootConfigPath   string
	rootDatabaseURL  string
	rootSnapshot     string
	rootTemplatesDir string
	rootCatalog      string
	rootLogLevel     string
	rootLogFormat    string
	rootVerbose      bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	flags.StringVar(&rootDatabaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	flags.StringVar(&rootSnapshot, "snapshot", "", "JSON snapshot of report contexts (mutually exclusive with --db-url)")
	flags.StringVarP(&rootTemplatesDir, "templates", "t", "", "Directory holding the .docx templates")
	flags.StringVar(&rootCatalog, "catalog", "", "Template catalog JSON (defaults to the built-in catalog)")
	flags.StringVar(&rootLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&rootLogFormat, "log-format", "", "Log format: text, json")
	flags.BoolVarP(&rootVerbose, "verbose", "v", false, "Print detailed resolution output")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
