package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the report kinds of the catalog",
	Long:  "Lists every registered report kind with its template file, placeholder count and whether the template exists in the templates directory.",
	RunE:  runKinds,
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}

func runKinds(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	gen, err := newGenerator(cfg, logger)
	if err != nil {
		return err
	}
	registry := gen.Registry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tFILE\tPLACEHOLDERS\tFORMULAS\tTEMPLATE")
	for _, kind := range registry.Kinds() {
		spec, _ := registry.Spec(kind)
		status := "ok"
		if _, err := os.Stat(filepath.Join(cfg.TemplatesDir, spec.File)); errors.Is(err, fs.ErrNotExist) {
			status = "missing"
		} else if err != nil {
			status = "unreadable"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", kind, spec.File, len(spec.Placeholders), len(spec.Formulas), status)
	}
	return w.Flush()
}
