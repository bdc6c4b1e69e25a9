package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/boletim/internal/filler"
	"github.com/jonathan/boletim/internal/observability"
	"github.com/jonathan/boletim/internal/templates"
	"github.com/jonathan/boletim/internal/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Check a template against the catalog",
	Long: `Lists the <<placeholder>> tokens of a report kind's template and the catalog
placeholders the template lacks. Use --file to check a candidate template before
installing it. Exits with an error when placeholders are missing.`,
	RunE: runInspect,
}

var (
	inspectKind string
	inspectFile string
)

func init() {
	inspectCmd.Flags().StringVarP(&inspectKind, "kind", "k", "", "Report kind (required)")
	inspectCmd.Flags().StringVarP(&inspectFile, "file", "f", "", "Template .docx to check instead of the installed one")

	if err := inspectCmd.MarkFlagRequired("kind"); err != nil {
		panic(fmt.Sprintf("failed to mark kind flag as required: %v", err))
	}

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
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
	kind := types.ReportKind(inspectKind)

	spec, ok := registry.Spec(kind)
	if !ok {
		return fmt.Errorf("unknown report kind: %s", kind)
	}

	var tmpl *templates.Template
	if inspectFile != "" {
		tmpl, err = registry.OpenFile(kind, inspectFile)
	} else {
		tmpl, _, err = registry.Resolve(kind)
	}
	if err != nil {
		return err
	}
	doc := tmpl.Doc

	expected := make([]string, len(spec.Placeholders))
	for i, p := range spec.Placeholders {
		expected[i] = p.Key
	}

	found := filler.Placeholders(doc)
	missing := filler.Missing(doc, expected, registry.Spellings())
	observability.NewPrinter(os.Stdout).PrintTemplateCheck(kind, found, missing)

	if len(missing) > 0 {
		return fmt.Errorf("template for %s is missing %d placeholders", kind, len(missing))
	}
	return nil
}
