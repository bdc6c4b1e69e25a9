package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/boletim/internal/batch"
	"github.com/jonathan/boletim/internal/observability"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one student's report card",
	Long:  "Loads a student's report context, resolves every placeholder of the class type's template and writes the filled .docx.",
	RunE:  runGenerate,
}

var (
	generateStudent string
	generateOut     string
	generateOutDir  string
)

func init() {
	generateCmd.Flags().StringVarP(&generateStudent, "student", "s", "", "Student ID (required)")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Output .docx path (defaults to report_<name>.docx in --out-dir)")
	generateCmd.Flags().StringVar(&generateOutDir, "out-dir", "", "Output directory")

	if err := generateCmd.MarkFlagRequired("student"); err != nil {
		panic(fmt.Sprintf("failed to mark student flag as required: %v", err))
	}

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("out-dir") {
		cfg.OutputDir = generateOutDir
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	gen, err := newGenerator(cfg, logger)
	if err != nil {
		return err
	}

	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	rep, err := gen.GenerateStudent(ctx, src, generateStudent)
	if err != nil {
		return fmt.Errorf("failed to generate report for student %s: %w", generateStudent, err)
	}

	data, err := rep.Bytes()
	if err != nil {
		return err
	}

	dir, name := cfg.OutputDir, batch.ReportName(rep.StudentName)
	if generateOut != "" {
		dir, name = filepath.Dir(generateOut), filepath.Base(generateOut)
	}
	path, err := writeOutput(dir, name, data)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		spec, _ := gen.Registry().Spec(rep.Kind)
		observability.NewPrinter(os.Stdout).PrintResolution(rep, spec.Placeholders)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Successfully generated report: %s\n", path)
	return nil
}
