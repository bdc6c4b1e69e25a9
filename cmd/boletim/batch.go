package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/boletim/internal/batch"
	"github.com/jonathan/boletim/internal/observability"
	"github.com/jonathan/boletim/internal/store"
	"github.com/jonathan/boletim/internal/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch [student-id...]",
	Short: "Generate report cards for many students",
	Long: `Generates one report per student and packages them into a zip archive.
A student whose report fails is recorded in the summary without stopping the batch.
When exactly one report succeeds the .docx is written directly (unless --always-archive).

Select students by ID, or with --all optionally filtered by --class and --kind.`,
	RunE: runBatch,
}

var (
	batchAll           bool
	batchClass         string
	batchKind          string
	batchOutDir        string
	batchConcurrency   int
	batchAlwaysArchive bool
	batchSummaryPath   string
)

func init() {
	batchCmd.Flags().BoolVar(&batchAll, "all", false, "Generate for every student of the data source")
	batchCmd.Flags().StringVar(&batchClass, "class", "", "With --all, only students of this class")
	batchCmd.Flags().StringVar(&batchKind, "kind", "", "With --all, only students of this report kind")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "Output directory")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "j", 0, "Students generated in parallel (0 = CPU count)")
	batchCmd.Flags().BoolVar(&batchAlwaysArchive, "always-archive", false, "Write a zip even when a single report succeeded")
	batchCmd.Flags().StringVar(&batchSummaryPath, "summary", "", "Path to write the batch results as JSON (optional)")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchAll == (len(args) > 0) {
		return fmt.Errorf("provide student IDs or --all, but not both")
	}
	if !batchAll && (batchClass != "" || batchKind != "") {
		return fmt.Errorf("--class and --kind require --all")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("out-dir") {
		cfg.OutputDir = batchOutDir
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = batchConcurrency
	}
	if cmd.Flags().Changed("always-archive") {
		cfg.AlwaysArchive = batchAlwaysArchive
	}
	if err := cfg.Validate(); err != nil {
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

	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	students, err := selectStudents(ctx, src, args)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		return fmt.Errorf("no students selected")
	}

	opts := batch.Options{
		Concurrency:   cfg.Concurrency,
		AlwaysArchive: cfg.AlwaysArchive,
	}
	if cfg.Verbose {
		opts.OnProgress = func(ev batch.ProgressEvent) {
			status := "ok"
			if !ev.Result.Success {
				status = string(ev.Result.Reason)
			}
			_, _ = fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s\n", ev.Index+1, ev.Total, ev.Result.StudentID, status)
		}
	}

	out, runErr := batch.NewExporter(gen, src, opts, logger).GenerateBatch(ctx, students)
	if out == nil {
		return runErr
	}

	var written string
	switch {
	case out.Archive != nil:
		written, err = writeOutput(cfg.OutputDir, batch.ArchiveName(out.BatchID), out.Archive)
	case out.Single != nil:
		written, err = writeOutput(cfg.OutputDir, out.SingleName, out.Single)
	}
	if err != nil {
		return err
	}

	if batchSummaryPath != "" {
		if err := writeSummary(batchSummaryPath, out); err != nil {
			return err
		}
	}

	if cfg.Verbose {
		observability.NewPrinter(os.Stdout).PrintBatchSummary(out)
	}

	var archiveErr *batch.ArchivePackagingError
	switch {
	case errors.As(runErr, &archiveErr):
		return runErr
	case runErr != nil:
		return fmt.Errorf("batch interrupted after %d of %d reports: %w", out.Summary.Succeeded, out.Summary.Total, runErr)
	case out.Summary.Succeeded == 0:
		return fmt.Errorf("no reports generated: %d students failed", out.Summary.Failed)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Generated %d of %d reports: %s\n", out.Summary.Succeeded, out.Summary.Total, written)
	return nil
}

// selectStudents resolves explicit IDs to students (names come from the
// report contexts later) or lists the data source.
func selectStudents(ctx context.Context, src store.Source, ids []string) ([]types.Student, error) {
	if len(ids) > 0 {
		students := make([]types.Student, len(ids))
		for i, id := range ids {
			students[i] = types.Student{ID: id}
		}
		return students, nil
	}

	students, err := src.ListStudents(ctx, store.ListFilter{ClassName: batchClass, Kind: types.ReportKind(batchKind)})
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func writeSummary(path string, out *batch.Output) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}
