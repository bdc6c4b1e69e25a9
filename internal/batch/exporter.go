// Package batch generates reports for many students, tolerating per-student
// failures, and packages the successes into a zip archive.
package batch

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/boletim/internal/report"
	"github.com/jonathan/boletim/internal/templates"
	"github.com/jonathan/boletim/internal/types"
)

// ProgressEvent is emitted once per finished student.
type ProgressEvent struct {
	BatchID string
	Index   int // input position
	Total   int
	Result  types.BatchResult
}

// ProgressCallback is called when a student finishes. It may be called from
// several goroutines at once.
type ProgressCallback func(event ProgressEvent)

// Options configures an Exporter.
type Options struct {
	// Concurrency is the number of students generated in parallel.
	// Zero means runtime.NumCPU().
	Concurrency int
	// AlwaysArchive returns a zip even when exactly one report succeeded.
	AlwaysArchive bool
	OnProgress    ProgressCallback
}

// FailedStudent identifies a student whose report was not produced.
type FailedStudent struct {
	StudentID   string              `json:"student_id"`
	StudentName string              `json:"student_name,omitempty"`
	Reason      types.FailureReason `json:"reason"`
}

// Summary aggregates the outcome of a batch.
type Summary struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Failures  []FailedStudent `json:"failures,omitempty"`
}

// Output is the result of a batch. Results follow input order. Exactly one
// of Archive and Single is set when at least one report succeeded (and the
// archive could be built).
type Output struct {
	BatchID string              `json:"batch_id"`
	Results []types.BatchResult `json:"results"`
	Summary Summary             `json:"summary"`
	Archive []byte              `json:"-"`
	Single  []byte              `json:"-"`
	// SingleName is the file name of Single.
	SingleName string `json:"single_name,omitempty"`
}

// Exporter runs batches.
type Exporter struct {
	generator *report.Generator
	source    report.ContextSource
	opts      Options
	logger    *slog.Logger
}

// NewExporter creates an Exporter. A nil logger falls back to slog.Default().
func NewExporter(generator *report.Generator, source report.ContextSource, opts Options, logger *slog.Logger) *Exporter {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{generator: generator, source: source, opts: opts, logger: logger}
}

// GenerateBatch generates one report per student.
//
// Per-student failures are recorded in the results and never stop the batch.
// When ctx is done no further students are started; students already running
// finish on a context detached from ctx's cancellation, and the rest are
// reported as canceled. In that case the partial
// output is returned together with ctx.Err(). If the archive cannot be built,
// the output carries the results but no archive, and the error is an
// *ArchivePackagingError.
func (e *Exporter) GenerateBatch(ctx context.Context, students []types.Student) (*Output, error) {
	out := &Output{
		BatchID: uuid.NewString(),
		Results: make([]types.BatchResult, len(students)),
	}
	docs := make([][]byte, len(students))
	scheduled := make([]bool, len(students))

	e.logger.Info("batch started", "batch_id", out.BatchID, "students", len(students), "concurrency", e.opts.Concurrency)

	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)

	for i, s := range students {
		if ctx.Err() != nil {
			break
		}
		scheduled[i] = true
		g.Go(func() error {
			out.Results[i], docs[i] = e.generateOne(ctx, s)
			if e.opts.OnProgress != nil {
				e.opts.OnProgress(ProgressEvent{BatchID: out.BatchID, Index: i, Total: len(students), Result: out.Results[i]})
			}
			return nil
		})
	}
	_ = g.Wait() // workers record failures in their result and never return an error

	for i, s := range students {
		if !scheduled[i] {
			out.Results[i] = types.BatchResult{
				StudentID:   s.ID,
				StudentName: s.Name,
				Reason:      types.ReasonCanceled,
				Error:       context.Cause(ctx).Error(),
			}
		}
	}

	entries := e.name(out, docs)
	out.Summary = summarize(out.Results)

	e.logger.Info("batch finished",
		"batch_id", out.BatchID,
		"succeeded", out.Summary.Succeeded,
		"failed", out.Summary.Failed,
	)

	if err := e.pack(out, entries); err != nil {
		return out, err
	}
	return out, ctx.Err()
}

func (e *Exporter) generateOne(ctx context.Context, s types.Student) (types.BatchResult, []byte) {
	result := types.BatchResult{StudentID: s.ID, StudentName: s.Name}

	// A student is started once its worker runs; from there it finishes even
	// if the batch is canceled.
	if err := ctx.Err(); err != nil {
		result.Reason = types.ReasonCanceled
		result.Error = err.Error()
		return result, nil
	}
	ctx = context.WithoutCancel(ctx)

	rep, err := e.generator.GenerateStudent(ctx, e.source, s.ID)
	var data []byte
	if err == nil {
		data, err = rep.Bytes()
	}
	if err != nil {
		result.Reason = reasonFor(err)
		result.Error = err.Error()
		e.logger.Warn("report generation failed", "student_id", s.ID, "reason", result.Reason, "error", err)
		return result, nil
	}

	if result.StudentName == "" {
		result.StudentName = rep.StudentName
	}
	result.Success = true
	return result, data
}

// name assigns archive file names to successful results, in input order.
func (e *Exporter) name(out *Output, docs [][]byte) []entry {
	var (
		indexes []int
		stems   []string
	)
	for i, r := range out.Results {
		if !r.Success {
			continue
		}
		stem := r.StudentName
		if stem == "" {
			stem = r.StudentID
		}
		indexes = append(indexes, i)
		stems = append(stems, stem)
	}

	names := entryNames(stems)
	entries := make([]entry, len(indexes))
	for j, i := range indexes {
		out.Results[i].Filename = names[j]
		entries[j] = entry{name: names[j], data: docs[i]}
	}
	return entries
}

func (e *Exporter) pack(out *Output, entries []entry) error {
	switch {
	case len(entries) == 0:
		return nil
	case len(entries) == 1 && !e.opts.AlwaysArchive:
		out.Single = entries[0].data
		out.SingleName = entries[0].name
		return nil
	}

	archive, err := packArchive(entries, time.Now())
	if err != nil {
		e.logger.Error("archive packaging failed", "batch_id", out.BatchID, "error", err)
		return &ArchivePackagingError{BatchID: out.BatchID, Message: "failed to build archive", Cause: err}
	}
	out.Archive = archive
	return nil
}

func summarize(results []types.BatchResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
			continue
		}
		s.Failed++
		s.Failures = append(s.Failures, FailedStudent{StudentID: r.StudentID, StudentName: r.StudentName, Reason: r.Reason})
	}
	return s
}

func reasonFor(err error) types.FailureReason {
	switch {
	case errors.Is(err, templates.ErrTemplateNotFound):
		return types.ReasonTemplateNotFound
	case errors.Is(err, report.ErrContextUnavailable):
		return types.ReasonContextUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.ReasonCanceled
	default:
		return types.ReasonDocumentFill
	}
}
