// Package report generates one student's filled report document.
package report

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jonathan/boletim/internal/document"
	"github.com/jonathan/boletim/internal/filler"
	"github.com/jonathan/boletim/internal/grading"
	"github.com/jonathan/boletim/internal/matching"
	"github.com/jonathan/boletim/internal/templates"
	"github.com/jonathan/boletim/internal/types"
)

// ContextSource is the data layer: it returns everything needed for one
// student's report. Implementations must be safe for concurrent use.
type ContextSource interface {
	GetStudentReportContext(ctx context.Context, studentID string) (*types.ReportContext, error)
}

// FilledReport is a generated report. Values holds the value chosen for every
// placeholder (and derived companion) with how it was matched.
type FilledReport struct {
	StudentID   string
	StudentName string
	Kind        types.ReportKind
	Document    *document.Document
	Values      map[string]types.ResolvedValue
}

// Bytes serializes the report into a .docx package.
func (r *FilledReport) Bytes() ([]byte, error) {
	data, err := r.Document.Bytes()
	if err != nil {
		return nil, &DocumentFillError{StudentID: r.StudentID, Message: "failed to serialize document", Cause: err}
	}
	return data, nil
}

// Generator produces filled reports from report contexts.
type Generator struct {
	registry   *templates.Registry
	aggregator *grading.Aggregator
	logger     *slog.Logger
}

// NewGenerator creates a Generator over a template registry.
// A nil logger falls back to slog.Default().
func NewGenerator(registry *templates.Registry, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		registry:   registry,
		aggregator: grading.NewAggregator(registry.Scale(), logger),
		logger:     logger,
	}
}

// Registry returns the template registry the generator reads from.
func (g *Generator) Registry() *templates.Registry {
	return g.registry
}

// GenerateStudent fetches a student's context from src and generates the report.
func (g *Generator) GenerateStudent(ctx context.Context, src ContextSource, studentID string) (*FilledReport, error) {
	rc, err := src.GetStudentReportContext(ctx, studentID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ContextError{StudentID: studentID, Message: "failed to load report context", Cause: err}
	}
	if rc == nil {
		return nil, &ContextError{StudentID: studentID, Message: "no report context"}
	}
	return g.Generate(ctx, rc)
}

// Generate resolves, computes and fills the report for one context.
// Missing grades never fail generation: their placeholders get N/A.
func (g *Generator) Generate(ctx context.Context, rc *types.ReportContext) (*FilledReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, &ContextError{Message: "report context is nil"}
	}
	if err := rc.Validate(); err != nil {
		return nil, &ContextError{StudentID: rc.StudentID, Message: "invalid report context", Cause: err}
	}

	tmpl, placeholders, err := g.registry.Resolve(rc.Kind)
	if err != nil {
		if errors.Is(err, document.ErrMalformed) {
			return nil, &DocumentFillError{StudentID: rc.StudentID, Message: "template cannot be read", Cause: err}
		}
		return nil, err
	}

	values := g.Resolve(rc, placeholders)

	subs := make(map[string]string, len(values))
	for key, v := range values {
		subs[key] = v.Value
	}

	doc, err := filler.Fill(tmpl.Doc, subs, g.registry.Spellings())
	if err != nil {
		return nil, &DocumentFillError{StudentID: rc.StudentID, Message: "failed to fill template", Cause: err}
	}

	g.logger.Debug("report generated",
		"student_id", rc.StudentID,
		"kind", rc.Kind,
		"placeholders", len(placeholders),
		"missing", countMissing(values, placeholders),
	)

	return &FilledReport{
		StudentID:   rc.StudentID,
		StudentName: rc.StudentName,
		Kind:        rc.Kind,
		Document:    doc,
		Values:      values,
	}, nil
}

// Resolve computes the value of every placeholder of a kind for one context:
// competencies first, then context fields, then derived grades.
func (g *Generator) Resolve(rc *types.ReportContext, placeholders []types.PlaceholderSpec) map[string]types.ResolvedValue {
	values := matching.Resolve(placeholders, rc.Competencies, g.registry.Aliases())

	for _, p := range placeholders {
		if p.Field == "" {
			continue
		}
		v, ok := rc.FieldValue(p.Field)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		values[p.Key] = types.ResolvedValue{Value: strings.TrimSpace(v), Source: p.Field, Match: types.MatchField}
	}

	for key, v := range g.aggregator.ComputeDerived(g.registry.Formulas(rc.Kind), values) {
		values[key] = v
	}

	for _, p := range placeholders {
		v := values[p.Key]
		g.logger.Debug("placeholder resolved", "student_id", rc.StudentID, "key", p.Key, "value", v.Value, "match", v.Match, "source", v.Source)
	}
	return values
}

func countMissing(values map[string]types.ResolvedValue, placeholders []types.PlaceholderSpec) int {
	n := 0
	for _, p := range placeholders {
		if values[p.Key].Missing() {
			n++
		}
	}
	return n
}
