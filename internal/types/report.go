// Package types provides type definitions for structured data used throughout the report generation engine.
package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NotAvailable is the value written into a placeholder that could not be resolved.
const NotAvailable = "N/A"

// ValueKind tells how a competency's raw value is graded.
type ValueKind string

const (
	// ValueNumeric is a 0-100 numeric grade.
	ValueNumeric ValueKind = "numeric"
	// ValueCategorical is a letter grade (A, B, C, D).
	ValueCategorical ValueKind = "categorical"
)

// ParseValueKind accepts the engine's names as well as the legacy NUM/ABC codes
// used by the grade book.
func ParseValueKind(s string) (ValueKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NUMERIC", "NUM":
		return ValueNumeric, nil
	case "CATEGORICAL", "ABC":
		return ValueCategorical, nil
	default:
		return "", fmt.Errorf("unknown value kind %q", s)
	}
}

// UnmarshalText lets ValueKind be decoded from either spelling.
func (k *ValueKind) UnmarshalText(text []byte) error {
	parsed, err := ParseValueKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ReportKind identifies a template family (one per class type).
type ReportKind string

// CompetencyGrade is one graded competency for a student, as produced by the data layer.
type CompetencyGrade struct {
	CompetencyName string    `json:"competency_name" validate:"required"`
	RawValue       string    `json:"raw_value"`
	ValueKind      ValueKind `json:"value_kind" validate:"required,oneof=numeric categorical"`
}

// PlaceholderSpec describes one slot in a report template.
// Derived placeholders are computed by a WeightedFormula; Field placeholders
// are filled from the report context (student_name, teacher_name, class_name).
type PlaceholderSpec struct {
	Key     string `json:"key"`
	Derived bool   `json:"derived,omitempty"`
	Field   string `json:"field,omitempty"`
}

// FromCompetency reports whether the placeholder is resolved against graded competencies.
func (p PlaceholderSpec) FromCompetency() bool {
	return !p.Derived && p.Field == ""
}

// PartialPolicy controls how a formula blends when some terms are missing.
type PartialPolicy string

const (
	// PartialRenormalize rescales the weights of the present terms to sum to 1.
	PartialRenormalize PartialPolicy = "renormalize"
	// PartialEqual falls back to the unweighted mean of the present terms
	// whenever at least one term is missing.
	PartialEqual PartialPolicy = "equal"
)

// FormulaTerm is one weighted input of a WeightedFormula.
type FormulaTerm struct {
	InputKey string  `json:"input_key"`
	Weight   float64 `json:"weight"`
}

// WeightedFormula computes a derived placeholder from other resolved placeholders.
type WeightedFormula struct {
	OutputKey string        `json:"output_key"`
	Output    ValueKind     `json:"output"`
	Partial   PartialPolicy `json:"partial,omitempty"`
	Terms     []FormulaTerm `json:"terms"`
}

// MatchKind records how a placeholder got its value.
type MatchKind string

const (
	MatchExact   MatchKind = "exact"
	MatchAlias   MatchKind = "alias"
	MatchPartial MatchKind = "partial"
	MatchDerived MatchKind = "derived"
	MatchField   MatchKind = "field"
	MatchNone    MatchKind = "none"
)

// ResolvedValue is the value chosen for a placeholder.
type ResolvedValue struct {
	Value  string    `json:"value"`
	Kind   ValueKind `json:"kind,omitempty"`
	Source string    `json:"source,omitempty"` // competency name (or formula key) that supplied the value
	Match  MatchKind `json:"match"`
}

// Missing reports whether the value is the N/A sentinel.
func (v ResolvedValue) Missing() bool {
	return v.Value == NotAvailable
}

// Unresolved returns the N/A value used before (or instead of) a match.
func Unresolved() ResolvedValue {
	return ResolvedValue{Value: NotAvailable, Match: MatchNone}
}

// ReportContext is everything the data layer provides for one student's report.
type ReportContext struct {
	StudentID    string            `json:"student_id" validate:"required"`
	StudentName  string            `json:"student_name" validate:"required"`
	TeacherName  string            `json:"teacher_name,omitempty"`
	ClassName    string            `json:"class_name,omitempty"`
	Kind         ReportKind        `json:"kind" validate:"required"`
	Competencies []CompetencyGrade `json:"competencies" validate:"dive"`
}

// Validate validates the ReportContext using the validator.
func (c *ReportContext) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// FieldValue returns the context field named by a Field placeholder.
func (c *ReportContext) FieldValue(field string) (string, bool) {
	switch field {
	case "student_name":
		return c.StudentName, true
	case "teacher_name":
		return c.TeacherName, true
	case "class_name":
		return c.ClassName, true
	case "student_id":
		return c.StudentID, true
	default:
		return "", false
	}
}

// Student identifies one entry of a batch.
type Student struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FailureReason tags why a student's report could not be produced.
type FailureReason string

const (
	ReasonNone               FailureReason = ""
	ReasonTemplateNotFound   FailureReason = "template_not_found"
	ReasonDocumentFill       FailureReason = "document_fill_failure"
	ReasonContextUnavailable FailureReason = "context_unavailable"
	ReasonCanceled           FailureReason = "canceled"
)

// BatchResult is the per-student outcome of a batch run.
type BatchResult struct {
	StudentID   string        `json:"student_id"`
	StudentName string        `json:"student_name,omitempty"`
	Success     bool          `json:"success"`
	Reason      FailureReason `json:"reason,omitempty"`
	Error       string        `json:"error,omitempty"`
	Filename    string        `json:"filename,omitempty"`
}
