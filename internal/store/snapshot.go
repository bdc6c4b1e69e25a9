package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jonathan/boletim/internal/schemas"
	"github.com/jonathan/boletim/internal/types"
)

// Snapshot serves report contexts held in memory, typically loaded from a
// JSON export of the grade book.
type Snapshot struct {
	contexts map[string]types.ReportContext
	order    []string
}

type snapshotFile struct {
	Students []types.ReportContext `json:"students"`
}

// NewSnapshot creates a Snapshot. A later context with the same student ID
// replaces an earlier one but keeps its position.
func NewSnapshot(contexts []types.ReportContext) *Snapshot {
	s := &Snapshot{contexts: make(map[string]types.ReportContext, len(contexts))}
	for _, rc := range contexts {
		if _, exists := s.contexts[rc.StudentID]; !exists {
			s.order = append(s.order, rc.StudentID)
		}
		s.contexts[rc.StudentID] = rc
	}
	return s
}

// LoadSnapshot reads a snapshot file, validating it against the snapshot schema.
func LoadSnapshot(path string) (*Snapshot, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &SnapshotError{Path: path, Message: "cannot resolve path", Cause: err}
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, &SnapshotError{Path: absPath, Message: "cannot read file", Cause: err}
	}
	if err := schemas.Validate(schemas.Snapshot, data); err != nil {
		return nil, &SnapshotError{Path: absPath, Message: "does not match schema", Cause: err}
	}

	var f snapshotFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &SnapshotError{Path: absPath, Message: "failed to parse JSON", Cause: err}
	}
	return NewSnapshot(f.Students), nil
}

// GetStudentReportContext returns a copy of the stored context.
func (s *Snapshot) GetStudentReportContext(ctx context.Context, studentID string) (*types.ReportContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, ok := s.contexts[studentID]
	if !ok {
		return nil, &NotFoundError{StudentID: studentID}
	}
	rc.Competencies = append([]types.CompetencyGrade(nil), rc.Competencies...)
	return &rc, nil
}

// ListStudents returns the students matching filter in file order.
func (s *Snapshot) ListStudents(_ context.Context, filter ListFilter) ([]types.Student, error) {
	var students []types.Student
	for _, id := range s.order {
		rc := s.contexts[id]
		if filter.ClassName != "" && rc.ClassName != filter.ClassName {
			continue
		}
		if filter.Kind != "" && rc.Kind != filter.Kind {
			continue
		}
		students = append(students, types.Student{ID: rc.StudentID, Name: rc.StudentName})
	}
	return students, nil
}

// Close is a no-op.
func (s *Snapshot) Close() {}
