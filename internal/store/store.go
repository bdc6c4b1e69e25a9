// Package store provides read-only access to student report contexts, either
// from the grade book's PostgreSQL database or from a JSON snapshot.
package store

import (
	"context"

	"github.com/jonathan/boletim/internal/types"
)

// ListFilter narrows ListStudents. Empty fields match everything.
type ListFilter struct {
	ClassName string
	Kind      types.ReportKind
}

// Source is a report context source that can also enumerate students.
type Source interface {
	GetStudentReportContext(ctx context.Context, studentID string) (*types.ReportContext, error)
	ListStudents(ctx context.Context, filter ListFilter) ([]types.Student, error)
	Close()
}
