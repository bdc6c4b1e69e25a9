package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("student not found")

// NotFoundError is returned when a student has no record in the source.
type NotFoundError struct {
	StudentID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("student %q not found", e.StudentID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// SnapshotError represents a snapshot file that cannot be loaded
type SnapshotError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SnapshotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("snapshot error: %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("snapshot error: %s: %s", e.Path, e.Message)
}

func (e *SnapshotError) Unwrap() error {
	return e.Cause
}
