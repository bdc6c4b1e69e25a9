package report

import (
	"errors"
	"fmt"
)

var (
	// ErrContextUnavailable is matched by every ContextError.
	ErrContextUnavailable = errors.New("report context unavailable")
	// ErrDocumentFill is matched by every DocumentFillError.
	ErrDocumentFill = errors.New("document fill failure")
)

// ContextError represents a student whose report context could not be obtained or is invalid
type ContextError struct {
	StudentID string
	Message   string
	Cause     error
}

func (e *ContextError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("context error: student %s: %s: %v", e.StudentID, e.Message, e.Cause)
	}
	return fmt.Sprintf("context error: student %s: %s", e.StudentID, e.Message)
}

func (e *ContextError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrContextUnavailable) match.
func (e *ContextError) Is(target error) bool {
	return target == ErrContextUnavailable
}

// DocumentFillError represents a template that could not be read, filled or serialized
type DocumentFillError struct {
	StudentID string
	Message   string
	Cause     error
}

func (e *DocumentFillError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("document fill error: student %s: %s: %v", e.StudentID, e.Message, e.Cause)
	}
	return fmt.Sprintf("document fill error: student %s: %s", e.StudentID, e.Message)
}

func (e *DocumentFillError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrDocumentFill) match.
func (e *DocumentFillError) Is(target error) bool {
	return target == ErrDocumentFill
}
