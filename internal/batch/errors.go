package batch

import (
	"errors"
	"fmt"
)

// ErrArchivePackaging is matched by every ArchivePackagingError.
var ErrArchivePackaging = errors.New("archive packaging failure")

// ArchivePackagingError represents a batch whose archive could not be built.
// Per-student results are still returned alongside it.
type ArchivePackagingError struct {
	BatchID string
	Message string
	Cause   error
}

func (e *ArchivePackagingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("archive error: batch %s: %s: %v", e.BatchID, e.Message, e.Cause)
	}
	return fmt.Sprintf("archive error: batch %s: %s", e.BatchID, e.Message)
}

func (e *ArchivePackagingError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrArchivePackaging) match.
func (e *ArchivePackagingError) Is(target error) bool {
	return target == ErrArchivePackaging
}
