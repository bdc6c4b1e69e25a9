package document

import (
	"errors"
	"fmt"
)

// ErrMalformed is matched by every MalformedError.
var ErrMalformed = errors.New("malformed document")

// MalformedError represents a template package that cannot be read as a document
type MalformedError struct {
	Message string
	Cause   error
}

func (e *MalformedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed document: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed document: %s", e.Message)
}

func (e *MalformedError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrMalformed) match.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}
