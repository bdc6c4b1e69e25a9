package templates

import (
	"errors"
	"fmt"

	"github.com/jonathan/boletim/internal/types"
)

// ErrTemplateNotFound is matched by every TemplateNotFoundError.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateNotFoundError is returned when a kind has no usable template.
// Unregistered is true when the kind is not in the catalog at all, false when
// the catalog names a file that cannot be found.
type TemplateNotFoundError struct {
	Kind         types.ReportKind
	File         string
	Unregistered bool
	Cause        error
}

func (e *TemplateNotFoundError) Error() string {
	if e.Unregistered {
		return fmt.Sprintf("template not found: kind %q is not registered", e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("template not found: kind %q file %s: %v", e.Kind, e.File, e.Cause)
	}
	return fmt.Sprintf("template not found: kind %q file %s", e.Kind, e.File)
}

func (e *TemplateNotFoundError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrTemplateNotFound) match.
func (e *TemplateNotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// CatalogError represents an invalid template catalog
type CatalogError struct {
	Message string
	Cause   error
}

func (e *CatalogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("catalog error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("catalog error: %s", e.Message)
}

func (e *CatalogError) Unwrap() error {
	return e.Cause
}
