package filler

import "fmt"

// FillError represents a failure to produce a filled document
type FillError struct {
	Message string
	Cause   error
}

func (e *FillError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fill error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("fill error: %s", e.Message)
}

func (e *FillError) Unwrap() error {
	return e.Cause
}
