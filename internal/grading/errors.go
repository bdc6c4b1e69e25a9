package grading

import "fmt"

// ScaleError represents an invalid categorical scale configuration
type ScaleError struct {
	Message string
}

func (e *ScaleError) Error() string {
	return fmt.Sprintf("scale error: %s", e.Message)
}

// FormulaError represents an invalid weighted formula configuration
type FormulaError struct {
	OutputKey string
	Message   string
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("formula %q: %s", e.OutputKey, e.Message)
}
