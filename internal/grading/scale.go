// Package grading computes derived report grades from resolved competency values.
package grading

import (
	"fmt"
	"strings"
)

// Band is one letter of a categorical scale. A numeric score s belongs to the
// first band (in descending order) with s >= Min.
type Band struct {
	Letter      string  `json:"letter"`
	Min         float64 `json:"min"`
	Midpoint    float64 `json:"midpoint"`
	Description string  `json:"description,omitempty"`
}

// Scale is an ordered (descending) set of letter bands covering [0, 100].
type Scale struct {
	Bands []Band `json:"bands"`
}

// DefaultScale is the A-B-C-D concept scale used by the grade book:
// A 90-100, B 75-89, C 60-74, D 0-59.
func DefaultScale() Scale {
	return Scale{Bands: []Band{
		{Letter: "A", Min: 90, Midpoint: 95, Description: "Atinge plenamente (100-90%)"},
		{Letter: "B", Min: 75, Midpoint: 82, Description: "Atinge satisfatoriamente (89-75%)"},
		{Letter: "C", Min: 60, Midpoint: 67, Description: "Atinge parcialmente (74-60%)"},
		{Letter: "D", Min: 0, Midpoint: 30, Description: "Ainda não atingiu (59% ou menos)"},
	}}
}

// Validate checks that the bands partition [0, 100] in descending order.
func (s Scale) Validate() error {
	if len(s.Bands) == 0 {
		return &ScaleError{Message: "scale has no bands"}
	}

	seen := make(map[string]bool, len(s.Bands))
	upper := 100.0
	for i, b := range s.Bands {
		letter := strings.ToUpper(strings.TrimSpace(b.Letter))
		if letter == "" {
			return &ScaleError{Message: fmt.Sprintf("band %d has an empty letter", i)}
		}
		if seen[letter] {
			return &ScaleError{Message: fmt.Sprintf("letter %q appears twice", letter)}
		}
		seen[letter] = true

		if b.Min < 0 || b.Min > 100 {
			return &ScaleError{Message: fmt.Sprintf("band %s minimum %.2f outside [0, 100]", letter, b.Min)}
		}
		if i > 0 && b.Min >= s.Bands[i-1].Min {
			return &ScaleError{Message: fmt.Sprintf("band %s minimum %.2f is not below band %s", letter, b.Min, s.Bands[i-1].Letter)}
		}
		if b.Midpoint < b.Min || b.Midpoint > upper {
			return &ScaleError{Message: fmt.Sprintf("band %s midpoint %.2f outside [%.2f, %.2f]", letter, b.Midpoint, b.Min, upper)}
		}
		upper = b.Min
	}

	if last := s.Bands[len(s.Bands)-1]; last.Min != 0 {
		return &ScaleError{Message: fmt.Sprintf("lowest band %s must start at 0, starts at %.2f", last.Letter, last.Min)}
	}
	return nil
}

// Midpoint returns the representative score of a letter (case-insensitive).
func (s Scale) Midpoint(letter string) (float64, bool) {
	b, ok := s.band(letter)
	if !ok {
		return 0, false
	}
	return b.Midpoint, true
}

// Letter maps a numeric score to its band letter. Scores are clamped to [0, 100].
func (s Scale) Letter(score float64) string {
	if len(s.Bands) == 0 {
		return ""
	}
	for _, b := range s.Bands {
		if score >= b.Min {
			return b.Letter
		}
	}
	return s.Bands[len(s.Bands)-1].Letter
}

// Describe returns "<letter> - <description>" for a known letter, or the input unchanged.
func (s Scale) Describe(letter string) string {
	b, ok := s.band(letter)
	if !ok || b.Description == "" {
		return letter
	}
	return fmt.Sprintf("%s - %s", b.Letter, b.Description)
}

func (s Scale) band(letter string) (Band, bool) {
	l := strings.ToUpper(strings.TrimSpace(letter))
	if l == "" {
		return Band{}, false
	}
	for _, b := range s.Bands {
		if strings.EqualFold(b.Letter, l) {
			return b, true
		}
	}
	return Band{}, false
}
