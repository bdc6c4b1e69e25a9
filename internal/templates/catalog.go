// Package templates resolves report kinds to their .docx templates, placeholder
// lists and grading formulas. Configuration lives in a JSON catalog; the
// built-in catalog is embedded at compile time.
package templates

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jonathan/boletim/internal/grading"
	"github.com/jonathan/boletim/internal/schemas"
	"github.com/jonathan/boletim/internal/types"
)

//go:embed catalog.json
var defaultCatalog []byte

// KindSpec is the configuration of one report kind.
type KindSpec struct {
	Description  string                  `json:"description,omitempty"`
	File         string                  `json:"file"`
	Placeholders []types.PlaceholderSpec `json:"placeholders"`
	Formulas     []types.WeightedFormula `json:"formulas,omitempty"`
}

// Catalog is the full template configuration.
type Catalog struct {
	Scale     *grading.Scale                `json:"scale,omitempty"`
	Aliases   map[string][]string           `json:"aliases,omitempty"`
	Spellings map[string][]string           `json:"spellings,omitempty"`
	Kinds     map[types.ReportKind]KindSpec `json:"kinds"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file, validating it against the catalog schema.
func LoadCatalog(path string) (*Catalog, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog path: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, &CatalogError{Message: fmt.Sprintf("cannot read %s", absPath), Cause: err}
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog JSON.
func ParseCatalog(data []byte) (*Catalog, error) {
	if err := schemas.Validate(schemas.Catalog, data); err != nil {
		return nil, &CatalogError{Message: "catalog does not match schema", Cause: err}
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &CatalogError{Message: "failed to parse catalog JSON", Cause: err}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ScaleOrDefault returns the configured scale, or the default one.
func (c *Catalog) ScaleOrDefault() grading.Scale {
	if c.Scale == nil {
		return grading.DefaultScale()
	}
	return *c.Scale
}

// Validate checks the rules the schema cannot express: unique placeholder
// keys, every derived placeholder backed by a formula, formulas referring only
// to the kind's own placeholders, and a well-formed scale.
func (c *Catalog) Validate() error {
	if len(c.Kinds) == 0 {
		return &CatalogError{Message: "catalog has no kinds"}
	}
	if err := c.ScaleOrDefault().Validate(); err != nil {
		return &CatalogError{Message: "invalid scale", Cause: err}
	}

	for _, kind := range c.kindNames() {
		spec := c.Kinds[kind]
		if spec.File == "" {
			return &CatalogError{Message: fmt.Sprintf("kind %s has no template file", kind)}
		}

		seen := make(map[string]bool, len(spec.Placeholders))
		for _, p := range spec.Placeholders {
			if seen[p.Key] {
				return &CatalogError{Message: fmt.Sprintf("kind %s declares placeholder %s twice", kind, p.Key)}
			}
			seen[p.Key] = true
			if p.Derived && p.Field != "" {
				return &CatalogError{Message: fmt.Sprintf("kind %s placeholder %s cannot be both derived and a field", kind, p.Key)}
			}
		}

		if err := grading.ValidateFormulas(spec.Formulas, spec.Placeholders); err != nil {
			return &CatalogError{Message: fmt.Sprintf("kind %s", kind), Cause: err}
		}

		outputs := make(map[string]bool, len(spec.Formulas))
		for _, f := range spec.Formulas {
			outputs[f.OutputKey] = true
		}
		for _, p := range spec.Placeholders {
			if p.Derived && !outputs[p.Key] {
				return &CatalogError{Message: fmt.Sprintf("kind %s derived placeholder %s has no formula", kind, p.Key)}
			}
		}
	}
	return nil
}

func (c *Catalog) kindNames() []types.ReportKind {
	kinds := make([]types.ReportKind, 0, len(c.Kinds))
	for k := range c.Kinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
