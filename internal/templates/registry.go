package templates

import (
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/jonathan/boletim/internal/document"
	"github.com/jonathan/boletim/internal/grading"
	"github.com/jonathan/boletim/internal/matching"
	"github.com/jonathan/boletim/internal/types"
)

// Template is a parsed template document. Doc is shared by every report of
// the kind and must not be modified; fill a Clone instead.
type Template struct {
	Kind types.ReportKind
	File string
	Doc  *document.Document
}

// Registry maps report kinds to templates. Parsed templates are cached for
// the lifetime of the registry. Safe for concurrent use.
type Registry struct {
	catalog *Catalog
	files   fs.FS
	aliases matching.AliasTable
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[types.ReportKind]*Template
}

// NewRegistry creates a Registry over a catalog and the filesystem holding its
// template files. A nil logger falls back to slog.Default().
func NewRegistry(catalog *Catalog, files fs.FS, logger *slog.Logger) (*Registry, error) {
	if catalog == nil {
		return nil, &CatalogError{Message: "catalog is nil"}
	}
	if files == nil {
		return nil, &CatalogError{Message: "template filesystem is nil"}
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		catalog: catalog,
		files:   files,
		aliases: matching.NewAliasTable(catalog.Aliases),
		logger:  logger,
		cache:   make(map[types.ReportKind]*Template),
	}, nil
}

// NewDirRegistry is NewRegistry over a directory on disk.
func NewDirRegistry(catalog *Catalog, dir string, logger *slog.Logger) (*Registry, error) {
	return NewRegistry(catalog, os.DirFS(dir), logger)
}

// Resolve returns the parsed template of a kind and its ordered placeholders.
func (r *Registry) Resolve(kind types.ReportKind) (*Template, []types.PlaceholderSpec, error) {
	spec, ok := r.catalog.Kinds[kind]
	if !ok {
		return nil, nil, &TemplateNotFoundError{Kind: kind, Unregistered: true}
	}

	tmpl, err := r.load(kind, spec)
	if err != nil {
		return nil, nil, err
	}
	return tmpl, spec.Placeholders, nil
}

func (r *Registry) load(kind types.ReportKind, spec KindSpec) (*Template, error) {
	r.mu.RLock()
	if tmpl, exists := r.cache[kind]; exists {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	data, err := fs.ReadFile(r.files, spec.File)
	if err != nil {
		return nil, &TemplateNotFoundError{Kind: kind, File: spec.File, Cause: err}
	}

	doc, err := document.Open(data)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another goroutine may have parsed it meanwhile; keep the first.
	if tmpl, exists := r.cache[kind]; exists {
		return tmpl, nil
	}
	tmpl := &Template{Kind: kind, File: spec.File, Doc: doc}
	r.cache[kind] = tmpl
	r.logger.Debug("template loaded", "kind", kind, "file", spec.File, "paragraphs", len(doc.AllParagraphs()))
	return tmpl, nil
}

// OpenFile parses a candidate template for a kind from a path outside the
// registry's filesystem. The result is not cached.
func (r *Registry) OpenFile(kind types.ReportKind, path string) (*Template, error) {
	if _, ok := r.catalog.Kinds[kind]; !ok {
		return nil, &TemplateNotFoundError{Kind: kind, Unregistered: true}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TemplateNotFoundError{Kind: kind, File: path, Cause: err}
	}

	doc, err := document.Open(data)
	if err != nil {
		return nil, err
	}
	return &Template{Kind: kind, File: path, Doc: doc}, nil
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []types.ReportKind {
	return r.catalog.kindNames()
}

// Spec returns the configuration of a kind.
func (r *Registry) Spec(kind types.ReportKind) (KindSpec, bool) {
	spec, ok := r.catalog.Kinds[kind]
	return spec, ok
}

// Formulas returns the formulas of a kind (nil for unknown kinds).
func (r *Registry) Formulas(kind types.ReportKind) []types.WeightedFormula {
	return r.catalog.Kinds[kind].Formulas
}

// Aliases returns the symmetric alias table.
func (r *Registry) Aliases() matching.AliasTable {
	return r.aliases
}

// Spellings returns the accented token spellings per placeholder key.
func (r *Registry) Spellings() map[string][]string {
	return r.catalog.Spellings
}

// Scale returns the catalog's categorical scale.
func (r *Registry) Scale() grading.Scale {
	return r.catalog.ScaleOrDefault()
}

// ClearCache drops parsed templates so they are read again on next use.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[types.ReportKind]*Template)
	r.mu.Unlock()
}
