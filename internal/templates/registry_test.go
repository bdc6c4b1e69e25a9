package templates

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/jonathan/boletim/internal/document"
	"github.com/jonathan/boletim/internal/document/documenttest"
	"github.com/jonathan/boletim/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func templateFS(t *testing.T, files ...string) fstest.MapFS {
	t.Helper()
	fsys := fstest.MapFS{}
	for _, name := range files {
		fsys[name] = &fstest.MapFile{Data: documenttest.Docx(t, documenttest.Paragraph("<<nome_aluno>>"))}
	}
	return fsys
}

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Len(t, c.Kinds, 4)
	for _, kind := range []types.ReportKind{"adolescentes_adultos", "material_antigo", "lion_stars", "junior"} {
		spec, ok := c.Kinds[kind]
		require.True(t, ok, "kind %s", kind)
		assert.Equal(t, string(kind)+".docx", spec.File)
		assert.NotEmpty(t, spec.Placeholders)
	}

	adults := c.Kinds["adolescentes_adultos"]
	require.Len(t, adults.Formulas, 1)
	assert.Equal(t, "nota_final", adults.Formulas[0].OutputKey)
	assert.Equal(t, types.ValueCategorical, adults.Formulas[0].Output)
	assert.Equal(t, 0.4, adults.Formulas[0].Terms[0].Weight)

	scale := c.ScaleOrDefault()
	assert.Equal(t, "B", scale.Letter(85))
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{
			name: "schema violation",
			json: `{"kinds": {"x": {"file": "x.txt", "placeholders": [{"key": "a"}]}}}`,
			want: "does not match schema",
		},
		{
			name: "duplicate placeholder",
			json: `{"kinds": {"x": {"file": "x.docx", "placeholders": [{"key": "a"}, {"key": "a"}]}}}`,
			want: "twice",
		},
		{
			name: "derived without formula",
			json: `{"kinds": {"x": {"file": "x.docx", "placeholders": [{"key": "a"}, {"key": "b", "derived": true}]}}}`,
			want: "has no formula",
		},
		{
			name: "formula over unknown key",
			json: `{"kinds": {"x": {"file": "x.docx", "placeholders": [{"key": "a"}, {"key": "b", "derived": true}],
				"formulas": [{"output_key": "b", "output": "numeric", "terms": [{"input_key": "ghost", "weight": 1}]}]}}}`,
			want: "ghost",
		},
		{
			name: "scale with gap at zero",
			json: `{"scale": {"bands": [{"letter": "A", "min": 50, "midpoint": 75}]},
				"kinds": {"x": {"file": "x.docx", "placeholders": [{"key": "a"}]}}}`,
			want: "invalid scale",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.json))
			require.Error(t, err)
			var catErr *CatalogError
			require.ErrorAs(t, err, &catErr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"kinds": {"x": {"file": "x.docx", "placeholders": [{"key": "a"}]}}}`), 0644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Contains(t, c.Kinds, types.ReportKind("x"))

	_, err = LoadCatalog(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestRegistry_Resolve(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	reg, err := NewRegistry(c, templateFS(t, "junior.docx"), nil)
	require.NoError(t, err)

	tmpl, placeholders, err := reg.Resolve("junior")
	require.NoError(t, err)
	assert.Equal(t, types.ReportKind("junior"), tmpl.Kind)
	assert.Equal(t, "<<nome_aluno>>", tmpl.Doc.Text())
	assert.Equal(t, c.Kinds["junior"].Placeholders, placeholders)

	again, _, err := reg.Resolve("junior")
	require.NoError(t, err)
	assert.Same(t, tmpl, again, "parsed templates are cached")

	reg.ClearCache()
	reloaded, _, err := reg.Resolve("junior")
	require.NoError(t, err)
	assert.NotSame(t, tmpl, reloaded)
}

func TestRegistry_ResolveNotFound(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	reg, err := NewRegistry(c, templateFS(t, "junior.docx"), nil)
	require.NoError(t, err)

	tests := []struct {
		name         string
		kind         types.ReportKind
		unregistered bool
	}{
		{name: "unregistered kind", kind: "intermediario", unregistered: true},
		{name: "registered kind without file", kind: "lion_stars", unregistered: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := reg.Resolve(tt.kind)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTemplateNotFound))

			var notFound *TemplateNotFoundError
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, tt.kind, notFound.Kind)
			assert.Equal(t, tt.unregistered, notFound.Unregistered)
		})
	}
}

func TestRegistry_MalformedTemplate(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	fsys := fstest.MapFS{"junior.docx": &fstest.MapFile{Data: []byte("not a docx")}}
	reg, err := NewRegistry(c, fsys, nil)
	require.NoError(t, err)

	_, _, err = reg.Resolve("junior")
	require.Error(t, err)
	assert.True(t, errors.Is(err, document.ErrMalformed))
	assert.False(t, errors.Is(err, ErrTemplateNotFound))
}

func TestRegistry_OpenFile(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	reg, err := NewRegistry(c, fstest.MapFS{}, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	candidate := filepath.Join(dir, "candidate.docx")
	require.NoError(t, os.WriteFile(candidate, documenttest.Docx(t, documenttest.Paragraph("<<nome_aluno>>")), 0644))
	broken := filepath.Join(dir, "broken.docx")
	require.NoError(t, os.WriteFile(broken, []byte("not a docx"), 0644))

	tmpl, err := reg.OpenFile("junior", candidate)
	require.NoError(t, err)
	assert.Equal(t, types.ReportKind("junior"), tmpl.Kind)
	assert.Equal(t, "<<nome_aluno>>", tmpl.Doc.Text())

	tests := []struct {
		name         string
		kind         types.ReportKind
		path         string
		notFound     bool
		unregistered bool
	}{
		{name: "unregistered kind", kind: "adultos_vip", path: candidate, notFound: true, unregistered: true},
		{name: "missing file", kind: "junior", path: filepath.Join(dir, "nope.docx"), notFound: true},
		{name: "malformed file", kind: "junior", path: broken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.OpenFile(tt.kind, tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrTemplateNotFound))
			assert.Equal(t, !tt.notFound, errors.Is(err, document.ErrMalformed))

			var notFound *TemplateNotFoundError
			if errors.As(err, &notFound) {
				assert.Equal(t, tt.unregistered, notFound.Unregistered)
			}
		})
	}
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	reg, err := NewRegistry(c, templateFS(t, "junior.docx"), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Template, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tmpl, _, err := reg.Resolve("junior")
			if err == nil {
				results[i] = tmpl
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Same(t, results[0], r)
	}
}

func TestRegistry_Configuration(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	reg, err := NewRegistry(c, fstest.MapFS{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []types.ReportKind{"adolescentes_adultos", "junior", "lion_stars", "material_antigo"}, reg.Kinds())

	spec, ok := reg.Spec("material_antigo")
	require.True(t, ok)
	assert.Equal(t, "material_antigo.docx", spec.File)
	assert.Len(t, reg.Formulas("material_antigo"), 2)
	assert.Nil(t, reg.Formulas("unknown"))

	assert.Contains(t, reg.Aliases().Of("compreensao_escrita"), "compreensao_de_leitura", "aliases are symmetric")
	assert.Contains(t, reg.Spellings()["producao_oral"], "produção_oral")
	assert.Equal(t, "A", reg.Scale().Letter(90))
}

func TestNewRegistry_Errors(t *testing.T) {
	_, err := NewRegistry(nil, fstest.MapFS{}, nil)
	assert.Error(t, err)

	c, err := DefaultCatalog()
	require.NoError(t, err)
	_, err = NewRegistry(c, nil, nil)
	assert.Error(t, err)
}
