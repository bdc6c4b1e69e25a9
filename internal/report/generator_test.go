package report

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/jonathan/boletim/internal/document"
	"github.com/jonathan/boletim/internal/document/documenttest"
	"github.com/jonathan/boletim/internal/templates"
	"github.com/jonathan/boletim/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource map[string]*types.ReportContext

func (f fakeSource) GetStudentReportContext(_ context.Context, id string) (*types.ReportContext, error) {
	rc, ok := f[id]
	if !ok {
		return nil, errors.New("student not found")
	}
	return rc, nil
}

func adultsTemplate(t *testing.T) []byte {
	return documenttest.Docx(t,
		documenttest.Paragraph("Aluno: ", "<<nome_aluno>>"),
		documenttest.Paragraph("Professor: <<professor>> Turma: <<turma>>"),
		documenttest.Table(
			documenttest.Paragraph("<<produção", "_oral>>"),
			documenttest.Paragraph("<<producao_escrita>>"),
			documenttest.Paragraph("<<avaliacoes>>"),
		),
		documenttest.Paragraph("Conceito final: <<nota_", "final>> (<<nota_final_descricao>>)"),
	)
}

func newGenerator(t *testing.T, files fstest.MapFS) *Generator {
	t.Helper()
	c, err := templates.DefaultCatalog()
	require.NoError(t, err)
	reg, err := templates.NewRegistry(c, files, nil)
	require.NoError(t, err)
	return NewGenerator(reg, nil)
}

func adultContext() *types.ReportContext {
	return &types.ReportContext{
		StudentID:   "42",
		StudentName: "Ana Souza",
		TeacherName: "Carlos Lima",
		ClassName:   "Teens 2 - TT18",
		Kind:        "adolescentes_adultos",
		Competencies: []types.CompetencyGrade{
			{CompetencyName: "Produção Oral", RawValue: "90", ValueKind: types.ValueNumeric},
			{CompetencyName: "Produção Escrita (40%)", RawValue: "80", ValueKind: types.ValueNumeric},
			{CompetencyName: "Avaliações de Progresso", RawValue: "70", ValueKind: types.ValueNumeric},
		},
	}
}

func TestGenerate_FullReport(t *testing.T) {
	gen := newGenerator(t, fstest.MapFS{"adolescentes_adultos.docx": {Data: adultsTemplate(t)}})

	rep, err := gen.Generate(context.Background(), adultContext())
	require.NoError(t, err)

	assert.Equal(t, "42", rep.StudentID)
	assert.Equal(t, types.ReportKind("adolescentes_adultos"), rep.Kind)

	assert.Equal(t, types.MatchExact, rep.Values["producao_oral"].Match)
	assert.Equal(t, types.MatchExact, rep.Values["producao_escrita"].Match)
	assert.Equal(t, types.MatchAlias, rep.Values["avaliacoes"].Match)
	assert.Equal(t, types.MatchField, rep.Values["nome_aluno"].Match)
	assert.Equal(t, "B", rep.Values["nota_final"].Value)

	data, err := rep.Bytes()
	require.NoError(t, err)
	doc, err := document.Open(data)
	require.NoError(t, err)
	assert.Equal(t,
		"Aluno: Ana Souza\n"+
			"Professor: Carlos Lima Turma: Teens 2 - TT18\n"+
			"Conceito final: B (B - Atinge satisfatoriamente (89-75%))\n"+
			"90\n80\n70",
		doc.Text())
}

func TestGenerate_MissingDataIsNotAnError(t *testing.T) {
	gen := newGenerator(t, fstest.MapFS{"adolescentes_adultos.docx": {Data: adultsTemplate(t)}})

	rc := adultContext()
	rc.TeacherName = ""
	rc.Competencies = rc.Competencies[:2]

	rep, err := gen.Generate(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, types.NotAvailable, rep.Values["avaliacoes"].Value)
	assert.Equal(t, types.NotAvailable, rep.Values["professor"].Value)
	// (90 + 80) / 2 = 85 after renormalizing the .4/.4 weights.
	assert.Equal(t, "B", rep.Values["nota_final"].Value)

	for _, p := range []string{"nome_aluno", "professor", "turma", "producao_oral", "producao_escrita", "avaliacoes", "nota_final"} {
		assert.Contains(t, rep.Values, p)
	}
}

func TestGenerate_NoGradesAtAll(t *testing.T) {
	gen := newGenerator(t, fstest.MapFS{"adolescentes_adultos.docx": {Data: adultsTemplate(t)}})

	rc := adultContext()
	rc.Competencies = nil

	rep, err := gen.Generate(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, types.NotAvailable, rep.Values["nota_final"].Value)
	assert.Contains(t, rep.Document.Text(), "Conceito final: N/A (N/A)")
}

func TestGenerate_Errors(t *testing.T) {
	gen := newGenerator(t, fstest.MapFS{
		"adolescentes_adultos.docx": {Data: adultsTemplate(t)},
		"junior.docx":               {Data: []byte("garbage")},
	})

	tests := []struct {
		name   string
		mutate func(rc *types.ReportContext)
		is     error
	}{
		{
			name:   "unregistered kind",
			mutate: func(rc *types.ReportContext) { rc.Kind = "intermediario" },
			is:     templates.ErrTemplateNotFound,
		},
		{
			name:   "template file missing",
			mutate: func(rc *types.ReportContext) { rc.Kind = "lion_stars" },
			is:     templates.ErrTemplateNotFound,
		},
		{
			name:   "malformed template",
			mutate: func(rc *types.ReportContext) { rc.Kind = "junior" },
			is:     ErrDocumentFill,
		},
		{
			name:   "invalid context",
			mutate: func(rc *types.ReportContext) { rc.StudentName = "" },
			is:     ErrContextUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := adultContext()
			tt.mutate(rc)
			_, err := gen.Generate(context.Background(), rc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.is), "got %v", err)
		})
	}
}

func TestGenerate_CanceledContext(t *testing.T) {
	gen := newGenerator(t, fstest.MapFS{"adolescentes_adultos.docx": {Data: adultsTemplate(t)}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Generate(ctx, adultContext())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateStudent(t *testing.T) {
	gen := newGenerator(t, fstest.MapFS{"adolescentes_adultos.docx": {Data: adultsTemplate(t)}})
	src := fakeSource{"42": adultContext()}

	rep, err := gen.GenerateStudent(context.Background(), src, "42")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", rep.StudentName)

	_, err = gen.GenerateStudent(context.Background(), src, "7")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContextUnavailable)
	var ctxErr *ContextError
	require.ErrorAs(t, err, &ctxErr)
	assert.Equal(t, "7", ctxErr.StudentID)
}

func TestGenerate_TemplateSharedAcrossReports(t *testing.T) {
	gen := newGenerator(t, fstest.MapFS{"adolescentes_adultos.docx": {Data: adultsTemplate(t)}})

	first, err := gen.Generate(context.Background(), adultContext())
	require.NoError(t, err)

	other := adultContext()
	other.StudentID = "43"
	other.StudentName = "Bruno Reis"
	second, err := gen.Generate(context.Background(), other)
	require.NoError(t, err)

	assert.Contains(t, first.Document.Text(), "Ana Souza")
	assert.Contains(t, second.Document.Text(), "Bruno Reis")

	tmpl, _, err := gen.Registry().Resolve("adolescentes_adultos")
	require.NoError(t, err)
	assert.Contains(t, tmpl.Doc.Text(), "<<nome_aluno>>")
}
