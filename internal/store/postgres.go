package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/boletim/internal/types"
)

// Postgres reads report contexts from the grade book database. It only
// issues SELECT statements.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

const studentQuery = `
SELECT a.nome_completo,
       CASE WHEN COALESCE(t.identificador_turma, '') = '' THEN t.nome
            ELSE t.nome || ' - ' || t.identificador_turma END,
       COALESCE(NULLIF(TRIM(COALESCE(u.first_name, '') || ' ' || COALESCE(u.last_name, '')), ''), u.username, ''),
       COALESCE(tt.boletim_tipo, '')
FROM core_aluno a
JOIN core_turma t ON t.id = a.turma_id
LEFT JOIN core_tipoturma tt ON tt.id = t.tipo_turma_id
LEFT JOIN core_professor p ON p.id = t.professor_responsavel_id
LEFT JOIN auth_user u ON u.id = p.user_id
WHERE a.id = $1`

const gradesQuery = `
SELECT c.nome, COALESCE(l.nota_valor, ''), c.tipo_nota
FROM core_lancamentodenota l
JOIN core_competencia c ON c.id = l.competencia_id
WHERE l.aluno_id = $1
ORDER BY l.id`

// GetStudentReportContext loads a student, their class and every grade entered for them.
func (p *Postgres) GetStudentReportContext(ctx context.Context, studentID string) (*types.ReportContext, error) {
	id, err := parseStudentID(studentID)
	if err != nil {
		return nil, &NotFoundError{StudentID: studentID}
	}

	rc := &types.ReportContext{StudentID: studentID}
	var kind string
	err = p.pool.QueryRow(ctx, studentQuery, id).Scan(&rc.StudentName, &rc.ClassName, &rc.TeacherName, &kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{StudentID: studentID}
		}
		return nil, fmt.Errorf("failed to get student %s: %w", studentID, err)
	}
	rc.Kind = types.ReportKind(kind)

	rows, err := p.pool.Query(ctx, gradesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list grades of student %s: %w", studentID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, value, code string
		if err := rows.Scan(&name, &value, &code); err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}
		rc.Competencies = append(rc.Competencies, types.CompetencyGrade{
			CompetencyName: name,
			RawValue:       value,
			ValueKind:      valueKind(code),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grades of student %s: %w", studentID, err)
	}

	return rc, nil
}

const listQuery = `
SELECT a.id, a.nome_completo
FROM core_aluno a
JOIN core_turma t ON t.id = a.turma_id
LEFT JOIN core_tipoturma tt ON tt.id = t.tipo_turma_id
WHERE ($1 = '' OR t.nome = $1)
  AND ($2 = '' OR tt.boletim_tipo = $2)
ORDER BY t.nome, a.nome_completo`

// ListStudents returns the students matching filter, ordered by class and name.
func (p *Postgres) ListStudents(ctx context.Context, filter ListFilter) ([]types.Student, error) {
	rows, err := p.pool.Query(ctx, listQuery, filter.ClassName, string(filter.Kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []types.Student
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, types.Student{ID: strconv.FormatInt(id, 10), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}
	return students, nil
}

func parseStudentID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("student id must be positive, got %d", id)
	}
	return id, nil
}

// valueKind maps the grade book's NUM/ABC codes. Unknown codes are numeric,
// the grade book's default.
func valueKind(code string) types.ValueKind {
	kind, err := types.ParseValueKind(code)
	if err != nil {
		return types.ValueNumeric
	}
	return kind
}
