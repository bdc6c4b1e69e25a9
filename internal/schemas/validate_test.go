package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSchemas_ValidJSON(t *testing.T) {
	for _, name := range []string{Catalog, Snapshot} {
		t.Run(name, func(t *testing.T) {
			content, err := Schema(name)
			require.NoError(t, err)

			var v interface{}
			assert.NoError(t, json.Unmarshal([]byte(content), &v))
		})
	}
}

func TestSchema_Unknown(t *testing.T) {
	_, err := Schema("nonexistent.schema.json")
	require.Error(t, err)

	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "nonexistent.schema.json", loadErr.Path)
}

func TestValidate_Catalog(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantError bool
	}{
		{
			name: "minimal valid catalog",
			json: `{"kinds": {"junior": {"file": "junior.docx", "placeholders": [{"key": "nome_aluno", "field": "student_name"}]}}}`,
		},
		{
			name:      "no kinds",
			json:      `{"kinds": {}}`,
			wantError: true,
		},
		{
			name:      "template is not a docx",
			json:      `{"kinds": {"junior": {"file": "junior.pdf", "placeholders": [{"key": "a"}]}}}`,
			wantError: true,
		},
		{
			name:      "placeholder key not normalized",
			json:      `{"kinds": {"junior": {"file": "junior.docx", "placeholders": [{"key": "Produção Oral"}]}}}`,
			wantError: true,
		},
		{
			name: "unknown output kind",
			json: `{"kinds": {"junior": {"file": "junior.docx", "placeholders": [{"key": "a"}],
				"formulas": [{"output_key": "b", "output": "letter", "terms": [{"input_key": "a", "weight": 1}]}]}}}`,
			wantError: true,
		},
		{
			name:      "unknown top-level field",
			json:      `{"kinds": {"junior": {"file": "junior.docx", "placeholders": [{"key": "a"}]}}, "extra": true}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Catalog, []byte(tt.json))
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			validationErr, ok := err.(*ValidationError)
			require.True(t, ok, "error should be ValidationError, got %T: %v", err, err)
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidateFile_Snapshot(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"students": [{"student_id": "1", "student_name": "Ana", "kind": "junior",
		"competencies": [{"competency_name": "Comunicação Oral", "raw_value": "A", "value_kind": "ABC"}]}]}`), 0644))
	assert.NoError(t, ValidateFile(Snapshot, valid))

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"students": [{"student_id": "1", "kind": "junior"}]}`), 0644))
	err := ValidateFile(Snapshot, invalid)
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok)

	err = ValidateFile(Snapshot, filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidate_MalformedJSON(t *testing.T) {
	err := Validate(Catalog, []byte("{ invalid json }"))
	require.Error(t, err)
	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok, "document parse failures surface as SchemaLoadError")
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"}
		}
	}`

	assert.NoError(t, ValidateJSONString(schemaContent, `{"name": "test"}`))

	err := ValidateJSONString(schemaContent, `{"age": 30}`)
	require.Error(t, err)
	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "kinds", Message: "is required"},
			{Field: "scale.bands", Message: "must be an array"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "1. kinds")
	assert.Contains(t, errorMsg, "2. scale.bands")
}
