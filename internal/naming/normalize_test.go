package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"accents and case", "Comunicação Oral", "comunicacao_oral"},
		{"already normalized", "comunicacao_oral", "comunicacao_oral"},
		{"percentage suffix", "Produção Escrita (40%)", "producao_escrita"},
		{"parenthesis in the middle", "Avaliações (peso 2) de Progresso", "avaliacoes_de_progresso"},
		{"unbalanced parenthesis", "Checkpoints (final", "checkpoints"},
		{"whitespace runs", "  Writing   Bit\t01 ", "writing_bit_01"},
		{"punctuation dropped", "Interesse pela Aprendizagem!", "interesse_pela_aprendizagem"},
		{"cedilla and tilde", "Colaboração", "colaboracao"},
		{"empty", "", ""},
		{"only symbols", "(%) -- !!", ""},
		{"mixed underscores and spaces", "compreensao _ de_leitura", "compreensao_de_leitura"},
		{"ligature kept as letters", "ﬁle", "file"},
		{"fullwidth and superscript", "Ｏral ²", "oral_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Comunicação Oral",
		"Produção Escrita (40%)",
		"  __Writing  Bit 02__ ",
		"Compreensão de Leitura",
		"ÀÉÎÕÜ ç",
		"a_(b)_c",
		"",
		"日本語 Oral",
		"ﬁle Ｏral²",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalize should be idempotent for %q", in)
	}
}

func TestNormalize_AccentAndCaseInsensitive(t *testing.T) {
	assert.Equal(t, Normalize("Comunicação Oral"), Normalize("comunicacao_oral"))
	assert.Equal(t, "comunicacao_oral", Normalize("COMUNICAÇÃO ORAL"))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "joao_da_silva", Filename("João da Silva"))
	assert.Equal(t, "student", Filename("***"))
}
