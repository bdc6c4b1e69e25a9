// Package naming canonicalizes competency names into placeholder keys.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize turns a free-text competency name into a placeholder key:
// diacritics stripped, lowercased, parenthesized annotations dropped,
// whitespace runs collapsed to "_", and anything else that is not
// [a-z0-9_] removed.
//
//	Normalize("Comunicação Oral")        == "comunicacao_oral"
//	Normalize("Produção Escrita (40%)")  == "producao_escrita"
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := stripDiacritics(raw)
	s = strings.ToLower(s)
	s = dropParenthesized(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r) || r == '_':
			pendingSep = true
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Filename returns a filesystem-safe stem for a student name.
func Filename(raw string) string {
	if n := Normalize(raw); n != "" {
		return n
	}
	return "student"
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// dropParenthesized removes "(...)" groups, including unbalanced trailing ones.
func dropParenthesized(s string) string {
	if !strings.ContainsRune(s, '(') {
		return s
	}
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
