// Package filler substitutes <<placeholder>> tokens inside a parsed document.
package filler

import (
	"sort"
	"strings"

	"github.com/jonathan/boletim/internal/document"
)

const (
	openDelim  = "<<"
	closeDelim = ">>"
)

// Fill returns a copy of tmpl with every known <<token>> replaced.
//
// subs maps placeholder keys to values. spellings lists, per key, other
// token spellings that appear in templates (typically accented variants such
// as "produção_oral"); they resolve to the same value. Unknown tokens are left
// as they are. tmpl itself is never modified.
func Fill(tmpl *document.Document, subs map[string]string, spellings map[string][]string) (*document.Document, error) {
	if tmpl == nil {
		return nil, &FillError{Message: "template is nil"}
	}

	lookup := buildLookup(subs, spellings)
	doc := tmpl.Clone()

	for _, p := range doc.AllParagraphs() {
		if len(p.Fragments) == 0 {
			continue
		}
		text := p.Text()
		if !strings.Contains(text, openDelim) {
			continue
		}
		filled, changed := substitute(text, lookup)
		if changed {
			p.SetText(filled)
		}
	}

	return doc, nil
}

// Placeholders returns the distinct token names found in doc, in first-seen order.
func Placeholders(doc *document.Document) []string {
	var names []string
	seen := make(map[string]bool)
	for _, p := range doc.AllParagraphs() {
		text := p.Text()
		for {
			start := strings.Index(text, openDelim)
			if start < 0 {
				break
			}
			rest := text[start+len(openDelim):]
			end := strings.Index(rest, closeDelim)
			if end < 0 {
				break
			}
			name := rest[:end]
			if inner := strings.LastIndex(name, openDelim); inner >= 0 {
				name = name[inner+len(openDelim):]
			}
			name = strings.TrimSpace(name)
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			text = rest[end+len(closeDelim):]
		}
	}
	return names
}

// Missing returns the keys of expected that have no token (under any
// spelling) in doc. The result is sorted.
func Missing(doc *document.Document, expected []string, spellings map[string][]string) []string {
	found := make(map[string]bool)
	for _, name := range Placeholders(doc) {
		found[name] = true
	}

	var missing []string
	for _, key := range expected {
		if found[key] {
			continue
		}
		hit := false
		for _, s := range spellings[key] {
			if found[s] {
				hit = true
				break
			}
		}
		if !hit {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

func buildLookup(subs map[string]string, spellings map[string][]string) map[string]string {
	lookup := make(map[string]string, len(subs))
	for key, value := range subs {
		for _, s := range spellings[key] {
			lookup[s] = value
		}
	}
	// Canonical keys win over a spelling that happens to collide with another key.
	for key, value := range subs {
		lookup[key] = value
	}
	return lookup
}

// substitute scans text once from left to right. Inserted values are copied
// to the output and never scanned again, so a value containing "<<x>>" stays literal.
func substitute(text string, lookup map[string]string) (string, bool) {
	var b strings.Builder
	b.Grow(len(text))
	changed := false

	for {
		start := strings.Index(text, openDelim)
		if start < 0 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:start])
		rest := text[start+len(openDelim):]

		end := strings.Index(rest, closeDelim)
		if end < 0 {
			b.WriteString(text[start:])
			break
		}

		name := rest[:end]
		// "<<a <<b>>" : the token is the innermost one.
		if inner := strings.LastIndex(name, openDelim); inner >= 0 {
			b.WriteString(openDelim)
			b.WriteString(name[:inner])
			text = text[start+len(openDelim)+inner:]
			continue
		}

		value, ok := lookup[strings.TrimSpace(name)]
		if !ok {
			b.WriteString(openDelim)
			b.WriteString(name)
			b.WriteString(closeDelim)
		} else {
			b.WriteString(value)
			changed = true
		}
		text = rest[end+len(closeDelim):]
	}

	return b.String(), changed
}
