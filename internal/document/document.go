// Package document provides a minimal OOXML (.docx) model exposing paragraphs
// and table cells as ordered text fragments, and writes edits back without
// disturbing any markup it did not change.
package document

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// MainPart is the zip entry holding the document body.
const MainPart = "word/document.xml"

// Fragment is the text of one <w:t> element. Text may be changed freely;
// Bytes() writes the new value back in place.
type Fragment struct {
	Text string

	orig     string
	tagStart int // offset of '<' of the start tag
	tagEnd   int // offset just past the start tag's '>'
	end      int // offset of the end tag (== tagEnd for self-closing elements)
	selfEnd  bool
	preserve bool
}

// Changed reports whether the fragment text differs from the template.
func (f *Fragment) Changed() bool {
	return f.Text != f.orig
}

// Paragraph is an ordered run of text fragments (<w:p>).
type Paragraph struct {
	Fragments []*Fragment
}

// Text concatenates the paragraph's fragments.
func (p *Paragraph) Text() string {
	if len(p.Fragments) == 1 {
		return p.Fragments[0].Text
	}
	var b strings.Builder
	for _, f := range p.Fragments {
		b.WriteString(f.Text)
	}
	return b.String()
}

// SetText writes text into the first fragment and clears the others.
// The number of fragments is unchanged. Paragraphs without fragments are left alone.
func (p *Paragraph) SetText(text string) {
	if len(p.Fragments) == 0 {
		return
	}
	p.Fragments[0].Text = text
	for _, f := range p.Fragments[1:] {
		f.Text = ""
	}
}

// Cell is a table cell (<w:tc>) and the paragraphs directly inside it.
type Cell struct {
	Paragraphs []*Paragraph
}

type entry struct {
	header zip.FileHeader
	data   []byte
}

// Document is a parsed .docx package. The raw zip entries are shared between
// clones and never modified; only fragment text is per-instance state.
type Document struct {
	entries    []*entry
	paragraphs []*Paragraph // paragraphs outside table cells
	cells      []*Cell
	fragments  map[string][]*Fragment // by part, in document order
}

// Open parses a .docx package held in memory.
func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &MalformedError{Message: "not a zip package", Cause: err}
	}

	doc := &Document{fragments: make(map[string][]*Fragment)}
	hasMain := false

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, &MalformedError{Message: fmt.Sprintf("cannot open entry %s", f.Name), Cause: err}
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, &MalformedError{Message: fmt.Sprintf("cannot read entry %s", f.Name), Cause: err}
		}

		doc.entries = append(doc.entries, &entry{header: f.FileHeader, data: content})

		if !isTextPart(f.Name) {
			continue
		}
		if f.Name == MainPart {
			hasMain = true
		}
		if err := doc.scanPart(f.Name, content); err != nil {
			return nil, err
		}
	}

	if !hasMain {
		return nil, &MalformedError{Message: "package has no " + MainPart}
	}
	return doc, nil
}

// Paragraphs returns the paragraphs that are not inside a table cell, in
// package order.
func (d *Document) Paragraphs() []*Paragraph {
	return d.paragraphs
}

// Cells returns every table cell in document order.
func (d *Document) Cells() []*Cell {
	return d.cells
}

// AllParagraphs returns body paragraphs followed by the paragraphs of every cell.
func (d *Document) AllParagraphs() []*Paragraph {
	out := make([]*Paragraph, 0, len(d.paragraphs))
	out = append(out, d.paragraphs...)
	for _, c := range d.cells {
		out = append(out, c.Paragraphs...)
	}
	return out
}

// Text returns the document's visible text, one paragraph per line.
func (d *Document) Text() string {
	paragraphs := d.AllParagraphs()
	lines := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		lines[i] = p.Text()
	}
	return strings.Join(lines, "\n")
}

// Clone returns a copy whose fragments can be edited independently.
func (d *Document) Clone() *Document {
	mapped := make(map[*Fragment]*Fragment)
	clone := &Document{
		entries:   d.entries,
		fragments: make(map[string][]*Fragment, len(d.fragments)),
	}

	for part, frags := range d.fragments {
		copies := make([]*Fragment, len(frags))
		for i, f := range frags {
			c := *f
			copies[i] = &c
			mapped[f] = &c
		}
		clone.fragments[part] = copies
	}

	cloneParagraph := func(p *Paragraph) *Paragraph {
		np := &Paragraph{Fragments: make([]*Fragment, len(p.Fragments))}
		for i, f := range p.Fragments {
			np.Fragments[i] = mapped[f]
		}
		return np
	}

	clone.paragraphs = make([]*Paragraph, len(d.paragraphs))
	for i, p := range d.paragraphs {
		clone.paragraphs[i] = cloneParagraph(p)
	}
	clone.cells = make([]*Cell, len(d.cells))
	for i, c := range d.cells {
		nc := &Cell{Paragraphs: make([]*Paragraph, len(c.Paragraphs))}
		for j, p := range c.Paragraphs {
			nc.Paragraphs[j] = cloneParagraph(p)
		}
		clone.cells[i] = nc
	}
	return clone
}

// Bytes serializes the document back into a .docx package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo serializes the document into w.
func (d *Document) WriteTo(w io.Writer) error {
	zw := zip.NewWriter(w)

	for _, e := range d.entries {
		data := e.data
		if frags := d.fragments[e.header.Name]; hasChanges(frags) {
			data = splice(e.data, frags)
		}

		header := &zip.FileHeader{
			Name:     e.header.Name,
			Method:   zip.Deflate,
			Modified: e.header.Modified,
		}
		if e.header.Method == zip.Store {
			header.Method = zip.Store
		}

		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create entry %s: %w", header.Name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", header.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize package: %w", err)
	}
	return nil
}

func isTextPart(name string) bool {
	if name == MainPart {
		return true
	}
	for _, pattern := range []string{"word/header*.xml", "word/footer*.xml"} {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func hasChanges(frags []*Fragment) bool {
	for _, f := range frags {
		if f.Changed() {
			return true
		}
	}
	return false
}

// splice rewrites the changed fragments of one part, back to front so
// earlier offsets stay valid.
func splice(raw []byte, frags []*Fragment) []byte {
	changed := make([]*Fragment, 0, len(frags))
	for _, f := range frags {
		if f.Changed() {
			changed = append(changed, f)
		}
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i].tagStart > changed[j].tagStart })

	out := append([]byte(nil), raw...)
	for _, f := range changed {
		replacement := rewriteElement(raw, f)
		tail := append([]byte(nil), out[f.end:]...)
		out = append(append(out[:f.tagStart], replacement...), tail...)
	}
	return out
}

// rewriteElement renders the start tag and escaped text of a changed fragment.
// For a self-closing element the end tag is rendered too.
func rewriteElement(raw []byte, f *Fragment) []byte {
	startTag := string(raw[f.tagStart:f.tagEnd])
	needPreserve := !f.preserve && f.Text != "" && strings.TrimSpace(f.Text) != f.Text

	var b bytes.Buffer
	if f.selfEnd {
		open := strings.TrimRight(strings.TrimSuffix(startTag, "/>"), " \t\r\n")
		b.WriteString(open)
		if needPreserve {
			b.WriteString(` xml:space="preserve"`)
		}
		b.WriteByte('>')
		escapeText(&b, f.Text)
		b.WriteString("</")
		b.WriteString(qualifiedName(open))
		b.WriteByte('>')
		return b.Bytes()
	}

	if needPreserve {
		b.WriteString(strings.TrimSuffix(startTag, ">"))
		b.WriteString(` xml:space="preserve">`)
	} else {
		b.WriteString(startTag)
	}
	escapeText(&b, f.Text)
	return b.Bytes()
}

// qualifiedName extracts "w:t" from "<w:t attr=...".
func qualifiedName(startTag string) string {
	name := strings.TrimPrefix(startTag, "<")
	if i := strings.IndexAny(name, " \t\r\n/>"); i >= 0 {
		name = name[:i]
	}
	return name
}
