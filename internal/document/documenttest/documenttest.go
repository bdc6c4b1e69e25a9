// Package documenttest builds small .docx packages for tests.
package documenttest

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentClose = `<w:sectPr/></w:body></w:document>`

// Paragraph renders a <w:p> with one bold-toggling run per fragment so that
// adjacent fragments carry different formatting, as they do after manual edits.
func Paragraph(fragments ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	for i, f := range fragments {
		b.WriteString("<w:r>")
		if i%2 == 1 {
			b.WriteString("<w:rPr><w:b/></w:rPr>")
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		_ = xml.EscapeText(&b, []byte(f))
		b.WriteString("</w:t></w:r>")
	}
	b.WriteString("</w:p>")
	return b.String()
}

// Table renders a single-row table whose cells hold the given XML (usually Paragraph output).
func Table(cells ...string) string {
	var b strings.Builder
	b.WriteString("<w:tbl><w:tr>")
	for _, c := range cells {
		b.WriteString("<w:tc><w:tcPr/>")
		b.WriteString(c)
		b.WriteString("</w:tc>")
	}
	b.WriteString("</w:tr></w:tbl>")
	return b.String()
}

// Body wraps body XML into a complete word/document.xml.
func Body(content ...string) string {
	return documentOpen + strings.Join(content, "") + documentClose
}

// Part wraps paragraphs into a header or footer part.
func Part(root string, content ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:` + root + ` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		strings.Join(content, "") + `</w:` + root + `>`
}

// Docx returns a .docx package whose body is the given XML.
func Docx(t testing.TB, body ...string) []byte {
	t.Helper()
	return Package(t, map[string]string{"word/document.xml": Body(body...)})
}

// Package builds a .docx from explicit parts. Content types and the root
// relationship are added when missing.
func Package(t testing.TB, parts map[string]string) []byte {
	t.Helper()

	names := []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"}
	all := map[string]string{
		"[Content_Types].xml": contentTypes,
		"_rels/.rels":         rootRels,
	}
	for name, content := range parts {
		if _, seen := all[name]; !seen && name != "word/document.xml" {
			names = append(names, name)
		}
		all[name] = content
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		content, ok := all[name]
		if !ok {
			continue
		}
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close package: %v", err)
	}
	return buf.Bytes()
}

// ReadPart returns the raw content of one entry of a .docx package.
func ReadPart(t testing.TB, data []byte, name string) string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		var b bytes.Buffer
		if _, err := b.ReadFrom(rc); err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return b.String()
	}
	t.Fatalf("entry %s not found", name)
	return ""
}
