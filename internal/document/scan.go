package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// wordNamespace is the WordprocessingML main namespace.
const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// scanPart walks one XML part and records every <w:t> with its byte offsets,
// grouped into the innermost enclosing <w:p>, and every <w:p> into the
// innermost enclosing <w:tc> (if any).
func (d *Document) scanPart(name string, raw []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var (
		paragraphs []*Paragraph // open <w:p> stack
		cells      []*Cell      // open <w:tc> stack
		current    *Fragment    // open <w:t>
		text       bytes.Buffer
		frags      []*Fragment
	)

	for {
		before := int(dec.InputOffset())
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &MalformedError{Message: fmt.Sprintf("invalid XML in %s", name), Cause: err}
		}
		after := int(dec.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				p := &Paragraph{}
				paragraphs = append(paragraphs, p)
				if len(cells) > 0 {
					cell := cells[len(cells)-1]
					cell.Paragraphs = append(cell.Paragraphs, p)
				} else {
					d.paragraphs = append(d.paragraphs, p)
				}
			case "tc":
				cell := &Cell{}
				cells = append(cells, cell)
				d.cells = append(d.cells, cell)
			case "t":
				if len(paragraphs) == 0 {
					continue
				}
				f := &Fragment{
					tagStart: before,
					tagEnd:   after,
					end:      after,
					selfEnd:  bytes.HasSuffix(raw[before:after], []byte("/>")),
					preserve: hasPreserve(t.Attr),
				}
				p := paragraphs[len(paragraphs)-1]
				p.Fragments = append(p.Fragments, f)
				frags = append(frags, f)
				current = f
				text.Reset()
			}

		case xml.CharData:
			if current != nil {
				text.Write(t)
			}

		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				if len(paragraphs) > 0 {
					paragraphs = paragraphs[:len(paragraphs)-1]
				}
			case "tc":
				if len(cells) > 0 {
					cells = cells[:len(cells)-1]
				}
			case "t":
				if current == nil {
					continue
				}
				if !current.selfEnd {
					current.end = before
				}
				current.Text = text.String()
				current.orig = current.Text
				current = nil
			}
		}
	}

	d.fragments[name] = frags
	return nil
}

func hasPreserve(attrs []xml.Attr) bool {
	for _, a := range attrs {
		if a.Name.Local == "space" && a.Value == "preserve" {
			return true
		}
	}
	return false
}

func escapeText(b *bytes.Buffer, s string) {
	_ = xml.EscapeText(b, []byte(s))
}
