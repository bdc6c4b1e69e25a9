// Package observability provides logging setup and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/boletim/internal/batch"
	"github.com/jonathan/boletim/internal/report"
	"github.com/jonathan/boletim/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of failures to display
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintResolution outputs the value chosen for each placeholder of a report,
// in template order, with how it was matched.
func (p *Printer) PrintResolution(rep *report.FilledReport, placeholders []types.PlaceholderSpec) {
	if rep == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Student:  %s (%s)\n", rep.StudentName, rep.StudentID))
	sb.WriteString(fmt.Sprintf("Kind:     %s\n\n", rep.Kind))

	missing := 0
	for _, ph := range placeholders {
		v, ok := rep.Values[ph.Key]
		if !ok {
			v = types.Unresolved()
		}
		if v.Missing() {
			missing++
		}
		line := fmt.Sprintf("%-20s %-6s %s", ph.Key, v.Value, v.Match)
		if v.Source != "" && v.Match != types.MatchExact {
			line += " ← " + v.Source
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString(fmt.Sprintf("\n%d of %d placeholders resolved", len(placeholders)-missing, len(placeholders)))

	p.printBox("REPORT VALUES", sb.String())
}

// PrintBatchSummary outputs the counts of a batch and its first failures.
func (p *Printer) PrintBatchSummary(out *batch.Output) {
	if out == nil {
		return
	}

	s := out.Summary
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Batch:     %s\n", out.BatchID))
	sb.WriteString(fmt.Sprintf("Total:     %d\n", s.Total))
	sb.WriteString(fmt.Sprintf("Succeeded: %d\n", s.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed:    %d", s.Failed))

	if len(s.Failures) > 0 {
		sb.WriteString("\n\nFailures:\n")
		count := min(len(s.Failures), maxItemsToShow)
		for i := 0; i < count; i++ {
			f := s.Failures[i]
			name := f.StudentName
			if name == "" {
				name = f.StudentID
			}
			sb.WriteString(fmt.Sprintf("  • %s: %s\n", name, f.Reason))
		}
		if len(s.Failures) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(s.Failures)-maxItemsToShow))
		}
	}

	p.printBox("BATCH SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTemplateCheck outputs the tokens found in a template and the catalog
// placeholders it lacks.
func (p *Printer) PrintTemplateCheck(kind types.ReportKind, found, missing []string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Kind:   %s\n", kind))
	sb.WriteString(fmt.Sprintf("Tokens: %d\n", len(found)))
	for _, tok := range found {
		sb.WriteString("  • " + tok + "\n")
	}

	if len(missing) == 0 {
		sb.WriteString("\n✓ All catalog placeholders present")
	} else {
		sorted := append([]string(nil), missing...)
		sort.Strings(sorted)
		sb.WriteString(fmt.Sprintf("\n✗ Missing %d placeholders:\n", len(sorted)))
		for _, key := range sorted {
			sb.WriteString("  • " + key + "\n")
		}
	}

	p.printBox("TEMPLATE CHECK", strings.TrimSuffix(sb.String(), "\n"))
}
