package batch

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/jonathan/boletim/internal/naming"
)

const (
	entryPrefix = "report_"
	entryExt    = ".docx"
)

// entry is one document to be written into the archive.
type entry struct {
	name string
	data []byte
}

// ReportName is the file name of a single student's report.
func ReportName(studentName string) string {
	return entryPrefix + naming.Filename(studentName) + entryExt
}

// ArchiveName is the file name of a batch archive.
func ArchiveName(batchID string) string {
	return "boletins_" + batchID + ".zip"
}

// entryNames assigns archive names to students in input order. Students whose
// names normalize to the same stem get _1, _2, ... suffixes after the first.
// Names already taken by an earlier student (including suffixed ones) are skipped.
func entryNames(stems []string) []string {
	names := make([]string, len(stems))
	taken := make(map[string]bool, len(stems))
	next := make(map[string]int, len(stems))

	for i, stem := range stems {
		base := entryPrefix + naming.Filename(stem)
		name := base
		for n := next[base]; taken[name+entryExt]; n++ {
			name = fmt.Sprintf("%s_%d", base, n+1)
			next[base] = n + 1
		}
		names[i] = name + entryExt
		taken[names[i]] = true
	}
	return names
}

// archiveWriter is the subset of zip.Writer used to build archives.
type archiveWriter interface {
	CreateHeader(fh *zip.FileHeader) (io.Writer, error)
	Close() error
}

var newArchiveWriter = func(w io.Writer) archiveWriter {
	return zip.NewWriter(w)
}

// packArchive writes entries into an in-memory zip.
func packArchive(entries []entry, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := newArchiveWriter(&buf)

	for _, e := range entries {
		// .docx entries are already deflated.
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Store,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %s: %w", e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
