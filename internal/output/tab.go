// Package output writes validation diagnostics in the formats the CLI
// supports: a human-readable text report, a tab-delimited machine-readable
// one, and a streamed JSON one.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vcf-validator/internal/vcf"
)

// TabWriter writes diagnostics in tab-delimited format, one per line, using
// a buffered writer that must be Flush'd when done.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: []string{"#Filename", "Line", "Column", "Severity", "Section", "Message"},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single diagnostic for filename.
func (tw *TabWriter) Write(filename string, d vcf.Diagnostic) error {
	values := []string{
		filename,
		strconv.Itoa(d.Line),
		strconv.Itoa(d.Column),
		d.Severity.String(),
		d.Section.String(),
		d.Message,
	}
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
