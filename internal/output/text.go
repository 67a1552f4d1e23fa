package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/inodb/vcf-validator/internal/vcf"
)

// TextWriter writes diagnostics as human-readable
// "file:line:column: severity in section section: message" lines, the
// default CLI format.
type TextWriter struct {
	w *bufio.Writer
}

// NewTextWriter creates a new human-readable writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// WriteHeader is a no-op; the text format has no header line.
func (tw *TextWriter) WriteHeader() error { return nil }

// Write writes a single diagnostic for filename.
func (tw *TextWriter) Write(filename string, d vcf.Diagnostic) error {
	var err error
	if d.Column > 0 {
		_, err = fmt.Fprintf(tw.w, "%s:%d:%d: %s in %s section: %s\n",
			filename, d.Line, d.Column, d.Severity, d.Section, d.Message)
	} else {
		_, err = fmt.Fprintf(tw.w, "%s:%d: %s in %s section: %s\n",
			filename, d.Line, d.Severity, d.Section, d.Message)
	}
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TextWriter) Flush() error {
	return tw.w.Flush()
}
