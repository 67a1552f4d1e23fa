package output

import (
	"encoding/json"
	"io"

	"github.com/inodb/vcf-validator/internal/vcf"
)

// jsonDiagnostic is the wire shape for one streamed diagnostic line; it
// exists separately from vcf.Diagnostic so field names/casing are a
// deliberate public contract, not whatever the internal struct happens to
// be named.
type jsonDiagnostic struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column,omitempty"`
	Severity string `json:"severity"`
	Section  string `json:"section"`
	Message  string `json:"message"`
}

// JSONWriter streams diagnostics as newline-delimited JSON objects.
type JSONWriter struct {
	enc *json.Encoder
}

// NewJSONWriter creates a new streaming JSON writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{enc: json.NewEncoder(w)}
}

// WriteHeader is a no-op; newline-delimited JSON has no header line.
func (jw *JSONWriter) WriteHeader() error { return nil }

// Write writes a single diagnostic for filename.
func (jw *JSONWriter) Write(filename string, d vcf.Diagnostic) error {
	return jw.enc.Encode(jsonDiagnostic{
		Filename: filename,
		Line:     d.Line,
		Column:   d.Column,
		Severity: d.Severity.String(),
		Section:  d.Section.String(),
		Message:  d.Message,
	})
}

// Flush is a no-op; json.Encoder writes through immediately.
func (jw *JSONWriter) Flush() error { return nil }
