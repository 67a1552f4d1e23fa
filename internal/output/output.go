package output

import (
	"io"

	"github.com/inodb/vcf-validator/internal/vcf"
)

// DiagnosticWriter is the common contract the CLI drives: write a header
// (if the format has one), write each diagnostic for a file, then flush.
type DiagnosticWriter interface {
	WriteHeader() error
	Write(filename string, d vcf.Diagnostic) error
	Flush() error
}

// NewWriter returns the DiagnosticWriter for the given format name
// ("text", "tab", "json"), or nil if format is unrecognized.
func NewWriter(format string, w io.Writer) DiagnosticWriter {
	switch format {
	case "text":
		return NewTextWriter(w)
	case "tab":
		return NewTabWriter(w)
	case "json":
		return NewJSONWriter(w)
	default:
		return nil
	}
}
