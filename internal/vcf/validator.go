package vcf

import (
	"bufio"
	"compress/gzip"
	"io"

	"go.uber.org/zap"
)

// ProgressFunc is called periodically while Validator consumes a reader, so
// a long-running scan can report how far it has gotten. lines is the number
// of input lines consumed so far.
type ProgressFunc func(lines int)

const progressInterval = 10000

// Validator is the public facade over Scanner, ParsePolicy, and Checker: it
// wires the three together around one ErrorTracker/Sink and exposes the
// single entry point callers need to validate a VCF byte stream.
type Validator struct {
	state   *ParsingState
	tracker *ErrorTracker
	scanner *Scanner
	policy  *ParsePolicy
	logger  *zap.Logger
	report  ProgressFunc

	lines int
}

// NewValidator creates a Validator that reports diagnostics to sink and
// attributes them to filename (used only for logging; may be "").
func NewValidator(filename string, sink Sink) *Validator {
	state := NewParsingState(filename)
	tracker := NewErrorTracker(sink)
	policy := NewParsePolicy(state, tracker)
	return &Validator{
		state:   state,
		tracker: tracker,
		policy:  policy,
		scanner: NewScanner(policy, tracker),
		logger:  zap.NewNop(),
	}
}

// SetReportBothOnConflict resolves the grammar-vs-semantic conflict policy
// switch (spec.md §9 Open Questions) for this Validator: when a body line
// has both a grammar error and a semantic violation, false (the default)
// reports only the grammar error; true reports both. Must be called before
// Feed.
func (v *Validator) SetReportBothOnConflict(b bool) {
	v.policy.SetReportBothOnConflict(b)
}

// SetLogger sets the logger used to report progress. Validator itself only
// logs progress; wrap the Sink passed to NewValidator in a LogSink to also
// log diagnostics.
func (v *Validator) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	v.logger = l
}

// SetProgressFunc registers a callback invoked every 10,000 lines consumed.
func (v *Validator) SetProgressFunc(f ProgressFunc) {
	v.report = f
}

// Feed consumes the next chunk of input. It may be called multiple times.
func (v *Validator) Feed(data []byte) {
	v.scanner.Feed(data)
	v.countLines(data)
}

func (v *Validator) countLines(data []byte) {
	for _, b := range data {
		if b != '\n' {
			continue
		}
		v.lines++
		if v.lines%progressInterval == 0 {
			v.logger.Info("validating", zap.Int("lines", v.lines))
			if v.report != nil {
				v.report(v.lines)
			}
		}
	}
}

// End signals end of input, flushing any trailing partial line.
func (v *Validator) End() {
	v.scanner.EndOfInput()
}

// IsAccepting reports whether the input consumed so far is a grammatically
// complete, error-free VCF prefix.
func (v *Validator) IsAccepting() bool {
	return v.scanner.IsAccepting()
}

// RecordCount returns the number of body records accepted so far.
func (v *Validator) RecordCount() int {
	return v.state.RecordCount
}

// Source returns the header description accumulated so far.
func (v *Validator) Source() *Source {
	return v.state.Source
}

// HasErrors reports whether any error-severity diagnostic has been seen.
func (v *Validator) HasErrors() bool {
	return v.tracker.HasErrors()
}

// Option configures a Validator before ValidateReader feeds it any bytes.
type Option func(*Validator)

// WithReportBothOnConflict sets the grammar-vs-semantic conflict policy
// switch (see Validator.SetReportBothOnConflict) on the Validator
// ValidateReader constructs.
func WithReportBothOnConflict(b bool) Option {
	return func(v *Validator) { v.SetReportBothOnConflict(b) }
}

// ValidateReader drains r through a fresh Validator, transparently
// decompressing gzip input (detected by magic bytes, not by filename), and
// returns the resulting Validator for its caller to inspect
// (RecordCount/HasErrors/IsAccepting) or to read diagnostics from the Sink
// passed to NewValidator.
func ValidateReader(filename string, r io.Reader, sink Sink, opts ...Option) (*Validator, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}

	var src io.Reader = br
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		src = gz
	}

	v := NewValidator(filename, sink)
	for _, opt := range opts {
		opt(v)
	}
	buf := make([]byte, 64*1024)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			v.Feed(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return v, err
		}
	}
	v.End()
	return v, nil
}
