package vcf

import (
	"fmt"

	"go.uber.org/zap"
)

// Diagnostic is a single deviation from the grammar (Severity ==
// SeverityError) or from a recommendation/cross-line consistency rule
// (Severity == SeverityWarning), reported with enough context for a caller
// to locate it in the source file.
type Diagnostic struct {
	Line     int
	Column   int
	Severity Severity
	Section  Section
	Message  string
}

func (d Diagnostic) String() string {
	if d.Column > 0 {
		return fmt.Sprintf("%d:%d: %s in %s section: %s", d.Line, d.Column, d.Severity, d.Section, d.Message)
	}
	return fmt.Sprintf("%d: %s in %s section: %s", d.Line, d.Severity, d.Section, d.Message)
}

// Sink is the Error Policy contract: every diagnostic produced while
// scanning a source passes through exactly one Sink. Implementations decide
// whether to accumulate, log, or abort; the default behavior used by
// Validator is to accumulate and continue (see SliceSink).
type Sink interface {
	Accept(d Diagnostic)
}

// SliceSink accumulates diagnostics in source order. It is the default Sink
// used by Validator.
type SliceSink struct {
	diagnostics []Diagnostic
}

// NewSliceSink creates an empty accumulating sink.
func NewSliceSink() *SliceSink {
	return &SliceSink{}
}

// Accept appends d to the accumulated diagnostics.
func (s *SliceSink) Accept(d Diagnostic) {
	s.diagnostics = append(s.diagnostics, d)
}

// Diagnostics returns all diagnostics accepted so far, in source order.
func (s *SliceSink) Diagnostics() []Diagnostic {
	return s.diagnostics
}

// HasErrors reports whether any SeverityError diagnostic was accepted.
// Warnings alone leave a scan "clean".
func (s *SliceSink) HasErrors() bool {
	for _, d := range s.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorTracker wraps a Sink and remembers whether any SeverityError
// diagnostic has passed through it. Scanner and ParsePolicy are both
// constructed around the same ErrorTracker so that either layer's errors
// are visible to Scanner.IsAccepting without the two layers otherwise
// coordinating.
type ErrorTracker struct {
	next     Sink
	hadError bool
}

// NewErrorTracker creates a tracker that forwards every diagnostic to next.
func NewErrorTracker(next Sink) *ErrorTracker {
	return &ErrorTracker{next: next}
}

// Accept implements Sink.
func (t *ErrorTracker) Accept(d Diagnostic) {
	if d.Severity == SeverityError {
		t.hadError = true
	}
	if t.next != nil {
		t.next.Accept(d)
	}
}

// HasErrors reports whether any SeverityError diagnostic has been seen.
func (t *ErrorTracker) HasErrors() bool {
	return t.hadError
}

// LogSink forwards every diagnostic to a zap.Logger (Warn for warnings,
// Error for errors) before passing it on to an optional next Sink. This is
// the injected-logger idiom used elsewhere in this codebase
// (annotate.Annotator.SetLogger in the prior VEP tool this validator was
// built from), generalized from annotation warnings to diagnostics.
type LogSink struct {
	logger *zap.Logger
	next   Sink
}

// NewLogSink creates a LogSink that logs through logger and then forwards
// to next. next may be nil.
func NewLogSink(logger *zap.Logger, next Sink) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger, next: next}
}

// Accept implements Sink.
func (l *LogSink) Accept(d Diagnostic) {
	fields := []zap.Field{
		zap.Int("line", d.Line),
		zap.Int("column", d.Column),
		zap.String("section", d.Section.String()),
	}
	if d.Severity == SeverityWarning {
		l.logger.Warn(d.Message, fields...)
	} else {
		l.logger.Error(d.Message, fields...)
	}
	if l.next != nil {
		l.next.Accept(d)
	}
}
