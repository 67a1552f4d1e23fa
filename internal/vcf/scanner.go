package vcf

// Handler is the Parse Policy contract the Scanner drives one byte at a
// time. BeginToken/CharOfToken/EndToken maintain the in-progress token
// accumulator; the remaining methods tell the Handler the role the token
// (or line) just closed plays in the grammar, since that role depends on
// delimiter bytes the Scanner consumes but never forwards as token
// characters.
type Handler interface {
	// Fileformat is called once, when the fileformat line's version
	// token has been accepted.
	Fileformat(v Version)

	// BeginToken marks the first byte of a lexeme of interest.
	BeginToken()
	// CharOfToken is called for every subsequent byte of the lexeme,
	// in order.
	CharOfToken(b byte)
	// EndToken marks the byte past the last byte of the lexeme.
	EndToken()

	// RecordMetaKey marks the token just closed as a meta line's key
	// (the text before '=').
	RecordMetaKey()
	// EndOfMetaLine finalizes the meta entry assembled since the
	// matching RecordMetaKey and hands it to the Semantic Checker.
	EndOfMetaLine(lineNumber int)

	// EndOfHeaderLine freezes the header: validates that the mandatory
	// columns appeared in order and extracts the FORMAT/sample columns
	// from the tokens assembled since the line began.
	EndOfHeaderLine(lineNumber int)

	// EndOfBodyLine constructs a Record from the columns assembled
	// since the last EndOfBodyLine/EndOfHeaderLine, runs the Semantic
	// Checker over it, and drops the accumulator.
	EndOfBodyLine(lineNumber int)

	// DiscardLine drops whatever columns were assembled for a line the
	// Scanner abandoned mid-way through (entering SectionMetaSkip or
	// SectionBodySkip), so they do not bleed into the next line's count.
	DiscardLine()
}

// scanState is the Scanner's fine-grained position within the grammar,
// finer than Section: several scanState values share a Section tag for
// diagnostic purposes (e.g. every meta sub-state reports as SectionMeta).
type scanState int

const (
	stFileformatLiteral scanState = iota
	stFileformatVersion

	stLineStart     // Meta section, start of a line: expecting '#'.
	stAmbiguousHash // exactly one '#' consumed; not yet known if meta or header
	stHeaderLiteral // matching the "HROM" tail of "#CHROM"

	stMetaKey
	stMetaValueStart
	stMetaFreeformValue
	stMetaStructuredValue
	stMetaSkip

	stHeaderColumn

	stBodyColumn
	stBodySkip
)

const fileformatPrefix = "##fileformat="

var headerLiteralTail = []byte("HROM")

// Scanner is a byte-level, table-free state machine for VCF. It never
// buffers a whole line before deciding what to do with it: every byte is
// classified by the current state and either folded into the open token
// (BeginToken/CharOfToken/EndToken), consumed as grammar punctuation, or
// rejected outright. On a section-level grammar error it resynchronizes by
// swallowing bytes up to the next '\n' (SectionMetaSkip / SectionBodySkip),
// guaranteeing at most one diagnostic per malformed line at this layer.
//
// Scanner persists all of this state across Feed calls, so callers may
// hand it arbitrarily chunked buffers — a single logical token may be
// split across any number of Feed calls without affecting the event
// stream the Handler observes.
type Scanner struct {
	handler Handler
	sink    *ErrorTracker

	section Section
	state   scanState

	line      int
	column    int
	freshLine bool
	pendingCR bool

	tokenOpen bool

	litIdx     int
	versionBuf []byte

	metaInQuotes bool
	metaPrevByte byte

	headerColumnIdx int
	bodyColumnIdx   int

	fileformatOK bool
	sawHeader    bool
}

// NewScanner creates a Scanner that drives handler and reports diagnostics
// through sink.
func NewScanner(handler Handler, sink *ErrorTracker) *Scanner {
	return &Scanner{
		handler:   handler,
		sink:      sink,
		section:   SectionFileformat,
		state:     stFileformatLiteral,
		line:      1,
		column:    1,
		freshLine: true,
	}
}

// Feed consumes the next chunk of input bytes. It may be called multiple
// times; Scanner state persists between calls.
func (sc *Scanner) Feed(data []byte) {
	for _, b := range data {
		if sc.pendingCR {
			sc.pendingCR = false
			if b == '\n' {
				sc.endLine()
				continue
			}
			sc.dispatch('\r')
		}
		if b == '\r' {
			sc.pendingCR = true
			continue
		}
		if b == '\n' {
			sc.endLine()
			continue
		}
		sc.dispatch(b)
	}
}

func (sc *Scanner) endLine() {
	sc.handleNewline()
	sc.line++
	sc.column = 1
	sc.freshLine = true
}

func (sc *Scanner) dispatch(b byte) {
	sc.freshLine = false
	sc.handleByte(b)
	sc.column++
}

// EndOfInput signals EOF. A trailing, unterminated line is still flushed
// through the same handleNewline path used for a real '\n', leniently. If
// the input never reached a header line and nothing else has already
// explained why, that is reported through the default per-section message
// — there is no single byte to blame for an input that just stops.
func (sc *Scanner) EndOfInput() {
	if sc.pendingCR {
		sc.pendingCR = false
		sc.dispatch('\r')
	}
	if !sc.freshLine {
		sc.handleNewline()
	}
	if !sc.sawHeader && !sc.sink.HasErrors() {
		sc.reportError(sc.line, 1, SectionHeader, "")
	}
}

// IsAccepting reports whether the input scanned so far is a grammatically
// complete, error-free VCF prefix: a fileformat line, zero or more meta
// lines, a header line, and zero or more body lines.
func (sc *Scanner) IsAccepting() bool {
	return sc.fileformatOK && sc.sawHeader && !sc.sink.HasErrors()
}

// --- token accumulator plumbing -----------------------------------------

func (sc *Scanner) openToken() {
	sc.handler.BeginToken()
	sc.tokenOpen = true
}

func (sc *Scanner) feedTokenByte(b byte) {
	if !sc.tokenOpen {
		sc.openToken()
	}
	sc.handler.CharOfToken(b)
}

// closeToken always emits a balanced Begin/End pair, even for a
// zero-length lexeme (an empty column or an empty key), so every
// CharOfToken call the Handler sees is bracketed by exactly one
// BeginToken and one EndToken.
func (sc *Scanner) closeToken() {
	if !sc.tokenOpen {
		sc.openToken()
	}
	sc.handler.EndToken()
	sc.tokenOpen = false
}

func (sc *Scanner) closeHeaderColumn() {
	sc.closeToken()
	sc.headerColumnIdx++
}

// --- per-byte dispatch ----------------------------------------------------

func (sc *Scanner) handleByte(b byte) {
	switch sc.state {
	case stFileformatLiteral:
		sc.handleFileformatLiteral(b)
	case stFileformatVersion:
		sc.versionBuf = append(sc.versionBuf, b)
	case stLineStart:
		sc.handleLineStart(b)
	case stAmbiguousHash:
		sc.handleAmbiguousHash(b)
	case stHeaderLiteral:
		sc.handleHeaderLiteral(b)
	case stMetaKey:
		sc.handleMetaKey(b)
	case stMetaValueStart:
		sc.handleMetaValueStart(b)
	case stMetaFreeformValue:
		sc.feedTokenByte(b)
	case stMetaStructuredValue:
		sc.handleMetaStructuredValue(b)
	case stMetaSkip:
		// swallow until '\n'
	case stHeaderColumn:
		sc.handleHeaderColumn(b)
	case stBodyColumn:
		sc.handleBodyColumn(b)
	case stBodySkip:
		// swallow until '\n'
	}
}

func (sc *Scanner) handleFileformatLiteral(b byte) {
	if b != fileformatPrefix[sc.litIdx] {
		sc.reportError(sc.line, sc.column, SectionFileformat, "File must start with a '##fileformat=VCFvX.Y' line")
		sc.section = SectionMeta
		sc.state = stMetaSkip
		return
	}
	sc.litIdx++
	if sc.litIdx == len(fileformatPrefix) {
		sc.state = stFileformatVersion
		sc.versionBuf = sc.versionBuf[:0]
	}
}

func (sc *Scanner) handleLineStart(b byte) {
	if b == '#' {
		sc.state = stAmbiguousHash
		return
	}
	sc.reportError(sc.line, sc.column, SectionMeta, "Expected a meta-information line or the '#CHROM' header line")
	sc.state = stMetaSkip
}

func (sc *Scanner) handleAmbiguousHash(b byte) {
	switch {
	case b == '#':
		sc.state = stMetaKey
	case b == 'C':
		sc.litIdx = 0
		sc.state = stHeaderLiteral
	default:
		sc.reportError(sc.line, sc.column, SectionMeta, "Meta-information lines must start with '##'")
		sc.state = stMetaSkip
	}
}

func (sc *Scanner) handleHeaderLiteral(b byte) {
	if b != headerLiteralTail[sc.litIdx] {
		sc.reportError(sc.line, sc.column, SectionMeta, "Meta-information lines must start with '##'")
		sc.state = stMetaSkip
		return
	}
	sc.litIdx++
	if sc.litIdx == len(headerLiteralTail) {
		sc.openToken()
		for _, c := range []byte("#CHROM") {
			sc.handler.CharOfToken(c)
		}
		sc.headerColumnIdx = 0
		sc.section = SectionHeader
		sc.state = stHeaderColumn
	}
}

func (sc *Scanner) handleMetaKey(b byte) {
	if b == '=' {
		sc.closeToken()
		sc.handler.RecordMetaKey()
		sc.state = stMetaValueStart
		return
	}
	sc.feedTokenByte(b)
}

func (sc *Scanner) handleMetaValueStart(b byte) {
	if b == '<' {
		sc.openToken()
		sc.handler.CharOfToken('<')
		sc.metaInQuotes = false
		sc.state = stMetaStructuredValue
		return
	}
	sc.state = stMetaFreeformValue
	sc.feedTokenByte(b)
}

func (sc *Scanner) handleMetaStructuredValue(b byte) {
	if sc.metaInQuotes {
		sc.handler.CharOfToken(b)
		if b == '"' && sc.metaPrevByte != '\\' {
			sc.metaInQuotes = false
		}
		sc.metaPrevByte = b
		return
	}
	switch b {
	case '"':
		sc.metaInQuotes = true
		sc.metaPrevByte = 0
		sc.handler.CharOfToken(b)
	case '>':
		sc.handler.CharOfToken(b)
		sc.closeToken()
		sc.handler.EndOfMetaLine(sc.line)
		sc.state = stLineStart
	default:
		sc.handler.CharOfToken(b)
	}
}

func (sc *Scanner) handleHeaderColumn(b byte) {
	if b == '\t' {
		sc.closeHeaderColumn()
		return
	}
	sc.feedTokenByte(b)
}

func (sc *Scanner) handleBodyColumn(b byte) {
	if b == '\t' {
		sc.closeToken()
		sc.bodyColumnIdx++
		return
	}
	if isIllegalControlByte(b) {
		if sc.tokenOpen {
			sc.closeToken()
		}
		sc.reportError(sc.line, sc.column, SectionBody, "Body line must not contain control characters")
		sc.handler.DiscardLine()
		sc.section = SectionBodySkip
		sc.state = stBodySkip
		return
	}
	sc.feedTokenByte(b)
}

// isIllegalControlByte reports whether b is a C0 control character other
// than the '\t' column delimiter. Feed never hands '\n', or a '\r' that
// directly precedes one, to a state handler; a lone '\r' does reach it and
// counts as illegal.
func isIllegalControlByte(b byte) bool {
	return b < 0x20 && b != '\t'
}

// --- line-end dispatch -----------------------------------------------------

func (sc *Scanner) handleNewline() {
	switch sc.state {
	case stFileformatLiteral:
		sc.reportError(sc.line, sc.column, SectionFileformat, "File must start with a '##fileformat=VCFvX.Y' line")
		sc.section = SectionMeta
		sc.state = stLineStart

	case stFileformatVersion:
		v, ok := ParseVersion(string(sc.versionBuf))
		if !ok {
			sc.reportError(sc.line, len(fileformatPrefix)+1, SectionFileformat,
				"Fileformat must be a sequence of alphanumeric and/or punctuation characters matching VCFv4.1, VCFv4.2, or VCFv4.3")
		} else {
			sc.fileformatOK = true
			sc.handler.Fileformat(v)
		}
		sc.section = SectionMeta
		sc.state = stLineStart

	case stLineStart:
		// Tolerate a stray blank line.

	case stAmbiguousHash, stHeaderLiteral:
		sc.reportError(sc.line, sc.column, SectionMeta, "Meta-information lines must start with '##'")
		sc.state = stLineStart

	case stMetaKey:
		sc.closeToken()
		sc.reportError(sc.line, 3, SectionMeta, "Meta-information line must have the form key=value")
		sc.handler.DiscardLine()
		sc.state = stLineStart

	case stMetaValueStart, stMetaFreeformValue:
		sc.closeToken()
		sc.handler.EndOfMetaLine(sc.line)
		sc.state = stLineStart

	case stMetaStructuredValue:
		sc.closeToken()
		sc.reportError(sc.line, sc.column, SectionMeta, "Meta-information attributes must be a comma-separated list of key=value pairs")
		sc.handler.DiscardLine()
		sc.state = stLineStart

	case stMetaSkip:
		sc.state = stLineStart

	case stHeaderColumn:
		sc.closeHeaderColumn()
		sc.handler.EndOfHeaderLine(sc.line)
		sc.sawHeader = true
		sc.section = SectionBody
		sc.bodyColumnIdx = 0
		sc.state = stBodyColumn

	case stBodyColumn:
		sc.closeToken()
		sc.handler.EndOfBodyLine(sc.line)
		sc.bodyColumnIdx = 0
		sc.state = stBodyColumn

	case stBodySkip:
		sc.section = SectionBody
		sc.bodyColumnIdx = 0
		sc.state = stBodyColumn
	}
}

// reportError accepts an error diagnostic. An empty message is filled in
// with a generic per-section default ("Error in '<section>' section")
// rather than reaching the Sink blank; callers that have something
// specific to say pass it directly and bypass the default entirely.
func (sc *Scanner) reportError(line, column int, section Section, message string) {
	if message == "" {
		message = defaultSectionMessage(section)
	}
	sc.sink.Accept(Diagnostic{Line: line, Column: column, Severity: SeverityError, Section: section, Message: message})
}

func defaultSectionMessage(section Section) string {
	return "Error in '" + section.String() + "' section"
}
