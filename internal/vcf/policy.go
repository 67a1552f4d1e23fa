package vcf

import "strconv"

// headerMandatoryColumns is the required, ordered prefix of the #CHROM
// header line.
var headerMandatoryColumns = []string{"#CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

// ParsePolicy implements Handler: it is the Scanner's sole collaborator,
// turning the byte-level token events it receives into MetaEntry/Record
// values and triggering the Semantic Checker at the end of each meta,
// header, and body line. It keeps no copy of any line's raw bytes; the
// only state that survives past EndOfMetaLine/EndOfHeaderLine/
// EndOfBodyLine is what has already been folded into Source or a Record.
type ParsePolicy struct {
	state   *ParsingState
	checker *Checker
	sink    *ErrorTracker

	hasFormat bool

	// reportBothOnConflict resolves the Open Question in spec.md §9 on a
	// line that has both a grammar error and a semantic violation: by
	// default (false) only the grammar error is reported and the
	// Semantic Checker does not see the line at all, matching the
	// source's predominant behavior. When true, the Checker also runs
	// against a best-effort Record built from whichever fields parsed
	// before the first failure (later fields fall back to their raw,
	// unvalidated text).
	reportBothOnConflict bool

	// tokenBuf is the in-progress token accumulator driven by
	// BeginToken/CharOfToken/EndToken. It is reserved once and reused
	// for every token in the stream, bounded only by the largest
	// individual token seen so far.
	tokenBuf []byte
	// lastToken is the text of the most recently closed token. Methods
	// that mark a token's role (RecordMetaKey, EndOfMetaLine) consume it
	// before the next BeginToken overwrites tokenBuf.
	lastToken string

	// metaKey holds the category recorded by the most recent
	// RecordMetaKey call, consumed by the EndOfMetaLine that follows it.
	metaKey string

	// columns accumulates every token closed since the last
	// EndOfHeaderLine/EndOfBodyLine/EndOfMetaLine. A meta line's two
	// tokens (key, value) pass through it too, harmlessly: EndOfMetaLine
	// ignores it in favor of metaKey/lastToken and clears it before the
	// next line starts.
	columns []string

	// lastMetaTypeID is the ID attribute of the most recently assembled
	// structured meta entry, recorded by RecordMetaTypeID.
	lastMetaTypeID string
}

// NewParsePolicy creates a ParsePolicy over state, reporting through sink.
func NewParsePolicy(state *ParsingState, sink *ErrorTracker) *ParsePolicy {
	return &ParsePolicy{
		state:   state,
		checker: NewChecker(state, sink),
		sink:    sink,
	}
}

// SetReportBothOnConflict sets the grammar-vs-semantic conflict policy
// switch described in spec.md §9. The default is false.
func (p *ParsePolicy) SetReportBothOnConflict(v bool) {
	p.reportBothOnConflict = v
}

// Fileformat implements Handler.
func (p *ParsePolicy) Fileformat(v Version) {
	p.state.Source.Version = v
}

// --- token accumulator (Handler) ----------------------------------------

// BeginToken implements Handler.
func (p *ParsePolicy) BeginToken() {
	p.tokenBuf = p.tokenBuf[:0]
}

// CharOfToken implements Handler.
func (p *ParsePolicy) CharOfToken(b byte) {
	p.tokenBuf = append(p.tokenBuf, b)
}

// EndToken implements Handler.
func (p *ParsePolicy) EndToken() {
	p.lastToken = string(p.tokenBuf)
	p.columns = append(p.columns, p.lastToken)
}

// RecordMetaKey implements Handler: it marks the token just closed as the
// meta line's category key.
func (p *ParsePolicy) RecordMetaKey() {
	p.metaKey = p.lastToken
	p.columns = p.columns[:0]
}

// RecordMetaTypeID records id as the structured meta entry's ID
// attribute. It is not itself a Scanner-driven event — a structured
// value's attribute list is one token, closed by a single EndToken — but
// it is still the concrete operation that marks a meta entry's type ID
// during EndOfMetaLine, matching the role the byte scanner's companion
// operation of the same name plays in a fully generated implementation.
func (p *ParsePolicy) RecordMetaTypeID(id string) {
	p.lastMetaTypeID = id
}

// RecordSampleName records name as a header sample column. Like
// RecordMetaTypeID, it is invoked from EndOfHeaderLine rather than by the
// Scanner directly, since sample-ness can only be determined once the
// whole header line (in particular, whether a FORMAT column preceded it)
// has been assembled.
func (p *ParsePolicy) RecordSampleName(name string) {
	p.state.Source.SampleNames = append(p.state.Source.SampleNames, name)
}

// DiscardLine implements Handler: it drops whatever columns have been
// accumulated for a line the Scanner abandoned mid-way through, so they do
// not bleed into the next line's column count.
func (p *ParsePolicy) DiscardLine() {
	p.columns = p.columns[:0]
	p.metaKey = ""
}

// EndOfMetaLine implements Handler.
func (p *ParsePolicy) EndOfMetaLine(lineNumber int) {
	p.state.LineNumber = lineNumber
	key := p.metaKey
	value := p.lastToken
	p.columns = p.columns[:0]

	entry, ok, msg := buildMetaEntry(lineNumber, key, value)
	if !ok {
		p.error(lineNumber, 3, SectionMeta, msg)
		return
	}
	if entry.ID != "" {
		p.RecordMetaTypeID(entry.ID)
	}

	if entry.ID != "" && IsStructuredCategory(entry.Category) {
		if p.state.Source.HasMetaID(entry.Category, entry.ID) {
			p.error(lineNumber, 3, SectionMeta, "Duplicate "+entry.Category+" ID '"+entry.ID+"'")
			return
		}
	}

	p.state.Source.AddMeta(entry)
	p.checker.AfterMetaLine(entry)
}

// EndOfHeaderLine implements Handler.
func (p *ParsePolicy) EndOfHeaderLine(lineNumber int) {
	p.state.LineNumber = lineNumber
	columns := p.columns
	p.columns = nil

	for i, want := range headerMandatoryColumns {
		if i >= len(columns) || columns[i] != want {
			p.error(lineNumber, 1, SectionHeader,
				"Header line must begin with the mandatory columns CHROM, POS, ID, REF, ALT, QUAL, FILTER, INFO, in order")
			return
		}
	}

	rest := columns[len(headerMandatoryColumns):]
	if len(rest) > 0 {
		if rest[0] != "FORMAT" {
			p.error(lineNumber, 1, SectionHeader, "Column following INFO must be FORMAT")
			return
		}
		p.hasFormat = true
		for _, name := range rest[1:] {
			if name == "" {
				p.error(lineNumber, 1, SectionHeader, "Sample names must not be empty")
				return
			}
			p.RecordSampleName(name)
		}
	}

	p.checker.AfterHeaderLine()
}

// EndOfBodyLine implements Handler.
func (p *ParsePolicy) EndOfBodyLine(lineNumber int) {
	p.state.LineNumber = lineNumber
	fields := p.columns
	p.columns = nil

	minColumns := 8
	if p.hasFormat || len(p.state.Source.SampleNames) > 0 {
		minColumns = 9
	}
	if len(fields) < minColumns {
		p.error(lineNumber, 1, SectionBody, "Body line has too few tab-separated columns")
		return
	}

	record, col, ok, msg := p.buildRecord(lineNumber, fields)
	if !ok {
		p.error(lineNumber, col, SectionBody, msg)
		if !p.reportBothOnConflict || record == nil {
			return
		}
	}

	p.state.RecordCount++
	p.checker.AfterBodyLine(record)
}

// buildRecord validates and assembles every column of a body line in
// order. By default (reportBothOnConflict == false) it stops at the first
// column-level failure and returns a nil record, so the Semantic Checker
// never sees a grammatically invalid line. When reportBothOnConflict is
// set, the first failure is remembered but assembly continues with each
// remaining field's raw, unvalidated text as a fallback, so the returned
// record (non-nil, ok == false) can still be run through semantic checks.
func (p *ParsePolicy) buildRecord(lineNumber int, fields []string) (*Record, int, bool, string) {
	var failCol int
	var failMsg string
	failed := false

	// fail records the first failure and reports whether assembly should
	// continue past it (true) or the caller should bail out immediately
	// with this failure (false).
	fail := func(col int, msg string) bool {
		if !failed {
			failed, failCol, failMsg = true, col, msg
		}
		return p.reportBothOnConflict
	}

	col := 1

	chrom := fields[0]
	if ok, msg := validateChromosome(fields[0]); !ok && !fail(col, msg) {
		return nil, col, false, msg
	}
	col += len(fields[0]) + 1

	pos, ok, msg := validatePosition(fields[1])
	if !ok && !fail(col, msg) {
		return nil, col, false, msg
	}
	col += len(fields[1]) + 1

	ids, ok, msg := validateIDs(fields[2])
	if !ok && !fail(col, msg) {
		return nil, col, false, msg
	}
	col += len(fields[2]) + 1

	ref := fields[3]
	if ok, msg := validateReference(fields[3]); !ok && !fail(col, msg) {
		return nil, col, false, msg
	}
	col += len(fields[3]) + 1

	alts, ok, msg := validateAlternates(fields[4])
	if !ok && !fail(col, msg) {
		return nil, col, false, msg
	}
	col += len(fields[4]) + 1

	qual := fields[5]
	if ok, msg := validateQuality(fields[5]); !ok && !fail(col, msg) {
		return nil, col, false, msg
	}
	col += len(fields[5]) + 1

	filters, ok, msg := validateFilterSyntax(fields[6])
	if !ok && !fail(col, msg) {
		return nil, col, false, msg
	}
	col += len(fields[6]) + 1

	infoKeys, infoValues, ok, msg := validateInfoSyntax(fields[7])
	if !ok && !fail(col, msg) {
		return nil, col, false, msg
	}

	record := &Record{
		LineNumber: lineNumber,
		Chromosome: chrom,
		Position:   pos,
		IDs:        ids,
		Reference:  ref,
		Alternates: alts,
		Quality:    qual,
		Filters:    filters,
		InfoKeys:   infoKeys,
		Info:       infoValues,
	}

	if len(fields) > 8 {
		formatCol := col + len(fields[7]) + 1
		keys, ok, msg := validateFormatSyntax(fields[8])
		if !ok && !fail(formatCol, msg) {
			return nil, formatCol, false, msg
		}
		record.Format = keys

		samples := fields[9:]
		if len(samples) != len(p.state.Source.SampleNames) {
			m := "Number of sample columns does not match the number of declared samples"
			if !fail(formatCol, m) {
				return nil, formatCol, false, m
			}
		}
		for i, s := range samples {
			if ok, msg := validateSampleSyntax(s); !ok {
				m := "Sample #" + strconv.Itoa(i+1) + " " + msg
				if !fail(formatCol, m) {
					return nil, formatCol, false, m
				}
			}
		}
		record.Samples = samples
	}

	if failed {
		return record, failCol, false, failMsg
	}
	return record, col, true, ""
}

// error accepts an error diagnostic. An empty message falls back to the
// same generic per-section default Scanner.reportError uses, so the two
// collaborators that ever report grammar errors share one fallback.
func (p *ParsePolicy) error(line, column int, section Section, message string) {
	if message == "" {
		message = defaultSectionMessage(section)
	}
	p.sink.Accept(Diagnostic{Line: line, Column: column, Severity: SeverityError, Section: section, Message: message})
}
