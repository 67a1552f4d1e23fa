package vcf

import "strings"

// Version enumerates the fileformat versions this validator recognizes.
type Version int

const (
	VersionUnknown Version = iota
	Version41
	Version42
	Version43
)

func (v Version) String() string {
	switch v {
	case Version41:
		return "VCFv4.1"
	case Version42:
		return "VCFv4.2"
	case Version43:
		return "VCFv4.3"
	default:
		return "unknown"
	}
}

// ParseVersion resolves a fileformat value (e.g. "VCFv4.1") to a Version.
func ParseVersion(s string) (Version, bool) {
	switch s {
	case "VCFv4.1":
		return Version41, true
	case "VCFv4.2":
		return Version42, true
	case "VCFv4.3":
		return Version43, true
	default:
		return VersionUnknown, false
	}
}

// structuredMetaCategories lists the meta categories whose value is a
// <key=val,...> attribute map rather than a freeform string, and within
// which IDs must be unique.
var structuredMetaCategories = map[string]bool{
	"INFO":     true,
	"FORMAT":   true,
	"FILTER":   true,
	"ALT":      true,
	"contig":   true,
	"SAMPLE":   true,
	"PEDIGREE": true,
}

// IsStructuredCategory reports whether category's meta lines are expected
// to carry a <...> attribute map.
func IsStructuredCategory(category string) bool {
	return structuredMetaCategories[category]
}

// MetaEntry is one ##key=value or ##key=<attr=val,...> line.
type MetaEntry struct {
	LineNumber int
	Category   string
	ID         string            // set for structured categories
	Value      string            // freeform value, when Attributes == nil
	Attributes map[string]string // structured attributes, in categories that require them
	AttrOrder  []string          // attribute insertion order, for round-tripping/debugging
}

// IsStructured reports whether this entry carries an attribute map.
func (m *MetaEntry) IsStructured() bool {
	return m.Attributes != nil
}

// Source is the header description accumulated while scanning meta lines
// and the header line: fileformat version, meta entries, and sample names.
// Once a body record has been accepted no further meta entries or sample
// names may be added; Validator enforces this by simply never calling the
// mutators again after the header line.
type Source struct {
	Filename    string
	Version     Version
	SampleNames []string

	metaByCategory map[string][]*MetaEntry
	metaIDs        map[string]map[string]bool // category -> set of seen IDs
}

// NewSource creates an empty Source for filename (used only in diagnostics;
// may be "").
func NewSource(filename string) *Source {
	return &Source{
		Filename:       filename,
		metaByCategory: make(map[string][]*MetaEntry),
		metaIDs:        make(map[string]map[string]bool),
	}
}

// AddMeta appends e to the source's meta entries. It does not check
// uniqueness; ParsePolicy.EndOfMetaLine does, by consulting HasMetaID
// first.
func (s *Source) AddMeta(e *MetaEntry) {
	s.metaByCategory[e.Category] = append(s.metaByCategory[e.Category], e)
	if e.ID != "" {
		ids, ok := s.metaIDs[e.Category]
		if !ok {
			ids = make(map[string]bool)
			s.metaIDs[e.Category] = ids
		}
		ids[e.ID] = true
	}
}

// HasMetaID reports whether a meta entry with the given category and ID was
// already added. Called before AddMeta by ParsePolicy.EndOfMetaLine to
// detect duplicates.
func (s *Source) HasMetaID(category, id string) bool {
	return s.metaIDs[category] != nil && s.metaIDs[category][id]
}

// MetaByCategory returns all meta entries of the given category, in the
// order they were declared.
func (s *Source) MetaByCategory(category string) []*MetaEntry {
	return s.metaByCategory[category]
}

// MetaByID returns the meta entry of the given category and ID, if any.
func (s *Source) MetaByID(category, id string) (*MetaEntry, bool) {
	for _, e := range s.metaByCategory[category] {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// HasContig reports whether a ##contig meta entry declares name.
func (s *Source) HasContig(name string) bool {
	_, ok := s.MetaByID("contig", name)
	return ok
}

// HasFilterID reports whether a ##FILTER meta entry declares id.
func (s *Source) HasFilterID(id string) bool {
	_, ok := s.MetaByID("FILTER", id)
	return ok
}

// HasAltID reports whether a ##ALT meta entry declares id.
func (s *Source) HasAltID(id string) bool {
	_, ok := s.MetaByID("ALT", id)
	return ok
}

// InfoMeta returns the ##INFO meta entry declaring id, if any.
func (s *Source) InfoMeta(id string) (*MetaEntry, bool) {
	return s.MetaByID("INFO", id)
}

// HasReferenceMeta reports whether a freeform ##reference entry is present.
func (s *Source) HasReferenceMeta() bool {
	return len(s.metaByCategory["reference"]) > 0
}

// Record is a single body line, populated column by column. It exists
// only long enough for the Semantic Checker to consult it; it is never
// retained once end-of-line validation completes — there is no AST kept
// around for downstream tools.
type Record struct {
	LineNumber int
	Chromosome string
	Position   int64
	IDs        []string
	Reference  string
	Alternates []string
	Quality    string // raw; "." or a decimal/scientific literal
	Filters    []string
	InfoKeys   []string          // declaration order
	Info       map[string]string // key -> raw value ("" for flag-only keys)
	Format     []string
	Samples    []string // raw colon-joined per-sample text, one per declared sample
}

// SampleAlleleCount returns the number of genotype alleles in samples[idx],
// determined by counting '/'- or '|'-separated tokens in its first
// colon-delimited sub-value (the GT-like field), and whether that sub-value
// looked like a genotype at all.
func (r *Record) SampleAlleleCount(idx int) (count int, looksLikeGenotype bool) {
	if idx < 0 || idx >= len(r.Samples) {
		return 0, false
	}
	sample := r.Samples[idx]
	first := sample
	if i := strings.IndexByte(sample, ':'); i >= 0 {
		first = sample[:i]
	}
	if first == "." {
		return 1, true
	}
	if !looksLikeGenotypeToken(first) {
		return 0, false
	}
	n := 1
	for i := 0; i < len(first); i++ {
		if first[i] == '/' || first[i] == '|' {
			n++
		}
	}
	return n, true
}

func looksLikeGenotypeToken(tok string) bool {
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c >= '0' && c <= '9':
		case c == '/' || c == '|' || c == '.':
		default:
			return false
		}
	}
	return true
}

// ParsingState is the process-wide state shared by the Parse Policy and the
// Semantic Checker for a single scan. Callers must construct a fresh
// instance per scan: there is no reset operation.
type ParsingState struct {
	Source *Source

	// RecordCount is the number of body records accepted so far. Full
	// records are not retained (see Record's doc comment); only the
	// aggregates below survive across lines.
	RecordCount int

	LineNumber   int
	ColumnNumber int

	badDefinedContigs map[string]bool
	maxPosByChrom     map[string]int64
}

// NewParsingState creates the shared state for one scan of filename.
func NewParsingState(filename string) *ParsingState {
	return &ParsingState{
		Source:            NewSource(filename),
		badDefinedContigs: make(map[string]bool),
		maxPosByChrom:     make(map[string]int64),
	}
}
