package vcf

import "strconv"

// Checker holds the semantic rules: checks that read from
// ParsingState/Source rather than from a single line's bytes. It runs
// after each accepted meta line, the header line, and each accepted body
// line. Diagnostics are reported through the same Sink the rest of the
// pipeline uses; a Checker never aborts parsing.
//
// Cross-referencing a field against declared meta (FILTER id, INFO
// key+type, ALT symbolic allele) is an error, since those are body-section
// field failures. Recommendations and purely cross-line consistency rules
// (missing reference, missing contig, ploidy, position order) are
// warnings.
type Checker struct {
	state *ParsingState
	sink  *ErrorTracker
}

// NewChecker creates a Checker over state, reporting through sink.
func NewChecker(state *ParsingState, sink *ErrorTracker) *Checker {
	return &Checker{state: state, sink: sink}
}

// AfterMetaLine is a reserved hook for an "after each meta line" trigger.
// ParsePolicy/buildMetaEntry already enforce ID uniqueness, the ALT prefix
// rule, and the Number/Type enumeration at parse time, since those errors
// are all detectable from the line's own grammar plus the set of
// previously-declared IDs; this hook exists so a future cross-meta rule
// has somewhere to live without restructuring the pipeline.
func (c *Checker) AfterMetaLine(entry *MetaEntry) {}

// AfterHeaderLine implements the two "after the header line" checks:
// the reference meta entry is recommended, and sample names must be
// unique.
func (c *Checker) AfterHeaderLine() {
	if !c.state.Source.HasReferenceMeta() {
		c.warn(c.state.LineNumber, SectionHeader, "Missing recommended 'reference' meta-information entry")
	}

	seen := make(map[string]bool, len(c.state.Source.SampleNames))
	for _, name := range c.state.Source.SampleNames {
		if seen[name] {
			c.warn(c.state.LineNumber, SectionHeader, "Duplicate sample name '"+name+"'")
			continue
		}
		seen[name] = true
	}
}

// AfterBodyLine implements every "after each body record" check.
func (c *Checker) AfterBodyLine(r *Record) {
	c.checkContig(r)
	c.checkPositionOrder(r)
	c.checkFilters(r)
	c.checkAlternates(r)
	c.checkInfo(r)
	c.checkPloidy(r)
}

func (c *Checker) checkContig(r *Record) {
	chrom := r.Chromosome
	if c.state.Source.HasContig(chrom) {
		return
	}
	if c.state.badDefinedContigs[chrom] {
		return
	}
	c.state.badDefinedContigs[chrom] = true
	c.warn(r.LineNumber, SectionBody, "No contig meta-information entry declares chromosome '"+chrom+"'")
}

func (c *Checker) checkPositionOrder(r *Record) {
	prev, seen := c.state.maxPosByChrom[r.Chromosome]
	if seen && r.Position < prev {
		c.warn(r.LineNumber, SectionBody,
			"Genomic position "+r.Chromosome+":"+strconv.FormatInt(r.Position, 10)+
				" is listed after "+r.Chromosome+":"+strconv.FormatInt(prev, 10))
		return
	}
	if !seen || r.Position > prev {
		c.state.maxPosByChrom[r.Chromosome] = r.Position
	}
}

func (c *Checker) checkFilters(r *Record) {
	for _, f := range r.Filters {
		if f == "PASS" {
			continue
		}
		if !c.state.Source.HasFilterID(f) {
			c.errf(r.LineNumber, SectionBody, "Filter '"+f+"' does not match 'PASS' or a declared FILTER id")
		}
	}
}

func (c *Checker) checkAlternates(r *Record) {
	for _, alt := range r.Alternates {
		id := symbolicAlleleID(alt)
		if id == "" {
			continue
		}
		if !c.state.Source.HasAltID(id) {
			c.errf(r.LineNumber, SectionBody, "Symbolic allele '<"+id+">' does not match a declared ALT id")
		}
	}
}

func (c *Checker) checkInfo(r *Record) {
	for _, key := range r.InfoKeys {
		value := r.Info[key]
		meta, declared := c.state.Source.InfoMeta(key)
		if !declared {
			if reservedInfoKeys[key] {
				continue
			}
			c.errf(r.LineNumber, SectionBody, "Info key '"+key+"' does not match a declared INFO id or a reserved key")
			continue
		}
		typ := meta.Attributes["Type"]
		if typ == "Flag" {
			if value != "" {
				c.errf(r.LineNumber, SectionBody, "Info key '"+key+"' is declared as Flag and must not have a value")
			}
			continue
		}
		if !infoValueMatchesType(value, typ) {
			c.errf(r.LineNumber, SectionBody, "Info key '"+key+"' value does not match its declared Type "+typ)
		}
	}
}

// checkPloidy enforces an intra-record-only ploidy rule: the first sample
// in a record that looks like a genotype establishes the expected allele
// count for the record, and every later sample in the *same* record must
// match it. Ploidy is never compared across records, even for the same
// sample column.
func (c *Checker) checkPloidy(r *Record) {
	expected := -1
	for i := range r.Samples {
		n, ok := r.SampleAlleleCount(i)
		if !ok {
			continue
		}
		if expected == -1 {
			expected = n
			continue
		}
		if n != expected {
			c.warn(r.LineNumber, SectionBody,
				"Inconsistent ploidy across samples: expected "+strconv.Itoa(expected)+" alleles, found "+strconv.Itoa(n))
			return
		}
	}
}

func (c *Checker) warn(line int, section Section, message string) {
	c.sink.Accept(Diagnostic{Line: line, Severity: SeverityWarning, Section: section, Message: message})
}

func (c *Checker) errf(line int, section Section, message string) {
	c.sink.Accept(Diagnostic{Line: line, Severity: SeverityError, Section: section, Message: message})
}
