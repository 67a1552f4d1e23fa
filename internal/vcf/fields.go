package vcf

import (
	"regexp"
	"strconv"
	"strings"
)

// The functions in this file are per-field sub-grammars: each body column
// has its own small, local, non-backtracking acceptance rule, independent
// of the top-level line scanner. None of them consult Source;
// cross-referencing a field against declared meta entries (e.g. "is this
// FILTER id declared?") happens in the Semantic Checker, since it needs
// state the grammar alone doesn't have.

var (
	reservedInfoKeys = map[string]bool{
		"AA": true, "AC": true, "AF": true, "AN": true, "BQ": true,
		"CIGAR": true, "DB": true, "DP": true, "END": true, "H2": true,
		"H3": true, "MQ": true, "MQ0": true, "NS": true, "SB": true,
		"SOMATIC": true, "VALIDATED": true, "1000G": true,
	}

	symbolicAllelePattern = regexp.MustCompile(`^<[^<>\s]+>$`)
	breakendPattern        = regexp.MustCompile(`^([A-Za-z]*)([\[\]])([^\[\]:\s]+):(\d+)([\[\]])([A-Za-z]*)$`)
	altIDPattern           = regexp.MustCompile(`^<([^<>\s]+)>$`)
)

func isBaseAlphabet(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n':
		return true
	default:
		return false
	}
}

func isBaseString(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isBaseAlphabet(s[i]) {
			return false
		}
	}
	return true
}

func hasWhitespace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			return true
		}
	}
	return false
}

// validateChromosome checks the chromosome grammar: no colon or
// whitespace, optionally wrapped in <...>.
func validateChromosome(s string) (ok bool, msg string) {
	if s == "" {
		return false, "Chromosome must not be empty"
	}
	body := s
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		body = s[1 : len(s)-1]
	}
	if body == "" || strings.ContainsAny(body, ":") || hasWhitespace(body) {
		return false, "Chromosome must not contain colons or whitespace"
	}
	return true, ""
}

// validatePosition checks the position grammar: a non-negative integer,
// no negative sentinel.
func validatePosition(s string) (pos int64, ok bool, msg string) {
	if s == "" {
		return 0, false, "Position must be a positive number"
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false, "Position must be a positive number"
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false, "Position must be a positive number"
	}
	return v, true, ""
}

// validateIDs checks the ids column: "." or a semicolon-separated list of
// whitespace-free strings.
func validateIDs(s string) (ids []string, ok bool, msg string) {
	if s == "." {
		return nil, true, ""
	}
	if s == "" {
		return nil, false, "Id must not be empty"
	}
	parts := strings.Split(s, ";")
	for _, p := range parts {
		if p == "" || hasWhitespace(p) {
			return nil, false, "Id must be a semicolon-separated list of non-empty, whitespace-free identifiers"
		}
	}
	return parts, true, ""
}

// validateReference checks the ref column: non-empty over {A,C,G,T,N} (case
// insensitive).
func validateReference(s string) (ok bool, msg string) {
	if !isBaseString(s) {
		return false, "Reference allele must be a non-empty sequence of A,C,G,T,N bases"
	}
	return true, ""
}

// validateAlternates checks the alt column's grammar (shape only; whether a
// symbolic allele's ID is actually declared in ALT meta is a cross-section
// check performed by the Semantic Checker). Accepts "." alone, or a
// comma-separated list where each element is a base string, a symbolic
// allele <ID>, a breakend expression, or "*".
func validateAlternates(s string) (alts []string, ok bool, msg string) {
	if s == "." {
		return nil, true, ""
	}
	if s == "" {
		return nil, false, "Alternate allele must not be empty"
	}
	parts := strings.Split(s, ",")
	for _, p := range parts {
		if !validAlternateElement(p) {
			return nil, false, "Alternate allele must be a base sequence, a symbolic allele, a breakend, or '*'"
		}
	}
	return parts, true, ""
}

func validAlternateElement(s string) bool {
	switch {
	case s == "*":
		return true
	case s == ".":
		return true
	case isBaseString(s):
		return true
	case symbolicAllelePattern.MatchString(s):
		return true
	case breakendPattern.MatchString(s):
		return true
	default:
		return false
	}
}

// symbolicAlleleID extracts the ID from a symbolic allele "<ID>", or ""
// if s is not a symbolic allele.
func symbolicAlleleID(s string) string {
	m := altIDPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// validateQuality checks the qual column: "." or a non-negative decimal
// number, including scientific notation.
func validateQuality(s string) (ok bool, msg string) {
	if s == "." {
		return true, ""
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return false, "Quality must be '.' or a non-negative number"
	}
	return true, ""
}

// validateFilterSyntax checks the filter column's grammar: "." or a
// semicolon-separated list of identifiers. Membership in PASS/declared
// FILTER ids is checked by the Semantic Checker.
func validateFilterSyntax(s string) (filters []string, ok bool, msg string) {
	if s == "." {
		return nil, true, ""
	}
	if s == "" {
		return nil, false, "Filter must not be empty"
	}
	parts := strings.Split(s, ";")
	for _, p := range parts {
		if p == "" || hasWhitespace(p) {
			return nil, false, "Filter must be a semicolon-separated list of non-empty, whitespace-free identifiers"
		}
	}
	return parts, true, ""
}

// validateInfoSyntax checks the info column's shape: "." or a
// semicolon-separated list of key[=value] pairs with alphanumeric keys.
// Whether a key is declared, and whether its value matches the declared
// Number/Type, is checked by the Semantic Checker (it needs Source).
func validateInfoSyntax(s string) (keys []string, values map[string]string, ok bool, msg string) {
	if s == "." {
		return nil, nil, true, ""
	}
	if s == "" {
		return nil, nil, false, "Info must not be empty"
	}
	values = make(map[string]string)
	for _, pair := range strings.Split(s, ";") {
		if pair == "" {
			return nil, nil, false, "Info must be a semicolon-separated list of key[=value] pairs"
		}
		key := pair
		val := ""
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
			val = pair[i+1:]
		}
		if key == "" || !isAlphanumericKey(key) {
			return nil, nil, false, "Info key must be alphanumeric"
		}
		if _, dup := values[key]; dup {
			return nil, nil, false, "Info key '" + key + "' repeated within the same record"
		}
		keys = append(keys, key)
		values[key] = val
	}
	return keys, values, true, ""
}

func isAlphanumericKey(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '.') {
			return false
		}
	}
	return true
}

// validateFormatSyntax checks the format column's shape: a colon-separated
// list of alphanumeric keys, the first of which must be GT when samples are
// genotyped (not enforced here; that is left to callers that care).
func validateFormatSyntax(s string) (keys []string, ok bool, msg string) {
	if s == "" {
		return nil, false, "Format must not be empty"
	}
	parts := strings.Split(s, ":")
	for _, p := range parts {
		if !isAlphanumericKey(p) {
			return nil, false, "Format must be a colon-separated list of alphanumeric keys"
		}
	}
	return parts, true, ""
}

// validateSampleSyntax checks that a sample's first colon-delimited
// sub-value looks like a genotype: digits or '.' separated by '/' or '|'.
func validateSampleSyntax(s string) (ok bool, msg string) {
	first := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		first = s[:i]
	}
	if first == "." {
		return true, ""
	}
	if !looksLikeGenotypeToken(first) || first == "" {
		return false, "does not start with a valid genotype"
	}
	return true, ""
}

// numberIsWellFormed reports whether a declared INFO/FORMAT Number
// attribute ("A", "R", "G", ".", or a non-negative integer string) is
// itself well-formed.
func numberIsWellFormed(number string) bool {
	switch number {
	case "A", "R", "G", ".":
		return true
	}
	if number == "" {
		return false
	}
	for i := 0; i < len(number); i++ {
		if number[i] < '0' || number[i] > '9' {
			return false
		}
	}
	return true
}

var validInfoTypes = map[string]bool{
	"Integer": true, "Float": true, "Flag": true, "Character": true, "String": true,
}

func typeIsWellFormed(t string) bool {
	return validInfoTypes[t]
}

// infoValueMatchesType performs a light check that value's shape is
// consistent with typ (Integer/Float/Flag/Character/String), allowing
// comma-separated lists per Number > 1. Flag values must be empty (the key
// appeared with no "=value").
func infoValueMatchesType(value string, typ string) bool {
	switch typ {
	case "Flag":
		return value == ""
	case "Integer":
		return allMatch(value, isIntegerToken)
	case "Float":
		return allMatch(value, isFloatToken)
	case "Character":
		return allMatch(value, func(s string) bool { return len(s) == 1 })
	default: // String
		return true
	}
}

func allMatch(commaList string, pred func(string) bool) bool {
	if commaList == "" {
		return false
	}
	for _, v := range strings.Split(commaList, ",") {
		if v == "." {
			continue
		}
		if !pred(v) {
			return false
		}
	}
	return true
}

func isIntegerToken(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloatToken(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
