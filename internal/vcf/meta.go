package vcf

import (
	"regexp"
	"strings"
)

// altIDPrefixes lists the structural-variant prefixes required for ##ALT
// meta IDs: DEL, INS, DUP, INV, CNV, optionally followed by ":subtype".
var altIDPrefixes = []string{"DEL", "INS", "DUP", "INV", "CNV"}

func hasValidAltIDPrefix(id string) bool {
	head := id
	if i := strings.IndexByte(id, ':'); i >= 0 {
		head = id[:i]
	}
	for _, p := range altIDPrefixes {
		if head == p {
			return true
		}
	}
	return false
}

var metaIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// buildMetaEntry assembles the MetaEntry for a meta line from its key
// (recorded by RecordMetaKey when the Scanner closed the "##key=" token)
// and its value (the token RecordMetaKey's companion EndOfMetaLine call
// just closed, either a freeform string or a "<...>" attribute list).
// Only grammar-level validity is checked here: required attributes, ID
// character class, Number/Type enumeration membership, ALT prefix. Meta ID
// *uniqueness* is a cross-line concern and is checked by the caller
// (ParsePolicy.EndOfMetaLine), which has access to Source.
func buildMetaEntry(lineNumber int, key, value string) (*MetaEntry, bool, string) {
	if key == "" {
		return nil, false, "Meta-information key must not be empty"
	}

	if !strings.HasPrefix(value, "<") || !strings.HasSuffix(value, ">") {
		return &MetaEntry{LineNumber: lineNumber, Category: key, Value: value}, true, ""
	}

	attrs, order, ok := parseStructuredAttributes(value[1 : len(value)-1])
	if !ok {
		return nil, false, "Meta-information attributes must be a comma-separated list of key=value pairs"
	}

	entry := &MetaEntry{LineNumber: lineNumber, Category: key, Attributes: attrs, AttrOrder: order}

	id, hasID := attrs["ID"]
	if !hasID || id == "" {
		return nil, false, "Meta-information entry of category '" + key + "' is missing a required ID attribute"
	}
	idChars := id
	if key == "ALT" {
		// ALT IDs may carry a ":subtype" suffix (e.g. DEL:ME).
		idChars = strings.ReplaceAll(id, ":", "")
	}
	if !metaIDPattern.MatchString(idChars) {
		return nil, false, "Meta-information ID must contain only alphanumerics, '.', and '_'"
	}
	entry.ID = id

	if key == "ALT" && !hasValidAltIDPrefix(id) {
		return nil, false, "ALT ID must begin with one of DEL, INS, DUP, INV, CNV"
	}

	if key == "INFO" || key == "FORMAT" {
		number, hasNumber := attrs["Number"]
		if !hasNumber || !numberIsWellFormed(number) {
			return nil, false, "Number attribute must be a non-negative integer, 'A', 'R', 'G', or '.'"
		}
		typ, hasType := attrs["Type"]
		if !hasType || !typeIsWellFormed(typ) {
			return nil, false, "Type attribute must be one of Integer, Float, Flag, Character, String"
		}
		if _, hasDescription := attrs["Description"]; !hasDescription {
			return nil, false, "Meta-information entry of category '" + key + "' is missing a required Description attribute"
		}
	}

	if key == "FILTER" {
		if _, hasDescription := attrs["Description"]; !hasDescription {
			return nil, false, "FILTER meta-information entry is missing a required Description attribute"
		}
	}

	return entry, true, ""
}

// parseStructuredAttributes parses the inner text of a <...> meta value
// into an ordered key=value map. Values may be double-quoted to allow
// embedded commas (e.g. Description="a, b").
func parseStructuredAttributes(s string) (attrs map[string]string, order []string, ok bool) {
	attrs = make(map[string]string)
	i := 0
	for i < len(s) {
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			return nil, nil, false
		}
		eq += i
		key := strings.TrimSpace(s[i:eq])
		if key == "" {
			return nil, nil, false
		}

		valStart := eq + 1
		var val string
		var next int
		if valStart < len(s) && s[valStart] == '"' {
			end := valStart + 1
			for end < len(s) && !(s[end] == '"' && s[end-1] != '\\') {
				end++
			}
			if end >= len(s) {
				return nil, nil, false
			}
			val = s[valStart+1 : end]
			next = end + 1
			for next < len(s) && s[next] == ' ' {
				next++
			}
			if next < len(s) && s[next] != ',' {
				return nil, nil, false
			}
			next++
		} else {
			comma := strings.IndexByte(s[valStart:], ',')
			if comma < 0 {
				val = s[valStart:]
				next = len(s)
			} else {
				val = s[valStart : valStart+comma]
				next = valStart + comma + 1
			}
		}

		if _, dup := attrs[key]; dup {
			return nil, nil, false
		}
		attrs[key] = val
		order = append(order, key)
		i = next
	}
	return attrs, order, true
}
