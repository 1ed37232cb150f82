package chunkers

import (
	"regexp"
	"strings"
	"unicode"
)

// Structural header patterns. Kept as package data so they can be tested
// independently of the scanning control flow.
var (
	// numberedSectionRegex matches numbered section headings such as
	// "1. Introduction", "2.1 Background" and "2.1. Background".
	numberedSectionRegex = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+[A-Z]`)

	// ruleLineRegex matches underline rules of repeated = or - characters
	ruleLineRegex = regexp.MustCompile(`^[=\-]{3,}$`)
)

const maxHeaderWords = 5

// IsSectionHeader classifies a line as a structural section header:
// a markdown heading, a numbered section, a short all-caps line, or an
// underline rule. It is a pure predicate with no state.
func IsSectionHeader(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if strings.HasPrefix(line, "#") {
		return true
	}

	if numberedSectionRegex.MatchString(line) {
		return true
	}

	if isAllUpper(line) && len(strings.Fields(line)) <= maxHeaderWords {
		return true
	}

	return ruleLineRegex.MatchString(line)
}

// isAllUpper reports whether the line contains at least one letter and no
// lower-case letters.
func isAllUpper(line string) bool {
	hasLetter := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
