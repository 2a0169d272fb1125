package motion

import (
	"regexp"
	"strings"
	"unicode"
)

// conjunctionPattern matches a standalone "and" joining the final two names
// in a list ("B. Jones and C. Lee"). Word boundaries keep it from firing
// inside names; a real name containing the bare word "and" is a known
// false-positive risk the source convention never triggers.
var conjunctionPattern = regexp.MustCompile(`(?i)\band\b`)

// SplitNames splits a free-text cell naming one or more councillors into an
// ordered list of clean individual names. Conjunctions become delimiters,
// the text is split on commas and semicolons, and each fragment is trimmed
// of surrounding punctuation and whitespace (including non-breaking spaces)
// with internal whitespace runs collapsed to a single space. Fragments that
// are empty after cleaning are dropped.
func SplitNames(text string) []string {
	delimited := conjunctionPattern.ReplaceAllString(text, ",")

	fragments := strings.FieldsFunc(delimited, func(r rune) bool {
		return r == ',' || r == ';'
	})

	names := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		name := cleanName(fragment)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// cleanName collapses internal whitespace and strips leading/trailing
// punctuation and whitespace. strings.Fields treats the non-breaking space
// as whitespace, so "A. Smith" normalizes to "A. Smith".
func cleanName(fragment string) string {
	collapsed := strings.Join(strings.Fields(fragment), " ")
	return strings.TrimFunc(collapsed, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}
