package motion

import "strings"

// Keyword sets for outcome classification. Pass keywords are checked before
// fail keywords; a result text containing both classifies as Passed. That
// ordering is a compatibility tie-break, not a semantic claim — the upstream
// minutes never mix the two.
var (
	passKeywords = []string{"carried", "passed", "adopted"}
	failKeywords = []string{"lost", "failed", "not carried"}
)

// NormalizeOutcome maps free-text result phrases to a canonical outcome.
// An empty input (no result element on the page) stays empty — outcomes are
// never invented. Text matching a pass keyword becomes OutcomePassed, text
// matching a fail keyword becomes OutcomeFailed, and anything else passes
// through trimmed.
func NormalizeOutcome(resultText string) string {
	if resultText == "" {
		return ""
	}

	lower := strings.ToLower(resultText)
	for _, keyword := range passKeywords {
		if strings.Contains(lower, keyword) {
			return OutcomePassed
		}
	}
	for _, keyword := range failKeywords {
		if strings.Contains(lower, keyword) {
			return OutcomeFailed
		}
	}
	return strings.TrimSpace(resultText)
}
