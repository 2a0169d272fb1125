package motion

// Canonical normalized outcomes. Any other Outcome value is the trimmed
// original result text passed through unchanged.
const (
	OutcomePassed = "Passed"
	OutcomeFailed = "Failed"
)

// Motion represents one recorded vote event within a meeting.
//
// Title, ResultRaw, and Outcome use "" for "absent" — the source markup
// never produces a present-but-empty title or result element.
// ForNames and AgainstNames preserve document order and are not deduplicated:
// a name appearing twice in the raw text yields two entries.
type Motion struct {
	Title        string   `json:"title,omitempty"`
	ResultRaw    string   `json:"result_raw,omitempty"`
	Outcome      string   `json:"outcome,omitempty"`
	ForNames     []string `json:"for_names"`
	AgainstNames []string `json:"against_names"`
}

// Divided reports whether the motion carries any attributable vote data.
// A motion with no names on either side is an undivided (or unparsable)
// vote and is excluded from final output.
func (m Motion) Divided() bool {
	return len(m.ForNames) > 0 || len(m.AgainstNames) > 0
}

// Dedupe removes repeated motions, keeping the first occurrence of each
// (Title, ResultRaw) pair and preserving order. Matching uses the raw,
// pre-normalization result text. Two motions that both lack a title and a
// result collapse into one; that over-merges legitimately distinct motions
// on badly malformed pages, but such motions carry no vote data worth
// keeping apart anyway.
func Dedupe(motions []Motion) []Motion {
	type key struct {
		title  string
		result string
	}

	seen := make(map[key]bool, len(motions))
	unique := make([]Motion, 0, len(motions))
	for _, m := range motions {
		k := key{title: m.Title, result: m.ResultRaw}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, m)
	}
	return unique
}
