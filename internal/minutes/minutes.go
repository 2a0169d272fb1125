package minutes

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/council-votes/internal/logger"
	"github.com/pfrederiksen/council-votes/internal/motion"
)

// Selectors for the eScribe post-minutes markup convention.
const (
	agendaItemSelector = ".AgendaItemContainer"
	titleSelector      = ".AgendaItemTitle a"
	resultSelector     = ".MotionResult"
	voterTableSelector = ".MotionVoters"
	voteLabelSelector  = ".VoterVote"
	voteNamesSelector  = ".VotesUsers"
)

// side classifies a voter-table row by its label cell.
type side int

const (
	sideUnknown side = iota
	sideFor
	sideAgainst
)

// classifyVoteRow labels a voter row from its label cell text. The "against"
// check runs first so a label containing both words ("Those voting against
// for clarity") is never misread as a For row. Rows matching neither word
// are skipped.
func classifyVoteRow(label string) side {
	lower := strings.ToLower(label)
	if strings.Contains(lower, "against") {
		return sideAgainst
	}
	if strings.Contains(lower, "for") {
		return sideFor
	}
	return sideUnknown
}

// Parse extracts the recorded votes from one minutes document. It returns
// the deduplicated motions that carry attributable vote data, in document
// order. Undivided motions (no names on either side) are dropped at final
// assembly; the pre-filter item count remains visible in the debug log.
func Parse(r io.Reader) ([]motion.Motion, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	all := make([]motion.Motion, 0)
	doc.Find(agendaItemSelector).Each(func(i int, item *goquery.Selection) {
		all = append(all, extractMotion(item))
	})

	deduped := motion.Dedupe(all)

	divided := make([]motion.Motion, 0, len(deduped))
	for _, m := range deduped {
		if m.Divided() {
			divided = append(divided, m)
		}
	}

	logger.Debug("Parsed minutes page", logger.Fields{
		"agenda_items":    len(all),
		"divided_motions": len(divided),
	})

	return divided, nil
}

// extractMotion builds a Motion from one agenda-item fragment. Missing
// title, result, or voter table yield empty fields, never an error. Every
// row of the voter table is classified and its names accumulated, so a page
// that splits one side across rows loses nothing.
func extractMotion(item *goquery.Selection) motion.Motion {
	m := motion.Motion{
		ForNames:     make([]string, 0),
		AgainstNames: make([]string, 0),
	}

	if title := item.Find(titleSelector).First(); title.Length() > 0 {
		m.Title = strings.TrimSpace(title.Text())
	}

	if result := item.Find(resultSelector).First(); result.Length() > 0 {
		m.ResultRaw = strings.TrimSpace(result.Text())
		m.Outcome = motion.NormalizeOutcome(m.ResultRaw)
	}

	item.Find(voterTableSelector).First().Find("tr").Each(func(i int, row *goquery.Selection) {
		label := row.Find(voteLabelSelector).First()
		names := row.Find(voteNamesSelector).First()
		if label.Length() == 0 || names.Length() == 0 {
			return
		}

		switch classifyVoteRow(label.Text()) {
		case sideFor:
			m.ForNames = append(m.ForNames, motion.SplitNames(names.Text())...)
		case sideAgainst:
			m.AgainstNames = append(m.AgainstNames, motion.SplitNames(names.Text())...)
		}
	})

	return m
}
