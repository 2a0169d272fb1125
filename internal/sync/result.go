package sync

// Status classifies the outcome of one unit of upload work.
type Status string

const (
	StatusCreated Status = "created"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result describes what happened to one unit of work: a meeting record, a
// motion record, or a single vote record.
type Result struct {
	Unit   string
	Status Status
	Reason string
	Err    error
}

// Summary aggregates results for end-of-run reporting.
type Summary struct {
	Created int
	Skipped int
	Failed  int
}

// Summarize tallies results by status.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusCreated:
			s.Created++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
