package sync

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/council-votes/internal/config"
	"github.com/pfrederiksen/council-votes/internal/escribe"
	"github.com/pfrederiksen/council-votes/internal/logger"
	"github.com/pfrederiksen/council-votes/internal/motion"
	"github.com/pfrederiksen/council-votes/internal/store"
)

// Vote values written to the destination store.
const (
	voteYes = "Yes"
	voteNo  = "No"
)

// Tables names the destination tables for the three record kinds plus the
// councillor identity table.
type Tables struct {
	Meetings    string
	Motions     string
	Votes       string
	Councillors string
}

// TablesFromConfig pulls the configured table names.
func TablesFromConfig(cfg config.Config) Tables {
	return Tables{
		Meetings:    cfg.MeetingsTable,
		Motions:     cfg.MotionsTable,
		Votes:       cfg.VotesTable,
		Councillors: cfg.CouncillorsTable,
	}
}

// Uploader writes parsed motions to the destination store. The councillor
// name cache lives for the life of the Uploader: one per batch run, so
// repeated names across meetings resolve without redundant lookups, and a
// new run starts with a fresh cache.
type Uploader struct {
	store  store.RecordStore
	tables Tables
	dryRun bool

	nameCache         map[string]string
	councillors       []store.Record
	councillorsLoaded bool
}

// NewUploader builds an uploader over the given store. With dryRun set,
// Run logs what it would write and performs no store calls.
func NewUploader(st store.RecordStore, tables Tables, dryRun bool) *Uploader {
	return &Uploader{
		store:     st,
		tables:    tables,
		dryRun:    dryRun,
		nameCache: make(map[string]string),
	}
}

// Run uploads one meeting and its motions, returning a Result per unit of
// work. A failed unit is logged and skipped; the rest of the batch runs.
func (u *Uploader) Run(ctx context.Context, meeting escribe.Meeting, motions []motion.Motion) []Result {
	results := make([]Result, 0, len(motions)+1)

	if u.dryRun {
		for _, m := range motions {
			logger.Info("Dry run: would upload motion", logger.Fields{
				"meeting":       meeting.ExternalID(),
				"title":         m.Title,
				"outcome":       m.Outcome,
				"for_count":     len(m.ForNames),
				"against_count": len(m.AgainstNames),
			})
			results = append(results, Result{Unit: motionUnit(m), Status: StatusSkipped, Reason: "dry run"})
		}
		return results
	}

	meetingRecID, meetingResult := u.upsertMeeting(ctx, meeting)
	results = append(results, meetingResult)
	if meetingResult.Status == StatusFailed {
		return results
	}

	for _, m := range motions {
		if !m.Divided() {
			results = append(results, Result{Unit: motionUnit(m), Status: StatusSkipped, Reason: "no recorded votes"})
			continue
		}

		motionRec, err := u.store.Create(ctx, u.tables.Motions, map[string]interface{}{
			"Meeting":       []string{meetingRecID},
			"Motion Title":  m.Title,
			"Result":        m.ResultRaw,
			"Outcome":       m.Outcome,
			"For Count":     len(m.ForNames),
			"Against Count": len(m.AgainstNames),
		})
		if err != nil {
			logger.Error("Failed to upload motion", logger.Fields{
				"meeting": meeting.ExternalID(),
				"title":   m.Title,
			}, err)
			logger.IncrCounter("records.failed")
			results = append(results, Result{Unit: motionUnit(m), Status: StatusFailed, Reason: "motion create failed", Err: err})
			continue
		}

		logger.Info("Uploaded motion", logger.Fields{
			"title":         m.Title,
			"for_count":     len(m.ForNames),
			"against_count": len(m.AgainstNames),
		})
		logger.IncrCounter("records.created")
		results = append(results, Result{Unit: motionUnit(m), Status: StatusCreated})

		results = append(results, u.uploadVotes(ctx, motionRec.ID, m)...)
	}

	return results
}

// upsertMeeting creates the meeting record unless one with the same portal
// ID already exists, in which case the existing record is reused.
func (u *Uploader) upsertMeeting(ctx context.Context, meeting escribe.Meeting) (string, Result) {
	unit := "meeting:" + meeting.ExternalID()

	existing, err := u.store.FindByField(ctx, u.tables.Meetings, "Meeting ID", meeting.ExternalID())
	if err != nil {
		logger.Error("Failed to query for existing meeting", logger.Fields{"meeting": meeting.ExternalID()}, err)
		logger.IncrCounter("records.failed")
		return "", Result{Unit: unit, Status: StatusFailed, Reason: "meeting lookup failed", Err: err}
	}

	if len(existing) > 0 {
		logger.Info("Meeting already uploaded, reusing record", logger.Fields{
			"meeting":   meeting.ExternalID(),
			"record_id": existing[0].ID,
		})
		return existing[0].ID, Result{Unit: unit, Status: StatusSkipped, Reason: "meeting already exists"}
	}

	rec, err := u.store.Create(ctx, u.tables.Meetings, map[string]interface{}{
		"Meeting ID":   meeting.ExternalID(),
		"Meeting Name": meeting.MeetingName,
		"Date":         meeting.StartDate,
		"URL":          meeting.URL,
	})
	if err != nil {
		logger.Error("Failed to create meeting record", logger.Fields{"meeting": meeting.ExternalID()}, err)
		logger.IncrCounter("records.failed")
		return "", Result{Unit: unit, Status: StatusFailed, Reason: "meeting create failed", Err: err}
	}

	logger.IncrCounter("records.created")
	return rec.ID, Result{Unit: unit, Status: StatusCreated}
}

// uploadVotes writes one Vote record per name, For rows as Yes and Against
// rows as No, preserving document order.
func (u *Uploader) uploadVotes(ctx context.Context, motionRecID string, m motion.Motion) []Result {
	results := make([]Result, 0, len(m.ForNames)+len(m.AgainstNames))
	for _, name := range m.ForNames {
		results = append(results, u.uploadVote(ctx, motionRecID, name, voteYes))
	}
	for _, name := range m.AgainstNames {
		results = append(results, u.uploadVote(ctx, motionRecID, name, voteNo))
	}
	return results
}

func (u *Uploader) uploadVote(ctx context.Context, motionRecID, name, value string) Result {
	unit := fmt.Sprintf("vote:%s=%s", name, value)

	councillorID, err := u.resolveCouncillor(ctx, name)
	if err != nil {
		logger.Error("Failed to resolve councillor", logger.Fields{"name": name}, err)
		logger.IncrCounter("records.failed")
		return Result{Unit: unit, Status: StatusFailed, Reason: "councillor resolution failed", Err: err}
	}

	_, err = u.store.Create(ctx, u.tables.Votes, map[string]interface{}{
		"Motion":     []string{motionRecID},
		"Councillor": []string{councillorID},
		"Vote":       value,
	})
	if err != nil {
		logger.Error("Failed to create vote record", logger.Fields{"name": name}, err)
		logger.IncrCounter("records.failed")
		return Result{Unit: unit, Status: StatusFailed, Reason: "vote create failed", Err: err}
	}

	logger.IncrCounter("votes.created")
	return Result{Unit: unit, Status: StatusCreated}
}

func motionUnit(m motion.Motion) string {
	if m.Title == "" {
		return "motion:(untitled)"
	}
	return "motion:" + m.Title
}
