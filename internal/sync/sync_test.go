package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/pfrederiksen/council-votes/internal/escribe"
	"github.com/pfrederiksen/council-votes/internal/localstore"
	"github.com/pfrederiksen/council-votes/internal/motion"
	"github.com/pfrederiksen/council-votes/internal/store"
)

var testTables = Tables{
	Meetings:    "Meetings",
	Motions:     "Motions",
	Votes:       "Votes",
	Councillors: "Councillors",
}

// fakeStore is an in-memory RecordStore with programmable create failures.
type fakeStore struct {
	records     map[string][]store.Record
	failCreates map[string]int // table -> remaining create calls to fail
	createCalls int
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:     make(map[string][]store.Record),
		failCreates: make(map[string]int),
	}
}

func (f *fakeStore) seed(table string, fields map[string]interface{}) store.Record {
	f.nextID++
	rec := store.Record{ID: fmt.Sprintf("rec%d", f.nextID), Fields: fields}
	f.records[table] = append(f.records[table], rec)
	return rec
}

func (f *fakeStore) Create(ctx context.Context, table string, fields map[string]interface{}) (store.Record, error) {
	f.createCalls++
	if f.failCreates[table] > 0 {
		f.failCreates[table]--
		return store.Record{}, errors.New("transient error")
	}
	return f.seed(table, fields), nil
}

func (f *fakeStore) FindByField(ctx context.Context, table, field, value string) ([]store.Record, error) {
	matches := make([]store.Record, 0)
	for _, rec := range f.records[table] {
		if v, ok := rec.Fields[field]; ok && fmt.Sprint(v) == value {
			matches = append(matches, rec)
		}
	}
	return matches, nil
}

func (f *fakeStore) List(ctx context.Context, table string) ([]store.Record, error) {
	return f.records[table], nil
}

func (f *fakeStore) BatchDelete(ctx context.Context, table string, ids []string) error {
	remaining := make([]store.Record, 0)
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	for _, rec := range f.records[table] {
		if !drop[rec.ID] {
			remaining = append(remaining, rec)
		}
	}
	f.records[table] = remaining
	return nil
}

func testMeeting() escribe.Meeting {
	return escribe.Meeting{
		ID:          json.Number("4021"),
		MeetingName: "City Council",
		StartDate:   "2023-05-10T10:00:00",
		URL:         "Meeting.aspx?Id=4021",
	}
}

func TestRunCreatesAllRecords(t *testing.T) {
	fake := newFakeStore()
	uploader := NewUploader(fake, testTables, false)

	motions := []motion.Motion{
		{
			Title:        "Item 5",
			ResultRaw:    "Carried (2 to 1)",
			Outcome:      "Passed",
			ForNames:     []string{"A. Smith", "B. Jones"},
			AgainstNames: []string{"C. Lee"},
		},
	}

	results := uploader.Run(context.Background(), testMeeting(), motions)

	summary := Summarize(results)
	if summary.Failed != 0 {
		t.Fatalf("unexpected failures: %+v", results)
	}

	if got := len(fake.records["Meetings"]); got != 1 {
		t.Errorf("meetings created = %d, want 1", got)
	}
	if got := len(fake.records["Motions"]); got != 1 {
		t.Errorf("motions created = %d, want 1", got)
	}
	if got := len(fake.records["Votes"]); got != 3 {
		t.Errorf("votes created = %d, want 3", got)
	}
	if got := len(fake.records["Councillors"]); got != 3 {
		t.Errorf("councillors created = %d, want 3", got)
	}

	motionRec := fake.records["Motions"][0]
	if motionRec.Fields["For Count"] != 2 || motionRec.Fields["Against Count"] != 1 {
		t.Errorf("unexpected counts: %v", motionRec.Fields)
	}
	meetingLink := motionRec.Fields["Meeting"].([]string)
	if meetingLink[0] != fake.records["Meetings"][0].ID {
		t.Errorf("motion not linked to meeting record")
	}

	votes := fake.records["Votes"]
	expectedValues := []string{"Yes", "Yes", "No"}
	for i, expected := range expectedValues {
		if votes[i].Fields["Vote"] != expected {
			t.Errorf("vote %d value = %v, want %s", i, votes[i].Fields["Vote"], expected)
		}
	}
}

func TestRunSkipsExistingMeeting(t *testing.T) {
	fake := newFakeStore()
	existing := fake.seed("Meetings", map[string]interface{}{"Meeting ID": "4021"})

	uploader := NewUploader(fake, testTables, false)
	motions := []motion.Motion{
		{Title: "Item 5", ResultRaw: "Carried", ForNames: []string{"A. Smith"}},
	}

	results := uploader.Run(context.Background(), testMeeting(), motions)

	if got := len(fake.records["Meetings"]); got != 1 {
		t.Errorf("meetings = %d, want 1 (no duplicate created)", got)
	}
	if results[0].Status != StatusSkipped {
		t.Errorf("meeting result = %v, want skipped", results[0])
	}

	motionRec := fake.records["Motions"][0]
	if motionRec.Fields["Meeting"].([]string)[0] != existing.ID {
		t.Errorf("motion should link to the existing meeting record")
	}
}

func TestRunIdempotentAgainstRealStore(t *testing.T) {
	db, err := localstore.Open(filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("opening localstore: %v", err)
	}
	defer db.Close()

	uploader := NewUploader(db, testTables, false)
	motions := []motion.Motion{
		{Title: "Item 5", ResultRaw: "Lost", Outcome: "Failed", AgainstNames: []string{"C. Lee"}},
	}

	ctx := context.Background()
	uploader.Run(ctx, testMeeting(), motions)
	uploader.Run(ctx, testMeeting(), motions)

	meetings, err := db.FindByField(ctx, "Meetings", "Meeting ID", "4021")
	if err != nil {
		t.Fatalf("FindByField failed: %v", err)
	}
	if len(meetings) != 1 {
		t.Errorf("expected exactly one meeting record after two runs, got %d", len(meetings))
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	fake := newFakeStore()
	uploader := NewUploader(fake, testTables, true)

	motions := []motion.Motion{
		{Title: "Item 5", ResultRaw: "Carried", ForNames: []string{"A. Smith"}},
	}

	results := uploader.Run(context.Background(), testMeeting(), motions)

	if fake.createCalls != 0 {
		t.Errorf("dry run performed %d store calls", fake.createCalls)
	}
	for _, r := range results {
		if r.Status != StatusSkipped {
			t.Errorf("dry run result = %+v, want skipped", r)
		}
	}
}

func TestRunContinuesAfterMotionFailure(t *testing.T) {
	fake := newFakeStore()
	fake.failCreates["Motions"] = 1 // first motion create fails

	uploader := NewUploader(fake, testTables, false)
	motions := []motion.Motion{
		{Title: "Item 5", ResultRaw: "Carried", ForNames: []string{"A. Smith"}},
		{Title: "Item 6", ResultRaw: "Lost", AgainstNames: []string{"B. Jones"}},
	}

	results := uploader.Run(context.Background(), testMeeting(), motions)

	summary := Summarize(results)
	if summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Failed)
	}

	if got := len(fake.records["Motions"]); got != 1 {
		t.Errorf("motions created = %d, want 1", got)
	}
	// No votes for the failed motion; one vote for the surviving one
	if got := len(fake.records["Votes"]); got != 1 {
		t.Errorf("votes created = %d, want 1", got)
	}
}

func TestRunSkipsUndividedMotions(t *testing.T) {
	fake := newFakeStore()
	uploader := NewUploader(fake, testTables, false)

	motions := []motion.Motion{
		{Title: "Adoption of Minutes", ResultRaw: "Carried"},
	}

	results := uploader.Run(context.Background(), testMeeting(), motions)

	if got := len(fake.records["Motions"]); got != 0 {
		t.Errorf("undivided motion was uploaded")
	}
	// Result 0 is the meeting, result 1 the skipped motion
	if results[1].Status != StatusSkipped {
		t.Errorf("motion result = %+v, want skipped", results[1])
	}
}

func TestResolveCouncillorCacheAndReuse(t *testing.T) {
	fake := newFakeStore()
	uploader := NewUploader(fake, testTables, false)

	motions := []motion.Motion{
		{Title: "Item 5", ResultRaw: "Carried", ForNames: []string{"A. Smith"}},
		{Title: "Item 6", ResultRaw: "Lost", AgainstNames: []string{"A. Smith"}},
	}

	uploader.Run(context.Background(), testMeeting(), motions)

	if got := len(fake.records["Councillors"]); got != 1 {
		t.Errorf("councillors created = %d, want 1 (cached across motions)", got)
	}
}

func TestResolveCouncillorLastNameFallback(t *testing.T) {
	fake := newFakeStore()
	existing := fake.seed("Councillors", map[string]interface{}{"Name": "Wilson Lo"})

	uploader := NewUploader(fake, testTables, false)
	motions := []motion.Motion{
		{Title: "Item 5", ResultRaw: "Carried", ForNames: []string{"W. Lo"}},
	}

	uploader.Run(context.Background(), testMeeting(), motions)

	if got := len(fake.records["Councillors"]); got != 1 {
		t.Errorf("councillors = %d, want 1 (last-name match should reuse)", got)
	}

	vote := fake.records["Votes"][0]
	if vote.Fields["Councillor"].([]string)[0] != existing.ID {
		t.Errorf("vote should link to the existing councillor record")
	}
}

func TestClear(t *testing.T) {
	fake := newFakeStore()
	fake.seed("Meetings", map[string]interface{}{"Meeting ID": "1"})
	fake.seed("Motions", map[string]interface{}{"Motion Title": "Item 5"})
	fake.seed("Votes", map[string]interface{}{"Vote": "Yes"})
	fake.seed("Votes", map[string]interface{}{"Vote": "No"})

	deleted, err := Clear(context.Background(), fake, testTables)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if deleted["Votes"] != 2 || deleted["Motions"] != 1 || deleted["Meetings"] != 1 {
		t.Errorf("unexpected deleted counts: %v", deleted)
	}
	for _, table := range []string{"Meetings", "Motions", "Votes"} {
		if len(fake.records[table]) != 0 {
			t.Errorf("table %s not cleared", table)
		}
	}
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Status: StatusCreated},
		{Status: StatusCreated},
		{Status: StatusSkipped},
		{Status: StatusFailed},
	}

	summary := Summarize(results)
	if summary.Created != 2 || summary.Skipped != 1 || summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}
