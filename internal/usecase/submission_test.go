package usecase

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RecordSync/internal/domain"
	"RecordSync/internal/infrastructure/livestock"
	"RecordSync/internal/infrastructure/submission"
)

const testDate = "2026-01-16"

type recordingDriver struct {
	submitted []domain.SubmissionRecord
	failFor   string
}

func (d *recordingDriver) Submit(_ context.Context, rec domain.SubmissionRecord) error {
	if rec.IndividualID == d.failFor {
		return errors.New("individual not found in picker")
	}
	d.submitted = append(d.submitted, rec)
	return nil
}

type scriptedReviewer struct {
	answer  bool
	prompts []string
	before  func()
}

func (r *scriptedReviewer) Confirm(_ context.Context, prompt string) (bool, error) {
	r.prompts = append(r.prompts, prompt)
	if r.before != nil {
		r.before()
	}
	return r.answer, nil
}

func seedExtractions(t *testing.T, dataDir string) {
	t.Helper()

	breeding := []domain.BreedingRecord{
		{CowNo: "20016", IndividualID: "13470-0278-8", Date: "2026/01/16", Method: "人工授精", SemenNo: "JP5H56789"},
		{CowNo: "12", IndividualID: "13470-0000-1", Date: "2026/01/16", Method: "ET"},
	}
	pregnancy := []domain.PregnancyRecord{
		{CowNo: "185776", IndividualID: "13470-1111-2", Date: "2026/01/16", Result: "受胎"},
	}
	require.NoError(t, livestock.WriteBatch(livestock.BreedingPath(dataDir, testDate), domain.NewExtractionBatch(testDate, breeding, testNow)))
	require.NoError(t, livestock.WriteBatch(livestock.PregnancyPath(dataDir, testDate), domain.NewExtractionBatch(testDate, pregnancy, testNow)))
}

func TestPrepareWritesDocumentsPerType(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	seedExtractions(t, dataDir)

	var preview bytes.Buffer
	s := NewSubmission(SubmissionDeps{DataDir: dataDir, Preview: &preview, Clock: testClock})

	result, err := s.Prepare(context.Background(), testDate, domain.DataTypeAll)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Breeding)
	assert.Equal(t, 1, result.Pregnancy)
	assert.Equal(t, 3, result.Records())
	assert.Equal(t, 1, result.Ambiguous)
	assert.Equal(t, filepath.Join(dataDir, "all-2026-01-16-inputs.json"), result.Document)
	assert.Len(t, result.Documents, 3)

	combined, err := submission.ReadDocument(result.Document)
	require.NoError(t, err)
	require.Len(t, combined.Records, 3)
	assert.Equal(t, "20", combined.Records[0].OwnerID)
	assert.Equal(t, "2026-01-16", combined.Records[0].Date)
	assert.Equal(t, domain.CodeEmbryoTransfer, combined.Records[1].ClassificationCode)
	assert.Equal(t, domain.CodeConception, combined.Records[2].ClassificationCode)
	assert.True(t, combined.Records[2].RequiresAuxiliarySelection)

	out := preview.String()
	assert.Contains(t, out, "breeding 2026-01-16: 2 records")
	assert.Contains(t, out, "13470-1111-2")
}

func TestPrepareSingleType(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	seedExtractions(t, dataDir)

	s := NewSubmission(SubmissionDeps{DataDir: dataDir, Clock: testClock})
	result, err := s.Prepare(context.Background(), testDate, domain.DataTypePregnancy)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Breeding)
	assert.Equal(t, 1, result.Pregnancy)
	assert.Equal(t, submission.DocumentPath(dataDir, domain.DataTypePregnancy, testDate), result.Document)

	_, err = os.Stat(submission.DocumentPath(dataDir, domain.DataTypeAll, testDate))
	assert.True(t, os.IsNotExist(err))
}

func TestPrepareWithoutRecords(t *testing.T) {
	t.Parallel()

	s := NewSubmission(SubmissionDeps{DataDir: t.TempDir(), Clock: testClock})
	_, err := s.Prepare(context.Background(), testDate, domain.DataTypeAll)
	assert.ErrorIs(t, err, ErrNoRecords)

	_, err = s.Prepare(context.Background(), "16/01/2026", domain.DataTypeAll)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRecords)
}

func TestSubmitCancelledByReviewer(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	seedExtractions(t, dataDir)
	driver := &recordingDriver{}
	reviewer := &scriptedReviewer{answer: false}

	s := NewSubmission(SubmissionDeps{DataDir: dataDir, Driver: driver, Reviewer: reviewer, Clock: testClock})
	_, result, err := s.Sync(context.Background(), testDate, domain.DataTypeBreeding)
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Empty(t, driver.submitted)
	require.Len(t, reviewer.prompts, 1)
	assert.Contains(t, reviewer.prompts[0], "breeding-2026-01-16-inputs.json")
}

func TestSubmitHonoursEditsAndIsolatesFailures(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	seedExtractions(t, dataDir)
	driver := &recordingDriver{failFor: "13470-0000-1"}
	path := submission.DocumentPath(dataDir, domain.DataTypeAll, testDate)

	reviewer := &scriptedReviewer{answer: true, before: func() {
		batch, err := submission.ReadDocument(path)
		if err != nil {
			t.Errorf("read during review: %v", err)
			return
		}
		batch.Records[0].ClassificationCode = domain.CodeConception
		if err := submission.WriteDocument(path, batch); err != nil {
			t.Errorf("edit during review: %v", err)
		}
	}}

	s := NewSubmission(SubmissionDeps{DataDir: dataDir, Driver: driver, Reviewer: reviewer, Clock: testClock})
	_, result, err := s.Sync(context.Background(), testDate, domain.DataTypeAll)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Submitted)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "13470-0000-1", result.Failures[0].Record.IndividualID)

	require.Len(t, driver.submitted, 2)
	assert.Equal(t, domain.CodeConception, driver.submitted[0].ClassificationCode)
	assert.True(t, driver.submitted[0].RequiresAuxiliarySelection)
}

func TestSubmitEmptyDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, submission.WriteDocument(path, domain.SubmissionBatch{Date: testDate, DataType: domain.DataTypeBreeding}))

	s := NewSubmission(SubmissionDeps{Driver: &recordingDriver{}})
	_, err := s.Submit(context.Background(), path)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestExtractWritesDocuments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cells := make([]string, 18)
	cells[0], cells[1], cells[2], cells[5] = "20016", "13470-0278-8", "2026/01/16", "AI"
	html := `<div class="ui-grid-row">`
	for _, c := range cells {
		html += `<div class="ui-grid-cell-contents">` + c + `</div>`
	}
	html += `</div>`
	page := filepath.Join(dir, "breeding.html")
	require.NoError(t, os.WriteFile(page, []byte(html), 0o644))

	e := NewExtraction(dir, nil, testClock)
	result, err := e.Extract(context.Background(), testDate, domain.DataTypeAll, ExtractSources{Breeding: page})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Breeding)
	assert.Equal(t, []string{livestock.BreedingPath(dir, testDate)}, result.Documents)

	batch, err := livestock.ReadBatch[domain.BreedingRecord](livestock.BreedingPath(dir, testDate))
	require.NoError(t, err)
	assert.Equal(t, 1, batch.TotalCount)
	assert.Equal(t, "13470-0278-8", batch.Records[0].IndividualID)

	_, err = e.Extract(context.Background(), testDate, domain.DataTypePregnancy, ExtractSources{Breeding: page})
	assert.Error(t, err)
}
