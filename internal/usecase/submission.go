package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"RecordSync/internal/converter"
	"RecordSync/internal/domain"
	"RecordSync/internal/infrastructure/livestock"
	"RecordSync/internal/infrastructure/submission"
	"RecordSync/internal/ports"
)

// ErrNoRecords is returned when a stage has nothing to work on.
var ErrNoRecords = errors.New("no records")

// SubmissionDeps wires the billing-side adapters.
type SubmissionDeps struct {
	DataDir  string
	Driver   ports.SubmissionDriver
	Reviewer ports.Reviewer
	Preview  io.Writer
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Submission prepares reviewable documents from extracted records and submits them.
type Submission struct {
	dataDir  string
	driver   ports.SubmissionDriver
	reviewer ports.Reviewer
	preview  io.Writer
	logger   *slog.Logger
	now      func() time.Time
}

// PrepareResult lists the documents written for one date.
type PrepareResult struct {
	Breeding  int
	Pregnancy int
	Ambiguous int
	Documents []string

	// Document is the file to review and submit for the requested data type.
	Document string
}

// Records is the number of prepared entries.
func (r PrepareResult) Records() int {
	return r.Breeding + r.Pregnancy
}

// SubmitFailure is one record the driver could not enter.
type SubmitFailure struct {
	Record domain.SubmissionRecord
	Error  string
}

// SubmitResult counts what happened to a document.
type SubmitResult struct {
	Total     int
	Submitted int
	Failed    int
	Cancelled bool
	Failures  []SubmitFailure
}

// NewSubmission constructs the submission use case.
func NewSubmission(deps SubmissionDeps) *Submission {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	preview := deps.Preview
	if preview == nil {
		preview = io.Discard
	}
	return &Submission{
		dataDir:  deps.DataDir,
		driver:   deps.Driver,
		reviewer: deps.Reviewer,
		preview:  preview,
		logger:   deps.Logger,
		now:      now,
	}
}

// Prepare converts the extracted records of date into submission documents, one per data type
// and a combined one when both are selected. The converted records are previewed for review.
func (s *Submission) Prepare(ctx context.Context, date string, dataType domain.DataType) (PrepareResult, error) {
	var result PrepareResult
	if err := validateDate(date); err != nil {
		return result, err
	}

	var all []domain.SubmissionRecord

	if dataType.IncludesBreeding() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		batch, err := readExtraction[domain.BreedingRecord](livestock.BreedingPath(s.dataDir, date))
		if err != nil {
			return result, err
		}
		conversions := converter.ConvertBreedingRecords(batch.Records)
		if len(conversions) > 0 {
			fmt.Fprintf(s.preview, "breeding %s: %d records\n", date, len(conversions))
			converter.RenderBreedingPreview(s.preview, batch.Records, conversions)
		}
		records, err := s.writeDocument(date, domain.DataTypeBreeding, conversions, &result)
		if err != nil {
			return result, err
		}
		result.Breeding = len(records)
		all = append(all, records...)
	}

	if dataType.IncludesPregnancy() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		batch, err := readExtraction[domain.PregnancyRecord](livestock.PregnancyPath(s.dataDir, date))
		if err != nil {
			return result, err
		}
		conversions := converter.ConvertPregnancyRecords(batch.Records)
		if len(conversions) > 0 {
			fmt.Fprintf(s.preview, "pregnancy %s: %d records\n", date, len(conversions))
			converter.RenderPregnancyPreview(s.preview, batch.Records, conversions)
		}
		records, err := s.writeDocument(date, domain.DataTypePregnancy, conversions, &result)
		if err != nil {
			return result, err
		}
		result.Pregnancy = len(records)
		all = append(all, records...)
	}

	if len(all) == 0 {
		return result, fmt.Errorf("prepare %s %s: %w", dataType, date, ErrNoRecords)
	}

	if dataType == domain.DataTypeAll {
		path := submission.DocumentPath(s.dataDir, domain.DataTypeAll, date)
		batch := domain.SubmissionBatch{Date: date, DataType: domain.DataTypeAll, PreparedAt: s.now(), Records: all}
		if err := submission.WriteDocument(path, batch); err != nil {
			return result, fmt.Errorf("write combined document: %w", err)
		}
		result.Documents = append(result.Documents, path)
	}
	result.Document = submission.DocumentPath(s.dataDir, dataType, date)

	s.info("submission documents prepared",
		"date", date,
		"type", dataType,
		"breeding", result.Breeding,
		"pregnancy", result.Pregnancy,
		"ambiguous", result.Ambiguous,
		"document", result.Document)
	return result, nil
}

func (s *Submission) writeDocument(date string, dataType domain.DataType, conversions []converter.Conversion, result *PrepareResult) ([]domain.SubmissionRecord, error) {
	if len(conversions) == 0 {
		s.info("nothing to prepare", "date", date, "type", dataType)
		return nil, nil
	}

	for i, c := range conversions {
		if !c.Ambiguous() {
			continue
		}
		result.Ambiguous++
		for _, w := range c.Warnings {
			s.warn("check converted record", "type", dataType, "row", i+1, "individual", c.Record.IndividualID, "warning", w)
		}
	}

	records := converter.Records(conversions)
	path := submission.DocumentPath(s.dataDir, dataType, date)
	batch := domain.SubmissionBatch{Date: date, DataType: dataType, PreparedAt: s.now(), Records: records}
	if err := submission.WriteDocument(path, batch); err != nil {
		return nil, fmt.Errorf("write %s document: %w", dataType, err)
	}
	result.Documents = append(result.Documents, path)
	return records, nil
}

// Submit re-reads the document at path, so edits made during review are honoured, asks the
// reviewer to go ahead and hands every record to the driver. A failing record does not stop
// the others. A declined review returns a cancelled result and no error.
func (s *Submission) Submit(ctx context.Context, path string) (SubmitResult, error) {
	var result SubmitResult
	if s.driver == nil {
		return result, fmt.Errorf("submission has no driver")
	}

	batch, err := submission.ReadDocument(path)
	if err != nil {
		return result, err
	}
	result.Total = len(batch.Records)
	if result.Total == 0 {
		return result, fmt.Errorf("submit %s: %w", path, ErrNoRecords)
	}

	if s.reviewer != nil {
		prompt := fmt.Sprintf("Review %s (%d %s records for %s). Submit now?", path, result.Total, batch.DataType, batch.Date)
		ok, err := s.reviewer.Confirm(ctx, prompt)
		if err != nil {
			return result, fmt.Errorf("confirm submission: %w", err)
		}
		if !ok {
			s.info("submission cancelled by operator", "document", path)
			result.Cancelled = true
			return result, nil
		}
		// The operator may have edited the document while the prompt was open.
		if batch, err = submission.ReadDocument(path); err != nil {
			return result, err
		}
		result.Total = len(batch.Records)
		if result.Total == 0 {
			return result, fmt.Errorf("submit %s: %w", path, ErrNoRecords)
		}
	}

	for i, rec := range batch.Records {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("submission interrupted after %d of %d records: %w", i, result.Total, err)
		}
		if err := s.driver.Submit(ctx, rec); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, SubmitFailure{Record: rec, Error: err.Error()})
			s.warn("record not submitted", "position", i+1, "individual", rec.IndividualID, "code", rec.ClassificationCode, "error", err)
			continue
		}
		result.Submitted++
		s.info("record submitted", "position", i+1, "total", result.Total, "individual", rec.IndividualID)
	}

	s.info("submission finished", "document", path, "submitted", result.Submitted, "failed", result.Failed)
	return result, nil
}

// Sync prepares the documents of date and submits the one for dataType after review.
func (s *Submission) Sync(ctx context.Context, date string, dataType domain.DataType) (PrepareResult, SubmitResult, error) {
	prepared, err := s.Prepare(ctx, date, dataType)
	if err != nil {
		return prepared, SubmitResult{}, err
	}
	submitted, err := s.Submit(ctx, prepared.Document)
	return prepared, submitted, err
}

// readExtraction treats a missing document as an empty batch.
func readExtraction[T domain.BreedingRecord | domain.PregnancyRecord](path string) (domain.ExtractionBatch[T], error) {
	batch, err := livestock.ReadBatch[T](path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.ExtractionBatch[T]{Records: []T{}}, nil
	}
	return batch, err
}

func validateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("date %q is not YYYY-MM-DD", date)
	}
	return nil
}

func (s *Submission) info(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Submission) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
