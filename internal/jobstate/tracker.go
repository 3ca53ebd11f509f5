// Package jobstate tracks which input records a lookup job has already handled so that an
// interrupted batch can be re-run without repeating or duplicating work.
package jobstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"RecordSync/internal/domain"
	"RecordSync/internal/ports"
)

// Deps wires the tracker to its persistence backend.
type Deps struct {
	Repository ports.JobLogRepository
	Clock      func() time.Time
	Logger     *slog.Logger
}

// Tracker loads and appends to a job log. The log itself is a value owned by the caller.
type Tracker struct {
	repo   ports.JobLogRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewTracker constructs a tracker; Clock defaults to time.Now.
func NewTracker(deps Deps) *Tracker {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Tracker{repo: deps.Repository, now: now, logger: deps.Logger}
}

// Load returns the stored log, or a fresh empty log when nothing was stored yet.
// A log whose totals disagree with its outcomes is repaired by recounting.
func (t *Tracker) Load(ctx context.Context) (domain.JobLog, error) {
	if t.repo == nil {
		return domain.NewJobLog(t.now()), nil
	}

	log, err := t.repo.Load(ctx)
	if errors.Is(err, ports.ErrNotFound) {
		return domain.NewJobLog(t.now()), nil
	}
	if err != nil {
		return domain.JobLog{}, fmt.Errorf("load job log: %w", err)
	}

	if log.Outcomes == nil {
		log.Outcomes = []domain.MatchOutcome{}
	}
	if !log.Balanced() {
		repaired := domain.CountTotals(log.Outcomes)
		t.warn("job log totals disagree with outcomes, recounting",
			"stored_processed", log.Totals.Processed,
			"outcomes", len(log.Outcomes),
			"errors", repaired.Errors)
		log.Totals = repaired
	}
	return log, nil
}

// Append records one outcome, persists the full snapshot and only then returns the new log.
// On failure the caller's log is unchanged and still the latest persisted state.
func (t *Tracker) Append(ctx context.Context, log domain.JobLog, outcome domain.MatchOutcome) (domain.JobLog, error) {
	next := log.WithOutcome(outcome, t.now())
	if t.repo == nil {
		return next, nil
	}
	if err := t.repo.Save(ctx, next); err != nil {
		return log, fmt.Errorf("persist outcome for %s: %w", outcome.InputName, err)
	}
	return next, nil
}

// ProcessedFingerprints returns the fingerprints of every recorded outcome.
func ProcessedFingerprints(log domain.JobLog) map[string]struct{} {
	seen := make(map[string]struct{}, len(log.Outcomes))
	for _, o := range log.Outcomes {
		seen[o.Fingerprint()] = struct{}{}
	}
	return seen
}

// Pending filters records down to the ones without a recorded outcome. Rows repeated inside
// records are kept once, at their first position.
func Pending(log domain.JobLog, records []domain.InputRecord) []domain.InputRecord {
	seen := ProcessedFingerprints(log)
	pending := make([]domain.InputRecord, 0, len(records))
	for _, rec := range records {
		fp := rec.Fingerprint()
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		pending = append(pending, rec)
	}
	return pending
}

// FailedInputs lists the inputs whose lookup ended in an error. They are not retried
// automatically; this is the list for manual re-submission.
func FailedInputs(log domain.JobLog) []domain.InputRecord {
	var failed []domain.InputRecord
	for _, o := range log.Outcomes {
		if o.Failed() {
			failed = append(failed, o.Input())
		}
	}
	return failed
}

func (t *Tracker) warn(msg string, args ...interface{}) {
	if t.logger != nil {
		t.logger.Warn(msg, args...)
	}
}
