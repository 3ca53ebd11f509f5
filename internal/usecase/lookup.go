package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"RecordSync/internal/domain"
	"RecordSync/internal/jobstate"
	"RecordSync/internal/matcher"
	"RecordSync/internal/ports"
)

// LookupDeps wires the driven adapters into the lookup batch.
type LookupDeps struct {
	Source   ports.CandidateSource
	Tracker  *jobstate.Tracker
	Locker   ports.Locker
	Notifier ports.Notifier
	Logger   *slog.Logger
	Clock    func() time.Time
}

// LookupBatch searches the directory for every input that has no recorded outcome yet.
type LookupBatch struct {
	source   ports.CandidateSource
	tracker  *jobstate.Tracker
	locker   ports.Locker
	notifier ports.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// LookupSummary describes one run of the batch.
type LookupSummary struct {
	Inputs      int
	Skipped     int
	Processed   int
	Found       int
	NotFound    int
	Errors      int
	Interrupted bool
	Totals      domain.Totals
}

// Message renders the summary for a notification channel.
func (s LookupSummary) Message() string {
	state := "finished"
	if s.Interrupted {
		state = "interrupted"
	}
	return fmt.Sprintf("facility lookup %s: processed %d of %d inputs (found %d, not found %d, errors %d); job total %d (found %d, not found %d, errors %d)",
		state, s.Processed, s.Inputs, s.Found, s.NotFound, s.Errors,
		s.Totals.Processed, s.Totals.Found, s.Totals.NotFound, s.Totals.Errors)
}

func (s *LookupSummary) count(o domain.MatchOutcome) {
	s.Processed++
	switch {
	case o.Failed():
		s.Errors++
	case o.Found:
		s.Found++
	default:
		s.NotFound++
	}
}

// NewLookupBatch constructs the lookup use case.
func NewLookupBatch(deps LookupDeps) *LookupBatch {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	tracker := deps.Tracker
	if tracker == nil {
		tracker = jobstate.NewTracker(jobstate.Deps{Clock: now, Logger: deps.Logger})
	}
	return &LookupBatch{
		source:   deps.Source,
		tracker:  tracker,
		locker:   deps.Locker,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		now:      now,
	}
}

// Run processes the pending records one at a time and persists each outcome before moving on.
// A lookup error becomes an error outcome and the batch continues. Cancelling ctx stops the
// batch after the current record; the record in flight is not recorded and runs again next time.
func (b *LookupBatch) Run(ctx context.Context, records []domain.InputRecord) (LookupSummary, error) {
	summary := LookupSummary{Inputs: len(records)}
	if b.source == nil {
		return summary, fmt.Errorf("lookup batch has no candidate source")
	}

	if b.locker != nil {
		unlock, err := b.locker.Lock()
		if err != nil {
			return summary, fmt.Errorf("acquire job lock: %w", err)
		}
		defer func() {
			if err := unlock(); err != nil {
				b.warn("release job lock", "error", err)
			}
		}()
	}

	log, err := b.tracker.Load(ctx)
	if err != nil {
		return summary, err
	}

	pending := jobstate.Pending(log, records)
	summary.Skipped = len(records) - len(pending)
	summary.Totals = log.Totals
	b.info("lookup batch started",
		"inputs", len(records),
		"pending", len(pending),
		"already_recorded", len(log.Outcomes))

	for i, rec := range pending {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		outcome, ok := b.lookup(ctx, rec)
		if !ok {
			summary.Interrupted = true
			break
		}

		next, err := b.tracker.Append(ctx, log, outcome)
		if err != nil {
			if ctx.Err() != nil {
				summary.Interrupted = true
				break
			}
			return summary, err
		}
		log = next
		summary.count(outcome)
		summary.Totals = log.Totals

		b.info("record processed",
			"position", i+1,
			"pending", len(pending),
			"name", rec.Name,
			"found", outcome.Found,
			"matches", len(outcome.Matches),
			"failed", outcome.Failed())
	}

	if summary.Interrupted {
		b.warn("lookup batch interrupted", "processed", summary.Processed, "remaining", len(pending)-summary.Processed)
		return summary, fmt.Errorf("lookup interrupted: %w", ctx.Err())
	}

	b.info("lookup batch finished",
		"processed", summary.Processed,
		"found", summary.Found,
		"not_found", summary.NotFound,
		"errors", summary.Errors)

	if b.notifier != nil && summary.Processed > 0 {
		if err := b.notifier.PublishSummary(ctx, summary.Message()); err != nil {
			b.warn("publish summary", "error", err)
		}
	}
	return summary, nil
}

// lookup returns false when the search was aborted by cancellation of ctx.
func (b *LookupBatch) lookup(ctx context.Context, rec domain.InputRecord) (domain.MatchOutcome, bool) {
	candidates, err := b.source.Candidates(ctx, rec)
	if err != nil {
		if ctx.Err() != nil {
			return domain.MatchOutcome{}, false
		}
		b.warn("lookup failed", "name", rec.Name, "address", rec.Address, "error", err)
		return domain.NewErrorOutcome(rec, err, b.now()), true
	}
	return domain.NewMatchOutcome(rec, matcher.SelectMatches(rec, candidates), b.now()), true
}

func (b *LookupBatch) info(msg string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *LookupBatch) warn(msg string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
