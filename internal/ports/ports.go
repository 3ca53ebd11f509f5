package ports

import (
	"context"
	"errors"

	"RecordSync/internal/domain"
)

// ErrNotFound is returned by repositories when nothing has been stored yet.
var ErrNotFound = errors.New("not found")

// CandidateSource runs one directory search for an input record.
type CandidateSource interface {
	Candidates(ctx context.Context, input domain.InputRecord) ([]domain.CandidateRecord, error)
}

// JobLogRepository persists the full snapshot of a lookup job.
type JobLogRepository interface {
	Load(ctx context.Context) (domain.JobLog, error)
	Save(ctx context.Context, log domain.JobLog) error
}

// Locker grants exclusive ownership of a job for the duration of a batch.
type Locker interface {
	Lock() (unlock func() error, err error)
}

// SubmissionDriver types one prepared record into the billing app.
type SubmissionDriver interface {
	Submit(ctx context.Context, record domain.SubmissionRecord) error
}

// Reviewer pauses a flow until the operator approves or rejects it.
type Reviewer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}
