package jobstate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RecordSync/internal/domain"
	"RecordSync/internal/infrastructure/storage"
	"RecordSync/internal/ports"
)

type memoryRepo struct {
	log     *domain.JobLog
	saves   int
	failAt  int
	saveErr error
}

func (m *memoryRepo) Load(context.Context) (domain.JobLog, error) {
	if m.log == nil {
		return domain.JobLog{}, ports.ErrNotFound
	}
	return *m.log, nil
}

func (m *memoryRepo) Save(_ context.Context, log domain.JobLog) error {
	m.saves++
	if m.failAt > 0 && m.saves >= m.failAt {
		return m.saveErr
	}
	m.log = &log
	return nil
}

func fixedClock() func() time.Time {
	at := time.Date(2026, time.January, 16, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func record(i int) domain.InputRecord {
	return domain.InputRecord{Name: fmt.Sprintf("facility-%d", i), Address: fmt.Sprintf("東京都港区芝%d", i)}
}

func TestLoadReturnsFreshLogWhenNothingStored(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(Deps{Repository: &memoryRepo{}, Clock: fixedClock()})
	log, err := tracker.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, log.Outcomes)
	assert.Equal(t, domain.Totals{}, log.Totals)
	assert.True(t, log.Balanced())
}

func TestLoadRepairsUnbalancedTotals(t *testing.T) {
	t.Parallel()

	at := fixedClock()()
	stored := domain.JobLog{
		Outcomes: []domain.MatchOutcome{
			domain.NewMatchOutcome(record(1), []domain.CandidateRecord{{Name: "x"}}, at),
			domain.NewErrorOutcome(record(2), errors.New("timeout"), at),
		},
		Totals: domain.Totals{Processed: 7, Found: 7},
	}
	tracker := NewTracker(Deps{Repository: &memoryRepo{log: &stored}, Clock: fixedClock()})

	log, err := tracker.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Totals{Processed: 2, Found: 1, Errors: 1}, log.Totals)
}

func TestLoadWrapsRepositoryErrors(t *testing.T) {
	t.Parallel()

	repo := failingLoadRepo{err: errors.New("disk gone")}
	_, err := NewTracker(Deps{Repository: repo}).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.err)
}

type failingLoadRepo struct{ err error }

func (f failingLoadRepo) Load(context.Context) (domain.JobLog, error) {
	return domain.JobLog{}, f.err
}

func (f failingLoadRepo) Save(context.Context, domain.JobLog) error {
	return nil
}

func TestAppendPersistsBeforeReturning(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{}
	tracker := NewTracker(Deps{Repository: repo, Clock: fixedClock()})
	ctx := context.Background()

	log, err := tracker.Load(ctx)
	require.NoError(t, err)

	log, err = tracker.Append(ctx, log, domain.NewMatchOutcome(record(1), nil, fixedClock()()))
	require.NoError(t, err)

	require.NotNil(t, repo.log)
	assert.Equal(t, log, *repo.log)
	assert.Equal(t, domain.Totals{Processed: 1, NotFound: 1}, log.Totals)
	assert.Equal(t, fixedClock()(), log.LastUpdated)
}

func TestAppendFailureKeepsPreviousLog(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("disk full")
	repo := &memoryRepo{failAt: 2, saveErr: saveErr}
	tracker := NewTracker(Deps{Repository: repo, Clock: fixedClock()})
	ctx := context.Background()

	log, err := tracker.Load(ctx)
	require.NoError(t, err)
	log, err = tracker.Append(ctx, log, domain.NewMatchOutcome(record(1), nil, fixedClock()()))
	require.NoError(t, err)

	after, err := tracker.Append(ctx, log, domain.NewMatchOutcome(record(2), nil, fixedClock()()))
	require.ErrorIs(t, err, saveErr)
	assert.Equal(t, log, after)
	assert.Len(t, repo.log.Outcomes, 1)
}

func TestPendingSkipsRecordedAndRepeatedRows(t *testing.T) {
	t.Parallel()

	at := fixedClock()()
	log := domain.NewJobLog(at).
		WithOutcome(domain.NewMatchOutcome(record(1), nil, at), at).
		WithOutcome(domain.NewErrorOutcome(record(2), errors.New("boom"), at), at)

	pending := Pending(log, []domain.InputRecord{record(1), record(3), record(2), record(3), record(4)})
	assert.Equal(t, []domain.InputRecord{record(3), record(4)}, pending)
}

func TestFingerprintIsOrderSensitive(t *testing.T) {
	t.Parallel()

	a := domain.InputRecord{Name: "ab", Address: "c"}
	b := domain.InputRecord{Name: "a", Address: "bc"}
	c := domain.InputRecord{Name: "c", Address: "ab"}
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestResumeProcessesOnlyNewRecords(t *testing.T) {
	t.Parallel()

	const (
		prior  = 5
		batch  = 8
		repeat = 3
	)

	repo := &memoryRepo{}
	tracker := NewTracker(Deps{Repository: repo, Clock: fixedClock()})
	ctx := context.Background()

	log, err := tracker.Load(ctx)
	require.NoError(t, err)
	for i := 0; i < prior; i++ {
		log, err = tracker.Append(ctx, log, domain.NewMatchOutcome(record(i), nil, fixedClock()()))
		require.NoError(t, err)
	}

	// The first `repeat` rows of the batch were already processed.
	var records []domain.InputRecord
	for i := prior - repeat; i < prior-repeat+batch; i++ {
		records = append(records, record(i))
	}

	for run := 0; run < 2; run++ {
		log, err = tracker.Load(ctx)
		require.NoError(t, err)
		for _, rec := range Pending(log, records) {
			log, err = tracker.Append(ctx, log, domain.NewMatchOutcome(rec, nil, fixedClock()()))
			require.NoError(t, err)
		}
	}

	final, err := tracker.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, final.Outcomes, prior+(batch-repeat))

	counts := map[string]int{}
	for _, o := range final.Outcomes {
		counts[o.Fingerprint()]++
	}
	for fp, n := range counts {
		assert.Equalf(t, 1, n, "fingerprint %q recorded %d times", fp, n)
	}
}

func TestReloadAfterEveryAppendIsBalanced(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "result.json")
	ctx := context.Background()
	at := fixedClock()()

	outcomes := []domain.MatchOutcome{
		domain.NewMatchOutcome(record(1), []domain.CandidateRecord{{Name: "facility-1", RegistryID: "0170100011"}}, at),
		domain.NewMatchOutcome(record(2), nil, at),
		domain.NewErrorOutcome(record(3), errors.New("navigation timeout"), at),
		domain.NewMatchOutcome(record(4), nil, at),
	}

	log := domain.NewJobLog(at)
	writer := NewTracker(Deps{Repository: storage.NewFileStore(path), Clock: fixedClock()})
	for i, o := range outcomes {
		var err error
		log, err = writer.Append(ctx, log, o)
		require.NoError(t, err)

		// A new process reading the file sees exactly what was appended so far.
		reloaded, err := NewTracker(Deps{Repository: storage.NewFileStore(path)}).Load(ctx)
		require.NoError(t, err)
		require.Len(t, reloaded.Outcomes, i+1)
		assert.True(t, reloaded.Balanced())
		assert.Equal(t, i+1, reloaded.Totals.Processed)
		assert.Equal(t, o.InputName, reloaded.Outcomes[i].InputName)
	}

	failed := FailedInputs(log)
	assert.Equal(t, []domain.InputRecord{record(3)}, failed)
}
