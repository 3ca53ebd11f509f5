package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RecordSync/internal/domain"
	"RecordSync/internal/ports"
)

func openSQLite(t *testing.T, jobName string, dbPath string) *SQLStore {
	t.Helper()

	store, err := OpenSQLStore(context.Background(), DriverSQLite, dbPath, jobName)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLStoreMissingJob(t *testing.T) {
	t.Parallel()

	store := openSQLite(t, "wam", filepath.Join(t.TempDir(), "state.db"))
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSQLStoreUpsertsSnapshot(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "state.db")
	store := openSQLite(t, "wam", dbPath)
	ctx := context.Background()

	first := sampleLog()
	require.NoError(t, store.Save(ctx, first))

	at := first.LastUpdated.Add(time.Minute)
	second := first.WithOutcome(domain.NewMatchOutcome(domain.InputRecord{Name: "n", Address: "a"}, nil, at), at)
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Outcomes, 3)
	assert.Equal(t, second.Totals, got.Totals)
	assert.True(t, got.Balanced())

	var rows int
	require.NoError(t, store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM job_logs").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestSQLStoreSeparatesJobs(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	a := openSQLite(t, "job-a", dbPath)
	require.NoError(t, a.Save(ctx, sampleLog()))

	b := openSQLite(t, "job-b", dbPath)
	_, err := b.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Outcomes, 2)
}

func TestNewSQLStoreValidatesArguments(t *testing.T) {
	t.Parallel()

	_, err := NewSQLStore(nil, "mysql", "job")
	assert.Error(t, err)

	_, err = NewSQLStore(nil, DriverPostgres, "")
	assert.Error(t, err)

	store, err := NewSQLStore(nil, DriverPostgres, "job")
	require.NoError(t, err)

	query, args, err := store.builder.Select("document").From(jobLogsTable).
		Where("job_name = ?", "job").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT document FROM job_logs WHERE job_name = $1", query)
	assert.Equal(t, []interface{}{"job"}, args)
}
