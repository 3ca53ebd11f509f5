package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"RecordSync/internal/domain"
	"RecordSync/internal/ports"
)

const (
	// DriverSQLite selects the pure-Go sqlite driver.
	DriverSQLite = "sqlite"
	// DriverPostgres selects lib/pq.
	DriverPostgres = "postgres"

	jobLogsTable = "job_logs"
)

const createJobLogsTable = `CREATE TABLE IF NOT EXISTS job_logs (
	job_name   TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLStore keeps one job log snapshot per job name in a relational table.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	jobName string
}

var (
	_ ports.JobLogRepository = (*SQLStore)(nil)
	_ ports.Locker           = (*SQLStore)(nil)
)

// OpenSQLStore connects to the database, verifies the connection and creates the table.
func OpenSQLStore(ctx context.Context, driver, dsn, jobName string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	store, err := NewSQLStore(db, driver, jobName)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wires an existing sql.DB; driver picks the placeholder style.
func NewSQLStore(db *sql.DB, driver, jobName string) (*SQLStore, error) {
	var format sq.PlaceholderFormat
	switch driver {
	case DriverSQLite:
		format = sq.Question
	case DriverPostgres:
		format = sq.Dollar
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	if jobName == "" {
		return nil, errors.New("job name is required")
	}

	return &SQLStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
		jobName: jobName,
	}, nil
}

// EnsureSchema creates the job_logs table when it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createJobLogsTable); err != nil {
		return fmt.Errorf("create %s: %w", jobLogsTable, err)
	}
	return nil
}

// Load returns the stored snapshot or ports.ErrNotFound.
func (s *SQLStore) Load(ctx context.Context) (domain.JobLog, error) {
	query, args, err := s.builder.
		Select("document").
		From(jobLogsTable).
		Where(sq.Eq{"job_name": s.jobName}).
		ToSql()
	if err != nil {
		return domain.JobLog{}, fmt.Errorf("build select: %w", err)
	}

	var document string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&document); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.JobLog{}, ports.ErrNotFound
		}
		return domain.JobLog{}, fmt.Errorf("select job log: %w", err)
	}

	var log domain.JobLog
	if err := json.Unmarshal([]byte(document), &log); err != nil {
		return domain.JobLog{}, fmt.Errorf("decode job log %s: %w", s.jobName, err)
	}
	return log, nil
}

// Save upserts the full snapshot in a single statement.
func (s *SQLStore) Save(ctx context.Context, log domain.JobLog) error {
	document, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode job log: %w", err)
	}

	updatedAt := log.LastUpdated
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	query, args, err := s.builder.
		Insert(jobLogsTable).
		Columns("job_name", "document", "updated_at").
		Values(s.jobName, string(document), updatedAt.UTC()).
		Suffix("ON CONFLICT (job_name) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job log: %w", err)
	}
	return nil
}

// Lock is a no-op: the SQL backend relies on a single process owning the job.
func (s *SQLStore) Lock() (func() error, error) {
	return func() error { return nil }, nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
