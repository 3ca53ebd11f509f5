package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"RecordSync/internal/domain"
	"RecordSync/internal/ports"
)

// ErrLocked is returned when another process already holds the job's lock file.
var ErrLocked = errors.New("job log is locked by another process")

// FileStore keeps the job log as a single JSON document on disk.
type FileStore struct {
	path string
}

var (
	_ ports.JobLogRepository = (*FileStore)(nil)
	_ ports.Locker           = (*FileStore)(nil)
)

// NewFileStore binds the store to a document path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored snapshot; a missing document yields ports.ErrNotFound.
func (s *FileStore) Load(ctx context.Context) (domain.JobLog, error) {
	if err := ctx.Err(); err != nil {
		return domain.JobLog{}, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.JobLog{}, ports.ErrNotFound
		}
		return domain.JobLog{}, fmt.Errorf("read job log: %w", err)
	}

	var log domain.JobLog
	if err := json.Unmarshal(raw, &log); err != nil {
		return domain.JobLog{}, fmt.Errorf("decode job log %s: %w", s.path, err)
	}
	return log, nil
}

// Save replaces the whole document in one atomic rename.
func (s *FileStore) Save(ctx context.Context, log domain.JobLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteJSON(s.path, log)
}

// Lock creates <path>.lock exclusively. The returned function removes it again.
func (s *FileStore) Lock() (func() error, error) {
	lockPath := s.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare lock dir: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
		}
		return nil, fmt.Errorf("create lock: %w", err)
	}
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	if err := f.Close(); err != nil {
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("close lock: %w", err)
	}

	return func() error {
		if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove lock: %w", err)
		}
		return nil
	}, nil
}
