package attendance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// FileStore appends records to a plain text log, one line per record.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store writing to path. The file is created on first append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the log file path.
func (s *FileStore) Path() string {
	return s.path
}

// Append writes rec as a single line and syncs it to disk.
// If the write or sync fails, the file is truncated back to its previous size.
func (s *FileStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := rec.MarshalLine()
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("open attendance log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat attendance log: %w", err)
	}
	size := info.Size()

	if _, err := f.Write(line); err != nil {
		return s.rollback(f, size, fmt.Errorf("append attendance log: %w", err))
	}
	if err := f.Sync(); err != nil {
		return s.rollback(f, size, fmt.Errorf("sync attendance log: %w", err))
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close attendance log: %w", err)
	}
	return nil
}

func (s *FileStore) rollback(f *os.File, size int64, cause error) error {
	truncErr := f.Truncate(size)
	f.Close()
	if truncErr != nil {
		return errors.Join(cause, fmt.Errorf("truncate partial record: %w", truncErr))
	}
	return cause
}

// List reads the log. A missing file is an empty log.
func (s *FileStore) List(ctx context.Context, since time.Time) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open attendance log: %w", err)
	}
	defer f.Close()

	records, err := ParseRecords(f, time.Local)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return Since(records, since), nil
}
