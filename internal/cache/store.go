package cache

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Store manages the ephemeral download cache directory. Artifacts are
// owned by the request that produced them; the store only provides the
// directory, age-based garbage collection, and stats.
type Store struct {
	dir    string
	logger *log.Logger
}

// NewStore creates a store rooted at dir, creating it if needed
func NewStore(dir string, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create cache directory")
	}

	return &Store{
		dir:    dir,
		logger: logger,
	}, nil
}

// Path returns the cache directory path
func (s *Store) Path() string {
	return s.dir
}

// Sweep deletes every regular file directly under the cache directory
// whose modification time is older than maxAge. Subdirectories are not
// descended into. Per-file errors are logged and skipped so a sweep
// can never fail the request that triggered it; only a directory
// listing failure aborts.
func (s *Store) Sweep(maxAge time.Duration) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return errors.Wrap(err, "failed to read cache directory")
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// File may have vanished between listing and stat
			s.logger.Printf("sweep: stat %s: %v", entry.Name(), err)
			continue
		}

		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Printf("sweep: remove %s: %v", entry.Name(), err)
		}
	}

	return nil
}

// Remove deletes an artifact file, logging failures. The caller's
// response has already been sent by the time this runs, so the error
// is never surfaced beyond the log.
func (s *Store) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Printf("failed to remove artifact %s: %v", filepath.Base(path), err)
	}
}

// Size returns the total size in bytes of files in the cache directory
func (s *Store) Size() int64 {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}

	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, err := entry.Info(); err == nil {
			total += info.Size()
		}
	}

	return total
}

// Count returns the number of files in the cache directory
func (s *Store) Count() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			count++
		}
	}

	return count
}
