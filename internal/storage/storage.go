package storage

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/olgkv/readmecheck/internal/check"
)

type ReportRepository interface {
	Load() ([]*check.Report, error)
	Append(report *check.Report) error
}

// FileStorage keeps the run history in memory and appends new runs to the
// repository.
type FileStorage struct {
	mu      sync.RWMutex
	repo    ReportRepository
	reports []*check.Report
}

func NewFileStorage(repo ReportRepository) *FileStorage {
	return &FileStorage{repo: repo}
}

func (s *FileStorage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.repo.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load history: %w", err)
	}
	s.reports = list
	return nil
}

func (s *FileStorage) Append(report *check.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Append(report); err != nil {
		return fmt.Errorf("append run %s: %w", report.RunID, err)
	}
	s.reports = append(s.reports, report)
	return nil
}

// Recent returns up to n of the latest runs, newest first.
func (s *FileStorage) Recent(n int) []*check.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.reports) {
		n = len(s.reports)
	}
	out := make([]*check.Report, 0, n)
	for i := len(s.reports) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.reports[i])
	}
	return out
}

// Stats returns the number of stored runs and how many of them passed.
func (s *FileStorage) Stats() (total int, passed int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.reports {
		total++
		if r.Passed() {
			passed++
		}
	}
	return total, passed
}
