package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

const reportsFile = "reports.json"

// File keeps reports in memory and rewrites a JSON file in dataDir after
// every change.
type File struct {
	dataDir string
	reports map[string]resilience.Report
	mu      sync.RWMutex
}

// NewFile creates a file-backed store, loading any existing reports.
func NewFile(dataDir string) (*File, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &File{
		dataDir: dataDir,
		reports: make(map[string]resilience.Report),
	}

	// Load existing reports
	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Save stores report under its fingerprint and persists the file.
func (s *File) Save(_ context.Context, report resilience.Report) error {
	if err := CheckFingerprint("save report", report.Fingerprint); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.reports[report.Fingerprint]
	s.reports[report.Fingerprint] = report
	if err := s.save(); err != nil {
		if existed {
			s.reports[report.Fingerprint] = prev
		} else {
			delete(s.reports, report.Fingerprint)
		}
		return err
	}
	return nil
}

// Get retrieves a report by fingerprint.
func (s *File) Get(_ context.Context, fingerprint string) (resilience.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[fingerprint]
	if !ok {
		return resilience.Report{}, NotFound("get report", fingerprint)
	}
	return report, nil
}

// List returns all reports ordered by fingerprint.
func (s *File) List(_ context.Context) ([]resilience.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]resilience.Report, 0, len(s.reports))
	for _, r := range s.reports {
		reports = append(reports, r)
	}
	SortByFingerprint(reports)
	return reports, nil
}

// Delete removes a report and persists the file.
func (s *File) Delete(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[fingerprint]
	if !ok {
		return NotFound("delete report", fingerprint)
	}
	delete(s.reports, fingerprint)
	if err := s.save(); err != nil {
		s.reports[fingerprint] = report
		return err
	}
	return nil
}

// save persists reports to disk via a temp file and rename
func (s *File) save() error {
	data, err := json.MarshalIndent(s.reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}

	path := filepath.Join(s.dataDir, reportsFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}
	return os.Rename(tmp, path)
}

// load reads reports from disk
func (s *File) load() error {
	path := filepath.Join(s.dataDir, reportsFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No reports yet
		}
		return err
	}

	if err := json.Unmarshal(data, &s.reports); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Ping checks that the data directory is still accessible
func (s *File) Ping(context.Context) error {
	_, err := os.Stat(s.dataDir)
	return err
}

// Close is a no-op for the file-based store
func (s *File) Close() error {
	return nil
}
