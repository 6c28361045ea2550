package store

import (
	"context"
	"sync"

	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

// Memory is a process-local ReportStore.
type Memory struct {
	reports map[string]resilience.Report
	mu      sync.RWMutex
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{reports: make(map[string]resilience.Report)}
}

// Save stores report under its fingerprint.
func (m *Memory) Save(_ context.Context, report resilience.Report) error {
	if err := CheckFingerprint("save report", report.Fingerprint); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.Fingerprint] = report
	return nil
}

// Get retrieves a report by fingerprint.
func (m *Memory) Get(_ context.Context, fingerprint string) (resilience.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	report, ok := m.reports[fingerprint]
	if !ok {
		return resilience.Report{}, NotFound("get report", fingerprint)
	}
	return report, nil
}

// List returns all reports ordered by fingerprint.
func (m *Memory) List(_ context.Context) ([]resilience.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reports := make([]resilience.Report, 0, len(m.reports))
	for _, r := range m.reports {
		reports = append(reports, r)
	}
	SortByFingerprint(reports)
	return reports, nil
}

// Delete removes a report.
func (m *Memory) Delete(_ context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[fingerprint]; !ok {
		return NotFound("delete report", fingerprint)
	}
	delete(m.reports, fingerprint)
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *Memory) Close() error { return nil }
