// Package store persists resilience reports keyed by scenario fingerprint.
package store

import (
	"context"
	"sort"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/resilience"
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
)

// ReportStore defines the interface for report persistence
type ReportStore interface {
	// Save inserts or replaces the report stored under report.Fingerprint.
	Save(ctx context.Context, report resilience.Report) error
	Get(ctx context.Context, fingerprint string) (resilience.Report, error)
	// List returns every stored report ordered by fingerprint.
	List(ctx context.Context) ([]resilience.Report, error)
	Delete(ctx context.Context, fingerprint string) error
	Ping(ctx context.Context) error
	Close() error
}

// NotFound returns the error reported for a missing fingerprint.
func NotFound(op, fingerprint string) error {
	return simerr.Validation(op).Entity("report", fingerprint).Cause(simerr.ErrNotFound).Err()
}

// CheckFingerprint rejects reports that cannot be keyed.
func CheckFingerprint(op, fingerprint string) error {
	if fingerprint == "" {
		return simerr.Validation(op).Entity("report", "").Field("fingerprint").
			Context("must not be empty").Cause(simerr.ErrInvalidArgument).Err()
	}
	return nil
}

// SortByFingerprint orders reports in place.
func SortByFingerprint(reports []resilience.Report) {
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Fingerprint < reports[j].Fingerprint
	})
}

// Observer receives store timings. metrics.Registry implements it.
type Observer interface {
	RecordStoreOperation(operation string, err error, duration time.Duration)
}

// Instrument wraps s so that every operation is reported to obs.
func Instrument(s ReportStore, obs Observer) ReportStore {
	if obs == nil {
		return s
	}
	return &instrumented{next: s, obs: obs}
}

type instrumented struct {
	next ReportStore
	obs  Observer
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	i.obs.RecordStoreOperation(op, err, time.Since(start))
}

func (i *instrumented) Save(ctx context.Context, report resilience.Report) (err error) {
	defer func(start time.Time) { i.observe("save", start, err) }(time.Now())
	return i.next.Save(ctx, report)
}

func (i *instrumented) Get(ctx context.Context, fingerprint string) (r resilience.Report, err error) {
	defer func(start time.Time) { i.observe("get", start, err) }(time.Now())
	return i.next.Get(ctx, fingerprint)
}

func (i *instrumented) List(ctx context.Context) (rs []resilience.Report, err error) {
	defer func(start time.Time) { i.observe("list", start, err) }(time.Now())
	return i.next.List(ctx)
}

func (i *instrumented) Delete(ctx context.Context, fingerprint string) (err error) {
	defer func(start time.Time) { i.observe("delete", start, err) }(time.Now())
	return i.next.Delete(ctx, fingerprint)
}

func (i *instrumented) Ping(ctx context.Context) error {
	return i.next.Ping(ctx)
}

func (i *instrumented) Close() error {
	return i.next.Close()
}
