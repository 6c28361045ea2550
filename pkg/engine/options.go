package engine

import (
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/metrics"
	"github.com/dd0wney/cluso-resilience/pkg/store"
	"github.com/dd0wney/cluso-resilience/pkg/store/s3archive"
)

type options struct {
	logger   logging.Logger
	registry *metrics.Registry
	store    store.ReportStore
	archive  *s3archive.Archive
	now      func() time.Time
	seed     *int64
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger shared by every component.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics uses r instead of a fresh registry.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithStore uses s instead of the configured store. The engine takes
// ownership and closes it.
func WithStore(s store.ReportStore) Option {
	return func(o *options) { o.store = s }
}

// WithArchive uses a instead of the configured S3 archive.
func WithArchive(a *s3archive.Archive) Option {
	return func(o *options) { o.archive = a }
}

// WithClock sets the time source of generated scenarios and reports.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSeed makes scenario generation reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = &seed }
}
