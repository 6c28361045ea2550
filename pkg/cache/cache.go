// Package cache memoises resilience reports by scenario fingerprint.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/resilience"
)

// Defaults
const (
	DefaultSize = 1024
	DefaultTTL  = 24 * time.Hour
)

// Observer receives cache activity. metrics.Registry implements it.
type Observer interface {
	RecordCacheLookup(hit bool)
	RecordCacheEviction()
	SetCacheEntries(n int)
}

type nopObserver struct{}

func (nopObserver) RecordCacheLookup(bool) {}
func (nopObserver) RecordCacheEviction()   {}
func (nopObserver) SetCacheEntries(int)    {}

// ComputeFunc produces the report for a fingerprint on a miss.
type ComputeFunc func(ctx context.Context) (resilience.Report, error)

// Option configures a ReportCache.
type Option func(*ReportCache)

// WithObserver reports hits, misses and evictions to o.
func WithObserver(o Observer) Option {
	return func(c *ReportCache) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *ReportCache) {
		c.logger = logging.OrNop(l)
	}
}

// ReportCache is a size-bounded, expiring cache of reports. Concurrent
// misses on one fingerprint share a single computation.
type ReportCache struct {
	lru      *expirable.LRU[string, resilience.Report]
	flight   singleflight.Group
	observer Observer
	logger   logging.Logger
}

// New creates a cache holding at most size reports for ttl each. Non-positive
// values fall back to DefaultSize and DefaultTTL.
func New(size int, ttl time.Duration, opts ...Option) *ReportCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &ReportCache{
		observer: nopObserver{},
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	// Runs under the LRU lock: must not call back into c.lru.
	onEvict := func(string, resilience.Report) {
		c.observer.RecordCacheEviction()
	}
	c.lru = expirable.NewLRU[string, resilience.Report](size, onEvict, ttl)
	return c
}

// Get returns the cached report for fingerprint.
func (c *ReportCache) Get(fingerprint string) (resilience.Report, bool) {
	report, ok := c.lru.Get(fingerprint)
	c.observer.RecordCacheLookup(ok)
	return report, ok
}

// Put stores report under its fingerprint.
func (c *ReportCache) Put(report resilience.Report) {
	c.lru.Add(report.Fingerprint, report)
	c.observer.SetCacheEntries(c.lru.Len())
}

// GetOrCompute returns the cached report for fingerprint, computing and
// caching it on a miss. The boolean reports a cache hit. At most one
// computation per fingerprint is in flight; a failed computation caches
// nothing.
func (c *ReportCache) GetOrCompute(ctx context.Context, fingerprint string, compute ComputeFunc) (resilience.Report, bool, error) {
	if report, ok := c.Get(fingerprint); ok {
		return report, true, nil
	}

	ch := c.flight.DoChan(fingerprint, func() (any, error) {
		// A flight that finished between our miss and this call has already
		// filled the entry.
		if report, ok := c.lru.Get(fingerprint); ok {
			return report, nil
		}
		report, err := compute(ctx)
		if err != nil {
			return resilience.Report{}, err
		}
		report.Fingerprint = fingerprint
		c.Put(report)
		c.logger.Debug("report cached", logging.Fingerprint(fingerprint))
		return report, nil
	})

	select {
	case <-ctx.Done():
		return resilience.Report{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return resilience.Report{}, false, res.Err
		}
		return res.Val.(resilience.Report), false, nil
	}
}

// Remove drops fingerprint from the cache.
func (c *ReportCache) Remove(fingerprint string) bool {
	ok := c.lru.Remove(fingerprint)
	c.observer.SetCacheEntries(c.lru.Len())
	return ok
}

// Purge empties the cache.
func (c *ReportCache) Purge() {
	c.lru.Purge()
	c.observer.SetCacheEntries(0)
}

// Len returns the number of live entries.
func (c *ReportCache) Len() int {
	return c.lru.Len()
}

// Keys returns the cached fingerprints, oldest first.
func (c *ReportCache) Keys() []string {
	return c.lru.Keys()
}
