package source

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/compliscope/internal/schema"
)

// DefaultTTL is how long a loaded table is served before it is refetched.
const DefaultTTL = 10 * time.Minute

// FetchTimeout bounds a shared refresh, which runs detached from the
// cancellation of whichever caller started it.
const FetchTimeout = 30 * time.Second

// Cached serves records from an underlying Source and refetches them once
// they are older than the TTL. Concurrent refreshes share one fetch. A failed
// refresh returns the error; stale records are not served.
type Cached struct {
	src    Source
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	group singleflight.Group

	mu       sync.Mutex
	records  []schema.Record
	loadedAt time.Time
}

// NewCached wraps src. A non-positive ttl uses DefaultTTL.
func NewCached(src Source, ttl time.Duration, logger *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{src: src, ttl: ttl, now: time.Now, logger: logger}
}

// Location returns the underlying source's location.
func (c *Cached) Location() string { return c.src.Location() }

// Records returns cached records while fresh, otherwise refetches. Callers
// must not modify the returned slice. A caller whose ctx ends stops waiting;
// the shared refresh keeps running for the others.
func (c *Cached) Records(ctx context.Context) ([]schema.Record, error) {
	if recs, ok := c.fresh(); ok {
		return recs, nil
	}

	ch := c.group.DoChan("records", func() (any, error) {
		if recs, ok := c.fresh(); ok {
			return recs, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()
		recs, err := c.src.Records(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.records, c.loadedAt = recs, c.now()
		c.mu.Unlock()
		c.logger.Info("compliance table refreshed",
			zap.String("location", c.src.Location()),
			zap.Int("records", len(recs)),
		)
		return recs, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.logger.Warn("compliance table refresh failed",
				zap.String("location", c.src.Location()),
				zap.Bool("shared", res.Shared),
				zap.Error(res.Err),
			)
			return nil, res.Err
		}
		return res.Val.([]schema.Record), nil
	}
}

// Invalidate drops the cached records so the next call refetches.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.records, c.loadedAt = nil, time.Time{}
	c.mu.Unlock()
}

func (c *Cached) fresh() ([]schema.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.records == nil || c.now().Sub(c.loadedAt) >= c.ttl {
		return nil, false
	}
	return c.records, true
}
