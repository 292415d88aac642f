// Package palettecache memoises artwork palettes per artwork and palette size.
//
// Fresh results are served from memory, concurrent requests for the same
// artwork share one extraction, and failed extractions are retried with
// exponential backoff before being reported. Nothing is persisted.
package palettecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jmylchreest/hue/internal/artwork"
	"github.com/jmylchreest/hue/internal/colour"
)

const (
	// DefaultTTL is how long a palette stays fresh.
	DefaultTTL = 24 * time.Hour

	// DefaultConcurrency bounds the extractions ExtractAll runs at once.
	DefaultConcurrency = 3
)

var (
	// ErrCacheMiss is returned by Lookup when no fresh palette is cached.
	ErrCacheMiss = errors.New("palette not cached")

	// ErrExtractionFailed is returned when every extraction attempt failed.
	ErrExtractionFailed = errors.New("palette extraction failed")
)

// ExtractFunc computes a palette. It is only called on a cache miss.
type ExtractFunc func(ctx context.Context) (*artwork.Palette, error)

// Key identifies a cached palette.
type Key struct {
	ArtworkID int
	Count     int
}

// KeyFor returns the cache key for an artwork and requested palette size.
// The size is clamped the same way the quantizer clamps it.
func KeyFor(ref artwork.Ref, k int) Key {
	return Key{ArtworkID: ref.ID, Count: colour.ClampCount(k)}
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d", k.ArtworkID, k.Count)
}

// Status is the state of a cache entry.
type Status int

const (
	StatusAbsent Status = iota
	StatusPending
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	default:
		return "absent"
	}
}

type entry struct {
	status    Status
	value     *artwork.Palette
	createdAt time.Time
}

// Stats counts cache activity.
type Stats struct {
	Hits        int64
	Misses      int64
	Extractions int64
	Failures    int64
}

// Options configures a Cache. Zero values use the package defaults.
type Options struct {
	TTL         time.Duration
	Retry       *RetryPolicy
	Concurrency int
	Logger      hclog.Logger

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Cache memoises palettes. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	group   singleflight.Group

	ttl         time.Duration
	retry       RetryPolicy
	concurrency int
	now         func() time.Time
	sleep       func(context.Context, time.Duration) error
	logger      hclog.Logger

	hits, misses, extractions, failures atomic.Int64
}

// New creates an empty cache.
func New(opts Options) *Cache {
	c := &Cache{
		entries:     make(map[Key]*entry),
		ttl:         opts.TTL,
		retry:       DefaultRetryPolicy(),
		concurrency: opts.Concurrency,
		now:         opts.Clock,
		sleep:       sleep,
		logger:      opts.Logger,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if opts.Retry != nil {
		c.retry = *opts.Retry
	}
	if c.concurrency <= 0 {
		c.concurrency = DefaultConcurrency
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = hclog.NewNullLogger()
	}
	return c
}

// GetOrExtract returns the cached palette for ref and k, extracting it on a miss.
//
// Concurrent callers for the same key share a single extraction. If ctx is
// cancelled the caller stops waiting, but the extraction carries on and its
// result is still cached.
func (c *Cache) GetOrExtract(ctx context.Context, ref artwork.Ref, k int, extract ExtractFunc) (*artwork.Palette, error) {
	key := KeyFor(ref, k)
	if p, ok := c.fresh(key); ok {
		c.hits.Add(1)
		c.logger.Trace("cache hit", "key", key)
		return p, nil
	}
	c.misses.Add(1)

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (any, error) {
		// A flight that finished between the check above and DoChan already stored it.
		if p, ok := c.fresh(key); ok {
			return p, nil
		}
		return c.extract(detached, key, extract)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*artwork.Palette), nil
	}
}

// extract runs extract with retries and stores the result.
// On failure the pending entry is removed so the next request starts over.
func (c *Cache) extract(ctx context.Context, key Key, extract ExtractFunc) (*artwork.Palette, error) {
	c.mu.Lock()
	c.entries[key] = &entry{status: StatusPending}
	c.mu.Unlock()

	var lastErr error
	for attempt := 0; ; attempt++ {
		c.extractions.Add(1)
		p, err := extract(ctx)
		if err == nil && p == nil {
			err = errors.New("extractor returned no palette")
		}
		if err == nil {
			c.mu.Lock()
			c.entries[key] = &entry{status: StatusReady, value: p, createdAt: c.now()}
			c.mu.Unlock()
			c.logger.Debug("palette extracted", "key", key, "attempts", attempt+1)
			return p, nil
		}

		lastErr = err
		if attempt >= c.retry.MaxRetries || !Retryable(err) {
			break
		}

		delay := c.retry.Delay(attempt)
		c.logger.Warn("extraction failed, retrying", "key", key, "attempt", attempt+1, "delay", delay, "error", err)
		if err := c.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.failures.Add(1)
	c.logger.Warn("extraction failed", "key", key, "error", lastErr)
	return nil, fmt.Errorf("%w: artwork %d: %w", ErrExtractionFailed, key.ArtworkID, lastErr)
}

// fresh returns the Ready palette for key if it is younger than the TTL.
func (c *Cache) fresh(key Key) (*artwork.Palette, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.status != StatusReady {
		return nil, false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

// Lookup returns a fresh cached palette without extracting.
// It returns ErrCacheMiss when none is available.
func (c *Cache) Lookup(ref artwork.Ref, k int) (*artwork.Palette, error) {
	if p, ok := c.fresh(KeyFor(ref, k)); ok {
		return p, nil
	}
	return nil, ErrCacheMiss
}

// Status reports the state of the entry for ref and k. Stale entries are Absent.
func (c *Cache) Status(ref artwork.Ref, k int) Status {
	key := KeyFor(ref, k)
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	switch {
	case !ok:
		return StatusAbsent
	case e.status == StatusPending:
		return StatusPending
	}
	if _, ok := c.fresh(key); !ok {
		return StatusAbsent
	}
	return StatusReady
}

// Invalidate drops the cached palette for ref and k. Pending extractions are left alone.
func (c *Cache) Invalidate(ref artwork.Ref, k int) {
	key := KeyFor(ref, k)
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.status == StatusReady {
		delete(c.entries, key)
	}
}

// Len returns the number of entries, including pending and stale ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the activity counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Extractions: c.extractions.Load(),
		Failures:    c.failures.Load(),
	}
}

// Result is the outcome of one artwork in a batch.
type Result struct {
	Ref     artwork.Ref
	Palette *artwork.Palette
	Err     error
}

// ProgressFunc is called after each artwork in a batch settles.
type ProgressFunc func(completed, total int)

// ExtractAll extracts palettes for refs, at most Concurrency at a time.
//
// Every artwork settles independently: failures are recorded in its Result and
// do not stop the batch. Artworks without images are skipped with ErrNoImage.
// Results are returned in the order of refs. The returned error is only set
// when ctx ends before the batch completes.
func (c *Cache) ExtractAll(ctx context.Context, refs []artwork.Ref, k int, extract func(context.Context, artwork.Ref) (*artwork.Palette, error), progress ProgressFunc) ([]Result, error) {
	results := make([]Result, len(refs))

	var (
		mu        sync.Mutex
		completed int
	)
	settle := func(i int, p *artwork.Palette, err error) {
		results[i].Palette, results[i].Err = p, err
		mu.Lock()
		defer mu.Unlock()
		completed++
		if progress != nil {
			progress(completed, len(refs))
		}
	}

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, ref := range refs {
		results[i].Ref = ref
		if !ref.HasImage() {
			settle(i, nil, artwork.ErrNoImage)
			continue
		}
		if ctx.Err() != nil {
			settle(i, nil, ctx.Err())
			continue
		}
		g.Go(func() error {
			p, err := c.GetOrExtract(ctx, ref, k, func(ctx context.Context) (*artwork.Palette, error) {
				return extract(ctx, ref)
			})
			if err != nil {
				c.logger.Warn("skipping artwork", "artwork", ref.ID, "error", err)
			}
			settle(i, p, err)
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}
