package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	api "github.com/krisalay/tunecache/api"
	"github.com/krisalay/tunecache/types"
)

/*
CacheEngine is the read-through layer on top of a TTL store.
It is responsible for the "behavior" of a cache miss, NOT storage.

It decides:
- When a stored entry can answer a read
- How the remote fetch is called on a miss (once per key, bounded in time)
- What is written back after the fetch (the value, a tombstone, or nothing)
- How metrics and logs are recorded

It does NOT:
- Store data
- Handle sharding or locking
- Decide expiry or eviction order
*/
type CacheEngine struct {
	// Store is where fetched values live.
	Store api.Cache

	// FetchTimeout bounds every remote fetch. The fetch does not inherit the
	// caller's cancellation (other callers may be waiting on it), so zero
	// leaves it unbounded.
	FetchTimeout time.Duration

	// NegativeTTL is how long a failed fetch is remembered. While the
	// tombstone is fresh, reads return the cached error without calling
	// the remote. Zero disables negative caching: every read after a
	// failure fetches again.
	NegativeTTL time.Duration

	Metrics types.Metrics
	Logger  *slog.Logger

	// sf prevents concurrent misses on one key from fetching it more than once.
	sf singleflight.Group
}

type Options struct {
	FetchTimeout time.Duration
	NegativeTTL  time.Duration
	Metrics      types.Metrics
	Logger       *slog.Logger
}

func NewCacheEngine(store api.Cache, opts Options) *CacheEngine {
	if opts.Metrics == nil {
		opts.Metrics = types.NoopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &CacheEngine{
		Store:        store,
		FetchTimeout: opts.FetchTimeout,
		NegativeTTL:  opts.NegativeTTL,
		Metrics:      opts.Metrics,
		Logger:       opts.Logger,
	}
}

/*
Fetch returns the value for key, reading through to fetch on a miss.

BEHAVIOR:
---------
 1. Fresh value in the store → returned with fromCache = true, fetch is not called
 2. Fresh tombstone in the store → its error is returned with fromCache = true
 3. Otherwise fetch runs (shared by concurrent callers of the same key):
    - success: value stored for ttl, returned with fromCache = false
    - failure: nothing stored as a value; a tombstone is stored when
      NegativeTTL > 0; the error is returned

A caller whose ctx ends stops waiting and gets ctx.Err(). The shared fetch
keeps running for the callers still waiting and still fills the store.
*/
func (e *CacheEngine) Fetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetch func(context.Context) (any, error),
) (value any, fromCache bool, err error) {

	if ent, ok := e.Store.Lookup(key); ok {
		if ent.Tombstone() {
			e.Metrics.NegativeHit()
			return nil, true, ent.Err
		}
		e.Metrics.Hit()
		return ent.Value, true, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	e.Metrics.Miss()
	e.Logger.Debug("cache miss", "key", key)

	ch := e.sf.DoChan(key, func() (any, error) {
		return e.load(context.WithoutCancel(ctx), key, ttl, fetch)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val, false, nil
	}
}

func (e *CacheEngine) load(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetch func(context.Context) (any, error),
) (any, error) {

	fctx := ctx
	if e.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, e.FetchTimeout)
		defer cancel()
	}

	v, err := fetch(fctx)
	if err == nil && v == nil {
		err = types.ErrNoData
	}
	if err != nil {
		e.fail(key, err)
		return nil, err
	}

	e.Store.Set(key, v, ttl)
	return v, nil
}

func (e *CacheEngine) fail(key string, err error) {
	e.Metrics.FetchError()
	e.Logger.Warn("fetch failed", "key", key, "err", err)

	// A fetch that cancelled itself says nothing about the remote.
	if e.NegativeTTL > 0 && !errors.Is(err, context.Canceled) {
		e.Store.SetEntry(&types.CacheEntry{Key: key, Err: err, TTL: e.NegativeTTL})
	}
}

// Invalidate drops every stored value or tombstone whose key contains pattern.
func (e *CacheEngine) Invalidate(pattern string) int {
	n := e.Store.Invalidate(pattern)
	if n > 0 {
		e.Logger.Debug("cache invalidated", "pattern", pattern, "removed", n)
	}
	return n
}
