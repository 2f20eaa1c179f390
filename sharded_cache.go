package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	api "github.com/krisalay/tunecache/api"
	evict "github.com/krisalay/tunecache/eviction"
	"github.com/krisalay/tunecache/expiration"
	"github.com/krisalay/tunecache/shard"
	"github.com/krisalay/tunecache/types"
)

var _ api.Cache = (*ShardedCache)(nil)

// Options configures a ShardedCache. The zero value is a usable unbounded
// store with fixed expiration on the wall clock.
type Options struct {
	// Shards is the number of independently locked partitions. Defaults to 16.
	Shards int

	// Capacity bounds the total number of entries, divided evenly across
	// shards. 0 means unbounded and no eviction policy is consulted.
	Capacity int

	// Eviction picks the victim when a bounded shard is full. Defaults to LRU.
	Eviction evict.PolicyType

	// Expiration decides what an entry's TTL is measured from. Defaults to Fixed.
	Expiration expiration.Strategy

	Clock   clockwork.Clock
	Metrics types.Metrics
}

/*
ShardedCache is the TTL store.
This struct is the orchestrator that connects:
- shards (storage and locking)
- eviction (bounded stores only)
- expiration (lazy on read, deferred per-entry cleanup, optional sweeps)
- metrics
*/
type ShardedCache struct {
	shards   []*shard.Shard
	selector shard.Selector
	exp      expiration.Strategy
	clock    clockwork.Clock
	metrics  types.Metrics

	closeOnce sync.Once
	done      chan struct{}
}

func NewShardedCache(opts Options) (*ShardedCache, error) {
	if opts.Shards <= 0 {
		opts.Shards = 16
	}
	if opts.Expiration == nil {
		opts.Expiration = expiration.Fixed{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = types.NoopMetrics{}
	}

	limit := 0
	if opts.Capacity > 0 {
		limit = max(opts.Capacity/opts.Shards, 1)
	}

	s := make([]*shard.Shard, opts.Shards)
	for i := range s {
		var ev evict.Policy
		if limit > 0 {
			// Each shard gets its own eviction policy instance
			p, err := evict.NewEvictionPolicy(opts.Eviction, limit)
			if err != nil {
				return nil, err
			}
			ev = p
		}
		s[i] = shard.NewShard(ev, limit)
	}

	return &ShardedCache{
		shards:   s,
		selector: shard.HashSelector{},
		exp:      opts.Expiration,
		clock:    opts.Clock,
		metrics:  opts.Metrics,
		done:     make(chan struct{}),
	}, nil
}

func (c *ShardedCache) Get(key string) (any, bool) {
	ent, ok := c.Lookup(key)
	if !ok || ent.Tombstone() {
		return nil, false
	}
	return ent.Value, true
}

func (c *ShardedCache) GetFresh(key string, maxAge time.Duration) (any, bool) {
	ent, ok := c.Lookup(key)
	if !ok || ent.Tombstone() {
		return nil, false
	}
	if maxAge > 0 && ent.Age(c.clock.Now()) >= maxAge {
		return nil, false
	}
	return ent.Value, true
}

func (c *ShardedCache) Lookup(key string) (*types.CacheEntry, bool) {
	sh := c.selector.Select(key, c.shards)
	now := c.clock.Now()

	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	sl, ok := sh.Store.Get(key)
	if !ok {
		return nil, false
	}

	// Lazy expiry: stale entries found on read are dropped right away.
	if c.exp.IsExpired(sl.Entry, now) {
		c.deleteLocked(sh, key, sl)
		c.metrics.Expire()
		return nil, false
	}

	// Tombstones always age from StoredAt; reading one must not keep it alive.
	if !sl.Entry.Tombstone() {
		c.exp.OnAccess(sl.Entry, now)
	}
	if sh.Eviction != nil {
		sh.Eviction.OnGet(key)
	}

	snapshot := *sl.Entry
	return &snapshot, true
}

func (c *ShardedCache) Set(key string, value any, ttl time.Duration) {
	c.SetEntry(&types.CacheEntry{Key: key, Value: value, TTL: ttl})
}

func (c *ShardedCache) SetEntry(ent *types.CacheEntry) {
	now := c.clock.Now()
	ent.StoredAt = now
	ent.LastAccessedAt = now

	sh := c.selector.Select(ent.Key, c.shards)

	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	if prev, ok := sh.Store.Get(ent.Key); ok {
		// The replaced entry's cleanup must not outlive it.
		prev.StopTimer()
	} else if sh.Full() {
		if victim := sh.Eviction.Evict(); victim != "" {
			if sl, ok := sh.Store.Get(victim); ok {
				sl.StopTimer()
				sh.Store.Delete(victim)
			}
			c.metrics.Eviction()
		}
	}

	sl := &shard.Slot{Entry: ent}
	if ent.TTL > 0 && !c.closed() {
		sl.Timer = c.clock.AfterFunc(ent.TTL, func() { c.cleanup(ent) })
	}
	sh.Store.Put(ent.Key, sl)

	if sh.Eviction != nil {
		sh.Eviction.OnPut(ent.Key)
	}
}

// cleanup is the deferred check scheduled by SetEntry. It only touches the
// exact entry it was scheduled for; a rewrite in the meantime makes it a no-op.
func (c *ShardedCache) cleanup(ent *types.CacheEntry) {
	sh := c.selector.Select(ent.Key, c.shards)
	now := c.clock.Now()

	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	sl, ok := sh.Store.Get(ent.Key)
	if !ok || sl.Entry != ent {
		return
	}

	if !c.exp.IsExpired(ent, now) {
		// Sliding entries that were read since the write live on.
		sl.Timer = nil
		if !c.closed() {
			sl.Timer = c.clock.AfterFunc(c.exp.Deadline(ent).Sub(now), func() { c.cleanup(ent) })
		}
		return
	}

	sh.Store.Delete(ent.Key)
	if sh.Eviction != nil {
		sh.Eviction.Remove(ent.Key)
	}
	c.metrics.Expire()
}

func (c *ShardedCache) Remove(key string) bool {
	sh := c.selector.Select(key, c.shards)

	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	sl, ok := sh.Store.Get(key)
	if !ok {
		return false
	}
	c.deleteLocked(sh, key, sl)
	c.metrics.Invalidate(1)
	return true
}

func (c *ShardedCache) Invalidate(pattern string) int {
	if pattern == api.Wildcard {
		return c.Clear()
	}
	if pattern == "" {
		return 0
	}

	n := c.removeWhere(func(key string, _ *types.CacheEntry) bool {
		return strings.Contains(key, pattern)
	})
	c.metrics.Invalidate(n)
	return n
}

func (c *ShardedCache) Clear() int {
	n := c.removeWhere(func(string, *types.CacheEntry) bool { return true })
	c.metrics.Invalidate(n)
	return n
}

func (c *ShardedCache) Sweep() int {
	now := c.clock.Now()
	n := c.removeWhere(func(_ string, ent *types.CacheEntry) bool {
		return c.exp.IsExpired(ent, now)
	})
	for range n {
		c.metrics.Expire()
	}
	return n
}

func (c *ShardedCache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := c.clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.done:
				return
			case <-ticker.Chan():
				c.Sweep()
			}
		}
	}()
}

func (c *ShardedCache) TTL(key string) time.Duration {
	sh := c.selector.Select(key, c.shards)
	now := c.clock.Now()

	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	sl, ok := sh.Store.Get(key)
	if !ok || c.exp.IsExpired(sl.Entry, now) {
		return -2
	}
	deadline := c.exp.Deadline(sl.Entry)
	if deadline.IsZero() {
		return -1
	}
	return deadline.Sub(now)
}

func (c *ShardedCache) Len() int {
	n := 0
	for _, sh := range c.shards {
		sh.Mu.Lock()
		n += sh.Store.Len()
		sh.Mu.Unlock()
	}
	return n
}

func (c *ShardedCache) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		for _, sh := range c.shards {
			sh.Mu.Lock()
			sh.Store.Range(func(_ string, sl *shard.Slot) bool {
				sl.StopTimer()
				return true
			})
			sh.Mu.Unlock()
		}
	})
}

func (c *ShardedCache) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *ShardedCache) removeWhere(match func(string, *types.CacheEntry) bool) int {
	n := 0
	for _, sh := range c.shards {
		sh.Mu.Lock()
		sh.Store.Range(func(key string, sl *shard.Slot) bool {
			if match(key, sl.Entry) {
				c.deleteLocked(sh, key, sl)
				n++
			}
			return true
		})
		sh.Mu.Unlock()
	}
	return n
}

// deleteLocked drops key from sh. Callers must hold sh.Mu.
func (c *ShardedCache) deleteLocked(sh *shard.Shard, key string, sl *shard.Slot) {
	sl.StopTimer()
	sh.Store.Delete(key)
	if sh.Eviction != nil {
		sh.Eviction.Remove(key)
	}
}
