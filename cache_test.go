package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/tunecache"
	api "github.com/krisalay/tunecache/api"
	"github.com/krisalay/tunecache/eviction"
	"github.com/krisalay/tunecache/expiration"
	"github.com/krisalay/tunecache/types"
)

//
// ================= HELPER: CREATE CACHE =================
//

func newTestCache(t *testing.T, opts cache.Options) (*cache.ShardedCache, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	opts.Clock = clock
	if opts.Shards == 0 {
		opts.Shards = 2
	}
	c, err := cache.NewShardedCache(opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, clock
}

//
// ================= BASIC OPERATIONS =================
//

func TestSetAndGet(t *testing.T) {
	c, _ := newTestCache(t, cache.Options{})

	c.Set("profile_1", "alice", time.Minute)

	v, ok := c.Get("profile_1")
	require.True(t, ok)
	assert.Equal(t, "alice", v)
}

func TestGetMissingKey(t *testing.T) {
	c, _ := newTestCache(t, cache.Options{})

	v, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestOverwriteReplacesValueAndTimestamp(t *testing.T) {
	c, clock := newTestCache(t, cache.Options{})

	c.Set("tracks_1", "v1", time.Minute)
	clock.Advance(50 * time.Second)
	c.Set("tracks_1", "v2", time.Minute)
	clock.Advance(50 * time.Second)

	v, ok := c.Get("tracks_1")
	require.True(t, ok, "rewrite must restart the TTL")
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, c.Len())
}

//
// ================= TTL =================
//

func TestTTLExpiration(t *testing.T) {
	c, clock := newTestCache(t, cache.Options{})

	c.Set("analytics_1_30d", []int{1, 2}, time.Minute)

	clock.Advance(59 * time.Second)
	_, ok := c.Get("analytics_1_30d")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = c.Get("analytics_1_30d")
	assert.False(t, ok)
}

func TestExpiryBoundaryIsExclusive(t *testing.T) {
	c, clock := newTestCache(t, cache.Options{})

	c.Set("k", "v", time.Minute)
	clock.Advance(time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok, "an entry aged exactly ttl is stale")
}

func TestGetFreshAppliesReaderTTL(t *testing.T) {
	c, clock := newTestCache(t, cache.Options{})

	c.Set("earnings_1", 10.5, 5*time.Minute)
	clock.Advance(2 * time.Minute)

	_, ok := c.GetFresh("earnings_1", time.Minute)
	assert.False(t, ok)

	v, ok := c.GetFresh("earnings_1", 3*time.Minute)
	require.True(t, ok)
	assert.Equal(t, 10.5, v)

	// A reader with a tighter bound does not evict the writer's entry.
	assert.Equal(t, 1, c.Len())
}

func TestDeferredCleanupRemovesUnreadEntry(t *testing.T) {
	c, clock := newTestCache(t, cache.Options{})

	c.Set("notifications_1", "n", 30*time.Second)
	clock.Advance(31 * time.Second)

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestOverwriteCancelsPreviousCleanup(t *testing.T) {
	c, clock := newTestCache(t, cache.Options{})

	c.Set("k", "v1", time.Minute)
	clock.Advance(30 * time.Second)
	c.Set("k", "v2", time.Minute)

	// The first write's timer would have fired here.
	clock.Advance(40 * time.Second)

	assert.Never(t, func() bool { return c.Len() == 0 }, 50*time.Millisecond, 5*time.Millisecond)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c, clock := newTestCache(t, cache.Options{})

	c.Set("k", "v", 0)
	clock.Advance(24 * time.Hour)

	_, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, time.Duration(-1), c.TTL("k"))
}

func TestTTLReportsRemaining(t *testing.T) {
	c, clock := newTestCache(t, cache.Options{})

	c.Set("k", "v", time.Minute)
	clock.Advance(20 * time.Second)

	assert.Equal(t, 40*time.Second, c.TTL("k"))
	assert.Equal(t, time.Duration(-2), c.TTL("missing"))
}

func TestSlidingExpirationExtendsOnRead(t *testing.T) {
	c, clock := newTestCache(t, cache.Options{Expiration: expiration.Sliding{}})

	c.Set("k", "v", time.Minute)
	clock.Advance(45 * time.Second)
	_, ok := c.Get("k")
	require.True(t, ok)

	clock.Advance(45 * time.Second)
	_, ok = c.Get("k")
	assert.True(t, ok)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	c, clock := newTestCache(t, cache.Options{})
	c.Close() // stop deferred cleanups so Sweep does the work

	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)
	clock.Advance(time.Minute)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
}

//
// ================= INVALIDATION =================
//

func TestInvalidateByPattern(t *testing.T) {
	c, _ := newTestCache(t, cache.Options{})

	c.Set("profile_1", "a", time.Minute)
	c.Set("profile_2", "b", time.Minute)
	c.Set("tracks_1", "c", time.Minute)

	assert.Equal(t, 2, c.Invalidate("profile_"))

	_, ok := c.Get("profile_1")
	assert.False(t, ok)
	_, ok = c.Get("profile_2")
	assert.False(t, ok)
	v, ok := c.Get("tracks_1")
	require.True(t, ok)
	assert.Equal(t, "c", v)
}

func TestInvalidateIsIdempotent(t *testing.T) {
	c, _ := newTestCache(t, cache.Options{})
	c.Set("profile_1", "a", time.Minute)

	assert.Equal(t, 0, c.Invalidate("nothing-matches"))
	assert.Equal(t, 0, c.Invalidate(""))
	assert.Equal(t, 1, c.Len())
}

func TestInvalidateWildcardClears(t *testing.T) {
	c, _ := newTestCache(t, cache.Options{})
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	assert.Equal(t, 2, c.Invalidate(api.Wildcard))
	assert.Equal(t, 0, c.Len())
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(t, cache.Options{Shards: 4})
	for i := 0; i < 20; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i, time.Hour)
	}

	c.Clear()

	for i := 0; i < 20; i++ {
		_, ok := c.Get(fmt.Sprintf("key-%d", i))
		assert.False(t, ok)
	}
}

func TestRemoveKey(t *testing.T) {
	c, _ := newTestCache(t, cache.Options{})
	c.Set("k", "v", time.Minute)

	assert.True(t, c.Remove("k"))
	assert.False(t, c.Remove("k"))
	_, ok := c.Get("k")
	assert.False(t, ok)
}

//
// ================= TOMBSTONES =================
//

func TestTombstoneIsNotAValue(t *testing.T) {
	c, _ := newTestCache(t, cache.Options{})
	c.SetEntry(&types.CacheEntry{Key: "k", Err: types.ErrNoData, TTL: time.Minute})

	_, ok := c.Get("k")
	assert.False(t, ok)

	ent, ok := c.Lookup("k")
	require.True(t, ok)
	assert.True(t, ent.Tombstone())
}

func TestSlidingStoreDoesNotExtendTombstones(t *testing.T) {
	c, clock := newTestCache(t, cache.Options{Expiration: expiration.Sliding{}})
	c.SetEntry(&types.CacheEntry{Key: "k", Err: types.ErrNoData, TTL: 10 * time.Second})

	clock.Advance(5 * time.Second)
	_, ok := c.Lookup("k")
	require.True(t, ok)

	clock.Advance(5 * time.Second)
	_, ok = c.Lookup("k")
	assert.False(t, ok, "a tombstone expires from StoredAt even when read")
}

//
// ================= CAPACITY & EVICTION =================
//

func TestEvictionOnCapacity(t *testing.T) {
	c, _ := newTestCache(t, cache.Options{Shards: 1, Capacity: 2, Eviction: eviction.LRU})

	c.Set("key1", 1, time.Minute)
	c.Set("key2", 2, time.Minute)
	c.Get("key1")
	c.Set("key3", 3, time.Minute) // evicts key2

	_, ok := c.Get("key2")
	assert.False(t, ok)
	_, ok = c.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestUnknownEvictionPolicy(t *testing.T) {
	_, err := cache.NewShardedCache(cache.Options{Capacity: 10, Eviction: "MRU"})
	assert.Error(t, err)
}

//
// ================= JANITOR =================
//

func TestJanitorSweeps(t *testing.T) {
	c, clock := newTestCache(t, cache.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.StartJanitor(ctx, 10*time.Second)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	c.Set("k", "v", time.Second)
	clock.Advance(10 * time.Second)

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

//
// ================= CONCURRENCY =================
//

func TestConcurrentReadersAndWriters(t *testing.T) {
	c, _ := newTestCache(t, cache.Options{Shards: 4})

	wg := sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("profile_%d", id%3)
			for j := 0; j < 100; j++ {
				c.Set(key, j, time.Minute)
				if v, ok := c.Get(key); ok {
					if _, isInt := v.(int); !isInt {
						t.Errorf("torn value %v", v)
					}
				}
				if j%10 == 0 {
					c.Invalidate("profile_")
				}
			}
		}(i)
	}
	wg.Wait()
}
