package cache

import (
	"context"
	"time"

	"github.com/krisalay/tunecache/types"
)

// Wildcard passed to Invalidate clears the whole store.
const Wildcard = "*"

/*
Cache defines the PUBLIC API of the TTL store.
The read-through layers depend on this contract, not on the sharded
implementation, so tests and alternative stores can be plugged in.
*/
type Cache interface {

	/*
		Get returns the value stored under key.

		BEHAVIOR:
		---------
		- Entry exists and is fresh under the TTL it was written with → value, true
		- Entry is stale → removed, nil, false
		- Entry is a tombstone (cached failure) → nil, false
	*/
	Get(key string) (any, bool)

	/*
		GetFresh is Get with an additional freshness bound chosen by the
		reader: the value is returned only if now - StoredAt < maxAge.
		A stale-for-the-reader entry is reported absent but NOT removed,
		since it may still be fresh for its writer.
	*/
	GetFresh(key string, maxAge time.Duration) (any, bool)

	// Lookup returns a snapshot of the fresh entry under key, tombstones included.
	Lookup(key string) (*types.CacheEntry, bool)

	/*
		Set stores value under key with StoredAt = now.

		- Any previous entry for key is replaced, never merged
		- ttl <= 0 means the entry never expires
		- A one-shot cleanup removes the entry once ttl elapses unless the
		  key was rewritten in the meantime
	*/
	Set(key string, value any, ttl time.Duration)

	// SetEntry stores a prepared entry (for example a tombstone). StoredAt
	// and LastAccessedAt are stamped by the store.
	SetEntry(ent *types.CacheEntry)

	// Remove deletes key immediately. Removing a missing key is a no-op.
	Remove(key string) bool

	/*
		Invalidate removes entries by pattern, regardless of remaining TTL.

		- Wildcard clears the whole store
		- Any other non-empty pattern removes every key containing it as a substring
		- An empty pattern removes nothing

		Returns the number of keys removed. Idempotent.
	*/
	Invalidate(pattern string) int

	// Clear removes every entry.
	Clear() int

	// Sweep removes every entry that is expired right now.
	Sweep() int

	// StartJanitor sweeps every interval until ctx is done or the store is closed.
	StartJanitor(ctx context.Context, interval time.Duration)

	/*
		TTL returns the remaining time-to-live for a key.

		RETURN VALUES (Redis-compatible semantics):
		-------------------------------------------
		> 0   : Duration remaining before expiration
		-1    : Key exists but has no TTL
		-2    : Key does not exist or is already expired
	*/
	TTL(key string) time.Duration

	// Len returns the number of stored entries, stale ones included until swept.
	Len() int

	// Close stops cleanup timers and the janitor. The store stays readable.
	Close()
}
