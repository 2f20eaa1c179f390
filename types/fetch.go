package types

import (
	"context"
	"errors"
)

// ErrNoData is returned by a fetch that completed without a remote error but
// also without anything worth caching (an empty lookup, a null payload).
var ErrNoData = errors.New("no data")

/*
FetchFunc is the contract between the cache and the remote data provider.

It is called when the cache misses:
 1. Cache checks memory → key not found or stale
 2. Cache calls fetch(ctx)
 3. The provider talks to the backend
 4. On success the cache stores the value under the resource TTL
 5. On error nothing is stored as a value

The cache never interprets the error beyond "non-nil means do not cache".
*/
type FetchFunc[T any] func(ctx context.Context) (T, error)
