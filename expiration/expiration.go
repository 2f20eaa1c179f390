// This file defines how cache entries expire over time.

package expiration

import (
	"fmt"
	"time"

	"github.com/krisalay/tunecache/types"
)

/*
Strategy is the interface that all expiration rules must follow. Instead of hard-coding
expiration logic into the cache, we define a strategy so expiration behavior can be swapped easily.

Every entry carries its own TTL; a strategy only decides which timestamp the TTL
is measured from.
*/
type Strategy interface {

	// IsExpired checks if the entry is expired at now.
	IsExpired(*types.CacheEntry, time.Time) bool

	// OnAccess is called whenever a cache entry is read successfully.
	OnAccess(*types.CacheEntry, time.Time)

	// Deadline returns the instant the entry stops being valid, or the zero
	// time if it never expires.
	Deadline(*types.CacheEntry) time.Time
}

// Kind names a strategy in configuration.
type Kind string

const (
	// KindFixed measures TTL from the write.
	KindFixed Kind = "fixed"

	// KindSliding measures TTL from the last read.
	KindSliding Kind = "sliding"
)

// New returns the strategy registered under kind. An empty kind means fixed.
func New(kind Kind) (Strategy, error) {
	switch kind {
	case "", KindFixed:
		return Fixed{}, nil
	case KindSliding:
		return Sliding{}, nil
	default:
		return nil, fmt.Errorf("unknown expiration strategy %q", kind)
	}
}
