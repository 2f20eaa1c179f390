package types

import "time"

// CacheEntry is one stored value together with the freshness policy it was
// written with. Entries are replaced wholesale on every write; only
// LastAccessedAt is touched after insertion.
type CacheEntry struct {
	Key            string
	Value          any
	StoredAt       time.Time
	LastAccessedAt time.Time
	TTL            time.Duration // zero => never expires

	// Err marks a tombstone: the last fetch for Key failed with Err and the
	// failure itself is being cached.
	Err error
}

// Tombstone reports whether the entry records a failed fetch instead of a value.
func (e *CacheEntry) Tombstone() bool {
	return e.Err != nil
}

// Age returns how long ago the entry was written.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}
