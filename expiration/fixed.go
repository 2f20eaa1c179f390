package expiration

import (
	"time"

	"github.com/krisalay/tunecache/types"
)

// Fixed keeps an entry valid while now - StoredAt < TTL. Reads never extend it.
type Fixed struct{}

func (Fixed) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return ent.TTL > 0 && ent.Age(now) >= ent.TTL
}

func (Fixed) OnAccess(ent *types.CacheEntry, now time.Time) {
	ent.LastAccessedAt = now
}

func (Fixed) Deadline(ent *types.CacheEntry) time.Time {
	if ent.TTL <= 0 {
		return time.Time{}
	}
	return ent.StoredAt.Add(ent.TTL)
}
