package expiration

import (
	"time"

	"github.com/krisalay/tunecache/types"
)

/*
Sliding implements "expire after access". Every time someone reads the data,
the expiration point is pushed forward by the entry's TTL. As long as the data
keeps getting used, it stays alive. If nobody touches it for a while, it expires.
*/
type Sliding struct{}

func (Sliding) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return ent.TTL > 0 && now.Sub(ent.LastAccessedAt) >= ent.TTL
}

func (Sliding) OnAccess(ent *types.CacheEntry, now time.Time) {
	ent.LastAccessedAt = now
}

func (Sliding) Deadline(ent *types.CacheEntry) time.Time {
	if ent.TTL <= 0 {
		return time.Time{}
	}
	return ent.LastAccessedAt.Add(ent.TTL)
}
