package shard

import (
	"sync"

	"github.com/krisalay/tunecache/eviction"
)

/*
A Shard is a small, independent piece of the cache. Instead of one map behind
one lock, keys are spread across shards and each shard:
- Holds some portion of the entries
- Has its own eviction bookkeeping (bounded stores only)
- Has its own lock

Every read and write of a shard happens under Mu, so no caller can observe
a half-written entry.
*/
type Shard struct {
	Mu sync.Mutex

	// Store holds the key → slot data for this shard. Guarded by Mu.
	Store ShardStore

	// Eviction is nil for unbounded shards.
	Eviction eviction.Policy

	// Limit is the maximum number of entries; 0 means unbounded.
	Limit int
}

func NewShard(ev eviction.Policy, limit int) *Shard {
	return &Shard{
		Store:    NewMapStore(),
		Eviction: ev,
		Limit:    limit,
	}
}

// Full reports whether inserting a new key requires an eviction first.
// Callers must hold Mu.
func (s *Shard) Full() bool {
	return s.Limit > 0 && s.Store.Len() >= s.Limit
}
