// This file implements LRU eviction.

package eviction

import (
	lru "github.com/hashicorp/golang-lru/v2/simplelru"
)

// lruPolicy tracks recency only; values live in the shard.
type lruPolicy struct {
	order *lru.LRU[string, struct{}]
}

func newLRU(size int) (*lruPolicy, error) {
	// One slot of headroom: the shard evicts before inserting, so the
	// underlying list must never drop a key on its own.
	l, err := lru.NewLRU[string, struct{}](size+1, nil)
	if err != nil {
		return nil, err
	}
	return &lruPolicy{order: l}, nil
}

// OnGet marks k as most recently used.
func (l *lruPolicy) OnGet(k string) {
	l.order.Get(k)
}

// OnPut tracks k as most recently used, whether new or rewritten.
func (l *lruPolicy) OnPut(k string) {
	l.order.Add(k, struct{}{})
}

func (l *lruPolicy) Remove(k string) {
	l.order.Remove(k)
}

// Evict removes the least recently used key, which is always the oldest in the list.
func (l *lruPolicy) Evict() string {
	k, _, ok := l.order.RemoveOldest()
	if !ok {
		return ""
	}
	return k
}
