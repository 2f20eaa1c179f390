package shard

import (
	"github.com/jonboulle/clockwork"

	"github.com/krisalay/tunecache/types"
)

// Slot is what a shard keeps per key: the live entry and the deferred
// cleanup timer scheduled when it was written.
type Slot struct {
	Entry *types.CacheEntry
	Timer clockwork.Timer
}

// StopTimer cancels the pending cleanup, if any.
func (s *Slot) StopTimer() {
	if s.Timer != nil {
		s.Timer.Stop()
		s.Timer = nil
	}
}

// ShardStore is the interface used by a shard to store and retrieve slots.
// Implementations are not safe for concurrent use; the owning shard's
// mutex serialises access.
type ShardStore interface {
	Get(string) (*Slot, bool)
	Put(string, *Slot)
	Delete(string)

	// Range calls fn for every slot until fn returns false. fn may
	// delete the key it is called with.
	Range(fn func(key string, s *Slot) bool)

	Len() int
}

type mapStore struct {
	slots map[string]*Slot
}

func NewMapStore() ShardStore {
	return &mapStore{slots: make(map[string]*Slot)}
}

func (s *mapStore) Get(key string) (*Slot, bool) {
	sl, ok := s.slots[key]
	return sl, ok
}

func (s *mapStore) Put(key string, sl *Slot) {
	s.slots[key] = sl
}

func (s *mapStore) Delete(key string) {
	delete(s.slots, key)
}

func (s *mapStore) Range(fn func(string, *Slot) bool) {
	for k, sl := range s.slots {
		if !fn(k, sl) {
			return
		}
	}
}

func (s *mapStore) Len() int {
	return len(s.slots)
}
