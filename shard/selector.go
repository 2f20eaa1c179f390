package shard

import "hash/fnv"

/*
This file decides HOW a cache key is assigned to a shard.
Keys of one resource share a prefix, so the hash must spread them
across shards instead of clustering on the prefix.
*/

// Selector is the interface that decides which shard should handle a given key.
type Selector interface {
	Select(string, []*Shard) *Shard
}

// HashSelector maps a key to a shard by FNV-1a hash modulo the shard count.
type HashSelector struct{}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (HashSelector) Select(key string, shards []*Shard) *Shard {
	return shards[hash(key)%uint32(len(shards))]
}
