package eviction

import "fmt"

/*
This file defines how a bounded store decides what to remove when a shard runs out of space.
Stores created without a capacity never consult a policy.
*/

/*
Policy is the interface that all eviction strategies must follow.

The store does NOT care how eviction works internally.
It calls these methods while holding the shard lock, so implementations
need no locking of their own.
*/
type Policy interface {

	// OnGet is called whenever a key is read from the store.
	OnGet(string)

	// OnPut is called whenever a key is written to the store.
	OnPut(string)

	// Remove is called when a key leaves the store for any reason other
	// than eviction (invalidation, expiry, clear).
	Remove(string)

	// Evict picks the key to drop and forgets it. It returns "" when
	// nothing is tracked.
	Evict() string
}

// PolicyType is a simple identifier for supported eviction strategies.
type PolicyType string

const (
	// LRU (Least Recently Used): Evicts the key that has NOT been accessed for the longest time.
	LRU PolicyType = "LRU"

	// FIFO (First In First Out): Evicts the oldest inserted key, regardless of access.
	FIFO PolicyType = "FIFO"
)

// NewEvictionPolicy creates the policy for t, sized for a shard holding at
// most size keys.
func NewEvictionPolicy(t PolicyType, size int) (Policy, error) {
	switch t {
	case LRU, "":
		return newLRU(size)
	case FIFO:
		return newFIFO(), nil
	default:
		return nil, fmt.Errorf("unknown eviction policy %q", t)
	}
}
