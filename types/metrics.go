package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when the cache successfully returns a value.
	Hit()

	// Miss is called when the cache does NOT find a valid key and has to fetch it remotely.
	Miss()

	// Eviction is called when a key is removed because its shard is full.
	Eviction()

	// Expire is called when a key is removed because it has passed its TTL.
	Expire()

	// Invalidate is called with the number of keys removed by an explicit invalidation.
	Invalidate(n int)

	// FetchError is called when a remote fetch fails.
	FetchError()

	// NegativeHit is called when a cached failure is returned instead of fetching again.
	NegativeHit()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

The cache calls metrics on every path, so a default that ignores all
events keeps the code free of nil checks.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()           {}
func (NoopMetrics) Miss()          {}
func (NoopMetrics) Eviction()      {}
func (NoopMetrics) Expire()        {}
func (NoopMetrics) Invalidate(int) {}
func (NoopMetrics) FetchError()    {}
func (NoopMetrics) NegativeHit()   {}
