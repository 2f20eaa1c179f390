// Package metrics exports cache events to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krisalay/tunecache/types"
)

var _ types.Metrics = (*Prometheus)(nil)

// Prometheus counts cache events. Register it once per registry.
type Prometheus struct {
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Evictions     prometheus.Counter
	Expirations   prometheus.Counter
	Invalidations prometheus.Counter
	FetchErrors   prometheus.Counter
	NegativeHits  prometheus.Counter
}

func NewPrometheus(namespace string) *Prometheus {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      name,
			Help:      help,
		})
	}

	return &Prometheus{
		Hits:          counter("hits_total", "Reads answered from the cache"),
		Misses:        counter("misses_total", "Reads that had to fetch from the backend"),
		Evictions:     counter("evictions_total", "Entries dropped because a shard was full"),
		Expirations:   counter("expirations_total", "Entries dropped after their TTL"),
		Invalidations: counter("invalidations_total", "Entries dropped by explicit invalidation"),
		FetchErrors:   counter("fetch_errors_total", "Backend fetches that failed"),
		NegativeHits:  counter("negative_hits_total", "Reads answered with a cached failure"),
	}
}

// Register adds every counter to reg.
func (p *Prometheus) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		p.Hits, p.Misses, p.Evictions, p.Expirations,
		p.Invalidations, p.FetchErrors, p.NegativeHits,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prometheus) Hit()         { p.Hits.Inc() }
func (p *Prometheus) Miss()        { p.Misses.Inc() }
func (p *Prometheus) Eviction()    { p.Evictions.Inc() }
func (p *Prometheus) Expire()      { p.Expirations.Inc() }
func (p *Prometheus) FetchError()  { p.FetchErrors.Inc() }
func (p *Prometheus) NegativeHit() { p.NegativeHits.Inc() }

func (p *Prometheus) Invalidate(n int) {
	if n > 0 {
		p.Invalidations.Add(float64(n))
	}
}
