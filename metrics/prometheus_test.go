package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/tunecache"
	"github.com/krisalay/tunecache/engine"
	"github.com/krisalay/tunecache/metrics"
)

func TestRegister(t *testing.T) {
	m := metrics.NewPrometheus("test")
	reg := prometheus.NewRegistry()

	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg), "double registration must fail")
}

func TestCountsEngineEvents(t *testing.T) {
	m := metrics.NewPrometheus("test")
	store, err := cache.NewShardedCache(cache.Options{Metrics: m})
	require.NoError(t, err)
	defer store.Close()
	e := engine.NewCacheEngine(store, engine.Options{Metrics: m})
	ctx := context.Background()

	ok := func(context.Context) (any, error) { return "v", nil }
	fail := func(context.Context) (any, error) { return nil, errors.New("down") }

	_, _, _ = e.Fetch(ctx, "profile_1", time.Minute, ok)
	_, _, _ = e.Fetch(ctx, "profile_1", time.Minute, ok)
	_, _, _ = e.Fetch(ctx, "tracks_1", time.Minute, fail)
	e.Invalidate("profile_")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Hits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Misses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invalidations))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NegativeHits))
}
