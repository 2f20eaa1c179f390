package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cache "github.com/krisalay/tunecache"
	"github.com/krisalay/tunecache/config"
	"github.com/krisalay/tunecache/dashboard"
	"github.com/krisalay/tunecache/engine"
	"github.com/krisalay/tunecache/expiration"
	"github.com/krisalay/tunecache/metrics"
	"github.com/krisalay/tunecache/remote"
)

// ================= IN-MEMORY BACKEND =================

// demoBackend stands in for the hosted backend when no remote URL is configured.
type demoBackend struct {
	mu            sync.Mutex
	latency       time.Duration
	earningsDown  bool
	calls         map[string]int
	tracks        []dashboard.Track
	analytics     []dashboard.AnalyticsEvent
	earnings      []dashboard.EarningRecord
	notifications []dashboard.Notification
}

func newDemoBackend() *demoBackend {
	rev := func(v float64) *float64 { return &v }
	return &demoBackend{
		latency: 50 * time.Millisecond,
		calls:   make(map[string]int),
		tracks: []dashboard.Track{
			{ID: "t1", Title: "Night Drive", Plays: 5},
			{ID: "t2", Title: "Glass Rooms", Plays: 1},
			{ID: "t3", Title: "Satellite", Plays: 9},
			{ID: "t4", Title: "Low Tide", Plays: 3},
			{ID: "t5", Title: "Afterglow", Plays: 7},
			{ID: "t6", Title: "Paper Moons", Plays: 2},
			{ID: "t7", Title: "Northbound", Plays: 4},
		},
		analytics: []dashboard.AnalyticsEvent{
			{TrackID: "t3", Country: "US"}, {TrackID: "t3", Country: "DE"},
			{TrackID: "t5", Country: "US"}, {TrackID: "t1", Country: "BR"},
			{TrackID: "t1", Country: ""}, {TrackID: "t7", Country: "JP"},
		},
		earnings: []dashboard.EarningRecord{
			{TrackID: "t3", Revenue: rev(12.40)},
			{TrackID: "t5", Revenue: rev(8.10)},
			{TrackID: "t1"},
		},
		notifications: []dashboard.Notification{
			{ID: "n1", Title: "Release approved", Message: "Satellite is live"},
		},
	}
}

func (b *demoBackend) call(ctx context.Context, name string) error {
	b.mu.Lock()
	b.calls[name]++
	b.mu.Unlock()
	fmt.Println("BACKEND → fetch:", name)

	select {
	case <-time.After(b.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *demoBackend) FetchProfile(ctx context.Context, userID string) (*dashboard.Profile, error) {
	if err := b.call(ctx, "profile"); err != nil {
		return nil, err
	}
	return &dashboard.Profile{ID: userID, DisplayName: "Nova Reyes", ArtistName: "NOVA"}, nil
}

func (b *demoBackend) FetchTracks(ctx context.Context, _ string) ([]dashboard.Track, error) {
	if err := b.call(ctx, "tracks"); err != nil {
		return nil, err
	}
	return b.tracks, nil
}

func (b *demoBackend) FetchAnalytics(ctx context.Context, _, period string) ([]dashboard.AnalyticsEvent, error) {
	if err := b.call(ctx, "analytics "+period); err != nil {
		return nil, err
	}
	return b.analytics, nil
}

func (b *demoBackend) FetchEarnings(ctx context.Context, _ string) ([]dashboard.EarningRecord, error) {
	if err := b.call(ctx, "earnings"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	down := b.earningsDown
	b.mu.Unlock()
	if down {
		return nil, errors.New("earnings service unavailable")
	}
	return b.earnings, nil
}

func (b *demoBackend) FetchNotifications(ctx context.Context, _ string) ([]dashboard.Notification, error) {
	if err := b.call(ctx, "notifications"); err != nil {
		return nil, err
	}
	return b.notifications, nil
}

// ================= MAIN =================

func main() {
	configPath := flag.String("config", "", "Path to JSON config file")
	userID := flag.String("user", "demo-artist", "User whose dashboard is loaded")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(context.Background(), cfg, *userID, logger); err != nil {
		logger.Error("demo failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, userID string, logger *slog.Logger) error {
	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("SHARDS          :", cfg.Shards)
	fmt.Println("CAPACITY        :", cfg.Capacity)
	fmt.Println("EVICTION POLICY :", cfg.Eviction)
	fmt.Println("EXPIRATION      :", cfg.Expiration)
	fmt.Println("NEGATIVE TTL    :", cfg.NegativeTTL.Duration)
	fmt.Println("FETCH TIMEOUT   :", cfg.FetchTimeout.Duration)

	// ---------------- Metrics ----------------
	m := metrics.NewPrometheus("tunecache")
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
	}

	// ---------------- Store ----------------
	exp, err := expiration.New(cfg.Expiration)
	if err != nil {
		return err
	}
	store, err := cache.NewShardedCache(cache.Options{
		Shards:     cfg.Shards,
		Capacity:   cfg.Capacity,
		Eviction:   cfg.Eviction,
		Expiration: exp,
		Metrics:    m,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	jctx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	store.StartJanitor(jctx, cfg.JanitorInterval.Duration)

	// ---------------- Engine + Dashboard ----------------
	eng := engine.NewCacheEngine(store, engine.Options{
		FetchTimeout: cfg.FetchTimeout.Duration,
		NegativeTTL:  cfg.NegativeTTL.Duration,
		Metrics:      m,
		Logger:       logger,
	})

	backend := newDemoBackend()
	var fetcher dashboard.Fetcher = backend
	if cfg.Remote.BaseURL != "" {
		fetcher = remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.APIKey,
			remote.WithHTTPClient(&http.Client{Timeout: cfg.Remote.Timeout.Duration}))
		fmt.Println("BACKEND         :", cfg.Remote.BaseURL)
	} else {
		fmt.Println("BACKEND         : in-memory demo")
	}

	svc := dashboard.NewService(eng, fetcher, dashboard.Options{
		TTLs: dashboard.TTLs{
			Profile:       cfg.TTLs.Profile.Duration,
			Tracks:        cfg.TTLs.Tracks.Duration,
			Analytics:     cfg.TTLs.Analytics.Duration,
			Earnings:      cfg.TTLs.Earnings.Duration,
			Notifications: cfg.TTLs.Notifications.Duration,
		},
		AnalyticsWindow: cfg.AnalyticsWindow,
		Logger:          logger,
	})

	// ====================================================
	fmt.Println("\n==================== 1) NO IDENTITY ====================")
	sum, err := svc.Load(ctx, "")
	if err != nil {
		return err
	}
	fmt.Println("DASHBOARD → state =", sum.State)

	// ====================================================
	fmt.Println("\n==================== 2) CACHE MISS ====================")
	if err := printLoad(ctx, svc, userID); err != nil {
		return err
	}

	// ====================================================
	fmt.Println("\n==================== 3) CACHE HIT ====================")
	if err := printLoad(ctx, svc, userID); err != nil {
		return err
	}

	// ====================================================
	fmt.Println("\n==================== 4) SINGLEFLIGHT ====================")
	if err := svc.InvalidateCache(userID, dashboard.KindTracks); err != nil {
		return err
	}
	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s, err := svc.Load(ctx, userID)
			if err != nil {
				fmt.Printf("GOROUTINE-%d → error %v\n", id, err)
				return
			}
			fmt.Printf("GOROUTINE-%d → tracks from cache = %v\n", id, s.Statuses[dashboard.KindTracks].FromCache)
		}(i)
	}
	wg.Wait()

	// ====================================================
	fmt.Println("\n==================== 5) PARTIAL FAILURE ====================")
	backend.mu.Lock()
	backend.earningsDown = true
	backend.mu.Unlock()
	if err := svc.InvalidateCache(userID, dashboard.KindEarnings); err != nil {
		return err
	}
	if err := printLoad(ctx, svc, userID); err != nil {
		return err
	}

	// ====================================================
	fmt.Println("\n==================== 6) REFRESH ====================")
	backend.mu.Lock()
	backend.earningsDown = false
	backend.mu.Unlock()
	sum, err = svc.Refresh(ctx, userID)
	if err != nil {
		return err
	}
	printSummary(sum)

	// ====================================================
	fmt.Println("\n==================== 7) NOTIFICATIONS ====================")
	for i := 0; i < 2; i++ {
		res, err := svc.Notifications(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Printf("NOTIFICATIONS → %d item(s), from cache = %v\n", len(res.Data), res.FromCache)
	}

	// ====================================================
	fmt.Println("\n==================== STORE ====================")
	fmt.Println("ENTRIES        :", store.Len())
	fmt.Println("PROFILE TTL    :", store.TTL("profile_"+userID).Round(time.Second))

	// ====================================================
	printMetrics(m)

	fmt.Println("\n==================== SHUTDOWN ====================")
	return nil
}

func printLoad(ctx context.Context, svc *dashboard.Service, userID string) error {
	start := time.Now()
	sum, err := svc.Load(ctx, userID)
	if err != nil {
		return err
	}
	printSummary(sum)
	fmt.Println("DASHBOARD → took", time.Since(start).Round(time.Millisecond))
	return nil
}

func printSummary(sum *dashboard.Summary) {
	fmt.Println("DASHBOARD → state =", sum.State)
	for _, k := range dashboard.Kinds {
		st := sum.Statuses[k]
		fmt.Printf("  %-10s %-5s cache=%-5v %s\n", k, st.Status, st.FromCache, st.Error)
	}
	fmt.Printf("  tracks=%d plays=%d earnings=%.2f countries=%d avg/track=%.2f\n",
		sum.Stats.TotalTracks, sum.Stats.TotalPlays, sum.Stats.TotalEarnings,
		sum.Stats.UniqueCountries, sum.Stats.AverageEarningsPerTrack)
	for i, t := range sum.Stats.TopTracks {
		fmt.Printf("  #%d %s (%d plays)\n", i+1, t.Title, t.Plays)
	}
}

func printMetrics(m *metrics.Prometheus) {
	fmt.Println("\n==================== METRICS ====================")
	for _, c := range []struct {
		name string
		c    prometheus.Counter
	}{
		{"HITS", m.Hits},
		{"MISSES", m.Misses},
		{"EVICTIONS", m.Evictions},
		{"EXPIRED", m.Expirations},
		{"INVALIDATED", m.Invalidations},
		{"FETCH ERRORS", m.FetchErrors},
	} {
		fmt.Printf("%-13s: %.0f\n", c.name, counterValue(c.c))
	}
}
