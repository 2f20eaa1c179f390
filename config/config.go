// Package config loads the cache and dashboard settings from a JSON file
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/krisalay/tunecache/eviction"
	"github.com/krisalay/tunecache/expiration"
	"github.com/krisalay/tunecache/resource"
)

const envPrefix = "TUNECACHE_"

type TTLs struct {
	Profile       Duration `json:"profile"`
	Tracks        Duration `json:"tracks"`
	Analytics     Duration `json:"analytics"`
	Earnings      Duration `json:"earnings"`
	Notifications Duration `json:"notifications"`
}

type Remote struct {
	BaseURL string   `json:"base_url"`
	APIKey  string   `json:"api_key"`
	Timeout Duration `json:"timeout"`
}

type Config struct {
	Shards     int                 `json:"shards"`
	Capacity   int                 `json:"capacity"`
	Eviction   eviction.PolicyType `json:"eviction"`
	Expiration expiration.Kind     `json:"expiration"`

	// JanitorInterval enables periodic sweeps of expired entries; zero
	// leaves expiry to reads and per-entry cleanup.
	JanitorInterval Duration `json:"janitor_interval"`

	FetchTimeout Duration `json:"fetch_timeout"`
	NegativeTTL  Duration `json:"negative_ttl"`

	TTLs            TTLs   `json:"ttls"`
	AnalyticsWindow string `json:"analytics_window"`

	Remote Remote `json:"remote"`

	MetricsAddr string `json:"metrics_addr"`
	LogLevel    string `json:"log_level"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Shards:          16,
		Eviction:        eviction.LRU,
		Expiration:      expiration.KindFixed,
		FetchTimeout:    Duration{10 * time.Second},
		AnalyticsWindow: "30d",
		TTLs: TTLs{
			Profile:       Duration{resource.ProfileTTL},
			Tracks:        Duration{resource.TracksTTL},
			Analytics:     Duration{resource.AnalyticsTTL},
			Earnings:      Duration{resource.EarningsTTL},
			Notifications: Duration{resource.NotificationsTTL},
		},
		Remote:   Remote{Timeout: Duration{10 * time.Second}},
		LogLevel: "info",
	}
}

// Load reads path (if non-empty), fills unset fields with defaults, applies
// TUNECACHE_* environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyDefaults()

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Shards == 0 {
		c.Shards = def.Shards
	}
	if c.Eviction == "" {
		c.Eviction = def.Eviction
	}
	if c.Expiration == "" {
		c.Expiration = def.Expiration
	}
	if c.FetchTimeout.Duration == 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	if c.AnalyticsWindow == "" {
		c.AnalyticsWindow = def.AnalyticsWindow
	}
	if c.TTLs.Profile.Duration == 0 {
		c.TTLs.Profile = def.TTLs.Profile
	}
	if c.TTLs.Tracks.Duration == 0 {
		c.TTLs.Tracks = def.TTLs.Tracks
	}
	if c.TTLs.Analytics.Duration == 0 {
		c.TTLs.Analytics = def.TTLs.Analytics
	}
	if c.TTLs.Earnings.Duration == 0 {
		c.TTLs.Earnings = def.TTLs.Earnings
	}
	if c.TTLs.Notifications.Duration == 0 {
		c.TTLs.Notifications = def.TTLs.Notifications
	}
	if c.Remote.Timeout.Duration == 0 {
		c.Remote.Timeout = def.Remote.Timeout
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// ApplyEnv overrides fields from TUNECACHE_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(name string, dst *Duration) error {
		v, ok := lookup(envPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		dst.Duration = d
		return nil
	}

	str("REMOTE_URL", &c.Remote.BaseURL)
	str("REMOTE_KEY", &c.Remote.APIKey)
	str("METRICS_ADDR", &c.MetricsAddr)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup(envPrefix + "CAPACITY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCAPACITY: %w", envPrefix, err)
		}
		c.Capacity = n
	}

	return errors.Join(
		dur("FETCH_TIMEOUT", &c.FetchTimeout),
		dur("NEGATIVE_TTL", &c.NegativeTTL),
		dur("JANITOR_INTERVAL", &c.JanitorInterval),
	)
}

func (c Config) Validate() error {
	var errs []error
	if c.Shards <= 0 {
		errs = append(errs, fmt.Errorf("shards must be positive, got %d", c.Shards))
	}
	if c.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity must not be negative, got %d", c.Capacity))
	}
	if c.Capacity > 0 && c.Capacity < c.Shards {
		errs = append(errs, fmt.Errorf("capacity %d is smaller than shard count %d", c.Capacity, c.Shards))
	}
	if _, err := eviction.NewEvictionPolicy(c.Eviction, 1); err != nil {
		errs = append(errs, err)
	}
	if _, err := expiration.New(c.Expiration); err != nil {
		errs = append(errs, err)
	}
	if c.NegativeTTL.Duration < 0 || c.FetchTimeout.Duration < 0 || c.JanitorInterval.Duration < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
