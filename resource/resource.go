// Package resource binds the read-through engine to one domain resource:
// a fixed key prefix, a fixed TTL and a typed payload.
package resource

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/krisalay/tunecache/engine"
	"github.com/krisalay/tunecache/types"
)

// Names and default TTLs of the resources the dashboard caches.
const (
	Profile       = "profile"
	Tracks        = "tracks"
	Analytics     = "analytics"
	Earnings      = "earnings"
	Notifications = "notifications"

	ProfileTTL       = 5 * time.Minute
	TracksTTL        = 2 * time.Minute
	AnalyticsTTL     = 1 * time.Minute
	EarningsTTL      = 5 * time.Minute
	NotificationsTTL = 30 * time.Second
)

// Result is what a read returns: the payload and whether the store served it.
type Result[T any] struct {
	Data      T
	FromCache bool
}

// Resource is a typed view of the engine for a single resource name.
type Resource[T any] struct {
	name   string
	ttl    time.Duration
	engine *engine.CacheEngine
}

func New[T any](e *engine.CacheEngine, name string, ttl time.Duration) *Resource[T] {
	return &Resource[T]{name: name, ttl: ttl, engine: e}
}

func (r *Resource[T]) Name() string       { return r.name }
func (r *Resource[T]) TTL() time.Duration { return r.ttl }

// keyEscaper keeps '_' a pure separator: ids and parts that contain it are
// escaped, so "a" and "a_b" never share a key prefix.
var keyEscaper = strings.NewReplacer("%", "%25", "_", "%5F")

// Key builds "<name>_<entityID>[_<part>...]". Underscores and percent signs
// inside entityID and parts are percent-escaped.
func (r *Resource[T]) Key(entityID string, parts ...string) string {
	var b strings.Builder
	b.WriteString(r.name)
	b.WriteByte('_')
	b.WriteString(keyEscaper.Replace(entityID))
	for _, p := range parts {
		b.WriteByte('_')
		b.WriteString(keyEscaper.Replace(p))
	}
	return b.String()
}

// Get reads the resource for entityID through the cache.
func (r *Resource[T]) Get(ctx context.Context, entityID string, fetch types.FetchFunc[T]) (Result[T], error) {
	return r.get(ctx, r.Key(entityID), fetch)
}

// GetWindow reads a time-windowed resource; period becomes part of the key
// so each window is cached on its own.
func (r *Resource[T]) GetWindow(ctx context.Context, entityID, period string, fetch types.FetchFunc[T]) (Result[T], error) {
	return r.get(ctx, r.Key(entityID, period), fetch)
}

// Invalidate drops every cached entry of entityID for this resource,
// all windows included, so the next read refetches.
func (r *Resource[T]) Invalidate(entityID string) int {
	// The trailing separator keeps "profile_1" from matching "profile_12";
	// escaping in Key keeps it from matching "profile_1_2" (id "1_2").
	n := r.engine.Invalidate(r.Key(entityID) + "_")
	if r.engine.Store.Remove(r.Key(entityID)) {
		n++
	}
	return n
}

func (r *Resource[T]) get(ctx context.Context, key string, fetch types.FetchFunc[T]) (Result[T], error) {
	v, fromCache, err := r.engine.Fetch(ctx, key, r.ttl, func(ctx context.Context) (any, error) {
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if isNil(data) {
			return nil, types.ErrNoData
		}
		return data, nil
	})
	if err != nil {
		return Result[T]{}, fmt.Errorf("%s: %w", r.name, err)
	}

	data, ok := v.(T)
	if !ok {
		// Another component wrote a different type under our key.
		r.engine.Store.Remove(key)
		return Result[T]{}, fmt.Errorf("%s: cached value under %q is %T", r.name, key, v)
	}
	return Result[T]{Data: data, FromCache: fromCache}, nil
}

// isNil reports whether a fetched payload carries no data. A nil pointer,
// map or interface is no data. A nil slice is an empty list, which is data.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
