// Package cache stores analysis results under content-derived keys so identical
// (user, resume, job) requests are answered without calling the model again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/telemetry"
)

const (
	// DefaultTTL applies when a store call passes a non-positive TTL.
	DefaultTTL = 24 * time.Hour

	keyPrefix     = "analysis"
	userSetPrefix = "user_resumes"
)

// ErrDisabled is returned by operations that need a backend when none is configured.
var ErrDisabled = errors.New("cache disabled")

// ComputeFunc produces a value on a cache miss. cacheable reports whether the
// value may be stored; fallback results are returned with cacheable=false.
type ComputeFunc func(ctx context.Context) (value json.RawMessage, cacheable bool, err error)

// Gateway wraps a Backend with the analysis key scheme.
type Gateway struct {
	backend Backend
	ttl     time.Duration
	group   singleflight.Group
}

// Status summarizes what the cache currently holds.
type Status struct {
	Enabled             bool           `json:"enabled"`
	TotalCachedAnalyses int            `json:"totalCachedAnalyses"`
	UsersWithCachedData int            `json:"usersWithCachedData"`
	PerUser             map[string]int `json:"perUser,omitempty"`
	Error               string         `json:"error,omitempty"`
}

// NewGateway builds a Gateway. A nil backend yields a disabled gateway that always misses.
func NewGateway(backend Backend, defaultTTL time.Duration) *Gateway {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Gateway{backend: backend, ttl: defaultTTL}
}

// Enabled reports whether a backend is configured.
func (g *Gateway) Enabled() bool {
	return g != nil && g.backend != nil
}

// Backend exposes the underlying store for collaborators sharing it, such as token revocation.
func (g *Gateway) Backend() Backend {
	if g == nil {
		return nil
	}
	return g.backend
}

// Key builds the cache key for a (user, resume, job) tuple.
func Key(userID, resumeFP, jobFP string) string {
	return keyPrefix + ":" + userID + ":" + resumeFP + ":" + jobFP
}

func userSetKey(userID string) string {
	return userSetPrefix + ":" + userID
}

// Lookup returns the stored value for the tuple. Absence, expiry and backend
// failures all report a miss; failures are logged and never returned.
func (g *Gateway) Lookup(ctx context.Context, userID, resumeFP, jobFP string) (json.RawMessage, bool) {
	if !g.Enabled() {
		return nil, false
	}
	key := Key(userID, resumeFP, jobFP)
	raw, ok, err := g.backend.Get(ctx, key)
	if err != nil {
		metrics.IncCacheError()
		telemetry.Error("cache.get_failed", map[string]any{"user_id": userID, "error": err})
		return nil, false
	}
	if !ok {
		metrics.IncCacheMiss()
		telemetry.Info("cache.miss", map[string]any{"user_id": userID})
		return nil, false
	}
	if !json.Valid(raw) {
		metrics.IncCacheError()
		telemetry.Error("cache.decode_failed", map[string]any{"user_id": userID, "bytes": len(raw)})
		return nil, false
	}
	metrics.IncCacheHit()
	telemetry.Info("cache.hit", map[string]any{"user_id": userID})
	return json.RawMessage(raw), true
}

// Store writes value under the tuple's key, replacing any prior value, and
// records the resume fingerprint in the user's tracking set. A non-positive
// ttl selects the default. Failures are logged and swallowed.
func (g *Gateway) Store(ctx context.Context, userID, resumeFP, jobFP string, value json.RawMessage, ttl time.Duration) {
	if !g.Enabled() || len(value) == 0 {
		return
	}
	if ttl <= 0 {
		ttl = g.ttl
	}
	key := Key(userID, resumeFP, jobFP)
	if err := g.backend.Set(ctx, key, value, ttl); err != nil {
		metrics.IncCacheError()
		telemetry.Error("cache.set_failed", map[string]any{"user_id": userID, "error": err})
		return
	}
	if err := g.backend.SAdd(ctx, userSetKey(userID), resumeFP); err != nil {
		metrics.IncCacheError()
		telemetry.Error("cache.track_failed", map[string]any{"user_id": userID, "error": err})
	}
	telemetry.Info("cache.stored", map[string]any{"user_id": userID, "ttl_seconds": int(ttl.Seconds())})
}

type computed struct {
	value  json.RawMessage
	cached bool
}

// GetOrCompute returns the cached value for the tuple or runs compute on a
// miss. Concurrent callers for the same key within this process share one
// compute call. cached reports whether the value came from the cache.
func (g *Gateway) GetOrCompute(ctx context.Context, userID, resumeFP, jobFP string, ttl time.Duration, compute ComputeFunc) (json.RawMessage, bool, error) {
	if val, ok := g.Lookup(ctx, userID, resumeFP, jobFP); ok {
		return val, true, nil
	}
	if !g.Enabled() {
		val, _, err := compute(ctx)
		return val, false, err
	}

	key := Key(userID, resumeFP, jobFP)
	res, err, _ := g.group.Do(key, func() (any, error) {
		if val, ok := g.Lookup(ctx, userID, resumeFP, jobFP); ok {
			return computed{value: val, cached: true}, nil
		}
		val, cacheable, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if cacheable {
			g.Store(ctx, userID, resumeFP, jobFP, val, ttl)
		}
		return computed{value: val}, nil
	})
	if err != nil {
		return nil, false, err
	}
	out := res.(computed)
	return out.value, out.cached, nil
}

// InvalidateUser removes every cached analysis for userID along with its
// tracking set and returns how many analyses were removed.
func (g *Gateway) InvalidateUser(ctx context.Context, userID string) (int, error) {
	if !g.Enabled() {
		return 0, nil
	}
	keys, err := g.backend.Keys(ctx, keyPrefix+":"+escapeGlob(userID)+":*")
	if err != nil {
		metrics.IncCacheError()
		return 0, err
	}
	removed := 0
	if len(keys) > 0 {
		if removed, err = g.backend.Del(ctx, keys...); err != nil {
			metrics.IncCacheError()
			return 0, err
		}
	}
	if _, err := g.backend.Del(ctx, userSetKey(userID)); err != nil {
		metrics.IncCacheError()
		return removed, err
	}
	telemetry.Info("cache.user_invalidated", map[string]any{"user_id": userID, "removed": removed})
	return removed, nil
}

// Status counts cached analyses overall and per user.
func (g *Gateway) Status(ctx context.Context) Status {
	if !g.Enabled() {
		return Status{Enabled: false}
	}
	keys, err := g.backend.Keys(ctx, keyPrefix+":*")
	if err != nil {
		metrics.IncCacheError()
		telemetry.Error("cache.status_failed", map[string]any{"error": err})
		return Status{Enabled: true, Error: "cache backend unavailable"}
	}
	perUser := make(map[string]int)
	for _, key := range keys {
		parts := strings.Split(key, ":")
		if len(parts) < 4 {
			continue
		}
		perUser[parts[1]]++
	}
	return Status{
		Enabled:             true,
		TotalCachedAnalyses: len(keys),
		UsersWithCachedData: len(perUser),
		PerUser:             perUser,
	}
}

// Ping checks backend connectivity.
func (g *Gateway) Ping(ctx context.Context) error {
	if !g.Enabled() {
		return ErrDisabled
	}
	return g.backend.Ping(ctx)
}
