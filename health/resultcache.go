package health

import (
	"context"
	"encoding/json"
	"time"

	"healthmon/cache"
)

const resultKeyPrefix = "health:result:"

// TTLPolicy maps a result's severity to its cache lifetime. Degraded results
// are cached briefly so failing subsystems are re-checked sooner; unknown
// results are never cached.
type TTLPolicy struct {
	// HealthyTTL is the lifetime of a healthy result.
	// Default: 60 seconds
	HealthyTTL time.Duration

	// DegradedTTL is the lifetime of a warning or critical result.
	// Default: 10 seconds
	DegradedTTL time.Duration
}

func (p TTLPolicy) withDefaults() TTLPolicy {
	if p.HealthyTTL <= 0 {
		p.HealthyTTL = 60 * time.Second
	}
	if p.DegradedTTL <= 0 {
		p.DegradedTTL = 10 * time.Second
	}
	return p
}

// TTLFor returns the cache lifetime for a result with the given status.
// Zero means the result must not be cached.
func (p TTLPolicy) TTLFor(s Status) time.Duration {
	switch s {
	case StatusHealthy:
		return p.HealthyTTL
	case StatusWarning, StatusCritical:
		return p.DegradedTTL
	default:
		return 0
	}
}

// ResultCache stores the most recent probe results keyed by probe name, with
// per-entry TTLs derived from severity. It is safe for concurrent dashboard
// polls and background refreshes.
type ResultCache struct {
	backend cache.Cache
	policy  TTLPolicy
}

// NewResultCache creates a result cache over the given backend.
func NewResultCache(backend cache.Cache, policy TTLPolicy) *ResultCache {
	return &ResultCache{
		backend: backend,
		policy:  policy.withDefaults(),
	}
}

// cachedResult is the wire form of a Result. The underlying error is not
// round-tripped; Message already carries the sanitized summary.
type cachedResult struct {
	Probe     string         `json:"probe"`
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Duration  int64          `json:"duration_ns"`
	Timestamp time.Time      `json:"timestamp"`
}

// Get returns the cached result for a probe, if present and unexpired.
func (c *ResultCache) Get(ctx context.Context, name string) (Result, bool) {
	data, ok := c.backend.Get(ctx, resultKeyPrefix+name)
	if !ok {
		return Result{}, false
	}

	var wire cachedResult
	if err := json.Unmarshal(data, &wire); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.backend.Delete(ctx, resultKeyPrefix+name)
		return Result{}, false
	}

	return Result{
		Probe:     wire.Probe,
		Status:    ParseStatus(wire.Status),
		Message:   wire.Message,
		Details:   wire.Details,
		Duration:  time.Duration(wire.Duration),
		Timestamp: wire.Timestamp,
	}, true
}

// Put stores a result, always overwriting any prior entry for the probe.
// Results with no cache lifetime (unknown status) evict the prior entry so a
// stale value is never served over a fresher unknown.
func (c *ResultCache) Put(ctx context.Context, name string, result Result) error {
	ttl := c.policy.TTLFor(result.Status)
	if ttl <= 0 {
		return c.backend.Delete(ctx, resultKeyPrefix+name)
	}

	wire := cachedResult{
		Probe:     result.Probe,
		Status:    result.Status.String(),
		Message:   result.Message,
		Details:   result.Details,
		Duration:  int64(result.Duration),
		Timestamp: result.Timestamp,
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return err
	}

	return c.backend.Set(ctx, resultKeyPrefix+name, data, ttl)
}
