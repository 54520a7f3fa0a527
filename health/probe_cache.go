package health

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"healthmon/cache"
)

const cacheProbeKey = "health:probe:roundtrip"

// CacheProbeConfig configures the cache probe.
type CacheProbeConfig struct {
	// Thresholds are roundtrip latencies in milliseconds.
	// Default: warning 50, critical 250
	Thresholds Thresholds
}

// CacheProbe checks the cache backend with a set/get/delete roundtrip.
// Unlike the other probes it does write to its target: the roundtrip is the
// only meaningful liveness check for a cache. The write is confined to one
// reserved key that is deleted before the check returns, so no caller-visible
// entry is ever touched.
type CacheProbe struct {
	config CacheProbeConfig
	target cache.Cache
}

// NewCacheProbe creates a cache probe against the given backend.
func NewCacheProbe(target cache.Cache, config CacheProbeConfig) *CacheProbe {
	config.Thresholds = config.Thresholds.withDefaults(50, 250)
	return &CacheProbe{config: config, target: target}
}

// Name returns the name of this probe.
func (p *CacheProbe) Name() string {
	return "cache"
}

// Check performs the cache roundtrip check.
func (p *CacheProbe) Check(ctx context.Context) Result {
	if p.target == nil {
		return Unknown("no cache configured")
	}

	want := []byte(fmt.Sprintf("ok-%d", time.Now().UnixNano()))

	start := time.Now()
	if err := p.target.Set(ctx, cacheProbeKey, want, 10*time.Second); err != nil {
		return CriticalErr("cache write failed", err)
	}

	got, ok := p.target.Get(ctx, cacheProbeKey)
	if !ok {
		return Critical("cache readback missed", nil).WithDetails(map[string]any{
			"error": "missing value",
		})
	}
	if !bytes.Equal(got, want) {
		return Critical("cache readback mismatch", nil).WithDetails(map[string]any{
			"error": "corrupt value",
		})
	}

	if err := p.target.Delete(ctx, cacheProbeKey); err != nil {
		return CriticalErr("cache delete failed", err)
	}
	elapsed := time.Since(start)
	latencyMs := float64(elapsed.Microseconds()) / 1000

	details := map[string]any{
		"latency_ms": latencyMs,
	}

	message := fmt.Sprintf("cache roundtrip in %.2fms", latencyMs)
	switch p.config.Thresholds.Classify(latencyMs) {
	case StatusCritical:
		return Critical("cache latency critical: "+message, nil).WithDetails(details)
	case StatusWarning:
		return Warning("cache slow: " + message).WithDetails(details)
	default:
		return Healthy(message).WithDetails(details)
	}
}
