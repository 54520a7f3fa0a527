package cache

import "time"

// Policy configures caching behavior.
type Policy struct {
	// DefaultTTL is the TTL to use when none is specified.
	// If zero, caching is disabled by default.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default caching policy.
// DefaultTTL: 1 minute, MaxTTL: 10 minutes
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 1 * time.Minute,
		MaxTTL:     10 * time.Minute,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
// A zero override falls back to DefaultTTL; a negative override disables
// caching for that entry regardless of the default.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	if override < 0 {
		return 0
	}

	ttl := override
	if ttl == 0 {
		ttl = p.DefaultTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
