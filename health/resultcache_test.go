package health

import (
	"context"
	"testing"
	"time"

	"healthmon/cache"
)

func newTestResultCache(policy TTLPolicy) *ResultCache {
	return NewResultCache(cache.NewMemoryCache(cache.Policy{MaxTTL: time.Hour}), policy)
}

func TestResultCache_MissOnEmpty(t *testing.T) {
	rc := newTestResultCache(TTLPolicy{})

	if _, ok := rc.Get(context.Background(), "database"); ok {
		t.Error("expected miss on empty cache")
	}
}

func TestResultCache_HealthyServedUntilTTL(t *testing.T) {
	rc := newTestResultCache(TTLPolicy{
		HealthyTTL:  60 * time.Millisecond,
		DegradedTTL: 10 * time.Millisecond,
	})
	ctx := context.Background()

	result := Healthy("ok").WithDuration(3 * time.Millisecond)
	result.Probe = "database"
	if err := rc.Put(ctx, "database", result); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok := rc.Get(ctx, "database")
	if !ok {
		t.Fatal("expected hit before TTL")
	}
	if got.Status != StatusHealthy || got.Message != "ok" || got.Probe != "database" {
		t.Errorf("cached result mangled: %+v", got)
	}
	if got.Duration != 3*time.Millisecond {
		t.Errorf("Duration = %v, want 3ms", got.Duration)
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok := rc.Get(ctx, "database"); ok {
		t.Error("expected miss after healthy TTL elapsed")
	}
}

func TestResultCache_DegradedExpiresSooner(t *testing.T) {
	rc := newTestResultCache(TTLPolicy{
		HealthyTTL:  time.Minute,
		DegradedTTL: 20 * time.Millisecond,
	})
	ctx := context.Background()

	if err := rc.Put(ctx, "disk", Critical("disk full", nil)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, ok := rc.Get(ctx, "disk"); !ok {
		t.Fatal("expected hit before degraded TTL")
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := rc.Get(ctx, "disk"); ok {
		t.Error("critical result should expire after the degraded TTL")
	}
}

func TestResultCache_UnknownNeverCached(t *testing.T) {
	rc := newTestResultCache(TTLPolicy{HealthyTTL: time.Minute, DegradedTTL: time.Minute})
	ctx := context.Background()

	if err := rc.Put(ctx, "api", Unknown("did not run")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := rc.Get(ctx, "api"); ok {
		t.Error("unknown results must not be cached")
	}
}

func TestResultCache_UnknownEvictsStale(t *testing.T) {
	rc := newTestResultCache(TTLPolicy{HealthyTTL: time.Minute, DegradedTTL: time.Minute})
	ctx := context.Background()

	if err := rc.Put(ctx, "api", Healthy("ok")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := rc.Put(ctx, "api", Unknown("did not run")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, ok := rc.Get(ctx, "api"); ok {
		t.Error("a stale healthy entry must not outlive a fresher unknown result")
	}
}

func TestResultCache_PutOverwrites(t *testing.T) {
	rc := newTestResultCache(TTLPolicy{HealthyTTL: time.Minute, DegradedTTL: time.Minute})
	ctx := context.Background()

	if err := rc.Put(ctx, "memory", Healthy("ok")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := rc.Put(ctx, "memory", Warning("high")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok := rc.Get(ctx, "memory")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Status != StatusWarning || got.Message != "high" {
		t.Errorf("got %v %q, want overwritten warning result", got.Status, got.Message)
	}
}

func TestTTLPolicy_TTLFor(t *testing.T) {
	policy := TTLPolicy{HealthyTTL: time.Minute, DegradedTTL: 10 * time.Second}

	tests := []struct {
		status Status
		want   time.Duration
	}{
		{StatusHealthy, time.Minute},
		{StatusWarning, 10 * time.Second},
		{StatusCritical, 10 * time.Second},
		{StatusUnknown, 0},
	}

	for _, tt := range tests {
		if got := policy.TTLFor(tt.status); got != tt.want {
			t.Errorf("TTLFor(%v) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
