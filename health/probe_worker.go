package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Heartbeat records the last time a background worker reported in. Workers
// call Beat on each loop iteration; the worker probe classifies on the age of
// the newest beat.
type Heartbeat struct {
	mu   sync.RWMutex
	last time.Time
}

// NewHeartbeat creates a heartbeat with no beats recorded.
func NewHeartbeat() *Heartbeat {
	return &Heartbeat{}
}

// Beat records a heartbeat now.
func (h *Heartbeat) Beat() {
	h.mu.Lock()
	h.last = time.Now()
	h.mu.Unlock()
}

// Last returns the time of the most recent beat and whether one exists.
func (h *Heartbeat) Last() (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, !h.last.IsZero()
}

// WorkerProbeConfig configures the background worker probe.
type WorkerProbeConfig struct {
	// WarningAge is the heartbeat age that degrades the status.
	// Default: 2 minutes
	WarningAge time.Duration

	// CriticalAge is the heartbeat age that marks the worker down.
	// Default: 10 minutes
	CriticalAge time.Duration
}

// WorkerProbe checks that a background worker is alive by the age of its most
// recent heartbeat.
type WorkerProbe struct {
	config    WorkerProbeConfig
	heartbeat *Heartbeat
}

// NewWorkerProbe creates a worker probe over the given heartbeat.
func NewWorkerProbe(heartbeat *Heartbeat, config WorkerProbeConfig) *WorkerProbe {
	if config.WarningAge <= 0 {
		config.WarningAge = 2 * time.Minute
	}
	if config.CriticalAge <= 0 {
		config.CriticalAge = 10 * time.Minute
	}
	if config.CriticalAge < config.WarningAge {
		config.CriticalAge = config.WarningAge
	}
	return &WorkerProbe{config: config, heartbeat: heartbeat}
}

// Name returns the name of this probe.
func (p *WorkerProbe) Name() string {
	return "worker"
}

// Check performs the heartbeat age check.
func (p *WorkerProbe) Check(ctx context.Context) Result {
	if p.heartbeat == nil {
		return Unknown("no worker heartbeat configured")
	}

	last, ok := p.heartbeat.Last()
	if !ok {
		return Warning("worker has not reported yet")
	}

	age := time.Since(last)
	details := map[string]any{
		"last_beat":   last,
		"age_seconds": age.Seconds(),
	}

	switch {
	case age >= p.config.CriticalAge:
		return Critical(fmt.Sprintf("worker silent for %s", age.Round(time.Second)), nil).WithDetails(details)
	case age >= p.config.WarningAge:
		return Warning(fmt.Sprintf("worker last seen %s ago", age.Round(time.Second))).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("worker alive, last beat %s ago", age.Round(time.Second))).WithDetails(details)
	}
}
