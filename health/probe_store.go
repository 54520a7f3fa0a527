package health

import (
	"context"
	"fmt"
	"os"
	"syscall"
)

// StoreProbeConfig configures the external store probe.
type StoreProbeConfig struct {
	// Path is the storage root to check.
	Path string

	// Thresholds are free-space floors as percentages (0-100): the status
	// degrades when free space falls below them.
	// Default: warning 10, critical 5
	Thresholds Thresholds
}

// StoreProbe checks that an external file store is reachable and has free
// space. The check is read-only: a stat on the root and a statfs on its
// filesystem.
type StoreProbe struct {
	config StoreProbeConfig
}

// NewStoreProbe creates an external store probe.
func NewStoreProbe(config StoreProbeConfig) *StoreProbe {
	// Thresholds are floors here: critical is the lower bound, so the shared
	// withDefaults ordering does not apply.
	if config.Thresholds.Warning <= 0 {
		config.Thresholds.Warning = 10
	}
	if config.Thresholds.Critical <= 0 {
		config.Thresholds.Critical = 5
	}
	if config.Thresholds.Critical > config.Thresholds.Warning {
		config.Thresholds.Critical = config.Thresholds.Warning
	}
	return &StoreProbe{config: config}
}

// Name returns the name of this probe.
func (p *StoreProbe) Name() string {
	return "external_store"
}

// Check performs the store check.
func (p *StoreProbe) Check(ctx context.Context) Result {
	if p.config.Path == "" {
		return Unknown("no storage path configured")
	}

	select {
	case <-ctx.Done():
		return Unknown("check canceled")
	default:
	}

	info, err := os.Stat(p.config.Path)
	if err != nil {
		return CriticalErr("store unreachable", err)
	}
	if !info.IsDir() {
		return Critical("store path is not a directory", nil).WithDetails(map[string]any{
			"error": "not a directory",
		})
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(p.config.Path, &stat); err != nil {
		return CriticalErr("store check failed", fmt.Errorf("statfs: %w", err))
	}

	total := stat.Blocks * uint64(stat.Bsize)
	if total == 0 {
		return Unknown("store filesystem reports zero size")
	}
	free := stat.Bavail * uint64(stat.Bsize)
	freePct := float64(free) / float64(total) * 100

	details := map[string]any{
		"path":         p.config.Path,
		"free_bytes":   free,
		"total_bytes":  total,
		"free_percent": freePct,
	}

	message := fmt.Sprintf("store reachable, %.1f%% free", freePct)
	switch {
	case freePct <= p.config.Thresholds.Critical:
		return Critical("store space critical: "+message, nil).WithDetails(details)
	case freePct <= p.config.Thresholds.Warning:
		return Warning("store space low: " + message).WithDetails(details)
	default:
		return Healthy(message).WithDetails(details)
	}
}
