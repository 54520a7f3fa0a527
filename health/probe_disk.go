package health

import (
	"context"
	"fmt"
	"syscall"
)

// DiskProbeConfig configures the disk probe.
type DiskProbeConfig struct {
	// Path is the mount point to check. Default: /
	Path string

	// Thresholds are used percentages (0-100).
	// Default: warning 85, critical 95
	Thresholds Thresholds
}

// DiskProbe checks filesystem usage on a mount point via statfs.
type DiskProbe struct {
	config DiskProbeConfig
}

// NewDiskProbe creates a disk probe.
func NewDiskProbe(config DiskProbeConfig) *DiskProbe {
	if config.Path == "" {
		config.Path = "/"
	}
	config.Thresholds = config.Thresholds.withDefaults(85, 95)
	return &DiskProbe{config: config}
}

// Name returns the name of this probe.
func (p *DiskProbe) Name() string {
	return "disk"
}

// Check performs the disk usage check.
func (p *DiskProbe) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unknown("check canceled")
	default:
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(p.config.Path, &stat); err != nil {
		return CriticalErr("disk check failed", fmt.Errorf("statfs %s: %w", p.config.Path, err))
	}

	total := stat.Blocks * uint64(stat.Bsize)
	if total == 0 {
		return Unknown("filesystem reports zero size")
	}
	avail := stat.Bavail * uint64(stat.Bsize)
	used := total - stat.Bfree*uint64(stat.Bsize)
	usedPct := float64(used) / float64(total) * 100

	details := map[string]any{
		"path":            p.config.Path,
		"total_bytes":     total,
		"available_bytes": avail,
		"used_bytes":      used,
		"used_percent":    usedPct,
	}

	message := fmt.Sprintf("disk usage %.1f%% on %s", usedPct, p.config.Path)
	switch p.config.Thresholds.Classify(usedPct) {
	case StatusCritical:
		return Critical("disk usage critical: "+message, nil).WithDetails(details)
	case StatusWarning:
		return Warning("disk usage high: " + message).WithDetails(details)
	default:
		return Healthy(message).WithDetails(details)
	}
}
