package health

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// MemoryProbeConfig configures the memory probe.
type MemoryProbeConfig struct {
	// Thresholds are used percentages (0-100).
	// Default: warning 80, critical 95
	Thresholds Thresholds

	// MeminfoPath is the meminfo file to read. Default: /proc/meminfo
	MeminfoPath string
}

// MemoryProbe checks system memory usage from /proc/meminfo, falling back to
// Go runtime statistics when the file is unavailable.
type MemoryProbe struct {
	config MemoryProbeConfig
}

// NewMemoryProbe creates a memory probe.
func NewMemoryProbe(config MemoryProbeConfig) *MemoryProbe {
	config.Thresholds = config.Thresholds.withDefaults(80, 95)
	if config.MeminfoPath == "" {
		config.MeminfoPath = "/proc/meminfo"
	}
	return &MemoryProbe{config: config}
}

// Name returns the name of this probe.
func (p *MemoryProbe) Name() string {
	return "memory"
}

// Check performs the memory check.
func (p *MemoryProbe) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unknown("check canceled")
	default:
	}

	total, available, err := readMeminfo(p.config.MeminfoPath)
	if err != nil || total == 0 {
		return p.checkRuntime()
	}

	used := total - available
	usedPct := float64(used) / float64(total) * 100

	details := map[string]any{
		"total_bytes":     total,
		"available_bytes": available,
		"used_bytes":      used,
		"used_percent":    usedPct,
	}

	message := fmt.Sprintf("memory usage %.1f%%", usedPct)
	switch p.config.Thresholds.Classify(usedPct) {
	case StatusCritical:
		return Critical("memory usage critical: "+message, nil).WithDetails(details)
	case StatusWarning:
		return Warning("memory usage high: " + message).WithDetails(details)
	default:
		return Healthy(message).WithDetails(details)
	}
}

// checkRuntime reports Go heap usage against the memory obtained from the OS.
func (p *MemoryProbe) checkRuntime() Result {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	details := map[string]any{
		"alloc_bytes": stats.Alloc,
		"sys_bytes":   stats.Sys,
		"heap_in_use": stats.HeapInuse,
		"num_gc":      stats.NumGC,
		"goroutines":  runtime.NumGoroutine(),
	}

	if stats.Sys == 0 {
		return Healthy("memory stats unavailable").WithDetails(details)
	}

	usedPct := float64(stats.Alloc) / float64(stats.Sys) * 100
	details["used_percent"] = usedPct

	message := fmt.Sprintf("runtime memory usage %.1f%%", usedPct)
	switch p.config.Thresholds.Classify(usedPct) {
	case StatusCritical:
		return Critical("memory usage critical: "+message, nil).WithDetails(details)
	case StatusWarning:
		return Warning("memory usage high: " + message).WithDetails(details)
	default:
		return Healthy(message).WithDetails(details)
	}
}

// readMeminfo returns MemTotal and MemAvailable in bytes.
func readMeminfo(path string) (total, available uint64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		switch key {
		case "MemTotal":
			total = parseMeminfoKB(value)
		case "MemAvailable":
			available = parseMeminfoKB(value)
		}
	}
	return total, available, nil
}

// parseMeminfoKB parses a meminfo value like "1234 kB" and returns bytes.
func parseMeminfoKB(s string) uint64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "kB")
	s = strings.TrimSpace(s)
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v * 1024
}
