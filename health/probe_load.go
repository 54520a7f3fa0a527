package health

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// LoadProbeConfig configures the system load probe.
type LoadProbeConfig struct {
	// Thresholds are 1-minute load average per core.
	// Default: warning 2.0, critical 4.0
	Thresholds Thresholds

	// LoadavgPath is the loadavg file to read. Default: /proc/loadavg
	LoadavgPath string

	// Cores overrides the CPU count used for normalization (tests).
	// Default: runtime.NumCPU()
	Cores int
}

// LoadProbe checks the 1-minute load average normalized per CPU core.
type LoadProbe struct {
	config LoadProbeConfig
}

// NewLoadProbe creates a system load probe.
func NewLoadProbe(config LoadProbeConfig) *LoadProbe {
	config.Thresholds = config.Thresholds.withDefaults(2.0, 4.0)
	if config.LoadavgPath == "" {
		config.LoadavgPath = "/proc/loadavg"
	}
	if config.Cores <= 0 {
		config.Cores = runtime.NumCPU()
	}
	return &LoadProbe{config: config}
}

// Name returns the name of this probe.
func (p *LoadProbe) Name() string {
	return "system_load"
}

// Check performs the load average check.
func (p *LoadProbe) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unknown("check canceled")
	default:
	}

	data, err := os.ReadFile(p.config.LoadavgPath)
	if err != nil {
		return CriticalErr("load check failed", err)
	}

	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return CriticalErr("load check failed", fmt.Errorf("malformed loadavg: %q", strings.TrimSpace(string(data))))
	}

	load1, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return CriticalErr("load check failed", fmt.Errorf("parse loadavg: %w", err))
	}

	perCore := load1 / float64(p.config.Cores)

	details := map[string]any{
		"load_1m":       load1,
		"cores":         p.config.Cores,
		"load_per_core": perCore,
	}

	message := fmt.Sprintf("load %.2f (%.2f per core)", load1, perCore)
	switch p.config.Thresholds.Classify(perCore) {
	case StatusCritical:
		return Critical("system load critical: "+message, nil).WithDetails(details)
	case StatusWarning:
		return Warning("system load high: " + message).WithDetails(details)
	default:
		return Healthy(message).WithDetails(details)
	}
}
