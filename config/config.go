// Package config loads the healthmon configuration from a YAML file with
// defaults for every field, so an empty or missing file yields a runnable
// service.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents configuration data for the health monitoring service.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	LogLevel        string  `yaml:"log_level"`
	MetricsExporter string  `yaml:"metrics_exporter"`
	TracingExporter string  `yaml:"tracing_exporter"`
	TracingSample   float64 `yaml:"tracing_sample"`

	Health HealthConfig `yaml:"health"`
	Probes ProbesConfig `yaml:"probes"`
}

// HealthConfig tunes the check pipeline: timeouts, cache TTLs, worker pool,
// and metric retention.
type HealthConfig struct {
	ProbeTimeoutSeconds  int `yaml:"probe_timeout_seconds"`
	BatchDeadlineSeconds int `yaml:"batch_deadline_seconds"`
	MaxConcurrent        int `yaml:"max_concurrent"`

	HealthyTTLSeconds  int `yaml:"healthy_ttl_seconds"`
	DegradedTTLSeconds int `yaml:"degraded_ttl_seconds"`

	RetentionDays      int    `yaml:"retention_days"`
	PruneIntervalHours int    `yaml:"prune_interval_hours"`
	MetricsDBPath      string `yaml:"metrics_db_path"`
}

// ThresholdConfig is a warning/critical pair for one probe.
type ThresholdConfig struct {
	Warning  float64 `yaml:"warning"`
	Critical float64 `yaml:"critical"`
}

// ProbesConfig holds per-probe settings. Zero thresholds fall back to each
// probe's defaults.
type ProbesConfig struct {
	Memory ThresholdConfig `yaml:"memory"`

	Disk struct {
		Path            string `yaml:"path"`
		ThresholdConfig `yaml:",inline"`
	} `yaml:"disk"`

	Load ThresholdConfig `yaml:"load"`

	Database ThresholdConfig `yaml:"database"`

	API struct {
		URL             string `yaml:"url"`
		ThresholdConfig `yaml:",inline"`
	} `yaml:"api"`

	Worker struct {
		WarningSeconds  int `yaml:"warning_seconds"`
		CriticalSeconds int `yaml:"critical_seconds"`
	} `yaml:"worker"`

	Store struct {
		Path            string `yaml:"path"`
		ThresholdConfig `yaml:",inline"`
	} `yaml:"store"`
}

// DefaultConfig returns sensible defaults in case no configuration file is
// provided.
func DefaultConfig() Config {
	cfg := Config{
		ListenAddr:      ":8090",
		LogLevel:        "info",
		MetricsExporter: "none",
		TracingExporter: "none",
		Health: HealthConfig{
			ProbeTimeoutSeconds:  3,
			BatchDeadlineSeconds: 10,
			MaxConcurrent:        4,
			HealthyTTLSeconds:    60,
			DegradedTTLSeconds:   10,
			RetentionDays:        7,
			PruneIntervalHours:   24,
			MetricsDBPath:        "",
		},
	}
	cfg.Probes.Disk.Path = "/"
	return cfg
}

// Load reads configuration from a yaml file. Missing files fall back to
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	// Expand ${VAR} references so secrets like API endpoints can live in the
	// environment instead of the file. Unset variables expand to empty.
	expanded := os.Expand(string(content), os.Getenv)

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultConfig().ListenAddr
	}
	if c.Health.ProbeTimeoutSeconds <= 0 {
		c.Health.ProbeTimeoutSeconds = DefaultConfig().Health.ProbeTimeoutSeconds
	}
	if c.Health.BatchDeadlineSeconds < c.Health.ProbeTimeoutSeconds {
		return fmt.Errorf("batch_deadline_seconds (%d) must be at least probe_timeout_seconds (%d)",
			c.Health.BatchDeadlineSeconds, c.Health.ProbeTimeoutSeconds)
	}
	if c.Health.MaxConcurrent <= 0 {
		c.Health.MaxConcurrent = DefaultConfig().Health.MaxConcurrent
	}
	if c.Health.RetentionDays <= 0 {
		c.Health.RetentionDays = DefaultConfig().Health.RetentionDays
	}

	for name, t := range map[string]ThresholdConfig{
		"memory":   c.Probes.Memory,
		"disk":     c.Probes.Disk.ThresholdConfig,
		"load":     c.Probes.Load,
		"database": c.Probes.Database,
		"api":      c.Probes.API.ThresholdConfig,
	} {
		if t.Warning != 0 && t.Critical != 0 && t.Critical < t.Warning {
			return fmt.Errorf("probe %s: critical threshold (%g) below warning (%g)", name, t.Critical, t.Warning)
		}
	}
	return nil
}

// ProbeTimeout returns the per-probe budget as a duration.
func (c HealthConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// BatchDeadline returns the whole-batch budget as a duration.
func (c HealthConfig) BatchDeadline() time.Duration {
	return time.Duration(c.BatchDeadlineSeconds) * time.Second
}

// HealthyTTL returns the healthy-result cache lifetime.
func (c HealthConfig) HealthyTTL() time.Duration {
	return time.Duration(c.HealthyTTLSeconds) * time.Second
}

// DegradedTTL returns the degraded-result cache lifetime.
func (c HealthConfig) DegradedTTL() time.Duration {
	return time.Duration(c.DegradedTTLSeconds) * time.Second
}

// Retention returns the metric retention window.
func (c HealthConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// PruneInterval returns the retention sweep cadence.
func (c HealthConfig) PruneInterval() time.Duration {
	return time.Duration(c.PruneIntervalHours) * time.Hour
}
