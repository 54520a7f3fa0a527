package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DatabaseProbeConfig configures the database probe.
type DatabaseProbeConfig struct {
	// Thresholds are query latencies in milliseconds.
	// Default: warning 250, critical 1000
	Thresholds Thresholds
}

// DatabaseProbe checks database connectivity and latency with a ping and a
// trivial query. It never mutates database state.
type DatabaseProbe struct {
	config DatabaseProbeConfig
	db     *sql.DB
}

// NewDatabaseProbe creates a database probe over an open handle.
func NewDatabaseProbe(db *sql.DB, config DatabaseProbeConfig) *DatabaseProbe {
	config.Thresholds = config.Thresholds.withDefaults(250, 1000)
	return &DatabaseProbe{config: config, db: db}
}

// Name returns the name of this probe.
func (p *DatabaseProbe) Name() string {
	return "database"
}

// Check performs the database check.
func (p *DatabaseProbe) Check(ctx context.Context) Result {
	if p.db == nil {
		return Unknown("no database configured")
	}

	start := time.Now()
	if err := p.db.PingContext(ctx); err != nil {
		return CriticalErr("database unreachable", fmt.Errorf("ping: %w", err))
	}

	var one int
	if err := p.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return CriticalErr("database query failed", fmt.Errorf("select 1: %w", err))
	}
	elapsed := time.Since(start)
	latencyMs := float64(elapsed.Microseconds()) / 1000

	stats := p.db.Stats()
	details := map[string]any{
		"latency_ms":       latencyMs,
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
	}

	message := fmt.Sprintf("database responding in %.1fms", latencyMs)
	switch p.config.Thresholds.Classify(latencyMs) {
	case StatusCritical:
		return Critical("database latency critical: "+message, nil).WithDetails(details)
	case StatusWarning:
		return Warning("database slow: " + message).WithDetails(details)
	default:
		return Healthy(message).WithDetails(details)
	}
}
