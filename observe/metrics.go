package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HealthMetrics records telemetry for probe executions and summary
// computation.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type HealthMetrics interface {
	// RecordProbe records one probe execution with its resulting status.
	RecordProbe(ctx context.Context, probe, status string, duration time.Duration)

	// RecordSummary records one summary computation with its overall status.
	RecordSummary(ctx context.Context, overall string, duration time.Duration, cacheHits, fresh int)
}

// healthMetrics is the concrete implementation of HealthMetrics.
type healthMetrics struct {
	meter        metric.Meter
	probeCount   metric.Int64Counter
	degradedHist metric.Int64Counter
	probeDur     metric.Float64Histogram
	summaryCount metric.Int64Counter
	summaryDur   metric.Float64Histogram
	cacheHits    metric.Int64Counter
}

// NewHealthMetrics creates a HealthMetrics instance with the given meter.
func NewHealthMetrics(meter metric.Meter) (HealthMetrics, error) {
	probeCount, err := meter.Int64Counter(
		"health.probe.total",
		metric.WithDescription("Total number of probe executions"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	degraded, err := meter.Int64Counter(
		"health.probe.degraded",
		metric.WithDescription("Probe executions that returned warning or critical"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	probeDur, err := meter.Float64Histogram(
		"health.probe.duration_ms",
		metric.WithDescription("Probe execution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	summaryCount, err := meter.Int64Counter(
		"health.summary.total",
		metric.WithDescription("Total number of summary computations"),
		metric.WithUnit("{summary}"),
	)
	if err != nil {
		return nil, err
	}

	summaryDur, err := meter.Float64Histogram(
		"health.summary.duration_ms",
		metric.WithDescription("Summary computation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"health.cache.hits",
		metric.WithDescription("Probe results served from the result cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	return &healthMetrics{
		meter:        meter,
		probeCount:   probeCount,
		degradedHist: degraded,
		probeDur:     probeDur,
		summaryCount: summaryCount,
		summaryDur:   summaryDur,
		cacheHits:    cacheHits,
	}, nil
}

// RecordProbe records metrics for one probe execution.
func (m *healthMetrics) RecordProbe(ctx context.Context, probe, status string, duration time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("probe", probe),
		attribute.String("status", status),
	)

	m.probeCount.Add(ctx, 1, opt)
	if status == "warning" || status == "critical" {
		m.degradedHist.Add(ctx, 1, opt)
	}
	m.probeDur.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordSummary records metrics for one summary computation.
func (m *healthMetrics) RecordSummary(ctx context.Context, overall string, duration time.Duration, cacheHits, fresh int) {
	opt := metric.WithAttributes(
		attribute.String("status", overall),
	)

	m.summaryCount.Add(ctx, 1, opt)
	m.summaryDur.Record(ctx, float64(duration.Milliseconds()), opt)
	if cacheHits > 0 {
		m.cacheHits.Add(ctx, int64(cacheHits))
	}
}

// noopHealthMetrics is a metrics implementation that does nothing.
type noopHealthMetrics struct{}

func (noopHealthMetrics) RecordProbe(context.Context, string, string, time.Duration) {}

func (noopHealthMetrics) RecordSummary(context.Context, string, time.Duration, int, int) {}

// NopHealthMetrics returns a HealthMetrics that records nothing, for tests
// and disabled telemetry.
func NopHealthMetrics() HealthMetrics {
	return noopHealthMetrics{}
}
