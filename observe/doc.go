// Package observe provides the telemetry surface for the health monitoring
// service: a structured JSON logger, OpenTelemetry metrics for probe
// executions and summary computation, and tracing around the check path.
//
// A single Observer is constructed at process start and handed to the
// components that need it:
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//	    ServiceName: "healthmon",
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//
// Telemetry is best-effort throughout: a failing exporter or writer never
// affects health summary computation.
package observe
