// Package health implements the health monitoring service: a fixed set of
// system probes executed concurrently under a shared deadline, a severity
// aware result cache, alert lifecycle management, and a historical metrics
// store, all exposed to a polling dashboard through HTTP handlers.
//
// # Core Concepts
//
// A Probe is any component that can check one subsystem and report a Result.
// The Status type represents the severity: Unknown, Healthy, Warning, or
// Critical, ordered from least to most severe.
//
// # Basic Usage
//
//	svc := health.NewService(health.ServiceConfig{})
//	svc.Register(health.NewMemoryProbe(health.MemoryProbeConfig{}))
//	svc.Register(health.NewDiskProbe(health.DiskProbeConfig{Path: "/"}))
//
//	summary := svc.Summary(ctx, false)
//	if summary.Overall == health.StatusCritical {
//	    log.Printf("system critical")
//	}
//
// # Result Caching
//
// Fresh probe results are cached with a TTL derived from their severity:
// healthy results are served from cache longer than degraded ones, and
// unknown results are never cached, so a failing subsystem is re-checked
// sooner than a healthy one.
//
// # Alerts
//
// The AlertManager tracks one open alert per (probe, severity) pair. Alerts
// open when a probe degrades, auto-resolve when it recovers, and can be
// resolved or reopened by an operator.
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, svc)
//
// registers the dashboard summary, alert, and metric endpoints along with
// /healthz and /readyz probes.
package health
