package health

import (
	"context"
	"sync"
	"time"

	"healthmon/cache"
	"healthmon/observe"
)

// ServiceConfig configures the health service. Nil dependencies fall back to
// in-memory implementations with telemetry disabled, which is the shape most
// tests use.
type ServiceConfig struct {
	// Runner configures probe execution.
	Runner RunnerConfig

	// TTL maps result severity to cache lifetime.
	TTL TTLPolicy

	// Cache is the backing byte store for probe results.
	// Default: in-memory cache.
	Cache cache.Cache

	// Metrics is the historical record of probe executions.
	// Default: in-memory store with logging disabled.
	Metrics *MetricsStore

	// Logger receives structured service logs. Default: discard.
	Logger observe.Logger

	// Telemetry receives probe/summary measurements. Default: discard.
	Telemetry observe.HealthMetrics

	// Tracer wraps summary computation in spans. Default: discard.
	Tracer observe.Tracer
}

// Service is the health aggregator: it owns the probe registry, the result
// cache, the alert ledger, and the metrics store, and computes the summary
// served to the dashboard. One Service is constructed at process start and
// shared by all request handlers.
type Service struct {
	mu     sync.RWMutex
	probes map[string]Probe
	order  []string // Maintains registration order

	runner  *Runner
	cache   *ResultCache
	alerts  *AlertManager
	metrics *MetricsStore
	logger  observe.Logger
	telem   observe.HealthMetrics
	tracer  observe.Tracer
}

// NewService creates a health service.
func NewService(config ServiceConfig) *Service {
	if config.Cache == nil {
		config.Cache = cache.NewMemoryCache(cache.Policy{
			DefaultTTL: 10 * time.Second,
			MaxTTL:     10 * time.Minute,
		})
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	if config.Metrics == nil {
		config.Metrics = NewMetricsStore(NewMemoryBackend(), config.Logger, MetricsStoreConfig{})
	}
	if config.Telemetry == nil {
		config.Telemetry = observe.NopHealthMetrics()
	}
	if config.Tracer == nil {
		config.Tracer = observe.NopTracer()
	}

	return &Service{
		probes:  make(map[string]Probe),
		order:   make([]string, 0),
		runner:  NewRunner(config.Runner),
		cache:   NewResultCache(config.Cache, config.TTL),
		alerts:  NewAlertManager(),
		metrics: config.Metrics,
		logger:  config.Logger,
		telem:   config.Telemetry,
		tracer:  config.Tracer,
	}
}

// Register adds a probe to the service. Registering an existing name
// replaces the probe.
func (s *Service) Register(probe Probe) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := probe.Name()
	if _, exists := s.probes[name]; !exists {
		s.order = append(s.order, name)
	}
	s.probes[name] = probe
}

// Unregister removes a probe from the service.
func (s *Service) Unregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.probes, name)

	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// ProbeNames returns the names of all registered probes in registration order.
func (s *Service) ProbeNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Alerts exposes the alert ledger for operator endpoints.
func (s *Service) Alerts() *AlertManager {
	return s.alerts
}

// Metrics exposes the metrics store for history endpoints.
func (s *Service) Metrics() *MetricsStore {
	return s.metrics
}

// Summary is the aggregate health state served to the dashboard.
type Summary struct {
	// Overall is the maximum severity among Results, StatusUnknown when no
	// probes are configured.
	Overall Status

	// Results holds one result per registered probe.
	Results map[string]Result

	// GeneratedAt is when this summary was computed.
	GeneratedAt time.Time
}

// Counts returns the number of results per status bucket.
func (s Summary) Counts() (healthy, warning, critical, unknown int) {
	for _, result := range s.Results {
		switch result.Status {
		case StatusHealthy:
			healthy++
		case StatusWarning:
			warning++
		case StatusCritical:
			critical++
		default:
			unknown++
		}
	}
	return healthy, warning, critical, unknown
}

// Summary computes the current health summary. Cached results are used
// unless forceRefresh is set; all cache misses are executed as one batch.
// Fresh results populate the cache and the metrics store, and the alert
// ledger is evaluated before returning. All results in one summary belong to
// the same invocation: a probe is never represented by a mix of stale and
// fresh values.
func (s *Service) Summary(ctx context.Context, forceRefresh bool) Summary {
	start := time.Now()
	ctx, span := s.tracer.StartSummarySpan(ctx)

	s.mu.RLock()
	order := make([]string, len(s.order))
	copy(order, s.order)
	probes := make(map[string]Probe, len(s.probes))
	for name, probe := range s.probes {
		probes[name] = probe
	}
	s.mu.RUnlock()

	results := make(map[string]Result, len(order))
	var misses []Probe
	hits := 0

	for _, name := range order {
		if !forceRefresh {
			if result, ok := s.cache.Get(ctx, name); ok {
				results[name] = result
				hits++
				continue
			}
		}
		misses = append(misses, s.traced(probes[name]))
	}

	if len(misses) > 0 {
		fresh := s.runner.RunAll(ctx, misses)
		for name, result := range fresh {
			results[name] = result
			s.recordFresh(ctx, name, result)
		}
	}

	s.evaluateAlerts(ctx, results)

	overall := OverallStatus(results)
	s.telem.RecordSummary(ctx, overall.String(), time.Since(start), hits, len(misses))
	s.tracer.EndSpan(span, overall.String(), nil)

	return Summary{
		Overall:     overall,
		Results:     results,
		GeneratedAt: time.Now(),
	}
}

// Check runs a single named probe immediately, bypassing the cache.
func (s *Service) Check(ctx context.Context, name string) (Result, error) {
	s.mu.RLock()
	probe, ok := s.probes[name]
	s.mu.RUnlock()

	if !ok {
		return Result{}, ErrProbeNotFound
	}

	result := s.runner.Run(ctx, s.traced(probe))
	s.recordFresh(ctx, name, result)
	return result, nil
}

// traced wraps a probe so each execution carries its own span.
func (s *Service) traced(probe Probe) Probe {
	return &tracedProbe{Probe: probe, tracer: s.tracer}
}

// tracedProbe spans each Check call. The span is ended in a defer so a
// panicking probe still closes it before the runner's recovery converts the
// panic to a result.
type tracedProbe struct {
	Probe
	tracer observe.Tracer
}

func (p *tracedProbe) Check(ctx context.Context) Result {
	ctx, span := p.tracer.StartProbeSpan(ctx, p.Name())

	var result Result
	defer func() {
		p.tracer.EndSpan(span, result.Status.String(), result.Err)
	}()

	result = p.Probe.Check(ctx)
	return result
}

// Close flushes the metrics store. The service itself holds no other
// resources.
func (s *Service) Close() error {
	return s.metrics.Close()
}

func (s *Service) recordFresh(ctx context.Context, name string, result Result) {
	if err := s.cache.Put(ctx, name, result); err != nil {
		s.logger.Warn(ctx, "result cache write failed",
			observe.Field{Key: "probe", Value: name},
			observe.Field{Key: "error", Value: err.Error()})
	}

	s.metrics.Append(MetricRecord{
		Probe:        name,
		Status:       result.Status,
		Message:      result.Message,
		ResponseTime: result.Duration,
		Timestamp:    result.Timestamp,
	})

	s.telem.RecordProbe(ctx, name, result.Status.String(), result.Duration)

	// The sanitized message went to the caller; the full error goes to the
	// internal log only.
	if result.Err != nil {
		s.logger.WithProbe(name).Warn(ctx, "probe reported failure",
			observe.Field{Key: "status", Value: result.Status.String()},
			observe.Field{Key: "error", Value: result.Err.Error()})
	}
}

func (s *Service) evaluateAlerts(ctx context.Context, results map[string]Result) {
	for _, alert := range s.alerts.Evaluate(results) {
		s.logger.Warn(ctx, "alert opened",
			observe.Field{Key: "probe", Value: alert.Probe},
			observe.Field{Key: "severity", Value: alert.Severity.String()},
			observe.Field{Key: "alert_id", Value: alert.ID})
	}
}
