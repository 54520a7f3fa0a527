package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"healthmon/cache"
	"healthmon/config"
	"healthmon/health"
	"healthmon/observe"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("HEALTHMON_CONFIG"), "path to yaml config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "healthmon",
		Tracing: observe.TracingConfig{
			Enabled:   cfg.TracingExporter != "" && cfg.TracingExporter != "none",
			Exporter:  cfg.TracingExporter,
			SamplePct: cfg.TracingSample,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.MetricsExporter != "" && cfg.MetricsExporter != "none",
			Exporter: cfg.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   cfg.LogLevel,
		},
	})
	if err != nil {
		log.Fatalf("setup telemetry: %v", err)
	}
	logger := obs.Logger()

	telem, err := observe.NewHealthMetrics(obs.Meter())
	if err != nil {
		log.Fatalf("setup health metrics: %v", err)
	}

	// Metrics history: sqlite when a path is configured, memory otherwise.
	var backend health.MetricsBackend
	var sqliteBackend *health.SQLiteBackend
	if cfg.Health.MetricsDBPath != "" {
		sqliteBackend, err = health.OpenSQLiteBackend(cfg.Health.MetricsDBPath)
		if err != nil {
			log.Fatalf("open metrics store: %v", err)
		}
		backend = sqliteBackend
	} else {
		backend = health.NewMemoryBackend()
	}

	metricsStore := health.NewMetricsStore(backend, logger, health.MetricsStoreConfig{
		Retention:     cfg.Health.Retention(),
		PruneInterval: cfg.Health.PruneInterval(),
	})
	metricsStore.StartPruner(ctx)

	cacheBackend := cache.NewMemoryCache(cache.Policy{
		DefaultTTL: cfg.Health.DegradedTTL(),
		MaxTTL:     cfg.Health.HealthyTTL(),
	})

	svc := health.NewService(health.ServiceConfig{
		Runner: health.RunnerConfig{
			MaxConcurrent: cfg.Health.MaxConcurrent,
			ProbeTimeout:  cfg.Health.ProbeTimeout(),
			BatchDeadline: cfg.Health.BatchDeadline(),
		},
		TTL: health.TTLPolicy{
			HealthyTTL:  cfg.Health.HealthyTTL(),
			DegradedTTL: cfg.Health.DegradedTTL(),
		},
		Cache:     cacheBackend,
		Metrics:   metricsStore,
		Logger:    logger,
		Telemetry: telem,
		Tracer:    observe.NewTracer(obs.Tracer()),
	})

	registerProbes(svc, cfg, cacheBackend, sqliteBackend, startMaintenance(ctx))

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, svc)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(ctx, "healthmon listening",
			observe.Field{Key: "addr", Value: cfg.ListenAddr},
			observe.Field{Key: "probes", Value: svc.ProbeNames()})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown failed",
			observe.Field{Key: "error", Value: err.Error()})
	}
	if err := svc.Close(); err != nil {
		logger.Error(shutdownCtx, "metrics store close failed",
			observe.Field{Key: "error", Value: err.Error()})
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
}

func registerProbes(svc *health.Service, cfg config.Config, cacheBackend cache.Cache, sqliteBackend *health.SQLiteBackend, heartbeat *health.Heartbeat) {
	svc.Register(health.NewMemoryProbe(health.MemoryProbeConfig{
		Thresholds: thresholds(cfg.Probes.Memory),
	}))
	svc.Register(health.NewDiskProbe(health.DiskProbeConfig{
		Path:       cfg.Probes.Disk.Path,
		Thresholds: thresholds(cfg.Probes.Disk.ThresholdConfig),
	}))
	svc.Register(health.NewLoadProbe(health.LoadProbeConfig{
		Thresholds: thresholds(cfg.Probes.Load),
	}))
	svc.Register(health.NewCacheProbe(cacheBackend, health.CacheProbeConfig{}))
	svc.Register(health.NewWorkerProbe(heartbeat, health.WorkerProbeConfig{
		WarningAge:  time.Duration(cfg.Probes.Worker.WarningSeconds) * time.Second,
		CriticalAge: time.Duration(cfg.Probes.Worker.CriticalSeconds) * time.Second,
	}))

	// The database probe pings the same store the metrics history lives in.
	// With no sqlite path configured it reports unknown rather than vanish
	// from the dashboard.
	var db *sql.DB
	if sqliteBackend != nil {
		db = sqliteBackend.DB()
	}
	svc.Register(health.NewDatabaseProbe(db, health.DatabaseProbeConfig{
		Thresholds: thresholds(cfg.Probes.Database),
	}))
	if cfg.Probes.API.URL != "" {
		svc.Register(health.NewAPIProbe(health.APIProbeConfig{
			URL:        cfg.Probes.API.URL,
			Thresholds: thresholds(cfg.Probes.API.ThresholdConfig),
		}))
	}
	if cfg.Probes.Store.Path != "" {
		svc.Register(health.NewStoreProbe(health.StoreProbeConfig{
			Path:       cfg.Probes.Store.Path,
			Thresholds: thresholds(cfg.Probes.Store.ThresholdConfig),
		}))
	}
}

// startMaintenance runs the in-process maintenance loop whose liveness the
// worker probe observes.
func startMaintenance(ctx context.Context) *health.Heartbeat {
	heartbeat := health.NewHeartbeat()
	heartbeat.Beat()
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				heartbeat.Beat()
			}
		}
	}()
	return heartbeat
}

func thresholds(t config.ThresholdConfig) health.Thresholds {
	return health.Thresholds{Warning: t.Warning, Critical: t.Critical}
}
