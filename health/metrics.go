package health

import (
	"context"
	"sync"
	"time"

	"healthmon/observe"
)

// MetricRecord is an immutable historical copy of a probe result, kept for
// recent-metrics display and trend queries until retention pruning removes it.
type MetricRecord struct {
	Probe        string
	Status       Status
	Message      string
	ResponseTime time.Duration
	Timestamp    time.Time
}

// MetricsBackend is the storage interface for metric records.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Recent returns records newest first, restartable on each call; a limit
//   of zero or less means no limit.
// - DeleteOlderThan is the only deletion path for records.
type MetricsBackend interface {
	Insert(record MetricRecord) error
	Recent(limit int, probe string) ([]MetricRecord, error)
	DeleteOlderThan(cutoff time.Time) (int, error)
	Close() error
}

// MemoryBackend is an in-memory metrics backend, used as the default store
// and throughout tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	records []MetricRecord
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Insert appends a record.
func (b *MemoryBackend) Insert(record MetricRecord) error {
	b.mu.Lock()
	b.records = append(b.records, record)
	b.mu.Unlock()
	return nil
}

// Recent returns up to limit records, newest first. An empty probe matches
// all records.
func (b *MemoryBackend) Recent(limit int, probe string) ([]MetricRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if limit <= 0 {
		limit = len(b.records)
	}

	out := make([]MetricRecord, 0, limit)
	for i := len(b.records) - 1; i >= 0 && len(out) < limit; i-- {
		if probe != "" && b.records[i].Probe != probe {
			continue
		}
		out = append(out, b.records[i])
	}
	return out, nil
}

// DeleteOlderThan removes all records with a timestamp before cutoff and
// returns the number removed.
func (b *MemoryBackend) DeleteOlderThan(cutoff time.Time) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.records[:0]
	removed := 0
	for _, record := range b.records {
		if record.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	b.records = kept
	return removed, nil
}

// Close is a no-op for the in-memory backend.
func (b *MemoryBackend) Close() error {
	return nil
}

var _ MetricsBackend = (*MemoryBackend)(nil)

// MetricsStoreConfig configures the metrics store.
type MetricsStoreConfig struct {
	// BufferSize is the append queue depth. Records are dropped (and the
	// drop logged) when the queue is full. Default: 256
	BufferSize int

	// Retention is the maximum record age before pruning. Default: 7 days
	Retention time.Duration

	// PruneInterval is the sweep cadence. Default: 24 hours
	PruneInterval time.Duration
}

func (c MetricsStoreConfig) withDefaults() MetricsStoreConfig {
	if c.BufferSize <= 0 {
		c.BufferSize = 256
	}
	if c.Retention <= 0 {
		c.Retention = 7 * 24 * time.Hour
	}
	if c.PruneInterval <= 0 {
		c.PruneInterval = 24 * time.Hour
	}
	return c
}

// MetricsStore is the append-only historical record of probe executions.
// Append is fire-and-forget: writes go through a buffered queue to a single
// writer goroutine, and backend failures are logged and swallowed so a slow
// or broken store never affects summary computation.
type MetricsStore struct {
	config  MetricsStoreConfig
	backend MetricsBackend
	logger  observe.Logger

	ch        chan MetricRecord
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMetricsStore creates a metrics store over the given backend and starts
// its writer goroutine.
func NewMetricsStore(backend MetricsBackend, logger observe.Logger, config MetricsStoreConfig) *MetricsStore {
	cfg := config.withDefaults()
	s := &MetricsStore{
		config:  cfg,
		backend: backend,
		logger:  logger,
		ch:      make(chan MetricRecord, cfg.BufferSize),
		done:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.writeLoop()
	return s
}

// Append enqueues a record without blocking the caller. If the queue is full
// or the store is closed, the record is dropped and the drop is logged.
func (s *MetricsStore) Append(record MetricRecord) {
	select {
	case <-s.done:
		s.logger.Warn(context.Background(), "metric record dropped: store closed",
			observe.Field{Key: "probe", Value: record.Probe})
		return
	default:
	}

	select {
	case s.ch <- record:
	default:
		s.logger.Warn(context.Background(), "metric record dropped: queue full",
			observe.Field{Key: "probe", Value: record.Probe})
	}
}

// Recent returns up to limit records, newest first, optionally filtered by
// probe name.
func (s *MetricsStore) Recent(limit int, probe string) ([]MetricRecord, error) {
	return s.backend.Recent(limit, probe)
}

// Prune removes all records older than the given age and returns the number
// removed.
func (s *MetricsStore) Prune(olderThan time.Duration) (int, error) {
	return s.backend.DeleteOlderThan(time.Now().Add(-olderThan))
}

// StartPruner runs the retention sweep on the configured interval until ctx
// is canceled. This is the service's only internal scheduler.
func (s *MetricsStore) StartPruner(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.config.PruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				removed, err := s.Prune(s.config.Retention)
				if err != nil {
					s.logger.Error(ctx, "metrics prune failed",
						observe.Field{Key: "error", Value: err.Error()})
					continue
				}
				s.logger.Info(ctx, "metrics pruned",
					observe.Field{Key: "removed", Value: removed})
			}
		}
	}()
}

// Close drains pending writes, stops the writer, and closes the backend.
// Close is idempotent.
func (s *MetricsStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return s.backend.Close()
}

func (s *MetricsStore) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case record := <-s.ch:
			s.insert(record)
		case <-s.done:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case record := <-s.ch:
					s.insert(record)
				default:
					return
				}
			}
		}
	}
}

func (s *MetricsStore) insert(record MetricRecord) {
	if err := s.backend.Insert(record); err != nil {
		s.logger.Warn(context.Background(), "metric record write failed",
			observe.Field{Key: "probe", Value: record.Probe},
			observe.Field{Key: "error", Value: err.Error()})
	}
}
