package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunnerConfig configures the probe runner.
type RunnerConfig struct {
	// MaxConcurrent is the worker pool size for a batch.
	// Default: 4
	MaxConcurrent int

	// ProbeTimeout is the budget for a single probe.
	// Default: 3 seconds
	ProbeTimeout time.Duration

	// BatchDeadline bounds a whole RunAll call.
	// Default: 10 seconds
	BatchDeadline time.Duration
}

func (c RunnerConfig) withDefaults() RunnerConfig {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 3 * time.Second
	}
	if c.BatchDeadline <= 0 {
		c.BatchDeadline = 10 * time.Second
	}
	return c
}

// Runner executes probe batches with bounded concurrency and a shared
// deadline. A probe failure or timeout never aborts its siblings.
type Runner struct {
	config RunnerConfig
}

// NewRunner creates a new probe runner.
func NewRunner(config RunnerConfig) *Runner {
	return &Runner{config: config.withDefaults()}
}

// RunAll executes every probe and returns one result per probe name. The
// returned map always contains exactly the requested probe set: probes that
// exceed their own timeout yield warning results, and probes still running
// when the batch deadline fires yield unknown results. A probe is invoked at
// most once per batch; late results arriving after the deadline are
// discarded.
func (r *Runner) RunAll(ctx context.Context, probes []Probe) map[string]Result {
	results := make(map[string]Result, len(probes))
	if len(probes) == 0 {
		return results
	}

	batchStart := time.Now()
	for _, p := range probes {
		incomplete := Unknown("check did not complete in time")
		incomplete.Probe = p.Name()
		incomplete.Err = ErrBatchDeadline
		incomplete.Timestamp = batchStart
		results[p.Name()] = incomplete
	}

	batchCtx, cancel := context.WithTimeout(ctx, r.config.BatchDeadline)
	defer cancel()

	var mu sync.Mutex
	sealed := false

	// The launcher runs in its own goroutine because Go on a full pool
	// blocks until a slot frees up, which must not stall the deadline path.
	done := make(chan struct{})
	go func() {
		defer close(done)

		var g errgroup.Group
		g.SetLimit(r.config.MaxConcurrent)
		for _, p := range probes {
			p := p
			g.Go(func() error {
				result := r.runProbe(batchCtx, p)
				mu.Lock()
				if !sealed {
					results[p.Name()] = result
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-batchCtx.Done():
	}

	mu.Lock()
	sealed = true
	snapshot := make(map[string]Result, len(results))
	for name, result := range results {
		snapshot[name] = result
	}
	mu.Unlock()

	return snapshot
}

// Run executes a single probe with the per-probe timeout applied.
func (r *Runner) Run(ctx context.Context, probe Probe) Result {
	return r.runProbe(ctx, probe)
}

func (r *Runner) runProbe(ctx context.Context, probe Probe) Result {
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, r.config.ProbeTimeout)
	defer cancel()

	resultCh := make(chan Result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				result := CriticalErr("check failed", fmt.Errorf("%w: %v", ErrProbePanic, rec))
				result.Details["error"] = "panic"
				resultCh <- result
			}
		}()

		result := probe.Check(probeCtx)
		if result.Duration == 0 {
			result.Duration = time.Since(start)
		}
		if result.Timestamp.IsZero() {
			result.Timestamp = start
		}
		resultCh <- result
	}()

	var result Result
	select {
	case result = <-resultCh:
	case <-probeCtx.Done():
		if ctx.Err() != nil {
			// The batch deadline (or the caller) fired, not this
			// probe's own budget.
			result = Unknown("check did not complete in time")
			result.Err = ErrBatchDeadline
		} else {
			result = Warning("check timed out")
			result.Err = ErrProbeTimeout
		}
		result.Duration = time.Since(start)
		result.Timestamp = start
	}

	result.Probe = probe.Name()
	return result
}
