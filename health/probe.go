package health

import "context"

// Probe is the interface for a single subsystem check.
//
// Contract:
//   - Check must always return a Result and never panic past its boundary;
//     internal failures are converted to critical results with sanitized
//     messages (see CriticalErr).
//   - Check may perform a lightweight read against its target (a trivial
//     query, a ping, a stat call) but must not mutate target state.
//   - Check must honor ctx cancellation and deadlines.
type Probe interface {
	// Name returns the name of this probe.
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) Result
}

// ProbeFunc is an adapter to allow ordinary functions to be used as Probes.
type ProbeFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewProbeFunc creates a new ProbeFunc.
func NewProbeFunc(name string, fn func(context.Context) Result) *ProbeFunc {
	return &ProbeFunc{name: name, fn: fn}
}

// Name returns the name of this probe.
func (f *ProbeFunc) Name() string {
	return f.name
}

// Check performs the health check.
func (f *ProbeFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}

// Thresholds is the uniform threshold policy shared by all probes: a measured
// quantity compared against a warning and a critical bound.
type Thresholds struct {
	// Warning is the bound at or above which the status is StatusWarning.
	Warning float64

	// Critical is the bound at or above which the status is StatusCritical.
	Critical float64
}

// Classify maps a measured value to a status.
func (t Thresholds) Classify(value float64) Status {
	switch {
	case value >= t.Critical:
		return StatusCritical
	case value >= t.Warning:
		return StatusWarning
	default:
		return StatusHealthy
	}
}

// withDefaults fills zero or inverted thresholds from the given defaults.
func (t Thresholds) withDefaults(warning, critical float64) Thresholds {
	if t.Warning <= 0 {
		t.Warning = warning
	}
	if t.Critical <= 0 {
		t.Critical = critical
	}
	if t.Critical < t.Warning {
		t.Critical = t.Warning
	}
	return t
}
