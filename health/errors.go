package health

import "errors"

var (
	// ErrProbeTimeout indicates a probe exceeded its per-probe timeout.
	ErrProbeTimeout = errors.New("health: probe timeout")

	// ErrBatchDeadline indicates the batch deadline fired before a probe
	// completed.
	ErrBatchDeadline = errors.New("health: batch deadline exceeded")

	// ErrProbeNotFound indicates a probe was not found in the registry.
	ErrProbeNotFound = errors.New("health: probe not found")

	// ErrProbePanic indicates a probe panicked during Check.
	ErrProbePanic = errors.New("health: probe panicked")

	// ErrAlertNotFound indicates an alert id does not exist.
	ErrAlertNotFound = errors.New("health: alert not found")

	// ErrAlertResolved indicates an operation on an already-resolved alert.
	ErrAlertResolved = errors.New("health: alert already resolved")

	// ErrAlertOpen indicates an operation on an alert that is still open.
	ErrAlertOpen = errors.New("health: alert is open")

	// ErrAlertConflict indicates reopening would violate the one-open-alert
	// invariant for a (probe, severity) pair.
	ErrAlertConflict = errors.New("health: open alert exists for probe and severity")
)
