package health

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"time"
)

// Result contains the outcome of a single probe execution.
// Results are immutable once returned by a probe.
type Result struct {
	// Probe is the name of the probe that produced this result.
	Probe string

	// Status is the severity of the result.
	Status Status

	// Message provides human-readable context about the status.
	Message string

	// Details contains probe-specific measurements.
	Details map[string]any

	// Duration is how long the check took.
	Duration time.Duration

	// Timestamp is when the check was performed.
	Timestamp time.Time

	// Err is the underlying error if the check failed. It is logged
	// internally and never serialized to callers; Message carries the
	// sanitized summary.
	Err error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{
		Status:    StatusHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Warning creates a warning result.
func Warning(message string) Result {
	return Result{
		Status:    StatusWarning,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Critical creates a critical result.
func Critical(message string, err error) Result {
	return Result{
		Status:    StatusCritical,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Unknown creates an unknown result for a probe that could not run.
func Unknown(message string) Result {
	return Result{
		Status:    StatusUnknown,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration sets the duration on a result.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// CriticalErr converts an internal probe error into a critical result with a
// sanitized message. The raw error text may carry connection strings or
// filesystem paths, so only the category is exposed; the full error stays on
// Err for internal logging.
func CriticalErr(summary string, err error) Result {
	category := categorizeErr(err)
	return Critical(summary+": "+category, err).WithDetails(map[string]any{
		"error": category,
	})
}

// categorizeErr maps an error to a coarse category safe to show to callers.
func categorizeErr(err error) string {
	switch {
	case err == nil:
		return "unknown error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, os.ErrNotExist):
		return "not found"
	case errors.Is(err, os.ErrPermission):
		return "permission denied"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network error"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return "connection refused"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return "timeout"
	case strings.Contains(msg, "permission"):
		return "permission denied"
	default:
		return "internal error"
	}
}
