package health

// Status represents the severity of a probe result.
// The zero value is StatusUnknown so a missing result never reads as healthy.
type Status int

const (
	// StatusUnknown indicates the probe could not run at all.
	StatusUnknown Status = iota
	// StatusHealthy indicates the subsystem is functioning normally.
	StatusHealthy
	// StatusWarning indicates the subsystem is functioning but degraded.
	StatusWarning
	// StatusCritical indicates the subsystem is not functioning properly.
	StatusCritical
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusWarning:
		return "warning"
	case StatusCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseStatus parses a status name. Unrecognized names map to StatusUnknown.
func ParseStatus(s string) Status {
	switch s {
	case "healthy":
		return StatusHealthy
	case "warning":
		return StatusWarning
	case "critical":
		return StatusCritical
	default:
		return StatusUnknown
	}
}

// Worse returns the more severe of the two statuses.
func (s Status) Worse(other Status) Status {
	if other > s {
		return other
	}
	return s
}

// Alertable reports whether the status should open an alert.
func (s Status) Alertable() bool {
	return s == StatusWarning || s == StatusCritical
}

// OverallStatus computes the aggregate status of a result set: the maximum
// severity among the results present. An empty set is StatusUnknown, never
// healthy.
func OverallStatus(results map[string]Result) Status {
	if len(results) == 0 {
		return StatusUnknown
	}

	overall := StatusUnknown
	for _, result := range results {
		overall = overall.Worse(result.Status)
	}
	return overall
}
