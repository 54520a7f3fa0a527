package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIProbeConfig configures the API probe.
type APIProbeConfig struct {
	// URL is the endpoint to request.
	URL string

	// Thresholds are response latencies in milliseconds.
	// Default: warning 500, critical 2000
	Thresholds Thresholds

	// Client is the HTTP client to use. Default: http.DefaultClient
	Client *http.Client
}

// APIProbe checks an HTTP endpoint with a GET request, classifying on both
// response code and latency.
type APIProbe struct {
	config APIProbeConfig
}

// NewAPIProbe creates an API probe.
func NewAPIProbe(config APIProbeConfig) *APIProbe {
	config.Thresholds = config.Thresholds.withDefaults(500, 2000)
	if config.Client == nil {
		config.Client = http.DefaultClient
	}
	return &APIProbe{config: config}
}

// Name returns the name of this probe.
func (p *APIProbe) Name() string {
	return "api"
}

// Check performs the HTTP check.
func (p *APIProbe) Check(ctx context.Context) Result {
	if p.config.URL == "" {
		return Unknown("no API endpoint configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.URL, nil)
	if err != nil {
		return CriticalErr("api check failed", err)
	}

	start := time.Now()
	resp, err := p.config.Client.Do(req)
	if err != nil {
		return CriticalErr("api unreachable", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	elapsed := time.Since(start)
	latencyMs := float64(elapsed.Microseconds()) / 1000

	details := map[string]any{
		"status_code": resp.StatusCode,
		"latency_ms":  latencyMs,
	}

	switch {
	case resp.StatusCode >= 500:
		return Critical(fmt.Sprintf("api returned %d", resp.StatusCode), nil).WithDetails(details)
	case resp.StatusCode >= 400:
		return Warning(fmt.Sprintf("api returned %d", resp.StatusCode)).WithDetails(details)
	}

	message := fmt.Sprintf("api responding in %.0fms", latencyMs)
	switch p.config.Thresholds.Classify(latencyMs) {
	case StatusCritical:
		return Critical("api latency critical: "+message, nil).WithDetails(details)
	case StatusWarning:
		return Warning("api slow: " + message).WithDetails(details)
	default:
		return Healthy(message).WithDetails(details)
	}
}
