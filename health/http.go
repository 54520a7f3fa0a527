package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// SummaryResponse is the JSON response for the dashboard summary endpoint.
type SummaryResponse struct {
	OverallStatus  string                   `json:"overall_status"`
	TotalChecks    int                      `json:"total_checks"`
	HealthyChecks  int                      `json:"healthy_checks"`
	WarningChecks  int                      `json:"warning_checks"`
	CriticalChecks int                      `json:"critical_checks"`
	UnknownChecks  int                      `json:"unknown_checks"`
	Checks         map[string]CheckResponse `json:"checks"`
	GeneratedAt    string                   `json:"generated_at"`
}

// CheckResponse is the JSON form of a single probe result.
type CheckResponse struct {
	Status         string         `json:"status"`
	Message        string         `json:"message,omitempty"`
	ResponseTimeMs float64        `json:"response_time_ms"`
	Details        map[string]any `json:"details,omitempty"`
}

// AlertResponse is the JSON form of an alert.
type AlertResponse struct {
	ID             string `json:"id"`
	Probe          string `json:"probe"`
	Severity       string `json:"severity"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	CreatedAt      string `json:"created_at"`
	ResolvedAt     string `json:"resolved_at,omitempty"`
	ResolutionNote string `json:"resolution_note,omitempty"`
}

// MetricResponse is the JSON form of a metric record.
type MetricResponse struct {
	Probe          string  `json:"probe"`
	Status         string  `json:"status"`
	Message        string  `json:"message,omitempty"`
	ResponseTimeMs float64 `json:"response_time_ms"`
	Timestamp      string  `json:"timestamp"`
}

// NewSummaryResponse converts a summary to its wire form.
func NewSummaryResponse(summary Summary) SummaryResponse {
	healthy, warning, critical, unknown := summary.Counts()
	resp := SummaryResponse{
		OverallStatus:  summary.Overall.String(),
		TotalChecks:    len(summary.Results),
		HealthyChecks:  healthy,
		WarningChecks:  warning,
		CriticalChecks: critical,
		UnknownChecks:  unknown,
		Checks:         make(map[string]CheckResponse, len(summary.Results)),
		GeneratedAt:    summary.GeneratedAt.UTC().Format(time.RFC3339),
	}
	for name, result := range summary.Results {
		resp.Checks[name] = CheckResponse{
			Status:         result.Status.String(),
			Message:        result.Message,
			ResponseTimeMs: float64(result.Duration.Microseconds()) / 1000,
			Details:        result.Details,
		}
	}
	return resp
}

// SummaryHandler serves the dashboard summary. It always answers 200 with a
// summary body, possibly with unknown entries, never an error response.
// ?refresh=true bypasses the result cache.
func SummaryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force := r.URL.Query().Get("refresh") == "true" || r.URL.Query().Get("refresh") == "1"

		summary := svc.Summary(r.Context(), force)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(NewSummaryResponse(summary))
	}
}

// OpenAlertsHandler serves the open alerts, newest first.
func OpenAlertsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alerts := svc.Alerts().ListOpen()

		out := make([]AlertResponse, 0, len(alerts))
		for _, alert := range alerts {
			out = append(out, newAlertResponse(alert))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"alerts": out})
	}
}

func newAlertResponse(alert *Alert) AlertResponse {
	resp := AlertResponse{
		ID:             alert.ID,
		Probe:          alert.Probe,
		Severity:       alert.Severity.String(),
		Title:          alert.Title,
		Message:        alert.Message,
		CreatedAt:      alert.CreatedAt.UTC().Format(time.RFC3339),
		ResolutionNote: alert.ResolutionNote,
	}
	if alert.ResolvedAt != nil {
		resp.ResolvedAt = alert.ResolvedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

type resolveRequest struct {
	AlertID string `json:"alert_id"`
	Note    string `json:"note"`
}

// ResolveAlertHandler handles operator alert resolution. Unknown ids answer
// 404; an already-resolved alert answers 409.
func ResolveAlertHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST required")
			return
		}

		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AlertID == "" {
			writeError(w, http.StatusBadRequest, "alert_id is required")
			return
		}

		if err := svc.Alerts().Resolve(req.AlertID, req.Note); err != nil {
			writeAlertError(w, err)
			return
		}

		alert, _ := svc.Alerts().Get(req.AlertID)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newAlertResponse(alert))
	}
}

// ReopenAlertHandler handles operator alert reopening. Unknown ids answer
// 404; an alert that is still open, or whose (probe, severity) pair already
// has another open alert, answers 409.
func ReopenAlertHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST required")
			return
		}

		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AlertID == "" {
			writeError(w, http.StatusBadRequest, "alert_id is required")
			return
		}

		if err := svc.Alerts().Reopen(req.AlertID); err != nil {
			writeAlertError(w, err)
			return
		}

		alert, _ := svc.Alerts().Get(req.AlertID)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newAlertResponse(alert))
	}
}

// RecentMetricsHandler serves recent metric records, newest first.
// Query parameters: limit (default 50), type (probe name filter).
func RecentMetricsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = parsed
		}
		probe := r.URL.Query().Get("type")

		records, err := svc.Metrics().Recent(limit, probe)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "metrics unavailable")
			return
		}

		out := make([]MetricResponse, 0, len(records))
		for _, record := range records {
			out = append(out, MetricResponse{
				Probe:          record.Probe,
				Status:         record.Status.String(),
				Message:        record.Message,
				ResponseTimeMs: float64(record.ResponseTime.Microseconds()) / 1000,
				Timestamp:      record.Timestamp.UTC().Format(time.RFC3339),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"metrics": out})
	}
}

// LivenessHandler answers liveness probes: the process is up.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler answers readiness probes from the cached summary: 200
// unless the overall status is critical.
func ReadinessHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary := svc.Summary(r.Context(), false)

		w.Header().Set("Content-Type", "text/plain")
		if summary.Overall == StatusCritical {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("CRITICAL"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(summary.Overall.String()))
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeAlertError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAlertNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlertResolved), errors.Is(err, ErrAlertOpen), errors.Is(err, ErrAlertConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// RegisterHandlers registers all health endpoints on the given mux.
func RegisterHandlers(mux *http.ServeMux, svc *Service) {
	mux.HandleFunc("/healthz", LivenessHandler())
	mux.HandleFunc("/readyz", ReadinessHandler(svc))
	mux.HandleFunc("/api/health/summary", SummaryHandler(svc))
	mux.HandleFunc("/api/health/alerts", OpenAlertsHandler(svc))
	mux.HandleFunc("/api/health/alerts/resolve", ResolveAlertHandler(svc))
	mux.HandleFunc("/api/health/alerts/reopen", ReopenAlertHandler(svc))
	mux.HandleFunc("/api/health/metrics", RecentMetricsHandler(svc))
}
