package health

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"healthmon/observe"
)

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestSummaryHandler(t *testing.T) {
	svc := newService(t,
		&countingProbe{name: "memory", result: Healthy("ok").WithDuration(2 * time.Millisecond)},
		&countingProbe{name: "disk", result: Warning("disk filling")},
		&countingProbe{name: "api", result: Critical("upstream 503", nil).WithDetails(map[string]any{"status_code": 503})},
	)
	handler := SummaryHandler(svc)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/health/summary", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeJSON[SummaryResponse](t, rec)
	if resp.OverallStatus != "critical" {
		t.Errorf("overall_status = %q, want critical", resp.OverallStatus)
	}
	if resp.TotalChecks != 3 || resp.HealthyChecks != 1 || resp.WarningChecks != 1 || resp.CriticalChecks != 1 || resp.UnknownChecks != 0 {
		t.Errorf("counts = %d/%d/%d/%d/%d", resp.TotalChecks, resp.HealthyChecks, resp.WarningChecks, resp.CriticalChecks, resp.UnknownChecks)
	}
	mem, ok := resp.Checks["memory"]
	if !ok {
		t.Fatal("memory check missing from response")
	}
	if mem.Status != "healthy" || mem.Message != "ok" {
		t.Errorf("memory check = %+v", mem)
	}
	if mem.ResponseTimeMs != 2 {
		t.Errorf("response_time_ms = %v, want 2", mem.ResponseTimeMs)
	}
	if api := resp.Checks["api"]; api.Details["status_code"] == nil {
		t.Errorf("api details missing: %+v", api)
	}
	if _, err := time.Parse(time.RFC3339, resp.GeneratedAt); err != nil {
		t.Errorf("generated_at %q not RFC3339: %v", resp.GeneratedAt, err)
	}
}

func TestSummaryHandler_RefreshParam(t *testing.T) {
	probe := &countingProbe{name: "memory", result: Healthy("ok")}
	svc := newService(t, probe)
	handler := SummaryHandler(svc)

	for _, target := range []string{
		"/api/health/summary",
		"/api/health/summary",
		"/api/health/summary?refresh=true",
		"/api/health/summary?refresh=1",
		"/api/health/summary?refresh=false",
	} {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", target, rec.Code)
		}
	}

	// First call plus the two refresh variants.
	if runs := probe.runs.Load(); runs != 3 {
		t.Errorf("probe ran %d times, want 3", runs)
	}
}

func TestAlertHandlers(t *testing.T) {
	svc := newService(t)
	opened := svc.Alerts().Evaluate(map[string]Result{"api": Critical("upstream 503", nil)})
	id := opened[0].ID

	listRec := httptest.NewRecorder()
	OpenAlertsHandler(svc)(listRec, httptest.NewRequest(http.MethodGet, "/api/health/alerts", nil))
	list := decodeJSON[struct {
		Alerts []AlertResponse `json:"alerts"`
	}](t, listRec)
	if len(list.Alerts) != 1 || list.Alerts[0].ID != id || list.Alerts[0].Severity != "critical" {
		t.Fatalf("alerts list = %+v", list.Alerts)
	}

	resolve := func(alertID, note string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"alert_id": alertID, "note": note})
		rec := httptest.NewRecorder()
		ResolveAlertHandler(svc)(rec, httptest.NewRequest(http.MethodPost, "/api/health/alerts/resolve", bytes.NewReader(body)))
		return rec
	}
	reopen := func(alertID string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"alert_id": alertID})
		rec := httptest.NewRecorder()
		ReopenAlertHandler(svc)(rec, httptest.NewRequest(http.MethodPost, "/api/health/alerts/reopen", bytes.NewReader(body)))
		return rec
	}

	rec := resolve(id, "restarted upstream")
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve status = %d, body %s", rec.Code, rec.Body)
	}
	resolved := decodeJSON[AlertResponse](t, rec)
	if resolved.ResolvedAt == "" || resolved.ResolutionNote != "restarted upstream" {
		t.Errorf("resolved alert = %+v", resolved)
	}

	if rec := resolve(id, "again"); rec.Code != http.StatusConflict {
		t.Errorf("double resolve status = %d, want 409", rec.Code)
	}
	if rec := resolve("no-such-id", ""); rec.Code != http.StatusNotFound {
		t.Errorf("resolve unknown status = %d, want 404", rec.Code)
	}

	rec = reopen(id)
	if rec.Code != http.StatusOK {
		t.Fatalf("reopen status = %d, body %s", rec.Code, rec.Body)
	}
	reopened := decodeJSON[AlertResponse](t, rec)
	if reopened.ResolvedAt != "" || reopened.ResolutionNote != "" {
		t.Errorf("reopened alert = %+v", reopened)
	}
	if rec := reopen(id); rec.Code != http.StatusConflict {
		t.Errorf("reopen open alert status = %d, want 409", rec.Code)
	}
	if rec := reopen("no-such-id"); rec.Code != http.StatusNotFound {
		t.Errorf("reopen unknown status = %d, want 404", rec.Code)
	}
}

func TestAlertHandlers_BadRequests(t *testing.T) {
	svc := newService(t)

	rec := httptest.NewRecorder()
	ResolveAlertHandler(svc)(rec, httptest.NewRequest(http.MethodGet, "/api/health/alerts/resolve", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET resolve status = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	ResolveAlertHandler(svc)(rec, httptest.NewRequest(http.MethodPost, "/api/health/alerts/resolve", bytes.NewReader([]byte(`{}`))))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty alert_id status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	ReopenAlertHandler(svc)(rec, httptest.NewRequest(http.MethodPost, "/api/health/alerts/reopen", bytes.NewReader([]byte(`not json`))))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec.Code)
	}
}

func TestRecentMetricsHandler(t *testing.T) {
	backend := NewMemoryBackend()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		probe := "memory"
		if i%2 == 1 {
			probe = "disk"
		}
		if err := backend.Insert(MetricRecord{
			Probe:        probe,
			Status:       StatusHealthy,
			Message:      "ok",
			ResponseTime: time.Duration(i) * time.Millisecond,
			Timestamp:    base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	svc := NewService(ServiceConfig{Metrics: NewMetricsStore(backend, observe.NopLogger(), MetricsStoreConfig{})})
	t.Cleanup(func() { _ = svc.Close() })
	handler := RecentMetricsHandler(svc)

	type metricsBody struct {
		Metrics []MetricResponse `json:"metrics"`
	}

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/health/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	all := decodeJSON[metricsBody](t, rec)
	if len(all.Metrics) != 6 {
		t.Errorf("got %d metrics, want 6", len(all.Metrics))
	}
	if all.Metrics[0].Probe != "disk" {
		t.Errorf("newest metric = %+v", all.Metrics[0])
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/health/metrics?limit=2&type=memory", nil))
	filtered := decodeJSON[metricsBody](t, rec)
	if len(filtered.Metrics) != 2 {
		t.Fatalf("got %d metrics, want 2", len(filtered.Metrics))
	}
	for _, m := range filtered.Metrics {
		if m.Probe != "memory" {
			t.Errorf("filtered metric for probe %q", m.Probe)
		}
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/health/metrics?limit=nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestLivenessAndReadiness(t *testing.T) {
	probe := &countingProbe{name: "api", result: Healthy("ok")}
	svc := newService(t, probe)

	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	ReadinessHandler(svc)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("readyz healthy status = %d, want 200", rec.Code)
	}

	// Critical overall flips readiness to 503. Warning does not.
	crit := newService(t, &countingProbe{name: "api", result: Critical("upstream 503", nil)})
	rec = httptest.NewRecorder()
	ReadinessHandler(crit)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz critical status = %d, want 503", rec.Code)
	}

	warn := newService(t, &countingProbe{name: "disk", result: Warning("disk filling")})
	rec = httptest.NewRecorder()
	ReadinessHandler(warn)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("readyz warning status = %d, want 200", rec.Code)
	}
}

func TestRegisterHandlers(t *testing.T) {
	svc := newService(t, &countingProbe{name: "memory", result: Healthy("ok")})
	mux := http.NewServeMux()
	RegisterHandlers(mux, svc)

	server := httptest.NewServer(mux)
	defer server.Close()

	for _, path := range []string{"/healthz", "/readyz", "/api/health/summary", "/api/health/alerts", "/api/health/metrics"} {
		resp, err := http.Get(fmt.Sprintf("%s%s", server.URL, path))
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}
