package health

import (
	"errors"
	"testing"
	"time"
)

func TestAlertManager_EvaluateOpensAlerts(t *testing.T) {
	m := NewAlertManager()

	opened := m.Evaluate(map[string]Result{
		"memory":   Warning("memory usage high"),
		"disk":     Critical("disk nearly full", nil),
		"database": Healthy("ok"),
		"api":      Unknown("did not run"),
	})

	if len(opened) != 2 {
		t.Fatalf("opened %d alerts, want 2", len(opened))
	}
	if m.OpenCount() != 2 {
		t.Errorf("OpenCount() = %d, want 2", m.OpenCount())
	}

	byProbe := map[string]*Alert{}
	for _, a := range opened {
		byProbe[a.Probe] = a
	}
	mem, ok := byProbe["memory"]
	if !ok {
		t.Fatal("no alert opened for memory")
	}
	if mem.Severity != StatusWarning {
		t.Errorf("memory alert severity = %v, want warning", mem.Severity)
	}
	if mem.Message != "memory usage high" {
		t.Errorf("memory alert message = %q", mem.Message)
	}
	if mem.ID == "" || mem.CreatedAt.IsZero() {
		t.Error("alert missing id or creation time")
	}
	if disk := byProbe["disk"]; disk == nil || disk.Severity != StatusCritical {
		t.Errorf("disk alert = %+v, want critical", disk)
	}
}

func TestAlertManager_EvaluateIdempotent(t *testing.T) {
	m := NewAlertManager()
	results := map[string]Result{
		"memory": Warning("memory usage high"),
		"disk":   Critical("disk nearly full", nil),
	}

	first := m.Evaluate(results)
	if len(first) != 2 {
		t.Fatalf("first pass opened %d, want 2", len(first))
	}
	for i := 0; i < 3; i++ {
		if again := m.Evaluate(results); len(again) != 0 {
			t.Fatalf("re-evaluation opened %d new alerts, want 0", len(again))
		}
	}
	if m.OpenCount() != 2 {
		t.Errorf("OpenCount() = %d, want 2", m.OpenCount())
	}
}

func TestAlertManager_SeverityChangeOpensSecondAlert(t *testing.T) {
	m := NewAlertManager()

	m.Evaluate(map[string]Result{"disk": Warning("disk filling")})
	opened := m.Evaluate(map[string]Result{"disk": Critical("disk nearly full", nil)})

	if len(opened) != 1 {
		t.Fatalf("opened %d alerts after escalation, want 1", len(opened))
	}
	if opened[0].Severity != StatusCritical {
		t.Errorf("escalated alert severity = %v, want critical", opened[0].Severity)
	}
	// The warning alert stays open alongside the critical one.
	if m.OpenCount() != 2 {
		t.Errorf("OpenCount() = %d, want 2", m.OpenCount())
	}
}

func TestAlertManager_HealthyAutoResolves(t *testing.T) {
	m := NewAlertManager()

	m.Evaluate(map[string]Result{"disk": Warning("disk filling")})
	opened := m.Evaluate(map[string]Result{"disk": Critical("disk nearly full", nil)})
	id := opened[0].ID

	m.Evaluate(map[string]Result{"disk": Healthy("ok")})

	if m.OpenCount() != 0 {
		t.Fatalf("OpenCount() = %d after recovery, want 0", m.OpenCount())
	}
	alert, ok := m.Get(id)
	if !ok {
		t.Fatal("resolved alert dropped from ledger")
	}
	if !alert.Resolved() {
		t.Error("alert not marked resolved")
	}
	if alert.ResolutionNote != "auto-resolved: probe recovered" {
		t.Errorf("ResolutionNote = %q", alert.ResolutionNote)
	}

	// Recovery is idempotent too.
	m.Evaluate(map[string]Result{"disk": Healthy("ok")})
	if got, _ := m.Get(id); got.ResolvedAt == nil || !got.ResolvedAt.Equal(*alert.ResolvedAt) {
		t.Error("re-applying a healthy result changed the resolution")
	}
}

func TestAlertManager_ResolveAndReopen(t *testing.T) {
	m := NewAlertManager()
	opened := m.Evaluate(map[string]Result{"api": Critical("upstream 503", nil)})
	id := opened[0].ID

	if err := m.Resolve(id, "restarted upstream"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	alert, _ := m.Get(id)
	if !alert.Resolved() || alert.ResolutionNote != "restarted upstream" {
		t.Errorf("alert after resolve = %+v", alert)
	}
	if m.OpenCount() != 0 {
		t.Errorf("OpenCount() = %d, want 0", m.OpenCount())
	}

	if err := m.Reopen(id); err != nil {
		t.Fatalf("Reopen() error = %v", err)
	}
	alert, _ = m.Get(id)
	if alert.Resolved() || alert.ResolutionNote != "" {
		t.Errorf("alert after reopen = %+v", alert)
	}
	if m.OpenCount() != 1 {
		t.Errorf("OpenCount() = %d, want 1", m.OpenCount())
	}
}

func TestAlertManager_ResolveErrors(t *testing.T) {
	m := NewAlertManager()
	opened := m.Evaluate(map[string]Result{"api": Critical("upstream 503", nil)})
	id := opened[0].ID

	if err := m.Resolve("no-such-id", "x"); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("Resolve(unknown) error = %v, want ErrAlertNotFound", err)
	}
	if err := m.Resolve(id, "fixed"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := m.Resolve(id, "fixed again"); !errors.Is(err, ErrAlertResolved) {
		t.Errorf("double Resolve() error = %v, want ErrAlertResolved", err)
	}
}

func TestAlertManager_ReopenErrors(t *testing.T) {
	m := NewAlertManager()
	opened := m.Evaluate(map[string]Result{"api": Critical("upstream 503", nil)})
	id := opened[0].ID

	if err := m.Reopen("no-such-id"); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("Reopen(unknown) error = %v, want ErrAlertNotFound", err)
	}
	if err := m.Reopen(id); !errors.Is(err, ErrAlertOpen) {
		t.Errorf("Reopen(open) error = %v, want ErrAlertOpen", err)
	}

	// Resolve, let a new alert take the slot, then try to reopen the old one.
	if err := m.Resolve(id, "fixed"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second := m.Evaluate(map[string]Result{"api": Critical("upstream 503 again", nil)})
	if len(second) != 1 {
		t.Fatalf("expected a fresh alert after resolve, got %d", len(second))
	}
	if err := m.Reopen(id); !errors.Is(err, ErrAlertConflict) {
		t.Errorf("Reopen(conflicting) error = %v, want ErrAlertConflict", err)
	}
}

func TestAlertManager_ListOpenNewestFirst(t *testing.T) {
	m := NewAlertManager()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	m.Evaluate(map[string]Result{"memory": Warning("memory usage high")})
	m.Evaluate(map[string]Result{"disk": Critical("disk nearly full", nil)})
	m.Evaluate(map[string]Result{"api": Warning("slow responses")})

	open := m.ListOpen()
	if len(open) != 3 {
		t.Fatalf("ListOpen() returned %d alerts, want 3", len(open))
	}
	want := []string{"api", "disk", "memory"}
	for i, probe := range want {
		if open[i].Probe != probe {
			t.Errorf("open[%d].Probe = %q, want %q", i, open[i].Probe, probe)
		}
	}

	// Returned alerts are copies; mutating them does not touch the ledger.
	open[0].Message = "tampered"
	fresh := m.ListOpen()
	if fresh[0].Message == "tampered" {
		t.Error("ListOpen() exposed internal alert state")
	}
}
