package health

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Alert is a tracked, operator-actionable record of a probe being in a
// non-healthy state. Alerts are never deleted; a resolved alert stays on the
// ledger and can be reopened by an operator.
type Alert struct {
	ID             string
	Probe          string
	Severity       Status
	Title          string
	Message        string
	CreatedAt      time.Time
	ResolvedAt     *time.Time
	ResolutionNote string
}

// Resolved reports whether the alert has been resolved.
func (a *Alert) Resolved() bool {
	return a.ResolvedAt != nil
}

type alertKey struct {
	probe    string
	severity Status
}

// AlertManager maintains the alert ledger with at most one open alert per
// (probe, severity) pair. It is safe for concurrent use.
type AlertManager struct {
	mu     sync.RWMutex
	alerts map[string]*Alert
	open   map[alertKey]*Alert
	now    func() time.Time
}

// NewAlertManager creates an empty alert manager.
func NewAlertManager() *AlertManager {
	return &AlertManager{
		alerts: make(map[string]*Alert),
		open:   make(map[alertKey]*Alert),
		now:    time.Now,
	}
}

// Evaluate applies a batch of probe results to the alert ledger: a warning or
// critical result opens an alert for its (probe, severity) pair unless one is
// already open, and a healthy result auto-resolves every open alert for that
// probe. Unknown results leave the ledger untouched. Evaluate is idempotent:
// re-applying an unchanged result set opens no duplicates and re-resolves
// nothing.
func (m *AlertManager) Evaluate(results map[string]Result) []*Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	var opened []*Alert
	for name, result := range results {
		switch {
		case result.Status.Alertable():
			key := alertKey{probe: name, severity: result.Status}
			if _, exists := m.open[key]; exists {
				continue
			}
			alert := &Alert{
				ID:        uuid.NewString(),
				Probe:     name,
				Severity:  result.Status,
				Title:     fmt.Sprintf("%s check %s", name, result.Status),
				Message:   result.Message,
				CreatedAt: m.now(),
			}
			m.alerts[alert.ID] = alert
			m.open[key] = alert
			opened = append(opened, alert)

		case result.Status == StatusHealthy:
			m.resolveProbeLocked(name, "auto-resolved: probe recovered")
		}
	}
	return opened
}

// resolveProbeLocked resolves all open alerts for a probe. Caller holds mu.
func (m *AlertManager) resolveProbeLocked(probe, note string) {
	for key, alert := range m.open {
		if key.probe != probe {
			continue
		}
		now := m.now()
		alert.ResolvedAt = &now
		alert.ResolutionNote = note
		delete(m.open, key)
	}
}

// Resolve marks an alert resolved with an operator note. Returns
// ErrAlertNotFound for an unknown id and ErrAlertResolved if the alert is
// already resolved.
func (m *AlertManager) Resolve(id, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[id]
	if !ok {
		return ErrAlertNotFound
	}
	if alert.Resolved() {
		return ErrAlertResolved
	}

	now := m.now()
	alert.ResolvedAt = &now
	alert.ResolutionNote = note
	delete(m.open, alertKey{probe: alert.Probe, severity: alert.Severity})
	return nil
}

// Reopen clears the resolution of an alert. Returns ErrAlertNotFound for an
// unknown id, ErrAlertOpen if the alert was never resolved, and
// ErrAlertConflict if another open alert already covers the same
// (probe, severity) pair.
func (m *AlertManager) Reopen(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.alerts[id]
	if !ok {
		return ErrAlertNotFound
	}
	if !alert.Resolved() {
		return ErrAlertOpen
	}

	key := alertKey{probe: alert.Probe, severity: alert.Severity}
	if _, exists := m.open[key]; exists {
		return ErrAlertConflict
	}

	alert.ResolvedAt = nil
	alert.ResolutionNote = ""
	m.open[key] = alert
	return nil
}

// Get returns the alert with the given id.
func (m *AlertManager) Get(id string) (*Alert, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alert, ok := m.alerts[id]
	if !ok {
		return nil, false
	}
	copied := *alert
	return &copied, true
}

// ListOpen returns the open alerts, newest first.
func (m *AlertManager) ListOpen() []*Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alerts := make([]*Alert, 0, len(m.open))
	for _, alert := range m.open {
		copied := *alert
		alerts = append(alerts, &copied)
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].ID < alerts[j].ID
		}
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	return alerts
}

// OpenCount returns the number of open alerts.
func (m *AlertManager) OpenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.open)
}
