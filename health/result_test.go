package health

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestResult_Constructors(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   Status
	}{
		{"healthy", Healthy("ok"), StatusHealthy},
		{"warning", Warning("slow"), StatusWarning},
		{"critical", Critical("down", errors.New("boom")), StatusCritical},
		{"unknown", Unknown("did not run"), StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.want {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.want)
			}
			if tt.result.Timestamp.IsZero() {
				t.Error("Timestamp should be set")
			}
		})
	}
}

func TestResult_Builders(t *testing.T) {
	r := Healthy("ok").
		WithDetails(map[string]any{"k": 1}).
		WithDuration(5 * time.Millisecond)

	if r.Details["k"] != 1 {
		t.Errorf("Details = %v", r.Details)
	}
	if r.Duration != 5*time.Millisecond {
		t.Errorf("Duration = %v", r.Duration)
	}
}

func TestCriticalErr_Sanitizes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category string
	}{
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"not exist", os.ErrNotExist, "not found"},
		{"permission", os.ErrPermission, "permission denied"},
		{"refused", errors.New("dial tcp 10.0.0.5:5432: connection refused"), "connection refused"},
		{"timed out text", errors.New("read /var/lib/app/secret.db: i/o timed out"), "timeout"},
		{"opaque", errors.New("pq: password authentication failed for user \"admin\""), "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CriticalErr("check failed", tt.err)

			if r.Status != StatusCritical {
				t.Errorf("Status = %v, want StatusCritical", r.Status)
			}
			if r.Details["error"] != tt.category {
				t.Errorf("Details[error] = %v, want %q", r.Details["error"], tt.category)
			}
			if want := "check failed: " + tt.category; r.Message != want {
				t.Errorf("Message = %q, want %q", r.Message, want)
			}
			if !errors.Is(r.Err, tt.err) {
				t.Error("Err should wrap the original error for internal logging")
			}
		})
	}
}
