package health

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/msto63/shcst/foundation/shell/parser"
	"github.com/msto63/shcst/pkg/core/config"
)

func TestNewChecker(t *testing.T) {
	checker := NewChecker("test-checker", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy, Message: "test passed"}
	})

	if checker.Name() != "test-checker" {
		t.Errorf("Name() = %v, want test-checker", checker.Name())
	}
	result := checker.Check(context.Background())
	if result.Status != StatusHealthy || result.Message != "test passed" {
		t.Errorf("unexpected result %+v", result)
	}

	fn := CheckFunc(func(ctx context.Context) CheckResult { return CheckResult{} })
	if fn.Name() != "unknown" {
		t.Errorf("Name() = %v, want unknown", fn.Name())
	}
}

func TestRegistry_SortedAndNamed(t *testing.T) {
	registry := NewRegistry("shcst", "1.0.0")
	registry.RegisterFunc("store", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy}
	})
	registry.RegisterFunc("config", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy}
	})

	report := registry.Check(context.Background())
	if report.Tool != "shcst" || report.Version != "1.0.0" {
		t.Errorf("unexpected header %s", report)
	}
	if !report.Healthy() {
		t.Errorf("Status = %v, want healthy", report.Status)
	}
	if len(report.Checks) != 2 || report.Checks[0].Name != "config" || report.Checks[1].Name != "store" {
		t.Errorf("checks must be sorted by name, got %+v", report.Checks)
	}

	registry.Unregister("store")
	if n := len(registry.Check(context.Background()).Checks); n != 1 {
		t.Errorf("after unregister: %d checks, want 1", n)
	}
}

func TestRegistry_OverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"missing status", []Status{StatusHealthy, ""}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
		{"empty", nil, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry("shcst", "test")
			for i, s := range tt.statuses {
				status := s
				registry.RegisterFunc(string(rune('a'+i)), func(ctx context.Context) CheckResult {
					return CheckResult{Status: status}
				})
			}
			report := registry.CheckWithTimeout(time.Second)
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			for _, c := range report.Checks {
				if c.Status == "" {
					t.Errorf("check %s has no status", c.Name)
				}
			}
		})
	}
}

func TestRegistry_ConcurrentChecks(t *testing.T) {
	registry := NewRegistry("shcst", "test")
	var counter int32
	for i := 0; i < 5; i++ {
		registry.RegisterFunc("check"+string(rune('A'+i)), func(ctx context.Context) CheckResult {
			atomic.AddInt32(&counter, 1)
			time.Sleep(20 * time.Millisecond)
			return CheckResult{Status: StatusHealthy}
		})
	}

	start := time.Now()
	report := registry.Check(context.Background())
	if atomic.LoadInt32(&counter) != 5 {
		t.Errorf("Counter = %v, want 5", counter)
	}
	if d := time.Since(start); d > 90*time.Millisecond {
		t.Errorf("Duration = %v, expected concurrent execution", d)
	}
	for _, c := range report.Checks {
		if c.Duration <= 0 {
			t.Errorf("check %s has no duration", c.Name)
		}
	}
}

func TestParserCheck(t *testing.T) {
	result := ParserCheck(parser.DefaultOptions()).Check(context.Background())
	if result.Status != StatusHealthy {
		t.Fatalf("Status = %v (%s), want healthy", result.Status, result.Message)
	}
	if !strings.Contains(result.Message, "lossless") {
		t.Errorf("Message = %q", result.Message)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if r := ParserCheck(parser.DefaultOptions()).Check(ctx); r.Status != StatusUnhealthy {
		t.Errorf("cancelled parse: Status = %v, want unhealthy", r.Status)
	}
}

func TestConfigCheck(t *testing.T) {
	result := ConfigCheck(config.Default()).Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v (%s), want healthy", result.Status, result.Message)
	}
	if result.Details["source"] != "defaults" {
		t.Errorf("source = %v, want defaults", result.Details["source"])
	}

	cfg := config.Default()
	cfg.Check.Workers = 0
	if r := ConfigCheck(cfg).Check(context.Background()); r.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", r.Status)
	}
}

func TestWritableCheck(t *testing.T) {
	dir := t.TempDir()

	result := WritableCheck("store", filepath.Join(dir, "nested", "runs.db"), "").Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v (%s), want healthy", result.Status, result.Message)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "nested"))
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}

	result = WritableCheck("log file", "", "logging to stderr").Check(context.Background())
	if result.Status != StatusHealthy || result.Message != "logging to stderr" {
		t.Errorf("unexpected result %+v", result)
	}

	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	result = WritableCheck("store", filepath.Join(blocker, "runs.db"), "").Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy below a regular file", result.Status)
	}
}
