// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     health
// Description: Environment self-checks behind the doctor command
// Author:      msto63
// Created:     2026-10-12
// License:     MIT
// ============================================================================

package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/msto63/shcst/foundation/shell/parser"
	"github.com/msto63/shcst/pkg/core/config"
)

// Status represents the outcome of a check
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	StatusUnknown   Status = "unknown"
)

// CheckResult represents the result of one check
type CheckResult struct {
	Name     string                 `json:"name"`
	Status   Status                 `json:"status"`
	Message  string                 `json:"message"`
	Duration time.Duration          `json:"duration"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// Checker is an interface for checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// CheckFunc is a function type that implements Checker
type CheckFunc func(ctx context.Context) CheckResult

// Check implements the Checker interface
func (f CheckFunc) Check(ctx context.Context) CheckResult {
	return f(ctx)
}

// Name returns a default name
func (f CheckFunc) Name() string {
	return "unknown"
}

type namedCheck struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewChecker creates a named checker from a function
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return &namedCheck{name: name, fn: fn}
}

func (c *namedCheck) Name() string                          { return c.name }
func (c *namedCheck) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// Registry manages multiple checkers
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	tool     string
	version  string
}

// NewRegistry creates a new registry
func NewRegistry(tool, version string) *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		tool:     tool,
		version:  version,
	}
}

// Register adds a checker, replacing one of the same name
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[checker.Name()] = checker
}

// RegisterFunc adds a check function to the registry
func (r *Registry) RegisterFunc(name string, fn func(ctx context.Context) CheckResult) {
	r.Register(NewChecker(name, fn))
}

// Unregister removes a checker from the registry
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkers, name)
}

// Check runs all checks concurrently. Results are sorted by name.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := &Report{
		Tool:      r.tool,
		Version:   r.version,
		Timestamp: time.Now(),
		Checks:    make([]CheckResult, 0, len(r.checkers)),
	}

	var wg sync.WaitGroup
	results := make(chan CheckResult, len(r.checkers))

	for _, checker := range r.checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			start := time.Now()
			result := c.Check(ctx)
			result.Duration = time.Since(start)
			if result.Name == "" {
				result.Name = c.Name()
			}
			if result.Status == "" {
				result.Status = StatusUnknown
			}
			results <- result
		}(checker)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	overall := StatusHealthy
	for result := range results {
		report.Checks = append(report.Checks, result)
		switch result.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded, StatusUnknown:
			if overall != StatusUnhealthy {
				overall = StatusDegraded
			}
		}
	}
	sort.Slice(report.Checks, func(i, j int) bool {
		return report.Checks[i].Name < report.Checks[j].Name
	})

	report.Status = overall
	return report
}

// CheckWithTimeout runs all checks with a timeout
func (r *Registry) CheckWithTimeout(timeout time.Duration) *Report {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.Check(ctx)
}

// Report is the overall result
type Report struct {
	Tool      string        `json:"tool"`
	Version   string        `json:"version"`
	Status    Status        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// String returns a one-line summary
func (r *Report) String() string {
	return fmt.Sprintf("%s %s: %s (%d checks)", r.Tool, r.Version, r.Status, len(r.Checks))
}

// Healthy reports whether no check failed
func (r *Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// selfTest covers heredocs, substitutions and a comment so every lexer
// mode is exercised once
const selfTest = "#!/bin/sh\n# probe\nfor f in *.sh; do\n  cat <<EOF | wc -l\n$(basename \"$f\")\nEOF\ndone\n"

// ParserCheck parses a small script and verifies it is lossless and clean
func ParserCheck(opts parser.Options) Checker {
	return NewChecker("parser", func(ctx context.Context) CheckResult {
		result := CheckResult{
			Name:    "parser",
			Details: map[string]interface{}{"dialect": opts.Version.String()},
		}
		res, err := parser.Parse(ctx, selfTest, opts)
		switch {
		case err != nil:
			result.Status = StatusUnhealthy
			result.Message = err.Error()
		case res.Tree.Reconstruct() != selfTest:
			result.Status = StatusUnhealthy
			result.Message = "round trip lost text"
		case res.ErrorCount() > 0:
			result.Status = StatusDegraded
			result.Message = fmt.Sprintf("%d error nodes in self test", res.ErrorCount())
		default:
			result.Status = StatusHealthy
			result.Message = fmt.Sprintf("%d tokens, lossless", len(res.Tokens))
		}
		return result
	})
}

// ConfigCheck validates the loaded configuration
func ConfigCheck(cfg *config.Config) Checker {
	return NewChecker("config", func(ctx context.Context) CheckResult {
		result := CheckResult{Name: "config", Details: map[string]interface{}{}}
		source := cfg.Source()
		if source == "" {
			source = "defaults"
		}
		result.Details["source"] = source

		if err := cfg.Validate(); err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			return result
		}
		if _, err := cfg.ParserOptions(); err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			return result
		}
		result.Status = StatusHealthy
		result.Message = "loaded from " + source
		return result
	})
}

// WritableCheck verifies that the directory holding path accepts new files.
// An empty path passes with the unset message.
func WritableCheck(name, path, unset string) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		result := CheckResult{Name: name, Details: map[string]interface{}{"path": path}}
		if path == "" {
			result.Status = StatusHealthy
			result.Message = unset
			return result
		}

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			return result
		}
		f, err := os.CreateTemp(dir, ".shcst-probe-*")
		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			return result
		}
		probe := f.Name()
		f.Close()
		os.Remove(probe)

		result.Status = StatusHealthy
		result.Message = dir + " is writable"
		return result
	})
}
