// File: timer.go
// Title: Performance Timer
// Description: Measures an operation and logs its duration, with named
//              checkpoints for multi-phase work such as lex, parse, build.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-02 v0.2.0: Checkpoints recorded as phase durations

package log

import (
	"time"
)

// Timer measures the duration of one operation
type Timer struct {
	logger      *Logger
	operation   string
	level       Level
	fields      Fields
	start       time.Time
	last        time.Time
	checkpoints []Checkpoint
	stopped     bool
}

// Checkpoint is a named phase boundary inside a timed operation
type Checkpoint struct {
	Name    string
	Elapsed time.Duration
	Phase   time.Duration
}

// NewTimer starts a timer that logs at debug level
func NewTimer(logger *Logger, operation string) *Timer {
	now := time.Now()
	return &Timer{
		logger:    logger,
		operation: operation,
		level:     LevelDebug,
		fields:    make(Fields),
		start:     now,
		last:      now,
	}
}

// WithLevel sets the level used when the timer stops
func (t *Timer) WithLevel(level Level) *Timer {
	t.level = level
	return t
}

// WithField adds a field to the completion entry
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Elapsed returns the time since the timer started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Checkpoint records the end of a phase
func (t *Timer) Checkpoint(name string) Checkpoint {
	now := time.Now()
	cp := Checkpoint{Name: name, Elapsed: now.Sub(t.start), Phase: now.Sub(t.last)}
	t.last = now
	t.checkpoints = append(t.checkpoints, cp)
	return cp
}

// Checkpoints returns the recorded checkpoints
func (t *Timer) Checkpoints() []Checkpoint {
	return t.checkpoints
}

// Stop stops the timer and logs the elapsed time; a second call returns 0
func (t *Timer) Stop() time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true
	elapsed := t.Elapsed()
	if t.logger != nil {
		t.logger.write(t.level, t.operation+" completed", nil, elapsed, t.completionFields())
	}
	return elapsed
}

// StopWithError stops the timer and logs err at error level
func (t *Timer) StopWithError(err error) time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true
	elapsed := t.Elapsed()
	if t.logger != nil {
		fields := t.completionFields()
		fields["success"] = false
		t.logger.write(LevelError, t.operation+" failed", err, elapsed, fields)
	}
	return elapsed
}

func (t *Timer) completionFields() Fields {
	fields := t.fields.Merge(Fields{"operation": t.operation})
	for _, cp := range t.checkpoints {
		fields["phase_"+cp.Name+"_ms"] = float64(cp.Phase.Nanoseconds()) / 1e6
	}
	return fields
}
