// Package log provides structured logging for shcst.
//
// Package: log
// Title: shcst Structured Logging
// Description: Leveled, field based logging with JSON, text, logfmt and
//              colored console output. Loggers are immutable values: every
//              With* call returns a derived logger. The parser threads a
//              logger through the builder so debug tracing of marker
//              operations is a configuration value instead of a global flag.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging and error integration
// - 2026-10-02 v0.2.0: Parse IDs instead of request/user IDs, lipgloss console output,
//                      removed async buffering
//
// Usage:
//
//	import mdwlog "github.com/msto63/shcst/foundation/core/log"
//
//	logger := mdwlog.New().
//		WithLevel(mdwlog.LevelDebug).
//		WithFormat(mdwlog.FormatText).
//		WithField("component", "shell-parser")
//
//	logger.Debug("Starting shell parse", mdwlog.Fields{"bytes": 1024})
//
//	timer := logger.StartTimer("parse")
//	timer.Checkpoint("lexed")
//	timer.Stop()
package log
