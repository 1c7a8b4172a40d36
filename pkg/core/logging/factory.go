// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     logging
// Description: Factory functions for the command line logger
// Author:      msto63
// Created:     2026-10-03
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	mdwlog "github.com/msto63/shcst/foundation/core/log"
	"github.com/msto63/shcst/pkg/core/config"
)

var (
	// Global log file (singleton), shared by every logger of the process
	globalLogFile   *os.File
	globalLogPath   string
	globalLogFileMu sync.Mutex
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Component name
	Name string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format (json, text, console, logfmt)
	Format string

	// File receives log output in addition to stderr; empty disables it
	File string

	// Verbosity raises the level by one step per count (-v, -vv, -vvv)
	Verbosity int

	// Additional outputs (besides stderr and the log file)
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(name string) LoggerConfig {
	return LoggerConfig{
		Name:   name,
		Level:  "warn",
		Format: "console",
	}
}

// FromConfig derives a logger configuration from the [logging] section
func FromConfig(name string, cfg config.LoggingConfig, verbosity int) LoggerConfig {
	lc := DefaultLoggerConfig(name)
	if cfg.Level != "" {
		lc.Level = cfg.Level
	}
	if cfg.Format != "" {
		lc.Format = cfg.Format
	}
	lc.File = cfg.File
	lc.Verbosity = verbosity
	return lc
}

// NewLogger creates a Foundation logger writing to stderr and the
// optional log file
func NewLogger(cfg LoggerConfig) (*mdwlog.Logger, error) {
	level, err := mdwlog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, mdwerror.Wrap(err, "invalid log level").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("logging.NewLogger").
			WithDetail("level", cfg.Level)
	}
	format, err := mdwlog.ParseFormat(cfg.Format)
	if err != nil {
		return nil, mdwerror.Wrap(err, "invalid log format").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("logging.NewLogger").
			WithDetail("format", cfg.Format)
	}
	level = raise(level, cfg.Verbosity)

	var output io.Writer = os.Stderr
	if cfg.File != "" {
		f, err := openLogFile(cfg.File)
		if err != nil {
			return nil, err
		}
		output = io.MultiWriter(output, f)
	}

	if len(cfg.AdditionalOutputs) > 0 {
		writers := append([]io.Writer{output}, cfg.AdditionalOutputs...)
		output = io.MultiWriter(writers...)
	}

	return mdwlog.NewWithConfig(mdwlog.Config{
		Level:  level,
		Format: format,
		Output: output,
		Name:   cfg.Name,
	}), nil
}

// NewSimpleLogger creates a console logger at warn level, used before the
// configuration is known
func NewSimpleLogger(name string) *mdwlog.Logger {
	logger, err := NewLogger(DefaultLoggerConfig(name))
	if err != nil {
		return mdwlog.Discard()
	}
	return logger
}

// openLogFile returns the global log file, opening it on first use
func openLogFile(path string) (*os.File, error) {
	globalLogFileMu.Lock()
	defer globalLogFileMu.Unlock()

	if globalLogFile != nil && globalLogPath == path {
		return globalLogFile, nil
	}
	if globalLogFile != nil {
		globalLogFile.Close()
		globalLogFile = nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, mdwerror.Wrap(err, "failed to create log directory").
			WithCode(mdwerror.CodeIOError).
			WithOperation("logging.openLogFile").
			WithDetail("path", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to open log file").
			WithCode(mdwerror.CodeIOError).
			WithOperation("logging.openLogFile").
			WithDetail("path", path)
	}
	globalLogFile = f
	globalLogPath = path
	return f, nil
}

// CloseLogFile closes the global log file
func CloseLogFile() error {
	globalLogFileMu.Lock()
	defer globalLogFileMu.Unlock()

	if globalLogFile != nil {
		err := globalLogFile.Close()
		globalLogFile = nil
		globalLogPath = ""
		return err
	}
	return nil
}

// raise lowers the minimum level by steps, stopping at trace
func raise(level mdwlog.Level, steps int) mdwlog.Level {
	for ; steps > 0 && level > mdwlog.LevelTrace; steps-- {
		level--
	}
	return level
}
