package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	mdwlog "github.com/msto63/shcst/foundation/core/log"
	"github.com/msto63/shcst/pkg/core/config"
)

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig("shcst")

	if cfg.Name != "shcst" {
		t.Errorf("Name = %v, want shcst", cfg.Name)
	}
	if cfg.Level != "warn" {
		t.Errorf("Level = %v, want warn", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("Format = %v, want console", cfg.Format)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig("shcst", config.LoggingConfig{Level: "debug", File: "/tmp/x.log"}, 2)

	if cfg.Level != "debug" {
		t.Errorf("Level = %v, want debug", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("Format = %v, want console (default)", cfg.Format)
	}
	if cfg.File != "/tmp/x.log" || cfg.Verbosity != 2 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestNewLogger_Verbosity(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		expected  mdwlog.Level
	}{
		{"quiet", 0, mdwlog.LevelWarn},
		{"verbose", 1, mdwlog.LevelInfo},
		{"very verbose", 2, mdwlog.LevelDebug},
		{"trace", 3, mdwlog.LevelTrace},
		{"beyond trace", 7, mdwlog.LevelTrace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLoggerConfig("test")
			cfg.Verbosity = tt.verbosity
			logger, err := NewLogger(cfg)
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			if logger.GetLevel() != tt.expected {
				t.Errorf("level = %v, want %v", logger.GetLevel(), tt.expected)
			}
		})
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	cfg := DefaultLoggerConfig("test")
	cfg.Level = "chatty"
	if _, err := NewLogger(cfg); !mdwerror.HasCode(err, mdwerror.CodeInvalidConfig) {
		t.Errorf("expected CodeInvalidConfig for level, got %v", err)
	}

	cfg = DefaultLoggerConfig("test")
	cfg.Format = "xml"
	if _, err := NewLogger(cfg); !mdwerror.HasCode(err, mdwerror.CodeInvalidConfig) {
		t.Errorf("expected CodeInvalidConfig for format, got %v", err)
	}
}

func TestNewLogger_Outputs(t *testing.T) {
	defer CloseLogFile()

	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "shcst.log")

	cfg := DefaultLoggerConfig("test")
	cfg.Format = "json"
	cfg.File = path
	cfg.AdditionalOutputs = []io.Writer{&buf}

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Warn("parse finished with errors", mdwlog.Fields{"errors": 2})

	if !strings.Contains(buf.String(), "parse finished with errors") {
		t.Errorf("additional output missing entry: %q", buf.String())
	}

	if err := CloseLogFile(); err != nil {
		t.Fatalf("CloseLogFile() error = %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(content), "parse finished with errors") {
		t.Errorf("log file missing entry: %q", content)
	}
}

func TestNewSimpleLogger(t *testing.T) {
	if NewSimpleLogger("test") == nil {
		t.Fatal("NewSimpleLogger() returned nil")
	}
}
