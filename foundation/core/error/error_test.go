package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New("marker closed twice")

	if err.Error() != "marker closed twice" {
		t.Errorf("Expected message 'marker closed twice', got %s", err.Error())
	}
	if err.Code() != CodeUnknown {
		t.Errorf("Expected code %s, got %s", CodeUnknown, err.Code())
	}
	if err.Severity() != SeverityMedium {
		t.Errorf("Expected severity medium, got %s", err.Severity())
	}
	if err.Timestamp().IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestWithCodeSetsDefaultSeverity(t *testing.T) {
	tests := []struct {
		code     Code
		severity Severity
	}{
		{CodeMarkerImbalance, SeverityCritical},
		{CodeBuilderMisuse, SeverityCritical},
		{CodeStoreError, SeverityHigh},
		{CodeCancelled, SeverityLow},
		{CodeConfigError, SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			err := New("x").WithCode(tt.code)
			if err.Severity() != tt.severity {
				t.Errorf("Expected severity %s, got %s", tt.severity, err.Severity())
			}
		})
	}
}

func TestWrapInheritsMetadata(t *testing.T) {
	inner := New("read failed").
		WithCode(CodeIOError).
		WithDetail("path", "deploy.sh")
	outer := Wrap(inner, "check failed")

	if outer.Code() != CodeIOError {
		t.Errorf("Expected code %s, got %s", CodeIOError, outer.Code())
	}
	if v, ok := outer.Detail("path"); !ok || v != "deploy.sh" {
		t.Errorf("Expected inherited detail path=deploy.sh, got %v", v)
	}
	if !errors.Is(outer, inner) {
		t.Error("Expected errors.Is to find the wrapped error")
	}
	if outer.Error() != "check failed: read failed" {
		t.Errorf("Unexpected message: %s", outer.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "nothing") != nil {
		t.Error("Expected Wrap(nil) to return nil")
	}
}

func TestHasCodeThroughStandardWrapping(t *testing.T) {
	base := New("cancelled").WithCode(CodeCancelled)
	wrapped := fmt.Errorf("parse deploy.sh: %w", base)

	if !HasCode(wrapped, CodeCancelled) {
		t.Error("Expected HasCode to see through fmt.Errorf wrapping")
	}
	if HasCode(wrapped, CodeIOError) {
		t.Error("Did not expect CodeIOError")
	}
	if GetCode(wrapped) != CodeCancelled {
		t.Errorf("Expected GetCode %s, got %s", CodeCancelled, GetCode(wrapped))
	}
	if GetCode(errors.New("plain")) != CodeUnknown {
		t.Error("Expected CodeUnknown for plain errors")
	}
}

func TestRootCause(t *testing.T) {
	root := errors.New("disk full")
	err := Wrap(Wrap(root, "write row"), "record run")

	if err.RootCause() != root {
		t.Errorf("Expected root cause %v, got %v", root, err.RootCause())
	}
}

func TestStringAndJSON(t *testing.T) {
	err := New("unbalanced").
		WithCode(CodeMarkerImbalance).
		WithOperation("builder.Done").
		WithDetail("open", 2)

	s := err.String()
	for _, want := range []string{"Code: MARKER_IMBALANCE", "Operation: builder.Done", "open=2"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected String() to contain %q, got %s", want, s)
		}
	}

	data, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatalf("Unexpected marshal error: %v", jerr)
	}
	var decoded map[string]interface{}
	if jerr := json.Unmarshal(data, &decoded); jerr != nil {
		t.Fatalf("Unexpected unmarshal error: %v", jerr)
	}
	if decoded["code"] != "MARKER_IMBALANCE" {
		t.Errorf("Expected code in JSON, got %v", decoded["code"])
	}
	if decoded["severity"] != "critical" {
		t.Errorf("Expected severity critical, got %v", decoded["severity"])
	}
}

func TestCodeHelpers(t *testing.T) {
	tests := []struct {
		code     Code
		valid    bool
		category string
		exit     int
	}{
		{CodeMarkerImbalance, true, "parser", 1},
		{CodeRoundTrip, true, "verification", 4},
		{CodeInvalidConfig, true, "configuration", 3},
		{CodeCancelled, true, "generic", 5},
		{CodeInvalidInput, true, "generic", 2},
		{Code("NOPE"), false, "generic", 1},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			if tt.code.IsValid() != tt.valid {
				t.Errorf("Expected IsValid %v", tt.valid)
			}
			if tt.code.Category() != tt.category {
				t.Errorf("Expected category %s, got %s", tt.category, tt.code.Category())
			}
			if tt.code.ExitCode() != tt.exit {
				t.Errorf("Expected exit code %d, got %d", tt.exit, tt.code.ExitCode())
			}
		})
	}
}
