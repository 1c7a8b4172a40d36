package dialect

import (
	"strings"
	"testing"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected Version
		wantErr  bool
	}{
		{"3", V3, false},
		{"bash3", V3, false},
		{"V4", V4, false},
		{"", V4, false},
		{"5", Default, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if v != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, v)
			}
			if err != nil && !mdwerror.HasCode(err, mdwerror.CodeInvalidInput) {
				t.Errorf("Expected CodeInvalidInput, got %v", err)
			}
		})
	}
}

func TestSupports(t *testing.T) {
	features := []Feature{AssocArrays, SubscriptExpansion, CaseFallthrough, PipeStderr, AppendBoth, Coprocess, CaseModification}
	for _, f := range features {
		if V3.Supports(f) {
			t.Errorf("Expected %s to be unsupported in %s", f, V3)
		}
		if !V4.Supports(f) {
			t.Errorf("Expected %s to be supported in %s", f, V4)
		}
	}
}

func TestUnsupportedMessage(t *testing.T) {
	msg := Unsupported(AssocArrays, V3)
	if !strings.Contains(msg, "associative arrays") || !strings.Contains(msg, "bash4") {
		t.Errorf("Unexpected message: %s", msg)
	}
}
