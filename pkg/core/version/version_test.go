package version

import (
	"regexp"
	"strings"
	"testing"
)

// semverRegex validates semantic versioning format
var semverRegex = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

func TestVersionConstants(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{"Tool", Tool},
		{"Lexer", Lexer},
		{"Parser", Parser},
		{"Binder", Binder},
		{"Store", Store},
		{"Explore", Explore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !semverRegex.MatchString(tt.version) {
				t.Errorf("%s version %q does not match semver format (x.y.z)", tt.name, tt.version)
			}
		})
	}
}

func TestComponentVersion(t *testing.T) {
	tests := []struct {
		component string
		expected  string
	}{
		{"lexer", Lexer},
		{"parser", Parser},
		{"binder", Binder},
		{"store", Store},
		{"explore", Explore},
		{"unknown", Tool},
		{"", Tool},
	}

	for _, tt := range tests {
		t.Run(tt.component, func(t *testing.T) {
			if got := ComponentVersion(tt.component); got != tt.expected {
				t.Errorf("ComponentVersion(%q) = %q, want %q", tt.component, got, tt.expected)
			}
		})
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Tool {
		t.Errorf("Version = %q, want %q", info.Version, Tool)
	}
	if info.Dialect != "bash4" {
		t.Errorf("Dialect = %q, want bash4", info.Dialect)
	}
	if !strings.HasPrefix(info.String(), "shcst "+Tool) {
		t.Errorf("unexpected summary %q", info.String())
	}
}
