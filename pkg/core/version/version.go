// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     version
// Description: Central version management for the tool and its components
// Author:      msto63
// Created:     2026-10-03
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"

	"github.com/msto63/shcst/foundation/shell/dialect"
)

// Version constants for the shcst components
const (
	// Tool version
	Tool = "0.4.0"

	// Component versions
	Lexer   = "0.4.0"
	Parser  = "0.4.0"
	Binder  = "0.2.0"
	Store   = "0.1.0"
	Explore = "0.1.0"
)

// Build metadata, set via -ldflags at release time
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "lexer":
		return Lexer
	case "parser":
		return Parser
	case "binder":
		return Binder
	case "store":
		return Store
	case "explore":
		return Explore
	default:
		return Tool
	}
}

// Info describes the running build
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Dialect   string `json:"default_dialect"`
}

// Get returns the build information
func Get() Info {
	return Info{
		Version:   Tool,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Dialect:   dialect.Default.String(),
	}
}

// String returns a one-line summary
func (i Info) String() string {
	return fmt.Sprintf("shcst %s (commit %s, built %s, %s %s, default dialect %s)",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform, i.Dialect)
}
