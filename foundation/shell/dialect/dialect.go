// File: dialect.go
// Title: Shell Language Versions
// Description: Language version selector fixed for a whole parse and the
//              feature gates derived from it.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-14
// Modified: 2026-09-29
//
// Change History:
// - 2026-09-14 v0.1.0: Initial implementation with V3 and V4
// - 2026-09-29 v0.1.1: Feature table, ParseVersion

package dialect

import (
	"fmt"
	"strings"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
)

// Version selects the shell dialect
type Version int

const (
	// V3 is the bash-3 family without associative arrays or coprocesses
	V3 Version = 3
	// V4 adds associative arrays, case fallthrough, |& and friends
	V4 Version = 4
)

// Default is the version used when none is configured
const Default = V4

// String returns the display name of the version
func (v Version) String() string {
	switch v {
	case V3:
		return "bash3"
	case V4:
		return "bash4"
	default:
		return fmt.Sprintf("Version(%d)", int(v))
	}
}

// IsValid reports whether v is a known version
func (v Version) IsValid() bool {
	return v == V3 || v == V4
}

// AtLeast reports whether v is the same as or newer than other
func (v Version) AtLeast(other Version) bool {
	return v >= other
}

// Supports reports whether the feature is available in v
func (v Version) Supports(f Feature) bool {
	return v.AtLeast(f.Since())
}

// ParseVersion converts user input such as "4", "v4" or "bash4"
func ParseVersion(s string) (Version, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "3", "v3", "bash3":
		return V3, nil
	case "4", "v4", "bash4", "":
		return V4, nil
	}
	return Default, mdwerror.Newf("unknown dialect %q", s).
		WithCode(mdwerror.CodeInvalidInput).
		WithOperation("dialect.ParseVersion").
		WithDetail("input", s)
}

// Feature is a construct that only some versions accept
type Feature int

const (
	AssocArrays Feature = iota
	SubscriptExpansion
	CaseFallthrough
	PipeStderr
	AppendBoth
	Coprocess
	CaseModification
)

var featureInfo = map[Feature]struct {
	name  string
	since Version
}{
	AssocArrays:        {"associative arrays", V4},
	SubscriptExpansion: {"subscripted parameter expansion", V4},
	CaseFallthrough:    {"case fallthrough terminators", V4},
	PipeStderr:         {"|& pipes", V4},
	AppendBoth:         {"&>> redirection", V4},
	Coprocess:          {"coprocesses", V4},
	CaseModification:   {"case modification operators", V4},
}

// Since returns the first version supporting the feature
func (f Feature) Since() Version {
	if info, ok := featureInfo[f]; ok {
		return info.since
	}
	return V3
}

// String returns the feature name
func (f Feature) String() string {
	if info, ok := featureInfo[f]; ok {
		return info.name
	}
	return fmt.Sprintf("Feature(%d)", int(f))
}

// Unsupported returns the error message used for a gated construct
func Unsupported(f Feature, v Version) string {
	return fmt.Sprintf("%s require %s, parsing as %s", f, f.Since(), v)
}
