// File: codes.go
// Title: Error Code Definitions
// Description: Standardized error codes used across the parser core, the
//              CLI and the supporting tooling.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-02 v0.2.0: Replaced service codes with parser and tooling codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeTimeout      Code = "TIMEOUT"
	CodeCancelled    Code = "CANCELLED"

	// Parser core. These signal defects in the grammar, never bad input.
	CodeMarkerImbalance Code = "MARKER_IMBALANCE"
	CodeBuilderMisuse   Code = "BUILDER_MISUSE"
	CodeUnsupportedRoot Code = "UNSUPPORTED_ROOT"

	// Tree verification
	CodeRoundTrip          Code = "ROUND_TRIP"
	CodeCrosscheckMismatch Code = "CROSSCHECK_MISMATCH"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeInvalidConfig Code = "INVALID_CONFIG"
	CodeMissingConfig Code = "MISSING_CONFIG"

	// Tooling
	CodeIOError    Code = "IO_ERROR"
	CodeStoreError Code = "STORE_ERROR"
	CodeWatchError Code = "WATCH_ERROR"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeInvalidInput, CodeNotFound, CodeTimeout, CodeCancelled,
		CodeMarkerImbalance, CodeBuilderMisuse, CodeUnsupportedRoot,
		CodeRoundTrip, CodeCrosscheckMismatch,
		CodeConfigError, CodeInvalidConfig, CodeMissingConfig,
		CodeIOError, CodeStoreError, CodeWatchError:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeMarkerImbalance, CodeBuilderMisuse, CodeUnsupportedRoot:
		return "parser"
	case CodeRoundTrip, CodeCrosscheckMismatch:
		return "verification"
	case CodeConfigError, CodeInvalidConfig, CodeMissingConfig:
		return "configuration"
	case CodeIOError, CodeStoreError, CodeWatchError:
		return "tooling"
	default:
		return "generic"
	}
}

// ExitCode maps an error code to a process exit status for the CLI
func (c Code) ExitCode() int {
	switch c {
	case CodeInvalidInput, CodeNotFound, CodeUnsupportedRoot:
		return 2
	case CodeConfigError, CodeInvalidConfig, CodeMissingConfig:
		return 3
	case CodeRoundTrip, CodeCrosscheckMismatch:
		return 4
	case CodeCancelled, CodeTimeout:
		return 5
	default:
		return 1
	}
}
