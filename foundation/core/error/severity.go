// File: severity.go
// Title: Error Severity Levels
// Description: Severity levels used to pick log levels and CLI behavior.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-02 v0.2.0: Code based defaults for parser codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a problem the caller can usually ignore
	SeverityLow Severity = iota

	// SeverityMedium indicates a failed operation with a usable fallback
	SeverityMedium

	// SeverityHigh indicates a failed operation without fallback
	SeverityHigh

	// SeverityCritical indicates a defect that makes results untrustworthy
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should be surfaced loudly
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode returns the default severity for an error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeMarkerImbalance, CodeBuilderMisuse, CodeRoundTrip:
		return SeverityCritical
	case CodeInternal, CodeStoreError, CodeCrosscheckMismatch:
		return SeverityHigh
	case CodeCancelled, CodeInvalidInput, CodeNotFound:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
