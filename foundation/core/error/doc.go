// Package error provides structured errors for the shcst tool chain.
//
// Package: error
// Title: shcst Error Handling
// Description: Structured errors carrying a code, a severity, the failing
//              operation and free-form details. Parse problems found in the
//              input are never reported through this package; they live in
//              the syntax tree as error nodes. This package covers the
//              remaining failures: builder defects, cancellation, I/O,
//              configuration and tooling errors.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-02 v0.2.0: Parser codes, errors.As based lookups, trimmed metadata
//
// Usage:
//
//	import mdwerror "github.com/msto63/shcst/foundation/core/error"
//
//	err := mdwerror.New("marker closed out of order").
//		WithCode(mdwerror.CodeMarkerImbalance).
//		WithOperation("builder.Done").
//		WithDetail("marker", 12)
//
//	if mdwerror.HasCode(err, mdwerror.CodeMarkerImbalance) {
//		// grammar defect
//	}
package error
