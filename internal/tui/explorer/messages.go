// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     explorer
// Description: Message types for async operations in the tree explorer
// Author:      msto63
// Created:     2026-10-10
// License:     MIT
// ============================================================================

package explorer

import (
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/parser"
)

// parsedMsg is sent when a (re)parse has finished
type parsedMsg struct {
	result  *parser.Result
	version dialect.Version
	err     error
}
