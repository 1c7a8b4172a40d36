// File: position.go
// Title: Line and Column Positions
// Description: Maps byte offsets to 1-based line and column numbers for
//              diagnostics. Columns count bytes, as the lexer does.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-06
// Modified: 2026-10-06
//
// Change History:
// - 2026-10-06 v0.1.0: Initial implementation

package token

import (
	"fmt"
	"sort"
)

// Position is a 1-based line and column
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// LineIndex holds the start offset of every line of a source
type LineIndex struct {
	starts []int
	size   int
}

// NewLineIndex indexes src
func NewLineIndex(src string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, size: len(src)}
}

// Position returns the position of offset, clamped to the source
func (x *LineIndex) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > x.size {
		offset = x.size
	}
	line := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > offset }) - 1
	return Position{Line: line + 1, Column: offset - x.starts[line] + 1}
}

// Offset converts a position back to a byte offset, or -1 if the line
// does not exist
func (x *LineIndex) Offset(p Position) int {
	if p.Line < 1 || p.Line > len(x.starts) || p.Column < 1 {
		return -1
	}
	off := x.starts[p.Line-1] + p.Column - 1
	if off > x.size {
		return -1
	}
	return off
}

// Lines returns the number of lines
func (x *LineIndex) Lines() int {
	return len(x.starts)
}
