// File: binder.go
// Title: Whitespace and Comment Edge Binders
// Description: Policies deciding how many trivia tokens next to a node edge
//              belong inside the node. The builder hands each binder the run
//              of whitespace/comment tokens at the edge and places the edge
//              at the returned position.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-18
// Modified: 2026-10-04
//
// Change History:
// - 2026-09-18 v0.1.0: Initial implementation
// - 2026-10-04 v0.1.1: Recursive variant, configurable policy

package binder

import (
	"strings"

	"github.com/msto63/shcst/foundation/shell/token"
)

// Binder places a node edge inside a run of trivia tokens.
//
// For a left edge, tokens[pos:] end up inside the node; for a right edge,
// tokens[:pos] end up inside. atStreamEdge is true when the run touches the
// start or the end of the token stream.
type Binder interface {
	EdgePosition(tokens []token.Token, atStreamEdge bool) int
}

// Func adapts a function to the Binder interface
type Func func(tokens []token.Token, atStreamEdge bool) int

// EdgePosition calls f
func (f Func) EdgePosition(tokens []token.Token, atStreamEdge bool) int {
	return f(tokens, atStreamEdge)
}

// RecursiveBinder is implemented by binders allowed to move the edge across
// boundaries of nodes finished earlier
type RecursiveBinder interface {
	Binder
	recursive()
}

type recursiveBinder struct {
	Binder
}

func (recursiveBinder) recursive() {}

// Recursive wraps b so that its edge may re-home already built descendant
// boundaries
func Recursive(b Binder) Binder {
	return recursiveBinder{b}
}

// IsRecursive reports whether b was wrapped with Recursive
func IsRecursive(b Binder) bool {
	_, ok := b.(RecursiveBinder)
	return ok
}

var (
	// DefaultLeft leaves leading trivia outside unless the run starts or
	// ends the stream
	DefaultLeft Binder = Func(func(tokens []token.Token, atStreamEdge bool) int {
		if atStreamEdge {
			return 0
		}
		return len(tokens)
	})

	// DefaultRight leaves trailing trivia outside
	DefaultRight Binder = Func(func(tokens []token.Token, atStreamEdge bool) int {
		return 0
	})

	// ExcludeLeft leaves all leading trivia outside, even at stream edges
	ExcludeLeft Binder = Func(func(tokens []token.Token, atStreamEdge bool) int {
		return len(tokens)
	})

	// IncludeAllLeft pulls the whole leading run inside
	IncludeAllLeft Binder = Func(func(tokens []token.Token, atStreamEdge bool) int {
		return 0
	})

	// IncludeAllRight pulls the whole trailing run inside
	IncludeAllRight Binder = Func(func(tokens []token.Token, atStreamEdge bool) int {
		return len(tokens)
	})

	// TrailingComment pulls same-line blanks and the first comment inside.
	// Without a comment on the line nothing is included.
	TrailingComment Binder = Func(func(tokens []token.Token, atStreamEdge bool) int {
		for i, t := range tokens {
			switch t.Kind {
			case token.Whitespace:
				if strings.ContainsRune(t.Text, '\n') {
					return 0
				}
			case token.Comment:
				return i + 1
			default:
				return 0
			}
		}
		return 0
	})
)

// Clamp limits an edge position to the valid range for a run of n tokens
func Clamp(pos, n int) int {
	if pos < 0 {
		return 0
	}
	if pos > n {
		return n
	}
	return pos
}
