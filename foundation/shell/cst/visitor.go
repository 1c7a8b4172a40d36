// File: visitor.go
// Title: CST Visitor Pattern Implementation
// Description: Visitor interface for traversing CST nodes plus the common
//              visitors used by the tree queries: string dump, kind
//              collector and error collector.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-05
//
// Change History:
// - 2025-01-25 v0.1.0: Initial visitor pattern implementation
// - 2026-09-16 v0.2.0: Reworked for kind-tagged CST nodes

package cst

import (
	"fmt"
	"strings"

	"github.com/msto63/shcst/foundation/shell/token"
)

// Visitor interface for traversing the tree
type Visitor interface {
	// VisitNode is called before the children; returning false skips them
	VisitNode(n *Node) bool
	// LeaveNode is called after the children
	LeaveNode(n *Node)
	VisitLeaf(l *Leaf)
}

// BaseVisitor provides default implementations for all visitor methods.
// Embed this in concrete visitors to only override needed methods.
type BaseVisitor struct{}

func (bv *BaseVisitor) VisitNode(n *Node) bool { return true }
func (bv *BaseVisitor) LeaveNode(n *Node)      {}
func (bv *BaseVisitor) VisitLeaf(l *Leaf)      {}

// Accept drives v over the subtree rooted at e
func Accept(e Element, v Visitor) {
	switch el := e.(type) {
	case *Node:
		if el == nil {
			return
		}
		if v.VisitNode(el) {
			for _, c := range el.Children {
				Accept(c, v)
			}
		}
		v.LeaveNode(el)
	case *Leaf:
		v.VisitLeaf(el)
	}
}

// StringVisitor creates an indented listing of the tree
type StringVisitor struct {
	BaseVisitor
	buffer     strings.Builder
	indent     int
	HideTrivia bool
}

// NewStringVisitor creates a new string visitor
func NewStringVisitor() *StringVisitor {
	return &StringVisitor{}
}

// String returns the accumulated listing
func (sv *StringVisitor) String() string {
	return sv.buffer.String()
}

// Reset clears the visitor for reuse
func (sv *StringVisitor) Reset() {
	sv.buffer.Reset()
	sv.indent = 0
}

func (sv *StringVisitor) writeIndent() {
	sv.buffer.WriteString(strings.Repeat("  ", sv.indent))
}

func (sv *StringVisitor) VisitNode(n *Node) bool {
	sv.writeIndent()
	sv.buffer.WriteString(Describe(n))
	sv.buffer.WriteByte('\n')
	sv.indent++
	return true
}

func (sv *StringVisitor) LeaveNode(n *Node) {
	sv.indent--
}

func (sv *StringVisitor) VisitLeaf(l *Leaf) {
	if sv.HideTrivia && l.Token.Kind.IsTrivia() {
		return
	}
	sv.writeIndent()
	sv.buffer.WriteString(Describe(l))
	sv.buffer.WriteByte('\n')
}

// CollectorVisitor gathers nodes of selected kinds
type CollectorVisitor struct {
	BaseVisitor
	kinds map[NodeKind]bool
	Nodes []*Node
}

// NewCollectorVisitor creates a collector; no kinds collects every node
func NewCollectorVisitor(kinds ...NodeKind) *CollectorVisitor {
	cv := &CollectorVisitor{kinds: make(map[NodeKind]bool, len(kinds))}
	for _, k := range kinds {
		cv.kinds[k] = true
	}
	return cv
}

// Reset clears the collected nodes
func (cv *CollectorVisitor) Reset() {
	cv.Nodes = nil
}

func (cv *CollectorVisitor) VisitNode(n *Node) bool {
	if len(cv.kinds) == 0 || cv.kinds[n.Kind] {
		cv.Nodes = append(cv.Nodes, n)
	}
	return true
}

// Problem is one syntax or lexical issue found in a tree
type Problem struct {
	Span    token.Span
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Span, p.Message)
}

// ValidationVisitor collects error nodes and malformed tokens
type ValidationVisitor struct {
	BaseVisitor
	problems []Problem
}

// NewValidationVisitor creates a new validation visitor
func NewValidationVisitor() *ValidationVisitor {
	return &ValidationVisitor{}
}

// Problems returns the collected problems in document order
func (vv *ValidationVisitor) Problems() []Problem {
	return vv.problems
}

// HasProblems reports whether anything was found
func (vv *ValidationVisitor) HasProblems() bool {
	return len(vv.problems) > 0
}

func (vv *ValidationVisitor) VisitNode(n *Node) bool {
	if n.Kind == NodeError {
		msg := n.Message
		if msg == "" {
			msg = "syntax error"
		}
		vv.problems = append(vv.problems, Problem{Span: n.Range, Message: msg})
	}
	return true
}

func (vv *ValidationVisitor) VisitLeaf(l *Leaf) {
	switch l.Token.Kind {
	case token.BadCharacter:
		vv.problems = append(vv.problems, Problem{Span: l.Token.Span, Message: fmt.Sprintf("unexpected character %q", l.Token.Text)})
	case token.MalformedString:
		vv.problems = append(vv.problems, Problem{Span: l.Token.Span, Message: "unterminated string"})
	}
}

// Validate returns every problem in the subtree rooted at e
func Validate(e Element) []Problem {
	vv := NewValidationVisitor()
	Accept(e, vv)
	return vv.Problems()
}
