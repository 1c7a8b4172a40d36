// File: tree.go
// Title: Concrete Syntax Tree
// Description: Read-only tree produced by the builder. Nodes own their
//              children; parents are derived on demand through a lazily
//              built index held by the Tree, never stored on the nodes.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-16
// Modified: 2026-10-05
//
// Change History:
// - 2026-09-16 v0.1.0: Initial implementation
// - 2026-10-05 v0.1.1: Path, LeafAt and lazy parent index

package cst

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/token"
)

// Element is a child of a node: either a *Node or a *Leaf
type Element interface {
	Span() token.Span
	isElement()
}

// Node is an interior tree node
type Node struct {
	Kind     NodeKind
	Range    token.Span
	Children []Element
	Message  string // set on error nodes
}

// Leaf wraps one token of the stream
type Leaf struct {
	Token token.Token
}

func (*Node) isElement() {}
func (*Leaf) isElement() {}

// Span returns the node's source range
func (n *Node) Span() token.Span { return n.Range }

// Span returns the token's source range
func (l *Leaf) Span() token.Span { return l.Token.Span }

// Kind returns the token kind
func (l *Leaf) Kind() token.Kind { return l.Token.Kind }

// Nodes returns the child nodes, skipping leaves
func (n *Node) Nodes() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if child, ok := c.(*Node); ok {
			out = append(out, child)
		}
	}
	return out
}

// Child returns the first child node of the given kind
func (n *Node) Child(kind NodeKind) *Node {
	for _, c := range n.Children {
		if child, ok := c.(*Node); ok && child.Kind == kind {
			return child
		}
	}
	return nil
}

// Tokens returns all tokens under the node in source order
func (n *Node) Tokens() []token.Token {
	var out []token.Token
	Inspect(n, func(e Element) bool {
		if l, ok := e.(*Leaf); ok {
			out = append(out, l.Token)
		}
		return true
	})
	return out
}

// Significant returns the non-trivia tokens under the node
func (n *Node) Significant() []token.Token {
	var out []token.Token
	for _, t := range n.Tokens() {
		if !t.Kind.IsTrivia() {
			out = append(out, t)
		}
	}
	return out
}

// HasError reports whether the subtree contains an error node
func (n *Node) HasError() bool {
	found := false
	Inspect(n, func(e Element) bool {
		if child, ok := e.(*Node); ok && child.Kind == NodeError {
			found = true
		}
		return !found
	})
	return found
}

// Tree is the result of one parse
type Tree struct {
	Source  string
	Root    *Node
	Tokens  []token.Token
	Version dialect.Version
	ID      string

	parentsOnce sync.Once
	parents     map[Element]*Node
}

// Text returns the exact source text of an element
func (t *Tree) Text(e Element) string {
	s := e.Span()
	return t.Source[s.Start:s.End]
}

// NodeAt returns the deepest node whose range contains offset. Offsets
// outside the source return nil; the end offset maps to the root.
func (t *Tree) NodeAt(offset int) *Node {
	if t.Root == nil || offset < 0 || offset > len(t.Source) {
		return nil
	}
	if offset == len(t.Source) {
		return t.Root
	}
	current := t.Root
	for {
		next := (*Node)(nil)
		for _, c := range current.Children {
			if child, ok := c.(*Node); ok && child.Range.Contains(offset) {
				next = child
				break
			}
		}
		if next == nil {
			return current
		}
		current = next
	}
}

// LeafAt returns the leaf whose token contains offset
func (t *Tree) LeafAt(offset int) *Leaf {
	n := t.NodeAt(offset)
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if l, ok := c.(*Leaf); ok && l.Token.Span.Contains(offset) {
			return l
		}
	}
	return nil
}

// Path returns the ancestor chain from the root to the deepest node at offset
func (t *Tree) Path(offset int) []*Node {
	deepest := t.NodeAt(offset)
	if deepest == nil {
		return nil
	}
	var chain []*Node
	for n := deepest; n != nil; n = t.Parent(n) {
		chain = append(chain, n)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Parent returns the parent of e, or nil for the root. The index is
// computed on first use.
func (t *Tree) Parent(e Element) *Node {
	t.parentsOnce.Do(func() {
		t.parents = make(map[Element]*Node)
		Inspect(t.Root, func(el Element) bool {
			if n, ok := el.(*Node); ok {
				for _, c := range n.Children {
					t.parents[c] = n
				}
			}
			return true
		})
	})
	return t.parents[e]
}

// Find returns all nodes of the given kinds in document order
func (t *Tree) Find(kinds ...NodeKind) []*Node {
	c := NewCollectorVisitor(kinds...)
	Accept(t.Root, c)
	return c.Nodes
}

// Walk calls fn for every element in document order. Returning false from
// fn skips the element's children.
func (t *Tree) Walk(fn func(Element) bool) {
	Inspect(t.Root, fn)
}

// Errors returns all error nodes in document order
func (t *Tree) Errors() []*Node {
	return t.Find(NodeError)
}

// Leaves returns all leaves in document order
func (t *Tree) Leaves() []*Leaf {
	var out []*Leaf
	Inspect(t.Root, func(e Element) bool {
		if l, ok := e.(*Leaf); ok {
			out = append(out, l)
		}
		return true
	})
	return out
}

// Reconstruct concatenates the leaf texts. For every tree produced by the
// builder the result equals Source.
func (t *Tree) Reconstruct() string {
	var sb strings.Builder
	sb.Grow(len(t.Source))
	for _, l := range t.Leaves() {
		sb.WriteString(l.Token.Text)
	}
	return sb.String()
}

// Dump writes an indented kind/text listing of the tree
func (t *Tree) Dump(w io.Writer) error {
	sv := NewStringVisitor()
	Accept(t.Root, sv)
	_, err := io.WriteString(w, sv.String())
	return err
}

// String returns the dump as a string
func (t *Tree) String() string {
	var sb strings.Builder
	_ = t.Dump(&sb)
	return sb.String()
}

// Inspect traverses the subtree rooted at e in document order
func Inspect(e Element, fn func(Element) bool) {
	if e == nil || !fn(e) {
		return
	}
	if n, ok := e.(*Node); ok {
		for _, c := range n.Children {
			Inspect(c, fn)
		}
	}
}

// Describe returns a one-line description of an element
func Describe(e Element) string {
	switch v := e.(type) {
	case *Node:
		if v.Message != "" {
			return fmt.Sprintf("%s %s %q", v.Kind, v.Range, v.Message)
		}
		return fmt.Sprintf("%s %s", v.Kind, v.Range)
	case *Leaf:
		return fmt.Sprintf("%s %q", v.Token.Kind, v.Token.Text)
	}
	return "<nil>"
}
