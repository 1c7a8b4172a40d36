// File: build.go
// Title: Tree Materialization
// Description: Turns the production list into a cst.Tree. Node edges are
//              first moved across adjacent trivia by the binders, then the
//              token stream is distributed over the nodes so that every
//              token ends up in exactly one leaf.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-20
// Modified: 2026-10-08
//
// Change History:
// - 2026-09-20 v0.1.0: Initial implementation
// - 2026-10-08 v0.1.1: Recursive binders

package builder

import (
	mdwerror "github.com/msto63/shcst/foundation/core/error"
	mdwlog "github.com/msto63/shcst/foundation/core/log"
	"github.com/msto63/shcst/foundation/shell/binder"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/token"
)

// Build materializes the tree. The first marker opened must be the root
// and the last one finished; no marker may still be open.
func (b *Builder) Build() *cst.Tree {
	if len(b.open) != 0 {
		b.misuse(mdwerror.CodeMarkerImbalance, "builder.Build", "unfinished markers at end of parse")
	}
	n := len(b.productions)
	if n < 2 || b.productions[0].marker != b.productions[n-1].marker {
		b.misuse(mdwerror.CodeMarkerImbalance, "builder.Build", "root marker does not enclose the parse")
	}
	b.fill(int(^uint(0) >> 1))
	count := len(b.tokens) - 1 // without EOF

	b.balance(count)
	b.productions[0].index = 0
	b.productions[n-1].index = count

	tree := &cst.Tree{
		Source:  b.lex.Input(),
		Tokens:  b.leafTokens(count),
		Version: b.version,
	}
	tree.Root = b.materialize(tree.Tokens)
	b.trace("tree built", mdwlog.Fields{"productions": n, "tokens": count})
	return tree
}

func (b *Builder) binderFor(p *production) binder.Binder {
	m := p.marker
	if p.done {
		if m.right != nil {
			return m.right
		}
		return b.policy.Right(m.kind)
	}
	if m.left != nil {
		return m.left
	}
	return b.policy.Left(m.kind)
}

func (b *Builder) balance(count int) {
	last := 0
	run := make([]token.Token, 0, 8)
	for i := 1; i < len(b.productions)-1; i++ {
		p := b.productions[i]
		bnd := b.binderFor(p)
		recursive := binder.IsRecursive(bnd)

		floor := b.productions[i-1].index
		if recursive {
			floor = 0
		}
		wsStart := p.index
		if last > wsStart {
			wsStart = last
		}
		for wsStart > floor && b.kinds[wsStart-1].IsTrivia() {
			wsStart--
		}
		wsEnd := wsStart
		for wsEnd < count && b.kinds[wsEnd].IsTrivia() {
			wsEnd++
		}

		if wsStart != wsEnd {
			run = run[:0]
			for j := wsStart; j < wsEnd; j++ {
				run = append(run, b.at(j))
			}
			edge := wsStart == 0 || wsEnd == count
			p.index = wsStart + binder.Clamp(bnd.EdgePosition(run, edge), len(run))
			if recursive {
				for k := i - 1; k > 0 && b.productions[k].index > p.index; k-- {
					b.productions[k].index = p.index
				}
			}
		} else if p.index < wsStart {
			p.index = wsStart
		}
		if p.done && p.index < p.marker.start.index {
			p.index = p.marker.start.index
		}
		last = p.index
	}
}

func (b *Builder) leafTokens(count int) []token.Token {
	out := make([]token.Token, count)
	for i := 0; i < count; i++ {
		out[i] = b.at(i)
	}
	return out
}

// materialize distributes the tokens over the nodes in production order
func (b *Builder) materialize(tokens []token.Token) *cst.Node {
	srcLen := len(b.lex.Input())
	offset := func(i int) int {
		if i < len(tokens) {
			return tokens[i].Span.Start
		}
		return srcLen
	}

	type open struct {
		node  *cst.Node
		first int
	}
	var stack []open
	next := 0
	var root *cst.Node

	flush := func(to int) {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1].node
		for ; next < to; next++ {
			top.Children = append(top.Children, &cst.Leaf{Token: tokens[next]})
		}
	}

	for _, p := range b.productions {
		flush(p.index)
		if !p.done {
			stack = append(stack, open{node: &cst.Node{Kind: p.marker.kind, Message: p.marker.message}, first: p.index})
			continue
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := top.node
		n.Kind = p.marker.kind
		n.Message = p.marker.message
		start := offset(top.first)
		end := start
		if p.index > top.first {
			end = tokens[p.index-1].Span.End
		}
		n.Range = token.Span{Start: start, End: end}
		if len(stack) == 0 {
			root = n
			continue
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, n)
	}
	return root
}
