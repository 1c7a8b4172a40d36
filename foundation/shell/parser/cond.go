// File: cond.go
// Title: Conditional Expressions
// Description: The [[ ]] command. Operands are words, the operators are
//              lexed as CondOp inside the conditional frame or recognized
//              from their word text (-f, -eq, ...).
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-26
// Modified: 2026-10-06
//
// Change History:
// - 2026-09-26 v0.1.0: Initial implementation

package parser

import (
	"github.com/msto63/shcst/foundation/shell/builder"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/token"
)

var condUnaryOps = map[string]bool{
	"-a": true, "-b": true, "-c": true, "-d": true, "-e": true, "-f": true,
	"-g": true, "-h": true, "-k": true, "-p": true, "-r": true, "-s": true,
	"-t": true, "-u": true, "-w": true, "-x": true, "-G": true, "-L": true,
	"-N": true, "-O": true, "-S": true, "-z": true, "-n": true, "-o": true,
	"-v": true, "-R": true,
}

var condBinaryWords = map[string]bool{
	"-eq": true, "-ne": true, "-lt": true, "-le": true, "-gt": true,
	"-ge": true, "-nt": true, "-ot": true, "-ef": true,
}

func (p *parser) condCommand() *builder.Marker {
	b := p.b
	m := b.Mark()
	b.Advance()
	b.WithMode(builder.ModeCondition|builder.ModeNoKeywords, func() {
		p.linebreak()
		if p.condOr() == nil {
			b.Error("expected a conditional expression")
		}
		for !b.Is(token.DoubleRightBracket) && !b.EOF() {
			if b.Is(token.Newline) {
				b.Advance()
				continue
			}
			b.ErrorAdvance(unexpected(b.Token()))
		}
	})
	b.Expect(token.DoubleRightBracket, "expected ']]'")
	return p.finish(m, cst.NodeCondCommand)
}

func (p *parser) condOr() *builder.Marker {
	b := p.b
	left := p.condAnd()
	for left != nil && b.Is(token.OrOr) {
		m := left.Precede()
		b.Advance()
		p.linebreak()
		if p.condAnd() == nil {
			b.Error("expected an expression after '||'")
		}
		m.Done(cst.NodeCondLogical)
		left = m
	}
	return left
}

func (p *parser) condAnd() *builder.Marker {
	b := p.b
	left := p.condNot()
	for left != nil && b.Is(token.AndAnd) {
		m := left.Precede()
		b.Advance()
		p.linebreak()
		if p.condNot() == nil {
			b.Error("expected an expression after '&&'")
		}
		m.Done(cst.NodeCondLogical)
		left = m
	}
	return left
}

func (p *parser) condNot() *builder.Marker {
	b := p.b
	if !b.Is(token.Bang) {
		return p.condPrimary()
	}
	if m, ok := p.enter(); !ok {
		return m
	}
	defer b.Leave()
	m := b.Mark()
	b.Advance()
	if p.condNot() == nil {
		b.Error("expected an expression after '!'")
	}
	m.Done(cst.NodeCondUnary)
	return m
}

func (p *parser) condPrimary() *builder.Marker {
	b := p.b
	if b.Is(token.LeftParen) {
		if m, ok := p.enter(); !ok {
			return m
		}
		defer b.Leave()
		m := b.Mark()
		b.Advance()
		p.linebreak()
		if p.condOr() == nil {
			b.Error("expected an expression")
		}
		p.linebreak()
		b.Expect(token.RightParen, "expected ')'")
		m.Done(cst.NodeCondGroup)
		return m
	}

	if !p.atWordStart() {
		return nil
	}

	// -f file, unless the operator word is itself the left operand
	if b.Is(token.Word) && condUnaryOps[b.TokenText()] && !(b.AdjacentAt(1) && b.Lookahead(1).IsWordPart()) &&
		!p.condBinaryAt(1) && p.condOperandAt(1) {
		m := b.Mark()
		p.word()
		p.word()
		m.Done(cst.NodeCondUnary)
		return m
	}

	left := p.parseWord()
	if !p.atCondBinary() {
		return left
	}
	m := left.Precede()
	b.Advance()
	if p.atWordStart() {
		p.word()
	} else {
		b.Error("expected an operand")
	}
	m.Done(cst.NodeCondBinary)
	return m
}

// atCondBinary reports whether the cursor is at a binary test operator
func (p *parser) atCondBinary() bool {
	return p.condBinaryAt(0)
}

func (p *parser) condBinaryAt(k int) bool {
	b := p.b
	tok := b.LookaheadToken(k)
	switch tok.Kind {
	case token.CondOp:
		return true
	case token.Word:
		if !condBinaryWords[tok.Text] {
			return false
		}
		return !(b.AdjacentAt(k+1) && b.Lookahead(k+1).IsWordPart())
	}
	return false
}

func (p *parser) condOperandAt(k int) bool {
	switch kind := p.b.Lookahead(k); kind {
	case token.Bang, token.DoubleRightBracket, token.AndAnd, token.OrOr, token.RightParen, token.EOF:
		return false
	default:
		return kind.IsWordPart() || kind == token.LeftCurly || kind == token.RightCurly
	}
}
