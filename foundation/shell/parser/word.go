// File: word.go
// Title: Words, Strings and Expansions
// Description: A word is a run of adjacent parts: literals, quoted strings,
//              parameter, command, process and arithmetic expansions.
//              Parts separated by a line continuation still form one word.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-24
// Modified: 2026-10-08
//
// Change History:
// - 2026-09-24 v0.1.0: Initial implementation
// - 2026-10-08 v0.1.1: Subscript and case-modification gates

package parser

import (
	"strings"

	"github.com/msto63/shcst/foundation/shell/builder"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/token"
)

// word parses one word into a Word node
func (p *parser) word() {
	p.parseWord()
}

func (p *parser) parseWord() *builder.Marker {
	b := p.b
	m := b.Mark()
	p.wordPart()
	for b.Adjacent() && p.atWordPart() {
		p.wordPart()
	}
	m.Done(cst.NodeWord)
	return m
}

// atWordPart reports whether the current token can continue a word
func (p *parser) atWordPart() bool {
	b := p.b
	switch k := b.TokenKind(); {
	case k == token.Backtick:
		return !p.backtick
	case k == token.LeftParen:
		prev := b.Previous().Text
		return prev != "" && strings.ContainsRune("?*+@!", rune(prev[len(prev)-1]))
	default:
		return k.IsWordPart()
	}
}

func (p *parser) wordPart() {
	b := p.b
	switch b.TokenKind() {
	case token.StringBegin:
		p.doubleQuoted()
	case token.DollarBrace, token.DollarParen, token.Backtick, token.DollarDoubleParen,
		token.DollarSquare, token.ProcessSubstIn, token.ProcessSubstOut:
		p.expansion()
	case token.LeftParen:
		p.extglob()
	default:
		b.Advance()
	}
}

// extglob consumes a parenthesized pattern list such as @(a|b) as part of
// the current word
func (p *parser) extglob() {
	b := p.b
	depth := 0
	for !b.EOF() && !b.Is(token.Newline) {
		switch {
		case b.Is(token.LeftParen):
			depth++
			b.Advance()
		case b.Is(token.RightParen):
			depth--
			b.Advance()
			if depth == 0 {
				return
			}
		case b.Is(token.StringBegin, token.DollarBrace, token.DollarParen, token.DollarDoubleParen,
			token.DollarSquare, token.ProcessSubstIn, token.ProcessSubstOut):
			p.wordPart()
		default:
			b.Advance()
		}
	}
}

// nested runs fn inside a construct for which the lexer opened a new frame,
// so backticks open substitutions again
func (p *parser) nested(fn func()) {
	saved := p.backtick
	p.backtick = false
	fn()
	p.backtick = saved
}

// expansion dispatches on the opening token of an expansion
func (p *parser) expansion() {
	b := p.b
	if _, ok := p.enter(); !ok {
		return
	}
	defer b.Leave()

	switch b.TokenKind() {
	case token.DollarBrace:
		p.nested(p.paramExpansion)
	case token.DollarParen:
		p.nested(func() { p.commandSubst(cst.NodeCommandSubst) })
	case token.ProcessSubstIn, token.ProcessSubstOut:
		p.nested(func() { p.commandSubst(cst.NodeProcessSubst) })
	case token.Backtick:
		p.backtickSubst()
	case token.DollarDoubleParen:
		p.nested(func() { p.arithExpansion(token.DoubleRightParen) })
	case token.DollarSquare:
		p.nested(func() { p.arithExpansion(token.RightSquare) })
	default:
		b.ErrorAdvance(unexpected(b.Token()))
	}
}

func (p *parser) doubleQuoted() {
	b := p.b
	m := b.Mark()
	b.Advance()
	p.nested(func() {
		for {
			switch b.TokenKind() {
			case token.StringContent, token.Variable, token.Dollar:
				b.Advance()
			case token.DollarBrace, token.DollarParen, token.Backtick,
				token.DollarDoubleParen, token.DollarSquare:
				p.expansion()
			default:
				return
			}
		}
	})
	b.Expect(token.StringEnd, "expected closing '\"'")
	m.Done(cst.NodeString)
}

func (p *parser) commandSubst(kind cst.NodeKind) {
	b := p.b
	m := b.Mark()
	b.Advance()
	restore := b.PushMode(builder.ModeAssignments)
	p.list(stopAt(token.RightParen))
	restore()
	b.Expect(token.RightParen, "expected ')' to close the substitution")
	m.Done(kind)
}

func (p *parser) backtickSubst() {
	b := p.b
	m := b.Mark()
	b.Advance()
	saved := p.backtick
	p.backtick = true
	restore := b.PushMode(builder.ModeAssignments)
	p.list(stopAt(token.Backtick))
	restore()
	p.backtick = saved
	b.Expect(token.Backtick, "expected closing '`'")
	m.Done(cst.NodeBacktick)
}

func (p *parser) arithExpansion(closer token.Kind) {
	b := p.b
	m := b.Mark()
	b.Advance()
	b.WithMode(builder.ModeArithmetic, func() {
		p.arithUntil(closer)
	})
	if closer == token.DoubleRightParen {
		b.Expect(closer, "expected '))'")
	} else {
		b.Expect(closer, "expected ']'")
	}
	m.Done(cst.NodeArithExpansion)
}

// paramExpansion parses ${...}
func (p *parser) paramExpansion() {
	b := p.b
	m := b.Mark()
	b.Advance()

	if b.Is(token.ParamLength, token.ParamIndirect) {
		b.Advance()
	}
	switch {
	case b.Is(token.ParamName):
		b.Advance()
	case b.Is(token.RightBrace):
		b.Error("expected a parameter name")
	}
	if b.Is(token.LeftSquare) {
		p.paramSubscript()
	}

	for !b.Is(token.RightBrace) && !b.EOF() {
		switch b.TokenKind() {
		case token.ParamCase:
			if !b.Supports(dialect.CaseModification) {
				b.ErrorAdvance(dialect.Unsupported(dialect.CaseModification, b.Version()))
			} else {
				b.Advance()
			}
		case token.StringBegin:
			p.doubleQuoted()
		case token.DollarBrace, token.DollarParen, token.Backtick, token.DollarDoubleParen, token.DollarSquare:
			p.expansion()
		default:
			b.Advance()
		}
	}
	b.Expect(token.RightBrace, "expected '}' to close the parameter expansion")
	m.Done(cst.NodeParamExpansion)
}

// paramSubscript parses [index] after a parameter name. Associative keys
// are not arithmetic, so anything after the expression up to ']' is kept.
func (p *parser) paramSubscript() {
	b := p.b
	m := b.Mark()
	b.Advance()
	b.WithMode(builder.ModeArithmetic, func() {
		if (b.Is(token.Word) && b.TokenText() == "@") || (b.Is(token.ArithOp) && b.TokenText() == "*") {
			if b.Lookahead(1) == token.RightSquare {
				b.Advance()
				return
			}
		}
		p.arithExpression()
		for !b.Is(token.RightSquare) && !b.EOF() {
			switch b.TokenKind() {
			case token.StringBegin, token.DollarBrace, token.DollarParen, token.Backtick,
				token.DollarDoubleParen, token.DollarSquare:
				p.wordPart()
			default:
				b.Advance()
			}
		}
	})
	b.Expect(token.RightSquare, "expected ']'")
	if !b.Supports(dialect.SubscriptExpansion) {
		m.Error(dialect.Unsupported(dialect.SubscriptExpansion, b.Version()))
		return
	}
	m.Done(cst.NodeArrayIndex)
}
