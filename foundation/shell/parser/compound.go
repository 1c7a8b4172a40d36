// File: compound.go
// Title: Compound Commands and Functions
// Description: if, for, select, while, until, case, subshells, groups,
//              arithmetic and conditional commands, function definitions
//              and coprocesses. Reserved words are promoted from plain
//              words only where the grammar expects them.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-23
// Modified: 2026-10-09
//
// Change History:
// - 2026-09-23 v0.1.0: Initial implementation
// - 2026-10-07 v0.1.1: Coprocesses and case fallthrough gated by dialect

package parser

import (
	"github.com/msto63/shcst/foundation/shell/builder"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/token"
)

// finish parses redirections trailing a compound command and closes it
func (p *parser) finish(m *builder.Marker, kind cst.NodeKind) *builder.Marker {
	for p.redirect() {
	}
	m.Done(kind)
	return m
}

func (p *parser) subshell() *builder.Marker {
	b := p.b
	m := b.Mark()
	b.Advance()
	p.compoundList(stopAt(token.RightParen), true)
	b.Expect(token.RightParen, "expected ')' to close the subshell")
	return p.finish(m, cst.NodeSubshell)
}

func (p *parser) group() *builder.Marker {
	b := p.b
	m := b.Mark()
	b.Advance()
	p.compoundList(stopAt(token.RightCurly), true)
	b.Expect(token.RightCurly, "expected '}' to close the group")
	return p.finish(m, cst.NodeGroup)
}

func (p *parser) arithCommand() *builder.Marker {
	b := p.b
	m := b.Mark()
	b.Advance()
	b.WithMode(builder.ModeArithmetic, func() {
		p.arithUntil(token.DoubleRightParen)
	})
	b.Expect(token.DoubleRightParen, "expected '))'")
	return p.finish(m, cst.NodeArithCommand)
}

func (p *parser) ifCommand() *builder.Marker {
	b := p.b
	m := b.Mark()
	b.RemapCurrent(token.KwIf)
	b.Advance()
	p.compoundList(stopAtKeywords(token.KwThen), true)
	if p.expectKeyword(token.KwThen, "expected 'then'") {
		p.compoundList(stopAtKeywords(token.KwElif, token.KwElse, token.KwFi), true)
	}

	for p.reservedWord() == token.KwElif {
		branch := b.Mark()
		b.RemapCurrent(token.KwElif)
		b.Advance()
		p.compoundList(stopAtKeywords(token.KwThen), true)
		if p.expectKeyword(token.KwThen, "expected 'then'") {
			p.compoundList(stopAtKeywords(token.KwElif, token.KwElse, token.KwFi), true)
		}
		branch.Done(cst.NodeElifBranch)
	}

	if p.reservedWord() == token.KwElse {
		branch := b.Mark()
		b.RemapCurrent(token.KwElse)
		b.Advance()
		p.compoundList(stopAtKeywords(token.KwFi), true)
		branch.Done(cst.NodeElseBranch)
	}

	p.expectKeyword(token.KwFi, "expected 'fi'")
	return p.finish(m, cst.NodeIf)
}

// forCommand parses for and select loops, including the arithmetic for
func (p *parser) forCommand(kw token.Kind, kind cst.NodeKind) *builder.Marker {
	b := p.b
	m := b.Mark()
	b.RemapCurrent(kw)
	b.Advance()

	if kw == token.KwFor && b.Is(token.DoubleLeftParen) {
		b.Advance()
		b.WithMode(builder.ModeArithmetic, func() {
			for i := 0; i < 3; i++ {
				p.arithExpression()
				if i < 2 && !b.Expect(token.Semicolon, "expected ';' in arithmetic for") {
					break
				}
			}
			p.arithUntil(token.DoubleRightParen)
		})
		b.Expect(token.DoubleRightParen, "expected '))'")
		if b.Is(token.Semicolon) {
			b.Advance()
		}
		p.linebreak()
		p.loopBody()
		return p.finish(m, cst.NodeForArith)
	}

	if b.TokenKind() == token.Word && isName(b.TokenText()) {
		b.WithMode(builder.ModeNoKeywords, p.word)
	} else {
		b.Error("expected a loop variable name")
	}

	p.linebreak()
	if p.reservedWord() == token.KwIn {
		b.RemapCurrent(token.KwIn)
		b.Advance()
		words := b.Mark()
		for p.atWordStart() {
			p.word()
		}
		words.Done(cst.NodeWordList)
		if b.Is(token.Semicolon) {
			b.Advance()
		} else if !b.Is(token.Newline) {
			b.Error("expected ';' or newline after the word list")
		}
	} else if b.Is(token.Semicolon) {
		b.Advance()
	}
	p.linebreak()
	p.loopBody()
	return p.finish(m, kind)
}

// loopBody parses do ... done, or a brace group as bash accepts for for
func (p *parser) loopBody() {
	b := p.b
	if b.Is(token.LeftCurly) {
		p.group()
		return
	}
	p.doGroup()
}

func (p *parser) doGroup() {
	b := p.b
	m := b.Mark()
	if p.expectKeyword(token.KwDo, "expected 'do'") {
		p.compoundList(stopAtKeywords(token.KwDone), true)
		p.expectKeyword(token.KwDone, "expected 'done'")
	}
	m.Done(cst.NodeDoGroup)
}

func (p *parser) loopCommand(kw token.Kind, kind cst.NodeKind) *builder.Marker {
	b := p.b
	m := b.Mark()
	b.RemapCurrent(kw)
	b.Advance()
	p.compoundList(stopAtKeywords(token.KwDo), true)
	p.doGroup()
	return p.finish(m, kind)
}

func (p *parser) caseCommand() *builder.Marker {
	b := p.b
	m := b.Mark()
	b.RemapCurrent(token.KwCase)
	b.Advance()

	if p.atWordStart() {
		b.WithMode(builder.ModeNoKeywords, p.word)
	} else {
		b.Error("expected a word after 'case'")
	}
	p.linebreak()
	if !p.expectKeyword(token.KwIn, "expected 'in'") {
		return p.finish(m, cst.NodeCase)
	}
	p.linebreak()

	for !b.EOF() && p.reservedWord() != token.KwEsac {
		if !b.Is(token.LeftParen) && !p.atWordStart() {
			b.ErrorAdvance(unexpected(b.Token()))
			p.linebreak()
			continue
		}
		p.caseClause()
		p.linebreak()
	}
	p.expectKeyword(token.KwEsac, "expected 'esac'")
	return p.finish(m, cst.NodeCase)
}

func (p *parser) caseClause() {
	b := p.b
	m := b.Mark()
	if b.Is(token.LeftParen) {
		b.Advance()
	}

	pattern := b.Mark()
	b.WithMode(builder.ModeCasePattern|builder.ModeNoKeywords, func() {
		for {
			if p.atWordStart() {
				p.word()
			} else {
				b.Error("expected a pattern")
			}
			if !b.Is(token.Pipe) {
				break
			}
			b.Advance()
		}
	})
	pattern.Done(cst.NodeCasePattern)

	if b.Expect(token.RightParen, "expected ')' after the pattern") {
		p.compoundList(listStops{
			kinds:    []token.Kind{token.DoubleSemicolon, token.SemiAmp, token.DoubleSemiAmp},
			keywords: []token.Kind{token.KwEsac},
		}, false)
	}

	switch {
	case b.Is(token.DoubleSemicolon):
		b.Advance()
	case b.Is(token.SemiAmp, token.DoubleSemiAmp):
		if !b.Supports(dialect.CaseFallthrough) {
			b.ErrorAdvance(dialect.Unsupported(dialect.CaseFallthrough, b.Version()))
		} else {
			b.Advance()
		}
	}
	m.Done(cst.NodeCaseClause)
}

// functionKeyword parses "function name [()] body"
func (p *parser) functionKeyword() *builder.Marker {
	b := p.b
	m := b.Mark()
	b.RemapCurrent(token.KwFunction)
	b.Advance()
	if p.atWordStart() {
		b.WithMode(builder.ModeNoKeywords, p.word)
	} else {
		b.Error("expected a function name")
	}
	if b.Is(token.LeftParen) && b.Lookahead(1) == token.RightParen {
		b.Advance()
		b.Advance()
	}
	p.functionBody()
	m.Done(cst.NodeFunction)
	return m
}

// functionDefinition parses "name() body"
func (p *parser) functionDefinition() *builder.Marker {
	b := p.b
	m := b.Mark()
	name := b.Mark()
	b.Advance()
	name.Done(cst.NodeWord)
	b.Advance()
	b.Advance()
	p.functionBody()
	m.Done(cst.NodeFunction)
	return m
}

func (p *parser) functionBody() {
	b := p.b
	p.linebreak()
	body := p.command()
	switch {
	case body == nil:
		b.Error("expected a function body")
	case body.Kind() == cst.NodeSimpleCommand || body.Kind() == cst.NodeDeclarationCommand:
		errm := body.Precede()
		errm.Error("function body must be a compound command")
	}
}

// coproc parses "coproc [NAME] command"
func (p *parser) coproc() *builder.Marker {
	b := p.b
	m := b.Mark()
	b.RemapCurrent(token.KwCoproc)
	b.Advance()
	if b.TokenKind() == token.Word && isName(b.TokenText()) && p.keyword() == token.EOF && p.compoundFollows() {
		b.WithMode(builder.ModeNoKeywords, p.word)
	}
	if p.command() == nil {
		b.Error("expected a command after 'coproc'")
	}
	m.Done(cst.NodeCoproc)
	return m
}

// compoundFollows reports whether the token after the current one starts
// a compound command, which makes the current word a coprocess name
func (p *parser) compoundFollows() bool {
	next := p.b.LookaheadToken(1)
	switch next.Kind {
	case token.LeftCurly, token.LeftParen, token.DoubleLeftBracket, token.DoubleLeftParen:
		return true
	case token.Word:
		switch kw, _ := token.LookupKeyword(next.Text); kw {
		case token.KwIf, token.KwFor, token.KwWhile, token.KwUntil, token.KwCase, token.KwSelect:
			return true
		}
	}
	return false
}
