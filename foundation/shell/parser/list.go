// File: list.go
// Title: Lists, Pipelines and Heredoc Bodies
// Description: Compound lists, and-or lists and pipelines. Heredoc bodies
//              are parsed right after the newline that ends the line they
//              were announced on, oldest operator first.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-21
// Modified: 2026-10-09
//
// Change History:
// - 2026-09-21 v0.1.0: Initial implementation
// - 2026-10-09 v0.1.1: Heredoc-owning items wrapped in ComposedCommand

package parser

import (
	"fmt"

	"github.com/msto63/shcst/foundation/shell/builder"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/token"
)

// parser holds the grammar state of one parse
type parser struct {
	b *builder.Builder

	// backtick is set while the innermost list is delimited by backticks,
	// where a backtick closes instead of opening a substitution
	backtick bool
}

// listStops describes where a list ends: at one of the token kinds or at
// one of the reserved words in command position
type listStops struct {
	kinds    []token.Kind
	keywords []token.Kind
}

func stopAt(kinds ...token.Kind) listStops {
	return listStops{kinds: kinds}
}

func stopAtKeywords(keywords ...token.Kind) listStops {
	return listStops{keywords: keywords}
}

func (p *parser) atListEnd(s listStops) bool {
	b := p.b
	if b.EOF() {
		return true
	}
	if b.Is(s.kinds...) {
		return true
	}
	if len(s.keywords) == 0 {
		return false
	}
	kw := p.keyword()
	for _, k := range s.keywords {
		if kw == k {
			return true
		}
	}
	return false
}

// compoundList parses a list into its own node. required reports an
// empty list as an error.
func (p *parser) compoundList(s listStops, required bool) {
	b := p.b
	m := b.Mark()
	if n := p.list(s); n == 0 && required {
		b.Error("expected a command")
	}
	m.Done(cst.NodeCompoundList)
}

// list parses items separated by ';', '&' or newlines into the current
// node and returns the number of items
func (p *parser) list(s listStops) int {
	b := p.b
	items := 0
	p.linebreak()
	for !p.atListEnd(s) {
		item := p.andOr()
		if item == nil {
			b.ErrorAdvance(unexpected(b.Token()))
			p.linebreak()
			continue
		}
		items++

		switch {
		case b.Is(token.Semicolon, token.Amp):
			b.Advance()
		case b.Is(token.Newline), p.atListEnd(s):
		default:
			b.ErrorAdvance(unexpected(b.Token()))
		}

		if b.PendingHeredocs() > 0 && b.Is(token.Newline) {
			composed := item.Precede()
			p.newline()
			composed.Done(cst.NodeComposedCommand)
		}
		p.linebreak()
	}
	return items
}

// linebreak consumes newlines, parsing pending heredoc bodies after each
func (p *parser) linebreak() {
	for p.b.Is(token.Newline) {
		p.newline()
	}
}

func (p *parser) newline() {
	b := p.b
	b.Advance()
	for b.PendingHeredocs() > 0 {
		h, _ := b.PopHeredoc()
		p.heredocBody(h)
		if b.PendingHeredocs() > 0 && b.Is(token.Newline) {
			b.Advance()
		}
	}
}

// heredocBody parses one body up to and including its terminator line
func (p *parser) heredocBody(h builder.PendingHeredoc) {
	b := p.b
	m := b.Mark()
	p.heredocContent()
	if b.Is(token.HeredocEnd) {
		b.Advance()
	} else {
		b.Error(fmt.Sprintf("unterminated here-document, expected %q", h.Marker))
	}
	m.Done(cst.NodeHeredoc)
}

func (p *parser) heredocContent() {
	b := p.b
	for {
		switch b.TokenKind() {
		case token.HeredocContent, token.Variable, token.Dollar:
			b.Advance()
		case token.DollarBrace, token.DollarParen, token.Backtick,
			token.DollarDoubleParen, token.DollarSquare:
			p.expansion()
		default:
			return
		}
	}
}

func (p *parser) andOr() *builder.Marker {
	b := p.b
	left := p.pipeline()
	if left == nil {
		return nil
	}
	for b.Is(token.AndAnd, token.OrOr) {
		m := left.Precede()
		op := b.TokenText()
		b.Advance()
		p.linebreak()
		if p.pipeline() == nil {
			b.Error(fmt.Sprintf("expected a command after %q", op))
		}
		m.Done(cst.NodeLogicalList)
		left = m
	}
	return left
}

func (p *parser) pipeline() *builder.Marker {
	b := p.b
	m := b.Mark()
	prefixed := false
	for {
		if p.keyword() == token.KwTime {
			b.RemapCurrent(token.KwTime)
			b.Advance()
			if b.TokenKind() == token.Word && b.TokenText() == "-p" {
				b.Advance()
			}
			prefixed = true
			continue
		}
		if b.Is(token.Bang) {
			b.Advance()
			prefixed = true
			continue
		}
		break
	}

	cmd := p.command()
	if cmd == nil {
		if !prefixed {
			m.Drop()
			return nil
		}
		b.Error("expected a command")
		m.Done(cst.NodePipeline)
		return m
	}

	piped := false
	for b.Is(token.Pipe, token.PipeAmp) {
		if b.Is(token.PipeAmp) && !b.Supports(dialect.PipeStderr) {
			b.ErrorAdvance(dialect.Unsupported(dialect.PipeStderr, b.Version()))
		} else {
			b.Advance()
		}
		p.linebreak()
		if p.command() == nil {
			b.Error("expected a command after '|'")
		}
		piped = true
	}

	if !piped && !prefixed {
		m.Drop()
		return cmd
	}
	m.Done(cst.NodePipeline)
	return m
}

func unexpected(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "unexpected end of input"
	}
	if tok.Kind == token.Newline {
		return "unexpected newline"
	}
	return fmt.Sprintf("unexpected %q", tok.Text)
}
