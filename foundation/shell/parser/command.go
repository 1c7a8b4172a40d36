// File: command.go
// Title: Simple Commands, Assignments and Redirections
// Description: Command dispatch, simple and declaration commands,
//              speculative assignment parsing, array literals and
//              redirections including heredoc operators and here-strings.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-22
// Modified: 2026-10-09
//
// Change History:
// - 2026-09-22 v0.1.0: Initial implementation
// - 2026-10-06 v0.1.1: Declaration commands and associative arrays

package parser

import (
	"strings"

	"github.com/msto63/shcst/foundation/shell/builder"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/token"
)

var declarationCommands = map[string]bool{
	"declare":  true,
	"typeset":  true,
	"local":    true,
	"export":   true,
	"readonly": true,
}

// keyword returns the reserved word at the cursor, or EOF when the current
// token is not a standalone reserved word or keywords are disabled
func (p *parser) keyword() token.Kind {
	b := p.b
	if b.HasMode(builder.ModeNoKeywords) || b.HasMode(builder.ModeCasePattern) {
		return token.EOF
	}
	return p.reservedWord()
}

// reservedWord ignores the parse mode
func (p *parser) reservedWord() token.Kind {
	b := p.b
	k := b.TokenKind()
	if k.IsKeyword() {
		return k
	}
	if k != token.Word {
		return token.EOF
	}
	kw, ok := token.LookupKeyword(b.TokenText())
	if !ok {
		return token.EOF
	}
	if b.AdjacentAt(1) && b.Lookahead(1).IsWordPart() {
		return token.EOF
	}
	return kw
}

// expectKeyword consumes the reserved word kw or emits an error
func (p *parser) expectKeyword(kw token.Kind, msg string) bool {
	b := p.b
	if p.reservedWord() != kw {
		b.Error(msg)
		return false
	}
	b.RemapCurrent(kw)
	b.Advance()
	return true
}

// enter guards recursion. When the depth limit is hit the current token
// becomes an error node, which is returned with false; the caller must
// not call Leave in that case.
func (p *parser) enter() (*builder.Marker, bool) {
	b := p.b
	if b.Enter() {
		return nil, true
	}
	b.Leave()
	m := b.Mark()
	b.Advance()
	m.Error("maximum nesting depth exceeded")
	return m, false
}

// command parses one command and returns its finished marker, or nil
// without consuming anything when no command starts here
func (p *parser) command() *builder.Marker {
	b := p.b
	if !p.startsCommand() && !b.Is(token.LeftParen, token.LeftCurly, token.DoubleLeftParen, token.DoubleLeftBracket) {
		return nil
	}
	if m, ok := p.enter(); !ok {
		return m
	}
	defer b.Leave()

	switch b.TokenKind() {
	case token.LeftParen:
		return p.subshell()
	case token.LeftCurly:
		return p.group()
	case token.DoubleLeftParen:
		return p.arithCommand()
	case token.DoubleLeftBracket:
		return p.condCommand()
	}

	switch p.keyword() {
	case token.KwIf:
		return p.ifCommand()
	case token.KwFor:
		return p.forCommand(token.KwFor, cst.NodeFor)
	case token.KwSelect:
		return p.forCommand(token.KwSelect, cst.NodeSelect)
	case token.KwWhile:
		return p.loopCommand(token.KwWhile, cst.NodeWhile)
	case token.KwUntil:
		return p.loopCommand(token.KwUntil, cst.NodeUntil)
	case token.KwCase:
		return p.caseCommand()
	case token.KwFunction:
		return p.functionKeyword()
	case token.KwCoproc:
		if b.Supports(dialect.Coprocess) {
			return p.coproc()
		}
	case token.KwThen, token.KwElse, token.KwElif, token.KwFi,
		token.KwDo, token.KwDone, token.KwEsac:
		return nil
	}

	if b.TokenKind() == token.Word && b.Lookahead(1) == token.LeftParen && b.Lookahead(2) == token.RightParen {
		return p.functionDefinition()
	}

	if p.startsCommand() {
		return p.simpleCommand()
	}
	return nil
}

func (p *parser) startsCommand() bool {
	k := p.b.TokenKind()
	if k == token.Backtick {
		return !p.backtick
	}
	return k.IsWordPart() || k.IsRedirect()
}

// atWordStart reports whether the current token may start a word in
// argument position
func (p *parser) atWordStart() bool {
	b := p.b
	k := b.TokenKind()
	switch k {
	case token.Backtick:
		return !p.backtick
	case token.LeftCurly, token.RightCurly:
		return true
	case token.Bang:
		return !b.HasMode(builder.ModeCondition)
	}
	return k.IsWordPart()
}

func (p *parser) simpleCommand() *builder.Marker {
	b := p.b
	m := b.Mark()

	for {
		if p.redirect() {
			continue
		}
		if b.HasMode(builder.ModeAssignments) && p.assignment(false) {
			continue
		}
		break
	}

	kind := cst.NodeSimpleCommand
	if p.atWordStart() {
		if b.TokenKind() == token.Word && declarationCommands[b.TokenText()] &&
			!(b.AdjacentAt(1) && b.Lookahead(1).IsWordPart()) {
			kind = cst.NodeDeclarationCommand
			p.word()
			p.declarationArguments()
		} else {
			p.word()
			p.arguments()
		}
	}
	m.Done(kind)
	return m
}

func (p *parser) arguments() {
	for {
		if p.redirect() {
			continue
		}
		if p.atWordStart() {
			p.word()
			continue
		}
		return
	}
}

// declarationArguments parses options, assignments and names after
// declare, typeset, local, export or readonly
func (p *parser) declarationArguments() {
	b := p.b
	assoc := false
	for {
		if p.redirect() {
			continue
		}
		if !p.atWordStart() {
			return
		}
		if opt, ok := p.option(); ok {
			if strings.HasPrefix(opt, "-") && strings.Contains(opt[1:], "A") {
				if !b.Supports(dialect.AssocArrays) {
					m := b.Mark()
					p.word()
					m.Error(dialect.Unsupported(dialect.AssocArrays, b.Version()))
					continue
				}
				assoc = true
			}
			p.word()
			continue
		}
		if p.assignment(assoc) {
			continue
		}
		p.word()
	}
}

// option returns the text of a standalone "-x" or "+x" word
func (p *parser) option() (string, bool) {
	b := p.b
	if b.TokenKind() != token.Word {
		return "", false
	}
	text := b.TokenText()
	if len(text) < 2 || (text[0] != '-' && text[0] != '+') {
		return "", false
	}
	if b.AdjacentAt(1) && b.Lookahead(1).IsWordPart() {
		return "", false
	}
	return text, true
}

// assignment speculatively parses name[sub]=value or name+=value. On
// failure the builder is rolled back and false is returned.
func (p *parser) assignment(assoc bool) bool {
	b := p.b
	if b.TokenKind() != token.Word || !isName(b.TokenText()) {
		return false
	}
	m := b.Mark()
	b.Advance()
	if b.Is(token.LeftSquare) && b.Adjacent() {
		if !p.assignmentSubscript() {
			m.Rollback()
			return false
		}
	}
	if !b.Is(token.Equals, token.PlusEquals) || !b.Adjacent() {
		m.Rollback()
		return false
	}
	b.Advance()

	switch {
	case b.Is(token.LeftParen) && b.Adjacent():
		p.arrayLiteral(assoc)
	case b.Adjacent() && p.atWordStart() && !b.Is(token.LeftCurly, token.RightCurly):
		p.word()
	}
	m.Done(cst.NodeAssignment)
	return true
}

// assignmentSubscript parses [...] glued to an assignment name
func (p *parser) assignmentSubscript() bool {
	b := p.b
	m := b.Mark()
	b.Advance()
	for !b.Is(token.RightSquare) {
		if b.EOF() || !b.Adjacent() || !p.atWordStart() {
			m.Rollback()
			return false
		}
		p.wordPart()
	}
	b.Advance()
	m.Done(cst.NodeArrayIndex)
	return true
}

func (p *parser) arrayLiteral(assoc bool) {
	b := p.b
	m := b.Mark()
	b.Advance()
	restore := b.PushMode(b.Mode() &^ builder.ModeAssignments)
	for {
		p.linebreak()
		if b.Is(token.RightParen) || b.EOF() || !p.atWordStart() {
			break
		}
		if b.Is(token.LeftSquare) && p.arrayElementAssignment() {
			continue
		}
		p.word()
	}
	restore()
	b.Expect(token.RightParen, "expected ')' to close the array")
	if assoc && b.Supports(dialect.AssocArrays) {
		m.Done(cst.NodeAssocArrayLiteral)
		return
	}
	m.Done(cst.NodeArrayLiteral)
}

// arrayElementAssignment parses [key]=value inside an array literal
func (p *parser) arrayElementAssignment() bool {
	b := p.b
	m := b.Mark()
	if !p.assignmentSubscript() || !b.Is(token.Equals, token.PlusEquals) || !b.Adjacent() {
		m.Rollback()
		return false
	}
	b.Advance()
	if b.Adjacent() && p.atWordStart() {
		p.word()
	}
	m.Done(cst.NodeAssignment)
	return true
}

// redirect parses one redirection if the cursor is at one
func (p *parser) redirect() bool {
	b := p.b
	if !b.TokenKind().IsRedirect() {
		return false
	}
	m := b.Mark()
	if b.Is(token.RedirectFd) {
		b.Advance()
	}

	switch b.TokenKind() {
	case token.HeredocOp, token.HeredocDashOp:
		strip := b.Is(token.HeredocDashOp)
		b.Advance()
		if b.Is(token.HeredocMarker) {
			b.PushHeredoc(builder.PendingHeredoc{
				Marker:    heredocTerminator(b.TokenText()),
				StripTabs: strip,
				Offset:    b.Token().Span.Start,
			})
			b.Advance()
		} else {
			b.Error("expected a here-document delimiter")
		}
		m.Done(cst.NodeHeredocRedirect)
		return true
	case token.TripleLess:
		b.Advance()
		p.redirectTarget()
		m.Done(cst.NodeHereString)
		return true
	case token.AmpDoubleGreater:
		if !b.Supports(dialect.AppendBoth) {
			b.ErrorAdvance(dialect.Unsupported(dialect.AppendBoth, b.Version()))
		} else {
			b.Advance()
		}
	case token.Less, token.Greater, token.DoubleGreater, token.LessGreater, token.GreaterPipe,
		token.LessAmp, token.GreaterAmp, token.AmpGreater:
		b.Advance()
	default:
		// a descriptor number not followed by an operator
		b.Error("expected a redirection operator")
		m.Done(cst.NodeRedirect)
		return true
	}
	p.redirectTarget()
	m.Done(cst.NodeRedirect)
	return true
}

func (p *parser) redirectTarget() {
	b := p.b
	if p.atWordStart() {
		b.WithMode(builder.ModeNoKeywords, p.word)
		return
	}
	b.Error("expected a redirection target")
}

// heredocTerminator strips the quoting from a heredoc delimiter word
func heredocTerminator(text string) string {
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '\'', '"':
		case '\\':
			if i+1 < len(text) {
				i++
				sb.WriteByte(text[i])
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
