// File: arith.go
// Title: Arithmetic Expressions
// Description: Precedence-climbing parser for $(( )), (( )), $[ ], the
//              arithmetic for header and array subscripts. Operators follow
//              the C-like precedence table of bash.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-25
// Modified: 2026-10-05
//
// Change History:
// - 2026-09-25 v0.1.0: Initial implementation

package parser

import (
	"github.com/msto63/shcst/foundation/shell/builder"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/token"
)

type arithOperator struct {
	prec  int
	right bool
}

// Precedence levels, higher binds tighter
const (
	precComma = iota + 1
	precAssign
	precTernary
	precLogicalOr
	precLogicalAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precPower
)

var arithBinaryOps = map[string]arithOperator{
	",":   {precComma, false},
	"=":   {precAssign, true},
	"+=":  {precAssign, true},
	"-=":  {precAssign, true},
	"*=":  {precAssign, true},
	"/=":  {precAssign, true},
	"%=":  {precAssign, true},
	"<<=": {precAssign, true},
	">>=": {precAssign, true},
	"&=":  {precAssign, true},
	"^=":  {precAssign, true},
	"|=":  {precAssign, true},
	"?":   {precTernary, true},
	"||":  {precLogicalOr, false},
	"&&":  {precLogicalAnd, false},
	"|":   {precBitOr, false},
	"^":   {precBitXor, false},
	"&":   {precBitAnd, false},
	"==":  {precEquality, false},
	"!=":  {precEquality, false},
	"<":   {precRelational, false},
	">":   {precRelational, false},
	"<=":  {precRelational, false},
	">=":  {precRelational, false},
	"<<":  {precShift, false},
	">>":  {precShift, false},
	"+":   {precAdditive, false},
	"-":   {precAdditive, false},
	"*":   {precMultiplicative, false},
	"/":   {precMultiplicative, false},
	"%":   {precMultiplicative, false},
	"**":  {precPower, true},
}

var arithUnaryOps = map[string]bool{
	"!": true, "~": true, "+": true, "-": true, "++": true, "--": true,
}

// arithUntil parses an expression and turns everything up to closer into
// error nodes. The closer itself is left for the caller. Closers of
// enclosing arithmetic frames also stop the scan.
func (p *parser) arithUntil(closer token.Kind) {
	b := p.b
	p.arithExpression()
	for !b.Is(closer, token.DoubleRightParen, token.RightSquare) && !b.EOF() {
		b.ErrorAdvance(unexpected(b.Token()))
	}
}

// arithExpression parses a full expression; nil means there was none
func (p *parser) arithExpression() *builder.Marker {
	return p.arithBinary(precComma)
}

func (p *parser) arithBinary(minPrec int) *builder.Marker {
	b := p.b
	left := p.arithUnary()
	if left == nil {
		return nil
	}
	for b.Is(token.ArithOp) {
		text := b.TokenText()
		op, ok := arithBinaryOps[text]
		if !ok || op.prec < minPrec {
			break
		}
		m := left.Precede()
		b.Advance()

		if text == "?" {
			if p.arithBinary(precAssign) == nil {
				b.Error("expected an expression after '?'")
			}
			if b.Is(token.ArithOp) && b.TokenText() == ":" {
				b.Advance()
				if p.arithBinary(precTernary) == nil {
					b.Error("expected an expression after ':'")
				}
			} else {
				b.Error("expected ':'")
			}
			m.Done(cst.NodeArithTernary)
			left = m
			continue
		}

		next := op.prec + 1
		if op.right {
			next = op.prec
		}
		if p.arithBinary(next) == nil {
			b.Error("expected an operand after '" + text + "'")
		}
		m.Done(cst.NodeArithBinary)
		left = m
	}
	return left
}

func (p *parser) arithUnary() *builder.Marker {
	b := p.b
	if b.Is(token.ArithOp) && arithUnaryOps[b.TokenText()] {
		if m, ok := p.enter(); !ok {
			return m
		}
		defer b.Leave()
		m := b.Mark()
		op := b.TokenText()
		b.Advance()
		if p.arithUnary() == nil {
			b.Error("expected an operand after '" + op + "'")
		}
		m.Done(cst.NodeArithUnary)
		return m
	}

	operand := p.arithPrimary()
	if operand == nil {
		return nil
	}
	for b.Is(token.ArithOp) && (b.TokenText() == "++" || b.TokenText() == "--") {
		m := operand.Precede()
		b.Advance()
		m.Done(cst.NodeArithPostfix)
		operand = m
	}
	return operand
}

func (p *parser) arithPrimary() *builder.Marker {
	b := p.b
	if b.Is(token.LeftParen) {
		if m, ok := p.enter(); !ok {
			return m
		}
		defer b.Leave()
		m := b.Mark()
		b.Advance()
		if p.arithExpression() == nil {
			b.Error("expected an expression")
		}
		for !b.Is(token.RightParen) && !b.EOF() && !b.Is(token.DoubleRightParen, token.RightSquare) {
			b.ErrorAdvance(unexpected(b.Token()))
		}
		b.Expect(token.RightParen, "expected ')'")
		m.Done(cst.NodeArithGroup)
		return m
	}

	if !p.atArithOperand() {
		return nil
	}
	m := b.Mark()
	p.arithOperandPart()
	for b.Adjacent() && p.atArithOperand() {
		p.arithOperandPart()
	}
	m.Done(cst.NodeWord)
	return m
}

func (p *parser) atArithOperand() bool {
	switch p.b.TokenKind() {
	case token.Number, token.Word, token.Variable, token.Dollar, token.SingleQuoted, token.AnsiCString,
		token.StringBegin, token.DollarBrace, token.DollarParen, token.DollarDoubleParen, token.DollarSquare:
		return true
	case token.Backtick:
		return !p.backtick
	}
	return false
}

func (p *parser) arithOperandPart() {
	b := p.b
	switch b.TokenKind() {
	case token.StringBegin:
		p.doubleQuoted()
	case token.DollarBrace, token.DollarParen, token.DollarDoubleParen, token.DollarSquare, token.Backtick:
		p.expansion()
	case token.Word:
		b.Advance()
		if b.Is(token.LeftSquare) && b.Adjacent() {
			p.arithSubscript()
		}
	default:
		b.Advance()
	}
}

// arithSubscript parses name[expr] inside an arithmetic expression
func (p *parser) arithSubscript() {
	b := p.b
	m := b.Mark()
	b.Advance()
	p.arithUntil(token.RightSquare)
	b.Expect(token.RightSquare, "expected ']'")
	m.Done(cst.NodeArrayIndex)
}
