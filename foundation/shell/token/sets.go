// File: sets.go
// Title: Token Kind Sets
// Description: Keyword lookup and kind classification helpers shared by the
//              lexer and the grammar.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-14
// Modified: 2026-09-30
//
// Change History:
// - 2026-09-14 v0.1.0: Initial implementation
// - 2026-09-30 v0.1.1: Redirect and word-part sets

package token

// Keywords maps reserved words to their keyword kinds
var keywords = map[string]Kind{
	"if":       KwIf,
	"then":     KwThen,
	"else":     KwElse,
	"elif":     KwElif,
	"fi":       KwFi,
	"for":      KwFor,
	"in":       KwIn,
	"do":       KwDo,
	"done":     KwDone,
	"while":    KwWhile,
	"until":    KwUntil,
	"case":     KwCase,
	"esac":     KwEsac,
	"function": KwFunction,
	"select":   KwSelect,
	"time":     KwTime,
	"coproc":   KwCoproc,
}

// LookupKeyword returns the keyword kind for text, if it is a reserved word
func LookupKeyword(text string) (Kind, bool) {
	k, ok := keywords[text]
	return k, ok
}

// IsKeyword reports whether k is a keyword kind
func (k Kind) IsKeyword() bool {
	return k >= KwIf && k <= KwCoproc
}

// IsRedirect reports whether k starts a redirection
func (k Kind) IsRedirect() bool {
	switch k {
	case Less, Greater, DoubleGreater, LessGreater, GreaterPipe, LessAmp,
		GreaterAmp, AmpGreater, AmpDoubleGreater, TripleLess, HeredocOp,
		HeredocDashOp, RedirectFd:
		return true
	}
	return false
}

// IsWordPart reports whether k can be glued into a word. Adjacent word
// parts without trivia in between form one shell word.
func (k Kind) IsWordPart() bool {
	switch k {
	case Word, Number, Equals, PlusEquals, Variable, Dollar, SingleQuoted,
		AnsiCString, StringBegin, Backtick, DollarParen, DollarBrace,
		DollarDoubleParen, DollarSquare, ProcessSubstIn, ProcessSubstOut,
		LeftSquare, RightSquare, MalformedString, BadCharacter:
		return true
	}
	return false
}

// IsListTerminator reports whether k ends a command in a list
func (k Kind) IsListTerminator() bool {
	switch k {
	case Newline, Semicolon, Amp, EOF:
		return true
	}
	return false
}

// IsCaseTerminator reports whether k ends a case clause
func (k Kind) IsCaseTerminator() bool {
	switch k {
	case DoubleSemicolon, SemiAmp, DoubleSemiAmp:
		return true
	}
	return false
}
