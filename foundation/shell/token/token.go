// File: token.go
// Title: Shell Token Model
// Description: Token kinds, channels and spans produced by the shell lexer.
//              Every byte of the input belongs to exactly one token; trivia
//              (whitespace, comments) is kept on its own channel so the
//              builder can skip it for lookahead and bind it to nodes later.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-14
// Modified: 2026-10-04
//
// Change History:
// - 2026-09-14 v0.1.0: Initial token catalogue

package token

import "fmt"

// Kind classifies a token
type Kind int

const (
	// Special tokens
	EOF Kind = iota
	BadCharacter
	MalformedString

	// Trivia
	Whitespace
	LineContinuation
	Comment
	Shebang

	// Separators
	Newline
	Semicolon
	DoubleSemicolon
	SemiAmp
	DoubleSemiAmp
	Amp
	AndAnd
	Pipe
	OrOr
	PipeAmp
	Bang

	// Grouping
	LeftParen
	RightParen
	LeftCurly
	RightCurly
	LeftSquare
	RightSquare
	DoubleLeftBracket
	DoubleRightBracket
	DoubleLeftParen
	DoubleRightParen

	// Words and word parts
	Word
	Number
	Equals
	PlusEquals
	Variable
	Dollar
	SingleQuoted
	AnsiCString
	StringBegin
	StringContent
	StringEnd
	Backtick
	DollarParen
	DollarBrace
	RightBrace
	DollarDoubleParen
	DollarSquare
	ProcessSubstIn
	ProcessSubstOut

	// Parameter expansion
	ParamName
	ParamLength
	ParamIndirect
	ParamDefault
	ParamTrim
	ParamReplace
	ParamCase
	ParamSubstring
	ParamTransform

	// Redirection
	Less
	Greater
	DoubleGreater
	LessGreater
	GreaterPipe
	LessAmp
	GreaterAmp
	AmpGreater
	AmpDoubleGreater
	TripleLess
	RedirectFd
	HeredocOp
	HeredocDashOp
	HeredocMarker
	HeredocContent
	HeredocEnd

	// Conditional and arithmetic operators
	CondOp
	ArithOp

	// Keywords. The lexer emits Word; the parser promotes words found in
	// command position.
	KwIf
	KwThen
	KwElse
	KwElif
	KwFi
	KwFor
	KwIn
	KwDo
	KwDone
	KwWhile
	KwUntil
	KwCase
	KwEsac
	KwFunction
	KwSelect
	KwTime
	KwCoproc

	kindCount
)

var kindNames = [...]string{
	EOF:                "EOF",
	BadCharacter:       "bad character",
	MalformedString:    "malformed string",
	Whitespace:         "whitespace",
	LineContinuation:   "line continuation",
	Comment:            "comment",
	Shebang:            "shebang",
	Newline:            "newline",
	Semicolon:          ";",
	DoubleSemicolon:    ";;",
	SemiAmp:            ";&",
	DoubleSemiAmp:      ";;&",
	Amp:                "&",
	AndAnd:             "&&",
	Pipe:               "|",
	OrOr:               "||",
	PipeAmp:            "|&",
	Bang:               "!",
	LeftParen:          "(",
	RightParen:         ")",
	LeftCurly:          "{",
	RightCurly:         "}",
	LeftSquare:         "[",
	RightSquare:        "]",
	DoubleLeftBracket:  "[[",
	DoubleRightBracket: "]]",
	DoubleLeftParen:    "((",
	DoubleRightParen:   "))",
	Word:               "word",
	Number:             "number",
	Equals:             "=",
	PlusEquals:         "+=",
	Variable:           "variable",
	Dollar:             "$",
	SingleQuoted:       "single-quoted string",
	AnsiCString:        "ANSI-C string",
	StringBegin:        "string begin",
	StringContent:      "string content",
	StringEnd:          "string end",
	Backtick:           "`",
	DollarParen:        "$(",
	DollarBrace:        "${",
	RightBrace:         "} (expansion)",
	DollarDoubleParen:  "$((",
	DollarSquare:       "$[",
	ProcessSubstIn:     "<(",
	ProcessSubstOut:    ">(",
	ParamName:          "parameter name",
	ParamLength:        "length operator",
	ParamIndirect:      "indirection operator",
	ParamDefault:       "default operator",
	ParamTrim:          "trim operator",
	ParamReplace:       "replace operator",
	ParamCase:          "case operator",
	ParamSubstring:     "substring operator",
	ParamTransform:     "transform operator",
	Less:               "<",
	Greater:            ">",
	DoubleGreater:      ">>",
	LessGreater:        "<>",
	GreaterPipe:        ">|",
	LessAmp:            "<&",
	GreaterAmp:         ">&",
	AmpGreater:         "&>",
	AmpDoubleGreater:   "&>>",
	TripleLess:         "<<<",
	RedirectFd:         "file descriptor",
	HeredocOp:          "<<",
	HeredocDashOp:      "<<-",
	HeredocMarker:      "heredoc marker",
	HeredocContent:     "heredoc content",
	HeredocEnd:         "heredoc end marker",
	CondOp:             "conditional operator",
	ArithOp:            "arithmetic operator",
	KwIf:               "if",
	KwThen:             "then",
	KwElse:             "else",
	KwElif:             "elif",
	KwFi:               "fi",
	KwFor:              "for",
	KwIn:               "in",
	KwDo:               "do",
	KwDone:             "done",
	KwWhile:            "while",
	KwUntil:            "until",
	KwCase:             "case",
	KwEsac:             "esac",
	KwFunction:         "function",
	KwSelect:           "select",
	KwTime:             "time",
	KwCoproc:           "coproc",
}

// String returns a readable name for the kind
func (k Kind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Channel separates significant tokens from trivia
type Channel int

const (
	Significant Channel = iota
	WhitespaceChannel
	CommentChannel
)

// String returns the channel name
func (c Channel) String() string {
	switch c {
	case Significant:
		return "significant"
	case WhitespaceChannel:
		return "whitespace"
	case CommentChannel:
		return "comment"
	default:
		return "unknown"
	}
}

// Channel returns the channel tokens of this kind travel on
func (k Kind) Channel() Channel {
	switch k {
	case Whitespace, LineContinuation:
		return WhitespaceChannel
	case Comment, Shebang:
		return CommentChannel
	default:
		return Significant
	}
}

// IsTrivia reports whether the kind is whitespace or a comment
func (k Kind) IsTrivia() bool {
	return k.Channel() != Significant
}

// Span is a half-open byte range [Start, End) into the source
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether offset lies inside the span
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Token is one lexeme. Text always equals the source bytes in Span.
type Token struct {
	Kind Kind
	Span Span
	Text string
}

// Channel returns the token's channel
func (t Token) Channel() Channel {
	return t.Kind.Channel()
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%s)%q", t.Kind, t.Span, t.Text)
}
