// File: lexer.go
// Title: Shell Lexical Analyzer
// Description: Converts shell source into a lossless token stream. The lexer
//              keeps a stack of frames (normal, substitution, backtick, double
//              quote, parameter expansion, arithmetic, conditional, heredoc
//              body) and decides token boundaries from the active frame.
//              Every byte of the input ends up in exactly one token.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-06
//
// Change History:
// - 2025-01-25 v0.1.0: Initial lexer implementation
// - 2026-09-15 v0.2.0: Rewritten for shell: mode stack, trivia tokens, heredocs

package lexer

import (
	"strings"

	"github.com/msto63/shcst/foundation/shell/token"
)

// Mode identifies the sub-lexer that decides token boundaries
type Mode int

const (
	ModeNormal Mode = iota
	ModeCommandSubst
	ModeProcessSubst
	ModeBacktick
	ModeDoubleQuote
	ModeParamExpansion
	ModeSubscript
	ModeArithmetic
	ModeConditional
	ModeHeredocBody
)

var modeNames = map[Mode]string{
	ModeNormal:         "normal",
	ModeCommandSubst:   "command-substitution",
	ModeProcessSubst:   "process-substitution",
	ModeBacktick:       "backtick",
	ModeDoubleQuote:    "double-quote",
	ModeParamExpansion: "parameter-expansion",
	ModeSubscript:      "subscript",
	ModeArithmetic:     "arithmetic",
	ModeConditional:    "conditional",
	ModeHeredocBody:    "heredoc-body",
}

// String returns the mode name
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

type paramPhase int

const (
	phaseStart paramPhase = iota
	phaseName
	phaseAfterName
	phaseWord
)

// heredoc describes an announced here-document whose body is still ahead
type heredoc struct {
	terminator string
	stripTabs  bool
	expand     bool
	open       bool // body runs to end of input, no terminator line
}

type frame struct {
	mode      Mode
	closer    string // "))" or "]" for arithmetic frames, "" never closes
	parens    int
	squares   int
	braces    int
	caseDepth int
	phase     paramPhase
	sep       token.Kind // second separator allowed in a parameter word
	quoted    bool       // parameter expansion nested in double quotes
	regex     bool       // next conditional operand is a regex
	doc       heredoc
	lineStart bool
	tabsDone  bool
}

// Lexer performs lexical analysis of shell input
type Lexer struct {
	input      string
	pos        int
	stack      []*frame
	pending    []heredoc
	wantMarker int // 1 after <<, 2 after <<-
	cmdStart   bool
	shebang    bool
}

// Option configures a Lexer
type Option func(*Lexer)

// WithShebang controls whether a leading "#!" line is a Shebang token
func WithShebang(enabled bool) Option {
	return func(l *Lexer) {
		l.shebang = enabled
	}
}

// WithInitialMode starts lexing inside the given mode. Supported are
// ModeNormal, ModeArithmetic (whole input is one expression) and
// ModeHeredocBody (whole input is an expanding heredoc body).
func WithInitialMode(mode Mode) Option {
	return func(l *Lexer) {
		switch mode {
		case ModeArithmetic:
			l.push(&frame{mode: ModeArithmetic})
		case ModeHeredocBody:
			l.push(&frame{mode: ModeHeredocBody, doc: heredoc{expand: true, open: true}, lineStart: true})
		}
	}
}

// New creates a new lexer for the given input
func New(input string, opts ...Option) *Lexer {
	l := &Lexer{
		input:    input,
		stack:    []*frame{{mode: ModeNormal}},
		cmdStart: true,
		shebang:  true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Mode returns the active lexer mode
func (l *Lexer) Mode() Mode {
	return l.top().mode
}

// Depth returns the number of frames on the mode stack
func (l *Lexer) Depth() int {
	return len(l.stack)
}

// Input returns the text being tokenized
func (l *Lexer) Input() string {
	return l.input
}

// Position returns the byte offset of the next token
func (l *Lexer) Position() int {
	return l.pos
}

// PendingHeredocs returns the number of announced heredocs whose body has
// not started yet
func (l *Lexer) PendingHeredocs() int {
	return len(l.pending)
}

// NextToken returns the next token. At end of input it returns a zero-width
// EOF token, repeatedly.
func (l *Lexer) NextToken() token.Token {
	if l.pos >= len(l.input) {
		return token.Token{Kind: token.EOF, Span: token.Span{Start: len(l.input), End: len(l.input)}}
	}

	f := l.top()
	switch f.mode {
	case ModeHeredocBody:
		return l.lexHeredoc(f)
	case ModeDoubleQuote:
		return l.lexDoubleQuote(f)
	case ModeParamExpansion:
		return l.lexParam(f)
	case ModeArithmetic, ModeSubscript:
		return l.lexArith(f)
	default:
		return l.lexNormal(f)
	}
}

// Tokenize returns all tokens of input including the final EOF token
func Tokenize(input string, opts ...Option) []token.Token {
	l := New(input, opts...)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens
		}
	}
}

func (l *Lexer) lexNormal(f *frame) token.Token {
	start := l.pos
	ch := l.input[l.pos]

	if l.wantMarker != 0 && !isBlank(ch) && !l.atLineContinuation() {
		if !isMarkerStop(ch) {
			return l.lexHeredocMarker()
		}
		l.wantMarker = 0
	}

	switch {
	case isBlank(ch):
		for l.pos < len(l.input) && isBlank(l.input[l.pos]) {
			l.pos++
		}
		return l.emit(token.Whitespace, start)
	case l.atLineContinuation():
		l.skipLineContinuation()
		return l.emit(token.LineContinuation, start)
	case ch == '\n':
		l.pos++
		tok := l.emit(token.Newline, start)
		l.startHeredoc()
		return tok
	case ch == '#' && l.atWordBoundary():
		kind := token.Comment
		if start == 0 && l.shebang && l.peek(1) == '!' {
			kind = token.Shebang
		}
		for l.pos < len(l.input) && l.input[l.pos] != '\n' {
			l.pos++
		}
		return l.emit(kind, start)
	}

	if f.mode == ModeConditional {
		if tok, ok := l.lexCondOperator(f, start); ok {
			return tok
		}
		if f.regex {
			return l.lexRegex(f, start)
		}
	}
	if f.mode == ModeBacktick && ch == '`' {
		l.pos++
		l.pop()
		tok := l.emit(token.Backtick, start)
		l.cmdStart = false
		return tok
	}

	switch ch {
	case '`':
		l.pos++
		l.push(&frame{mode: ModeBacktick})
		return l.emit(token.Backtick, start)
	case '"':
		return l.lexDoubleQuoteStart(start)
	case '\'':
		return l.lexSingleQuoted(start)
	case '$':
		return l.lexDollar(start, false)
	case '(':
		if l.peek(1) == '(' && l.cmdStart && f.mode != ModeConditional {
			l.pos += 2
			l.push(&frame{mode: ModeArithmetic, closer: "))"})
			return l.emit(token.DoubleLeftParen, start)
		}
		l.pos++
		f.parens++
		return l.emit(token.LeftParen, start)
	case ')':
		l.pos++
		if (f.mode == ModeCommandSubst || f.mode == ModeProcessSubst) && f.parens == 0 && f.caseDepth == 0 {
			l.pop()
		} else if f.parens > 0 {
			f.parens--
		}
		return l.emit(token.RightParen, start)
	case '[':
		if l.cmdStart && l.peek(1) == '[' && isWordEnd(l.peek(2)) && f.mode != ModeConditional {
			l.pos += 2
			l.push(&frame{mode: ModeConditional})
			return l.emit(token.DoubleLeftBracket, start)
		}
		l.pos++
		return l.emit(token.LeftSquare, start)
	case ']':
		l.pos++
		return l.emit(token.RightSquare, start)
	case '{':
		if l.atWordBoundary() && isWordEnd(l.peek(1)) {
			l.pos++
			return l.emit(token.LeftCurly, start)
		}
	case '}':
		if l.atWordBoundary() && isWordEnd(l.peek(1)) {
			l.pos++
			return l.emit(token.RightCurly, start)
		}
	case '!':
		if l.atWordBoundary() && isWordEnd(l.peek(1)) {
			l.pos++
			return l.emit(token.Bang, start)
		}
	case ';':
		switch {
		case l.hasPrefix(";;&"):
			return l.emitN(token.DoubleSemiAmp, start, 3)
		case l.hasPrefix(";;"):
			return l.emitN(token.DoubleSemicolon, start, 2)
		case l.hasPrefix(";&"):
			return l.emitN(token.SemiAmp, start, 2)
		}
		return l.emitN(token.Semicolon, start, 1)
	case '&':
		switch {
		case l.hasPrefix("&&"):
			return l.emitN(token.AndAnd, start, 2)
		case l.hasPrefix("&>>"):
			return l.emitN(token.AmpDoubleGreater, start, 3)
		case l.hasPrefix("&>"):
			return l.emitN(token.AmpGreater, start, 2)
		}
		return l.emitN(token.Amp, start, 1)
	case '|':
		switch {
		case l.hasPrefix("||"):
			return l.emitN(token.OrOr, start, 2)
		case l.hasPrefix("|&"):
			return l.emitN(token.PipeAmp, start, 2)
		}
		return l.emitN(token.Pipe, start, 1)
	case '<':
		return l.lexLess(start)
	case '>':
		return l.lexGreater(start)
	case '=':
		return l.emitN(token.Equals, start, 1)
	case '+':
		if l.peek(1) == '=' {
			return l.emitN(token.PlusEquals, start, 2)
		}
	}

	if isDigit(ch) {
		end := l.pos
		for end < len(l.input) && isDigit(l.input[end]) {
			end++
		}
		if end < len(l.input) && (l.input[end] == '<' || l.input[end] == '>') && l.atWordBoundary() {
			next := byte(0)
			if end+1 < len(l.input) {
				next = l.input[end+1]
			}
			if next != '(' {
				l.pos = end
				return l.emit(token.RedirectFd, start)
			}
		}
	}

	if isControl(ch) {
		l.pos++
		return l.emit(token.BadCharacter, start)
	}

	return l.lexWord(f, start)
}

func (l *Lexer) lexLess(start int) token.Token {
	switch {
	case l.hasPrefix("<<<"):
		return l.emitN(token.TripleLess, start, 3)
	case l.hasPrefix("<<-"):
		l.wantMarker = 2
		return l.emitN(token.HeredocDashOp, start, 3)
	case l.hasPrefix("<<"):
		l.wantMarker = 1
		return l.emitN(token.HeredocOp, start, 2)
	case l.hasPrefix("<&"):
		return l.emitN(token.LessAmp, start, 2)
	case l.hasPrefix("<>"):
		return l.emitN(token.LessGreater, start, 2)
	case l.hasPrefix("<("):
		l.pos += 2
		l.push(&frame{mode: ModeProcessSubst})
		return l.emit(token.ProcessSubstIn, start)
	}
	return l.emitN(token.Less, start, 1)
}

func (l *Lexer) lexGreater(start int) token.Token {
	switch {
	case l.hasPrefix(">>"):
		return l.emitN(token.DoubleGreater, start, 2)
	case l.hasPrefix(">&"):
		return l.emitN(token.GreaterAmp, start, 2)
	case l.hasPrefix(">|"):
		return l.emitN(token.GreaterPipe, start, 2)
	case l.hasPrefix(">("):
		l.pos += 2
		l.push(&frame{mode: ModeProcessSubst})
		return l.emit(token.ProcessSubstOut, start)
	}
	return l.emitN(token.Greater, start, 1)
}

// lexWord reads an unquoted literal run
func (l *Lexer) lexWord(f *frame, start int) token.Token {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '\\' {
			if l.atLineContinuation() {
				break
			}
			l.pos += 2
			continue
		}
		if isWordBreak(c) || isControl(c) {
			break
		}
		if c == '+' && l.peek(1) == '=' {
			break
		}
		l.pos++
	}
	l.clamp()

	if l.cmdStart {
		switch l.input[start:l.pos] {
		case "case":
			f.caseDepth++
		case "esac":
			if f.caseDepth > 0 {
				f.caseDepth--
			}
		}
	}
	return l.emit(token.Word, start)
}

// lexCondOperator handles the operators that only exist inside [[ ]]
func (l *Lexer) lexCondOperator(f *frame, start int) (token.Token, bool) {
	switch l.input[l.pos] {
	case ']':
		if l.peek(1) == ']' {
			l.pos += 2
			l.pop()
			return l.emit(token.DoubleRightBracket, start), true
		}
	case '<', '>':
		return l.emitN(token.CondOp, start, 1), true
	case '=':
		switch {
		case l.peek(1) == '~' && isWordEnd(l.peek(2)):
			f.regex = true
			return l.emitN(token.CondOp, start, 2), true
		case l.peek(1) == '=' && isWordEnd(l.peek(2)):
			return l.emitN(token.CondOp, start, 2), true
		case isWordEnd(l.peek(1)):
			return l.emitN(token.CondOp, start, 1), true
		}
	case '!':
		if l.peek(1) == '=' && isWordEnd(l.peek(2)) {
			return l.emitN(token.CondOp, start, 2), true
		}
	}
	return token.Token{}, false
}

// lexRegex reads the right operand of =~ as one word. Parentheses and
// operators are part of the pattern until a blank at nesting level zero.
func (l *Lexer) lexRegex(f *frame, start int) token.Token {
	f.regex = false
	depth := 0
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '\\':
			l.pos += 2
			continue
		case c == '\'':
			if end := strings.IndexByte(l.input[l.pos+1:], '\''); end >= 0 {
				l.pos += end + 2
				continue
			}
		case c == '(':
			depth++
		case c == ')':
			if depth == 0 {
				l.clamp()
				return l.emit(token.Word, start)
			}
			depth--
		case (isBlank(c) || c == '\n') && depth == 0:
			l.clamp()
			return l.emit(token.Word, start)
		}
		l.pos++
	}
	l.clamp()
	return l.emit(token.Word, start)
}

func (l *Lexer) lexSingleQuoted(start int) token.Token {
	limit := l.quoteLimit()
	end := strings.IndexByte(l.input[l.pos+1:limit], '\'')
	if end < 0 {
		l.pos = limit
		return l.emit(token.MalformedString, start)
	}
	l.pos += end + 2
	return l.emit(token.SingleQuoted, start)
}

// lexDoubleQuoteStart opens a double-quoted string whose opening quote is at
// l.pos. The token may include a leading '$' already consumed from start.
func (l *Lexer) lexDoubleQuoteStart(start int) token.Token {
	limit := l.quoteLimit()
	if l.scanDoubleQuote(l.pos+1, limit) < 0 {
		l.pos = limit
		return l.emit(token.MalformedString, start)
	}
	l.pos++
	l.push(&frame{mode: ModeDoubleQuote})
	return l.emit(token.StringBegin, start)
}

func (l *Lexer) lexDoubleQuote(f *frame) token.Token {
	start := l.pos
	switch l.input[l.pos] {
	case '"':
		l.pos++
		l.pop()
		return l.emit(token.StringEnd, start)
	case '`':
		l.pos++
		l.push(&frame{mode: ModeBacktick})
		return l.emit(token.Backtick, start)
	case '$':
		if l.startsExpansion(l.pos) {
			return l.lexDollar(start, true)
		}
	}

	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '"' || c == '`' {
			break
		}
		if c == '$' && l.startsExpansion(l.pos) && l.pos > start {
			break
		}
		if c == '\\' {
			l.pos += 2
			continue
		}
		l.pos++
	}
	l.clamp()
	return l.emit(token.StringContent, start)
}

// lexDollar handles every construct introduced by '$'
func (l *Lexer) lexDollar(start int, quoted bool) token.Token {
	next := l.peek(1)
	switch {
	case next == '(' && l.peek(2) == '(':
		l.pos += 3
		l.push(&frame{mode: ModeArithmetic, closer: "))"})
		return l.emit(token.DollarDoubleParen, start)
	case next == '(':
		l.pos += 2
		l.push(&frame{mode: ModeCommandSubst})
		return l.emit(token.DollarParen, start)
	case next == '{':
		l.pos += 2
		l.push(&frame{mode: ModeParamExpansion, quoted: quoted})
		return l.emit(token.DollarBrace, start)
	case next == '[':
		l.pos += 2
		l.push(&frame{mode: ModeArithmetic, closer: "]"})
		return l.emit(token.DollarSquare, start)
	case next == '\'' && !quoted:
		return l.lexAnsiC(start)
	case next == '"' && !quoted:
		l.pos++
		return l.lexDoubleQuoteStart(start)
	case isNameStart(next):
		l.pos++
		for l.pos < len(l.input) && isNameChar(l.input[l.pos]) {
			l.pos++
		}
		return l.emit(token.Variable, start)
	case isDigit(next) || isSpecialParam(next):
		l.pos += 2
		return l.emit(token.Variable, start)
	}
	l.pos++
	return l.emit(token.Dollar, start)
}

func (l *Lexer) lexAnsiC(start int) token.Token {
	limit := l.quoteLimit()
	i := l.pos + 2
	for i < limit {
		switch l.input[i] {
		case '\\':
			i += 2
			continue
		case '\'':
			l.pos = i + 1
			return l.emit(token.AnsiCString, start)
		}
		i++
	}
	l.pos = limit
	return l.emit(token.MalformedString, start)
}

func (l *Lexer) lexParam(f *frame) token.Token {
	start := l.pos
	ch := l.input[l.pos]

	if f.phase == phaseStart {
		f.phase = phaseName
		if (ch == '#' || ch == '!') && l.nameFollows(l.pos+1) {
			l.pos++
			if ch == '#' {
				return l.emit(token.ParamLength, start)
			}
			return l.emit(token.ParamIndirect, start)
		}
	}

	if f.phase == phaseName {
		f.phase = phaseAfterName
		switch {
		case isNameStart(ch):
			for l.pos < len(l.input) && isNameChar(l.input[l.pos]) {
				l.pos++
			}
			return l.emit(token.ParamName, start)
		case isDigit(ch):
			for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				l.pos++
			}
			return l.emit(token.ParamName, start)
		case isSpecialParam(ch):
			l.pos++
			return l.emit(token.ParamName, start)
		}
		f.phase = phaseWord
	}

	if f.phase == phaseAfterName {
		if ch == '}' {
			l.pos++
			l.pop()
			return l.emit(token.RightBrace, start)
		}
		if ch == '[' {
			l.pos++
			l.push(&frame{mode: ModeSubscript, closer: "]"})
			return l.emit(token.LeftSquare, start)
		}
		f.phase = phaseWord
		for _, op := range paramOps {
			if l.hasPrefix(op.text) {
				switch op.kind {
				case token.ParamReplace:
					f.sep = token.ParamReplace
				case token.ParamSubstring:
					f.sep = token.ParamSubstring
				}
				return l.emitN(op.kind, start, len(op.text))
			}
		}
	}

	return l.lexParamWord(f, start)
}

var paramOps = []struct {
	text string
	kind token.Kind
}{
	{":-", token.ParamDefault}, {":=", token.ParamDefault}, {":+", token.ParamDefault}, {":?", token.ParamDefault},
	{"##", token.ParamTrim}, {"%%", token.ParamTrim},
	{"//", token.ParamReplace}, {"/#", token.ParamReplace}, {"/%", token.ParamReplace},
	{"^^", token.ParamCase}, {",,", token.ParamCase},
	{"-", token.ParamDefault}, {"=", token.ParamDefault}, {"+", token.ParamDefault}, {"?", token.ParamDefault},
	{"#", token.ParamTrim}, {"%", token.ParamTrim},
	{"/", token.ParamReplace},
	{"^", token.ParamCase}, {",", token.ParamCase},
	{":", token.ParamSubstring},
	{"@", token.ParamTransform},
}

func (l *Lexer) lexParamWord(f *frame, start int) token.Token {
	ch := l.input[l.pos]
	switch {
	case ch == '}' && f.braces == 0:
		l.pos++
		l.pop()
		return l.emit(token.RightBrace, start)
	case ch == '$' && l.startsExpansion(l.pos):
		return l.lexDollar(start, f.quoted)
	case ch == '`':
		l.pos++
		l.push(&frame{mode: ModeBacktick})
		return l.emit(token.Backtick, start)
	case ch == '"':
		return l.lexDoubleQuoteStart(start)
	case ch == '\'' && !f.quoted:
		return l.lexSingleQuoted(start)
	case f.sep == token.ParamReplace && ch == '/', f.sep == token.ParamSubstring && ch == ':':
		kind := f.sep
		f.sep = 0
		return l.emitN(kind, start, 1)
	}

	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '\\' {
			l.pos += 2
			continue
		}
		if c == '}' {
			if f.braces == 0 {
				break
			}
			f.braces--
		}
		if c == '{' {
			f.braces++
		}
		if l.pos > start {
			if c == '`' || c == '"' || (c == '\'' && !f.quoted) || (c == '$' && l.startsExpansion(l.pos)) {
				break
			}
			if (f.sep == token.ParamReplace && c == '/') || (f.sep == token.ParamSubstring && c == ':') {
				break
			}
		}
		l.pos++
	}
	l.clamp()
	return l.emit(token.Word, start)
}

func (l *Lexer) lexArith(f *frame) token.Token {
	start := l.pos
	ch := l.input[l.pos]

	switch {
	case isBlank(ch) || ch == '\n':
		for l.pos < len(l.input) && (isBlank(l.input[l.pos]) || l.input[l.pos] == '\n') {
			l.pos++
		}
		return l.emit(token.Whitespace, start)
	case l.atLineContinuation():
		l.skipLineContinuation()
		return l.emit(token.LineContinuation, start)
	case f.closer == "))" && ch == ')' && l.peek(1) == ')' && f.parens == 0:
		l.pos += 2
		l.pop()
		return l.emit(token.DoubleRightParen, start)
	case f.closer == "]" && ch == ']' && f.squares == 0:
		l.pos++
		l.pop()
		return l.emit(token.RightSquare, start)
	}

	switch ch {
	case '(':
		f.parens++
		return l.emitN(token.LeftParen, start, 1)
	case ')':
		if f.parens > 0 {
			f.parens--
		}
		return l.emitN(token.RightParen, start, 1)
	case '[':
		f.squares++
		return l.emitN(token.LeftSquare, start, 1)
	case ']':
		if f.squares > 0 {
			f.squares--
		}
		return l.emitN(token.RightSquare, start, 1)
	case '$':
		return l.lexDollar(start, false)
	case '"':
		return l.lexDoubleQuoteStart(start)
	case '\'':
		return l.lexSingleQuoted(start)
	case '`':
		l.pos++
		l.push(&frame{mode: ModeBacktick})
		return l.emit(token.Backtick, start)
	case ';':
		return l.emitN(token.Semicolon, start, 1)
	case '@':
		return l.emitN(token.Word, start, 1)
	}

	switch {
	case isDigit(ch):
		for l.pos < len(l.input) && (isNameChar(l.input[l.pos]) || l.input[l.pos] == '#' || l.input[l.pos] == '@') {
			l.pos++
		}
		return l.emit(token.Number, start)
	case isNameStart(ch):
		for l.pos < len(l.input) && isNameChar(l.input[l.pos]) {
			l.pos++
		}
		return l.emit(token.Word, start)
	}

	for _, op := range arithOps {
		if l.hasPrefix(op) {
			return l.emitN(token.ArithOp, start, len(op))
		}
	}
	return l.emitN(token.BadCharacter, start, 1)
}

var arithOps = []string{
	"<<=", ">>=",
	"**", "++", "--", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
	"+=", "-=", "*=", "/=", "%=", "&=", "^=", "|=",
	"+", "-", "*", "/", "%", "<", ">", "=", "!", "~", "&", "|", "^", "?", ":", ",",
}

func (l *Lexer) lexHeredoc(f *frame) token.Token {
	start := l.pos

	if f.lineStart {
		if tabs, ok := l.terminatorAt(f, l.pos); ok {
			if tabs > 0 && !f.tabsDone {
				f.tabsDone = true
				l.pos += tabs
				return l.emit(token.Whitespace, start)
			}
			l.pos += len(f.doc.terminator)
			if !f.tabsDone {
				l.pos += tabs
			}
			l.pop()
			return l.emit(token.HeredocEnd, start)
		}
	}

	if f.doc.expand {
		switch ch := l.input[l.pos]; {
		case ch == '$' && l.startsExpansion(l.pos):
			f.lineStart = false
			return l.lexDollar(start, true)
		case ch == '`':
			f.lineStart = false
			l.pos++
			l.push(&frame{mode: ModeBacktick})
			return l.emit(token.Backtick, start)
		}
	}

	for l.pos < len(l.input) {
		if f.lineStart && l.pos > start {
			if _, ok := l.terminatorAt(f, l.pos); ok {
				break
			}
		}
		c := l.input[l.pos]
		if f.doc.expand && l.pos > start && (c == '`' || (c == '$' && l.startsExpansion(l.pos))) {
			break
		}
		if f.doc.expand && c == '\\' && l.pos+1 < len(l.input) {
			l.pos += 2
			f.lineStart = false
			continue
		}
		l.pos++
		f.lineStart = c == '\n'
	}
	l.clamp()
	return l.emit(token.HeredocContent, start)
}

// terminatorAt reports whether the line starting at pos ends the heredoc and
// how many leading tabs precede the terminator
func (l *Lexer) terminatorAt(f *frame, pos int) (int, bool) {
	if f.doc.open {
		return 0, false
	}
	end := strings.IndexByte(l.input[pos:], '\n')
	if end < 0 {
		end = len(l.input) - pos
	}
	line := l.input[pos : pos+end]
	tabs := 0
	if f.doc.stripTabs {
		for tabs < len(line) && line[tabs] == '\t' {
			tabs++
		}
	}
	return tabs, line[tabs:] == f.doc.terminator
}

// lexHeredocMarker reads the word after << or <<- and queues the heredoc
func (l *Lexer) lexHeredocMarker() token.Token {
	start := l.pos
	quoted := false
	var term strings.Builder

	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if isBlank(c) || c == '\n' || isMarkerStop(c) {
			break
		}
		switch c {
		case '\'':
			quoted = true
			end := strings.IndexByte(l.input[l.pos+1:], '\'')
			if end < 0 {
				term.WriteString(l.input[l.pos+1:])
				l.pos = len(l.input)
				continue
			}
			term.WriteString(l.input[l.pos+1 : l.pos+1+end])
			l.pos += end + 2
		case '"':
			quoted = true
			l.pos++
			for l.pos < len(l.input) && l.input[l.pos] != '"' {
				if l.input[l.pos] == '\\' && l.pos+1 < len(l.input) {
					l.pos++
				}
				term.WriteByte(l.input[l.pos])
				l.pos++
			}
			if l.pos < len(l.input) {
				l.pos++
			}
		case '\\':
			quoted = true
			if l.pos+1 < len(l.input) {
				term.WriteByte(l.input[l.pos+1])
				l.pos += 2
			} else {
				l.pos++
			}
		default:
			term.WriteByte(c)
			l.pos++
		}
	}

	l.pending = append(l.pending, heredoc{
		terminator: term.String(),
		stripTabs:  l.wantMarker == 2,
		expand:     !quoted,
		open:       term.Len() == 0,
	})
	l.wantMarker = 0
	return l.emit(token.HeredocMarker, start)
}

// startHeredoc switches to the body of the oldest announced heredoc
func (l *Lexer) startHeredoc() {
	if len(l.pending) == 0 {
		return
	}
	doc := l.pending[0]
	l.pending = l.pending[1:]
	l.push(&frame{mode: ModeHeredocBody, doc: doc, lineStart: true})
}

// Stack and emission helpers

func (l *Lexer) top() *frame {
	return l.stack[len(l.stack)-1]
}

func (l *Lexer) push(f *frame) {
	l.stack = append(l.stack, f)
}

func (l *Lexer) pop() {
	if len(l.stack) > 1 {
		l.stack = l.stack[:len(l.stack)-1]
	}
}

func (l *Lexer) emitN(kind token.Kind, start, n int) token.Token {
	l.pos += n
	l.clamp()
	return l.emit(kind, start)
}

func (l *Lexer) emit(kind token.Kind, start int) token.Token {
	if l.pos <= start {
		l.pos = start + 1
		l.clamp()
	}
	tok := token.Token{Kind: kind, Span: token.Span{Start: start, End: l.pos}, Text: l.input[start:l.pos]}
	l.track(tok)
	return tok
}

// track maintains the command-start flag used to recognize (( and [[
func (l *Lexer) track(tok token.Token) {
	switch tok.Kind {
	case token.Whitespace, token.LineContinuation, token.Comment, token.Shebang:
	case token.Newline, token.Semicolon, token.DoubleSemicolon, token.SemiAmp,
		token.DoubleSemiAmp, token.Amp, token.AndAnd, token.OrOr, token.Pipe,
		token.PipeAmp, token.Bang, token.LeftParen, token.RightParen,
		token.LeftCurly, token.DollarParen, token.ProcessSubstIn,
		token.ProcessSubstOut, token.Backtick:
		l.cmdStart = true
	case token.Word:
		l.cmdStart = l.cmdStart && commandPrefixes[tok.Text]
	default:
		l.cmdStart = false
	}
}

var commandPrefixes = map[string]bool{
	"if": true, "then": true, "else": true, "elif": true, "do": true,
	"while": true, "until": true, "time": true, "for": true, "coproc": true,
}

func (l *Lexer) clamp() {
	if l.pos > len(l.input) {
		l.pos = len(l.input)
	}
}

func (l *Lexer) peek(n int) byte {
	if l.pos+n < len(l.input) {
		return l.input[l.pos+n]
	}
	return 0
}

func (l *Lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}

func (l *Lexer) atLineContinuation() bool {
	return l.hasPrefix("\\\n") || l.hasPrefix("\\\r\n")
}

func (l *Lexer) skipLineContinuation() {
	if l.hasPrefix("\\\r\n") {
		l.pos += 3
		return
	}
	l.pos += 2
}

// atWordBoundary reports whether the previous byte separates words
func (l *Lexer) atWordBoundary() bool {
	if l.pos == 0 {
		return true
	}
	return strings.IndexByte(" \t\r\n;&|()<>", l.input[l.pos-1]) >= 0
}

// quoteLimit bounds quote scanning to the enclosing backtick, if any
func (l *Lexer) quoteLimit() int {
	if l.top().mode != ModeBacktick {
		return len(l.input)
	}
	for i := l.pos + 1; i < len(l.input); i++ {
		switch l.input[i] {
		case '\\':
			i++
		case '`':
			return i
		}
	}
	return len(l.input)
}

// scanDoubleQuote returns the index of the closing quote of a double-quoted
// string whose content starts at i, or -1
func (l *Lexer) scanDoubleQuote(i, limit int) int {
	for i < limit {
		switch l.input[i] {
		case '\\':
			i += 2
			continue
		case '"':
			return i
		case '`':
			end := strings.IndexByte(l.input[i+1:limit], '`')
			if end < 0 {
				return -1
			}
			i += end + 2
			continue
		case '$':
			if i+1 < limit && (l.input[i+1] == '(' || l.input[i+1] == '{') {
				end := l.skipBalanced(i+1, limit)
				if end < 0 {
					return -1
				}
				i = end + 1
				continue
			}
		}
		i++
	}
	return -1
}

// skipBalanced returns the index of the bracket closing the one at i
func (l *Lexer) skipBalanced(i, limit int) int {
	open := l.input[i]
	closeCh := byte(')')
	if open == '{' {
		closeCh = '}'
	}
	depth := 0
	for i < limit {
		switch c := l.input[i]; c {
		case '\\':
			i += 2
			continue
		case '\'':
			if open == '(' {
				end := strings.IndexByte(l.input[i+1:limit], '\'')
				if end < 0 {
					return -1
				}
				i += end + 2
				continue
			}
		case '"':
			end := l.scanDoubleQuote(i+1, limit)
			if end < 0 {
				return -1
			}
			i = end + 1
			continue
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// startsExpansion reports whether the '$' at i introduces an expansion
func (l *Lexer) startsExpansion(i int) bool {
	if i+1 >= len(l.input) {
		return false
	}
	n := l.input[i+1]
	return n == '(' || n == '{' || n == '[' || isNameStart(n) || isDigit(n) || isSpecialParam(n)
}

// nameFollows reports whether a parameter name starts at i
func (l *Lexer) nameFollows(i int) bool {
	if i >= len(l.input) {
		return false
	}
	c := l.input[i]
	return isNameStart(c) || isDigit(c) || (isSpecialParam(c) && c != '}')
}

// Utility functions

func isBlank(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isNameStart(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || isDigit(ch)
}

func isSpecialParam(ch byte) bool {
	return strings.IndexByte("@*#?$!-", ch) >= 0
}

func isControl(ch byte) bool {
	return (ch < 0x20 && ch != '\t' && ch != '\n' && ch != '\r' && ch != '\f' && ch != '\v') || ch == 0x7f
}

// isWordBreak reports whether ch ends an unquoted literal run
func isWordBreak(ch byte) bool {
	return isBlank(ch) || strings.IndexByte("\n;&|()<>\"'`$=[]", ch) >= 0
}

// isWordEnd reports whether ch may follow a standalone reserved token
func isWordEnd(ch byte) bool {
	return ch == 0 || isBlank(ch) || strings.IndexByte("\n;&|)<>", ch) >= 0
}

// isMarkerStop reports whether ch cannot start or continue a heredoc marker
func isMarkerStop(ch byte) bool {
	return strings.IndexByte("\n;&|<>()", ch) >= 0
}
