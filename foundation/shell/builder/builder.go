// File: builder.go
// Title: Token Stream and Tree Builder
// Description: Cursor over the lexer output with lookahead, parse-mode flags,
//              pending heredoc bookkeeping and the marker protocol used by
//              the grammar to build the tree. Tokens are pulled from the
//              lexer on demand and cached; rollback only rewinds the cursor.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-19
// Modified: 2026-10-08
//
// Change History:
// - 2026-09-19 v0.1.0: Initial implementation
// - 2026-10-02 v0.1.1: Cancellation checks and depth guard
// - 2026-10-08 v0.1.2: Remap log and heredoc queue restored on rollback

package builder

import (
	"context"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	mdwlog "github.com/msto63/shcst/foundation/core/log"
	"github.com/msto63/shcst/foundation/shell/binder"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/lexer"
	"github.com/msto63/shcst/foundation/shell/token"
)

const (
	// DefaultCheckInterval is the number of advanced tokens between two
	// cancellation checks
	DefaultCheckInterval = 1024
	// DefaultMaxDepth bounds grammar recursion
	DefaultMaxDepth = 512
)

// Mode is a set of parse-mode flags held on a stack by the builder
type Mode uint32

const (
	// ModeAssignments enables assignment detection for words
	ModeAssignments Mode = 1 << iota
	// ModeArithmetic is set while parsing arithmetic expressions
	ModeArithmetic
	// ModeCasePattern is set while parsing case patterns
	ModeCasePattern
	// ModeCondition is set inside [[ ]]
	ModeCondition
	// ModeNoKeywords suppresses keyword promotion
	ModeNoKeywords
)

// PendingHeredoc is a heredoc operator whose body has not been parsed yet
type PendingHeredoc struct {
	Marker    string
	StripTabs bool
	Offset    int
}

type remap struct {
	index int
	old   token.Kind
}

// Builder is the token stream the grammar consumes. One Builder serves
// exactly one parse and must not be shared between goroutines.
type Builder struct {
	ctx     context.Context
	lex     *lexer.Lexer
	tokens  []token.Token
	kinds   []token.Kind
	lexDone bool

	afterPrev int // raw index following the last consumed token
	cur       int // raw index of the current significant token

	productions []*production
	open        []*Marker
	modes       []Mode
	heredocs    []PendingHeredoc
	remaps      []remap

	version       dialect.Version
	policy        *binder.Policy
	logger        *mdwlog.Logger
	debug         bool
	checkInterval int
	maxDepth      int

	advanced  int
	depth     int
	cancelled bool
	nextID    int
}

// Option configures a Builder
type Option func(*Builder)

// WithVersion sets the language version of the parse
func WithVersion(v dialect.Version) Option {
	return func(b *Builder) {
		b.version = v
	}
}

// WithPolicy sets the binder policy used by Build
func WithPolicy(p *binder.Policy) Option {
	return func(b *Builder) {
		if p != nil {
			b.policy = p
		}
	}
}

// WithLogger sets the logger used for debug tracing
func WithLogger(l *mdwlog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithDebug logs every marker operation at trace level
func WithDebug(enabled bool) Option {
	return func(b *Builder) {
		b.debug = enabled
	}
}

// WithCheckInterval sets how many tokens are advanced between two
// cancellation checks
func WithCheckInterval(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.checkInterval = n
		}
	}
}

// WithMaxDepth bounds grammar recursion
func WithMaxDepth(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxDepth = n
		}
	}
}

// New creates a builder pulling tokens from lex
func New(ctx context.Context, lex *lexer.Lexer, opts ...Option) *Builder {
	if ctx == nil {
		ctx = context.Background()
	}
	b := &Builder{
		ctx:           ctx,
		lex:           lex,
		modes:         []Mode{ModeAssignments},
		version:       dialect.Default,
		policy:        binder.DefaultPolicy(),
		logger:        mdwlog.Discard(),
		checkInterval: DefaultCheckInterval,
		maxDepth:      DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(b)
	}
	if ctx.Err() != nil {
		b.cancelled = true
	}
	b.cur = b.skipTrivia(0)
	return b
}

// Version returns the language version of the parse
func (b *Builder) Version() dialect.Version {
	return b.version
}

// Supports reports whether the parse version has feature f
func (b *Builder) Supports(f dialect.Feature) bool {
	return b.version.Supports(f)
}

// LexerMode returns the mode the lexer is currently in. The lexer runs
// ahead of the cursor, so this reflects the most recently lexed token.
func (b *Builder) LexerMode() lexer.Mode {
	return b.lex.Mode()
}

// token access

func (b *Builder) fill(i int) {
	for !b.lexDone && len(b.tokens) <= i {
		tok := b.lex.NextToken()
		b.tokens = append(b.tokens, tok)
		b.kinds = append(b.kinds, tok.Kind)
		if tok.Kind == token.EOF {
			b.lexDone = true
		}
	}
}

// at returns the raw token at index i, clamped to EOF
func (b *Builder) at(i int) token.Token {
	b.fill(i)
	if i >= len(b.tokens) {
		i = len(b.tokens) - 1
	}
	tok := b.tokens[i]
	tok.Kind = b.kinds[i]
	return tok
}

func (b *Builder) kindAt(i int) token.Kind {
	b.fill(i)
	if i >= len(b.kinds) {
		return token.EOF
	}
	return b.kinds[i]
}

func (b *Builder) skipTrivia(i int) int {
	for b.kindAt(i).IsTrivia() {
		i++
	}
	return i
}

// TokenKind returns the kind of the current significant token. A cancelled
// parse reports EOF.
func (b *Builder) TokenKind() token.Kind {
	if b.cancelled {
		return token.EOF
	}
	return b.kindAt(b.cur)
}

// TokenText returns the text of the current significant token
func (b *Builder) TokenText() string {
	if b.cancelled {
		return ""
	}
	return b.at(b.cur).Text
}

// Token returns the current significant token
func (b *Builder) Token() token.Token {
	return b.at(b.cur)
}

// EOF reports whether the cursor reached the end of input
func (b *Builder) EOF() bool {
	return b.TokenKind() == token.EOF
}

// Is reports whether the current token has one of the kinds
func (b *Builder) Is(kinds ...token.Kind) bool {
	k := b.TokenKind()
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// Lookahead returns the kind of the k-th significant token after the
// current one; Lookahead(0) equals TokenKind
func (b *Builder) Lookahead(k int) token.Kind {
	return b.LookaheadToken(k).Kind
}

// LookaheadToken returns the k-th significant token after the current one
func (b *Builder) LookaheadToken(k int) token.Token {
	if b.cancelled {
		return token.Token{Kind: token.EOF}
	}
	i := b.cur
	for ; k > 0; k-- {
		if b.kindAt(i) == token.EOF {
			break
		}
		i = b.skipTrivia(i + 1)
	}
	return b.at(i)
}

// RawLookahead returns the k-th raw token following the last consumed one,
// trivia included
func (b *Builder) RawLookahead(k int) token.Token {
	return b.at(b.afterPrev + k)
}

// Previous returns the last consumed significant token, or EOF before the
// first Advance
func (b *Builder) Previous() token.Token {
	for i := b.afterPrev - 1; i >= 0; i-- {
		if !b.kindAt(i).IsTrivia() {
			return b.at(i)
		}
	}
	return token.Token{Kind: token.EOF}
}

// Adjacent reports whether the current token directly continues the
// previous one, with no trivia other than line continuations between them
func (b *Builder) Adjacent() bool {
	if b.afterPrev == 0 {
		return false
	}
	return b.gapIsJoin(b.afterPrev, b.cur)
}

// AdjacentAt reports whether the k-th significant lookahead token directly
// follows the one before it
func (b *Builder) AdjacentAt(k int) bool {
	if k == 0 {
		return b.Adjacent()
	}
	i := b.cur
	for ; k > 1; k-- {
		if b.kindAt(i) == token.EOF {
			return false
		}
		i = b.skipTrivia(i + 1)
	}
	if b.kindAt(i) == token.EOF {
		return false
	}
	return b.gapIsJoin(i+1, b.skipTrivia(i+1))
}

func (b *Builder) gapIsJoin(from, to int) bool {
	for i := from; i < to; i++ {
		if b.kindAt(i) != token.LineContinuation {
			return false
		}
	}
	return true
}

// Advance consumes the current significant token
func (b *Builder) Advance() {
	if b.TokenKind() == token.EOF {
		return
	}
	b.afterPrev = b.cur + 1
	b.cur = b.skipTrivia(b.afterPrev)
	b.advanced++
	if b.advanced%b.checkInterval == 0 && b.ctx.Err() != nil {
		b.cancel()
	}
}

// AdvanceN consumes n tokens
func (b *Builder) AdvanceN(n int) {
	for i := 0; i < n; i++ {
		b.Advance()
	}
}

// RemapCurrent reclassifies the current token, e.g. to promote a word to a
// keyword. Rollback undoes the change.
func (b *Builder) RemapCurrent(kind token.Kind) {
	if b.cancelled {
		return
	}
	b.fill(b.cur)
	if b.cur >= len(b.kinds) || b.kinds[b.cur] == kind {
		return
	}
	b.remaps = append(b.remaps, remap{index: b.cur, old: b.kinds[b.cur]})
	b.kinds[b.cur] = kind
}

// Expect consumes the current token if it has the kind, otherwise emits a
// zero-width error node with msg
func (b *Builder) Expect(kind token.Kind, msg string) bool {
	if b.TokenKind() == kind {
		b.Advance()
		return true
	}
	b.Error(msg)
	return false
}

// Error emits a zero-width error node at the cursor
func (b *Builder) Error(msg string) {
	b.Mark().Error(msg)
}

// ErrorAdvance emits an error node spanning the current token and consumes
// it. At EOF the node is zero-width.
func (b *Builder) ErrorAdvance(msg string) {
	m := b.Mark()
	b.Advance()
	m.Error(msg)
}

// modes

// Mode returns the active parse-mode flags
func (b *Builder) Mode() Mode {
	return b.modes[len(b.modes)-1]
}

// HasMode reports whether all flags in m are active
func (b *Builder) HasMode(m Mode) bool {
	return b.Mode()&m == m
}

// PushMode replaces the active flags with m and returns a function
// restoring the previous state
func (b *Builder) PushMode(m Mode) func() {
	depth := len(b.modes)
	b.modes = append(b.modes, m)
	return func() {
		if len(b.modes) > depth {
			b.modes = b.modes[:depth]
		}
	}
}

// WithMode runs fn with the flags in m added
func (b *Builder) WithMode(m Mode, fn func()) {
	restore := b.PushMode(b.Mode() | m)
	defer restore()
	fn()
}

// WithoutMode runs fn with the flags in m removed
func (b *Builder) WithoutMode(m Mode, fn func()) {
	restore := b.PushMode(b.Mode() &^ m)
	defer restore()
	fn()
}

// heredocs

// PushHeredoc records a heredoc operator whose body follows the line
func (b *Builder) PushHeredoc(h PendingHeredoc) {
	b.heredocs = append(b.heredocs, h)
}

// PendingHeredocs returns the number of heredoc bodies still expected
func (b *Builder) PendingHeredocs() int {
	return len(b.heredocs)
}

// PopHeredoc removes and returns the oldest pending heredoc
func (b *Builder) PopHeredoc() (PendingHeredoc, bool) {
	if len(b.heredocs) == 0 {
		return PendingHeredoc{}, false
	}
	h := b.heredocs[0]
	b.heredocs = b.heredocs[1:]
	return h, true
}

// depth and cancellation

// Enter increments the recursion depth. It returns false when the limit is
// reached; the caller must still call Leave.
func (b *Builder) Enter() bool {
	b.depth++
	if b.depth%64 == 0 && b.ctx.Err() != nil {
		b.cancel()
	}
	return b.depth <= b.maxDepth
}

// Leave decrements the recursion depth
func (b *Builder) Leave() {
	b.depth--
}

// Cancelled reports whether the context was cancelled during the parse
func (b *Builder) Cancelled() bool {
	return b.cancelled
}

// Err returns the cancellation error, if any
func (b *Builder) Err() error {
	if !b.cancelled {
		return nil
	}
	return mdwerror.Wrap(b.ctx.Err(), "parse cancelled").
		WithCode(mdwerror.CodeCancelled).
		WithOperation("builder.Advance").
		WithDetail("tokens", b.advanced)
}

func (b *Builder) cancel() {
	if b.cancelled {
		return
	}
	b.cancelled = true
	b.trace("parse cancelled", mdwlog.Fields{"tokens": b.advanced})
}

// ConsumeRest moves the cursor to the end of input regardless of
// cancellation. Used by the root rule to cover unparsed input.
func (b *Builder) ConsumeRest() {
	for b.kindAt(b.cur) != token.EOF {
		b.afterPrev = b.cur + 1
		b.cur = b.skipTrivia(b.afterPrev)
	}
}

// Snapshot captures the cursor state restored by rollback
type Snapshot struct {
	Cursor    int
	AfterPrev int
	Modes     []Mode
	Remaps    int
	Heredocs  []PendingHeredoc
}

// Snapshot returns the current cursor state
func (b *Builder) Snapshot() Snapshot {
	return Snapshot{
		Cursor:    b.cur,
		AfterPrev: b.afterPrev,
		Modes:     append([]Mode(nil), b.modes...),
		Remaps:    len(b.remaps),
		Heredocs:  append([]PendingHeredoc(nil), b.heredocs...),
	}
}

func (b *Builder) restore(s Snapshot) {
	for i := len(b.remaps) - 1; i >= s.Remaps; i-- {
		b.kinds[b.remaps[i].index] = b.remaps[i].old
	}
	b.remaps = b.remaps[:s.Remaps]
	b.cur = s.Cursor
	b.afterPrev = s.AfterPrev
	b.modes = append(b.modes[:0], s.Modes...)
	b.heredocs = append(b.heredocs[:0], s.Heredocs...)
}

func (b *Builder) trace(msg string, fields mdwlog.Fields) {
	if b.debug {
		b.logger.Trace(msg, fields)
	}
}

func (b *Builder) misuse(code mdwerror.Code, op, msg string) {
	panic(mdwerror.New(msg).WithCode(code).WithOperation(op).
		WithDetail("open_markers", len(b.open)).
		WithDetail("cursor", b.cur))
}
