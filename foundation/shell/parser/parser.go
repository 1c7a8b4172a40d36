// File: parser.go
// Title: Shell Parser Entry Points
// Description: Parses shell source into a lossless concrete syntax tree.
//              Parse handles whole files, ParseFragment re-parses a sub-root
//              (arithmetic expression, heredoc body, single word). The file
//              routine always returns a rooted tree; only builder defects
//              and cancellation are reported as errors.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-10
//
// Change History:
// - 2025-01-25 v0.1.0: Initial TCOL parser
// - 2026-09-21 v0.2.0: Rewritten as marker-based shell parser

package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	mdwlog "github.com/msto63/shcst/foundation/core/log"
	"github.com/msto63/shcst/foundation/shell/binder"
	"github.com/msto63/shcst/foundation/shell/builder"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/lexer"
	"github.com/msto63/shcst/foundation/shell/token"
)

// Root selects the grammar rule a parse starts with
type Root int

const (
	// RootFile parses a complete script
	RootFile Root = iota
	// RootArithmetic parses the input as one arithmetic expression
	RootArithmetic
	// RootHeredocBody parses the input as an expanding heredoc body
	RootHeredocBody
	// RootWord parses the input as a single word
	RootWord
)

var rootNames = map[Root]string{
	RootFile:        "file",
	RootArithmetic:  "arithmetic",
	RootHeredocBody: "heredoc-body",
	RootWord:        "word",
}

func (r Root) String() string {
	if name, ok := rootNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Root(%d)", int(r))
}

// ParseRoot converts a root name as used on the command line
func ParseRoot(name string) (Root, error) {
	for r, n := range rootNames {
		if n == name {
			return r, nil
		}
	}
	return RootFile, mdwerror.Newf("unknown parse root %q", name).
		WithCode(mdwerror.CodeUnsupportedRoot).
		WithOperation("parser.ParseRoot")
}

// Options configures a parse
type Options struct {
	Version       dialect.Version
	Policy        *binder.Policy
	Logger        *mdwlog.Logger
	Debug         bool
	Shebang       bool
	CheckInterval int
	MaxDepth      int
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{
		Version:       dialect.Default,
		Policy:        binder.DefaultPolicy(),
		Logger:        mdwlog.Discard(),
		Shebang:       true,
		CheckInterval: builder.DefaultCheckInterval,
		MaxDepth:      builder.DefaultMaxDepth,
	}
}

func (o Options) normalized() Options {
	if o.Version == 0 {
		o.Version = dialect.Default
	}
	if o.Policy == nil {
		o.Policy = binder.DefaultPolicy()
	}
	if o.Logger == nil {
		o.Logger = mdwlog.Discard()
	}
	return o
}

// Result is the outcome of one parse
type Result struct {
	Tree     *cst.Tree
	Tokens   []token.Token
	Duration time.Duration
	ID       string
}

// ErrorCount returns the number of error nodes and malformed tokens
func (r *Result) ErrorCount() int {
	if r == nil || r.Tree == nil {
		return 0
	}
	return len(cst.Validate(r.Tree.Root))
}

// Parse parses a complete script
func Parse(ctx context.Context, src string, opts Options) (*Result, error) {
	return ParseFragment(ctx, src, RootFile, opts)
}

// ParseString parses src with default options
func ParseString(src string) *cst.Tree {
	res, _ := Parse(context.Background(), src, DefaultOptions())
	if res == nil {
		return nil
	}
	return res.Tree
}

// ParseFragment parses src starting at the given root rule. A cancelled
// context yields the partial tree together with a CodeCancelled error.
func ParseFragment(ctx context.Context, src string, root Root, opts Options) (res *Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts = opts.normalized()
	if !opts.Version.IsValid() {
		return nil, mdwerror.Newf("invalid language version %d", int(opts.Version)).
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("parser.Parse")
	}
	if _, ok := rootNames[root]; !ok {
		return nil, mdwerror.Newf("unsupported parse root %d", int(root)).
			WithCode(mdwerror.CodeUnsupportedRoot).
			WithOperation("parser.Parse")
	}

	id := uuid.New().String()
	logger := opts.Logger.WithParseID(id)
	ctx, span := startParseSpan(ctx, root, opts.Version, len(src))
	defer span.End()

	logger.Debug("Starting shell parse", mdwlog.Fields{
		"root":    root.String(),
		"dialect": opts.Version.String(),
		"bytes":   len(src),
	})
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(*mdwerror.Error)
			if !ok {
				panic(r)
			}
			res = nil
			err = perr.WithDetail("parse_id", id)
			logger.LogError(err)
			setParseSpanResult(span, 0, 0, err)
		}
	}()

	lexOpts := []lexer.Option{lexer.WithShebang(opts.Shebang)}
	switch root {
	case RootArithmetic:
		lexOpts = append(lexOpts, lexer.WithInitialMode(lexer.ModeArithmetic))
	case RootHeredocBody:
		lexOpts = append(lexOpts, lexer.WithInitialMode(lexer.ModeHeredocBody))
	}
	b := builder.New(ctx, lexer.New(src, lexOpts...),
		builder.WithVersion(opts.Version),
		builder.WithPolicy(opts.Policy),
		builder.WithLogger(logger),
		builder.WithDebug(opts.Debug),
		builder.WithCheckInterval(opts.CheckInterval),
		builder.WithMaxDepth(opts.MaxDepth),
	)

	p := &parser{b: b}
	p.parseRoot(root)
	tree := b.Build()
	tree.ID = id

	res = &Result{
		Tree:     tree,
		Tokens:   tree.Tokens,
		Duration: time.Since(start),
		ID:       id,
	}
	errCount := len(tree.Errors())
	err = b.Err()

	recordParseMetrics(ctx, res.Duration, opts.Version, errCount, err != nil)
	setParseSpanResult(span, len(tree.Tokens), errCount, err)
	logger.Debug("Shell parse finished", mdwlog.Fields{
		"tokens":      len(tree.Tokens),
		"errors":      errCount,
		"duration_ms": res.Duration.Milliseconds(),
		"cancelled":   err != nil,
	})
	return res, err
}

// parseRoot runs the root rule and wraps unparsed input left by a
// cancellation or a fragment rule into an error node
func (p *parser) parseRoot(root Root) {
	b := p.b
	m := b.Mark()
	switch root {
	case RootFile:
		p.list(listStops{})
	case RootArithmetic:
		b.WithMode(builder.ModeArithmetic, func() {
			p.arithUntil(token.EOF)
			for !b.EOF() {
				b.ErrorAdvance(unexpected(b.Token()))
			}
		})
	case RootHeredocBody:
		p.heredocContent()
	case RootWord:
		if p.atWordStart() {
			p.word()
		}
		for !b.EOF() {
			b.ErrorAdvance("expected a single word")
		}
	}
	if b.Cancelled() {
		rest := b.Mark()
		b.ConsumeRest()
		rest.Error("parse cancelled")
	}
	m.Done(cst.NodeFile)
}
