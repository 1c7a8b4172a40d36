package crosscheck

import (
	"context"
	"errors"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"

	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/token"
)

// Mvdan checks sources with mvdan.cc/sh in bash mode. It knows no bash-3
// variant, so both dialects are checked against its bash grammar.
type Mvdan struct{}

// NewMvdan creates the mvdan/sh oracle
func NewMvdan() *Mvdan {
	return &Mvdan{}
}

// Name returns the oracle name
func (*Mvdan) Name() string { return "mvdan" }

// Check parses src and reports its verdict
func (m *Mvdan) Check(ctx context.Context, src string, _ dialect.Version) (Verdict, error) {
	start := time.Now()
	v := Verdict{Parser: m.Name(), Statements: -1}
	if err := ctx.Err(); err != nil {
		return v, err
	}

	p := syntax.NewParser(syntax.Variant(syntax.LangBash), syntax.KeepComments(true))
	f, err := p.Parse(strings.NewReader(src), "")
	v.Duration = time.Since(start)

	var perr syntax.ParseError
	var lerr syntax.LangError
	switch {
	case err == nil:
		v.Accepted = true
		v.Statements = len(f.Stmts)
	case errors.As(err, &perr):
		off := int(perr.Pos.Offset())
		v.Diagnostics = []Diagnostic{{
			Offset:   off,
			Position: token.NewLineIndex(src).Position(off),
			Message:  perr.Text,
		}}
	case errors.As(err, &lerr):
		off := int(lerr.Pos.Offset())
		v.Diagnostics = []Diagnostic{{
			Offset:   off,
			Position: token.NewLineIndex(src).Position(off),
			Message:  lerr.Error(),
		}}
	default:
		return v, err
	}
	return v, nil
}
