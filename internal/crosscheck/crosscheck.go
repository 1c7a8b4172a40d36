// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     crosscheck
// Description: Compares the verdict of the shcst parser with independent
//              reference parsers (mvdan/sh, tree-sitter-bash)
// Author:      msto63
// Created:     2026-10-06
// License:     MIT
// ============================================================================

package crosscheck

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/parser"
	"github.com/msto63/shcst/foundation/shell/token"
)

// OwnName identifies the shcst parser in reports
const OwnName = "shcst"

// Diagnostic is one syntax problem reported by a parser
type Diagnostic struct {
	Offset   int            `json:"offset"`
	Position token.Position `json:"position"`
	Message  string         `json:"message"`
}

// Verdict is what one parser thinks of a source
type Verdict struct {
	Parser   string `json:"parser"`
	Accepted bool   `json:"accepted"`
	// Statements counts top-level statements; -1 when unknown
	Statements  int           `json:"statements"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// MismatchKind classifies a disagreement
type MismatchKind string

const (
	MismatchAcceptance MismatchKind = "acceptance"
	MismatchStatements MismatchKind = "statements"
)

// Mismatch is one disagreement between shcst and a reference parser
type Mismatch struct {
	Oracle string       `json:"oracle"`
	Kind   MismatchKind `json:"kind"`
	Detail string       `json:"detail"`
}

// Report collects all verdicts for one source
type Report struct {
	Path       string     `json:"path,omitempty"`
	Own        Verdict    `json:"own"`
	Oracles    []Verdict  `json:"oracles"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// Agrees reports whether every oracle agreed with shcst
func (r *Report) Agrees() bool {
	return len(r.Mismatches) == 0
}

// Err returns a CodeCrosscheckMismatch error describing the mismatches
func (r *Report) Err() error {
	if r.Agrees() {
		return nil
	}
	parts := make([]string, len(r.Mismatches))
	for i, m := range r.Mismatches {
		parts[i] = fmt.Sprintf("%s %s: %s", m.Oracle, m.Kind, m.Detail)
	}
	return mdwerror.New("parsers disagree: "+strings.Join(parts, "; ")).
		WithCode(mdwerror.CodeCrosscheckMismatch).
		WithOperation("crosscheck.Run").
		WithDetail("path", r.Path).
		WithDetail("mismatches", len(r.Mismatches))
}

// Oracle is a reference parser
type Oracle interface {
	Name() string
	Check(ctx context.Context, src string, v dialect.Version) (Verdict, error)
}

var registry = map[string]func() Oracle{
	"mvdan":      func() Oracle { return NewMvdan() },
	"treesitter": func() Oracle { return NewTreeSitter() },
}

// Names returns the names of the known oracles
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Oracles resolves oracle names
func Oracles(names []string) ([]Oracle, error) {
	out := make([]Oracle, 0, len(names))
	for _, n := range names {
		ctor, ok := registry[n]
		if !ok {
			return nil, mdwerror.Newf("unknown oracle %q", n).
				WithCode(mdwerror.CodeInvalidInput).
				WithOperation("crosscheck.Oracles").
				WithDetail("known", Names())
		}
		out = append(out, ctor())
	}
	return out, nil
}

// OwnVerdict derives the shcst verdict from a parse result
func OwnVerdict(res *parser.Result) Verdict {
	tree := res.Tree
	idx := token.NewLineIndex(tree.Source)

	v := Verdict{Parser: OwnName, Duration: res.Duration}
	for _, p := range cst.Validate(tree.Root) {
		v.Diagnostics = append(v.Diagnostics, Diagnostic{
			Offset:   p.Span.Start,
			Position: idx.Position(p.Span.Start),
			Message:  p.Message,
		})
	}
	v.Accepted = len(v.Diagnostics) == 0
	v.Statements = TopLevelStatements(tree)
	return v
}

// TopLevelStatements counts the statements directly under the file node
func TopLevelStatements(tree *cst.Tree) int {
	n := 0
	for _, c := range tree.Root.Nodes() {
		if c.Kind != cst.NodeError {
			n++
		}
	}
	return n
}

// Run parses src with shcst (unless res is given) and every oracle and
// collects the disagreements. Oracle failures other than syntax errors
// are returned as errors.
func Run(ctx context.Context, path, src string, res *parser.Result, opts parser.Options, oracles ...Oracle) (*Report, error) {
	if res == nil {
		var err error
		res, err = parser.Parse(ctx, src, opts)
		if err != nil {
			return nil, err
		}
	}

	report := &Report{Path: path, Own: OwnVerdict(res)}
	for _, o := range oracles {
		verdict, err := o.Check(ctx, src, res.Tree.Version)
		if err != nil {
			return nil, mdwerror.Wrap(err, "reference parser failed").
				WithOperation("crosscheck.Run").
				WithDetail("oracle", o.Name()).
				WithDetail("path", path)
		}
		report.Oracles = append(report.Oracles, verdict)
		report.Mismatches = append(report.Mismatches, compare(report.Own, verdict)...)
	}
	return report, nil
}

func compare(own, other Verdict) []Mismatch {
	var out []Mismatch
	if own.Accepted != other.Accepted {
		out = append(out, Mismatch{
			Oracle: other.Parser,
			Kind:   MismatchAcceptance,
			Detail: fmt.Sprintf("%s accepted=%t, %s accepted=%t", own.Parser, own.Accepted, other.Parser, other.Accepted),
		})
		return out
	}
	// statement counts are only comparable for inputs both sides accept
	if own.Accepted && other.Statements >= 0 && own.Statements != other.Statements {
		out = append(out, Mismatch{
			Oracle: other.Parser,
			Kind:   MismatchStatements,
			Detail: fmt.Sprintf("%s found %d statements, %s found %d", own.Parser, own.Statements, other.Parser, other.Statements),
		})
	}
	return out
}
