// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     render
// Description: Output formats for trees, tokens and problems: indented dump,
//              JSON and a colored tree drawn with lipgloss
// Author:      msto63
// Created:     2026-10-07
// License:     MIT
// ============================================================================

package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/parser"
	"github.com/msto63/shcst/foundation/shell/token"
)

// Format selects the tree output
type Format int

const (
	FormatDump Format = iota
	FormatJSON
	FormatColor
)

func (f Format) String() string {
	switch f {
	case FormatDump:
		return "dump"
	case FormatJSON:
		return "json"
	case FormatColor:
		return "color"
	default:
		return "unknown"
	}
}

// ParseFormat converts a --format value
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dump", "":
		return FormatDump, nil
	case "json":
		return FormatJSON, nil
	case "color", "colour":
		return FormatColor, nil
	}
	return FormatDump, mdwerror.Newf("unknown output format %q", s).
		WithCode(mdwerror.CodeInvalidInput).
		WithOperation("render.ParseFormat").
		WithDetail("known", []string{"dump", "json", "color"})
}

// Options controls tree rendering
type Options struct {
	Format     Format
	HideTrivia bool
	// Kinds restricts the JSON and color output to subtrees rooted at
	// nodes of these kinds; empty renders the whole tree
	Kinds []cst.NodeKind
}

// Tree writes the parse result in the selected format
func Tree(w io.Writer, res *parser.Result, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return JSON(w, res, opts)
	case FormatColor:
		_, err := io.WriteString(w, Color(res.Tree, opts))
		return err
	default:
		return Dump(w, res.Tree, opts)
	}
}

// Dump writes the indented kind/text listing
func Dump(w io.Writer, tree *cst.Tree, opts Options) error {
	sv := cst.NewStringVisitor()
	sv.HideTrivia = opts.HideTrivia
	for _, n := range roots(tree, opts.Kinds) {
		sv.Reset()
		cst.Accept(n, sv)
		if _, err := io.WriteString(w, sv.String()); err != nil {
			return err
		}
	}
	return nil
}

func roots(tree *cst.Tree, kinds []cst.NodeKind) []*cst.Node {
	if len(kinds) == 0 {
		return []*cst.Node{tree.Root}
	}
	return tree.Find(kinds...)
}

// JSONNode is the JSON form of an element
type JSONNode struct {
	Kind     string     `json:"kind"`
	Start    int        `json:"start"`
	End      int        `json:"end"`
	Text     *string    `json:"text,omitempty"`
	Message  string     `json:"message,omitempty"`
	Children []JSONNode `json:"children,omitempty"`
}

// JSONProblem is one error region
type JSONProblem struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// JSONDocument is the top-level JSON output
type JSONDocument struct {
	ID         string        `json:"id"`
	Dialect    string        `json:"dialect"`
	DurationMS float64       `json:"duration_ms"`
	Tokens     int           `json:"tokens"`
	Problems   []JSONProblem `json:"problems"`
	Nodes      []JSONNode    `json:"nodes"`
}

// Document builds the JSON document for a result
func Document(res *parser.Result, opts Options) JSONDocument {
	tree := res.Tree
	doc := JSONDocument{
		ID:         res.ID,
		Dialect:    tree.Version.String(),
		DurationMS: float64(res.Duration.Microseconds()) / 1000,
		Tokens:     len(tree.Tokens),
		Problems:   Problems(tree),
	}
	for _, n := range roots(tree, opts.Kinds) {
		doc.Nodes = append(doc.Nodes, toJSON(n, opts.HideTrivia))
	}
	return doc
}

// JSON writes the JSON document
func JSON(w io.Writer, res *parser.Result, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Document(res, opts))
}

func toJSON(e cst.Element, hideTrivia bool) JSONNode {
	s := e.Span()
	switch v := e.(type) {
	case *cst.Leaf:
		text := v.Token.Text
		return JSONNode{Kind: v.Token.Kind.String(), Start: s.Start, End: s.End, Text: &text}
	case *cst.Node:
		out := JSONNode{Kind: v.Kind.String(), Start: s.Start, End: s.End, Message: v.Message}
		for _, c := range v.Children {
			if l, ok := c.(*cst.Leaf); ok && hideTrivia && l.Token.Kind.IsTrivia() {
				continue
			}
			out.Children = append(out.Children, toJSON(c, hideTrivia))
		}
		return out
	}
	return JSONNode{}
}

// Problems lists error nodes and malformed tokens with positions
func Problems(tree *cst.Tree) []JSONProblem {
	idx := token.NewLineIndex(tree.Source)
	out := []JSONProblem{}
	for _, p := range cst.Validate(tree.Root) {
		pos := idx.Position(p.Span.Start)
		out = append(out, JSONProblem{
			Start:   p.Span.Start,
			End:     p.Span.End,
			Line:    pos.Line,
			Column:  pos.Column,
			Message: p.Message,
		})
	}
	return out
}

// WriteProblems writes one "path:line:col: message" line per problem
func WriteProblems(w io.Writer, path string, tree *cst.Tree) (int, error) {
	problems := Problems(tree)
	for _, p := range problems {
		if _, err := fmt.Fprintf(w, "%s:%d:%d: %s\n", path, p.Line, p.Column, p.Message); err != nil {
			return 0, err
		}
	}
	return len(problems), nil
}

// Tokens writes one line per token: position, kind, channel and text
func Tokens(w io.Writer, src string, tokens []token.Token, hideTrivia bool) error {
	idx := token.NewLineIndex(src)
	for _, t := range tokens {
		if hideTrivia && t.Kind.IsTrivia() {
			continue
		}
		pos := idx.Position(t.Span.Start)
		if _, err := fmt.Fprintf(w, "%-8s %-20s %-10s %q\n", pos, t.Kind, t.Channel(), t.Text); err != nil {
			return err
		}
	}
	return nil
}
