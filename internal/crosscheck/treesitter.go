package crosscheck

import (
	"context"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"

	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/token"
)

// maxDiagnostics bounds the error nodes collected from one tree
const maxDiagnostics = 50

// TreeSitter checks sources with the tree-sitter bash grammar
type TreeSitter struct{}

// NewTreeSitter creates the tree-sitter oracle
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{}
}

// Name returns the oracle name
func (*TreeSitter) Name() string { return "treesitter" }

// Check parses src and reports its verdict
func (t *TreeSitter) Check(ctx context.Context, src string, _ dialect.Version) (Verdict, error) {
	start := time.Now()
	v := Verdict{Parser: t.Name(), Statements: -1}

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(bash.GetLanguage())

	tree, err := p.ParseCtx(ctx, nil, []byte(src))
	if err != nil {
		return v, err
	}
	defer tree.Close()
	v.Duration = time.Since(start)

	root := tree.RootNode()
	if !root.HasError() {
		v.Accepted = true
		v.Statements = statements(root)
		return v, nil
	}

	idx := token.NewLineIndex(src)
	collect(root, idx, &v.Diagnostics, 0)
	if len(v.Diagnostics) == 0 {
		// HasError can be set without a reachable ERROR or MISSING node
		v.Diagnostics = append(v.Diagnostics, Diagnostic{Position: idx.Position(0), Message: "syntax error"})
	}
	return v, nil
}

// statements counts the named top-level children that are statements
func statements(root *sitter.Node) int {
	n := 0
	for i := 0; i < int(root.NamedChildCount()); i++ {
		switch root.NamedChild(i).Type() {
		case "comment", "heredoc_body":
		default:
			n++
		}
	}
	return n
}

func collect(n *sitter.Node, idx *token.LineIndex, out *[]Diagnostic, depth int) {
	if depth > 1000 || len(*out) >= maxDiagnostics {
		return
	}
	if n.IsError() || n.IsMissing() {
		off := int(n.StartByte())
		msg := "syntax error"
		if n.IsMissing() {
			msg = "missing " + n.Type()
		}
		*out = append(*out, Diagnostic{Offset: off, Position: idx.Position(off), Message: msg})
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		collect(n.Child(i), idx, out, depth+1)
	}
}
