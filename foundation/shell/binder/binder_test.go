package binder

import (
	"testing"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/token"
)

func run(kinds ...token.Kind) []token.Token {
	texts := map[token.Kind]string{
		token.Whitespace:       " ",
		token.Comment:          "# c",
		token.LineContinuation: "\\\n",
	}
	out := make([]token.Token, len(kinds))
	for i, k := range kinds {
		out[i] = token.Token{Kind: k, Text: texts[k]}
	}
	return out
}

func TestBinders(t *testing.T) {
	ws, cm, lc := token.Whitespace, token.Comment, token.LineContinuation

	tests := []struct {
		name     string
		binder   Binder
		tokens   []token.Token
		edge     bool
		expected int
	}{
		{"default left excludes", DefaultLeft, run(ws, cm), false, 2},
		{"default left includes at stream edge", DefaultLeft, run(ws, cm), true, 0},
		{"default right excludes", DefaultRight, run(ws, cm), false, 0},
		{"exclude left ignores edge", ExcludeLeft, run(ws), true, 1},
		{"include all right", IncludeAllRight, run(ws, cm, ws), false, 3},
		{"trailing comment", TrailingComment, run(ws, cm), false, 2},
		{"trailing comment directly", TrailingComment, run(cm), false, 1},
		{"trailing comment needs comment", TrailingComment, run(ws), false, 0},
		{"trailing comment stops at continuation", TrailingComment, run(ws, lc, cm), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.binder.EdgePosition(tt.tokens, tt.edge)
			if got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestTrailingCommentStopsAtNewlineWhitespace(t *testing.T) {
	tokens := []token.Token{{Kind: token.Whitespace, Text: " \n "}, {Kind: token.Comment, Text: "# c"}}
	if got := TrailingComment.EdgePosition(tokens, false); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
}

func TestRecursive(t *testing.T) {
	if IsRecursive(DefaultRight) {
		t.Error("Did not expect DefaultRight to be recursive")
	}
	r := Recursive(DefaultRight)
	if !IsRecursive(r) {
		t.Error("Expected wrapped binder to be recursive")
	}
	if r.EdgePosition(run(token.Whitespace), false) != 0 {
		t.Error("Expected wrapped binder to delegate")
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Right(cst.NodeSimpleCommand).EdgePosition(run(token.Whitespace, token.Comment), false) != 2 {
		t.Error("Expected commands to take trailing comments")
	}
	if p.Right(cst.NodeWord).EdgePosition(run(token.Whitespace, token.Comment), false) != 0 {
		t.Error("Expected words to exclude trailing comments")
	}
	if p.Left(cst.NodeWord).EdgePosition(run(token.Whitespace), false) != 1 {
		t.Error("Expected default left binder")
	}
}

func TestPolicyFromConfig(t *testing.T) {
	p, err := PolicyFromConfig(Config{TrailingComments: false, Recursive: []string{"group"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.Right(cst.NodeSimpleCommand).EdgePosition(run(token.Whitespace, token.Comment), false) != 0 {
		t.Error("Expected trailing comments to be disabled")
	}
	if !IsRecursive(p.Right(cst.NodeGroup)) {
		t.Error("Expected Group right edge to be recursive")
	}
	if p.Left(cst.NodeWord).EdgePosition(run(token.Whitespace), true) != 1 {
		t.Error("Expected leading trivia to stay outside at the file start")
	}

	_, err = PolicyFromConfig(Config{Recursive: []string{"NoSuchKind"}})
	if !mdwerror.HasCode(err, mdwerror.CodeInvalidConfig) {
		t.Errorf("Expected CodeInvalidConfig, got %v", err)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-1, 3) != 0 || Clamp(5, 3) != 3 || Clamp(2, 3) != 2 {
		t.Error("Unexpected clamp result")
	}
}
