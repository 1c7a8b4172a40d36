// File: builder_test.go
// Title: Builder Unit Tests
// Description: Marker protocol, rollback state restoration, precede and
//              drop, edge binding, misuse detection, cancellation and
//              the depth guard.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-20
// Modified: 2026-10-08
//
// Change History:
// - 2026-09-20 v0.1.0: Initial test suite

package builder

import (
	"context"
	"reflect"
	"strings"
	"testing"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	"github.com/msto63/shcst/foundation/shell/binder"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/lexer"
	"github.com/msto63/shcst/foundation/shell/token"
)

func newBuilder(src string, opts ...Option) *Builder {
	return New(context.Background(), lexer.New(src), opts...)
}

// wordsAsCommands parses every line as one SimpleCommand of Words
func wordsAsCommands(b *Builder) *cst.Tree {
	root := b.Mark()
	for !b.EOF() {
		if b.Is(token.Newline) {
			b.Advance()
			continue
		}
		cmd := b.Mark()
		for !b.EOF() && !b.Is(token.Newline) {
			w := b.Mark()
			b.Advance()
			w.Done(cst.NodeWord)
		}
		cmd.Done(cst.NodeSimpleCommand)
	}
	root.Done(cst.NodeFile)
	return b.Build()
}

func expectPanicCode(t *testing.T, code mdwerror.Code, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic with %s", code)
		}
		err, ok := r.(*mdwerror.Error)
		if !ok {
			t.Fatalf("expected *mdwerror.Error, got %T", r)
		}
		if err.Code() != code {
			t.Errorf("expected code %s, got %s", code, err.Code())
		}
	}()
	fn()
}

func TestBuilder_CursorSkipsTrivia(t *testing.T) {
	b := newBuilder("  echo \\\n hi # c\n")
	if b.TokenKind() != token.Word || b.TokenText() != "echo" {
		t.Fatalf("expected first word, got %s %q", b.TokenKind(), b.TokenText())
	}
	if b.Adjacent() {
		t.Error("first token must not be adjacent to anything")
	}
	b.Advance()
	if b.TokenText() != "hi" {
		t.Fatalf("expected hi, got %q", b.TokenText())
	}
	if b.Adjacent() {
		t.Error("words separated by blanks are not adjacent")
	}
	if b.Lookahead(1) != token.Newline {
		t.Errorf("comment must be skipped by lookahead, got %s", b.Lookahead(1))
	}
	if b.RawLookahead(0).Kind != token.Whitespace {
		t.Errorf("raw lookahead must see trivia, got %s", b.RawLookahead(0).Kind)
	}
}

func TestBuilder_AdjacentAcrossLineContinuation(t *testing.T) {
	b := newBuilder("ab\\\ncd")
	b.Advance()
	if !b.Adjacent() {
		t.Error("a line continuation joins word parts")
	}

	b = newBuilder("a\"b\" c")
	if !b.AdjacentAt(1) {
		t.Error("quote start directly follows the word")
	}
}

func TestBuilder_LookaheadStopsAtEOF(t *testing.T) {
	b := newBuilder("a")
	for k := 1; k < 4; k++ {
		if got := b.Lookahead(k); got != token.EOF {
			t.Errorf("Lookahead(%d) = %s, want EOF", k, got)
		}
	}
	b.Advance()
	b.Advance()
	if !b.EOF() {
		t.Error("advance past EOF must stay at EOF")
	}
}

func TestBuilder_RoundTripAndNesting(t *testing.T) {
	src := "# head\necho  a b # tail\n\nls\n"
	tree := wordsAsCommands(newBuilder(src))

	if got := tree.Reconstruct(); got != src {
		t.Fatalf("round trip failed:\n got %q\nwant %q", got, src)
	}
	if tree.Root.Range != (token.Span{Start: 0, End: len(src)}) {
		t.Errorf("root must span the source, got %s", tree.Root.Range)
	}
	cmds := tree.Find(cst.NodeSimpleCommand)
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if text := tree.Text(cmds[0]); text != "echo  a b # tail" {
		t.Errorf("trailing comment binds to the command, got %q", text)
	}
	if text := tree.Text(cmds[1]); text != "ls" {
		t.Errorf("unexpected second command %q", text)
	}
	for _, w := range tree.Find(cst.NodeWord) {
		if strings.TrimSpace(tree.Text(w)) != tree.Text(w) {
			t.Errorf("word %q must not own whitespace", tree.Text(w))
		}
	}
}

func TestBuilder_RollbackRestoresState(t *testing.T) {
	b := newBuilder("f() { x; }\n")
	b.PushHeredoc(PendingHeredoc{Marker: "EOF"})
	before := b.Snapshot()
	kindsBefore := append([]token.Kind(nil), b.kinds...)

	root := b.Mark()
	m := b.Mark()
	restore := b.PushMode(ModeNoKeywords | ModeCasePattern)
	_ = restore
	b.RemapCurrent(token.KwFunction)
	b.Advance()
	inner := b.Mark()
	b.Advance()
	b.PopHeredoc()
	b.PushHeredoc(PendingHeredoc{Marker: "X"})
	inner.Done(cst.NodeWord)
	b.Mark() // left open, discarded by the rollback

	m.Rollback()

	after := b.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("snapshot differs after rollback:\nbefore %+v\nafter  %+v", before, after)
	}
	if !reflect.DeepEqual(kindsBefore, b.kinds[:len(kindsBefore)]) {
		t.Error("remapped kinds were not restored")
	}
	if len(b.open) != 1 || b.open[0] != root {
		t.Fatalf("only the root may remain open, got %d markers", len(b.open))
	}
	if inner.Open() || m.Open() {
		t.Error("rolled back markers must be closed")
	}

	for !b.EOF() {
		b.Advance()
	}
	root.Done(cst.NodeFile)
	tree := b.Build()
	if len(tree.Root.Nodes()) != 0 {
		t.Errorf("rolled back nodes leaked into the tree: %s", tree)
	}
	if tree.Reconstruct() != "f() { x; }\n" {
		t.Error("round trip failed after rollback")
	}
}

func TestBuilder_Precede(t *testing.T) {
	b := newBuilder("a | b")
	root := b.Mark()
	left := b.Mark()
	b.Advance()
	left.Done(cst.NodeSimpleCommand)
	pipe := left.Precede()
	b.Advance()
	right := b.Mark()
	b.Advance()
	right.Done(cst.NodeSimpleCommand)
	pipe.Done(cst.NodePipeline)
	root.Done(cst.NodeFile)
	tree := b.Build()

	nodes := tree.Root.Nodes()
	if len(nodes) != 1 || nodes[0].Kind != cst.NodePipeline {
		t.Fatalf("expected a single pipeline, got:\n%s", tree)
	}
	if tree.Text(nodes[0]) != "a | b" {
		t.Errorf("pipeline text %q", tree.Text(nodes[0]))
	}
	if len(nodes[0].Nodes()) != 2 {
		t.Errorf("pipeline must own both commands")
	}
}

func TestBuilder_PrecedeOpenMarker(t *testing.T) {
	b := newBuilder("x y")
	root := b.Mark()
	inner := b.Mark()
	outer := inner.Precede()
	b.Advance()
	inner.Done(cst.NodeWord)
	b.Advance()
	outer.Done(cst.NodeSimpleCommand)
	root.Done(cst.NodeFile)
	tree := b.Build()

	cmd := tree.Root.Child(cst.NodeSimpleCommand)
	if cmd == nil || cmd.Child(cst.NodeWord) == nil {
		t.Fatalf("preceding marker must enclose the open one:\n%s", tree)
	}
}

func TestBuilder_Drop(t *testing.T) {
	b := newBuilder("a b")
	root := b.Mark()
	m := b.Mark()
	w := b.Mark()
	b.Advance()
	w.Done(cst.NodeWord)
	m.Drop()
	b.Advance()
	root.Done(cst.NodeFile)
	tree := b.Build()

	if tree.Root.Child(cst.NodeWord) == nil {
		t.Errorf("children of a dropped marker belong to the parent:\n%s", tree)
	}
	if len(tree.Leaves()) != 3 {
		t.Errorf("expected 3 leaves, got %d", len(tree.Leaves()))
	}
}

func TestBuilder_Errors(t *testing.T) {
	b := newBuilder("if x")
	root := b.Mark()
	b.ErrorAdvance("unexpected if")
	b.Advance()
	b.Expect(token.KwFi, "expected fi")
	root.Done(cst.NodeFile)
	tree := b.Build()

	errs := tree.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d:\n%s", len(errs), tree)
	}
	if errs[0].Message != "unexpected if" || tree.Text(errs[0]) != "if" {
		t.Errorf("first error %q covering %q", errs[0].Message, tree.Text(errs[0]))
	}
	if errs[1].Range.Len() != 0 || errs[1].Range.Start != len("if x") {
		t.Errorf("missing token error must be zero-width at the end, got %s", errs[1].Range)
	}
}

func TestBuilder_Misuse(t *testing.T) {
	t.Run("done out of order", func(t *testing.T) {
		b := newBuilder("a")
		outer := b.Mark()
		b.Mark()
		expectPanicCode(t, mdwerror.CodeMarkerImbalance, func() { outer.Done(cst.NodeWord) })
	})
	t.Run("done twice", func(t *testing.T) {
		b := newBuilder("a")
		m := b.Mark()
		m.Done(cst.NodeWord)
		expectPanicCode(t, mdwerror.CodeBuilderMisuse, func() { m.Done(cst.NodeWord) })
	})
	t.Run("rollback after drop", func(t *testing.T) {
		b := newBuilder("a")
		m := b.Mark()
		m.Drop()
		expectPanicCode(t, mdwerror.CodeBuilderMisuse, func() { m.Rollback() })
	})
	t.Run("build with open marker", func(t *testing.T) {
		b := newBuilder("a")
		root := b.Mark()
		b.Mark()
		_ = root
		expectPanicCode(t, mdwerror.CodeMarkerImbalance, func() { b.Build() })
	})
}

func TestBuilder_CustomBinders(t *testing.T) {
	src := "a # c\n"
	b := newBuilder(src, WithPolicy(binder.NewPolicy(binder.DefaultLeft, binder.DefaultRight)))
	root := b.Mark()
	cmd := b.Mark()
	b.Advance()
	cmd.Done(cst.NodeSimpleCommand)
	b.Advance()
	root.Done(cst.NodeFile)
	tree := b.Build()
	if got := tree.Text(tree.Root.Child(cst.NodeSimpleCommand)); got != "a" {
		t.Errorf("default right binder keeps the comment outside, got %q", got)
	}

	b = newBuilder(src, WithPolicy(binder.NewPolicy(binder.DefaultLeft, binder.DefaultRight)))
	root = b.Mark()
	cmd = b.Mark()
	b.Advance()
	cmd.Done(cst.NodeSimpleCommand)
	cmd.SetBinders(nil, binder.TrailingComment)
	b.Advance()
	root.Done(cst.NodeFile)
	tree = b.Build()
	if got := tree.Text(tree.Root.Child(cst.NodeSimpleCommand)); got != "a # c" {
		t.Errorf("marker binder must take precedence, got %q", got)
	}
}

func TestBuilder_Modes(t *testing.T) {
	b := newBuilder("")
	if !b.HasMode(ModeAssignments) {
		t.Fatal("assignments are enabled at the start")
	}
	b.WithMode(ModeArithmetic, func() {
		if !b.HasMode(ModeArithmetic | ModeAssignments) {
			t.Error("WithMode must add flags")
		}
		b.WithoutMode(ModeAssignments, func() {
			if b.HasMode(ModeAssignments) {
				t.Error("WithoutMode must remove flags")
			}
		})
	})
	if b.Mode() != ModeAssignments {
		t.Errorf("modes not restored, got %b", b.Mode())
	}
	restore := b.PushMode(ModeCondition)
	restore()
	restore()
	if b.Mode() != ModeAssignments {
		t.Error("restore must be idempotent")
	}
}

func TestBuilder_HeredocQueue(t *testing.T) {
	b := newBuilder("")
	b.PushHeredoc(PendingHeredoc{Marker: "A"})
	b.PushHeredoc(PendingHeredoc{Marker: "B", StripTabs: true})
	if b.PendingHeredocs() != 2 {
		t.Fatalf("expected 2 pending heredocs")
	}
	first, _ := b.PopHeredoc()
	second, _ := b.PopHeredoc()
	if first.Marker != "A" || second.Marker != "B" || !second.StripTabs {
		t.Errorf("heredocs must be served first in, first out: %+v %+v", first, second)
	}
	if _, ok := b.PopHeredoc(); ok {
		t.Error("empty queue must report false")
	}
}

func TestBuilder_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := strings.Repeat("echo x\n", 200)
	b := New(ctx, lexer.New(src), WithCheckInterval(10))

	root := b.Mark()
	for i := 0; i < 5; i++ {
		b.Advance()
	}
	cancel()
	for steps := 0; !b.EOF(); steps++ {
		if steps > 100 {
			t.Fatal("cancellation was not observed")
		}
		b.Advance()
	}
	if !b.Cancelled() || !mdwerror.HasCode(b.Err(), mdwerror.CodeCancelled) {
		t.Fatalf("expected cancelled builder, err=%v", b.Err())
	}
	rest := b.Mark()
	b.ConsumeRest()
	rest.Error("parse cancelled")
	root.Done(cst.NodeFile)
	tree := b.Build()
	if tree.Reconstruct() != src {
		t.Error("partial tree must still cover the whole source")
	}
}

func TestBuilder_AlreadyCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := New(ctx, lexer.New("echo"))
	if !b.EOF() {
		t.Error("cancelled builder reports EOF")
	}
}

func TestBuilder_DepthGuard(t *testing.T) {
	b := newBuilder("", WithMaxDepth(3))
	for i := 0; i < 3; i++ {
		if !b.Enter() {
			t.Fatalf("depth %d must be allowed", i+1)
		}
	}
	if b.Enter() {
		t.Error("depth 4 must be refused")
	}
	for i := 0; i < 4; i++ {
		b.Leave()
	}
	if !b.Enter() {
		t.Error("depth must recover after Leave")
	}
}

func TestBuilder_Version(t *testing.T) {
	b := newBuilder("", WithVersion(dialect.V3))
	if b.Supports(dialect.AssocArrays) {
		t.Error("associative arrays are not available in version 3")
	}
	if !newBuilder("").Supports(dialect.AssocArrays) {
		t.Error("default version supports associative arrays")
	}
}
