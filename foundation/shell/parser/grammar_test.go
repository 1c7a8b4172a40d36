// File: grammar_test.go
// Title: Grammar Shape Tests
// Description: Node shapes of commands, compound commands, words and
//              expressions; heredoc ordering, speculative assignments,
//              keyword promotion and dialect gates.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-28
// Modified: 2026-10-11
//
// Change History:
// - 2026-09-28 v0.1.0: Initial test suite

package parser

import (
	"context"
	"reflect"
	"testing"

	"github.com/msto63/shcst/foundation/shell/builder"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/lexer"
	"github.com/msto63/shcst/foundation/shell/token"
)

func TestGrammar_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Empty", "", "File"},
		{"Comment only", "# nothing\n", "File"},
		{"Two commands", "a\nb\n", "File(SimpleCommand(Word) SimpleCommand(Word))"},
		{"Background", "a & b", "File(SimpleCommand(Word) SimpleCommand(Word))"},
		{"Pipeline", "a | b", "File(Pipeline(SimpleCommand(Word) SimpleCommand(Word)))"},
		{"Pipeline across lines", "a |\n  b", "File(Pipeline(SimpleCommand(Word) SimpleCommand(Word)))"},
		{"Negation", "! a", "File(Pipeline(SimpleCommand(Word)))"},
		{"Time", "time -p a | b", "File(Pipeline(SimpleCommand(Word) SimpleCommand(Word)))"},
		{"And-or", "a | b && c", "File(LogicalList(Pipeline(SimpleCommand(Word) SimpleCommand(Word)) SimpleCommand(Word)))"},
		{"Assignment", "foo=bar", "File(SimpleCommand(Assignment(Word)))"},
		{"Empty assignment", "foo= cmd", "File(SimpleCommand(Assignment Word))"},
		{"Assignment prefix", "LANG=C sort -u", "File(SimpleCommand(Assignment(Word) Word Word))"},
		{"Append assignment", "x+=1", "File(SimpleCommand(Assignment(Word)))"},
		{"Subscript assignment", "a[2]=x", "File(SimpleCommand(Assignment(ArrayIndex Word)))"},
		{"Array literal", "a=(1 two [5]=x)", "File(SimpleCommand(Assignment(ArrayLiteral(Word Word Assignment(ArrayIndex Word)))))"},
		{"Not an assignment", "echo a=b", "File(SimpleCommand(Word Word))"},
		{"Redirections", "a >out 2>&1 <in", "File(SimpleCommand(Word Redirect(Word) Redirect(Word) Redirect(Word)))"},
		{"Prefix redirection", ">out a", "File(SimpleCommand(Redirect(Word) Word))"},
		{"Here-string", "cat <<< \"$x\"", "File(SimpleCommand(Word HereString(Word(String))))"},
		{"Keyword as redirect target", "echo > if", "File(SimpleCommand(Word Redirect(Word)))"},
		{"Double quotes", `echo "a $b ${c}"`, "File(SimpleCommand(Word Word(String(ParamExpansion))))"},
		{"Glued word", `a"b"'c'$d`, "File(SimpleCommand(Word(String)))"},
		{"Command substitution", "echo $(ls -l)", "File(SimpleCommand(Word Word(CommandSubst(SimpleCommand(Word Word)))))"},
		{"Backticks", "echo `ls`", "File(SimpleCommand(Word Word(Backtick(SimpleCommand(Word)))))"},
		{"Process substitution", "diff <(a) >(b)", "File(SimpleCommand(Word Word(ProcessSubst(SimpleCommand(Word))) Word(ProcessSubst(SimpleCommand(Word)))))"},
		{"Default expansion", "echo ${x:-$(y)}", "File(SimpleCommand(Word Word(ParamExpansion(CommandSubst(SimpleCommand(Word))))))"},
		{"Extglob", "ls @(a|b).sh", "File(SimpleCommand(Word Word))"},
		{"Arithmetic expansion", "echo $(( a[1] + 2 ))", "File(SimpleCommand(Word Word(ArithExpansion(ArithBinary(Word(ArrayIndex(Word)) Word)))))"},
		{"Legacy arithmetic", "echo $[1+2]", "File(SimpleCommand(Word Word(ArithExpansion(ArithBinary(Word Word)))))"},
		{"Arithmetic command", "(( x > 1 ))", "File(ArithCommand(ArithBinary(Word Word)))"},
		{"Arithmetic ternary", "(( a ? b : c ))", "File(ArithCommand(ArithTernary(Word Word Word)))"},
		{"Arithmetic assignment", "(( a = b = 1 ))", "File(ArithCommand(ArithBinary(Word ArithBinary(Word Word))))"},
		{"Arithmetic power", "(( 2 ** 3 ** 2 ))", "File(ArithCommand(ArithBinary(Word ArithBinary(Word Word))))"},
		{"Arithmetic unary", "(( -x++ ))", "File(ArithCommand(ArithUnary(ArithPostfix(Word))))"},
		{"Arithmetic group", "(( (1 + 2) * 3 ))", "File(ArithCommand(ArithBinary(ArithGroup(ArithBinary(Word Word)) Word)))"},
		{"Subshell", "(a; b)", "File(Subshell(CompoundList(SimpleCommand(Word) SimpleCommand(Word))))"},
		{"Group with redirect", "{ a; } > out", "File(Group(CompoundList(SimpleCommand(Word)) Redirect(Word)))"},
		{"If else", "if a; then b; elif c; then d; else e; fi",
			"File(If(CompoundList(SimpleCommand(Word)) CompoundList(SimpleCommand(Word)) " +
				"ElifBranch(CompoundList(SimpleCommand(Word)) CompoundList(SimpleCommand(Word))) " +
				"ElseBranch(CompoundList(SimpleCommand(Word)))))"},
		{"For in", "for x in a b; do echo $x; done", "File(For(Word WordList(Word Word) DoGroup(CompoundList(SimpleCommand(Word Word)))))"},
		{"For without in", "for x\ndo :\ndone", "File(For(Word DoGroup(CompoundList(SimpleCommand(Word)))))"},
		{"For with group", "for x in a; { :; }", "File(For(Word WordList(Word) Group(CompoundList(SimpleCommand(Word)))))"},
		{"Arithmetic for", "for ((i=0; i<3; i++)); do :; done",
			"File(ForArith(ArithBinary(Word Word) ArithBinary(Word Word) ArithPostfix(Word) DoGroup(CompoundList(SimpleCommand(Word)))))"},
		{"Select", "select x in a; do break; done", "File(Select(Word WordList(Word) DoGroup(CompoundList(SimpleCommand(Word)))))"},
		{"While", "while true; do :; done", "File(While(CompoundList(SimpleCommand(Word)) DoGroup(CompoundList(SimpleCommand(Word)))))"},
		{"Until", "until a\ndo\n  b\ndone", "File(Until(CompoundList(SimpleCommand(Word)) DoGroup(CompoundList(SimpleCommand(Word)))))"},
		{"Case", "case $x in a|b) echo 1;; *) ;; esac",
			"File(Case(Word CaseClause(CasePattern(Word Word) CompoundList(SimpleCommand(Word Word))) CaseClause(CasePattern(Word) CompoundList)))"},
		{"Case with parens", "case x in\n(a) b\nesac", "File(Case(Word CaseClause(CasePattern(Word) CompoundList(SimpleCommand(Word)))))"},
		{"Case keyword pattern", "case x in if) :;; esac", "File(Case(Word CaseClause(CasePattern(Word) CompoundList(SimpleCommand(Word)))))"},
		{"Conditional", "[[ -f a && $b == c ]]", "File(CondCommand(CondLogical(CondUnary(Word Word) CondBinary(Word Word))))"},
		{"Conditional negation", "[[ ! -z x ]]", "File(CondCommand(CondUnary(CondUnary(Word Word))))"},
		{"Conditional group", "[[ ( a -lt b ) || c ]]", "File(CondCommand(CondLogical(CondGroup(CondBinary(Word Word)) Word)))"},
		{"Conditional regex", "[[ $x =~ ^(a|b)$ ]]", "File(CondCommand(CondBinary(Word Word)))"},
		{"Function", "f() { echo; }", "File(Function(Word Group(CompoundList(SimpleCommand(Word)))))"},
		{"Function keyword", "function g { :; }", "File(Function(Word Group(CompoundList(SimpleCommand(Word)))))"},
		{"Function subshell body", "function g() (:)", "File(Function(Word Subshell(CompoundList(SimpleCommand(Word)))))"},
		{"Coprocess", "coproc w { cat; }", "File(Coproc(Word Group(CompoundList(SimpleCommand(Word)))))"},
		{"Coprocess command", "coproc cat", "File(Coproc(SimpleCommand(Word)))"},
		{"Declaration", "local -r x=1 y", "File(DeclarationCommand(Word Word Assignment(Word) Word))"},
		{"Associative array", "declare -A m=([k]=v)",
			"File(DeclarationCommand(Word Word Assignment(AssocArrayLiteral(Assignment(ArrayIndex Word)))))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t, tt.input)
			checkLossless(t, tree)
			if got := shape(tree.Root); got != tt.want {
				t.Errorf("expected %s\n     got %s", tt.want, got)
			}
			for _, e := range tree.Errors() {
				t.Errorf("unexpected error node %s", cst.Describe(e))
			}
		})
	}
}

func TestGrammar_Recovery(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"Missing fi", "if a; then b", "expected 'fi'"},
		{"Missing then", "if a; fi", "expected 'then'"},
		{"Missing done", "while a; do b", "expected 'done'"},
		{"Missing esac", "case x in a) b;;", "expected 'esac'"},
		{"Unclosed subshell", "(a", "expected ')' to close the subshell"},
		{"Unclosed group", "{ a", "expected '}' to close the group"},
		{"Unclosed substitution", "echo $(a", "expected ')' to close the substitution"},
		{"Unclosed expansion", "echo ${a", "expected '}' to close the parameter expansion"},
		{"Empty condition", "[[ ]]", "expected a conditional expression"},
		{"Missing redirect target", "echo >", "expected a redirection target"},
		{"Pipe without command", "a |", "expected a command after '|'"},
		{"Simple function body", "f() echo", "function body must be a compound command"},
		{"Stray keyword", "done", "unexpected \"done\""},
		{"Unterminated heredoc", "cat <<EOF\nabc\n", "unterminated here-document, expected \"EOF\""},
		{"Arithmetic operand", "(( 1 + ))", "expected an operand after '+'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t, tt.input)
			checkLossless(t, tree)
			for _, e := range tree.Errors() {
				if e.Message == tt.message {
					return
				}
			}
			t.Errorf("expected error %q in\n%s", tt.message, tree)
		})
	}
}

func TestGrammar_HeredocOrder(t *testing.T) {
	src := "cat <<A <<-B\nfirst\nA\n\tsecond\n\tB\necho after\n"
	tree := parse(t, src)
	checkLossless(t, tree)

	docs := tree.Find(cst.NodeHeredoc)
	if len(docs) != 2 {
		t.Fatalf("expected 2 heredoc bodies, got %d", len(docs))
	}
	want := []struct{ content, end string }{{"first\n", "A"}, {"\tsecond\n", "B"}}
	for i, doc := range docs {
		toks := doc.Significant()
		if toks[0].Text != want[i].content || toks[len(toks)-1].Text != want[i].end {
			t.Errorf("body %d: expected %q/%q, got %q/%q",
				i, want[i].content, want[i].end, toks[0].Text, toks[len(toks)-1].Text)
		}
	}
	if docs[0].Range.Start >= docs[1].Range.Start {
		t.Error("bodies must appear in operator order")
	}

	composed := tree.Find(cst.NodeComposedCommand)
	if len(composed) != 1 || composed[0].Nodes()[0].Kind != cst.NodeSimpleCommand {
		t.Fatalf("expected the command and its bodies in one composed command:\n%s", tree)
	}
	if got := len(tree.Find(cst.NodeSimpleCommand)); got != 2 {
		t.Errorf("expected the following command to parse, got %d commands", got)
	}
}

func TestGrammar_HeredocOwnerShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		owner cst.NodeKind
	}{
		{"Compound owner", "while read l; do cat <<E; done\nx\nE\n", cst.NodeWhile},
		{"Pipeline owner", "cat <<E | wc -l\nx\nE\n", cst.NodePipeline},
		{"Logical owner", "cat <<E && b\nx\nE\n", cst.NodeLogicalList},
		{"Separator before newline", "cat <<E &\nx\nE\n", cst.NodeSimpleCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t, tt.input)
			checkLossless(t, tree)
			if len(tree.Errors()) != 0 {
				t.Fatalf("unexpected errors:\n%s", tree)
			}
			top := tree.Root.Nodes()
			if len(top) != 1 || top[0].Kind != cst.NodeComposedCommand {
				t.Fatalf("expected one composed command:\n%s", tree)
			}
			parts := top[0].Nodes()
			if parts[0].Kind != tt.owner || parts[len(parts)-1].Kind != cst.NodeHeredoc {
				t.Errorf("expected %s followed by a heredoc, got %s", tt.owner, shape(top[0]))
			}
		})
	}
}

func TestGrammar_SpeculativeAssignmentRollback(t *testing.T) {
	b := builder.New(context.Background(), lexer.New("foo=bar"))
	p := &parser{b: b}

	root := b.Mark()
	before := b.Snapshot()

	attempt := b.Mark()
	if !p.assignment(false) {
		t.Fatal("foo=bar must parse as an assignment")
	}
	attempt.Rollback()
	if after := b.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("rollback changed the state:\nbefore %+v\nafter  %+v", before, after)
	}

	b.WithoutMode(builder.ModeAssignments, func() {
		p.simpleCommand()
	})
	root.Done(cst.NodeFile)
	tree := b.Build()

	if got := shape(tree.Root); got != "File(SimpleCommand(Word))" {
		t.Errorf("expected a plain word without assignment detection, got %s", got)
	}
	if tree.Reconstruct() != "foo=bar" {
		t.Error("round trip failed")
	}

	if got := shape(parse(t, "foo=bar").Root); got != "File(SimpleCommand(Assignment(Word)))" {
		t.Errorf("expected an assignment by default, got %s", got)
	}
}

func TestGrammar_FailedAssignmentLeavesNoTrace(t *testing.T) {
	for _, src := range []string{"a[1", "a[1] b", "foo =bar", "1x=2"} {
		tree := parse(t, src)
		checkLossless(t, tree)
		if n := len(tree.Find(cst.NodeAssignment, cst.NodeArrayIndex)); n != 0 {
			t.Errorf("%q: rolled back nodes leaked:\n%s", src, tree)
		}
	}
}

func TestGrammar_KeywordPromotion(t *testing.T) {
	tree := parse(t, "if a; then echo if then fi; fi")
	checkLossless(t, tree)

	var kinds []token.Kind
	for _, l := range tree.Leaves() {
		switch l.Token.Text {
		case "if", "then", "fi":
			kinds = append(kinds, l.Kind())
		}
	}
	want := []token.Kind{token.KwIf, token.KwThen, token.Word, token.Word, token.Word, token.KwFi}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("expected %v, got %v", want, kinds)
	}
	if n := len(tree.Find(cst.NodeIf)); n != 1 {
		t.Errorf("expected one if command, got %d", n)
	}

	tree = parse(t, "for done in fi; do echo done; done")
	if n := len(tree.Errors()); n != 0 {
		t.Errorf("keywords in word position must not break the loop:\n%s", tree)
	}
}

func TestGrammar_DialectGates(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  cst.NodeKind
		v4    int
	}{
		{"Associative array", "declare -A m=([k]=v)", cst.NodeAssocArrayLiteral, 1},
		{"Subscript expansion", "echo ${a[1]}", cst.NodeArrayIndex, 1},
		{"Stderr pipe", "a |& b", cst.NodePipeline, 1},
		{"Append both", "a &>> log", cst.NodeRedirect, 1},
		{"Case fallthrough", "case x in a) b;& c) d;;& esac", cst.NodeCaseClause, 2},
		{"Case modification", "echo ${x^^}", cst.NodeParamExpansion, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parseVersion(t, tt.input, dialect.V4)
			checkLossless(t, tree)
			if n := len(tree.Find(tt.kind)); n != tt.v4 {
				t.Errorf("bash4: expected %d %s, got %d", tt.v4, tt.kind, n)
			}
			if len(tree.Errors()) != 0 {
				t.Errorf("bash4: unexpected errors:\n%s", tree)
			}

			tree = parseVersion(t, tt.input, dialect.V3)
			checkLossless(t, tree)
			if len(tree.Errors()) == 0 {
				t.Errorf("bash3: expected a degraded node:\n%s", tree)
			}
		})
	}

	t.Run("Coprocess", func(t *testing.T) {
		tree := parseVersion(t, "coproc cat", dialect.V3)
		if len(tree.Find(cst.NodeCoproc)) != 0 || len(tree.Errors()) != 0 {
			t.Errorf("bash3 treats coproc as a command name:\n%s", tree)
		}
	})

	t.Run("Associative array degrades to indexed", func(t *testing.T) {
		tree := parseVersion(t, "declare -A m=([k]=v)", dialect.V3)
		if len(tree.Find(cst.NodeAssocArrayLiteral)) != 0 || len(tree.Find(cst.NodeArrayLiteral)) != 1 {
			t.Errorf("expected an indexed array literal:\n%s", tree)
		}
	})
}

func TestGrammar_TrailingCommentBindsToStatement(t *testing.T) {
	tree := parse(t, "echo a # note\n\n# block\necho b\n")
	cmds := tree.Find(cst.NodeSimpleCommand)
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if got := tree.Text(cmds[0]); got != "echo a # note" {
		t.Errorf("expected the trailing comment inside the first command, got %q", got)
	}
	if got := tree.Text(cmds[1]); got != "echo b" {
		t.Errorf("comments on earlier lines stay outside, got %q", got)
	}
}
