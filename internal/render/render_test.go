package render

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/parser"
)

func parse(t *testing.T, src string) *parser.Result {
	t.Helper()
	res, err := parser.Parse(context.Background(), src, parser.DefaultOptions())
	require.NoError(t, err)
	return res
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{FormatDump, FormatJSON, FormatColor} {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("yaml")
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeInvalidInput))
}

func TestDump(t *testing.T) {
	res := parse(t, "echo hi # greet\n")

	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, res, Options{Format: FormatDump}))
	assert.Contains(t, buf.String(), "File 0..16")
	assert.Contains(t, buf.String(), `comment "# greet"`)

	buf.Reset()
	require.NoError(t, Dump(&buf, res.Tree, Options{HideTrivia: true}))
	assert.NotContains(t, buf.String(), "comment")
	assert.NotContains(t, buf.String(), "whitespace")
}

func TestDump_Kinds(t *testing.T) {
	res := parse(t, "a | b\nc\n")

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, res.Tree, Options{Kinds: []cst.NodeKind{cst.NodePipeline}}))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Pipeline 0..5"), out)
	assert.NotContains(t, out, `"c"`)
}

func TestJSON(t *testing.T) {
	res := parse(t, "echo $(ls\n")

	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, res, Options{Format: FormatJSON}))

	var doc JSONDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, res.ID, doc.ID)
	assert.Equal(t, "bash4", doc.Dialect)
	assert.Equal(t, len(res.Tokens), doc.Tokens)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "File", doc.Nodes[0].Kind)
	require.NotEmpty(t, doc.Problems)
	assert.Equal(t, 2, doc.Problems[0].Line)

	// leaves carry their text, so the JSON is lossless as well
	var sb strings.Builder
	var collect func(n JSONNode)
	collect = func(n JSONNode) {
		if n.Text != nil {
			sb.WriteString(*n.Text)
		}
		for _, c := range n.Children {
			collect(c)
		}
	}
	collect(doc.Nodes[0])
	assert.Equal(t, res.Tree.Source, sb.String())
}

func TestColor(t *testing.T) {
	res := parse(t, "if true; then echo \"x\"; fi\n")

	out := Color(res.Tree, Options{HideTrivia: true})
	for _, want := range []string{"File", "If", "SimpleCommand", `"echo"`, `string content "x"`} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "whitespace")
}

func TestWriteProblems(t *testing.T) {
	res := parse(t, "echo ok\necho )\n")

	var buf bytes.Buffer
	n, err := WriteProblems(&buf, "x.sh", res.Tree)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, strings.HasPrefix(buf.String(), "x.sh:2:6: "), buf.String())
}

func TestTokens(t *testing.T) {
	res := parse(t, "a=1 b\n")

	var buf bytes.Buffer
	require.NoError(t, Tokens(&buf, res.Tree.Source, res.Tokens, true))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "1:1"))
	assert.Contains(t, lines[0], `"a"`)
	for _, l := range lines {
		assert.NotContains(t, l, "whitespace")
	}
}
