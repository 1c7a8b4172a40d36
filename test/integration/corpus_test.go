package integration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/parser"
	"github.com/msto63/shcst/internal/crosscheck"
)

func parseAs(t *testing.T, src string, v dialect.Version) *parser.Result {
	t.Helper()
	opts := parser.DefaultOptions()
	opts.Version = v
	res, err := parser.Parse(context.Background(), src, opts)
	require.NoError(t, err)
	return res
}

func TestCorpus_LosslessInBothDialects(t *testing.T) {
	for _, file := range corpusFiles(t) {
		src := readFile(t, file)
		for _, v := range []dialect.Version{dialect.V3, dialect.V4} {
			t.Run(filepath.Base(file)+"/"+v.String(), func(t *testing.T) {
				res := parseAs(t, src, v)
				assert.Equal(t, src, res.Tree.Reconstruct())

				var b strings.Builder
				prev := 0
				for _, tok := range res.Tokens {
					require.Equal(t, prev, tok.Span.Start, "tokens must tile the source")
					b.WriteString(tok.Text)
					prev = tok.Span.End
				}
				assert.Equal(t, src, b.String())
				assert.Equal(t, len(src), res.Tree.Root.Range.End)
			})
		}
	}
}

func TestCorpus_Bash4ConstructsDegradeUnderBash3(t *testing.T) {
	path := filepath.Join(getCorpusDir(), "bash4.sh")
	src := readFile(t, path)

	v4 := parseAs(t, src, dialect.V4)
	assert.Zero(t, v4.ErrorCount(), v4.Tree.String())

	v3 := parseAs(t, src, dialect.V3)
	assert.Positive(t, v3.ErrorCount())
	for _, e := range v3.Tree.Errors() {
		assert.NotEmpty(t, e.Message, cst.Describe(e))
	}
}

func TestCorpus_AgreesWithMvdan(t *testing.T) {
	oracles, err := crosscheck.Oracles([]string{"mvdan"})
	require.NoError(t, err)

	for _, name := range []string{"deploy.sh", "heredocs.sh"} {
		t.Run(name, func(t *testing.T) {
			src := readFile(t, filepath.Join(getCorpusDir(), name))
			report, err := crosscheck.Run(context.Background(), name, src, nil, parser.DefaultOptions(), oracles...)
			require.NoError(t, err)
			assert.True(t, report.Own.Accepted)
			assert.True(t, report.Agrees(), "%+v", report.Mismatches)
		})
	}
}
