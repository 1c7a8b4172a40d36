package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	"github.com/msto63/shcst/internal/render"
	"github.com/msto63/shcst/pkg/core/config"
)

// testEnv points the CLI at a private config and returns a scratch directory
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "[logging]\nlevel = \"error\"\n\n[store]\npath = \"" +
		filepath.ToSlash(filepath.Join(dir, "runs.db")) + "\"\n"
	path := filepath.Join(dir, "shcst.toml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	t.Setenv(config.EnvVar, path)
	return dir
}

func resetFlags() {
	cfgFile, verbosity, dialectFlag = "", 0, ""
	parseFormat, parseRoot, parseHideTrivia, parseKinds = "dump", "file", false, nil
	tokensTrivia = false
	checkCrosscheck, checkFailOnErrors, checkRecord, checkStorePath, checkQuiet = false, false, false, "", false
	diffContext, diffHideTrivia = 3, true
	crosscheckOracles, crosscheckJSON = nil, false
	reportStorePath, reportLimit, reportSince = "", 10, 0
	reportRun, reportFailed, reportHistory, reportStats, reportPrune = "", false, "", false, false
	versionJSON, doctorJSON = false, false
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseCommand(t *testing.T) {
	dir := testEnv(t)
	path := writeScript(t, dir, "hello.sh", "# greet\necho hi\n")

	out, err := execute(t, "", "parse", path)
	require.NoError(t, err)
	assert.Contains(t, out, "File 0..16")
	assert.Contains(t, out, `"echo"`)

	out, err = execute(t, "a | b\n", "parse", "--kind", "pipeline", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Pipeline 0..5"), out)

	out, err = execute(t, "", "parse", "--format", "json", path)
	require.NoError(t, err)
	var doc render.JSONDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "bash4", doc.Dialect)

	out, err = execute(t, "echo $(ls\n", "parse", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "-:2:")

	_, err = execute(t, "", "parse", "--format", "xml", path)
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeInvalidInput))

	_, err = execute(t, "", "parse", filepath.Join(dir, "missing.sh"))
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeNotFound))
}

func TestTokensCommand(t *testing.T) {
	testEnv(t)
	out, err := execute(t, "echo hi # c\n", "tokens", "--hide-trivia", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"echo"`)
	assert.NotContains(t, out, "comment")
}

func TestDiffCommand(t *testing.T) {
	dir := testEnv(t)
	path := writeScript(t, dir, "pipe.sh", "a |& b\n")

	out, err := execute(t, "", "diff", path)
	require.NoError(t, err)
	assert.Contains(t, out, path+" (bash3)")
	assert.Contains(t, out, path+" (bash4)")
	assert.Contains(t, out, "Error")

	out, err = execute(t, "echo same\n", "diff", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "parses identically")
}

func TestCheckAndReport(t *testing.T) {
	dir := testEnv(t)
	scripts := filepath.Join(dir, "scripts")
	require.NoError(t, os.Mkdir(scripts, 0755))
	writeScript(t, scripts, "ok.sh", "echo ok\n")
	writeScript(t, scripts, "broken.sh", "if true; then\n")

	out, err := execute(t, "", "check", "--record", scripts)
	require.NoError(t, err, out)
	assert.Contains(t, out, "2 files checked, 0 failed")
	assert.Contains(t, out, "broken.sh:")
	assert.Contains(t, out, "recorded as run")

	out, err = execute(t, "", "check", "--fail-on-errors", "--quiet", scripts)
	require.Error(t, err)
	assert.Contains(t, out, "1 failed")
	assert.NotContains(t, out, "broken.sh:")

	out, err = execute(t, "", "report")
	require.NoError(t, err)
	assert.Contains(t, out, "bash4")

	out, err = execute(t, "", "report", "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "total runs       1")
	assert.Contains(t, out, "total files      2")

	out, err = execute(t, "", "report", "--history", filepath.Join(scripts, "broken.sh"))
	require.NoError(t, err)
	assert.Contains(t, out, "broken.sh")
}

func TestCrosscheckCommand(t *testing.T) {
	testEnv(t)
	out, err := execute(t, "a; b\nc && d | e\n", "crosscheck", "-")
	require.NoError(t, err, out)
	assert.Contains(t, out, "all parsers agree")
	assert.Contains(t, out, "mvdan")
	assert.Contains(t, out, "treesitter")

	_, err = execute(t, "", "crosscheck", "--oracle", "shellcheck", "-")
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeInvalidInput))
}

func TestVersionAndDialectFlag(t *testing.T) {
	testEnv(t)
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "shcst "), out)

	_, err = execute(t, "echo\n", "--dialect", "zsh", "parse", "-")
	require.Error(t, err)

	out, err = execute(t, "echo\n", "--dialect", "bash3", "parse", "--format", "json", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"bash3"`)
}

func TestDoctorCommand(t *testing.T) {
	dir := testEnv(t)

	out, err := execute(t, "", "doctor")
	require.NoError(t, err)
	for _, name := range []string{"config", "parser", "store", "log file", "oracle mvdan", "oracle treesitter"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "healthy")

	out, err = execute(t, "", "doctor", "--json")
	require.NoError(t, err)
	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "healthy", report.Status)
	assert.Len(t, report.Checks, 6)
	_, err = os.Stat(filepath.Join(dir, "runs.db"))
	assert.NoError(t, err, "doctor opens the store")

	blocker := writeScript(t, dir, "blocker", "")
	cfg := "[logging]\nlevel = \"error\"\n\n[store]\npath = \"" +
		filepath.ToSlash(filepath.Join(blocker, "runs.db")) + "\"\n"
	path := writeScript(t, dir, "broken.toml", cfg)
	_, err = execute(t, "", "--config", path, "doctor")
	require.Error(t, err)
	assert.Equal(t, 1, mdwerror.GetCode(err).ExitCode())
}
