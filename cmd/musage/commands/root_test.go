package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musage/internal/config"
	"musage/internal/report"
	"musage/internal/scan"
)

// execute runs the CLI with the given arguments and captures both
// output streams.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand("1.2.3")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeSourceTree lays out two matching files (foo called three times,
// bar once through an alias) and one file the walker must ignore.
func writeSourceTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"app.py":   "from acme.mod import foo\nfoo()\nfoo()\nfoo()\n",
		"lib.py":   "from acme.mod import bar as b\nb()\n",
		"skip.txt": "foo()\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o600))
	}
	return root
}

func TestRootCommand_WritesCSVFile(t *testing.T) {
	root := writeSourceTree(t)
	outPath := filepath.Join(t.TempDir(), "usage.csv")

	_, _, err := execute(t, root, "-m", "acme.mod", "-o", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "acme.mod.foo,3\nacme.mod.bar,1\n", string(data))
}

func TestRootCommand_PrintsTable(t *testing.T) {
	root := writeSourceTree(t)

	out, _, err := execute(t, root, "-m", "acme.mod")
	require.NoError(t, err)

	assert.Contains(t, out, "acme.mod.foo")
	assert.Contains(t, out, "module acme.mod: 2 files scanned, 0 failed, 4 hits")
}

func TestRootCommand_FormatJSON(t *testing.T) {
	root := writeSourceTree(t)

	out, _, err := execute(t, root, "-m", "acme.mod", "--format", "json")
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "acme.mod", doc.Module)
	assert.Equal(t, 2, doc.Files)
	assert.Equal(t, 4, doc.TotalHits)
	require.NotEmpty(t, doc.Rows)
	assert.Equal(t, "acme.mod.foo", doc.Rows[0].Name)
	assert.Equal(t, 3, doc.Rows[0].Count)
}

func TestRootCommand_FormatYAML(t *testing.T) {
	root := writeSourceTree(t)

	out, _, err := execute(t, root, "-m", "acme.mod", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "total_hits: 4")
}

func TestRootCommand_ExplicitFormatWinsOverOutputFile(t *testing.T) {
	root := writeSourceTree(t)
	outPath := filepath.Join(t.TempDir(), "usage.json")

	_, _, err := execute(t, root, "-m", "acme.mod", "-o", outPath, "--format", "json")
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 4, doc.TotalHits)
}

func TestRootCommand_ZeroHitsStillSucceeds(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "other.py"),
		[]byte("from unrelated import thing\nthing()\n"), 0o600))
	outPath := filepath.Join(t.TempDir(), "usage.csv")

	_, _, err := execute(t, root, "-m", "acme.mod", "-o", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Empty(t, string(data))
}

func TestRootCommand_RejectsMissingModule(t *testing.T) {
	root := t.TempDir()

	_, _, err := execute(t, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module")
}

func TestRootCommand_RejectsNonDirectoryRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, _, err := execute(t, file, "-m", "acme.mod")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestRootCommand_RejectsUnknownBoundary(t *testing.T) {
	root := t.TempDir()

	_, _, err := execute(t, root, "-m", "acme.mod", "--boundary", "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown boundary mode")
}

func TestRootCommand_RejectsMissingExplicitConfig(t *testing.T) {
	root := t.TempDir()
	missing := filepath.Join(t.TempDir(), "nope.toml")

	_, _, err := execute(t, root, "-m", "acme.mod", "--config", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRootCommand_ConfigFileFillsUnsetFlags(t *testing.T) {
	root := writeSourceTree(t)
	cfgPath := filepath.Join(t.TempDir(), "musage.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[scan]\nskip_tests = true\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "test_app.py"),
		[]byte("from acme.mod import foo\nfoo()\n"), 0o600))

	out, _, err := execute(t, root, "-m", "acme.mod", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "module acme.mod: 2 files scanned, 0 failed, 4 hits")
}

func TestScanSubcommand_MatchesRootBehavior(t *testing.T) {
	root := writeSourceTree(t)

	out, _, err := execute(t, "scan", root, "-m", "acme.mod")
	require.NoError(t, err)
	assert.Contains(t, out, "module acme.mod: 2 files scanned, 0 failed, 4 hits")
}

func TestRootCommand_WritesMetricsFile(t *testing.T) {
	root := writeSourceTree(t)
	metricsPath := filepath.Join(t.TempDir(), "metrics.prom")

	_, _, err := execute(t, root, "-m", "acme.mod", "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "musage_files_scanned_total")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "musage v1.2.3\n", out)
}

func TestBuildRunner_MapsFlagsToRunner(t *testing.T) {
	runner, err := buildRunner(config.Default(), "acme.mod", "dotted", 3, true, true)
	require.NoError(t, err)

	assert.Equal(t, 3, runner.Workers)
	assert.Equal(t, scan.PolicyStrict, runner.Policy)
	assert.True(t, runner.Walker.Matches("pkg/mod.py"))
	assert.False(t, runner.Walker.Matches("pkg/test_mod.py"))
}

func TestWatchCommand_Flags(t *testing.T) {
	cmd := NewWatchCommand("1.2.3")
	require.NotNil(t, cmd)
	assert.Equal(t, "watch <directory>", cmd.Use)

	for _, name := range []string{"module", "ui", "skip-tests", "boundary", "config"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}
	assert.Equal(t, "false", cmd.Flags().Lookup("ui").DefValue)
}

func TestMCPCommand_Flags(t *testing.T) {
	cmd := NewMCPCommand("1.2.3")
	require.NotNil(t, cmd)
	assert.Equal(t, "mcp", cmd.Use)
	assert.NotEmpty(t, cmd.Long)
	assert.Equal(t, "false", cmd.Flags().Lookup("debug").DefValue)
}

func TestResolveFormat_DefaultsByDestination(t *testing.T) {
	root := writeSourceTree(t)

	out, _, err := execute(t, root, "-m", "acme.mod", "--format", "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "acme.mod.foo,3"), "stdout CSV: %q", out)
}
