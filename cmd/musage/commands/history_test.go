package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordTwoRuns scans the same tree twice with --history, bumping the
// bar count between runs so the second run totals five hits.
func recordTwoRuns(t *testing.T) (string, string) {
	t.Helper()

	root := writeSourceTree(t)
	dbPath := filepath.Join(t.TempDir(), "history.db")

	_, _, err := execute(t, root, "-m", "acme.mod", "--history", dbPath, "--format", "csv")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "lib.py"),
		[]byte("from acme.mod import bar as b\nb()\nb()\n"), 0o600))

	_, _, err = execute(t, root, "-m", "acme.mod", "--history", dbPath, "--format", "csv")
	require.NoError(t, err)

	return root, dbPath
}

func TestHistoryCommand_ListsRecordedRuns(t *testing.T) {
	root, dbPath := recordTwoRuns(t)

	out, _, err := execute(t, "history", "--db", dbPath)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "acme.mod"))
	assert.Contains(t, out, root)
	assert.Contains(t, out, "HITS")
}

func TestHistoryCommand_LimitCapsOutput(t *testing.T) {
	_, dbPath := recordTwoRuns(t)

	out, _, err := execute(t, "history", "--db", dbPath, "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "acme.mod"))
}

func TestHistoryCommand_ModuleFilter(t *testing.T) {
	_, dbPath := recordTwoRuns(t)

	out, _, err := execute(t, "history", "--db", dbPath, "--module", "other.mod")
	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")
}

func TestHistoryCommand_KeyTrend(t *testing.T) {
	_, dbPath := recordTwoRuns(t)

	out, _, err := execute(t, "history", "--db", dbPath, "--key", "acme.mod.bar")
	require.NoError(t, err)

	assert.Contains(t, out, "acme.mod.bar")
	assert.Contains(t, out, "+1")

	out, _, err = execute(t, "history", "--db", dbPath, "--key", "acme.mod.foo")
	require.NoError(t, err)
	assert.Contains(t, out, "+3")
	assert.Contains(t, out, "+0")
}

func TestHistoryCommand_UnknownKey(t *testing.T) {
	_, dbPath := recordTwoRuns(t)

	out, _, err := execute(t, "history", "--db", dbPath, "--key", "acme.mod.missing")
	require.NoError(t, err)
	assert.Contains(t, out, "no history for acme.mod.missing")
}

func TestHistoryCommand_RequiresDB(t *testing.T) {
	_, _, err := execute(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}

func TestHistoryCommand_RejectsBadSince(t *testing.T) {
	_, dbPath := recordTwoRuns(t)

	_, _, err := execute(t, "history", "--db", dbPath, "--since", "yesterday-ish")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot parse --since")
}

func TestParseSince(t *testing.T) {
	zero, err := parseSince("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	cutoff, err := parseSince("24h")
	require.NoError(t, err)
	want := time.Now().UTC().Add(-24 * time.Hour)
	assert.WithinDuration(t, want, cutoff, time.Minute)

	day, err := parseSince("2026-01-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), day)

	_, err = parseSince("yesterday-ish")
	require.Error(t, err)
}
