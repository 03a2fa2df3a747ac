package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modopt/internal/pipeline"
	"github.com/roach88/modopt/internal/store"
	"github.com/roach88/modopt/internal/testutil"
)

// batchInputs writes two good modules and one broken one into dir.
func batchInputs(t *testing.T, dir string) []string {
	t.Helper()
	broken := testutil.WholeProgram()
	testutil.Corrupt(broken)
	return []string{
		writeModule(t, dir, "a.yaml", testutil.WholeProgram()),
		writeModule(t, dir, "b.json", testutil.ThreeGlobals()),
		writeModule(t, dir, "bad.yaml", broken),
	}
}

func TestBatchCommand_MixedResults(t *testing.T) {
	dir := t.TempDir()
	inputs := batchInputs(t, dir)
	outDir := filepath.Join(dir, "out")

	args := append([]string{"batch"}, inputs...)
	args = append(args, "--out-dir", outDir, "-j", "2", "--entry-point", "main")
	stdout, err := execute(t, args...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, stdout, "✓ prog: done, 64 steps")
	assert.Contains(t, stdout, "✓ three: done, 64 steps")
	assert.Contains(t, stdout, "✗ prog: failed in initial-verify")
	assert.Contains(t, stdout, "Batch Summary: 2 succeeded, 1 failed, 3 total")

	assert.FileExists(t, filepath.Join(outDir, "a.yaml"))
	assert.FileExists(t, filepath.Join(outDir, "b.json"))
	_, statErr := os.Stat(filepath.Join(outDir, "bad.yaml"))
	assert.True(t, os.IsNotExist(statErr), "failed module must not be written")
}

func TestBatchCommand_AllSucceedJSON(t *testing.T) {
	dir := t.TempDir()
	inputs := batchInputs(t, dir)[:2]

	args := append([]string{"batch"}, inputs...)
	args = append(args, "--disable-optimizations", "--format", "json")
	stdout, err := execute(t, args...)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   BatchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Succeeded)
	assert.Equal(t, 2, resp.Data.Total)
	require.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, inputs[0], resp.Data.Runs[0].Input, "results keep input order")
	assert.Equal(t, inputs[1], resp.Data.Runs[1].Input)
}

func TestBatchCommand_RecordsEveryRun(t *testing.T) {
	dir := t.TempDir()
	inputs := batchInputs(t, dir)
	db := filepath.Join(dir, "history.db")

	opts := &BatchOptions{
		RootOptions: &RootOptions{Format: "text", LogLevel: "warn"},
		Jobs:        1,
		Database:    db,
		RunIDs:      pipeline.NewFixedGenerator("run-a", "run-b", "run-bad"),
	}
	cmd := commandWithFlags(t, &opts.Pipeline, "--disable-optimizations")

	err := runBatch(opts, inputs, cmd)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-a", runs[0].ID)
	assert.Equal(t, "three", runs[1].Module)
	assert.Equal(t, pipeline.StateFailed, runs[2].State)
	assert.Equal(t, pipeline.StageInitialVerify, runs[2].FailedStage)
}

func TestBatchCommand_CommandErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeModule(t, dir, "a.yaml", testutil.WholeProgram())

	t.Run("jobs", func(t *testing.T) {
		stdout, err := execute(t, "batch", good, "-j", "0")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, stdout, "--jobs must be at least 1")
	})

	t.Run("unreadable module", func(t *testing.T) {
		stdout, err := execute(t, "batch", good, filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, stdout, "Error [E_MODULE]")
		assert.Contains(t, stdout, "missing.yaml")
	})

	t.Run("shared output name", func(t *testing.T) {
		other := filepath.Join(dir, "other")
		require.NoError(t, os.MkdirAll(other, 0755))
		twin := writeModule(t, other, "a.yaml", testutil.ThreeGlobals())
		outDir := filepath.Join(dir, "out")

		stdout, err := execute(t, "batch", good, twin, "--out-dir", outDir)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, stdout, "Error [E_MODULE]")
		assert.Contains(t, stdout, filepath.Join(outDir, "a.yaml"))
		assert.NoDirExists(t, outDir, "nothing runs when outputs collide")

		_, err = execute(t, "batch", good, twin, "--disable-optimizations")
		assert.NoError(t, err, "without --out-dir nothing is written")
	})

	t.Run("no modules", func(t *testing.T) {
		_, err := execute(t, "batch")
		require.Error(t, err)
	})
}
