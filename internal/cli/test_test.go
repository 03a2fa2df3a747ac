package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: strip_three
description: "Full strip of the three globals fixture"
fixture: three_globals
config:
  disable_optimizations: true
  strip: all
expect:
  state: done
  steps_run: 0
assertions:
  - type: symbol_absent
    symbol: local_a
`

const failingScenario = `name: wrong_expectation
description: "Expects a failure that never happens"
fixture: whole_program
config:
  disable_optimizations: true
expect:
  state: failed
`

func writeScenario(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestTestCommand_Passing(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "strip_three.yaml", passingScenario)

	stdout, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ strip_three\n")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total\n")
	assert.Contains(t, stdout, "✓ All scenarios passed\n")
}

func TestTestCommand_Failing(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "strip_three.yaml", passingScenario)
	writeScenario(t, dir, "wrong_expectation.yml", failingScenario)

	stdout, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ wrong_expectation\n")
	assert.Contains(t, stdout, "expected state failed, got done")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 1 failed, 2 total\n")
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "strip_three.yaml", passingScenario)
	writeScenario(t, dir, "wrong_expectation.yaml", failingScenario)

	stdout, err := execute(t, "test", dir, "--filter", "strip_*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.NotContains(t, stdout, "wrong_expectation")
}

func TestTestCommand_UpdateThenCompareGolden(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "strip_three.yaml", passingScenario)
	golden := filepath.Join(dir, "golden", "strip_three.golden")

	_, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scenario: strip_three\n")
	assert.Contains(t, string(data), "step_applied symbol-strip pass=strip-symbols")

	_, err = execute(t, "test", dir)
	require.NoError(t, err, "fresh golden file must match")

	require.NoError(t, os.WriteFile(golden, []byte("stale\n"), 0644))
	stdout, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "snapshot does not match golden file")
}

func TestTestCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wrong_expectation.yaml", failingScenario)

	stdout, err := execute(t, "test", dir, "--format", "json")
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommand_InvalidScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nexpect:\n  state: done\n")

	stdout, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTestCommand_EmptyAndMissingDirs(t *testing.T) {
	stdout, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", stdout)

	_, err = execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "strip.golden"), goldenFilePath(filepath.Join("scenarios", "strip.yaml")))
}
