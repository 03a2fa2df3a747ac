package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modopt/internal/ir"
	"github.com/roach88/modopt/internal/testutil"
)

func TestPrintCommand_Listing(t *testing.T) {
	path := writeModule(t, t.TempDir(), "three.yaml", testutil.ThreeGlobals())

	stdout, err := execute(t, "print", path)
	require.NoError(t, err)
	assert.Equal(t, ir.Sprint(testutil.ThreeGlobals()), stdout)
	assert.True(t, strings.HasPrefix(stdout, "; ModuleID = 'three'"))
}

func TestPrintCommand_Convert(t *testing.T) {
	dir := t.TempDir()
	in := writeModule(t, dir, "prog.yaml", testutil.WholeProgram())
	out := filepath.Join(dir, "prog.mpk")

	stdout, err := execute(t, "print", in, "-o", out)
	require.NoError(t, err)
	assert.Equal(t, "✓ wrote "+out+"\n", stdout)

	m, err := ir.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, ir.MustFingerprint(testutil.WholeProgram()), ir.MustFingerprint(m))
}

func TestPrintCommand_JSON(t *testing.T) {
	path := writeModule(t, t.TempDir(), "three.yaml", testutil.ThreeGlobals())

	stdout, err := execute(t, "print", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   ir.Module `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "three", resp.Data.Name)
	assert.Equal(t, 3, len(resp.Data.Globals))
}

func TestPrintCommand_BadOutputExtension(t *testing.T) {
	path := writeModule(t, t.TempDir(), "three.yaml", testutil.ThreeGlobals())

	stdout, err := execute(t, "print", path, "-o", "three.ll")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E_MODULE]")
}
