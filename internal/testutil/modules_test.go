package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modopt/internal/ir"
)

func TestFixturesVerify(t *testing.T) {
	require.NoError(t, WholeProgram().Verify())
	require.NoError(t, ThreeGlobals().Verify())
}

func TestThreeGlobalsShape(t *testing.T) {
	m := ThreeGlobals()
	assert.Equal(t, 3, m.NamedGlobals())
	assert.Positive(t, m.DebugNodeCount())
}

func TestCorrupt(t *testing.T) {
	m := WholeProgram()
	Corrupt(m)
	assert.Error(t, m.Verify())

	onlyDecls := &ir.Module{
		Name:      "decls",
		Functions: []*ir.Function{{Name: "puts", Linkage: ir.LinkageExternal, Declaration: true}},
	}
	require.NoError(t, onlyDecls.Verify())
	Corrupt(onlyDecls)
	assert.Error(t, onlyDecls.Verify())
}

func TestPasses(t *testing.T) {
	rec := &Recorder{}
	m := WholeProgram()
	before := ir.MustFingerprint(m)

	m.Apply(NewCountingPass("a", rec))
	m.Apply(NewCountingPass("b", rec))
	assert.Equal(t, before, ir.MustFingerprint(m), "counting passes do not modify the module")
	assert.NoError(t, m.Verify())

	brk := NewBreakingPass("c", rec)
	assert.Equal(t, "c", brk.Name())
	m.Apply(brk)
	assert.Error(t, m.Verify())

	assert.Equal(t, []string{"a", "b", "c"}, rec.Names())
	assert.Equal(t, 3, rec.Count())
}
