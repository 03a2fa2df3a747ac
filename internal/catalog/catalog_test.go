package catalog

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modopt/internal/ir"
	"github.com/roach88/modopt/internal/passlib"
)

func TestDefaultCatalogHasStandardPasses(t *testing.T) {
	c := Default()
	assert.Equal(t, 39, c.Len())
	assert.Same(t, c, Default(), "Default is built once")

	list := c.List()
	require.Len(t, list, 39)
	for i := 1; i < len(list); i++ {
		assert.Less(t, string(list[i-1].ID), string(list[i].ID), "List is sorted by id")
	}
	for _, d := range list {
		assert.NotEmpty(t, d.CLIName, d.ID)
		assert.NotEmpty(t, d.Description, d.ID)
		assert.NotNil(t, d.Factory, d.ID)
	}
}

func TestLookup(t *testing.T) {
	d, err := Default().Lookup(InstCombine)
	require.NoError(t, err)
	assert.Equal(t, "instrcomb", d.CLIName)

	_, err = Default().Lookup("loop-vectorize")
	require.Error(t, err)
	assert.True(t, IsUnknownPass(err))
	assert.Equal(t, `unknown pass "loop-vectorize"`, err.Error())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		want PassID
	}{
		{"inst-combine", InstCombine},
		{"instrcomb", InstCombine},
		{"memtoreg", Mem2Reg},
		{"mem2reg", Mem2Reg},
		{"sreplaggr", SROA},
		{"adce", DeadCodeElim},
		{"stripdp", StripDeadPrototypes},
		{"gdce", GlobalDCE},
	}
	for _, tt := range tests {
		got, err := Default().Resolve(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := Default().Resolve("InstCombine")
	assert.True(t, IsUnknownPass(err), "names are case sensitive")
}

func TestParseList(t *testing.T) {
	ids, err := Default().ParseList("memtoreg, instrcomb,,gvn,instrcomb ")
	require.NoError(t, err)
	assert.Equal(t, []PassID{Mem2Reg, InstCombine, GVN, InstCombine}, ids)

	ids, err = Default().ParseList("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = Default().ParseList("gvn,bogus")
	require.Error(t, err)
	var upe *UnknownPassError
	require.ErrorAs(t, err, &upe)
	assert.Equal(t, "bogus", upe.Name)
}

func TestResolveAll(t *testing.T) {
	ids, err := Default().ResolveAll([]string{"cfgsimpl", " adce"})
	require.NoError(t, err)
	assert.Equal(t, []PassID{CFGSimplify, DeadCodeElim}, ids)
}

func TestNewPanicsOnDuplicates(t *testing.T) {
	f := func(Params) (ir.Transformation, error) { return NoOp, nil }

	assert.Panics(t, func() {
		New(Descriptor{ID: "a", Factory: f}, Descriptor{ID: "a", Factory: f})
	})
	assert.Panics(t, func() {
		New(Descriptor{ID: "a", CLIName: "x", Factory: f}, Descriptor{ID: "b", CLIName: "x", Factory: f})
	})
	assert.Panics(t, func() {
		New(Descriptor{ID: "a"})
	})
	assert.Panics(t, func() {
		New(Descriptor{Factory: f})
	})
}

func TestDefaultSequence(t *testing.T) {
	seq := DefaultSequence()
	require.Len(t, seq, 64)
	assert.Equal(t, CFGSimplify, seq[0])
	assert.Equal(t, GlobalDCE, seq[len(seq)-1])

	counts := make(map[PassID]int)
	for _, id := range seq {
		_, err := Default().Lookup(id)
		require.NoError(t, err, "default sequence entry %s must be registered", id)
		counts[id]++
	}
	assert.Equal(t, 10, counts[InstCombine])
	assert.Equal(t, 6, counts[CFGSimplify])
	assert.Equal(t, 3, counts[GlobalDCE])
	assert.Zero(t, counts[Internalize], "internalize only runs when selected")
}

func TestDefaultSequenceReturnsCopy(t *testing.T) {
	seq := DefaultSequence()
	seq[0] = GVN
	assert.Equal(t, CFGSimplify, DefaultSequence()[0])
}

func TestDefaultSequenceGolden(t *testing.T) {
	var buf bytes.Buffer
	for i, id := range DefaultSequence() {
		fmt.Fprintf(&buf, "%d %s\n", i+1, id)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "default_sequence", buf.Bytes())
}

func TestInternalizeFactory(t *testing.T) {
	d, err := Default().Lookup(Internalize)
	require.NoError(t, err)

	_, err = d.Factory(Params{})
	require.Error(t, err)
	assert.True(t, IsMissingParameter(err))
	assert.Equal(t, "pass internalize requires preserved symbols or an entry point", err.Error())

	tr, err := d.Factory(Params{EntryPoint: "main"})
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, tr.(*passlib.Internalize).Preserved())

	tr, err = d.Factory(Params{Preserved: []string{"klee_entry", "atexit"}, EntryPoint: "main"})
	require.NoError(t, err)
	assert.Equal(t, []string{"atexit", "klee_entry", "main"}, tr.(*passlib.Internalize).Preserved())
}

func TestAlwaysInlineFactoryFollowsInline(t *testing.T) {
	d, err := Default().Lookup(AlwaysInline)
	require.NoError(t, err)

	tr, err := d.Factory(Params{})
	require.NoError(t, err)
	assert.False(t, IsNoOp(tr))
	assert.Equal(t, "always-inline", tr.Name())

	tr, err = d.Factory(Params{Disabled: map[PassID]bool{Inline: true}})
	require.NoError(t, err)
	assert.True(t, IsNoOp(tr))
}

func TestInlineFactoryThreshold(t *testing.T) {
	d, err := Default().Lookup(Inline)
	require.NoError(t, err)

	tr, err := d.Factory(Params{InlineThreshold: 50})
	require.NoError(t, err)
	assert.Equal(t, 50, tr.(*passlib.Inliner).Threshold)

	tr, err = d.Factory(Params{})
	require.NoError(t, err)
	assert.Equal(t, passlib.DefaultInlineThreshold, tr.(*passlib.Inliner).Threshold)
}

func TestEveryFactoryBuilds(t *testing.T) {
	params := Params{EntryPoint: "main", InlineThreshold: 225}
	for _, d := range Default().List() {
		tr, err := d.Factory(params)
		require.NoError(t, err, d.ID)
		require.NotNil(t, tr, d.ID)
		assert.False(t, IsNoOp(tr), d.ID)
	}
}

func TestNoOp(t *testing.T) {
	assert.True(t, IsNoOp(NoOp))
	assert.False(t, IsNoOp(passlib.NewOpaque("gvn")))
	assert.Equal(t, "no-op", NoOp.Name())
}
