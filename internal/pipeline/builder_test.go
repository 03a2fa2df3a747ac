package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/ir"
	"github.com/roach88/modopt/internal/testutil"
)

func mustConfig(t *testing.T, opts Options) *Config {
	t.Helper()
	cfg, err := NewConfig(opts)
	require.NoError(t, err)
	return cfg
}

func count(ids []catalog.PassID, id catalog.PassID) int {
	n := 0
	for _, x := range ids {
		if x == id {
			n++
		}
	}
	return n
}

func TestBuildDefaultSequence(t *testing.T) {
	p, err := NewBuilder(nil).Build(mustConfig(t, Options{}))
	require.NoError(t, err)

	assert.Equal(t, catalog.DefaultSequence(), p.IDs())
	assert.Equal(t, 64, p.Len())
}

func TestBuildDisabledRemovesEveryOccurrence(t *testing.T) {
	cfg := mustConfig(t, Options{Disabled: []catalog.PassID{catalog.InstCombine}})

	p, err := NewBuilder(nil).Build(cfg)
	require.NoError(t, err)

	ids := p.IDs()
	assert.Zero(t, count(ids, catalog.InstCombine))
	assert.Equal(t, 54, len(ids))

	// Everything else keeps its relative order.
	var want []catalog.PassID
	for _, id := range catalog.DefaultSequence() {
		if id != catalog.InstCombine {
			want = append(want, id)
		}
	}
	assert.Equal(t, want, ids)
}

func TestBuildSelectionReplacesDefault(t *testing.T) {
	cfg := mustConfig(t, Options{Passes: []catalog.PassID{
		catalog.Mem2Reg, catalog.InstCombine, catalog.Mem2Reg,
	}})

	p, err := NewBuilder(nil).Build(cfg)
	require.NoError(t, err)

	assert.Equal(t, []catalog.PassID{catalog.Mem2Reg, catalog.InstCombine, catalog.Mem2Reg}, p.IDs())
}

func TestBuildSelectionFilteredByDisabled(t *testing.T) {
	cfg := mustConfig(t, Options{
		Passes:   []catalog.PassID{catalog.CFGSimplify, catalog.DeadCodeElim},
		Disabled: []catalog.PassID{catalog.DeadCodeElim},
	})

	p, err := NewBuilder(nil).Build(cfg)
	require.NoError(t, err)

	assert.Equal(t, []catalog.PassID{catalog.CFGSimplify}, p.IDs())
}

func TestBuildDisableOptimizationsIsEmpty(t *testing.T) {
	cfg := mustConfig(t, Options{
		Passes:               []catalog.PassID{catalog.GlobalDCE, catalog.CFGSimplify},
		DisableOptimizations: true,
	})

	p, err := NewBuilder(nil).Build(cfg)
	require.NoError(t, err)
	assert.Zero(t, p.Len())
	assert.Empty(t, p.IDs())
}

func TestBuildDisableOptimizationsStillRejectsUnknownPass(t *testing.T) {
	calls := 0
	cat := catalog.New(catalog.Descriptor{
		ID: "counted",
		Factory: func(catalog.Params) (ir.Transformation, error) {
			calls++
			return testutil.NewCountingPass("counted", nil), nil
		},
	})
	cfg := mustConfig(t, Options{
		Passes:               []catalog.PassID{"counted", "no-such-pass"},
		DisableOptimizations: true,
	})

	p, err := NewBuilder(cat).Build(cfg)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, catalog.IsUnknownPass(err))
	assert.Zero(t, calls)
}

func TestBuildUnknownPassCallsNoFactory(t *testing.T) {
	calls := 0
	cat := catalog.New(catalog.Descriptor{
		ID: "counted",
		Factory: func(catalog.Params) (ir.Transformation, error) {
			calls++
			return testutil.NewCountingPass("counted", nil), nil
		},
	})
	cfg := mustConfig(t, Options{Passes: []catalog.PassID{"counted", "no-such-pass", "counted"}})

	p, err := NewBuilder(cat).Build(cfg)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, catalog.IsUnknownPass(err))
	assert.Contains(t, err.Error(), "no-such-pass")
	assert.Zero(t, calls)
}

func TestBuildMissingParameterSkipsSlot(t *testing.T) {
	selection := []catalog.PassID{catalog.Internalize, catalog.GlobalDCE}

	t.Run("no preserved symbols", func(t *testing.T) {
		p, err := NewBuilder(nil).Build(mustConfig(t, Options{Passes: selection}))
		require.NoError(t, err)
		assert.Equal(t, []catalog.PassID{catalog.GlobalDCE}, p.IDs())
	})

	t.Run("entry point", func(t *testing.T) {
		p, err := NewBuilder(nil).Build(mustConfig(t, Options{Passes: selection, EntryPoint: "main"}))
		require.NoError(t, err)
		assert.Equal(t, selection, p.IDs())
	})

	t.Run("preserved list", func(t *testing.T) {
		p, err := NewBuilder(nil).Build(mustConfig(t, Options{Passes: selection, Preserved: []string{"api"}}))
		require.NoError(t, err)
		assert.Equal(t, selection, p.IDs())
	})
}

func TestBuildNoOpSlotDropped(t *testing.T) {
	cfg := mustConfig(t, Options{
		Passes:   []catalog.PassID{catalog.AlwaysInline, catalog.Inline, catalog.GlobalDCE},
		Disabled: []catalog.PassID{catalog.Inline},
	})

	p, err := NewBuilder(nil).Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, []catalog.PassID{catalog.GlobalDCE}, p.IDs())
}

func TestBuildFactoryErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	cat := catalog.New(catalog.Descriptor{
		ID:      "fragile",
		Factory: func(catalog.Params) (ir.Transformation, error) { return nil, boom },
	})

	_, err := NewBuilder(cat).Build(mustConfig(t, Options{Passes: []catalog.PassID{"fragile"}}))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "building pass fragile: boom", err.Error())
}

func TestBuildWithDefaultSequenceOption(t *testing.T) {
	rec := &testutil.Recorder{}
	factory := func(name string) catalog.Factory {
		return func(catalog.Params) (ir.Transformation, error) {
			return testutil.NewCountingPass(name, rec), nil
		}
	}
	cat := catalog.New(
		catalog.Descriptor{ID: "a", Factory: factory("a")},
		catalog.Descriptor{ID: "b", Factory: factory("b")},
	)

	b := NewBuilder(cat, WithDefaultSequence("b", "a", "b"))
	p, err := b.Build(mustConfig(t, Options{}))
	require.NoError(t, err)
	assert.Equal(t, []catalog.PassID{"b", "a", "b"}, p.IDs())

	// Each slot gets its own instance.
	steps := p.Steps()
	require.Len(t, steps, 3)
	assert.NotSame(t, steps[0].Transformation, steps[2].Transformation)
}

func TestBuildInlineThresholdReachesFactory(t *testing.T) {
	var got []int
	cat := catalog.New(catalog.Descriptor{
		ID: "probe",
		Factory: func(p catalog.Params) (ir.Transformation, error) {
			got = append(got, p.InlineThreshold)
			return testutil.NewCountingPass("probe", nil), nil
		},
	})
	sel := []catalog.PassID{"probe"}

	_, err := NewBuilder(cat).Build(mustConfig(t, Options{Passes: sel}))
	require.NoError(t, err)
	_, err = NewBuilder(cat).Build(mustConfig(t, Options{Passes: sel, InlineThreshold: 40}))
	require.NoError(t, err)

	assert.Equal(t, []int{225, 40}, got)
}

func TestPipelineNilSafe(t *testing.T) {
	var p *Pipeline
	assert.Zero(t, p.Len())
	assert.Empty(t, p.IDs())
	assert.Nil(t, p.Steps())
}

func TestNewPipelineCopiesSteps(t *testing.T) {
	steps := []Step{
		{ID: "a", Transformation: testutil.NewCountingPass("a", nil)},
		{ID: "b", Transformation: testutil.NewCountingPass("b", nil)},
	}
	p := NewPipeline(steps...)
	steps[0].ID = "changed"

	assert.Equal(t, []catalog.PassID{"a", "b"}, p.IDs())
}
