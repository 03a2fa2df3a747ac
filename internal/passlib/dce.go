package passlib

import "github.com/roach88/modopt/internal/ir"

// GlobalDCE removes local globals and functions that cannot be reached from
// any exported symbol or llvm.used entry. Other named metadata lists lose
// their operands naming removed symbols.
type GlobalDCE struct{}

// NewGlobalDCE returns a GlobalDCE pass.
func NewGlobalDCE() *GlobalDCE { return &GlobalDCE{} }

// Name implements ir.Transformation.
func (*GlobalDCE) Name() string { return "global-dce" }

// Transform implements ir.Transformation.
func (*GlobalDCE) Transform(m *ir.Module) {
	live := reachable(m, liveRoots(m))
	removed := make(map[string]bool)

	globals := m.Globals[:0]
	for _, g := range m.Globals {
		if live[g.Name] {
			globals = append(globals, g)
		} else {
			removed[g.Name] = true
		}
	}
	m.Globals = nilIfEmpty(globals)

	funcs := m.Functions[:0]
	for _, f := range m.Functions {
		if live[f.Name] {
			funcs = append(funcs, f)
		} else {
			removed[f.Name] = true
		}
	}
	m.Functions = nilIfEmpty(funcs)

	dropOperands(m, removed)
}

// dropOperands removes named metadata operands that name a symbol in gone.
func dropOperands(m *ir.Module, gone map[string]bool) {
	if len(gone) == 0 {
		return
	}
	for i := range m.NamedMetadata {
		nm := &m.NamedMetadata[i]
		ops := nm.Operands[:0]
		for _, op := range nm.Operands {
			if ir.IsDebugRef(op) || !gone[op] {
				ops = append(ops, op)
			}
		}
		nm.Operands = nilIfEmpty(ops)
	}
}

// StripDeadPrototypes removes function declarations with no remaining uses.
type StripDeadPrototypes struct{}

// NewStripDeadPrototypes returns a StripDeadPrototypes pass.
func NewStripDeadPrototypes() *StripDeadPrototypes { return &StripDeadPrototypes{} }

// Name implements ir.Transformation.
func (*StripDeadPrototypes) Name() string { return "strip-dead-prototypes" }

// Transform implements ir.Transformation.
func (*StripDeadPrototypes) Transform(m *ir.Module) {
	uses := useCounts(m)
	funcs := m.Functions[:0]
	for _, f := range m.Functions {
		if f.Declaration && uses[f.Name] == 0 {
			continue
		}
		funcs = append(funcs, f)
	}
	m.Functions = nilIfEmpty(funcs)
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
