package passlib

import "github.com/roach88/modopt/internal/ir"

// Inferred function attributes.
const (
	AttrNoUnwind = "nounwind"
	AttrReadNone = "readnone"
)

// PruneEH marks defined functions nounwind when every callee is nounwind.
type PruneEH struct{}

// NewPruneEH returns a PruneEH pass.
func NewPruneEH() *PruneEH { return &PruneEH{} }

// Name implements ir.Transformation.
func (*PruneEH) Name() string { return "prune-eh" }

// Transform implements ir.Transformation.
func (*PruneEH) Transform(m *ir.Module) {
	inferToFixedPoint(m, AttrNoUnwind, func(*ir.Function) bool { return true })
}

// FunctionAttrs marks defined functions readnone when they reference no
// symbols and every callee is readnone.
type FunctionAttrs struct{}

// NewFunctionAttrs returns a FunctionAttrs pass.
func NewFunctionAttrs() *FunctionAttrs { return &FunctionAttrs{} }

// Name implements ir.Transformation.
func (*FunctionAttrs) Name() string { return "func-attrs" }

// Transform implements ir.Transformation.
func (*FunctionAttrs) Transform(m *ir.Module) {
	inferToFixedPoint(m, AttrReadNone, func(f *ir.Function) bool { return len(f.Refs) == 0 })
}

// inferToFixedPoint adds attr to each defined function whose local condition
// holds and whose callees all carry attr, repeating until nothing changes.
// Declarations keep whatever attributes they were declared with.
func inferToFixedPoint(m *ir.Module, attr string, local func(*ir.Function) bool) {
	byName := make(map[string]*ir.Function, len(m.Functions))
	for _, f := range m.Functions {
		byName[f.Name] = f
	}

	for changed := true; changed; {
		changed = false
		for _, f := range m.Functions {
			if f.Declaration || f.HasAttr(attr) || !local(f) {
				continue
			}
			ok := true
			for _, c := range f.Calls {
				callee := byName[c]
				if callee == nil || !callee.HasAttr(attr) {
					ok = false
					break
				}
			}
			if ok {
				f.AddAttr(attr)
				changed = true
			}
		}
	}
}
