package passlib

import (
	"strings"

	"github.com/roach88/modopt/internal/ir"
)

// ConstantMerge folds local constant globals with identical initializers
// into the first one, rewriting every use of the duplicates.
type ConstantMerge struct{}

// NewConstantMerge returns a ConstantMerge pass.
func NewConstantMerge() *ConstantMerge { return &ConstantMerge{} }

// Name implements ir.Transformation.
func (*ConstantMerge) Name() string { return "const-merge" }

// Transform implements ir.Transformation.
func (*ConstantMerge) Transform(m *ir.Module) {
	canonical := make(map[string]string)
	replaced := make(map[string]string)

	for _, g := range m.Globals {
		if !g.Constant || !g.Linkage.IsLocal() || !g.Defined() {
			continue
		}
		key := g.Init + "\x00" + strings.Join(g.Refs, "\x00")
		if first, ok := canonical[key]; ok {
			replaced[g.Name] = first
			continue
		}
		canonical[key] = g.Name
	}
	if len(replaced) == 0 {
		return
	}

	kept := m.Globals[:0]
	for _, g := range m.Globals {
		if _, gone := replaced[g.Name]; !gone {
			kept = append(kept, g)
		}
	}
	m.Globals = kept
	renameSymbols(m, replaced)
}
