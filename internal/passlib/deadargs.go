package passlib

import "github.com/roach88/modopt/internal/ir"

// DeadArgElimination removes unused parameters from local functions whose
// address is never taken, since all of their call sites are known.
type DeadArgElimination struct{}

// NewDeadArgElimination returns a DeadArgElimination pass.
func NewDeadArgElimination() *DeadArgElimination { return &DeadArgElimination{} }

// Name implements ir.Transformation.
func (*DeadArgElimination) Name() string { return "dead-arg-elim" }

// Transform implements ir.Transformation.
func (*DeadArgElimination) Transform(m *ir.Module) {
	escaped := addressTaken(m)
	for _, f := range m.Functions {
		if f.Declaration || !f.Linkage.IsLocal() || escaped[f.Name] {
			continue
		}
		kept := f.Params[:0]
		for _, p := range f.Params {
			if p.Used {
				kept = append(kept, p)
			}
		}
		f.Params = nilIfEmpty(kept)
	}
}
