package passlib

import (
	"sort"

	"github.com/roach88/modopt/internal/ir"
)

// Internalize gives internal linkage to every definition that is not in
// the preserve set, so later passes may assume they see all of its uses.
// Declarations and llvm.* symbols are never touched.
type Internalize struct {
	preserve map[string]bool
}

// NewInternalize returns an Internalize pass keeping the given names exported.
func NewInternalize(preserve []string) *Internalize {
	set := make(map[string]bool, len(preserve))
	for _, name := range preserve {
		set[name] = true
	}
	return &Internalize{preserve: set}
}

// Name implements ir.Transformation.
func (p *Internalize) Name() string { return "internalize" }

// Preserved returns the preserved names in sorted order.
func (p *Internalize) Preserved() []string {
	out := make([]string, 0, len(p.preserve))
	for name := range p.preserve {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Transform implements ir.Transformation.
func (p *Internalize) Transform(m *ir.Module) {
	for _, g := range m.Globals {
		if g.Defined() && p.demotable(g.Name, g.Linkage) {
			g.Linkage = ir.LinkageInternal
		}
	}
	for _, f := range m.Functions {
		if !f.Declaration && p.demotable(f.Name, f.Linkage) {
			f.Linkage = ir.LinkageInternal
		}
	}
}

func (p *Internalize) demotable(name string, l ir.Linkage) bool {
	return !l.IsLocal() && !p.preserve[name] && !isIntrinsicName(name)
}
