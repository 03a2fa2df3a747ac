package passlib

import "github.com/roach88/modopt/internal/ir"

// Opaque stands in for an instruction-level pass. Function bodies are not
// modelled, so it leaves the module unchanged.
type Opaque struct {
	name string
}

// NewOpaque returns an identity transformation reporting the given name.
func NewOpaque(name string) *Opaque { return &Opaque{name: name} }

// Name implements ir.Transformation.
func (p *Opaque) Name() string { return p.name }

// Transform implements ir.Transformation.
func (*Opaque) Transform(*ir.Module) {}
