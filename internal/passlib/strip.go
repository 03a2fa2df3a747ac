package passlib

import (
	"strconv"
	"strings"

	"github.com/roach88/modopt/internal/ir"
)

// StripSymbols removes debug information and, unless DebugOnly is set, the
// names of every symbol the linker does not need.
//
// Transformations:
//  1. Drop all debug nodes and debug attachments
//  2. Drop llvm.dbg.* named metadata and debug operands of other lists
//  3. (full strip) Rename local symbols to anonymous slots, globals first
//  4. (full strip) Clear parameter names
type StripSymbols struct {
	DebugOnly bool
}

// NewStripSymbols returns a symbol stripper. With debugOnly it only removes
// debug information.
func NewStripSymbols(debugOnly bool) *StripSymbols {
	return &StripSymbols{DebugOnly: debugOnly}
}

// Name implements ir.Transformation.
func (s *StripSymbols) Name() string {
	if s.DebugOnly {
		return "strip-debug"
	}
	return "strip-symbols"
}

// Transform implements ir.Transformation.
func (s *StripSymbols) Transform(m *ir.Module) {
	stripDebugInfo(m)
	if s.DebugOnly {
		return
	}
	anonymizeLocals(m)
	for _, f := range m.Functions {
		for i := range f.Params {
			f.Params[i].Name = ""
		}
	}
}

func stripDebugInfo(m *ir.Module) {
	m.Debug = nil
	for _, g := range m.Globals {
		g.Debug = ""
	}
	for _, f := range m.Functions {
		f.Debug = ""
	}

	kept := m.NamedMetadata[:0]
	for _, nm := range m.NamedMetadata {
		if strings.HasPrefix(nm.Name, "llvm.dbg.") {
			continue
		}
		ops := nm.Operands[:0]
		for _, op := range nm.Operands {
			if !ir.IsDebugRef(op) {
				ops = append(ops, op)
			}
		}
		if len(ops) == 0 {
			ops = nil
		}
		nm.Operands = ops
		kept = append(kept, nm)
	}
	if len(kept) == 0 {
		kept = nil
	}
	m.NamedMetadata = kept
}

// anonymizeLocals numbers local symbols 0, 1, 2... in module order, skipping
// slots already taken by symbols that keep their names.
func anonymizeLocals(m *ir.Module) {
	taken := make(map[string]bool)
	for _, g := range m.Globals {
		if !g.Linkage.IsLocal() {
			taken[g.Name] = true
		}
	}
	for _, f := range m.Functions {
		if !f.Linkage.IsLocal() {
			taken[f.Name] = true
		}
	}

	next := 0
	slot := func() string {
		for {
			name := strconv.Itoa(next)
			next++
			if !taken[name] {
				return name
			}
		}
	}

	mapping := make(map[string]string)
	for _, g := range m.Globals {
		if g.Linkage.IsLocal() {
			mapping[g.Name] = slot()
		}
	}
	for _, f := range m.Functions {
		if f.Linkage.IsLocal() {
			mapping[f.Name] = slot()
		}
	}
	renameSymbols(m, mapping)
}
