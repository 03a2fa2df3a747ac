package passlib

import "github.com/roach88/modopt/internal/ir"

// DefaultInlineThreshold is the callee size limit used when none is given.
const DefaultInlineThreshold = 225

// Function attributes consulted by the inliners.
const (
	AttrAlwaysInline = "alwaysinline"
	AttrNoInline     = "noinline"
)

// Inliner replaces call sites of small callees with the callee's own call
// and reference edges. Each caller is visited once in module order and
// newly spliced call sites are not inlined again, so the result is bounded
// and deterministic.
type Inliner struct {
	Threshold int
	// Always restricts inlining to callees marked alwaysinline and ignores
	// Threshold.
	Always bool
}

// NewInliner returns a size-driven inliner. Callees marked alwaysinline are
// inlined regardless of size.
func NewInliner(threshold int) *Inliner {
	if threshold <= 0 {
		threshold = DefaultInlineThreshold
	}
	return &Inliner{Threshold: threshold}
}

// NewAlwaysInliner returns an inliner that only handles alwaysinline callees.
func NewAlwaysInliner() *Inliner {
	return &Inliner{Always: true}
}

// Name implements ir.Transformation.
func (p *Inliner) Name() string {
	if p.Always {
		return "always-inline"
	}
	return "inline"
}

// Transform implements ir.Transformation.
func (p *Inliner) Transform(m *ir.Module) {
	recursive := recursiveFunctions(m)

	// Snapshot callee bodies so every caller sees the pre-pass edges.
	type body struct {
		calls, refs []string
		size        int
	}
	bodies := make(map[string]body)
	for _, f := range m.Functions {
		if p.eligible(f, recursive) {
			bodies[f.Name] = body{
				calls: append([]string(nil), f.Calls...),
				refs:  append([]string(nil), f.Refs...),
				size:  f.Size,
			}
		}
	}
	if len(bodies) == 0 {
		return
	}

	for _, caller := range m.Functions {
		if caller.Declaration || len(caller.Calls) == 0 {
			continue
		}
		var calls []string
		changed := false
		for _, callee := range caller.Calls {
			b, ok := bodies[callee]
			if !ok || callee == caller.Name {
				calls = append(calls, callee)
				continue
			}
			calls = append(calls, b.calls...)
			caller.Refs = appendUnique(caller.Refs, b.refs...)
			caller.Size += b.size
			changed = true
		}
		if changed {
			caller.Calls = nilIfEmpty(calls)
		}
	}
}

func (p *Inliner) eligible(f *ir.Function, recursive map[string]bool) bool {
	if f.Declaration || recursive[f.Name] || f.HasAttr(AttrNoInline) {
		return false
	}
	switch f.Linkage {
	case ir.LinkageWeak, ir.LinkageCommon:
		// May be replaced at link time.
		return false
	}
	if f.HasAttr(AttrAlwaysInline) {
		return true
	}
	if p.Always {
		return false
	}
	return f.Size <= p.Threshold
}
