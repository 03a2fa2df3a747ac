package passlib

import (
	"strings"

	"github.com/roach88/modopt/internal/ir"
)

// usedListNames are the named metadata lists whose operands keep symbols alive.
var usedListNames = map[string]bool{
	"llvm.used":          true,
	"llvm.compiler.used": true,
}

// isIntrinsicName reports whether name belongs to the reserved llvm.* namespace.
func isIntrinsicName(name string) bool {
	return strings.HasPrefix(name, "llvm.")
}

// edges returns the symbols a symbol points at: calls and refs for a
// function, initializer refs for a global.
func edges(m *ir.Module) map[string][]string {
	out := make(map[string][]string, len(m.Globals)+len(m.Functions))
	for _, g := range m.Globals {
		out[g.Name] = g.Refs
	}
	for _, f := range m.Functions {
		list := make([]string, 0, len(f.Calls)+len(f.Refs))
		list = append(list, f.Calls...)
		list = append(list, f.Refs...)
		out[f.Name] = list
	}
	return out
}

// liveRoots returns the symbols that must survive dead-code elimination:
// every non-local symbol plus the operands of llvm.used lists.
func liveRoots(m *ir.Module) []string {
	var roots []string
	for _, g := range m.Globals {
		if !g.Linkage.IsLocal() {
			roots = append(roots, g.Name)
		}
	}
	for _, f := range m.Functions {
		if !f.Linkage.IsLocal() {
			roots = append(roots, f.Name)
		}
	}
	for _, nm := range m.NamedMetadata {
		if !usedListNames[nm.Name] {
			continue
		}
		for _, op := range nm.Operands {
			if !ir.IsDebugRef(op) {
				roots = append(roots, op)
			}
		}
	}
	return roots
}

// reachable computes the set of symbols reachable from roots.
func reachable(m *ir.Module, roots []string) map[string]bool {
	adj := edges(m)
	seen := make(map[string]bool, len(adj))
	stack := append([]string(nil), roots...)
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[name] {
			continue
		}
		seen[name] = true
		stack = append(stack, adj[name]...)
	}
	return seen
}

// recursiveFunctions returns the functions that can reach themselves through
// direct calls.
func recursiveFunctions(m *ir.Module) map[string]bool {
	calls := make(map[string][]string, len(m.Functions))
	for _, f := range m.Functions {
		calls[f.Name] = f.Calls
	}

	out := make(map[string]bool)
	for _, f := range m.Functions {
		seen := make(map[string]bool)
		stack := append([]string(nil), f.Calls...)
		for len(stack) > 0 {
			name := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if name == f.Name {
				out[f.Name] = true
				break
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			stack = append(stack, calls[name]...)
		}
	}
	return out
}

// useCounts counts references to each symbol from calls, refs and named
// metadata operands.
func useCounts(m *ir.Module) map[string]int {
	out := make(map[string]int)
	for _, g := range m.Globals {
		for _, r := range g.Refs {
			out[r]++
		}
	}
	for _, f := range m.Functions {
		for _, c := range f.Calls {
			out[c]++
		}
		for _, r := range f.Refs {
			out[r]++
		}
	}
	for _, nm := range m.NamedMetadata {
		for _, op := range nm.Operands {
			if !ir.IsDebugRef(op) {
				out[op]++
			}
		}
	}
	return out
}

// addressTaken reports which symbols appear as refs (rather than only as
// direct call targets) anywhere in the module.
func addressTaken(m *ir.Module) map[string]bool {
	out := make(map[string]bool)
	for _, g := range m.Globals {
		for _, r := range g.Refs {
			out[r] = true
		}
	}
	for _, f := range m.Functions {
		for _, r := range f.Refs {
			out[r] = true
		}
	}
	for _, nm := range m.NamedMetadata {
		for _, op := range nm.Operands {
			out[op] = true
		}
	}
	return out
}

// renameSymbols applies a complete old->new name mapping in one step, so
// swapping or shifting names never collides midway.
func renameSymbols(m *ir.Module, mapping map[string]string) {
	if len(mapping) == 0 {
		return
	}
	rename := func(list []string) {
		for i, s := range list {
			if to, ok := mapping[s]; ok {
				list[i] = to
			}
		}
	}
	for _, g := range m.Globals {
		if to, ok := mapping[g.Name]; ok {
			g.Name = to
		}
		rename(g.Refs)
	}
	for _, f := range m.Functions {
		if to, ok := mapping[f.Name]; ok {
			f.Name = to
		}
		rename(f.Calls)
		rename(f.Refs)
	}
	for i := range m.NamedMetadata {
		rename(m.NamedMetadata[i].Operands)
	}
}

// appendUnique appends the entries of extra not already present in list.
func appendUnique(list []string, extra ...string) []string {
	for _, e := range extra {
		found := false
		for _, x := range list {
			if x == e {
				found = true
				break
			}
		}
		if !found {
			list = append(list, e)
		}
	}
	return list
}
