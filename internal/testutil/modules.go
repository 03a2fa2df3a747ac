package testutil

import "github.com/roach88/modopt/internal/ir"

// WholeProgram returns a linked program exercising every interprocedural
// pass: duplicate constants, an unreachable helper, an alwaysinline leaf,
// unused parameters, an unused prototype and full debug info.
//
//	main -> init, compute, puts
//	compute -> square (alwaysinline)
//	dead_helper -> puts (unreachable)
func WholeProgram() *ir.Module {
	return &ir.Module{
		Name: "prog",
		Globals: []*ir.Global{
			{Name: "version", Linkage: ir.LinkageExternal, Constant: true, Init: `c"1.0"`, Debug: "!5"},
			{Name: "msg_ok", Linkage: ir.LinkageInternal, Constant: true, Init: `c"ok"`},
			{Name: "msg_ok_dup", Linkage: ir.LinkageInternal, Constant: true, Init: `c"ok"`},
			{Name: "unused_table", Linkage: ir.LinkageInternal, Constant: true, Refs: []string{"dead_helper"}},
			{Name: "counter", Linkage: ir.LinkageInternal, Init: "0", Debug: "!6"},
		},
		Functions: []*ir.Function{
			{
				Name:    "main",
				Linkage: ir.LinkageExternal,
				Params: []ir.Param{
					{Name: "argc", Type: "i32", Used: true},
					{Name: "argv", Type: "ptr", Used: true},
				},
				Calls: []string{"init", "compute", "puts"},
				Refs:  []string{"msg_ok", "counter"},
				Size:  20,
				Debug: "!1",
			},
			{
				Name:    "init",
				Linkage: ir.LinkageInternal,
				Params:  []ir.Param{{Name: "flags", Type: "i32"}},
				Refs:    []string{"counter"},
				Size:    4,
				Debug:   "!2",
			},
			{
				Name:    "compute",
				Linkage: ir.LinkageInternal,
				Params: []ir.Param{
					{Name: "x", Type: "i32", Used: true},
					{Name: "y", Type: "i32"},
				},
				Calls: []string{"square"},
				Size:  30,
				Debug: "!3",
			},
			{
				Name:    "square",
				Linkage: ir.LinkageInternal,
				Attrs:   []string{"alwaysinline"},
				Params:  []ir.Param{{Name: "v", Type: "i32", Used: true}},
				Size:    2,
			},
			{
				Name:    "dead_helper",
				Linkage: ir.LinkageInternal,
				Calls:   []string{"puts"},
				Refs:    []string{"msg_ok_dup"},
				Size:    8,
				Debug:   "!4",
			},
			{
				Name:        "puts",
				Linkage:     ir.LinkageExternal,
				Declaration: true,
				Attrs:       []string{"nounwind"},
				Params:      []ir.Param{{Type: "ptr"}},
			},
			{
				Name:        "abort",
				Linkage:     ir.LinkageExternal,
				Declaration: true,
			},
		},
		Debug: []*ir.DebugNode{
			{ID: "!0", Kind: "compile_unit", Name: "prog.c"},
			{ID: "!1", Kind: "subprogram", Name: "main", Scope: "!0"},
			{ID: "!2", Kind: "subprogram", Name: "init", Scope: "!0"},
			{ID: "!3", Kind: "subprogram", Name: "compute", Scope: "!0"},
			{ID: "!4", Kind: "subprogram", Name: "dead_helper", Scope: "!0"},
			{ID: "!5", Kind: "global_variable", Name: "version", Scope: "!0"},
			{ID: "!6", Kind: "global_variable", Name: "counter", Scope: "!0"},
		},
		NamedMetadata: []ir.NamedMetadata{
			{Name: "llvm.dbg.cu", Operands: []string{"!0"}},
			{Name: "llvm.ident", Operands: []string{"!0"}},
		},
	}
}

// ThreeGlobals returns a module with three named globals (one exported,
// two local), a single exported function and debug metadata.
func ThreeGlobals() *ir.Module {
	return &ir.Module{
		Name: "three",
		Globals: []*ir.Global{
			{Name: "exported", Linkage: ir.LinkageExternal, Init: "1", Debug: "!2"},
			{Name: "local_a", Linkage: ir.LinkageInternal, Init: "2", Debug: "!3"},
			{Name: "local_b", Linkage: ir.LinkagePrivate, Constant: true, Init: "3"},
		},
		Functions: []*ir.Function{
			{
				Name:    "main",
				Linkage: ir.LinkageExternal,
				Params:  []ir.Param{{Name: "argc", Type: "i32"}},
				Refs:    []string{"exported", "local_a", "local_b"},
				Size:    6,
				Debug:   "!1",
			},
		},
		Debug: []*ir.DebugNode{
			{ID: "!0", Kind: "compile_unit", Name: "three.c"},
			{ID: "!1", Kind: "subprogram", Name: "main", Scope: "!0"},
			{ID: "!2", Kind: "global_variable", Name: "exported", Scope: "!0"},
			{ID: "!3", Kind: "global_variable", Name: "local_a", Scope: "!0"},
		},
		NamedMetadata: []ir.NamedMetadata{
			{Name: "llvm.dbg.cu", Operands: []string{"!0"}},
		},
	}
}

// Corrupt makes m fail verification by adding a call to a missing function
// from its first defined function.
func Corrupt(m *ir.Module) {
	for _, f := range m.Functions {
		if !f.Declaration {
			f.Calls = append(f.Calls, "__missing")
			return
		}
	}
	m.Functions = append(m.Functions, &ir.Function{
		Name:    "__broken",
		Linkage: ir.LinkageExternal,
		Calls:   []string{"__missing"},
	})
}
