package ir

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Print writes a deterministic, LLVM-flavoured listing of the module.
//
// Example:
//
//	; ModuleID = 'demo'
//
//	@greeting = internal constant "hi" !dbg !2
//
//	define external @main(i32 %argc) size=12 attrs(nounwind) calls(@puts) refs(@greeting) !dbg !1
//	declare external @puts(ptr)
//
//	!0 = compile_unit "demo.c"
//	!1 = subprogram "main" scope !0
//
//	!llvm.dbg.cu = {!0}
func Print(w io.Writer, m *Module) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "; ModuleID = '%s'\n", m.Name)

	if len(m.Globals) > 0 {
		bw.WriteString("\n")
		for _, g := range m.Globals {
			bw.WriteString(globalLine(g))
			bw.WriteString("\n")
		}
	}

	if len(m.Functions) > 0 {
		bw.WriteString("\n")
		for _, f := range m.Functions {
			bw.WriteString(functionLine(f))
			bw.WriteString("\n")
		}
	}

	if len(m.Debug) > 0 {
		bw.WriteString("\n")
		for _, d := range m.Debug {
			line := d.ID + " = " + d.Kind
			if d.Name != "" {
				line += fmt.Sprintf(" %q", d.Name)
			}
			if d.Scope != "" {
				line += " scope " + d.Scope
			}
			bw.WriteString(line)
			bw.WriteString("\n")
		}
	}

	if len(m.NamedMetadata) > 0 {
		bw.WriteString("\n")
		for _, nm := range m.NamedMetadata {
			ops := make([]string, len(nm.Operands))
			for i, op := range nm.Operands {
				ops[i] = operand(op)
			}
			fmt.Fprintf(bw, "!%s = {%s}\n", nm.Name, strings.Join(ops, ", "))
		}
	}

	return bw.Flush()
}

// Sprint returns the Print listing as a string.
func Sprint(m *Module) string {
	var sb strings.Builder
	_ = Print(&sb, m)
	return sb.String()
}

func globalLine(g *Global) string {
	kind := "global"
	if g.Constant {
		kind = "constant"
	}
	line := fmt.Sprintf("@%s = %s %s", g.Name, g.Linkage, kind)
	if g.Init != "" {
		line += " " + g.Init
	}
	if len(g.Refs) > 0 {
		line += " refs(" + symbolList(g.Refs) + ")"
	}
	if g.Debug != "" {
		line += " !dbg " + g.Debug
	}
	return line
}

func functionLine(f *Function) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type
		if p.Name != "" {
			params[i] += " %" + p.Name
		}
	}

	if f.Declaration {
		line := fmt.Sprintf("declare %s @%s(%s)", f.Linkage, f.Name, strings.Join(params, ", "))
		if len(f.Attrs) > 0 {
			line += " attrs(" + strings.Join(f.Attrs, " ") + ")"
		}
		return line
	}

	line := fmt.Sprintf("define %s @%s(%s) size=%d", f.Linkage, f.Name, strings.Join(params, ", "), f.Size)
	if len(f.Attrs) > 0 {
		line += " attrs(" + strings.Join(f.Attrs, " ") + ")"
	}
	if len(f.Calls) > 0 {
		line += " calls(" + symbolList(f.Calls) + ")"
	}
	if len(f.Refs) > 0 {
		line += " refs(" + symbolList(f.Refs) + ")"
	}
	if f.Debug != "" {
		line += " !dbg " + f.Debug
	}
	return line
}

func symbolList(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "@" + n
	}
	return strings.Join(out, ", ")
}

func operand(op string) string {
	if IsDebugRef(op) {
		return op
	}
	return "@" + op
}
