package ir

import "strings"

// Linkage describes how a symbol is visible outside its module.
type Linkage string

// Supported linkage kinds.
const (
	LinkageExternal Linkage = "external"
	LinkageInternal Linkage = "internal"
	LinkagePrivate  Linkage = "private"
	LinkageWeak     Linkage = "weak"
	LinkageLinkOnce Linkage = "linkonce_odr"
	LinkageCommon   Linkage = "common"
)

// ValidLinkages defines allowed linkage kinds.
var ValidLinkages = map[Linkage]bool{
	LinkageExternal: true,
	LinkageInternal: true,
	LinkagePrivate:  true,
	LinkageWeak:     true,
	LinkageLinkOnce: true,
	LinkageCommon:   true,
}

// IsLocal reports whether the linkage keeps the symbol private to the module.
func (l Linkage) IsLocal() bool {
	return l == LinkageInternal || l == LinkagePrivate
}

// Module is a whole program after linking.
type Module struct {
	Name          string          `json:"name" yaml:"name"`
	Globals       []*Global       `json:"globals,omitempty" yaml:"globals,omitempty"`
	Functions     []*Function     `json:"functions,omitempty" yaml:"functions,omitempty"`
	Debug         []*DebugNode    `json:"debug,omitempty" yaml:"debug,omitempty"`
	NamedMetadata []NamedMetadata `json:"named_metadata,omitempty" yaml:"named_metadata,omitempty"`
}

// Global is a module-level variable or constant.
type Global struct {
	Name     string   `json:"name" yaml:"name"`
	Linkage  Linkage  `json:"linkage" yaml:"linkage"`
	Constant bool     `json:"constant,omitempty" yaml:"constant,omitempty"`
	Init     string   `json:"init,omitempty" yaml:"init,omitempty"` // Initializer literal; empty for declarations
	Refs     []string `json:"refs,omitempty" yaml:"refs,omitempty"` // Symbols named by the initializer
	Debug    string   `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// Function is a defined function or an external declaration (prototype).
type Function struct {
	Name        string   `json:"name" yaml:"name"`
	Linkage     Linkage  `json:"linkage" yaml:"linkage"`
	Declaration bool     `json:"declaration,omitempty" yaml:"declaration,omitempty"`
	Attrs       []string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Params      []Param  `json:"params,omitempty" yaml:"params,omitempty"`
	Calls       []string `json:"calls,omitempty" yaml:"calls,omitempty"` // Direct callees in call order
	Refs        []string `json:"refs,omitempty" yaml:"refs,omitempty"`   // Address-taken symbols
	Size        int      `json:"size,omitempty" yaml:"size,omitempty"`   // Instruction count
	Debug       string   `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// Param is a formal parameter of a function.
type Param struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Type string `json:"type" yaml:"type"`
	Used bool   `json:"used,omitempty" yaml:"used,omitempty"`
}

// DebugNode is one debug metadata node, e.g. a compile unit or subprogram.
type DebugNode struct {
	ID    string `json:"id" yaml:"id"` // "!N"
	Kind  string `json:"kind" yaml:"kind"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Scope string `json:"scope,omitempty" yaml:"scope,omitempty"` // ID of the enclosing node
}

// NamedMetadata is a module-level named metadata list such as llvm.dbg.cu.
type NamedMetadata struct {
	Name     string   `json:"name" yaml:"name"`
	Operands []string `json:"operands,omitempty" yaml:"operands,omitempty"`
}

// Transformation is a single rewrite applied to a whole module.
// Implementations live in the passlib package.
type Transformation interface {
	Name() string
	Transform(m *Module)
}

// Apply runs t over the module in place.
func (m *Module) Apply(t Transformation) {
	t.Transform(m)
}

// IsAnonymous reports whether name is an anonymous slot ("0", "1", ...).
func IsAnonymous(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsDebugRef reports whether s names a debug metadata node.
func IsDebugRef(s string) bool {
	return strings.HasPrefix(s, "!")
}

// Defined reports whether the global has an initializer in this module.
func (g *Global) Defined() bool {
	return g.Init != "" || len(g.Refs) > 0
}

// HasAttr reports whether the function carries attribute a.
func (f *Function) HasAttr(a string) bool {
	for _, x := range f.Attrs {
		if x == a {
			return true
		}
	}
	return false
}

// AddAttr adds attribute a if it is not already present.
func (f *Function) AddAttr(a string) {
	if !f.HasAttr(a) {
		f.Attrs = append(f.Attrs, a)
	}
}

// Function returns the function with the given name, or nil.
func (m *Module) Function(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Global returns the global with the given name, or nil.
func (m *Module) Global(name string) *Global {
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// NamedGlobals counts globals that still carry a real name.
func (m *Module) NamedGlobals() int {
	n := 0
	for _, g := range m.Globals {
		if !IsAnonymous(g.Name) {
			n++
		}
	}
	return n
}

// NamedFunctions counts functions that still carry a real name.
func (m *Module) NamedFunctions() int {
	n := 0
	for _, f := range m.Functions {
		if !IsAnonymous(f.Name) {
			n++
		}
	}
	return n
}

// DebugNodeCount returns the number of debug metadata nodes.
func (m *Module) DebugNodeCount() int {
	return len(m.Debug)
}

// RenameSymbol renames a global or function and rewrites every reference to it.
// Returns false if no symbol named from exists.
func (m *Module) RenameSymbol(from, to string) bool {
	found := false
	for _, g := range m.Globals {
		if g.Name == from {
			g.Name = to
			found = true
		}
	}
	for _, f := range m.Functions {
		if f.Name == from {
			f.Name = to
			found = true
		}
	}
	if !found {
		return false
	}
	m.ReplaceUses(from, to)
	return true
}

// ReplaceUses rewrites references to symbol from so they name to instead.
// Named metadata operands are rewritten too.
func (m *Module) ReplaceUses(from, to string) {
	for _, g := range m.Globals {
		replaceAll(g.Refs, from, to)
	}
	for _, f := range m.Functions {
		replaceAll(f.Calls, from, to)
		replaceAll(f.Refs, from, to)
	}
	for i := range m.NamedMetadata {
		replaceAll(m.NamedMetadata[i].Operands, from, to)
	}
}

// Clone returns a deep copy of the module.
func (m *Module) Clone() *Module {
	out := &Module{Name: m.Name}
	for _, g := range m.Globals {
		cp := *g
		cp.Refs = cloneStrings(g.Refs)
		out.Globals = append(out.Globals, &cp)
	}
	for _, f := range m.Functions {
		cp := *f
		cp.Attrs = cloneStrings(f.Attrs)
		cp.Calls = cloneStrings(f.Calls)
		cp.Refs = cloneStrings(f.Refs)
		if f.Params != nil {
			cp.Params = append([]Param(nil), f.Params...)
		}
		out.Functions = append(out.Functions, &cp)
	}
	for _, d := range m.Debug {
		cp := *d
		out.Debug = append(out.Debug, &cp)
	}
	for _, nm := range m.NamedMetadata {
		out.NamedMetadata = append(out.NamedMetadata, NamedMetadata{
			Name:     nm.Name,
			Operands: cloneStrings(nm.Operands),
		})
	}
	return out
}

func replaceAll(list []string, from, to string) {
	for i, s := range list {
		if s == from {
			list[i] = to
		}
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
