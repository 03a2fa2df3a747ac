package ir

import (
	"fmt"
	"strings"
)

// Verification problem codes (V100-V199)
const (
	// Symbol table problems (V101-V109)
	ErrEmptyName       = "V101" // symbol without a name
	ErrDuplicateSymbol = "V102" // two symbols share a name
	ErrInvalidLinkage  = "V103" // unknown linkage kind
	ErrLocalDecl       = "V104" // declaration with local linkage
	ErrDeclHasBody     = "V105" // declaration with calls, refs or size
	ErrDuplicateParam  = "V106" // two named params share a name

	// Reference problems (V110-V119)
	ErrDanglingCall = "V110" // call to a function that does not exist
	ErrCallNotFunc  = "V111" // call to a global variable
	ErrDanglingRef  = "V112" // reference to a symbol that does not exist
	ErrNegativeSize = "V113" // negative instruction count

	// Metadata problems (V120-V129)
	ErrDanglingDebug      = "V120" // debug attachment to a missing node
	ErrDuplicateDebugNode = "V121" // two debug nodes share an id
	ErrInvalidDebugID     = "V122" // debug node id not of the form !N
	ErrDanglingOperand    = "V123" // named metadata operand not resolvable
)

// Problem is one structural defect found by Verify.
type Problem struct {
	Code    string `json:"code"`
	Symbol  string `json:"symbol,omitempty"`
	Message string `json:"message"`
}

// String renders the problem for diagnostics.
func (p Problem) String() string {
	if p.Symbol != "" {
		return fmt.Sprintf("[%s] @%s: %s", p.Code, p.Symbol, p.Message)
	}
	return fmt.Sprintf("[%s] %s", p.Code, p.Message)
}

// VerifyError reports every problem found in a module.
type VerifyError struct {
	Module   string
	Problems []Problem
}

// Error implements the error interface.
func (e *VerifyError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("module %q is invalid: %s", e.Module, e.Problems[0])
	}
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("module %q is invalid (%d problems): %s",
		e.Module, len(e.Problems), strings.Join(parts, "; "))
}

// Verify checks the module for structural well-formedness.
// Returns nil or a *VerifyError listing all problems (does not fail-fast).
// Verify only reads the module.
func (m *Module) Verify() error {
	problems := m.Problems()
	if len(problems) == 0 {
		return nil
	}
	return &VerifyError{Module: m.Name, Problems: problems}
}

// Problems returns every structural problem in the module, in a stable order.
func (m *Module) Problems() []Problem {
	var out []Problem
	add := func(code, symbol, format string, args ...any) {
		out = append(out, Problem{Code: code, Symbol: symbol, Message: fmt.Sprintf(format, args...)})
	}

	functions := make(map[string]bool, len(m.Functions))
	symbols := make(map[string]bool, len(m.Globals)+len(m.Functions))
	debug := make(map[string]bool, len(m.Debug))

	for i, d := range m.Debug {
		if !IsDebugRef(d.ID) || len(d.ID) < 2 {
			add(ErrInvalidDebugID, "", "debug[%d] has invalid id %q", i, d.ID)
			continue
		}
		if debug[d.ID] {
			add(ErrDuplicateDebugNode, "", "duplicate debug node %s", d.ID)
		}
		debug[d.ID] = true
	}

	declare := func(name string, linkage Linkage) {
		if name == "" {
			add(ErrEmptyName, "", "symbol has an empty name")
			return
		}
		if symbols[name] {
			add(ErrDuplicateSymbol, name, "symbol defined more than once")
		}
		symbols[name] = true
		if !ValidLinkages[linkage] {
			add(ErrInvalidLinkage, name, "invalid linkage %q", linkage)
		}
	}
	for _, g := range m.Globals {
		declare(g.Name, g.Linkage)
	}
	for _, f := range m.Functions {
		declare(f.Name, f.Linkage)
		functions[f.Name] = true
	}

	checkDebug := func(symbol, ref string) {
		if ref != "" && !debug[ref] {
			add(ErrDanglingDebug, symbol, "debug attachment %s does not exist", ref)
		}
	}

	for _, g := range m.Globals {
		if g.Linkage.IsLocal() && !g.Defined() {
			add(ErrLocalDecl, g.Name, "declaration cannot have %s linkage", g.Linkage)
		}
		for _, ref := range g.Refs {
			if !symbols[ref] {
				add(ErrDanglingRef, g.Name, "initializer references unknown symbol @%s", ref)
			}
		}
		checkDebug(g.Name, g.Debug)
	}

	for _, f := range m.Functions {
		if f.Declaration {
			if f.Linkage.IsLocal() {
				add(ErrLocalDecl, f.Name, "declaration cannot have %s linkage", f.Linkage)
			}
			if len(f.Calls) > 0 || len(f.Refs) > 0 || f.Size > 0 {
				add(ErrDeclHasBody, f.Name, "declaration has a body")
			}
		}
		if f.Size < 0 {
			add(ErrNegativeSize, f.Name, "negative size %d", f.Size)
		}
		for _, callee := range f.Calls {
			switch {
			case functions[callee]:
			case symbols[callee]:
				add(ErrCallNotFunc, f.Name, "calls @%s which is not a function", callee)
			default:
				add(ErrDanglingCall, f.Name, "calls unknown function @%s", callee)
			}
		}
		for _, ref := range f.Refs {
			if !symbols[ref] {
				add(ErrDanglingRef, f.Name, "references unknown symbol @%s", ref)
			}
		}
		params := make(map[string]bool, len(f.Params))
		for _, p := range f.Params {
			if p.Name == "" {
				continue
			}
			if params[p.Name] {
				add(ErrDuplicateParam, f.Name, "duplicate parameter %%%s", p.Name)
			}
			params[p.Name] = true
		}
		checkDebug(f.Name, f.Debug)
	}

	for _, d := range m.Debug {
		if d.Scope != "" && !debug[d.Scope] {
			add(ErrDanglingDebug, "", "debug node %s has unknown scope %s", d.ID, d.Scope)
		}
	}

	for _, nm := range m.NamedMetadata {
		for _, op := range nm.Operands {
			if IsDebugRef(op) {
				if !debug[op] {
					add(ErrDanglingOperand, "", "!%s operand %s does not exist", nm.Name, op)
				}
				continue
			}
			if !symbols[op] {
				add(ErrDanglingOperand, "", "!%s operand @%s does not exist", nm.Name, op)
			}
		}
	}

	return out
}
