package catalog

import (
	"github.com/roach88/modopt/internal/ir"
	"github.com/roach88/modopt/internal/passlib"
)

// Standard pass ids.
const (
	DeadCodeElim          PassID = "dead-code-elim"
	AlwaysInline          PassID = "always-inline"
	ArgPromotion          PassID = "arg-promotion"
	CFGSimplify           PassID = "cfg-simplify"
	ConstMerge            PassID = "const-merge"
	CorrelatedPropagation PassID = "correlated-propagation"
	DeadArgElim           PassID = "dead-arg-elim"
	DeadStoreElim         PassID = "dead-store-elim"
	EarlyCSE              PassID = "early-cse"
	FuncAttrs             PassID = "func-attrs"
	Inline                PassID = "inline"
	GlobalDCE             PassID = "global-dce"
	GlobalOpt             PassID = "global-opt"
	GlobalsModRef         PassID = "globals-modref"
	GVN                   PassID = "gvn"
	IndVarSimplify        PassID = "indvar-simplify"
	InstCombine           PassID = "inst-combine"
	Internalize           PassID = "internalize"
	IPConstProp           PassID = "ip-const-prop"
	IPSCCP                PassID = "ipsccp"
	JumpThreading         PassID = "jump-threading"
	LazyValueInfo         PassID = "lazy-value-info"
	LCSSA                 PassID = "lcssa"
	LICM                  PassID = "licm"
	LoopDeletion          PassID = "loop-deletion"
	LoopIdiom             PassID = "loop-idiom"
	LoopRotate            PassID = "loop-rotate"
	LoopUnroll            PassID = "loop-unroll"
	LoopUnswitch          PassID = "loop-unswitch"
	LoopSimplify          PassID = "loop-simplify"
	LowerExpect           PassID = "lower-expect"
	MemCpyOpt             PassID = "memcpy-opt"
	Mem2Reg               PassID = "mem2reg"
	PruneEH               PassID = "prune-eh"
	Reassociate           PassID = "reassociate"
	SROA                  PassID = "sroa"
	SCCP                  PassID = "sccp"
	StripDeadPrototypes   PassID = "strip-dead-prototypes"
	TailCallElim          PassID = "tail-call-elim"
)

// Parameter names reported by MissingParameterError.
const (
	ParamPreserved = "preserved symbols or an entry point"
)

// opaque builds a factory for a pass whose effect is below the IR's
// resolution.
func opaque(id PassID) Factory {
	return func(Params) (ir.Transformation, error) {
		return passlib.NewOpaque(string(id)), nil
	}
}

// fixed builds a factory that ignores Params.
func fixed(newPass func() ir.Transformation) Factory {
	return func(Params) (ir.Transformation, error) {
		return newPass(), nil
	}
}

func newInternalize(p Params) (ir.Transformation, error) {
	preserve := append([]string(nil), p.Preserved...)
	if p.EntryPoint != "" {
		preserve = append(preserve, p.EntryPoint)
	}
	if len(preserve) == 0 {
		return nil, &MissingParameterError{Pass: Internalize, Parameter: ParamPreserved}
	}
	return passlib.NewInternalize(preserve), nil
}

func newAlwaysInline(p Params) (ir.Transformation, error) {
	// Disabling inlining also turns off the always-inline slot.
	if p.IsDisabled(Inline) {
		return NoOp, nil
	}
	return passlib.NewAlwaysInliner(), nil
}

func newInline(p Params) (ir.Transformation, error) {
	return passlib.NewInliner(p.InlineThreshold), nil
}

func standardPasses() []Descriptor {
	return []Descriptor{
		{DeadCodeElim, "adce", "Delete dead instructions", opaque(DeadCodeElim)},
		{AlwaysInline, "always-inline", "Inline functions marked alwaysinline", newAlwaysInline},
		{ArgPromotion, "argpromotion", "Scalarize uninlined fn args", opaque(ArgPromotion)},
		{CFGSimplify, "cfgsimpl", "Clean up disgusting code", opaque(CFGSimplify)},
		{ConstMerge, "constmerge", "Merge dup global constants", fixed(func() ir.Transformation { return passlib.NewConstantMerge() })},
		{CorrelatedPropagation, "cvp", "Correlated Value Propagation", opaque(CorrelatedPropagation)},
		{DeadArgElim, "dae", "Dead argument elimination", fixed(func() ir.Transformation { return passlib.NewDeadArgElimination() })},
		{DeadStoreElim, "dse", "Dead store elimination", opaque(DeadStoreElim)},
		{EarlyCSE, "ecse", "Early common subexpression elimination", opaque(EarlyCSE)},
		{FuncAttrs, "funcattrs", "Deduce function attributes", fixed(func() ir.Transformation { return passlib.NewFunctionAttrs() })},
		{Inline, "inline", "Inline small functions", newInline},
		{GlobalDCE, "gdce", "Remove unused functions and globals", fixed(func() ir.Transformation { return passlib.NewGlobalDCE() })},
		{GlobalOpt, "gopt", "Optimize global variables", opaque(GlobalOpt)},
		{GlobalsModRef, "globmodref", "Perform IP alias analysis", opaque(GlobalsModRef)},
		{GVN, "gvn", "Remove redundancies", opaque(GVN)},
		{IndVarSimplify, "indvarsimpl", "Canonicalize induction variables", opaque(IndVarSimplify)},
		{InstCombine, "instrcomb", "Combine two instructions into one instruction", opaque(InstCombine)},
		{Internalize, "internalize", "Internalize symbols not preserved for the entry point", newInternalize},
		{IPConstProp, "ipconstprop", "Perform constant propagation", opaque(IPConstProp)},
		{IPSCCP, "ipsccp", "Perform an interprocedural SCCP", opaque(IPSCCP)},
		{JumpThreading, "jmpthreading", "Perform jump threading", opaque(JumpThreading)},
		{LazyValueInfo, "lazyvinfo", "Lazy Value Information Analysis", opaque(LazyValueInfo)},
		{LCSSA, "lcssa", "Loop-Closed SSA Form Pass", opaque(LCSSA)},
		{LICM, "licm", "Hoist loop invariants", opaque(LICM)},
		{LoopDeletion, "loopdel", "Delete dead loops", opaque(LoopDeletion)},
		{LoopIdiom, "loopidiom", "Transform simple loops into a non-loop form.", opaque(LoopIdiom)},
		{LoopRotate, "looprotate", "Rotate loops", opaque(LoopRotate)},
		{LoopUnroll, "loopunroll", "Reduce the number of iterations by unrolling loops", opaque(LoopUnroll)},
		{LoopUnswitch, "loopunswitch", "Unswitch loops", opaque(LoopUnswitch)},
		{LoopSimplify, "loopsimpl", "Simplify loops", opaque(LoopSimplify)},
		{LowerExpect, "lowerexpect", "Lower 'expect' Intrinsics", opaque(LowerExpect)},
		{MemCpyOpt, "memcpyopt", "Remove memcpy / form memset", opaque(MemCpyOpt)},
		{Mem2Reg, "memtoreg", "Kill useless allocas", opaque(Mem2Reg)},
		{PruneEH, "pruneeh", "Remove unused exception handling info", fixed(func() ir.Transformation { return passlib.NewPruneEH() })},
		{Reassociate, "reassoc", "Reassociate expressions", opaque(Reassociate)},
		{SROA, "sreplaggr", "Break up aggregated allocas", opaque(SROA)},
		{SCCP, "sccp", "Perform constant propagation with SCCP", opaque(SCCP)},
		{StripDeadPrototypes, "stripdp", "Get rid of dead prototypes", fixed(func() ir.Transformation { return passlib.NewStripDeadPrototypes() })},
		{TailCallElim, "tailce", "Eliminate tail calls", opaque(TailCallElim)},
	}
}
