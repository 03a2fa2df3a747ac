package catalog

// DefaultSequenceVersion identifies the curated default sequence. Bump it
// whenever defaultSequence changes; run records store it so histories from
// different orders are never compared as equals.
const DefaultSequenceVersion = "std-1"

// defaultSequence is the curated pass order used when a run selects no
// passes. Order is significant and repeats are intentional: later rounds
// clean up what earlier rounds expose.
var defaultSequence = []PassID{
	CFGSimplify,         // clean up disgusting code
	Mem2Reg,             // kill useless allocas
	GlobalOpt,           // optimize out global vars
	Mem2Reg,             // promote what globalopt demoted
	IPConstProp,         // constant propagation across call sites
	DeadArgElim,         // dead argument elimination
	InstCombine,         // clean up after IPCP and DAE
	CFGSimplify,         // clean up after IPCP and DAE
	PruneEH,             // remove dead EH info
	FuncAttrs,           // deduce function attributes
	Inline,              // inline small functions
	ArgPromotion,        // scalarize uninlined fn args
	InstCombine,         // cleanup for scalarrepl
	JumpThreading,       // thread jumps
	CFGSimplify,         // merge and remove blocks
	SROA,                // break up aggregate allocas
	InstCombine,         // combine silly sequences
	TailCallElim,        // eliminate tail calls
	CFGSimplify,         // merge and remove blocks
	Reassociate,         // reassociate expressions
	LoopRotate,          // rotate loops
	LICM,                // hoist loop invariants
	LoopUnswitch,        // unswitch loops
	InstCombine,         // clean up after unswitch
	IndVarSimplify,      // canonicalize induction variables
	LoopDeletion,        // delete dead loops
	LoopUnroll,          // unroll small loops
	InstCombine,         // clean up after the unroller
	GVN,                 // remove redundancies
	MemCpyOpt,           // remove memcpy / form memset
	SCCP,                // constant prop with SCCP
	InstCombine,         // run instcombine after redundancy elimination
	DeadStoreElim,       // delete dead stores
	DeadCodeElim,        // delete dead instructions
	StripDeadPrototypes, // get rid of dead prototypes
	ConstMerge,          // merge dup global constants
	IPSCCP,              // propagate constants at call sites into functions
	GlobalOpt,           // hack on internalized globals
	ConstMerge,          // merge duplicated constants from globalopt
	DeadArgElim,         // remove unused arguments from functions
	InstCombine,         // reduce code after globalopt and ipsccp
	Inline,              // inline small functions
	PruneEH,             // remove dead EH info
	GlobalOpt,           // optimize globals again
	GlobalDCE,           // remove dead functions
	ArgPromotion,        // promote by-reference arguments to scalars
	InstCombine,         // clean up the IPO cruft
	JumpThreading,       // thread jumps
	SROA,                // break up allocas
	FuncAttrs,           // add nocapture
	GlobalsModRef,       // interprocedural alias analysis
	LICM,                // hoist loop invariants
	GVN,                 // remove redundancies
	MemCpyOpt,           // remove dead memcpys
	DeadStoreElim,       // nuke dead stores
	InstCombine,         // clean up after scalar opts
	JumpThreading,       // thread jumps
	Mem2Reg,             // demote back what SROA left behind
	CFGSimplify,         // delete dead blocks
	GlobalDCE,           // remove dead functions
	InstCombine,         // late peephole cleanup
	CFGSimplify,         // merge blocks exposed by the cleanup
	DeadCodeElim,        // delete dead instructions
	GlobalDCE,           // discard functions made unreachable
}

// DefaultSequence returns a copy of the curated default pass order.
func DefaultSequence() []PassID {
	return append([]PassID(nil), defaultSequence...)
}
