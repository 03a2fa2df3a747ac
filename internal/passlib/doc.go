// Package passlib implements the whole-program transformations that a
// modopt pipeline is assembled from.
//
// Every transformation satisfies ir.Transformation and rewrites an
// *ir.Module in place. The IR is symbol-level, so only the interprocedural
// passes have observable effects here:
//
//   - StripSymbols: debug info and, optionally, local symbol names
//   - Internalize: demote exported definitions to internal linkage
//   - GlobalDCE, StripDeadPrototypes: drop unreachable symbols
//   - ConstantMerge: fold identical local constants
//   - Inliner, AlwaysInliner: splice small callees into callers
//   - DeadArgElimination: drop unused parameters of local functions
//   - PruneEH, FunctionAttrs: attribute inference to a fixed point
//
// Scalar and loop passes operate on instructions, which the IR does not
// model; they are represented by Opaque, an identity transformation that
// still occupies its slot in the pipeline.
//
// Transformations are deterministic: they walk symbols in module order and
// never consult maps for iteration order.
package passlib
