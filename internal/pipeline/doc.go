// Package pipeline resolves and executes whole-program pass pipelines.
//
// A run has two halves. The Builder turns an immutable Config into an ordered
// Pipeline by consulting a pass catalog; the Executor applies that Pipeline to
// a Module under the configured verification and symbol-stripping policy.
//
// RESOLUTION:
//
// The pass order comes from exactly one source. An explicit selection fully
// replaces the curated default sequence; the two are never concatenated or
// interleaved. Every id is looked up before any factory runs, so an unknown
// pass fails the build before anything is constructed. Disabled passes are
// dropped at every occurrence, and slots whose factory declines (NoOp or a
// missing parameter) are dropped individually. Order and repeats are kept.
//
// EXECUTION:
//
// Stages run strictly in order:
//  1. Initial verification (always)
//  2. Early debug strip (strip mode "debug")
//  3. Main sequence (unless optimizations are disabled), with a
//     verification after every step when VerifyEach is set
//  4. Final symbol strip (strip mode "all")
//  5. Final verification (unless DisableVerify)
//
// Any verification failure aborts the run with a *ValidationError naming the
// stage and, for the main sequence, the step. Nothing runs after a failure and
// the module must be discarded.
//
// Runs are single-threaded and synchronous. The catalog is shared read-only;
// each run borrows its module exclusively.
package pipeline
