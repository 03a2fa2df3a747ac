// Package ir provides the whole-program module representation that modopt
// pipelines transform.
//
// The representation is symbol-level: a Module is a set of globals and
// functions with their linkage, call and reference edges, plus the debug
// metadata attached to them. Function bodies are summarized (Size, Params,
// Attrs) rather than modelled instruction by instruction.
//
// This package imports nothing internal. Every other internal package builds
// on it, which keeps the IR the foundational layer with no import cycles.
//
// Key design constraints:
//   - Symbol names are unique across globals and functions
//   - An all-digit name is an anonymous slot (what symbol stripping leaves)
//   - Verify never mutates the module
//   - Fingerprints are computed over RFC 8785 canonical JSON only
//   - All JSON and YAML keys use snake_case
package ir
