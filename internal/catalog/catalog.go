// Package catalog is the read-only registry of passes a pipeline can be
// built from.
//
// Each pass is identified by a stable PassID and described by a Descriptor
// whose Factory constructs the transformation for one pipeline slot. The
// process-wide Default catalog holds the standard passes and the curated
// default sequence; tests build their own catalogs with New.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/modopt/internal/ir"
)

// PassID identifies a pass, e.g. "cfg-simplify".
type PassID string

// Params carries the per-run settings a factory may consult.
type Params struct {
	// Preserved lists symbols that must stay externally visible.
	Preserved []string

	// EntryPoint is the program entry function, if known.
	EntryPoint string

	// Disabled holds passes suppressed for this run.
	Disabled map[PassID]bool

	// InlineThreshold bounds callee size for the inliner.
	InlineThreshold int
}

// IsDisabled reports whether id is suppressed.
func (p Params) IsDisabled(id PassID) bool {
	return p.Disabled[id]
}

// Factory constructs the transformation for one pipeline slot.
//
// A factory returns NoOp when the pass disables itself for these params, and
// a *MissingParameterError when a required parameter is absent. Either way
// the slot is dropped from the pipeline.
type Factory func(Params) (ir.Transformation, error)

// Descriptor describes one registered pass.
type Descriptor struct {
	ID          PassID
	CLIName     string // historical command-line spelling, e.g. "instrcomb"
	Description string
	Factory     Factory
}

// noOp is the sentinel transformation a factory returns to drop its slot.
type noOp struct{}

func (noOp) Name() string { return "no-op" }
func (noOp) Transform(*ir.Module) {}

// NoOp is returned by factories that disable themselves.
var NoOp ir.Transformation = noOp{}

// IsNoOp reports whether t is the NoOp sentinel.
func IsNoOp(t ir.Transformation) bool {
	_, ok := t.(noOp)
	return ok
}

// Catalog maps pass ids to descriptors. A Catalog is immutable after New
// and safe for concurrent use.
type Catalog struct {
	byID  map[PassID]Descriptor
	byCLI map[string]PassID
	ids   []PassID
}

// New builds a catalog from descs. Duplicate ids or CLI names panic: the
// catalog is assembled from static tables, so a clash is a programming error.
func New(descs ...Descriptor) *Catalog {
	c := &Catalog{
		byID:  make(map[PassID]Descriptor, len(descs)),
		byCLI: make(map[string]PassID, len(descs)),
	}
	for _, d := range descs {
		if d.ID == "" {
			panic("catalog: descriptor with empty id")
		}
		if d.Factory == nil {
			panic(fmt.Sprintf("catalog: pass %q has no factory", d.ID))
		}
		if _, dup := c.byID[d.ID]; dup {
			panic(fmt.Sprintf("catalog: pass %q registered twice", d.ID))
		}
		c.byID[d.ID] = d
		c.ids = append(c.ids, d.ID)
		if d.CLIName != "" {
			if prev, dup := c.byCLI[d.CLIName]; dup {
				panic(fmt.Sprintf("catalog: cli name %q used by %q and %q", d.CLIName, prev, d.ID))
			}
			c.byCLI[d.CLIName] = d.ID
		}
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return c
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the process-wide catalog of standard passes.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = New(standardPasses()...)
	})
	return defaultCatalog
}

// Lookup returns the descriptor for id.
func (c *Catalog) Lookup(id PassID) (Descriptor, error) {
	d, ok := c.byID[id]
	if !ok {
		return Descriptor{}, &UnknownPassError{Name: string(id)}
	}
	return d, nil
}

// List returns every descriptor sorted by id.
func (c *Catalog) List() []Descriptor {
	out := make([]Descriptor, len(c.ids))
	for i, id := range c.ids {
		out[i] = c.byID[id]
	}
	return out
}

// Len returns the number of registered passes.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// Resolve maps a pass id or its CLI spelling to the id.
func (c *Catalog) Resolve(name string) (PassID, error) {
	if _, ok := c.byID[PassID(name)]; ok {
		return PassID(name), nil
	}
	if id, ok := c.byCLI[name]; ok {
		return id, nil
	}
	return "", &UnknownPassError{Name: name}
}

// ParseList resolves a comma-separated pass list such as
// "mem2reg,instrcomb, gvn". Blank entries are ignored; order and
// repeats are kept.
func (c *Catalog) ParseList(list string) ([]PassID, error) {
	var out []PassID
	for _, part := range strings.Split(list, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		id, err := c.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// ResolveAll resolves each name with Resolve.
func (c *Catalog) ResolveAll(names []string) ([]PassID, error) {
	out := make([]PassID, 0, len(names))
	for _, n := range names {
		id, err := c.Resolve(strings.TrimSpace(n))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
