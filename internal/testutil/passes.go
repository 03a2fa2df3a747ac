package testutil

import (
	"sync"

	"github.com/roach88/modopt/internal/ir"
)

// Recorder collects the names of transformations in the order they ran.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	names []string
}

// Record appends name.
func (r *Recorder) Record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

// Names returns a copy of the recorded names.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// Count returns the number of recorded transformations.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

// CountingPass records each application and otherwise leaves the module alone.
type CountingPass struct {
	name string
	rec  *Recorder
}

// NewCountingPass returns a pass that records itself in rec under name.
func NewCountingPass(name string, rec *Recorder) *CountingPass {
	return &CountingPass{name: name, rec: rec}
}

// Name implements ir.Transformation.
func (p *CountingPass) Name() string { return p.name }

// Transform implements ir.Transformation.
func (p *CountingPass) Transform(*ir.Module) {
	if p.rec != nil {
		p.rec.Record(p.name)
	}
}

// BreakingPass records itself and then corrupts the module so it no longer
// verifies.
type BreakingPass struct {
	CountingPass
}

// NewBreakingPass returns a pass that records itself in rec and breaks the module.
func NewBreakingPass(name string, rec *Recorder) *BreakingPass {
	return &BreakingPass{CountingPass{name: name, rec: rec}}
}

// Transform implements ir.Transformation.
func (p *BreakingPass) Transform(m *ir.Module) {
	p.CountingPass.Transform(m)
	Corrupt(m)
}
