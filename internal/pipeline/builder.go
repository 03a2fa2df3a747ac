package pipeline

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/ir"
)

// PassLookup is the part of a pass catalog the Builder consults.
// *catalog.Catalog implements it.
type PassLookup interface {
	Lookup(id catalog.PassID) (catalog.Descriptor, error)
}

// Step is one resolved pipeline slot.
type Step struct {
	ID             catalog.PassID
	Transformation ir.Transformation
}

// Pipeline is an ordered sequence of transformation steps. Duplicates are
// allowed and order is significant. The zero value is an empty pipeline.
type Pipeline struct {
	steps []Step
}

// NewPipeline returns a pipeline of the given steps, in order.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: append([]Step(nil), steps...)}
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.steps)
}

// IDs returns the pass id of every step, in order.
func (p *Pipeline) IDs() []catalog.PassID {
	out := make([]catalog.PassID, p.Len())
	for i := range out {
		out[i] = p.steps[i].ID
	}
	return out
}

// Steps returns a copy of the steps.
func (p *Pipeline) Steps() []Step {
	if p == nil {
		return nil
	}
	return append([]Step(nil), p.steps...)
}

// Builder resolves a Config into a Pipeline.
type Builder struct {
	passes     PassLookup
	log        *zap.Logger
	defaultSeq []catalog.PassID
}

// NewBuilder returns a Builder over the given catalog.
// A nil catalog selects catalog.Default().
func NewBuilder(passes PassLookup, opts ...Option) *Builder {
	if passes == nil {
		passes = catalog.Default()
	}
	o := applyOptions(opts)
	return &Builder{
		passes:     passes,
		log:        o.log,
		defaultSeq: o.defaultSeq,
	}
}

// Build resolves cfg into a Pipeline.
//
// Returns *catalog.UnknownPassError if any chosen id is not registered, even
// when optimizations are disabled; in that case no factory has been called. A factory error other than
// *catalog.MissingParameterError is returned wrapped.
func (b *Builder) Build(cfg *Config) (*Pipeline, error) {
	chosen := cfg.SelectedIDs()
	source := "selection"
	if len(chosen) == 0 {
		chosen = append([]catalog.PassID(nil), b.defaultSeq...)
		source = "default"
	}

	// Look everything up before instantiating anything.
	descs := make([]catalog.Descriptor, len(chosen))
	for i, id := range chosen {
		d, err := b.passes.Lookup(id)
		if err != nil {
			return nil, err
		}
		descs[i] = d
	}
	if cfg.DisableOptimizations() {
		b.log.Debug("optimizations disabled, pipeline is empty")
		return &Pipeline{}, nil
	}

	params := cfg.Params()
	steps := make([]Step, 0, len(descs))
	for i, d := range descs {
		if cfg.IsDisabled(d.ID) {
			b.log.Debug("pass disabled", zap.String("pass", string(d.ID)), zap.Int("slot", i+1))
			continue
		}
		t, err := d.Factory(params)
		if err != nil {
			var mpe *catalog.MissingParameterError
			if errors.As(err, &mpe) {
				b.log.Debug("pass skipped",
					zap.String("pass", string(d.ID)),
					zap.Int("slot", i+1),
					zap.String("missing", mpe.Parameter))
				continue
			}
			return nil, fmt.Errorf("building pass %s: %w", d.ID, err)
		}
		if t == nil || catalog.IsNoOp(t) {
			b.log.Debug("pass declined", zap.String("pass", string(d.ID)), zap.Int("slot", i+1))
			continue
		}
		steps = append(steps, Step{ID: d.ID, Transformation: t})
	}

	b.log.Debug("pipeline resolved",
		zap.String("source", source),
		zap.Int("chosen", len(chosen)),
		zap.Int("steps", len(steps)))
	return &Pipeline{steps: steps}, nil
}
