package pipeline

import (
	"go.uber.org/zap"

	"github.com/roach88/modopt/internal/catalog"
)

// options holds the settings shared by Builder and Executor.
type options struct {
	log        *zap.Logger
	observers  []Observer
	runIDs     RunIDGenerator
	clock      func() Clock
	defaultSeq []catalog.PassID
}

// Option configures a Builder or an Executor. Options that do not apply to
// the component they are passed to are ignored.
type Option func(*options)

func defaultOptions() options {
	return options{
		log:        zap.NewNop(),
		runIDs:     UUIDv7Generator{},
		clock:      func() Clock { return &logicalClock{} },
		defaultSeq: catalog.DefaultSequence(),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithObserver registers an Observer for run events. May be repeated.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, obs)
	}
}

// WithRunIDs sets the run id generator. The default is UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(o *options) {
		o.runIDs = g
	}
}

// WithClock makes every run stamp its events from c instead of a fresh
// per-run counter.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = func() Clock { return c }
	}
}

// WithDefaultSequence replaces the curated default sequence, for catalogs
// that do not register the standard passes.
func WithDefaultSequence(ids ...catalog.PassID) Option {
	return func(o *options) {
		o.defaultSeq = append([]catalog.PassID(nil), ids...)
	}
}
