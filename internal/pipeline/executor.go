package pipeline

import (
	"go.uber.org/zap"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/ir"
	"github.com/roach88/modopt/internal/passlib"
)

// Module is what the Executor runs a pipeline over. *ir.Module implements it.
//
// Verify must not modify the module.
type Module interface {
	Verify() error
	Apply(t ir.Transformation)
}

// Report summarizes one run.
type Report struct {
	RunID    string           `json:"run_id"`
	State    State            `json:"state"`
	Resolved []catalog.PassID `json:"resolved"`

	// StepsRun counts main sequence steps applied. It stops at the step
	// whose verification failed.
	StepsRun int `json:"steps_run"`

	// StripsRun counts strip steps applied.
	StripsRun int `json:"strips_run"`

	FailedStage Stage  `json:"failed_stage,omitempty"`
	FailedStep  int    `json:"failed_step,omitempty"`
	FailedPass  string `json:"failed_pass,omitempty"`

	// Fingerprints are recorded when the module is an *ir.Module.
	InputFingerprint  string `json:"input_fingerprint,omitempty"`
	OutputFingerprint string `json:"output_fingerprint,omitempty"`
}

// Executor applies pipelines to modules.
//
// An Executor holds no per-run state and may be shared by concurrent runs
// over distinct modules.
type Executor struct {
	log       *zap.Logger
	observers []Observer
	runIDs    RunIDGenerator
	clock     func() Clock
}

// NewExecutor returns an Executor.
func NewExecutor(opts ...Option) *Executor {
	o := applyOptions(opts)
	return &Executor{
		log:       o.log,
		observers: o.observers,
		runIDs:    o.runIDs,
		clock:     o.clock,
	}
}

// run carries the state of a single execution.
type run struct {
	e      *Executor
	cfg    *Config
	m      Module
	log    *zap.Logger
	clock  Clock
	sm     *stateMachine
	report *Report
}

// Run executes p over m under cfg.
//
// On success the module has been transformed in place and the report's
// state is StateDone. On failure the returned error is a *ValidationError,
// the report's state is StateFailed, and m must be discarded.
func (e *Executor) Run(p *Pipeline, cfg *Config, m Module) (*Report, error) {
	r := &run{
		e:     e,
		cfg:   cfg,
		m:     m,
		clock: e.clock(),
		sm:    newStateMachine(),
		report: &Report{
			RunID:    e.runIDs.Generate(),
			State:    StateStart,
			Resolved: p.IDs(),
		},
	}
	r.log = e.log.With(zap.String("run_id", r.report.RunID))
	if im, ok := m.(*ir.Module); ok {
		r.report.InputFingerprint = fingerprint(im)
	}

	r.log.Info("pipeline run started",
		zap.Int("steps", p.Len()),
		zap.String("strip", string(cfg.Strip())),
		zap.Bool("verify_each", cfg.VerifyEach()))

	if err := r.execute(p); err != nil {
		return r.report, err
	}

	if im, ok := m.(*ir.Module); ok {
		r.report.OutputFingerprint = fingerprint(im)
	}
	r.log.Info("pipeline run finished", zap.Int("steps_run", r.report.StepsRun))
	return r.report, nil
}

func (r *run) execute(p *Pipeline) error {
	// Stage 1: the input must be well formed before anything touches it.
	r.stage(StageInitialVerify)
	if err := r.verify(StageInitialVerify, 0, ""); err != nil {
		return err
	}

	// Stage 2: debug-only stripping happens before optimization. A full
	// strip is deferred to stage 4 so passes still see symbol names.
	r.stage(StageDebugStrip)
	debugStripped := false
	if r.cfg.Strip() == StripDebug {
		if err := r.strip(StageDebugStrip, true); err != nil {
			return err
		}
		debugStripped = true
	}
	r.sm.advance(StateDebugStripped)

	// Stage 3: the main sequence.
	r.stage(StageMain)
	if !r.cfg.DisableOptimizations() {
		for i, step := range p.Steps() {
			pos := i + 1
			r.m.Apply(step.Transformation)
			r.report.StepsRun = pos
			r.emit(Event{Kind: EventStepApplied, Stage: StageMain, Step: pos, Pass: string(step.ID)})
			r.log.Debug("step applied", zap.Int("step", pos), zap.String("pass", string(step.ID)))

			if r.cfg.VerifyEach() {
				if err := r.verify(StageMain, pos, string(step.ID)); err != nil {
					return err
				}
			}
		}
	}
	r.sm.advance(StateMainPassesRun)

	// Stage 4: terminal symbol stripping. A full strip subsumes debug.
	r.stage(StageSymbolStrip)
	switch {
	case r.cfg.Strip() == StripAll:
		if err := r.strip(StageSymbolStrip, false); err != nil {
			return err
		}
	case r.cfg.Strip() == StripDebug && !debugStripped:
		if err := r.strip(StageSymbolStrip, true); err != nil {
			return err
		}
	}
	r.sm.advance(StateSymbolsStripped)

	// Stage 5: final verification.
	if !r.cfg.DisableVerify() {
		r.stage(StageFinalVerify)
		if err := r.verify(StageFinalVerify, 0, ""); err != nil {
			return err
		}
	}
	r.sm.advance(StateDone)
	r.report.State = r.sm.State()
	r.emit(Event{Kind: EventRunFinished, State: r.report.State})
	return nil
}

func (r *run) strip(stage Stage, debugOnly bool) error {
	t := passlib.NewStripSymbols(debugOnly)
	r.m.Apply(t)
	r.report.StripsRun++
	r.emit(Event{Kind: EventStepApplied, Stage: stage, Pass: t.Name()})
	r.log.Debug("strip applied", zap.String("stage", string(stage)), zap.String("pass", t.Name()))

	if r.cfg.VerifyEach() {
		return r.verify(stage, 0, t.Name())
	}
	return nil
}

// verify checks the module and, on failure, moves the run to StateFailed
// and returns the *ValidationError.
func (r *run) verify(stage Stage, step int, pass string) error {
	err := r.m.Verify()
	ev := Event{Kind: EventVerified, Stage: stage, Step: step, Pass: pass, OK: err == nil}
	if err == nil {
		r.emit(ev)
		return nil
	}
	ev.Error = err.Error()
	r.emit(ev)

	r.sm.advance(StateFailed)
	r.report.State = r.sm.State()
	r.report.FailedStage = stage
	r.report.FailedStep = step
	r.report.FailedPass = pass
	r.emit(Event{Kind: EventRunFinished, Stage: stage, State: r.report.State, Error: err.Error()})

	r.log.Error("verification failed",
		zap.String("stage", string(stage)),
		zap.Int("step", step),
		zap.String("pass", pass),
		zap.Error(err))
	return &ValidationError{Stage: stage, Step: step, Pass: pass, Err: err}
}

func (r *run) stage(s Stage) {
	r.emit(Event{Kind: EventStageStarted, Stage: s})
}

func (r *run) emit(ev Event) {
	ev.Seq = r.clock.Next()
	ev.RunID = r.report.RunID
	for _, o := range r.e.observers {
		o.Observe(ev)
	}
}

func fingerprint(m *ir.Module) string {
	fp, err := ir.Fingerprint(m)
	if err != nil {
		return ""
	}
	return fp
}
