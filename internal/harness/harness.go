package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/ir"
	"github.com/roach88/modopt/internal/pipeline"
	"github.com/roach88/modopt/internal/store"
	"github.com/roach88/modopt/internal/testutil"
)

// DefaultRunID is the run id of scenarios that do not set one.
const DefaultRunID = "scenario-run"

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and run id, and records each
// run in a run store the assertions read back from.
type Harness struct {
	store    *store.Store
	catalog  *catalog.Catalog
	recorder *store.Recorder
	clock    *testutil.StepClock
	logger   *zap.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the input module and resolve the configuration
// 3. Build the pipeline, planting a corruption if break_after is set
// 4. Execute it with a Recorder attached and store the run
// 5. Check the expect clause and assertions against the stored run
//
// A pipeline failure is an outcome, not an error: the returned error is
// reserved for scenarios that cannot be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, zap.NewNop())
}

// RunWithLogger is Run with pipeline logging sent to logger.
func RunWithLogger(scenario *Scenario, logger *zap.Logger) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		catalog:  catalog.Default(),
		recorder: store.NewRecorder(),
		clock:    testutil.NewStepClock(),
		logger:   logger,
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	m, err := loadModule(scenario)
	if err != nil {
		return nil, err
	}

	cfg, err := h.config(scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	p, err := pipeline.NewBuilder(h.catalog, pipeline.WithLogger(h.logger)).Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	if scenario.BreakAfter > 0 {
		if p, err = plantBreak(p, scenario.BreakAfter); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}

	runID := scenario.RunID
	if runID == "" {
		runID = DefaultRunID
	}
	exec := pipeline.NewExecutor(
		pipeline.WithLogger(h.logger),
		pipeline.WithObserver(h.recorder),
		pipeline.WithRunIDs(testutil.NewFixedRunID(runID)),
		pipeline.WithClock(h.clock),
	)

	result := NewResult()
	result.InputFingerprint = ir.MustFingerprint(m)

	report, runErr := exec.Run(p, cfg, m)
	rec, err := store.NewRun(moduleName(scenario, m), cfg, report, runErr)
	if err != nil {
		return nil, err
	}
	if _, err := h.store.WriteRun(ctx, rec, h.recorder.Take(report.RunID)); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	stored, err := h.store.ReadRun(ctx, report.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to read run back: %w", err)
	}
	events, err := h.store.ReadEvents(ctx, report.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to read events back: %w", err)
	}

	result.RunID = stored.ID
	result.State = stored.State
	result.Resolved = stored.Resolved
	result.StepsRun = stored.StepsRun
	result.RunError = stored.Error
	result.Events = events
	result.Module = m

	checkExpect(scenario.Expect, stored, result)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		zap.String("scenario", scenario.Name),
		zap.String("run_id", result.RunID),
		zap.Bool("pass", result.Pass))
	return result, nil
}

// config resolves a scenario's settings into a pipeline config.
func (h *Harness) config(b ConfigBlock) (*pipeline.Config, error) {
	passes, err := h.catalog.ResolveAll(b.Passes)
	if err != nil {
		return nil, err
	}
	disabled, err := h.catalog.ResolveAll(b.Disable)
	if err != nil {
		return nil, err
	}
	strip, err := pipeline.ParseStripMode(b.Strip)
	if err != nil {
		return nil, err
	}
	return pipeline.NewConfig(pipeline.Options{
		Passes:               passes,
		Disabled:             disabled,
		DisableOptimizations: b.DisableOptimizations,
		VerifyEach:           b.VerifyEach,
		Strip:                strip,
		DisableVerify:        b.DisableVerify,
		Preserved:            b.Preserve,
		EntryPoint:           b.EntryPoint,
		InlineThreshold:      b.InlineThreshold,
	})
}

func checkExpect(want ExpectClause, got store.Run, result *Result) {
	if string(got.State) != want.State {
		result.AddError(fmt.Sprintf("expected state %s, got %s (%s)", want.State, got.State, got.Error))
	}
	if want.FailedStage != "" && string(got.FailedStage) != want.FailedStage {
		result.AddError(fmt.Sprintf("expected failure in stage %s, got %q", want.FailedStage, got.FailedStage))
	}
	if want.StepsRun != nil && got.StepsRun != *want.StepsRun {
		result.AddError(fmt.Sprintf("expected %d steps run, got %d", *want.StepsRun, got.StepsRun))
	}
}

func loadModule(s *Scenario) (*ir.Module, error) {
	switch s.Fixture {
	case FixtureWholeProgram:
		return testutil.WholeProgram(), nil
	case FixtureThreeGlobals:
		return testutil.ThreeGlobals(), nil
	}
	m, err := ir.ReadFile(s.Module)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return m, nil
}

func moduleName(s *Scenario, m *ir.Module) string {
	if m.Name != "" {
		return m.Name
	}
	return s.Name
}

// corrupting wraps a step's transformation so the module fails
// verification once it has run.
type corrupting struct {
	inner ir.Transformation
}

func (c corrupting) Name() string { return c.inner.Name() }

func (c corrupting) Transform(m *ir.Module) {
	c.inner.Transform(m)
	testutil.Corrupt(m)
}

func plantBreak(p *pipeline.Pipeline, at int) (*pipeline.Pipeline, error) {
	steps := p.Steps()
	if at > len(steps) {
		return nil, fmt.Errorf("break_after %d is past the end of a %d-step pipeline", at, len(steps))
	}
	steps[at-1].Transformation = corrupting{inner: steps[at-1].Transformation}
	return pipeline.NewPipeline(steps...), nil
}
