package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/ir"
	"github.com/roach88/modopt/internal/pipeline"
	"github.com/roach88/modopt/internal/profile"
	"github.com/roach88/modopt/internal/store"
)

// Messages of command errors, also used to pick response codes.
const (
	msgOutputPath  = "invalid output path"
	msgReadModule  = "failed to read module"
	msgWriteModule = "failed to write module"
	msgBuild       = "failed to build pipeline"
	msgOpenStore   = "failed to open database"
	msgRecordRun   = "failed to record run"
	msgReadStore   = "failed to read history"
)

// RunResult is the outcome of optimizing one module.
type RunResult struct {
	Module string           `json:"module"`
	Input  string           `json:"input"`
	Output string           `json:"output,omitempty"`
	Report *pipeline.Report `json:"report"`
	Error  string           `json:"error,omitempty"`
}

// Failed reports whether the pipeline run failed.
func (r *RunResult) Failed() bool {
	return r.Report != nil && r.Report.State == pipeline.StateFailed
}

// Summary is the one-line text form of the result.
func (r *RunResult) Summary() string {
	rep := r.Report
	if r.Failed() {
		if rep.FailedStep > 0 {
			return fmt.Sprintf("%s %s: failed in %s after step %d (%s)", markFail(), r.Module, rep.FailedStage, rep.FailedStep, rep.FailedPass)
		}
		return fmt.Sprintf("%s %s: failed in %s", markFail(), r.Module, rep.FailedStage)
	}
	return fmt.Sprintf("%s %s: %s, %d steps, %d strips (run %s)", markOK(), r.Module, rep.State, rep.StepsRun, rep.StripsRun, rep.RunID)
}

// optimizer runs the configured pipeline over module files. One optimizer
// may serve concurrent calls.
type optimizer struct {
	cfg  *pipeline.Config
	cat  *catalog.Catalog
	log  *zap.Logger
	exec *pipeline.Executor
	st   *store.Store    // nil when history is off
	rec  *store.Recorder // nil when history is off
}

func newOptimizer(cfg *pipeline.Config, cat *catalog.Catalog, log *zap.Logger, st *store.Store, ids pipeline.RunIDGenerator) *optimizer {
	o := &optimizer{cfg: cfg, cat: cat, log: log, st: st}
	opts := []pipeline.Option{pipeline.WithLogger(log)}
	if ids != nil {
		opts = append(opts, pipeline.WithRunIDs(ids))
	}
	if st != nil {
		o.rec = store.NewRecorder()
		opts = append(opts, pipeline.WithObserver(o.rec))
	}
	o.exec = pipeline.NewExecutor(opts...)
	return o
}

// optimize reads the module at in, runs the pipeline and, when the run
// succeeds and out is set, writes the result to out. A failed run is
// reported in the result; the returned error is for everything else.
func (o *optimizer) optimize(ctx context.Context, in, out string) (*RunResult, error) {
	if out != "" {
		if _, err := ir.FormatFromPath(out); err != nil {
			return nil, WrapExitError(ExitCommandError, msgOutputPath, err)
		}
	}
	m, err := ir.ReadFile(in)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, msgReadModule, err)
	}
	name := m.Name
	if name == "" {
		name = filepath.Base(in)
	}

	// Each module gets fresh pass instances.
	p, err := pipeline.NewBuilder(o.cat, pipeline.WithLogger(o.log)).Build(o.cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, msgBuild, err)
	}

	report, runErr := o.exec.Run(p, o.cfg, m)
	res := &RunResult{Module: name, Input: in, Report: report}
	if runErr != nil {
		res.Error = runErr.Error()
	}

	if o.st != nil {
		rec, err := store.NewRun(name, o.cfg, report, runErr)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, msgRecordRun, err)
		}
		if _, err := o.st.WriteRun(ctx, rec, o.rec.Take(report.RunID)); err != nil {
			return nil, WrapExitError(ExitCommandError, msgRecordRun, err)
		}
	}

	// A failed module is discarded.
	if runErr == nil && out != "" {
		if err := ir.WriteFile(out, m); err != nil {
			return nil, WrapExitError(ExitCommandError, msgWriteModule, err)
		}
		res.Output = out
	}
	return res, nil
}

// openHistory opens the run store when path is set.
func openHistory(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, msgOpenStore, err)
	}
	return st, nil
}

// errorCode picks the response code for a command error.
func errorCode(err error) string {
	var pe *profile.Error
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.Message {
		case msgOutputPath, msgReadModule, msgWriteModule:
			return ErrCodeModule
		case msgOpenStore, msgRecordRun, msgReadStore:
			return ErrCodeStore
		}
	}
	switch {
	case pipeline.IsValidationError(err):
		return ErrCodeVerification
	case catalog.IsUnknownPass(err), pipeline.IsConfigError(err), errors.As(err, &pe):
		return ErrCodeConfig
	default:
		return ErrCodeUsage
	}
}

// reportError writes err through the formatter and returns it as an exit
// error. Errors that already carry an exit code keep it.
func reportError(f *OutputFormatter, err error) error {
	_ = f.Error(errorCode(err), err.Error(), nil)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return WrapExitError(ExitCommandError, "invalid configuration", err)
}
