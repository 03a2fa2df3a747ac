package store

import (
	"sync"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/pipeline"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID         string
	Seq        int64 // assigned by WriteRun
	Module     string
	Config     pipeline.Snapshot
	ConfigHash string
	Resolved   []catalog.PassID
	State      pipeline.State
	StepsRun   int
	StripsRun  int

	FailedStage pipeline.Stage
	FailedStep  int
	FailedPass  string
	Error       string

	InputFingerprint  string
	OutputFingerprint string
}

// NewRun builds the record of a finished run from its config, report and
// the error Run returned, if any.
func NewRun(module string, cfg *pipeline.Config, report *pipeline.Report, runErr error) (Run, error) {
	hash, err := cfg.Hash()
	if err != nil {
		return Run{}, err
	}
	r := Run{
		ID:                report.RunID,
		Module:            module,
		Config:            cfg.Snapshot(),
		ConfigHash:        hash,
		Resolved:          append([]catalog.PassID(nil), report.Resolved...),
		State:             report.State,
		StepsRun:          report.StepsRun,
		StripsRun:         report.StripsRun,
		FailedStage:       report.FailedStage,
		FailedStep:        report.FailedStep,
		FailedPass:        report.FailedPass,
		InputFingerprint:  report.InputFingerprint,
		OutputFingerprint: report.OutputFingerprint,
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	return r, nil
}

// Recorder is a pipeline.Observer that buffers events per run until they
// are written with WriteRun.
//
// Thread-safety: Recorder is safe for concurrent use, so one Recorder may
// observe every run of a batch.
type Recorder struct {
	mu    sync.Mutex
	byRun map[string][]pipeline.Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{byRun: make(map[string][]pipeline.Event)}
}

// Observe implements pipeline.Observer.
func (r *Recorder) Observe(e pipeline.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRun[e.RunID] = append(r.byRun[e.RunID], e)
}

// Take returns and forgets the buffered events of one run.
func (r *Recorder) Take(runID string) []pipeline.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.byRun[runID]
	delete(r.byRun, runID)
	return events
}

// Pending returns the number of runs with buffered events.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byRun)
}
