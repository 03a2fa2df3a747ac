package harness

import (
	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/ir"
	"github.com/roach88/modopt/internal/pipeline"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success: the expect clause held and every
	// assertion matched.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// RunID is the id the run was recorded under.
	RunID string `json:"run_id"`

	// State is the final run state.
	State pipeline.State `json:"state"`

	// Resolved is the built pass order.
	Resolved []catalog.PassID `json:"resolved"`

	// StepsRun counts main steps applied.
	StepsRun int `json:"steps_run"`

	// RunError is the executor's error text for failed runs.
	RunError string `json:"run_error,omitempty"`

	// Events are the run's events as read back from the run store.
	Events []pipeline.Event `json:"events"`

	// InputFingerprint and Module describe the module before and after.
	InputFingerprint string     `json:"input_fingerprint"`
	Module           *ir.Module `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Errors:   []string{},
		Resolved: []catalog.PassID{},
		Events:   []pipeline.Event{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
