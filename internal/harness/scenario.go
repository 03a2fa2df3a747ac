package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a pipeline test scenario: one module, one configuration,
// the expected outcome and assertions over the run.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Module is the path of the input module file (.yaml, .json, .mpk).
	// Relative paths are resolved against the scenario file's directory.
	Module string `yaml:"module,omitempty"`

	// Fixture names a built-in module instead of a file:
	// "whole_program" or "three_globals".
	Fixture string `yaml:"fixture,omitempty"`

	// Config is the pipeline configuration.
	Config ConfigBlock `yaml:"config"`

	// BreakAfter corrupts the module right after the step at this 1-based
	// position, to exercise failure handling. Zero disables it.
	BreakAfter int `yaml:"break_after,omitempty"`

	// Expect describes the run outcome.
	Expect ExpectClause `yaml:"expect"`

	// Assertions validate the resolved pipeline, events and final module.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run id. Defaults to "scenario-run" so
	// golden snapshots are stable.
	RunID string `yaml:"run_id,omitempty"`
}

// ConfigBlock mirrors the pipeline settings. Pass names may be ids or CLI
// spellings.
type ConfigBlock struct {
	Passes               []string `yaml:"passes,omitempty"`
	Disable              []string `yaml:"disable,omitempty"`
	DisableOptimizations bool     `yaml:"disable_optimizations,omitempty"`
	VerifyEach           bool     `yaml:"verify_each,omitempty"`
	Strip                string   `yaml:"strip,omitempty"`
	DisableVerify        bool     `yaml:"disable_verify,omitempty"`
	EntryPoint           string   `yaml:"entry_point,omitempty"`
	Preserve             []string `yaml:"preserve,omitempty"`
	InlineThreshold      int      `yaml:"inline_threshold,omitempty"`
}

// ExpectClause specifies the expected run outcome.
type ExpectClause struct {
	// State is the expected final state: "done" or "failed".
	State string `yaml:"state"`

	// FailedStage is the stage that failed verification, for failed runs.
	FailedStage string `yaml:"failed_stage,omitempty"`

	// StepsRun is the expected number of main steps applied, if given.
	StepsRun *int `yaml:"steps_run,omitempty"`
}

// Assertion validates one aspect of a finished run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "pipeline_order": resolved pass ids equal Passes exactly
	// - "pass_count": Pass occurs Count times in the resolved pipeline
	// - "event_order": the Events appear in order (gaps allowed)
	// - "symbol_present" / "symbol_absent": Symbol names a global or function
	// - "module_counts": NamedGlobals, NamedFunctions and DebugNodes match
	// - "fingerprint_unchanged": the module is byte for byte the input
	Type string `yaml:"type"`

	Passes []string `yaml:"passes,omitempty"`
	Pass   string   `yaml:"pass,omitempty"`
	Count  int      `yaml:"count,omitempty"`

	// Events are "kind stage" pairs such as "step_applied symbol-strip".
	Events []string `yaml:"events,omitempty"`

	Symbol string `yaml:"symbol,omitempty"`

	NamedGlobals   *int `yaml:"named_globals,omitempty"`
	NamedFunctions *int `yaml:"named_functions,omitempty"`
	DebugNodes     *int `yaml:"debug_nodes,omitempty"`
}

// Assertion type constants.
const (
	AssertPipelineOrder        = "pipeline_order"
	AssertPassCount            = "pass_count"
	AssertEventOrder           = "event_order"
	AssertSymbolPresent        = "symbol_present"
	AssertSymbolAbsent         = "symbol_absent"
	AssertModuleCounts         = "module_counts"
	AssertFingerprintUnchanged = "fingerprint_unchanged"
)

// Built-in fixtures.
const (
	FixtureWholeProgram = "whole_program"
	FixtureThreeGlobals = "three_globals"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative Module path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Module != "" && !filepath.IsAbs(scenario.Module) {
		scenario.Module = filepath.Join(filepath.Dir(path), scenario.Module)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Module paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch {
	case s.Module == "" && s.Fixture == "":
		return fmt.Errorf("one of module or fixture is required")
	case s.Module != "" && s.Fixture != "":
		return fmt.Errorf("module and fixture are mutually exclusive")
	}
	if s.Fixture != "" && s.Fixture != FixtureWholeProgram && s.Fixture != FixtureThreeGlobals {
		return fmt.Errorf("unknown fixture %q", s.Fixture)
	}
	if s.BreakAfter < 0 {
		return fmt.Errorf("break_after must be non-negative")
	}

	switch s.Expect.State {
	case "done":
		if s.Expect.FailedStage != "" {
			return fmt.Errorf("expect.failed_stage requires state failed")
		}
	case "failed":
	default:
		return fmt.Errorf("expect.state must be done or failed, got %q", s.Expect.State)
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPipelineOrder:
		if a.Passes == nil {
			return fmt.Errorf("assertions[%d]: passes list is required for pipeline_order", index)
		}
	case AssertPassCount:
		if a.Pass == "" {
			return fmt.Errorf("assertions[%d]: pass is required for pass_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for pass_count", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
	case AssertSymbolPresent, AssertSymbolAbsent:
		if a.Symbol == "" {
			return fmt.Errorf("assertions[%d]: symbol is required for %s", index, a.Type)
		}
	case AssertModuleCounts:
		if a.NamedGlobals == nil && a.NamedFunctions == nil && a.DebugNodes == nil {
			return fmt.Errorf("assertions[%d]: module_counts needs at least one count", index)
		}
	case AssertFingerprintUnchanged:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
