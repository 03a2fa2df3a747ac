// Package harness runs pipeline scenarios as executable contract tests.
//
// A scenario names an input module, a pipeline configuration and the
// outcome the run must have. The harness builds the pipeline from the
// default catalog, executes it, records the run in an in-memory run store
// and checks the stored run against the scenario.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: internalize_then_dce
//	description: "What this scenario validates"
//	module: ../modules/app.yaml    # or fixture: whole_program
//	config:
//	  passes: [internalize, global-dce]
//	  entry_point: main
//	  verify_each: true
//	break_after: 0                 # corrupt the module after step N
//	expect:
//	  state: done
//	  steps_run: 2
//	assertions:
//	  - type: symbol_absent
//	    symbol: unused
//	  - type: event_order
//	    events: [stage_started main, run_finished]
//
// # Assertion Types
//
//   - pipeline_order: the resolved pass ids, exactly
//   - pass_count: how often one pass occurs in the resolved pipeline
//   - event_order: "kind stage" pairs in order, gaps allowed
//   - symbol_present, symbol_absent: a global or function in the output
//   - module_counts: named globals, named functions, debug nodes
//   - fingerprint_unchanged: the output module equals the input
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run id (scenario.run_id, default
// "scenario-run"), a step clock starting at 1 and a fresh in-memory SQLite
// database, so snapshots are identical across runs and compare cleanly
// against golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/strip_all.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
