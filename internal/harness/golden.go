package harness

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/modopt/internal/ir"
	"github.com/roach88/modopt/internal/pipeline"
)

// Snapshot renders a result as the text stored in golden files: the run
// outcome, the resolved pipeline, the event log and the final module listing.
//
// Error text is left out so golden files do not depend on message wording.
func Snapshot(scenarioName string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", scenarioName)
	fmt.Fprintf(&b, "run: %s\n", result.RunID)
	fmt.Fprintf(&b, "state: %s\n", result.State)
	fmt.Fprintf(&b, "steps_run: %d\n", result.StepsRun)

	if len(result.Resolved) == 0 {
		b.WriteString("resolved: none\n")
	} else {
		b.WriteString("resolved:\n")
		for _, id := range result.Resolved {
			fmt.Fprintf(&b, "  %s\n", id)
		}
	}

	b.WriteString("events:\n")
	for _, ev := range result.Events {
		fmt.Fprintf(&b, "  %s\n", EventLine(ev))
	}

	b.WriteString("listing:\n")
	if result.Module != nil {
		b.WriteString(ir.Sprint(result.Module))
	}
	return []byte(b.String())
}

// EventLine formats one event as "seq kind [stage] [step=N] [pass=P]
// [ok|failed] [state=S]".
func EventLine(ev pipeline.Event) string {
	parts := []string{strconv.FormatInt(ev.Seq, 10), string(ev.Kind)}
	if ev.Stage != "" {
		parts = append(parts, string(ev.Stage))
	}
	if ev.Step > 0 {
		parts = append(parts, "step="+strconv.Itoa(ev.Step))
	}
	if ev.Pass != "" {
		parts = append(parts, "pass="+ev.Pass)
	}
	if ev.Kind == pipeline.EventVerified {
		if ev.OK {
			parts = append(parts, "ok")
		} else {
			parts = append(parts, "failed")
		}
	}
	if ev.State != "" {
		parts = append(parts, "state="+string(ev.State))
	}
	return strings.Join(parts, " ")
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
