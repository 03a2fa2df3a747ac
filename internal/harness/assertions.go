package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/modopt/internal/ir"
	"github.com/roach88/modopt/internal/pipeline"
)

// AssertionError is returned when an assertion fails.
// It includes the run's events to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Events   []pipeline.Event // Full event log for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nEvents:\n")
		for _, ev := range e.Events {
			fmt.Fprintf(&buf, "  %s\n", EventLine(ev))
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// the failure messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %s", i, err.Error()))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertPipelineOrder:
		return assertPipelineOrder(result, a)
	case AssertPassCount:
		return assertPassCount(result, a)
	case AssertEventOrder:
		return assertEventOrder(result, a)
	case AssertSymbolPresent:
		return assertSymbol(result, a, true)
	case AssertSymbolAbsent:
		return assertSymbol(result, a, false)
	case AssertModuleCounts:
		return assertModuleCounts(result, a)
	case AssertFingerprintUnchanged:
		return assertFingerprintUnchanged(result)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func resolvedNames(result *Result) []string {
	out := make([]string, len(result.Resolved))
	for i, id := range result.Resolved {
		out[i] = string(id)
	}
	return out
}

// assertPipelineOrder checks the resolved pipeline against an exact list.
func assertPipelineOrder(result *Result, a Assertion) error {
	got := resolvedNames(result)
	if strings.Join(got, ",") == strings.Join(a.Passes, ",") && len(got) == len(a.Passes) {
		return nil
	}
	return &AssertionError{
		Type:     AssertPipelineOrder,
		Expected: fmt.Sprintf("%v", a.Passes),
		Actual:   fmt.Sprintf("%v", got),
	}
}

// assertPassCount checks how often a pass occurs in the resolved pipeline.
func assertPassCount(result *Result, a Assertion) error {
	count := 0
	for _, id := range result.Resolved {
		if string(id) == a.Pass {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertPassCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Pass),
			Actual:   fmt.Sprintf("%d occurrences", count),
		}
	}
	return nil
}

// assertEventOrder checks that each "kind stage" pair appears after the
// previous one. Intervening events are allowed.
func assertEventOrder(result *Result, a Assertion) error {
	next := 0
	for _, ev := range result.Events {
		if next == len(a.Events) {
			break
		}
		if eventKey(ev) == a.Events[next] || string(ev.Kind) == a.Events[next] {
			next++
		}
	}
	if next == len(a.Events) {
		return nil
	}
	return &AssertionError{
		Type:     AssertEventOrder,
		Expected: fmt.Sprintf("events in order: %v", a.Events),
		Actual:   fmt.Sprintf("%q not found after %d matched", a.Events[next], next),
		Events:   result.Events,
	}
}

func eventKey(ev pipeline.Event) string {
	if ev.Stage == "" {
		return string(ev.Kind)
	}
	return string(ev.Kind) + " " + string(ev.Stage)
}

func assertSymbol(result *Result, a Assertion, present bool) error {
	found := result.Module.Global(a.Symbol) != nil || result.Module.Function(a.Symbol) != nil
	if found == present {
		return nil
	}
	typ, expected, actual := AssertSymbolPresent, "symbol @"+a.Symbol+" present", "not found"
	if !present {
		typ, expected, actual = AssertSymbolAbsent, "symbol @"+a.Symbol+" absent", "still defined"
	}
	return &AssertionError{Type: typ, Expected: expected, Actual: actual}
}

func assertModuleCounts(result *Result, a Assertion) error {
	m := result.Module
	var diffs []string
	check := func(name string, want *int, got int) {
		if want != nil && *want != got {
			diffs = append(diffs, fmt.Sprintf("%s: want %d, got %d", name, *want, got))
		}
	}
	check("named_globals", a.NamedGlobals, m.NamedGlobals())
	check("named_functions", a.NamedFunctions, m.NamedFunctions())
	check("debug_nodes", a.DebugNodes, m.DebugNodeCount())
	if len(diffs) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertModuleCounts,
		Expected: "module counts to match",
		Actual:   strings.Join(diffs, "; "),
	}
}

func assertFingerprintUnchanged(result *Result) error {
	got, err := ir.Fingerprint(result.Module)
	if err != nil {
		return err
	}
	if got == result.InputFingerprint {
		return nil
	}
	return &AssertionError{
		Type:     AssertFingerprintUnchanged,
		Expected: "fingerprint " + result.InputFingerprint,
		Actual:   "fingerprint " + got,
	}
}
