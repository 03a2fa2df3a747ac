package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/modopt/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string // glob over scenario file names, extension dropped
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult totals a test command invocation.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run pipeline scenarios",
		Long: `Run YAML pipeline scenarios with the harness.

Each scenario names a module, a configuration and the expected outcome.
When <scenarios-dir>/golden/<file>.golden exists the run's snapshot
(events and final listing) must match it as well.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  modopt test ./scenarios
  modopt test ./scenarios --filter "strip_*"
  modopt test ./scenarios --update
  modopt test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	if _, err := os.Stat(dir); err != nil {
		return WrapExitError(ExitCommandError, "scenarios directory not found", err)
	}
	files, err := scenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	asJSON := opts.Format == "json"
	w := cmd.OutOrStdout()
	if len(files) == 0 && !asJSON {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	summary := TestResult{Scenarios: []ScenarioResult{}, Total: len(files)}
	for _, file := range files {
		r := checkScenario(file, opts.Update)
		if r.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
		summary.Scenarios = append(summary.Scenarios, r)
		if !asJSON {
			printScenarioResult(w, r)
		}
	}

	if asJSON {
		if err := writeTestJSON(w, summary); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
	}
	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	if !asJSON && summary.Total > 0 {
		fmt.Fprintf(w, "%s All scenarios passed\n", markOK())
	}
	return nil
}

// scenarioFiles lists the .yaml and .yml files directly under dir whose
// name, without extension, matches filter. golden/ is never descended into.
func scenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		ext := filepath.Ext(name)
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(name, ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !ok {
				continue
			}
		}
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func failedScenario(name, format string, args ...any) ScenarioResult {
	return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf(format, args...)}}
}

// checkScenario runs one scenario file and, unless update is set, compares
// its snapshot with the golden file when one exists. With update the golden
// file is rewritten instead.
func checkScenario(file string, update bool) ScenarioResult {
	sc, err := harness.LoadScenario(file)
	if err != nil {
		return failedScenario(filepath.Base(file), "failed to load scenario: %v", err)
	}
	res, err := harness.Run(sc)
	if err != nil {
		return failedScenario(sc.Name, "execution failed: %v", err)
	}

	snap := harness.Snapshot(sc.Name, res)
	golden := goldenFilePath(file)
	if update {
		if err := os.MkdirAll(filepath.Dir(golden), 0755); err != nil {
			return failedScenario(sc.Name, "failed to update golden file: %v", err)
		}
		if err := os.WriteFile(golden, snap, 0644); err != nil {
			return failedScenario(sc.Name, "failed to update golden file: %v", err)
		}
	} else {
		want, err := os.ReadFile(golden)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			res.AddError(fmt.Sprintf("failed to read golden file: %v", err))
		case !bytes.Equal(want, snap):
			res.AddError("snapshot does not match golden file (run with --update to regenerate)")
		}
	}
	return ScenarioResult{Name: sc.Name, Pass: res.Pass, Errors: res.Errors}
}

func printScenarioResult(w io.Writer, r ScenarioResult) {
	if r.Pass {
		fmt.Fprintf(w, "%s %s\n", markOK(), r.Name)
		return
	}
	fmt.Fprintf(w, "%s %s\n", markFail(), r.Name)
	for _, msg := range r.Errors {
		fmt.Fprintf(w, "  %s\n", msg)
	}
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	return filepath.Join(filepath.Dir(scenarioFile), "golden", strings.TrimSuffix(base, filepath.Ext(base))+".golden")
}

func writeTestJSON(w io.Writer, summary TestResult) error {
	resp := CLIResponse{Status: "ok", Data: summary}
	if summary.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
