package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/pipeline"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Pipeline PipelineFlags
	Output   string
	Database string

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, the executor's UUIDv7 generator is used.
	RunIDs pipeline.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <module>",
		Short: "Optimize one module",
		Long: `Run the configured pipeline over one module.

The module is verified first, optionally stripped of debug information,
optimized, optionally stripped of symbol names and verified again. The
result is written only when every stage succeeds.

Module files are YAML (.yaml, .yml), JSON (.json) or MessagePack (.mpk);
the output extension picks the encoding.

Examples:
  modopt run prog.yaml -o prog.opt.yaml --entry-point main
  modopt run prog.yaml --pass-list mem2reg,instrcomb,gdce --verify-each
  modopt run prog.mpk -o prog.opt.mpk -s --profile release.cue
  modopt run prog.yaml --db history.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModule(opts, args[0], cmd)
		},
	}

	opts.Pipeline.Bind(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the optimized module here")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

func runModule(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cat := catalog.Default()

	logger, err := opts.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return reportError(formatter, err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := opts.Pipeline.Config(cmd.Flags(), cat)
	if err != nil {
		return reportError(formatter, err)
	}

	st, err := openHistory(opts.Database)
	if err != nil {
		return reportError(formatter, err)
	}
	if st != nil {
		defer st.Close()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter.VerboseLog("optimizing %s", path)
	res, err := newOptimizer(cfg, cat, logger, st, opts.RunIDs).optimize(ctx, path, opts.Output)
	if err != nil {
		return reportError(formatter, err)
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd, res)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, res.Summary())
	if res.Failed() {
		fmt.Fprintf(w, "  %s\n", res.Error)
		return NewExitError(ExitFailure, fmt.Sprintf("pipeline failed in %s", res.Report.FailedStage))
	}
	if res.Output != "" {
		fmt.Fprintf(w, "  wrote %s\n", res.Output)
	}
	return nil
}

// outputRunJSON outputs a run result as JSON.
func outputRunJSON(cmd *cobra.Command, res *RunResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   res,
		RunID:  res.Report.RunID,
	}
	if res.Failed() {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeVerification,
			Message: res.Error,
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if res.Failed() {
		return NewExitError(ExitFailure, fmt.Sprintf("pipeline failed in %s", res.Report.FailedStage))
	}
	return nil
}
