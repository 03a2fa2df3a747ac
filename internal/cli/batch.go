package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/pipeline"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Pipeline PipelineFlags
	Jobs     int
	OutDir   string
	Database string

	// RunIDs allows overriding the run id generator (for testing).
	RunIDs pipeline.RunIDGenerator
}

// BatchResult holds the outcome of a batch.
type BatchResult struct {
	Runs      []*RunResult `json:"runs"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Total     int          `json:"total"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <module>...",
		Short: "Optimize several modules concurrently",
		Long: `Run the same pipeline over several independent modules.

Up to --jobs modules are optimized at once; each run is still strictly
sequential. With --out-dir every successful module is written there under
its input file name. A failed run does not stop the others.

Exit codes:
  0 - All modules optimized
  1 - One or more pipeline runs failed
  2 - Command error (unreadable module, bad flags, etc.)

Examples:
  modopt batch a.yaml b.yaml c.yaml --out-dir out/ -j 4 --strip-debug
  modopt batch mods/*.mpk --out-dir out/ --db history.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args, cmd)
		},
	}

	opts.Pipeline.Bind(cmd)
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.NumCPU(), "modules optimized at once")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "write optimized modules to this directory")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record every run in this SQLite database")

	return cmd
}

func runBatch(opts *BatchOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cat := catalog.Default()

	if opts.Jobs < 1 {
		return reportError(formatter, NewExitError(ExitCommandError, fmt.Sprintf("--jobs must be at least 1, got %d", opts.Jobs)))
	}

	logger, err := opts.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return reportError(formatter, err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := opts.Pipeline.Config(cmd.Flags(), cat)
	if err != nil {
		return reportError(formatter, err)
	}

	outputs, err := batchOutputs(opts.OutDir, paths)
	if err != nil {
		return reportError(formatter, err)
	}
	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
			return reportError(formatter, WrapExitError(ExitCommandError, msgWriteModule, err))
		}
	}

	st, err := openHistory(opts.Database)
	if err != nil {
		return reportError(formatter, err)
	}
	if st != nil {
		defer st.Close()
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}

	o := newOptimizer(cfg, cat, logger, st, opts.RunIDs)
	results := make([]*RunResult, len(paths))

	g, ctx := errgroup.WithContext(parent)
	g.SetLimit(opts.Jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := o.optimize(ctx, path, outputs[i])
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reportError(formatter, err)
	}

	batch := BatchResult{Runs: results, Total: len(results)}
	for _, res := range results {
		if res.Failed() {
			batch.Failed++
		} else {
			batch.Succeeded++
		}
	}

	if opts.Format == "json" {
		return outputBatchJSON(cmd, batch)
	}
	return outputBatchText(cmd, batch)
}

// batchOutputs returns the output path of each input, empty when outDir is
// unset. Inputs are written under their base name, so two inputs sharing one
// are rejected before anything runs.
func batchOutputs(outDir string, paths []string) ([]string, error) {
	outputs := make([]string, len(paths))
	if outDir == "" {
		return outputs, nil
	}
	owner := make(map[string]string, len(paths))
	for i, path := range paths {
		out := filepath.Join(outDir, filepath.Base(path))
		if prev, ok := owner[out]; ok {
			return nil, WrapExitError(ExitCommandError, msgOutputPath,
				fmt.Errorf("%s and %s would both be written to %s", prev, path, out))
		}
		owner[out] = path
		outputs[i] = out
	}
	return outputs, nil
}

func outputBatchJSON(cmd *cobra.Command, batch BatchResult) error {
	response := CLIResponse{Status: "ok", Data: batch}
	if batch.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeVerification,
			Message: fmt.Sprintf("%d module(s) failed", batch.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	if batch.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d module(s) failed", batch.Failed))
	}
	return nil
}

func outputBatchText(cmd *cobra.Command, batch BatchResult) error {
	w := cmd.OutOrStdout()
	for _, res := range batch.Runs {
		fmt.Fprintln(w, res.Summary())
		if res.Failed() {
			fmt.Fprintf(w, "  %s\n", res.Error)
		} else if res.Output != "" {
			fmt.Fprintf(w, "  wrote %s\n", res.Output)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Batch Summary: %d succeeded, %d failed, %d total\n", batch.Succeeded, batch.Failed, batch.Total)
	if batch.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d module(s) failed", batch.Failed))
	}
	return nil
}
