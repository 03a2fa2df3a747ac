package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/pipeline"
)

// PipelineResult describes a resolved pipeline.
type PipelineResult struct {
	Source          string            `json:"source"` // "default", "selection" or "disabled"
	DefaultSequence string            `json:"default_sequence,omitempty"`
	Steps           []catalog.PassID  `json:"steps"`
	Config          pipeline.Snapshot `json:"config"`
}

// NewPipelineCommand creates the pipeline command.
func NewPipelineCommand(rootOpts *RootOptions) *cobra.Command {
	var flags PipelineFlags

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Print the resolved pass sequence",
		Long: `Resolve the pipeline flags (and profile) into the ordered pass sequence
that run would execute, without reading a module.

Passes that need a parameter the configuration does not supply, such as
internalize without --entry-point or --preserve, are left out.

Examples:
  modopt pipeline
  modopt pipeline --disable-inlining --entry-point main
  modopt pipeline --profile release.toml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(rootOpts, &flags, cmd)
		},
	}

	flags.Bind(cmd)
	return cmd
}

func runPipeline(opts *RootOptions, flags *PipelineFlags, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cat := catalog.Default()

	logger, err := opts.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return reportError(formatter, err)
	}

	cfg, err := flags.Config(cmd.Flags(), cat)
	if err != nil {
		return reportError(formatter, err)
	}
	p, err := pipeline.NewBuilder(cat, pipeline.WithLogger(logger)).Build(cfg)
	if err != nil {
		return reportError(formatter, WrapExitError(ExitCommandError, msgBuild, err))
	}

	res := PipelineResult{
		Source: "selection",
		Steps:  p.IDs(),
		Config: cfg.Snapshot(),
	}
	switch {
	case cfg.DisableOptimizations():
		res.Source = "disabled"
	case len(cfg.SelectedIDs()) == 0:
		res.Source = "default"
		res.DefaultSequence = catalog.DefaultSequenceVersion
	}

	if opts.Format == "json" {
		return formatter.Success(res)
	}

	w := cmd.OutOrStdout()
	switch res.Source {
	case "default":
		fmt.Fprintf(w, "Pipeline (default %s, %d steps, strip %s):\n", res.DefaultSequence, len(res.Steps), cfg.Strip())
	case "disabled":
		fmt.Fprintf(w, "Pipeline (optimizations disabled, strip %s)\n", cfg.Strip())
	default:
		fmt.Fprintf(w, "Pipeline (selected, %d steps, strip %s):\n", len(res.Steps), cfg.Strip())
	}
	for i, id := range res.Steps {
		fmt.Fprintf(w, "%4d  %s\n", i+1, id)
	}
	return nil
}
