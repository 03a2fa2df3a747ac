package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/modopt/internal/harness"
	"github.com/roach88/modopt/internal/pipeline"
	"github.com/roach88/modopt/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database   string
	RunID      string
	Module     string
	ConfigHash string
}

// HistoryRun is the listed form of a recorded run.
type HistoryRun struct {
	Seq         int64          `json:"seq"`
	ID          string         `json:"id"`
	Module      string         `json:"module"`
	State       pipeline.State `json:"state"`
	StepsRun    int            `json:"steps_run"`
	StripsRun   int            `json:"strips_run"`
	ConfigHash  string         `json:"config_hash"`
	FailedStage pipeline.Stage `json:"failed_stage,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// HistoryDetail is one run with its events.
type HistoryDetail struct {
	Run    HistoryRun        `json:"run"`
	Config pipeline.Snapshot `json:"config"`
	Events []pipeline.Event  `json:"events"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded pipeline runs",
		Long: `List the runs recorded with --db, oldest first, or show one run's
configuration and event log with --run.

Examples:
  modopt history --db history.db
  modopt history --db history.db --module prog
  modopt history --db history.db --run 01923c1e-7d2a-7c4e-9b8f-3d1e2a4b5c6d`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run with its events")
	cmd.Flags().StringVar(&opts.Module, "module", "", "only runs of this module")
	cmd.Flags().StringVar(&opts.ConfigHash, "config-hash", "", "only runs with this configuration hash")
	cmd.MarkFlagsMutuallyExclusive("run", "module", "config-hash")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openHistory(opts.Database)
	if err != nil {
		return reportError(formatter, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunID != "" {
		return showRun(ctx, opts, st, cmd)
	}

	var runs []store.Run
	switch {
	case opts.Module != "":
		runs, err = st.RunsForModule(ctx, opts.Module)
	case opts.ConfigHash != "":
		runs, err = st.RunsByConfigHash(ctx, opts.ConfigHash)
	default:
		runs, err = st.ListRuns(ctx)
	}
	if err != nil {
		return reportError(formatter, WrapExitError(ExitCommandError, msgReadStore, err))
	}

	listed := make([]HistoryRun, len(runs))
	for i, r := range runs {
		listed[i] = historyRun(r)
	}

	if opts.Format == "json" {
		return formatter.Success(listed)
	}

	if len(listed) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}
	rows := make([][]string, len(listed))
	for i, r := range listed {
		mark := markOK()
		if r.State == pipeline.StateFailed {
			mark = markFail()
		}
		rows[i] = []string{
			fmt.Sprint(r.Seq), r.ID, r.Module, mark + " " + string(r.State),
			fmt.Sprint(r.StepsRun), shortHash(r.ConfigHash),
		}
	}
	writeTable(cmd, []string{"SEQ", "RUN", "MODULE", "STATE", "STEPS", "CONFIG"}, rows)
	return nil
}

func showRun(ctx context.Context, opts *HistoryOptions, st *store.Store, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		return reportError(formatter, NewExitError(ExitCommandError, fmt.Sprintf("no run %s in %s", opts.RunID, opts.Database)))
	}
	if err != nil {
		return reportError(formatter, WrapExitError(ExitCommandError, msgReadStore, err))
	}
	events, err := st.ReadEvents(ctx, opts.RunID)
	if err != nil {
		return reportError(formatter, WrapExitError(ExitCommandError, msgReadStore, err))
	}

	detail := HistoryDetail{Run: historyRun(run), Config: run.Config, Events: events}
	if opts.Format == "json" {
		return formatter.Success(detail)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run %s (#%d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "module: %s\n", run.Module)
	fmt.Fprintf(w, "state: %s\n", run.State)
	fmt.Fprintf(w, "config: %s\n", run.ConfigHash)
	if run.Error != "" {
		fmt.Fprintf(w, "error: %s\n", run.Error)
	}
	fmt.Fprintln(w, "events:")
	for _, ev := range events {
		fmt.Fprintf(w, "  %s\n", harness.EventLine(ev))
	}
	return nil
}

func historyRun(r store.Run) HistoryRun {
	return HistoryRun{
		Seq:         r.Seq,
		ID:          r.ID,
		Module:      r.Module,
		State:       r.State,
		StepsRun:    r.StepsRun,
		StripsRun:   r.StripsRun,
		ConfigHash:  r.ConfigHash,
		FailedStage: r.FailedStage,
		Error:       r.Error,
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
