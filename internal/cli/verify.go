package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/modopt/internal/ir"
)

// VerifyResult holds verification results.
type VerifyResult struct {
	Module      string       `json:"module"`
	Valid       bool         `json:"valid"`
	Fingerprint string       `json:"fingerprint"`
	Problems    []ir.Problem `json:"problems,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <module>",
		Short: "Check a module without optimizing it",
		Long: `Run structural verification over a module and report every problem:
dangling calls and references, duplicate symbols, invalid linkage, broken
debug attachments.

Exit codes:
  0 - Module is well formed
  1 - Module has problems
  2 - Command error (unreadable module)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args[0], cmd)
		},
	}
}

func runVerify(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	m, err := ir.ReadFile(path)
	if err != nil {
		return reportError(formatter, WrapExitError(ExitCommandError, msgReadModule, err))
	}

	fp, err := ir.Fingerprint(m)
	if err != nil {
		return reportError(formatter, WrapExitError(ExitCommandError, msgReadModule, err))
	}
	res := VerifyResult{
		Module:      m.Name,
		Fingerprint: fp,
		Problems:    m.Problems(),
	}
	res.Valid = len(res.Problems) == 0
	formatter.VerboseLog("fingerprint %s", fp)

	if opts.Format == "json" {
		return outputVerifyJSON(cmd, res)
	}

	w := cmd.OutOrStdout()
	if res.Valid {
		fmt.Fprintf(w, "%s %s: module is well formed\n", markOK(), res.Module)
		return nil
	}
	fmt.Fprintf(w, "%s %s: %d problem(s)\n", markFail(), res.Module, len(res.Problems))
	for _, p := range res.Problems {
		fmt.Fprintf(w, "  %s\n", p)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("module %s is invalid", res.Module))
}

func outputVerifyJSON(cmd *cobra.Command, res VerifyResult) error {
	response := CLIResponse{Status: "ok", Data: res}
	if !res.Valid {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeVerification,
			Message: fmt.Sprintf("%d problem(s)", len(res.Problems)),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	if !res.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("module %s is invalid", res.Module))
	}
	return nil
}
