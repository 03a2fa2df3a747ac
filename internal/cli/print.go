package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/modopt/internal/ir"
)

// NewPrintCommand creates the print command.
func NewPrintCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "print <module>",
		Short: "Print a module listing or convert its encoding",
		Long: `Print a readable listing of a module. With -o the module is re-encoded
instead, the output extension picking YAML, JSON or MessagePack.

Examples:
  modopt print prog.yaml
  modopt print prog.yaml -o prog.mpk`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(rootOpts, args[0], output, cmd)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the module in another encoding")
	return cmd
}

func runPrint(opts *RootOptions, path, output string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	m, err := ir.ReadFile(path)
	if err != nil {
		return reportError(formatter, WrapExitError(ExitCommandError, msgReadModule, err))
	}

	if output != "" {
		if err := ir.WriteFile(output, m); err != nil {
			return reportError(formatter, WrapExitError(ExitCommandError, msgWriteModule, err))
		}
		if opts.Format == "json" {
			return formatter.Success(map[string]string{"module": m.Name, "output": output})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", markOK(), output)
		return nil
	}

	if opts.Format == "json" {
		return formatter.Success(m)
	}
	return ir.Print(cmd.OutOrStdout(), m)
}
