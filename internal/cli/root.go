package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/roach88/modopt/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	LogLevel string // zap level name; empty means warn
	Color    string // "auto" | "on" | "off"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidColorModes defines the allowed --color values.
var ValidColorModes = []string{"auto", "on", "off"}

// NewRootCommand creates the root command for the modopt CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "modopt",
		Short:   "modopt - whole-program optimizer driver",
		Version: fmt.Sprintf("%s (module schema %s)", ir.ToolVersion, ir.SchemaVersion),
		Long: `Run a configurable sequence of whole-program transformations over a linked
module, with structural verification between stages and optional symbol stripping.

Exit codes:
  0 - Success
  1 - Pipeline or verification failure
  2 - Command error (bad flags, unknown pass, unreadable module, config conflict)`,
		// Errors are reported by the commands or by main.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !contains(ValidColorModes, opts.Color) {
				return fmt.Errorf("invalid color mode %q: must be one of %v", opts.Color, ValidColorModes)
			}
			if _, err := opts.level(); err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			applyColorMode(opts.Color, os.Stdout)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (also lowers --log-level to debug)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Color, "color", "auto", "colorize output (auto|on|off)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))
	cmd.AddCommand(NewPipelineCommand(opts))
	cmd.AddCommand(NewPassesCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewPrintCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// level returns the effective log level. -v always means debug.
func (o *RootOptions) level() (zapcore.Level, error) {
	if o.Verbose {
		return zapcore.DebugLevel, nil
	}
	if o.LogLevel == "" {
		return zapcore.WarnLevel, nil
	}
	return zapcore.ParseLevel(o.LogLevel)
}

// newLogger builds the console logger commands hand to the pipeline.
// Logs go to w, which is the command's stderr so JSON output stays clean.
func (o *RootOptions) newLogger(w io.Writer) (*zap.Logger, error) {
	lvl, err := o.level()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid log level", err)
	}
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// applyColorMode sets fatih/color's global switch. "auto" colors only when
// out is a terminal.
func applyColorMode(mode string, out *os.File) {
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = !term.IsTerminal(int(out.Fd()))
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
