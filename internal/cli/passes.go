package cli

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/roach88/modopt/internal/catalog"
)

// PassInfo describes one catalog entry.
type PassInfo struct {
	ID          catalog.PassID `json:"id"`
	CLIName     string         `json:"cli_name"`
	Description string         `json:"description"`
	InDefault   int            `json:"in_default"` // occurrences in the default sequence
}

// NewPassesCommand creates the passes command.
func NewPassesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "passes",
		Short: "List the pass catalog",
		Long: `List every registered pass with its command-line name, how often it
occurs in the default sequence, and a short description.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPasses(rootOpts, cmd)
		},
	}
}

// listPasses returns the catalog sorted by id.
func listPasses(cat *catalog.Catalog) []PassInfo {
	counts := make(map[catalog.PassID]int)
	for _, id := range catalog.DefaultSequence() {
		counts[id]++
	}

	descs := cat.List()
	out := make([]PassInfo, len(descs))
	for i, d := range descs {
		out[i] = PassInfo{ID: d.ID, CLIName: d.CLIName, Description: d.Description, InDefault: counts[d.ID]}
	}
	return out
}

func runPasses(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	passes := listPasses(catalog.Default())

	if opts.Format == "json" {
		return formatter.Success(passes)
	}

	headers := []string{"ID", "NAME", "DEFAULT", "DESCRIPTION"}
	rows := make([][]string, len(passes))
	for i, p := range passes {
		rows[i] = []string{string(p.ID), p.CLIName, fmt.Sprint(p.InDefault), p.Description}
	}
	writeTable(cmd, headers, rows)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d passes, default sequence %s (%d steps)\n",
		len(passes), catalog.DefaultSequenceVersion, len(catalog.DefaultSequence()))
	return nil
}

// writeTable prints rows in padded columns. The last column is not padded.
func writeTable(cmd *cobra.Command, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	w := cmd.OutOrStdout()
	line := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i == len(cells)-1 {
				parts[i] = cell
				continue
			}
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintln(w, strings.Join(parts, "  "))
	}

	line(headers)
	for _, row := range rows {
		line(row)
	}
}
