package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/modopt/internal/ir"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--color=off"))
	err := cmd.Execute()
	return out.String(), err
}

// writeModule stores m under dir/name and returns the path.
func writeModule(t *testing.T, dir, name string, m *ir.Module) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, ir.WriteFile(path, m))
	return path
}

// commandWithFlags returns a bare command carrying the pipeline flags,
// already parsed from args.
func commandWithFlags(t *testing.T, flags *PipelineFlags, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	flags.Bind(cmd)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"run", "batch", "pipeline", "passes", "verify", "print", "history", "test"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	flags := cmd.PersistentFlags()

	tests := []struct {
		name string
		def  string
	}{
		{"verbose", "false"},
		{"format", "text"},
		{"log-level", "warn"},
		{"color", "auto"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := flags.Lookup(tt.name)
			require.NotNil(t, f, "flag --%s missing", tt.name)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
	assert.Equal(t, "v", flags.Lookup("verbose").Shorthand)
}

func TestRootCommand_InvalidGlobalFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"format", []string{"passes", "--format", "xml"}, `invalid format "xml"`},
		{"color", []string{"passes", "--color", "always"}, `invalid color mode "always"`},
		{"log level", []string{"passes", "--log-level", "chatty"}, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCommand()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRootCommand_Version(t *testing.T) {
	stdout, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "modopt version 0.1.0 (module schema 1)\n", stdout)
}

func TestRootOptions_Level(t *testing.T) {
	tests := []struct {
		name    string
		opts    RootOptions
		want    zapcore.Level
		wantErr bool
	}{
		{"default", RootOptions{}, zapcore.WarnLevel, false},
		{"explicit", RootOptions{LogLevel: "info"}, zapcore.InfoLevel, false},
		{"verbose wins", RootOptions{Verbose: true, LogLevel: "error"}, zapcore.DebugLevel, false},
		{"unknown", RootOptions{LogLevel: "chatty"}, zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.level()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyColorMode(t *testing.T) {
	defer func() { color.NoColor = true }()

	applyColorMode("on", os.Stdout)
	assert.False(t, color.NoColor)

	applyColorMode("off", os.Stdout)
	assert.True(t, color.NoColor)
}
