package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/pipeline"
	"github.com/roach88/modopt/internal/profile"
)

// PipelineFlags holds the pipeline configuration flags shared by run, batch
// and pipeline.
type PipelineFlags struct {
	PassList             string
	DisablePasses        []string
	DisableInlining      bool
	DisableInternalize   bool
	DisableInstCombine   bool
	DisableMem2Reg       bool
	DisableSROA          bool
	DisableStripDP       bool
	DisableIPConstProp   bool
	DisableOptimizations bool
	VerifyEach           bool
	DisableVerify        bool
	StripAll             bool
	StripDebug           bool
	EntryPoint           string
	Preserve             []string
	InlineThreshold      int
	Profile              string
}

// disableShortcuts maps the historical --disable-* switches to pass ids.
var disableShortcuts = []struct {
	flag string
	id   catalog.PassID
	get  func(*PipelineFlags) bool
}{
	{"disable-inlining", catalog.Inline, func(f *PipelineFlags) bool { return f.DisableInlining }},
	{"disable-internalize", catalog.Internalize, func(f *PipelineFlags) bool { return f.DisableInternalize }},
	{"disable-instrcomb", catalog.InstCombine, func(f *PipelineFlags) bool { return f.DisableInstCombine }},
	{"disable-memtoreg", catalog.Mem2Reg, func(f *PipelineFlags) bool { return f.DisableMem2Reg }},
	{"disable-sreplaggr", catalog.SROA, func(f *PipelineFlags) bool { return f.DisableSROA }},
	{"disable-stripdp", catalog.StripDeadPrototypes, func(f *PipelineFlags) bool { return f.DisableStripDP }},
	{"disable-ipconstprop", catalog.IPConstProp, func(f *PipelineFlags) bool { return f.DisableIPConstProp }},
}

// flagSettings maps each flag to the setting it specifies, so a profile
// conflict is reported only for settings the user actually typed.
var flagSettings = map[string]string{
	"pass-list":             pipeline.SettingPasses,
	"opt-type":              pipeline.SettingPasses,
	"disable-pass":          pipeline.SettingDisable,
	"disable-inlining":      pipeline.SettingDisable,
	"disable-internalize":   pipeline.SettingDisable,
	"export-dynamic":        pipeline.SettingDisable,
	"disable-instrcomb":     pipeline.SettingDisable,
	"disable-memtoreg":      pipeline.SettingDisable,
	"disable-sreplaggr":     pipeline.SettingDisable,
	"disable-stripdp":       pipeline.SettingDisable,
	"disable-ipconstprop":   pipeline.SettingDisable,
	"disable-optimizations": pipeline.SettingDisableOptimizations,
	"verify-each":           pipeline.SettingVerifyEach,
	"disable-verify":        pipeline.SettingDisableVerify,
	"strip-all":             pipeline.SettingStrip,
	"strip-debug":           pipeline.SettingStrip,
	"entry-point":           pipeline.SettingEntryPoint,
	"preserve":              pipeline.SettingPreserve,
	"inline-threshold":      pipeline.SettingInlineThreshold,
}

// Bind registers the flags on cmd.
func (f *PipelineFlags) Bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.PassList, "pass-list", "", "comma-separated pass list replacing the default sequence")
	fs.StringVar(&f.PassList, "opt-type", "", "alias of --pass-list")
	fs.StringArrayVar(&f.DisablePasses, "disable-pass", nil, "disable a pass by id or name (repeatable)")
	fs.BoolVar(&f.DisableInlining, "disable-inlining", false, "do not run the inliner")
	fs.BoolVar(&f.DisableInternalize, "disable-internalize", false, "do not internalize symbols")
	fs.BoolVar(&f.DisableInternalize, "export-dynamic", false, "alias of --disable-internalize")
	fs.BoolVar(&f.DisableInstCombine, "disable-instrcomb", false, "do not run instruction combining")
	fs.BoolVar(&f.DisableMem2Reg, "disable-memtoreg", false, "do not promote memory to registers")
	fs.BoolVar(&f.DisableSROA, "disable-sreplaggr", false, "do not break up aggregates")
	fs.BoolVar(&f.DisableStripDP, "disable-stripdp", false, "keep dead prototypes")
	fs.BoolVar(&f.DisableIPConstProp, "disable-ipconstprop", false, "do not propagate constants across calls")
	fs.BoolVar(&f.DisableOptimizations, "disable-optimizations", false, "run no optimization passes")
	fs.BoolVar(&f.VerifyEach, "verify-each", false, "verify the module after every step")
	fs.BoolVar(&f.DisableVerify, "disable-verify", false, "skip the final verification")
	fs.BoolVarP(&f.StripAll, "strip-all", "s", false, "strip all symbol names the linker does not need")
	fs.BoolVarP(&f.StripDebug, "strip-debug", "S", false, "strip debug information only")
	fs.StringVar(&f.EntryPoint, "entry-point", "", "entry point kept exported by internalize")
	fs.StringSliceVar(&f.Preserve, "preserve", nil, "symbols kept exported by internalize")
	fs.IntVar(&f.InlineThreshold, "inline-threshold", 0, "inliner size threshold (0 selects the default)")
	fs.StringVar(&f.Profile, "profile", "", "pipeline profile (.cue or .toml)")

	cmd.MarkFlagsMutuallyExclusive("strip-all", "strip-debug")
	cmd.MarkFlagsMutuallyExclusive("pass-list", "opt-type")
}

// Source returns the flag values as a configuration source. Only flags that
// were given on the command line count as set.
func (f *PipelineFlags) Source(fs *pflag.FlagSet, cat *catalog.Catalog) (pipeline.Source, error) {
	set := make(map[string]bool)
	fs.Visit(func(fl *pflag.Flag) {
		if key, ok := flagSettings[fl.Name]; ok {
			set[key] = true
		}
	})

	var opts pipeline.Options
	var err error
	if opts.Passes, err = cat.ParseList(f.PassList); err != nil {
		return pipeline.Source{}, err
	}
	if opts.Disabled, err = cat.ResolveAll(f.DisablePasses); err != nil {
		return pipeline.Source{}, err
	}
	for _, s := range disableShortcuts {
		if s.get(f) {
			opts.Disabled = append(opts.Disabled, s.id)
		}
	}

	switch {
	case f.StripAll:
		opts.Strip = pipeline.StripAll
	case f.StripDebug:
		opts.Strip = pipeline.StripDebug
	}
	opts.DisableOptimizations = f.DisableOptimizations
	opts.VerifyEach = f.VerifyEach
	opts.DisableVerify = f.DisableVerify
	opts.EntryPoint = f.EntryPoint
	opts.Preserved = append([]string(nil), f.Preserve...)
	opts.InlineThreshold = f.InlineThreshold

	return pipeline.Source{Name: "flags", Options: opts, Set: set}, nil
}

// Config combines the profile, if any, with the flags into a validated
// pipeline config.
func (f *PipelineFlags) Config(fs *pflag.FlagSet, cat *catalog.Catalog) (*pipeline.Config, error) {
	flags, err := f.Source(fs, cat)
	if err != nil {
		return nil, err
	}
	sources := []pipeline.Source{flags}

	if f.Profile != "" {
		p, err := profile.Load(f.Profile)
		if err != nil {
			return nil, err
		}
		ps, err := p.Source(cat)
		if err != nil {
			return nil, err
		}
		sources = []pipeline.Source{ps, flags}
	}

	opts, err := pipeline.Combine(sources...)
	if err != nil {
		return nil, err
	}
	return pipeline.NewConfig(opts)
}
