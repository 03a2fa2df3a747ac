// Package profile loads pipeline profiles: files that hold one pipeline
// configuration so a curated pass order or strip policy can be reused
// across runs.
//
// Two syntaxes are accepted and decode to the same Profile:
//
//	// release.cue
//	profile: {
//		passes: ["mem2reg", "inst-combine", "global-dce"]
//		strip:  "all"
//	}
//
//	# release.toml
//	[profile]
//	passes = ["mem2reg", "inst-combine", "global-dce"]
//	strip = "all"
//
// A profile never overrides the command line. It becomes one
// pipeline.Source, and pipeline.Combine rejects any setting both give.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/pipeline"
)

// Error codes.
const (
	ErrCodeUnsupported = "PROFILE_UNSUPPORTED"
	ErrCodeRead        = "PROFILE_READ"
	ErrCodeSyntax      = "PROFILE_SYNTAX"
	ErrCodeSchema      = "PROFILE_SCHEMA"
	ErrCodeUnknownKey  = "PROFILE_UNKNOWN_KEY"
	ErrCodeMissing     = "PROFILE_MISSING"
)

// Error reports a profile that could not be loaded.
type Error struct {
	Code    string
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// document is the decoded profile table, shared by both syntaxes.
type document struct {
	Name                 string   `json:"name" toml:"name"`
	Passes               []string `json:"passes" toml:"passes"`
	Disable              []string `json:"disable" toml:"disable"`
	DisableOptimizations bool     `json:"disable_optimizations" toml:"disable_optimizations"`
	VerifyEach           bool     `json:"verify_each" toml:"verify_each"`
	Strip                string   `json:"strip" toml:"strip"`
	DisableVerify        bool     `json:"disable_verify" toml:"disable_verify"`
	EntryPoint           string   `json:"entry_point" toml:"entry_point"`
	Preserve             []string `json:"preserve" toml:"preserve"`
	InlineThreshold      int      `json:"inline_threshold" toml:"inline_threshold"`
}

// keyName is the profile's own key; it is not a pipeline setting.
const keyName = "name"

func knownKey(key string) bool {
	return key == keyName || pipeline.KnownSetting(key)
}

// Profile is a decoded profile file.
//
// Pass names are kept as written, either ids or historical CLI spellings,
// and resolved against a catalog by Source.
type Profile struct {
	Name                 string
	Path                 string
	Passes               []string
	Disable              []string
	DisableOptimizations bool
	VerifyEach           bool
	Strip                string
	DisableVerify        bool
	EntryPoint           string
	Preserve             []string
	InlineThreshold      int

	set map[string]bool
}

func newProfile(path string, doc document, set map[string]bool) *Profile {
	return &Profile{
		Name:                 doc.Name,
		Path:                 path,
		Passes:               doc.Passes,
		Disable:              doc.Disable,
		DisableOptimizations: doc.DisableOptimizations,
		VerifyEach:           doc.VerifyEach,
		Strip:                doc.Strip,
		DisableVerify:        doc.DisableVerify,
		EntryPoint:           doc.EntryPoint,
		Preserve:             doc.Preserve,
		InlineThreshold:      doc.InlineThreshold,
		set:                  set,
	}
}

// IsSet reports whether the file gave setting key explicitly.
func (p *Profile) IsSet(key string) bool { return p.set[key] }

// Keys returns the settings the file gave, sorted.
func (p *Profile) Keys() []string {
	out := make([]string, 0, len(p.set))
	for k := range p.set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Label names the profile in conflict reports.
func (p *Profile) Label() string {
	switch {
	case p.Name != "":
		return "profile " + p.Name
	case p.Path != "":
		return "profile " + filepath.Base(p.Path)
	default:
		return "profile"
	}
}

// Source converts the profile into a configuration source, resolving pass
// names against cat. Unknown pass names fail with *catalog.UnknownPassError.
func (p *Profile) Source(cat *catalog.Catalog) (pipeline.Source, error) {
	var opts pipeline.Options
	var err error

	if p.IsSet(pipeline.SettingPasses) {
		if opts.Passes, err = cat.ResolveAll(p.Passes); err != nil {
			return pipeline.Source{}, err
		}
	}
	if p.IsSet(pipeline.SettingDisable) {
		if opts.Disabled, err = cat.ResolveAll(p.Disable); err != nil {
			return pipeline.Source{}, err
		}
	}
	if p.IsSet(pipeline.SettingStrip) {
		if opts.Strip, err = pipeline.ParseStripMode(p.Strip); err != nil {
			return pipeline.Source{}, err
		}
	}
	opts.DisableOptimizations = p.DisableOptimizations
	opts.VerifyEach = p.VerifyEach
	opts.DisableVerify = p.DisableVerify
	opts.EntryPoint = p.EntryPoint
	opts.Preserved = append([]string(nil), p.Preserve...)
	opts.InlineThreshold = p.InlineThreshold

	set := make(map[string]bool, len(p.set))
	for k := range p.set {
		if k != keyName {
			set[k] = true
		}
	}
	return pipeline.Source{Name: p.Label(), Options: opts, Set: set}, nil
}

// Load reads a profile, choosing the syntax from the file extension.
func Load(path string) (*Profile, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".cue" && ext != ".toml" {
		return nil, &Error{
			Code:    ErrCodeUnsupported,
			Path:    path,
			Message: fmt.Sprintf("unsupported profile extension %q (want .cue or .toml)", ext),
		}
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeRead, Path: path, Message: err.Error()}
	}
	if ext == ".cue" {
		return ParseCUE(path, src)
	}
	return ParseTOML(path, src)
}
