package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/ir"
	"github.com/roach88/modopt/internal/passlib"
)

// StripMode selects which symbol information is removed from the module.
type StripMode string

// Strip modes.
const (
	StripNone  StripMode = "none"
	StripDebug StripMode = "debug"
	StripAll   StripMode = "all"
)

// ParseStripMode parses "none", "debug" or "all". The empty string is StripNone.
func ParseStripMode(s string) (StripMode, error) {
	switch StripMode(s) {
	case "", StripNone:
		return StripNone, nil
	case StripDebug:
		return StripDebug, nil
	case StripAll:
		return StripAll, nil
	default:
		return "", &ConfigError{
			Code:    ErrCodeInvalidConfig,
			Message: fmt.Sprintf("invalid strip mode %q (want none, debug or all)", s),
		}
	}
}

// Options is the mutable input to NewConfig. Front ends fill it from flags
// or profile files.
type Options struct {
	Passes               []catalog.PassID
	Disabled             []catalog.PassID
	DisableOptimizations bool
	VerifyEach           bool
	Strip                StripMode
	DisableVerify        bool
	Preserved            []string
	EntryPoint           string
	InlineThreshold      int // 0 selects passlib.DefaultInlineThreshold
}

// Config is the validated, immutable configuration of one pipeline run.
// Construct it with NewConfig; the zero value is not usable.
type Config struct {
	selected             []catalog.PassID
	disabled             map[catalog.PassID]bool
	disableOptimizations bool
	verifyEach           bool
	strip                StripMode
	disableVerify        bool
	preserved            []string
	entryPoint           string
	inlineThreshold      int
}

// NewConfig validates opts and freezes them into a Config.
// The Config does not share memory with opts.
func NewConfig(opts Options) (*Config, error) {
	strip, err := ParseStripMode(string(opts.Strip))
	if err != nil {
		return nil, err
	}
	if opts.InlineThreshold < 0 {
		return nil, &ConfigError{
			Code:    ErrCodeInvalidConfig,
			Message: fmt.Sprintf("inline threshold must not be negative, got %d", opts.InlineThreshold),
		}
	}
	for _, id := range opts.Passes {
		if strings.TrimSpace(string(id)) == "" {
			return nil, &ConfigError{Code: ErrCodeInvalidConfig, Message: "pass list contains an empty name"}
		}
	}
	for _, name := range opts.Preserved {
		if strings.TrimSpace(name) == "" {
			return nil, &ConfigError{Code: ErrCodeInvalidConfig, Message: "preserved symbol list contains an empty name"}
		}
	}

	threshold := opts.InlineThreshold
	if threshold == 0 {
		threshold = passlib.DefaultInlineThreshold
	}

	disabled := make(map[catalog.PassID]bool, len(opts.Disabled))
	for _, id := range opts.Disabled {
		disabled[id] = true
	}

	return &Config{
		selected:             append([]catalog.PassID(nil), opts.Passes...),
		disabled:             disabled,
		disableOptimizations: opts.DisableOptimizations,
		verifyEach:           opts.VerifyEach,
		strip:                strip,
		disableVerify:        opts.DisableVerify,
		preserved:            append([]string(nil), opts.Preserved...),
		entryPoint:           opts.EntryPoint,
		inlineThreshold:      threshold,
	}, nil
}

// SelectedIDs returns the explicit pass selection; empty means the default
// sequence is used.
func (c *Config) SelectedIDs() []catalog.PassID {
	return append([]catalog.PassID(nil), c.selected...)
}

// IsDisabled reports whether id is suppressed for this run.
func (c *Config) IsDisabled(id catalog.PassID) bool { return c.disabled[id] }

// Disabled returns the suppressed pass ids in sorted order.
func (c *Config) Disabled() []catalog.PassID {
	out := make([]catalog.PassID, 0, len(c.disabled))
	for id := range c.disabled {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Config) DisableOptimizations() bool { return c.disableOptimizations }
func (c *Config) VerifyEach() bool           { return c.verifyEach }
func (c *Config) Strip() StripMode           { return c.strip }
func (c *Config) DisableVerify() bool        { return c.disableVerify }
func (c *Config) EntryPoint() string         { return c.entryPoint }
func (c *Config) InlineThreshold() int       { return c.inlineThreshold }

// Preserved returns the symbols that must stay externally visible.
func (c *Config) Preserved() []string {
	return append([]string(nil), c.preserved...)
}

// Params returns the factory parameters derived from the config.
func (c *Config) Params() catalog.Params {
	disabled := make(map[catalog.PassID]bool, len(c.disabled))
	for id := range c.disabled {
		disabled[id] = true
	}
	return catalog.Params{
		Preserved:       c.Preserved(),
		EntryPoint:      c.entryPoint,
		Disabled:        disabled,
		InlineThreshold: c.inlineThreshold,
	}
}

// Snapshot is the serializable form of a Config, used for run records and
// config hashes.
type Snapshot struct {
	Passes               []string `json:"passes,omitempty"`
	Disabled             []string `json:"disabled,omitempty"`
	DisableOptimizations bool     `json:"disable_optimizations,omitempty"`
	VerifyEach           bool     `json:"verify_each,omitempty"`
	Strip                string   `json:"strip"`
	DisableVerify        bool     `json:"disable_verify,omitempty"`
	Preserved            []string `json:"preserved,omitempty"`
	EntryPoint           string   `json:"entry_point,omitempty"`
	InlineThreshold      int      `json:"inline_threshold"`
	DefaultSequence      string   `json:"default_sequence,omitempty"`
}

// Snapshot returns the serializable form of the config. DefaultSequence is
// set only when the run falls back to the curated order.
func (c *Config) Snapshot() Snapshot {
	s := Snapshot{
		DisableOptimizations: c.disableOptimizations,
		VerifyEach:           c.verifyEach,
		Strip:                string(c.strip),
		DisableVerify:        c.disableVerify,
		Preserved:            c.Preserved(),
		EntryPoint:           c.entryPoint,
		InlineThreshold:      c.inlineThreshold,
	}
	for _, id := range c.selected {
		s.Passes = append(s.Passes, string(id))
	}
	for _, id := range c.Disabled() {
		s.Disabled = append(s.Disabled, string(id))
	}
	if len(c.selected) == 0 {
		s.DefaultSequence = catalog.DefaultSequenceVersion
	}
	return s
}

// Hash returns the content hash of the config snapshot.
func (c *Config) Hash() (string, error) {
	return ir.ConfigHash(c.Snapshot())
}
