package pipeline

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/modopt/internal/catalog"
)

// Setting keys, shared by flags, profile files and conflict reports.
const (
	SettingPasses               = "passes"
	SettingDisable              = "disable"
	SettingDisableOptimizations = "disable_optimizations"
	SettingVerifyEach           = "verify_each"
	SettingStrip                = "strip"
	SettingDisableVerify        = "disable_verify"
	SettingEntryPoint           = "entry_point"
	SettingPreserve             = "preserve"
	SettingInlineThreshold      = "inline_threshold"
)

// Source is one configuration origin together with the settings it
// explicitly specified. Settings not in Set are ignored.
type Source struct {
	Name    string
	Options Options
	Set     map[string]bool
}

type setting struct {
	key   string
	equal func(a, b Options) bool
	take  func(dst *Options, src Options)
}

var settings = []setting{
	{
		key:   SettingPasses,
		equal: func(a, b Options) bool { return false }, // two pass lists always conflict
		take:  func(dst *Options, src Options) { dst.Passes = append([]catalog.PassID(nil), src.Passes...) },
	},
	{
		key:   SettingDisable,
		equal: func(a, b Options) bool { return slices.Equal(sortedIDs(a.Disabled), sortedIDs(b.Disabled)) },
		take:  func(dst *Options, src Options) { dst.Disabled = append([]catalog.PassID(nil), src.Disabled...) },
	},
	{
		key:   SettingDisableOptimizations,
		equal: func(a, b Options) bool { return a.DisableOptimizations == b.DisableOptimizations },
		take:  func(dst *Options, src Options) { dst.DisableOptimizations = src.DisableOptimizations },
	},
	{
		key:   SettingVerifyEach,
		equal: func(a, b Options) bool { return a.VerifyEach == b.VerifyEach },
		take:  func(dst *Options, src Options) { dst.VerifyEach = src.VerifyEach },
	},
	{
		key:   SettingStrip,
		equal: func(a, b Options) bool { return normStrip(a.Strip) == normStrip(b.Strip) },
		take:  func(dst *Options, src Options) { dst.Strip = src.Strip },
	},
	{
		key:   SettingDisableVerify,
		equal: func(a, b Options) bool { return a.DisableVerify == b.DisableVerify },
		take:  func(dst *Options, src Options) { dst.DisableVerify = src.DisableVerify },
	},
	{
		key:   SettingEntryPoint,
		equal: func(a, b Options) bool { return a.EntryPoint == b.EntryPoint },
		take:  func(dst *Options, src Options) { dst.EntryPoint = src.EntryPoint },
	},
	{
		key:   SettingPreserve,
		equal: func(a, b Options) bool { return slices.Equal(sortedStrings(a.Preserved), sortedStrings(b.Preserved)) },
		take:  func(dst *Options, src Options) { dst.Preserved = append([]string(nil), src.Preserved...) },
	},
	{
		key:   SettingInlineThreshold,
		equal: func(a, b Options) bool { return a.InlineThreshold == b.InlineThreshold },
		take:  func(dst *Options, src Options) { dst.InlineThreshold = src.InlineThreshold },
	},
}

// Combine assembles Options from several sources without merging them:
// each setting must come from at most one source, unless every source that
// sets it agrees on the value. Two explicit pass lists always conflict.
func Combine(sources ...Source) (Options, error) {
	var out Options
	for _, s := range settings {
		var owner *Source
		for i := range sources {
			src := &sources[i]
			if !src.Set[s.key] {
				continue
			}
			if owner == nil {
				owner = src
				continue
			}
			if !s.equal(owner.Options, src.Options) {
				return Options{}, &ConfigError{
					Code:    ErrCodeConfigConflict,
					Setting: s.key,
					Message: fmt.Sprintf("set by both %s and %s", owner.Name, src.Name),
				}
			}
		}
		if owner != nil {
			s.take(&out, owner.Options)
		}
	}
	return out, nil
}

// KnownSetting reports whether key names a setting.
func KnownSetting(key string) bool {
	for _, s := range settings {
		if s.key == key {
			return true
		}
	}
	return false
}

// SettingKeys returns every setting key in a stable order.
func SettingKeys() []string {
	out := make([]string, len(settings))
	for i, s := range settings {
		out[i] = s.key
	}
	return out
}

func normStrip(m StripMode) StripMode {
	if m == "" {
		return StripNone
	}
	return StripMode(strings.ToLower(string(m)))
}

func sortedIDs(ids []catalog.PassID) []catalog.PassID {
	out := append([]catalog.PassID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return slices.Compact(out)
}

func sortedStrings(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return slices.Compact(out)
}
