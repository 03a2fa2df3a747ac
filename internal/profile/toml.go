package profile

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type tomlFile struct {
	Profile document `toml:"profile"`
}

// ParseTOML decodes a TOML profile from its [profile] table.
func ParseTOML(path string, src []byte) (*Profile, error) {
	var f tomlFile
	meta, err := toml.Decode(string(src), &f)
	if err != nil {
		return nil, &Error{Code: ErrCodeSyntax, Path: path, Message: fmt.Sprintf("failed to parse TOML: %v", err)}
	}
	if !meta.IsDefined("profile") {
		return nil, &Error{Code: ErrCodeMissing, Path: path, Message: "missing [profile]"}
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		key := undecoded[0]
		return nil, &Error{
			Code:    ErrCodeUnknownKey,
			Path:    path,
			Message: fmt.Sprintf("unknown setting %q", key[len(key)-1]),
		}
	}

	set := make(map[string]bool)
	for _, key := range meta.Keys() {
		if len(key) == 2 && key[0] == "profile" {
			set[key[1]] = true
		}
	}

	if set["strip"] {
		switch f.Profile.Strip {
		case "none", "debug", "all":
		default:
			return nil, &Error{
				Code:    ErrCodeSchema,
				Path:    path,
				Message: fmt.Sprintf("profile.strip: %q is not one of none, debug, all", f.Profile.Strip),
			}
		}
	}
	if f.Profile.InlineThreshold < 0 {
		return nil, &Error{
			Code:    ErrCodeSchema,
			Path:    path,
			Message: fmt.Sprintf("profile.inline_threshold: %d is negative", f.Profile.InlineThreshold),
		}
	}
	return newProfile(path, f.Profile, set), nil
}
