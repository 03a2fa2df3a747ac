package profile

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// ParseCUE decodes a CUE profile. The top-level `profile` struct is
// unified with the embedded #Profile schema, so type and range errors are
// reported at their source position.
func ParseCUE(path string, src []byte) (*Profile, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling profile schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(ErrCodeSyntax, path, err)
	}

	pv := v.LookupPath(cue.ParsePath("profile"))
	if !pv.Exists() {
		return nil, &Error{Code: ErrCodeMissing, Path: path, Message: "missing top-level profile struct"}
	}

	set := make(map[string]bool)
	iter, err := pv.Fields()
	if err != nil {
		return nil, formatCUEError(ErrCodeSchema, path, err)
	}
	for iter.Next() {
		key := iter.Label()
		if !knownKey(key) {
			return nil, &Error{
				Code:    ErrCodeUnknownKey,
				Path:    path,
				Message: fmt.Sprintf("unknown setting %q", key),
				Pos:     iter.Value().Pos(),
			}
		}
		set[key] = true
	}

	unified := schema.LookupPath(cue.ParsePath("#Profile")).Unify(pv)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(ErrCodeSchema, path, err)
	}

	var doc document
	if err := unified.Decode(&doc); err != nil {
		return nil, formatCUEError(ErrCodeSchema, path, err)
	}
	return newProfile(path, doc, set), nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(code, path string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Code: code, Path: path, Message: err.Error()}
	}

	first := errs[0]
	e := &Error{Code: code, Path: path, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
