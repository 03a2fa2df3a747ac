package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format identifies a module file encoding.
type Format string

// Supported module encodings.
const (
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// FormatFromPath picks the encoding from a file extension.
//
//	.yaml, .yml    -> FormatYAML
//	.json          -> FormatJSON
//	.mpk, .msgpack -> FormatMsgpack
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".mpk", ".msgpack":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unrecognized module extension %q (want .yaml, .yml, .json, .mpk or .msgpack)", filepath.Ext(path))
	}
}

// Decode reads a module in the given format.
// YAML and JSON decoding reject unknown fields.
func Decode(r io.Reader, f Format) (*Module, error) {
	m := &Module{}
	switch f {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(m); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("decode yaml module: empty document")
			}
			return nil, fmt.Errorf("decode yaml module: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(m); err != nil {
			return nil, fmt.Errorf("decode json module: %w", err)
		}
	case FormatMsgpack:
		dec := msgpack.NewDecoder(r)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(m); err != nil {
			return nil, fmt.Errorf("decode msgpack module: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported module format %q", f)
	}
	return m, nil
}

// Encode writes a module in the given format.
func Encode(w io.Writer, m *Module, f Format) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode yaml module: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode json module: %w", err)
		}
		return nil
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("encode msgpack module: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported module format %q", f)
	}
}

// ReadFile loads a module, choosing the decoder from the file extension.
func ReadFile(path string) (*Module, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading module: %w", err)
	}
	m, err := Decode(bytes.NewReader(data), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteFile stores a module, choosing the encoder from the file extension.
// The file is written to a temporary sibling first and renamed into place,
// so a failed write never leaves a truncated module behind.
func WriteFile(path string, m *Module) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, m, f); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".modopt-*")
	if err != nil {
		return fmt.Errorf("writing module: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing module: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing module: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("writing module: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing module: %w", err)
	}
	return nil
}
