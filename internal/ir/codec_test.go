package ir

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"prog.yaml", FormatYAML},
		{"dir/prog.YML", FormatYAML},
		{"prog.json", FormatJSON},
		{"prog.mpk", FormatMsgpack},
		{"prog.msgpack", FormatMsgpack},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := FormatFromPath("prog.bc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `".bc"`)
}

func TestCodecRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatYAML, FormatJSON, FormatMsgpack} {
		t.Run(string(f), func(t *testing.T) {
			want := sampleModule()

			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, want, f))

			got, err := Decode(&buf, f)
			require.NoError(t, err)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, MustFingerprint(want), MustFingerprint(got))
		})
	}
}

func TestDecodeYAML(t *testing.T) {
	src := `
name: tiny
globals:
  - name: counter
    linkage: internal
    init: "0"
functions:
  - name: main
    linkage: external
    refs: [counter]
    size: 2
`
	m, err := Decode(strings.NewReader(src), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "tiny", m.Name)
	require.Len(t, m.Globals, 1)
	assert.Equal(t, LinkageInternal, m.Globals[0].Linkage)
	assert.Equal(t, "0", m.Globals[0].Init)
	require.Len(t, m.Functions, 1)
	assert.Equal(t, []string{"counter"}, m.Functions[0].Refs)
	assert.NoError(t, m.Verify())
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("name: x\nsections: []\n"), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode yaml module")

	_, err = Decode(strings.NewReader(`{"name":"x","sections":[]}`), FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode json module")
}

func TestDecodeEmptyYAML(t *testing.T) {
	_, err := Decode(strings.NewReader(""), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty document")
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	_, err := Decode(strings.NewReader("{}"), Format("bitcode"))
	require.Error(t, err)
	assert.Error(t, Encode(&bytes.Buffer{}, sampleModule(), Format("bitcode")))
}

func TestWriteFileReadFile(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"out.yaml", "out.json", "out.mpk"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, sampleModule()))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(sampleModule(), got))
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temporary files left behind")
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading module")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = ReadFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}
