package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modopt/internal/catalog"
)

func TestListPasses(t *testing.T) {
	cat := catalog.Default()
	passes := listPasses(cat)
	require.Len(t, passes, cat.Len())

	byID := make(map[catalog.PassID]PassInfo)
	for i, p := range passes {
		if i > 0 {
			assert.Less(t, string(passes[i-1].ID), string(p.ID), "passes must be sorted by id")
		}
		byID[p.ID] = p
	}

	assert.Equal(t, 2, byID[catalog.Inline].InDefault)
	assert.Equal(t, 0, byID[catalog.Internalize].InDefault)
	assert.Equal(t, "memtoreg", byID[catalog.Mem2Reg].CLIName)

	total := 0
	for _, p := range passes {
		total += p.InDefault
	}
	assert.Equal(t, len(catalog.DefaultSequence()), total)
}

func TestPassesCommand_Text(t *testing.T) {
	out, err := execute(t, "passes")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[0], "DESCRIPTION")
	assert.Contains(t, out, "Kill useless allocas")
	assert.Contains(t, out, fmt.Sprintf("%d passes, default sequence std-1 (64 steps)", catalog.Default().Len()))
}

func TestPassesCommand_JSON(t *testing.T) {
	out, err := execute(t, "passes", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   []PassInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data, catalog.Default().Len())
}

func TestWriteTable_AlignsWideRunes(t *testing.T) {
	cmd := &cobra.Command{}
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)

	writeTable(cmd, []string{"N", "V"}, [][]string{{"名前", "x"}, {"a", "y"}})

	assert.Equal(t, "N     V\n名前  x\na     y\n", buf.String())
}
