package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jadenpxrk/monofile/pkg/pipeline"
	"github.com/jadenpxrk/monofile/pkg/store"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectConcepts(t *testing.T) {
	all := []pipeline.Concept{
		{ID: "auth", Name: "Authentication"},
		{ID: "billing", Name: "Billing"},
	}

	got, err := selectConcepts(all, nil)
	require.NoError(t, err)
	assert.Equal(t, all, got)

	got, err = selectConcepts(all, []string{"billing", "authentication"})
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Concept{all[1], all[0]}, got)

	_, err = selectConcepts(all, []string{"search"})
	assert.EqualError(t, err, `unknown concept "search"`)

	_, err = selectConcepts(nil, nil)
	assert.ErrorContains(t, err, "no concepts")
}

func TestPrintRecords(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRecords(&out, []store.Record{
		{ID: 7, ProjectName: "monofile", TotalFiles: 3, TotalLines: 40, TotalSize: 1200, CreatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.Local)},
	}))
	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Regexp(t, `^ID\s+PROJECT\s+FILES`, string(lines[0]))
	assert.Regexp(t, `^7\s+monofile\s+3\s+40\s+1200\s+2026-01-02 03:04$`, string(lines[1]))
}

func TestEmit(t *testing.T) {
	cmd := &cobra.Command{}
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	require.NoError(t, emit(cmd, "blueprint", ""))
	assert.Equal(t, "blueprint\n", stdout.String())

	path := filepath.Join(t.TempDir(), "monofile_recreator.md")
	require.NoError(t, emit(cmd, "blueprint", path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "blueprint", string(got))
	assert.Contains(t, stderr.String(), "Output saved to "+path)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "monofile dev\n", out.String())
}
