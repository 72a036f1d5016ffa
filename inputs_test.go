package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jadenpxrk/monofile/pkg/classify"
	"github.com/jadenpxrk/monofile/pkg/source"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestResolver(t *testing.T, include, exclude string) *inputResolver {
	t.Helper()
	f, err := newPatternFilter(include, exclude, 0)
	require.NoError(t, err)
	return &inputResolver{classifier: classify.Default(), filter: f}
}

func TestResolveMixedInputs(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"proj/main.go":             "package main\n",
		"proj/.gitignore":          "secret.txt\n",
		"proj/secret.txt":          "hunter2",
		"proj/node_modules/x/x.js": "ignored",
		"notes.txt":                "loose notes",
	})
	archive := filepath.Join(dir, "bundle.zip")
	require.NoError(t, os.WriteFile(archive, zipBytes(t, map[string]string{"bundle/readme.md": "# hi"}), 0o644))

	plan, err := newTestResolver(t, "", "").resolve(t.Context(), []string{
		filepath.Join(dir, "proj"),
		filepath.Join(dir, "notes.txt"),
		archive,
		filepath.Join(dir, "missing"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, plan.failed)
	require.Len(t, plan.inputs, 3)
	assert.IsType(t, source.LooseFiles{}, plan.inputs[0])
	assert.IsType(t, source.DirectoryForest{}, plan.inputs[1])
	assert.IsType(t, source.ArchiveBytes{}, plan.inputs[2])

	set, err := source.NewReader(source.Options{Classifier: plan.classifier}).IngestAll(t.Context(), plan.inputs...)
	require.NoError(t, err)
	assert.Equal(t, []string{"bundle/readme.md", "notes.txt", "proj/.gitignore", "proj/main.go"}, set.Paths())
}

func TestResolveNoIgnore(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"proj/.gitignore": "secret.txt\n",
		"proj/secret.txt": "hunter2",
	})

	r := newTestResolver(t, "", "")
	r.noIgnore = true
	plan, err := r.resolve(t.Context(), []string{filepath.Join(dir, "proj")})
	require.NoError(t, err)

	set, err := source.NewReader(source.Options{Classifier: plan.classifier}).IngestAll(t.Context(), plan.inputs...)
	require.NoError(t, err)
	assert.Equal(t, []string{"proj/.gitignore", "proj/secret.txt"}, set.Paths())
}

func TestResolveAppliesFilterToLooseFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.go": "package a", "b.md": "# b"})

	plan, err := newTestResolver(t, "*.go", "").resolve(t.Context(), []string{
		filepath.Join(dir, "a.go"),
		filepath.Join(dir, "b.md"),
	})
	require.NoError(t, err)
	require.Len(t, plan.inputs, 1)
	assert.Len(t, plan.inputs[0], 1)
}

func TestResolveNothingUsable(t *testing.T) {
	_, err := newTestResolver(t, "", "").resolve(t.Context(), []string{filepath.Join(t.TempDir(), "nope")})
	assert.ErrorContains(t, err, "none of the 1 path(s) could be processed")
}

func TestResolveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := newTestResolver(t, "", "").resolve(ctx, []string{"."})
	assert.ErrorIs(t, err, context.Canceled)
}
