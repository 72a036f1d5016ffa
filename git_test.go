package main

import (
	"io"
	"testing"

	"github.com/jadenpxrk/monofile/pkg/source"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGitURL(t *testing.T) {
	assert.True(t, isGitURL("https://github.com/jadenpxrk/monofile.git"))
	assert.True(t, isGitURL("git@github.com:jadenpxrk/monofile.git"))
	assert.True(t, isGitURL("ssh://git@example.com/repo"))
	assert.False(t, isGitURL("https://github.com/jadenpxrk/monofile"))
	assert.False(t, isGitURL("./local/dir"))
}

func TestRepoName(t *testing.T) {
	tests := map[string]string{
		"https://github.com/jadenpxrk/monofile.git": "monofile",
		"git@github.com:jadenpxrk/iris.git":         "iris",
		"ssh://git@example.com/tools/":              "tools",
		"":                                          "repo",
	}
	for in, want := range tests {
		assert.Equal(t, want, repoName(in), in)
	}
}

func TestBillyEntryIngest(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "main.go", []byte("package main\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "pkg/util/util.go", []byte("package util\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "node_modules/dep/index.js", []byte("x"), 0o644))
	require.NoError(t, util.WriteFile(fs, "assets/logo.png", []byte{0x89, 'P', 'N', 'G'}, 0o644))

	root := &billyEntry{fs: fs, name: "monofile", path: "/", isDir: true, size: -1}
	set, err := source.NewReader(source.Options{}).Ingest(t.Context(), source.DirectoryForest{root})
	require.NoError(t, err)

	assert.Equal(t, []string{"monofile/assets/logo.png", "monofile/main.go", "monofile/pkg/util/util.go"}, set.Paths())
	assert.Equal(t, "package main\n", set[1].Content)
	assert.Equal(t, "[INGESTED BINARY METADATA: logo.png | Size: 4 bytes]", set[0].Content)
}

func TestBillyEntryFile(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "a.txt", []byte("hello"), 0o644))

	dir := &billyEntry{fs: fs, name: "r", path: "/", isDir: true}
	_, err := dir.File()
	assert.Error(t, err)

	children, err := dir.Children()
	require.NoError(t, err)
	require.Len(t, children, 1)

	h, err := children[0].File()
	require.NoError(t, err)
	assert.Equal(t, int64(5), h.Size())

	rc, err := h.Open()
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}
