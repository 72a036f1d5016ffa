package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldIgnore(t *testing.T) {
	c := Default()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "plain source file", path: "src/index.ts", want: false},
		{name: "node_modules at root", path: "node_modules/foo/bar.js", want: true},
		{name: "node_modules nested", path: "app/packages/ui/node_modules/x.js", want: true},
		{name: "git metadata", path: "repo/.git/config", want: true},
		{name: "windows separators", path: `repo\dist\bundle.js`, want: true},
		{name: "similar but not equal segment", path: "src/distribution/a.go", want: false},
		{name: "lockfile", path: "web/package-lock.json", want: true},
		{name: "os metadata", path: "assets/.DS_Store", want: true},
		{name: "allowed env file", path: "api/.env", want: false},
		{name: "allowed editorconfig", path: ".editorconfig", want: false},
		{name: "gitkeep banned", path: "logs/.gitkeep", want: true},
		{name: "unknown dotfile banned", path: "home/.bash_history", want: true},
		{name: "dot directory content kept", path: ".github/workflows/ci.yml", want: false},
		{name: "empty path", path: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ShouldIgnore(tt.path))
		})
	}
}

func TestShouldIgnoreAnySegmentPosition(t *testing.T) {
	c := Default()
	for _, dir := range DefaultConfig().IgnoredDirs {
		for _, p := range []string{
			dir + "/a.txt",
			"x/" + dir + "/a.txt",
			"x/y/" + dir + "/z/a.txt",
		} {
			assert.True(t, c.ShouldIgnore(p), p)
		}
	}
}

func TestBannedDotfileBeatsAllowList(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedDotfiles = append(cfg.AllowedDotfiles, ".gitkeep")
	c := New(cfg)

	assert.True(t, c.ShouldIgnore("a/.gitkeep"))
}

func TestIsBinary(t *testing.T) {
	c := Default()

	tests := []struct {
		name string
		file string
		want bool
	}{
		{name: "image", file: "image.png", want: true},
		{name: "uppercase image", file: "LOGO.PNG", want: true},
		{name: "typescript", file: "index.ts", want: false},
		{name: "no extension", file: "Makefile", want: false},
		{name: "unknown extension defaults to text", file: "notes.weird", want: false},
		{name: "trailing dot", file: "file.", want: false},
		{name: "nested path", file: "a.b/c/app.exe", want: true},
		{name: "dotfile", file: ".gitignore", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsBinary(tt.file))
		})
	}
}

func TestTextAllowListWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BinaryExtensions = append(cfg.BinaryExtensions, "ts", "json", ".MD")
	c := New(cfg)

	for _, ext := range cfg.TextExtensions {
		assert.False(t, c.IsBinary("file."+ext), ext)
		assert.False(t, c.IsBinary("FILE."+strings.ToUpper(ext)), ext)
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "ts", Extension("src/index.ts"))
	assert.Equal(t, "png", Extension("IMAGE.PNG"))
	assert.Equal(t, "", Extension("Makefile"))
	assert.Equal(t, "env", Extension(".env"))
	assert.Equal(t, "gz", Extension("dir.v2/archive.tar.gz"))
	assert.Equal(t, "", Extension("dir.v2/README"))
	assert.Equal(t, "c", BaseName(`a\b\c`))
}

func TestParseConfig(t *testing.T) {
	raw := []byte(`
ignored_dirs: [generated]
extra_ignored_files: [secrets.txt]
extra_binary_extensions: [psd]
`)
	cfg, err := ParseConfig(raw)
	require.NoError(t, err)

	c := New(cfg)
	assert.True(t, c.ShouldIgnore("generated/a.go"))
	assert.False(t, c.ShouldIgnore("node_modules/a.js"), "ignored_dirs replaces the default list")
	assert.True(t, c.ShouldIgnore("x/secrets.txt"))
	assert.True(t, c.ShouldIgnore("yarn.lock"), "extra_ keys keep the defaults")
	assert.True(t, c.IsBinary("art.psd"))
}

func TestParseConfigInvalid(t *testing.T) {
	_, err := ParseConfig([]byte("ignored_dirs: [unterminated"))
	require.Error(t, err)
}

func TestWithGitIgnore(t *testing.T) {
	rules := strings.NewReader("*.log\ntmp/\n!keep.log\n")
	c := Default().WithGitIgnore("proj", rules)

	assert.True(t, c.ShouldIgnore("proj/server.log"))
	assert.True(t, c.ShouldIgnore("proj/tmp/cache.txt"))
	assert.False(t, c.ShouldIgnore("proj/keep.log"))
	assert.False(t, c.ShouldIgnore("proj/src/main.go"))
	assert.False(t, c.ShouldIgnore("other/server.log"), "rules only apply under the prefix")

	assert.False(t, Default().ShouldIgnore("proj/server.log"), "the base classifier is unchanged")
}
