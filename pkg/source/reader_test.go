package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jadenpxrk/monofile/pkg/classify"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probe counts suspensions without ever blocking.
type probe struct {
	yields int
}

func (p *probe) Yield(ctx context.Context) error {
	p.yields++
	return ctx.Err()
}

func newTestReader(p *probe) *Reader {
	return NewReader(Options{Scheduler: p})
}

type zipEntry struct {
	name string
	body string
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		if !strings.HasSuffix(e.name, "/") {
			_, err = w.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestIngestLooseFilesScenario(t *testing.T) {
	in := LooseFiles{
		&MemFile{FileName: "index.ts", Hint: "src/index.ts", Data: []byte("export const x=1;")},
		&MemFile{FileName: "bar.js", Hint: "node_modules/foo/bar.js", Data: []byte("anything")},
		&MemFile{FileName: "image.png", Data: make([]byte, 2048)},
	}

	set, err := newTestReader(&probe{}).Ingest(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, set, 2)

	assert.Equal(t, []string{"image.png", "src/index.ts"}, set.Paths())

	img := set[0]
	assert.True(t, strings.HasPrefix(img.Content, BinaryMarker))
	assert.Equal(t, "[INGESTED BINARY METADATA: image.png | Size: 2048 bytes]", img.Content)
	assert.Equal(t, "png", img.Extension)
	assert.Equal(t, int64(2048), img.Size)
	assert.Equal(t, KindBinaryPlaceholder, img.Kind)

	ts := set[1]
	assert.Equal(t, "index.ts", ts.Name)
	assert.Equal(t, "ts", ts.Extension)
	assert.Equal(t, "export const x=1;", ts.Content)
	assert.Equal(t, KindText, ts.Kind)
}

func TestIngestSortsOrdinally(t *testing.T) {
	in := LooseFiles{
		&MemFile{FileName: "b.go", Hint: "b.go", Data: []byte("b")},
		&MemFile{FileName: "Z.go", Hint: "Z.go", Data: []byte("Z")},
		&MemFile{FileName: "a.go", Hint: "a/a.go", Data: []byte("a")},
		&MemFile{FileName: "a.go", Hint: "a.go", Data: []byte("a")},
	}

	set, err := newTestReader(&probe{}).Ingest(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z.go", "a.go", "a/a.go", "b.go"}, set.Paths())
	assert.True(t, set.IsSorted())

	before := set.Paths()
	set.Sort()
	assert.Equal(t, before, set.Paths(), "sorting a sorted set is a no-op")
}

func TestIngestYieldsEveryBatch(t *testing.T) {
	var in LooseFiles
	for i := 0; i < 25; i++ {
		name := string(rune('a'+i)) + ".txt"
		in = append(in, &MemFile{FileName: name, Data: []byte(name)})
	}

	p := &probe{}
	set, err := newTestReader(p).Ingest(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, set, 25)
	assert.GreaterOrEqual(t, p.yields, 2)
	assert.Equal(t, 3, p.yields, "suspends before items 0, 10 and 20")
}

func TestIngestArchiveYieldsEveryTwentyEntries(t *testing.T) {
	var entries []zipEntry
	for i := 0; i < 41; i++ {
		entries = append(entries, zipEntry{name: "f" + strings.Repeat("x", i) + ".txt", body: "x"})
	}
	p := &probe{}
	set, err := newTestReader(p).Ingest(context.Background(), ArchiveBytes{Name: "big.zip", Data: buildZip(t, entries...)})
	require.NoError(t, err)
	assert.Len(t, set, 41)
	assert.Equal(t, 3, p.yields)
}

func TestIngestReadFailureSkipsOnlyThatFile(t *testing.T) {
	var skipped []*FileReadError
	r := NewReader(Options{
		Scheduler: &probe{},
		OnSkip:    func(e *FileReadError) { skipped = append(skipped, e) },
	})

	in := LooseFiles{
		&MemFile{FileName: "ok.go", Data: []byte("package ok")},
		&MemFile{FileName: "broken.go", Err: errors.New("permission denied")},
		&MemFile{FileName: "also.go", Data: []byte("package also")},
	}

	set, err := r.Ingest(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"also.go", "ok.go"}, set.Paths())
	require.Len(t, skipped, 1)
	assert.Equal(t, "broken.go", skipped[0].Path)
	assert.EqualError(t, skipped[0], "failed to read file broken.go: permission denied")
}

func TestIngestEmptyResult(t *testing.T) {
	in := LooseFiles{
		&MemFile{FileName: "yarn.lock", Data: []byte("x")},
		&MemFile{FileName: "x.js", Hint: "dist/x.js", Data: []byte("x")},
	}
	_, err := newTestReader(&probe{}).Ingest(context.Background(), in)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestIngestArchive(t *testing.T) {
	data := buildZip(t,
		zipEntry{name: "proj/"},
		zipEntry{name: "proj/src/"},
		zipEntry{name: "proj/src/main.go", body: "package main\n"},
		zipEntry{name: "proj/logo.png", body: "\x89PNG"},
		zipEntry{name: "proj/node_modules/dep/index.js", body: "x"},
		zipEntry{name: "proj/.DS_Store", body: "x"},
	)

	set, err := newTestReader(&probe{}).Ingest(context.Background(), ArchiveBytes{Name: "proj.zip", Data: data})
	require.NoError(t, err)
	require.Equal(t, []string{"proj/logo.png", "proj/src/main.go"}, set.Paths())

	assert.Equal(t, "[INGESTED BINARY IN ZIP: proj/logo.png]", set[0].Content)
	assert.Equal(t, int64(0), set[0].Size)
	assert.True(t, set[0].IsBinary())

	assert.Equal(t, "package main\n", set[1].Content)
	assert.Equal(t, int64(len("package main\n")), set[1].Size)
}

func TestIngestArchiveOnlyDirectoriesAndIgnored(t *testing.T) {
	data := buildZip(t,
		zipEntry{name: "proj/"},
		zipEntry{name: "proj/empty/"},
		zipEntry{name: "proj/.git/HEAD", body: "ref"},
		zipEntry{name: "proj/package-lock.json", body: "{}"},
	)

	set, err := newTestReader(&probe{}).Ingest(context.Background(), ArchiveBytes{Name: "proj.zip", Data: data})
	assert.Nil(t, set)
	assert.ErrorIs(t, err, ErrEmptyResult)
	assert.NotErrorIs(t, err, ErrArchiveDecode)
}

func TestIngestBadArchive(t *testing.T) {
	_, err := newTestReader(&probe{}).Ingest(context.Background(), ArchiveBytes{Name: "bad.zip", Data: []byte("not a zip")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArchiveDecode)
	assert.NotErrorIs(t, err, ErrEmptyResult)

	var ade *ArchiveDecodeError
	require.ErrorAs(t, err, &ade)
	assert.Equal(t, "bad.zip", ade.Name)
}

func TestIngestDirectoryForest(t *testing.T) {
	forest := DirectoryForest{
		&MemDir{DirName: "app", Entries: []Entry{
			&MemFile{FileName: "README.md", Data: []byte("# app")},
			&MemDir{DirName: "src", Entries: []Entry{
				&MemFile{FileName: "main.go", Data: []byte("package main")},
				&MemDir{DirName: "deep", Entries: []Entry{
					&MemFile{FileName: "x.go", Data: []byte("package deep")},
				}},
			}},
			&MemDir{DirName: "node_modules", Entries: []Entry{
				&MemFile{FileName: "dep.js", Data: []byte("x")},
			}},
		}},
		&MemFile{FileName: "top.txt", Data: []byte("top")},
	}

	set, err := newTestReader(&probe{}).Ingest(context.Background(), forest)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/README.md", "app/src/deep/x.go", "app/src/main.go", "top.txt"}, set.Paths())
}

func TestIngestFSEntry(t *testing.T) {
	fsys := fstest.MapFS{
		"proj/main.go":         {Data: []byte("package main\n")},
		"proj/.github/ci.yml":  {Data: []byte("on: push\n")},
		"proj/build/out.js":    {Data: []byte("x")},
		"proj/assets/icon.ico": {Data: []byte("0123")},
		"proj/docs/guide.md":   {Data: []byte("guide")},
		"proj/docs/.secret_rc": {Data: []byte("x")},
	}
	root, err := NewFSEntry(fsys, "proj")
	require.NoError(t, err)

	set, err := newTestReader(&probe{}).Ingest(context.Background(), DirectoryForest{root})
	require.NoError(t, err)
	assert.Equal(t, []string{"proj/.github/ci.yml", "proj/assets/icon.ico", "proj/docs/guide.md", "proj/main.go"}, set.Paths())
	assert.Equal(t, int64(4), set[1].Size)
	assert.Equal(t, "[INGESTED BINARY METADATA: icon.ico | Size: 4 bytes]", set[1].Content)
}

func TestIngestOSFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(p, []byte("line1\nline2"), 0o644))

	h, err := NewOSFile(p, "")
	require.NoError(t, err)

	set, err := newTestReader(&probe{}).Ingest(context.Background(), LooseFiles{h})
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, "notes.md", set[0].Path)
	assert.Equal(t, int64(11), set[0].Size)

	_, err = NewOSFile(dir, "")
	assert.Error(t, err)
}

func TestIngestAllMergesAndSorts(t *testing.T) {
	archive := ArchiveBytes{Name: "lib.zip", Data: buildZip(t, zipEntry{name: "lib/a.go", body: "package lib"})}
	loose := LooseFiles{&MemFile{FileName: "z.go", Hint: "app/z.go", Data: []byte("package app")}}

	set, err := newTestReader(&probe{}).IngestAll(context.Background(), loose, archive)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/z.go", "lib/a.go"}, set.Paths())
}

func TestIngestMaxFileSize(t *testing.T) {
	r := NewReader(Options{Scheduler: &probe{}, MaxFileSize: 4})
	in := LooseFiles{
		&MemFile{FileName: "small.txt", Data: []byte("1234")},
		&MemFile{FileName: "large.txt", Data: []byte("12345")},
		&MemFile{FileName: "large.png", Data: []byte("12345")},
	}
	set, err := r.Ingest(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"large.png", "small.txt"}, set.Paths(), "binary placeholders are not subject to the limit")
}

func TestIngestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := LooseFiles{&MemFile{FileName: "a.go", Data: []byte("package a")}}
	_, err := newTestReader(&probe{}).Ingest(ctx, in)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngestCanceledBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	sched := SchedulerFunc(func(ctx context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return nil
	})

	var in LooseFiles
	for i := 0; i < 30; i++ {
		in = append(in, &MemFile{FileName: "f.txt", Data: []byte("x")})
	}
	_, err := NewReader(Options{Scheduler: sched}).Ingest(ctx, in)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestIngestCustomClassifier(t *testing.T) {
	cfg := classify.DefaultConfig()
	cfg.IgnoredDirs = []string{"fixtures"}
	r := NewReader(Options{Scheduler: &probe{}, Classifier: classify.New(cfg)})

	in := LooseFiles{
		&MemFile{FileName: "a.go", Hint: "fixtures/a.go", Data: []byte("x")},
		&MemFile{FileName: "b.js", Hint: "node_modules/b.js", Data: []byte("x")},
	}
	set, err := r.Ingest(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"node_modules/b.js"}, set.Paths())
}

func TestIngestNormalizesPaths(t *testing.T) {
	in := LooseFiles{&MemFile{FileName: "a.go", Hint: `./proj\pkg\a.go`, Data: []byte("x")}}
	set, err := newTestReader(&probe{}).Ingest(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "proj/pkg/a.go", set[0].Path)
	assert.Equal(t, "a.go", set[0].Name)
}

func TestIngestUnsupportedInput(t *testing.T) {
	_, err := newTestReader(&probe{}).Ingest(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnsupportedInput)
}

func TestUTF8Decoder(t *testing.T) {
	got, err := UTF8Decoder{}.Decode([]byte("\xEF\xBB\xBFhello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	got, err = UTF8Decoder{}.Decode([]byte("ok\xffok"))
	require.NoError(t, err)
	assert.Equal(t, "ok�ok", got)
}
