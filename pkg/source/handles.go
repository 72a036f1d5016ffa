package source

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// MemFile is an in-memory file. It is both a FileHandle and a leaf Entry.
// A non-nil Err makes Open fail with it.
type MemFile struct {
	FileName string
	Hint     string
	Data     []byte
	Err      error
}

func (f *MemFile) Name() string         { return f.FileName }
func (f *MemFile) RelativePath() string { return f.Hint }
func (f *MemFile) Size() int64          { return int64(len(f.Data)) }
func (f *MemFile) IsDir() bool          { return false }

func (f *MemFile) Open() (io.ReadCloser, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}

func (f *MemFile) File() (FileHandle, error)  { return f, nil }
func (f *MemFile) Children() ([]Entry, error) { return nil, nil }

// MemDir is an in-memory directory Entry.
type MemDir struct {
	DirName string
	Entries []Entry
}

func (d *MemDir) Name() string               { return d.DirName }
func (d *MemDir) IsDir() bool                { return true }
func (d *MemDir) Children() ([]Entry, error) { return d.Entries, nil }
func (d *MemDir) File() (FileHandle, error)  { return nil, errNotAFile }

var errNotAFile = errors.New("source: entry is a directory")

// OSFile is a file on the local filesystem.
type OSFile struct {
	Path string // filesystem path used to open the file
	Hint string // optional relative path hint
	size int64
}

// NewOSFile stats p and returns a handle for it.
func NewOSFile(p, hint string) (*OSFile, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: p, Err: errNotAFile}
	}
	return &OSFile{Path: p, Hint: hint, size: info.Size()}, nil
}

func (f *OSFile) Name() string                 { return filepath.Base(f.Path) }
func (f *OSFile) RelativePath() string         { return f.Hint }
func (f *OSFile) Size() int64                  { return f.size }
func (f *OSFile) Open() (io.ReadCloser, error) { return os.Open(f.Path) }

// FSEntry exposes a path inside an fs.FS as an Entry.
type FSEntry struct {
	fsys  fs.FS
	name  string
	path  string
	isDir bool
	size  int64
}

// NewFSEntry returns the Entry for p inside fsys. Use os.DirFS(filepath.Dir(root)) together with
// filepath.Base(root) so that record paths start with the directory name.
func NewFSEntry(fsys fs.FS, p string) (*FSEntry, error) {
	info, err := fs.Stat(fsys, p)
	if err != nil {
		return nil, err
	}
	return &FSEntry{fsys: fsys, name: path.Base(p), path: p, isDir: info.IsDir(), size: info.Size()}, nil
}

func (e *FSEntry) Name() string { return e.name }
func (e *FSEntry) IsDir() bool  { return e.isDir }

func (e *FSEntry) File() (FileHandle, error) {
	if e.isDir {
		return nil, errNotAFile
	}
	return &fsFile{fsys: e.fsys, name: e.name, path: e.path, size: e.size}, nil
}

func (e *FSEntry) Children() ([]Entry, error) {
	if !e.isDir {
		return nil, nil
	}
	dirents, err := fs.ReadDir(e.fsys, e.path)
	if err != nil {
		return nil, err
	}
	children := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		child := &FSEntry{fsys: e.fsys, name: d.Name(), path: path.Join(e.path, d.Name()), isDir: d.IsDir(), size: -1}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				child.size = info.Size()
			}
		}
		children = append(children, child)
	}
	return children, nil
}

type fsFile struct {
	fsys fs.FS
	name string
	path string
	size int64
}

func (f *fsFile) Name() string                 { return f.name }
func (f *fsFile) RelativePath() string         { return "" }
func (f *fsFile) Size() int64                  { return f.size }
func (f *fsFile) Open() (io.ReadCloser, error) { return f.fsys.Open(f.path) }
