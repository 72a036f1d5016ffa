package source

import (
	"io"
)

// Input is one of LooseFiles, DirectoryForest or ArchiveBytes. The set is closed:
// only this package can add variants.
type Input interface {
	isInput()
}

// LooseFiles is a flat list of file handles.
type LooseFiles []FileHandle

// DirectoryForest is a set of directory-entry trees walked depth-first.
type DirectoryForest []Entry

// ArchiveBytes is a complete archive held in memory.
type ArchiveBytes struct {
	Name string // shown in errors, e.g. "project.zip"
	Data []byte
}

func (LooseFiles) isInput()      {}
func (DirectoryForest) isInput() {}
func (ArchiveBytes) isInput()    {}

// FileHandle is a readable file supplied by the host.
type FileHandle interface {
	// Name is the bare file name.
	Name() string
	// RelativePath is an optional path hint such as "project/src/app.ts"; "" when absent.
	RelativePath() string
	// Size is the byte size, or -1 when unknown.
	Size() int64
	Open() (io.ReadCloser, error)
}

// Entry is a node of a host directory tree. Leaves yield a file, containers yield children.
type Entry interface {
	Name() string
	IsDir() bool
	File() (FileHandle, error)
	Children() ([]Entry, error)
}
