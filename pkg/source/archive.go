package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ArchiveEntry is one member of a decoded archive.
type ArchiveEntry struct {
	Path  string
	IsDir bool
	Open  func() (io.ReadCloser, error)
}

// ArchiveOpener decompresses archive bytes and enumerates their members.
type ArchiveOpener interface {
	Entries(data []byte) ([]ArchiveEntry, error)
}

// ZipOpener reads zip archives.
type ZipOpener struct{}

func (ZipOpener) Entries(data []byte) ([]ArchiveEntry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	entries := make([]ArchiveEntry, 0, len(zr.File))
	for _, f := range zr.File {
		entries = append(entries, ArchiveEntry{
			Path:  f.Name,
			IsDir: f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/"),
			Open:  f.Open,
		})
	}
	return entries, nil
}
