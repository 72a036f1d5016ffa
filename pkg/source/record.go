package source

import (
	"fmt"
	"sort"

	"github.com/jadenpxrk/monofile/pkg/classify"
)

// BinaryMarker starts every binary placeholder content string.
const BinaryMarker = "[INGESTED BINARY"

// Kind tells real text content apart from a synthetic binary placeholder.
type Kind int

const (
	KindText Kind = iota
	KindBinaryPlaceholder
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinaryPlaceholder:
		return "binary"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// FileRecord is one ingested file. It is created once by the Reader and never mutated.
type FileRecord struct {
	Path      string // posix-style relative path
	Name      string // base name of Path
	Extension string // lowercase suffix after the last '.', "" if none
	Content   string // full text, or a placeholder when Kind is KindBinaryPlaceholder
	Size      int64  // best-effort byte count
	Kind      Kind
}

// NewTextRecord builds a text record, deriving Name and Extension from path.
func NewTextRecord(path, content string, size int64) FileRecord {
	return newRecord(path, content, size, KindText)
}

// NewBinaryRecord builds a placeholder record, deriving Name and Extension from path.
func NewBinaryRecord(path, placeholder string, size int64) FileRecord {
	return newRecord(path, placeholder, size, KindBinaryPlaceholder)
}

func newRecord(path, content string, size int64, kind Kind) FileRecord {
	if size < 0 {
		size = 0
	}
	return FileRecord{
		Path:      path,
		Name:      classify.BaseName(path),
		Extension: classify.Extension(path),
		Content:   content,
		Size:      size,
		Kind:      kind,
	}
}

// IsBinary reports whether the record carries a placeholder instead of file content.
func (r FileRecord) IsBinary() bool {
	return r.Kind == KindBinaryPlaceholder
}

// RecordSet is an ordered collection of records, sorted by Path once ingestion finishes.
type RecordSet []FileRecord

// Sort orders the set by Path using byte-wise comparison. Equal paths keep their relative order.
func (s RecordSet) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Path < s[j].Path
	})
}

// IsSorted reports whether the set is in Path order.
func (s RecordSet) IsSorted() bool {
	return sort.SliceIsSorted(s, func(i, j int) bool {
		return s[i].Path < s[j].Path
	})
}

// Paths lists the record paths in set order.
func (s RecordSet) Paths() []string {
	paths := make([]string, len(s))
	for i, r := range s {
		paths[i] = r.Path
	}
	return paths
}

func loosePlaceholder(name string, size int64) string {
	return fmt.Sprintf("%s METADATA: %s | Size: %d bytes]", BinaryMarker, name, size)
}

func archivePlaceholder(path string) string {
	return fmt.Sprintf("%s IN ZIP: %s]", BinaryMarker, path)
}
