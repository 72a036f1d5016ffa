// Package flatten serializes a sorted record set into a single markdown-like document.
//
// The layout is meant for people and LLM context windows. It is not parsed back.
package flatten

import (
	"strconv"
	"strings"
	"time"

	"github.com/jadenpxrk/monofile/pkg/source"
)

const (
	Banner     = "# MONOFILE GENERATED CODEBASE"
	RootMarker = "(root)"

	// TimeFormat renders millisecond-precision UTC ISO-8601 timestamps.
	TimeFormat = "2006-01-02T15:04:05.000Z"
)

var (
	headerRule = strings.Repeat("=", 80)
	fileRule   = strings.Repeat("-", 80)
)

// Flattener renders documents. Now defaults to time.Now.
type Flattener struct {
	Now func() time.Time
}

// Flatten renders set with the current time.
func Flatten(set source.RecordSet) string {
	return Flattener{}.Flatten(set)
}

// Flatten renders set in iteration order. Two calls on the same set differ only in the timestamp line.
func (f Flattener) Flatten(set source.RecordSet) string {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	var b strings.Builder
	b.Grow(estimateSize(set))

	b.WriteString(Banner)
	b.WriteString("\n# Generated at: ")
	b.WriteString(now().UTC().Format(TimeFormat))
	b.WriteString("\n# File Count: ")
	b.WriteString(strconv.Itoa(len(set)))
	b.WriteString("\n")
	b.WriteString(headerRule)
	b.WriteString("\n\n")

	for _, rec := range set {
		writeRecord(&b, rec)
	}
	return b.String()
}

func writeRecord(b *strings.Builder, rec source.FileRecord) {
	dirs, name := SplitPath(rec.Path)
	folder := strings.Join(dirs, " / ")
	if folder == "" {
		folder = RootMarker
	}

	b.WriteString("\n### PATH: ")
	b.WriteString(folder)
	b.WriteString("\n## FILE: ")
	b.WriteString(name)
	b.WriteString("\n```")
	b.WriteString(rec.Extension)
	b.WriteString("\n")
	b.WriteString(rec.Content)
	b.WriteString("\n```\n\n")
	b.WriteString(fileRule)
	b.WriteString("\n")
}

// SplitPath splits p on '/' or '\' into its directory segments and base name.
func SplitPath(p string) (dirs []string, name string) {
	parts := strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
	if len(parts) == 0 {
		return nil, ""
	}
	return parts[:len(parts)-1], parts[len(parts)-1]
}

func estimateSize(set source.RecordSet) int {
	n := 256
	for _, rec := range set {
		n += len(rec.Content) + len(rec.Path) + 200
	}
	return n
}
