// Package stats aggregates counts over an ingested record set.
package stats

import (
	"sort"
	"strings"

	"github.com/jadenpxrk/monofile/pkg/source"
)

// UnknownType is the histogram key for records without an extension.
const UnknownType = "UNKNOWN"

// ProcessingStats is a read-only summary of one RecordSet. It is recomputed from scratch every time.
type ProcessingStats struct {
	TotalFiles  int            `json:"totalFiles"`
	TotalLines  int            `json:"totalLines"`
	TotalSize   int64          `json:"totalSize"`
	FileTypes   map[string]int `json:"fileTypes"`
	TotalTokens int            `json:"totalTokens,omitempty"`
}

// TokenCounter counts model tokens in a text. tokenize.Counter satisfies it.
type TokenCounter interface {
	CountTokens(text string) int
}

// Compute scans set once. Placeholder records count towards files, size and types but not lines.
func Compute(set source.RecordSet) ProcessingStats {
	st := ProcessingStats{
		TotalFiles: len(set),
		FileTypes:  make(map[string]int),
	}
	for _, rec := range set {
		st.TotalSize += rec.Size
		if !rec.IsBinary() {
			st.TotalLines += LineCount(rec.Content)
		}
		st.FileTypes[TypeKey(rec.Extension)]++
	}
	return st
}

// ComputeWithTokens is Compute plus a token total over text records.
func ComputeWithTokens(set source.RecordSet, counter TokenCounter) ProcessingStats {
	st := Compute(set)
	if counter == nil {
		return st
	}
	for _, rec := range set {
		if rec.IsBinary() {
			continue
		}
		st.TotalTokens += counter.CountTokens(rec.Content)
	}
	return st
}

// LineCount is the number of newline-separated pieces in s. The empty string is one line,
// and a trailing newline adds an empty last line.
func LineCount(s string) int {
	return strings.Count(s, "\n") + 1
}

// TypeKey maps an extension to its histogram key.
func TypeKey(ext string) string {
	if ext == "" {
		return UnknownType
	}
	return strings.ToUpper(ext)
}

// TypeCount is one histogram bucket.
type TypeCount struct {
	Type  string
	Count int
}

// SortedTypes returns the histogram ordered by count descending, then by type name.
func (s ProcessingStats) SortedTypes() []TypeCount {
	out := make([]TypeCount, 0, len(s.FileTypes))
	for t, n := range s.FileTypes {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}
