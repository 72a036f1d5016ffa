package stats

import (
	"strings"
	"testing"

	"github.com/jadenpxrk/monofile/pkg/source"

	"github.com/stretchr/testify/assert"
)

func TestComputeScenario(t *testing.T) {
	set := source.RecordSet{
		source.NewBinaryRecord("image.png", "[INGESTED BINARY METADATA: image.png | Size: 2048 bytes]", 2048),
		source.NewTextRecord("src/index.ts", "export const x=1;", 17),
	}

	st := Compute(set)
	assert.Equal(t, 2, st.TotalFiles)
	assert.Equal(t, 1, st.TotalLines)
	assert.Equal(t, int64(2065), st.TotalSize)
	assert.Equal(t, map[string]int{"TS": 1, "PNG": 1}, st.FileTypes)
	assert.Zero(t, st.TotalTokens)
}

func TestComputeTotalFilesMatchesLength(t *testing.T) {
	for _, n := range []int{0, 1, 7, 40} {
		var set source.RecordSet
		for i := 0; i < n; i++ {
			set = append(set, source.NewTextRecord("f.go", "x", 1))
		}
		assert.Equal(t, n, Compute(set).TotalFiles)
	}
}

func TestLineCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 1},
		{"one", 1},
		{"one\n", 2},
		{"a\nb\nc", 3},
		{"\n\n", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LineCount(tt.in), "%q", tt.in)
	}
}

func TestComputeUsesKindNotContent(t *testing.T) {
	// a text file that happens to start with the marker still counts its lines
	set := source.RecordSet{
		source.NewTextRecord("notes.txt", source.BinaryMarker+" quoted\nsecond", 30),
	}
	assert.Equal(t, 2, Compute(set).TotalLines)
}

func TestTypeKey(t *testing.T) {
	assert.Equal(t, "GO", TypeKey("go"))
	assert.Equal(t, UnknownType, TypeKey(""))

	st := Compute(source.RecordSet{source.NewTextRecord("Makefile", "all:", 4)})
	assert.Equal(t, map[string]int{UnknownType: 1}, st.FileTypes)
}

type wordCounter struct{}

func (wordCounter) CountTokens(text string) int { return len(strings.Fields(text)) }

func TestComputeWithTokens(t *testing.T) {
	set := source.RecordSet{
		source.NewBinaryRecord("a.png", "[INGESTED BINARY METADATA: a.png | Size: 1 bytes]", 1),
		source.NewTextRecord("b.go", "package b\nfunc B() {}", 21),
	}
	st := ComputeWithTokens(set, wordCounter{})
	assert.Equal(t, 5, st.TotalTokens)
	assert.Equal(t, Compute(set).TotalLines, st.TotalLines)

	assert.Zero(t, ComputeWithTokens(set, nil).TotalTokens)
}

func TestSortedTypes(t *testing.T) {
	st := ProcessingStats{FileTypes: map[string]int{"GO": 3, "MD": 1, "TS": 3, "UNKNOWN": 1}}
	assert.Equal(t, []TypeCount{
		{Type: "GO", Count: 3},
		{Type: "TS", Count: 3},
		{Type: "MD", Count: 1},
		{Type: "UNKNOWN", Count: 1},
	}, st.SortedTypes())
}
