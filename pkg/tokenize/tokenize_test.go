package tokenize

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnsupportedKind(t *testing.T) {
	_, err := New(Options{Kind: "sentencepiece"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported tokenizer type: sentencepiece")
}

func TestNewHuggingFaceMissingFile(t *testing.T) {
	_, err := New(Options{Kind: "HuggingFace", File: filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load tokenizer from file")
}

func TestFunc(t *testing.T) {
	var c Counter = Func(func(s string) int { return len(strings.Fields(s)) })
	assert.Equal(t, 3, c.CountTokens("a b c"))
	c.Close()
}

func TestEmptyTextIsZero(t *testing.T) {
	assert.Zero(t, (&tiktokenCounter{}).CountTokens("anything"))
	assert.Zero(t, (&hfCounter{}).CountTokens(""))
}
