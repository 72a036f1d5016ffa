package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LanguageInfo is the part of a linguist languages.yml entry used for lexer selection.
type LanguageInfo struct {
	Type       string   `yaml:"type"`
	Extensions []string `yaml:"extensions"`
	Filenames  []string `yaml:"filenames"`
}

// Languages maps file names and extensions to language names. A nil *Languages matches nothing.
type Languages struct {
	byExt  map[string]string // ".go" -> "Go"
	byName map[string]string // "Makefile" -> "Makefile"
}

// LoadLanguages reads a linguist-style languages.yml.
func LoadLanguages(path string) (*Languages, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading language file %s: %w", path, err)
	}
	l, err := ParseLanguages(raw)
	if err != nil {
		return nil, fmt.Errorf("error parsing language file %s: %w", path, err)
	}
	return l, nil
}

// ParseLanguages decodes languages.yml content. When several languages claim the same
// extension the alphabetically first name wins, so lookups do not depend on map order.
func ParseLanguages(raw []byte) (*Languages, error) {
	var langs map[string]LanguageInfo
	if err := yaml.Unmarshal(raw, &langs); err != nil {
		return nil, err
	}

	l := &Languages{byExt: make(map[string]string), byName: make(map[string]string)}
	claim := func(m map[string]string, key, lang string) {
		if cur, ok := m[key]; !ok || lang < cur {
			m[key] = lang
		}
	}
	for name, info := range langs {
		for _, ext := range info.Extensions {
			claim(l.byExt, strings.ToLower(ext), name)
		}
		for _, fname := range info.Filenames {
			claim(l.byName, fname, name)
		}
	}
	return l, nil
}

// Lookup returns the language for p. Exact file names take precedence over extensions.
func (l *Languages) Lookup(p string) (string, bool) {
	if l == nil {
		return "", false
	}
	base := filepath.Base(p)
	if lang, ok := l.byName[base]; ok {
		return lang, true
	}
	if ext := strings.ToLower(filepath.Ext(base)); ext != "" {
		if lang, ok := l.byExt[ext]; ok {
			return lang, true
		}
	}
	return "", false
}
