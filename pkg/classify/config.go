package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the static tables the Classifier is built from.
// Names are matched exactly; extensions are matched case-insensitively and without the leading dot.
type Config struct {
	IgnoredDirs      []string `yaml:"ignored_dirs"`
	IgnoredFiles     []string `yaml:"ignored_files"`
	AllowedDotfiles  []string `yaml:"allowed_dotfiles"`
	BannedDotfiles   []string `yaml:"banned_dotfiles"`
	TextExtensions   []string `yaml:"text_extensions"`
	BinaryExtensions []string `yaml:"binary_extensions"`
}

// fileConfig is the on-disk shape. Plain keys replace a default list, extra_ keys extend it.
type fileConfig struct {
	Config `yaml:",inline"`

	ExtraIgnoredDirs      []string `yaml:"extra_ignored_dirs"`
	ExtraIgnoredFiles     []string `yaml:"extra_ignored_files"`
	ExtraAllowedDotfiles  []string `yaml:"extra_allowed_dotfiles"`
	ExtraTextExtensions   []string `yaml:"extra_text_extensions"`
	ExtraBinaryExtensions []string `yaml:"extra_binary_extensions"`
}

// DefaultConfig returns the shipped lists. Every call returns fresh slices.
func DefaultConfig() Config {
	return Config{
		IgnoredDirs: []string{
			".git", "node_modules", "dist", "build", ".next", "coverage", "__pycache__",
			".gradle", ".idea", "vendor", "Pods", "target", "venv", ".venv",
		},
		IgnoredFiles: []string{
			".DS_Store", "package-lock.json", "yarn.lock", "pnpm-lock.yaml", "thumbs.db",
		},
		AllowedDotfiles: []string{
			".env", ".env.local", ".env.example", ".gitignore", ".dockerignore", ".editorconfig",
			".babelrc", ".eslintrc", ".eslintrc.json", ".prettierrc", ".prettierrc.json", ".npmrc",
		},
		BannedDotfiles: []string{".DS_Store", ".gitkeep", ".git"},
		TextExtensions: []string{
			"html", "css", "js", "mjs", "cjs", "ts", "tsx", "jsx", "json", "yaml", "yml", "xml", "md", "txt",
			"py", "rb", "php", "go", "rs", "java", "kt", "c", "cpp", "h", "hpp", "cs", "sh", "bash",
			"sol", "wasm", "abi", "contract", "dockerfile", "gradle", "properties", "toml", "env", "local",
			"dart", "swift", "m", "cmake", "makefile", "proto", "gitignore", "dockerignore", "editorconfig",
			"npmrc", "prettierrc", "eslintrc", "babelrc", "lock", "config", "rc",
		},
		BinaryExtensions: []string{
			"apk", "aab", "ipa", "exe", "msi", "app", "dmg", "pkg", "deb", "rpm", "appimage",
			"png", "jpg", "jpeg", "gif", "ico", "pdf", "zip", "tar", "gz", "jar", "war", "node", "whl",
			"pb", "tflite", "bin", "dll", "so", "dylib", "wav", "mp3", "mp4", "mov", "pyc",
		},
	}
}

// LoadConfig reads a YAML list file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading classifier config %s: %w", path, err)
	}
	cfg, err := ParseConfig(raw)
	if err != nil {
		return Config{}, fmt.Errorf("error parsing classifier config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML list overrides on top of DefaultConfig.
func ParseConfig(raw []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	replace(&cfg.IgnoredDirs, fc.IgnoredDirs)
	replace(&cfg.IgnoredFiles, fc.IgnoredFiles)
	replace(&cfg.AllowedDotfiles, fc.AllowedDotfiles)
	replace(&cfg.BannedDotfiles, fc.BannedDotfiles)
	replace(&cfg.TextExtensions, fc.TextExtensions)
	replace(&cfg.BinaryExtensions, fc.BinaryExtensions)

	cfg.IgnoredDirs = append(cfg.IgnoredDirs, fc.ExtraIgnoredDirs...)
	cfg.IgnoredFiles = append(cfg.IgnoredFiles, fc.ExtraIgnoredFiles...)
	cfg.AllowedDotfiles = append(cfg.AllowedDotfiles, fc.ExtraAllowedDotfiles...)
	cfg.TextExtensions = append(cfg.TextExtensions, fc.ExtraTextExtensions...)
	cfg.BinaryExtensions = append(cfg.BinaryExtensions, fc.ExtraBinaryExtensions...)
	return cfg, nil
}

func replace(dst *[]string, src []string) {
	if src != nil {
		*dst = src
	}
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

func extSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e == "" {
			continue
		}
		set[e] = struct{}{}
	}
	return set
}
