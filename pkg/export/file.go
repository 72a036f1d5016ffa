// Package export delivers generated documents to files, the clipboard, PDF and S3-compatible storage.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jadenpxrk/monofile/pkg/logging"
	"github.com/jadenpxrk/monofile/pkg/pipeline"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
)

// Artifact names one of the documents a project produces.
type Artifact string

const (
	ArtifactFlattened Artifact = "flattened"
	ArtifactSummary   Artifact = "summary"
	ArtifactContext   Artifact = "context"
	ArtifactRecreator Artifact = "recreator"
)

// FileName is the default download name for an artifact, e.g. monofile_codebase.md.
func FileName(a Artifact, format string) string {
	if format == "" {
		format = "md"
	}
	prefix := "monofile_" + string(a)
	if a == ArtifactFlattened || a == "" {
		prefix = "monofile_codebase"
	}
	return prefix + "." + format
}

// Content picks the artifact's text out of outputs. The recreator blueprint is not part of
// Outputs and has to be passed separately.
func Content(out pipeline.Outputs, a Artifact) (string, error) {
	switch a {
	case ArtifactFlattened, "":
		return out.Flattened, nil
	case ArtifactSummary:
		return out.Summary, nil
	case ArtifactContext:
		return out.AIContext, nil
	default:
		return "", fmt.Errorf("unknown artifact %q", a)
	}
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(path, content string, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	if dir := filepath.Dir(path); dir != "." {
		if err := ensureDirectory(dir, logger); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		logger.Error("Failed to write file", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("error writing to file %s: %w", path, err)
	}
	logger.Debug("Successfully wrote file", zap.String("path", path), zap.Int("bytes", len(content)))
	return nil
}

func ensureDirectory(path string, logger *zap.Logger) error {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		logger.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Debug("Ensured directory exists", zap.String("path", path))
	return nil
}

// writeClipboard is swapped in tests; headless CI has no clipboard.
var writeClipboard = func(content string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not supported on this system")
	}
	return clipboard.WriteAll(content)
}

// Clipboard copies content to the system clipboard.
func Clipboard(content string) error {
	if err := writeClipboard(content); err != nil {
		return fmt.Errorf("error writing to clipboard: %w", err)
	}
	return nil
}
