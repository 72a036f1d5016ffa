package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jadenpxrk/monofile/pkg/classify"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
)

// pickerCandidates lists the paths below root that the classifier would not ignore.
func pickerCandidates(root string, cls *classify.Classifier, maxDepth int) ([]string, error) {
	var candidates []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || p == root {
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		if d.IsDir() {
			if cls.IsIgnoredDir(d.Name()) || (maxDepth > 0 && depthOf(root, p) >= maxDepth) {
				return fs.SkipDir
			}
		} else if cls.ShouldIgnore(filepath.ToSlash(rel)) {
			return nil
		}
		candidates = append(candidates, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning for files/directories: %w", err)
	}
	return candidates, nil
}

// runInteractiveFinder lets the user pick files and directories. A nil slice with a nil
// error means the user aborted.
func runInteractiveFinder(cls *classify.Classifier, maxDepth int) ([]string, error) {
	candidates, err := pickerCandidates(".", cls, maxDepth)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no files or directories found to select from")
	}

	idx, err := fuzzyfinder.FindMulti(
		candidates,
		func(i int) string { return candidates[i] },
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return "Select files or directories to process. Press Tab to multi-select, Enter to confirm."
			}
			info, statErr := os.Stat(candidates[i])
			if statErr != nil {
				return fmt.Sprintf("Path: %s\nError getting info: %v", candidates[i], statErr)
			}
			kind := "File"
			if info.IsDir() {
				kind = "Directory"
			} else if cls.IsBinary(info.Name()) {
				kind = "File (binary, metadata only)"
			}
			return fmt.Sprintf("Path: %s\nType: %s\nSize: %d bytes", candidates[i], kind, info.Size())
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, nil
		}
		return nil, fmt.Errorf("fuzzy finder error: %w", err)
	}

	selected := make([]string, len(idx))
	for i, j := range idx {
		selected[i] = candidates[j]
	}
	return selected, nil
}
