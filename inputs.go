package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jadenpxrk/monofile/pkg/classify"
	"github.com/jadenpxrk/monofile/pkg/source"

	"go.uber.org/zap"
)

// inputPlan is the resolved form of the command-line paths.
type inputPlan struct {
	inputs     []source.Input
	classifier *classify.Classifier
	failed     int // paths that could not be resolved at all
}

// inputResolver maps command-line paths to source inputs.
type inputResolver struct {
	classifier *classify.Classifier
	filter     *patternFilter
	noIgnore   bool
	linkDepth  int // 0 fetches only the given page
	progress   io.Writer
}

// resolve splits paths into one LooseFiles input, one DirectoryForest input and one
// ArchiveBytes input per zip file. Paths that fail are logged and counted, not fatal.
func (r *inputResolver) resolve(ctx context.Context, paths []string) (inputPlan, error) {
	plan := inputPlan{classifier: r.classifier}
	var (
		loose    source.LooseFiles
		forest   source.DirectoryForest
		archives []source.Input
		ignored  bool
	)

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return plan, err
		}

		switch {
		case isWebURL(p) && !isGitURL(p):
			files, err := newWebFetcher(r.linkDepth).fetch(ctx, p, 0)
			if err != nil {
				r.fail(&plan, p, err)
				continue
			}
			loose = append(loose, r.filter.files(files)...)

		case isGitURL(p):
			root, err := cloneGitRepo(ctx, p, r.progress)
			if err != nil {
				r.fail(&plan, p, err)
				continue
			}
			forest = append(forest, r.filter.entry(root))

		default:
			abs, err := filepath.Abs(p)
			if err != nil {
				r.fail(&plan, p, err)
				continue
			}
			info, err := os.Stat(abs)
			if err != nil {
				r.fail(&plan, p, err)
				continue
			}

			switch {
			case info.IsDir():
				base := filepath.Base(abs)
				root, err := source.NewFSEntry(os.DirFS(filepath.Dir(abs)), base)
				if err != nil {
					r.fail(&plan, p, err)
					continue
				}
				if !r.noIgnore {
					if ignored {
						logger.Debug("Only the first directory's .gitignore is applied", zap.String("path", p))
					} else if cls, ok := withGitIgnore(plan.classifier, abs, base); ok {
						plan.classifier = cls
						ignored = true
					}
				}
				forest = append(forest, r.filter.entry(root))

			case strings.EqualFold(filepath.Ext(abs), ".zip"):
				data, err := os.ReadFile(abs)
				if err != nil {
					r.fail(&plan, p, err)
					continue
				}
				archives = append(archives, source.ArchiveBytes{Name: filepath.Base(abs), Data: data})

			default:
				f, err := source.NewOSFile(abs, "")
				if err != nil {
					r.fail(&plan, p, err)
					continue
				}
				loose = append(loose, r.filter.files(source.LooseFiles{f})...)
			}
		}
	}

	if len(loose) > 0 {
		plan.inputs = append(plan.inputs, loose)
	}
	if len(forest) > 0 {
		plan.inputs = append(plan.inputs, forest)
	}
	plan.inputs = append(plan.inputs, archives...)

	if len(plan.inputs) == 0 {
		return plan, fmt.Errorf("none of the %d path(s) could be processed", len(paths))
	}
	return plan, nil
}

func (r *inputResolver) fail(plan *inputPlan, p string, err error) {
	plan.failed++
	logger.Warn("Error processing path", zap.String("path", p), zap.Error(err))
}

// withGitIgnore applies dir/.gitignore to every record below base, if the file exists.
func withGitIgnore(cls *classify.Classifier, dir, base string) (*classify.Classifier, bool) {
	f, err := os.Open(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return cls, false
	}
	defer f.Close()
	logger.Debug("Applying .gitignore", zap.String("dir", dir))
	return cls.WithGitIgnore(base, f), true
}
