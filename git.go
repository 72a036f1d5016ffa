package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/jadenpxrk/monofile/pkg/source"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"go.uber.org/zap"
)

// isGitURL checks if the input string looks like a Git repository URL.
// Plain http(s) URLs are treated as web pages unless they end in .git.
func isGitURL(input string) bool {
	return strings.HasSuffix(input, ".git") ||
		strings.HasPrefix(input, "git@") ||
		strings.HasPrefix(input, "ssh://")
}

// repoName derives the top-level directory name for a cloned repository.
func repoName(url string) string {
	name := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "repo"
	}
	return name
}

// cloneGitRepo shallow-clones url into memory and exposes the worktree as a directory tree
// rooted at the repository name.
func cloneGitRepo(ctx context.Context, url string, progress io.Writer) (source.Entry, error) {
	logger.Info("Cloning Git repository", zap.String("url", url))

	fs := memfs.New()
	_, err := git.CloneContext(ctx, memory.NewStorage(), fs, &git.CloneOptions{
		URL:           url,
		Progress:      progress,
		Depth:         1,
		ReferenceName: plumbing.HEAD,
		SingleBranch:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone repository '%s': %w", url, err)
	}

	logger.Info("Finished cloning", zap.String("url", url))
	return &billyEntry{fs: fs, name: repoName(url), path: "/", isDir: true, size: -1}, nil
}

// billyEntry adapts a go-billy filesystem node to source.Entry.
type billyEntry struct {
	fs    billy.Filesystem
	name  string
	path  string
	isDir bool
	size  int64
}

func (e *billyEntry) Name() string { return e.name }
func (e *billyEntry) IsDir() bool  { return e.isDir }

func (e *billyEntry) Children() ([]source.Entry, error) {
	if !e.isDir {
		return nil, nil
	}
	infos, err := e.fs.ReadDir(e.path)
	if err != nil {
		return nil, err
	}
	out := make([]source.Entry, 0, len(infos))
	for _, info := range infos {
		out = append(out, &billyEntry{
			fs:    e.fs,
			name:  info.Name(),
			path:  path.Join(e.path, info.Name()),
			isDir: info.IsDir(),
			size:  info.Size(),
		})
	}
	return out, nil
}

func (e *billyEntry) File() (source.FileHandle, error) {
	if e.isDir {
		return nil, &os.PathError{Op: "open", Path: e.path, Err: fmt.Errorf("is a directory")}
	}
	return e, nil
}

func (e *billyEntry) RelativePath() string { return "" }
func (e *billyEntry) Size() int64          { return e.size }

func (e *billyEntry) Open() (io.ReadCloser, error) {
	return e.fs.Open(e.path)
}
