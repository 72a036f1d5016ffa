// Package source normalizes loose files, directory-entry trees and archives into a sorted RecordSet.
package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jadenpxrk/monofile/pkg/classify"
	"github.com/jadenpxrk/monofile/pkg/logging"

	"go.uber.org/zap"
)

const (
	DefaultLooseBatch   = 10
	DefaultArchiveBatch = 20
)

// Options configures a Reader. Zero values select the defaults.
type Options struct {
	Classifier *classify.Classifier
	Scheduler  Scheduler
	Decoder    Decoder
	Archive    ArchiveOpener

	LooseBatch   int   // loose files and tree leaves per suspension
	ArchiveBatch int   // archive entries per suspension
	MaxFileSize  int64 // text files above this many bytes are skipped; 0 means no limit

	Logger *zap.Logger
	OnSkip func(*FileReadError) // called for every item dropped because it could not be read
}

// Reader runs ingestions. A Reader holds no per-run state, so one value can serve many
// sequential or concurrent Ingest calls; each call owns the RecordSet it returns.
type Reader struct {
	opts   Options
	logger *zap.Logger
}

// NewReader fills the defaults of opts and returns a Reader.
func NewReader(opts Options) *Reader {
	if opts.Classifier == nil {
		opts.Classifier = classify.Default()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = GoschedScheduler{}
	}
	if opts.Decoder == nil {
		opts.Decoder = UTF8Decoder{}
	}
	if opts.Archive == nil {
		opts.Archive = ZipOpener{}
	}
	if opts.LooseBatch <= 0 {
		opts.LooseBatch = DefaultLooseBatch
	}
	if opts.ArchiveBatch <= 0 {
		opts.ArchiveBatch = DefaultArchiveBatch
	}
	return &Reader{opts: opts, logger: logging.OrNop(opts.Logger)}
}

// Ingest reads a single input with the default options.
func Ingest(ctx context.Context, in Input) (RecordSet, error) {
	return NewReader(Options{}).Ingest(ctx, in)
}

// Ingest reads in and returns its records sorted by path.
func (r *Reader) Ingest(ctx context.Context, in Input) (RecordSet, error) {
	return r.IngestAll(ctx, in)
}

// IngestAll reads the inputs one after another and returns the merged records sorted by path.
// It returns ErrEmptyResult when no record survives, and an *ArchiveDecodeError when any
// archive cannot be opened.
func (r *Reader) IngestAll(ctx context.Context, inputs ...Input) (RecordSet, error) {
	var set RecordSet
	for _, in := range inputs {
		var err error
		switch v := in.(type) {
		case LooseFiles:
			err = r.readLoose(ctx, v, &set)
		case DirectoryForest:
			err = r.readForest(ctx, v, &set)
		case ArchiveBytes:
			err = r.readArchive(ctx, v, &set)
		case *ArchiveBytes:
			if v == nil {
				err = fmt.Errorf("%w: nil archive", ErrUnsupportedInput)
				break
			}
			err = r.readArchive(ctx, *v, &set)
		default:
			err = fmt.Errorf("%w: %T", ErrUnsupportedInput, in)
		}
		if err != nil {
			return nil, err
		}
	}

	if len(set) == 0 {
		return nil, ErrEmptyResult
	}
	set.Sort()
	r.logger.Debug("Ingestion finished", zap.Int("records", len(set)))
	return set, nil
}

func (r *Reader) readLoose(ctx context.Context, files LooseFiles, set *RecordSet) error {
	b := newBatcher(r.opts.LooseBatch, r.opts.Scheduler)
	for _, h := range files {
		if err := b.tick(ctx); err != nil {
			return fmt.Errorf("loose files: %w", err)
		}
		if h == nil {
			continue
		}
		p := h.RelativePath()
		if p == "" {
			p = h.Name()
		}
		if rec, ok := r.load(normalizePath(p), h); ok {
			*set = append(*set, rec)
		}
	}
	return nil
}

func (r *Reader) readForest(ctx context.Context, forest DirectoryForest, set *RecordSet) error {
	b := newBatcher(r.opts.LooseBatch, r.opts.Scheduler)
	for _, root := range forest {
		if root == nil {
			continue
		}
		if err := r.walk(ctx, root, "", b, set); err != nil {
			return fmt.Errorf("directory tree: %w", err)
		}
	}
	return nil
}

// walk visits e depth-first, accumulating the parent segments in prefix.
func (r *Reader) walk(ctx context.Context, e Entry, prefix string, b *batcher, set *RecordSet) error {
	p := prefix + e.Name()

	if e.IsDir() {
		if r.opts.Classifier.IsIgnoredDir(e.Name()) {
			r.logger.Debug("Skipping ignored directory", zap.String("path", p))
			return nil
		}
		children, err := e.Children()
		if err != nil {
			r.skip(&FileReadError{Path: p, Err: err})
			return nil
		}
		for _, child := range children {
			if child == nil {
				continue
			}
			if err := r.walk(ctx, child, p+"/", b, set); err != nil {
				return err
			}
		}
		return nil
	}

	if err := b.tick(ctx); err != nil {
		return err
	}
	p = normalizePath(p)
	if r.opts.Classifier.ShouldIgnore(p) {
		return nil
	}
	h, err := e.File()
	if err != nil {
		r.skip(&FileReadError{Path: p, Err: err})
		return nil
	}
	if rec, ok := r.load(p, h); ok {
		*set = append(*set, rec)
	}
	return nil
}

// load turns one handle into a record. It returns false for ignored, oversized or unreadable files.
func (r *Reader) load(p string, h FileHandle) (FileRecord, bool) {
	if r.opts.Classifier.ShouldIgnore(p) {
		return FileRecord{}, false
	}

	size := h.Size()
	if r.opts.Classifier.IsBinary(p) {
		if size < 0 {
			size = 0
		}
		return NewBinaryRecord(p, loosePlaceholder(h.Name(), size), size), true
	}

	if r.opts.MaxFileSize > 0 && size > r.opts.MaxFileSize {
		r.logger.Debug("Skipping file above size limit", zap.String("path", p), zap.Int64("sizeBytes", size))
		return FileRecord{}, false
	}

	data, err := readAll(h.Open)
	if err != nil {
		r.skip(&FileReadError{Path: p, Err: err})
		return FileRecord{}, false
	}
	content, err := r.opts.Decoder.Decode(data)
	if err != nil {
		r.skip(&FileReadError{Path: p, Err: fmt.Errorf("decode: %w", err)})
		return FileRecord{}, false
	}
	if size < 0 {
		size = int64(len(data))
	}
	return NewTextRecord(p, content, size), true
}

func (r *Reader) readArchive(ctx context.Context, a ArchiveBytes, set *RecordSet) error {
	entries, err := r.opts.Archive.Entries(a.Data)
	if err != nil {
		r.logger.Error("Failed to open archive", zap.String("archive", a.Name), zap.Error(err))
		return &ArchiveDecodeError{Name: a.Name, Err: err}
	}
	r.logger.Debug("Opened archive", zap.String("archive", a.Name), zap.Int("entries", len(entries)))

	b := newBatcher(r.opts.ArchiveBatch, r.opts.Scheduler)
	for _, ent := range entries {
		if err := b.tick(ctx); err != nil {
			return fmt.Errorf("archive %s: %w", a.Name, err)
		}

		p := normalizePath(ent.Path)
		if r.opts.Classifier.ShouldIgnore(p) || ent.IsDir {
			continue
		}
		if r.opts.Classifier.IsBinary(p) {
			*set = append(*set, NewBinaryRecord(p, archivePlaceholder(p), 0))
			continue
		}

		data, err := readAll(ent.Open)
		if err != nil {
			r.skip(&FileReadError{Path: p, Err: err})
			continue
		}
		if r.opts.MaxFileSize > 0 && int64(len(data)) > r.opts.MaxFileSize {
			r.logger.Debug("Skipping archive entry above size limit", zap.String("path", p), zap.Int("sizeBytes", len(data)))
			continue
		}
		content, err := r.opts.Decoder.Decode(data)
		if err != nil {
			r.skip(&FileReadError{Path: p, Err: fmt.Errorf("decode: %w", err)})
			continue
		}
		*set = append(*set, NewTextRecord(p, content, int64(len(content))))
	}
	return nil
}

func (r *Reader) skip(err *FileReadError) {
	r.logger.Warn("Failed to read file, skipping", zap.String("path", err.Path), zap.Error(err.Err))
	if r.opts.OnSkip != nil {
		r.opts.OnSkip(err)
	}
}

func readAll(open func() (io.ReadCloser, error)) ([]byte, error) {
	if open == nil {
		return nil, errNotAFile
	}
	rc, err := open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// normalizePath converts p to a relative posix path.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return strings.TrimLeft(p, "/")
}
