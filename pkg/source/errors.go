package source

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResult means every candidate was filtered out or failed to read.
	ErrEmptyResult = errors.New("source: no files survived filtering")
	// ErrArchiveDecode is matched by every *ArchiveDecodeError.
	ErrArchiveDecode = errors.New("source: archive could not be decoded")
	// ErrUnsupportedInput is returned for an Input variant the Reader does not know.
	ErrUnsupportedInput = errors.New("source: unsupported input")
)

// ArchiveDecodeError reports archive bytes that could not be decompressed or parsed.
// It aborts the whole ingestion.
type ArchiveDecodeError struct {
	Name string
	Err  error
}

func (e *ArchiveDecodeError) Error() string {
	return fmt.Sprintf("failed to process archive (%s): %v", e.Name, e.Err)
}

func (e *ArchiveDecodeError) Unwrap() error { return e.Err }

func (e *ArchiveDecodeError) Is(target error) bool { return target == ErrArchiveDecode }

// FileReadError reports one item whose content could not be materialized.
// The Reader logs it and skips the item; it never ends an ingestion.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read file %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }
