package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/jadenpxrk/monofile/pkg/source"
)

// ErrBusy is returned by Run while another run is in flight on the same Orchestrator.
var ErrBusy = errors.New("pipeline: an ingestion is already running")

// ErrorKind classifies why a run ended in StateError.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindArchive
	KindEmpty
	KindRead
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindArchive:
		return "archive"
	case KindEmpty:
		return "empty"
	case KindRead:
		return "read"
	case KindCanceled:
		return "canceled"
	default:
		return "unexpected"
	}
}

// Error is the terminal error of a run. Message is meant to be shown to the user as is.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// newError maps an ingestion failure to its kind. skipped is the number of files that
// failed to read during the run.
func newError(err error, skipped int) *Error {
	var ade *source.ArchiveDecodeError
	switch {
	case errors.As(err, &ade):
		return &Error{Kind: KindArchive, Message: fmt.Sprintf("The archive %q could not be opened: %v", ade.Name, ade.Err), Err: err}
	case errors.Is(err, source.ErrEmptyResult) && skipped > 0:
		return &Error{Kind: KindRead, Message: fmt.Sprintf("No valid files found. %d file(s) could not be read.", skipped), Err: err}
	case errors.Is(err, source.ErrEmptyResult):
		return &Error{Kind: KindEmpty, Message: "No valid files found.", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindCanceled, Message: "Ingestion was canceled.", Err: err}
	default:
		return &Error{Kind: KindUnexpected, Message: fmt.Sprintf("Unexpected ingestion failure: %v", err), Err: err}
	}
}
