package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies ingestion failures at the orchestration level.
type ErrorKind int

const (
	// FileNotFound means the image path does not exist.
	FileNotFound ErrorKind = iota
	// ReadFailure means the image exists but could not be read.
	ReadFailure
	// InsufficientData means the extractor could not determine a
	// title and author, so there is nothing to enrich or store.
	InsufficientData
	// ExtractionFailed covers every other extractor failure.
	ExtractionFailed
	// PersistenceFailed means the store rejected the validated record.
	PersistenceFailed
)

func (k ErrorKind) String() string {
	switch k {
	case FileNotFound:
		return "file not found"
	case ReadFailure:
		return "read failure"
	case InsufficientData:
		return "insufficient data"
	case ExtractionFailed:
		return "extraction failed"
	case PersistenceFailed:
		return "persistence failed"
	default:
		return "unknown"
	}
}

// Error is a typed ingestion failure with the originating cause attached.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ingest: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("ingest: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a pipeline Error of the given kind,
// even when wrapped.
func IsKind(err error, kind ErrorKind) bool {
	var pipeErr *Error
	if errors.As(err, &pipeErr) {
		return pipeErr.Kind == kind
	}
	return false
}
