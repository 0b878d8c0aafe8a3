package bookstore

import (
	"errors"
	"fmt"
)

// ErrorKind classifies store failures.
type ErrorKind int

const (
	// NotFound means the operation targeted a non-existent id.
	NotFound ErrorKind = iota
	// ConstraintViolation means a required field was empty.
	ConstraintViolation
	// IOFailure covers problems in the underlying storage engine.
	IOFailure
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case ConstraintViolation:
		return "constraint violation"
	case IOFailure:
		return "io failure"
	default:
		return "unknown"
	}
}

// Error is a typed store failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("store: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a store Error of the given kind,
// even when wrapped.
func IsKind(err error, kind ErrorKind) bool {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind == kind
	}
	return false
}

func notFound(id int64) *Error {
	return &Error{Kind: NotFound, Err: fmt.Errorf("no book with id %d", id)}
}

func constraint(field string) *Error {
	return &Error{Kind: ConstraintViolation, Err: fmt.Errorf("%s must not be empty", field)}
}

func ioFailure(err error) *Error {
	return &Error{Kind: IOFailure, Err: err}
}
