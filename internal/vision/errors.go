package vision

import (
	"errors"
	"fmt"
)

// ErrorKind classifies extraction failures.
type ErrorKind int

const (
	// UnsupportedInput means the image was rejected before any
	// external call (too large or not an accepted raster format).
	UnsupportedInput ErrorKind = iota
	// ServiceUnavailable covers transport, timeout and auth failures.
	ServiceUnavailable
	// UnparseableResponse means the model reply could not be decoded
	// into the expected field set.
	UnparseableResponse
	// MissingRequiredField means neither a usable title nor author
	// could be determined from the cover.
	MissingRequiredField
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedInput:
		return "unsupported input"
	case ServiceUnavailable:
		return "service unavailable"
	case UnparseableResponse:
		return "unparseable response"
	case MissingRequiredField:
		return "missing required field"
	default:
		return "unknown"
	}
}

// Error is a typed extraction failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vision: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("vision: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a vision Error of the given kind,
// even when wrapped.
func IsKind(err error, kind ErrorKind) bool {
	var visionErr *Error
	if errors.As(err, &visionErr) {
		return visionErr.Kind == kind
	}
	return false
}
