package pvr

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error unwraps to one of these.
var (
	ErrNotPVR           = errors.New("not a valid pvr")
	ErrUnsupported      = errors.New("unsupported texture")
	ErrMissingExtension = errors.New("missing gl extension")
	ErrTruncated        = errors.New("texture data truncated")
	ErrHostAPI          = errors.New("host graphics api failure")
	ErrResource         = errors.New("resource unavailable")
)

// Error is returned by Load, LoadFile and Tile. Err, when set, is the
// underlying cause (an uploader or file system error).
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}
