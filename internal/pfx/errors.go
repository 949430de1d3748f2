package pfx

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	ErrMalformed = errors.New("malformed script")
	ErrResource  = errors.New("resource unavailable")
	ErrCapacity  = errors.New("capacity exceeded")
)

// Error is returned by every parse operation. Msg carries the 1-based source
// line wherever one applies.
type Error struct {
	Kind error
	Line int
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func malformed(line int, format string, args ...any) *Error {
	return &Error{Kind: ErrMalformed, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func resource(line int, format string, args ...any) *Error {
	return &Error{Kind: ErrResource, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func capacity(line int, format string, args ...any) *Error {
	return &Error{Kind: ErrCapacity, Line: line, Msg: fmt.Sprintf(format, args...)}
}
