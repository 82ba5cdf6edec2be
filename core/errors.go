package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is reported for an empty name, a missing descriptor
	// or a header that does not fit the size field.
	ErrInvalidArgument = errors.New("illegal argument")
	// ErrFileAccess is reported when the sink cannot be opened or has
	// accumulated a write error.
	ErrFileAccess = errors.New("file access error")
	// ErrWriterFinished is the panic value for any use of a finished writer.
	ErrWriterFinished = errors.New("data file writer already finished")
)

// Error describes a failed data file operation.
type Error struct {
	Op   string // e.g. "create", "write", "finish"
	Path string // output path, empty when not yet resolved
	Kind error  // ErrInvalidArgument or ErrFileAccess
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// InvalidArgument builds an *Error of kind ErrInvalidArgument.
func InvalidArgument(op, path, format string, args ...any) *Error {
	return &Error{Op: op, Path: path, Kind: ErrInvalidArgument, Err: fmt.Errorf(format, args...)}
}

// FileAccess builds an *Error of kind ErrFileAccess wrapping cause.
func FileAccess(op, path string, cause error) *Error {
	return &Error{Op: op, Path: path, Kind: ErrFileAccess, Err: cause}
}

// IsInvalidArgument checks if an error (or any error in its chain) is an
// invalid argument failure.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsFileAccessError checks if an error (or any error in its chain) is a
// file access failure.
func IsFileAccessError(err error) bool {
	return errors.Is(err, ErrFileAccess)
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var dfErr *Error
	ok := errors.As(err, &dfErr)
	return dfErr, ok
}
