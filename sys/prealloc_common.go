package sys

import "errors"

// ErrPreallocNotSupported is returned when the underlying file or filesystem
// does not support preallocation. Callers treat it as informational.
var ErrPreallocNotSupported = errors.New("preallocation not supported")

type fdHandle interface {
	Fd() uintptr
}
