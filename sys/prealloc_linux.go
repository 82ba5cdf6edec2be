//go:build linux

package sys

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Preallocate reserves size bytes for f without changing its visible
// length, so the data file's measured size still reflects only what was
// written.
func Preallocate(f FileHandle, size int64) error {
	if size <= 0 {
		return nil
	}
	fh, ok := f.(fdHandle)
	if !ok {
		return ErrPreallocNotSupported
	}
	err := unix.Fallocate(int(fh.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EINVAL) || errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.ENOTTY) {
		return ErrPreallocNotSupported
	}
	return fmt.Errorf("preallocation of %d bytes failed for %s: %w", size, f.Name(), err)
}
