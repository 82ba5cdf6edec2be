//go:build !linux

package sys

// Preallocate is a no-op outside linux.
func Preallocate(f FileHandle, size int64) error {
	if size <= 0 {
		return nil
	}
	return ErrPreallocNotSupported
}
