//go:build unix

package sys

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// AcquireOSFileLock takes an exclusive advisory flock on lockPath, creating
// it if needed, and polls until timeout elapses. The returned release
// function removes the lock file while still holding the lock, then unlocks
// and closes it.
//
// A waiter may lock a file that its holder has just unlinked. After every
// successful flock the locked file is compared with the one currently at
// lockPath, and the attempt starts over on a fresh file when they differ, so
// at most one holder owns the file the path names.
func AcquireOSFileLock(lockPath string, timeout time.Duration) (func() error, error) {
	deadline := time.Now().Add(timeout)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return nil, err
		}
		fd := int(f.Fd())

		for {
			err = unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
			if err == nil || !errors.Is(err, unix.EWOULDBLOCK) || time.Now().After(deadline) {
				break
			}
			time.Sleep(25 * time.Millisecond)
		}
		if err != nil {
			_ = f.Close()
			return nil, err
		}

		if current, serr := os.Stat(lockPath); serr == nil {
			if locked, ferr := f.Stat(); ferr == nil && os.SameFile(current, locked) {
				return func() error {
					rerr := os.Remove(lockPath)
					if errors.Is(rerr, os.ErrNotExist) {
						rerr = nil
					}
					uerr := unix.Flock(fd, unix.LOCK_UN)
					cerr := f.Close()
					return errors.Join(rerr, uerr, cerr)
				}, nil
			}
		}

		// Stale: the holder unlinked this file after we opened it.
		_ = unix.Flock(fd, unix.LOCK_UN)
		_ = f.Close()
		if time.Now().After(deadline) {
			return nil, unix.EWOULDBLOCK
		}
	}
}
