//go:build windows

package sys

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// AcquireOSFileLock takes an exclusive LockFileEx lock on the first byte of
// lockPath, creating it if needed, and polls until timeout elapses. The
// returned release function unlocks, closes and removes the lock file.
func AcquireOSFileLock(lockPath string, timeout time.Duration) (func() error, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	h := windows.Handle(f.Fd())
	var ov windows.Overlapped

	deadline := time.Now().Add(timeout)
	for {
		err = windows.LockFileEx(h, windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, &ov)
		if err == nil {
			rel := func() error {
				uerr := windows.UnlockFileEx(h, 0, 1, 0, &ov)
				cerr := f.Close()
				// Fails while a waiter still holds a handle; the file is then left for it.
				_ = os.Remove(lockPath)
				return errors.Join(uerr, cerr)
			}
			return rel, nil
		}
		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, err
		}
		time.Sleep(25 * time.Millisecond)
	}
}
