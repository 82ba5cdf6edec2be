//go:build !unix && !windows

package sys

import (
	"errors"
	"fmt"
	"time"
)

var ErrOSFileLockNotSupported = fmt.Errorf("OS file locking not supported on this platform: %w", errors.ErrUnsupported)

func AcquireOSFileLock(lockPath string, timeout time.Duration) (func() error, error) {
	return nil, ErrOSFileLockNotSupported
}
