package sys

import (
	"os"
	"time"
)

// osFile implements File directly on top of the os package.
type osFile struct{}

type retryRemoveOptions struct {
	Retry         int
	IntervalRetry time.Duration
}

func (o *retryRemoveOptions) GetRetry() int {
	return o.Retry
}

func (o *retryRemoveOptions) GetIntervalRetry() time.Duration {
	return o.IntervalRetry
}

// NewFile returns the os-backed File.
func NewFile() File {
	return &osFile{}
}

func (of *osFile) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}

// SafeRemove, retries remove
func (of *osFile) SafeRemove(name string) error {
	return of.SafeRemoveWithOption(name, &retryRemoveOptions{
		Retry:         5,
		IntervalRetry: 100 * time.Millisecond,
	})
}

func (of *osFile) SafeRemoveWithOption(name string, opts SafeRemoveOptions) error {
	var err error
	retry := opts.GetRetry()
	if retry < 1 || retry > 5 {
		retry = 5
	}

	for i := 0; i < retry; i++ {
		err = os.Remove(name)
		if err == nil || os.IsNotExist(err) {
			return nil // Success if file is removed or already doesn't exist
		}
		time.Sleep(opts.GetIntervalRetry() * time.Duration(1<<i))
	}
	return err
}
