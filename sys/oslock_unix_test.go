//go:build unix

package sys

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireOSFileLock_WaiterLocksLiveFile(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "names.dat.lock")

	release, err := AcquireOSFileLock(lockPath, time.Second)
	require.NoError(t, err)

	type acquired struct {
		release func() error
		err     error
	}
	done := make(chan acquired, 1)
	go func() {
		rel, err := AcquireOSFileLock(lockPath, 5*time.Second)
		done <- acquired{rel, err}
	}()

	// Let the waiter open the current lock file before it is unlinked.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, release())

	var waiter acquired
	select {
	case waiter = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
	require.NoError(t, waiter.err)

	// The waiter must hold the file the path names, not the unlinked one, or
	// a third writer could create and lock a new file alongside it.
	_, err = os.Stat(lockPath)
	require.NoError(t, err, "the waiter's lock file is reachable through the path")

	_, err = AcquireOSFileLock(lockPath, 50*time.Millisecond)
	assert.Error(t, err, "a third writer must not get the lock")

	require.NoError(t, waiter.release())
	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err))
}
