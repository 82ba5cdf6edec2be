package sys

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_TruncatesAndWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.dat")
	require.NoError(t, os.WriteFile(path, []byte("previous content that must go"), 0644))

	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	_, err = f.WriteString(" world")
	require.NoError(t, err)

	fi, err := f.Stat()
	require.NoError(t, err)
	assert.EqualValues(t, 11, fi.Size())
	assert.Equal(t, path, f.Name())
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestCreate_MissingDirectory(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "names.dat"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCreate_DebugMode(t *testing.T) {
	SetDebugMode(true)
	t.Cleanup(func() { SetDebugMode(false) })

	path := filepath.Join(t.TempDir(), "debug.dat")
	f, err := Create(path)
	require.NoError(t, err)
	_, ok := f.(*DebugFile)
	require.True(t, ok, "debug mode should hand out DebugFile handles")
	assert.Contains(t, OpenHandles(), path)

	_, err = f.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.NotContains(t, OpenHandles(), path)
}

type refusingFile struct {
	File
}

func (refusingFile) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return nil, os.ErrPermission
}

func TestSetDefaultFile(t *testing.T) {
	SetDefaultFile(refusingFile{File: NewFile()})
	t.Cleanup(func() { SetDefaultFile(NewFile()) })

	_, err := Create(filepath.Join(t.TempDir(), "x.dat"))
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.dat")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	require.NoError(t, Remove(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing a file that no longer exists is not an error.
	require.NoError(t, Remove(path))
}

func TestPreallocate_KeepsVisibleSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prealloc.dat")
	f, err := Create(path)
	require.NoError(t, err)
	defer f.Close()

	err = Preallocate(f, 1<<20)
	if errors.Is(err, ErrPreallocNotSupported) {
		t.Skip("preallocation not supported here")
	}
	require.NoError(t, err)

	fi, err := f.Stat()
	require.NoError(t, err)
	assert.EqualValues(t, 0, fi.Size())
	assert.NoError(t, Preallocate(f, 0))
}
