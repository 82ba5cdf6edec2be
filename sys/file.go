package sys

import (
	"io"
	"os"
	"sync/atomic"
	"time"
)

// fileWrapper is a stable concrete type used to store the File interface
// inside an atomic.Value. atomic.Value requires that all stored values
// have the same concrete type.
type fileWrapper struct {
	f File
}

// defaultFile stores the current `File` implementation wrapped in a
// concrete `fileWrapper`.
var defaultFile atomic.Value // stores fileWrapper
var debugMode atomic.Bool

// File opens the underlying OS files that back a data file sink.
type File interface {
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	SafeRemove(name string) error
	SafeRemoveWithOption(name string, opts SafeRemoveOptions) error
}

// FileHandle is the byte sink a data file is written through: append,
// length query, durability and close.
type FileHandle interface {
	io.WriteCloser
	io.StringWriter

	Stat() (os.FileInfo, error)
	Sync() error
	Name() string
}

type SafeRemoveOptions interface {
	GetRetry() int
	GetIntervalRetry() time.Duration
}

// CreateHandler opens name for exclusive binary writing, truncating any
// prior content.
type CreateHandler func(name string) (FileHandle, error)
type RemoveHandler func(name string) error

// CreateFlags are the open flags used for a data file sink.
const CreateFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC

func init() {
	debugMode.Store(false)
	defaultFile.Store(fileWrapper{f: NewFile()})
}

func SetDefaultFile(file File) {
	defaultFile.Store(fileWrapper{f: file})
}

func SetDebugMode(mode bool) {
	debugMode.Store(mode)
}

func loadDefault() (File, error) {
	p := defaultFile.Load()
	if p == nil {
		return nil, os.ErrInvalid
	}
	fw, ok := p.(fileWrapper)
	if !ok || fw.f == nil {
		return nil, os.ErrInvalid
	}
	return fw.f, nil
}

var Create CreateHandler = (func(name string) (FileHandle, error) {
	file, err := loadDefault()
	if err != nil {
		return nil, err
	}
	if debugMode.Load() {
		return DCreate(file, name)
	}
	return RCreate(file, name)
})

var Remove RemoveHandler = (func(name string) error {
	file, err := loadDefault()
	if err != nil {
		return err
	}
	return file.SafeRemove(name)
})
