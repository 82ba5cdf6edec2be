package sys

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

var _ FileHandle = (*DebugFile)(nil)
var nextID atomic.Uint64

var listFD *sync.Map = new(sync.Map)

// DebugFile is a FileHandle that logs its lifecycle and byte count and
// tracks itself in the open-handle table until closed.
type DebugFile struct {
	id      uint64
	f       *os.File
	written atomic.Int64
	logger  *slog.Logger
}

func DCreate(sysFile File, name string) (FileHandle, error) {
	logger := slog.Default().With("component", "DebugFile")

	f, err := sysFile.OpenFile(name, CreateFlags, 0666)
	if err != nil {
		logger.Debug("Open failed", "file_name", name, "error", err)
		return nil, err
	}

	id := nextID.Add(1)
	logger = logger.With("id", id, "file_name", name)
	logger.Debug("Opening file")
	listFD.Store(id, f.Name())

	return &DebugFile{
		id:     id,
		f:      f,
		logger: logger,
	}, nil
}

func (df *DebugFile) Write(p []byte) (n int, err error) {
	n, err = df.f.Write(p)
	df.written.Add(int64(n))
	if err != nil {
		df.logger.Debug("Write failed", "len", len(p), "written", n, "error", err)
	}
	return n, err
}

func (df *DebugFile) WriteString(s string) (n int, err error) {
	return df.Write([]byte(s))
}

func (df *DebugFile) Stat() (os.FileInfo, error) {
	return df.f.Stat()
}

func (df *DebugFile) Sync() error {
	return df.f.Sync()
}

func (df *DebugFile) Name() string {
	return df.f.Name()
}

func (df *DebugFile) Fd() uintptr {
	return df.f.Fd()
}

func (df *DebugFile) Close() error {
	df.logger.Debug("Closing file", "bytes_written", df.written.Load())
	listFD.Delete(df.id)
	return df.f.Close()
}

// OpenHandles returns the names of debug handles that are still open.
func OpenHandles() []string {
	var names []string
	listFD.Range(func(_, value any) bool {
		names = append(names, value.(string))
		return true
	})
	return names
}
