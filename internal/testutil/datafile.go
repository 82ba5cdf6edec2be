package testutil

import (
	"encoding/binary"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/INLOpen/datafile/core"
	"github.com/INLOpen/datafile/sys"
)

// DataFile is a data file split into its header fields and payload.
type DataFile struct {
	HeaderSize int
	Magic1     byte
	Magic2     byte
	Descriptor []byte
	Comment    string
	Padding    []byte
	Payload    []byte
}

// ReadDataFile loads path and splits it using the descriptor size the test
// knows it wrote. The comment, if any, runs to the first NUL after the
// descriptor.
func ReadDataFile(t *testing.T, path string, order binary.ByteOrder, descriptorSize int) DataFile {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read data file %s: %v", path, err)
	}
	if len(raw) < core.SizeFieldLen+descriptorSize {
		t.Fatalf("data file %s too short: %d bytes", path, len(raw))
	}

	df := DataFile{
		HeaderSize: int(order.Uint16(raw[0:2])),
		Magic1:     raw[2],
		Magic2:     raw[3],
	}
	if df.HeaderSize > len(raw) {
		t.Fatalf("header size %d exceeds file length %d", df.HeaderSize, len(raw))
	}
	rest := raw[core.SizeFieldLen:df.HeaderSize]
	df.Descriptor = rest[:descriptorSize]
	rest = rest[descriptorSize:]

	// A comment is present when the byte after the descriptor is non-zero.
	if len(rest) > 0 && rest[0] != 0 {
		end := strings.IndexByte(string(rest), 0)
		if end < 0 {
			t.Fatalf("comment in %s is not NUL-terminated", path)
		}
		df.Comment = string(rest[:end])
		rest = rest[end+1:]
	}
	df.Padding = rest
	df.Payload = raw[df.HeaderSize:]
	return df
}

// ErrInjected is the failure produced by FailingFile.
var ErrInjected = errors.New("injected write failure")

// FailingFile is a sys.FileHandle that accepts FailAfter bytes and then
// fails every write. A negative FailAfter never fails.
type FailingFile struct {
	sys.FileHandle
	FailAfter int

	mu      sync.Mutex
	written int
	Closed  bool
}

// FailingCreate returns a sys.CreateHandler that wraps real files in a
// FailingFile.
func FailingCreate(failAfter int, opened *[]*FailingFile) sys.CreateHandler {
	return func(name string) (sys.FileHandle, error) {
		f, err := sys.Create(name)
		if err != nil {
			return nil, err
		}
		ff := &FailingFile{FileHandle: f, FailAfter: failAfter}
		if opened != nil {
			*opened = append(*opened, ff)
		}
		return ff, nil
	}
}

func (f *FailingFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailAfter >= 0 && f.written+len(p) > f.FailAfter {
		allowed := f.FailAfter - f.written
		if allowed < 0 {
			allowed = 0
		}
		n, _ := f.FileHandle.Write(p[:allowed])
		f.written += n
		return n, ErrInjected
	}
	n, err := f.FileHandle.Write(p)
	f.written += n
	return n, err
}

func (f *FailingFile) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return f.FileHandle.Close()
}
