package sys

import (
	"os"
)

var _ FileHandle = (*RealFile)(nil)

type RealFile struct {
	f *os.File
}

func RCreate(sysFile File, name string) (FileHandle, error) {
	f, err := sysFile.OpenFile(name, CreateFlags, 0666)
	if err != nil {
		return nil, err
	}
	return &RealFile{f: f}, nil
}

func (rf *RealFile) Write(p []byte) (n int, err error) {
	return rf.f.Write(p)
}

func (rf *RealFile) WriteString(s string) (n int, err error) {
	return rf.f.WriteString(s)
}

func (rf *RealFile) Stat() (os.FileInfo, error) {
	return rf.f.Stat()
}

func (rf *RealFile) Sync() error {
	return rf.f.Sync()
}

func (rf *RealFile) Name() string {
	return rf.f.Name()
}

// Fd exposes the descriptor for Preallocate.
func (rf *RealFile) Fd() uintptr {
	return rf.f.Fd()
}

func (rf *RealFile) Close() error {
	return rf.f.Close()
}
