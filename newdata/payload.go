package newdata

import (
	"fmt"
	"strings"

	"github.com/INLOpen/datafile/core"

	"golang.org/x/text/encoding/unicode"
)

var paddingChunk = [core.PaddingChunkSize]byte{
	0xaa, 0xaa, 0xaa, 0xaa,
	0xaa, 0xaa, 0xaa, 0xaa,
	0xaa, 0xaa, 0xaa, 0xaa,
	0xaa, 0xaa, 0xaa, 0xaa,
}

// write appends p to the sink unbuffered. The first failure sticks.
func (w *Writer) write(p []byte) {
	if w.err != nil || len(p) == 0 {
		return
	}
	n, err := w.file.Write(p)
	w.written += int64(n)
	if err == nil && n < len(p) {
		err = fmt.Errorf("short write: %d of %d bytes", n, len(p))
	}
	if err != nil {
		w.err = core.FileAccess("write", w.path, err)
		w.logger.Error("Payload write failed", "offset", w.written, "len", len(p), "error", err)
	}
}

// Write8 appends one byte.
func (w *Writer) Write8(v uint8) {
	w.mustBeOpen()
	w.write([]byte{v})
}

// Write16 appends v in the writer's byte order.
func (w *Writer) Write16(v uint16) {
	w.mustBeOpen()
	var buf [2]byte
	w.order.PutUint16(buf[:], v)
	w.write(buf[:])
}

// Write32 appends v in the writer's byte order.
func (w *Writer) Write32(v uint32) {
	w.mustBeOpen()
	var buf [4]byte
	w.order.PutUint32(buf[:], v)
	w.write(buf[:])
}

// WriteBlock appends p verbatim. An empty block writes nothing.
func (w *Writer) WriteBlock(p []byte) {
	w.mustBeOpen()
	w.write(p)
}

// WritePadding appends n filler bytes (core.PaddingFiller) in 16-byte
// chunks plus a final partial chunk. n <= 0 writes nothing.
func (w *Writer) WritePadding(n int) {
	w.mustBeOpen()
	for n >= len(paddingChunk) {
		w.write(paddingChunk[:])
		n -= len(paddingChunk)
	}
	if n > 0 {
		w.write(paddingChunk[:n])
	}
}

// AlignPayload pads the payload with filler bytes up to the next multiple
// of boundary.
func (w *Writer) AlignPayload(boundary int) {
	w.mustBeOpen()
	if boundary <= 1 {
		return
	}
	if rem := int(w.PayloadLen() % int64(boundary)); rem != 0 {
		w.WritePadding(boundary - rem)
	}
}

// WriteNarrowString appends the first length bytes of s. With
// core.NulTerminated the length runs to the first NUL or the end of s; the
// terminator itself is only written when it lies within length.
func (w *Writer) WriteNarrowString(s string, length int) {
	w.mustBeOpen()
	if length == core.NulTerminated {
		if i := strings.IndexByte(s, 0); i >= 0 {
			length = i
		} else {
			length = len(s)
		}
	}
	if length <= 0 {
		return
	}
	if length > len(s) {
		panic(fmt.Sprintf("newdata: narrow string length %d exceeds %d bytes", length, len(s)))
	}
	w.write([]byte(s[:length]))
}

// WriteWideString appends the first length UTF-16 code units of s in the
// writer's byte order. With core.NulTerminated the length runs to the first
// zero unit or the end of s.
func (w *Writer) WriteWideString(s []uint16, length int) {
	w.mustBeOpen()
	if length == core.NulTerminated {
		length = len(s)
		for i, u := range s {
			if u == 0 {
				length = i
				break
			}
		}
	}
	if length <= 0 {
		return
	}
	if length > len(s) {
		panic(fmt.Sprintf("newdata: wide string length %d exceeds %d units", length, len(s)))
	}
	buf := make([]byte, length*core.SizeOfUChar)
	for i, u := range s[:length] {
		w.order.PutUint16(buf[i*core.SizeOfUChar:], u)
	}
	w.write(buf)
}

// WriteUTF16 appends s encoded as UTF-16 in the writer's byte order,
// without a BOM or terminator. Invalid UTF-8 is replaced with U+FFFD.
func (w *Writer) WriteUTF16(s string) {
	w.mustBeOpen()
	if s == "" || w.err != nil {
		return
	}
	endianness := unicode.LittleEndian
	if core.IsBigEndian(w.order) {
		endianness = unicode.BigEndian
	}
	encoded, err := unicode.UTF16(endianness, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		w.err = core.FileAccess("write", w.path, err)
		w.logger.Error("UTF-16 encoding failed", "offset", w.written, "error", err)
		return
	}
	w.write(encoded)
}
