package core

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// FileHeader is the prefix of every data file: the size field, the
// descriptor record, an optional NUL-terminated comment and zero padding up
// to the next HeaderAlignment boundary.
type FileHeader struct {
	HeaderSize uint16
	Magic1     byte
	Magic2     byte
	Descriptor []byte
	Comment    string // without terminator, empty when absent
}

// CommentLength returns the bytes a comment occupies in the header: its
// length up to the first NUL plus the terminator, or 0 when empty.
func CommentLength(comment string) int {
	comment = trimAtNul(comment)
	if comment == "" {
		return 0
	}
	return len(comment) + 1
}

// UnpaddedHeaderSize is the size field plus descriptor plus comment.
func UnpaddedHeaderSize(descriptorSize, commentLength int) int {
	return SizeFieldLen + descriptorSize + commentLength
}

// AlignHeader rounds n up to the next multiple of HeaderAlignment.
func AlignHeader(n int) int {
	return (n + HeaderAlignment - 1) &^ (HeaderAlignment - 1)
}

// HeaderPadding returns how many zero bytes bring n to the alignment.
func HeaderPadding(n int) int {
	rem := n % HeaderAlignment
	if rem == 0 {
		return 0
	}
	return HeaderAlignment - rem
}

// NewFileHeader marshals desc and computes the aligned header size.
func NewFileHeader(desc Descriptor, comment string) (FileHeader, error) {
	if desc == nil {
		return FileHeader{}, fmt.Errorf("descriptor is nil: %w", ErrInvalidArgument)
	}
	if d, ok := desc.(*DataInfo); ok && d == nil {
		return FileHeader{}, fmt.Errorf("descriptor is a nil *DataInfo: %w", ErrInvalidArgument)
	}
	if desc.Size() < 0 {
		return FileHeader{}, fmt.Errorf("descriptor reports negative size %d: %w", desc.Size(), ErrInvalidArgument)
	}
	raw, err := desc.MarshalBinary()
	if err != nil {
		return FileHeader{}, fmt.Errorf("failed to marshal descriptor: %w", err)
	}
	if len(raw) != desc.Size() {
		return FileHeader{}, fmt.Errorf("descriptor marshalled %d bytes but reports %d: %w", len(raw), desc.Size(), ErrInvalidArgument)
	}

	comment = trimAtNul(comment)
	unpadded := UnpaddedHeaderSize(len(raw), CommentLength(comment))
	if unpadded > MaxHeaderSize {
		return FileHeader{}, fmt.Errorf("header of %d bytes exceeds maximum %d: %w", unpadded, MaxHeaderSize, ErrInvalidArgument)
	}

	return FileHeader{
		HeaderSize: uint16(AlignHeader(unpadded)),
		Magic1:     Magic1,
		Magic2:     Magic2,
		Descriptor: raw,
		Comment:    comment,
	}, nil
}

// Size returns the aligned header length.
func (h *FileHeader) Size() int {
	return int(h.HeaderSize)
}

// UnpaddedSize returns the header length before alignment padding.
func (h *FileHeader) UnpaddedSize() int {
	return UnpaddedHeaderSize(len(h.Descriptor), CommentLength(h.Comment))
}

// PaddingLen returns the number of zero bytes closing the header.
func (h *FileHeader) PaddingLen() int {
	return HeaderPadding(h.UnpaddedSize())
}

// Bytes lays the header out with the size field in order.
func (h *FileHeader) Bytes(order binary.ByteOrder) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, h.Size()))
	var field [SizeFieldLen]byte
	order.PutUint16(field[:2], h.HeaderSize)
	field[2] = h.Magic1
	field[3] = h.Magic2
	buf.Write(field[:])
	buf.Write(h.Descriptor)
	if h.Comment != "" {
		buf.WriteString(h.Comment)
		buf.WriteByte(0)
	}
	buf.Write(make([]byte, h.PaddingLen()))
	return buf.Bytes()
}

// Encode writes the whole header to w with a single Write call.
func (h *FileHeader) Encode(w io.Writer, order binary.ByteOrder) (int64, error) {
	n, err := w.Write(h.Bytes(order))
	return int64(n), err
}

func trimAtNul(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}
