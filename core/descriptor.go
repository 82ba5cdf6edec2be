package core

import (
	"encoding/binary"
	"fmt"
)

// Descriptor is the caller-owned record identifying a payload's format. It
// is copied verbatim into the header right after the size field.
type Descriptor interface {
	// Size reports how many bytes MarshalBinary produces.
	Size() int
	MarshalBinary() ([]byte, error)
}

// DataInfoSize is the length of a marshalled DataInfo.
const DataInfoSize = 20

// Charset families recorded in DataInfo.CharsetFamily.
const (
	CharsetASCII  uint8 = 0
	CharsetEBCDIC uint8 = 1
)

// DataInfo is the standard descriptor record: platform markers followed by
// the format signature and versions.
//
//	offset 0  u16 record size (always DataInfoSize)
//	offset 2  u16 reserved
//	offset 4  u8  isBigEndian
//	offset 5  u8  charsetFamily
//	offset 6  u8  sizeofUChar
//	offset 7  u8  reserved
//	offset 8  [4] dataFormat
//	offset 12 [4] formatVersion
//	offset 16 [4] dataVersion
type DataInfo struct {
	IsBigEndian   uint8
	CharsetFamily uint8
	SizeofUChar   uint8
	DataFormat    [4]byte // format signature, e.g. "StrP"
	FormatVersion [4]byte
	DataVersion   [4]byte

	// Order is the byte order of the record size field. Nil means native.
	Order binary.ByteOrder
}

var _ Descriptor = (*DataInfo)(nil)

// NewDataInfo fills in the platform markers for order and the given
// signature and versions.
func NewDataInfo(order binary.ByteOrder, format string, formatVersion, dataVersion [4]byte) (*DataInfo, error) {
	if len(format) != 4 {
		return nil, fmt.Errorf("data format %q must be exactly 4 bytes: %w", format, ErrInvalidArgument)
	}
	if order == nil {
		order = binary.NativeEndian
	}
	info := &DataInfo{
		CharsetFamily: CharsetASCII,
		SizeofUChar:   SizeOfUChar,
		FormatVersion: formatVersion,
		DataVersion:   dataVersion,
		Order:         order,
	}
	if IsBigEndian(order) {
		info.IsBigEndian = 1
	}
	copy(info.DataFormat[:], format)
	return info, nil
}

func (d *DataInfo) Size() int {
	return DataInfoSize
}

func (d *DataInfo) MarshalBinary() ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("descriptor is nil: %w", ErrInvalidArgument)
	}
	order := d.Order
	if order == nil {
		order = binary.NativeEndian
	}
	buf := make([]byte, DataInfoSize)
	order.PutUint16(buf[0:2], DataInfoSize)
	buf[4] = d.IsBigEndian
	buf[5] = d.CharsetFamily
	buf[6] = d.SizeofUChar
	copy(buf[8:12], d.DataFormat[:])
	copy(buf[12:16], d.FormatVersion[:])
	copy(buf[16:20], d.DataVersion[:])
	return buf, nil
}

// Format returns the 4-byte signature as a string.
func (d *DataInfo) Format() string {
	if d == nil {
		return ""
	}
	return string(d.DataFormat[:])
}

// CheckByteOrder reports an InvalidArgument error when the record's
// endianness marker or size field order disagrees with order, the order the
// file's size field and payload are written in.
func (d *DataInfo) CheckByteOrder(order binary.ByteOrder) error {
	if d == nil {
		return fmt.Errorf("descriptor is nil: %w", ErrInvalidArgument)
	}
	want := IsBigEndian(order)
	if (d.IsBigEndian != 0) != want {
		return fmt.Errorf("descriptor isBigEndian=%d does not match writer byte order %v: %w", d.IsBigEndian, order, ErrInvalidArgument)
	}
	recordOrder := d.Order
	if recordOrder == nil {
		recordOrder = binary.NativeEndian
	}
	if IsBigEndian(recordOrder) != want {
		return fmt.Errorf("descriptor byte order %v does not match writer byte order %v: %w", recordOrder, order, ErrInvalidArgument)
	}
	return nil
}

// RawDescriptor is a descriptor whose framing is owned entirely by the
// caller.
type RawDescriptor []byte

var _ Descriptor = RawDescriptor(nil)

func (r RawDescriptor) Size() int { return len(r) }

func (r RawDescriptor) MarshalBinary() ([]byte, error) {
	return []byte(r), nil
}

// IsBigEndian reports whether order writes the most significant byte first.
func IsBigEndian(order binary.ByteOrder) bool {
	var probe [2]byte
	order.PutUint16(probe[:], 0x0102)
	return probe[0] == 0x01
}
