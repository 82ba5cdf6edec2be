package core

// This file centralizes constants related to the data file format: magic
// bytes, alignment and the filler used for payload padding.

// --- Magic Numbers ---
const (
	// Magic1 is the first identification byte of the data file family.
	Magic1 byte = 0xDA
	// Magic2 is the second identification byte of the data file family.
	Magic2 byte = 0x27
)

// --- Header Layout ---
const (
	// SizeFieldLen is the length of the leading header field: the u16 header
	// size followed by Magic1 and Magic2.
	SizeFieldLen = 4
	// HeaderAlignment is the boundary the payload starts on.
	HeaderAlignment = 16
	// MaxHeaderSize is the largest header the u16 size field can describe.
	MaxHeaderSize = 0xFFF0
)

// --- Payload ---
const (
	// PaddingFiller is the byte used by payload padding.
	PaddingFiller byte = 0xAA
	// PaddingChunkSize is the size of the filler chunk emitted per write.
	PaddingChunkSize = 16

	// NulTerminated tells the string writers to measure the string up to its
	// first NUL (or its end).
	NulTerminated = -1

	// SizeOfUChar is the width in bytes of one wide (UTF-16) code unit.
	SizeOfUChar = 2
)

// --- File Names ---
const (
	// TypeSeparator joins a data file's base name and its type suffix.
	TypeSeparator = "."
)

// FormatFileName builds "<name>.<type>", or just name when typ is empty.
func FormatFileName(name, typ string) string {
	if typ == "" {
		return name
	}
	return name + TypeSeparator + typ
}
