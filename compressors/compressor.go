// Package compressors implements core.Compressor for the section
// compression a packager may apply to payload blocks.
package compressors

import (
	"fmt"

	"github.com/INLOpen/datafile/core"
)

// ForType returns the Compressor for ct.
func ForType(ct core.CompressionType) (core.Compressor, error) {
	switch ct {
	case core.CompressionNone:
		return &NoCompressionCompressor{}, nil
	case core.CompressionSnappy:
		return &SnappyCompressor{}, nil
	case core.CompressionLZ4:
		return &LZ4Compressor{}, nil
	case core.CompressionZSTD:
		return NewZstdCompressor()
	default:
		return nil, fmt.Errorf("unknown compression type: %d: %w", ct, core.ErrInvalidArgument)
	}
}

// ForName parses a config name and returns its Compressor.
func ForName(name string) (core.Compressor, error) {
	ct, err := core.ParseCompressionType(name)
	if err != nil {
		return nil, err
	}
	return ForType(ct)
}
