package compressors

import (
	"bytes"

	"github.com/INLOpen/datafile/core"
)

// NoCompressionCompressor stores sections as they are.
type NoCompressionCompressor struct{}

var _ core.Compressor = (*NoCompressionCompressor)(nil)

func (c *NoCompressionCompressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	dst.Reset()
	_, err := dst.Write(src)
	return err
}

func (c *NoCompressionCompressor) Decompress(data []byte) ([]byte, error) {
	return bytes.Clone(data), nil
}

func (c *NoCompressionCompressor) Type() core.CompressionType {
	return core.CompressionNone
}
