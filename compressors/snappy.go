package compressors

import (
	"bytes"
	"fmt"

	"github.com/INLOpen/datafile/core"
	"github.com/golang/snappy"
)

// SnappyCompressor implements the Compressor interface using the Snappy
// block format.
type SnappyCompressor struct{}

var _ core.Compressor = (*SnappyCompressor)(nil)

// CompressTo writes a Snappy block; the block carries its own decoded
// length.
func (c *SnappyCompressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	dst.Reset()
	dst.Write(snappy.Encode(nil, src))
	return nil
}

func (c *SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	decoded, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress error: %w", err)
	}
	return decoded, nil
}

func (c *SnappyCompressor) Type() core.CompressionType {
	return core.CompressionSnappy
}
