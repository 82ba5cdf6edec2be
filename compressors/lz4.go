package compressors

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/INLOpen/datafile/core"
	lz4 "github.com/pierrec/lz4/v4"
)

// maxLZ4Section bounds the decoded size a section header may claim.
const maxLZ4Section = 1 << 30

// LZ4Compressor implements the Compressor interface using the LZ4 block
// format. The block format does not record the decoded size, so each
// section is prefixed with it as a uvarint.
type LZ4Compressor struct{}

var _ core.Compressor = (*LZ4Compressor)(nil)

func (c *LZ4Compressor) CompressTo(dst *bytes.Buffer, src []byte) error {
	dst.Reset()
	var prefix [binary.MaxVarintLen64]byte
	dst.Write(prefix[:binary.PutUvarint(prefix[:], uint64(len(src)))])
	if len(src) == 0 {
		return nil
	}

	block := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, block, nil)
	if err != nil {
		return fmt.Errorf("lz4 compress error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("lz4 compression resulted in zero bytes for non-empty input")
	}
	dst.Write(block[:n])
	return nil
}

func (c *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	size, k := binary.Uvarint(data)
	if k <= 0 {
		return nil, fmt.Errorf("lz4 section has a corrupt size prefix")
	}
	if size > maxLZ4Section {
		return nil, fmt.Errorf("lz4 section claims %d bytes, limit is %d", size, maxLZ4Section)
	}
	out := make([]byte, size)
	if size == 0 {
		return out, nil
	}
	n, err := lz4.UncompressBlock(data[k:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress error: %w", err)
	}
	if uint64(n) != size {
		return nil, fmt.Errorf("lz4 section decoded to %d bytes, want %d", n, size)
	}
	return out, nil
}

func (c *LZ4Compressor) Type() core.CompressionType {
	return core.CompressionLZ4
}
