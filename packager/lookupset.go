package packager

import (
	"fmt"
	"math"

	"github.com/INLOpen/datafile/core"
	"github.com/INLOpen/datafile/newdata"
	"github.com/RoaringBitmap/roaring/roaring64"
)

// LookupSetFormat is the data format signature for lookup set files.
const LookupSetFormat = "LkSt"

// LookupSet packages a membership set of 64-bit keys as a serialized
// roaring bitmap:
//
//	u32 cardinality
//	u32 serialized length
//	serialized roaring64 bitmap
//	0xAA padding to a 16-byte boundary
type LookupSet struct {
	bitmap *roaring64.Bitmap
}

func NewLookupSet() *LookupSet {
	return &LookupSet{bitmap: roaring64.New()}
}

func (s *LookupSet) Add(keys ...uint64) {
	s.bitmap.AddMany(keys)
}

func (s *LookupSet) Contains(key uint64) bool {
	return s.bitmap.Contains(key)
}

func (s *LookupSet) Cardinality() uint64 {
	return s.bitmap.GetCardinality()
}

func (s *LookupSet) WritePayload(w *newdata.Writer) error {
	card := s.bitmap.GetCardinality()
	if card > math.MaxUint32 {
		return fmt.Errorf("lookup set holds %d keys, limit is %d: %w", card, uint64(math.MaxUint32), core.ErrInvalidArgument)
	}
	s.bitmap.RunOptimize()

	buf := core.BufferPool.Get()
	defer core.BufferPool.Put(buf)
	if _, err := s.bitmap.WriteTo(buf); err != nil {
		return fmt.Errorf("failed to serialize lookup set: %w", err)
	}
	if uint64(buf.Len()) > math.MaxUint32 {
		return fmt.Errorf("serialized lookup set too large: %d bytes: %w", buf.Len(), core.ErrInvalidArgument)
	}

	w.Write32(uint32(card))
	w.Write32(uint32(buf.Len()))
	w.WriteBlock(buf.Bytes())
	w.AlignPayload(core.HeaderAlignment)
	return w.Err()
}
