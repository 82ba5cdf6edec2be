package packager

import (
	"fmt"
	"math"
	"strings"

	"github.com/INLOpen/datafile/core"
	"github.com/INLOpen/datafile/newdata"
	"github.com/INLOpen/skiplist"
)

// StringPoolFormat is the data format signature for string pool files.
const StringPoolFormat = "SPol"

// StringPool collects distinct strings and packages them sorted, as a table
// of offsets into a NUL-separated pool:
//
//	u32 count
//	u32 compression type
//	u32 pool length (compressed length when compressed)
//	u32 offsets[count], into the uncompressed pool
//	pool bytes
//	0xAA padding to a 4-byte boundary
type StringPool struct {
	set        *skiplist.SkipList[string, struct{}]
	compressor core.Compressor

	sealed  bool
	pool    []byte
	offsets map[string]uint32
	order   []string
}

// NewStringPool returns an empty pool. A nil compressor stores the pool
// uncompressed.
func NewStringPool(compressor core.Compressor) *StringPool {
	return &StringPool{
		set:        skiplist.NewWithComparator[string, struct{}](strings.Compare),
		compressor: compressor,
	}
}

// Add inserts s. Duplicates are ignored. Strings may not contain NUL and
// the pool cannot change once sealed.
func (p *StringPool) Add(s string) error {
	if p.sealed {
		return fmt.Errorf("string pool is sealed: %w", core.ErrInvalidArgument)
	}
	if strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("string %q contains NUL: %w", s, core.ErrInvalidArgument)
	}
	p.set.Insert(s, struct{}{})
	return nil
}

// Len returns the number of distinct strings.
func (p *StringPool) Len() int {
	return p.set.Len()
}

// Seal freezes the pool and lays out the strings. It is called implicitly
// by WritePayload.
func (p *StringPool) Seal() error {
	if p.sealed {
		return nil
	}
	p.offsets = make(map[string]uint32, p.set.Len())
	p.order = make([]string, 0, p.set.Len())
	var pool []byte
	iter := p.set.NewIterator()
	for iter.Next() {
		s := iter.Key()
		if uint64(len(pool)+len(s)+1) > math.MaxUint32 {
			return fmt.Errorf("string pool exceeds 4GiB: %w", core.ErrInvalidArgument)
		}
		p.offsets[s] = uint32(len(pool))
		p.order = append(p.order, s)
		pool = append(pool, s...)
		pool = append(pool, 0)
	}
	p.pool = pool
	p.sealed = true
	return nil
}

// Offset returns the pool offset of s. It reports false before Seal or when
// s was never added.
func (p *StringPool) Offset(s string) (uint32, bool) {
	off, ok := p.offsets[s]
	return off, ok
}

// Strings returns the pool contents in payload order.
func (p *StringPool) Strings() []string {
	return p.order
}

func (p *StringPool) WritePayload(w *newdata.Writer) error {
	if err := p.Seal(); err != nil {
		return err
	}

	ct := core.CompressionNone
	block := p.pool
	if p.compressor != nil && p.compressor.Type() != core.CompressionNone {
		buf := core.BufferPool.Get()
		defer core.BufferPool.Put(buf)
		if err := p.compressor.CompressTo(buf, p.pool); err != nil {
			return fmt.Errorf("failed to compress string pool: %w", err)
		}
		ct = p.compressor.Type()
		block = buf.Bytes()
	}

	w.Write32(uint32(len(p.order)))
	w.Write32(uint32(ct))
	w.Write32(uint32(len(block)))
	for _, s := range p.order {
		w.Write32(p.offsets[s])
	}
	w.WriteBlock(block)
	w.AlignPayload(4)
	return w.Err()
}
