package core

import (
	"bytes"
	"sync"
)

// GenericPool is a generic wrapper around sync.Pool
type GenericPool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

// NewGenericPool creates a new GenericPool with a function to create new
// items. reset, when non-nil, runs on every item handed back with Put.
func NewGenericPool[T any](newItem func() T, reset func(T)) *GenericPool[T] {
	return &GenericPool[T]{
		pool: sync.Pool{
			New: func() interface{} {
				return newItem()
			},
		},
		reset: reset,
	}
}

// Get retrieves an item from the pool.
func (p *GenericPool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put returns an item to the pool.
func (p *GenericPool[T]) Put(item T) {
	if p.reset != nil {
		p.reset(item)
	}
	p.pool.Put(item)
}

// DefaultSectionBufferSize is the initial capacity of pooled buffers used
// while assembling payload sections.
const DefaultSectionBufferSize = 4 * 1024

// BufferPool hands out reset buffers for payload assembly.
var BufferPool = NewGenericPool(
	func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, DefaultSectionBufferSize)) },
	func(b *bytes.Buffer) { b.Reset() },
)
