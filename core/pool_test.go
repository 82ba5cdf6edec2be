package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenericPool(t *testing.T) {
	created := 0
	pool := NewGenericPool(func() []int {
		created++
		return make([]int, 0, 4)
	}, nil)

	item := pool.Get()
	require.NotNil(t, item)
	assert.Equal(t, 1, created)
	assert.Equal(t, 4, cap(item))
}

func TestBufferPool(t *testing.T) {
	t.Run("Get returns empty buffer", func(t *testing.T) {
		buf := BufferPool.Get()
		require.NotNil(t, buf)
		assert.Equal(t, 0, buf.Len())
		BufferPool.Put(buf)
	})

	t.Run("Put resets buffer", func(t *testing.T) {
		buf := bytes.NewBufferString("hello world")
		BufferPool.Put(buf)
		assert.Equal(t, 0, buf.Len(), "buffer should be reset when returned to the pool")
	})
}
