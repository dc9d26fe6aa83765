package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBufferWriteAndReset(t *testing.T) {
	bb := NewByteBuffer(4)
	n, err := bb.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(bb.Bytes()))
	require.Equal(t, 5, bb.Len())

	bb.Reset()
	require.Equal(t, 0, bb.Len())
}

func TestByteBufferGrowAvoidsReallocWhenCapacitySufficient(t *testing.T) {
	bb := NewByteBuffer(16)
	before := cap(bb.B)
	bb.Grow(8)
	require.Equal(t, before, cap(bb.B))
}

func TestByteBufferGrowExpandsWhenNeeded(t *testing.T) {
	bb := NewByteBuffer(4)
	bb.Grow(1000)
	require.GreaterOrEqual(t, cap(bb.B), 1000)
}

func TestByteBufferPoolPutDiscardsOversizedBuffers(t *testing.T) {
	p := NewByteBufferPool(16, 64)
	bb := NewByteBuffer(128)
	p.Put(bb) // over maxThreshold, should be discarded rather than pooled

	got := p.Get()
	require.NotSame(t, bb, got)
}

func TestByteBufferPoolGetPutRoundTrip(t *testing.T) {
	p := NewByteBufferPool(16, 1024)
	bb := p.Get()
	_, _ = bb.Write([]byte("data"))
	p.Put(bb)

	got := p.Get()
	require.Equal(t, 0, got.Len(), "Put must Reset before returning to the pool")
}

func TestEditUnitBufferPoolHelpers(t *testing.T) {
	bb := GetEditUnitBuffer()
	require.NotNil(t, bb)
	_, _ = bb.Write([]byte("frame"))
	PutEditUnitBuffer(bb)
}
