// Package pool provides pooled byte buffers for the content-package
// assembler, which churns through many same-shaped allocations (one buffer
// per edit unit, reused across the whole write). The file backends do not
// use it.
package pool

import "sync"

// Default and maximum sizes for the content-package buffer pool. A single
// frame-wrapped edit unit rarely exceeds a few hundred KiB even for
// high-bitrate long-GOP picture essence; clip-wrapped essence streams bypass
// the pool entirely and write directly.
const (
	EditUnitBufferDefaultSize = 1024 * 256 // 256KiB, a generous single 1080p AVC-Intra frame
	EditUnitBufferMaxThreshold = 1024 * 1024 * 8 // 8MiB
)

// ByteBuffer is a growable byte slice with the small set of operations the
// content-package assembler needs: append, reset, and a
// capacity-aware grow so that steady-state writing never reallocates once
// the buffer has seen its largest edit unit.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a ByteBuffer with the given initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the underlying slice.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Len returns the number of bytes currently held.
func (bb *ByteBuffer) Len() int { return len(bb.B) }

// Reset empties the buffer without releasing its backing array.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// Write appends data, growing the backing array if necessary.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// Grow ensures the buffer can accept requiredBytes more bytes without a
// further reallocation.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := EditUnitBufferDefaultSize
	if cap(bb.B) > 4*EditUnitBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// ByteBufferPool pools ByteBuffers above a discard threshold so that one
// abnormally large edit unit (a clip-wrapped fallback, say) does not pin an
// oversized buffer in the pool forever.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool whose buffers start at defaultSize and are
// discarded on Put if they have grown past maxThreshold.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a reset ByteBuffer from the pool.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}
	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}
	bb.Reset()
	p.pool.Put(bb)
}

var editUnitPool = NewByteBufferPool(EditUnitBufferDefaultSize, EditUnitBufferMaxThreshold)

// GetEditUnitBuffer retrieves a buffer from the shared content-package pool.
func GetEditUnitBuffer() *ByteBuffer { return editUnitPool.Get() }

// PutEditUnitBuffer returns a buffer to the shared content-package pool.
func PutEditUnitBuffer(bb *ByteBuffer) { editUnitPool.Put(bb) }
