package mxfio

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
)

// DefaultChunkSize is the default chunk size for MemoryFile, // "chunked backing store with configurable chunk size (default 4096)".
const DefaultChunkSize = 4096

// MemoryFile is a chunked, growable in-memory file. Chunks are allocated on
// write extension; a read-only variant wraps a borrowed buffer without
// copying. It also supports a "virtual start position" used
// when flushing an in-memory header over a real file, so that positions it
// reports appear offset by that amount.
type MemoryFile struct {
	chunkSize    int
	chunks       [][]byte
	size         int64 // logical size in bytes
	pos          int64
	virtualStart int64
	readOnly     bool
	borrowed     []byte // backing buffer for the read-only variant
}

var _ File = (*MemoryFile)(nil)

// NewMemoryFile creates an empty, writable chunked memory file.
func NewMemoryFile(chunkSize int) *MemoryFile {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &MemoryFile{chunkSize: chunkSize}
}

// NewMemoryFileFromBytes creates a read-only MemoryFile wrapping a borrowed
// buffer without copying it.
func NewMemoryFileFromBytes(data []byte) *MemoryFile {
	return &MemoryFile{
		chunkSize: DefaultChunkSize,
		borrowed:  data,
		size:      int64(len(data)),
		readOnly:  true,
	}
}

// SetVirtualStartPosition offsets every reported position by delta, without
// moving any stored bytes.
func (m *MemoryFile) SetVirtualStartPosition(delta int64) {
	m.virtualStart = delta
}

func (m *MemoryFile) chunkAt(idx int) []byte {
	for len(m.chunks) <= idx {
		m.chunks = append(m.chunks, make([]byte, m.chunkSize))
	}
	return m.chunks[idx]
}

func (m *MemoryFile) byteAt(pos int64) byte {
	if m.readOnly {
		return m.borrowed[pos]
	}
	chunk := m.chunkAt(int(pos / int64(m.chunkSize)))
	return chunk[pos%int64(m.chunkSize)]
}

func (m *MemoryFile) setByteAt(pos int64, b byte) {
	chunk := m.chunkAt(int(pos / int64(m.chunkSize)))
	chunk[pos%int64(m.chunkSize)] = b
}

func (m *MemoryFile) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && m.pos < m.size {
		p[n] = m.byteAt(m.pos)
		m.pos++
		n++
	}
	return n, nil
}

func (m *MemoryFile) Write(p []byte) (int, error) {
	if m.readOnly {
		return 0, fmt.Errorf("%w: write to read-only memory file", errs.ErrIO)
	}
	for _, b := range p {
		m.setByteAt(m.pos, b)
		m.pos++
		if m.pos > m.size {
			m.size = m.pos
		}
	}
	return len(p), nil
}

func (m *MemoryFile) GetByte() (byte, error) {
	var buf [1]byte
	n, _ := m.Read(buf[:])
	if n == 0 {
		return 0, fmt.Errorf("%w: read past end of memory file", errs.ErrIO)
	}
	return buf[0], nil
}

func (m *MemoryFile) PutByte(b byte) error {
	_, err := m.Write([]byte{b})
	return err
}

func (m *MemoryFile) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case SeekStart:
		base = 0
	case SeekCurrent:
		base = m.pos
	case SeekEnd:
		base = m.size
	default:
		return 0, fmt.Errorf("%w: invalid whence %d", errs.ErrIO, whence)
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, fmt.Errorf("%w: seek before start of file", errs.ErrIO)
	}
	m.pos = newPos
	return m.pos + m.virtualStart, nil
}

func (m *MemoryFile) Tell() (int64, error) {
	return m.pos + m.virtualStart, nil
}

func (m *MemoryFile) Size() (int64, error) {
	return m.size + m.virtualStart, nil
}

func (m *MemoryFile) Eof() (bool, error) {
	return m.pos >= m.size, nil
}

func (m *MemoryFile) IsSeekable() bool { return true }

func (m *MemoryFile) Close() error { return nil }

func (m *MemoryFile) ReadKL() ([16]byte, int, uint64, error) {
	return ReadKL(m)
}

func (m *MemoryFile) WriteFixedKL(key [16]byte, llen int, length uint64) error {
	return WriteFixedKL(m, key, llen, length)
}

// Bytes returns a contiguous copy of the file's current content, for callers
// (the two-pass header rewrite) that need to hand it to another File's
// Write in one call.
func (m *MemoryFile) Bytes() []byte {
	if m.readOnly {
		return m.borrowed[:m.size]
	}
	out := make([]byte, m.size)
	for i := range out {
		out[i] = m.byteAt(int64(i))
	}
	return out
}
