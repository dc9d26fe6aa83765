package mxfio

import (
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/bmx-go/bmx/errs"
)

// DefaultMMapViewSize is the default size of the mapped view
// ("maps a view of configurable size (default 4 MB)").
const DefaultMMapViewSize = 4 * 1024 * 1024

// GrowthChunkSize is the amount a writable mmap-backed file is grown by when
// the cursor runs past its current extent ("the backing file
// is grown in chunks of 32 MB to amortize resize cost").
const GrowthChunkSize = 32 * 1024 * 1024

// MMapFile is the memory-mapped file backend, grounded on the
// mmap.Map(f, mmap.RDONLY, 0) pattern used to map PE binaries for fast
// random-access header parsing (saferwall/pe file.go), extended here with a
// writable, remapping view and chunked file growth.
type MMapFile struct {
	f        *os.File
	writable bool
	viewSize int64

	view       mmap.MMap
	viewOffset int64 // file offset the current view starts at
	logicalSz  int64 // logical (reported) size; <= allocated file size when writable

	pos int64
}

var _ File = (*MMapFile)(nil)

// OpenMMapFile memory-maps name. When writable is true the file is grown in
// GrowthChunkSize increments as writes extend past the current allocation,
// and Close truncates it back to the logical size.
func OpenMMapFile(name string, writable bool, viewSize int64) (*MMapFile, error) {
	if viewSize <= 0 {
		viewSize = DefaultMMapViewSize
	}

	flags := os.O_RDONLY
	if writable {
		flags = os.O_RDWR | os.O_CREATE
	}
	f, err := os.OpenFile(name, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	m := &MMapFile{
		f:         f,
		writable:  writable,
		viewSize:  viewSize,
		logicalSz: info.Size(),
	}
	if writable && info.Size() == 0 {
		if err := preallocate(f, GrowthChunkSize); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if err := m.remap(0); err != nil {
		_ = f.Close()
		return nil, err
	}
	return m, nil
}

func (m *MMapFile) allocatedSize() (int64, error) {
	info, err := m.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return info.Size(), nil
}

// remap maps a viewSize window starting at offset, growing the backing file
// first if writing would run past its current allocation.
func (m *MMapFile) remap(offset int64) error {
	if m.view != nil {
		if err := m.view.Unmap(); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
		m.view = nil
	}

	allocated, err := m.allocatedSize()
	if err != nil {
		return err
	}

	if m.writable && offset+m.viewSize > allocated {
		newSize := allocated
		for offset+m.viewSize > newSize {
			newSize += GrowthChunkSize
		}
		if err := preallocate(m.f, newSize); err != nil {
			return err
		}
		allocated = newSize
	}

	length := m.viewSize
	if offset+length > allocated {
		length = allocated - offset
	}
	if length <= 0 {
		m.view = mmap.MMap{}
		m.viewOffset = offset
		return nil
	}

	mode := mmap.RDONLY
	if m.writable {
		mode = mmap.RDWR
	}
	view, err := mmap.MapRegion(m.f, int(length), mode, 0, offset)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	m.view = view
	m.viewOffset = offset
	return nil
}

// ensureView makes sure pos lies within the mapped view, remapping if the
// cursor has crossed the view boundary.
func (m *MMapFile) ensureView(pos int64) error {
	if pos >= m.viewOffset && pos < m.viewOffset+int64(len(m.view)) {
		return nil
	}
	// Align the new view to viewSize boundaries for predictable remap cost.
	aligned := (pos / m.viewSize) * m.viewSize
	return m.remap(aligned)
}

func (m *MMapFile) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && m.pos < m.logicalSz {
		if err := m.ensureView(m.pos); err != nil {
			return n, err
		}
		avail := int(m.viewOffset + int64(len(m.view)) - m.pos)
		want := len(p) - n
		if want > avail {
			want = avail
		}
		if int64(m.pos-m.viewOffset)+int64(want) > int64(len(m.view)) {
			want = len(m.view) - int(m.pos-m.viewOffset)
		}
		remaining := m.logicalSz - m.pos
		if int64(want) > remaining {
			want = int(remaining)
		}
		if want <= 0 {
			break
		}
		copy(p[n:n+want], m.view[m.pos-m.viewOffset:m.pos-m.viewOffset+int64(want)])
		n += want
		m.pos += int64(want)
	}
	return n, nil
}

func (m *MMapFile) Write(p []byte) (int, error) {
	if !m.writable {
		return 0, fmt.Errorf("%w: write to read-only mmap file", errs.ErrIO)
	}
	n := 0
	for n < len(p) {
		if err := m.ensureView(m.pos); err != nil {
			return n, err
		}
		avail := int(m.viewOffset+int64(len(m.view))) - int(m.pos)
		want := len(p) - n
		if want > avail {
			want = avail
		}
		copy(m.view[m.pos-m.viewOffset:m.pos-m.viewOffset+int64(want)], p[n:n+want])
		n += want
		m.pos += int64(want)
		if m.pos > m.logicalSz {
			m.logicalSz = m.pos
		}
	}
	return n, nil
}

func (m *MMapFile) GetByte() (byte, error) {
	var buf [1]byte
	if _, err := m.Read(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (m *MMapFile) PutByte(b byte) error {
	_, err := m.Write([]byte{b})
	return err
}

func (m *MMapFile) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case SeekStart:
		base = 0
	case SeekCurrent:
		base = m.pos
	case SeekEnd:
		base = m.logicalSz
	default:
		return 0, fmt.Errorf("%w: invalid whence %d", errs.ErrIO, whence)
	}
	m.pos = base + offset
	return m.pos, nil
}

func (m *MMapFile) Tell() (int64, error) { return m.pos, nil }

func (m *MMapFile) Size() (int64, error) { return m.logicalSz, nil }

func (m *MMapFile) Eof() (bool, error) { return m.pos >= m.logicalSz, nil }

func (m *MMapFile) IsSeekable() bool { return true }

func (m *MMapFile) Close() error {
	if m.view != nil {
		if err := m.view.Unmap(); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
		m.view = nil
	}
	if m.writable {
		if err := m.f.Truncate(m.logicalSz); err != nil {
			_ = m.f.Close()
			return fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
	}
	if err := m.f.Close(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

func (m *MMapFile) ReadKL() ([16]byte, int, uint64, error) {
	return ReadKL(m)
}

func (m *MMapFile) WriteFixedKL(key [16]byte, llen int, length uint64) error {
	return WriteFixedKL(m, key, llen, length)
}
