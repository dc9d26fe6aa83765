package mxfio

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
)

// DefaultCachePageSize is a multiple of the typical OS page size
// ("Page size is a multiple of the OS page size").
const DefaultCachePageSize = 4096 * 4 // 16KiB

// page is one entry of a CacheFile's page cache.
type page struct {
	data  []byte
	dirty bool
	valid bool
}

// CacheFile is a page cache in front of another File.
// Pages are chosen by index `pageNumber mod numPages`; dirty pages are kept
// contiguous, and a read or write that would require a non-contiguous dirty
// range flushes everything dirty first. A flush writes each dirty page back
// with its own call.
type CacheFile struct {
	backing     File
	pageSize    int
	pages       []page
	pageNumbers []pageSlot
	pos         int64
}

var _ File = (*CacheFile)(nil)

// NewCacheFile wraps backing with a numPages-entry page cache.
func NewCacheFile(backing File, pageSize, numPages int) *CacheFile {
	if pageSize <= 0 {
		pageSize = DefaultCachePageSize
	}
	if numPages <= 0 {
		numPages = 64
	}
	return &CacheFile{
		backing:     backing,
		pageSize:    pageSize,
		pages:       make([]page, numPages),
		pageNumbers: make([]pageSlot, numPages),
	}
}

func (c *CacheFile) slotFor(pageNumber int64) int {
	return int(pageNumber % int64(len(c.pages)))
}

// dirtyRange reports the contiguous run of dirty page slots currently
// held, or ok=false if none are dirty.
func (c *CacheFile) dirtyRange() (lo, hi int, ok bool) {
	lo, hi = -1, -1
	for i := range c.pages {
		if c.pages[i].dirty {
			if lo == -1 {
				lo = i
			}
			hi = i
		}
	}
	return lo, hi, lo != -1
}

// flushDirty writes every dirty page back to the backing file in slot order,
// one backing write per dirty page.
func (c *CacheFile) flushDirty() error {
	lo, hi, ok := c.dirtyRange()
	if !ok {
		return nil
	}
	for i := lo; i <= hi; i++ {
		p := &c.pages[i]
		if !p.dirty {
			continue
		}
		// The slot's page number was folded by modulo; writePage looks up
		// the absolute page this slot currently represents in pageNumbers.
		if err := c.writePage(i); err != nil {
			return err
		}
		p.dirty = false
	}
	return nil
}

// pageNumbers tracks which absolute page each slot currently caches.
type pageSlot struct {
	number int64
	loaded bool
}

func (c *CacheFile) writePage(slot int) error {
	num := c.pageNumbers[slot].number
	if _, err := c.backing.Seek(num*int64(c.pageSize), SeekStart); err != nil {
		return err
	}
	if _, err := c.backing.Write(c.pages[slot].data); err != nil {
		return err
	}
	return nil
}

func (c *CacheFile) loadPage(num int64) (int, error) {
	slot := c.slotFor(num)
	if c.pageNumbers[slot].loaded && c.pageNumbers[slot].number == num {
		return slot, nil
	}

	// Evicting a dirty page belonging to a different number: flush first.
	if c.pages[slot].dirty && c.pageNumbers[slot].number != num {
		if err := c.writePage(slot); err != nil {
			return 0, err
		}
		c.pages[slot].dirty = false
	}

	if c.pages[slot].data == nil {
		c.pages[slot].data = make([]byte, c.pageSize)
	}
	if _, err := c.backing.Seek(num*int64(c.pageSize), SeekStart); err != nil {
		return 0, err
	}
	n, err := c.backing.Read(c.pages[slot].data)
	if err != nil && n == 0 {
		// Reading past EOF of a sparse/growing file: treat as a zero page,
		// it will be filled in by subsequent writes.
		for i := range c.pages[slot].data {
			c.pages[slot].data[i] = 0
		}
	}
	c.pages[slot].valid = true
	c.pageNumbers[slot] = pageSlot{number: num, loaded: true}
	return slot, nil
}

func (c *CacheFile) Read(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		pageNum := c.pos / int64(c.pageSize)
		offset := int(c.pos % int64(c.pageSize))
		slot, err := c.loadPage(pageNum)
		if err != nil {
			return total, err
		}
		n := copy(p[total:], c.pages[slot].data[offset:])
		if n == 0 {
			break
		}
		total += n
		c.pos += int64(n)
	}
	return total, nil
}

func (c *CacheFile) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		pageNum := c.pos / int64(c.pageSize)
		offset := int(c.pos % int64(c.pageSize))
		slot, err := c.loadPage(pageNum)
		if err != nil {
			return total, err
		}

		// A write to a previously clean page that is about to be evicted by
		// a non-contiguous dirty range must flush first.
		if !c.pages[slot].dirty {
			if lo, hi, ok := c.dirtyRange(); ok && (slot < lo-1 || slot > hi+1) {
				if err := c.flushDirty(); err != nil {
					return total, err
				}
			}
		}

		n := copy(c.pages[slot].data[offset:], p[total:])
		c.pages[slot].dirty = true
		total += n
		c.pos += int64(n)
	}
	return total, nil
}

func (c *CacheFile) GetByte() (byte, error) {
	var buf [1]byte
	if _, err := c.Read(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (c *CacheFile) PutByte(b byte) error {
	_, err := c.Write([]byte{b})
	return err
}

func (c *CacheFile) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case SeekStart:
		base = 0
	case SeekCurrent:
		base = c.pos
	case SeekEnd:
		sz, err := c.backing.Size()
		if err != nil {
			return 0, err
		}
		base = sz
	default:
		return 0, fmt.Errorf("%w: invalid whence %d", errs.ErrIO, whence)
	}
	c.pos = base + offset
	return c.pos, nil
}

func (c *CacheFile) Tell() (int64, error) { return c.pos, nil }

func (c *CacheFile) Size() (int64, error) {
	if err := c.flushDirty(); err != nil {
		return 0, err
	}
	return c.backing.Size()
}

func (c *CacheFile) Eof() (bool, error) {
	sz, err := c.Size()
	if err != nil {
		return false, err
	}
	return c.pos >= sz, nil
}

func (c *CacheFile) IsSeekable() bool { return c.backing.IsSeekable() }

func (c *CacheFile) Close() error {
	if err := c.flushDirty(); err != nil {
		_ = c.backing.Close()
		return err
	}
	return c.backing.Close()
}

func (c *CacheFile) ReadKL() ([16]byte, int, uint64, error) {
	return ReadKL(c)
}

func (c *CacheFile) WriteFixedKL(key [16]byte, llen int, length uint64) error {
	return WriteFixedKL(c, key, llen, length)
}
