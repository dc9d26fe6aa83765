package mxfio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bmx-go/bmx/errs"
)

// OpenMode selects how DiskFile opens the underlying os.File.
type OpenMode int

const (
	// OpenNew truncates or creates the file for writing.
	OpenNew OpenMode = iota
	// OpenRead opens an existing file read-only.
	OpenRead
	// OpenModify opens an existing file for read-write, without truncating
	// (used for the two-pass header rewrite).
	OpenModify
)

// DiskFile is the standard buffered-I/O backend ("Disk file:
// standard buffered I/O").
type DiskFile struct {
	f      *os.File
	r      *bufio.Reader
	w      *bufio.Writer
	pos    int64
	closed bool
}

var _ File = (*DiskFile)(nil)

// OpenDiskFile opens name in the given mode.
func OpenDiskFile(name string, mode OpenMode) (*DiskFile, error) {
	var (
		f   *os.File
		err error
	)
	switch mode {
	case OpenNew:
		f, err = os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	case OpenRead:
		f, err = os.OpenFile(name, os.O_RDONLY, 0)
	case OpenModify:
		f, err = os.OpenFile(name, os.O_RDWR, 0o644)
	default:
		return nil, fmt.Errorf("%w: unknown open mode %d", errs.ErrIO, mode)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	df := &DiskFile{f: f}
	df.r = bufio.NewReaderSize(f, 64*1024)
	df.w = bufio.NewWriterSize(f, 64*1024)
	return df, nil
}

// flushWriter must be called before any read or seek that follows a write,
// so buffered bytes land on disk before the cursor moves under them.
func (d *DiskFile) flushWriter() error {
	if d.w.Buffered() == 0 {
		return nil
	}
	if err := d.w.Flush(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

func (d *DiskFile) Read(p []byte) (int, error) {
	if err := d.flushWriter(); err != nil {
		return 0, err
	}
	n, err := d.r.Read(p)
	d.pos += int64(n)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return n, err
}

func (d *DiskFile) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	d.pos += int64(n)
	if err != nil {
		return n, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return n, nil
}

func (d *DiskFile) GetByte() (byte, error) {
	var buf [1]byte
	if _, err := d.Read(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (d *DiskFile) PutByte(b byte) error {
	_, err := d.Write([]byte{b})
	return err
}

func (d *DiskFile) Seek(offset int64, whence int) (int64, error) {
	if err := d.flushWriter(); err != nil {
		return 0, err
	}
	d.r.Reset(d.f)
	pos, err := d.f.Seek(offset, whence)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	d.pos = pos
	return pos, nil
}

func (d *DiskFile) Tell() (int64, error) {
	return d.pos, nil
}

func (d *DiskFile) Size() (int64, error) {
	if err := d.flushWriter(); err != nil {
		return 0, err
	}
	info, err := d.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return info.Size(), nil
}

func (d *DiskFile) Eof() (bool, error) {
	size, err := d.Size()
	if err != nil {
		return false, err
	}
	return d.pos >= size, nil
}

func (d *DiskFile) IsSeekable() bool { return true }

func (d *DiskFile) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.flushWriter(); err != nil {
		_ = d.f.Close()
		return err
	}
	if err := d.f.Close(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

func (d *DiskFile) ReadKL() ([16]byte, int, uint64, error) {
	if err := d.flushWriter(); err != nil {
		return [16]byte{}, 0, 0, err
	}
	key, llen, length, err := ReadKL(d)
	return key, llen, length, err
}

func (d *DiskFile) WriteFixedKL(key [16]byte, llen int, length uint64) error {
	return WriteFixedKL(d, key, llen, length)
}
