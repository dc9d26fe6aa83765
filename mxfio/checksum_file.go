package mxfio

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
	"hash/crc32"

	"github.com/bmx-go/bmx/errs"
)

// DigestType selects the algorithm a ChecksumFile maintains. MXF checksum
// files (e.g. the BBC preservation scheme) are conventionally either CRC-32
// or a cryptographic digest; idiomatic Go reaches for the
// standard library's crypto/* and hash/crc32 packages for exactly this,
// rather than a third-party hashing library (see DESIGN.md).
type DigestType int

const (
	DigestCRC32 DigestType = iota
	DigestMD5
	DigestSHA1
	DigestSHA256
)

func newHash(t DigestType) (hash.Hash, error) {
	switch t {
	case DigestCRC32:
		return crc32.NewIEEE(), nil
	case DigestMD5:
		return md5.New(), nil
	case DigestSHA1:
		return sha1.New(), nil
	case DigestSHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("%w: unknown digest type %d", errs.ErrIO, t)
	}
}

// ChecksumFile wraps another File and maintains a running digest across
// either all bytes read, or all bytes read up to the current position. A
// "force update" mode ensures the digest has caught up to
// the current position before any read or seek, by reading forward from the
// last digested position; modifying already-hashed bytes is forbidden and
// reported as ErrChecksumDesync.
type ChecksumFile struct {
	backing    File
	h          hash.Hash
	digestType DigestType
	digestPos  int64 // how far into the file the digest has consumed
	pos        int64
	forceSync  bool
}

var _ File = (*ChecksumFile)(nil)

// NewChecksumFile wraps backing, computing digestType as bytes are read.
// When forceUpdate is true, any read or seek first advances the digest to
// the current cursor position by reading forward through backing.
func NewChecksumFile(backing File, digestType DigestType, forceUpdate bool) (*ChecksumFile, error) {
	h, err := newHash(digestType)
	if err != nil {
		return nil, err
	}
	return &ChecksumFile{backing: backing, h: h, digestType: digestType, forceSync: forceUpdate}, nil
}

// sync advances the digest forward to c.pos by reading through the backing
// file, when forceSync is enabled.
func (c *ChecksumFile) sync() error {
	if !c.forceSync || c.digestPos >= c.pos {
		return nil
	}
	if _, err := c.backing.Seek(c.digestPos, SeekStart); err != nil {
		return err
	}
	remaining := c.pos - c.digestPos
	buf := make([]byte, 64*1024)
	for remaining > 0 {
		want := int64(len(buf))
		if want > remaining {
			want = remaining
		}
		n, err := c.backing.Read(buf[:want])
		if n > 0 {
			c.h.Write(buf[:n])
			c.digestPos += int64(n)
			remaining -= int64(n)
		}
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
	}
	if _, err := c.backing.Seek(c.pos, SeekStart); err != nil {
		return err
	}
	return nil
}

func (c *ChecksumFile) Read(p []byte) (int, error) {
	if err := c.sync(); err != nil {
		return 0, err
	}
	n, err := c.backing.Read(p)
	if n > 0 {
		c.h.Write(p[:n])
		c.pos += int64(n)
		if c.pos > c.digestPos {
			c.digestPos = c.pos
		}
	}
	return n, err
}

// Write forbids modifying bytes already consumed by the digest: the digest
// position and the file position must match, or the write is rejected with
// ErrChecksumDesync ("ChecksumDesync if file modification is
// attempted while the digest position and file position are not equal").
func (c *ChecksumFile) Write(p []byte) (int, error) {
	if c.pos != c.digestPos {
		return 0, fmt.Errorf("%w: digest at %d, cursor at %d", errs.ErrChecksumDesync, c.digestPos, c.pos)
	}
	n, err := c.backing.Write(p)
	if n > 0 {
		c.h.Write(p[:n])
		c.pos += int64(n)
		c.digestPos = c.pos
	}
	return n, err
}

func (c *ChecksumFile) GetByte() (byte, error) {
	var buf [1]byte
	if _, err := c.Read(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (c *ChecksumFile) PutByte(b byte) error {
	_, err := c.Write([]byte{b})
	return err
}

func (c *ChecksumFile) Seek(offset int64, whence int) (int64, error) {
	pos, err := c.backing.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	c.pos = pos
	if err := c.sync(); err != nil {
		return 0, err
	}
	return pos, nil
}

func (c *ChecksumFile) Tell() (int64, error) { return c.pos, nil }

func (c *ChecksumFile) Size() (int64, error) { return c.backing.Size() }

func (c *ChecksumFile) Eof() (bool, error) { return c.backing.Eof() }

func (c *ChecksumFile) IsSeekable() bool { return c.backing.IsSeekable() }

func (c *ChecksumFile) Close() error { return c.backing.Close() }

func (c *ChecksumFile) ReadKL() ([16]byte, int, uint64, error) {
	return ReadKL(c)
}

func (c *ChecksumFile) WriteFixedKL(key [16]byte, llen int, length uint64) error {
	return WriteFixedKL(c, key, llen, length)
}

// DigestSize returns the digest's output size in bytes.
func (c *ChecksumFile) DigestSize() int { return c.h.Size() }

// Digest returns the current digest value.
func (c *ChecksumFile) Digest() []byte { return c.h.Sum(nil) }
