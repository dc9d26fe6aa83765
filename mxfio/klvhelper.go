package mxfio

import (
	"fmt"
	"io"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/klv"
)

func readFull(r io.Reader, buf []byte) error {
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: short read", errs.ErrTruncated)
	}
	return nil
}

// ReadKL reads a 16-byte key followed by a BER length, leaving the cursor at
// the first byte of the value.
func ReadKL(r io.Reader) (key [16]byte, llen int, length uint64, err error) {
	var kbuf [16]byte
	if err = readFull(r, kbuf[:]); err != nil {
		return key, 0, 0, err
	}

	// BER length: read the first byte, then however many more it implies.
	var first [1]byte
	if err = readFull(r, first[:]); err != nil {
		return key, 0, 0, err
	}
	if first[0]&0x80 == 0 {
		return kbuf, 1, uint64(first[0]), nil
	}
	n := int(first[0] & 0x7f)
	if n == 0 || n > 8 {
		return key, 0, 0, fmt.Errorf("%w: invalid BER length size marker 0x%02x", errs.ErrParse, first[0])
	}
	rest := make([]byte, n)
	if err = readFull(r, rest); err != nil {
		return key, 0, 0, err
	}
	for _, b := range rest {
		length = length<<8 | uint64(b)
	}
	return kbuf, 1 + n, length, nil
}

// WriteFixedKL writes key followed by a BER length encoded in exactly llen
// bytes.
func WriteFixedKL(w io.Writer, key [16]byte, llen int, length uint64) error {
	buf := make([]byte, 0, 16+klv.MaxLLen)
	buf = append(buf, key[:]...)
	buf, err := klv.EncodeBERLength(buf, length, llen)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}
