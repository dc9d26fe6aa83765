package klv

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
)

// MinLLen and MaxLLen bound the configurable "llen" (number of bytes used to
// encode a BER length), "BER-encoded lengths use a configurable
// minimum llen of 1-9 bytes".
const (
	MinLLen = 1
	MaxLLen = 9
)

// EncodeBERLength appends the BER encoding of length to buf, using exactly
// llen bytes when llen > 0 ("fixed llen so that KL headers can be placed
// before the value length is known and patched later"), or the
// shortest legal encoding when llen == 0.
//
// Values 0-127 use a single byte; larger values use a marker byte 0x80|n
// followed by n big-endian bytes.
func EncodeBERLength(buf []byte, length uint64, llen int) ([]byte, error) {
	needed := berLengthSize(length)
	if llen == 0 {
		llen = needed
	}
	if llen < needed {
		return nil, fmt.Errorf("%w: llen %d cannot encode length %d (needs %d bytes)", errs.ErrOverflow, llen, length, needed)
	}
	if llen < MinLLen || llen > MaxLLen {
		return nil, fmt.Errorf("%w: llen %d out of range [%d,%d]", errs.ErrOverflow, llen, MinLLen, MaxLLen)
	}

	if llen == 1 {
		if length > 127 {
			return nil, fmt.Errorf("%w: length %d does not fit in a 1-byte BER length", errs.ErrOverflow, length)
		}
		return append(buf, byte(length)), nil
	}

	n := llen - 1
	buf = append(buf, 0x80|byte(n))
	for i := n - 1; i >= 0; i-- {
		buf = append(buf, byte(length>>(uint(i)*8)))
	}
	return buf, nil
}

// berLengthSize returns the minimum number of bytes (including any marker
// byte) needed to BER-encode length.
func berLengthSize(length uint64) int {
	if length <= 127 {
		return 1
	}
	n := 1
	for v := length; v != 0; v >>= 8 {
		n++
	}
	return n
}

// DecodeBERLength parses a BER length from the start of buf, returning the
// decoded length and the number of bytes (llen) it occupied.
func DecodeBERLength(buf []byte) (length uint64, llen int, err error) {
	if len(buf) == 0 {
		return 0, 0, fmt.Errorf("%w: empty buffer reading BER length", errs.ErrTruncated)
	}

	first := buf[0]
	if first&0x80 == 0 {
		return uint64(first), 1, nil
	}

	n := int(first & 0x7f)
	if n == 0 || n > 8 {
		return 0, 0, fmt.Errorf("%w: invalid BER length size marker 0x%02x", errs.ErrParse, first)
	}
	if len(buf) < 1+n {
		return 0, 0, fmt.Errorf("%w: BER length needs %d more bytes", errs.ErrTruncated, 1+n-len(buf))
	}

	for i := 0; i < n; i++ {
		length = length<<8 | uint64(buf[1+i])
	}
	return length, 1 + n, nil
}
