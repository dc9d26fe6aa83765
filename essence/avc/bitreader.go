package avc

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
)

// bitReader reads MSB-first bits out of an emulation-prevention-stripped
// NAL payload, plus the Exp-Golomb codes AVC syntax elements use
// throughout sequence/picture parameter sets and slice headers.
type bitReader struct {
	data   []byte
	bitPos int
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

func (r *bitReader) bit() (uint32, error) {
	byteIdx := r.bitPos / 8
	if byteIdx >= len(r.data) {
		return 0, fmt.Errorf("%w: bitstream exhausted", errs.ErrTruncated)
	}
	shift := 7 - uint(r.bitPos%8)
	b := (r.data[byteIdx] >> shift) & 1
	r.bitPos++
	return uint32(b), nil
}

// u reads n bits as an unsigned integer (n may be 0, returning 0).
func (r *bitReader) u(n uint32) (uint32, error) {
	var v uint32
	for i := uint32(0); i < n; i++ {
		b, err := r.bit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | b
	}
	return v, nil
}

// ue reads an Exp-Golomb unsigned code: a run of leading zero bits, a 1
// bit, then that many more bits forming the remainder.
func (r *bitReader) ue() (uint32, error) {
	leadingZeros := 0
	for {
		b, err := r.bit()
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		leadingZeros++
		if leadingZeros > 32 {
			return 0, fmt.Errorf("%w: exp-golomb code too long", errs.ErrParse)
		}
	}
	if leadingZeros == 0 {
		return 0, nil
	}
	rest, err := r.u(uint32(leadingZeros))
	if err != nil {
		return 0, err
	}
	return (1 << uint(leadingZeros)) - 1 + rest, nil
}

// se reads an Exp-Golomb signed code, mapping the unsigned code space to
// signed values in zig-zag order (0, 1, -1, 2, -2, ...).
func (r *bitReader) se() (int32, error) {
	code, err := r.ue()
	if err != nil {
		return 0, err
	}
	if code%2 == 0 {
		return -int32(code / 2), nil
	}
	return int32(code+1) / 2, nil
}

// moreRBSPData reports whether more meaningful bits remain before the
// rbsp_trailing_bits sequence (a 1 bit followed by zero-padding).
func (r *bitReader) moreRBSPData() bool {
	totalBits := len(r.data) * 8
	remaining := totalBits - r.bitPos
	if remaining <= 0 {
		return false
	}
	// find the last set bit in the remaining stream; if it is the next bit,
	// there is no more data beyond the stop bit.
	lastSet := -1
	for i := totalBits - 1; i >= r.bitPos; i-- {
		byteIdx := i / 8
		shift := 7 - uint(i%8)
		if (r.data[byteIdx]>>shift)&1 == 1 {
			lastSet = i
			break
		}
	}
	return lastSet > r.bitPos
}
