package mxfio

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/klv"
)

// WriteKAGFill pads f, currently positioned at pos, to the next KAG boundary
// with a single KLVFill item. kag <= 1 disables alignment.
// It returns the new cursor position.
func WriteKAGFill(f File, pos int64, kag int64, llen int) (int64, error) {
	valueLen, needed := klv.FillLength(pos, kag, llen)
	if !needed {
		return pos, nil
	}
	if err := f.WriteFixedKL(klv.FillKey, llen, valueLen); err != nil {
		return pos, err
	}
	if valueLen > 0 {
		zeros := make([]byte, valueLen)
		if _, err := f.Write(zeros); err != nil {
			return pos, fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
	}
	return pos + 16 + int64(llen) + int64(valueLen), nil
}

// SkipFillItems reads and discards consecutive KLVFill items starting at the
// current cursor, returning the key/llen/length of the first non-fill KLV
// triple encountered (leaving the cursor at its value, per the ReadKL
// contract).
func SkipFillItems(f File) (key [16]byte, llen int, length uint64, err error) {
	for {
		key, llen, length, err = f.ReadKL()
		if err != nil {
			return key, llen, length, err
		}
		if !klv.IsFillKey(klv.Key(key)) {
			return key, llen, length, nil
		}
		if _, err := f.Seek(int64(length), SeekCurrent); err != nil {
			return key, llen, length, err
		}
	}
}
