package metadata

import (
	"encoding/binary"
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/klv"
)

// Item is one local-tag-keyed value inside a Set ("items are
// addressed within a set by a 2-byte local tag resolved through the primer
// pack"). The raw bytes are kept as read; typed accessors decode on demand
// rather than eagerly, mirroring how an unknown/extension item round-trips
// untouched even when bmx does not understand its type.
type Item struct {
	Tag   uint16
	Key   klv.Key
	Value []byte
}

// NewItem wraps a value under key/tag.
func NewItem(tag uint16, key klv.Key, value []byte) *Item {
	return &Item{Tag: tag, Key: key, Value: value}
}

func (it *Item) Uint8() (uint8, error) {
	if len(it.Value) < 1 {
		return 0, fmt.Errorf("%w: item too short for uint8", errs.ErrTruncated)
	}
	return it.Value[0], nil
}

func (it *Item) Uint16() (uint16, error) {
	if len(it.Value) < 2 {
		return 0, fmt.Errorf("%w: item too short for uint16", errs.ErrTruncated)
	}
	return binary.BigEndian.Uint16(it.Value), nil
}

func (it *Item) Uint32() (uint32, error) {
	if len(it.Value) < 4 {
		return 0, fmt.Errorf("%w: item too short for uint32", errs.ErrTruncated)
	}
	return binary.BigEndian.Uint32(it.Value), nil
}

func (it *Item) Uint64() (uint64, error) {
	if len(it.Value) < 8 {
		return 0, fmt.Errorf("%w: item too short for uint64", errs.ErrTruncated)
	}
	return binary.BigEndian.Uint64(it.Value), nil
}

// Rational decodes a {numerator, denominator} pair of int32s.
func (it *Item) Rational() (num, den int32, err error) {
	if len(it.Value) < 8 {
		return 0, 0, fmt.Errorf("%w: item too short for rational", errs.ErrTruncated)
	}
	return int32(binary.BigEndian.Uint32(it.Value[0:4])), int32(binary.BigEndian.Uint32(it.Value[4:8])), nil
}

// UUID decodes a fixed 16-byte identifier (also used for InstanceUID,
// GenerationUID and, read as a UL, a package/track UMID-adjacent key).
func (it *Item) UUID() ([16]byte, error) {
	var u [16]byte
	if len(it.Value) < 16 {
		return u, fmt.Errorf("%w: item too short for UUID", errs.ErrTruncated)
	}
	copy(u[:], it.Value[:16])
	return u, nil
}

// UTF16String decodes a big-endian UTF-16 string, trimming a single
// trailing NUL if present (the MXF writer convention bmx follows).
func (it *Item) UTF16String() (string, error) {
	if len(it.Value)%2 != 0 {
		return "", fmt.Errorf("%w: odd-length UTF-16 item", errs.ErrParse)
	}
	n := len(it.Value) / 2
	if n > 0 && it.Value[2*n-2] == 0 && it.Value[2*n-1] == 0 {
		n--
	}
	runes := make([]uint16, n)
	for i := 0; i < n; i++ {
		runes[i] = binary.BigEndian.Uint16(it.Value[2*i:])
	}
	return string(utf16Decode(runes)), nil
}

// StrongRef decodes a singular strong reference (the referenced set's
// InstanceUID).
func (it *Item) StrongRef() ([16]byte, error) {
	return it.UUID()
}

// StrongRefArray decodes a batch of strong references: a 4-byte count, a
// 4-byte element size, then count*16 bytes of InstanceUIDs. Array items
// carry an explicit count and element-length header.
func (it *Item) StrongRefArray() ([][16]byte, error) {
	return decodeUUIDBatch(it.Value)
}

// WeakRef decodes a singular weak reference the same way as a strong one;
// the distinction is resolution scope, not wire shape.
func (it *Item) WeakRef() ([16]byte, error) { return it.UUID() }

// WeakRefArray decodes a batch of weak references.
func (it *Item) WeakRefArray() ([][16]byte, error) { return decodeUUIDBatch(it.Value) }

func decodeUUIDBatch(value []byte) ([][16]byte, error) {
	if len(value) < 8 {
		return nil, fmt.Errorf("%w: batch header truncated", errs.ErrTruncated)
	}
	count := binary.BigEndian.Uint32(value[0:4])
	elemSize := binary.BigEndian.Uint32(value[4:8])
	if elemSize != 16 {
		return nil, fmt.Errorf("%w: reference batch element size %d, want 16", errs.ErrParse, elemSize)
	}
	need := 8 + int(count)*16
	if len(value) < need {
		return nil, fmt.Errorf("%w: reference batch needs %d bytes, has %d", errs.ErrTruncated, need, len(value))
	}
	out := make([][16]byte, count)
	for i := range out {
		copy(out[i][:], value[8+i*16:8+(i+1)*16])
	}
	return out, nil
}

// SetUint32 replaces the item's value with a big-endian uint32.
func (it *Item) SetUint32(v uint32) {
	it.Value = make([]byte, 4)
	binary.BigEndian.PutUint32(it.Value, v)
}

// SetUint64 replaces the item's value with a big-endian uint64.
func (it *Item) SetUint64(v uint64) {
	it.Value = make([]byte, 8)
	binary.BigEndian.PutUint64(it.Value, v)
}

// SetUUID replaces the item's value with a 16-byte identifier.
func (it *Item) SetUUID(u [16]byte) {
	it.Value = append([]byte(nil), u[:]...)
}

// SetRational replaces the item's value with a {numerator, denominator} pair.
func (it *Item) SetRational(num, den int32) {
	it.Value = make([]byte, 8)
	binary.BigEndian.PutUint32(it.Value[0:4], uint32(num))
	binary.BigEndian.PutUint32(it.Value[4:8], uint32(den))
}

// SetUTF16String replaces the item's value with a UTF-16BE encoding of s
// plus a trailing NUL, following the writer convention UTF16String expects
// on read.
func (it *Item) SetUTF16String(s string) {
	runes := utf16Encode([]rune(s))
	buf := make([]byte, 2*(len(runes)+1))
	for i, r := range runes {
		binary.BigEndian.PutUint16(buf[2*i:], r)
	}
	it.Value = buf
}

// SetStrongRefArray replaces the item's value with a reference batch header
// followed by the given InstanceUIDs, in order.
func (it *Item) SetStrongRefArray(refs [][16]byte) {
	buf := make([]byte, 8+len(refs)*16)
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(refs)))
	binary.BigEndian.PutUint32(buf[4:8], 16)
	for i, r := range refs {
		copy(buf[8+i*16:], r[:])
	}
	it.Value = buf
}

// utf16Decode/utf16Encode avoid importing unicode/utf16 twice across call
// sites; kept local since the conversions here are the only UTF-16 use in
// the package.
func utf16Decode(s []uint16) []rune {
	var out []rune
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		if r >= 0xd800 && r < 0xdc00 && i+1 < len(s) {
			r2 := rune(s[i+1])
			if r2 >= 0xdc00 && r2 < 0xe000 {
				out = append(out, ((r-0xd800)<<10|(r2-0xdc00))+0x10000)
				i++
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func utf16Encode(s []rune) []uint16 {
	var out []uint16
	for _, r := range s {
		if r < 0x10000 {
			out = append(out, uint16(r))
			continue
		}
		r -= 0x10000
		out = append(out, uint16(0xd800+(r>>10)), uint16(0xdc00+(r&0x3ff)))
	}
	return out
}
