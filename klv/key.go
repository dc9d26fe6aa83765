// Package klv implements the Key-Length-Value triple codec shared by every
// MXF structure: fixed 16-byte keys, BER-style length prefixes with a
// configurable minimum encoding width, and the KLVFill item used for KAG
// alignment.
package klv

import (
	"github.com/bmx-go/bmx/internal/ulhash"
)

// Key is a 16-byte SMPTE Universal Label (UL) or, for non-SMPTE
// identifiers, a half-swapped UUID.
type Key [16]byte

// versionByte is the registry-version octet that equality comparisons and
// hashing ignore.
const versionByte = 7

// ulDesignatorByte0 is byte 0 of a SMPTE UL; a value of 0x06 combined with
// byte 2 == 0x2b indicates the key is encoded as a UL rather than a
// half-swapped UUID (open question on UUID/UL dispatch).
const (
	ulDesignatorByte0 = 0x06
	ulDesignatorByte2 = 0x2b
)

// Equals compares two keys ignoring the registry-version byte.
func (k Key) Equals(other Key) bool {
	k[versionByte] = 0
	other[versionByte] = 0
	return k == other
}

// Hash returns a fast lookup hash of the key, masking the version byte so
// that Equals-equal keys hash equal. The primer pack and the header-metadata
// graph key their maps by the raw 16 bytes and do not call it.
func (k Key) Hash() uint64 {
	return ulhash.Sum64(k)
}

// IsUL reports whether k is encoded as a SMPTE Universal Label as opposed to
// a half-swapped UUID. Dispatch follows libMXF's mxf_is_ul: a UL has byte 0
// == 0x06 ("ISO/IEC object identifier designator") and byte 2 == 0x2b
// (the ISO/ORG arc of the SMPTE OID prefix 06 0e 2b 34); anything else is
// treated as a half-swapped UUID (open question).
func (k Key) IsUL() bool {
	return k[0] == ulDesignatorByte0 && k[2] == ulDesignatorByte2
}

// Bytes returns the 16-byte wire representation.
func (k Key) Bytes() []byte {
	b := make([]byte, 16)
	copy(b, k[:])
	return b
}

// String renders the key as a hyphenated hex UL string, e.g.
// "06.0e.2b.34.02.53.01.01.0d.01.01.01.01.01.01.00".
func (k Key) String() string {
	const hexdig = "0123456789abcdef"
	buf := make([]byte, 0, 16*3-1)
	for i, b := range k {
		if i > 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, hexdig[b>>4], hexdig[b&0xf])
	}
	return string(buf)
}

// KeyFromBytes reads a 16-byte key from b, which must have length >= 16.
func KeyFromBytes(b []byte) Key {
	var k Key
	copy(k[:], b[:16])
	return k
}
