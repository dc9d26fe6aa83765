// Package endian provides the byte order engine used to decode and encode
// the fixed-width integers that appear throughout KLV keys, BER lengths,
// partition packs, and header-metadata primitive item values.
//
// MXF (SMPTE ST 377-1) fixes network byte order (big-endian) for every
// multi-byte field in the file; Engine always returns the big-endian
// engine. The engine abstraction is kept, rather than calling
// encoding/binary.BigEndian directly everywhere, so that the rare caller
// working with a foreign byte order (e.g. re-interpreting a half-swapped UL
// as a little-endian UUID) can swap engines without touching
// call sites.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into one interface, satisfied by binary.BigEndian and binary.LittleEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Engine is the byte order mandated for MXF files: big-endian.
func Engine() EndianEngine {
	return binary.BigEndian
}

// LittleEndianEngine is used only for the half-swapped UUID form of a Key
// ("A second half-swapped form (UUID) is used for non-SMPTE
// identifiers").
func LittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// CheckEndianness reports the host's native byte order; used by the
// memory-mapped file backend to decide whether a direct pointer cast is safe
// or whether bytes must be swapped (mmap implementation note).
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// IsNativeBigEndian reports whether the host is big-endian.
func IsNativeBigEndian() bool {
	return CheckEndianness() == binary.BigEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool { return CheckEndianness() == binary.LittleEndian }

// CompareNativeEndian reports whether engine matches the host byte order.
func CompareNativeEndian(engine EndianEngine) bool { return engine == CheckEndianness() }

// GetBigEndianEngine returns the big-endian engine (same as Engine).
func GetBigEndianEngine() EndianEngine { return binary.BigEndian }

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine { return binary.LittleEndian }
