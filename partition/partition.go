// Package partition implements the MXF partition pack, random index pack
// and KAG-aligned body partitioning ("a file is a sequence of
// partitions, each opening with a partition pack and optionally carrying
// header metadata and/or an index table segment before its essence").
package partition

import (
	"encoding/binary"
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/klv"
	"github.com/bmx-go/bmx/mxfio"
)

// Kind names the partition's structural role, which determines which of
// header metadata, index table segments and essence it may legally carry.
type Kind int

const (
	KindHeader Kind = iota
	KindBody
	KindFooter
)

// Status distinguishes an open partition pack (more partitions follow, used
// while a file is still being written) from a closed one (this is the final
// partition of its kind).
type Status int

const (
	StatusOpenIncomplete Status = iota
	StatusOpenComplete
	StatusClosedIncomplete
	StatusClosedComplete
)

// Pack is one partition pack's decoded fields. The
// OperationalPattern and EssenceContainers identify the file's operational
// pattern and wrapping; the four byte-count/offset fields let a reader skip
// directly to header metadata, index tables or essence without scanning.
type Pack struct {
	Kind   Kind
	Status Status

	MajorVersion, MinorVersion uint16
	KAGSize                    uint32

	ThisPartition   uint64
	PreviousPartition uint64
	FooterPartition uint64

	HeaderByteCount uint64
	IndexByteCount  uint64
	IndexSID        uint32
	BodyOffset      uint64
	BodySID         uint32

	OperationalPattern klv.Key
	EssenceContainers  []klv.Key
}

// keyFor builds the partition pack's own key, whose 13th byte encodes the
// kind and whose 14th byte encodes the status (following the
// SMPTE-registered partition pack key family).
func keyFor(k Kind, s Status) klv.Key {
	var b12 byte
	switch k {
	case KindHeader:
		b12 = 0x02
	case KindBody:
		b12 = 0x03
	case KindFooter:
		b12 = 0x04
	}
	return klv.Key{
		0x06, 0x0e, 0x2b, 0x34, 0x02, 0x05, 0x01, 0x01,
		0x0d, 0x01, 0x02, 0x01, b12, byte(s) + 1, 0x00, 0x00,
	}
}

// partitionKeyPrefix is the 12-byte prefix common to every partition pack
// key, used to recognize one on read before decoding kind/status.
var partitionKeyPrefix = [12]byte{
	0x06, 0x0e, 0x2b, 0x34, 0x02, 0x05, 0x01, 0x01,
	0x0d, 0x01, 0x02, 0x01,
}

// IsPartitionKey reports whether key identifies a partition pack of any
// kind/status: the common prefix followed by a header, body or footer kind
// byte.
func IsPartitionKey(key klv.Key) bool {
	for i := range partitionKeyPrefix {
		if key[i] != partitionKeyPrefix[i] {
			return false
		}
	}
	return key[12] >= 0x02 && key[12] <= 0x04
}

// Write encodes and writes the partition pack at the file's current
// position, then pads to the next KAG boundary with a KLVFill item. It
// returns the file offset of the byte following the pad, where the
// partition's header metadata (if any) begins.
func (p *Pack) Write(f mxfio.File, llen int) (int64, error) {
	pos, err := f.Tell()
	if err != nil {
		return 0, err
	}

	value := p.encode()
	key := keyFor(p.Kind, p.Status)
	if err := f.WriteFixedKL(key, llen, uint64(len(value))); err != nil {
		return 0, err
	}
	if _, err := f.Write(value); err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	after := pos + 16 + int64(llen) + int64(len(value))
	return mxfio.WriteKAGFill(f, after, int64(p.KAGSize), llen)
}

func (p *Pack) encode() []byte {
	buf := make([]byte, 0, 4+4+4+8*5+4+4+4+4+16+4+4+len(p.EssenceContainers)*16)
	var u16 [2]byte
	var u32 [4]byte
	var u64 [8]byte

	binary.BigEndian.PutUint16(u16[:], p.MajorVersion)
	buf = append(buf, u16[:]...)
	binary.BigEndian.PutUint16(u16[:], p.MinorVersion)
	buf = append(buf, u16[:]...)

	binary.BigEndian.PutUint32(u32[:], p.KAGSize)
	buf = append(buf, u32[:]...)

	for _, v := range []uint64{p.ThisPartition, p.PreviousPartition, p.FooterPartition, p.HeaderByteCount, p.IndexByteCount} {
		binary.BigEndian.PutUint64(u64[:], v)
		buf = append(buf, u64[:]...)
	}

	binary.BigEndian.PutUint32(u32[:], p.IndexSID)
	buf = append(buf, u32[:]...)
	binary.BigEndian.PutUint64(u64[:], p.BodyOffset)
	buf = append(buf, u64[:]...)
	binary.BigEndian.PutUint32(u32[:], p.BodySID)
	buf = append(buf, u32[:]...)

	buf = append(buf, p.OperationalPattern[:]...)

	binary.BigEndian.PutUint32(u32[:], uint32(len(p.EssenceContainers)))
	buf = append(buf, u32[:]...)
	binary.BigEndian.PutUint32(u32[:], 16)
	buf = append(buf, u32[:]...)
	for _, ec := range p.EssenceContainers {
		buf = append(buf, ec[:]...)
	}

	return buf
}

// Read decodes a partition pack value previously returned by
// mxfio.File.ReadKL.
func Read(key klv.Key, value []byte) (*Pack, error) {
	if len(value) < 2+2+4+8*5+4+8+4+16+4+4 {
		return nil, fmt.Errorf("%w: partition pack truncated", errs.ErrTruncated)
	}

	p := &Pack{}
	switch key[12] {
	case 0x02:
		p.Kind = KindHeader
	case 0x03:
		p.Kind = KindBody
	case 0x04:
		p.Kind = KindFooter
	default:
		return nil, fmt.Errorf("%w: unrecognized partition kind byte 0x%02x", errs.ErrParse, key[12])
	}
	if key[13] == 0 || key[13] > 4 {
		return nil, fmt.Errorf("%w: unrecognized partition status byte 0x%02x", errs.ErrParse, key[13])
	}
	p.Status = Status(key[13] - 1)

	off := 0
	readU16 := func() uint16 { v := binary.BigEndian.Uint16(value[off:]); off += 2; return v }
	readU32 := func() uint32 { v := binary.BigEndian.Uint32(value[off:]); off += 4; return v }
	readU64 := func() uint64 { v := binary.BigEndian.Uint64(value[off:]); off += 8; return v }

	p.MajorVersion = readU16()
	p.MinorVersion = readU16()
	p.KAGSize = readU32()
	p.ThisPartition = readU64()
	p.PreviousPartition = readU64()
	p.FooterPartition = readU64()
	p.HeaderByteCount = readU64()
	p.IndexByteCount = readU64()
	p.IndexSID = readU32()
	p.BodyOffset = readU64()
	p.BodySID = readU32()

	copy(p.OperationalPattern[:], value[off:off+16])
	off += 16

	count := readU32()
	elemSize := readU32()
	if elemSize != 16 {
		return nil, fmt.Errorf("%w: essence container batch element size %d, want 16", errs.ErrParse, elemSize)
	}
	need := int(count) * 16
	if len(value)-off < need {
		return nil, fmt.Errorf("%w: essence container batch truncated", errs.ErrTruncated)
	}
	p.EssenceContainers = make([]klv.Key, count)
	for i := range p.EssenceContainers {
		p.EssenceContainers[i] = klv.KeyFromBytes(value[off : off+16])
		off += 16
	}

	return p, nil
}
