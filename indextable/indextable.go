// Package indextable implements MXF index table segments: constant (CBE)
// and variable (VBE) bitrate element sizing, delta entries describing a
// content package's internal element layout, and per-edit-unit index
// entries carrying temporal offset, key-frame offset and flags.
package indextable

import (
	"encoding/binary"
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/klv"
)

// IndexSegmentKey is the SMPTE IndexTableSegment set key.
var IndexSegmentKey = klv.Key{
	0x06, 0x0e, 0x2b, 0x34, 0x02, 0x53, 0x01, 0x01,
	0x0d, 0x01, 0x02, 0x01, 0x01, 0x10, 0x01, 0x00,
}

// MaxSegmentBytes bounds a single index table segment's encoded size; a
// writer producing more index entries than fit starts a new segment rather
// than overflow ("2GiB segment ceiling").
const MaxSegmentBytes = 1 << 31

// DeltaEntry describes one element within a content package's internal
// layout: which slice (track) it belongs to, its position within the
// element ordering, and (for VBE) the running byte offset to that element.
type DeltaEntry struct {
	PosTableIndex int8
	Slice         uint8
	ElementDelta  uint32
}

// IndexEntry describes one edit unit: the temporal reordering offset
// (frames of display-to-storage-order distance), the distance back to the
// previous key frame, coding flags, and (for VBE) the edit unit's stream
// offset and per-slice offsets.
type IndexEntry struct {
	TemporalOffset int8
	KeyFrameOffset int8
	Flags          uint8
	StreamOffset   uint64
	SliceOffset    []uint32
	PosTable       []struct{ Num, Den int32 }
}

// Segment is one IndexTableSegment. EditUnitByteCount > 0
// marks a CBE segment (every edit unit the same size, IndexEntries omitted
// from the wire encoding in favor of the fixed size); EditUnitByteCount ==
// 0 marks VBE (every edit unit carries an explicit IndexEntry).
type Segment struct {
	InstanceUID   [16]byte
	IndexEditRateNum, IndexEditRateDen int32
	IndexStartPosition int64
	IndexDuration      int64
	EditUnitByteCount  uint32 // 0 => VBE
	IndexSID           uint32
	BodySID            uint32
	SliceCount         uint8
	PosTableCount      uint8
	DeltaEntryArray    []DeltaEntry
	IndexEntryArray    []IndexEntry
}

// IsCBE reports whether the segment uses constant edit-unit byte counts.
func (s *Segment) IsCBE() bool { return s.EditUnitByteCount > 0 }

// EncodedSize estimates the wire size of the segment, used by a writer to
// decide whether the next edit unit would overflow MaxSegmentBytes and a
// new segment must be started.
func (s *Segment) EncodedSize() int {
	base := 16 + 8 + 8 + 4 + 4 + 4 + 1 + 1
	delta := 8 + len(s.DeltaEntryArray)*(1+1+4)
	entrySize := 11 + int(s.SliceCount)*4 + int(s.PosTableCount)*8
	entries := 8 + len(s.IndexEntryArray)*entrySize
	return base + delta + entries
}

// Encode renders the segment as one flat big-endian byte slice: the fixed
// fields in segment-field order from the edit rate on (IndexSID and BodySID
// included, InstanceUID not), then the delta entry array and, for VBE
// segments, the index entry array. Decode reverses it.
func (s *Segment) Encode() []byte {
	var buf []byte
	var u32 [4]byte
	var u64 [8]byte

	binary.BigEndian.PutUint32(u32[:], uint32(s.IndexEditRateNum))
	buf = append(buf, u32[:]...)
	binary.BigEndian.PutUint32(u32[:], uint32(s.IndexEditRateDen))
	buf = append(buf, u32[:]...)

	binary.BigEndian.PutUint64(u64[:], uint64(s.IndexStartPosition))
	buf = append(buf, u64[:]...)
	binary.BigEndian.PutUint64(u64[:], uint64(s.IndexDuration))
	buf = append(buf, u64[:]...)

	binary.BigEndian.PutUint32(u32[:], s.EditUnitByteCount)
	buf = append(buf, u32[:]...)
	binary.BigEndian.PutUint32(u32[:], s.IndexSID)
	buf = append(buf, u32[:]...)
	binary.BigEndian.PutUint32(u32[:], s.BodySID)
	buf = append(buf, u32[:]...)

	buf = append(buf, s.SliceCount, s.PosTableCount)

	binary.BigEndian.PutUint32(u32[:], uint32(len(s.DeltaEntryArray)))
	buf = append(buf, u32[:]...)
	binary.BigEndian.PutUint32(u32[:], 6)
	buf = append(buf, u32[:]...)
	for _, d := range s.DeltaEntryArray {
		buf = append(buf, byte(d.PosTableIndex), d.Slice)
		binary.BigEndian.PutUint32(u32[:], d.ElementDelta)
		buf = append(buf, u32[:]...)
	}

	if !s.IsCBE() {
		entrySize := 11 + int(s.SliceCount)*4 + int(s.PosTableCount)*8
		binary.BigEndian.PutUint32(u32[:], uint32(len(s.IndexEntryArray)))
		buf = append(buf, u32[:]...)
		binary.BigEndian.PutUint32(u32[:], uint32(entrySize))
		buf = append(buf, u32[:]...)
		for _, e := range s.IndexEntryArray {
			buf = append(buf, byte(e.TemporalOffset), byte(e.KeyFrameOffset), e.Flags)
			binary.BigEndian.PutUint64(u64[:], e.StreamOffset)
			buf = append(buf, u64[:]...)
			for i := 0; i < int(s.SliceCount); i++ {
				var off uint32
				if i < len(e.SliceOffset) {
					off = e.SliceOffset[i]
				}
				binary.BigEndian.PutUint32(u32[:], off)
				buf = append(buf, u32[:]...)
			}
			for i := 0; i < int(s.PosTableCount); i++ {
				var num, den int32
				if i < len(e.PosTable) {
					num, den = e.PosTable[i].Num, e.PosTable[i].Den
				}
				binary.BigEndian.PutUint32(u32[:], uint32(num))
				buf = append(buf, u32[:]...)
				binary.BigEndian.PutUint32(u32[:], uint32(den))
				buf = append(buf, u32[:]...)
			}
		}
	}

	return buf
}

// Decode parses a segment's value, produced by Encode.
func Decode(value []byte) (*Segment, error) {
	if len(value) < 4+4+8+8+4+4+4+1+1+8 {
		return nil, fmt.Errorf("%w: index table segment truncated", errs.ErrTruncated)
	}

	s := &Segment{}
	off := 0
	readU32 := func() uint32 { v := binary.BigEndian.Uint32(value[off:]); off += 4; return v }
	readU64 := func() uint64 { v := binary.BigEndian.Uint64(value[off:]); off += 8; return v }

	s.IndexEditRateNum = int32(readU32())
	s.IndexEditRateDen = int32(readU32())
	s.IndexStartPosition = int64(readU64())
	s.IndexDuration = int64(readU64())
	s.EditUnitByteCount = readU32()
	s.IndexSID = readU32()
	s.BodySID = readU32()
	s.SliceCount = value[off]
	off++
	s.PosTableCount = value[off]
	off++

	deltaCount := readU32()
	deltaElemSize := readU32()
	if deltaElemSize != 6 {
		return nil, fmt.Errorf("%w: delta entry element size %d, want 6", errs.ErrParse, deltaElemSize)
	}
	for i := uint32(0); i < deltaCount; i++ {
		if off+6 > len(value) {
			return nil, fmt.Errorf("%w: delta entry array truncated", errs.ErrTruncated)
		}
		s.DeltaEntryArray = append(s.DeltaEntryArray, DeltaEntry{
			PosTableIndex: int8(value[off]),
			Slice:         value[off+1],
			ElementDelta:  binary.BigEndian.Uint32(value[off+2:]),
		})
		off += 6
	}

	if s.IsCBE() || off >= len(value) {
		return s, nil
	}

	entryCount := readU32()
	entryElemSize := readU32()
	expected := 11 + int(s.SliceCount)*4 + int(s.PosTableCount)*8
	if int(entryElemSize) != expected {
		return nil, fmt.Errorf("%w: index entry element size %d, want %d", errs.ErrParse, entryElemSize, expected)
	}
	for i := uint32(0); i < entryCount; i++ {
		if off+expected > len(value) {
			return nil, fmt.Errorf("%w: index entry array truncated", errs.ErrTruncated)
		}
		e := IndexEntry{
			TemporalOffset: int8(value[off]),
			KeyFrameOffset: int8(value[off+1]),
			Flags:          value[off+2],
			StreamOffset:   binary.BigEndian.Uint64(value[off+3:]),
		}
		p := off + 11
		for i := 0; i < int(s.SliceCount); i++ {
			e.SliceOffset = append(e.SliceOffset, binary.BigEndian.Uint32(value[p:]))
			p += 4
		}
		for i := 0; i < int(s.PosTableCount); i++ {
			num := int32(binary.BigEndian.Uint32(value[p:]))
			den := int32(binary.BigEndian.Uint32(value[p+4:]))
			e.PosTable = append(e.PosTable, struct{ Num, Den int32 }{num, den})
			p += 8
		}
		s.IndexEntryArray = append(s.IndexEntryArray, e)
		off += expected
	}

	return s, nil
}

// LookupCBE computes an edit unit's stream offset for a constant-bitrate
// segment, where every edit unit occupies exactly EditUnitByteCount bytes.
func (s *Segment) LookupCBE(editUnit int64) (streamOffset uint64, ok bool) {
	if !s.IsCBE() {
		return 0, false
	}
	rel := editUnit - s.IndexStartPosition
	if rel < 0 || rel >= s.IndexDuration {
		return 0, false
	}
	return uint64(rel) * uint64(s.EditUnitByteCount), true
}

// LookupVBE returns the IndexEntry for editUnit in a variable-bitrate
// segment.
func (s *Segment) LookupVBE(editUnit int64) (*IndexEntry, bool) {
	rel := editUnit - s.IndexStartPosition
	if rel < 0 || int(rel) >= len(s.IndexEntryArray) {
		return nil, false
	}
	return &s.IndexEntryArray[rel], true
}

// BackpatchTemporalOffsets fills in TemporalOffset for every entry in a
// VBE segment once the full display-order-to-storage-order mapping for a
// GOP is known ("temporal offsets cannot be computed until
// the whole GOP has been seen, so the writer back-patches already-written
// index entries"). displayToStorage[i] gives, for the edit unit at
// storage-order position start+i, its distance (in edit units) from
// display order to storage order.
func (s *Segment) BackpatchTemporalOffsets(start int, displayToStorage []int8) error {
	if start < 0 || start+len(displayToStorage) > len(s.IndexEntryArray) {
		return fmt.Errorf("%w: backpatch range out of bounds", errs.ErrInvariant)
	}
	for i, offset := range displayToStorage {
		s.IndexEntryArray[start+i].TemporalOffset = offset
	}
	return nil
}

// entrySize returns the encoded byte size of one VBE index entry.
func (s *Segment) entrySize() int {
	return 11 + int(s.SliceCount)*4 + int(s.PosTableCount)*8
}

// EntryByteOffset returns the byte offset, within the slice Encode
// returns, of the TemporalOffset byte for IndexEntryArray[i]. Used by a
// writer that has already flushed this segment's encoding to disk to
// compute where a later BackpatchTemporalOffsets call needs to seek back
// and patch the single already-written byte, rather than only updating the
// in-memory IndexEntryArray.
func (s *Segment) EntryByteOffset(i int) int {
	header := 4 + 4 + 8 + 8 + 4 + 4 + 4 + 1 + 1
	deltaArray := 8 + len(s.DeltaEntryArray)*6
	entryArrayHeader := 8
	return header + deltaArray + entryArrayHeader + i*s.entrySize()
}
