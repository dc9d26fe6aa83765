package writer

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/indextable"
	"github.com/bmx-go/bmx/klv"
	"github.com/bmx-go/bmx/mxfio"
)

// Assembler folds per-track edit units into content packages and writes
// them as KLV elements in the fixed element order. It also
// implements the partitioning policy: a new body partition opens every
// PartitionInterval edit units, but only when every VBE track's index
// engine permits a partition start there (a partition boundary must not
// fall inside a GOP an index segment has already committed to).
type Assembler struct {
	Tracks            []*Track
	KAGSize           int64
	LLen              int
	PartitionInterval int64 // 0 disables periodic body partitions

	editUnitCount int64
	sinceLastPartition int64

	// contentPackageSizes records each content package's total byte size
	// as it's written, the raw material BuildIndexSegment needs to decide
	// CBE vs VBE and to emit per-edit-unit stream offsets.
	contentPackageSizes []int64
}

// NewAssembler creates an Assembler over tracks, assigning element numbers
// and fixing element order up front.
func NewAssembler(tracks []*Track, kagSize int64, llen int) *Assembler {
	AssignElementNumbers(tracks)
	return &Assembler{
		Tracks:  OrderedTracks(tracks),
		KAGSize: kagSize,
		LLen:    llen,
	}
}

// ReadyToAssemble reports whether every track has a complete edit unit
// buffered (a missing track's "zero" edit unit is the caller's
// responsibility to supply via WriteSamples with a silence/black frame,
// keeping the assembler itself agnostic to concealment policy).
func (a *Assembler) ReadyToAssemble() bool {
	for _, t := range a.Tracks {
		if !t.HasEditUnit() {
			return false
		}
	}
	return true
}

// WriteContentPackage pops one edit unit from every track and writes them
// as KLV elements in order, returning the total bytes written (used by the
// caller to advance its running stream offset for index entries).
func (a *Assembler) WriteContentPackage(f mxfio.File) (int64, error) {
	if !a.ReadyToAssemble() {
		return 0, fmt.Errorf("%w: not every track has a buffered edit unit", errs.ErrInvariant)
	}

	var written int64
	for _, t := range a.Tracks {
		eu := t.PopEditUnit()
		if err := f.WriteFixedKL(t.ElementKey, a.LLen, uint64(len(eu))); err != nil {
			return written, err
		}
		if _, err := f.Write(eu); err != nil {
			return written, fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
		written += 16 + int64(a.LLen) + int64(len(eu))
	}

	a.editUnitCount++
	a.sinceLastPartition++
	a.contentPackageSizes = append(a.contentPackageSizes, written)
	return written, nil
}

// BuildIndexSegment produces the indextable.Segment covering every content
// package written so far for this assembler: CBE if every content
// package came out the same size, VBE (with a StreamOffset per edit
// unit, cumulative from streamOrigin) otherwise.
func (a *Assembler) BuildIndexSegment(indexSID, bodySID uint32, editRateNum, editRateDen int32, streamOrigin uint64) *indextable.Segment {
	seg := &indextable.Segment{
		IndexEditRateNum: editRateNum,
		IndexEditRateDen: editRateDen,
		IndexDuration:    int64(len(a.contentPackageSizes)),
		IndexSID:         indexSID,
		BodySID:          bodySID,
	}

	if len(a.contentPackageSizes) == 0 {
		return seg
	}

	constant := true
	for _, sz := range a.contentPackageSizes[1:] {
		if sz != a.contentPackageSizes[0] {
			constant = false
			break
		}
	}

	if constant {
		seg.EditUnitByteCount = uint32(a.contentPackageSizes[0])
		return seg
	}

	offset := streamOrigin
	for _, sz := range a.contentPackageSizes {
		seg.IndexEntryArray = append(seg.IndexEntryArray, indextable.IndexEntry{
			StreamOffset: offset,
		})
		offset += uint64(sz)
	}
	return seg
}

// ShouldOpenPartition reports whether a new body partition should be
// opened before the next content package: a body partition opens whenever
// the configured partition interval elapses and the index engine permits a
// partition start at that edit unit (all VBE elements permit it).
func (a *Assembler) ShouldOpenPartition(vbePermitsPartitionStart bool) bool {
	if a.PartitionInterval <= 0 {
		return false
	}
	return a.sinceLastPartition >= a.PartitionInterval && vbePermitsPartitionStart
}

// NotePartitionOpened resets the interval counter after a body partition
// has actually been written. It does not flush or signal any index
// segments.
func (a *Assembler) NotePartitionOpened() {
	a.sinceLastPartition = 0
}

// EditUnitCount returns the number of content packages written so far.
func (a *Assembler) EditUnitCount() int64 { return a.editUnitCount }

// essenceElementKeyPrefix is shared by every generic-container essence
// element key; NewElementKey sets the item-type byte and
// AssignElementNumbers sets the trailing element-number byte.
var essenceElementKeyPrefix = [13]byte{
	0x06, 0x0e, 0x2b, 0x34, 0x01, 0x02, 0x01, 0x01,
	0x0d, 0x01, 0x03, 0x01, 0x00,
}

// NewElementKey builds a generic-container essence element key for itemType
// (e.g. 0x15 for picture, 0x16 for sound, 0x17 for data), with the element
// number (byte 15) left zero for AssignElementNumbers to fill in.
func NewElementKey(itemType byte) klv.Key {
	var k klv.Key
	copy(k[:13], essenceElementKeyPrefix[:])
	k[13] = itemType
	k[14] = 0x01 // element count byte, fixed at 1 per bmx's one-element-per-track model
	return k
}
