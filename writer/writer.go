package writer

import (
	"fmt"

	"github.com/bmx-go/bmx/datamodel"
	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/indextable"
	"github.com/bmx-go/bmx/metadata"
	"github.com/bmx-go/bmx/mxfio"
	"github.com/bmx-go/bmx/partition"
)

// HeaderReserveDefault is the number of bytes bmx reserves in the header
// partition for the two-pass rewrite when the total duration is not known
// up front ("a reserve of bytes is allocated in the header
// partition (default 8 KiB)").
const HeaderReserveDefault = 8 * 1024

// Writer drives a single MXF file end to end: header partition, body
// partitions (via Assembler), and the footer/header-rewrite completion
// path. It chooses between single-pass and two-pass header writing
// depending on whether SetInputDuration was called before Start.
type Writer struct {
	File      mxfio.File
	Registry  *datamodel.Registry
	Graph     *metadata.Graph
	Assembler *Assembler

	KAGSize      int64
	LLen         int
	HeaderReserve int64 // used only in the two-pass path

	durationKnown  bool
	headerPos      int64
	bodyDataStart  int64
	footerPartPos  int64
	started        bool

	// IndexSegment, if set before Complete, is written into the footer
	// partition; the header partition carries no index segment.
	// Callers build it from Assembler.BuildIndexSegment once every
	// content package has been written.
	IndexSegment *indextable.Segment

	// flushedEntryPos records, for every VBE index entry already written to
	// disk by FlushIndexSegment, the file offset of that entry's
	// TemporalOffset byte, keyed by (segment, absolute edit unit). A later
	// BackpatchTemporalOffset call looks here to decide whether the
	// in-memory patch also needs a seek-back-and-rewrite on disk.
	flushedEntryPos map[flushedEntryKey]int64
}

// flushedEntryKey identifies one already-flushed index entry by the segment
// it belongs to and its absolute edit unit number.
type flushedEntryKey struct {
	seg      *indextable.Segment
	editUnit int64
}

// NewWriter creates a Writer. Call SetInputDuration before Start if the
// total edit-unit count is known up front, to take the single-pass path.
func NewWriter(f mxfio.File, registry *datamodel.Registry, g *metadata.Graph, asm *Assembler, kagSize int64, llen int) *Writer {
	return &Writer{
		File:          f,
		Registry:      registry,
		Graph:         g,
		Assembler:     asm,
		KAGSize:       kagSize,
		LLen:          llen,
		HeaderReserve: HeaderReserveDefault,
	}
}

// SetInputDuration marks the total duration as known up front, selecting
// the single-pass header-write path ("If the total duration
// is known up front (set_input_duration), the header is written with
// final durations and the footer just repeats it").
func (w *Writer) SetInputDuration() { w.durationKnown = true }

// Start writes the header partition pack and header metadata. In the
// two-pass path, a fixed-space KLVFill reserve follows the real metadata so
// Complete can rewrite it in place once final durations are known.
func (w *Writer) Start() error {
	if w.started {
		return fmt.Errorf("%w: Start called twice", errs.ErrInvariant)
	}
	w.started = true

	pos, err := w.File.Tell()
	if err != nil {
		return err
	}
	w.headerPos = pos

	status := partition.StatusOpenIncomplete
	if w.durationKnown {
		status = partition.StatusClosedComplete
	}
	pp := &partition.Pack{
		Kind:    partition.KindHeader,
		Status:  status,
		KAGSize: uint32(w.KAGSize),
	}
	if _, err := pp.Write(w.File, w.LLen); err != nil {
		return err
	}

	hmPos, err := w.File.Tell()
	if err != nil {
		return err
	}

	written, err := metadata.WriteHeaderMetadata(w.File, w.Graph, w.LLen)
	if err != nil {
		return err
	}

	if !w.durationKnown {
		// Pad out to the reserved size with a KLVFill item so the eventual
		// rewrite has somewhere to land.
		if written > w.HeaderReserve {
			return fmt.Errorf("%w: header metadata already exceeds the %d byte reserve before any reserve padding was added", errs.ErrHeaderOverflow, w.HeaderReserve)
		}
		padTo := hmPos + w.HeaderReserve
		if _, err := mxfio.WriteKAGFill(w.File, hmPos+written, w.KAGSize, w.LLen); err != nil {
			return err
		}
		cur, err := w.File.Tell()
		if err != nil {
			return err
		}
		if cur < padTo {
			if _, err := w.File.Seek(padTo, mxfio.SeekStart); err != nil {
				return err
			}
		}
	}

	bodyPos, err := w.File.Tell()
	if err != nil {
		return err
	}
	w.bodyDataStart = bodyPos
	return nil
}

// WriteContentPackages drains every ready content package from the
// assembler, opening a new body partition whenever ShouldOpenPartition
// says so.
func (w *Writer) WriteContentPackages(vbePermitsPartitionStart bool) error {
	for w.Assembler.ReadyToAssemble() {
		if w.Assembler.ShouldOpenPartition(vbePermitsPartitionStart) {
			bp := &partition.Pack{
				Kind:    partition.KindBody,
				Status:  partition.StatusOpenIncomplete,
				KAGSize: uint32(w.KAGSize),
			}
			if _, err := bp.Write(w.File, w.LLen); err != nil {
				return err
			}
			w.Assembler.NotePartitionOpened()
		}
		if _, err := w.Assembler.WriteContentPackage(w.File); err != nil {
			return err
		}
	}
	return nil
}

// FlushIndexSegment writes seg as a standalone index table segment KLV item
// at the file's current position, for the incremental RDD-9-style path
// where an index segment is committed to disk as soon as a body partition
// closes rather than held in memory until Complete. It records each VBE
// entry's on-disk TemporalOffset byte position so a subsequent
// BackpatchTemporalOffset call against an edit unit in this segment can
// patch the already-written bytes, not just the in-memory copy.
func (w *Writer) FlushIndexSegment(seg *indextable.Segment) error {
	pos, err := w.File.Tell()
	if err != nil {
		return err
	}
	value := seg.Encode()
	if err := w.File.WriteFixedKL(indextable.IndexSegmentKey, w.LLen, uint64(len(value))); err != nil {
		return err
	}
	if _, err := w.File.Write(value); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	if !seg.IsCBE() {
		valueStart := pos + 16 + int64(w.LLen)
		if w.flushedEntryPos == nil {
			w.flushedEntryPos = make(map[flushedEntryKey]int64)
		}
		for i := range seg.IndexEntryArray {
			key := flushedEntryKey{seg: seg, editUnit: seg.IndexStartPosition + int64(i)}
			w.flushedEntryPos[key] = valueStart + int64(seg.EntryByteOffset(i))
		}
	}
	return nil
}

// BackpatchTemporalOffset sets editUnit's TemporalOffset within seg, both in
// the in-memory IndexEntryArray (via Segment.BackpatchTemporalOffsets) and,
// if FlushIndexSegment already wrote this entry to disk, by seeking back and
// overwriting the single already-written byte ("the harder half" of
// the back-patching mechanism). The file's write cursor is restored
// afterward so the caller can keep appending content packages.
func (w *Writer) BackpatchTemporalOffset(seg *indextable.Segment, editUnit int64, offset int8) error {
	rel := int(editUnit - seg.IndexStartPosition)
	if err := seg.BackpatchTemporalOffsets(rel, []int8{offset}); err != nil {
		return err
	}

	diskOffset, flushed := w.flushedEntryPos[flushedEntryKey{seg: seg, editUnit: editUnit}]
	if !flushed {
		return nil
	}

	cur, err := w.File.Tell()
	if err != nil {
		return err
	}
	if _, err := w.File.Seek(diskOffset, mxfio.SeekStart); err != nil {
		return err
	}
	if err := w.File.PutByte(byte(offset)); err != nil {
		return err
	}
	_, err = w.File.Seek(cur, mxfio.SeekStart)
	return err
}

// Complete finalizes the file: in the single-pass path it just writes the
// footer partition; in the two-pass path it also seeks back and rewrites
// the header metadata with final durations, failing with
// errs.ErrHeaderOverflow if the rewrite no longer fits the reserve. If
// IndexSegment is set (via BuildIndexSegment), it is written into the
// footer partition only; the header partition carries no index segment.
func (w *Writer) Complete() error {
	if !w.durationKnown {
		end, err := w.File.Tell()
		if err != nil {
			return err
		}
		if _, err := w.File.Seek(w.headerPos, mxfio.SeekStart); err != nil {
			return err
		}
		pp := &partition.Pack{
			Kind:    partition.KindHeader,
			Status:  partition.StatusClosedComplete,
			KAGSize: uint32(w.KAGSize),
		}
		if _, err := pp.Write(w.File, w.LLen); err != nil {
			return err
		}
		hmPos, err := w.File.Tell()
		if err != nil {
			return err
		}
		written, err := metadata.WriteHeaderMetadata(w.File, w.Graph, w.LLen)
		if err != nil {
			return err
		}
		if written > w.HeaderReserve {
			return fmt.Errorf("%w: rewritten header metadata is %d bytes, reserve was %d", errs.ErrHeaderOverflow, written, w.HeaderReserve)
		}
		if _, err := mxfio.WriteKAGFill(w.File, hmPos+written, w.KAGSize, w.LLen); err != nil {
			return err
		}
		if _, err := w.File.Seek(end, mxfio.SeekStart); err != nil {
			return err
		}
	}

	var indexValue []byte
	if w.IndexSegment != nil {
		indexValue = w.IndexSegment.Encode()
	}

	fp := &partition.Pack{
		Kind:    partition.KindFooter,
		Status:  partition.StatusClosedComplete,
		KAGSize: uint32(w.KAGSize),
	}
	if indexValue != nil {
		fp.IndexByteCount = uint64(16 + w.LLen + len(indexValue))
		fp.IndexSID = w.IndexSegment.IndexSID
		fp.BodySID = w.IndexSegment.BodySID
	}
	if _, err := fp.Write(w.File, w.LLen); err != nil {
		return err
	}
	if indexValue != nil {
		if err := w.File.WriteFixedKL(indextable.IndexSegmentKey, w.LLen, uint64(len(indexValue))); err != nil {
			return err
		}
		if _, err := w.File.Write(indexValue); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
	}
	if w.durationKnown {
		if _, err := metadata.WriteHeaderMetadata(w.File, w.Graph, w.LLen); err != nil {
			return err
		}
	}
	return nil
}
