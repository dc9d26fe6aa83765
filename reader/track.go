package reader

import (
	"fmt"
	"io"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/mxfio"
	"github.com/bmx-go/bmx/timecode"
)

// Frame is one decoded edit unit's essence byte range plus whatever
// metadata a FrameMetadataReader could attach to it.
type Frame struct {
	Data []byte

	Timecodes       []timecode.Timecode
	CRC32           uint32
	HasCRC32        bool
	PackageMetadata []byte // raw SDTI-CP package-metadata-block payload, if present
}

// PrechargeRollout describes how many extra edit units before/after a
// requested read range a long-GOP codec needs decoded for correct output,
// computed from the codec's maximum GOP structure.
type PrechargeRollout struct {
	Precharge int64
	Rollout   int64
}

// TrackReader is a per-track random-access reader over one FileReader's
// essence and index data.
type TrackReader struct {
	file     *FileReader
	bodySID  uint32
	indexSID uint32

	metadataReader *FrameMetadataReader

	pos int64 // current edit-unit position

	// sampleSequence converts between edit-unit position and essence
	// sample count for tracks whose cadence is not 1:1.
	sampleSequence []int
}

// NewTrackReader creates a TrackReader bound to bodySID/indexSID within
// file.
func NewTrackReader(file *FileReader, bodySID, indexSID uint32) *TrackReader {
	return &TrackReader{
		file:           file,
		bodySID:        bodySID,
		indexSID:       indexSID,
		sampleSequence: []int{1},
	}
}

// SetMetadataReader attaches a FrameMetadataReader used to decorate frames
// returned by Read with timecodes, checksums and package metadata.
func (t *TrackReader) SetMetadataReader(m *FrameMetadataReader) { t.metadataReader = m }

// Position returns the current edit-unit position.
func (t *TrackReader) Position() int64 { return t.pos }

// Seek repositions the track reader to editUnit without reading any
// essence ("seek(edit-unit)").
func (t *TrackReader) Seek(editUnit int64) error {
	if editUnit < 0 {
		return fmt.Errorf("%w: negative edit unit %d", errs.ErrInvariant, editUnit)
	}
	t.pos = editUnit
	return nil
}

// Read reads n edit units starting at the current position, advancing the
// position by exactly n regardless of any individual edit unit's length or
// absence (invariant: "read(n) on a track reader advances its
// position by exactly n samples, even if some samples are zeros").
func (t *TrackReader) Read(n int64) ([]Frame, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read count %d", errs.ErrInvariant, n)
	}
	frames := make([]Frame, 0, n)
	for i := int64(0); i < n; i++ {
		f, err := t.readOne(t.pos + i)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	t.pos += n
	return frames, nil
}

func (t *TrackReader) readOne(editUnit int64) (Frame, error) {
	offset, length, ok := t.lookup(editUnit)
	if !ok {
		// Missing edit unit (dropped track, short file): return a
		// zero-length frame rather than fail the whole read, per the
		// "even if some samples are zeros" invariant.
		return Frame{}, nil
	}

	data := make([]byte, length)
	if length > 0 {
		if _, err := t.file.File.Seek(offset, mxfio.SeekStart); err != nil {
			return Frame{}, err
		}
		if _, err := io.ReadFull(t.file.File, data); err != nil {
			return Frame{}, fmt.Errorf("%w: reading essence at edit unit %d: %v", errs.ErrIO, editUnit, err)
		}
	}

	frame := Frame{Data: data}
	if t.metadataReader != nil {
		t.metadataReader.Attach(&frame, data)
	}
	return frame, nil
}

// lookup resolves editUnit's stream offset and length, preferring an index
// segment (CBE or VBE) and falling back to the linear essence scan
// FileReader.Open already performed.
func (t *TrackReader) lookup(editUnit int64) (offset int64, length uint64, ok bool) {
	for _, seg := range t.file.IndexSegmentsFor(t.indexSID) {
		if seg.IsCBE() {
			if off, ok := seg.LookupCBE(editUnit); ok {
				return bodyStart(t.file, t.bodySID) + int64(off), uint64(seg.EditUnitByteCount), true
			}
			continue
		}
		if entry, ok := seg.LookupVBE(editUnit); ok {
			return bodyStart(t.file, t.bodySID) + int64(entry.StreamOffset), 0, true
		}
	}

	elements := t.file.EssenceElementsFor(t.bodySID)
	if editUnit < 0 || int(editUnit) >= len(elements) {
		return 0, 0, false
	}
	el := elements[editUnit]
	return el.Offset, el.Length, true
}

// bodyStart returns the file offset of bodySID's essence container start,
// used to convert an index entry's partition-relative StreamOffset into an
// absolute file offset. bmx's own writer always opens exactly one body
// partition per BodySID that does not get interleaved with other BodySIDs,
// so the first scanned element's offset anchors the whole stream.
func bodyStart(f *FileReader, bodySID uint32) int64 {
	elements := f.EssenceElementsFor(bodySID)
	if len(elements) == 0 {
		return 0
	}
	return elements[0].Offset
}

// ComputePrechargeRollout derives the precharge/rollout needed to decode
// correctly from position start, given the track's maximum GOP size and
// its closed/open-GOP structure. An all-intra track (gopSize
// 1) never needs either.
func ComputePrechargeRollout(gopSize int, closedGOP bool) PrechargeRollout {
	if gopSize <= 1 {
		return PrechargeRollout{}
	}
	precharge := int64(gopSize - 1)
	rollout := int64(0)
	if !closedGOP {
		rollout = int64(gopSize - 1)
	}
	return PrechargeRollout{Precharge: precharge, Rollout: rollout}
}
