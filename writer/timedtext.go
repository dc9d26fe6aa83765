package writer

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/klv"
	"github.com/bmx-go/bmx/mxfio"
	"github.com/bmx-go/bmx/partition"
)

// ResourceProvider supplies an ancillary timed-text resource's bytes
// on demand ("ancillary resources (fonts, images) each in
// their own stream partitions"). Implementations read from wherever the
// resource actually lives (disk, memory, a packaged archive) — the writer
// only needs the size up front and a way to stream the bytes once.
type ResourceProvider interface {
	Size() (int64, error)
	WriteTo(f mxfio.File) (int64, error)
}

// TimedTextResource names one ancillary resource and the stream it gets
// written into.
type TimedTextResource struct {
	BodySID  uint32
	Provider ResourceProvider
}

// TimedTextTrack writes a single clip-wrapped timed-text value into its own
// stream partition (its own BodySID/IndexSID, distinct from the generic
// essence container), followed by each ancillary resource in its own
// stream partition. A non-zero StartOffset is realized as a
// pre-roll filler item so playback position zero still lines up with the
// track's edit rate.
type TimedTextTrack struct {
	ElementKey  klv.Key
	BodySID     uint32
	IndexSID    uint32
	StartOffset int64 // edit units of pre-roll filler before the value
	KAGSize     int64
	LLen        int
}

// WriteValue writes the timed-text track's own stream partition, a
// pre-roll filler sized by StartOffset if non-zero, then the single
// clip-wrapped value.
func (t *TimedTextTrack) WriteValue(f mxfio.File, value []byte) error {
	pp := &partition.Pack{
		Kind:     partition.KindBody,
		Status:   partition.StatusClosedComplete,
		KAGSize:  uint32(t.KAGSize),
		BodySID:  t.BodySID,
		IndexSID: t.IndexSID,
	}
	if _, err := pp.Write(f, t.LLen); err != nil {
		return err
	}

	if t.StartOffset > 0 {
		if err := writeFillerValue(f, t.StartOffset); err != nil {
			return err
		}
	}

	if err := f.WriteFixedKL(t.ElementKey, t.LLen, uint64(len(value))); err != nil {
		return err
	}
	if _, err := f.Write(value); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

// writeFillerValue writes a KLVFill item sized to represent n edit units
// of pre-roll silence ahead of a clip-wrapped value. bmx encodes the pre-roll
// length directly in the fill item rather than synthesizing n empty
// samples, since a clip-wrapped track has no per-edit-unit framing to
// preserve.
func writeFillerValue(f mxfio.File, editUnits int64) error {
	if editUnits <= 0 {
		return fmt.Errorf("%w: non-positive pre-roll edit unit count", errs.ErrInvariant)
	}
	if err := f.WriteFixedKL(klv.FillKey, 4, uint64(editUnits)); err != nil {
		return err
	}
	_, err := f.Write(make([]byte, editUnits))
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

// WriteResources writes each ancillary resource into its own stream
// partition, in order.
func WriteResources(f mxfio.File, resources []TimedTextResource, kagSize int64, llen int) error {
	for _, r := range resources {
		size, err := r.Provider.Size()
		if err != nil {
			return err
		}
		pp := &partition.Pack{
			Kind:     partition.KindBody,
			Status:   partition.StatusClosedComplete,
			KAGSize:  uint32(kagSize),
			BodySID:  r.BodySID,
			IndexSID: 0,
		}
		if _, err := pp.Write(f, llen); err != nil {
			return err
		}
		n, err := r.Provider.WriteTo(f)
		if err != nil {
			return err
		}
		if n != size {
			return fmt.Errorf("%w: ancillary resource reported size %d but wrote %d", errs.ErrInvariant, size, n)
		}
	}
	return nil
}
