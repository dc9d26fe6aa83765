// Package writer implements the content-package assembler: per-track
// sample buffering, fixed element ordering, KAG-aligned partitioning
// policy, and the single-pass/two-pass header-metadata write bmx uses
// depending on whether the caller knows the total duration up front.
package writer

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/indextable"
	"github.com/bmx-go/bmx/internal/pool"
	"github.com/bmx-go/bmx/klv"
)

// Kind names the operational-pattern-family track flavour a Track was
// registered as ("the writer registers an OP1ATrack or
// D10Track or RDD9Track").
type Kind int

const (
	KindOP1A Kind = iota
	KindD10
	KindRDD9
)

// ElementClass orders elements within a content package: system item (if
// enabled), then picture elements (in track-registration order), then
// sound elements, then data elements.
type ElementClass int

const (
	ClassSystem ElementClass = iota
	ClassPicture
	ClassSound
	ClassData
)

// Track is one registered essence track: its element key, sample-sequence
// shape (for clip-wrapped-into-frame-wrapped conversion, e.g. 1001/48000
// audio cadence), and the pending-sample buffer write_samples fills until
// a complete edit unit is available.
type Track struct {
	Kind               Kind
	Class              ElementClass
	RegistrationOrder  int
	ElementKey         klv.Key
	EssenceContainerUL klv.Key
	BodySID            uint32
	IndexSID           uint32
	IsCBE              bool
	FixedEditUnitSize  uint32 // valid when IsCBE

	// SampleSequence gives the number of essence samples per edit unit when
	// that count is not constant (e.g. 1602/1601/1602/1601/1602 NTSC audio
	// cadence); len 1 means a constant count. Built by SampleSequenceFor, or
	// installed directly through SetSampleSequence, which validates that it
	// tiles the track's edit rate and sample rate exactly.
	SampleSequence []int
	sequencePos    int

	pending          *pool.ByteBuffer
	bytesInPending   int
	buffered         [][]byte // complete edit-unit payloads not yet flushed to a content package
	samplesInPending int
}

// NewTrack creates a Track. elementNumber (the essence-key suffix) is
// assigned later, once every track is known, by AssignElementNumbers
// ("Essence-element keys are finalized when all tracks are
// known").
func NewTrack(kind Kind, class ElementClass, ec klv.Key, bodySID, indexSID uint32) *Track {
	return &Track{
		Kind:               kind,
		Class:              class,
		ElementKey:         ec,
		EssenceContainerUL: ec,
		BodySID:            bodySID,
		IndexSID:           indexSID,
		SampleSequence:     []int{1},
		pending:            pool.NewByteBuffer(pool.EditUnitBufferDefaultSize),
	}
}

// SampleSequenceFor computes the per-edit-unit sample cadence that tiles an
// editRateNum/editRateDen edit rate exactly against a
// sampleRateNum/sampleRateDen essence sample rate, e.g. the 1602/1601 NTSC
// audio cadence a 48kHz track needs under 30000/1001 fps. The sequence
// length is the smallest number of edit units over which the cadence
// repeats; summed once over that length it always equals a whole number of
// samples.
func SampleSequenceFor(editRateNum, editRateDen, sampleRateNum, sampleRateDen int64) ([]int, error) {
	if editRateNum <= 0 || editRateDen <= 0 || sampleRateNum <= 0 || sampleRateDen <= 0 {
		return nil, fmt.Errorf("%w: edit rate and sample rate must be positive", errs.ErrInvariant)
	}

	num := sampleRateNum * editRateDen
	den := sampleRateDen * editRateNum
	g := gcdInt64(num, den)
	num /= g
	den /= g

	seq := make([]int, den)
	var prevCum int64
	for i := int64(1); i <= den; i++ {
		// Round i*num/den to the nearest integer (ties round up) so the
		// cumulative sample count never drifts from the true rate; the
		// count for edit unit i-1 is the increment since the last one.
		cum := (2*i*num + den) / (2 * den)
		seq[i-1] = int(cum - prevCum)
		prevCum = cum
	}
	return seq, nil
}

func gcdInt64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ValidateSampleSequence reports ErrSampleSequenceMismatch if seq does not
// tile editRateNum/editRateDen exactly at sampleRateNum/sampleRateDen: the
// total sample count across one full pass of seq must equal the sample
// count len(seq) edit units are worth at the stated rates.
func ValidateSampleSequence(seq []int, editRateNum, editRateDen, sampleRateNum, sampleRateDen int64) error {
	if len(seq) == 0 {
		return fmt.Errorf("%w: empty sample sequence", errs.ErrSampleSequenceMismatch)
	}
	if editRateNum <= 0 || editRateDen <= 0 || sampleRateNum <= 0 || sampleRateDen <= 0 {
		return fmt.Errorf("%w: edit rate and sample rate must be positive", errs.ErrInvariant)
	}

	var total int64
	for _, n := range seq {
		if n < 0 {
			return fmt.Errorf("%w: negative sample count %d", errs.ErrSampleSequenceMismatch, n)
		}
		total += int64(n)
	}

	lhs := total * editRateNum * sampleRateDen
	rhs := int64(len(seq)) * editRateDen * sampleRateNum
	if lhs != rhs {
		return fmt.Errorf("%w: %d samples over %d edit units does not tile the %d/%d edit rate at %d/%d samples/sec",
			errs.ErrSampleSequenceMismatch, total, len(seq), editRateNum, editRateDen, sampleRateNum, sampleRateDen)
	}
	return nil
}

// SetSampleSequence validates seq against the track's edit rate and sample
// rate before installing it, returning ErrSampleSequenceMismatch rather than
// letting a cadence that doesn't tile silently desync WriteSamples.
func (t *Track) SetSampleSequence(seq []int, editRateNum, editRateDen, sampleRateNum, sampleRateDen int64) error {
	if err := ValidateSampleSequence(seq, editRateNum, editRateDen, sampleRateNum, sampleRateDen); err != nil {
		return err
	}
	t.SampleSequence = seq
	t.sequencePos = 0
	return nil
}

// samplesPerEditUnit returns the track's next expected sample count,
// advancing the sample-sequence cursor ("buffered in
// sample-sequence-aware chunks").
func (t *Track) samplesPerEditUnit() int {
	n := t.SampleSequence[t.sequencePos%len(t.SampleSequence)]
	t.sequencePos++
	return n
}

// WriteSamples appends numSamples worth of essence data to the track's
// pending buffer, flushing complete edit units into Track.buffered as soon
// as the sample-sequence count for the current edit unit is reached
// ("write_samples(data, size, num_samples)"). A single call may
// complete more than one edit unit (e.g. a caller that always hands over a
// whole NTSC audio cadence cycle at once); each is split off at its own
// byte offset rather than folding the whole call into one edit unit.
func (t *Track) WriteSamples(data []byte, numSamples int) error {
	if numSamples <= 0 {
		return fmt.Errorf("%w: WriteSamples called with non-positive sample count", errs.ErrInvariant)
	}
	if len(data)%numSamples != 0 {
		return fmt.Errorf("%w: data length %d is not a multiple of numSamples %d", errs.ErrInvariant, len(data), numSamples)
	}
	bytesPerSample := len(data) / numSamples

	t.pending.Write(data)
	t.bytesInPending += len(data)
	t.samplesInPending += numSamples

	for t.samplesInPending >= t.SampleSequence[t.sequencePos%len(t.SampleSequence)] {
		expected := t.samplesPerEditUnit()
		t.flushEditUnit(expected * bytesPerSample)
		t.samplesInPending -= expected
	}
	return nil
}

// flushEditUnit splits the next byteCount bytes off the front of the
// pending buffer into a complete edit unit, keeping whatever remains
// pending for the next partial edit unit instead of discarding it.
func (t *Track) flushEditUnit(byteCount int) {
	pending := t.pending.Bytes()
	eu := append([]byte(nil), pending[:byteCount]...)
	t.buffered = append(t.buffered, eu)

	remainder := append([]byte(nil), pending[byteCount:]...)
	t.pending.Reset()
	t.pending.Write(remainder)
	t.bytesInPending -= byteCount
}

// HasEditUnit reports whether a complete edit unit is buffered and ready
// to be folded into a content package.
func (t *Track) HasEditUnit() bool {
	return len(t.buffered) > 0
}

// PopEditUnit removes and returns the oldest buffered edit unit.
func (t *Track) PopEditUnit() []byte {
	eu := t.buffered[0]
	t.buffered = t.buffered[1:]
	return eu
}

// IndexEntryFor builds the index table entry for a just-popped VBE edit
// unit; CBE tracks never call this since their size is derivable from
// FixedEditUnitSize alone.
func (t *Track) IndexEntryFor(streamOffset uint64, keyFrameOffset int8, flags uint8) indextable.IndexEntry {
	return indextable.IndexEntry{
		KeyFrameOffset: keyFrameOffset,
		Flags:          flags,
		StreamOffset:   streamOffset,
	}
}
