package writer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bmx-go/bmx/datamodel"
	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/indextable"
	"github.com/bmx-go/bmx/metadata"
	"github.com/bmx-go/bmx/mxfio"
)

func newTestGraph(t *testing.T) *metadata.Graph {
	t.Helper()
	registry := datamodel.BaselineRegistry()
	g := metadata.NewGraph(registry)
	preface := metadata.NewPreface([16]byte{1}, [16]byte{2}, [16]byte{3})
	require.NoError(t, g.Add(preface))
	return g
}

func TestWriterSinglePassRoundTrip(t *testing.T) {
	g := newTestGraph(t)
	picture := NewTrack(KindOP1A, ClassPicture, NewElementKey(0x15), 1, 2)
	asm := NewAssembler([]*Track{picture}, 512, 4)

	f := mxfio.NewMemoryFile(4096)
	w := NewWriter(f, g.Registry, g, asm, 512, 4)
	w.SetInputDuration()

	require.NoError(t, w.Start())
	require.NoError(t, picture.WriteSamples([]byte{1, 2, 3}, 1))
	require.NoError(t, w.WriteContentPackages(true))
	require.NoError(t, w.Complete())

	size, err := f.Size()
	require.NoError(t, err)
	require.Greater(t, size, int64(0))
}

func TestWriterTwoPassRoundTripRewritesHeader(t *testing.T) {
	g := newTestGraph(t)
	picture := NewTrack(KindOP1A, ClassPicture, NewElementKey(0x15), 1, 2)
	asm := NewAssembler([]*Track{picture}, 512, 4)

	f := mxfio.NewMemoryFile(4096)
	w := NewWriter(f, g.Registry, g, asm, 512, 4)
	// durationKnown left false: exercises the two-pass reserve/rewrite path.

	require.NoError(t, w.Start())
	require.NoError(t, picture.WriteSamples([]byte{1, 2, 3, 4}, 1))
	require.NoError(t, w.WriteContentPackages(true))
	require.NoError(t, w.Complete())

	size, err := f.Size()
	require.NoError(t, err)
	require.Greater(t, size, int64(0))
}

func TestWriterStartCalledTwiceFails(t *testing.T) {
	g := newTestGraph(t)
	asm := NewAssembler(nil, 512, 4)
	f := mxfio.NewMemoryFile(4096)
	w := NewWriter(f, g.Registry, g, asm, 512, 4)

	require.NoError(t, w.Start())
	require.Error(t, w.Start())
}

func TestWriterHeaderOverflowWhenReserveTooSmall(t *testing.T) {
	g := newTestGraph(t)
	asm := NewAssembler(nil, 512, 4)
	f := mxfio.NewMemoryFile(4096)
	w := NewWriter(f, g.Registry, g, asm, 512, 4)
	w.HeaderReserve = 1

	err := w.Start()
	require.ErrorIs(t, err, errs.ErrHeaderOverflow)
}

func TestWriterCompleteWritesCBEIndexSegmentIntoFooter(t *testing.T) {
	g := newTestGraph(t)
	picture := NewTrack(KindOP1A, ClassPicture, NewElementKey(0x15), 1, 2)
	asm := NewAssembler([]*Track{picture}, 512, 4)

	f := mxfio.NewMemoryFile(4096)
	w := NewWriter(f, g.Registry, g, asm, 512, 4)
	w.SetInputDuration()

	require.NoError(t, w.Start())
	for i := 0; i < 3; i++ {
		require.NoError(t, picture.WriteSamples([]byte{1, 2, 3, 4}, 1))
		require.NoError(t, w.WriteContentPackages(true))
	}

	seg := asm.BuildIndexSegment(2, 1, 25, 1, 0)
	require.True(t, seg.IsCBE())
	w.IndexSegment = seg

	require.NoError(t, w.Complete())

	size, err := f.Size()
	require.NoError(t, err)
	require.Greater(t, size, int64(0))
}

func TestWriterFlushIndexSegmentThenBackpatchPatchesDisk(t *testing.T) {
	g := newTestGraph(t)
	asm := NewAssembler(nil, 512, 4)
	f := mxfio.NewMemoryFile(4096)
	w := NewWriter(f, g.Registry, g, asm, 512, 4)

	seg := &indextable.Segment{
		IndexEditRateNum:   25,
		IndexEditRateDen:   1,
		IndexStartPosition: 0,
		IndexDuration:      2,
		IndexSID:           2,
		BodySID:            1,
		IndexEntryArray: []indextable.IndexEntry{
			{TemporalOffset: 0, StreamOffset: 0},
			{TemporalOffset: 0, StreamOffset: 100},
		},
	}
	require.False(t, seg.IsCBE())

	require.NoError(t, w.FlushIndexSegment(seg))
	cursorAfterFlush, err := f.Tell()
	require.NoError(t, err)

	require.NoError(t, w.BackpatchTemporalOffset(seg, 1, -1))
	require.EqualValues(t, -1, seg.IndexEntryArray[1].TemporalOffset)

	cursorAfterPatch, err := f.Tell()
	require.NoError(t, err)
	require.Equal(t, cursorAfterFlush, cursorAfterPatch)

	diskOffset := w.flushedEntryPos[flushedEntryKey{seg: seg, editUnit: 1}]
	_, err = f.Seek(diskOffset, mxfio.SeekStart)
	require.NoError(t, err)
	b, err := f.GetByte()
	require.NoError(t, err)
	require.Equal(t, byte(0xff), b) // -1 as a two's complement byte

	_, err = f.Seek(cursorAfterFlush, mxfio.SeekStart)
	require.NoError(t, err)
}

func TestWriterBackpatchTemporalOffsetWithoutFlushOnlyUpdatesMemory(t *testing.T) {
	g := newTestGraph(t)
	asm := NewAssembler(nil, 512, 4)
	f := mxfio.NewMemoryFile(4096)
	w := NewWriter(f, g.Registry, g, asm, 512, 4)

	seg := &indextable.Segment{
		IndexStartPosition: 0,
		IndexDuration:      1,
		IndexEntryArray:    []indextable.IndexEntry{{StreamOffset: 0}},
	}

	require.NoError(t, w.BackpatchTemporalOffset(seg, 0, 2))
	require.EqualValues(t, 2, seg.IndexEntryArray[0].TemporalOffset)
	require.Empty(t, w.flushedEntryPos)
}
