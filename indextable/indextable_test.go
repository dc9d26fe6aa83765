package indextable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSegmentIsCBE(t *testing.T) {
	cbe := &Segment{EditUnitByteCount: 1000}
	require.True(t, cbe.IsCBE())

	vbe := &Segment{}
	require.False(t, vbe.IsCBE())
}

func TestSegmentEncodeDecodeCBERoundTrip(t *testing.T) {
	s := &Segment{
		IndexEditRateNum:  25,
		IndexEditRateDen:  1,
		IndexDuration:     10,
		EditUnitByteCount: 4096,
		IndexSID:          2,
		BodySID:           1,
		DeltaEntryArray: []DeltaEntry{
			{PosTableIndex: -1, Slice: 0, ElementDelta: 0},
		},
	}

	value := s.Encode()
	got, err := Decode(value)
	require.NoError(t, err)
	require.Equal(t, s.IndexEditRateNum, got.IndexEditRateNum)
	require.Equal(t, s.EditUnitByteCount, got.EditUnitByteCount)
	require.True(t, got.IsCBE())
	require.Empty(t, got.IndexEntryArray)
	require.Equal(t, s.DeltaEntryArray, got.DeltaEntryArray)
}

func TestSegmentEncodeDecodeVBERoundTrip(t *testing.T) {
	s := &Segment{
		IndexEditRateNum: 25,
		IndexEditRateDen: 1,
		IndexDuration:    3,
		IndexSID:         2,
		BodySID:          1,
		SliceCount:       0,
		PosTableCount:    0,
		IndexEntryArray: []IndexEntry{
			{TemporalOffset: 0, KeyFrameOffset: 0, Flags: 0x80, StreamOffset: 0},
			{TemporalOffset: 1, KeyFrameOffset: -1, Flags: 0x00, StreamOffset: 2000},
			{TemporalOffset: -1, KeyFrameOffset: -2, Flags: 0x00, StreamOffset: 4500},
		},
	}

	value := s.Encode()
	got, err := Decode(value)
	require.NoError(t, err)
	require.False(t, got.IsCBE())
	require.Equal(t, s.IndexEntryArray, got.IndexEntryArray)
}

func TestSegmentLookupCBE(t *testing.T) {
	s := &Segment{EditUnitByteCount: 500, IndexStartPosition: 10, IndexDuration: 5}

	off, ok := s.LookupCBE(12)
	require.True(t, ok)
	require.Equal(t, uint64(1000), off)

	_, ok = s.LookupCBE(9)
	require.False(t, ok)

	_, ok = s.LookupCBE(15)
	require.False(t, ok)
}

func TestSegmentLookupVBE(t *testing.T) {
	s := &Segment{
		IndexStartPosition: 0,
		IndexEntryArray: []IndexEntry{
			{StreamOffset: 0},
			{StreamOffset: 1024},
		},
	}

	e, ok := s.LookupVBE(1)
	require.True(t, ok)
	require.Equal(t, uint64(1024), e.StreamOffset)

	_, ok = s.LookupVBE(5)
	require.False(t, ok)
}

func TestBackpatchTemporalOffsets(t *testing.T) {
	s := &Segment{
		IndexEntryArray: make([]IndexEntry, 4),
	}
	require.NoError(t, s.BackpatchTemporalOffsets(1, []int8{2, -1}))
	require.Equal(t, int8(0), s.IndexEntryArray[0].TemporalOffset)
	require.Equal(t, int8(2), s.IndexEntryArray[1].TemporalOffset)
	require.Equal(t, int8(-1), s.IndexEntryArray[2].TemporalOffset)
	require.Equal(t, int8(0), s.IndexEntryArray[3].TemporalOffset)
}

func TestBackpatchTemporalOffsetsOutOfBounds(t *testing.T) {
	s := &Segment{IndexEntryArray: make([]IndexEntry, 2)}
	err := s.BackpatchTemporalOffsets(1, []int8{1, 2})
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedValue(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
}
