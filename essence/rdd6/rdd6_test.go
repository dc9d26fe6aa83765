package rdd6

import (
	"encoding/binary"
	"testing"

	"github.com/bmx-go/bmx/essence"
	"github.com/stretchr/testify/require"
)

func TestParseFrameStartFindsSyncWord(t *testing.T) {
	p := NewParser()
	data := make([]byte, 6)
	binary.BigEndian.PutUint16(data[2:4], SyncWordFrame)
	off, err := p.ParseFrameStart(data)
	require.NoError(t, err)
	require.Equal(t, 2, off)
}

func TestParseFrameStartReturnsNullOffsetWithoutSyncWord(t *testing.T) {
	p := NewParser()
	off, err := p.ParseFrameStart(make([]byte, 4))
	require.NoError(t, err)
	require.Equal(t, essence.NullOffset, off)
}

func TestParseFrameSizeFindsEndSyncWord(t *testing.T) {
	p := NewParser()
	data := make([]byte, 20)
	binary.BigEndian.PutUint16(data[0:2], SyncWordFrame)
	binary.BigEndian.PutUint16(data[10:12], SyncWordEnd)
	size, err := p.ParseFrameSize(data)
	require.NoError(t, err)
	require.Equal(t, 12, size)
}

func TestParseFrameSizeRejectsMissingLeadSync(t *testing.T) {
	p := NewParser()
	size, err := p.ParseFrameSize(make([]byte, 20))
	require.NoError(t, err)
	require.Equal(t, essence.NullFrameSize, size)
}

func TestParseFrameInfoDecodesSyncSegmentAndDataSegments(t *testing.T) {
	p := NewParser()

	// frame: [sync(2)][time address(4)][seg: type(1)+len(2)+payload(3)][end sync(2)]
	data := make([]byte, 2+4+1+2+3+2)
	binary.BigEndian.PutUint16(data[0:2], SyncWordFrame)
	binary.BigEndian.PutUint32(data[2:6], 0x01020304)
	data[6] = byte(SegmentDolbyEComplete)
	binary.BigEndian.PutUint16(data[7:9], 3)
	copy(data[9:12], []byte{0xAA, 0xBB, 0xCC})
	binary.BigEndian.PutUint16(data[12:14], SyncWordEnd)

	require.NoError(t, p.ParseFrameInfo(data, len(data)))
	require.Equal(t, uint32(0x01020304), p.Last.SMPTETimeAddress)
	require.Len(t, p.Last.Segments, 1)
	require.Equal(t, SegmentDolbyEComplete, p.Last.Segments[0].Type)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC}, p.Last.Segments[0].Payload)
}

func TestParseFrameInfoRejectsMissingEndSync(t *testing.T) {
	p := NewParser()
	data := make([]byte, 10)
	binary.BigEndian.PutUint16(data[0:2], SyncWordFrame)
	err := p.ParseFrameInfo(data, len(data))
	require.Error(t, err)
}

func TestToXMLAndMarshalXMLCarryFields(t *testing.T) {
	f := Frame{
		SMPTETimeAddress: 42,
		Segments: []DataSegment{
			{Type: SegmentDolbyEEssential, Payload: []byte{0x01, 0xFF}},
		},
	}
	out, err := MarshalXML(f)
	require.NoError(t, err)
	require.Contains(t, string(out), "SMPTETimeAddress")
	require.Contains(t, string(out), "01ff")
}
