package dv

import (
	"testing"

	"github.com/bmx-go/bmx/essence"
	"github.com/stretchr/testify/require"
)

func makeHeaderDIF(apt byte, is50Hz, aspect16x9 bool) []byte {
	data := make([]byte, difBlockSize)
	data[0] = 0x1f
	b3 := apt & 0x07
	if aspect16x9 {
		b3 |= 1 << 3
	}
	if !is50Hz {
		b3 |= 1 << 7
	}
	data[3] = b3
	return data
}

func TestIdentifyDV25_625_50(t *testing.T) {
	info, err := identify(makeHeaderDIF(0, true, false))
	require.NoError(t, err)
	require.Equal(t, VariantDV25_625_50, info.Variant)
	require.Equal(t, 144000, info.FrameSize)
	require.True(t, info.Is50Hz)
}

func TestIdentifyDV100_720p60(t *testing.T) {
	info, err := identify(makeHeaderDIF(6, false, true))
	require.NoError(t, err)
	require.Equal(t, VariantDV100_720p60, info.Variant)
	require.Equal(t, 240000, info.FrameSize)
	require.True(t, info.AspectRatio16x9)
}

func TestIdentifyRejectsNonHeaderBlock(t *testing.T) {
	data := make([]byte, difBlockSize)
	data[0] = 0x00
	_, err := identify(data)
	require.Error(t, err)
}

func TestIdentifyRejectsUnknownAPT(t *testing.T) {
	_, err := identify(makeHeaderDIF(7, true, false))
	require.Error(t, err)
}

func TestParserParseFrameStartWaitsForFullBlock(t *testing.T) {
	p := NewParser()
	off, err := p.ParseFrameStart(make([]byte, difBlockSize-1))
	require.NoError(t, err)
	require.Equal(t, essence.NullOffset, off)

	off, err = p.ParseFrameStart(make([]byte, difBlockSize))
	require.NoError(t, err)
	require.Equal(t, 0, off)
}

func TestParserParseFrameSizeReturnsFixedVariantSize(t *testing.T) {
	p := NewParser()
	data := make([]byte, 144000)
	copy(data, makeHeaderDIF(0, true, false))

	size, err := p.ParseFrameSize(data)
	require.NoError(t, err)
	require.Equal(t, 144000, size)
}

func TestParserParseFrameInfoRecordsLast(t *testing.T) {
	p := NewParser()
	data := make([]byte, 144000)
	copy(data, makeHeaderDIF(0, true, true))

	require.NoError(t, p.ParseFrameInfo(data, 144000))
	require.Equal(t, VariantDV25_625_50, p.Last.Variant)
	require.True(t, p.Last.AspectRatio16x9)
}

func TestParserParseFrameInfoRejectsOversizedRequest(t *testing.T) {
	p := NewParser()
	data := make([]byte, difBlockSize)
	err := p.ParseFrameInfo(data, difBlockSize+1)
	require.Error(t, err)
}
