package vc3

import (
	"encoding/binary"
	"testing"

	"github.com/bmx-go/bmx/essence"
	"github.com/stretchr/testify/require"
)

func makeHeader(compID int, width, height uint16, progressive bool, bitDepth10 bool) []byte {
	data := make([]byte, headerSize)
	copy(data[0:4], frameHeaderMagic[:])
	binary.BigEndian.PutUint16(data[24:26], height)
	binary.BigEndian.PutUint16(data[26:28], width)
	if !progressive {
		data[28] = 0x20
	}
	if bitDepth10 {
		data[33] = 0x08
	}
	binary.BigEndian.PutUint32(data[40:44], uint32(compID))
	return data
}

func TestParseFrameStartRequiresMagic(t *testing.T) {
	p := NewParser()
	data := make([]byte, headerSize)
	off, err := p.ParseFrameStart(data)
	require.NoError(t, err)
	require.Equal(t, essence.NullFrameSize, off)

	data = makeHeader(1238, 1920, 1080, true, false)
	off, err = p.ParseFrameStart(data)
	require.NoError(t, err)
	require.Equal(t, 0, off)
}

func TestParseFrameSizeLooksUpFixedSizeByCompressionID(t *testing.T) {
	p := NewParser()
	data := makeHeader(1238, 1920, 1080, true, false)
	data = append(data, make([]byte, frameSizeByCompressionID[1238]-len(data))...)

	size, err := p.ParseFrameSize(data)
	require.NoError(t, err)
	require.Equal(t, 917504, size)
}

func TestParseFrameSizeUnknownCompressionIDReturnsNullFrameSize(t *testing.T) {
	p := NewParser()
	data := makeHeader(9999, 1920, 1080, true, false)
	size, err := p.ParseFrameSize(data)
	require.NoError(t, err)
	require.Equal(t, essence.NullFrameSize, size)
}

func TestParseFrameInfoDecodesDimensionsAndBitDepth(t *testing.T) {
	p := NewParser()
	data := makeHeader(1238, 1920, 1080, false, true)

	require.NoError(t, p.ParseFrameInfo(data, headerSize))
	require.Equal(t, 1238, p.Last.CompressionID)
	require.Equal(t, uint32(1920), p.Last.Width)
	require.Equal(t, uint32(1080), p.Last.Height)
	require.False(t, p.Last.Progressive)
	require.Equal(t, 10, p.Last.BitDepth)
}

func TestParseFrameInfoRejectsMissingMagic(t *testing.T) {
	p := NewParser()
	data := make([]byte, headerSize)
	err := p.ParseFrameInfo(data, headerSize)
	require.Error(t, err)
}

func TestParseFrameInfoRejectsTooSmallSize(t *testing.T) {
	p := NewParser()
	data := makeHeader(1238, 1920, 1080, true, false)
	err := p.ParseFrameInfo(data, headerSize-1)
	require.Error(t, err)
}
