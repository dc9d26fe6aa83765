package rdd36

import (
	"encoding/binary"
	"testing"

	"github.com/bmx-go/bmx/essence"
	"github.com/stretchr/testify/require"
)

func makeFrame(size uint32, width, height uint16, chromaFormat, interlace uint8) []byte {
	data := make([]byte, 21)
	binary.BigEndian.PutUint32(data[0:4], size)
	copy(data[4:8], frameHeaderTag[:])
	binary.BigEndian.PutUint16(data[8:10], 20)
	binary.BigEndian.PutUint16(data[12:14], width)
	binary.BigEndian.PutUint16(data[14:16], height)
	data[16] = chromaFormat<<6 | interlace<<2
	data[17] = 0x12
	data[18] = 1
	data[19] = 2
	data[20] = 3
	return data
}

func TestInfoPictureCount(t *testing.T) {
	require.Equal(t, 1, Info{InterlaceMode: 0}.PictureCount())
	require.Equal(t, 2, Info{InterlaceMode: 1}.PictureCount())
}

func TestParseFrameStartRequiresTag(t *testing.T) {
	p := NewParser()
	bad := make([]byte, 8)
	off, err := p.ParseFrameStart(bad)
	require.NoError(t, err)
	require.Equal(t, essence.NullFrameSize, off)

	good := makeFrame(21, 1920, 1080, 2, 0)
	off, err = p.ParseFrameStart(good)
	require.NoError(t, err)
	require.Equal(t, 0, off)
}

func TestParseFrameSizeReadsBigEndianFrameSize(t *testing.T) {
	p := NewParser()
	data := makeFrame(21, 1920, 1080, 2, 0)
	size, err := p.ParseFrameSize(data)
	require.NoError(t, err)
	require.Equal(t, 21, size)
}

func TestParseFrameInfoDecodesDimensionsAndColour(t *testing.T) {
	p := NewParser()
	data := makeFrame(21, 1280, 720, 2, 1)
	require.NoError(t, p.ParseFrameInfo(data, 21))

	require.Equal(t, uint16(1280), p.Last.HorizontalSize)
	require.Equal(t, uint16(720), p.Last.VerticalSize)
	require.Equal(t, uint8(2), p.Last.ChromaFormat)
	require.Equal(t, uint8(1), p.Last.InterlaceMode)
	require.Equal(t, uint8(1), p.Last.AspectRatioInformation)
	require.Equal(t, uint8(2), p.Last.FrameRateCode)
	require.Equal(t, uint8(1), p.Last.ColorPrimaries)
	require.Equal(t, uint8(2), p.Last.TransferCharacteristic)
	require.Equal(t, uint8(3), p.Last.MatrixCoefficients)
}

func TestParseFrameInfoRejectsMissingTag(t *testing.T) {
	p := NewParser()
	data := make([]byte, 21)
	err := p.ParseFrameInfo(data, 21)
	require.Error(t, err)
}

func TestParseFrameInfoRejectsOversizedHeaderSize(t *testing.T) {
	p := NewParser()
	data := makeFrame(21, 1920, 1080, 2, 0)
	binary.BigEndian.PutUint16(data[8:10], 9999)
	err := p.ParseFrameInfo(data, 21)
	require.Error(t, err)
}
