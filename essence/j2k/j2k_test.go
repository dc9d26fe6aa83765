package j2k

import (
	"encoding/binary"
	"testing"

	"github.com/bmx-go/bmx/essence"
	"github.com/stretchr/testify/require"
)

func putMarker(buf []byte, pos int, marker uint16) {
	binary.BigEndian.PutUint16(buf[pos:pos+2], marker)
}

func TestDecodeRsizSplitsProfileAndLevels(t *testing.T) {
	p := DecodeRsiz(0x0211)
	require.Equal(t, uint8(1), p.Profile)
	require.Equal(t, uint8(1), p.MainLevel)
	require.Equal(t, uint8(2), p.SubLevel)
}

func TestParseFrameStartFindsSOC(t *testing.T) {
	p := NewParser()
	data := make([]byte, 4)
	putMarker(data, 1, MarkerSOC)
	off, err := p.ParseFrameStart(data)
	require.NoError(t, err)
	require.Equal(t, 1, off)
}

func TestParseFrameSizeRejectsMissingSOC(t *testing.T) {
	p := NewParser()
	size, err := p.ParseFrameSize(make([]byte, 4))
	require.NoError(t, err)
	require.Equal(t, essence.NullFrameSize, size)
}

func TestParseFrameSizeFindsEOC(t *testing.T) {
	p := NewParser()
	data := make([]byte, 4)
	putMarker(data, 0, MarkerSOC)
	putMarker(data, 2, MarkerEOC)
	size, err := p.ParseFrameSize(data)
	require.NoError(t, err)
	require.Equal(t, 4, size)
}

func buildSIZPayload(width, height uint32) []byte {
	payload := make([]byte, 38)
	binary.BigEndian.PutUint16(payload[0:2], 0)
	binary.BigEndian.PutUint32(payload[2:6], width)
	binary.BigEndian.PutUint32(payload[6:10], height)
	// xosiz, yosiz left at 0
	binary.BigEndian.PutUint16(payload[34:36], 1) // Csiz = 1 component
	payload[36] = 0x87                            // signed, bit depth 8
	payload[37] = 1                               // XRsiz
	return append(payload, 1)                     // YRsiz
}

func TestParseFrameInfoDecodesSIZComponents(t *testing.T) {
	p := NewParser()
	sizPayload := buildSIZPayload(1920, 1080)

	data := make([]byte, 2)
	putMarker(data, 0, MarkerSOC)

	sizSeg := make([]byte, 4)
	putMarker(sizSeg, 0, MarkerSIZ)
	binary.BigEndian.PutUint16(sizSeg[2:4], uint16(2+len(sizPayload)))
	data = append(data, sizSeg...)
	data = append(data, sizPayload...)

	eoc := make([]byte, 2)
	putMarker(eoc, 0, MarkerEOC)
	data = append(data, eoc...)

	require.NoError(t, p.ParseFrameInfo(data, len(data)))
	require.Equal(t, uint32(1920), p.Last.Width)
	require.Equal(t, uint32(1080), p.Last.Height)
	require.Len(t, p.Last.Components, 1)
	require.True(t, p.Last.Components[0].Signed)
	require.Equal(t, uint8(8), p.Last.Components[0].BitDepth)
}

func TestParseFrameInfoRejectsMissingSOC(t *testing.T) {
	p := NewParser()
	err := p.ParseFrameInfo(make([]byte, 4), 4)
	require.Error(t, err)
}

func TestGuessRGBALayoutRequiresThreeComponentsAndNoTransform(t *testing.T) {
	require.True(t, GuessRGBALayout(Info{Components: make([]ComponentSizing, 3)}))
	require.False(t, GuessRGBALayout(Info{Components: make([]ComponentSizing, 2)}))
	require.False(t, GuessRGBALayout(Info{Components: make([]ComponentSizing, 3), MultipleComponentTransform: true}))
}
