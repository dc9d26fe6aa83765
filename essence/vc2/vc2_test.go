package vc2

import (
	"encoding/binary"
	"testing"

	"github.com/bmx-go/bmx/essence"
	"github.com/stretchr/testify/require"
)

func makeParseUnit(code byte, nextOffset uint32) []byte {
	buf := make([]byte, parseInfoSize)
	copy(buf[0:4], parseInfoPrefix[:])
	buf[4] = code
	binary.BigEndian.PutUint32(buf[9:13], nextOffset)
	return buf
}

func TestIsPictureParseCode(t *testing.T) {
	require.False(t, isPictureParseCode(ParseSequenceHeader))
	require.False(t, isPictureParseCode(ParseEndOfSequence))
	require.True(t, isPictureParseCode(0x08))
	require.True(t, isPictureParseCode(0xec))
}

func TestParseFrameStartFindsFirstPictureUnit(t *testing.T) {
	p := NewParser()
	seq := makeParseUnit(ParseSequenceHeader, parseInfoSize)
	pic := makeParseUnit(0x0c, 0)
	data := append(seq, pic...)

	off, err := p.ParseFrameStart(data)
	require.NoError(t, err)
	require.Equal(t, parseInfoSize, off)
}

func TestParseFrameSizeUsesNextParseOffset(t *testing.T) {
	p := NewParser()
	unit := makeParseUnit(ParseSequenceHeader, 20)
	unit = append(unit, make([]byte, 20-len(unit))...) // pad so NextParseOffset falls within the buffer
	size, err := p.ParseFrameSize(unit)
	require.NoError(t, err)
	require.Equal(t, 20, size)
}

func TestParseFrameSizeReturnsNullOffsetForTerminalUnit(t *testing.T) {
	p := NewParser()
	unit := makeParseUnit(ParseEndOfSequence, 0)
	size, err := p.ParseFrameSize(unit)
	require.NoError(t, err)
	require.Equal(t, essence.NullOffset, size)
}

func TestParseFrameInfoTracksSequenceHeaderAndPictureCount(t *testing.T) {
	p := NewParser()
	seq := makeParseUnit(ParseSequenceHeader, parseInfoSize+2)
	seq = append(seq, 1, 0) // major/minor version bytes following parse-info
	pic := makeParseUnit(0x0c, 0)
	data := append(seq, pic...)

	require.NoError(t, p.ParseFrameInfo(data, len(data)))
	require.Equal(t, byte(1), p.Sequence.MajorVersion)
	require.Equal(t, 1, p.PictureCount)
}

func TestIsIdenticalSequenceComparesDecodedHeaders(t *testing.T) {
	a := NewParser()
	b := NewParser()
	require.False(t, a.IsIdenticalSequence(b))

	seq := makeParseUnit(ParseSequenceHeader, parseInfoSize+2)
	seq = append(seq, 2, 5)
	require.NoError(t, a.ParseFrameInfo(seq, len(seq)))
	require.NoError(t, b.ParseFrameInfo(seq, len(seq)))
	require.True(t, a.IsIdenticalSequence(b))
}

func TestRewritePictureNumbersAssignsContiguousRun(t *testing.T) {
	got := RewritePictureNumbers([]int{10, 20, 30}, 5)
	require.Equal(t, []uint32{5, 6, 7}, got)
}
