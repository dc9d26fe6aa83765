package avc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanNALUnitsFindsStartCodesAndMarksLastIncomplete(t *testing.T) {
	data := []byte{0, 0, 1, 0x67, 0xAA, 0, 0, 1, 0x68, 0xBB}
	nals := scanNALUnits(data)
	require.Len(t, nals, 2)

	require.True(t, nals[0].complete)
	require.Equal(t, []byte{0x67, 0xAA}, nals[0].payload)

	require.False(t, nals[1].complete)
	require.Equal(t, []byte{0x68, 0xBB}, nals[1].payload)
}

func TestScanNALUnitsHandlesFourByteStartCode(t *testing.T) {
	data := []byte{0, 0, 0, 1, 0x67, 0xAA, 0, 0, 1, 0x68}
	nals := scanNALUnits(data)
	require.Len(t, nals, 2)
	require.Equal(t, []byte{0x67, 0xAA}, nals[0].payload)
}

func TestScanNALUnitsReturnsNilWithoutStartCode(t *testing.T) {
	require.Nil(t, scanNALUnits([]byte{1, 2, 3, 4}))
}

func TestRemoveEmulationPreventionStripsEscapeByte(t *testing.T) {
	in := []byte{0x00, 0x00, 0x03, 0x01, 0xFF, 0x00, 0x00, 0x03, 0x02}
	out := removeEmulationPrevention(in)
	require.Equal(t, []byte{0x00, 0x00, 0x01, 0xFF, 0x00, 0x00, 0x02}, out)
}

func TestRemoveEmulationPreventionLeavesNonEscapedZerosAlone(t *testing.T) {
	in := []byte{0x00, 0x01, 0x00, 0x02}
	out := removeEmulationPrevention(in)
	require.Equal(t, in, out)
}
