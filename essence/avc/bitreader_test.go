package avc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitReaderUReadsMSBFirst(t *testing.T) {
	r := newBitReader([]byte{0b10110000})
	v, err := r.u(4)
	require.NoError(t, err)
	require.Equal(t, uint32(0b1011), v)
}

func TestBitReaderUFailsPastEndOfData(t *testing.T) {
	r := newBitReader([]byte{0xFF})
	_, err := r.u(16)
	require.Error(t, err)
}

func TestBitReaderUEDecodesExpGolombCodes(t *testing.T) {
	// Exp-Golomb codes for 0,1,2,3,4 packed MSB-first: 1 010 011 00100 00101
	r := newBitReader([]byte{0b1_010_011_0, 0b0100_0010, 0b1_0000000})
	for i, want := range []uint32{0, 1, 2, 3, 4} {
		v, err := r.ue()
		require.NoError(t, err, "code %d", i)
		require.Equal(t, want, v)
	}
}

func TestBitReaderSEZigZagsUnsignedCode(t *testing.T) {
	// ue() codes 0,1,2,3,4 map to se() values 0,1,-1,2,-2.
	r := newBitReader([]byte{0b1_010_011_0, 0b0100_0010, 0b1_0000000})
	want := []int32{0, 1, -1, 2, -2}
	for i, w := range want {
		v, err := r.se()
		require.NoError(t, err, "code %d", i)
		require.Equal(t, w, v)
	}
}

func TestBitReaderMoreRBSPDataFalseAtStopBit(t *testing.T) {
	// a single stop bit followed by zero padding: no more meaningful data.
	r := newBitReader([]byte{0b1000_0000})
	require.False(t, r.moreRBSPData())
}

func TestBitReaderMoreRBSPDataTrueBeforeStopBit(t *testing.T) {
	r := newBitReader([]byte{0b1100_0000})
	require.True(t, r.moreRBSPData())
}
