package mxfio

import (
	"testing"

	"github.com/bmx-go/bmx/klv"
	"github.com/stretchr/testify/require"
)

func TestWriteKAGFillPadsToBoundary(t *testing.T) {
	f := NewMemoryFile(0)
	_, err := f.Write(make([]byte, 10))
	require.NoError(t, err)

	newPos, err := WriteKAGFill(f, 10, 64, 4)
	require.NoError(t, err)
	require.Equal(t, int64(64), newPos)

	size, err := f.Size()
	require.NoError(t, err)
	require.Equal(t, int64(64), size)
}

func TestWriteKAGFillNoOpWhenAligned(t *testing.T) {
	f := NewMemoryFile(0)
	newPos, err := WriteKAGFill(f, 0, 64, 4)
	require.NoError(t, err)
	require.Equal(t, int64(0), newPos)

	size, err := f.Size()
	require.NoError(t, err)
	require.Equal(t, int64(0), size)
}

func TestSkipFillItemsStopsAtNonFillKey(t *testing.T) {
	f := NewMemoryFile(0)
	require.NoError(t, f.WriteFixedKL(klv.FillKey, 1, 3))
	_, err := f.Write([]byte{0, 0, 0})
	require.NoError(t, err)

	var realKey [16]byte
	realKey[0] = 0xAB
	require.NoError(t, f.WriteFixedKL(realKey, 1, 2))
	_, err = f.Write([]byte{1, 2})
	require.NoError(t, err)

	_, _ = f.Seek(0, SeekStart)
	key, _, length, err := SkipFillItems(f)
	require.NoError(t, err)
	require.Equal(t, realKey, key)
	require.Equal(t, uint64(2), length)
}
