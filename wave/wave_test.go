package wave

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bmx-go/bmx/mxfio"
)

func TestWriterSmallFileStaysRIFF(t *testing.T) {
	f := mxfio.NewMemoryFile(4096)
	w := NewWriter(f, Format{FormatTag: 1, Channels: 2, SampleRate: 48000, BitsPerSample: 16})

	require.NoError(t, w.Start())
	require.NoError(t, w.WriteSamples(make([]byte, 400)))
	require.NoError(t, w.Complete())

	out := f.Bytes()
	require.Equal(t, "RIFF", string(out[0:4]))
	require.Equal(t, "JUNK", string(out[12:16]))

	riffSize := binary.LittleEndian.Uint32(out[4:8])
	require.NotEqual(t, uint32(0xFFFFFFFF), riffSize)
}

func TestWriterBW64ForcedByChnaChunk(t *testing.T) {
	f := mxfio.NewMemoryFile(4096)
	w := NewWriter(f, Format{FormatTag: 1, Channels: 1, SampleRate: 48000, BitsPerSample: 24})
	w.ChunkData = []byte{1, 2, 3, 4}

	require.NoError(t, w.Start())
	require.NoError(t, w.WriteSamples(make([]byte, 12)))
	require.NoError(t, w.Complete())

	out := f.Bytes()
	require.Equal(t, "BW64", string(out[0:4]))
	require.Equal(t, "ds64", string(out[12:16]))

	riffSize := binary.LittleEndian.Uint32(out[4:8])
	require.Equal(t, uint32(0xFFFFFFFF), riffSize)
}

func TestWriterUserChunksWrittenBeforeData(t *testing.T) {
	f := mxfio.NewMemoryFile(4096)
	w := NewWriter(f, Format{FormatTag: 1, Channels: 1, SampleRate: 44100, BitsPerSample: 16})
	w.UserChunks = []UserChunk{{ID: [4]byte{'L', 'I', 'S', 'T'}, Data: []byte("info")}}

	require.NoError(t, w.Start())
	require.NoError(t, w.WriteSamples(make([]byte, 4)))
	require.NoError(t, w.Complete())

	out := f.Bytes()
	require.Contains(t, string(out), "LIST")
	require.Contains(t, string(out), "info")
}

func TestIsADMChunk(t *testing.T) {
	require.True(t, IsADMChunk([4]byte{'c', 'h', 'n', 'a'}))
	require.True(t, IsADMChunk([4]byte{'a', 'x', 'm', 'l'}))
	require.False(t, IsADMChunk([4]byte{'f', 'm', 't', ' '}))
}
