package reader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bmx-go/bmx/datamodel"
	"github.com/bmx-go/bmx/metadata"
	"github.com/bmx-go/bmx/mxfio"
	"github.com/bmx-go/bmx/writer"
)

// writeTestFile authors a minimal single-track single-pass MXF file and
// returns the backing MemoryFile, ready for FileReader.Open.
func writeTestFile(t *testing.T, samples [][]byte) *mxfio.MemoryFile {
	t.Helper()

	registry := datamodel.BaselineRegistry()
	g := metadata.NewGraph(registry)
	preface := metadata.NewPreface([16]byte{1}, [16]byte{2}, [16]byte{3})
	require.NoError(t, g.Add(preface))

	track := writer.NewTrack(writer.KindOP1A, writer.ClassPicture, writer.NewElementKey(0x15), 1, 2)
	asm := writer.NewAssembler([]*writer.Track{track}, 512, 4)

	f := mxfio.NewMemoryFile(4096)
	w := writer.NewWriter(f, registry, g, asm, 512, 4)
	w.SetInputDuration()

	require.NoError(t, w.Start())
	for _, s := range samples {
		require.NoError(t, track.WriteSamples(s, 1))
		require.NoError(t, w.WriteContentPackages(true))
	}
	require.NoError(t, w.Complete())

	return f
}

func TestFileReaderOpenParsesPartitionsAndGraph(t *testing.T) {
	f := writeTestFile(t, [][]byte{{1, 2, 3}, {4, 5, 6, 7}})

	r, err := Open(f, datamodel.BaselineRegistry())
	require.NoError(t, err)
	require.NotNil(t, r.Graph)

	_, ok := r.Graph.Preface()
	require.True(t, ok)

	require.NotEmpty(t, r.partitions)
}

func TestFileReaderEssenceElementsForBodySID(t *testing.T) {
	f := writeTestFile(t, [][]byte{{9, 9, 9}})

	r, err := Open(f, datamodel.BaselineRegistry())
	require.NoError(t, err)

	elements := r.EssenceElementsFor(1)
	require.Len(t, elements, 1)
	require.EqualValues(t, 3, elements[0].Length)
}
