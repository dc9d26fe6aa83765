package partition

import (
	"testing"

	"github.com/bmx-go/bmx/klv"
	"github.com/bmx-go/bmx/mxfio"
	"github.com/stretchr/testify/require"
)

func TestIsPartitionKeyMatchesAnyKindStatus(t *testing.T) {
	require.True(t, IsPartitionKey(keyFor(KindHeader, StatusOpenIncomplete)))
	require.True(t, IsPartitionKey(keyFor(KindFooter, StatusClosedComplete)))

	notPartition := klv.Key{0x01}
	require.False(t, IsPartitionKey(notPartition))
}

func TestPackWriteReadRoundTrip(t *testing.T) {
	f := mxfio.NewMemoryFile(0)
	p := &Pack{
		Kind:              KindBody,
		Status:            StatusOpenIncomplete,
		KAGSize:           64,
		ThisPartition:     0,
		PreviousPartition: 0,
		FooterPartition:   1000,
		HeaderByteCount:   256,
		IndexByteCount:    128,
		IndexSID:          2,
		BodyOffset:        4096,
		BodySID:           1,
		EssenceContainers: []klv.Key{{1, 2, 3}, {4, 5, 6}},
	}

	_, err := p.Write(f, 4)
	require.NoError(t, err)

	_, err = f.Seek(0, mxfio.SeekStart)
	require.NoError(t, err)
	key, _, length, err := f.ReadKL()
	require.NoError(t, err)
	require.True(t, IsPartitionKey(klv.Key(key)))

	value := make([]byte, length)
	_, err = f.Read(value)
	require.NoError(t, err)

	got, err := Read(klv.Key(key), value)
	require.NoError(t, err)
	require.Equal(t, KindBody, got.Kind)
	require.Equal(t, StatusOpenIncomplete, got.Status)
	require.Equal(t, p.FooterPartition, got.FooterPartition)
	require.Equal(t, p.IndexSID, got.IndexSID)
	require.Equal(t, p.BodySID, got.BodySID)
	require.Equal(t, p.EssenceContainers, got.EssenceContainers)
}

func TestPackWritePadsToKAGBoundary(t *testing.T) {
	f := mxfio.NewMemoryFile(0)
	p := &Pack{Kind: KindHeader, Status: StatusOpenIncomplete, KAGSize: 512}

	after, err := p.Write(f, 4)
	require.NoError(t, err)
	require.Equal(t, int64(0), after%512)
}

func TestReadRejectsTruncatedValue(t *testing.T) {
	_, err := Read(keyFor(KindHeader, StatusOpenIncomplete), []byte{1, 2, 3})
	require.Error(t, err)
}

func TestRandomIndexPackWriteReadRoundTrip(t *testing.T) {
	f := mxfio.NewMemoryFile(0)
	rip := &RandomIndexPack{
		Entries: []RandomIndexEntry{
			{BodySID: 1, ByteOffset: 0},
			{BodySID: 2, ByteOffset: 65536},
		},
	}
	require.NoError(t, rip.Write(f, 4))

	_, err := f.Seek(0, mxfio.SeekStart)
	require.NoError(t, err)
	key, _, length, err := f.ReadKL()
	require.NoError(t, err)
	require.Equal(t, RandomIndexKey, klv.Key(key))

	value := make([]byte, length)
	_, err = f.Read(value)
	require.NoError(t, err)

	got, err := ReadRandomIndexPack(value)
	require.NoError(t, err)
	require.Equal(t, rip.Entries, got.Entries)
}
