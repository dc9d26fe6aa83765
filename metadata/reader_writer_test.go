package metadata

import (
	"testing"

	"github.com/bmx-go/bmx/datamodel"
	"github.com/bmx-go/bmx/mxfio"
	"github.com/stretchr/testify/require"
)

func TestWriteHeaderMetadataThenReadRoundTrip(t *testing.T) {
	registry := datamodel.BaselineRegistry()
	g := NewGraph(registry)

	preface := NewSet(datamodel.PrefaceKey, [16]byte{1})
	storageRef := NewItem(0, datamodel.PrefaceContentStorageKey, nil)
	storageRef.SetUUID([16]byte{2})
	preface.Set(storageRef)

	storage := NewSet(datamodel.ContentStorageKey, [16]byte{2})
	packagesItem := NewItem(0, datamodel.ContentStoragePackagesKey, nil)
	packagesItem.SetStrongRefArray(nil)
	storage.Set(packagesItem)

	require.NoError(t, g.Add(preface))
	require.NoError(t, g.Add(storage))

	f := mxfio.NewMemoryFile(0)
	written, err := WriteHeaderMetadata(f, g, 4)
	require.NoError(t, err)
	require.Greater(t, written, int64(0))

	_, err = f.Seek(0, mxfio.SeekStart)
	require.NoError(t, err)

	got, err := ReadHeaderMetadata(f, registry, uint64(written))
	require.NoError(t, err)

	gotPreface, ok := got.Preface()
	require.True(t, ok)
	require.Equal(t, preface.InstanceUID, gotPreface.InstanceUID)

	// The primer assigns fresh local tags on write, so look the item up by
	// key rather than by storageRef's pre-write tag.
	var storageRefItem *Item
	for _, it := range gotPreface.Items() {
		if it.Key.Equals(datamodel.PrefaceContentStorageKey) {
			storageRefItem = it
		}
	}
	require.NotNil(t, storageRefItem)
	resolved, err := got.ResolveStrongRef(storageRefItem)
	require.NoError(t, err)
	require.Equal(t, storage.InstanceUID, resolved.InstanceUID)
}

func TestReadHeaderMetadataStopsAtByteCount(t *testing.T) {
	registry := datamodel.BaselineRegistry()
	g := NewGraph(registry)
	preface := NewSet(datamodel.PrefaceKey, [16]byte{1})
	require.NoError(t, g.Add(preface))

	f := mxfio.NewMemoryFile(0)
	written, err := WriteHeaderMetadata(f, g, 4)
	require.NoError(t, err)

	// Append trailing bytes that must not be parsed as metadata.
	_, err = f.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.NoError(t, err)

	_, err = f.Seek(0, mxfio.SeekStart)
	require.NoError(t, err)

	got, err := ReadHeaderMetadata(f, registry, uint64(written))
	require.NoError(t, err)
	require.Len(t, got.Sets(), 1)
}

func TestReadHeaderMetadataRejectsSetBeforePrimer(t *testing.T) {
	registry := datamodel.BaselineRegistry()
	f := mxfio.NewMemoryFile(0)
	require.NoError(t, f.WriteFixedKL(datamodel.PrefaceKey, 4, 0))

	_, err := f.Seek(0, mxfio.SeekStart)
	require.NoError(t, err)

	_, err = ReadHeaderMetadata(f, registry, 100)
	require.Error(t, err)
}
