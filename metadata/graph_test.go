package metadata

import (
	"testing"

	"github.com/bmx-go/bmx/datamodel"
	"github.com/bmx-go/bmx/klv"
	"github.com/stretchr/testify/require"
)

func TestGraphAddFindsPrefaceRoot(t *testing.T) {
	registry := datamodel.BaselineRegistry()
	g := NewGraph(registry)
	preface := NewSet(datamodel.PrefaceKey, [16]byte{1})
	require.NoError(t, g.Add(preface))

	got, ok := g.Preface()
	require.True(t, ok)
	require.Equal(t, preface, got)
}

func TestGraphAddRejectsDuplicateInstanceUID(t *testing.T) {
	registry := datamodel.BaselineRegistry()
	g := NewGraph(registry)
	require.NoError(t, g.Add(NewSet(datamodel.PrefaceKey, [16]byte{1})))
	err := g.Add(NewSet(datamodel.ContentStorageKey, [16]byte{1}))
	require.Error(t, err)
}

func TestGraphResolveStrongRef(t *testing.T) {
	registry := datamodel.BaselineRegistry()
	g := NewGraph(registry)
	storage := NewSet(datamodel.ContentStorageKey, [16]byte{2})
	require.NoError(t, g.Add(storage))

	item := NewItem(0x0000, datamodel.PrefaceContentStorageKey, nil)
	item.SetUUID([16]byte{2})

	resolved, err := g.ResolveStrongRef(item)
	require.NoError(t, err)
	require.Equal(t, storage, resolved)
}

func TestGraphResolveStrongRefUnresolvedFails(t *testing.T) {
	registry := datamodel.BaselineRegistry()
	g := NewGraph(registry)
	item := NewItem(0x0000, datamodel.PrefaceContentStorageKey, nil)
	item.SetUUID([16]byte{0xEE})

	_, err := g.ResolveStrongRef(item)
	require.Error(t, err)
}

func TestGraphSetsOfTypeMatchesSubclasses(t *testing.T) {
	registry := datamodel.BaselineRegistry()
	g := NewGraph(registry)
	require.NoError(t, g.Add(NewSet(datamodel.MaterialPackageKey, [16]byte{1})))
	require.NoError(t, g.Add(NewSet(datamodel.SourcePackageKey, [16]byte{2})))
	require.NoError(t, g.Add(NewSet(datamodel.TrackKey, [16]byte{3})))

	genericPackage := klv.Key{0x06, 0x0e, 0x2b, 0x34, 0x02, 0x53, 0x01, 0x00, 0x0d, 0x01, 0x01, 0x01, 0x01, 0x01, 0x34, 0x00}
	matches := g.SetsOfType(genericPackage)
	require.Len(t, matches, 2)
}

func TestGraphCheckAcyclicDetectsCycle(t *testing.T) {
	registry := datamodel.BaselineRegistry()
	g := NewGraph(registry)

	preface := NewSet(datamodel.PrefaceKey, [16]byte{1})
	a := NewSet(datamodel.ContentStorageKey, [16]byte{2})
	require.NoError(t, g.Add(preface))
	require.NoError(t, g.Add(a))

	prefaceToA := NewItem(0x0000, datamodel.PrefaceContentStorageKey, nil)
	prefaceToA.SetUUID([16]byte{2})
	preface.Set(prefaceToA)

	// ContentStorage's Packages item points right back at the Preface,
	// forming a cycle the graph must reject.
	aToPreface := NewItem(0x0000, datamodel.ContentStoragePackagesKey, nil)
	aToPreface.SetStrongRefArray([][16]byte{{1}})
	a.Set(aToPreface)

	err := g.CheckAcyclic()
	require.Error(t, err)
}

func TestGraphCheckAcyclicAcceptsDAG(t *testing.T) {
	registry := datamodel.BaselineRegistry()
	g := NewGraph(registry)

	preface := NewSet(datamodel.PrefaceKey, [16]byte{1})
	storage := NewSet(datamodel.ContentStorageKey, [16]byte{2})
	require.NoError(t, g.Add(preface))
	require.NoError(t, g.Add(storage))

	item := NewItem(0x0000, datamodel.PrefaceContentStorageKey, nil)
	item.SetUUID([16]byte{2})
	preface.Set(item)

	require.NoError(t, g.CheckAcyclic())
}

func TestGraphCheckAcyclicNoPrefaceIsNoOp(t *testing.T) {
	registry := datamodel.BaselineRegistry()
	g := NewGraph(registry)
	require.NoError(t, g.CheckAcyclic())
}
