package datamodel

import (
	"testing"

	"github.com/bmx-go/bmx/klv"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookupSetDef(t *testing.T) {
	r := NewRegistry()
	key := klv.Key{1, 2, 3}
	r.RegisterSet(SetDef{Key: key, Name: "Thing"})

	got, ok := r.SetDef(key)
	require.True(t, ok)
	require.Equal(t, "Thing", got.Name)
}

func TestSetDefLookupIgnoresVersionByte(t *testing.T) {
	r := NewRegistry()
	key := klv.Key{1, 2, 3, 4, 5, 6, 7, 9}
	r.RegisterSet(SetDef{Key: key, Name: "Thing"})

	probe := key
	probe[7] = 0xAB
	got, ok := r.SetDef(probe)
	require.True(t, ok)
	require.Equal(t, "Thing", got.Name)
}

func TestItemDefLookup(t *testing.T) {
	r := NewRegistry()
	key := klv.Key{9, 9, 9}
	r.RegisterItem(ItemDef{Key: key, Name: "Count", Type: TypeUInt32})

	got, ok := r.ItemDef(key)
	require.True(t, ok)
	require.Equal(t, TypeUInt32, got.Type)
}

func TestIsSubclassOfWalksParentChain(t *testing.T) {
	r := NewRegistry()
	root := klv.Key{1}
	mid := klv.Key{2}
	leaf := klv.Key{3}
	r.RegisterSet(SetDef{Key: root, Name: "Root"})
	r.RegisterSet(SetDef{Key: mid, Name: "Mid", Parent: &root})
	r.RegisterSet(SetDef{Key: leaf, Name: "Leaf", Parent: &mid})

	require.True(t, r.IsSubclassOf(leaf, root))
	require.True(t, r.IsSubclassOf(leaf, mid))
	require.True(t, r.IsSubclassOf(leaf, leaf))
	require.False(t, r.IsSubclassOf(root, leaf))
}

func TestIsSubclassOfUnregisteredKeyReturnsFalse(t *testing.T) {
	r := NewRegistry()
	require.False(t, r.IsSubclassOf(klv.Key{1}, klv.Key{2}))
}

func TestCloneIsIndependentOfBase(t *testing.T) {
	base := NewRegistry()
	key := klv.Key{1}
	base.RegisterSet(SetDef{Key: key, Name: "Base"})

	clone := base.Clone()
	clone.RegisterSet(SetDef{Key: klv.Key{2}, Name: "Extra"})

	_, ok := base.SetDef(klv.Key{2})
	require.False(t, ok, "registering on the clone must not mutate the base")

	got, ok := clone.SetDef(key)
	require.True(t, ok)
	require.Equal(t, "Base", got.Name)
}

func TestMustGetSetDefErrorsOnUnregisteredKey(t *testing.T) {
	r := NewRegistry()
	_, err := r.MustGetSetDef(klv.Key{0xff})
	require.Error(t, err)
}

func TestBaselineRegistryRegistersPrefaceUnderInterchangeObject(t *testing.T) {
	r := BaselineRegistry()
	def, ok := r.SetDef(PrefaceKey)
	require.True(t, ok)
	require.Equal(t, "Preface", def.Name)
	require.NotNil(t, def.Parent)
}
