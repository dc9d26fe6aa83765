package metadata

import (
	"testing"

	"github.com/bmx-go/bmx/klv"
	"github.com/stretchr/testify/require"
)

func TestSetSetAndGetPreservesTag(t *testing.T) {
	s := NewSet(klv.Key{1}, [16]byte{1})
	it := NewItem(0x0006, klv.Key{}, []byte{1, 2, 3})
	s.Set(it)

	got, ok := s.Get(0x0006)
	require.True(t, ok)
	require.Equal(t, it, got)
}

func TestSetSetReplacesExistingTagInPlace(t *testing.T) {
	s := NewSet(klv.Key{1}, [16]byte{1})
	s.Set(NewItem(1, klv.Key{}, []byte{1}))
	s.Set(NewItem(2, klv.Key{}, []byte{2}))
	s.Set(NewItem(1, klv.Key{}, []byte{0xff})) // replaces tag 1's value

	require.Len(t, s.Items(), 2, "replacing an existing tag must not add a new item")
	it, ok := s.Get(1)
	require.True(t, ok)
	require.Equal(t, []byte{0xff}, it.Value)
}

func TestSetItemsPreservesFirstSeenOrder(t *testing.T) {
	s := NewSet(klv.Key{1}, [16]byte{1})
	s.Set(NewItem(3, klv.Key{}, nil))
	s.Set(NewItem(1, klv.Key{}, nil))
	s.Set(NewItem(2, klv.Key{}, nil))
	s.Set(NewItem(1, klv.Key{}, []byte{9})) // overwrite, shouldn't move position

	var tags []uint16
	for _, it := range s.Items() {
		tags = append(tags, it.Tag)
	}
	require.Equal(t, []uint16{3, 1, 2}, tags)
}

func TestSetMustGetErrorsWhenMissing(t *testing.T) {
	s := NewSet(klv.Key{1}, [16]byte{1})
	_, err := s.MustGet(0x1234)
	require.Error(t, err)
}
