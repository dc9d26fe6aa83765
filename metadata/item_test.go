package metadata

import (
	"testing"

	"github.com/bmx-go/bmx/klv"
	"github.com/stretchr/testify/require"
)

func TestItemUintAccessorsRoundTrip(t *testing.T) {
	it := NewItem(1, klv.Key{}, nil)
	it.SetUint32(42)
	v, err := it.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(42), v)

	it.SetUint64(1 << 40)
	v64, err := it.Uint64()
	require.NoError(t, err)
	require.Equal(t, uint64(1<<40), v64)
}

func TestItemUintAccessorsRejectShortValue(t *testing.T) {
	it := NewItem(1, klv.Key{}, []byte{1, 2})
	_, err := it.Uint32()
	require.Error(t, err)
}

func TestItemRationalRoundTrip(t *testing.T) {
	it := NewItem(1, klv.Key{}, nil)
	it.SetRational(25, 1)
	num, den, err := it.Rational()
	require.NoError(t, err)
	require.Equal(t, int32(25), num)
	require.Equal(t, int32(1), den)
}

func TestItemUUIDRoundTrip(t *testing.T) {
	it := NewItem(1, klv.Key{}, nil)
	var u [16]byte
	for i := range u {
		u[i] = byte(i)
	}
	it.SetUUID(u)
	got, err := it.UUID()
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestItemUTF16StringRoundTripTrimsTrailingNUL(t *testing.T) {
	it := NewItem(1, klv.Key{}, nil)
	it.SetUTF16String("clip01")
	s, err := it.UTF16String()
	require.NoError(t, err)
	require.Equal(t, "clip01", s)
}

func TestItemUTF16StringRejectsOddLength(t *testing.T) {
	it := NewItem(1, klv.Key{}, []byte{1, 2, 3})
	_, err := it.UTF16String()
	require.Error(t, err)
}

func TestItemStrongRefArrayRoundTrip(t *testing.T) {
	it := NewItem(1, klv.Key{}, nil)
	refs := [][16]byte{{1}, {2}, {3}}
	it.SetStrongRefArray(refs)

	got, err := it.StrongRefArray()
	require.NoError(t, err)
	require.Equal(t, refs, got)
}

func TestItemStrongRefArrayRejectsBadElementSize(t *testing.T) {
	buf := make([]byte, 8)
	buf[3] = 1  // count = 1
	buf[7] = 8  // element size = 8, not 16
	it := NewItem(1, klv.Key{}, buf)
	_, err := it.StrongRefArray()
	require.Error(t, err)
}

func TestItemWeakRefSharesUUIDWireShape(t *testing.T) {
	it := NewItem(1, klv.Key{}, nil)
	var u [16]byte
	u[0] = 0xAB
	it.SetUUID(u)

	got, err := it.WeakRef()
	require.NoError(t, err)
	require.Equal(t, u, got)
}
