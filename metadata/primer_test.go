package metadata

import (
	"testing"

	"github.com/bmx-go/bmx/klv"
	"github.com/stretchr/testify/require"
)

func TestPrimerTagForAssignsStableTags(t *testing.T) {
	p := NewPrimer()
	key := klv.Key{1, 2, 3}
	tag1 := p.TagFor(key)
	tag2 := p.TagFor(key)
	require.Equal(t, tag1, tag2)
	require.GreaterOrEqual(t, tag1, uint16(0x8000))
}

func TestPrimerTagForAssignsDistinctTagsPerKey(t *testing.T) {
	p := NewPrimer()
	a := p.TagFor(klv.Key{1})
	b := p.TagFor(klv.Key{2})
	require.NotEqual(t, a, b)
}

func TestPrimerKeyForResolvesAssignedTag(t *testing.T) {
	p := NewPrimer()
	key := klv.Key{9, 9}
	tag := p.TagFor(key)

	got, ok := p.KeyFor(tag)
	require.True(t, ok)
	require.Equal(t, key, got)
}

func TestPrimerRegisterAdvancesNextPastExplicitTag(t *testing.T) {
	p := NewPrimer()
	p.Register(0x9000, klv.Key{1})
	newTag := p.TagFor(klv.Key{2})
	require.Greater(t, newTag, uint16(0x9000))
}

func TestPrimerEncodeDecodeRoundTrip(t *testing.T) {
	p := NewPrimer()
	k1 := klv.Key{1, 2, 3}
	k2 := klv.Key{4, 5, 6}
	t1 := p.TagFor(k1)
	t2 := p.TagFor(k2)

	value := p.Encode()
	got, err := ReadPrimerPack(value)
	require.NoError(t, err)

	gotK1, ok := got.KeyFor(t1)
	require.True(t, ok)
	require.Equal(t, k1, gotK1)
	gotK2, ok := got.KeyFor(t2)
	require.True(t, ok)
	require.Equal(t, k2, gotK2)
}

func TestReadPrimerPackRejectsBadElementSize(t *testing.T) {
	buf := make([]byte, 8)
	buf[7] = 10 // element size 10, not 18
	_, err := ReadPrimerPack(buf)
	require.Error(t, err)
}
