package reader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bmx-go/bmx/datamodel"
)

func newMemberWithRate(t *testing.T, samples [][]byte, num, den int32) GroupMember {
	t.Helper()
	f := writeTestFile(t, samples)
	r, err := Open(f, datamodel.BaselineRegistry())
	require.NoError(t, err)
	tr := NewTrackReader(r, 1, 2)
	return GroupMember{File: r, SelectedTracks: []*TrackReader{tr}, EditRateNum: num, EditRateDen: den}
}

func TestNewGroupReaderPicksLowestMemberRate(t *testing.T) {
	a := newMemberWithRate(t, [][]byte{{1}, {2}}, 25, 1)
	b := newMemberWithRate(t, [][]byte{{1}, {2}, {3}, {4}}, 50, 1)

	g, err := NewGroupReader([]GroupMember{a, b})
	require.NoError(t, err)

	num, den := g.GroupEditRate()
	require.EqualValues(t, 25, num)
	require.EqualValues(t, 1, den)
}

func TestGroupReaderReadAdvancesPositionByExactlyN(t *testing.T) {
	a := newMemberWithRate(t, [][]byte{{1}, {2}, {3}}, 25, 1)

	g, err := NewGroupReader([]GroupMember{a})
	require.NoError(t, err)

	require.EqualValues(t, 0, g.Position())
	_, err = g.Read(2)
	require.NoError(t, err)
	require.EqualValues(t, 2, g.Position())
}

func TestGroupReaderSeekConvertsMemberPosition(t *testing.T) {
	a := newMemberWithRate(t, [][]byte{{1}, {2}, {3}, {4}}, 25, 1)
	b := newMemberWithRate(t, [][]byte{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}}, 50, 1)

	g, err := NewGroupReader([]GroupMember{a, b})
	require.NoError(t, err)

	require.NoError(t, g.Seek(2))
	require.EqualValues(t, 2, a.SelectedTracks[0].Position())
	require.EqualValues(t, 4, b.SelectedTracks[0].Position())
}

func TestNewGroupReaderRequiresAtLeastOneMember(t *testing.T) {
	_, err := NewGroupReader(nil)
	require.Error(t, err)
}
