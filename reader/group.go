package reader

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
)

// GroupMember is one single-file reader contributing to a GroupReader,
// plus the subset of its tracks selected into the group timeline.
type GroupMember struct {
	File           *FileReader
	SelectedTracks []*TrackReader

	// EditRateNum/Den is the member's own edit rate, used to convert
	// between member-local and group positions when rates differ.
	EditRateNum, EditRateDen int32
}

// GroupReader composites multiple single-file readers into one logical
// timeline, used when a clip's essence is split across files as in AS-02
// bundles and Avid OP-Atom sets. The group edit rate is the
// lowest member sample rate; a group position is converted to each member's
// position by the ratio of the member's edit rate to the group edit rate.
type GroupReader struct {
	Members []GroupMember

	groupEditRateNum, groupEditRateDen int32
	pos int64
}

// NewGroupReader creates a GroupReader over members, computing the group
// edit rate as the lowest member sample rate ("The group
// edit rate is the lowest member sample rate").
func NewGroupReader(members []GroupMember) (*GroupReader, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: group reader requires at least one member", errs.ErrInvariant)
	}

	lowest := members[0]
	lowestRate := rateAsFloat(lowest.EditRateNum, lowest.EditRateDen)
	for _, m := range members[1:] {
		rate := rateAsFloat(m.EditRateNum, m.EditRateDen)
		if rate < lowestRate {
			lowest = m
			lowestRate = rate
		}
	}

	return &GroupReader{
		Members:          members,
		groupEditRateNum: lowest.EditRateNum,
		groupEditRateDen: lowest.EditRateDen,
	}, nil
}

func rateAsFloat(num, den int32) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// GroupEditRate returns the group's edit rate.
func (g *GroupReader) GroupEditRate() (num, den int32) {
	return g.groupEditRateNum, g.groupEditRateDen
}

// Position returns the group's current position in group edit units.
func (g *GroupReader) Position() int64 { return g.pos }

// Seek repositions every member's selected track readers to the group
// position converted into that member's own edit-rate units.
func (g *GroupReader) Seek(groupPosition int64) error {
	for _, m := range g.Members {
		memberPos := g.toMemberPosition(m, groupPosition)
		for _, tr := range m.SelectedTracks {
			if err := tr.Seek(memberPos); err != nil {
				return err
			}
		}
	}
	g.pos = groupPosition
	return nil
}

// toMemberPosition converts a group-timeline position into the equivalent
// position in member m's own edit-rate units ("sample
// sequences convert between group and member positions").
func (g *GroupReader) toMemberPosition(m GroupMember, groupPosition int64) int64 {
	groupRate := rateAsFloat(g.groupEditRateNum, g.groupEditRateDen)
	memberRate := rateAsFloat(m.EditRateNum, m.EditRateDen)
	if groupRate == 0 || memberRate == groupRate {
		return groupPosition
	}
	return int64(float64(groupPosition) * (memberRate / groupRate))
}

// Read advances the group's position by exactly n group edit units,
// reading each member's selected tracks over the corresponding member
// position range. The invariant that position always
// advances by exactly n holds even when a member is shorter than the
// group timeline or a track is missing: toMemberPosition and
// TrackReader.Read's own zero-frame fallback absorb the mismatch.
func (g *GroupReader) Read(n int64) (map[*TrackReader][]Frame, error) {
	out := make(map[*TrackReader][]Frame)
	for _, m := range g.Members {
		startMember := g.toMemberPosition(m, g.pos)
		endMember := g.toMemberPosition(m, g.pos+n)
		memberN := endMember - startMember
		if memberN < 0 {
			memberN = 0
		}
		for _, tr := range m.SelectedTracks {
			if err := tr.Seek(startMember); err != nil {
				return nil, err
			}
			frames, err := tr.Read(memberN)
			if err != nil {
				return nil, err
			}
			out[tr] = frames
		}
	}
	g.pos += n
	return out, nil
}
