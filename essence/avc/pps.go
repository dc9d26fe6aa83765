package avc

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
)

// parsePPS decodes a picture parameter set RBSP far enough to recover the
// fields bmx's slice-header parse needs.
func parsePPS(rbsp []byte, spsMap map[uint32]*SPS) (*PPS, error) {
	r := newBitReader(rbsp)
	p := &PPS{}

	var err error
	if p.PicParameterSetID, err = r.ue(); err != nil {
		return nil, err
	}
	if p.SeqParameterSetID, err = r.ue(); err != nil {
		return nil, err
	}
	if _, ok := spsMap[p.SeqParameterSetID]; !ok {
		return nil, fmt.Errorf("%w: PPS references unknown SPS id %d", errs.ErrParse, p.SeqParameterSetID)
	}

	if _, err := r.u(1); err != nil { // entropy_coding_mode_flag
		return nil, err
	}
	bottomFieldPresent, err := r.u(1)
	if err != nil {
		return nil, err
	}
	p.BottomFieldPicOrderInFramePresent = bottomFieldPresent == 1

	// num_slice_groups_minus1 and beyond are not needed for the fields bmx
	// exposes; parsing stops here deliberately.
	return p, nil
}
