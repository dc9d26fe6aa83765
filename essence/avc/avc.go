// Package avc parses H.264/AVC bitstreams: NAL unit scanning with
// emulation-prevention removal, SPS/PPS parameter set tracking, slice
// header decoding for frame-boundary detection, and picture-order-count
// computation for all three pic_order_cnt_type variants.
package avc

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/essence"
)

// NALUnitType enumerates the NAL unit types bmx distinguishes (subset of
// ITU-T H.264 Table 7-1 relevant to frame-boundary detection and
// descriptor authoring).
type NALUnitType uint8

const (
	NALUnspecified        NALUnitType = 0
	NALSliceNonIDR        NALUnitType = 1
	NALSliceDataPartA     NALUnitType = 2
	NALSliceDataPartB     NALUnitType = 3
	NALSliceDataPartC     NALUnitType = 4
	NALSliceIDR           NALUnitType = 5
	NALSEI                NALUnitType = 6
	NALSPS                NALUnitType = 7
	NALPPS                NALUnitType = 8
	NALAccessUnitDelim    NALUnitType = 9
	NALEndOfSequence      NALUnitType = 10
	NALEndOfStream        NALUnitType = 11
	NALFillerData         NALUnitType = 12
	NALSPSExtension       NALUnitType = 13
	NALAuxiliarySlice     NALUnitType = 19
)

// SPS holds the sequence parameter set fields bmx needs to author a
// CDCIEssenceDescriptor and to decode picture order count.
type SPS struct {
	ProfileIDC        uint8
	ConstraintSetFlags uint8
	LevelIDC          uint8
	SeqParameterSetID uint32

	ChromaFormatIDC uint32
	BitDepthLuma    uint32
	BitDepthChroma  uint32

	Log2MaxFrameNum       uint32
	PicOrderCntType       uint32
	Log2MaxPicOrderCntLSB uint32
	DeltaPicOrderAlwaysZero bool
	OffsetForNonRefPic    int32
	OffsetForTopToBottomField int32
	NumRefFramesInPOCCycle uint32
	OffsetForRefFrame     []int32

	PicWidthInMBs  uint32
	PicHeightInMapUnits uint32
	FrameMBSOnly   bool
	FrameCropping  bool
	CropLeft, CropRight, CropTop, CropBottom uint32

	VUIPresent     bool
	TimingInfoPresent bool
	NumUnitsInTick uint32
	TimeScale      uint32
	FixedFrameRate bool
}

// Width and Height return the SPS-derived cropped picture dimensions.
func (s *SPS) Width() uint32 {
	w := (s.PicWidthInMBs) * 16
	if s.FrameCropping {
		cropUnitX := uint32(1)
		if s.ChromaFormatIDC == 1 || s.ChromaFormatIDC == 2 {
			cropUnitX = 2
		}
		w -= cropUnitX * (s.CropLeft + s.CropRight)
	}
	return w
}

func (s *SPS) Height() uint32 {
	frameMult := uint32(1)
	if !s.FrameMBSOnly {
		frameMult = 2
	}
	h := s.PicHeightInMapUnits * 16 * frameMult
	if s.FrameCropping {
		cropUnitY := uint32(1)
		if s.ChromaFormatIDC == 1 {
			cropUnitY = 2
		}
		if !s.FrameMBSOnly {
			cropUnitY *= 2
		}
		h -= cropUnitY * (s.CropTop + s.CropBottom)
	}
	return h
}

// PPS holds the picture parameter set fields bmx needs for slice header
// parsing.
type PPS struct {
	PicParameterSetID uint32
	SeqParameterSetID uint32
	BottomFieldPicOrderInFramePresent bool
	RedundantPicCntPresent bool
}

// SliceHeader holds the per-frame fields decoded from the first VCL NAL of
// an access unit.
type SliceHeader struct {
	FirstMBInSlice uint32
	SliceType      uint32
	PPSID          uint32
	FrameNum       uint32
	FieldPicFlag   bool
	BottomFieldFlag bool
	IDRPicID       uint32
	PicOrderCntLSB uint32
	DeltaPicOrderCntBottom int32
	DeltaPicOrderCnt       [2]int32
	NALRefIDC      uint8
	IDRFlag        bool
}

// Parser decodes an AVC Annex-B bitstream frame by frame. It persists SPS
// and PPS maps across frames (a later frame's slice header references a
// parameter set sent only once, at the start of the stream or on change)
// and tracks POC decode state across frames for the same reason.
type Parser struct {
	spsMap map[uint32]*SPS
	ppsMap map[uint32]*PPS

	prevFrameNum       uint32
	prevPOCMSB         int32
	prevPOCLSB         uint32
	prevFrameNumOffset int32
	haveFirstFrame     bool

	LastSPS   *SPS
	LastPPS   *PPS
	LastSlice *SliceHeader
	FrameType essence.FrameType
	POC       int32
}

// NewParser creates a Parser with empty parameter-set maps.
func NewParser() *Parser {
	return &Parser{
		spsMap: make(map[uint32]*SPS),
		ppsMap: make(map[uint32]*PPS),
	}
}

// ParseFrameStart scans data for the first NAL unit that begins a new
// access unit, i.e. the first VCL NAL whose slice header differs from the
// running state in a way Annex 7.4.1.2.4 defines as a new-picture boundary
// (change of frame_num, pic_parameter_set_id, field_pic_flag, a
// nal_ref_idc transition to/from zero, an IDR start, or a POC change).
// Non-VCL NALs (SPS, PPS, SEI, AUD) before the first VCL NAL are consumed
// as part of the same access unit and do not themselves mark a boundary.
func (p *Parser) ParseFrameStart(data []byte) (int, error) {
	nals := scanNALUnits(data)
	for _, n := range nals {
		if !n.complete {
			break // wait for more data rather than act on a truncated NAL
		}
		nalType := NALUnitType(n.payload[0] & 0x1f)
		if !isVCL(nalType) {
			continue
		}

		sh, err := p.peekSliceHeader(n.payload, nalType)
		if err != nil {
			continue // malformed slice header at a resync point; keep scanning
		}

		if p.isNewAccessUnit(sh, nalType) {
			return n.startOffset, nil
		}
		p.recordSliceState(sh, nalType)
	}
	return essence.NullOffset, nil
}

// ParseFrameSize returns the byte offset of the NEXT access unit's first
// NAL after the one starting at offset 0, which is the size of the frame
// at offset 0. It returns NullOffset if no later boundary has appeared yet.
func (p *Parser) ParseFrameSize(data []byte) (int, error) {
	nals := scanNALUnits(data)
	if len(nals) == 0 {
		return essence.NullOffset, nil
	}

	seenFirstVCL := false
	for _, n := range nals {
		if !n.complete {
			break
		}
		if n.startOffset == 0 {
			continue
		}
		nalType := NALUnitType(n.payload[0] & 0x1f)
		if !isVCL(nalType) {
			continue
		}
		sh, err := p.peekSliceHeader(n.payload, nalType)
		if err != nil {
			continue
		}
		if !seenFirstVCL {
			seenFirstVCL = true
		}
		if p.isNewAccessUnit(sh, nalType) {
			return n.startOffset, nil
		}
	}
	return essence.NullOffset, nil
}

// ParseFrameInfo decodes the first size bytes of data as one access unit,
// updating SPS/PPS state and the exported Last* fields.
func (p *Parser) ParseFrameInfo(data []byte, size int) error {
	if size > len(data) {
		return fmt.Errorf("%w: frame size %d exceeds buffer length %d", errs.ErrTruncated, size, len(data))
	}
	nals := scanNALUnits(data[:size])

	var firstSlice *SliceHeader
	var firstNALType NALUnitType
	for _, n := range nals {
		if !n.complete {
			continue
		}
		nalType := NALUnitType(n.payload[0] & 0x1f)
		switch nalType {
		case NALSPS:
			sps, err := parseSPS(n.payload[1:])
			if err != nil {
				return err
			}
			p.spsMap[sps.SeqParameterSetID] = sps
			p.LastSPS = sps
		case NALPPS:
			pps, err := parsePPS(n.payload[1:], p.spsMap)
			if err != nil {
				return err
			}
			p.ppsMap[pps.PicParameterSetID] = pps
			p.LastPPS = pps
		default:
			if isVCL(nalType) && firstSlice == nil {
				sh, err := p.peekSliceHeader(n.payload, nalType)
				if err == nil {
					firstSlice = sh
					firstNALType = nalType
				}
			}
		}
	}

	if firstSlice == nil {
		return fmt.Errorf("%w: access unit has no VCL NAL", errs.ErrParse)
	}

	p.recordSliceState(firstSlice, firstNALType)
	p.LastSlice = firstSlice
	p.FrameType = sliceTypeToFrameType(firstSlice.SliceType)
	p.POC = p.decodePOC(firstSlice)

	return nil
}

func isVCL(t NALUnitType) bool {
	return t == NALSliceNonIDR || t == NALSliceIDR || (t >= NALSliceDataPartA && t <= NALSliceDataPartC)
}

func sliceTypeToFrameType(sliceType uint32) essence.FrameType {
	switch sliceType % 5 {
	case 0, 5:
		return essence.FrameTypeP
	case 1, 6:
		return essence.FrameTypeB
	case 2, 7:
		return essence.FrameTypeI
	default:
		return essence.FrameTypeUnknown
	}
}

// isNewAccessUnit implements the subset of the Annex 7.4.1.2.4
// new-access-unit test names explicitly.
func (p *Parser) isNewAccessUnit(sh *SliceHeader, nalType NALUnitType) bool {
	if p.LastSlice == nil {
		return true
	}
	prev := p.LastSlice
	if sh.FrameNum != prev.FrameNum {
		return true
	}
	if sh.PPSID != prev.PPSID {
		return true
	}
	if sh.FieldPicFlag != prev.FieldPicFlag {
		return true
	}
	if (sh.NALRefIDC == 0) != (prev.NALRefIDC == 0) {
		return true
	}
	if nalType == NALSliceIDR && !prev.IDRFlag {
		return true
	}
	if sh.PicOrderCntLSB != prev.PicOrderCntLSB || sh.DeltaPicOrderCntBottom != prev.DeltaPicOrderCntBottom {
		return true
	}
	return false
}

func (p *Parser) recordSliceState(sh *SliceHeader, nalType NALUnitType) {
	sh.IDRFlag = nalType == NALSliceIDR
	p.LastSlice = sh
}

// peekSliceHeader decodes just enough of a slice header to test for an
// access-unit boundary, without mutating persistent POC state.
func (p *Parser) peekSliceHeader(nal []byte, nalType NALUnitType) (*SliceHeader, error) {
	if len(nal) < 2 {
		return nil, fmt.Errorf("%w: slice NAL too short", errs.ErrTruncated)
	}
	nalRefIDC := (nal[0] >> 5) & 0x3
	r := newBitReader(nal[1:])

	sh := &SliceHeader{NALRefIDC: nalRefIDC, IDRFlag: nalType == NALSliceIDR}
	var err error
	if sh.FirstMBInSlice, err = r.ue(); err != nil {
		return nil, err
	}
	if sh.SliceType, err = r.ue(); err != nil {
		return nil, err
	}
	if sh.PPSID, err = r.ue(); err != nil {
		return nil, err
	}

	pps, ok := p.ppsMap[sh.PPSID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown PPS id %d", errs.ErrParse, sh.PPSID)
	}
	sps, ok := p.spsMap[pps.SeqParameterSetID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown SPS id %d", errs.ErrParse, pps.SeqParameterSetID)
	}

	fn, err := r.u(sps.Log2MaxFrameNum)
	if err != nil {
		return nil, err
	}
	sh.FrameNum = fn

	if !sps.FrameMBSOnly {
		fieldBit, err := r.u(1)
		if err != nil {
			return nil, err
		}
		sh.FieldPicFlag = fieldBit == 1
		if sh.FieldPicFlag {
			bottomBit, err := r.u(1)
			if err != nil {
				return nil, err
			}
			sh.BottomFieldFlag = bottomBit == 1
		}
	}

	if sh.IDRFlag {
		idrID, err := r.ue()
		if err != nil {
			return nil, err
		}
		sh.IDRPicID = idrID
	}

	if sps.PicOrderCntType == 0 {
		lsb, err := r.u(sps.Log2MaxPicOrderCntLSB)
		if err != nil {
			return nil, err
		}
		sh.PicOrderCntLSB = lsb
		if pps.BottomFieldPicOrderInFramePresent && !sh.FieldPicFlag {
			d, err := r.se()
			if err != nil {
				return nil, err
			}
			sh.DeltaPicOrderCntBottom = d
		}
	} else if sps.PicOrderCntType == 1 && !sps.DeltaPicOrderAlwaysZero {
		d0, err := r.se()
		if err != nil {
			return nil, err
		}
		sh.DeltaPicOrderCnt[0] = d0
		if pps.BottomFieldPicOrderInFramePresent && !sh.FieldPicFlag {
			d1, err := r.se()
			if err != nil {
				return nil, err
			}
			sh.DeltaPicOrderCnt[1] = d1
		}
	}

	sh.PPSID = sh.PPSID // keep explicit for readability at call sites
	return sh, nil
}

// decodePOC computes picture order count for all three pic_order_cnt_type
// variants. Only an IDR picture resets the POC state; memory management
// control operations (including MMCO-5) are not parsed and do not reset it.
func (p *Parser) decodePOC(sh *SliceHeader) int32 {
	pps, ok := p.ppsMap[sh.PPSID]
	if !ok {
		return 0
	}
	sps, ok := p.spsMap[pps.SeqParameterSetID]
	if !ok {
		return 0
	}

	maxFrameNum := int32(1) << sps.Log2MaxFrameNum

	switch sps.PicOrderCntType {
	case 0:
		maxPOCLSB := int32(1) << sps.Log2MaxPicOrderCntLSB
		prevMSB, prevLSB := p.prevPOCMSB, int32(p.prevPOCLSB)
		if sh.IDRFlag {
			prevMSB, prevLSB = 0, 0
		}
		lsb := int32(sh.PicOrderCntLSB)

		var msb int32
		switch {
		case lsb < prevLSB && prevLSB-lsb >= maxPOCLSB/2:
			msb = prevMSB + maxPOCLSB
		case lsb > prevLSB && lsb-prevLSB > maxPOCLSB/2:
			msb = prevMSB - maxPOCLSB
		default:
			msb = prevMSB
		}

		p.prevPOCMSB = msb
		p.prevPOCLSB = sh.PicOrderCntLSB
		return msb + lsb

	case 1:
		frameNumOffset := p.prevFrameNumOffset
		if !p.haveFirstFrame {
			frameNumOffset = 0
		} else if p.prevFrameNum > sh.FrameNum {
			frameNumOffset = p.prevFrameNumOffset + maxFrameNum
		} else {
			frameNumOffset = p.prevFrameNumOffset
		}
		p.prevFrameNumOffset = frameNumOffset
		p.prevFrameNum = sh.FrameNum
		p.haveFirstFrame = true

		absFrameNum := frameNumOffset + int32(sh.FrameNum)
		if sps.NumRefFramesInPOCCycle == 0 {
			absFrameNum = 0
		} else if sh.NALRefIDC == 0 && absFrameNum > 0 {
			absFrameNum--
		}

		var expectedDeltaPerCycle int32
		for _, v := range sps.OffsetForRefFrame {
			expectedDeltaPerCycle += v
		}
		var expectedPOC int32
		if absFrameNum > 0 && sps.NumRefFramesInPOCCycle > 0 {
			cycles := (absFrameNum - 1) / int32(sps.NumRefFramesInPOCCycle)
			frameNumInCycle := (absFrameNum - 1) % int32(sps.NumRefFramesInPOCCycle)
			expectedPOC = cycles * expectedDeltaPerCycle
			for i := int32(0); i <= frameNumInCycle && int(i) < len(sps.OffsetForRefFrame); i++ {
				expectedPOC += sps.OffsetForRefFrame[i]
			}
		}
		if sh.NALRefIDC == 0 {
			expectedPOC += sps.OffsetForNonRefPic
		}
		return expectedPOC + sh.DeltaPicOrderCnt[0]

	case 2:
		frameNumOffset := p.prevFrameNumOffset
		if !p.haveFirstFrame {
			frameNumOffset = 0
		} else if p.prevFrameNum > sh.FrameNum {
			frameNumOffset = p.prevFrameNumOffset + maxFrameNum
		}
		p.prevFrameNumOffset = frameNumOffset
		p.prevFrameNum = sh.FrameNum
		p.haveFirstFrame = true

		if sh.IDRFlag {
			return 0
		}
		tempPOC := 2 * (frameNumOffset + int32(sh.FrameNum))
		if sh.NALRefIDC == 0 {
			tempPOC--
		}
		return tempPOC

	default:
		return 0
	}
}
