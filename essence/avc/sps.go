package avc

// parseSPS decodes a sequence parameter set RBSP (payload with the NAL
// header byte already stripped by the caller), covering the fields bmx
// needs for descriptor authoring and POC decode.
func parseSPS(rbsp []byte) (*SPS, error) {
	r := newBitReader(rbsp)
	s := &SPS{ChromaFormatIDC: 1, BitDepthLuma: 8, BitDepthChroma: 8, FrameMBSOnly: true}

	profile, err := r.u(8)
	if err != nil {
		return nil, err
	}
	s.ProfileIDC = uint8(profile)

	constraints, err := r.u(8)
	if err != nil {
		return nil, err
	}
	s.ConstraintSetFlags = uint8(constraints)

	level, err := r.u(8)
	if err != nil {
		return nil, err
	}
	s.LevelIDC = uint8(level)

	if s.SeqParameterSetID, err = r.ue(); err != nil {
		return nil, err
	}

	highProfiles := map[uint8]bool{100: true, 110: true, 122: true, 244: true, 44: true, 83: true, 86: true, 118: true, 128: true, 138: true, 139: true, 134: true, 135: true}
	if highProfiles[s.ProfileIDC] {
		if s.ChromaFormatIDC, err = r.ue(); err != nil {
			return nil, err
		}
		if s.ChromaFormatIDC == 3 {
			if _, err := r.u(1); err != nil { // separate_colour_plane_flag
				return nil, err
			}
		}
		bdLuma, err := r.ue()
		if err != nil {
			return nil, err
		}
		s.BitDepthLuma = bdLuma + 8
		bdChroma, err := r.ue()
		if err != nil {
			return nil, err
		}
		s.BitDepthChroma = bdChroma + 8

		if _, err := r.u(1); err != nil { // qpprime_y_zero_transform_bypass_flag
			return nil, err
		}
		seqScalingPresent, err := r.u(1)
		if err != nil {
			return nil, err
		}
		if seqScalingPresent == 1 {
			n := 8
			if s.ChromaFormatIDC == 3 {
				n = 12
			}
			for i := 0; i < n; i++ {
				present, err := r.u(1)
				if err != nil {
					return nil, err
				}
				if present == 1 {
					size := 16
					if i >= 6 {
						size = 64
					}
					if err := skipScalingList(r, size); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	if s.Log2MaxFrameNum, err = r.ue(); err != nil {
		return nil, err
	}
	s.Log2MaxFrameNum += 4

	if s.PicOrderCntType, err = r.ue(); err != nil {
		return nil, err
	}

	switch s.PicOrderCntType {
	case 0:
		v, err := r.ue()
		if err != nil {
			return nil, err
		}
		s.Log2MaxPicOrderCntLSB = v + 4
	case 1:
		zeroBit, err := r.u(1)
		if err != nil {
			return nil, err
		}
		s.DeltaPicOrderAlwaysZero = zeroBit == 1
		if s.OffsetForNonRefPic, err = r.se(); err != nil {
			return nil, err
		}
		if s.OffsetForTopToBottomField, err = r.se(); err != nil {
			return nil, err
		}
		if s.NumRefFramesInPOCCycle, err = r.ue(); err != nil {
			return nil, err
		}
		s.OffsetForRefFrame = make([]int32, s.NumRefFramesInPOCCycle)
		for i := range s.OffsetForRefFrame {
			if s.OffsetForRefFrame[i], err = r.se(); err != nil {
				return nil, err
			}
		}
	}

	if _, err := r.ue(); err != nil { // max_num_ref_frames
		return nil, err
	}
	if _, err := r.u(1); err != nil { // gaps_in_frame_num_value_allowed_flag
		return nil, err
	}

	if s.PicWidthInMBs, err = r.ue(); err != nil {
		return nil, err
	}
	s.PicWidthInMBs++

	if s.PicHeightInMapUnits, err = r.ue(); err != nil {
		return nil, err
	}
	s.PicHeightInMapUnits++

	frameMBSOnly, err := r.u(1)
	if err != nil {
		return nil, err
	}
	s.FrameMBSOnly = frameMBSOnly == 1
	if !s.FrameMBSOnly {
		if _, err := r.u(1); err != nil { // mb_adaptive_frame_field_flag
			return nil, err
		}
	}
	if _, err := r.u(1); err != nil { // direct_8x8_inference_flag
		return nil, err
	}

	cropFlag, err := r.u(1)
	if err != nil {
		return nil, err
	}
	s.FrameCropping = cropFlag == 1
	if s.FrameCropping {
		if s.CropLeft, err = r.ue(); err != nil {
			return nil, err
		}
		if s.CropRight, err = r.ue(); err != nil {
			return nil, err
		}
		if s.CropTop, err = r.ue(); err != nil {
			return nil, err
		}
		if s.CropBottom, err = r.ue(); err != nil {
			return nil, err
		}
	}

	vuiPresent, err := r.u(1)
	if err != nil {
		return nil, err
	}
	s.VUIPresent = vuiPresent == 1
	if s.VUIPresent {
		parseVUITiming(r, s) // best-effort; stops at the first unsupported section
	}

	return s, nil
}

func skipScalingList(r *bitReader, size int) error {
	lastScale, nextScale := int32(8), int32(8)
	for i := 0; i < size; i++ {
		if nextScale != 0 {
			delta, err := r.se()
			if err != nil {
				return err
			}
			nextScale = (lastScale + delta + 256) % 256
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
	}
	return nil
}

// parseVUITiming reads just enough of the VUI to recover timing_info,
// ignoring aspect-ratio/overscan/video-signal/chroma-loc sections it does
// not need. Reading stops after timing_info: HRD parameters are not decoded.
func parseVUITiming(r *bitReader, s *SPS) {
	aspectRatioInfoPresent, err := r.u(1)
	if err != nil {
		return
	}
	if aspectRatioInfoPresent == 1 {
		idc, err := r.u(8)
		if err != nil {
			return
		}
		if idc == 255 {
			if _, err := r.u(16); err != nil {
				return
			}
			if _, err := r.u(16); err != nil {
				return
			}
		}
	}
	overscanPresent, err := r.u(1)
	if err != nil {
		return
	}
	if overscanPresent == 1 {
		if _, err := r.u(1); err != nil {
			return
		}
	}
	videoSignalPresent, err := r.u(1)
	if err != nil {
		return
	}
	if videoSignalPresent == 1 {
		if _, err := r.u(4); err != nil { // format(3) + full_range(1)
			return
		}
		colorDescPresent, err := r.u(1)
		if err != nil {
			return
		}
		if colorDescPresent == 1 {
			if _, err := r.u(24); err != nil {
				return
			}
		}
	}
	chromaLocPresent, err := r.u(1)
	if err != nil {
		return
	}
	if chromaLocPresent == 1 {
		if _, err := r.ue(); err != nil {
			return
		}
		if _, err := r.ue(); err != nil {
			return
		}
	}

	timingInfoPresent, err := r.u(1)
	if err != nil {
		return
	}
	s.TimingInfoPresent = timingInfoPresent == 1
	if s.TimingInfoPresent {
		if s.NumUnitsInTick, err = r.u(32); err != nil {
			return
		}
		if s.TimeScale, err = r.u(32); err != nil {
			return
		}
		fixedRate, err := r.u(1)
		if err != nil {
			return
		}
		s.FixedFrameRate = fixedRate == 1
	}
}
