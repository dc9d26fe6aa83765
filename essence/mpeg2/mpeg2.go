// Package mpeg2 parses MPEG-2 video elementary streams: start-code
// scanning and the sequence/picture header fields bmx needs to author a
// CDCIEssenceDescriptor.
package mpeg2

import (
	"encoding/binary"
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/essence"
)

// Start code values bmx recognizes.
const (
	codePictureStart       = 0x00
	codeSequenceHeader     = 0xb3
	codeExtensionStart     = 0xb5
	codeSequenceEnd        = 0xb7
	codeGroupStart         = 0xb8
)

// Extension start code identifiers (the 4-bit extension_start_code_identifier
// following 0x000001b5).
const (
	extSequence        = 0x1
	extSequenceDisplay = 0x2
	extPictureCoding   = 0x8
)

// SequenceInfo holds decoded sequence-layer fields.
type SequenceInfo struct {
	Width, Height       uint32
	AspectRatioCode     uint8
	FrameRateCode       uint8
	BitRate             uint32
	ChromaFormat        uint8 // from the sequence extension; 1=4:2:0, 2=4:2:2, 3=4:4:4
	Progressive         bool
	LowDelay            bool
	ProfileAndLevel     uint8
	ColorPrimaries      uint8
	TransferCharacteristics uint8
	MatrixCoefficients  uint8
}

// PictureInfo holds decoded picture-layer fields for one frame.
type PictureInfo struct {
	FrameType       essence.FrameType
	TemporalReference uint32
	VBVDelay        uint32
	ClosedGOP       bool
	TopFieldFirst   bool
}

// Parser scans an MPEG-2 video elementary stream frame by frame. Sequence
// header/extension fields persist across frames, since a closed GOP stream
// need only repeat the sequence header occasionally.
type Parser struct {
	Sequence SequenceInfo
	Picture  PictureInfo
}

// NewParser creates an empty Parser.
func NewParser() *Parser { return &Parser{} }

// ParseFrameStart returns the offset of the first picture_start_code in
// data, which may be offset 0.
func (p *Parser) ParseFrameStart(data []byte) (int, error) {
	codes := findStartCodes(data)
	for _, c := range codes {
		if c.id == codePictureStart {
			return c.offset, nil
		}
	}
	return essence.NullOffset, nil
}

// ParseFrameSize returns the offset of the picture start code following
// the one at offset 0.
func (p *Parser) ParseFrameSize(data []byte) (int, error) {
	codes := findStartCodes(data)
	seenFirst := false
	for _, c := range codes {
		if c.offset == 0 {
			seenFirst = true
			continue
		}
		if seenFirst && c.id == codePictureStart {
			return c.offset, nil
		}
	}
	return essence.NullOffset, nil
}

// ParseFrameInfo decodes every header in the first size bytes of data.
func (p *Parser) ParseFrameInfo(data []byte, size int) error {
	if size > len(data) {
		return fmt.Errorf("%w: frame size %d exceeds buffer length %d", errs.ErrTruncated, size, len(data))
	}
	codes := findStartCodes(data[:size])

	for i, c := range codes {
		var end int
		if i+1 < len(codes) {
			end = codes[i+1].offset
		} else {
			end = size
		}
		payload := data[c.offset+4 : end]

		switch c.id {
		case codeSequenceHeader:
			if err := p.parseSequenceHeader(payload); err != nil {
				return err
			}
		case codeExtensionStart:
			if len(payload) == 0 {
				continue
			}
			extID := payload[0] >> 4
			switch extID {
			case extSequence:
				p.parseSequenceExtension(payload)
			case extSequenceDisplay:
				p.parseSequenceDisplayExtension(payload)
			case extPictureCoding:
				p.parsePictureCodingExtension(payload)
			}
		case codePictureStart:
			if err := p.parsePictureHeader(payload); err != nil {
				return err
			}
		}
	}
	return nil
}

type startCode struct {
	offset int
	id     byte
}

func findStartCodes(data []byte) []startCode {
	var out []startCode
	for i := 0; i+3 < len(data); i++ {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
			out = append(out, startCode{offset: i, id: data[i+3]})
			i += 3
		}
	}
	return out
}

func (p *Parser) parseSequenceHeader(payload []byte) error {
	if len(payload) < 8 {
		return fmt.Errorf("%w: sequence header truncated", errs.ErrTruncated)
	}
	p.Sequence.Width = uint32(payload[0])<<4 | uint32(payload[1])>>4
	p.Sequence.Height = (uint32(payload[1]&0x0f) << 8) | uint32(payload[2])
	p.Sequence.AspectRatioCode = payload[3] >> 4
	p.Sequence.FrameRateCode = payload[3] & 0x0f

	bitRateValue := uint32(payload[4])<<10 | uint32(payload[5])<<2 | uint32(payload[6])>>6
	p.Sequence.BitRate = bitRateValue * 400 // 400 bit/s units
	return nil
}

func (p *Parser) parseSequenceExtension(payload []byte) {
	if len(payload) < 4 {
		return
	}
	p.Sequence.ProfileAndLevel = ((payload[0] & 0x0f) << 4) | (payload[1] >> 4)
	p.Sequence.Progressive = (payload[1]>>3)&1 == 1
	p.Sequence.ChromaFormat = (payload[1] >> 1) & 0x3
	// low_delay sits at bit offset 40: 4(ext id)+8(profile)+1(progressive)
	// +2(chroma)+2(h_ext)+2(v_ext)+12(bitrate_ext)+1(marker)+8(vbv_ext).
	p.Sequence.LowDelay = extractBit(payload, 40)
}

func extractBit(data []byte, bitOffset int) bool {
	byteIdx := bitOffset / 8
	if byteIdx >= len(data) {
		return false
	}
	shift := 7 - uint(bitOffset%8)
	return (data[byteIdx]>>shift)&1 == 1
}

func (p *Parser) parseSequenceDisplayExtension(payload []byte) {
	if len(payload) < 1 {
		return
	}
	videoFormat := (payload[0] >> 1) & 0x7
	colorDescription := payload[0] & 1
	if colorDescription == 1 && len(payload) >= 4 {
		p.Sequence.ColorPrimaries = payload[1]
		p.Sequence.TransferCharacteristics = payload[2]
		p.Sequence.MatrixCoefficients = payload[3]
	}
	_ = videoFormat
}

func (p *Parser) parsePictureCodingExtension(payload []byte) {
	if len(payload) < 4 {
		return
	}
	// top_field_first is bit 24: 4(ext id)+16(f_codes)+2(dc)+2(structure).
	p.Picture.TopFieldFirst = (payload[3]>>7)&1 == 1
}

func (p *Parser) parsePictureHeader(payload []byte) error {
	if len(payload) < 4 {
		return fmt.Errorf("%w: picture header truncated", errs.ErrTruncated)
	}
	full := binary.BigEndian.Uint32(payload[0:4])
	p.Picture.TemporalReference = full >> 22
	codingType := (full >> 19) & 0x7
	p.Picture.FrameType = pictureCodingTypeToFrameType(uint8(codingType))
	p.Picture.VBVDelay = (full >> 3) & 0xffff
	return nil
}

func pictureCodingTypeToFrameType(codingType uint8) essence.FrameType {
	switch codingType {
	case 1:
		return essence.FrameTypeI
	case 2:
		return essence.FrameTypeP
	case 3:
		return essence.FrameTypeB
	default:
		return essence.FrameTypeUnknown
	}
}
