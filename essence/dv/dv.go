// Package dv identifies IEC/SMPTE DV-based essence (DV25, DV50, DV100 at
// 1080i/720p) from DIF block header bytes and reports the fixed frame size
// for the variant.
package dv

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/essence"
)

// Variant names a DV essence flavour. Frame size is constant per variant,
// so once identified ParseFrameSize never needs to re-inspect the stream.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantDV25_625_50
	VariantDV25_525_60
	VariantDV50_625_50
	VariantDV50_525_60
	VariantDV100_1080i50
	VariantDV100_1080i60
	VariantDV100_720p50
	VariantDV100_720p60
)

// frameSizes gives the fixed DIF-block-derived frame size in bytes for
// each variant.
var frameSizes = map[Variant]int{
	VariantDV25_625_50:   144000,
	VariantDV25_525_60:   120000,
	VariantDV50_625_50:   288000,
	VariantDV50_525_60:   240000,
	VariantDV100_1080i50: 576000,
	VariantDV100_1080i60: 480000,
	VariantDV100_720p50:  288000,
	VariantDV100_720p60:  240000,
}

const difBlockSize = 80
const difSequenceHeaderOffset = 0 // sequence header block is the first DIF block

// Info holds the fields decoded from a DIF block header: DV25/DV50/DV100
// 1080i/720p is identified by inspecting the DIF block APT/STA bytes at
// fixed positions.
type Info struct {
	Variant        Variant
	AspectRatio16x9 bool
	Is50Hz         bool
	FrameSize      int
}

// Parser decodes DV frame headers. DV has no inter-frame parameter sets to
// persist; state exists only to satisfy the common Parser shape.
type Parser struct {
	Last Info
}

// NewParser creates a Parser.
func NewParser() *Parser { return &Parser{} }

// ParseFrameStart always reports offset 0: DV essence has no start code to
// scan for, each frame is simply the next fixed-size block of DIF data
// once the variant (and thus frame size) is known.
func (p *Parser) ParseFrameStart(data []byte) (int, error) {
	if len(data) < difBlockSize {
		return essence.NullOffset, nil
	}
	return 0, nil
}

// ParseFrameSize identifies the variant from the DIF sequence header block
// and returns its fixed frame size.
func (p *Parser) ParseFrameSize(data []byte) (int, error) {
	if len(data) < difBlockSize {
		return essence.NullOffset, nil
	}
	info, err := identify(data)
	if err != nil {
		return essence.NullFrameSize, nil
	}
	if len(data) < info.FrameSize {
		return essence.NullOffset, nil
	}
	return info.FrameSize, nil
}

// ParseFrameInfo decodes the DIF header fields for the frame beginning at
// offset 0.
func (p *Parser) ParseFrameInfo(data []byte, size int) error {
	if size > len(data) || size < difBlockSize {
		return fmt.Errorf("%w: DV frame size %d too small for a DIF header", errs.ErrTruncated, size)
	}
	info, err := identify(data)
	if err != nil {
		return err
	}
	p.Last = info
	return nil
}

// identify reads APT (Application ID Track) and STA (Source Type) bytes
// from the header DIF block to classify the DV variant.
func identify(data []byte) (Info, error) {
	header := data[:difBlockSize]

	// Section 3 of the header DIF block (ID byte 0x1f) carries APT in its
	// low 3 bits of byte 3; STA lives in the video-source pack that follows
	// the header block's SSYB sections. bmx inspects the fixed byte
	// positions libdv/FFmpeg's DV demuxers use rather than re-deriving the
	// packed structure from first principles.
	if header[0] != 0x1f {
		return Info{}, fmt.Errorf("%w: not a DV header DIF block", errs.ErrParse)
	}

	apt := header[3] & 0x07
	is50Hz := (header[3]>>7)&1 == 0 // STYPE system bit: 0 => 625/50, 1 => 525/60 in the common mapping

	var v Variant
	switch {
	case apt == 0 && is50Hz:
		v = VariantDV25_625_50
	case apt == 0 && !is50Hz:
		v = VariantDV25_525_60
	case apt == 4 && is50Hz:
		v = VariantDV50_625_50
	case apt == 4 && !is50Hz:
		v = VariantDV50_525_60
	case apt == 5 && is50Hz:
		v = VariantDV100_1080i50
	case apt == 5 && !is50Hz:
		v = VariantDV100_1080i60
	case apt == 6 && is50Hz:
		v = VariantDV100_720p50
	case apt == 6 && !is50Hz:
		v = VariantDV100_720p60
	default:
		return Info{}, fmt.Errorf("%w: unrecognized DV APT/STA combination", errs.ErrUnsupportedFormat)
	}

	size, ok := frameSizes[v]
	if !ok {
		return Info{}, fmt.Errorf("%w: no frame size mapping for DV variant %d", errs.ErrUnsupportedFormat, v)
	}

	return Info{
		Variant:         v,
		AspectRatio16x9: (header[3]>>3)&1 == 1,
		Is50Hz:          is50Hz,
		FrameSize:       size,
	}, nil
}
