// Package rdd36 parses SMPTE RDD-36 (Apple ProRes) frame headers: frame
// size, picture dimensions, interlace mode and colour properties.
package rdd36

import (
	"encoding/binary"
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/essence"
)

// frameHeaderTag is the 4-byte "icpf" frame identifier at offset 4 of
// every RDD-36 frame.
var frameHeaderTag = [4]byte{'i', 'c', 'p', 'f'}

// Info holds the decoded frame header fields.
type Info struct {
	HorizontalSize, VerticalSize uint16
	ChromaFormat                 uint8
	InterlaceMode                uint8
	AspectRatioInformation       uint8
	FrameRateCode                uint8
	ColorPrimaries               uint8
	TransferCharacteristic       uint8
	MatrixCoefficients           uint8
	AlphaChannelType             uint8
}

// PictureCount reports 1 for progressive frames and 2 for interlaced
// frames, matching.
func (i Info) PictureCount() int {
	if i.InterlaceMode == 0 {
		return 1
	}
	return 2
}

// Parser decodes RDD-36 frame headers. Every frame is fully self-contained
// (no persistent parameter sets to carry across frames).
type Parser struct {
	Last Info
}

// NewParser creates a Parser.
func NewParser() *Parser { return &Parser{} }

// ParseFrameStart returns 0 once a complete frame_size + "icpf" tag has
// been seen at the start of data.
func (p *Parser) ParseFrameStart(data []byte) (int, error) {
	if len(data) < 8 {
		return essence.NullOffset, nil
	}
	if !hasTag(data) {
		return essence.NullFrameSize, nil
	}
	return 0, nil
}

// ParseFrameSize reads the big-endian frame_size field at offset 0.
func (p *Parser) ParseFrameSize(data []byte) (int, error) {
	if len(data) < 8 {
		return essence.NullOffset, nil
	}
	if !hasTag(data) {
		return essence.NullFrameSize, nil
	}
	size := int(binary.BigEndian.Uint32(data[0:4]))
	if len(data) < size {
		return essence.NullOffset, nil
	}
	return size, nil
}

// ParseFrameInfo decodes the frame header for the frame beginning at
// offset 0.
func (p *Parser) ParseFrameInfo(data []byte, size int) error {
	if size > len(data) || size < 20 {
		return fmt.Errorf("%w: RDD-36 frame size %d too small for a header", errs.ErrTruncated, size)
	}
	if !hasTag(data) {
		return fmt.Errorf("%w: missing icpf frame identifier", errs.ErrParse)
	}

	headerSize := binary.BigEndian.Uint16(data[8:10])
	if int(headerSize) > size {
		return fmt.Errorf("%w: frame_header_size exceeds frame size", errs.ErrParse)
	}

	p.Last = Info{
		HorizontalSize:         binary.BigEndian.Uint16(data[12:14]),
		VerticalSize:           binary.BigEndian.Uint16(data[14:16]),
		ChromaFormat:           data[16] >> 6,
		InterlaceMode:          (data[16] >> 2) & 0x3,
		AspectRatioInformation: data[17] >> 4,
		FrameRateCode:          data[17] & 0x0f,
		ColorPrimaries:         data[18],
		TransferCharacteristic: data[19],
	}
	if size > 20 {
		p.Last.MatrixCoefficients = data[20]
	}
	// quantization matrices (if flagged present earlier in the header)
	// follow at a fixed offset bmx does not need for descriptor authoring
	// and so does not decode.
	return nil
}

func hasTag(data []byte) bool {
	return data[4] == frameHeaderTag[0] && data[5] == frameHeaderTag[1] &&
		data[6] == frameHeaderTag[2] && data[7] == frameHeaderTag[3]
}
