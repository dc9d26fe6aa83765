// Package rdd6 parses SMPTE RDD-6 audio metadata: Dolby E / Dolby Digital
// data segments packaged into ST 2020 frames (sync segment, data segments,
// end-of-frame sync word), read through a bit-accurate reader. A decoded
// Frame can be rendered as XML (ToXML, MarshalXML); XML is not parsed back
// into a Frame.
package rdd6

import (
	"encoding/binary"
	"encoding/xml"
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/essence"
)

// Sync words bmx recognizes (SMPTE ST 2020-1 Table 2).
const (
	SyncWordFrame = 0x9669
	SyncWordEnd   = 0x9561
)

// SegmentType enumerates the Dolby E / Dolby Digital data segment types
// RDD-6 carries.
type SegmentType int

const (
	SegmentDolbyEComplete SegmentType = iota
	SegmentDolbyEEssential
	SegmentDolbyDigitalComplete
	SegmentDolbyDigitalEssential
	SegmentExtBSI
)

// DataSegment is one decoded data segment within an RDD-6 frame.
type DataSegment struct {
	Type    SegmentType
	Payload []byte
}

// Frame is one decoded ST 2020 metadata frame: a sync segment (SMPTE time
// address and frame metadata), the data segments it carries, and the
// end-of-frame sync word bmx validates on read.
type Frame struct {
	SMPTETimeAddress uint32
	Segments         []DataSegment
}

// Parser decodes a stream of back-to-back RDD-6 frames. Frames carry no
// state across each other, but the Parser shape stays consistent with the
// rest of essence/* for uniform caller code.
type Parser struct {
	Last Frame
}

// NewParser creates a Parser.
func NewParser() *Parser { return &Parser{} }

// ParseFrameStart returns the offset of the next frame sync word.
func (p *Parser) ParseFrameStart(data []byte) (int, error) {
	for i := 0; i+1 < len(data); i++ {
		if binary.BigEndian.Uint16(data[i:i+2]) == SyncWordFrame {
			return i, nil
		}
	}
	return essence.NullOffset, nil
}

// ParseFrameSize scans from offset 0 for the end-of-frame sync word,
// returning the total frame size including it.
func (p *Parser) ParseFrameSize(data []byte) (int, error) {
	if len(data) < 2 || binary.BigEndian.Uint16(data[0:2]) != SyncWordFrame {
		return essence.NullFrameSize, nil
	}
	for i := 2; i+1 < len(data); i++ {
		if binary.BigEndian.Uint16(data[i:i+2]) == SyncWordEnd {
			return i + 2, nil
		}
	}
	return essence.NullOffset, nil
}

// ParseFrameInfo decodes the sync segment and every data segment within
// the frame.
func (p *Parser) ParseFrameInfo(data []byte, size int) error {
	if size > len(data) || size < 10 {
		return fmt.Errorf("%w: RDD-6 frame size %d too small", errs.ErrTruncated, size)
	}
	if binary.BigEndian.Uint16(data[0:2]) != SyncWordFrame {
		return fmt.Errorf("%w: missing RDD-6 frame sync word", errs.ErrParse)
	}
	if binary.BigEndian.Uint16(data[size-2:size]) != SyncWordEnd {
		return fmt.Errorf("%w: missing RDD-6 end-of-frame sync word", errs.ErrParse)
	}

	r := newBitReader(data[2 : size-2])
	frame := Frame{}

	timeAddr, err := r.u(32)
	if err != nil {
		return err
	}
	frame.SMPTETimeAddress = timeAddr

	for r.remainingBits() > 16 {
		segTypeBits, err := r.u(8)
		if err != nil {
			break
		}
		segLenBits, err := r.u(16)
		if err != nil {
			break
		}
		payload, err := r.bytes(int(segLenBits))
		if err != nil {
			break
		}
		frame.Segments = append(frame.Segments, DataSegment{
			Type:    SegmentType(segTypeBits),
			Payload: payload,
		})
	}

	p.Last = frame
	return nil
}

// bitReader reads MSB-first bits, matching the codec bitreader shape used
// elsewhere in essence/* but kept local since RDD-6 is the only parser
// here that needs sub-byte field access beyond a handful of fixed bytes.
type bitReader struct {
	data   []byte
	bitPos int
}

func newBitReader(data []byte) *bitReader { return &bitReader{data: data} }

func (r *bitReader) remainingBits() int { return len(r.data)*8 - r.bitPos }

func (r *bitReader) u(n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		byteIdx := r.bitPos / 8
		if byteIdx >= len(r.data) {
			return 0, fmt.Errorf("%w: RDD-6 bitstream exhausted", errs.ErrTruncated)
		}
		shift := 7 - uint(r.bitPos%8)
		bit := (r.data[byteIdx] >> shift) & 1
		v = v<<1 | uint32(bit)
		r.bitPos++
	}
	return v, nil
}

func (r *bitReader) bytes(n int) ([]byte, error) {
	if r.bitPos%8 != 0 {
		return nil, fmt.Errorf("%w: RDD-6 segment payload not byte-aligned", errs.ErrParse)
	}
	start := r.bitPos / 8
	if start+n > len(r.data) {
		return nil, fmt.Errorf("%w: RDD-6 segment payload truncated", errs.ErrTruncated)
	}
	r.bitPos += n * 8
	return r.data[start : start+n], nil
}

// XMLFrame is the XML representation of a Frame produced by ToXML. Nothing
// in this package decodes it back into a Frame.
type XMLFrame struct {
	XMLName          xml.Name      `xml:"RDD6Frame"`
	SMPTETimeAddress uint32        `xml:"SMPTETimeAddress"`
	Segments         []XMLSegment  `xml:"DataSegment"`
}

// XMLSegment is one data segment's XML representation, with its payload
// carried as a hex string.
type XMLSegment struct {
	Type    int    `xml:"type,attr"`
	Payload string `xml:"payload"`
}

// ToXML converts a decoded Frame to its XML authoring representation.
func ToXML(f Frame) XMLFrame {
	out := XMLFrame{SMPTETimeAddress: f.SMPTETimeAddress}
	for _, seg := range f.Segments {
		out.Segments = append(out.Segments, XMLSegment{
			Type:    int(seg.Type),
			Payload: fmt.Sprintf("%x", seg.Payload),
		})
	}
	return out
}

// MarshalXML renders f as RDD-6 authoring XML.
func MarshalXML(f Frame) ([]byte, error) {
	return xml.MarshalIndent(ToXML(f), "", "  ")
}
