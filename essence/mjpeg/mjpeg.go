// Package mjpeg scans a Motion JPEG elementary stream for SOI/EOI markers,
// optionally pairing two fields into one frame.
package mjpeg

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/essence"
)

const (
	markerSOI = 0xd8
	markerEOI = 0xd9
)

// Info holds the fields decoded for one (possibly field-paired) frame.
type Info struct {
	FieldCount int // 1 for frame mode, 2 for field-pair mode
	ByteSize   int
}

// Parser scans JFIF/EXIF-framed MJPEG images. FieldPairMode defaults to
// true, matching "field-pair mode is default".
type Parser struct {
	FieldPairMode bool
	Last          Info
}

// NewParser creates a Parser with field-pair mode enabled.
func NewParser() *Parser {
	return &Parser{FieldPairMode: true}
}

// ParseFrameStart returns the offset of the first SOI marker.
func (p *Parser) ParseFrameStart(data []byte) (int, error) {
	off := findMarker(data, markerSOI, 0)
	if off < 0 {
		return essence.NullOffset, nil
	}
	return off, nil
}

// ParseFrameSize returns the size of the image (or image pair, in
// field-pair mode) beginning at offset 0.
func (p *Parser) ParseFrameSize(data []byte) (int, error) {
	fields := 1
	if p.FieldPairMode {
		fields = 2
	}

	pos := 0
	for i := 0; i < fields; i++ {
		soi := findMarker(data, markerSOI, pos)
		if soi != pos {
			return essence.NullFrameSize, nil
		}
		eoi := findMarker(data, markerEOI, soi+2)
		if eoi < 0 {
			return essence.NullOffset, nil
		}
		pos = eoi + 2
	}
	return pos, nil
}

// ParseFrameInfo records the decoded field count and size.
func (p *Parser) ParseFrameInfo(data []byte, size int) error {
	if size > len(data) {
		return fmt.Errorf("%w: frame size %d exceeds buffer length %d", errs.ErrTruncated, size, len(data))
	}
	fields := 1
	if p.FieldPairMode {
		fields = 2
	}
	p.Last = Info{FieldCount: fields, ByteSize: size}
	return nil
}

// findMarker locates the next 0xff,marker byte pair at or after start,
// skipping the 0xff00 byte-stuffing escape sequence and 0xffxx fill bytes.
func findMarker(data []byte, marker byte, start int) int {
	for i := start; i+1 < len(data); i++ {
		if data[i] == 0xff && data[i+1] == marker {
			return i
		}
	}
	return -1
}
