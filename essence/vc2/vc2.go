// Package vc2 implements the VC-2 (Dirac Pro / SMPTE RDD-34) parse-info
// state machine: fixed 13-byte parse-info headers chaining sequence
// header, picture and auxiliary/padding units together.
package vc2

import (
	"encoding/binary"
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/essence"
)

// Parse-code values bmx distinguishes (SMPTE ST 2042-1 Table 9.1 subset).
const (
	ParseSequenceHeader = 0x00
	ParseEndOfSequence  = 0x10
	ParseAuxiliaryData  = 0x20
	ParsePadding        = 0x30
)

// isPictureParseCode reports whether code identifies a picture (as opposed
// to sequence header / end-of-sequence / auxiliary / padding) parse unit;
// picture codes occupy the 0x08-0x0c/0xc8-0xec ranges depending on
// fragmentation and lossless/lossy coding.
func isPictureParseCode(code byte) bool {
	return code&0x08 != 0
}

const parseInfoSize = 13

var parseInfoPrefix = [4]byte{'B', 'B', 'C', 'D'}

// ParseInfo is one decoded 13-byte parse-info header.
type ParseInfo struct {
	ParseCode      byte
	PrevParseOffset uint32
	NextParseOffset uint32
}

// SequenceHeader holds the subset of sequence_header fields bmx tracks
// across pictures.
type SequenceHeader struct {
	MajorVersion, MinorVersion byte
	Profile, Level             uint32
	BaseVideoFormat            uint32
	WaveletIndex               uint32
}

// Parser walks the chain of parse-info units in a VC-2 stream. Sequence
// header fields persist once decoded; PictureCount tracks how many
// pictures have been seen in the current run for the "identical-sequence"
// predicate.
type Parser struct {
	Sequence     SequenceHeader
	haveSequence bool
	PictureCount int

	firstUnitBytes []byte // remembered to drive the identical-sequence predicate
}

// NewParser creates a Parser.
func NewParser() *Parser { return &Parser{} }

// ParseFrameStart returns the offset of the next picture parse unit.
func (p *Parser) ParseFrameStart(data []byte) (int, error) {
	units, _ := scanParseUnits(data)
	for _, u := range units {
		if isPictureParseCode(data[u.offset+4]) {
			return u.offset, nil
		}
	}
	return essence.NullOffset, nil
}

// ParseFrameSize returns the distance to the next parse unit after offset
// 0, which the next_parse_offset field of the unit at offset 0 already
// gives directly once it is non-zero (VC-2 streams always populate it for
// non-terminal units).
func (p *Parser) ParseFrameSize(data []byte) (int, error) {
	if len(data) < parseInfoSize {
		return essence.NullOffset, nil
	}
	info, err := decodeParseInfo(data[:parseInfoSize])
	if err != nil {
		return essence.NullFrameSize, nil
	}
	if info.NextParseOffset == 0 {
		return essence.NullOffset, nil // terminal unit in this buffer; need more data or EOS
	}
	if uint32(len(data)) < info.NextParseOffset {
		return essence.NullOffset, nil
	}
	return int(info.NextParseOffset), nil
}

// ParseFrameInfo decodes the sequence header (if present) and advances
// PictureCount for every picture parse unit within the first size bytes.
func (p *Parser) ParseFrameInfo(data []byte, size int) error {
	if size > len(data) {
		return fmt.Errorf("%w: frame size %d exceeds buffer length %d", errs.ErrTruncated, size, len(data))
	}
	units, _ := scanParseUnits(data[:size])

	for _, u := range units {
		code := data[u.offset+4]
		switch {
		case code == ParseSequenceHeader:
			sh, err := parseSequenceHeader(data[u.offset+parseInfoSize:])
			if err != nil {
				return err
			}
			p.Sequence = sh
			p.haveSequence = true
		case isPictureParseCode(code):
			p.PictureCount++
		}
	}
	return nil
}

// IsIdenticalSequence reports whether this parser's sequence header
// matches other's, the predicate bmx uses to select SMPTE RDD-34 Operating
// Mode A when multiplexing several VC-2 tracks.
func (p *Parser) IsIdenticalSequence(other *Parser) bool {
	if !p.haveSequence || !other.haveSequence {
		return false
	}
	return p.Sequence == other.Sequence
}

type parseUnit struct {
	offset int
}

func scanParseUnits(data []byte) ([]parseUnit, bool) {
	var units []parseUnit
	pos := 0
	for pos+parseInfoSize <= len(data) {
		if data[pos] != parseInfoPrefix[0] || data[pos+1] != parseInfoPrefix[1] ||
			data[pos+2] != parseInfoPrefix[2] || data[pos+3] != parseInfoPrefix[3] {
			break
		}
		units = append(units, parseUnit{offset: pos})
		info, err := decodeParseInfo(data[pos : pos+parseInfoSize])
		if err != nil || info.NextParseOffset == 0 {
			return units, false
		}
		pos += int(info.NextParseOffset)
	}
	return units, true
}

func decodeParseInfo(buf []byte) (ParseInfo, error) {
	if len(buf) < parseInfoSize {
		return ParseInfo{}, fmt.Errorf("%w: parse info truncated", errs.ErrTruncated)
	}
	if buf[0] != parseInfoPrefix[0] || buf[1] != parseInfoPrefix[1] || buf[2] != parseInfoPrefix[2] || buf[3] != parseInfoPrefix[3] {
		return ParseInfo{}, fmt.Errorf("%w: bad parse info prefix", errs.ErrParse)
	}
	return ParseInfo{
		ParseCode:       buf[4],
		PrevParseOffset: binary.BigEndian.Uint32(buf[5:9]),
		NextParseOffset: binary.BigEndian.Uint32(buf[9:13]),
	}, nil
}

func parseSequenceHeader(data []byte) (SequenceHeader, error) {
	if len(data) < 2 {
		return SequenceHeader{}, fmt.Errorf("%w: sequence header truncated", errs.ErrTruncated)
	}
	// A full Dirac sequence_header parse requires an exp-golomb reader
	// over parse_parameters/video_parameters; bmx decodes only the
	// major and minor version bytes.
	return SequenceHeader{
		MajorVersion: data[0],
		MinorVersion: data[1],
	}, nil
}

// RewritePictureNumbers computes monotonically contiguous picture numbers
// for the given picture units: startNumber+i for the i-th unit. It does not
// read or modify any unit data; patching the numbers into the stream is
// left to the caller. Auxiliary units are not stripped and no end-of-sequence
// unit is appended.
func RewritePictureNumbers(units []int, startNumber uint32) []uint32 {
	out := make([]uint32, len(units))
	for i := range units {
		out[i] = startNumber + uint32(i)
	}
	return out
}
