// Package j2k walks JPEG 2000 codestream marker segments (SOC, SIZ, COD,
// QCD, TLM, SOT, SOD, EOC), using tile-part lengths to skip coefficient
// data without decoding it.
package j2k

import (
	"encoding/binary"
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/essence"
)

// Marker values bmx recognizes (ISO/IEC 15444-1 Annex A).
const (
	MarkerSOC = 0xff4f
	MarkerSIZ = 0xff51
	MarkerCOD = 0xff52
	MarkerQCD = 0xff5c
	MarkerTLM = 0xff55
	MarkerSOT = 0xff90
	MarkerSOD = 0xff93
	MarkerEOC = 0xffd9
)

// ComponentSizing describes one Csiz entry: signed flag, bit depth and
// subsampling factors.
type ComponentSizing struct {
	Signed   bool
	BitDepth uint8
	XRsiz    uint8
	YRsiz    uint8
}

// Info holds the decoded codestream header fields.
type Info struct {
	Rsiz           uint16
	Width, Height  uint32
	Components     []ComponentSizing
	TransformIs53  bool // true => reversible 5/3 (lossless), false => 9/7 (lossy)
	MultipleComponentTransform bool
}

// Profile classifies the Rsiz capability marker into the broadcast
// profile/level bmx cares about ("Rsiz -> (profile,
// main-level, sub-level)").
type Profile struct {
	Profile   uint8
	MainLevel uint8
	SubLevel  uint8
}

// DecodeRsiz splits the Rsiz field into profile/main-level/sub-level per
// the ISO/IEC 15444-1 Amendment 3 broadcast profile encoding.
func DecodeRsiz(rsiz uint16) Profile {
	return Profile{
		Profile:   uint8(rsiz & 0x000f),
		MainLevel: uint8((rsiz >> 4) & 0x0f),
		SubLevel:  uint8((rsiz >> 8) & 0xff),
	}
}

// Parser walks a JPEG 2000 codestream. Each frame is an independent
// codestream from SOC to EOC; no state needs to persist across frames.
type Parser struct {
	Last Info

	// TileParts records each tile-part's (offset, length) as discovered
	// via SOT Psot fields or, when present, the TLM index, so a caller can
	// skip coefficient data without decoding it.
	TileParts []TilePart
}

// TilePart describes one SOT...tile-part-data run.
type TilePart struct {
	Offset int
	Length int
}

// NewParser creates a Parser.
func NewParser() *Parser { return &Parser{} }

// ParseFrameStart returns the offset of the SOC marker.
func (p *Parser) ParseFrameStart(data []byte) (int, error) {
	for i := 0; i+1 < len(data); i++ {
		if marker16(data, i) == MarkerSOC {
			return i, nil
		}
	}
	return essence.NullOffset, nil
}

// ParseFrameSize scans marker segments from offset 0 until EOC, using
// SOT Psot fields to skip tile-part data; it returns the offset just past
// EOC.
func (p *Parser) ParseFrameSize(data []byte) (int, error) {
	if len(data) < 2 || marker16(data, 0) != MarkerSOC {
		return essence.NullFrameSize, nil
	}

	pos := 2
	for pos+2 <= len(data) {
		m := marker16(data, pos)
		if m == MarkerEOC {
			return pos + 2, nil
		}
		if m == MarkerSOD {
			return essence.NullOffset, nil // SOD has no length field of its own; caller needs TLM/Psot
		}
		if pos+4 > len(data) {
			return essence.NullOffset, nil
		}
		segLen := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))

		if m == MarkerSOT {
			if pos+4+6 > len(data) {
				return essence.NullOffset, nil
			}
			psot := int(binary.BigEndian.Uint32(data[pos+6 : pos+10]))
			if psot == 0 {
				return essence.NullOffset, nil // unknown length until next tile-part/EOC
			}
			pos += psot
			continue
		}

		pos += 2 + segLen
	}
	return essence.NullOffset, nil
}

// ParseFrameInfo decodes SIZ and COD and records each tile-part's span
// from SOT/Psot; QCD and other marker segments are skipped.
func (p *Parser) ParseFrameInfo(data []byte, size int) error {
	if size > len(data) {
		return fmt.Errorf("%w: frame size %d exceeds buffer length %d", errs.ErrTruncated, size, len(data))
	}
	if size < 2 || marker16(data, 0) != MarkerSOC {
		return fmt.Errorf("%w: missing SOC marker", errs.ErrParse)
	}

	var info Info
	var tileParts []TilePart
	pos := 2
	for pos+2 <= size {
		m := marker16(data, pos)
		if m == MarkerEOC {
			break
		}
		if pos+4 > size {
			return fmt.Errorf("%w: truncated marker segment", errs.ErrTruncated)
		}
		segLen := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))

		switch m {
		case MarkerSIZ:
			if err := parseSIZ(data[pos+4:pos+2+segLen], &info); err != nil {
				return err
			}
		case MarkerCOD:
			if pos+4+5 <= size {
				info.MultipleComponentTransform = data[pos+4+4] == 1
			}
			if pos+4+10 <= size {
				info.TransformIs53 = data[pos+4+9] == 1
			}
		case MarkerSOT:
			if pos+4+6 > size {
				return fmt.Errorf("%w: truncated SOT marker", errs.ErrTruncated)
			}
			psot := int(binary.BigEndian.Uint32(data[pos+6 : pos+10]))
			tileParts = append(tileParts, TilePart{Offset: pos, Length: psot})
			if psot > 0 {
				pos += psot
				continue
			}
		}

		if m == MarkerSOD {
			pos += 2
			continue
		}
		pos += 2 + segLen
	}

	p.Last = info
	p.TileParts = tileParts
	return nil
}

func parseSIZ(payload []byte, info *Info) error {
	if len(payload) < 36 {
		return fmt.Errorf("%w: SIZ segment truncated", errs.ErrTruncated)
	}
	info.Rsiz = binary.BigEndian.Uint16(payload[0:2])
	xsiz := binary.BigEndian.Uint32(payload[2:6])
	ysiz := binary.BigEndian.Uint32(payload[6:10])
	xosiz := binary.BigEndian.Uint32(payload[10:14])
	yosiz := binary.BigEndian.Uint32(payload[14:18])
	info.Width = xsiz - xosiz
	info.Height = ysiz - yosiz

	csiz := binary.BigEndian.Uint16(payload[34:36])
	off := 36
	for i := 0; i < int(csiz); i++ {
		if off+3 > len(payload) {
			return fmt.Errorf("%w: Csiz entry truncated", errs.ErrTruncated)
		}
		ssiz := payload[off]
		info.Components = append(info.Components, ComponentSizing{
			Signed:   ssiz&0x80 != 0,
			BitDepth: (ssiz & 0x7f) + 1,
			XRsiz:    payload[off+1],
			YRsiz:    payload[off+2],
		})
		off += 3
	}
	return nil
}

func marker16(data []byte, pos int) int {
	if pos+1 >= len(data) {
		return -1
	}
	return int(binary.BigEndian.Uint16(data[pos : pos+2]))
}

// GuessRGBALayout infers whether the codestream holds an RGB(A) or YCbCr
// image when no external colour model is declared, using the component
// count and whether a multiple-component (inverse reversible/irreversible
// decorrelation) transform was signalled in COD ("guesses an
// RGBA layout").
func GuessRGBALayout(info Info) bool {
	return len(info.Components) >= 3 && !info.MultipleComponentTransform
}
