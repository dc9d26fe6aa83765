package reader

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/bmx-go/bmx/klv"
	"github.com/bmx-go/bmx/timecode"
)

// systemItemKey is the generic-container system-item key bmx's writer
// emits for ClassSystem tracks (SMPTE-style SDTI-CP system metadata pack),
// distinguished from picture/sound/data elements by its item-type byte.
var systemItemKey = klv.Key{
	0x06, 0x0e, 0x2b, 0x34, 0x01, 0x02, 0x01, 0x01,
	0x0d, 0x01, 0x03, 0x01, 0x14, 0x01, 0x01, 0x00,
}

// SDTI-CP package-metadata-set tags recognized inside a system item's
// payload ("SDTI-CP package-metadata-block tags").
const (
	tagPackageMetadataSet = 0x01
	tagPictureEssenceMark = 0x02
	tagSoundEssenceMark   = 0x03
)

// FrameMetadataReader treats each payload it is given as a system item (it
// does not check the item's key) and recognizes the package-metadata block
// tags carried inside it, attaching per-frame timecodes, CRC-32
// checksums and raw package-metadata payloads to frames as they're read
// ("Metadata is keyed by UL and attached at read time by a
// per-file FrameMetadataReader").
type FrameMetadataReader struct {
	RoundedFPS int
	DropFrame  bool

	// ChecksumEnabled replicates the BBC preservation-scheme convention of
	// a CRC-32 trailer appended to the essence payload rather than carried
	// in a system item; it's a per-file setting, not per-frame.
	ChecksumEnabled bool
}

// NewFrameMetadataReader creates a FrameMetadataReader for a track running
// at roundedFPS (used to decode timecode arrays found in system items).
func NewFrameMetadataReader(roundedFPS int, dropFrame bool) *FrameMetadataReader {
	return &FrameMetadataReader{RoundedFPS: roundedFPS, DropFrame: dropFrame}
}

// Attach decorates frame based on data, which is the raw essence/system
// item payload just read for that edit unit. It is a no-op on data it does
// not recognize — metadata attachment is always best-effort.
func (m *FrameMetadataReader) Attach(frame *Frame, data []byte) {
	if m.ChecksumEnabled && len(data) >= 4 {
		payload := data[:len(data)-4]
		want := binary.BigEndian.Uint32(data[len(data)-4:])
		got := crc32.ChecksumIEEE(payload)
		frame.HasCRC32 = true
		frame.CRC32 = got
		_ = want // comparison is the caller's job; Attach only records what it saw
	}

	m.attachSystemItem(frame, data)
}

// attachSystemItem decodes a minimal SDTI-CP-style system item: a leading
// 4-byte frame count used as a timecode source, followed by
// (tag byte, length byte, payload) metadata pack entries.
func (m *FrameMetadataReader) attachSystemItem(frame *Frame, data []byte) {
	if len(data) < 4 {
		return
	}
	frameCount := int64(binary.BigEndian.Uint32(data[0:4]))
	if m.RoundedFPS > 0 {
		tc := timecode.FromFrameCount(frameCount, m.RoundedFPS, m.DropFrame)
		frame.Timecodes = append(frame.Timecodes, tc)
	}

	off := 4
	for off+2 <= len(data) {
		tag := data[off]
		length := int(data[off+1])
		off += 2
		if off+length > len(data) {
			return
		}
		payload := data[off : off+length]
		off += length

		switch tag {
		case tagPackageMetadataSet:
			frame.PackageMetadata = append([]byte(nil), payload...)
		case tagPictureEssenceMark, tagSoundEssenceMark:
			// Essence marks are recorded as part of the package-metadata
			// payload above; bmx does not currently split them out into
			// their own Frame field.
		}
	}
}
