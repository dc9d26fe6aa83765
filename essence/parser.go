// Package essence defines the shared contract every coded-video bitstream
// parser implements: locate the first frame boundary in a
// buffer, measure a frame's size once its boundary is known, and decode
// frame-level parameters needed to auto-author an MXF essence descriptor.
// Concrete parsers live in essence/avc, essence/mpeg2, essence/dv,
// essence/mjpeg, essence/vc3, essence/vc2, essence/rdd36, essence/j2k and
// essence/rdd6; essence/descriptor turns their output into metadata sets.
package essence

// NullOffset marks "no frame boundary found in this buffer yet" — the
// caller should feed more bytes and call ParseFrameStart again rather than
// treat it as an error ("restartable" contract).
const NullOffset = -1

// NullFrameSize marks "the buffer does not hold a complete, valid frame of
// this codec" as distinct from NullOffset's "need more data".
const NullFrameSize = -1

// Parser is the contract shared by every essence/<codec> package. All
// parsers are finite-state and restartable: calling ParseFrameStart on a
// fresh buffer resumes a scan-for-boundary state, while persistent
// parameters (AVC SPS/PPS, VC-2 sequence header, and so on) survive across
// frames because later frames reference them.
type Parser interface {
	// ParseFrameStart scans data for the offset of the first complete
	// frame's start, returning NullOffset if no boundary has been found
	// yet (the caller should append more bytes and retry).
	ParseFrameStart(data []byte) (int, error)

	// ParseFrameSize returns the size in bytes of the frame beginning at
	// offset 0 of data, NullOffset if more data is needed to determine it,
	// or NullFrameSize if the bytes at offset 0 are not a valid frame of
	// this codec.
	ParseFrameSize(data []byte) (int, error)

	// ParseFrameInfo decodes frame-level parameters from the first size
	// bytes of data, updating the parser's persistent state (new SPS/PPS,
	// sequence headers, and so on) and the per-frame fields a caller reads
	// back through the concrete parser type.
	ParseFrameInfo(data []byte, size int) error
}

// FrameType classifies a decoded picture's prediction structure, shared
// across the codecs that distinguish I/P/B pictures.
type FrameType int

const (
	FrameTypeUnknown FrameType = iota
	FrameTypeI
	FrameTypeP
	FrameTypeB
)

func (t FrameType) String() string {
	switch t {
	case FrameTypeI:
		return "I"
	case FrameTypeP:
		return "P"
	case FrameTypeB:
		return "B"
	default:
		return "unknown"
	}
}
