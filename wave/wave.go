// Package wave implements the WAVE clip writer: RIFF for files under 4 GiB,
// promoted to RF64/BW64 for larger files or when ADM chunks are present. It
// shares the same mxfio.File facade the MXF writer uses, so either can back
// onto disk, memory, or any other File implementation.
package wave

import (
	"encoding/binary"
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/mxfio"
)

// rf64Threshold is the point past which a RIFF file must be promoted to
// RF64 ("size...>4 GiB forces RF64").
const rf64Threshold = 1<<32 - 1

// fourCC byte sequences used throughout chunk headers.
var (
	riffID = [4]byte{'R', 'I', 'F', 'F'}
	rf64ID = [4]byte{'R', 'F', '6', '4'}
	bw64ID = [4]byte{'B', 'W', '6', '4'}
	waveID = [4]byte{'W', 'A', 'V', 'E'}
	junkID = [4]byte{'J', 'U', 'N', 'K'}
	ds64ID = [4]byte{'d', 's', '6', '4'}
	bextID = [4]byte{'b', 'e', 'x', 't'}
	fmtID  = [4]byte{'f', 'm', 't', ' '}
	factID = [4]byte{'f', 'a', 'c', 't'}
	chnaID = [4]byte{'c', 'h', 'n', 'a'}
	dataID = [4]byte{'d', 'a', 't', 'a'}
)

// admChunkIDs are the ADM chunk four-CCs whose presence forces BW64 instead
// of plain RF64 ("presence of ADM chna/axml/bxml/sxml forces
// BW64").
var admChunkIDs = map[[4]byte]bool{
	chnaID:                  true,
	{'a', 'x', 'm', 'l'}: true,
	{'b', 'x', 'm', 'l'}: true,
	{'s', 'x', 'm', 'l'}: true,
}

// Format struct (PCM fmt chunk fields).
type Format struct {
	FormatTag     uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// blockAlign and ByteRate are derivable from Format for PCM.
func (f Format) blockAlign() uint16 { return f.Channels * (f.BitsPerSample / 8) }
func (f Format) byteRate() uint32   { return f.SampleRate * uint32(f.blockAlign()) }

// UserChunk is an opaque chunk written verbatim after the recognized
// chunks and before data ("user chunks").
type UserChunk struct {
	ID   [4]byte
	Data []byte
}

// Writer is the WAVE clip writer. It always begins in the RIFF shape with a
// JUNK placeholder reserved for a later ds64 promotion, so the decision to
// promote can be deferred to Complete ("JUNK placeholder for
// ds64, promoted to ds64 on completion if large").
type Writer struct {
	File mxfio.File

	Format    Format
	BEXT      []byte // raw broadcast-extension chunk payload, if any
	ChunkData []byte // raw chna chunk payload, if any (forces BW64)
	UserChunks []UserChunk

	riffSizePos int64
	junkPos     int64
	junkSize    int64
	dataSizePos int64
	dataStart   int64
	factSizePos int64

	isBW64 bool
}

// NewWriter creates a Writer over f.
func NewWriter(f mxfio.File, format Format) *Writer {
	return &Writer{File: f, Format: format}
}

func writeChunkHeader(f mxfio.File, id [4]byte, size uint32) error {
	if _, err := f.Write(id[:]); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], size)
	if _, err := f.Write(sz[:]); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

// Start writes the RIFF header, the ds64 JUNK placeholder, the optional
// BEXT (skipped once BW64 is in play), fmt, fact (skipped for BW64), the
// optional chna, and the user chunks, in that fixed order.
func (w *Writer) Start() error {
	w.isBW64 = w.ChunkData != nil

	if _, err := w.File.Write(riffID[:]); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	pos, err := w.File.Tell()
	if err != nil {
		return err
	}
	w.riffSizePos = pos
	var placeholder [4]byte
	if _, err := w.File.Write(placeholder[:]); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	if _, err := w.File.Write(waveID[:]); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}

	// ds64 reserve: 28 bytes is enough for RIFF size + data size + sample
	// count + table length, the fields a promotion needs to fill in.
	const ds64ReserveSize = 28
	w.junkPos, err = w.File.Tell()
	if err != nil {
		return err
	}
	if err := writeChunkHeader(w.File, junkID, ds64ReserveSize); err != nil {
		return err
	}
	if _, err := w.File.Write(make([]byte, ds64ReserveSize)); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	w.junkSize = 8 + ds64ReserveSize

	if !w.isBW64 && len(w.BEXT) > 0 {
		if err := writeChunkHeader(w.File, bextID, uint32(len(w.BEXT))); err != nil {
			return err
		}
		if _, err := w.File.Write(w.BEXT); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
		if len(w.BEXT)%2 == 1 {
			if err := w.File.PutByte(0); err != nil {
				return err
			}
		}
	}

	if err := w.writeFmt(); err != nil {
		return err
	}

	if !w.isBW64 {
		if err := w.writeFact(); err != nil {
			return err
		}
	}

	if w.ChunkData != nil {
		if err := writeChunkHeader(w.File, chnaID, uint32(len(w.ChunkData))); err != nil {
			return err
		}
		if _, err := w.File.Write(w.ChunkData); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
	}

	for _, uc := range w.UserChunks {
		if err := writeChunkHeader(w.File, uc.ID, uint32(len(uc.Data))); err != nil {
			return err
		}
		if _, err := w.File.Write(uc.Data); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
	}

	if err := writeChunkHeader(w.File, dataID, 0); err != nil {
		return err
	}
	dataSizePos, err := w.File.Tell()
	if err != nil {
		return err
	}
	w.dataSizePos = dataSizePos - 4
	w.dataStart = dataSizePos
	return nil
}

func (w *Writer) writeFmt() error {
	const fmtSize = 16
	if err := writeChunkHeader(w.File, fmtID, fmtSize); err != nil {
		return err
	}
	var buf [fmtSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], w.Format.FormatTag)
	binary.LittleEndian.PutUint16(buf[2:4], w.Format.Channels)
	binary.LittleEndian.PutUint32(buf[4:8], w.Format.SampleRate)
	binary.LittleEndian.PutUint32(buf[8:12], w.Format.byteRate())
	binary.LittleEndian.PutUint16(buf[12:14], w.Format.blockAlign())
	binary.LittleEndian.PutUint16(buf[14:16], w.Format.BitsPerSample)
	_, err := w.File.Write(buf[:])
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

func (w *Writer) writeFact() error {
	if err := writeChunkHeader(w.File, factID, 4); err != nil {
		return err
	}
	pos, err := w.File.Tell()
	if err != nil {
		return err
	}
	w.factSizePos = pos
	var placeholder [4]byte
	_, err = w.File.Write(placeholder[:])
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

// WriteSamples appends raw PCM bytes to the data chunk.
func (w *Writer) WriteSamples(data []byte) error {
	_, err := w.File.Write(data)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

// Complete seeks back to patch the RIFF/data/fact lengths and, if the file
// grew past the RF64 threshold or ADM chunks are present, promotes the
// JUNK placeholder to a real ds64 chunk.
func (w *Writer) Complete() error {
	end, err := w.File.Tell()
	if err != nil {
		return err
	}
	dataSize := end - w.dataStart
	riffSize := end - (w.riffSizePos + 4)
	sampleCount := int64(0)
	if w.Format.blockAlign() > 0 {
		sampleCount = dataSize / int64(w.Format.blockAlign())
	}

	needsRF64 := riffSize > rf64Threshold || dataSize > rf64Threshold || w.isBW64

	if needsRF64 {
		if err := w.promoteToDS64(riffSize, dataSize, sampleCount); err != nil {
			return err
		}
		if _, err := w.File.Seek(0, mxfio.SeekStart); err != nil {
			return err
		}
		id := rf64ID
		if w.isBW64 {
			id = bw64ID
		}
		if _, err := w.File.Write(id[:]); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
		if err := w.patchU32(w.riffSizePos, 0xFFFFFFFF); err != nil {
			return err
		}
		if err := w.patchU32(w.dataSizePos, 0xFFFFFFFF); err != nil {
			return err
		}
	} else {
		if err := w.patchU32(w.riffSizePos, uint32(riffSize)); err != nil {
			return err
		}
		if err := w.patchU32(w.dataSizePos, uint32(dataSize)); err != nil {
			return err
		}
	}

	if !w.isBW64 {
		if err := w.patchU32(w.factSizePos, uint32(sampleCount)); err != nil {
			return err
		}
	}

	if _, err := w.File.Seek(end, mxfio.SeekStart); err != nil {
		return err
	}
	return nil
}

// promoteToDS64 rewrites the JUNK placeholder in place as a ds64 chunk
// carrying the oversized RIFF/data sizes and sample count.
func (w *Writer) promoteToDS64(riffSize, dataSize, sampleCount int64) error {
	if _, err := w.File.Seek(w.junkPos, mxfio.SeekStart); err != nil {
		return err
	}
	if err := writeChunkHeader(w.File, ds64ID, uint32(w.junkSize-8)); err != nil {
		return err
	}
	var buf [28]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(riffSize))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(dataSize))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(sampleCount))
	binary.LittleEndian.PutUint32(buf[24:28], 0) // table length: no aux chunk-size table entries
	if _, err := w.File.Write(buf[:]); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

func (w *Writer) patchU32(pos int64, v uint32) error {
	if _, err := w.File.Seek(pos, mxfio.SeekStart); err != nil {
		return err
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := w.File.Write(buf[:]); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

// IsADMChunk reports whether id is one of the ADM-specific chunk types that
// force BW64 selection.
func IsADMChunk(id [4]byte) bool { return admChunkIDs[id] }
