package partition

import (
	"encoding/binary"
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/klv"
	"github.com/bmx-go/bmx/mxfio"
)

// RandomIndexKey is the SMPTE RandomIndexPack key, recognized by exact
// match (unlike partition packs, which vary by kind/status byte).
var RandomIndexKey = klv.Key{
	0x06, 0x0e, 0x2b, 0x34, 0x02, 0x05, 0x01, 0x01,
	0x0d, 0x01, 0x02, 0x01, 0x11, 0x01, 0x00, 0x00,
}

// RandomIndexEntry maps one partition's BodySID to its byte offset, so a
// reader can seek directly to any partition without scanning the file
// linearly.
type RandomIndexEntry struct {
	BodySID       uint32
	ByteOffset    uint64
}

// RandomIndexPack is the footer-of-file table of every partition in the
// file plus the byte offset of the pack itself ("written
// once, as the very last item in the file, so a reader can find it by
// reading the trailing 4-byte length field at EOF").
type RandomIndexPack struct {
	Entries       []RandomIndexEntry
	ThisPartition uint64 // offset of the RandomIndexPack itself
}

// Write encodes and writes the random index pack, including its own
// trailing 4-byte total length (the convention a reader seeking from EOF
// relies on).
func (rip *RandomIndexPack) Write(f mxfio.File, llen int) error {
	valueLen := len(rip.Entries)*12 + 4
	if err := f.WriteFixedKL(RandomIndexKey, llen, uint64(valueLen)); err != nil {
		return err
	}

	buf := make([]byte, 0, valueLen)
	var u32 [4]byte
	var u64 [8]byte
	for _, e := range rip.Entries {
		binary.BigEndian.PutUint32(u32[:], e.BodySID)
		buf = append(buf, u32[:]...)
		binary.BigEndian.PutUint64(u64[:], e.ByteOffset)
		buf = append(buf, u64[:]...)
	}

	total := uint32(16 + llen + valueLen)
	binary.BigEndian.PutUint32(u32[:], total)
	buf = append(buf, u32[:]...)

	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	return nil
}

// ReadRandomIndexPack decodes a previously-read random index pack value.
// The trailing 4-byte length field is skipped: it is neither checked nor
// returned; callers
// that need it for the EOF-seek trick read it separately before calling
// this function.
func ReadRandomIndexPack(value []byte) (*RandomIndexPack, error) {
	if len(value) < 4 {
		return nil, fmt.Errorf("%w: random index pack truncated", errs.ErrTruncated)
	}
	entryBytes := len(value) - 4
	if entryBytes%12 != 0 {
		return nil, fmt.Errorf("%w: random index pack entry region not a multiple of 12 bytes", errs.ErrParse)
	}

	rip := &RandomIndexPack{}
	for off := 0; off < entryBytes; off += 12 {
		rip.Entries = append(rip.Entries, RandomIndexEntry{
			BodySID:    binary.BigEndian.Uint32(value[off : off+4]),
			ByteOffset: binary.BigEndian.Uint64(value[off+4 : off+12]),
		})
	}
	return rip, nil
}
