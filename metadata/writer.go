package metadata

import (
	"encoding/binary"
	"fmt"

	"github.com/bmx-go/bmx/datamodel"
	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/mxfio"
)

// WriteHeaderMetadata writes a primer pack followed by every set in g, in
// the order returned by g.Sets, using llen-byte BER length headers. A set
// with no InstanceUID item is first given one carrying its InstanceUID, so
// that the reader recovers each set's identity. It returns the total number
// of bytes written, which the caller records as the enclosing partition's
// HeaderByteCount.
func WriteHeaderMetadata(f mxfio.File, g *Graph, llen int) (int64, error) {
	primer := NewPrimer()
	for _, s := range g.Sets() {
		hasUID := false
		for _, it := range s.Items() {
			hasUID = hasUID || it.Key.Equals(datamodel.InstanceUIDItemKey)
		}
		if !hasUID {
			s.Set(NewItem(0, datamodel.InstanceUIDItemKey, s.InstanceUID[:]))
		}
		for _, it := range s.Items() {
			primer.TagFor(it.Key)
		}
	}

	var written int64

	primerValue := primer.Encode()
	if err := f.WriteFixedKL(primerPackKey, llen, uint64(len(primerValue))); err != nil {
		return written, err
	}
	if _, err := f.Write(primerValue); err != nil {
		return written, fmt.Errorf("%w: %v", errs.ErrIO, err)
	}
	written += 16 + int64(llen) + int64(len(primerValue))

	for _, s := range g.Sets() {
		value := encodeSetValue(s, primer)
		if err := f.WriteFixedKL(s.Key, llen, uint64(len(value))); err != nil {
			return written, err
		}
		if _, err := f.Write(value); err != nil {
			return written, fmt.Errorf("%w: %v", errs.ErrIO, err)
		}
		written += 16 + int64(llen) + int64(len(value))
	}

	return written, nil
}

// encodeSetValue renders a set's items as a sequence of (local tag,
// 2-byte length, value) records in the set's stable write order.
func encodeSetValue(s *Set, primer *Primer) []byte {
	var buf []byte
	for _, it := range s.Items() {
		tag := primer.TagFor(it.Key)
		var hdr [4]byte
		binary.BigEndian.PutUint16(hdr[0:2], tag)
		binary.BigEndian.PutUint16(hdr[2:4], uint16(len(it.Value)))
		buf = append(buf, hdr[:]...)
		buf = append(buf, it.Value...)
	}
	return buf
}
