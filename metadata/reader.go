package metadata

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bmx-go/bmx/datamodel"
	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/klv"
	"github.com/bmx-go/bmx/mxfio"
)

// ReadHeaderMetadata decodes the primer pack and every metadata set that
// follows it, up to byteCount bytes from the cursor's current position
// (the partition pack's HeaderByteCount, step "read the byte
// range named by the enclosing partition"). KLVFill items interleaved
// between sets are skipped transparently.
func ReadHeaderMetadata(f mxfio.File, registry *datamodel.Registry, byteCount uint64) (*Graph, error) {
	start, err := f.Tell()
	if err != nil {
		return nil, err
	}

	var primer *Primer
	g := NewGraph(registry)

	for {
		pos, err := f.Tell()
		if err != nil {
			return nil, err
		}
		if uint64(pos-start) >= byteCount {
			break
		}

		key, llen, length, err := mxfio.SkipFillItems(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		_ = llen

		value := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(f, value); err != nil {
				return nil, fmt.Errorf("%w: reading set value: %v", errs.ErrIO, err)
			}
		}

		k := klv.Key(key)
		if k.Equals(primerPackKey) {
			primer, err = ReadPrimerPack(value)
			if err != nil {
				return nil, err
			}
			continue
		}

		if primer == nil {
			return nil, fmt.Errorf("%w: metadata set encountered before primer pack", errs.ErrParse)
		}

		set, err := decodeSet(k, value, primer)
		if err != nil {
			return nil, err
		}
		if err := g.Add(set); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// decodeSet parses a set's value as a sequence of (local tag, length,
// value) records, resolving each local tag to an item key via primer.
func decodeSet(key klv.Key, value []byte, primer *Primer) (*Set, error) {
	var instanceUID [16]byte
	items := make([]*Item, 0, 8)

	for off := 0; off < len(value); {
		if off+4 > len(value) {
			return nil, fmt.Errorf("%w: truncated item header in set %s", errs.ErrTruncated, key)
		}
		tag := binary.BigEndian.Uint16(value[off : off+2])
		length := binary.BigEndian.Uint16(value[off+2 : off+4])
		off += 4
		if off+int(length) > len(value) {
			return nil, fmt.Errorf("%w: item tag 0x%04x value runs past set end", errs.ErrTruncated, tag)
		}
		itemValue := value[off : off+int(length)]
		off += int(length)

		itemKey, ok := primer.KeyFor(tag)
		if !ok {
			return nil, fmt.Errorf("%w: local tag 0x%04x", errs.ErrUnknownLocalTag, tag)
		}

		it := NewItem(tag, itemKey, append([]byte(nil), itemValue...))
		items = append(items, it)

		if itemKey.Equals(datamodel.InstanceUIDItemKey) {
			copy(instanceUID[:], itemValue)
		}
	}

	s := NewSet(key, instanceUID)
	for _, it := range items {
		s.Set(it)
	}
	return s, nil
}
