// Package reader implements the single-file and group MXF readers: partition
// list parsing, header-graph validation, index-table decode, per-track
// random access, frame metadata attachment, and multi-file group composition.
package reader

import (
	"fmt"
	"io"

	"github.com/bmx-go/bmx/datamodel"
	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/indextable"
	"github.com/bmx-go/bmx/klv"
	"github.com/bmx-go/bmx/metadata"
	"github.com/bmx-go/bmx/mxfio"
	"github.com/bmx-go/bmx/partition"
)

// partitionEntry is one parsed partition pack plus the file offset of its
// own key (not its body), used to seek back to it during essence scanning.
type partitionEntry struct {
	pos  int64
	pack *partition.Pack
}

// EssenceElement is one KLV essence item located during the body scan: its
// element key (carrying the track suffix), stream offset (the offset of its
// value, matching index-table StreamOffset), and length.
type EssenceElement struct {
	Key    klv.Key
	Offset int64
	Length uint64
}

// FileReader parses one MXF file's structure: every partition pack, the
// validated header-metadata graph, every index table segment, and a
// per-BodySID essence element index built by walking each body partition
// once at open time ("parses the partition list, validates
// the header graph, decodes index tables").
type FileReader struct {
	File     mxfio.File
	Registry *datamodel.Registry
	Graph    *metadata.Graph

	partitions []partitionEntry
	segments   []*indextable.Segment

	// essenceBySID indexes essence elements by BodySID in file order, used
	// by TrackReader.lookup for sequential/CBE access and as a fallback for
	// VBE segments that predate bmx's own writer (tolerates
	// index-less reads by falling back to a linear scan result).
	essenceBySID map[uint32][]EssenceElement
}

// Open parses f's full partition list, reads and validates the header
// metadata graph, decodes every index table segment, and indexes essence
// elements by BodySID.
func Open(f mxfio.File, registry *datamodel.Registry) (*FileReader, error) {
	r := &FileReader{
		File:         f,
		Registry:     registry,
		essenceBySID: make(map[uint32][]EssenceElement),
	}

	if _, err := f.Seek(0, mxfio.SeekStart); err != nil {
		return nil, err
	}

	for {
		pos, err := f.Tell()
		if err != nil {
			return nil, err
		}
		size, err := f.Size()
		if err != nil {
			return nil, err
		}
		if pos >= size {
			break
		}

		keyBytes, llen, length, err := f.ReadKL()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		_ = llen
		key := klv.Key(keyBytes)

		if partition.IsPartitionKey(key) {
			value := make([]byte, length)
			if length > 0 {
				if _, err := io.ReadFull(f, value); err != nil {
					return nil, fmt.Errorf("%w: reading partition pack: %v", errs.ErrIO, err)
				}
			}
			pack, err := partition.Read(key, value)
			if err != nil {
				return nil, err
			}
			r.partitions = append(r.partitions, partitionEntry{pos: pos, pack: pack})

			if err := r.readPartitionBody(f, pack); err != nil {
				return nil, err
			}
			continue
		}

		if klv.IsFillKey(key) {
			if _, err := f.Seek(int64(length), mxfio.SeekCurrent); err != nil {
				return nil, err
			}
			continue
		}

		// An essence element or index segment encountered outside a
		// partition pack's own declared regions (shouldn't normally
		// happen since readPartitionBody consumes its partition fully,
		// but skip defensively rather than desync the scan).
		if _, err := f.Seek(int64(length), mxfio.SeekCurrent); err != nil {
			return nil, err
		}
	}

	if err := r.validateGraph(); err != nil {
		return nil, err
	}

	return r, nil
}

// readPartitionBody consumes exactly the header-metadata, index-table and
// essence regions a partition pack declares, in that fixed order, leaving
// the cursor at the start of the next partition pack (or EOF).
func (r *FileReader) readPartitionBody(f mxfio.File, pack *partition.Pack) error {
	if pack.HeaderByteCount > 0 {
		g, err := metadata.ReadHeaderMetadata(f, r.Registry, pack.HeaderByteCount)
		if err != nil {
			return err
		}
		if r.Graph == nil {
			r.Graph = g
		} else {
			for _, s := range g.Sets() {
				if err := r.Graph.Add(s); err != nil {
					return err
				}
			}
		}
	}

	if pack.IndexByteCount > 0 {
		end, err := addOffset(f, pack.IndexByteCount)
		if err != nil {
			return err
		}
		for {
			pos, err := f.Tell()
			if err != nil {
				return err
			}
			if pos >= end {
				break
			}
			key, llen, length, err := f.ReadKL()
			if err != nil {
				return err
			}
			_ = llen
			k := klv.Key(key)
			if klv.IsFillKey(k) {
				if _, err := f.Seek(int64(length), mxfio.SeekCurrent); err != nil {
					return err
				}
				continue
			}
			if !k.Equals(indextable.IndexSegmentKey) {
				if _, err := f.Seek(int64(length), mxfio.SeekCurrent); err != nil {
					return err
				}
				continue
			}
			value := make([]byte, length)
			if _, err := io.ReadFull(f, value); err != nil {
				return fmt.Errorf("%w: reading index segment: %v", errs.ErrIO, err)
			}
			seg, err := indextable.Decode(value)
			if err != nil {
				return err
			}
			r.segments = append(r.segments, seg)
		}
	}

	if pack.BodySID != 0 {
		// Essence runs to the end of the partition's body data, which
		// ends where the next partition pack begins; since we don't know
		// that offset yet, scan element by element until the next
		// partition-pack key or EOF is seen.
		for {
			pos, err := f.Tell()
			if err != nil {
				return err
			}
			size, err := f.Size()
			if err != nil {
				return err
			}
			if pos >= size {
				break
			}
			keyBytes, llen, length, err := f.ReadKL()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			_ = llen
			k := klv.Key(keyBytes)
			if partition.IsPartitionKey(k) {
				if _, err := f.Seek(pos, mxfio.SeekStart); err != nil {
					return err
				}
				break
			}
			valuePos, err := f.Tell()
			if err != nil {
				return err
			}
			if klv.IsFillKey(k) {
				if _, err := f.Seek(int64(length), mxfio.SeekCurrent); err != nil {
					return err
				}
				continue
			}
			r.essenceBySID[pack.BodySID] = append(r.essenceBySID[pack.BodySID], EssenceElement{
				Key:    k,
				Offset: valuePos,
				Length: length,
			})
			if _, err := f.Seek(int64(length), mxfio.SeekCurrent); err != nil {
				return err
			}
		}
	}

	return nil
}

func addOffset(f mxfio.File, n uint64) (int64, error) {
	pos, err := f.Tell()
	if err != nil {
		return 0, err
	}
	return pos + int64(n), nil
}

// validateGraph checks the header-metadata graph forms a DAG rooted at
// Preface (invariant, enforced by metadata.Graph).
func (r *FileReader) validateGraph() error {
	if r.Graph == nil {
		return fmt.Errorf("%w: no header metadata found in file", errs.ErrParse)
	}
	return r.Graph.CheckAcyclic()
}

// IndexSegmentsFor returns every decoded index segment for indexSID, in
// partition order.
func (r *FileReader) IndexSegmentsFor(indexSID uint32) []*indextable.Segment {
	var out []*indextable.Segment
	for _, seg := range r.segments {
		if seg.IndexSID == indexSID {
			out = append(out, seg)
		}
	}
	return out
}

// EssenceElementsFor returns every scanned essence element for bodySID, in
// file order (one per content package per track, since bmx's writer emits
// exactly one element per track per edit unit).
func (r *FileReader) EssenceElementsFor(bodySID uint32) []EssenceElement {
	return r.essenceBySID[bodySID]
}
