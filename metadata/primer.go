package metadata

import (
	"encoding/binary"
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/klv"
)

// primerStartTag is the first local tag bmx assigns to an item key when
// building a primer pack from scratch. Tags below this are reserved by
// convention for statically-defined dictionaries that some applications
// expect (open question on static vs. dynamic tags);
// bmx always writes a dynamic primer and never relies on the reservation.
const primerStartTag = 0x8000

// Primer is the local-tag <-> item-key mapping that every set of items in a
// header-metadata byte stream is encoded against ("a primer
// pack precedes the metadata sets and assigns a local tag to each item key
// used in the stream").
type Primer struct {
	tagToKey map[uint16]klv.Key
	keyToTag map[klv.Key]uint16
	next     uint16
}

// NewPrimer creates an empty primer with dynamic tag assignment starting at
// primerStartTag.
func NewPrimer() *Primer {
	return &Primer{
		tagToKey: make(map[uint16]klv.Key),
		keyToTag: make(map[klv.Key]uint16),
		next:     primerStartTag,
	}
}

// TagFor returns the local tag assigned to key, assigning a new one if this
// is the first time key has been seen.
func (p *Primer) TagFor(key klv.Key) uint16 {
	if tag, ok := p.keyToTag[key]; ok {
		return tag
	}
	tag := p.next
	p.next++
	p.tagToKey[tag] = key
	p.keyToTag[key] = tag
	return tag
}

// KeyFor resolves a local tag back to its item key.
func (p *Primer) KeyFor(tag uint16) (klv.Key, bool) {
	k, ok := p.tagToKey[tag]
	return k, ok
}

// Register inserts an explicit tag/key pair, used when reading a primer
// pack off the wire rather than assigning tags for a new write.
func (p *Primer) Register(tag uint16, key klv.Key) {
	p.tagToKey[tag] = key
	p.keyToTag[key] = tag
	if tag >= p.next {
		p.next = tag + 1
	}
}

// primerPackKey is the SMPTE PrimerPack set key.
var primerPackKey = klv.Key{
	0x06, 0x0e, 0x2b, 0x34, 0x02, 0x05, 0x01, 0x01,
	0x0d, 0x01, 0x02, 0x01, 0x01, 0x05, 0x01, 0x00,
}

// ReadPrimerPack decodes a primer pack's value (count, element-size header,
// then count*(tag,key) pairs).
func ReadPrimerPack(value []byte) (*Primer, error) {
	if len(value) < 8 {
		return nil, fmt.Errorf("%w: primer pack header truncated", errs.ErrTruncated)
	}
	count := binary.BigEndian.Uint32(value[0:4])
	elemSize := binary.BigEndian.Uint32(value[4:8])
	if elemSize != 18 {
		return nil, fmt.Errorf("%w: primer pack element size %d, want 18", errs.ErrParse, elemSize)
	}
	need := 8 + int(count)*18
	if len(value) < need {
		return nil, fmt.Errorf("%w: primer pack needs %d bytes, has %d", errs.ErrTruncated, need, len(value))
	}

	p := NewPrimer()
	for i := 0; i < int(count); i++ {
		off := 8 + i*18
		tag := binary.BigEndian.Uint16(value[off : off+2])
		key := klv.KeyFromBytes(value[off+2 : off+18])
		p.Register(tag, key)
	}
	return p, nil
}

// Encode renders the primer pack value in a deterministic tag order.
func (p *Primer) Encode() []byte {
	tags := make([]uint16, 0, len(p.tagToKey))
	for tag := range p.tagToKey {
		tags = append(tags, tag)
	}
	// insertion order isn't tracked separately; sort for determinism.
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tags[j-1] > tags[j]; j-- {
			tags[j-1], tags[j] = tags[j], tags[j-1]
		}
	}

	buf := make([]byte, 8, 8+len(tags)*18)
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(tags)))
	binary.BigEndian.PutUint32(buf[4:8], 18)
	for _, tag := range tags {
		key := p.tagToKey[tag]
		var rec [18]byte
		binary.BigEndian.PutUint16(rec[0:2], tag)
		copy(rec[2:18], key[:])
		buf = append(buf, rec[:]...)
	}
	return buf
}

// Key returns the PrimerPack set key.
func (p *Primer) Key() klv.Key { return primerPackKey }
