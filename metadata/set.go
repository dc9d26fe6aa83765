// Package metadata implements the header-metadata graph: sets, items,
// strong/weak references, the primer pack, and the read/write pipeline that
// ties them to a mxfio.File. datamodel.Registry supplies
// the "what can exist"; Graph holds the "what does exist" for one file.
package metadata

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/klv"
)

// Set is one header-metadata set instance: a key identifying its type, an
// InstanceUID identifying this instance (the target of strong/weak
// references elsewhere in the graph), and its items keyed by local tag.
type Set struct {
	Key         klv.Key
	InstanceUID [16]byte

	items []*Item       // write order, stable across read-modify-write round trips
	byTag map[uint16]*Item
}

// NewSet creates an empty set of the given type with the given InstanceUID.
func NewSet(key klv.Key, instanceUID [16]byte) *Set {
	return &Set{
		Key:         key,
		InstanceUID: instanceUID,
		byTag:       make(map[uint16]*Item),
	}
}

// Set installs or replaces an item by local tag, preserving first-seen
// write order. An item with tag 0 has no local tag yet: it replaces the item
// with the same key and takes over that item's tag, or, when the set holds
// no such item, is given the highest tag the set does not use yet, so that
// Get can find it.
func (s *Set) Set(item *Item) {
	if item.Tag == 0 {
		for _, it := range s.items {
			if it.Key.Equals(item.Key) {
				item.Tag = it.Tag
				break
			}
		}
		for tag := uint16(0xffff); item.Tag == 0; tag-- {
			if _, used := s.byTag[tag]; !used {
				item.Tag = tag
			}
		}
	}
	if _, exists := s.byTag[item.Tag]; !exists {
		s.items = append(s.items, item)
	} else {
		for i, it := range s.items {
			if it.Tag == item.Tag {
				s.items[i] = item
				break
			}
		}
	}
	s.byTag[item.Tag] = item
}

// Get looks up an item by local tag.
func (s *Set) Get(tag uint16) (*Item, bool) {
	it, ok := s.byTag[tag]
	return it, ok
}

// MustGet looks up an item by local tag, returning ErrParse annotated with
// the owning set's key if absent.
func (s *Set) MustGet(tag uint16) (*Item, error) {
	it, ok := s.byTag[tag]
	if !ok {
		return nil, fmt.Errorf("%w: set %s missing required item tag 0x%04x", errs.ErrParse, s.Key, tag)
	}
	return it, nil
}

// Items returns every item in stable write order.
func (s *Set) Items() []*Item {
	return s.items
}
