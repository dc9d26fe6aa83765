package datamodel

import (
	"fmt"

	"github.com/bmx-go/bmx/errs"
	"github.com/bmx-go/bmx/klv"
)

// Registry is the data model: a table of set definitions and item
// definitions keyed by UL. Registries can be cloned into a
// derived registry so that application-specific extensions (e.g. an AS-11 or
// UK-DPP framework) can add set/item definitions without mutating the base
// registry (and SPEC_FULL.md's AS-11 framework-helper
// supplement).
type Registry struct {
	sets  map[klv.Key]*SetDef
	items map[klv.Key]*ItemDef
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sets:  make(map[klv.Key]*SetDef),
		items: make(map[klv.Key]*ItemDef),
	}
}

// RegisterSet adds a set definition. Re-registering the same key overwrites
// the previous definition.
func (r *Registry) RegisterSet(def SetDef) {
	d := def
	r.sets[keyMasked(def.Key)] = &d
}

// RegisterItem adds an item definition.
func (r *Registry) RegisterItem(def ItemDef) {
	d := def
	r.items[keyMasked(def.Key)] = &d
}

// SetDef looks up a set definition by key.
func (r *Registry) SetDef(key klv.Key) (*SetDef, bool) {
	d, ok := r.sets[keyMasked(key)]
	return d, ok
}

// ItemDef looks up an item definition by key.
func (r *Registry) ItemDef(key klv.Key) (*ItemDef, bool) {
	d, ok := r.items[keyMasked(key)]
	return d, ok
}

// IsSubclassOf walks the parent chain of setKey looking for parentKey.
func (r *Registry) IsSubclassOf(setKey, parentKey klv.Key) bool {
	cur := setKey
	seen := map[klv.Key]bool{}
	for {
		if keyMasked(cur) == keyMasked(parentKey) {
			return true
		}
		if seen[keyMasked(cur)] {
			return false // cyclic parent chain, treat as no match
		}
		seen[keyMasked(cur)] = true

		def, ok := r.sets[keyMasked(cur)]
		if !ok || def.Parent == nil {
			return false
		}
		cur = *def.Parent
	}
}

// Clone returns a new Registry seeded with copies of every set and item
// definition in r, so the caller can register additional (e.g. scheme-
// specific) definitions without mutating the base registry in place.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	for k, v := range r.sets {
		d := *v
		out.sets[k] = &d
	}
	for k, v := range r.items {
		d := *v
		out.items[k] = &d
	}
	return out
}

func keyMasked(k klv.Key) klv.Key {
	k[7] = 0
	return k
}

// MustGetSetDef looks up a set definition, returning ErrUnsupportedFormat if
// the key is unregistered.
func (r *Registry) MustGetSetDef(key klv.Key) (*SetDef, error) {
	d, ok := r.SetDef(key)
	if !ok {
		return nil, fmt.Errorf("%w: unregistered set key %s", errs.ErrUnsupportedFormat, key)
	}
	return d, nil
}
