// Package datamodel describes the registry of set definitions and item
// definitions keyed by UL that the header-metadata graph is validated
// against. It is deliberately separate from the metadata
// package: a Registry is pure description (what sets and items exist, and
// how they inherit); metadata.Graph is the in-memory instance data.
package datamodel

import "github.com/bmx-go/bmx/klv"

// ItemType names the primitive or reference encoding of an item's value.
// The list follows primitive type catalogue.
type ItemType int

const (
	TypeUnknown ItemType = iota
	TypeUInt8
	TypeUInt16
	TypeUInt32
	TypeUInt64
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUTF16String // optional explicit length; null-terminated convention on read
	TypeUTF8String
	TypeISO7String
	TypeTimestamp // year, month, day, hour, min, sec, qmsec
	TypeRational
	TypeUUID
	TypeUMID
	TypeProductVersion
	TypeRGBALayout
	TypeJ2KComponentSizing
	TypeColorPrimaries
	TypeAES3FixedData
	TypeVideoLineMap
	TypeBoolean
	TypeStrongRef        // singular strong reference to another set
	TypeStrongRefArray   // array of strong references (batch)
	TypeWeakRef          // singular weak reference
	TypeWeakRefArray     // array of weak references
	TypeRaw              // opaque bytes, used for unknown/extension items
)

// ItemDef describes one item key: its primitive or reference type and
// whether it may appear as an array (count + element-length header +
// elements).
type ItemDef struct {
	Key     klv.Key
	Name    string
	Type    ItemType
	IsArray bool
}

// SetDef describes one set key, its human name, and its parent in the
// inheritance chain ("A set definition declares its parent
// key; is-subclass-of walks the chain").
type SetDef struct {
	Key    klv.Key
	Name   string
	Parent *klv.Key // nil for a root set (e.g. InterchangeObject)
}
