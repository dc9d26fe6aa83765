// Package ulhash hashes 16-byte identifiers (Key/UL and instanceUID/UUID)
// with the registry-version byte masked; klv.Key.Hash is built on it. The
// header-metadata graph and the primer pack key their maps by the raw 16
// bytes and do not use it.
package ulhash

import "github.com/cespare/xxhash/v2"

// versionByte is the registry-version byte position that equality
// comparisons, and therefore hashing, must ignore ("Equality
// comparisons ignore the registry-version byte (index 7) by policy").
const versionByte = 7

// Sum64 computes a fast, non-cryptographic hash of a 16-byte identifier with
// the registry-version byte masked to zero, so that two keys which compare
// equal under bmx's Key.Equals policy also hash equal.
func Sum64(id [16]byte) uint64 {
	id[versionByte] = 0
	return xxhash.Sum64(id[:])
}
