// Package umid generates SMPTE UMIDs (Unique Material Identifiers), the
// 32-byte package identifiers used throughout header metadata as PackageUID.
package umid

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// UMID is a basic (32-byte) SMPTE UMID: a 12-byte Universal Label, a 1-byte
// length, a 3-byte instance number, and a 16-byte material number.
type UMID [32]byte

// basicUL is the 12-byte Universal Label prefix identifying a SMPTE basic
// UMID built from a random material number (SMPTE-normalized "no
// registered dictionary" variant, the one bmx always generates).
var basicUL = [12]byte{
	0x06, 0x0a, 0x2b, 0x34, 0x01, 0x01, 0x01, 0x01,
	0x01, 0x01, 0x0f, 0x00,
}

// Generate creates a fresh UMID with a random 16-byte material number and
// an instance number derived from the current time, following the
// "random material number, time-snapshot instance number" generation
// method libMXF defaults to when no facility/application identifiers are
// configured.
func Generate() ([32]byte, error) {
	var u [32]byte
	copy(u[0:12], basicUL[:])
	u[12] = 0x13 // length of remaining UMID data
	u[13] = 0x00 // bytes 13-15: instance number, filled in below
	u[14] = 0x00
	u[15] = 0x00

	if _, err := rand.Read(u[16:32]); err != nil {
		return u, err
	}

	instance := uint32(time.Now().UnixNano()) & 0x00ffffff
	var instanceBytes [4]byte
	binary.BigEndian.PutUint32(instanceBytes[:], instance)
	copy(u[13:16], instanceBytes[1:4])

	return u, nil
}
