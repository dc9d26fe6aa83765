package ulhash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum64IgnoresVersionByte(t *testing.T) {
	a := [16]byte{1, 2, 3, 4, 5, 6, 7, 9}
	b := a
	b[versionByte] = 0xAB

	require.Equal(t, Sum64(a), Sum64(b))
}

func TestSum64DiffersOnOtherBytes(t *testing.T) {
	a := [16]byte{1}
	b := [16]byte{2}
	require.NotEqual(t, Sum64(a), Sum64(b))
}
