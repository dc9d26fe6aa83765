package mxfio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadKLShortForm(t *testing.T) {
	var key [16]byte
	key[0] = 0x06
	buf := append(append([]byte{}, key[:]...), 42)

	gotKey, llen, length, err := ReadKL(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, key, gotKey)
	require.Equal(t, 1, llen)
	require.Equal(t, uint64(42), length)
}

func TestReadKLLongForm(t *testing.T) {
	var key [16]byte
	buf := append([]byte{}, key[:]...)
	buf = append(buf, 0x82, 0x01, 0x2C) // 0x012C == 300

	gotKey, llen, length, err := ReadKL(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, key, gotKey)
	require.Equal(t, 3, llen)
	require.Equal(t, uint64(300), length)
}

func TestReadKLTruncatedKeyFails(t *testing.T) {
	_, _, _, err := ReadKL(bytes.NewReader([]byte{1, 2, 3}))
	require.Error(t, err)
}

func TestWriteFixedKLThenReadKLRoundTrip(t *testing.T) {
	var key [16]byte
	for i := range key {
		key[i] = byte(i + 1)
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFixedKL(&buf, key, 4, 1000))

	gotKey, llen, length, err := ReadKL(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, key, gotKey)
	require.Equal(t, 4, llen)
	require.Equal(t, uint64(1000), length)
}
