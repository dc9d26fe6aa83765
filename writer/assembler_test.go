package writer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bmx-go/bmx/mxfio"
)

func newTestAssembler() (*Assembler, *Track, *Track) {
	picture := NewTrack(KindOP1A, ClassPicture, NewElementKey(0x15), 1, 2)
	sound := NewTrack(KindOP1A, ClassSound, NewElementKey(0x16), 1, 2)
	asm := NewAssembler([]*Track{picture, sound}, 512, 4)
	return asm, picture, sound
}

func TestAssemblerReadyToAssembleRequiresEveryTrack(t *testing.T) {
	asm, picture, sound := newTestAssembler()
	require.False(t, asm.ReadyToAssemble())

	require.NoError(t, picture.WriteSamples([]byte{1, 2}, 1))
	require.False(t, asm.ReadyToAssemble())

	require.NoError(t, sound.WriteSamples([]byte{3, 4}, 1))
	require.True(t, asm.ReadyToAssemble())
}

func TestAssemblerWriteContentPackageWritesInOrder(t *testing.T) {
	asm, picture, sound := newTestAssembler()
	require.NoError(t, picture.WriteSamples([]byte{0xAA}, 1))
	require.NoError(t, sound.WriteSamples([]byte{0xBB, 0xCC}, 1))

	f := mxfio.NewMemoryFile(1024)
	n, err := asm.WriteContentPackage(f)
	require.NoError(t, err)
	require.Greater(t, n, int64(0))
	require.EqualValues(t, 1, asm.EditUnitCount())
	require.False(t, picture.HasEditUnit())
	require.False(t, sound.HasEditUnit())
}

func TestAssemblerWriteContentPackageFailsWhenNotReady(t *testing.T) {
	asm, picture, _ := newTestAssembler()
	require.NoError(t, picture.WriteSamples([]byte{0xAA}, 1))

	f := mxfio.NewMemoryFile(1024)
	_, err := asm.WriteContentPackage(f)
	require.Error(t, err)
}

func TestAssemblerShouldOpenPartitionRespectsIntervalAndVBEGate(t *testing.T) {
	asm, _, _ := newTestAssembler()
	asm.PartitionInterval = 2

	require.False(t, asm.ShouldOpenPartition(true))

	asm.sinceLastPartition = 2
	require.False(t, asm.ShouldOpenPartition(false))
	require.True(t, asm.ShouldOpenPartition(true))

	asm.NotePartitionOpened()
	require.False(t, asm.ShouldOpenPartition(true))
}

func TestAssemblerShouldOpenPartitionDisabledByZeroInterval(t *testing.T) {
	asm, _, _ := newTestAssembler()
	asm.sinceLastPartition = 100
	require.False(t, asm.ShouldOpenPartition(true))
}
