package timecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromFrameCountNonDropLinear(t *testing.T) {
	tc := FromFrameCount(25*3661, 25, false) // 1h 1m 1s
	require.Equal(t, Timecode{Hours: 1, Minutes: 1, Seconds: 1, Frames: 0}, tc)
}

func TestFromFrameCountDropFrameSkipsFirstTwoFramesEachMinute(t *testing.T) {
	// One minute in at 30fps non-drop would be exactly frame 1800 -> 00:01:00:00.
	// Drop-frame timecode skips :00 and :01 there, landing on 00:01:00:02.
	tc := FromFrameCount(1800, 30, true)
	require.Equal(t, 1, tc.Minutes)
	require.Equal(t, 0, tc.Seconds)
	require.Equal(t, 2, tc.Frames)
	require.True(t, tc.DropFrame)
}

func TestFromFrameCountDropFrameDoesNotSkipEveryTenthMinute(t *testing.T) {
	// The tenth minute boundary is exempt from the drop-frame skip. Nine
	// minutes have each dropped 2 frame numbers, so it falls on frame
	// 30*60*10 - 18 = 17982.
	tc := FromFrameCount(17982, 30, true)
	require.Equal(t, 10, tc.Minutes)
	require.Equal(t, 0, tc.Seconds)
	require.Equal(t, 0, tc.Frames)
}

func TestToFrameCountInvertsFromFrameCountNonDrop(t *testing.T) {
	const fps = 25
	for _, fc := range []int64{0, 1, 24, 25, 3661 * 25, 86399 * 25} {
		tc := FromFrameCount(fc, fps, false)
		require.Equal(t, fc, ToFrameCount(tc, fps), "frame count %d", fc)
	}
}

func TestToFrameCountInvertsFromFrameCountDropFrame(t *testing.T) {
	const fps = 30
	for _, fc := range []int64{0, 1799, 1800, 1801, 17982, 18000} {
		tc := FromFrameCount(fc, fps, true)
		require.Equal(t, fc, ToFrameCount(tc, fps), "frame count %d", fc)
	}
}

func TestTimecodeStringUsesSemicolonForDropFrame(t *testing.T) {
	tc := Timecode{Hours: 1, Minutes: 2, Seconds: 3, Frames: 4, DropFrame: true}
	require.Equal(t, "01:02:03;04", tc.String())
}

func TestTimecodeStringUsesColonForNonDropFrame(t *testing.T) {
	tc := Timecode{Hours: 1, Minutes: 2, Seconds: 3, Frames: 4}
	require.Equal(t, "01:02:03:04", tc.String())
}
