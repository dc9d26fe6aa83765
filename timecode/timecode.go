// Package timecode converts between frame counts and SMPTE timecode,
// including drop-frame correction for 29.97/59.94 edit rates.
package timecode

import "fmt"

// Timecode is a decoded HH:MM:SS:FF value.
type Timecode struct {
	Hours, Minutes, Seconds, Frames int
	DropFrame                      bool
}

// FromFrameCount converts a frame count to a Timecode at roundedFPS
// (the rate rounded to the nearest integer, e.g. 30 for 29.97), applying
// drop-frame correction when dropFrame is set ("drop-frame
// timecode skips frame numbers :00 and :01 at the start of every minute
// except every tenth minute").
func FromFrameCount(frameCount int64, roundedFPS int, dropFrame bool) Timecode {
	if !dropFrame {
		return fromLinearCount(frameCount, roundedFPS, false)
	}

	framesPerMinute := int64(roundedFPS) * 60
	dropPerMin := int64(dropFramesPerMinute(roundedFPS))
	framesPer10Minutes := framesPerMinute*10 - dropPerMin*9

	d := frameCount / framesPer10Minutes
	m := frameCount % framesPer10Minutes

	adjusted := m
	if m >= dropPerMin {
		adjusted = m + dropPerMin*((m-dropPerMin)/(framesPerMinute-dropPerMin))
	}

	total := d*framesPerMinute*10 + adjusted
	return fromLinearCount(total, roundedFPS, true)
}

func dropFramesPerMinute(roundedFPS int) int {
	switch roundedFPS {
	case 30:
		return 2
	case 60:
		return 4
	default:
		return 0
	}
}

func fromLinearCount(frameCount int64, roundedFPS int, dropFrame bool) Timecode {
	framesPerSecond := int64(roundedFPS)
	framesPerMinute := framesPerSecond * 60
	framesPerHour := framesPerMinute * 60

	h := frameCount / framesPerHour
	frameCount -= h * framesPerHour
	m := frameCount / framesPerMinute
	frameCount -= m * framesPerMinute
	s := frameCount / framesPerSecond
	frameCount -= s * framesPerSecond

	return Timecode{
		Hours:      int(h),
		Minutes:    int(m),
		Seconds:    int(s),
		Frames:     int(frameCount),
		DropFrame:  dropFrame,
	}
}

// ToFrameCount is the inverse of FromFrameCount.
func ToFrameCount(tc Timecode, roundedFPS int) int64 {
	framesPerMinute := int64(roundedFPS) * 60
	totalMinutes := int64(tc.Hours)*60 + int64(tc.Minutes)
	count := totalMinutes*framesPerMinute + int64(tc.Seconds)*int64(roundedFPS) + int64(tc.Frames)

	if tc.DropFrame {
		dropPerMin := int64(dropFramesPerMinute(roundedFPS))
		skippedMinutes := totalMinutes - totalMinutes/10
		count -= skippedMinutes * dropPerMin
	}

	return count
}

// String renders the timecode as HH:MM:SS:FF, using a semicolon separator
// before the frame field for drop-frame timecode per SMPTE convention.
func (tc Timecode) String() string {
	sep := ":"
	if tc.DropFrame {
		sep = ";"
	}
	return fmt.Sprintf("%02d:%02d:%02d%s%02d", tc.Hours, tc.Minutes, tc.Seconds, sep, tc.Frames)
}
