package dcptime

import "fmt"

// HZ is the number of Time units per second. 96000 divides evenly by every
// frame and sample rate a package can carry, so positions on the timeline
// never need fractional units.
const HZ = 96000

// Time is a position or duration on the package timeline, in units of 1/HZ
// seconds.
type Time int64

// FromFrames converts a frame count at the given rate to a Time.
func FromFrames(frames int64, rate int) Time {
	return Time(frames * HZ / int64(rate))
}

// FromSeconds converts a duration in seconds to a Time.
func FromSeconds(s float64) Time {
	return Time(s * HZ)
}

// Seconds returns t in seconds.
func (t Time) Seconds() float64 {
	return float64(t) / HZ
}

// FramesRound returns the number of frames at rate closest to t.
func (t Time) FramesRound(rate int) int64 {
	r := int64(rate)
	return (int64(t)*r + HZ/2) / HZ
}

// FramesFloor returns the largest frame count at rate not exceeding t.
func (t Time) FramesFloor(rate int) int64 {
	return int64(t) * int64(rate) / HZ
}

// FramesCeil returns the smallest frame count at rate not less than t.
func (t Time) FramesCeil(rate int) int64 {
	r := int64(rate)
	return (int64(t)*r + HZ - 1) / HZ
}

// Split breaks t into hours, minutes, seconds and frames at the given rate.
func (t Time) Split(rate int) (h, m, s, f int) {
	frames := t.FramesRound(rate)
	f = int(frames % int64(rate))
	seconds := frames / int64(rate)
	s = int(seconds % 60)
	minutes := seconds / 60
	m = int(minutes % 60)
	h = int(minutes / 60)
	return h, m, s, f
}

func (t Time) String() string {
	return fmt.Sprintf("%d/%d", int64(t), HZ)
}

// Period is a half-open interval [From, To) on the package timeline.
type Period struct {
	From Time
	To   Time
}

// Duration returns the length of p.
func (p Period) Duration() Time {
	return p.To - p.From
}

// Contains reports whether t lies within p.
func (p Period) Contains(t Time) bool {
	return p.From <= t && t < p.To
}

// Overlap returns the intersection of p and other, if any.
func (p Period) Overlap(other Period) (Period, bool) {
	from := maxTime(p.From, other.From)
	to := minTime(p.To, other.To)
	if from >= to {
		return Period{}, false
	}
	return Period{From: from, To: to}, true
}

func maxTime(a, b Time) Time {
	if a > b {
		return a
	}
	return b
}

func minTime(a, b Time) Time {
	if a < b {
		return a
	}
	return b
}
