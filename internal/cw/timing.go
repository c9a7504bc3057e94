// internal/cw/timing.go
package cw

import (
	"errors"

	"github.com/ColonelBlimp/cwfft/internal/activity"
	"github.com/ColonelBlimp/cwfft/internal/dsp"
)

// Decision boundaries in dot units, derived from the observed dot length.
const (
	// DotPercentile is the on-run length percentile taken as the dot unit
	DotPercentile = 30.0
	// MinDotFrames is the floor for the dot unit
	MinDotFrames = 1.0
	// DashThresholdRatio: on-runs at least this many dots long are dashes
	DashThresholdRatio = 2.0
	// IntraCharGapRatio: off-runs shorter than this are jitter inside a letter
	IntraCharGapRatio = 1.5
	// LetterGapRatio: off-runs at least this long end the letter
	LetterGapRatio = InterCharSpaceRatio
	// WordGapRatio: off-runs at least this long also end the word
	WordGapRatio = WordSpaceRatio
)

// ErrNoSignalDetected indicates the stream contains no tone-on runs.
var ErrNoSignalDetected = errors.New("no signal detected")

// Timing holds the frame-count cutoffs used to classify runs.
type Timing struct {
	DotFrames     float64
	DashThreshold float64
	IntraCharGap  float64
	LetterGap     float64
	WordGap       float64
}

// NewTiming derives all cutoffs from a dot unit, applying the MinDotFrames floor.
func NewTiming(dotFrames float64) Timing {
	if dotFrames < MinDotFrames {
		dotFrames = MinDotFrames
	}
	return Timing{
		DotFrames:     dotFrames,
		DashThreshold: DashThresholdRatio * dotFrames,
		IntraCharGap:  IntraCharGapRatio * dotFrames,
		LetterGap:     LetterGapRatio * dotFrames,
		WordGap:       WordGapRatio * dotFrames,
	}
}

// DeriveTiming estimates the dot unit from the on-run lengths and returns the
// resulting cutoffs. Runs without any tone yield ErrNoSignalDetected.
func DeriveTiming(runs []activity.Run) (Timing, error) {
	onLengths := activity.OnLengths(runs)
	if len(onLengths) == 0 {
		return Timing{}, ErrNoSignalDetected
	}
	return NewTiming(dsp.Percentile(onLengths, DotPercentile)), nil
}

// WPM converts the dot unit to words per minute for frames of the given
// duration in seconds.
func (t Timing) WPM(frameDuration float64) float64 {
	ditMs := t.DotFrames * frameDuration * 1000
	if ditMs <= 0 {
		return 0
	}
	return MillisecondsPerMinute / (ditMs * DitsPerWord)
}
