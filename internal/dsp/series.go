// internal/dsp/series.go
package dsp

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidConfiguration indicates a parameter combination that can never produce frames
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrEmptyCalibration indicates the streaming calibration window holds no energies
	ErrEmptyCalibration = fmt.Errorf("%w: empty calibration window", ErrInvalidConfiguration)
)

// frameEpsilon absorbs products like 0.07*100 = 6.9999999 before flooring.
const frameEpsilon = 1e-9

// FrameLength returns the number of samples per frame for the given rate and
// frame duration in seconds.
func FrameLength(sampleRate int, frameDuration float64) (int, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfiguration, sampleRate)
	}
	frameLen := int(math.Floor(float64(sampleRate)*frameDuration + frameEpsilon))
	if frameLen < 1 {
		return 0, fmt.Errorf("%w: frame length %d samples (rate %d Hz, frame %vs)",
			ErrInvalidConfiguration, frameLen, sampleRate, frameDuration)
	}
	return frameLen, nil
}

// BuildEnergySeries slices samples into consecutive non-overlapping frames and
// returns the band energy of each one in time order. Trailing samples that do
// not fill a frame are dropped; fewer samples than one frame yields an empty
// series.
func BuildEnergySeries(samples []float32, sampleRate int, frameDuration, center, bandwidth float64) ([]float64, error) {
	frameLen, err := FrameLength(sampleRate, frameDuration)
	if err != nil {
		return nil, err
	}

	nFrames := len(samples) / frameLen
	energies := make([]float64, nFrames)
	for i := 0; i < nFrames; i++ {
		frame := samples[i*frameLen : (i+1)*frameLen]
		energies[i] = BandEnergy(frame, sampleRate, center, bandwidth)
	}
	return energies, nil
}
