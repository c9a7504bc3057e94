// Package synth renders text as keyed CW audio.
package synth

import (
	"errors"
	"math"

	"github.com/ColonelBlimp/cwfft/internal/cw"
)

var (
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidFrequency indicates the tone must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("tone frequency must be positive and less than Nyquist frequency")
	// ErrInvalidWPM indicates WPM must be positive
	ErrInvalidWPM = errors.New("WPM must be positive")
	// ErrInvalidAmplitude indicates amplitude must be in (0, 1]
	ErrInvalidAmplitude = errors.New("amplitude must be between 0.0 and 1.0")
)

// DefaultRampMs is the raised-cosine edge applied to every element.
const DefaultRampMs = 5.0

// Keyer renders Morse elements with ITU timing.
type Keyer struct {
	SampleRate int
	Frequency  float64
	WPM        float64
	Amplitude  float64
	// RampMs is the rise and fall time of each element (0 = hard keying)
	RampMs float64
	// PadDits is the silence before the first and after the last element, in dits
	PadDits float64
}

// NewKeyer creates a keyer with DefaultRampMs edges and no padding.
func NewKeyer(sampleRate int, frequency, wpm, amplitude float64) (*Keyer, error) {
	k := &Keyer{
		SampleRate: sampleRate,
		Frequency:  frequency,
		WPM:        wpm,
		Amplitude:  amplitude,
		RampMs:     DefaultRampMs,
	}
	if err := k.validate(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Keyer) validate() error {
	if k.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if k.Frequency <= 0 || k.Frequency >= float64(k.SampleRate)/2 {
		return ErrInvalidFrequency
	}
	if k.WPM <= 0 {
		return ErrInvalidWPM
	}
	if k.Amplitude <= 0 || k.Amplitude > 1 {
		return ErrInvalidAmplitude
	}
	return nil
}

// DitSamples returns the length of one dit in samples.
func (k *Keyer) DitSamples() int {
	return int(math.Round(cw.DitDuration(k.WPM) / 1000 * float64(k.SampleRate)))
}

// Render returns the audio for text. Characters without a Morse code are
// skipped; whitespace separates words.
func (k *Keyer) Render(text string) ([]float32, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}

	dit := k.DitSamples()
	pad := int(k.PadDits * float64(dit))
	out := make([]float32, 0, 64*dit)
	out = append(out, make([]float32, pad)...)

	for w, word := range cw.EncodeText(text) {
		if w > 0 {
			out = k.silence(out, int(cw.WordSpaceRatio)*dit)
		}
		for c, code := range word {
			if c > 0 {
				out = k.silence(out, int(cw.InterCharSpaceRatio)*dit)
			}
			for e, element := range code {
				if e > 0 {
					out = k.silence(out, int(cw.IntraCharSpaceRatio)*dit)
				}
				length := dit
				if element == '-' {
					length = int(cw.DahDitRatio) * dit
				}
				out = k.tone(out, length)
			}
		}
	}

	return append(out, make([]float32, pad)...), nil
}

func (k *Keyer) silence(out []float32, n int) []float32 {
	return append(out, make([]float32, n)...)
}

// tone appends n samples of the carrier shaped by the ramp envelope.
func (k *Keyer) tone(out []float32, n int) []float32 {
	ramp := int(k.RampMs / 1000 * float64(k.SampleRate))
	if ramp > n/2 {
		ramp = n / 2
	}
	omega := 2 * math.Pi * k.Frequency / float64(k.SampleRate)

	for i := 0; i < n; i++ {
		env := 1.0
		switch {
		case i < ramp:
			env = 0.5 * (1 - math.Cos(math.Pi*float64(i)/float64(ramp)))
		case i >= n-ramp:
			env = 0.5 * (1 - math.Cos(math.Pi*float64(n-1-i)/float64(ramp)))
		}
		out = append(out, float32(k.Amplitude*env*math.Sin(omega*float64(i))))
	}
	return out
}
