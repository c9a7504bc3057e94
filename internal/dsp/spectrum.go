// internal/dsp/spectrum.go
package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum is the two-sided magnitude spectrum of one frame.
// Freqs and Mags are parallel; Freqs follows the FFT bin order
// (0, positive bins, then negative bins).
type Spectrum struct {
	Freqs []float64
	Mags  []float64
}

// ComputeSpectrum transforms a frame into its magnitude spectrum.
// An empty frame yields an empty spectrum.
func ComputeSpectrum(frame []float32, sampleRate int) Spectrum {
	n := len(frame)
	if n == 0 {
		return Spectrum{}
	}

	input := make([]float64, n)
	for i, s := range frame {
		input[i] = float64(s)
	}
	coeffs := fft.FFTReal(input)

	spec := Spectrum{
		Freqs: make([]float64, n),
		Mags:  make([]float64, n),
	}
	for k := 0; k < n; k++ {
		spec.Freqs[k] = binFrequency(k, n, sampleRate)
		spec.Mags[k] = cmplx.Abs(coeffs[k])
	}
	return spec
}

// binFrequency maps bin k of an n-point transform to Hz, wrapping the
// upper half of the bins to negative frequencies.
func binFrequency(k, n, sampleRate int) float64 {
	idx := k
	if k > (n-1)/2 {
		idx = k - n
	}
	return float64(idx) * float64(sampleRate) / float64(n)
}

// BandEnergy sums the magnitudes of every bin whose absolute frequency lies
// in [center-bandwidth/2, center+bandwidth/2], both ends inclusive.
func (s Spectrum) BandEnergy(center, bandwidth float64) float64 {
	lo := center - bandwidth/2
	hi := center + bandwidth/2

	var sum float64
	for i, f := range s.Freqs {
		f = math.Abs(f)
		if f >= lo && f <= hi {
			sum += s.Mags[i]
		}
	}
	return sum
}

// Peak returns the absolute frequency and magnitude of the strongest bin.
func (s Spectrum) Peak() (float64, float64) {
	if len(s.Mags) == 0 {
		return 0, 0
	}
	best := 0
	for i, m := range s.Mags {
		if m > s.Mags[best] {
			best = i
		}
	}
	return math.Abs(s.Freqs[best]), s.Mags[best]
}

// DetectTone reports whether the spectrum's peak lies within tolerance Hz of
// target, together with the peak frequency.
func DetectTone(s Spectrum, target, tolerance float64) (bool, float64) {
	peak, _ := s.Peak()
	return math.Abs(peak-target) <= tolerance, peak
}

// BandEnergy measures the tone energy of a single frame. It is the per-frame
// primitive shared by the offline series builder and the streaming monitor.
func BandEnergy(frame []float32, sampleRate int, center, bandwidth float64) float64 {
	return ComputeSpectrum(frame, sampleRate).BandEnergy(center, bandwidth)
}
