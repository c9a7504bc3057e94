// internal/dsp/threshold.go
package dsp

import (
	"math"
	"slices"
)

const (
	// LowPercentile and HighPercentile bracket the silence and tone clusters
	LowPercentile  = 10.0
	HighPercentile = 90.0
	// MADEpsilon keeps the streaming threshold above the median on a flat window
	MADEpsilon = 1e-9
)

// PercentileMidpoint returns the offline threshold: the mean of the 10th and
// 90th percentiles of the finite values in series, or 0 when none are finite.
func PercentileMidpoint(series []float64) float64 {
	finite := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0
	}
	slices.Sort(finite)

	lo := percentileSorted(finite, LowPercentile)
	hi := percentileSorted(finite, HighPercentile)
	return 0.5 * (lo + hi)
}

// MedianMAD returns median + k*MAD of a calibration window recorded while the
// channel was quiet.
func MedianMAD(window []float64, k float64) (float64, error) {
	if len(window) == 0 {
		return 0, ErrEmptyCalibration
	}

	m := Median(window)
	dev := make([]float64, len(window))
	for i, v := range window {
		dev[i] = math.Abs(v - m)
	}
	mad := Median(dev) + MADEpsilon
	return m + k*mad, nil
}

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between closest ranks. values is not modified. Returns NaN
// for an empty input.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return percentileSorted(sorted, p)
}

// Median is Percentile(values, 50): the mean of the two middle values for an
// even count.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

func percentileSorted(sorted []float64, p float64) float64 {
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
