// Package activity turns a per-frame energy series into tone on/off runs.
package activity

// Run is a maximal stretch of frames sharing the same activity state.
type Run struct {
	On     bool
	Length int
}

// Binarize marks each frame active when its energy reaches the threshold.
// A frame with no band energy at all is never active, so an all-zero series
// (threshold 0) reads as silence.
func Binarize(series []float64, threshold float64) []bool {
	bits := make([]bool, len(series))
	for i, e := range series {
		bits[i] = e >= threshold && e > 0
	}
	return bits
}

// Encode run-length encodes bits. The result is nil for empty input and never
// contains two adjacent runs with the same state.
func Encode(bits []bool) []Run {
	if len(bits) == 0 {
		return nil
	}

	runs := make([]Run, 0, 8)
	cur := Run{On: bits[0], Length: 1}
	for _, b := range bits[1:] {
		if b == cur.On {
			cur.Length++
			continue
		}
		runs = append(runs, cur)
		cur = Run{On: b, Length: 1}
	}
	return append(runs, cur)
}

// Expand reverses Encode.
func Expand(runs []Run) []bool {
	total := 0
	for _, r := range runs {
		total += r.Length
	}
	bits := make([]bool, 0, total)
	for _, r := range runs {
		for i := 0; i < r.Length; i++ {
			bits = append(bits, r.On)
		}
	}
	return bits
}

// OnLengths returns the lengths of the tone-on runs in order.
func OnLengths(runs []Run) []float64 {
	var lengths []float64
	for _, r := range runs {
		if r.On {
			lengths = append(lengths, float64(r.Length))
		}
	}
	return lengths
}
