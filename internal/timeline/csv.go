// Package timeline dumps per-frame energy and activity as CSV for plotting.
package timeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Header is the first CSV record.
var Header = []string{"frame", "time_s", "energy", "threshold", "active"}

// Point is one analysis frame.
type Point struct {
	Frame     int
	Energy    float64
	Threshold float64
	Active    bool
}

// Write emits points as CSV. frameDuration converts frame indices to seconds.
func Write(w io.Writer, points []Point, frameDuration float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range points {
		active := "0"
		if p.Active {
			active = "1"
		}
		record := []string{
			strconv.Itoa(p.Frame),
			strconv.FormatFloat(float64(p.Frame)*frameDuration, 'f', 3, 64),
			strconv.FormatFloat(p.Energy, 'g', -1, 64),
			strconv.FormatFloat(p.Threshold, 'g', -1, 64),
			active,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write frame %d: %w", p.Frame, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FromSeries builds points for an offline decode, where every frame shares
// one threshold.
func FromSeries(energies []float64, act []bool, threshold float64) []Point {
	points := make([]Point, len(energies))
	for i, e := range energies {
		points[i] = Point{Frame: i, Energy: e, Threshold: threshold}
		if i < len(act) {
			points[i].Active = act[i]
		}
	}
	return points
}

// WriteFile writes points to path, replacing any existing file.
func WriteFile(path string, points []Point, frameDuration float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create timeline: %w", err)
	}
	if err = Write(f, points, frameDuration); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
