// Package wavio loads and writes WAV clips for the offline decoder.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const saveBitDepth = 16

var (
	// ErrInvalidWAV indicates the input is not a readable WAV file
	ErrInvalidWAV = errors.New("not a valid WAV file")
	// ErrEmptyClip indicates the WAV file carries no samples
	ErrEmptyClip = errors.New("WAV file contains no samples")
)

// Clip is mono audio at its native sample rate.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the clip length.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// Skip drops the first seconds of the clip. A non-positive skip, or one that
// would consume the whole clip, leaves it untouched.
func (c Clip) Skip(seconds float64) Clip {
	n := int(seconds * float64(c.SampleRate))
	if seconds <= 0 || n <= 0 || n >= len(c.Samples) {
		return c
	}
	return Clip{Samples: c.Samples[n:], SampleRate: c.SampleRate}
}

// Load reads the WAV file at path.
func Load(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	clip, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// Read decodes a WAV stream, downmixes it to mono, peak-normalises it and
// removes any DC offset.
func Read(r io.ReadSeeker) (*Clip, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read PCM buffer: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, ErrEmptyClip
	}

	fb := buf.AsFloatBuffer()
	if err = transforms.MonoDownmix(fb); err != nil {
		return nil, fmt.Errorf("downmix: %w", err)
	}
	transforms.NormalizeMax(fb)
	floats.AddConst(-stat.Mean(fb.Data, nil), fb.Data)

	samples := make([]float32, len(fb.Data))
	for i, v := range fb.Data {
		samples[i] = float32(v)
	}
	return &Clip{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// Save writes samples as 16-bit mono PCM. Values outside [-1, 1] are clipped.
func Save(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	if err = Write(f, samples, sampleRate); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Write encodes samples as 16-bit mono PCM into w.
func Write(w io.WriteSeeker, samples []float32, sampleRate int) error {
	maxInt := float64(int(1)<<(saveBitDepth-1) - 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		data[i] = int(v * maxInt)
	}

	encoder := wav.NewEncoder(w, sampleRate, saveBitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: saveBitDepth,
	}
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}
