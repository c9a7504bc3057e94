// Package pipeline wires the offline decode: energy series, threshold,
// activity runs, timing and assembly.
package pipeline

import (
	"errors"
	"log/slog"

	"github.com/ColonelBlimp/cwfft/internal/activity"
	"github.com/ColonelBlimp/cwfft/internal/cw"
	"github.com/ColonelBlimp/cwfft/internal/dsp"
)

// Default parameters of the offline decoder.
const (
	DefaultCenterFrequency = 800.0
	DefaultBandwidth       = 180.0
	DefaultFrameDuration   = 0.02
)

// Config holds the offline decoder parameters.
// All values should come from the application config file.
type Config struct {
	// CenterFrequency is the tone frequency in Hz (from config: center_frequency)
	CenterFrequency float64
	// Bandwidth is the measured band width in Hz (from config: bandwidth)
	Bandwidth float64
	// FrameDuration is the analysis frame length in seconds (from config: frame_duration)
	FrameDuration float64
	// Decode maps a letter code to text; nil uses cw.DecodeSymbol
	Decode cw.SymbolDecoder
	// Logger receives debug output; nil uses slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns the offline defaults.
func DefaultConfig() Config {
	return Config{
		CenterFrequency: DefaultCenterFrequency,
		Bandwidth:       DefaultBandwidth,
		FrameDuration:   DefaultFrameDuration,
	}
}

// Result carries every intermediate of one decode.
type Result struct {
	Energies  []float64
	Threshold float64
	Activity  []bool
	Runs      []activity.Run
	Timing    cw.Timing
	Text      string
	// NoSignal is set when frames existed but none carried a tone
	NoSignal bool
}

// Pipeline decodes complete sample buffers. It holds no per-decode state and
// may be shared between goroutines.
type Pipeline struct {
	config Config
	logger *slog.Logger
}

// New creates a pipeline from cfg.
func New(cfg Config) *Pipeline {
	if cfg.Decode == nil {
		cfg.Decode = cw.DecodeSymbol
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{config: cfg, logger: logger}
}

// Decode returns the text carried by samples. Empty input and input without
// any tone both decode to "" with a nil error; only an unusable
// configuration is reported as an error.
func (p *Pipeline) Decode(samples []float32, sampleRate int) (string, error) {
	res, err := p.Analyze(samples, sampleRate)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Analyze runs the full pipeline and returns all intermediates.
func (p *Pipeline) Analyze(samples []float32, sampleRate int) (*Result, error) {
	energies, err := dsp.BuildEnergySeries(samples, sampleRate,
		p.config.FrameDuration, p.config.CenterFrequency, p.config.Bandwidth)
	if err != nil {
		return nil, err
	}

	res := &Result{Energies: energies}
	if len(energies) == 0 {
		p.logger.Debug("no complete frames to decode", "samples", len(samples), "sample_rate", sampleRate)
		return res, nil
	}

	res.Threshold = dsp.PercentileMidpoint(energies)
	res.Activity = activity.Binarize(energies, res.Threshold)
	res.Runs = activity.Encode(res.Activity)

	timing, err := cw.DeriveTiming(res.Runs)
	if errors.Is(err, cw.ErrNoSignalDetected) {
		res.NoSignal = true
		p.logger.Debug("no decodable content", "frames", len(energies), "threshold", res.Threshold)
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	res.Timing = timing

	res.Text = cw.Assemble(res.Runs, timing, p.config.Decode)

	p.logger.Debug("decoded",
		"frames", len(energies),
		"threshold", res.Threshold,
		"runs", len(res.Runs),
		"dot_frames", timing.DotFrames,
		"wpm", timing.WPM(p.config.FrameDuration),
		"chars", len(res.Text),
	)
	return res, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Decode runs a default pipeline over samples.
func Decode(samples []float32, sampleRate int) (string, error) {
	return New(DefaultConfig()).Decode(samples, sampleRate)
}

// MeasureEnergy is the per-frame band energy used by streaming callers.
func MeasureEnergy(frame []float32, sampleRate int, center, bandwidth float64) float64 {
	return dsp.BandEnergy(frame, sampleRate, center, bandwidth)
}
